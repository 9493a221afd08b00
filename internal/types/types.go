package types

import (
	"time"
)

// RunRequest represents a single submission from the editor
type RunRequest struct {
	Language   string `json:"language"`
	SourceCode string `json:"source_code"`
	Stdin      string `json:"stdin"`
}

// RunResult represents the display-ready outcome of a completed run
type RunResult struct {
	OutputLines []string `json:"output_lines"`
	IsError     bool     `json:"is_error"`
}

// RunState represents everything the output panel needs to render itself
type RunState struct {
	IsLoading    bool       `json:"is_loading"`
	LastResult   *RunResult `json:"last_result"`
	PendingError string     `json:"pending_error,omitempty"`
}

// Clone returns a deep copy of the state
func (s RunState) Clone() RunState {
	out := s
	if s.LastResult != nil {
		lines := make([]string, len(s.LastResult.OutputLines))
		copy(lines, s.LastResult.OutputLines)
		out.LastResult = &RunResult{
			OutputLines: lines,
			IsError:     s.LastResult.IsError,
		}
	}
	return out
}

// NotificationStatus represents the severity of a notification
type NotificationStatus string

const (
	StatusInfo    NotificationStatus = "info"
	StatusSuccess NotificationStatus = "success"
	StatusError   NotificationStatus = "error"
)

// Notification represents a transient, dismissible message shown to the user
type Notification struct {
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Status      NotificationStatus `json:"status"`
	Duration    time.Duration      `json:"duration"`
}

// FileData represents a source file sent to the execution service
type FileData struct {
	Name     string `json:"name,omitempty"`
	Content  string `json:"content"`
	Encoding string `json:"encoding,omitempty"`
}

// ExecuteRequest represents the execution service request body
type ExecuteRequest struct {
	Language string     `json:"language"`
	Version  string     `json:"version"`
	Files    []FileData `json:"files"`
	Stdin    string     `json:"stdin"`
}

// StageResult represents the result of a compilation or execution stage
type StageResult struct {
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`
	Output   string `json:"output"`
	Code     *int   `json:"code"`
	Signal   string `json:"signal,omitempty"`
	Memory   int64  `json:"memory,omitempty"`
	CPUTime  int64  `json:"cpu_time,omitempty"`
	WallTime int64  `json:"wall_time,omitempty"`
}

// ExecuteResponse represents the execution service response body
type ExecuteResponse struct {
	Language string       `json:"language"`
	Version  string       `json:"version"`
	Run      StageResult  `json:"run"`
	Compile  *StageResult `json:"compile,omitempty"`
}

// Runtime represents a runtime advertised by the execution service
type Runtime struct {
	Language string   `json:"language"`
	Version  string   `json:"version"`
	Aliases  []string `json:"aliases"`
	Runtime  string   `json:"runtime,omitempty"`
}

// LanguageInfo represents a language table entry for API responses
type LanguageInfo struct {
	ID      string `json:"id"`
	Version string `json:"version"`
	Snippet string `json:"snippet,omitempty"`
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Message string `json:"message"`
	Code    int    `json:"code,omitempty"`
}
