// Package display projects run state onto what the output panel shows.
package display

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/coderunr/editor/internal/types"
)

// Tone is the colour family a line is rendered in
type Tone string

const (
	ToneNeutral Tone = "neutral"
	ToneSuccess Tone = "success"
	ToneError   Tone = "error"
)

const (
	// Placeholder is shown until the first run completes
	Placeholder = `Click "Run Code" to see the output here`

	// RunLabel is the label of the run control
	RunLabel = "Run Code"
)

// Line is a single rendered output line
type Line struct {
	Text string `json:"text"`
	Tone Tone   `json:"tone"`
}

// View is the display-ready form of a RunState
type View struct {
	Lines       []Line `json:"lines"`
	Tone        Tone   `json:"tone"`
	Bordered    bool   `json:"bordered"`
	Busy        bool   `json:"busy"`
	RunLabel    string `json:"run_label"`
	HasResult   bool   `json:"has_result"`
	Placeholder bool   `json:"placeholder"`
}

// Project computes the view for state. It does not retain or modify state.
func Project(state types.RunState) View {
	view := View{
		Busy:     state.IsLoading,
		RunLabel: RunLabel,
	}

	if state.LastResult == nil {
		view.Tone = ToneNeutral
		view.Placeholder = true
		view.Lines = []Line{{Text: Placeholder, Tone: ToneNeutral}}
		return view
	}

	view.HasResult = true
	view.Tone = ToneSuccess
	if state.LastResult.IsError {
		view.Tone = ToneError
		view.Bordered = true
	}

	view.Lines = make([]Line, len(state.LastResult.OutputLines))
	for i, text := range state.LastResult.OutputLines {
		view.Lines[i] = Line{Text: text, Tone: view.Tone}
	}

	return view
}

var (
	neutralStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))

	// panelStyle frames the output; error results switch to a red border
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("237")).
			Padding(0, 1)

	errorPanelStyle = panelStyle.BorderForeground(lipgloss.Color("160"))

	busyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("220")).
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)
)

func styleFor(tone Tone) lipgloss.Style {
	switch tone {
	case ToneSuccess:
		return successStyle
	case ToneError:
		return errorStyle
	default:
		return neutralStyle
	}
}

// RenderTerminal renders the output panel for a terminal
func RenderTerminal(view View) string {
	rendered := make([]string, len(view.Lines))
	for i, line := range view.Lines {
		rendered[i] = styleFor(line.Tone).Render(line.Text)
	}

	panel := panelStyle
	if view.Bordered {
		panel = errorPanelStyle
	}

	return panel.Render(strings.Join(rendered, "\n"))
}

// RenderRunControl renders the run control, showing a busy marker while loading
func RenderRunControl(view View) string {
	if view.Busy {
		return busyStyle.Render("[" + view.RunLabel + " …]")
	}
	return labelStyle.Render("[" + view.RunLabel + "]")
}
