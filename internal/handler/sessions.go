package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/coderunr/editor/internal/controller"
	"github.com/coderunr/editor/internal/display"
	"github.com/coderunr/editor/internal/session"
	"github.com/go-chi/chi/v5"
)

// SessionResponse describes an editor session
type SessionResponse struct {
	ID        string           `json:"id"`
	CreatedAt time.Time        `json:"created_at"`
	Buffer    session.Contents `json:"buffer"`
	View      display.View     `json:"view"`
}

// CreateSessionRequest is the optional body of POST /sessions
type CreateSessionRequest struct {
	Language string `json:"language"`
}

// BufferUpdate is the body of PUT /sessions/{id}/buffer. Absent fields are
// left unchanged; a language change loads that language's starter snippet
// before Source is applied.
type BufferUpdate struct {
	Language *string `json:"language,omitempty"`
	Source   *string `json:"source,omitempty"`
	Stdin    *string `json:"stdin,omitempty"`
}

// RunResponse is returned by POST /sessions/{id}/run
type RunResponse struct {
	View    display.View `json:"view"`
	Message string       `json:"message,omitempty"`
}

func describe(s *session.Session) SessionResponse {
	return SessionResponse{
		ID:        s.ID,
		CreatedAt: s.CreatedAt,
		Buffer:    s.Buffer.Contents(),
		View:      display.Project(s.Controller.State()),
	}
}

// CreateSession starts a new editor session
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var request CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil && !errors.Is(err, io.EOF) {
		h.sendError(w, "Invalid JSON request", http.StatusBadRequest)
		return
	}

	s, err := h.sessions.Create(request.Language)
	if err != nil {
		h.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.logger.WithField("session_id", s.ID).Info("Session created")
	h.sendJSON(w, describe(s), http.StatusCreated)
}

// ListSessions lists the live sessions
func (h *Handler) ListSessions(w http.ResponseWriter, r *http.Request) {
	sessions := h.sessions.List()

	response := make([]SessionResponse, len(sessions))
	for i, s := range sessions {
		response[i] = describe(s)
	}

	h.sendJSON(w, response, http.StatusOK)
}

// GetSession returns the buffer and projected output of a session
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookupSession(w, r)
	if !ok {
		return
	}

	h.sendJSON(w, describe(s), http.StatusOK)
}

// DeleteSession closes a session
func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !h.sessions.Remove(id) {
		h.sendError(w, "session not found", http.StatusNotFound)
		return
	}

	h.logger.WithField("session_id", id).Info("Session removed")
	w.WriteHeader(http.StatusNoContent)
}

// UpdateBuffer edits the language, source or input of a session
func (h *Handler) UpdateBuffer(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookupSession(w, r)
	if !ok {
		return
	}

	var update BufferUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			h.sendError(w, "Request body too large", http.StatusRequestEntityTooLarge)
			return
		}
		h.sendError(w, "Invalid JSON request", http.StatusBadRequest)
		return
	}

	if update.Language != nil {
		if err := s.Buffer.SetLanguage(*update.Language); err != nil {
			h.sendError(w, err.Error(), http.StatusBadRequest)
			return
		}
	}
	if update.Source != nil {
		s.Buffer.SetSource(*update.Source)
	}
	if update.Stdin != nil {
		s.Buffer.SetStdin(*update.Stdin)
	}

	h.sendJSON(w, describe(s), http.StatusOK)
}

// RunSession runs the session's buffer and waits for the result. The run is
// not cancelled when the client goes away.
func (h *Handler) RunSession(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookupSession(w, r)
	if !ok {
		return
	}

	err := s.Run(context.WithoutCancel(r.Context()))
	view := display.Project(s.Controller.State())

	switch {
	case err == nil:
		h.sendJSON(w, RunResponse{View: view}, http.StatusOK)
	case errors.Is(err, session.ErrClosed):
		h.sendError(w, "session not found", http.StatusNotFound)
	case errors.Is(err, controller.ErrUnsupportedLanguage):
		h.sendJSON(w, RunResponse{View: view, Message: err.Error()}, http.StatusBadRequest)
	default:
		h.sendJSON(w, RunResponse{View: view, Message: err.Error()}, http.StatusBadGateway)
	}
}

func (h *Handler) lookupSession(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	s, ok := h.sessions.Get(chi.URLParam(r, "id"))
	if !ok {
		h.sendError(w, "session not found", http.StatusNotFound)
		return nil, false
	}
	return s, true
}
