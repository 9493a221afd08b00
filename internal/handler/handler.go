package handler

import (
	"encoding/json"
	"net/http"

	"github.com/coderunr/editor/internal/language"
	"github.com/coderunr/editor/internal/session"
	"github.com/coderunr/editor/internal/types"
	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

// Version is reported by GET /version
const Version = "CodeRunr Editor v1.0.0"

// Handler contains the dependencies for HTTP handlers
type Handler struct {
	sessions *session.Manager
	logger   *logrus.Logger
}

// NewHandler creates a new handler instance
func NewHandler(sessions *session.Manager, logger *logrus.Logger) *Handler {
	return &Handler{
		sessions: sessions,
		logger:   logger,
	}
}

// GetVersion returns the server version
func (h *Handler) GetVersion(w http.ResponseWriter, r *http.Request) {
	h.sendJSON(w, map[string]string{"message": Version}, http.StatusOK)
}

// GetLanguages lists the enabled languages and their pinned versions
func (h *Handler) GetLanguages(w http.ResponseWriter, r *http.Request) {
	all := language.All()

	response := make([]types.LanguageInfo, len(all))
	for i, lang := range all {
		response[i] = lang.Info(false)
	}

	h.sendJSON(w, response, http.StatusOK)
}

// GetLanguage returns one language including its starter snippet
func (h *Handler) GetLanguage(w http.ResponseWriter, r *http.Request) {
	lang, ok := language.Lookup(chi.URLParam(r, "language"))
	if !ok {
		h.sendError(w, "language not found", http.StatusNotFound)
		return
	}

	h.sendJSON(w, lang.Info(true), http.StatusOK)
}

// sendError sends an error response
func (h *Handler) sendError(w http.ResponseWriter, message string, statusCode int) {
	response := types.ErrorResponse{
		Message: message,
		Code:    statusCode,
	}

	h.sendJSON(w, response, statusCode)
}

// sendJSON sends a JSON response
func (h *Handler) sendJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.WithError(err).Error("Failed to encode JSON response")
	}
}
