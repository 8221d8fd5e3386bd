package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cardlens/cardlens/internal/overlay"
	"github.com/cardlens/cardlens/internal/pipeline"
	"github.com/cardlens/cardlens/internal/storage"
)

// maxFrameBytes caps uploaded and downloaded frames
const maxFrameBytes = 10 * 1024 * 1024

type Handler struct {
	sessionStore *storage.SessionStore
	newMachine   func() *overlay.Machine
	httpClient   *http.Client
}

// SessionResponse is returned by every endpoint that touches an overlay
type SessionResponse struct {
	SessionID string        `json:"session_id,omitempty"`
	Current   bool          `json:"current"`
	Event     overlay.Event `json:"event"`
}

func New(p *pipeline.Pipeline) *Handler {
	return &Handler{
		sessionStore: storage.New(),
		newMachine: func() *overlay.Machine {
			return p.NewMachine()
		},
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	slog.Error(message)
	http.Error(w, message, code)
}

// Session helpers
func (h *Handler) getSessionOrError(w http.ResponseWriter, sessionID string) (*storage.Session, bool) {
	session, exists := h.sessionStore.Get(sessionID)
	if !exists {
		h.writeError(w, "Session not found", http.StatusNotFound)
		return nil, false
	}
	return session, true
}

func (h *Handler) session(sessionID string) *storage.Session {
	session, created := h.sessionStore.GetOrCreate(sessionID, h.newMachine)
	if created {
		slog.Info("Session created", "session_id", sessionID)
	}
	return session
}

// sessionFor returns the stored session for id. Without an id the request
// gets a one-shot session that is never stored.
func (h *Handler) sessionFor(id string) *storage.Session {
	if id = strings.TrimSpace(id); id == "" {
		return &storage.Session{Machine: h.newMachine(), CreatedAt: time.Now()}
	}
	return h.session(id)
}

// Routes registers every endpoint on a new mux
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/identify", h.HandleIdentify)
	mux.HandleFunc("/api/lookup", h.HandleLookup)
	mux.HandleFunc("/api/sessions", h.HandleSessions)
	mux.HandleFunc("/api/sessions/", h.HandleSessionDetail)
	mux.HandleFunc("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("OK")); err != nil {
			slog.Error("Unable to write healthcheck", "err", err)
		}
	})
	return mux
}
