package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/cardlens/cardlens/internal/overlay"
)

type sessionSummary struct {
	ID        string        `json:"id"`
	State     overlay.State `json:"state"`
	CreatedAt time.Time     `json:"created_at"`
}

func (h *Handler) HandleSessions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case "GET":
		sessions := h.sessionStore.GetAll()
		sessionList := make([]sessionSummary, 0, len(sessions))
		for _, session := range sessions {
			sessionList = append(sessionList, sessionSummary{
				ID:        session.ID,
				State:     session.Machine.State(),
				CreatedAt: session.CreatedAt,
			})
		}
		h.writeJSON(w, sessionList)
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleSessionDetail serves /api/sessions/{id} and /api/sessions/{id}/dismiss
func (h *Handler) HandleSessionDetail(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/sessions/"), "/")
	sessionID, action, _ := strings.Cut(path, "/")

	session, ok := h.getSessionOrError(w, sessionID)
	if !ok {
		return
	}

	switch {
	case action == "dismiss" && r.Method == "POST":
		session.Machine.Dismiss()
		h.writeJSON(w, SessionResponse{SessionID: session.ID, Current: true, Event: session.Machine.Snapshot()})
	case action == "" && r.Method == "GET":
		h.writeJSON(w, SessionResponse{SessionID: session.ID, Current: true, Event: session.Machine.Snapshot()})
	case action == "" && r.Method == "DELETE":
		session.Machine.Dismiss()
		h.sessionStore.Delete(sessionID)
		w.WriteHeader(http.StatusNoContent)
	case action != "" && action != "dismiss":
		h.writeError(w, "Not found", http.StatusNotFound)
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}
