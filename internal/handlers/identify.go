package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/cardlens/cardlens/internal/overlay"
)

// HandleIdentify runs a region identification on an uploaded frame
func (h *Handler) HandleIdentify(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseMultipartForm(maxFrameBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		h.writeError(w, "Failed to parse form: "+err.Error(), http.StatusBadRequest)
		return
	}

	data, err := h.readFrame(r)
	if err != nil {
		h.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	scene, point, err := buildScene(r, data)
	if err != nil {
		h.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	debug := false
	if v := strings.TrimSpace(r.FormValue("debug")); v != "" {
		if debug, err = strconv.ParseBool(v); err != nil {
			h.writeError(w, "Invalid debug flag: "+err.Error(), http.StatusBadRequest)
			return
		}
	}

	session := h.sessionFor(r.FormValue("session_id"))
	ev, current := session.Machine.RunRegion(r.Context(), overlay.RegionRequest{
		Scene: scene,
		Point: point,
		Debug: debug,
	})

	h.writeJSON(w, SessionResponse{
		SessionID: session.ID,
		Current:   current,
		Event:     ev,
	})
}

// HandleLookup resolves a typed card name
func (h *Handler) HandleLookup(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var request struct {
		SessionID string `json:"session_id"`
		Name      string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	session := h.sessionFor(request.SessionID)
	ev, current := session.Machine.RunName(r.Context(), request.Name)

	h.writeJSON(w, SessionResponse{
		SessionID: session.ID,
		Current:   current,
		Event:     ev,
	})
}
