package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ritvik-6/Collaborative-Code-Editor/internal/registry"
	"github.com/ritvik-6/Collaborative-Code-Editor/internal/store"
)

// Handler contains shared dependencies for all HTTP handlers. snapshots is
// nil when the server runs without persistence.
type Handler struct {
	registry  *registry.Registry
	snapshots store.SnapshotStore
	startedAt time.Time
}

// NewHandler creates a new Handler.
func NewHandler(reg *registry.Registry, snapshots store.SnapshotStore) *Handler {
	return &Handler{
		registry:  reg,
		snapshots: snapshots,
		startedAt: time.Now(),
	}
}

// JSON sends a JSON response with the given status code.
func (h *Handler) JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Error sends a JSON error response with the given status code.
func (h *Handler) Error(w http.ResponseWriter, status int, message string) {
	h.JSON(w, status, map[string]string{"error": message})
}
