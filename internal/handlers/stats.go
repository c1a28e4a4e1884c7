package handlers

import (
	"net/http"
	"time"
)

// StatsResponse represents the response from the stats endpoint.
type StatsResponse struct {
	Rooms        int    `json:"rooms"`
	Participants int    `json:"participants"`
	Uptime       string `json:"uptime"`
	Persistence  bool   `json:"persistence"`
}

// Stats returns live server statistics.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	rooms, participants := h.registry.Counts()

	h.JSON(w, http.StatusOK, StatsResponse{
		Rooms:        rooms,
		Participants: participants,
		Uptime:       time.Since(h.startedAt).Round(time.Second).String(),
		Persistence:  h.snapshots != nil,
	})
}
