package handlers

import (
	"net/http"
	"sort"
)

// RoomListResponse represents the live room list response.
type RoomListResponse struct {
	Rooms []RoomEntry `json:"rooms"`
	Total int         `json:"total"`
}

// RoomEntry represents one live room.
type RoomEntry struct {
	ID            string `json:"id"`
	Participants  int    `json:"participants"`
	DocumentBytes int    `json:"document_bytes"`
}

// ListRooms handles listing the rooms currently held in the registry.
// Rooms only exist while someone is in them, so this is a live view, not
// a catalog.
func (h *Handler) ListRooms(w http.ResponseWriter, r *http.Request) {
	infos := h.registry.Rooms()

	rooms := make([]RoomEntry, len(infos))
	for i, info := range infos {
		rooms[i] = RoomEntry{
			ID:            info.ID,
			Participants:  info.Participants,
			DocumentBytes: info.DocumentBytes,
		}
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].ID < rooms[j].ID })

	h.JSON(w, http.StatusOK, RoomListResponse{
		Rooms: rooms,
		Total: len(rooms),
	})
}
