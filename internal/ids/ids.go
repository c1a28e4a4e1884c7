package ids

import (
	"github.com/google/uuid"
)

// NewParticipantID generates a time-ordered UUID v7 string. IDs are unique
// for the lifetime of the process and never reused across joins.
func NewParticipantID() string {
	return uuid.Must(uuid.NewV7()).String()
}
