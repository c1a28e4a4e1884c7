package models

// Cursor is a participant's last reported position in the shared document.
// Line numbers and columns are whatever the client editor reports; the
// server never interprets them.
type Cursor struct {
	LineNumber int `json:"lineNumber"`
	Column     int `json:"column"`
}

// Participant represents one joined identity within a room.
type Participant struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}
