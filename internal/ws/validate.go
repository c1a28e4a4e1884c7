package ws

import (
	"math/rand"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	maxRoomIDLen = 64
	maxNameLen   = 50
	maxColorLen  = 24
)

// defaultPalette supplies a color for participants that joined without
// one, so presence rendering always has something to work with.
var defaultPalette = []string{
	"#e06c75", "#61afef", "#98c379", "#d19a66", "#c678dd", "#56b6c2",
}

// normalizeRoomID trims and validates an externally supplied room id. The
// id stays opaque; we only insist it is non-empty, printable and short
// enough to be a sane map key.
func normalizeRoomID(id string) (string, bool) {
	id = strings.TrimSpace(id)
	if id == "" || len(id) > maxRoomIDLen {
		return "", false
	}
	if !utf8.ValidString(id) {
		return "", false
	}
	for _, r := range id {
		if unicode.IsControl(r) {
			return "", false
		}
	}
	return id, true
}

// sanitizeName strips control characters, caps the length and falls back
// to a generic label for empty names.
func sanitizeName(name string) string {
	name = strings.TrimSpace(name)
	name = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, name)
	if len(name) > maxNameLen {
		name = name[:maxNameLen]
	}
	if name == "" {
		name = "anonymous"
	}
	return name
}

// sanitizeColor accepts any short printable tag; the server treats colors
// as opaque display attributes. Empty colors get one from the palette.
func sanitizeColor(color string) string {
	color = strings.TrimSpace(color)
	color = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, color)
	if len(color) > maxColorLen {
		color = color[:maxColorLen]
	}
	if color == "" {
		color = defaultPalette[rand.Intn(len(defaultPalette))]
	}
	return color
}
