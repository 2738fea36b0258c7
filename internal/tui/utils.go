package tui

import (
	"crypto/sha256"
)

// nickToColor selects a stable palette color for a sender without an
// announced color of their own.
func nickToColor(nick string, palette []string) string {
	if len(palette) == 0 {
		return "[white]" // Fallback
	}
	hash := sha256.Sum256([]byte(nick))
	return palette[int(hash[0])%len(palette)]
}
