package client

import (
	"sync"

	"github.com/twitchat/twitchat-tui/internal/irc"
)

// History is the bounded, append-only log of received messages. It is
// written only by the inbound-frame path and read by the rendering layer,
// so a single mutex around append/snapshot is all the locking it needs.
type History struct {
	mu    sync.Mutex
	limit int
	msgs  []irc.ChatMessage
}

// NewHistory returns a history retaining at most limit messages.
func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	return &History{limit: limit}
}

// Append adds one message, evicting the oldest entry once the retention
// limit is exceeded.
func (h *History) Append(m irc.ChatMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.msgs = append(h.msgs, m)
	if len(h.msgs) > h.limit {
		h.msgs = h.msgs[1:]
	}
}

// Snapshot returns a copy of the current messages in arrival order. It never
// blocks the append path for longer than the copy.
func (h *History) Snapshot() []irc.ChatMessage {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]irc.ChatMessage, len(h.msgs))
	copy(out, h.msgs)
	return out
}

// Len returns the current number of retained messages.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.msgs)
}
