package client

// Constants for the client's operation.
const (
	// MaxMsgLen is the platform's chat message length limit, in grapheme
	// clusters for inbound display purposes.
	MaxMsgLen = 500

	defaultHistoryLimit  = 500
	seenCacheSize        = 8192
	userContextCacheSize = 4096
)

// User action types, TUI → client.
const (
	ActionSendMessage = "SEND_MESSAGE"
	ActionQuit        = "QUIT"
)

// UserAction represents an action initiated by the user from the TUI.
type UserAction struct {
	Type    string
	Payload string
}

// DisplayEvent represents an event sent from the client to the TUI for display.
type DisplayEvent struct {
	Type         string
	Timestamp    string
	Nick         string
	Color        string
	Content      string
	IsOwnMessage bool
	ID           string
	Payload      any
}

// StateUpdate is the payload of a STATE_UPDATE event: connection state plus
// the pending outbound count, for the status line.
type StateUpdate struct {
	State   string
	Pending int
}
