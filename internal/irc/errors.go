package irc

import "errors"

var (
	// ErrNotJoined is returned by SendMessage before the channel join has
	// completed. Local error, no network I/O happens.
	ErrNotJoined = errors.New("irc: not joined to a channel")

	// ErrAlreadyConnected is returned by Connect while the session is
	// already joined.
	ErrAlreadyConnected = errors.New("irc: already connected")

	// ErrAuthRejected means the server declined the credential. Terminal
	// for the session; never retried automatically.
	ErrAuthRejected = errors.New("irc: authentication rejected")

	// ErrSendQueueFull is returned by SendMessage when the bounded pending
	// queue is at capacity.
	ErrSendQueueFull = errors.New("irc: outbound queue full")

	// ErrClosed is returned by operations on a closed session.
	ErrClosed = errors.New("irc: session closed")
)

// Transport-level faults recovered internally by the reconnect loop.
var (
	errReconnectRequested = errors.New("irc: server requested reconnect")
	errLivenessTimeout    = errors.New("irc: liveness probe unanswered")
	errHandshakeTimeout   = errors.New("irc: handshake timed out")
)
