package irc

import (
	"strings"
)

// Wire codec for the Twitch IRC variant: line frames terminated by CRLF,
// optionally carrying an @tags section and a :prefix before the command.
// Field names and ordering are a stable external contract.

// Tags is the parsed @key=value;key2=value2 section of a frame.
type Tags map[string]string

// Get returns the tag value, or "" when absent.
func (t Tags) Get(key string) string {
	if t == nil {
		return ""
	}
	return t[key]
}

// Prefix is the :nick!user@host source of a frame. For server-originated
// frames only Host is set.
type Prefix struct {
	Nick string
	User string
	Host string
}

// Command identifies the frame type the session reacts to.
type Command int

const (
	// CmdUnknown covers frames the client has no behavior for; they are
	// logged and dropped, never an error.
	CmdUnknown Command = iota
	// CmdPrivmsg is an inbound chat message.
	CmdPrivmsg
	// CmdPing is a server keepalive probe; the session answers with PONG.
	CmdPing
	// CmdPong answers a client-initiated liveness probe.
	CmdPong
	// CmdCapAck acknowledges the capability request during the handshake.
	CmdCapAck
	// CmdWelcome is the 001 reply after successful authentication.
	CmdWelcome
	// CmdGlobalUserState carries the authenticated user's own tags.
	CmdGlobalUserState
	// CmdJoin confirms a channel join.
	CmdJoin
	// CmdReconnect is a server-initiated reconnect request.
	CmdReconnect
	// CmdNotice is an error or informational notice from the server.
	CmdNotice
)

// Message is one parsed inbound frame.
type Message struct {
	Tags    Tags
	Prefix  Prefix
	Command Command
	Channel string
	Body    string
	Raw     string
}

// parseTags consumes a leading @tags token. Values keep any '=' past the first.
func parseTags(token string) Tags {
	tags := make(Tags)
	for _, pair := range strings.Split(strings.TrimPrefix(token, "@"), ";") {
		key, value, _ := strings.Cut(pair, "=")
		if key != "" {
			tags[key] = value
		}
	}
	return tags
}

// parsePrefix consumes a leading :prefix token.
func parsePrefix(token string) Prefix {
	token = strings.TrimPrefix(token, ":")
	nickUser, host, found := strings.Cut(token, "@")
	if !found {
		return Prefix{Host: token}
	}
	nick, user, _ := strings.Cut(nickUser, "!")
	return Prefix{Nick: nick, User: user, Host: host}
}

// ParseMessage parses one raw frame (without its CRLF terminator).
// Frames it cannot make sense of come back as CmdUnknown; malformed input
// is never an error on the inbound path.
func ParseMessage(raw string) Message {
	m := Message{Raw: raw}
	rest := strings.TrimSuffix(strings.TrimSuffix(raw, "\n"), "\r")

	if strings.HasPrefix(rest, "@") {
		token, tail, found := strings.Cut(rest, " ")
		if !found {
			return m
		}
		m.Tags = parseTags(token)
		rest = tail
	}

	if strings.HasPrefix(rest, ":") {
		token, tail, found := strings.Cut(rest, " ")
		if !found {
			return m
		}
		m.Prefix = parsePrefix(token)
		rest = tail
	}

	command, params, _ := strings.Cut(rest, " ")

	switch command {
	case "PRIVMSG":
		m.Command = CmdPrivmsg
		m.Channel, m.Body = parseChannelBody(params)
	case "PING":
		m.Command = CmdPing
		m.Body = strings.TrimPrefix(params, ":")
	case "PONG":
		m.Command = CmdPong
	case "CAP":
		if strings.HasPrefix(params, "* ACK") {
			m.Command = CmdCapAck
		}
	case "001":
		m.Command = CmdWelcome
	case "GLOBALUSERSTATE":
		m.Command = CmdGlobalUserState
	case "JOIN":
		m.Command = CmdJoin
		m.Channel = strings.TrimPrefix(params, "#")
	case "RECONNECT":
		m.Command = CmdReconnect
	case "NOTICE":
		m.Command = CmdNotice
		_, m.Body = parseChannelBody(params)
	default:
		m.Command = CmdUnknown
	}

	return m
}

// parseChannelBody splits "#channel :trailing body" params.
func parseChannelBody(params string) (channel, body string) {
	target, trailing, _ := strings.Cut(params, " :")
	channel = strings.TrimPrefix(strings.TrimSpace(target), "#")
	return channel, trailing
}

// SenderName returns the name to display for a chat message: the
// display-name tag when present, otherwise the prefix user, otherwise the
// channel itself.
func (m Message) SenderName() string {
	if name := m.Tags.Get("display-name"); name != "" {
		return name
	}
	if m.Prefix.User != "" {
		return m.Prefix.User
	}
	return m.Channel
}

// --- Outbound frame builders ---

const crlf = "\r\n"

// capReqFrame requests the Twitch capabilities the client depends on.
// Ordering of the capability list is part of the platform contract.
func capReqFrame() string {
	return "CAP REQ :twitch.tv/membership twitch.tv/tags twitch.tv/commands" + crlf
}

func passFrame(token string) string {
	return "PASS oauth:" + token + crlf
}

func nickFrame(nick string) string {
	return "NICK " + nick + crlf
}

func joinFrame(channel string) string {
	return "JOIN #" + channel + crlf
}

func privmsgFrame(channel, text string) string {
	return "PRIVMSG #" + channel + " :" + text + crlf
}

func pingFrame() string {
	return "PING :" + serverHost + crlf
}

func pongFrame(payload string) string {
	if payload == "" {
		payload = serverHost
	}
	return "PONG :" + payload + crlf
}
