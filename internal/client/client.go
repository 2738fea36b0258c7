package client

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/twitchat/twitchat-tui/internal/irc"
)

// chatSession is the protocol session surface the orchestrator drives.
type chatSession interface {
	Connect() error
	SendMessage(text string) error
	Close()
	State() irc.ConnState
	Pending() int
	Messages() <-chan irc.ChatMessage
	Events() <-chan irc.Event
}

// client wires user actions into the protocol session and session events
// into the chat history and display stream.
type client struct {
	cfg     *Config
	session chatSession
	history *History

	// seenCache drops duplicate frames replayed across reconnects.
	seenCache  *lru.Cache[string, struct{}]
	userColors *lru.Cache[string, string]

	actionsChan <-chan UserAction
	eventsChan  chan<- DisplayEvent

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a client connected to the given channel with the given token.
func New(cfg *Config, token, channel string, actions <-chan UserAction, events chan<- DisplayEvent) (*client, error) {
	session, err := irc.NewSession(irc.Config{
		Addr:            cfg.Server,
		Token:           token,
		Nick:            cfg.Nick,
		Channel:         channel,
		MinSendInterval: time.Duration(cfg.SendIntervalMs) * time.Millisecond,
		LivenessTimeout: time.Duration(cfg.LivenessSecs) * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create chat session: %w", err)
	}
	return newWithSession(cfg, session, actions, events)
}

func newWithSession(cfg *Config, session chatSession, actions <-chan UserAction, events chan<- DisplayEvent) (*client, error) {
	seenCache, err := lru.New[string, struct{}](seenCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create seen cache: %w", err)
	}
	userColors, err := lru.New[string, string](userContextCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create user color cache: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &client{
		cfg:         cfg,
		session:     session,
		history:     NewHistory(cfg.HistoryLimit),
		seenCache:   seenCache,
		userColors:  userColors,
		actionsChan: actions,
		eventsChan:  events,
		ctx:         ctx,
		cancel:      cancel,
	}, nil
}

// History exposes the bounded message log to the rendering layer.
func (c *client) History() *History {
	return c.history
}

// ConnState reports the session's connection state for status display.
func (c *client) ConnState() irc.ConnState {
	return c.session.State()
}

// Run is the client's main event loop.
func (c *client) Run() {
	if err := c.session.Connect(); err != nil && !errors.Is(err, irc.ErrAlreadyConnected) {
		c.eventsChan <- DisplayEvent{Type: "ERROR", Content: fmt.Sprintf("connect failed: %v", err)}
	}

	for {
		select {
		case action, ok := <-c.actionsChan:
			if !ok {
				c.shutdown()
				return
			}
			if done := c.handleAction(action); done {
				return
			}

		case msg := <-c.session.Messages():
			c.handleMessage(msg)

		case ev := <-c.session.Events():
			c.handleSessionEvent(ev)

		case <-c.ctx.Done():
			return
		}
	}
}

// handleAction dispatches user actions. Reports true on quit.
func (c *client) handleAction(action UserAction) bool {
	switch action.Type {
	case ActionSendMessage:
		c.sendMessage(action.Payload)
	case ActionQuit:
		c.shutdown()
		return true
	}
	return false
}

func (c *client) sendMessage(text string) {
	err := c.session.SendMessage(text)
	switch {
	case err == nil:
	case errors.Is(err, irc.ErrNotJoined):
		c.eventsChan <- DisplayEvent{Type: "ERROR", Content: "not joined yet, message not sent"}
	case errors.Is(err, irc.ErrSendQueueFull):
		c.eventsChan <- DisplayEvent{Type: "ERROR", Content: "outbound queue full, message not sent"}
	default:
		c.eventsChan <- DisplayEvent{Type: "ERROR", Content: fmt.Sprintf("send failed: %v", err)}
	}
}

// handleMessage appends one inbound message to history and forwards it for
// display, deduplicating replays.
func (c *client) handleMessage(msg irc.ChatMessage) {
	if _, dup := c.seenCache.Get(msg.ID); dup {
		return
	}
	c.seenCache.Add(msg.ID, struct{}{})

	msg.Body = truncateString(sanitizeString(msg.Body), MaxMsgLen)

	// Remember each sender's announced color so later uncolored messages
	// keep a stable hue.
	if msg.Color != "" {
		c.userColors.Add(msg.Sender, msg.Color)
	} else if color, ok := c.userColors.Get(msg.Sender); ok {
		msg.Color = color
	}

	c.history.Append(msg)

	select {
	case c.eventsChan <- DisplayEvent{
		Type:         "NEW_MESSAGE",
		Timestamp:    msg.Time.Format("15:04:05"),
		Nick:         msg.Sender,
		Color:        msg.Color,
		Content:      msg.Body,
		IsOwnMessage: msg.Self,
		ID:           msg.ID,
	}:
	case <-c.ctx.Done():
	}
}

func (c *client) handleSessionEvent(ev irc.Event) {
	switch ev.Type {
	case irc.EventState:
		log.Printf("Connection state: %s", ev.State)
		c.eventsChan <- DisplayEvent{
			Type:    "STATE_UPDATE",
			Payload: StateUpdate{State: ev.State.String(), Pending: c.session.Pending()},
		}
	case irc.EventStatus:
		c.eventsChan <- DisplayEvent{Type: "STATUS", Content: ev.Content}
	case irc.EventError:
		c.eventsChan <- DisplayEvent{Type: "ERROR", Content: ev.Content}
	case irc.EventSendFailed:
		c.eventsChan <- DisplayEvent{Type: "ERROR", Content: "message could not be delivered: " + ev.Content}
	}
}

func (c *client) shutdown() {
	c.cancel()
	c.session.Close()
	select {
	case c.eventsChan <- DisplayEvent{Type: "SHUTDOWN"}:
	case <-time.After(200 * time.Millisecond):
	}
}
