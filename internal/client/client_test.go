package client

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twitchat/twitchat-tui/internal/irc"
)

// fakeSession scripts the protocol side of the orchestrator.
type fakeSession struct {
	state     irc.ConnState
	sendErr   error
	sent      chan string
	closed    chan struct{}
	messages  chan irc.ChatMessage
	events    chan irc.Event
	connected bool
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		state:    irc.StateJoined,
		sent:     make(chan string, 16),
		closed:   make(chan struct{}),
		messages: make(chan irc.ChatMessage, 16),
		events:   make(chan irc.Event, 16),
	}
}

func (f *fakeSession) Connect() error { f.connected = true; return nil }
func (f *fakeSession) SendMessage(text string) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent <- text
	return nil
}
func (f *fakeSession) Close()                            { close(f.closed) }
func (f *fakeSession) State() irc.ConnState              { return f.state }
func (f *fakeSession) Pending() int                      { return 0 }
func (f *fakeSession) Messages() <-chan irc.ChatMessage  { return f.messages }
func (f *fakeSession) Events() <-chan irc.Event          { return f.events }

func newTestClient(t *testing.T) (*client, *fakeSession, chan UserAction, chan DisplayEvent) {
	t.Helper()
	fs := newFakeSession()
	actions := make(chan UserAction, 16)
	events := make(chan DisplayEvent, 16)

	cfg := &Config{}
	cfg.applyDefaults()
	cfg.HistoryLimit = 4

	c, err := newWithSession(cfg, fs, actions, events)
	require.NoError(t, err)
	go c.Run()
	t.Cleanup(func() {
		select {
		case actions <- UserAction{Type: ActionQuit}:
		default:
		}
	})
	return c, fs, actions, events
}

func waitDisplayEvent(t *testing.T, events chan DisplayEvent, typ string) DisplayEvent {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case ev := <-events:
			if ev.Type == typ {
				return ev
			}
		case <-timeout:
			t.Fatalf("timed out waiting for %s event", typ)
		}
	}
}

func TestClient_ForwardsSendAction(t *testing.T) {
	_, fs, actions, _ := newTestClient(t)

	actions <- UserAction{Type: ActionSendMessage, Payload: "hello chat"}

	select {
	case text := <-fs.sent:
		assert.Equal(t, "hello chat", text)
	case <-time.After(2 * time.Second):
		t.Fatal("send action never reached the session")
	}
}

func TestClient_SurfacesNotJoined(t *testing.T) {
	_, fs, actions, events := newTestClient(t)
	fs.sendErr = irc.ErrNotJoined

	actions <- UserAction{Type: ActionSendMessage, Payload: "too early"}

	ev := waitDisplayEvent(t, events, "ERROR")
	assert.Contains(t, ev.Content, "not joined")
}

func TestClient_AppendsInboundToHistory(t *testing.T) {
	c, fs, _, events := newTestClient(t)

	for i := 1; i <= 3; i++ {
		fs.messages <- irc.ChatMessage{
			Seq: uint64(i), ID: string(rune('a' + i)), Sender: "user", Body: "hi", Time: time.Now(),
		}
		waitDisplayEvent(t, events, "NEW_MESSAGE")
	}

	assert.Equal(t, 3, c.History().Len())
}

func TestClient_DeduplicatesReplayedMessages(t *testing.T) {
	c, fs, _, events := newTestClient(t)

	m := irc.ChatMessage{Seq: 1, ID: "same-id", Sender: "user", Body: "once", Time: time.Now()}
	fs.messages <- m
	waitDisplayEvent(t, events, "NEW_MESSAGE")

	// A replay of the same frame after a reconnect is dropped.
	fs.messages <- m
	fs.messages <- irc.ChatMessage{Seq: 2, ID: "other", Sender: "user", Body: "twice", Time: time.Now()}
	ev := waitDisplayEvent(t, events, "NEW_MESSAGE")

	assert.Equal(t, "twice", ev.Content)
	assert.Equal(t, 2, c.History().Len())
}

func TestClient_SanitizesAndRemembersColors(t *testing.T) {
	_, fs, _, events := newTestClient(t)

	fs.messages <- irc.ChatMessage{Seq: 1, ID: "1", Sender: "ana", Color: "#0000FF", Body: "col\x07ored", Time: time.Now()}
	ev := waitDisplayEvent(t, events, "NEW_MESSAGE")
	assert.Equal(t, "colored", ev.Content)
	assert.Equal(t, "#0000FF", ev.Color)

	// A later frame without a color tag reuses the sender's last color.
	fs.messages <- irc.ChatMessage{Seq: 2, ID: "2", Sender: "ana", Body: "again", Time: time.Now()}
	ev = waitDisplayEvent(t, events, "NEW_MESSAGE")
	assert.Equal(t, "#0000FF", ev.Color)
}

func TestClient_MapsSessionEvents(t *testing.T) {
	_, fs, _, events := newTestClient(t)

	fs.events <- irc.Event{Type: irc.EventState, State: irc.StateJoined}
	ev := waitDisplayEvent(t, events, "STATE_UPDATE")
	state, ok := ev.Payload.(StateUpdate)
	require.True(t, ok)
	assert.Equal(t, "joined", state.State)

	fs.events <- irc.Event{Type: irc.EventSendFailed, Content: "lost msg"}
	ev = waitDisplayEvent(t, events, "ERROR")
	assert.Contains(t, ev.Content, "lost msg")
}

func TestClient_QuitClosesSession(t *testing.T) {
	_, fs, actions, events := newTestClient(t)

	actions <- UserAction{Type: ActionQuit}
	waitDisplayEvent(t, events, "SHUTDOWN")

	select {
	case <-fs.closed:
	case <-time.After(2 * time.Second):
		t.Fatal("session was not closed on quit")
	}
}
