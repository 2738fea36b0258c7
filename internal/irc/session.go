package irc

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// serverHost is the host announced in PING/PONG payloads.
const serverHost = "tmi.twitch.tv"

// DefaultAddr is the plain-TCP chat endpoint.
const DefaultAddr = "irc.chat.twitch.tv:6667"

// ConnState is the session's connection lifecycle state.
type ConnState int

const (
	StateDisconnected ConnState = iota
	StateConnecting
	StateAuthenticating
	StateJoining
	StateJoined
)

func (s ConnState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateAuthenticating:
		return "authenticating"
	case StateJoining:
		return "joining"
	case StateJoined:
		return "joined"
	default:
		return "disconnected"
	}
}

// ChatMessage is one received (or self-echoed) chat message. Immutable after
// construction; Seq is the arrival sequence number assigned by the session.
type ChatMessage struct {
	Seq     uint64
	ID      string
	Sender  string
	Color   string
	Channel string
	Body    string
	Time    time.Time
	Self    bool
}

// EventType classifies session events surfaced to the orchestrator.
type EventType int

const (
	// EventState reports a connection state change.
	EventState EventType = iota
	// EventStatus is an observable lifecycle note (reconnect attempts etc).
	EventStatus
	// EventError is a protocol-semantic fault surfaced once, not a crash.
	EventError
	// EventSendFailed reports a queued message dropped after exhausting
	// its retry budget.
	EventSendFailed
)

// Event is an observable session event.
type Event struct {
	Type    EventType
	State   ConnState
	Content string
}

// Config carries the session parameters. Token and Channel are write-once.
type Config struct {
	Addr    string
	Token   string
	Nick    string
	Channel string

	// MinSendInterval is the platform's minimum spacing between outbound
	// chat frames. Faster submissions are queued, never dropped.
	MinSendInterval time.Duration
	// PendingLimit bounds the outbound queue.
	PendingLimit int
	// RetryLimit bounds per-message resend attempts across reconnects.
	RetryLimit int

	DialTimeout      time.Duration
	HandshakeTimeout time.Duration
	// LivenessTimeout is how long the session tolerates inbound silence
	// before probing the connection; PongGrace is how long it waits for
	// the probe to be answered.
	LivenessTimeout time.Duration
	PongGrace       time.Duration

	BackoffMin time.Duration
	BackoffMax time.Duration
}

func (c *Config) applyDefaults() {
	if c.Addr == "" {
		c.Addr = DefaultAddr
	}
	if c.MinSendInterval <= 0 {
		c.MinSendInterval = 1500 * time.Millisecond
	}
	if c.PendingLimit <= 0 {
		c.PendingLimit = 64
	}
	if c.RetryLimit <= 0 {
		c.RetryLimit = 3
	}
	if c.DialTimeout <= 0 {
		c.DialTimeout = 10 * time.Second
	}
	if c.HandshakeTimeout <= 0 {
		c.HandshakeTimeout = 15 * time.Second
	}
	if c.LivenessTimeout <= 0 {
		c.LivenessTimeout = 6 * time.Minute
	}
	if c.PongGrace <= 0 {
		c.PongGrace = 15 * time.Second
	}
	if c.BackoffMin <= 0 {
		c.BackoffMin = 500 * time.Millisecond
	}
	if c.BackoffMax <= 0 {
		c.BackoffMax = 30 * time.Second
	}
}

// Dialer opens the transport connection. Swapped for an in-memory pipe in tests.
type Dialer func(ctx context.Context, addr string) (net.Conn, error)

func netDialer(timeout time.Duration) Dialer {
	return func(ctx context.Context, addr string) (net.Conn, error) {
		d := net.Dialer{Timeout: timeout}
		return d.DialContext(ctx, "tcp", addr)
	}
}

// Session maintains one authenticated, joined connection to the chat service
// for its lifetime, reconnecting with capped exponential backoff on any
// transport failure.
type Session struct {
	cfg  Config
	dial Dialer

	messages chan ChatMessage
	events   chan Event

	queue   *sendQueue
	limiter *rate.Limiter

	stateMu sync.Mutex
	state   ConnState
	started bool

	// lastActivity is the unix-nano time of the last inbound frame.
	lastActivity atomic.Int64
	seq          atomic.Uint64

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSession builds a session. Connect must be called to start it.
func NewSession(cfg Config) (*Session, error) {
	if cfg.Token == "" || cfg.Channel == "" {
		return nil, fmt.Errorf("irc: token and channel must be non-empty")
	}
	cfg.applyDefaults()
	if cfg.Nick == "" {
		cfg.Nick = "justinfan" + uuid.NewString()[:8]
	}
	cfg.Channel = strings.ToLower(strings.TrimPrefix(cfg.Channel, "#"))

	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		cfg:      cfg,
		dial:     netDialer(cfg.DialTimeout),
		messages: make(chan ChatMessage, 64),
		events:   make(chan Event, 32),
		queue:    newSendQueue(cfg.PendingLimit),
		limiter:  rate.NewLimiter(rate.Every(cfg.MinSendInterval), 1),
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// SetDialer replaces the transport dialer. Must be called before Connect.
func (s *Session) SetDialer(d Dialer) {
	s.dial = d
}

// Messages streams inbound chat messages in arrival order.
func (s *Session) Messages() <-chan ChatMessage {
	return s.messages
}

// Events streams observable session events.
func (s *Session) Events() <-chan Event {
	return s.events
}

// State returns the current connection state.
func (s *Session) State() ConnState {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	return s.state
}

func (s *Session) setState(st ConnState) {
	s.stateMu.Lock()
	changed := s.state != st
	s.state = st
	s.stateMu.Unlock()
	if changed {
		s.emit(Event{Type: EventState, State: st})
	}
}

func (s *Session) emit(ev Event) {
	select {
	case s.events <- ev:
	case <-s.ctx.Done():
	}
}

// Connect starts the connect/authenticate/join sequence. Idempotent while a
// connection attempt is already in flight; ErrAlreadyConnected once joined.
func (s *Session) Connect() error {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()

	if s.ctx.Err() != nil {
		return ErrClosed
	}
	if s.state == StateJoined {
		return ErrAlreadyConnected
	}
	if s.started {
		// Already connecting or reconnecting.
		return nil
	}
	s.started = true

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run()
	}()
	return nil
}

// SendMessage queues one outbound chat message. Valid only while joined;
// messages beyond the rate limit are queued and released in submission order.
func (s *Session) SendMessage(text string) error {
	if s.ctx.Err() != nil {
		return ErrClosed
	}
	if s.State() != StateJoined {
		return ErrNotJoined
	}
	return s.queue.push(outboundMsg{text: text})
}

// Close tears the session down, aborting any in-flight dial, handshake,
// send, receive or backoff delay.
func (s *Session) Close() {
	s.cancel()
	s.wg.Wait()
	s.setStateClosed()
}

func (s *Session) setStateClosed() {
	s.stateMu.Lock()
	s.state = StateDisconnected
	s.stateMu.Unlock()
}

// run is the reconnect loop: one runConn per connection lifetime, with
// doubling backoff capped at BackoffMax and reset after a successful join.
// Attempts are unbounded; auth rejection is the one terminal fault.
func (s *Session) run() {
	delay := s.cfg.BackoffMin
	attempt := 0

	for {
		joined, err := s.runConn()
		s.setState(StateDisconnected)

		if s.ctx.Err() != nil {
			return
		}
		if errors.Is(err, ErrAuthRejected) {
			s.emit(Event{Type: EventError, Content: "authentication rejected by server"})
			return
		}

		if joined {
			// The previous connection was healthy; restart the ladder.
			delay = s.cfg.BackoffMin
			attempt = 0
		}
		attempt++
		s.emit(Event{
			Type:    EventStatus,
			Content: fmt.Sprintf("connection lost (%v); reconnect attempt %d in %s", err, attempt, delay),
		})

		select {
		case <-s.ctx.Done():
			return
		case <-time.After(delay):
		}
		if delay < s.cfg.BackoffMax {
			delay *= 2
			if delay > s.cfg.BackoffMax {
				delay = s.cfg.BackoffMax
			}
		}
	}
}

// runConn drives a single connection through the handshake and then pumps
// frames until the transport fails. Reports whether the join completed.
func (s *Session) runConn() (joined bool, err error) {
	ctx, cancel := context.WithCancel(s.ctx)
	defer cancel()

	s.setState(StateConnecting)
	conn, err := s.dial(ctx, s.cfg.Addr)
	if err != nil {
		return false, fmt.Errorf("dial %s: %w", s.cfg.Addr, err)
	}
	defer conn.Close()

	// Unblock blocked reads/writes promptly on Close.
	go func() {
		<-ctx.Done()
		conn.SetDeadline(time.Now())
	}()

	w := &connWriter{conn: conn}

	lines := make(chan string, 32)
	readErr := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(conn)
		scanner.Buffer(make([]byte, 0, 4096), 64*1024)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
		close(lines)
	}()

	if err := w.write(capReqFrame()); err != nil {
		return false, fmt.Errorf("send cap req: %w", err)
	}
	s.setState(StateAuthenticating)

	handshake := time.NewTimer(s.cfg.HandshakeTimeout)
	defer handshake.Stop()
	liveness := time.NewTimer(s.cfg.LivenessTimeout)
	defer liveness.Stop()
	grace := time.NewTimer(time.Hour)
	grace.Stop()

	var writerStop context.CancelFunc

	for {
		select {
		case <-ctx.Done():
			return joined, ErrClosed

		case <-handshake.C:
			if !joined {
				return false, errHandshakeTimeout
			}

		case <-liveness.C:
			// Inbound silence: probe the connection.
			if err := w.write(pingFrame()); err != nil {
				return joined, fmt.Errorf("liveness probe: %w", err)
			}
			grace.Reset(s.cfg.PongGrace)

		case <-grace.C:
			return joined, errLivenessTimeout

		case line, ok := <-lines:
			if !ok {
				err := <-readErr
				if err == nil {
					err = fmt.Errorf("connection closed by server")
				}
				return joined, fmt.Errorf("read: %w", err)
			}

			s.lastActivity.Store(time.Now().UnixNano())
			liveness.Reset(s.cfg.LivenessTimeout)
			grace.Stop()

			m := ParseMessage(line)
			done, err := s.handleFrame(m, w)
			if err != nil {
				return joined, err
			}
			if done && !joined {
				joined = true
				handshake.Stop()
				s.setState(StateJoined)
				var wctx context.Context
				wctx, writerStop = context.WithCancel(ctx)
				s.wg.Add(1)
				go func() {
					defer s.wg.Done()
					s.writeLoop(wctx, w)
				}()
				defer writerStop()
			}
		}
	}
}

// handleFrame reacts to one inbound frame. Reports joined=true once the
// channel join is confirmed.
func (s *Session) handleFrame(m Message, w *connWriter) (joinedNow bool, err error) {
	switch m.Command {
	case CmdCapAck:
		if err := w.write(passFrame(s.cfg.Token)); err != nil {
			return false, fmt.Errorf("send pass: %w", err)
		}
		if err := w.write(nickFrame(s.cfg.Nick)); err != nil {
			return false, fmt.Errorf("send nick: %w", err)
		}

	case CmdWelcome, CmdGlobalUserState:
		if s.State() == StateAuthenticating {
			if err := w.write(joinFrame(s.cfg.Channel)); err != nil {
				return false, fmt.Errorf("send join: %w", err)
			}
			s.setState(StateJoining)
		}

	case CmdJoin:
		if m.Channel == s.cfg.Channel && strings.EqualFold(m.Prefix.Nick, s.cfg.Nick) {
			return true, nil
		}

	case CmdPrivmsg:
		s.deliver(m)

	case CmdPing:
		// Keepalive: answer immediately, outside the chat rate limit.
		if err := w.write(pongFrame(m.Body)); err != nil {
			return false, fmt.Errorf("send pong: %w", err)
		}

	case CmdReconnect:
		return false, errReconnectRequested

	case CmdNotice:
		if isAuthFailure(m.Body) {
			return false, ErrAuthRejected
		}
		s.emit(Event{Type: EventStatus, Content: "server notice: " + m.Body})
	}
	return false, nil
}

func isAuthFailure(notice string) bool {
	n := strings.ToLower(notice)
	return strings.Contains(n, "login authentication failed") ||
		strings.Contains(n, "improperly formatted auth") ||
		strings.Contains(n, "login unsuccessful")
}

// deliver forwards one chat message in arrival order.
func (s *Session) deliver(m Message) {
	id := m.Tags.Get("id")
	if id == "" {
		id = uuid.NewString()
	}
	msg := ChatMessage{
		Seq:     s.seq.Add(1),
		ID:      id,
		Sender:  m.SenderName(),
		Color:   m.Tags.Get("color"),
		Channel: m.Channel,
		Body:    m.Body,
		Time:    time.Now(),
		Self:    strings.EqualFold(m.Prefix.Nick, s.cfg.Nick),
	}
	select {
	case s.messages <- msg:
	case <-s.ctx.Done():
	}
}

// writeLoop drains the pending queue through the rate limiter while the
// connection is joined. On a write failure the message goes back to the
// front of the queue so reconnect neither reorders nor drops it.
func (s *Session) writeLoop(ctx context.Context, w *connWriter) {
	for {
		m, ok := s.queue.pop()
		if !ok {
			select {
			case <-ctx.Done():
				return
			case <-s.queue.wake:
				continue
			}
		}

		if err := s.limiter.Wait(ctx); err != nil {
			s.queue.pushFront(m)
			return
		}

		if err := w.write(privmsgFrame(s.cfg.Channel, m.text)); err != nil {
			m.attempts++
			if m.attempts > s.cfg.RetryLimit {
				s.emit(Event{Type: EventSendFailed, Content: m.text})
			} else {
				s.queue.pushFront(m)
			}
			return
		}

		// The server does not echo our own PRIVMSG back; synthesize the echo
		// so it lands in history like any other arrival.
		echo := ChatMessage{
			Seq:     s.seq.Add(1),
			ID:      uuid.NewString(),
			Sender:  s.cfg.Nick,
			Channel: s.cfg.Channel,
			Body:    m.text,
			Time:    time.Now(),
			Self:    true,
		}
		select {
		case s.messages <- echo:
		case <-ctx.Done():
			return
		}
	}
}

// connWriter serializes frame writes from the handshake path and the
// rate-limited send path.
type connWriter struct {
	mu   sync.Mutex
	conn net.Conn
}

func (w *connWriter) write(frame string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	_, err := w.conn.Write([]byte(frame))
	return err
}

// --- Outbound pending queue ---

// outboundMsg is one queued chat message with its retry budget usage.
type outboundMsg struct {
	text     string
	attempts int
}

// sendQueue is the explicit hand-off between the input path (producer) and
// the network path (consumer): a bounded deque plus a wake signal.
type sendQueue struct {
	mu    sync.Mutex
	items []outboundMsg
	limit int
	wake  chan struct{}
}

func newSendQueue(limit int) *sendQueue {
	return &sendQueue{limit: limit, wake: make(chan struct{}, 1)}
}

func (q *sendQueue) push(m outboundMsg) error {
	q.mu.Lock()
	if len(q.items) >= q.limit {
		q.mu.Unlock()
		return ErrSendQueueFull
	}
	q.items = append(q.items, m)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
	return nil
}

func (q *sendQueue) pushFront(m outboundMsg) {
	q.mu.Lock()
	q.items = append([]outboundMsg{m}, q.items...)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

func (q *sendQueue) pop() (outboundMsg, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return outboundMsg{}, false
	}
	m := q.items[0]
	q.items = q.items[1:]
	return m, true
}

func (q *sendQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// LastActivity returns the time of the most recent inbound frame.
func (s *Session) LastActivity() time.Time {
	ns := s.lastActivity.Load()
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns)
}

// Pending returns the number of queued-but-unsent outbound messages.
func (s *Session) Pending() int {
	return s.queue.len()
}
