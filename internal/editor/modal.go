package editor

// Mode is the current editing mode of the composer.
type Mode int

const (
	// ModeNormal interprets keys as navigation and commands.
	ModeNormal Mode = iota
	// ModeInsert interprets printable keys as character input.
	ModeInsert
)

func (m Mode) String() string {
	if m == ModeInsert {
		return "INSERT"
	}
	return "NORMAL"
}

// Prefix is the pending first key of a two-key command (yy, dd).
// It is the only hidden state beyond Mode.
type Prefix int

const (
	NoPrefix Prefix = iota
	PendingY
	PendingD
)

// KeyKind classifies an abstract key event. The editor is agnostic to the
// physical keyboard; the input layer decodes keystrokes into these.
type KeyKind int

const (
	KeyRune KeyKind = iota
	KeyEnter
	KeyEsc
	KeyBackspace
	KeyLeft
	KeyRight
)

// KeyEvent is one logical key. Ch is meaningful only for KeyRune.
type KeyEvent struct {
	Kind KeyKind
	Ch   byte
}

// ActionKind is the outcome of handling one key event.
type ActionKind int

const (
	// ActionNone means the event was consumed (possibly mutating the buffer).
	ActionNone ActionKind = iota
	// ActionSubmit carries the composed message to be sent.
	ActionSubmit
	// ActionRejected records a documented no-op: an unsupported character or
	// a key with no meaning in the current mode. Never an error.
	ActionRejected
)

// Action is the result of Editor.Handle.
type Action struct {
	Kind ActionKind
	Text string
}

var actionNone = Action{Kind: ActionNone}

// Editor owns the composer buffer, the register and the modal state machine.
// It is touched only by the single input-processing path and needs no locking.
type Editor struct {
	buf    *Buffer
	reg    Register
	mode   Mode
	prefix Prefix
}

// New returns an editor in Normal mode with an empty buffer and register.
func New() *Editor {
	return &Editor{buf: NewBuffer()}
}

// Handle interprets one key event against the current mode and buffer.
// Keys without a meaning in the current mode are no-ops reported as
// ActionRejected; they never fail.
func (e *Editor) Handle(ev KeyEvent) Action {
	if e.mode == ModeInsert {
		return e.handleInsert(ev)
	}
	return e.handleNormal(ev)
}

func (e *Editor) handleInsert(ev KeyEvent) Action {
	switch ev.Kind {
	case KeyEsc:
		e.mode = ModeNormal
		return actionNone
	case KeyEnter:
		return e.submit()
	case KeyBackspace:
		e.buf.DeleteBack()
		return actionNone
	case KeyLeft:
		e.buf.MoveLeft()
		return actionNone
	case KeyRight:
		e.buf.MoveRight()
		return actionNone
	case KeyRune:
		if !e.buf.InsertChar(ev.Ch) {
			return Action{Kind: ActionRejected}
		}
		return actionNone
	}
	return Action{Kind: ActionRejected}
}

func (e *Editor) handleNormal(ev KeyEvent) Action {
	// A pending y/d prefix either completes its compound command or is
	// cancelled, with the cancelling key reprocessed as a fresh Normal key.
	if e.prefix != NoPrefix {
		pending := e.prefix
		e.prefix = NoPrefix
		if ev.Kind == KeyRune {
			switch {
			case pending == PendingY && ev.Ch == 'y':
				e.buf.YankLine(&e.reg)
				return actionNone
			case pending == PendingD && ev.Ch == 'd':
				e.buf.DeleteLine(&e.reg)
				return actionNone
			}
		}
		return e.handleNormal(ev)
	}

	switch ev.Kind {
	case KeyEnter:
		return e.submit()
	case KeyEsc:
		return actionNone
	case KeyRune:
		switch ev.Ch {
		case 'i':
			e.mode = ModeInsert
			return actionNone
		case 'h':
			e.buf.MoveLeft()
			return actionNone
		case 'l':
			e.buf.MoveRight()
			return actionNone
		case 'j':
			e.buf.MoveDown()
			return actionNone
		case 'k':
			e.buf.MoveUp()
			return actionNone
		case '^':
			e.buf.MoveLineStart()
			return actionNone
		case '$':
			e.buf.MoveLineEnd()
			return actionNone
		case 'y':
			e.prefix = PendingY
			return actionNone
		case 'd':
			e.prefix = PendingD
			return actionNone
		case 'P':
			e.buf.InsertString(e.reg.Get())
			return actionNone
		}
	}
	return Action{Kind: ActionRejected}
}

// submit emits the buffer content and resets it. Submitting an empty buffer
// is a no-op so the session never sends empty frames.
func (e *Editor) submit() Action {
	if e.buf.Len() == 0 {
		return actionNone
	}
	return Action{Kind: ActionSubmit, Text: e.buf.TakeAndClear()}
}

// Mode returns the current mode, for status display.
func (e *Editor) Mode() Mode {
	return e.mode
}

// Pending returns the pending two-key prefix, for status display and tests.
func (e *Editor) Pending() Prefix {
	return e.prefix
}

// Buffer exposes the composer buffer to the rendering layer (read-only use).
func (e *Editor) Buffer() *Buffer {
	return e.buf
}

// Register exposes the yank/delete register.
func (e *Editor) Register() *Register {
	return &e.reg
}
