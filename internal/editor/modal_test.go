package editor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// feed runs a script of key events and returns the last action.
func feed(e *Editor, evs ...KeyEvent) Action {
	var a Action
	for _, ev := range evs {
		a = e.Handle(ev)
	}
	return a
}

func runes(s string) []KeyEvent {
	evs := make([]KeyEvent, 0, len(s))
	for i := 0; i < len(s); i++ {
		evs = append(evs, KeyEvent{Kind: KeyRune, Ch: s[i]})
	}
	return evs
}

func TestEditor_StartsInNormalMode(t *testing.T) {
	e := New()
	assert.Equal(t, ModeNormal, e.Mode())
	assert.Equal(t, NoPrefix, e.Pending())
	assert.Equal(t, "", e.Buffer().String())
}

func TestEditor_ModeTransitions(t *testing.T) {
	e := New()

	feed(e, KeyEvent{Kind: KeyRune, Ch: 'i'})
	assert.Equal(t, ModeInsert, e.Mode())

	feed(e, KeyEvent{Kind: KeyEsc})
	assert.Equal(t, ModeNormal, e.Mode())
}

func TestEditor_InsertTyping(t *testing.T) {
	e := New()
	feed(e, KeyEvent{Kind: KeyRune, Ch: 'i'})
	feed(e, runes("hello")...)

	assert.Equal(t, "hello", e.Buffer().String())
	assert.Equal(t, 5, e.Buffer().Cursor())

	feed(e, KeyEvent{Kind: KeyBackspace})
	assert.Equal(t, "hell", e.Buffer().String())
}

func TestEditor_NavigationKeepsCursorInBounds(t *testing.T) {
	e := New()
	feed(e, KeyEvent{Kind: KeyRune, Ch: 'i'})
	feed(e, runes("abc")...)
	feed(e, KeyEvent{Kind: KeyEsc})

	// Arbitrary navigation-only script: content unchanged, cursor in [0, len].
	script := "hhhhlllllhjk^$hhl$^l"
	for _, ev := range runes(script) {
		e.Handle(ev)
		c := e.Buffer().Cursor()
		require.GreaterOrEqual(t, c, 0)
		require.LessOrEqual(t, c, e.Buffer().Len())
	}
	assert.Equal(t, "abc", e.Buffer().String())
}

func TestEditor_LineStartEnd(t *testing.T) {
	e := New()
	feed(e, KeyEvent{Kind: KeyRune, Ch: 'i'})
	feed(e, runes("abcd")...)
	feed(e, KeyEvent{Kind: KeyEsc})

	feed(e, KeyEvent{Kind: KeyRune, Ch: '^'})
	assert.Equal(t, 0, e.Buffer().Cursor())

	feed(e, KeyEvent{Kind: KeyRune, Ch: '$'})
	assert.Equal(t, 4, e.Buffer().Cursor())
}

func TestEditor_YankThenDelete_LastWriterWins(t *testing.T) {
	e := New()
	feed(e, KeyEvent{Kind: KeyRune, Ch: 'i'})
	feed(e, runes("first")...)
	feed(e, KeyEvent{Kind: KeyEsc})

	feed(e, runes("yy")...)
	assert.Equal(t, "first", e.Register().Get())

	// Mutate the buffer, then dd: register holds the content at dd time.
	feed(e, KeyEvent{Kind: KeyRune, Ch: 'i'})
	feed(e, runes("!")...)
	feed(e, KeyEvent{Kind: KeyEsc})
	feed(e, runes("dd")...)

	assert.Equal(t, "first!", e.Register().Get())
	assert.Equal(t, "", e.Buffer().String())
	assert.Equal(t, 0, e.Buffer().Cursor())
}

func TestEditor_PrefixCancelReprocessesKey(t *testing.T) {
	// A pending y followed by a non-matching key must behave exactly as if
	// that key had been pressed from fresh Normal state.
	fresh := New()
	feed(fresh, KeyEvent{Kind: KeyRune, Ch: 'i'})
	feed(fresh, runes("abc")...)
	feed(fresh, KeyEvent{Kind: KeyEsc})
	feed(fresh, KeyEvent{Kind: KeyRune, Ch: 'h'})

	prefixed := New()
	feed(prefixed, KeyEvent{Kind: KeyRune, Ch: 'i'})
	feed(prefixed, runes("abc")...)
	feed(prefixed, KeyEvent{Kind: KeyEsc})
	feed(prefixed, KeyEvent{Kind: KeyRune, Ch: 'y'})
	assert.Equal(t, PendingY, prefixed.Pending())
	feed(prefixed, KeyEvent{Kind: KeyRune, Ch: 'h'})

	assert.Equal(t, NoPrefix, prefixed.Pending())
	assert.Equal(t, fresh.Buffer().Cursor(), prefixed.Buffer().Cursor())
	assert.Equal(t, fresh.Buffer().String(), prefixed.Buffer().String())
	assert.Equal(t, "", prefixed.Register().Get(), "cancelled prefix must not touch the register")
}

func TestEditor_PrefixCancelByDifferentPrefix(t *testing.T) {
	e := New()
	feed(e, runes("yd")...)
	// y cancelled, d reprocessed: now pending dd.
	assert.Equal(t, PendingD, e.Pending())

	feed(e, KeyEvent{Kind: KeyRune, Ch: 'd'})
	assert.Equal(t, NoPrefix, e.Pending())
	assert.Equal(t, "", e.Register().Get())
}

func TestEditor_SubmitClearsBuffer(t *testing.T) {
	e := New()
	feed(e, KeyEvent{Kind: KeyRune, Ch: 'i'})
	feed(e, runes("hello chat")...)
	feed(e, KeyEvent{Kind: KeyEsc})

	a := e.Handle(KeyEvent{Kind: KeyEnter})
	require.Equal(t, ActionSubmit, a.Kind)
	assert.Equal(t, "hello chat", a.Text)
	assert.Equal(t, "", e.Buffer().String())
	assert.Equal(t, 0, e.Buffer().Cursor())
	assert.Equal(t, ModeNormal, e.Mode())
}

func TestEditor_SubmitEmptyBufferIsNoop(t *testing.T) {
	e := New()
	a := e.Handle(KeyEvent{Kind: KeyEnter})
	assert.Equal(t, ActionNone, a.Kind)
}

func TestEditor_PasteFromRegister(t *testing.T) {
	e := New()
	feed(e, KeyEvent{Kind: KeyRune, Ch: 'i'})
	feed(e, runes("abc")...)
	feed(e, KeyEvent{Kind: KeyEsc})
	feed(e, runes("dd")...)

	feed(e, KeyEvent{Kind: KeyRune, Ch: 'P'})
	assert.Equal(t, "abc", e.Buffer().String())
	assert.Equal(t, 3, e.Buffer().Cursor())
	assert.Equal(t, "abc", e.Register().Get(), "paste must not consume the register")
}

func TestEditor_Scenario_InsertSubmit(t *testing.T) {
	// i h i then submit: buffer "hi" sent, buffer cleared, cursor 0.
	e := New()
	feed(e, KeyEvent{Kind: KeyRune, Ch: 'i'})
	feed(e, runes("hi")...)

	a := e.Handle(KeyEvent{Kind: KeyEnter})
	require.Equal(t, ActionSubmit, a.Kind)
	assert.Equal(t, "hi", a.Text)
	assert.Equal(t, "", e.Buffer().String())
	assert.Equal(t, 0, e.Buffer().Cursor())
}

func TestEditor_Scenario_UnsupportedNormalKey(t *testing.T) {
	// i a b c Esc ^ x: buffer unchanged, cursor 0, x is a recorded no-op.
	e := New()
	feed(e, KeyEvent{Kind: KeyRune, Ch: 'i'})
	feed(e, runes("abc")...)
	feed(e, KeyEvent{Kind: KeyEsc})
	feed(e, KeyEvent{Kind: KeyRune, Ch: '^'})

	a := e.Handle(KeyEvent{Kind: KeyRune, Ch: 'x'})
	assert.Equal(t, ActionRejected, a.Kind)
	assert.Equal(t, "abc", e.Buffer().String())
	assert.Equal(t, 0, e.Buffer().Cursor())
}

func TestEditor_Scenario_YankDeleteEmpty(t *testing.T) {
	// y y d d on an empty buffer: register empty, buffer empty, no error.
	e := New()
	a := feed(e, runes("yydd")...)

	assert.Equal(t, ActionNone, a.Kind)
	assert.Equal(t, "", e.Register().Get())
	assert.Equal(t, "", e.Buffer().String())
}
