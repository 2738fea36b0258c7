package tui

import (
	"github.com/gdamore/tcell/v2"

	"github.com/twitchat/twitchat-tui/internal/client"
	"github.com/twitchat/twitchat-tui/internal/editor"
)

// setupHandlers wires the global key handler. Every key goes through the
// modal editor; only scroll keys fall through to the focused view.
func (t *tui) setupHandlers() {
	t.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyCtrlC, tcell.KeyCtrlQ:
			t.actionsChan <- client.UserAction{Type: client.ActionQuit}
			return nil
		case tcell.KeyUp, tcell.KeyDown, tcell.KeyPgUp, tcell.KeyPgDn, tcell.KeyHome, tcell.KeyEnd:
			// Scrollback in the message view.
			return event
		}

		kev, ok := translateKey(event)
		if !ok {
			return event
		}

		action := t.editor.Handle(kev)
		if action.Kind == editor.ActionSubmit {
			t.actionsChan <- client.UserAction{Type: client.ActionSendMessage, Payload: action.Text}
		}
		t.renderComposer()
		return nil
	})
}

// translateKey maps a terminal key event onto the editor's key alphabet.
// Non-ASCII runes are forwarded with a zero Ch so the editor rejects them.
func translateKey(event *tcell.EventKey) (editor.KeyEvent, bool) {
	switch event.Key() {
	case tcell.KeyEnter:
		return editor.KeyEvent{Kind: editor.KeyEnter}, true
	case tcell.KeyEsc:
		return editor.KeyEvent{Kind: editor.KeyEsc}, true
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		return editor.KeyEvent{Kind: editor.KeyBackspace}, true
	case tcell.KeyLeft:
		return editor.KeyEvent{Kind: editor.KeyLeft}, true
	case tcell.KeyRight:
		return editor.KeyEvent{Kind: editor.KeyRight}, true
	case tcell.KeyRune:
		r := event.Rune()
		if r > 0x7f {
			return editor.KeyEvent{Kind: editor.KeyRune, Ch: 0}, true
		}
		return editor.KeyEvent{Kind: editor.KeyRune, Ch: byte(r)}, true
	}
	return editor.KeyEvent{}, false
}
