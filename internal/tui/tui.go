package tui

import (
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/twitchat/twitchat-tui/internal/client"
	"github.com/twitchat/twitchat-tui/internal/editor"
)

// tui is the main struct that holds all tui components. It is a pure
// consumer of the client's display stream and the editor's buffer state.
type tui struct {
	app         *tview.Application
	actionsChan chan<- client.UserAction
	editor      *editor.Editor

	// UI Components
	mainFlex *tview.Flex
	logs     *tview.TextView
	output   *tview.TextView
	composer *tview.TextView
	hints    *tview.TextView

	// UI State
	connState string
	pending   int
	theme     *theme
	nick      string
}

// New creates and initializes the entire TUI application.
func New(nick string, actions chan<- client.UserAction, events <-chan client.DisplayEvent) *tui {
	t := &tui{
		app:         tview.NewApplication(),
		actionsChan: actions,
		editor:      editor.New(),
		connState:   "disconnected",
		theme:       defaultTheme,
		nick:        nick,
	}

	t.setupViews()
	t.setupHandlers()
	t.renderComposer()
	t.updateHints()
	t.app.SetRoot(t.mainFlex, true).SetFocus(t.output)

	go t.listenForEvents(events)

	return t
}

// logWriter is a helper to redirect the standard logger to the logs TextView.
type logWriter struct {
	textViewWriter io.Writer
	getColor       func() tcell.Color
}

func (lw *logWriter) Write(p []byte) (int, error) {
	msg := strings.TrimSpace(string(p))
	ts := time.Now().Format("15:04:05")
	return fmt.Fprintf(lw.textViewWriter, "\n[%s][%s] %s[-]", lw.getColor(), ts, msg)
}

// Widget titles.
const (
	titleLogs     = "Logs"
	titleMessages = "Messages"
)

// setupViews creates and configures all the visual primitives of the TUI.
func (t *tui) setupViews() {
	tview.Styles.PrimitiveBackgroundColor = t.theme.backgroundColor
	tview.Styles.PrimaryTextColor = t.theme.textColor
	tview.Styles.BorderColor = t.theme.borderColor
	tview.Styles.TitleColor = t.theme.titleColor

	t.logs = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetChangedFunc(func() { t.app.Draw() })
	t.logs.SetBorder(true).SetTitle(titleLogs).SetTitleAlign(tview.AlignLeft)
	customWriter := &logWriter{
		textViewWriter: tview.ANSIWriter(t.logs),
		getColor:       func() tcell.Color { return t.theme.logInfoColor },
	}
	log.SetOutput(customWriter)
	log.SetFlags(0)

	t.output = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetChangedFunc(func() { t.app.Draw() })
	t.output.SetBorder(true).SetTitle(titleMessages).SetTitleAlign(tview.AlignLeft)

	t.composer = tview.NewTextView().
		SetDynamicColors(true).
		SetWrap(false)
	t.composer.SetBorder(true).SetTitleAlign(tview.AlignLeft)

	t.hints = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)

	t.mainFlex = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(t.logs, 4, 0, false).
		AddItem(t.output, 0, 1, false).
		AddItem(t.composer, 3, 0, true).
		AddItem(t.hints, 1, 0, false)
}

// listenForEvents is the main event loop that processes events from the client.
func (t *tui) listenForEvents(events <-chan client.DisplayEvent) {
	for event := range events {
		if event.Type == "SHUTDOWN" {
			break
		}

		t.app.QueueUpdateDraw(func() {
			switch event.Type {
			case "NEW_MESSAGE":
				t.handleNewMessage(event)
			case "STATUS", "ERROR":
				t.handleLogMessage(event)
			case "STATE_UPDATE":
				t.handleStateUpdate(event)
			}
		})
	}
	t.app.Stop()
}

// handleNewMessage displays a new chat message in the output view.
func (t *tui) handleNewMessage(event client.DisplayEvent) {
	nickColorTag := event.Color
	if nickColorTag != "" {
		nickColorTag = "[" + nickColorTag + "]"
	} else {
		nickColorTag = nickToColor(event.Nick, t.theme.nickPalette)
	}

	content := tview.Escape(event.Content)
	mention := "@" + t.nick
	if t.nick != "" && strings.Contains(content, mention) {
		content = strings.ReplaceAll(
			content,
			mention,
			fmt.Sprintf("[%s::b]%s[-::-]", t.theme.inputTextColor, mention),
		)
	}

	if event.IsOwnMessage {
		fmt.Fprintf(
			t.output,
			"\n[%s][%s::b]%s[-::-]: [%s]%s[-]",
			t.theme.logInfoColor, t.theme.inputTextColor, event.Nick,
			t.theme.inputTextColor, content,
		)
	} else {
		fmt.Fprintf(
			t.output,
			"\n[%s]%s[-::-]: %s [%s][%s][-]",
			nickColorTag, event.Nick, content,
			t.theme.logInfoColor, event.Timestamp,
		)
	}
	t.output.ScrollToEnd()
}

// handleLogMessage displays a status or error message in the logs view.
func (t *tui) handleLogMessage(event client.DisplayEvent) {
	color := t.theme.logWarnColor
	if event.Type == "ERROR" {
		color = t.theme.logErrorColor
	}
	fmt.Fprintf(t.logs, "\n[%s][%s] %s: %s[-]", color, time.Now().Format("15:04:05"), event.Type, event.Content)
	t.logs.ScrollToEnd()
}

// handleStateUpdate refreshes the status line with the connection state.
func (t *tui) handleStateUpdate(event client.DisplayEvent) {
	state, ok := event.Payload.(client.StateUpdate)
	if !ok {
		fmt.Fprintf(t.logs, "\n[%s]ERROR: Invalid STATE_UPDATE payload[-]", t.theme.logErrorColor)
		return
	}
	t.connState = state.State
	t.pending = state.Pending
	t.updateHints()
}

// renderComposer redraws the input line with a visible cursor cell and
// the current mode in the title.
func (t *tui) renderComposer() {
	text := t.editor.Buffer().String()
	cur := t.editor.Buffer().Cursor()

	var b strings.Builder
	b.WriteString(tview.Escape(text[:cur]))
	cursorCell := " "
	rest := ""
	if cur < len(text) {
		cursorCell = string(text[cur])
		rest = text[cur+1:]
	}
	fmt.Fprintf(&b, "[%s:%s]%s[-:-]", t.theme.backgroundColor.String(), t.theme.inputTextColor.String(), tview.Escape(cursorCell))
	b.WriteString(tview.Escape(rest))
	t.composer.SetText(b.String())

	title := " " + t.editor.Mode().String() + " "
	switch t.editor.Pending() {
	case editor.PendingY:
		title += "y "
	case editor.PendingD:
		title += "d "
	}
	t.composer.SetTitle(title)
	t.updateHints()
}

// updateHints refreshes the one-line status bar under the composer.
func (t *tui) updateHints() {
	pending := ""
	if t.pending > 0 {
		pending = fmt.Sprintf(" | queued: %d", t.pending)
	}
	t.hints.SetText(fmt.Sprintf(
		"[%s]-- %s --[-] | %s%s | i insert, Esc normal, Enter send, Ctrl+C quit",
		t.theme.titleColor, t.editor.Mode(), t.connState, pending,
	))
}

// Run starts the TUI application.
func (t *tui) Run() error {
	return t.app.Run()
}
