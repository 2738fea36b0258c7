package editor

// The composer is a single logical line of single-width ASCII characters.
// Cursor arithmetic assumes one byte per cell; anything outside the printable
// ASCII range is rejected at insertion so the invariant holds everywhere else.

// Buffer is the composer line: a flat character sequence plus a cursor index.
// The cursor always addresses a character boundary in [0, Len()].
type Buffer struct {
	chars  []byte
	cursor int
}

// NewBuffer returns an empty buffer with the cursor at 0.
func NewBuffer() *Buffer {
	return &Buffer{}
}

// isPrintableASCII reports whether c fits the single-width character set.
func isPrintableASCII(c byte) bool {
	return c >= 0x20 && c <= 0x7e
}

// InsertChar inserts c at the cursor and advances it by one.
// Characters outside printable ASCII are a documented no-op; the return
// value reports whether the character was accepted.
func (b *Buffer) InsertChar(c byte) bool {
	if !isPrintableASCII(c) {
		return false
	}
	b.chars = append(b.chars, 0)
	copy(b.chars[b.cursor+1:], b.chars[b.cursor:])
	b.chars[b.cursor] = c
	b.cursor++
	return true
}

// InsertString inserts s at the cursor, skipping any unsupported bytes.
// Returns the number of characters actually inserted.
func (b *Buffer) InsertString(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		if b.InsertChar(s[i]) {
			n++
		}
	}
	return n
}

// DeleteBack removes the character before the cursor, if any.
func (b *Buffer) DeleteBack() {
	if b.cursor == 0 {
		return
	}
	copy(b.chars[b.cursor-1:], b.chars[b.cursor:])
	b.chars = b.chars[:len(b.chars)-1]
	b.cursor--
}

// MoveLeft moves the cursor one cell left, clamped at 0.
func (b *Buffer) MoveLeft() {
	if b.cursor > 0 {
		b.cursor--
	}
}

// MoveRight moves the cursor one cell right, clamped at Len().
func (b *Buffer) MoveRight() {
	if b.cursor < len(b.chars) {
		b.cursor++
	}
}

// MoveUp is inert: the composer is a single line. Reserved for multi-line support.
func (b *Buffer) MoveUp() {}

// MoveDown is inert: the composer is a single line. Reserved for multi-line support.
func (b *Buffer) MoveDown() {}

// MoveLineStart moves the cursor to column 0.
func (b *Buffer) MoveLineStart() {
	b.cursor = 0
}

// MoveLineEnd moves the cursor past the last character.
func (b *Buffer) MoveLineEnd() {
	b.cursor = len(b.chars)
}

// YankLine copies the full buffer content into the register without
// mutating the buffer.
func (b *Buffer) YankLine(r *Register) {
	r.Set(string(b.chars))
}

// DeleteLine captures the full buffer content into the register, then clears
// the buffer and resets the cursor to 0.
func (b *Buffer) DeleteLine(r *Register) {
	r.Set(string(b.chars))
	b.chars = b.chars[:0]
	b.cursor = 0
}

// TakeAndClear returns the full buffer content and resets the buffer to empty.
func (b *Buffer) TakeAndClear() string {
	s := string(b.chars)
	b.chars = b.chars[:0]
	b.cursor = 0
	return s
}

// String returns the current buffer content.
func (b *Buffer) String() string {
	return string(b.chars)
}

// Cursor returns the current cursor index.
func (b *Buffer) Cursor() int {
	return b.cursor
}

// Len returns the number of characters in the buffer.
func (b *Buffer) Len() int {
	return len(b.chars)
}

// Register is the single-slot yank/delete clipboard. Each yank or delete-line
// overwrites the previous content; it persists across messages and reconnects.
type Register struct {
	text string
}

// Set overwrites the register content.
func (r *Register) Set(text string) {
	r.text = text
}

// Get returns the register content, empty until the first yank or delete.
func (r *Register) Get() string {
	return r.text
}
