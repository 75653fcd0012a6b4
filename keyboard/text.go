package keyboard

// Text buffer and cursor. Positions and lengths are counted in runes.
//
// Length policy: input that does not fit into MaxTextLength is truncated to
// the remaining capacity, the way a length filter on a text field behaves.
// A single key press that does not fit is therefore dropped.

type Text struct {
	buf       gapBuffer
	cursor    int
	maxLen    int
	multiline bool
	hint      string
}

func NewText(cfg Config) *Text {
	return &Text{
		buf:       newGapBuffer(min(cfg.MaxTextLength, 256)),
		maxLen:    max(cfg.MaxTextLength, 0),
		multiline: cfg.MultilineMode,
		hint:      cfg.HintText,
	}
}

func (t *Text) String() string { return t.buf.String() }
func (t *Text) Len() int       { return t.buf.Len() }
func (t *Text) Cursor() int    { return t.cursor }
func (t *Text) Empty() bool    { return t.buf.Len() == 0 }
func (t *Text) Hint() string   { return t.hint }
func (t *Text) Capacity() int  { return t.maxLen - t.buf.Len() }

// Insert splices s at the cursor and returns how many runes were kept.
func (t *Text) Insert(s string) int {
	rs := t.filter([]rune(s))
	if room := t.Capacity(); len(rs) > room {
		rs = rs[:max(room, 0)]
	}
	if len(rs) == 0 {
		return 0
	}
	t.cursor = clamp(t.cursor, 0, t.buf.Len())
	t.buf.Insert(t.cursor, rs)
	t.cursor += len(rs)
	return len(rs)
}

func (t *Text) InsertSpace() int { return t.Insert(" ") }

// Newline inserts a line break; single-line buffers drop it.
func (t *Text) Newline() int { return t.Insert("\n") }

func (t *Text) Backspace() bool {
	if !t.buf.DeleteBefore(t.cursor) {
		return false
	}
	t.cursor--
	return true
}

func (t *Text) MoveLeft() bool  { return t.moveCursor(-1) }
func (t *Text) MoveRight() bool { return t.moveCursor(1) }

func (t *Text) moveCursor(delta int) bool {
	next := clamp(t.cursor+delta, 0, t.buf.Len())
	if next == t.cursor {
		return false
	}
	t.cursor = next
	return true
}

func (t *Text) filter(rs []rune) []rune {
	if t.multiline {
		return rs
	}
	out := make([]rune, 0, len(rs))
	for _, r := range rs {
		if r == '\n' || r == '\r' {
			continue
		}
		out = append(out, r)
	}
	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
