package keyboard

// gapBuffer stores the edited runes with a movable gap at the cursor, so
// repeated key presses at the same spot do not shift the tail each time.
type gapBuffer struct {
	data     []rune
	gapStart int
	gapEnd   int
}

const minGap = 16

func newGapBuffer(capacity int) gapBuffer {
	n := max(capacity, minGap)
	return gapBuffer{data: make([]rune, n), gapStart: 0, gapEnd: n}
}

func (g *gapBuffer) Len() int {
	return len(g.data) - (g.gapEnd - g.gapStart)
}

func (g *gapBuffer) grow(n int) {
	if n <= g.gapEnd-g.gapStart {
		return
	}
	extra := n + minGap
	tail := len(g.data) - g.gapEnd
	data := make([]rune, len(g.data)+extra)
	copy(data, g.data[:g.gapStart])
	newEnd := g.gapEnd + extra
	copy(data[newEnd:newEnd+tail], g.data[g.gapEnd:])
	g.data = data
	g.gapEnd = newEnd
}

func (g *gapBuffer) moveGap(pos int) {
	pos = clamp(pos, 0, g.Len())
	switch {
	case pos < g.gapStart:
		d := g.gapStart - pos
		copy(g.data[g.gapEnd-d:g.gapEnd], g.data[pos:g.gapStart])
		g.gapStart -= d
		g.gapEnd -= d
	case pos > g.gapStart:
		d := pos - g.gapStart
		copy(g.data[g.gapStart:g.gapStart+d], g.data[g.gapEnd:g.gapEnd+d])
		g.gapStart += d
		g.gapEnd += d
	}
}

func (g *gapBuffer) Insert(pos int, rs []rune) {
	if len(rs) == 0 {
		return
	}
	g.moveGap(pos)
	g.grow(len(rs))
	copy(g.data[g.gapStart:], rs)
	g.gapStart += len(rs)
}

// DeleteBefore removes the rune immediately before pos.
func (g *gapBuffer) DeleteBefore(pos int) bool {
	if pos <= 0 || pos > g.Len() {
		return false
	}
	g.moveGap(pos)
	g.gapStart--
	return true
}

func (g *gapBuffer) Runes() []rune {
	out := make([]rune, 0, g.Len())
	out = append(out, g.data[:g.gapStart]...)
	return append(out, g.data[g.gapEnd:]...)
}

func (g *gapBuffer) String() string {
	return string(g.Runes())
}
