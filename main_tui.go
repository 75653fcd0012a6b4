package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"

	"vkbd/keyboard"
)

// hitBox is the screen span of one drawn target, for mouse presses.
type hitBox struct {
	x0, x1, y int
	target    int
}

// runShell draws the keyboard and feeds terminal events into app until the
// interaction finishes or ctx ends.
func runShell(ctx context.Context, screen tcell.Screen, app *appState) error {
	stop := context.AfterFunc(ctx, func() {
		screen.PostEvent(tcell.NewEventInterrupt(nil))
	})
	defer stop()

	for {
		drawTUI(screen, app)
		if app.finished() {
			return nil
		}
		switch e := screen.PollEvent().(type) {
		case nil:
			// Screen finalized underneath us.
			app.cancel("screen closed")
			return nil
		case *tcell.EventResize:
			screen.Sync()
		case *tcell.EventKey:
			handleTUIKey(app, e)
		case *tcell.EventMouse:
			handleTUIMouse(app, e)
		case *tcell.EventFocus:
			if !e.Focused {
				app.cancel("focus lost")
			}
		case *tcell.EventInterrupt:
			if ctx.Err() != nil {
				return nil
			}
		}
	}
}

func handleTUIKey(app *appState, ev *tcell.EventKey) bool {
	if app == nil || ev == nil {
		return true
	}
	mods := tcellToMods(ev.Modifiers())
	switch ev.Key() {
	case tcell.KeyCtrlC:
		app.cancel("interrupt")
		return false
	case tcell.KeyRune:
		if mods&(modCtrl|modAlt) != 0 {
			return !app.finished()
		}
		return handleTextEvent(app, string(ev.Rune()))
	}
	if k, ok := tcellKeyToKeyCode(ev.Key()); ok {
		if ev.Key() == tcell.KeyBacktab {
			mods |= modShift
		}
		return handleKeyEvent(app, keyEvent{key: k, mods: mods})
	}
	return !app.finished()
}

// handleTUIMouse presses whatever target is under a primary click. Holding
// the button down does not repeat the press.
func handleTUIMouse(app *appState, ev *tcell.EventMouse) {
	down := ev.Buttons()&tcell.Button1 != 0
	wasDown := app.mouseDown
	app.mouseDown = down
	if !down || wasDown {
		return
	}
	x, y := ev.Position()
	if i, ok := app.hitTest(x, y); ok {
		app.focus = i
		app.lastEvent = fmt.Sprintf("CLICK %q", app.targets[i].label)
		app.activate(i)
	}
}

func (app *appState) hitTest(x, y int) (int, bool) {
	for _, h := range app.hits {
		if y == h.y && x >= h.x0 && x < h.x1 && h.target < len(app.targets) {
			return h.target, true
		}
	}
	return 0, false
}

func tcellToMods(m tcell.ModMask) modMask {
	var out modMask
	if m&tcell.ModShift != 0 {
		out |= modShift
	}
	if m&tcell.ModCtrl != 0 {
		out |= modCtrl
	}
	if m&tcell.ModAlt != 0 {
		out |= modAlt
	}
	return out
}

func tcellKeyToKeyCode(k tcell.Key) (keyCode, bool) {
	switch k {
	case tcell.KeyUp:
		return keyUp, true
	case tcell.KeyDown:
		return keyDown, true
	case tcell.KeyLeft:
		return keyLeft, true
	case tcell.KeyRight:
		return keyRight, true
	case tcell.KeyTab:
		return keyTab, true
	case tcell.KeyBacktab:
		return keyBacktab, true
	case tcell.KeyEnter:
		return keyReturn, true
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		return keyBackspace, true
	case tcell.KeyEscape:
		return keyEscape, true
	}
	return keyUnknown, false
}

var (
	styleBase    = tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorWhite)
	styleHint    = styleBase.Foreground(tcell.ColorGray)
	styleKey     = tcell.StyleDefault.Background(tcell.ColorDarkSlateGray).Foreground(tcell.ColorWhite)
	styleMod     = tcell.StyleDefault.Background(tcell.ColorDarkSlateBlue).Foreground(tcell.ColorLightCyan)
	styleButton  = tcell.StyleDefault.Background(tcell.ColorDarkGreen).Foreground(tcell.ColorWhite)
	styleFocused = tcell.StyleDefault.Background(tcell.ColorKhaki).Foreground(tcell.ColorBlack)
	styleStatus  = tcell.StyleDefault.Background(tcell.ColorDarkSlateBlue).Foreground(tcell.ColorWhite)
)

func drawTUI(s tcell.Screen, app *appState) {
	s.Clear()
	w, h := s.Size()
	if app == nil || w < 20 || h < 8 {
		s.Show()
		return
	}
	st := app.state
	for y := 0; y < h; y++ {
		fillRow(s, y, w, styleBase)
	}

	header := fmt.Sprintf("vkbd | %s", st.Layout.Kind)
	if st.Layout.EffectiveShift() {
		header += " SHIFT"
	}
	header += fmt.Sprintf(" | %d/%d", runeCount(st.Text), app.handle.Config().MaxTextLength)
	drawCellText(s, 0, 0, padRight(header, w), styleStatus)

	// Text area. Keys and buttons take the bottom rows.
	keyRows := rowCount(app.targets)
	textTop := 1
	textH := max(1, h-3-2*keyRows-1)
	cx, cy := drawTextArea(s, textTop, w, textH, st)

	app.hits = app.hits[:0]
	y := textTop + textH + 1
	row := -1
	x := 1
	for i, t := range app.targets {
		if t.row != row {
			if row >= 0 {
				y += 2
			}
			row, x = t.row, 1
		}
		label := " " + t.label + " "
		lw := runewidth.StringWidth(label)
		if x+lw > w {
			continue
		}
		style := styleKey
		switch {
		case i == app.focus:
			style = styleFocused
		case t.isButton:
			style = styleButton
		case t.key.Tag == keyboard.TagModifier:
			style = styleMod
		}
		if y < h-1 {
			drawCellText(s, x, y, label, style)
			app.hits = append(app.hits, hitBox{x0: x, x1: x + lw, y: y, target: i})
		}
		x += lw + 1
	}

	status := "Tab/arrows move | Enter presses | type to press keys | Ctrl+arrows move cursor | Esc cancels"
	if app.lastEvent != "" {
		status = app.lastEvent + " | " + status
	}
	drawCellText(s, 0, h-1, padRight(status, w), styleStatus)

	if cy >= textTop && cy < textTop+textH && cx < w && !app.finished() {
		s.ShowCursor(cx, cy)
	} else {
		s.HideCursor()
	}
	s.Show()
}

// drawTextArea draws the buffer, or the hint when it is empty, and returns
// the screen position of the cursor.
func drawTextArea(s tcell.Screen, top, w, height int, st keyboard.State) (int, int) {
	if st.Text == "" {
		if st.Hint != "" {
			drawCellText(s, 1, top, padRight(st.Hint, w-1), styleHint)
		}
		return 1, top
	}
	lines := strings.Split(st.Text, "\n")
	line, col := cursorLineCol(st.Text, st.Cursor)
	start := max(0, line-height+1)
	for i := 0; i < height && start+i < len(lines); i++ {
		drawCellText(s, 1, top+i, lines[start+i], styleBase)
	}
	prefix := []rune(lines[line])[:col]
	return 1 + runewidth.StringWidth(string(prefix)), top + line - start
}

// cursorLineCol converts a rune offset into a line and rune column.
func cursorLineCol(text string, cursor int) (int, int) {
	line, col := 0, 0
	i := 0
	for _, r := range text {
		if i == cursor {
			break
		}
		if r == '\n' {
			line++
			col = 0
		} else {
			col++
		}
		i++
	}
	return line, col
}

func rowCount(ts []target) int {
	n, row := 0, -1
	for _, t := range ts {
		if t.row != row {
			n++
			row = t.row
		}
	}
	return n
}

func runeCount(s string) int { return len([]rune(s)) }

func drawCellText(s tcell.Screen, x, y int, text string, st tcell.Style) {
	for _, r := range text {
		w := runewidth.RuneWidth(r)
		if w <= 0 {
			continue
		}
		s.SetContent(x, y, r, nil, st)
		x += w
	}
}

func fillRow(s tcell.Screen, y, w int, st tcell.Style) {
	for x := 0; x < w; x++ {
		s.SetContent(x, y, ' ', nil, st)
	}
}

func padRight(s string, w int) string {
	if w <= 0 {
		return ""
	}
	sw := runewidth.StringWidth(s)
	if sw >= w {
		return runewidth.Truncate(s, w, "")
	}
	return s + strings.Repeat(" ", w-sw)
}
