package main

import (
	"fmt"
	"strings"

	"vkbd/keyboard"
)

type modMask uint16

const (
	modShift modMask = 1 << iota
	modCtrl
	modAlt
)

type keyCode int

const (
	keyUnknown keyCode = iota
	keyUp
	keyDown
	keyLeft
	keyRight
	keyTab
	keyBacktab
	keyReturn
	keyBackspace
	keyEscape
	keySpace
)

type keyEvent struct {
	key  keyCode
	mods modMask
}

// handleKeyEvent drives the on-screen keyboard from a physical key. It
// returns false once the interaction is over.
func handleKeyEvent(app *appState, e keyEvent) bool {
	if app.finished() {
		return false
	}
	app.lastEvent = fmt.Sprintf("KEY %s mods=%s", keyName(e.key), modsString(e.mods))
	switch e.key {
	case keyEscape:
		app.cancel("escape")
	case keyBackspace:
		app.apply(keyboard.Do(keyboard.ActionBackspace))
	case keySpace:
		app.apply(keyboard.Do(keyboard.ActionSpace))
	case keyLeft:
		if e.mods&modCtrl != 0 {
			app.apply(keyboard.Do(keyboard.ActionMoveLeft))
		} else {
			app.moveFocus(0, -1)
		}
	case keyRight:
		if e.mods&modCtrl != 0 {
			app.apply(keyboard.Do(keyboard.ActionMoveRight))
		} else {
			app.moveFocus(0, 1)
		}
	case keyUp:
		app.moveFocus(-1, 0)
	case keyDown:
		app.moveFocus(1, 0)
	case keyTab:
		app.cycleFocus(1)
	case keyBacktab:
		app.cycleFocus(-1)
	case keyReturn:
		app.activate(app.focus)
	}
	return !app.finished()
}

// handleTextEvent presses the on-screen key whose label matches each typed
// rune. Case comes from the keyboard's shift state, not the physical key.
func handleTextEvent(app *appState, text string) bool {
	if app.finished() {
		return false
	}
	for _, r := range text {
		if r == ' ' {
			app.apply(keyboard.Do(keyboard.ActionSpace))
			continue
		}
		k, ok := findLetterKey(app.state.Keys, r)
		if !ok {
			app.lastEvent = fmt.Sprintf("no %s key for %q", app.state.Layout.Kind, r)
			continue
		}
		app.apply(k.Press())
	}
	return !app.finished()
}

func findLetterKey(keys []keyboard.Key, r rune) (keyboard.Key, bool) {
	want := string(r)
	for _, k := range keys {
		if k.Tag == keyboard.TagLetter && strings.EqualFold(k.Label, want) {
			return k, true
		}
	}
	return keyboard.Key{}, false
}

func keyName(k keyCode) string {
	switch k {
	case keyUp:
		return "Up"
	case keyDown:
		return "Down"
	case keyLeft:
		return "Left"
	case keyRight:
		return "Right"
	case keyTab:
		return "Tab"
	case keyBacktab:
		return "Backtab"
	case keyReturn:
		return "Return"
	case keyBackspace:
		return "Backspace"
	case keyEscape:
		return "Escape"
	case keySpace:
		return "Space"
	default:
		return "Key"
	}
}

func modsString(m modMask) string {
	var parts []string
	if m&modShift != 0 {
		parts = append(parts, "SHIFT")
	}
	if m&modCtrl != 0 {
		parts = append(parts, "CTRL")
	}
	if m&modAlt != 0 {
		parts = append(parts, "ALT")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}
