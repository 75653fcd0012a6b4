package keyboard

import "strings"

// KeyTag groups keys independent of where the shell draws them.
type KeyTag int

const (
	TagLetter KeyTag = iota
	TagModifier
)

type Action int

const (
	ActionLetter Action = iota
	ActionBackspace
	ActionSpace
	ActionMoveLeft
	ActionMoveRight
	ActionShift
	ActionNumeric
	ActionAlphabetic
	ActionEnter
)

var actionNames = [...]string{
	ActionLetter:     "Letter",
	ActionBackspace:  "Backspace",
	ActionSpace:      "Space",
	ActionMoveLeft:   "MoveLeft",
	ActionMoveRight:  "MoveRight",
	ActionShift:      "Shift",
	ActionNumeric:    "SwitchLayout(Numeric)",
	ActionAlphabetic: "SwitchLayout(Alphabetic)",
	ActionEnter:      "Enter",
}

func (a Action) String() string {
	if a >= 0 && int(a) < len(actionNames) {
		return actionNames[a]
	}
	return "Action(?)"
}

// Key is one entry of the flat key registry. Row is only a hint for shells
// that lay keys out in rows.
type Key struct {
	Label  string
	Tag    KeyTag
	Action Action
	Row    int
}

func (k Key) Press() Press {
	return Press{Action: k.Action, Label: k.Label}
}

// Press is a single key event delivered by the shell.
type Press struct {
	Action Action
	Label  string
}

func Letter(label string) Press { return Press{Action: ActionLetter, Label: label} }

func Do(a Action) Press { return Press{Action: a} }

func SwitchLayout(kind LayoutKind) Press {
	if kind == Numeric {
		return Press{Action: ActionNumeric}
	}
	return Press{Action: ActionAlphabetic}
}

var (
	alphaRows = []string{"qwertyuiop", "asdfghjkl", "zxcvbnm"}
	numRows   = []string{"1234567890", "-/:;()$&@\"", ".,?!'#%*+="}
)

func letterRows(rows []string) []Key {
	var keys []Key
	for i, row := range rows {
		for _, r := range row {
			keys = append(keys, Key{Label: string(r), Tag: TagLetter, Action: ActionLetter, Row: i})
		}
	}
	return keys
}

func modifierRow(kind LayoutKind, row int) []Key {
	mod := func(label string, a Action) Key {
		return Key{Label: label, Tag: TagModifier, Action: a, Row: row}
	}
	if kind == Numeric {
		return []Key{
			mod("ABC", ActionAlphabetic),
			mod("Space", ActionSpace),
			mod("←", ActionMoveLeft),
			mod("→", ActionMoveRight),
			mod("⌫", ActionBackspace),
		}
	}
	return []Key{
		mod("Shift", ActionShift),
		mod("123", ActionNumeric),
		mod("Space", ActionSpace),
		mod("←", ActionMoveLeft),
		mod("→", ActionMoveRight),
		mod("⌫", ActionBackspace),
	}
}

func registry(kind LayoutKind) []Key {
	rows := alphaRows
	if kind == Numeric {
		rows = numRows
	}
	keys := letterRows(rows)
	return append(keys, modifierRow(kind, len(rows))...)
}

// ApplyCase re-cases every letter key for the given shift state. Applying it
// twice with the same state gives the same labels.
func ApplyCase(keys []Key, shifted bool) []Key {
	out := make([]Key, len(keys))
	for i, k := range keys {
		if k.Tag == TagLetter {
			k.Label = caseFold(k.Label, shifted)
		}
		out[i] = k
	}
	return out
}

func caseFold(s string, shifted bool) string {
	if shifted {
		return strings.ToUpper(s)
	}
	return strings.ToLower(s)
}
