package keyboard

type LayoutKind int

const (
	Alphabetic LayoutKind = iota
	Numeric
)

func (k LayoutKind) String() string {
	if k == Numeric {
		return "Numeric"
	}
	return "Alphabetic"
}

// Layout is owned by a single interaction. Shifted survives layout switches
// but only takes effect on the alphabetic layout.
type Layout struct {
	Kind    LayoutKind
	Shifted bool
}

// SwitchTo reports whether the layout changed; asking for the active
// layout is a no-op so shells can skip the rebuild.
func (l *Layout) SwitchTo(kind LayoutKind) bool {
	if l.Kind == kind {
		return false
	}
	l.Kind = kind
	return true
}

// ToggleShift does nothing on the numeric layout, where no shift key exists.
func (l *Layout) ToggleShift() bool {
	if l.Kind != Alphabetic {
		return false
	}
	l.Shifted = !l.Shifted
	return true
}

func (l Layout) EffectiveShift() bool {
	return l.Kind == Alphabetic && l.Shifted
}

func (l Layout) VisibleKeys() []Key {
	return ApplyCase(registry(l.Kind), l.EffectiveShift())
}
