package keyboard

// Interaction is one run of the keyboard from start to result. It is driven
// by a single event source and is not safe for concurrent use.
type Interaction struct {
	cfg      Config
	text     *Text
	layout   Layout
	buttons  []ResultType
	finished bool
	result   Result
}

// State is the snapshot a shell re-renders from after every event.
type State struct {
	Text     string
	Cursor   int
	Hint     string
	Layout   Layout
	Keys     []Key
	Buttons  []ResultType
	Finished bool
}

func NewInteraction(cfg Config) (*Interaction, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	buttons, err := Buttons(cfg.ButtonConfig)
	if err != nil {
		return nil, err
	}
	return &Interaction{
		cfg:     cfg,
		text:    NewText(cfg),
		layout:  Layout{Kind: Alphabetic},
		buttons: buttons,
	}, nil
}

func (ia *Interaction) Config() Config { return ia.cfg }
func (ia *Interaction) Finished() bool { return ia.finished }
func (ia *Interaction) Result() Result { return ia.result }
func (ia *Interaction) Layout() Layout { return ia.layout }
func (ia *Interaction) Text() *Text    { return ia.text }

func (ia *Interaction) State() State {
	return State{
		Text:     ia.text.String(),
		Cursor:   ia.text.Cursor(),
		Hint:     ia.text.Hint(),
		Layout:   ia.layout,
		Keys:     ia.keys(),
		Buttons:  append([]ResultType(nil), ia.buttons...),
		Finished: ia.finished,
	}
}

func (ia *Interaction) keys() []Key {
	keys := ia.layout.VisibleKeys()
	if ia.cfg.MultilineMode {
		row := keys[len(keys)-1].Row
		keys = append(keys, Key{Label: "↵", Tag: TagModifier, Action: ActionEnter, Row: row})
	}
	return keys
}

// OnKeyPress applies one key event. Events after the interaction finished
// are ignored.
func (ia *Interaction) OnKeyPress(p Press) State {
	if ia.finished {
		return ia.State()
	}
	switch p.Action {
	case ActionLetter:
		ia.text.Insert(caseFold(p.Label, ia.layout.EffectiveShift()))
	case ActionBackspace:
		ia.text.Backspace()
	case ActionSpace:
		ia.text.InsertSpace()
	case ActionMoveLeft:
		ia.text.MoveLeft()
	case ActionMoveRight:
		ia.text.MoveRight()
	case ActionShift:
		ia.layout.ToggleShift()
	case ActionNumeric:
		ia.layout.SwitchTo(Numeric)
	case ActionAlphabetic:
		ia.layout.SwitchTo(Alphabetic)
	case ActionEnter:
		ia.text.Newline()
	}
	return ia.State()
}

// OnResultButton finishes the interaction. Only the first press of an
// exposed button is accepted.
func (ia *Interaction) OnResultButton(t ResultType) (Result, bool) {
	if ia.finished || !hasButton(ia.buttons, t) {
		return Result{}, false
	}
	switch t {
	case ResultPositive:
		ia.finish(PositiveResult(ia.text.String(), ia.cfg))
	case ResultNeutral:
		ia.finish(NeutralResult())
	case ResultNegative:
		ia.finish(NegativeResult())
	default:
		return Result{}, false
	}
	return ia.result, true
}

// Cancel ends the interaction without a button, e.g. on focus loss.
func (ia *Interaction) Cancel() (Result, bool) {
	if ia.finished {
		return Result{}, false
	}
	ia.finish(Result{})
	return ia.result, true
}

func (ia *Interaction) finish(r Result) {
	ia.finished = true
	ia.result = r
}
