package keyboard

import (
	"fmt"
	"slices"
)

// ResultType says how an interaction ended. None means it ended without a
// result button, e.g. the host tore it down.
type ResultType int

const (
	ResultNone ResultType = iota
	ResultPositive
	ResultNeutral
	ResultNegative
)

var resultTypeNames = [...]string{
	ResultNone:     "None",
	ResultPositive: "Positive",
	ResultNeutral:  "Neutral",
	ResultNegative: "Negative",
}

func (t ResultType) String() string {
	if t >= 0 && int(t) < len(resultTypeNames) {
		return resultTypeNames[t]
	}
	return fmt.Sprintf("ResultType(%d)", int(t))
}

func ParseResultType(s string) (ResultType, error) {
	for i, name := range resultTypeNames {
		if s == name {
			return ResultType(i), nil
		}
	}
	return ResultNone, fmt.Errorf("unknown result type %q", s)
}

func (t ResultType) MarshalText() ([]byte, error) {
	if t < 0 || int(t) >= len(resultTypeNames) {
		return nil, fmt.Errorf("unknown result type %d", int(t))
	}
	return []byte(t.String()), nil
}

func (t *ResultType) UnmarshalText(text []byte) error {
	v, err := ParseResultType(string(text))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// Result is what the caller receives. Text and Config are only set for
// Positive, so a nil Config tells "dismissed" apart from "submitted".
type Result struct {
	Text   string     `json:"text"`
	Type   ResultType `json:"type"`
	Config *Config    `json:"config"`
}

func PositiveResult(text string, cfg Config) Result {
	return Result{Text: text, Type: ResultPositive, Config: &cfg}
}

func NeutralResult() Result  { return Result{Type: ResultNeutral} }
func NegativeResult() Result { return Result{Type: ResultNegative} }

func (r Result) Submitted() bool {
	return r.Type == ResultPositive && r.Config != nil
}

func (r Result) String() string {
	if r.Type == ResultPositive {
		return fmt.Sprintf("%s %q", r.Type, r.Text)
	}
	return r.Type.String()
}

// Buttons lists the result buttons exposed for a button config, in the order
// a shell should draw them.
func Buttons(bc ButtonConfig) ([]ResultType, error) {
	switch bc {
	case ButtonNone:
		return nil, nil
	case ButtonSingle:
		return []ResultType{ResultPositive}, nil
	case ButtonDual:
		return []ResultType{ResultPositive, ResultNegative}, nil
	case ButtonTriple:
		return []ResultType{ResultPositive, ResultNeutral, ResultNegative}, nil
	}
	return nil, fmt.Errorf("%w: %d", ErrUnknownButtonConfig, int(bc))
}

func hasButton(buttons []ResultType, t ResultType) bool {
	return slices.Contains(buttons, t)
}
