package keyboard

// Sink is the caller-side consumer of a finished interaction.
type Sink interface {
	Positive(text string, cfg Config)
	Neutral()
	Negative()
}

// Route hands r to the matching Sink method. A None result counts as a
// negative answer; a Positive result without its config does too.
func Route(r Result, s Sink) {
	switch r.Type {
	case ResultPositive:
		if r.Config == nil {
			s.Negative()
			return
		}
		s.Positive(r.Text, *r.Config)
	case ResultNeutral:
		s.Neutral()
	default:
		s.Negative()
	}
}

// SinkFuncs adapts plain functions to Sink; nil fields are skipped.
type SinkFuncs struct {
	OnPositive func(text string, cfg Config)
	OnNeutral  func()
	OnNegative func()
}

func (f SinkFuncs) Positive(text string, cfg Config) {
	if f.OnPositive != nil {
		f.OnPositive(text, cfg)
	}
}

func (f SinkFuncs) Neutral() {
	if f.OnNeutral != nil {
		f.OnNeutral()
	}
}

func (f SinkFuncs) Negative() {
	if f.OnNegative != nil {
		f.OnNegative()
	}
}
