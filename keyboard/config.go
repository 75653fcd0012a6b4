package keyboard

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownButtonConfig = errors.New("unknown button config")
	ErrNegativeMaxLength   = errors.New("max text length must not be negative")
)

// ButtonConfig selects which result buttons an interaction offers.
// The numbering follows the host software keyboard applet.
type ButtonConfig int

const (
	ButtonSingle ButtonConfig = iota
	ButtonDual
	ButtonTriple
	ButtonNone
)

var buttonConfigNames = map[ButtonConfig]string{
	ButtonSingle: "Single",
	ButtonDual:   "Dual",
	ButtonTriple: "Triple",
	ButtonNone:   "None",
}

func (b ButtonConfig) String() string {
	if s, ok := buttonConfigNames[b]; ok {
		return s
	}
	return fmt.Sprintf("ButtonConfig(%d)", int(b))
}

func (b ButtonConfig) Valid() bool {
	_, ok := buttonConfigNames[b]
	return ok
}

// ParseButtonConfig accepts the button config name, case-insensitively.
func ParseButtonConfig(s string) (ButtonConfig, error) {
	for b, name := range buttonConfigNames {
		if strings.EqualFold(strings.TrimSpace(s), name) {
			return b, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownButtonConfig, s)
}

func (b ButtonConfig) MarshalText() ([]byte, error) {
	if !b.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownButtonConfig, int(b))
	}
	return []byte(b.String()), nil
}

func (b *ButtonConfig) UnmarshalText(text []byte) error {
	v, err := ParseButtonConfig(string(text))
	if err != nil {
		return err
	}
	*b = v
	return nil
}

// Config is supplied by the caller and never modified by the keyboard.
type Config struct {
	HintText      string       `json:"hint_text"`
	MultilineMode bool         `json:"multiline_mode"`
	MaxTextLength int          `json:"max_text_length"`
	ButtonConfig  ButtonConfig `json:"button_config"`
}

func (c Config) Validate() error {
	if !c.ButtonConfig.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownButtonConfig, int(c.ButtonConfig))
	}
	if c.MaxTextLength < 0 {
		return fmt.Errorf("%w: %d", ErrNegativeMaxLength, c.MaxTextLength)
	}
	return nil
}
