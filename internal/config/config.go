// Package config loads vkbd settings from TOML or YAML files.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"vkbd/internal/logging"
	"vkbd/keyboard"
)

// Config is the on-disk settings file.
type Config struct {
	Keyboard KeyboardConfig `toml:"keyboard" yaml:"keyboard"`
	Logging  LoggingConfig  `toml:"logging" yaml:"logging"`
	History  HistoryConfig  `toml:"history" yaml:"history"`
}

// KeyboardConfig mirrors keyboard.Config with the button config by name.
type KeyboardConfig struct {
	HintText      string `toml:"hint_text" yaml:"hint_text"`
	MultilineMode bool   `toml:"multiline_mode" yaml:"multiline_mode"`
	MaxTextLength int    `toml:"max_text_length" yaml:"max_text_length"`
	ButtonConfig  string `toml:"button_config" yaml:"button_config"`

	// Codec is the handoff encoding: "json" or "msgpack".
	Codec string `toml:"codec" yaml:"codec"`
}

type LoggingConfig struct {
	Level    string `toml:"level" yaml:"level"`
	Format   string `toml:"format" yaml:"format"`
	Output   string `toml:"output" yaml:"output"`
	FilePath string `toml:"file_path" yaml:"file_path"`
}

type HistoryConfig struct {
	Enabled bool   `toml:"enabled" yaml:"enabled"`
	Path    string `toml:"path" yaml:"path"`
}

func Default() *Config {
	dir := stateDir()
	return &Config{
		Keyboard: KeyboardConfig{
			HintText:      "Enter text",
			MaxTextLength: 64,
			ButtonConfig:  keyboard.ButtonTriple.String(),
			Codec:         "json",
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "text",
			Output:   "file",
			FilePath: filepath.Join(dir, "vkbd.log"),
		},
		History: HistoryConfig{
			Enabled: true,
			Path:    filepath.Join(dir, "history.db"),
		},
	}
}

func stateDir() string {
	if d := os.Getenv("XDG_STATE_HOME"); d != "" {
		return filepath.Join(d, "vkbd")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "vkbd")
	}
	return filepath.Join(home, ".local", "state", "vkbd")
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, cfg.Validate()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("parse TOML config: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse YAML config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format %q", filepath.Ext(path))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	kc, err := c.Keyboard.ToKeyboard()
	if err != nil {
		return err
	}
	if err := kc.Validate(); err != nil {
		return fmt.Errorf("keyboard: %w", err)
	}
	if _, err := keyboard.CodecByName(c.Keyboard.Codec); err != nil {
		return fmt.Errorf("keyboard: %w", err)
	}
	if _, err := c.Logging.ToLogging(); err != nil {
		return err
	}
	if c.History.Enabled && c.History.Path == "" {
		return errors.New("history: path is required when enabled")
	}
	return nil
}

func (k KeyboardConfig) ToKeyboard() (keyboard.Config, error) {
	bc, err := keyboard.ParseButtonConfig(k.ButtonConfig)
	if err != nil {
		return keyboard.Config{}, fmt.Errorf("keyboard: %w", err)
	}
	return keyboard.Config{
		HintText:      k.HintText,
		MultilineMode: k.MultilineMode,
		MaxTextLength: k.MaxTextLength,
		ButtonConfig:  bc,
	}, nil
}

func (l LoggingConfig) ToLogging() (logging.Config, error) {
	lvl, err := logging.ParseLevel(l.Level)
	if err != nil {
		return logging.Config{}, fmt.Errorf("logging: %w", err)
	}
	format, err := logging.ParseFormat(l.Format)
	if err != nil {
		return logging.Config{}, fmt.Errorf("logging: %w", err)
	}
	out := logging.DefaultConfig()
	out.Level = lvl
	out.Format = format
	if l.Output != "" {
		out.Output = l.Output
	}
	out.FilePath = l.FilePath
	return out, nil
}
