package keyboard

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/vmihailenco/msgpack/v5"
)

// Status is the code a keyboard shell finishes with, next to the payload.
type Status int

const (
	StatusOK Status = iota
	StatusCanceled
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusCanceled:
		return "canceled"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Envelope is the message crossing from the keyboard back to the caller.
type Envelope struct {
	Status  Status
	Payload []byte
}

var ErrMalformedResult = errors.New("malformed result")

// Codec serializes a Result for the handoff channel.
type Codec interface {
	Name() string
	Encode(Result) ([]byte, error)
	Decode([]byte) (Result, error)
}

func CodecByName(name string) (Codec, error) {
	switch strings.ToLower(name) {
	case "", "json":
		return JSONCodec{}, nil
	case "msgpack":
		return MsgpackCodec{}, nil
	}
	return nil, fmt.Errorf("unknown codec %q", name)
}

// ====================
// JSON
// ====================

const resultSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["text", "type"],
  "properties": {
    "text": {"type": "string"},
    "type": {"enum": ["None", "Positive", "Neutral", "Negative"]},
    "config": {
      "oneOf": [
        {"type": "null"},
        {
          "type": "object",
          "required": ["max_text_length", "button_config"],
          "properties": {
            "hint_text": {"type": "string"},
            "multiline_mode": {"type": "boolean"},
            "max_text_length": {"type": "integer", "minimum": 0},
            "button_config": {"enum": ["None", "Single", "Dual", "Triple"]}
          }
        }
      ]
    }
  }
}`

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledResultSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = jsonschema.CompileString("result.schema.json", resultSchema)
	})
	return schema, schemaErr
}

type JSONCodec struct{}

func (JSONCodec) Name() string { return "json" }

func (JSONCodec) Encode(r Result) ([]byte, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	return data, nil
}

func (JSONCodec) Decode(data []byte) (Result, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrMalformedResult, err)
	}
	sch, err := compiledResultSchema()
	if err != nil {
		return Result{}, fmt.Errorf("compile result schema: %w", err)
	}
	if err := sch.Validate(raw); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrMalformedResult, err)
	}
	var r Result
	if err := json.Unmarshal(data, &r); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrMalformedResult, err)
	}
	return r, nil
}

// ====================
// msgpack
// ====================

// Enums travel by name so both codecs carry the same shape.
type wireConfig struct {
	HintText      string `msgpack:"hint_text"`
	MultilineMode bool   `msgpack:"multiline_mode"`
	MaxTextLength int    `msgpack:"max_text_length"`
	ButtonConfig  string `msgpack:"button_config"`
}

type wireResult struct {
	Text   string      `msgpack:"text"`
	Type   string      `msgpack:"type"`
	Config *wireConfig `msgpack:"config"`
}

type MsgpackCodec struct{}

func (MsgpackCodec) Name() string { return "msgpack" }

func (MsgpackCodec) Encode(r Result) ([]byte, error) {
	w := wireResult{Text: r.Text, Type: r.Type.String()}
	if r.Config != nil {
		w.Config = &wireConfig{
			HintText:      r.Config.HintText,
			MultilineMode: r.Config.MultilineMode,
			MaxTextLength: r.Config.MaxTextLength,
			ButtonConfig:  r.Config.ButtonConfig.String(),
		}
	}
	data, err := msgpack.Marshal(&w)
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	return data, nil
}

func (MsgpackCodec) Decode(data []byte) (Result, error) {
	var w wireResult
	if err := msgpack.Unmarshal(data, &w); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrMalformedResult, err)
	}
	t, err := ParseResultType(w.Type)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrMalformedResult, err)
	}
	r := Result{Text: w.Text, Type: t}
	if w.Config != nil {
		bc, err := ParseButtonConfig(w.Config.ButtonConfig)
		if err != nil {
			return Result{}, fmt.Errorf("%w: %v", ErrMalformedResult, err)
		}
		r.Config = &Config{
			HintText:      w.Config.HintText,
			MultilineMode: w.Config.MultilineMode,
			MaxTextLength: w.Config.MaxTextLength,
			ButtonConfig:  bc,
		}
	}
	return r, nil
}

// ====================
// Receiving side
// ====================

// ParseEnvelope turns whatever arrived on the result channel into a Result.
// Anything unexpected is logged and reported as Result{Type: None}, the same
// as a cancellation; it never fails.
func ParseEnvelope(log *slog.Logger, codec Codec, env Envelope) Result {
	if log == nil {
		log = slog.Default()
	}
	if codec == nil {
		codec = JSONCodec{}
	}
	if env.Status != StatusOK {
		if env.Status != StatusCanceled {
			log.Warn("unexpected result status", "status", env.Status)
		}
		return Result{}
	}
	if len(env.Payload) == 0 {
		log.Warn("finished with ok status but no result", "codec", codec.Name())
		return Result{}
	}
	r, err := codec.Decode(env.Payload)
	if err != nil {
		log.Warn("discarding undecodable result", "codec", codec.Name(), "error", err)
		return Result{}
	}
	return normalize(log, r)
}

func normalize(log *slog.Logger, r Result) Result {
	switch r.Type {
	case ResultPositive:
		if r.Config == nil || r.Config.Validate() != nil {
			log.Warn("positive result without a usable config")
			return Result{}
		}
		return r
	case ResultNeutral, ResultNegative, ResultNone:
		return Result{Type: r.Type}
	}
	log.Warn("unexpected result type", "type", int(r.Type))
	return Result{}
}
