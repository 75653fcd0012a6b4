package keyboard

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Launcher starts interactions for a caller. The zero value logs through
// slog.Default and uses the JSON codec.
type Launcher struct {
	Log   *slog.Logger
	Codec Codec
}

// Handle is the caller's one-shot view of a started interaction. A shell
// that shares the handle with a cancellable context drives the interaction
// through PressKey, Press and Cancel, which serialize access to it.
type Handle struct {
	ID string

	mu    sync.Mutex // guards ia
	ia    *Interaction
	log   *slog.Logger
	codec Codec

	deliverOnce sync.Once
	envc        chan Envelope
	delivered   chan struct{}

	resolveOnce sync.Once
	res         Result
	done        chan struct{}

	stop func() bool
}

// Start validates cfg and begins an interaction. Cancelling ctx before a
// result arrives resolves the handle with Result{Type: None}.
func (l *Launcher) Start(ctx context.Context, cfg Config) (*Handle, error) {
	ia, err := NewInteraction(cfg)
	if err != nil {
		return nil, err
	}
	log := l.Log
	if log == nil {
		log = slog.Default()
	}
	codec := l.Codec
	if codec == nil {
		codec = JSONCodec{}
	}
	h := &Handle{
		ID:        uuid.NewString(),
		ia:        ia,
		codec:     codec,
		envc:      make(chan Envelope, 1),
		delivered: make(chan struct{}),
		done:      make(chan struct{}),
	}
	h.log = log.With("interaction", h.ID)
	h.stop = context.AfterFunc(ctx, h.Cancel)
	h.log.Debug("keyboard started", "buttons", cfg.ButtonConfig, "max_text_length", cfg.MaxTextLength)
	return h, nil
}

// Interaction returns the unguarded interaction, for single-goroutine use.
func (h *Handle) Interaction() *Interaction { return h.ia }

func (h *Handle) Config() Config { return h.ia.Config() }

func (h *Handle) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.ia.State()
}

func (h *Handle) Finished() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.ia.Finished()
}

// PressKey applies a key event unless the interaction already ended.
func (h *Handle) PressKey(p Press) State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.ia.OnKeyPress(p)
}

// Delivered is closed once the shell side has sent its envelope.
func (h *Handle) Delivered() <-chan struct{} { return h.delivered }

// Deliver is the raw result channel. Only the first envelope counts.
func (h *Handle) Deliver(env Envelope) bool {
	accepted := false
	h.deliverOnce.Do(func() {
		accepted = true
		h.envc <- env
		close(h.delivered)
	})
	if !accepted {
		h.log.Debug("dropping extra result envelope", "status", env.Status)
	}
	return accepted
}

// Finish encodes r and sends it to the caller.
func (h *Handle) Finish(r Result) bool {
	data, err := h.codec.Encode(r)
	if err != nil {
		h.log.Error("encode result", "error", err)
		return h.Deliver(Envelope{Status: StatusOK})
	}
	return h.Deliver(Envelope{Status: StatusOK, Payload: data})
}

// Press forwards a result button to the interaction and, if accepted,
// finishes the handle with the produced result.
func (h *Handle) Press(t ResultType) (Result, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	r, ok := h.ia.OnResultButton(t)
	if !ok {
		return Result{}, false
	}
	h.Finish(r)
	return r, true
}

// Cancel ends the interaction without a result button; later presses are
// rejected. It is a no-op once a result was sent and is safe to call from
// any goroutine.
func (h *Handle) Cancel() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ia.Cancel()
	h.Deliver(Envelope{Status: StatusCanceled})
}

// Await blocks until the result is known or ctx ends. Every call returns the
// same Result.
func (h *Handle) Await(ctx context.Context) Result {
	select {
	case <-h.done:
		return h.res
	default:
	}
	select {
	case env := <-h.envc:
		h.resolve(ParseEnvelope(h.log, h.codec, env))
	case <-ctx.Done():
		h.log.Warn("await abandoned before a result arrived", "error", ctx.Err())
		h.resolve(Result{})
	case <-h.done:
	}
	h.stop()
	return h.res
}

func (h *Handle) resolve(r Result) {
	h.resolveOnce.Do(func() {
		h.res = r
		close(h.done)
		h.log.Info("keyboard finished", "result", r.Type)
	})
}
