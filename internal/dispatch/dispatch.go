// Package dispatch routes incoming operation calls through lookup,
// argument validation and handler invocation, wrapping every outcome
// in the uniform result envelope. It is the single place where
// handler errors and panics are contained.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"dealdesk/internal/registry"
)

// DefaultTimeout bounds a single handler invocation.
const DefaultTimeout = 30 * time.Second

// Content is one payload block of an envelope.
type Content struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Envelope is the uniform result shape of every dispatch, success or
// failure.
type Envelope struct {
	Content []Content `json:"content"`
	IsError bool      `json:"isError"`
}

func textEnvelope(text string, isErr bool) Envelope {
	return Envelope{Content: []Content{{Type: "text", Text: text}}, IsError: isErr}
}

// Dispatcher executes operations from a registry.
type Dispatcher struct {
	Registry *registry.Registry
	Logger   *slog.Logger
	Timeout  time.Duration
}

func New(reg *registry.Registry, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{Registry: reg, Logger: logger, Timeout: DefaultTimeout}
}

// Handle runs one operation call. It never returns a transport-level
// error: every failure mode is expressed through the envelope.
func (d *Dispatcher) Handle(ctx context.Context, name string, args map[string]any) Envelope {
	start := time.Now()
	env := d.handle(ctx, name, args)
	d.Logger.Info("dispatch",
		"operation", name,
		"is_error", env.IsError,
		"duration", time.Since(start),
	)
	return env
}

func (d *Dispatcher) handle(ctx context.Context, name string, args map[string]any) Envelope {
	op, ok := d.Registry.Lookup(name)
	if !ok {
		return textEnvelope(fmt.Sprintf("Unknown operation: %s", name), true)
	}
	if msg, ok := validate(op.Schema, args); !ok {
		return textEnvelope(msg, true)
	}
	text, err := d.invoke(ctx, op, args)
	if err != nil {
		return textEnvelope(fmt.Sprintf("Error executing %s: %s", name, err), true)
	}
	return textEnvelope(text, false)
}

// invoke runs the handler under the dispatch timeout and converts a
// panic into an ordinary error.
func (d *Dispatcher) invoke(ctx context.Context, op registry.Operation, args map[string]any) (string, error) {
	timeout := d.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		text string
		err  error
	}
	done := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: fmt.Errorf("handler panic: %v", r)}
			}
		}()
		text, err := op.Handler(ctx, args)
		done <- result{text: text, err: err}
	}()

	select {
	case res := <-done:
		return res.text, res.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
