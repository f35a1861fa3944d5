package dispatch_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"dealdesk/internal/dispatch"
	"dealdesk/internal/registry"
)

func newTestDispatcher(t *testing.T, ops ...registry.Operation) *dispatch.Dispatcher {
	t.Helper()
	reg := registry.New()
	reg.MustRegister(ops...)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return dispatch.New(reg, logger)
}

func text(env dispatch.Envelope) string {
	if len(env.Content) != 1 || env.Content[0].Type != "text" {
		return ""
	}
	return env.Content[0].Text
}

func TestUnknownOperation(t *testing.T) {
	d := newTestDispatcher(t)
	env := d.Handle(context.Background(), "frobnicate", nil)
	if !env.IsError || text(env) != "Unknown operation: frobnicate" {
		t.Fatalf("unexpected envelope: %#v", env)
	}
}

func TestMissingArgumentsListsAll(t *testing.T) {
	d := newTestDispatcher(t, registry.Operation{
		Name: "op",
		Schema: registry.InputSchema{
			Required: []string{"projectId", "description", "severity"},
		},
		Handler: func(context.Context, map[string]any) (string, error) { return "ran", nil },
	})
	env := d.Handle(context.Background(), "op", map[string]any{"description": "x"})
	if !env.IsError {
		t.Fatalf("expected error envelope")
	}
	if text(env) != "Missing required arguments: projectId, severity" {
		t.Fatalf("message: %q", text(env))
	}
}

func TestEmptyStringCountsAsPresent(t *testing.T) {
	d := newTestDispatcher(t, registry.Operation{
		Name:    "op",
		Schema:  registry.InputSchema{Required: []string{"text"}},
		Handler: func(context.Context, map[string]any) (string, error) { return "ran", nil },
	})
	env := d.Handle(context.Background(), "op", map[string]any{"text": ""})
	if env.IsError {
		t.Fatalf("presence check must accept empty strings: %#v", env)
	}
	if text(env) != "ran" {
		t.Fatalf("payload: %q", text(env))
	}
}

func TestSuccessWrapsHandlerOutput(t *testing.T) {
	calls := 0
	d := newTestDispatcher(t, registry.Operation{
		Name: "op",
		Handler: func(context.Context, map[string]any) (string, error) {
			calls++
			return "payload", nil
		},
	})
	env := d.Handle(context.Background(), "op", nil)
	if env.IsError || text(env) != "payload" {
		t.Fatalf("envelope: %#v", env)
	}
	if calls != 1 {
		t.Fatalf("handler invoked %d times", calls)
	}
}

func TestHandlerErrorContained(t *testing.T) {
	d := newTestDispatcher(t, registry.Operation{
		Name: "op",
		Handler: func(context.Context, map[string]any) (string, error) {
			return "", errors.New("ledger on fire")
		},
	})
	env := d.Handle(context.Background(), "op", nil)
	if !env.IsError || text(env) != "Error executing op: ledger on fire" {
		t.Fatalf("envelope: %#v", env)
	}
}

func TestHandlerPanicContained(t *testing.T) {
	d := newTestDispatcher(t, registry.Operation{
		Name: "op",
		Handler: func(context.Context, map[string]any) (string, error) {
			panic("boom")
		},
	})
	env := d.Handle(context.Background(), "op", nil)
	if !env.IsError || !strings.Contains(text(env), "Error executing op:") {
		t.Fatalf("envelope: %#v", env)
	}
	if !strings.Contains(text(env), "boom") {
		t.Fatalf("panic value lost: %q", text(env))
	}
}

func TestEnumValidation(t *testing.T) {
	d := newTestDispatcher(t, registry.Operation{
		Name: "op",
		Schema: registry.InputSchema{
			Properties: map[string]registry.Property{
				"severity": {Type: "string", Enum: []string{"critical", "high", "medium", "low"}},
			},
			Required: []string{"severity"},
		},
		Handler: func(context.Context, map[string]any) (string, error) { return "ran", nil },
	})
	env := d.Handle(context.Background(), "op", map[string]any{"severity": "catastrophic"})
	if !env.IsError || !strings.HasPrefix(text(env), "Invalid arguments:") {
		t.Fatalf("envelope: %#v", env)
	}
	env = d.Handle(context.Background(), "op", map[string]any{"severity": "high"})
	if env.IsError {
		t.Fatalf("valid enum rejected: %#v", env)
	}
}

func TestTypeValidation(t *testing.T) {
	d := newTestDispatcher(t, registry.Operation{
		Name: "op",
		Schema: registry.InputSchema{
			Properties: map[string]registry.Property{
				"daysAhead": {Type: "number"},
			},
		},
		Handler: func(context.Context, map[string]any) (string, error) { return "ran", nil },
	})
	env := d.Handle(context.Background(), "op", map[string]any{"daysAhead": "seven"})
	if !env.IsError || text(env) != "Invalid arguments: daysAhead must be a number" {
		t.Fatalf("envelope: %#v", env)
	}
	env = d.Handle(context.Background(), "op", map[string]any{"daysAhead": float64(7)})
	if env.IsError {
		t.Fatalf("valid number rejected: %#v", env)
	}
}

func TestTimeoutConvertsHungHandler(t *testing.T) {
	d := newTestDispatcher(t, registry.Operation{
		Name: "op",
		Handler: func(ctx context.Context, _ map[string]any) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		},
	})
	d.Timeout = 10 * time.Millisecond
	env := d.Handle(context.Background(), "op", nil)
	if !env.IsError || !strings.Contains(text(env), "Error executing op:") {
		t.Fatalf("envelope: %#v", env)
	}
}
