package registry_test

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"dealdesk/internal/registry"
)

func noop(_ context.Context, _ map[string]any) (string, error) { return "ok", nil }

func TestRegisterAndLookup(t *testing.T) {
	r := registry.New()
	if err := r.Register(registry.Operation{Name: "ping", Handler: noop}); err != nil {
		t.Fatalf("register: %v", err)
	}
	op, ok := r.Lookup("ping")
	if !ok || op.Name != "ping" {
		t.Fatalf("lookup failed: %v %v", op, ok)
	}
	if _, ok := r.Lookup("pong"); ok {
		t.Fatalf("expected miss for unregistered name")
	}
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	r := registry.New()
	if err := r.Register(registry.Operation{Name: "ping", Handler: noop}); err != nil {
		t.Fatalf("register: %v", err)
	}
	err := r.Register(registry.Operation{Name: "ping", Handler: noop})
	if err == nil || !strings.Contains(err.Error(), "duplicate") {
		t.Fatalf("expected duplicate error, got %v", err)
	}
}

func TestRegisterRejectsInvalid(t *testing.T) {
	r := registry.New()
	if err := r.Register(registry.Operation{Handler: noop}); err == nil {
		t.Fatalf("expected error for empty name")
	}
	if err := r.Register(registry.Operation{Name: "x"}); err == nil {
		t.Fatalf("expected error for nil handler")
	}
}

func TestDescribePreservesOrder(t *testing.T) {
	r := registry.New()
	r.MustRegister(
		registry.Operation{Name: "c", Handler: noop},
		registry.Operation{Name: "a", Handler: noop},
		registry.Operation{Name: "b", Handler: noop},
	)
	got := r.Describe()
	if len(got) != 3 || got[0].Name != "c" || got[1].Name != "a" || got[2].Name != "b" {
		t.Fatalf("unexpected order: %v", got)
	}
	if r.Len() != 3 {
		t.Fatalf("len: %d", r.Len())
	}
}

func TestInputSchemaMarshal(t *testing.T) {
	s := registry.InputSchema{
		Properties: map[string]registry.Property{
			"projectId": {Type: "string", Description: "project identifier"},
			"severity":  {Type: "string", Enum: []string{"critical", "high", "medium", "low"}},
		},
		Required: []string{"projectId"},
	}
	raw, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var node map[string]any
	if err := json.Unmarshal(raw, &node); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if node["type"] != "object" {
		t.Fatalf("expected object node, got %v", node["type"])
	}
	req, _ := node["required"].([]any)
	if len(req) != 1 || req[0] != "projectId" {
		t.Fatalf("required: %v", node["required"])
	}
}

func TestInputSchemaMarshalEmpty(t *testing.T) {
	raw, err := json.Marshal(registry.InputSchema{})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	got := string(raw)
	if !strings.Contains(got, `"properties":{}`) {
		t.Fatalf("empty schema must still carry a properties node: %s", got)
	}
	if strings.Contains(got, "required") {
		t.Fatalf("empty schema must omit required: %s", got)
	}
}
