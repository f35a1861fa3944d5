// Package registry holds the fixed catalog of operations the server
// exposes. Descriptors are registered once at startup and read-only
// afterwards; lookup order is registration order.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// Handler executes one operation. The returned string is the text
// payload of the result envelope; a non-nil error marks the dispatch
// as failed.
type Handler func(ctx context.Context, args map[string]any) (string, error)

// Property describes one argument in an operation's input schema.
type Property struct {
	Type        string              `json:"type,omitempty"`
	Description string              `json:"description,omitempty"`
	Enum        []string            `json:"enum,omitempty"`
	Items       *Property           `json:"items,omitempty"`
	Properties  map[string]Property `json:"properties,omitempty"`
}

// InputSchema is the argument contract of an operation. It always
// marshals as a JSON-schema object node.
type InputSchema struct {
	Properties map[string]Property
	Required   []string
}

func (s InputSchema) MarshalJSON() ([]byte, error) {
	node := map[string]any{"type": "object"}
	if len(s.Properties) > 0 {
		node["properties"] = s.Properties
	} else {
		node["properties"] = map[string]Property{}
	}
	if len(s.Required) > 0 {
		node["required"] = s.Required
	}
	return json.Marshal(node)
}

// Operation is one registered capability.
type Operation struct {
	Name        string
	Description string
	Schema      InputSchema
	Handler     Handler
}

// Registry maps operation names to descriptors while preserving
// registration order for listings.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]Operation
	order  []string
}

func New() *Registry {
	return &Registry{byName: map[string]Operation{}}
}

// Register adds an operation. Registering a name twice is a
// programming error and is rejected.
func (r *Registry) Register(op Operation) error {
	if op.Name == "" {
		return fmt.Errorf("register: empty operation name")
	}
	if op.Handler == nil {
		return fmt.Errorf("register %s: nil handler", op.Name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.byName[op.Name]; dup {
		return fmt.Errorf("register %s: duplicate operation", op.Name)
	}
	r.byName[op.Name] = op
	r.order = append(r.order, op.Name)
	return nil
}

// MustRegister registers a slice of operations and panics on the
// first failure. Startup wiring only.
func (r *Registry) MustRegister(ops ...Operation) {
	for _, op := range ops {
		if err := r.Register(op); err != nil {
			panic(err)
		}
	}
}

// Lookup returns the descriptor for name.
func (r *Registry) Lookup(name string) (Operation, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	op, ok := r.byName[name]
	return op, ok
}

// Describe lists all operations in registration order.
func (r *Registry) Describe() []Operation {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Operation, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.byName[name])
	}
	return out
}

// Len reports the number of registered operations.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}
