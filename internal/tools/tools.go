// Package tools implements the operation handlers behind the server:
// project-context bookkeeping against the store plus a handful of
// plain-text utilities (task/date extraction, risk keyword scan,
// budget arithmetic, clause templates).
package tools

import (
	"encoding/json"
	"fmt"

	"dealdesk/internal/registry"
	"dealdesk/internal/store"
)

// Registry returns the full operation set wired to st, in the order
// the server advertises them.
func Registry(st *store.Store) []registry.Operation {
	ops := contextOperations(st)
	ops = append(ops, textOperations(st)...)
	return ops
}

func stringArg(args map[string]any, key string) string {
	v, _ := args[key].(string)
	return v
}

// intArg reads a numeric argument. JSON decoding hands numbers over
// as float64.
func intArg(args map[string]any, key string, def int) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return def
	}
}

func floatArg(args map[string]any, key string) (float64, bool) {
	switch v := args[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	default:
		return 0, false
	}
}

func stringSliceArg(args map[string]any, key string) []string {
	raw, _ := args[key].([]any)
	if len(raw) == 0 {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func asJSON(v any) string {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%+v", v)
	}
	return string(raw)
}
