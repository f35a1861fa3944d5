package dispatch

import (
	"fmt"
	"strings"

	"dealdesk/internal/registry"
)

// validate checks args against the operation schema. Presence is
// checked first across all required fields; a field counts as present
// when its key exists, whatever the value. Only after presence passes
// are declared type and enum constraints applied.
func validate(schema registry.InputSchema, args map[string]any) (string, bool) {
	var missing []string
	for _, field := range schema.Required {
		if _, ok := args[field]; !ok {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return "Missing required arguments: " + strings.Join(missing, ", "), false
	}

	var bad []string
	for name, prop := range schema.Properties {
		val, ok := args[name]
		if !ok || val == nil {
			continue
		}
		if detail := checkProperty(name, prop, val); detail != "" {
			bad = append(bad, detail)
		}
	}
	if len(bad) > 0 {
		return "Invalid arguments: " + strings.Join(bad, "; "), false
	}
	return "", true
}

func checkProperty(name string, prop registry.Property, val any) string {
	switch prop.Type {
	case "string":
		s, ok := val.(string)
		if !ok {
			return fmt.Sprintf("%s must be a string", name)
		}
		if len(prop.Enum) > 0 && !contains(prop.Enum, s) {
			return fmt.Sprintf("%s must be one of %s", name, strings.Join(prop.Enum, ", "))
		}
	case "number":
		switch val.(type) {
		case float64, int, int64:
		default:
			return fmt.Sprintf("%s must be a number", name)
		}
	case "boolean":
		if _, ok := val.(bool); !ok {
			return fmt.Sprintf("%s must be a boolean", name)
		}
	case "array":
		if _, ok := val.([]any); !ok {
			return fmt.Sprintf("%s must be an array", name)
		}
	case "object":
		if _, ok := val.(map[string]any); !ok {
			return fmt.Sprintf("%s must be an object", name)
		}
	}
	return ""
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
