package tool

import (
	"encoding/json"
	"fmt"
)

// validate checks args against schema's "required" keys and each
// property's declared "type". It deliberately does not implement the
// full JSON Schema spec (no $ref, no oneOf/anyOf, no format validators)
// — just enough to catch a model passing the wrong shape of arguments.
func validate(schema map[string]any, args json.RawMessage) error {
	if schema == nil {
		return nil
	}

	var obj map[string]any
	if len(args) == 0 {
		obj = map[string]any{}
	} else if err := json.Unmarshal(args, &obj); err != nil {
		return fmt.Errorf("arguments are not a JSON object: %w", err)
	}

	if req, ok := schema["required"].([]any); ok {
		for _, r := range req {
			key, _ := r.(string)
			if _, present := obj[key]; !present {
				return fmt.Errorf("missing required argument %q", key)
			}
		}
	}

	props, _ := schema["properties"].(map[string]any)
	for key, val := range obj {
		propSchema, ok := props[key].(map[string]any)
		if !ok {
			continue
		}
		wantType, _ := propSchema["type"].(string)
		if wantType == "" {
			continue
		}
		if !matchesType(val, wantType) {
			return fmt.Errorf("argument %q: expected type %q", key, wantType)
		}
	}
	return nil
}

func matchesType(v any, wantType string) bool {
	switch wantType {
	case "string":
		_, ok := v.(string)
		return ok
	case "number":
		_, ok := v.(float64)
		return ok
	case "integer":
		f, ok := v.(float64)
		return ok && f == float64(int64(f))
	case "boolean":
		_, ok := v.(bool)
		return ok
	case "array":
		_, ok := v.([]any)
		return ok
	case "object":
		_, ok := v.(map[string]any)
		return ok
	default:
		return true
	}
}
