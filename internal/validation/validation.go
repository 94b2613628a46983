package validation

import (
	"encoding/json"
	"strings"
)

// Violations maps a field name to a machine-readable violation code.
type Violations map[string]string

func (v Violations) Empty() bool { return len(v) == 0 }

// Basic validators
func Required(field, value string, v Violations) {
	if strings.TrimSpace(value) == "" {
		v[field] = "required"
	}
}

func OneOf(field, value string, allowed []string, v Violations) {
	for _, a := range allowed {
		if value == a {
			return
		}
	}
	v[field] = "invalid_value"
}

func RangeInt(field string, val, minVal, maxVal int, v Violations) {
	if val < minVal || val > maxVal {
		v[field] = "out_of_range"
	}
}

// JSONObject checks that value parses as a JSON object.
func JSONObject(field, value string, v Violations) {
	var m map[string]any
	if err := json.Unmarshal([]byte(value), &m); err != nil {
		v[field] = "invalid_json_object"
	}
}
