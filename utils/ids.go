// utils/ids.go - Identifier normalization at the API boundary
package utils

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// idKeys are the object keys accepted when a reference arrives as a populated
// sub-document instead of a plain id.
var idKeys = []string{"id", "category_id", "sub_topic_id", "event_id", "file_id", "user_id", "reviewer_id", "abstract_id"}

// FlexID accepts the identifier shapes clients send for references: a plain
// number, a numeric string, or a populated object carrying an id field. The
// rest of the system only ever sees the flat integer.
type FlexID int

// Int returns the normalized identifier value.
func (f FlexID) Int() int {
	return int(f)
}

// IntPtr returns nil for an unset (zero) identifier.
func (f FlexID) IntPtr() *int {
	if f == 0 {
		return nil
	}
	value := int(f)
	return &value
}

func (f *FlexID) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed == "null" {
		*f = 0
		return nil
	}

	var number int
	if err := json.Unmarshal(data, &number); err == nil {
		*f = FlexID(number)
		return nil
	}

	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		text = strings.TrimSpace(text)
		if text == "" {
			*f = 0
			return nil
		}
		parsed, err := strconv.Atoi(text)
		if err != nil {
			return fmt.Errorf("invalid id value %q", text)
		}
		*f = FlexID(parsed)
		return nil
	}

	var object map[string]json.RawMessage
	if err := json.Unmarshal(data, &object); err == nil {
		for _, key := range idKeys {
			raw, ok := object[key]
			if !ok {
				continue
			}
			var nested FlexID
			if err := json.Unmarshal(raw, &nested); err != nil {
				return err
			}
			*f = nested
			return nil
		}
		return fmt.Errorf("object reference has no recognized id field")
	}

	return fmt.Errorf("unsupported id shape: %s", trimmed)
}
