package crm

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// ID is a remote identifier. The API returns ids as strings, but numbers are
// accepted as well.
type ID string

// UnmarshalJSON accepts a JSON string or number.
func (id *ID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*id = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid id %s", data)
	}
	if _, err := strconv.ParseInt(n.String(), 10, 64); err != nil {
		return fmt.Errorf("invalid id %s", data)
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string { return string(id) }

// DecodeRoot decodes the object stored under root in a JSON response body.
// It reports false when the key is absent or null.
func DecodeRoot(body string, root string, v any) (bool, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &envelope); err != nil {
		return false, fmt.Errorf("failed to decode response: %w", err)
	}
	raw, ok := envelope[root]
	if !ok || string(raw) == "null" {
		return false, nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", root, err)
	}
	return true, nil
}
