package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/stoewer/go-strcase"
)

// ToWire converts a domain value into its wire form: JSON values with every
// object key in snake_case, at any depth.
func ToWire(value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("core: encode wire value: %w", err)
	}
	var generic any
	if err := decodeJSON(raw, &generic); err != nil {
		return nil, fmt.Errorf("core: decode wire value: %w", err)
	}
	return convertKeys(generic, strcase.SnakeCase), nil
}

// FromWire converts a decoded wire value into domain naming (lowerCamelCase keys).
// Keys with numeric segments such as is_18_plus do not survive a trip back
// through ToWire: strcase folds the digits into the neighbouring word.
func FromWire(value any) any {
	return convertKeys(value, strcase.LowerCamelCase)
}

// DecodeWire unmarshals a wire JSON document into out after renaming keys.
func DecodeWire(raw []byte, out any) error {
	var generic any
	if err := decodeJSON(raw, &generic); err != nil {
		return err
	}
	return decodeDomain(FromWire(generic), out)
}

// UnwrapEnvelope returns the payload under the "data" key of a response body.
func UnwrapEnvelope(raw []byte) (any, error) {
	var generic any
	if err := decodeJSON(raw, &generic); err != nil {
		return nil, err
	}
	envelope, ok := generic.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("core: response body is not a json object")
	}
	data, ok := envelope["data"]
	if !ok {
		return nil, fmt.Errorf("core: response body has no data envelope")
	}
	return data, nil
}

// ValidateRequest runs the contract of a request body when it declares one,
// including the element contracts of slices and maps.
func ValidateRequest(body any) error {
	if body == nil {
		return nil
	}
	return validation.Validate(body)
}

func decodeDomain(value any, out any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return err
	}
	return validation.Validate(out)
}

func decodeJSON(raw []byte, out any) error {
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	return decoder.Decode(out)
}

func convertKeys(value any, convert func(string) string) any {
	switch typed := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(typed))
		for key, item := range typed {
			out[convert(key)] = convertKeys(item, convert)
		}
		return out
	case []any:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = convertKeys(item, convert)
		}
		return out
	default:
		return value
	}
}

// Time is an instant that decodes from RFC 3339 strings and treats empty
// strings and null as the zero time.
type Time struct {
	time.Time
}

func (t *Time) UnmarshalJSON(data []byte) error {
	value := strings.TrimSpace(string(data))
	if value == "null" || value == `""` {
		t.Time = time.Time{}
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("core: time must be a string: %w", err)
	}
	parsed, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return fmt.Errorf("core: invalid time %q: %w", raw, err)
	}
	t.Time = parsed
	return nil
}

func (t Time) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}
