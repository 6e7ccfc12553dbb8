package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// ErrMalformedResponse matches every StructureError.
var ErrMalformedResponse = errors.New("malformed ai response")

// Sanitizer stage names reported by StructureError.
const (
	StageStripFences = "strip_fences"
	StageBounds      = "locate_bounds"
	StageValidate    = "validate"
	StageDecode      = "decode"
)

// StructureError reports the sanitizer stage that rejected a response.
type StructureError struct {
	Stage string
	Err   error
}

func (e *StructureError) Error() string {
	return fmt.Sprintf("ai response %s: %v", e.Stage, e.Err)
}

func (e *StructureError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrMalformedResponse) match.
func (e *StructureError) Is(target error) bool { return target == ErrMalformedResponse }

// Kind is the expected top-level JSON shape.
type Kind int

const (
	Array Kind = iota
	Object
)

// Schema describes the structural checks applied before decoding.
type Schema struct {
	Kind Kind
	// Required keys on the object, or on every element of the array.
	Required []string
	// MinItems applies to arrays.
	MinItems int
}

// StripFences removes markdown code fences around a response.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.Index(s, "```"); i >= 0 {
		rest := s[i+3:]
		// Drop a language tag such as ```json.
		if nl := strings.IndexByte(rest, '\n'); nl >= 0 && !strings.ContainsAny(rest[:nl], "[{") {
			rest = rest[nl+1:]
		}
		if j := strings.Index(rest, "```"); j >= 0 {
			rest = rest[:j]
		}
		s = rest
	}
	return strings.TrimSpace(s)
}

var quoteReplacer = strings.NewReplacer(
	"“", `"`, "”", `"`, "„", `"`,
	"‘", "'", "’", "'",
)

// NormalizeQuotes converts typographic quotes to ASCII.
func NormalizeQuotes(s string) string {
	return quoteReplacer.Replace(s)
}

// LocateBounds trims s to the outermost array or object.
func LocateBounds(s string, kind Kind) (string, error) {
	open, close := byte('['), byte(']')
	if kind == Object {
		open, close = '{', '}'
	}
	start := strings.IndexByte(s, open)
	end := strings.LastIndexByte(s, close)
	if start < 0 || end < start {
		return "", fmt.Errorf("no %c...%c found", open, close)
	}
	return s[start : end+1], nil
}

// Validate checks s is valid JSON of the schema's shape with its required keys.
func Validate(s string, schema Schema) error {
	if !gjson.Valid(s) {
		return errors.New("invalid json")
	}
	root := gjson.Parse(s)
	switch schema.Kind {
	case Array:
		if !root.IsArray() {
			return errors.New("expected array")
		}
		items := root.Array()
		if len(items) < schema.MinItems {
			return fmt.Errorf("expected at least %d items, got %d", schema.MinItems, len(items))
		}
		for i, item := range items {
			if !item.IsObject() {
				return fmt.Errorf("item %d is not an object", i)
			}
			if err := requireKeys(item, schema.Required); err != nil {
				return fmt.Errorf("item %d: %w", i, err)
			}
		}
	case Object:
		if !root.IsObject() {
			return errors.New("expected object")
		}
		if err := requireKeys(root, schema.Required); err != nil {
			return err
		}
	}
	return nil
}

func requireKeys(obj gjson.Result, keys []string) error {
	for _, k := range keys {
		if !obj.Get(gjson.Escape(k)).Exists() {
			return fmt.Errorf("missing key %q", k)
		}
	}
	return nil
}

// Clean runs fence stripping, bounds location and validation. Curly quotes
// are normalized only when the located payload does not validate as-is, so
// typographic quotes inside string values survive.
func Clean(raw string, schema Schema) (string, error) {
	s := StripFences(raw)
	if s == "" {
		return "", &StructureError{Stage: StageStripFences, Err: errors.New("empty response")}
	}
	if located, err := LocateBounds(s, schema.Kind); err == nil && Validate(located, schema) == nil {
		return located, nil
	}
	located, err := LocateBounds(NormalizeQuotes(s), schema.Kind)
	if err != nil {
		return "", &StructureError{Stage: StageBounds, Err: err}
	}
	if err := Validate(located, schema); err != nil {
		return "", &StructureError{Stage: StageValidate, Err: err}
	}
	return located, nil
}

// DecodeArray sanitizes raw and decodes it as a JSON array of T.
func DecodeArray[T any](raw string, schema Schema) ([]T, error) {
	schema.Kind = Array
	s, err := Clean(raw, schema)
	if err != nil {
		return nil, err
	}
	var out []T
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil, &StructureError{Stage: StageDecode, Err: err}
	}
	return out, nil
}

// DecodeObject sanitizes raw and decodes it as a JSON object into T.
func DecodeObject[T any](raw string, schema Schema) (T, error) {
	schema.Kind = Object
	var out T
	s, err := Clean(raw, schema)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return out, &StructureError{Stage: StageDecode, Err: err}
	}
	return out, nil
}
