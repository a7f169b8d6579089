// Package value models the structured values exchanged with an API under test:
// null, booleans, numbers, strings, sequences and string-keyed mappings, the
// same shapes JSON can carry. Fixtures and decoded response bodies both use it.
package value

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"strconv"
)

// Kind classifies a structured value.
type Kind int

const (
	KindInvalid Kind = iota
	KindNull
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "boolean"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "invalid"
	}
}

// KindOf reports the kind of v. Values outside the canonical representation
// report KindInvalid; run them through Normalize first.
func KindOf(v any) Kind {
	switch v.(type) {
	case nil:
		return KindNull
	case bool:
		return KindBool
	case json.Number, float64, float32, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return KindNumber
	case string:
		return KindString
	case []any:
		return KindArray
	case map[string]any:
		return KindObject
	default:
		return KindInvalid
	}
}

// IsEmptyContainer reports whether v is an empty sequence or an empty mapping.
// The fixture format cannot tell the two apart, so both count as the same value.
func IsEmptyContainer(v any) bool {
	switch t := v.(type) {
	case []any:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	default:
		return false
	}
}

// Decode parses JSON text into the canonical representation. Numbers are kept
// as json.Number so integer fixtures never lose precision.
func Decode(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("decode structured value: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("decode structured value: unexpected data after top-level value")
	}
	return v, nil
}

// Normalize converts arbitrary Go values (structs, typed maps and slices) into
// the canonical representation used by the matcher.
func Normalize(v any) (any, error) {
	if canonical(v) {
		return v, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("normalize structured value: %w", err)
	}
	return Decode(raw)
}

func canonical(v any) bool {
	switch t := v.(type) {
	case []any:
		for _, item := range t {
			if !canonical(item) {
				return false
			}
		}
		return true
	case map[string]any:
		for _, item := range t {
			if !canonical(item) {
				return false
			}
		}
		return true
	default:
		return KindOf(v) != KindInvalid
	}
}

// Encode renders v in the fixture format: keys sorted, four-space indentation,
// no escaping of HTML characters, slashes or non-ASCII text, and a trailing
// newline. Empty mappings are written as [] (the canonical empty container).
func Encode(v any) ([]byte, error) {
	normalized, err := Normalize(v)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(emptyAsSequence(normalized)); err != nil {
		return nil, fmt.Errorf("encode structured value: %w", err)
	}
	return buf.Bytes(), nil
}

func emptyAsSequence(v any) any {
	switch t := v.(type) {
	case map[string]any:
		if len(t) == 0 {
			return []any{}
		}
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[k] = emptyAsSequence(item)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = emptyAsSequence(item)
		}
		return out
	default:
		return v
	}
}

// NumbersEqual compares two numeric values across representations. ok is false
// when either side is not a number. Values involving a Go float compare as
// float64; everything else compares exactly.
func NumbersEqual(a, b any) (equal, ok bool) {
	if KindOf(a) != KindNumber || KindOf(b) != KindNumber {
		return false, false
	}

	if isFloat(a) || isFloat(b) {
		fa, errA := toFloat(a)
		fb, errB := toFloat(b)
		if errA != nil || errB != nil {
			return false, true
		}
		return fa == fb, true
	}

	ra, okA := toRat(a)
	rb, okB := toRat(b)
	if !okA || !okB {
		return false, true
	}
	return ra.Cmp(rb) == 0, true
}

func isFloat(v any) bool {
	switch v.(type) {
	case float32, float64:
		return true
	}
	return false
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case json.Number:
		return strconv.ParseFloat(string(n), 64)
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	}
	r, ok := toRat(v)
	if !ok {
		return 0, fmt.Errorf("not a number: %v", v)
	}
	f, _ := r.Float64()
	return f, nil
}

func toRat(v any) (*big.Rat, bool) {
	r := new(big.Rat)
	switch n := v.(type) {
	case json.Number:
		return r.SetString(string(n))
	case int:
		return r.SetInt64(int64(n)), true
	case int8:
		return r.SetInt64(int64(n)), true
	case int16:
		return r.SetInt64(int64(n)), true
	case int32:
		return r.SetInt64(int64(n)), true
	case int64:
		return r.SetInt64(n), true
	case uint:
		return r.SetUint64(uint64(n)), true
	case uint8:
		return r.SetUint64(uint64(n)), true
	case uint16:
		return r.SetUint64(uint64(n)), true
	case uint32:
		return r.SetUint64(uint64(n)), true
	case uint64:
		return r.SetUint64(n), true
	}
	return nil, false
}
