package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
	"unicode/utf16"
)

// Value is a sealed interface for document tree nodes.
// Only Null, String, Number, Bool, Array, and Object implement it.
type Value interface {
	irValue() // Sealed - only these types implement it
}

// Null represents a JSON null.
type Null struct{}

func (Null) irValue() {}

// String represents a string node.
type String string

func (String) irValue() {}

// Number represents a numeric node by its literal text.
// Keeping the literal lets float32 values survive a text round trip bit for bit.
type Number string

func (Number) irValue() {}

// Bool represents a boolean node.
type Bool bool

func (Bool) irValue() {}

// Array represents an ordered list of nodes.
type Array []Value

func (Array) irValue() {}

// Object represents a map of string keys to nodes.
// Use SortedKeys() for deterministic iteration.
type Object map[string]Value

func (Object) irValue() {}

// Int creates a Number from an integer.
func Int(n int64) Number {
	return Number(strconv.FormatInt(n, 10))
}

// Float32 creates a Number holding the shortest text that parses back to f.
// f must be finite; callers represent NaN and infinities some other way.
func Float32(f float32) Number {
	return Number(strconv.FormatFloat(float64(f), 'g', -1, 32))
}

// Float64 creates a Number holding the shortest text that parses back to f.
func Float64(f float64) Number {
	return Number(strconv.FormatFloat(f, 'g', -1, 64))
}

// Int64 parses the number as an integer.
// Integral values written with a fraction or exponent (e.g. "5.0", "1e3") are accepted.
func (n Number) Int64() (int64, error) {
	if i, err := strconv.ParseInt(string(n), 10, 64); err == nil {
		return i, nil
	}
	f, err := strconv.ParseFloat(string(n), 64)
	if err != nil {
		return 0, fmt.Errorf("number %q: %w", string(n), err)
	}
	if f != math.Trunc(f) || f > math.MaxInt64 || f < math.MinInt64 {
		return 0, fmt.Errorf("number %s is not an integer", string(n))
	}
	return int64(f), nil
}

// Float32 parses the number with float32 precision.
func (n Number) Float32() (float32, error) {
	f, err := strconv.ParseFloat(string(n), 32)
	if err != nil {
		return 0, fmt.Errorf("number %q: %w", string(n), err)
	}
	return float32(f), nil
}

// Float64 parses the number with float64 precision.
func (n Number) Float64() (float64, error) {
	f, err := strconv.ParseFloat(string(n), 64)
	if err != nil {
		return 0, fmt.Errorf("number %q: %w", string(n), err)
	}
	return f, nil
}

// SortedKeys returns keys in RFC 8785 order (UTF-16 code units).
func (obj Object) SortedKeys() []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeysRFC8785)
	return keys
}

// compareKeysRFC8785 compares strings by UTF-16 code units.
// Go's default string comparison uses UTF-8 which produces a different order.
func compareKeysRFC8785(a, b string) int {
	return slices.Compare(utf16.Encode([]rune(a)), utf16.Encode([]rune(b)))
}

// Marshal encodes a document tree as JSON with sorted object keys.
// HTML characters are not escaped. Use MarshalCanonical for fingerprints.
func Marshal(v Value) ([]byte, error) {
	var buf bytes.Buffer
	if err := marshalTo(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func marshalTo(buf *bytes.Buffer, v Value) error {
	switch val := v.(type) {
	case nil, Null:
		buf.WriteString("null")
	case String:
		b, err := marshalString(string(val), false)
		if err != nil {
			return err
		}
		buf.Write(b)
	case Number:
		if !json.Valid([]byte(val)) {
			return fmt.Errorf("invalid number literal %q", string(val))
		}
		buf.WriteString(string(val))
	case Bool:
		buf.WriteString(strconv.FormatBool(bool(val)))
	case Array:
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := marshalTo(buf, elem); err != nil {
				return fmt.Errorf("array[%d]: %w", i, err)
			}
		}
		buf.WriteByte(']')
	case Object:
		buf.WriteByte('{')
		for i, k := range val.SortedKeys() {
			if i > 0 {
				buf.WriteByte(',')
			}
			kb, err := marshalString(k, false)
			if err != nil {
				return fmt.Errorf("key %q: %w", k, err)
			}
			buf.Write(kb)
			buf.WriteByte(':')
			if err := marshalTo(buf, val[k]); err != nil {
				return fmt.Errorf("value for key %q: %w", k, err)
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("unknown ir.Value type: %T", v)
	}
	return nil
}

// Unmarshal decodes JSON into a document tree.
// Numbers keep their literal text; trailing data is rejected.
func Unmarshal(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, fmt.Errorf("unexpected data after JSON value")
	}
	return FromAny(raw)
}

// FromAny converts a decoded Go tree (from encoding/json, YAML or TOML) to a document.
// Non-finite floats become the strings "NaN", "Infinity" and "-Infinity".
func FromAny(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return val, nil
	case bool:
		return Bool(val), nil
	case string:
		return String(val), nil
	case json.Number:
		return Number(val), nil
	case int:
		return Int(int64(val)), nil
	case int32:
		return Int(int64(val)), nil
	case int64:
		return Int(val), nil
	case uint64:
		return Number(strconv.FormatUint(val, 10)), nil
	case float32:
		return floatNode(float64(val), 32), nil
	case float64:
		return floatNode(val, 64), nil
	case []any:
		arr := make(Array, len(val))
		for i, elem := range val {
			node, err := FromAny(elem)
			if err != nil {
				return nil, fmt.Errorf("array[%d]: %w", i, err)
			}
			arr[i] = node
		}
		return arr, nil
	case map[string]any:
		obj := make(Object, len(val))
		for k, elem := range val {
			node, err := FromAny(elem)
			if err != nil {
				return nil, fmt.Errorf("object[%q]: %w", k, err)
			}
			obj[k] = node
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("unsupported type: %T", v)
	}
}

func floatNode(f float64, bits int) Value {
	switch {
	case math.IsNaN(f):
		return String("NaN")
	case math.IsInf(f, 1):
		return String("Infinity")
	case math.IsInf(f, -1):
		return String("-Infinity")
	}
	return Number(strconv.FormatFloat(f, 'g', -1, bits))
}

// ToAny converts a document to plain Go values: nil, string, bool, int64 or
// float64 for numbers, []any and map[string]any.
func ToAny(v Value) any {
	switch val := v.(type) {
	case String:
		return string(val)
	case Number:
		if i, err := strconv.ParseInt(string(val), 10, 64); err == nil {
			return i
		}
		f, _ := val.Float64()
		return f
	case Bool:
		return bool(val)
	case Array:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = ToAny(elem)
		}
		return out
	case Object:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			out[k] = ToAny(elem)
		}
		return out
	default:
		return nil
	}
}

// Equal reports whether two documents are structurally equal.
// Numbers compare by value, so "5" equals "5.0".
func Equal(a, b Value) bool {
	switch av := a.(type) {
	case nil, Null:
		switch b.(type) {
		case nil, Null:
			return true
		}
		return false
	case String:
		bv, ok := b.(String)
		return ok && av == bv
	case Bool:
		bv, ok := b.(Bool)
		return ok && av == bv
	case Number:
		bv, ok := b.(Number)
		if !ok {
			return false
		}
		if av == bv {
			return true
		}
		af, aerr := av.Float64()
		bf, berr := bv.Float64()
		return aerr == nil && berr == nil && af == bf
	case Array:
		bv, ok := b.(Array)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	case Object:
		bv, ok := b.(Object)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, elem := range av {
			other, exists := bv[k]
			if !exists || !Equal(elem, other) {
				return false
			}
		}
		return true
	}
	return false
}
