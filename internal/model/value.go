package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// ErrTypeMismatch is returned when a value is read as a type it does not hold.
var ErrTypeMismatch = errors.New("value type mismatch")

// Type names a value type understood by the batch host.
type Type string

// Scalar and array types that can be passed to or returned from a process.
const (
	TypeString        Type = "string"
	TypeDouble        Type = "double"
	TypeFloat         Type = "float"
	TypeInt           Type = "int"
	TypeUnsigned      Type = "unsigned"
	TypeBool          Type = "bool"
	TypeUnsignedArray Type = "unsigned_array"
	TypeIntArray      Type = "int_array"

	// TypeRef marks an input that refers to a value already held in the host
	// database. The host replaces it with the stored value before running.
	TypeRef Type = "ref"
)

// Data types for opaque objects held by the native library.
const (
	TypeCamera = Type("vpgl_camera_double_sptr")
	TypeLVCS   = Type("vpgl_lvcs_sptr")
	TypeRNG    = Type("bsta_random_wrapper_sptr")
)

// IsScalar reports whether t is one of the built-in scalar or array types.
func (t Type) IsScalar() bool {
	switch t {
	case TypeString, TypeDouble, TypeFloat, TypeInt, TypeUnsigned, TypeBool,
		TypeUnsignedArray, TypeIntArray:
		return true
	}
	return false
}

// Value is a typed value exchanged with the batch host. Data holds the JSON
// encoding of the Go value for scalar types, or the opaque payload produced
// by the native library for object types.
type Value struct {
	Type Type            `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// IndexedValue pairs a value with its positional input index.
type IndexedValue struct {
	Index int   `json:"index"`
	Value Value `json:"value"`
}

// IsZero reports whether v carries no type, as for an absent optional input.
func (v Value) IsZero() bool {
	return v.Type == ""
}

func encode(t Type, x any) Value {
	data, err := json.Marshal(x)
	if err != nil {
		// Strings, integers, bools, integer slices and handles always marshal.
		panic(fmt.Sprintf("encode %s: %v", t, err))
	}
	return Value{Type: t, Data: data}
}

// String returns a string value.
func String(s string) Value { return encode(TypeString, s) }

// Double returns a double precision value. NaN and the infinities are
// encoded as the JSON strings "NaN", "+Inf" and "-Inf".
func Double(f float64) Value { return encodeFloat(TypeDouble, f, 64) }

// Float returns a single precision value, encoded like Double.
func Float(f float32) Value { return encodeFloat(TypeFloat, float64(f), 32) }

func encodeFloat(t Type, f float64, bits int) Value {
	switch {
	case math.IsNaN(f):
		return Value{Type: t, Data: json.RawMessage(`"NaN"`)}
	case math.IsInf(f, 1):
		return Value{Type: t, Data: json.RawMessage(`"+Inf"`)}
	case math.IsInf(f, -1):
		return Value{Type: t, Data: json.RawMessage(`"-Inf"`)}
	}
	if bits == 32 {
		return encode(t, float32(f))
	}
	return encode(t, f)
}

// Int returns a signed 32-bit value.
func Int(n int32) Value { return encode(TypeInt, n) }

// Unsigned returns an unsigned 32-bit value.
func Unsigned(n uint32) Value { return encode(TypeUnsigned, n) }

// Bool returns a boolean value.
func Bool(b bool) Value { return encode(TypeBool, b) }

// UnsignedArray returns an array of unsigned values.
func UnsignedArray(xs []uint32) Value {
	if xs == nil {
		xs = []uint32{}
	}
	return encode(TypeUnsignedArray, xs)
}

// IntArray returns an array of signed values.
func IntArray(xs []int32) Value {
	if xs == nil {
		xs = []int32{}
	}
	return encode(TypeIntArray, xs)
}

// Ref returns a reference to the database value identified by h.
func Ref(h Handle) Value { return encode(TypeRef, h) }

// Object wraps an opaque payload of the given data type.
func Object(t Type, payload json.RawMessage) Value {
	return Value{Type: t, Data: payload}
}

func (v Value) decode(want Type, out any) error {
	if v.Type != want {
		return fmt.Errorf("%w: have %s, want %s", ErrTypeMismatch, v.Type, want)
	}
	if err := json.Unmarshal(v.Data, out); err != nil {
		return fmt.Errorf("decode %s: %w", want, err)
	}
	return nil
}

// AsString returns the string held by v.
func (v Value) AsString() (string, error) {
	var s string
	err := v.decode(TypeString, &s)
	return s, err
}

// AsDouble returns the double held by v.
func (v Value) AsDouble() (float64, error) {
	return v.decodeFloat(TypeDouble, 64)
}

// AsFloat returns the float held by v.
func (v Value) AsFloat() (float32, error) {
	f, err := v.decodeFloat(TypeFloat, 32)
	return float32(f), err
}

// decodeFloat accepts a JSON number or one of the non-finite names written
// by encodeFloat.
func (v Value) decodeFloat(want Type, bits int) (float64, error) {
	var s string
	if v.Type == want && json.Unmarshal(v.Data, &s) == nil {
		switch s {
		case "NaN":
			return math.NaN(), nil
		case "+Inf":
			return math.Inf(1), nil
		case "-Inf":
			return math.Inf(-1), nil
		}
		return 0, fmt.Errorf("decode %s: unexpected string %q", want, s)
	}
	if bits == 32 {
		var f float32
		err := v.decode(want, &f)
		return float64(f), err
	}
	var f float64
	err := v.decode(want, &f)
	return f, err
}

// AsInt returns the int held by v.
func (v Value) AsInt() (int32, error) {
	var n int32
	err := v.decode(TypeInt, &n)
	return n, err
}

// AsUnsigned returns the unsigned held by v.
func (v Value) AsUnsigned() (uint32, error) {
	var n uint32
	err := v.decode(TypeUnsigned, &n)
	return n, err
}

// AsBool returns the bool held by v.
func (v Value) AsBool() (bool, error) {
	var b bool
	err := v.decode(TypeBool, &b)
	return b, err
}

// AsUnsignedArray returns the unsigned array held by v.
func (v Value) AsUnsignedArray() ([]uint32, error) {
	var xs []uint32
	err := v.decode(TypeUnsignedArray, &xs)
	return xs, err
}

// AsIntArray returns the int array held by v.
func (v Value) AsIntArray() ([]int32, error) {
	var xs []int32
	err := v.decode(TypeIntArray, &xs)
	return xs, err
}

// AsRef returns the handle referenced by v.
func (v Value) AsRef() (Handle, error) {
	var h Handle
	err := v.decode(TypeRef, &h)
	return h, err
}

// Handle is the (id, type) pair returned when an output is committed to the
// host database. It is the Go form of a database value reference.
type Handle struct {
	ID   uint64 `json:"id"`
	Type Type   `json:"type"`
}

// String formats the handle as "type#id".
func (h Handle) String() string {
	return fmt.Sprintf("%s#%d", h.Type, h.ID)
}
