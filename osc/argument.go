package osc

import (
	"fmt"
	"math"
)

// Kind identifies the wire variant of an Argument. The set is closed: both
// the encoder and the decoder switch over it exhaustively, so adding a new
// OSC type is a compile-visible change at every site that has to care.
type Kind uint8

const (
	KindInt32 Kind = iota
	KindFloat32
	KindString
	KindBool
	KindFloat64
	KindInt64
	KindBlob
)

func (k Kind) String() string {
	switch k {
	case KindInt32:
		return "int32"
	case KindFloat32:
		return "float32"
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	case KindFloat64:
		return "float64"
	case KindInt64:
		return "int64"
	case KindBlob:
		return "blob"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Argument is one typed value in a Message. The kind is fixed once the
// argument is constructed and determines its wire representation.
type Argument struct {
	kind Kind
	num  uint64 // raw bits for the numeric kinds, 0/1 for bool
	str  string
	blob []byte
}

func Int32(v int32) Argument { return Argument{kind: KindInt32, num: uint64(uint32(v))} }
func Int64(v int64) Argument { return Argument{kind: KindInt64, num: uint64(v)} }
func Float32(v float32) Argument {
	return Argument{kind: KindFloat32, num: uint64(math.Float32bits(v))}
}
func Float64(v float64) Argument {
	return Argument{kind: KindFloat64, num: math.Float64bits(v)}
}
func String(v string) Argument { return Argument{kind: KindString, str: v} }
func Blob(v []byte) Argument { return Argument{kind: KindBlob, blob: v} }

func Bool(v bool) Argument {
	a := Argument{kind: KindBool}
	if v {
		a.num = 1
	}
	return a
}

// Arg converts an arbitrary Go value into an Argument. Values outside the
// seven supported kinds are coerced to their textual rendering and carried
// as a string argument; sending is best-effort, not a place to fail.
func Arg(v interface{}) Argument {
	switch t := v.(type) {
	case Argument:
		return t
	case int32:
		return Int32(t)
	case int64:
		return Int64(t)
	case int:
		if t >= math.MinInt32 && t <= math.MaxInt32 {
			return Int32(int32(t))
		}
		return Int64(int64(t))
	case float32:
		return Float32(t)
	case float64:
		return Float64(t)
	case string:
		return String(t)
	case bool:
		return Bool(t)
	case []byte:
		return Blob(t)
	default:
		return String(fmt.Sprint(t))
	}
}

// Kind returns the wire variant of the argument.
func (a Argument) Kind() Kind { return a.kind }

// TypeTag returns the OSC type tag character for the argument. Booleans
// encode entirely in the tag (T or F) and carry no payload bytes.
func (a Argument) TypeTag() TypeTag {
	switch a.kind {
	case KindInt32:
		return TypeInt32
	case KindFloat32:
		return TypeFloat32
	case KindString:
		return TypeString
	case KindBool:
		if a.num != 0 {
			return TypeTrue
		}
		return TypeFalse
	case KindFloat64:
		return TypeFloat64
	case KindInt64:
		return TypeInt64
	case KindBlob:
		return TypeBlob
	}
	return TypeInvalid
}

// Value returns the argument as an untyped Go value.
func (a Argument) Value() interface{} {
	switch a.kind {
	case KindInt32:
		return int32(uint32(a.num))
	case KindFloat32:
		return math.Float32frombits(uint32(a.num))
	case KindString:
		return a.str
	case KindBool:
		return a.num != 0
	case KindFloat64:
		return math.Float64frombits(a.num)
	case KindInt64:
		return int64(a.num)
	case KindBlob:
		return a.blob
	}
	return nil
}

func (a Argument) AsInt32() (int32, error) {
	if a.kind != KindInt32 {
		return 0, fmt.Errorf("AsInt32: stored kind is %s: %w", a.kind, ErrInvalidCast)
	}
	return int32(uint32(a.num)), nil
}

func (a Argument) AsInt64() (int64, error) {
	if a.kind != KindInt64 {
		return 0, fmt.Errorf("AsInt64: stored kind is %s: %w", a.kind, ErrInvalidCast)
	}
	return int64(a.num), nil
}

func (a Argument) AsFloat32() (float32, error) {
	if a.kind != KindFloat32 {
		return 0, fmt.Errorf("AsFloat32: stored kind is %s: %w", a.kind, ErrInvalidCast)
	}
	return math.Float32frombits(uint32(a.num)), nil
}

func (a Argument) AsFloat64() (float64, error) {
	if a.kind != KindFloat64 {
		return 0, fmt.Errorf("AsFloat64: stored kind is %s: %w", a.kind, ErrInvalidCast)
	}
	return math.Float64frombits(a.num), nil
}

func (a Argument) AsString() (string, error) {
	if a.kind != KindString {
		return "", fmt.Errorf("AsString: stored kind is %s: %w", a.kind, ErrInvalidCast)
	}
	return a.str, nil
}

func (a Argument) AsBool() (bool, error) {
	if a.kind != KindBool {
		return false, fmt.Errorf("AsBool: stored kind is %s: %w", a.kind, ErrInvalidCast)
	}
	return a.num != 0, nil
}

func (a Argument) AsBlob() ([]byte, error) {
	if a.kind != KindBlob {
		return nil, fmt.Errorf("AsBlob: stored kind is %s: %w", a.kind, ErrInvalidCast)
	}
	return a.blob, nil
}

// String implements fmt.Stringer. Blobs render as their length only.
func (a Argument) String() string {
	if a.kind == KindBlob {
		return fmt.Sprintf("blob[%d]", len(a.blob))
	}
	return fmt.Sprint(a.Value())
}
