package litesql

import (
	"fmt"
	"time"
)

// ValueKind enumerates the fundamental storage classes of the engine.
type ValueKind int

const (
	KindNull ValueKind = iota
	KindInteger
	KindDouble
	KindText
	KindBlob
)

func (k ValueKind) String() string {
	switch k {
	case KindNull:
		return "NULL"
	case KindInteger:
		return "INTEGER"
	case KindDouble:
		return "DOUBLE"
	case KindText:
		return "TEXT"
	case KindBlob:
		return "BLOB"
	default:
		return fmt.Sprintf("ValueKind(%d)", int(k))
	}
}

// Value is an immutable database value holding exactly one of the engine's
// five storage classes. The zero Value is NULL.
type Value struct {
	kind ValueKind
	i    int64
	f    float64
	s    string
	b    []byte
}

// Null returns the NULL Value.
func Null() Value { return Value{} }

// Integer returns an INTEGER Value.
func Integer(v int64) Value { return Value{kind: KindInteger, i: v} }

// Double returns a DOUBLE Value.
func Double(v float64) Value { return Value{kind: KindDouble, f: v} }

// Text returns a TEXT Value.
func Text(v string) Value { return Value{kind: KindText, s: v} }

// Blob returns a BLOB Value. It copies |v|, so the Value remains valid if
// the caller mutates the slice afterward.
func Blob(v []byte) Value {
	var b = make([]byte, len(v))
	copy(b, v)
	return Value{kind: KindBlob, b: b}
}

// ValueOf converts a native Go value into a Value. Supported inputs are nil,
// Value itself, signed and unsigned integers, floats, bool (as 0 or 1),
// string, []byte, and time.Time (as RFC 3339 text). Other types fail with
// SQLITE_MISMATCH.
func ValueOf(v interface{}) (Value, error) {
	switch t := v.(type) {
	case nil:
		return Null(), nil
	case Value:
		return t, nil
	case int:
		return Integer(int64(t)), nil
	case int8:
		return Integer(int64(t)), nil
	case int16:
		return Integer(int64(t)), nil
	case int32:
		return Integer(int64(t)), nil
	case int64:
		return Integer(t), nil
	case uint:
		return Integer(int64(t)), nil
	case uint8:
		return Integer(int64(t)), nil
	case uint16:
		return Integer(int64(t)), nil
	case uint32:
		return Integer(int64(t)), nil
	case uint64:
		if t > 1<<63-1 {
			return Value{}, &Error{Code: ErrMismatch,
				Message: fmt.Sprintf("uint64 %d overflows INTEGER", t)}
		}
		return Integer(int64(t)), nil
	case float32:
		return Double(float64(t)), nil
	case float64:
		return Double(t), nil
	case bool:
		if t {
			return Integer(1), nil
		}
		return Integer(0), nil
	case string:
		return Text(t), nil
	case []byte:
		return Blob(t), nil
	case time.Time:
		return Text(t.Format(time.RFC3339Nano)), nil
	default:
		return Value{}, &Error{Code: ErrMismatch,
			Message: fmt.Sprintf("cannot convert %T to a database value", v)}
	}
}

// Kind returns the storage class of the Value.
func (v Value) Kind() ValueKind { return v.kind }

// IsNull reports whether the Value is NULL.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Int64 returns the INTEGER content, or false if the Value is another kind.
func (v Value) Int64() (int64, bool) {
	if v.kind == KindInteger {
		return v.i, true
	}
	return 0, false
}

// Float64 returns the DOUBLE content, widening INTEGER, or false otherwise.
func (v Value) Float64() (float64, bool) {
	switch v.kind {
	case KindDouble:
		return v.f, true
	case KindInteger:
		return float64(v.i), true
	}
	return 0, false
}

// TextValue returns the TEXT content, or false if the Value is another kind.
func (v Value) TextValue() (string, bool) {
	if v.kind == KindText {
		return v.s, true
	}
	return "", false
}

// BlobValue returns the BLOB content, or false if the Value is another kind.
// The returned slice must not be mutated.
func (v Value) BlobValue() ([]byte, bool) {
	if v.kind == KindBlob {
		return v.b, true
	}
	return nil, false
}

// Any returns the content as a native Go value: nil, int64, float64,
// string, or []byte.
func (v Value) Any() interface{} {
	switch v.kind {
	case KindInteger:
		return v.i
	case KindDouble:
		return v.f
	case KindText:
		return v.s
	case KindBlob:
		return v.b
	default:
		return nil
	}
}

// Decode stores the content into |dst|, which must be a pointer to int64,
// int, float64, string, []byte, bool, Value, or interface{}, or a pointer
// to a pointer of those types. A storage class which cannot represent
// |dst|'s type fails with SQLITE_MISMATCH. NULL decodes as "no value":
// it is accepted by *Value, *interface{}, and the pointer-to-pointer
// forms (which it sets to nil), and rejected by the flat forms.
func (v Value) Decode(dst interface{}) error {
	switch d := dst.(type) {
	case *Value:
		*d = v
		return nil
	case *interface{}:
		*d = v.Any()
		return nil
	case **int64:
		return decodeOptional(v, d)
	case **float64:
		return decodeOptional(v, d)
	case **string:
		return decodeOptional(v, d)
	case **[]byte:
		return decodeOptional(v, d)
	case **bool:
		return decodeOptional(v, d)
	case *int64:
		if i, ok := v.Int64(); ok {
			*d = i
			return nil
		}
	case *int:
		if i, ok := v.Int64(); ok {
			*d = int(i)
			return nil
		}
	case *float64:
		if f, ok := v.Float64(); ok {
			*d = f
			return nil
		}
	case *bool:
		if i, ok := v.Int64(); ok {
			*d = i != 0
			return nil
		}
	case *string:
		if s, ok := v.TextValue(); ok {
			*d = s
			return nil
		}
	case *[]byte:
		if b, ok := v.BlobValue(); ok {
			*d = b
			return nil
		}
	default:
		return &Error{Code: ErrMismatch,
			Message: fmt.Sprintf("cannot decode into %T", dst)}
	}
	return &Error{Code: ErrMismatch,
		Message: fmt.Sprintf("cannot decode %s into %T", v.kind, dst)}
}

// decodeOptional decodes into a pointer-to-pointer form: NULL sets nil,
// other kinds decode into a freshly allocated value.
func decodeOptional[T any](v Value, d **T) error {
	if v.IsNull() {
		*d = nil
		return nil
	}
	var t T
	if err := v.Decode(&t); err != nil {
		return err
	}
	*d = &t
	return nil
}

func (v Value) String() string {
	switch v.kind {
	case KindInteger:
		return fmt.Sprintf("%d", v.i)
	case KindDouble:
		return fmt.Sprintf("%g", v.f)
	case KindText:
		return fmt.Sprintf("%q", v.s)
	case KindBlob:
		return fmt.Sprintf("x'%x'", v.b)
	default:
		return "NULL"
	}
}
