package orm

import (
	"fmt"
	"strconv"
	"time"
)

// Kind is the storage type of a Value or a declared Column.
type Kind uint8

const (
	KindNull Kind = iota
	KindInt
	KindFloat
	KindString
	KindBytes
	KindTime
)

var kindNames = [...]string{
	KindNull:   "null",
	KindInt:    "int",
	KindFloat:  "float",
	KindString: "string",
	KindBytes:  "bytes",
	KindTime:   "time",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// ParseKind returns the Kind named by s ("int", "string", ...).
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if name == s {
			return Kind(k), nil
		}
	}
	return KindNull, fmt.Errorf("orm: unknown column kind %q", s)
}

// Value is a single column value. The zero Value is NULL.
// Values are comparable and can be used as map keys.
type Value struct {
	kind Kind
	i    int64
	f    float64
	s    string // KindString and KindBytes
	t    time.Time
}

func Null() Value              { return Value{} }
func Int(v int64) Value        { return Value{kind: KindInt, i: v} }
func Float(v float64) Value    { return Value{kind: KindFloat, f: v} }
func String(v string) Value    { return Value{kind: KindString, s: v} }
func Bytes(v []byte) Value     { return Value{kind: KindBytes, s: string(v)} }
func Time(v time.Time) Value   { return Value{kind: KindTime, t: v} }
func (v Value) Kind() Kind     { return v.kind }
func (v Value) IsNull() bool   { return v.kind == KindNull }
func (v Value) Int() int64     { return v.i }
func (v Value) Float() float64 { return v.f }
func (v Value) Time() time.Time {
	return v.t
}

// Bytes returns a copy of a KindBytes or KindString value.
func (v Value) Bytes() []byte {
	if v.kind != KindBytes && v.kind != KindString {
		return nil
	}
	return []byte(v.s)
}

// String formats the value for display. Strings are returned unquoted.
func (v Value) String() string {
	switch v.kind {
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindString:
		return v.s
	case KindBytes:
		return fmt.Sprintf("%x", v.s)
	case KindTime:
		return v.t.Format(time.RFC3339Nano)
	default:
		return "NULL"
	}
}

// Any returns the value as a database/sql driver argument.
func (v Value) Any() any {
	switch v.kind {
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindString:
		return v.s
	case KindBytes:
		return []byte(v.s)
	case KindTime:
		return v.t
	default:
		return nil
	}
}

// Equal reports whether two values hold the same kind and content.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	if v.kind == KindTime {
		return v.t.Equal(o.t)
	}
	return v == o
}

// ValueOf converts a Go value into a Value.
func ValueOf(x any) (Value, error) {
	switch v := x.(type) {
	case nil:
		return Null(), nil
	case Value:
		return v, nil
	case int:
		return Int(int64(v)), nil
	case int8:
		return Int(int64(v)), nil
	case int16:
		return Int(int64(v)), nil
	case int32:
		return Int(int64(v)), nil
	case int64:
		return Int(v), nil
	case uint8:
		return Int(int64(v)), nil
	case uint16:
		return Int(int64(v)), nil
	case uint32:
		return Int(int64(v)), nil
	case bool:
		if v {
			return Int(1), nil
		}
		return Int(0), nil
	case float32:
		return Float(float64(v)), nil
	case float64:
		return Float(v), nil
	case string:
		return String(v), nil
	case []byte:
		return Bytes(v), nil
	case time.Time:
		return Time(v), nil
	case *time.Time:
		if v == nil {
			return Null(), nil
		}
		return Time(*v), nil
	case *string:
		if v == nil {
			return Null(), nil
		}
		return String(*v), nil
	case *int64:
		if v == nil {
			return Null(), nil
		}
		return Int(*v), nil
	default:
		return Null(), fmt.Errorf("orm: unsupported value type %T", x)
	}
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// coerce converts a value into the declared column kind. Drivers do not agree
// on representations (MySQL returns []byte for text and integers without
// parseTime, SQLite returns strings for DATETIME written as text), so reads
// are resolved against the schema rather than the driver type.
func coerce(v Value, k Kind) (Value, error) {
	if v.kind == KindNull || v.kind == k || k == KindNull {
		return v, nil
	}

	switch k {
	case KindInt:
		switch v.kind {
		case KindFloat:
			if v.f == float64(int64(v.f)) {
				return Int(int64(v.f)), nil
			}
		case KindString, KindBytes:
			n, err := strconv.ParseInt(v.s, 10, 64)
			if err == nil {
				return Int(n), nil
			}
		}
	case KindFloat:
		switch v.kind {
		case KindInt:
			return Float(float64(v.i)), nil
		case KindString, KindBytes:
			f, err := strconv.ParseFloat(v.s, 64)
			if err == nil {
				return Float(f), nil
			}
		}
	case KindString:
		switch v.kind {
		case KindBytes:
			return String(v.s), nil
		case KindInt, KindFloat, KindTime:
			return String(v.String()), nil
		}
	case KindBytes:
		if v.kind == KindString {
			return Value{kind: KindBytes, s: v.s}, nil
		}
	case KindTime:
		if v.kind == KindString || v.kind == KindBytes {
			for _, layout := range timeLayouts {
				if t, err := time.Parse(layout, v.s); err == nil {
					return Time(t), nil
				}
			}
		}
	}
	return Null(), fmt.Errorf("orm: cannot convert %s %q to %s", v.kind, v.String(), k)
}
