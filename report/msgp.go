package report

import (
	"time"

	"github.com/tinylib/msgp/msgp"
)

// AppendStrings appends s as an array. A nil slice is written as an empty
// array, matching the evaluators' JSON which never emits null lists.
func AppendStrings(b []byte, s []string) []byte {
	b = msgp.AppendArrayHeader(b, uint32(len(s)))
	for _, e := range s {
		b = msgp.AppendString(b, e)
	}
	return b
}

// AppendOptionalString appends s, or nil for a nil pointer.
func AppendOptionalString(b []byte, s *string) []byte {
	if s == nil {
		return msgp.AppendNil(b)
	}
	return msgp.AppendString(b, *s)
}

// AppendOptionalInt appends i, or nil for a nil pointer.
func AppendOptionalInt(b []byte, i *int) []byte {
	if i == nil {
		return msgp.AppendNil(b)
	}
	return msgp.AppendInt(b, *i)
}

// Field is a key/value pair for AppendMap. Omit skips the field, like
// omitempty in a JSON struct tag.
type Field struct {
	Key    string
	Append func(b []byte) []byte
	Omit   bool
}

// AppendMap appends a map with the non-omitted fields, in order.
func AppendMap(b []byte, fields ...Field) []byte {
	var n uint32
	for _, f := range fields {
		if !f.Omit {
			n++
		}
	}
	b = msgp.AppendMapHeader(b, n)
	for _, f := range fields {
		if f.Omit {
			continue
		}
		b = msgp.AppendString(b, f.Key)
		b = f.Append(b)
	}
	return b
}

// String returns a field appender for a string value.
func String(s string) func([]byte) []byte {
	return func(b []byte) []byte { return msgp.AppendString(b, s) }
}

// Int returns a field appender for an int value.
func Int(i int) func([]byte) []byte {
	return func(b []byte) []byte { return msgp.AppendInt(b, i) }
}

// Int64 returns a field appender for an int64 value.
func Int64(i int64) func([]byte) []byte {
	return func(b []byte) []byte { return msgp.AppendInt64(b, i) }
}

// Bool returns a field appender for a bool value.
func Bool(v bool) func([]byte) []byte {
	return func(b []byte) []byte { return msgp.AppendBool(b, v) }
}

// Strings returns a field appender for a string list.
func Strings(s []string) func([]byte) []byte {
	return func(b []byte) []byte { return AppendStrings(b, s) }
}

// Time returns a field appender for a timestamp, written as an RFC 3339
// string like encoding/json does.
func Time(t time.Time) func([]byte) []byte {
	return func(b []byte) []byte { return msgp.AppendString(b, t.Format(time.RFC3339Nano)) }
}

// OptionalString returns a field appender for a nullable string.
func OptionalString(s *string) func([]byte) []byte {
	return func(b []byte) []byte { return AppendOptionalString(b, s) }
}

// OptionalInt returns a field appender for a nullable int.
func OptionalInt(i *int) func([]byte) []byte {
	return func(b []byte) []byte { return AppendOptionalInt(b, i) }
}

// Object returns a field appender for a nested value. A marshal error is
// stored in errp, which is left untouched on success.
func Object(v msgp.Marshaler, errp *error) func([]byte) []byte {
	return func(b []byte) []byte {
		out, err := v.MarshalMsg(b)
		if err != nil {
			*errp = err
			return b
		}
		return out
	}
}
