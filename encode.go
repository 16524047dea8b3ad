package mailcheck

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/tinylib/msgp/msgp"
)

// Format is an output encoding.
type Format string

const (
	FormatJSON    Format = "json"
	FormatMsgpack Format = "msgpack"
)

// ParseFormat parses an output format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatJSON, FormatMsgpack:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrFormat, s)
}

// Encode writes v to w in format f. JSON output ends with a newline.
func Encode(w io.Writer, f Format, v msgp.Marshaler) error {
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		return enc.Encode(v)
	case FormatMsgpack:
		b, err := v.MarshalMsg(nil)
		if err != nil {
			return fmt.Errorf("encoding msgpack: %w", err)
		}
		_, err = w.Write(b)
		return err
	}
	return fmt.Errorf("%w: %q", ErrFormat, f)
}
