package mailcheck

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/tinylib/msgp/msgp"

	"github.com/synqronlabs/mailcheck/report"
)

func TestParseFormat(t *testing.T) {
	for _, s := range []string{"json", "msgpack"} {
		f, err := ParseFormat(s)
		if err != nil || string(f) != s {
			t.Errorf("ParseFormat(%q) = %q, %v", s, f, err)
		}
	}
	if _, err := ParseFormat("xml"); !errors.Is(err, ErrFormat) {
		t.Errorf("expected ErrFormat, got %v", err)
	}
}

func TestEncodeJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, FormatJSON, report.ErrorObject{Error: "Unknown test type: <x>"}); err != nil {
		t.Fatal(err)
	}
	want := `{"error":"Unknown test type: <x>"}` + "\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}

// decode returns the JSON document for both encodings of v.
func decode(t *testing.T, v msgp.Marshaler) (fromJSON, fromMsgpack any) {
	t.Helper()
	var jbuf, mbuf bytes.Buffer
	if err := Encode(&jbuf, FormatJSON, v); err != nil {
		t.Fatalf("encoding json: %v", err)
	}
	if err := Encode(&mbuf, FormatMsgpack, v); err != nil {
		t.Fatalf("encoding msgpack: %v", err)
	}
	var converted bytes.Buffer
	if _, err := msgp.UnmarshalAsJSON(&converted, mbuf.Bytes()); err != nil {
		t.Fatalf("converting msgpack: %v", err)
	}
	if err := json.Unmarshal(jbuf.Bytes(), &fromJSON); err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal(converted.Bytes(), &fromMsgpack); err != nil {
		t.Fatalf("parsing converted msgpack %q: %v", converted.String(), err)
	}
	return
}

func TestEncodeFormatsAgree(t *testing.T) {
	port := listen(t)
	c := newTestChecker(t, exampleResolver(), func(config *Config) { config.SMTPPort = port })

	var values []msgp.Marshaler
	for _, tt := range AllTestTypes {
		res, err := c.Check(context.Background(), tt, "example.com")
		if err != nil {
			t.Fatalf("%s: %v", tt, err)
		}
		values = append(values, res)
	}
	unconfigured, err := c.Check(context.Background(), TestDKIM, "nothing.example")
	if err != nil {
		t.Fatal(err)
	}
	session, err := c.RunSession(context.Background(), "example.com", AllTestTypes, nil)
	if err != nil {
		t.Fatal(err)
	}
	values = append(values,
		unconfigured,
		report.Failure(ErrTestTimeout),
		report.ErrorObject{Error: "Unknown test type: x"},
		session,
	)

	for i, v := range values {
		j, m := decode(t, v)
		if !reflect.DeepEqual(j, m) {
			t.Errorf("value %d: encodings differ\njson    %v\nmsgpack %v", i, j, m)
		}
	}
}

func TestEncodeSession(t *testing.T) {
	c := newTestChecker(t, exampleResolver(), nil)
	s, err := c.RunSession(context.Background(), "example.com", []TestType{TestDMARC}, nil)
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := Encode(&buf, FormatJSON, s); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{`"id":"` + s.ID.String() + `"`, `"status":"completed"`, `"overallScore":100`, `"type":"dmarc"`} {
		if !strings.Contains(out, want) {
			t.Errorf("output lacks %s:\n%s", want, out)
		}
	}
}
