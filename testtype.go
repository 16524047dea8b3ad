package mailcheck

import (
	"strings"
)

// TestType selects an evaluation.
type TestType string

const (
	TestDMARC      TestType = "dmarc"
	TestSPF        TestType = "spf"
	TestDKIM       TestType = "dkim"
	TestMailServer TestType = "mail_server"
)

// AllTestTypes lists every test type, in the order a session runs them by
// default.
var AllTestTypes = []TestType{TestDMARC, TestSPF, TestDKIM, TestMailServer}

// ParseTestType parses a test type selector. Selectors are case-insensitive.
func ParseTestType(s string) (TestType, error) {
	t := TestType(strings.ToLower(s))
	switch t {
	case TestDMARC, TestSPF, TestDKIM, TestMailServer:
		return t, nil
	}
	return "", &UnknownTestTypeError{Type: string(t)}
}
