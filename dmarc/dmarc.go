package dmarc

import (
	"errors"
)

// DMARC lookup and parsing errors.
var (
	// ErrNoRecord indicates no TXT value at _dmarc.<domain> starts with "v=DMARC1".
	ErrNoRecord = errors.New("dmarc: no DMARC DNS record found")

	// ErrSyntax indicates the DMARC record has invalid syntax.
	ErrSyntax = errors.New("dmarc: malformed DMARC DNS record")

	// ErrDNS indicates a DNS lookup error occurred.
	ErrDNS = errors.New("dmarc: DNS lookup error")
)

// Policy determines how receivers should handle messages that fail DMARC.
type Policy string

const (
	// PolicyEmpty means no p= tag was present.
	PolicyEmpty Policy = ""

	// PolicyNone requests no specific action, only monitoring.
	PolicyNone Policy = "none"

	// PolicyQuarantine requests treating failing messages as suspicious.
	PolicyQuarantine Policy = "quarantine"

	// PolicyReject requests rejecting failing messages.
	PolicyReject Policy = "reject"
)
