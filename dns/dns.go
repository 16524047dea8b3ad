// Package dns provides the DNS lookups used by the mailcheck evaluators.
//
// Lookups return an explicit (Result, error) pair instead of relying on a
// single error for every outcome. Callers distinguish "the name or record
// type does not exist" from transient failures with IsNotFound, IsTimeout,
// IsServFail and IsTemporary.
package dns

import (
	"context"
	"errors"
	"net"
)

// DNS errors. Implementations return these, possibly wrapped.
var (
	ErrDNSNotFound = errors.New("dns: no such record")
	ErrDNSTimeout  = errors.New("dns: timeout")
	ErrDNSServFail = errors.New("dns: server failure")
	ErrDNSRefused  = errors.New("dns: query refused")
	ErrDNSBogus    = errors.New("dns: DNSSEC validation failed")
)

// Result holds the records of a lookup.
type Result[T any] struct {
	// Records are the answers, in the order the resolver returned them.
	Records []T

	// Authentic is true if the response was DNSSEC-validated by the
	// upstream resolver (AD bit).
	Authentic bool
}

// Resolver is the interface for the DNS lookups the evaluators need.
type Resolver interface {
	// LookupTXT retrieves TXT records. Character-strings of a single
	// record are concatenated.
	LookupTXT(ctx context.Context, name string) (Result[string], error)

	// LookupMX retrieves MX records, preserving the resolver's order.
	LookupMX(ctx context.Context, name string) (Result[*net.MX], error)

	// LookupIP retrieves A and AAAA records.
	LookupIP(ctx context.Context, host string) (Result[net.IP], error)
}

// IsNotFound returns true if err means the name or record type does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrDNSNotFound)
}

// IsTimeout returns true if err is a DNS timeout.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrDNSTimeout)
}

// IsServFail returns true if err is a server failure.
func IsServFail(err error) bool {
	return errors.Is(err, ErrDNSServFail)
}

// IsTemporary returns true if a later attempt could succeed.
func IsTemporary(err error) bool {
	return IsTimeout(err) || IsServFail(err)
}
