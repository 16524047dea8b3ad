package dns

import (
	"context"
	"net"
	"slices"
)

// MockResolver is a Resolver used for testing.
// Set DNS records in the fields, which map FQDNs (with trailing dot) to values.
type MockResolver struct {
	A    map[string][]string
	AAAA map[string][]string
	TXT  map[string][]string
	MX   map[string][]*net.MX

	// Fail contains records that will return a temporary error (SERVFAIL).
	// Format: "type name", e.g. "txt example.com." where type is lowercase.
	Fail []string

	// Timeout contains records that will return ErrDNSTimeout, in the same
	// format as Fail.
	Timeout []string

	// AllAuthentic sets the value for Authentic in responses.
	AllAuthentic bool
}

var _ Resolver = MockResolver{}

// mockReq represents a mock DNS request.
type mockReq struct {
	Type string // E.g. "txt", "a", "aaaa", "mx"
	Name string // FQDN with trailing dot
}

func (mr mockReq) String() string {
	return mr.Type + " " + mr.Name
}

// ensureFQDN ensures the name ends with a dot.
func ensureFQDN(name string) string {
	if len(name) == 0 || name[len(name)-1] != '.' {
		return name + "."
	}
	return name
}

// check returns the configured failure for a request, if any.
func (r MockResolver) check(ctx context.Context, mr mockReq) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if slices.Contains(r.Fail, mr.String()) {
		return ErrDNSServFail
	}
	if slices.Contains(r.Timeout, mr.String()) {
		return ErrDNSTimeout
	}
	return nil
}

// LookupTXT returns TXT records for the given domain.
func (r MockResolver) LookupTXT(ctx context.Context, name string) (Result[string], error) {
	fqdn := ensureFQDN(name)
	result := Result[string]{Authentic: r.AllAuthentic}

	if err := r.check(ctx, mockReq{"txt", fqdn}); err != nil {
		return result, err
	}

	records, ok := r.TXT[fqdn]
	if !ok || len(records) == 0 {
		return result, ErrDNSNotFound
	}

	result.Records = records
	return result, nil
}

// LookupIP returns A and AAAA records for the given domain.
func (r MockResolver) LookupIP(ctx context.Context, domain string) (Result[net.IP], error) {
	fqdn := ensureFQDN(domain)
	result := Result[net.IP]{Authentic: r.AllAuthentic}

	if err := r.check(ctx, mockReq{"a", fqdn}); err != nil {
		return result, err
	}
	if err := r.check(ctx, mockReq{"aaaa", fqdn}); err != nil {
		return result, err
	}

	for _, ip := range r.A[fqdn] {
		result.Records = append(result.Records, net.ParseIP(ip))
	}
	for _, ip := range r.AAAA[fqdn] {
		result.Records = append(result.Records, net.ParseIP(ip))
	}

	if len(result.Records) == 0 {
		return result, ErrDNSNotFound
	}
	return result, nil
}

// LookupMX returns MX records for the given domain.
func (r MockResolver) LookupMX(ctx context.Context, name string) (Result[*net.MX], error) {
	fqdn := ensureFQDN(name)
	result := Result[*net.MX]{Authentic: r.AllAuthentic}

	if err := r.check(ctx, mockReq{"mx", fqdn}); err != nil {
		return result, err
	}

	records, ok := r.MX[fqdn]
	if !ok || len(records) == 0 {
		return result, ErrDNSNotFound
	}

	result.Records = records
	return result, nil
}
