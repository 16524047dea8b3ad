package dns

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"
)

// StdResolver implements the Resolver interface using the standard library net package.
// This resolver does not support DNSSEC validation (Authentic will always be false).
// Use DNSResolver for DNSSEC support.
type StdResolver struct {
	resolver *net.Resolver
	timeout  time.Duration
}

var _ Resolver = (*StdResolver)(nil)

// NewStdResolver creates a resolver using the standard library. A zero
// timeout leaves lookups bounded only by the caller's context.
func NewStdResolver(timeout time.Duration) *StdResolver {
	return &StdResolver{
		resolver: &net.Resolver{StrictErrors: true},
		timeout:  timeout,
	}
}

// NewStdResolverWithDialer creates a resolver using a custom dialer.
// This allows configuring custom DNS servers while using the stdlib interface.
func NewStdResolverWithDialer(timeout time.Duration, dial func(ctx context.Context, network, address string) (net.Conn, error)) *StdResolver {
	return &StdResolver{
		resolver: &net.Resolver{
			PreferGo:     true,
			StrictErrors: true,
			Dial:         dial,
		},
		timeout: timeout,
	}
}

func (r *StdResolver) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout == 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, r.timeout)
}

// LookupTXT retrieves TXT records using the standard library.
func (r *StdResolver) LookupTXT(ctx context.Context, name string) (Result[string], error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	// Strip trailing dot for stdlib compatibility
	name = strings.TrimSuffix(name, ".")

	records, err := r.resolver.LookupTXT(ctx, name)
	if err != nil {
		return Result[string]{}, convertError(err)
	}

	if len(records) == 0 {
		return Result[string]{}, ErrDNSNotFound
	}

	return Result[string]{Records: records}, nil
}

// LookupIP retrieves A and AAAA records using the standard library.
func (r *StdResolver) LookupIP(ctx context.Context, domain string) (Result[net.IP], error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	domain = strings.TrimSuffix(domain, ".")

	ips, err := r.resolver.LookupIP(ctx, "ip", domain)
	if err != nil {
		return Result[net.IP]{}, convertError(err)
	}

	if len(ips) == 0 {
		return Result[net.IP]{}, ErrDNSNotFound
	}

	return Result[net.IP]{Records: ips}, nil
}

// LookupMX retrieves MX records using the standard library.
//
// Note that net.Resolver sorts MX records by preference, so unlike
// DNSResolver the wire order is not preserved.
func (r *StdResolver) LookupMX(ctx context.Context, name string) (Result[*net.MX], error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	name = strings.TrimSuffix(name, ".")

	records, err := r.resolver.LookupMX(ctx, name)
	if err != nil {
		return Result[*net.MX]{}, convertError(err)
	}

	if len(records) == 0 {
		return Result[*net.MX]{}, ErrDNSNotFound
	}

	return Result[*net.MX]{Records: records}, nil
}

// convertError converts standard library DNS errors to package errors.
func convertError(err error) error {
	if err == nil {
		return nil
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		if dnsErr.IsNotFound {
			return fmt.Errorf("%w: %s", ErrDNSNotFound, dnsErr.Name)
		}
		if dnsErr.IsTimeout {
			return fmt.Errorf("%w: %s", ErrDNSTimeout, dnsErr.Name)
		}
		if dnsErr.IsTemporary {
			return fmt.Errorf("%w: %s", ErrDNSServFail, dnsErr.Name)
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrDNSTimeout, err)
	}

	return fmt.Errorf("dns lookup failed: %w", err)
}
