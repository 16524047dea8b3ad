package mailserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/synqronlabs/mailcheck/dns"
	"github.com/synqronlabs/mailcheck/metrics"
)

// LookupMX returns the MX hosts of domain in the order returned by resolver,
// with trailing dots as published.
//
// Returns ErrNoMX wrapping the DNS error if the lookup fails, ErrNoMX for an
// empty answer and ErrNullMX if the first record is a null MX (RFC 7505).
// The hosts are returned in all cases where the lookup succeeded.
func LookupMX(ctx context.Context, resolver dns.Resolver, domain string) ([]string, error) {
	name := domain
	if !strings.HasSuffix(name, ".") {
		name += "."
	}

	result, err := resolver.LookupMX(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoMX, err)
	}

	hosts := make([]string, 0, len(result.Records))
	for _, mx := range result.Records {
		hosts = append(hosts, mx.Host)
	}
	if len(hosts) == 0 {
		return hosts, ErrNoMX
	}
	if hosts[0] == "." || hosts[0] == "" {
		return hosts, ErrNullMX
	}
	return hosts, nil
}

// Probe connects to port on host and closes the connection at once.
//
// Host names are resolved with resolver and each address is tried in order
// until one accepts. Resolution and all attempts together are bounded by
// timeout. Returns the time from the start of resolution until the
// connection was established.
func Probe(ctx context.Context, resolver dns.Resolver, dialer Dialer, host, port string, timeout time.Duration) (time.Duration, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()

	var addrs []string
	if ip := net.ParseIP(host); ip != nil {
		addrs = []string{ip.String()}
	} else {
		result, err := resolver.LookupIP(ctx, host)
		if err != nil {
			err = fmt.Errorf("%w: %s: %w", ErrNoAddress, host, err)
			metrics.ConnectObserve(port, err, start)
			return 0, err
		}
		for _, ip := range result.Records {
			addrs = append(addrs, ip.String())
		}
		if len(addrs) == 0 {
			err := fmt.Errorf("%w: %s", ErrNoAddress, host)
			metrics.ConnectObserve(port, err, start)
			return 0, err
		}
	}

	var errs []error
	for _, addr := range addrs {
		conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(addr, port))
		if err != nil {
			errs = append(errs, err)
			if ctx.Err() != nil {
				break
			}
			continue
		}
		elapsed := time.Since(start)
		conn.Close()
		metrics.ConnectObserve(port, nil, start)
		return elapsed, nil
	}

	err := fmt.Errorf("%w: %s: %w", ErrUnreachable, host, errors.Join(errs...))
	metrics.ConnectObserve(port, err, start)
	return 0, err
}
