package dns

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"slices"
	"strings"
	"time"

	mdns "github.com/miekg/dns"
)

// ResolverConfig contains configuration for the DNS resolver.
type ResolverConfig struct {
	// Nameservers is a list of DNS servers (e.g., "8.8.8.8:53"). Only the
	// first is queried. If empty, system resolvers from /etc/resolv.conf are
	// used, falling back to public DNS (8.8.8.8, 1.1.1.1).
	Nameservers []string

	// DNSSEC sets the DO bit on queries. The Authentic field in Result then
	// reflects the AD bit of the response.
	DNSSEC bool

	// Timeout bounds each DNS query. Default is 5 seconds.
	Timeout time.Duration
}

// DNSResolver implements Resolver using github.com/miekg/dns.
//
// A query is a single exchange with a single nameserver. Failures are not
// retried.
type DNSResolver struct {
	config ResolverConfig
	client *mdns.Client
}

var _ Resolver = (*DNSResolver)(nil)

// NewResolver creates a new DNS resolver.
func NewResolver(config ResolverConfig) *DNSResolver {
	if config.Timeout == 0 {
		config.Timeout = 5 * time.Second
	}
	if len(config.Nameservers) == 0 {
		config.Nameservers = getSystemNameservers()
	}
	config.Nameservers = slices.Clone(config.Nameservers)
	for i, s := range config.Nameservers {
		if _, _, err := net.SplitHostPort(s); err != nil {
			config.Nameservers[i] = net.JoinHostPort(s, "53")
		}
	}

	return &DNSResolver{
		config: config,
		client: &mdns.Client{
			Timeout: config.Timeout,
		},
	}
}

// getSystemNameservers tries to get system DNS servers from resolv.conf.
func getSystemNameservers() []string {
	config, err := mdns.ClientConfigFromFile("/etc/resolv.conf")
	if err != nil || len(config.Servers) == 0 {
		return []string{"8.8.8.8:53", "1.1.1.1:53"}
	}

	servers := make([]string, 0, len(config.Servers))
	for _, s := range config.Servers {
		servers = append(servers, net.JoinHostPort(s, config.Port))
	}
	return servers
}

// ensureAbsolute ensures the domain name ends with a dot (FQDN format).
func ensureAbsolute(name string) string {
	if !strings.HasSuffix(name, ".") {
		return name + "."
	}
	return name
}

// query performs a single DNS exchange and maps the response code to the
// package errors.
func (r *DNSResolver) query(ctx context.Context, name string, qtype uint16) (*mdns.Msg, bool, error) {
	m := new(mdns.Msg)
	m.SetQuestion(ensureAbsolute(name), qtype)
	m.RecursionDesired = true

	if r.config.DNSSEC {
		m.SetEdns0(4096, true)
	}

	ctx, cancel := context.WithTimeout(ctx, r.config.Timeout)
	defer cancel()

	resp, _, err := r.client.ExchangeContext(ctx, m, r.config.Nameservers[0])
	if err != nil {
		var netErr net.Error
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) || errors.As(err, &netErr) && netErr.Timeout() {
			return nil, false, fmt.Errorf("%w: %s %s", ErrDNSTimeout, mdns.TypeToString[qtype], name)
		}
		return nil, false, fmt.Errorf("dns query failed: %w", err)
	}

	authentic := r.config.DNSSEC && resp.AuthenticatedData

	switch resp.Rcode {
	case mdns.RcodeSuccess:
		return resp, authentic, nil
	case mdns.RcodeNameError:
		return nil, authentic, fmt.Errorf("%w: %s does not exist", ErrDNSNotFound, name)
	case mdns.RcodeServerFailure:
		// With DNSSEC requested, SERVFAIL usually means validation failed.
		if r.config.DNSSEC {
			return nil, authentic, ErrDNSBogus
		}
		return nil, authentic, ErrDNSServFail
	case mdns.RcodeRefused:
		return nil, authentic, ErrDNSRefused
	default:
		return nil, authentic, fmt.Errorf("dns: unexpected rcode %s", mdns.RcodeToString[resp.Rcode])
	}
}

// LookupTXT retrieves TXT records for the given domain.
func (r *DNSResolver) LookupTXT(ctx context.Context, name string) (Result[string], error) {
	resp, authentic, err := r.query(ctx, name, mdns.TypeTXT)
	if err != nil {
		return Result[string]{Authentic: authentic}, err
	}

	var records []string
	for _, rr := range resp.Answer {
		if txt, ok := rr.(*mdns.TXT); ok {
			// Character-strings of one record are concatenated, RFC 7208 Section 3.3.
			records = append(records, strings.Join(txt.Txt, ""))
		}
	}

	if len(records) == 0 {
		return Result[string]{Authentic: authentic}, ErrDNSNotFound
	}

	return Result[string]{Records: records, Authentic: authentic}, nil
}

// LookupIP retrieves A and AAAA records for the given domain.
func (r *DNSResolver) LookupIP(ctx context.Context, domain string) (Result[net.IP], error) {
	var ips []net.IP
	authentic := true
	var lastErr error

	resp, auth, err := r.query(ctx, domain, mdns.TypeA)
	if err != nil && !IsNotFound(err) {
		lastErr = err
	} else {
		authentic = authentic && auth
		if resp != nil {
			for _, rr := range resp.Answer {
				if a, ok := rr.(*mdns.A); ok {
					ips = append(ips, a.A)
				}
			}
		}
	}

	resp, auth, err = r.query(ctx, domain, mdns.TypeAAAA)
	if err != nil && !IsNotFound(err) {
		if lastErr == nil {
			lastErr = err
		}
	} else {
		authentic = authentic && auth
		if resp != nil {
			for _, rr := range resp.Answer {
				if aaaa, ok := rr.(*mdns.AAAA); ok {
					ips = append(ips, aaaa.AAAA)
				}
			}
		}
	}

	if len(ips) == 0 {
		if lastErr != nil {
			return Result[net.IP]{}, lastErr
		}
		return Result[net.IP]{}, ErrDNSNotFound
	}

	return Result[net.IP]{Records: ips, Authentic: authentic}, nil
}

// LookupMX retrieves MX records for the given domain in answer order.
func (r *DNSResolver) LookupMX(ctx context.Context, name string) (Result[*net.MX], error) {
	resp, authentic, err := r.query(ctx, name, mdns.TypeMX)
	if err != nil {
		return Result[*net.MX]{Authentic: authentic}, err
	}

	var records []*net.MX
	for _, rr := range resp.Answer {
		if mx, ok := rr.(*mdns.MX); ok {
			records = append(records, &net.MX{
				Host: mx.Mx,
				Pref: mx.Preference,
			})
		}
	}

	if len(records) == 0 {
		return Result[*net.MX]{Authentic: authentic}, ErrDNSNotFound
	}

	return Result[*net.MX]{Records: records, Authentic: authentic}, nil
}

// Config returns the resolver's current configuration.
func (r *DNSResolver) Config() ResolverConfig {
	return r.config
}
