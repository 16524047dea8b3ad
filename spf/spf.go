package spf

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/synqronlabs/mailcheck/dns"
)

// SPF lookup errors.
var (
	ErrNoRecord = errors.New("spf: no SPF record found")
	ErrDNS      = errors.New("spf: DNS lookup error")
)

// Limits used for recommendations.
const (
	// dnsRequestsMax is the RFC 7208 limit on DNS-querying mechanisms.
	dnsRequestsMax = 10

	// includesMax is the number of include mechanisms above which
	// consolidation is suggested.
	includesMax = 5
)

// Qualifier is the terminal "all" mechanism of a record, which decides what
// happens to mail from senders not listed.
type Qualifier string

const (
	// QualifierNone means the record does not end with a recognized "all".
	QualifierNone Qualifier = ""

	// QualifierFail ("-all") means unlisted senders fail.
	QualifierFail Qualifier = "-all"

	// QualifierSoftfail ("~all") means unlisted senders probably fail.
	QualifierSoftfail Qualifier = "~all"

	// QualifierNeutral ("?all") states nothing about unlisted senders.
	QualifierNeutral Qualifier = "?all"
)

// Lookup looks up the SPF record for domain, a TXT record at the domain
// itself.
//
// Returns the record text without surrounding quotes, whether the DNS
// response was DNSSEC-validated, and ErrNoRecord if no TXT value is an SPF
// record. DNS failures are returned wrapped in ErrDNS.
func Lookup(ctx context.Context, resolver dns.Resolver, domain string) (txt string, authentic bool, err error) {
	name := domain
	if !strings.HasSuffix(name, ".") {
		name += "."
	}

	result, err := resolver.LookupTXT(ctx, name)
	if err != nil {
		return "", result.Authentic, fmt.Errorf("%w: %w", ErrDNS, err)
	}

	txt, ok := FindRecord(result.Records)
	if !ok {
		return "", result.Authentic, ErrNoRecord
	}
	return txt, result.Authentic, nil
}
