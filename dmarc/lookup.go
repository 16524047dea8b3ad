package dmarc

import (
	"context"
	"fmt"
	"strings"

	"github.com/synqronlabs/mailcheck/dns"
)

// Lookup looks up the DMARC TXT record for the given domain at
// "_dmarc.<domain>".
//
// Returns the raw record text without surrounding quotes, whether the DNS
// response was DNSSEC-validated, and ErrNoRecord if no TXT value is a DMARC
// record. DNS failures are returned wrapped in ErrDNS, keeping the underlying
// dns error for errors.Is.
func Lookup(ctx context.Context, resolver dns.Resolver, domain string) (txt string, authentic bool, err error) {
	name := "_dmarc." + domain
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
