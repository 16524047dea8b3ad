package dmarc

import (
	"strings"

	"golang.org/x/net/publicsuffix"
)

// OrganizationalDomain returns the organizational domain for the given domain.
//
// The organizational domain is the domain directly under the public suffix.
// For example:
//   - example.com -> example.com
//   - sub.example.com -> example.com
//   - sub.example.co.uk -> example.co.uk
//
// This uses the ICANN section of the Public Suffix List, as required by
// RFC 7489 for DMARC alignment checks.
func OrganizationalDomain(domain string) string {
	domain = strings.TrimSuffix(strings.ToLower(domain), ".")

	if domain == "" {
		return ""
	}

	etld1, err := publicsuffix.EffectiveTLDPlusOne(domain)
	if err != nil {
		// Cases like "localhost" or a bare public suffix.
		return domain
	}

	return etld1
}
