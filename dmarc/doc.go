// Package dmarc evaluates the Domain-based Message Authentication, Reporting,
// and Conformance (DMARC) policy a domain publishes under "_dmarc.<domain>".
//
// The evaluation is a posture check, not message verification: it finds the
// policy record, reads the tags that matter for enforcement and reporting,
// and scores how strongly the domain is protected against spoofing.
//
// # Basic Usage
//
//	resolver := dns.NewResolver(dns.ResolverConfig{})
//
//	result, err := dmarc.Evaluate(ctx, resolver, "example.com")
//	if err != nil {
//	    // The record could not be parsed.
//	}
//	fmt.Println(result.Score, result.Recommendations)
//
// # Scoring
//
// A domain with a DMARC record starts at 30. A "quarantine" policy adds 30,
// "reject" adds 50, and at least one aggregate report address (rua) adds 20.
// A domain without a record, or whose lookup failed, scores 0.
//
// # Organizational Domain
//
// The organizational domain is determined using the Public Suffix List and
// reported alongside a found record. For example:
//   - example.com has organizational domain example.com
//   - sub.example.com has organizational domain example.com
//   - sub.example.co.uk has organizational domain example.co.uk
//
// # References
//
//   - RFC 7489: Domain-based Message Authentication, Reporting, and Conformance (DMARC)
package dmarc
