// Package spf evaluates the Sender Policy Framework (SPF) record a domain
// publishes, as described in RFC 7208.
//
// The record is looked up as a TXT record at the domain apex. It is not
// evaluated against a sending IP: the package only reports how strict the
// record is and estimates how many DNS lookups a receiver would need for it.
//
// Basic Usage:
//
//	resolver := dns.NewResolver(dns.ResolverConfig{
//	    Nameservers: []string{"8.8.8.8:53"},
//	})
//
//	result, err := spf.Evaluate(ctx, resolver, "example.com")
//	if err != nil {
//	    // Internal failure
//	}
//	fmt.Println(result.Score, result.Recommendations)
//
// Scoring:
//
// A published record scores 40. A terminal "-all" adds 40, "~all" adds 30 and
// "?all" adds 10. A record estimated to stay within the limit of 10 DNS
// lookups adds 20. The lookup estimate counts include, a, mx and exists
// mechanisms with a domain argument. Included records are not expanded.
//
// References:
//   - RFC 7208: Sender Policy Framework (SPF)
package spf
