package spf

import (
	"strings"
)

// versionPrefix starts every SPF record. It is case-sensitive.
const versionPrefix = "v=spf1"

// Record is an SPF DNS record as read by the evaluator.
//
// An example record for example.com:
//
//	v=spf1 include:_spf.example.net mx -all
type Record struct {
	// Text is the record as published, without surrounding quotes.
	Text string

	// Mechanisms are the whitespace separated terms after the version,
	// including modifiers, as published.
	Mechanisms []string

	// IncludesCount is the number of include: mechanisms.
	IncludesCount int

	// DNSLookupCount estimates the DNS lookups needed to evaluate the record:
	// includes plus a:, mx: and exists: mechanisms. Included records are not
	// followed.
	DNSLookupCount int
}

// FindRecord returns the first of txts that is an SPF record, without
// surrounding quotes.
func FindRecord(txts []string) (string, bool) {
	for _, txt := range txts {
		txt = strings.Trim(txt, `"`)
		if strings.HasPrefix(txt, versionPrefix) {
			return txt, true
		}
	}
	return "", false
}

// ParseRecord parses an SPF record. isSPF is false if s does not start with
// "v=spf1", in which case r is nil.
func ParseRecord(s string) (r *Record, isSPF bool) {
	if !strings.HasPrefix(s, versionPrefix) {
		return nil, false
	}

	r = &Record{Text: s, Mechanisms: []string{}}
	fields := strings.Fields(s)
	if len(fields) > 1 {
		r.Mechanisms = append(r.Mechanisms, fields[1:]...)
	}

	for _, m := range r.Mechanisms {
		switch {
		case strings.HasPrefix(m, "include:"):
			r.IncludesCount++
			r.DNSLookupCount++
		case strings.HasPrefix(m, "a:"), strings.HasPrefix(m, "mx:"), strings.HasPrefix(m, "exists:"):
			r.DNSLookupCount++
		}
	}
	return r, true
}

// Qualifier returns the terminal "all" of the record text.
func (r *Record) Qualifier() Qualifier {
	for _, q := range []Qualifier{QualifierFail, QualifierSoftfail, QualifierNeutral} {
		if strings.HasSuffix(r.Text, string(q)) {
			return q
		}
	}
	return QualifierNone
}

// WithinLookupLimit returns whether the estimated DNS lookups stay within the
// RFC 7208 limit of 10.
func (r *Record) WithinLookupLimit() bool {
	return r.DNSLookupCount <= dnsRequestsMax
}
