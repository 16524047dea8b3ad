package dmarc

// Record is a DMARC DNS TXT record as read by the evaluator.
//
// Example record:
//
//	v=DMARC1; p=reject; rua=mailto:dmarc@example.com
type Record struct {
	// Text is the record as published, without surrounding quotes.
	Text string

	// Policy is the p= tag. Values other than none, quarantine and reject are
	// kept as published.
	Policy Policy

	// SubdomainPolicy is the sp= tag.
	SubdomainPolicy Policy

	// Percentage is the pct= tag. Default is 100.
	Percentage int

	// ReportingAddresses are the aggregate report URIs of the rua= tag, in
	// order.
	ReportingAddresses []string
}

// DefaultRecord holds the default values for a DMARC record.
var DefaultRecord = Record{
	Percentage: 100,
}

// HasReporting returns true if at least one aggregate report address is set.
func (r *Record) HasReporting() bool {
	return len(r.ReportingAddresses) > 0
}
