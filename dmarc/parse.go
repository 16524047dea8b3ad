package dmarc

import (
	"fmt"
	"strconv"
	"strings"
)

// versionPrefix starts every DMARC record. It is case-sensitive.
const versionPrefix = "v=DMARC1"

// trimQuotes removes quote characters surrounding a TXT value, as some
// resolvers present them.
func trimQuotes(txt string) string {
	return strings.Trim(txt, `"`)
}

// FindRecord returns the first of txts that is a DMARC record, without
// surrounding quotes.
func FindRecord(txts []string) (string, bool) {
	for _, txt := range txts {
		txt = trimQuotes(txt)
		if strings.HasPrefix(txt, versionPrefix) {
			return txt, true
		}
	}
	return "", false
}

// tagValue returns the value of a "tag=value" segment: the text between the
// first and an optional second "=".
func tagValue(segment string) string {
	return strings.Split(segment, "=")[1]
}

// ParseRecord parses a DMARC TXT record string.
//
// Parsing is lenient: the record is split on ";", and only the p, sp, pct and
// rua tags are read. Unknown tags and malformed segments are ignored. The only
// error is a pct value that is not an integer.
func ParseRecord(s string) (*Record, error) {
	r := DefaultRecord
	r.Text = s
	r.ReportingAddresses = []string{}

	for _, segment := range strings.Split(s, ";") {
		segment = strings.TrimSpace(segment)

		switch {
		case strings.HasPrefix(segment, "p="):
			r.Policy = Policy(tagValue(segment))

		case strings.HasPrefix(segment, "sp="):
			r.SubdomainPolicy = Policy(tagValue(segment))

		case strings.HasPrefix(segment, "pct="):
			v := tagValue(segment)
			pct, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				return nil, fmt.Errorf("%w: invalid pct value %q", ErrSyntax, v)
			}
			r.Percentage = pct

		case strings.HasPrefix(segment, "rua="):
			for _, addr := range strings.Split(tagValue(segment), ",") {
				if addr = strings.TrimSpace(addr); addr != "" {
					r.ReportingAddresses = append(r.ReportingAddresses, addr)
				}
			}
		}
	}

	return &r, nil
}
