package dmarc

import (
	"context"
	"errors"
	"log/slog"

	"github.com/synqronlabs/mailcheck/dns"
	"github.com/synqronlabs/mailcheck/report"
)

// Scoring weights.
const (
	scoreRecord     = 30
	scoreQuarantine = 30
	scoreReject     = 50
	scoreReporting  = 20
)

// Recommendations for a found record.
const (
	RecommendUpgradePolicy = "Consider upgrading DMARC policy from 'none' to 'quarantine' or 'reject'"
	RecommendReporting     = "Add aggregate reporting (rua) to monitor DMARC compliance"
	RecommendPercentage    = "Consider increasing DMARC percentage to 100% for full protection"
	RecommendConfigured    = "DMARC is properly configured"
)

// UnconfiguredRecommendations are given when no DMARC record is found.
var UnconfiguredRecommendations = []string{
	"No DMARC record found. Implement DMARC policy to protect against email spoofing.",
	"Start with 'p=none' policy to monitor email authentication.",
	"Add aggregate reporting (rua) to monitor DMARC compliance.",
}

// Data is the DMARC evaluation data.
type Data struct {
	IsConfigured         bool     `json:"isConfigured"`
	Policy               *string  `json:"policy"`
	SubdomainPolicy      *string  `json:"subdomainPolicy"`
	Percentage           *int     `json:"percentage"`
	ReportingEmails      []string `json:"reportingEmails"`
	Record               string   `json:"record,omitempty"`
	OrganizationalDomain string   `json:"organizationalDomain,omitempty"`
	Error                string   `json:"error,omitempty"`
}

// MarshalMsg implements msgp.Marshaler.
func (d Data) MarshalMsg(b []byte) ([]byte, error) {
	return report.AppendMap(b,
		report.Field{Key: "isConfigured", Append: report.Bool(d.IsConfigured)},
		report.Field{Key: "policy", Append: report.OptionalString(d.Policy)},
		report.Field{Key: "subdomainPolicy", Append: report.OptionalString(d.SubdomainPolicy)},
		report.Field{Key: "percentage", Append: report.OptionalInt(d.Percentage)},
		report.Field{Key: "reportingEmails", Append: report.Strings(d.ReportingEmails)},
		report.Field{Key: "record", Append: report.String(d.Record), Omit: d.Record == ""},
		report.Field{Key: "organizationalDomain", Append: report.String(d.OrganizationalDomain), Omit: d.OrganizationalDomain == ""},
		report.Field{Key: "error", Append: report.String(d.Error), Omit: d.Error == ""},
	), nil
}

func optionalPolicy(p Policy) *string {
	if p == PolicyEmpty {
		return nil
	}
	s := string(p)
	return &s
}

// Score returns the score for a found record, clamped to 100.
func Score(r *Record) int {
	score := scoreRecord
	switch r.Policy {
	case PolicyQuarantine:
		score += scoreQuarantine
	case PolicyReject:
		score += scoreReject
	}
	if r.HasReporting() {
		score += scoreReporting
	}
	return report.Clamp(score)
}

// Recommendations returns the remediation advice for a found record. The
// checks are independent; a record passing all of them gets a single
// confirmation.
func Recommendations(r *Record) []string {
	var recs []string
	if r.Policy == PolicyNone {
		recs = append(recs, RecommendUpgradePolicy)
	}
	if !r.HasReporting() {
		recs = append(recs, RecommendReporting)
	}
	if r.Percentage < 100 {
		recs = append(recs, RecommendPercentage)
	}
	if len(recs) == 0 {
		recs = []string{RecommendConfigured}
	}
	return recs
}

// Evaluator evaluates the DMARC policy of a domain.
type Evaluator struct {
	Resolver dns.Resolver
	Logger   *slog.Logger
}

// Evaluate looks up and scores the DMARC record of domain with resolver.
func Evaluate(ctx context.Context, resolver dns.Resolver, domain string) (report.Result, error) {
	return Evaluator{Resolver: resolver}.Evaluate(ctx, domain)
}

// Evaluate looks up and scores the DMARC record of domain.
//
// A missing record and a failed lookup both give the unconfigured result with
// score 0; only a lookup failure sets Data.Error. The returned error is only
// non-nil for a record that cannot be parsed.
func (e Evaluator) Evaluate(ctx context.Context, domain string) (report.Result, error) {
	log := e.Logger
	if log == nil {
		log = slog.Default()
	}

	txt, authentic, err := Lookup(ctx, e.Resolver, domain)
	if err != nil {
		data := Data{ReportingEmails: []string{}}
		if !errors.Is(err, ErrNoRecord) {
			data.Error = err.Error()
		}
		log.Debug("dmarc record not found",
			slog.String("domain", domain),
			slog.Any("err", err))
		return report.New(data, 0, UnconfiguredRecommendations...), nil
	}

	record, err := ParseRecord(txt)
	if err != nil {
		return report.Result{}, err
	}

	data := Data{
		IsConfigured:         true,
		Policy:               optionalPolicy(record.Policy),
		SubdomainPolicy:      optionalPolicy(record.SubdomainPolicy),
		Percentage:           &record.Percentage,
		ReportingEmails:      record.ReportingAddresses,
		Record:               record.Text,
		OrganizationalDomain: OrganizationalDomain(domain),
	}
	score := Score(record)

	log.Debug("dmarc record evaluated",
		slog.String("domain", domain),
		slog.String("policy", string(record.Policy)),
		slog.Int("score", score),
		slog.Bool("authentic", authentic))

	return report.New(data, score, Recommendations(record)...), nil
}
