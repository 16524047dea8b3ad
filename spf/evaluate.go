package spf

import (
	"context"
	"errors"
	"log/slog"

	"github.com/synqronlabs/mailcheck/dns"
	"github.com/synqronlabs/mailcheck/report"
)

// Scoring weights.
const (
	scoreRecord        = 40
	scoreFail          = 40
	scoreSoftfail      = 30
	scoreNeutral       = 10
	scoreWithinLookups = 20
)

// Recommendations for a found record.
const (
	RecommendAll         = "End SPF record with '-all' or '~all' to handle unauthorized senders"
	RecommendLookupLimit = "SPF record may exceed DNS lookup limit (10). Consider consolidating mechanisms."
	RecommendIncludes    = "Consider reducing number of include mechanisms for better performance"
	RecommendConfigured  = "SPF is properly configured"
)

// UnconfiguredRecommendations are given when no SPF record is found.
var UnconfiguredRecommendations = []string{
	"No SPF record found. Implement SPF to specify authorized mail servers.",
	"Add SPF record starting with 'v=spf1' followed by authorized mechanisms.",
	"End SPF record with '-all' or '~all' to handle unauthorized senders.",
}

// Data is the SPF evaluation data.
type Data struct {
	IsValid        bool     `json:"isValid"`
	Record         *string  `json:"record"`
	Mechanisms     []string `json:"mechanisms"`
	IncludesCount  int      `json:"includesCount"`
	DNSLookupCount int      `json:"dnsLookupCount"`
	Error          string   `json:"error,omitempty"`
}

// MarshalMsg implements msgp.Marshaler.
func (d Data) MarshalMsg(b []byte) ([]byte, error) {
	return report.AppendMap(b,
		report.Field{Key: "isValid", Append: report.Bool(d.IsValid)},
		report.Field{Key: "record", Append: report.OptionalString(d.Record)},
		report.Field{Key: "mechanisms", Append: report.Strings(d.Mechanisms)},
		report.Field{Key: "includesCount", Append: report.Int(d.IncludesCount)},
		report.Field{Key: "dnsLookupCount", Append: report.Int(d.DNSLookupCount)},
		report.Field{Key: "error", Append: report.String(d.Error), Omit: d.Error == ""},
	), nil
}

// Score returns the score for a found record, clamped to 100.
func Score(r *Record) int {
	score := scoreRecord
	switch r.Qualifier() {
	case QualifierFail:
		score += scoreFail
	case QualifierSoftfail:
		score += scoreSoftfail
	case QualifierNeutral:
		score += scoreNeutral
	}
	if r.WithinLookupLimit() {
		score += scoreWithinLookups
	}
	return report.Clamp(score)
}

// Recommendations returns the remediation advice for a found record.
func Recommendations(r *Record) []string {
	var recs []string
	if q := r.Qualifier(); q != QualifierFail && q != QualifierSoftfail {
		recs = append(recs, RecommendAll)
	}
	if !r.WithinLookupLimit() {
		recs = append(recs, RecommendLookupLimit)
	}
	if r.IncludesCount > includesMax {
		recs = append(recs, RecommendIncludes)
	}
	if len(recs) == 0 {
		recs = []string{RecommendConfigured}
	}
	return recs
}

// Evaluator evaluates the SPF record of a domain.
type Evaluator struct {
	Resolver dns.Resolver
	Logger   *slog.Logger
}

// Evaluate looks up and scores the SPF record of domain with resolver.
func Evaluate(ctx context.Context, resolver dns.Resolver, domain string) (report.Result, error) {
	return Evaluator{Resolver: resolver}.Evaluate(ctx, domain)
}

// Evaluate looks up and scores the SPF record of domain.
//
// A missing record and a failed lookup both give the unconfigured result with
// score 0; only a lookup failure sets Data.Error. The returned error is
// always nil, it is kept for symmetry with the other evaluators.
func (e Evaluator) Evaluate(ctx context.Context, domain string) (report.Result, error) {
	log := e.Logger
	if log == nil {
		log = slog.Default()
	}

	txt, authentic, err := Lookup(ctx, e.Resolver, domain)
	var record *Record
	if err == nil {
		record, _ = ParseRecord(txt)
	}
	if record == nil {
		data := Data{Mechanisms: []string{}}
		if err != nil && !errors.Is(err, ErrNoRecord) {
			data.Error = err.Error()
		}
		log.Debug("spf record not found",
			slog.String("domain", domain),
			slog.Any("err", err))
		return report.New(data, 0, UnconfiguredRecommendations...), nil
	}

	data := Data{
		IsValid:        true,
		Record:         &record.Text,
		Mechanisms:     record.Mechanisms,
		IncludesCount:  record.IncludesCount,
		DNSLookupCount: record.DNSLookupCount,
	}
	score := Score(record)

	log.Debug("spf record evaluated",
		slog.String("domain", domain),
		slog.String("qualifier", string(record.Qualifier())),
		slog.Int("lookups", record.DNSLookupCount),
		slog.Int("score", score),
		slog.Bool("authentic", authentic))

	return report.New(data, score, Recommendations(record)...), nil
}
