package dkim

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/synqronlabs/mailcheck/dns"
	"github.com/synqronlabs/mailcheck/report"
)

// scoreConfigured is the score for a domain with a matching key record.
const scoreConfigured = 70

// RecommendConfigured is given when a key record is found.
const RecommendConfigured = "DKIM is configured"

// UnconfiguredRecommendations are given when no selector has a key record.
var UnconfiguredRecommendations = []string{
	"No DKIM record found. Implement DKIM signing for email authentication.",
	"Configure your mail server to sign outgoing emails with DKIM.",
	"Publish DKIM public key in DNS records.",
}

// Options configure selector probing.
type Options struct {
	// Selectors are probed in order. Default is DefaultSelectors.
	Selectors []string

	// Concurrent probes all selectors at once instead of one after the
	// other. The first matching selector in list order is still the one
	// reported.
	Concurrent bool
}

func (o Options) selectors() []string {
	if len(o.Selectors) == 0 {
		return DefaultSelectors
	}
	return o.Selectors
}

// Data is the DKIM evaluation data.
type Data struct {
	IsValid   bool    `json:"isValid"`
	Selector  *string `json:"selector"`
	Record    string  `json:"record,omitempty"`
	Algorithm *string `json:"algorithm"`
	KeyLength *int    `json:"keyLength"`
}

// MarshalMsg implements msgp.Marshaler.
func (d Data) MarshalMsg(b []byte) ([]byte, error) {
	return report.AppendMap(b,
		report.Field{Key: "isValid", Append: report.Bool(d.IsValid)},
		report.Field{Key: "selector", Append: report.OptionalString(d.Selector)},
		report.Field{Key: "record", Append: report.String(d.Record), Omit: d.Record == ""},
		report.Field{Key: "algorithm", Append: report.OptionalString(d.Algorithm)},
		report.Field{Key: "keyLength", Append: report.OptionalInt(d.KeyLength)},
	), nil
}

// Evaluator probes DKIM selectors of a domain.
type Evaluator struct {
	Resolver dns.Resolver
	Logger   *slog.Logger
	Options  Options
}

// Evaluate probes the DKIM selectors of domain with resolver.
func Evaluate(ctx context.Context, resolver dns.Resolver, domain string, opts Options) (report.Result, error) {
	return Evaluator{Resolver: resolver, Options: opts}.Evaluate(ctx, domain)
}

// match is the outcome of probing one selector.
type match struct {
	selector string
	txt      string
}

// Evaluate probes the DKIM selectors of domain in order and reports the first
// with a key record. A DNS failure for a selector is treated as no record for
// that selector. If ctx has a deadline, sequential probes each get an equal
// share of the time left. The returned error is always nil.
func (e Evaluator) Evaluate(ctx context.Context, domain string) (report.Result, error) {
	log := e.Logger
	if log == nil {
		log = slog.Default()
	}

	var m *match
	if e.Options.Concurrent {
		m = e.probeConcurrent(ctx, log, domain)
	} else {
		m = e.probeSequential(ctx, log, domain)
	}

	if m == nil {
		log.Debug("dkim record not found", slog.String("domain", domain))
		return report.New(Data{}, 0, UnconfiguredRecommendations...), nil
	}

	data := Data{
		IsValid:  true,
		Selector: &m.selector,
		Record:   m.txt,
	}
	record, err := ParseRecord(m.txt)
	data.Algorithm = &record.Key
	if n := record.KeyLength(); n > 0 {
		data.KeyLength = &n
	}

	log.Debug("dkim record found",
		slog.String("domain", domain),
		slog.String("selector", m.selector),
		slog.String("algorithm", record.Key),
		slog.Int("keylength", record.KeyLength()),
		slog.Any("keyerr", err))

	return report.New(data, scoreConfigured, RecommendConfigured), nil
}

// probe looks up a single selector. It returns false if the selector has no
// key record or the lookup failed.
func (e Evaluator) probe(ctx context.Context, log *slog.Logger, selector, domain string) (string, bool) {
	txt, _, err := Lookup(ctx, e.Resolver, selector, domain)
	if err != nil {
		log.Debug("dkim selector probe",
			slog.String("domain", domain),
			slog.String("selector", selector),
			slog.Any("err", err))
		return "", false
	}
	return txt, true
}

func (e Evaluator) probeSequential(ctx context.Context, log *slog.Logger, domain string) *match {
	selectors := e.Options.selectors()
	for i, selector := range selectors {
		pctx, cancel := probeContext(ctx, len(selectors)-i)
		txt, ok := e.probe(pctx, log, selector, domain)
		cancel()
		if ok {
			return &match{selector, txt}
		}
	}
	return nil
}

// probeContext bounds a probe to an equal share of the time left in ctx for
// the n probes still to run.
func probeContext(ctx context.Context, n int) (context.Context, context.CancelFunc) {
	deadline, ok := ctx.Deadline()
	if !ok {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, time.Until(deadline)/time.Duration(n))
}

func (e Evaluator) probeConcurrent(ctx context.Context, log *slog.Logger, domain string) *match {
	selectors := e.Options.selectors()
	found := make([]*match, len(selectors))

	var wg sync.WaitGroup
	for i, selector := range selectors {
		wg.Go(func() {
			if txt, ok := e.probe(ctx, log, selector, domain); ok {
				found[i] = &match{selector, txt}
			}
		})
	}
	wg.Wait()

	for _, m := range found {
		if m != nil {
			return m
		}
	}
	return nil
}
