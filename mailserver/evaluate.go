package mailserver

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/synqronlabs/mailcheck/dns"
	"github.com/synqronlabs/mailcheck/report"
)

// Scores per terminal state.
const (
	scoreNoMX        = 0
	scoreUnreachable = 30
	scoreConnected   = 80
)

// Messages and recommendations.
const (
	MessageMXLookupFailed = "No MX records found"
	MessageNoMX           = "No MX records"
	MessageUnreachable    = "Cannot connect to mail server"

	RecommendMXLookupFailed = "Configure MX records for email delivery."
	RecommendNoMX           = "Configure MX records."
	RecommendUnreachable    = "Mail server connectivity issues detected."
	RecommendConnected      = "Mail server is accessible"
)

// EchoTest is the outcome of the connectivity probe.
type EchoTest struct {
	Success bool `json:"success"`

	// Host is the probed mail exchanger, without trailing dot.
	Host string `json:"host,omitempty"`

	// ResponseTime is the time to connect in milliseconds, on success.
	ResponseTime *int64 `json:"responseTime,omitempty"`

	ErrorMessage string `json:"errorMessage,omitempty"`
}

// MarshalMsg implements msgp.Marshaler.
func (e EchoTest) MarshalMsg(b []byte) ([]byte, error) {
	var ms int64
	if e.ResponseTime != nil {
		ms = *e.ResponseTime
	}
	return report.AppendMap(b,
		report.Field{Key: "success", Append: report.Bool(e.Success)},
		report.Field{Key: "host", Append: report.String(e.Host), Omit: e.Host == ""},
		report.Field{Key: "responseTime", Append: report.Int64(ms), Omit: e.ResponseTime == nil},
		report.Field{Key: "errorMessage", Append: report.String(e.ErrorMessage), Omit: e.ErrorMessage == ""},
	), nil
}

// Data is the mail server evaluation data.
type Data struct {
	MXRecords []string `json:"mxRecords"`
	EchoTest  EchoTest `json:"echoTest"`
}

// MarshalMsg implements msgp.Marshaler.
func (d Data) MarshalMsg(b []byte) ([]byte, error) {
	var err error
	b = report.AppendMap(b,
		report.Field{Key: "mxRecords", Append: report.Strings(d.MXRecords)},
		report.Field{Key: "echoTest", Append: report.Object(d.EchoTest, &err)},
	)
	return b, err
}

// Evaluator checks the mail exchanger of a domain.
type Evaluator struct {
	Resolver dns.Resolver
	Logger   *slog.Logger
	Options  Options
}

// Evaluate checks the mail exchanger of domain with resolver.
func Evaluate(ctx context.Context, resolver dns.Resolver, domain string, opts Options) (report.Result, error) {
	return Evaluator{Resolver: resolver, Options: opts}.Evaluate(ctx, domain)
}

// Evaluate looks up the MX records of domain and probes the first host.
// The returned error is always nil.
func (e Evaluator) Evaluate(ctx context.Context, domain string) (report.Result, error) {
	log := e.Logger
	if log == nil {
		log = slog.Default()
	}
	opts := e.Options.withDefaults()

	hosts, err := LookupMX(ctx, e.Resolver, domain)
	switch {
	case err != nil && hosts == nil:
		log.Debug("mx lookup failed", slog.String("domain", domain), slog.Any("err", err))
		data := Data{
			MXRecords: []string{},
			EchoTest:  EchoTest{ErrorMessage: MessageMXLookupFailed},
		}
		return report.New(data, scoreNoMX, RecommendMXLookupFailed), nil

	case errors.Is(err, ErrNoMX), errors.Is(err, ErrNullMX):
		log.Debug("no usable mx records", slog.String("domain", domain), slog.Any("err", err))
		data := Data{
			MXRecords: hosts,
			EchoTest:  EchoTest{ErrorMessage: MessageNoMX},
		}
		return report.New(data, scoreNoMX, RecommendNoMX), nil
	}

	host := strings.TrimSuffix(hosts[0], ".")
	data := Data{MXRecords: hosts, EchoTest: EchoTest{Host: host}}

	elapsed, err := Probe(ctx, e.Resolver, opts.Dialer, host, opts.Port, opts.ConnectTimeout)
	if err != nil {
		log.Debug("mail server unreachable",
			slog.String("domain", domain),
			slog.String("host", host),
			slog.String("port", opts.Port),
			slog.Any("err", err))
		data.EchoTest.ErrorMessage = MessageUnreachable
		return report.New(data, scoreUnreachable, RecommendUnreachable), nil
	}

	ms := elapsed.Milliseconds()
	data.EchoTest.Success = true
	data.EchoTest.ResponseTime = &ms

	log.Debug("mail server reachable",
		slog.String("domain", domain),
		slog.String("host", host),
		slog.Int64("ms", ms))

	return report.New(data, scoreConnected, RecommendConnected), nil
}
