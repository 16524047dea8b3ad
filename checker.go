package mailcheck

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"runtime/debug"

	"github.com/synqronlabs/mailcheck/dkim"
	"github.com/synqronlabs/mailcheck/dmarc"
	"github.com/synqronlabs/mailcheck/dns"
	"github.com/synqronlabs/mailcheck/mailserver"
	"github.com/synqronlabs/mailcheck/metrics"
	"github.com/synqronlabs/mailcheck/report"
	"github.com/synqronlabs/mailcheck/spf"
)

// Checker runs tests against domains. A Checker holds no state between
// tests and is safe for concurrent use.
type Checker struct {
	config   Config
	resolver dns.Resolver
	log      *slog.Logger
}

// New creates a Checker from config, with zero values in config replaced by
// defaults.
func New(config Config) (*Checker, error) {
	config = config.withDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}

	resolver := config.DNSClient
	if resolver == nil {
		resolver = newResolver(config)
	}

	return &Checker{
		config:   config,
		resolver: resolver,
		log:      config.Logger,
	}, nil
}

func newResolver(config Config) dns.Resolver {
	if config.Resolver == ResolverStd {
		if len(config.Nameservers) == 0 {
			return dns.NewStdResolver(config.DNSTimeout)
		}
		server := config.Nameservers[0]
		if _, _, err := net.SplitHostPort(server); err != nil {
			server = net.JoinHostPort(server, "53")
		}
		var d net.Dialer
		return dns.NewStdResolverWithDialer(config.DNSTimeout, func(ctx context.Context, network, address string) (net.Conn, error) {
			return d.DialContext(ctx, network, server)
		})
	}
	return dns.NewResolver(dns.ResolverConfig{
		Nameservers: config.Nameservers,
		DNSSEC:      config.DNSSEC,
		Timeout:     config.DNSTimeout,
	})
}

// Config returns the effective configuration.
func (c *Checker) Config() Config {
	return c.config
}

// Dispatch parses selector and runs the selected test. For an unknown
// selector it returns a report.ErrorObject and an *UnknownTestTypeError.
// Otherwise it returns the report.Result of Check.
func (c *Checker) Dispatch(ctx context.Context, selector, domain string) (any, error) {
	t, err := ParseTestType(selector)
	if err != nil {
		return report.ErrorObject{Error: err.Error()}, err
	}
	return c.Check(ctx, t, domain)
}

// Check runs test t against domain, bounded by the configured test timeout.
//
// DNS and network failures are part of the returned result, including lookups
// cut short by the test timeout. A non-nil error is only returned if the test
// could not complete: an internal failure, a panic, or an evaluator failing
// after the test timeout expired (ErrTestTimeout). The result is then the
// failure result for that error.
func (c *Checker) Check(ctx context.Context, t TestType, domain string) (result report.Result, rerr error) {
	log := c.log.With(slog.String("test", string(t)), slog.String("domain", domain))

	defer func() {
		x := recover()
		if x != nil {
			log.Error("unhandled panic", slog.Any("panic", x))
			debug.PrintStack()
			rerr = fmt.Errorf("%w: %v", ErrPanic, x)
		}
		if rerr != nil {
			result = report.Failure(rerr)
			metrics.EvaluationInc(string(t), "failed", 0)
			return
		}
		metrics.EvaluationInc(string(t), outcome(result), result.Score)
	}()

	tctx, cancel := context.WithTimeout(ctx, c.config.TestTimeout)
	defer cancel()

	// A finished result stands even if the deadline passed while it was
	// being built. Evaluators fold their own lookup timeouts into it.
	result, err := c.evaluate(tctx, t, domain, log)
	if err != nil && errors.Is(tctx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		err = ErrTestTimeout
	}
	if err != nil {
		log.Info("test failed", slog.Any("err", err))
		return report.Result{}, err
	}

	log.Info("test completed", slog.Int("score", result.Score))
	return result, nil
}

func (c *Checker) evaluate(ctx context.Context, t TestType, domain string, log *slog.Logger) (report.Result, error) {
	resolver := dns.Instrument(c.resolver, string(t), log)

	switch t {
	case TestDMARC:
		return dmarc.Evaluator{Resolver: resolver, Logger: log}.Evaluate(ctx, domain)
	case TestSPF:
		return spf.Evaluator{Resolver: resolver, Logger: log}.Evaluate(ctx, domain)
	case TestDKIM:
		return dkim.Evaluator{
			Resolver: resolver,
			Logger:   log,
			Options: dkim.Options{
				Selectors:  c.config.DKIMSelectors,
				Concurrent: c.config.DKIMConcurrent,
			},
		}.Evaluate(ctx, domain)
	case TestMailServer:
		return mailserver.Evaluator{
			Resolver: resolver,
			Logger:   log,
			Options: mailserver.Options{
				Port:           c.config.SMTPPort,
				ConnectTimeout: c.config.ConnectTimeout,
				Dialer:         c.config.Dialer,
			},
		}.Evaluate(ctx, domain)
	}
	return report.Result{}, &UnknownTestTypeError{Type: string(t)}
}

// outcome classifies a completed result for metrics.
func outcome(r report.Result) string {
	var ok bool
	switch d := r.Data.(type) {
	case dmarc.Data:
		ok = d.IsConfigured
	case spf.Data:
		ok = d.IsValid
	case dkim.Data:
		ok = d.IsValid
	case mailserver.Data:
		ok = d.EchoTest.Success
	}
	if ok {
		return "configured"
	}
	return "unconfigured"
}
