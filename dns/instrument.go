package dns

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"os"
	"time"

	"github.com/synqronlabs/mailcheck/metrics"
)

// InstrumentedResolver wraps a Resolver, logging each lookup at debug level
// and tracking it in the DNS lookup metric.
type InstrumentedResolver struct {
	Resolver Resolver
	Pkg      string // Name of subsystem making DNS requests, for metrics and logging.
	Log      *slog.Logger
}

var _ Resolver = InstrumentedResolver{}

// Instrument wraps resolver for subsystem pkg. If resolver is already
// instrumented, only the package name is replaced.
func Instrument(resolver Resolver, pkg string, log *slog.Logger) Resolver {
	if log == nil {
		log = slog.Default()
	}
	if r, ok := resolver.(InstrumentedResolver); ok {
		r.Pkg = pkg
		r.Log = log
		return r
	}
	return InstrumentedResolver{Resolver: resolver, Pkg: pkg, Log: log}
}

func lookupResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	case IsNotFound(err):
		return "nxdomain"
	case IsServFail(err):
		return "servfail"
	case IsTimeout(err), errors.Is(err, os.ErrDeadlineExceeded), errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "error"
	}
}

func (r InstrumentedResolver) observe(ctx context.Context, typ, name string, n int, authentic bool, err error, start time.Time) {
	pkg := r.Pkg
	if pkg == "" {
		pkg = "dns"
	}
	result := lookupResult(err)
	metrics.DNSLookupObserve(pkg, typ, result, start)

	log := r.Log
	if log == nil {
		log = slog.Default()
	}
	attrs := []slog.Attr{
		slog.String("pkg", pkg),
		slog.String("type", typ),
		slog.String("name", name),
		slog.String("result", result),
		slog.Int("records", n),
		slog.Bool("authentic", authentic),
		slog.Duration("duration", time.Since(start)),
	}
	if err != nil {
		attrs = append(attrs, slog.String("err", err.Error()))
	}
	log.LogAttrs(ctx, slog.LevelDebug, "dns lookup result", attrs...)
}

// LookupTXT retrieves TXT records.
func (r InstrumentedResolver) LookupTXT(ctx context.Context, name string) (resp Result[string], err error) {
	start := time.Now()
	defer func() {
		r.observe(ctx, "txt", name, len(resp.Records), resp.Authentic, err, start)
	}()
	return r.Resolver.LookupTXT(ctx, name)
}

// LookupMX retrieves MX records.
func (r InstrumentedResolver) LookupMX(ctx context.Context, name string) (resp Result[*net.MX], err error) {
	start := time.Now()
	defer func() {
		r.observe(ctx, "mx", name, len(resp.Records), resp.Authentic, err, start)
	}()
	return r.Resolver.LookupMX(ctx, name)
}

// LookupIP retrieves A and AAAA records.
func (r InstrumentedResolver) LookupIP(ctx context.Context, host string) (resp Result[net.IP], err error) {
	start := time.Now()
	defer func() {
		r.observe(ctx, "ip", host, len(resp.Records), resp.Authentic, err, start)
	}()
	return r.Resolver.LookupIP(ctx, host)
}
