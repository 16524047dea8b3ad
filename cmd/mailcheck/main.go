// Command mailcheck evaluates the email-authentication posture of a domain
// and writes the result to standard output.
//
// Usage:
//
//	mailcheck [flags] <test_type> <domain>
//
// The test type is one of dmarc, spf, dkim and mail_server, or all to run
// every test in a session with an overall score. Logs go to standard error.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/tinylib/msgp/msgp"

	"github.com/synqronlabs/mailcheck"
	"github.com/synqronlabs/mailcheck/metrics"
	"github.com/synqronlabs/mailcheck/report"
)

const usage = "Usage: mailcheck <test_type> <domain>"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes the command and returns the exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("mailcheck", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		configPath      = fs.String("config", "", "configuration file in sconf format")
		formatName      = fs.String("format", "json", "output format, json or msgpack")
		nameserver      = fs.String("nameserver", "", "DNS server to query, overrides the configuration")
		resolverName    = fs.String("resolver", "", "DNS client, miekg or std, overrides the configuration; std sorts MX records by preference")
		verbose         = fs.Bool("v", false, "log at debug level")
		metricsTextfile = fs.String("metrics-textfile", "", "write metrics in Prometheus text format to this file after the run")
		describeConfig  = fs.Bool("describe-config", false, "print an annotated configuration file and exit")
	)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "%s\n\nTest types: dmarc, spf, dkim, mail_server, all\n\n", usage)
		fs.PrintDefaults()
	}

	format := mailcheck.FormatJSON
	fail := func(msg string) int {
		mailcheck.Encode(stdout, format, report.ErrorObject{Error: msg})
		return 1
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return fail(usage)
	}
	if *describeConfig {
		if err := mailcheck.DescribeConfig(stdout); err != nil {
			fmt.Fprintf(stderr, "describing config: %v\n", err)
			return 1
		}
		return 0
	}

	f, err := mailcheck.ParseFormat(*formatName)
	if err != nil {
		return fail(err.Error())
	}
	format = f

	if fs.NArg() != 2 {
		return fail(usage)
	}
	selector, domain := strings.ToLower(fs.Arg(0)), fs.Arg(1)

	config := mailcheck.DefaultConfig()
	if *configPath != "" {
		config, err = mailcheck.LoadConfig(*configPath)
		if err != nil {
			return fail(err.Error())
		}
	}
	if *nameserver != "" {
		config.Nameservers = []string{*nameserver}
	}
	if *resolverName != "" {
		config.Resolver = *resolverName
	}

	level, err := mailcheck.ParseLogLevel(config.LogLevel)
	if err != nil {
		return fail(err.Error())
	}
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	config.Logger = logger

	checker, err := mailcheck.New(config)
	if err != nil {
		return fail(err.Error())
	}

	defer func() {
		if *metricsTextfile == "" {
			return
		}
		if err := metrics.WriteTextfile(*metricsTextfile); err != nil {
			logger.Error("writing metrics textfile", slog.Any("err", err))
		}
	}()

	var (
		out  msgp.Marshaler
		code int
	)
	if selector == "all" {
		session, err := checker.RunSession(ctx, domain, mailcheck.AllTestTypes, func(p mailcheck.Progress) {
			logger.Debug("session progress",
				slog.String("session", p.SessionID.String()),
				slog.Int("completed", p.CompletedTests),
				slog.Int("total", p.TotalTests),
				slog.String("current", string(p.CurrentTest)),
				slog.String("status", string(p.Status)))
		})
		out = session
		if err != nil {
			code = 1
		}
	} else {
		v, err := checker.Dispatch(ctx, selector, domain)
		out = v.(msgp.Marshaler)
		var unknown *mailcheck.UnknownTestTypeError
		if err != nil && !errors.As(err, &unknown) {
			code = 1
		}
	}

	if err := mailcheck.Encode(stdout, format, out); err != nil {
		logger.Error("writing result", slog.Any("err", err))
		return 1
	}
	return code
}
