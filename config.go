package mailcheck

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/mjl-/sconf"

	"github.com/synqronlabs/mailcheck/dns"
	"github.com/synqronlabs/mailcheck/mailserver"
)

// Resolver implementations selectable in Config.
const (
	ResolverMiekg = "miekg"
	ResolverStd   = "std"
)

// Config contains configuration options for a Checker.
//
// A Config is typically read from an sconf file with LoadConfig. Zero values
// are replaced by defaults in New.
type Config struct {
	// ---- DNS ----

	Nameservers []string      `sconf:"optional" sconf-doc:"DNS servers to query, as IP or IP:port. Only the first is used, lookups are not retried. Default: the servers in /etc/resolv.conf, or public resolvers."`
	Resolver    string        `sconf:"optional" sconf-doc:"DNS client implementation, miekg (default) or std. The std resolver uses the Go standard library, does not report DNSSEC status and sorts MX records by preference, so the mail_server test probes the most preferred exchanger instead of the first one returned."`
	DNSSEC      bool          `sconf:"optional" sconf-doc:"Request DNSSEC validation from the nameserver. A failed validation is reported as a lookup failure. Only for the miekg resolver."`
	DNSTimeout  time.Duration `sconf:"optional" sconf-doc:"Timeout for a single DNS query. Default: 5s."`

	// ---- Tests ----

	TestTimeout    time.Duration `sconf:"optional" sconf-doc:"Time limit for a single test, including all its DNS queries and connection attempts. Default: 30s."`
	ConnectTimeout time.Duration `sconf:"optional" sconf-doc:"Time limit for resolving and connecting to the primary mail exchanger in the mail_server test. Default: 10s."`
	SMTPPort       string        `sconf:"optional" sconf-doc:"Port to connect to in the mail_server test. Default: 25."`
	DKIMSelectors  []string      `sconf:"optional" sconf-doc:"DKIM selectors to probe, in order. The first selector with a key record is reported. Default: default, selector1, selector2, google, k1, dkim, mail."`
	DKIMConcurrent bool          `sconf:"optional" sconf-doc:"Probe all DKIM selectors at the same time. The reported selector is the same as when probing one by one."`
	Parallel       int           `sconf:"optional" sconf-doc:"Maximum number of tests of a session to run at the same time. Default: 1, tests run one after the other."`

	// ---- Logging ----

	LogLevel string `sconf:"optional" sconf-doc:"Log level, one of: error, warn, info, debug. Default: info."`

	// ---- Runtime ----

	// Logger is the structured logger.
	// Default: slog.Default()
	Logger *slog.Logger `sconf:"-"`

	// DNSClient overrides the resolver built from the DNS settings.
	DNSClient dns.Resolver `sconf:"-"`

	// Dialer overrides the dialer used by the mail_server test.
	Dialer mailserver.Dialer `sconf:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Resolver:       ResolverMiekg,
		DNSTimeout:     5 * time.Second,
		TestTimeout:    30 * time.Second,
		ConnectTimeout: mailserver.DefaultConnectTimeout,
		SMTPPort:       mailserver.DefaultPort,
		Parallel:       1,
		LogLevel:       "info",
		Logger:         slog.Default(),
	}
}

// withDefaults returns c with zero values replaced by defaults.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Resolver == "" {
		c.Resolver = d.Resolver
	}
	if c.DNSTimeout <= 0 {
		c.DNSTimeout = d.DNSTimeout
	}
	if c.TestTimeout <= 0 {
		c.TestTimeout = d.TestTimeout
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = d.ConnectTimeout
	}
	if c.SMTPPort == "" {
		c.SMTPPort = d.SMTPPort
	}
	if c.Parallel <= 0 {
		c.Parallel = d.Parallel
	}
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
	if c.Logger == nil {
		c.Logger = d.Logger
	}
	return c
}

// Validate checks the values that have no sensible fallback.
func (c Config) Validate() error {
	switch c.Resolver {
	case "", ResolverMiekg, ResolverStd:
	default:
		return fmt.Errorf("%w: unknown resolver %q", ErrConfig, c.Resolver)
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// ParseConfig reads a configuration in sconf format from r, on top of the
// defaults.
func ParseConfig(r io.Reader) (Config, error) {
	c := DefaultConfig()
	if err := sconf.Parse(r, &c); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// LoadConfig reads the configuration file at path.
func LoadConfig(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	defer f.Close()
	return ParseConfig(f)
}

// DescribeConfig writes an annotated configuration file with all fields to w.
func DescribeConfig(w io.Writer) error {
	c := DefaultConfig()
	return sconf.Describe(w, &c)
}

// ParseLogLevel parses a level name as used in LogLevel.
func ParseLogLevel(s string) (slog.Level, error) {
	switch s {
	case "error":
		return slog.LevelError, nil
	case "warn":
		return slog.LevelWarn, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	}
	return 0, fmt.Errorf("%w: unknown log level %q", ErrConfig, s)
}
