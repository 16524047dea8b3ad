package mailcheck

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/synqronlabs/mailcheck/dkim"
	"github.com/synqronlabs/mailcheck/dmarc"
	"github.com/synqronlabs/mailcheck/dns"
	"github.com/synqronlabs/mailcheck/mailserver"
	"github.com/synqronlabs/mailcheck/report"
	"github.com/synqronlabs/mailcheck/spf"
)

// discard is a logger for tests.
var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

// listen starts a TCP listener that accepts and drops connections, and
// returns its port.
func listen(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			conn.Close()
		}
	}()
	_, port, _ := net.SplitHostPort(ln.Addr().String())
	return port
}

// exampleResolver serves a fully configured example.com, with the mail
// exchanger on 127.0.0.1.
func exampleResolver() dns.MockResolver {
	return dns.MockResolver{
		TXT: map[string][]string{
			"_dmarc.example.com.":             {"v=DMARC1; p=reject; rua=mailto:dmarc@example.com"},
			"example.com.":                    {"v=spf1 include:_spf.example.net -all"},
			"default._domainkey.example.com.": {"v=DKIM1; p=AAAA"},
		},
		MX: map[string][]*net.MX{
			"example.com.": {{Host: "mx.example.com.", Pref: 10}},
		},
		A: map[string][]string{
			"mx.example.com.": {"127.0.0.1"},
		},
	}
}

func newTestChecker(t *testing.T, resolver dns.Resolver, mod func(*Config)) *Checker {
	t.Helper()
	config := Config{
		Logger:         discard,
		DNSClient:      resolver,
		ConnectTimeout: 2 * time.Second,
	}
	if mod != nil {
		mod(&config)
	}
	c, err := New(config)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestNew(t *testing.T) {
	c, err := New(Config{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if c.Config().TestTimeout != 30*time.Second || c.resolver == nil {
		t.Errorf("unexpected checker %#v", c.Config())
	}
	if _, ok := c.resolver.(*dns.DNSResolver); !ok {
		t.Errorf("default resolver is %T", c.resolver)
	}

	c, err = New(Config{Resolver: ResolverStd, Nameservers: []string{"127.0.0.1"}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, ok := c.resolver.(*dns.DNSResolver); ok {
		t.Errorf("std resolver not selected")
	}

	if _, err := New(Config{Resolver: "bind"}); !errors.Is(err, ErrConfig) {
		t.Errorf("expected ErrConfig, got %v", err)
	}
}

func TestCheck(t *testing.T) {
	port := listen(t)
	c := newTestChecker(t, exampleResolver(), func(config *Config) { config.SMTPPort = port })

	tests := []struct {
		test  TestType
		score int
		check func(t *testing.T, data report.Data)
	}{
		{TestDMARC, 100, func(t *testing.T, data report.Data) {
			if d := data.(dmarc.Data); !d.IsConfigured || *d.Policy != "reject" {
				t.Errorf("unexpected data %#v", d)
			}
		}},
		{TestSPF, 100, func(t *testing.T, data report.Data) {
			if d := data.(spf.Data); !d.IsValid || d.IncludesCount != 1 {
				t.Errorf("unexpected data %#v", d)
			}
		}},
		{TestDKIM, 70, func(t *testing.T, data report.Data) {
			if d := data.(dkim.Data); !d.IsValid || *d.Selector != "default" {
				t.Errorf("unexpected data %#v", d)
			}
		}},
		{TestMailServer, 80, func(t *testing.T, data report.Data) {
			if d := data.(mailserver.Data); !d.EchoTest.Success || d.EchoTest.Host != "mx.example.com" {
				t.Errorf("unexpected data %#v", d)
			}
		}},
	}

	for _, tt := range tests {
		t.Run(string(tt.test), func(t *testing.T) {
			res, err := c.Check(context.Background(), tt.test, "example.com")
			if err != nil {
				t.Fatalf("Check: %v", err)
			}
			if res.Score != tt.score {
				t.Errorf("score %d, want %d", res.Score, tt.score)
			}
			tt.check(t, res.Data)
		})
	}
}

func TestCheckUnconfigured(t *testing.T) {
	c := newTestChecker(t, dns.MockResolver{}, nil)
	for _, tt := range AllTestTypes {
		res, err := c.Check(context.Background(), tt, "nothing.example")
		if err != nil {
			t.Errorf("%s: %v", tt, err)
			continue
		}
		if res.Score != 0 || len(res.Recommendations) == 0 {
			t.Errorf("%s: got score %d, recommendations %q", tt, res.Score, res.Recommendations)
		}
	}
}

func TestCheckBadRecord(t *testing.T) {
	resolver := dns.MockResolver{TXT: map[string][]string{"_dmarc.x.com.": {"v=DMARC1; p=reject; pct=all"}}}
	c := newTestChecker(t, resolver, nil)
	res, err := c.Check(context.Background(), TestDMARC, "x.com")
	if !errors.Is(err, dmarc.ErrSyntax) {
		t.Fatalf("expected syntax error, got %v", err)
	}
	if res.Score != 0 || !strings.HasPrefix(res.Recommendations[0], "Test failed: ") {
		t.Errorf("unexpected failure result %#v", res)
	}
	if d, ok := res.Data.(report.ErrorData); !ok || d.Error != err.Error() {
		t.Errorf("unexpected data %#v", res.Data)
	}
}

// panicResolver panics on every TXT lookup.
type panicResolver struct {
	dns.MockResolver
}

func (panicResolver) LookupTXT(ctx context.Context, name string) (dns.Result[string], error) {
	panic("boom")
}

func TestCheckPanic(t *testing.T) {
	c := newTestChecker(t, panicResolver{}, nil)
	res, err := c.Check(context.Background(), TestSPF, "example.com")
	if !errors.Is(err, ErrPanic) {
		t.Fatalf("expected ErrPanic, got %v", err)
	}
	b, err := res.JSON()
	if err != nil {
		t.Fatal(err)
	}
	want := `{"data":{"error":"internal error: boom"},"score":0,"recommendations":["Test failed: internal error: boom"]}`
	if string(b) != want {
		t.Errorf("got  %s\nwant %s", b, want)
	}
}

// lateResolver waits for the context to be done and then returns a DMARC
// record that does not parse.
type lateResolver struct {
	dns.MockResolver
}

func (lateResolver) LookupTXT(ctx context.Context, name string) (dns.Result[string], error) {
	<-ctx.Done()
	return dns.Result[string]{Records: []string{"v=DMARC1; p=reject; pct=all"}}, nil
}

func TestCheckTimeout(t *testing.T) {
	c := newTestChecker(t, lateResolver{}, func(config *Config) { config.TestTimeout = 50 * time.Millisecond })
	res, err := c.Check(context.Background(), TestDMARC, "example.com")
	if !errors.Is(err, ErrTestTimeout) {
		t.Fatalf("expected ErrTestTimeout, got %v", err)
	}
	if res.Recommendations[0] != "Test failed: test timeout" {
		t.Errorf("recommendations %q", res.Recommendations)
	}

	// A canceled parent is not a test timeout.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.Check(ctx, TestDMARC, "example.com")
	if errors.Is(err, ErrTestTimeout) {
		t.Errorf("canceled parent reported as timeout")
	}
}

// silentNameserver returns the address of a UDP socket that never answers.
func silentNameserver(t *testing.T) string {
	t.Helper()
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { pc.Close() })
	return pc.LocalAddr().String()
}

func TestCheckSilentNameserver(t *testing.T) {
	// Seven DKIM selectors at one DNS timeout each take longer than the
	// test timeout. The lookups run out of time, the test does not.
	c, err := New(Config{
		Logger:      discard,
		Nameservers: []string{silentNameserver(t)},
		DNSTimeout:  50 * time.Millisecond,
		TestTimeout: 300 * time.Millisecond,
	})
	if err != nil {
		t.Fatal(err)
	}

	res, err := c.Check(context.Background(), TestDKIM, "example.com")
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if res.Score != 0 || !slices.Equal(res.Recommendations, dkim.UnconfiguredRecommendations) {
		t.Errorf("got score %d, recommendations %q", res.Score, res.Recommendations)
	}

	res, err = c.Check(context.Background(), TestDMARC, "example.com")
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if d := res.Data.(dmarc.Data); d.IsConfigured || !strings.Contains(d.Error, "timeout") {
		t.Errorf("unexpected data %#v", d)
	}
}

func TestDispatch(t *testing.T) {
	c := newTestChecker(t, exampleResolver(), nil)

	v, err := c.Dispatch(context.Background(), "DMARC", "example.com")
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if res, ok := v.(report.Result); !ok || res.Score != 100 {
		t.Errorf("unexpected result %#v", v)
	}

	v, err = c.Dispatch(context.Background(), "SMTP", "example.com")
	var unknown *UnknownTestTypeError
	if !errors.As(err, &unknown) || unknown.Type != "smtp" {
		t.Fatalf("expected UnknownTestTypeError, got %v", err)
	}
	if obj, ok := v.(report.ErrorObject); !ok || obj.Error != "Unknown test type: smtp" {
		t.Errorf("unexpected value %#v", v)
	}
}

func TestParseTestType(t *testing.T) {
	tests := []struct {
		in   string
		want TestType
	}{
		{"dmarc", TestDMARC},
		{"SPF", TestSPF},
		{"Dkim", TestDKIM},
		{"MAIL_SERVER", TestMailServer},
	}
	for _, tt := range tests {
		got, err := ParseTestType(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParseTestType(%q) = %q, %v, want %q", tt.in, got, err, tt.want)
		}
	}

	for _, s := range []string{"", "all", "mail-server", "bimi"} {
		if _, err := ParseTestType(s); err == nil {
			t.Errorf("ParseTestType(%q): expected error", s)
		}
	}
}
