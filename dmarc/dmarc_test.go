package dmarc

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/synqronlabs/mailcheck/dns"
)

func TestParseRecord(t *testing.T) {
	tests := []struct {
		name   string
		record string
		want   Record
	}{
		{
			name:   "minimal",
			record: "v=DMARC1; p=none",
			want:   Record{Policy: PolicyNone, Percentage: 100, ReportingAddresses: []string{}},
		},
		{
			name:   "full",
			record: "v=DMARC1; p=reject; sp=quarantine; pct=50; rua=mailto:a@example.com, mailto:b@example.com",
			want: Record{
				Policy:             PolicyReject,
				SubdomainPolicy:    PolicyQuarantine,
				Percentage:         50,
				ReportingAddresses: []string{"mailto:a@example.com", "mailto:b@example.com"},
			},
		},
		{
			name:   "no spaces",
			record: "v=DMARC1;p=quarantine;rua=mailto:a@example.com",
			want:   Record{Policy: PolicyQuarantine, Percentage: 100, ReportingAddresses: []string{"mailto:a@example.com"}},
		},
		{
			name:   "empty rua entries dropped",
			record: "v=DMARC1; p=none; rua=mailto:a@example.com,,",
			want:   Record{Policy: PolicyNone, Percentage: 100, ReportingAddresses: []string{"mailto:a@example.com"}},
		},
		{
			name:   "missing policy",
			record: "v=DMARC1; rua=mailto:a@example.com",
			want:   Record{Percentage: 100, ReportingAddresses: []string{"mailto:a@example.com"}},
		},
		{
			name:   "unknown policy kept",
			record: "v=DMARC1; p=bogus",
			want:   Record{Policy: "bogus", Percentage: 100, ReportingAddresses: []string{}},
		},
		{
			name:   "value after second equals sign dropped",
			record: "v=DMARC1; p=reject=x",
			want:   Record{Policy: PolicyReject, Percentage: 100, ReportingAddresses: []string{}},
		},
		{
			name:   "unknown tags and junk ignored",
			record: "v=DMARC1; p=none; adkim=s; fo=1; ;junk",
			want:   Record{Policy: PolicyNone, Percentage: 100, ReportingAddresses: []string{}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRecord(tt.record)
			if err != nil {
				t.Fatalf("ParseRecord(%q): %v", tt.record, err)
			}
			tt.want.Text = tt.record
			if !reflect.DeepEqual(*got, tt.want) {
				t.Errorf("ParseRecord(%q)\ngot  %#v\nwant %#v", tt.record, *got, tt.want)
			}
		})
	}
}

func TestParseRecordBadPercentage(t *testing.T) {
	for _, s := range []string{"v=DMARC1; p=none; pct=abc", "v=DMARC1; pct=", "v=DMARC1; pct=5.5"} {
		_, err := ParseRecord(s)
		if !errors.Is(err, ErrSyntax) {
			t.Errorf("ParseRecord(%q): got err %v, want ErrSyntax", s, err)
		}
	}
}

func TestFindRecord(t *testing.T) {
	tests := []struct {
		txts []string
		want string
		ok   bool
	}{
		{nil, "", false},
		{[]string{"v=spf1 -all"}, "", false},
		{[]string{"v=dmarc1; p=none"}, "", false},
		{[]string{`"v=DMARC1; p=none"`}, "v=DMARC1; p=none", true},
		{[]string{"other", "v=DMARC1; p=reject", "v=DMARC1; p=none"}, "v=DMARC1; p=reject", true},
	}
	for _, tt := range tests {
		got, ok := FindRecord(tt.txts)
		if got != tt.want || ok != tt.ok {
			t.Errorf("FindRecord(%q) = %q, %v, want %q, %v", tt.txts, got, ok, tt.want, tt.ok)
		}
	}
}

func TestOrganizationalDomain(t *testing.T) {
	tests := []struct {
		domain string
		want   string
	}{
		{"example.com", "example.com"},
		{"mail.sub.example.com.", "example.com"},
		{"sub.example.co.uk", "example.co.uk"},
		{"EXAMPLE.COM", "example.com"},
		{"localhost", "localhost"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := OrganizationalDomain(tt.domain); got != tt.want {
			t.Errorf("OrganizationalDomain(%q) = %q, want %q", tt.domain, got, tt.want)
		}
	}
}

func TestLookup(t *testing.T) {
	resolver := dns.MockResolver{
		TXT: map[string][]string{
			"_dmarc.example.com.": {"v=spf1 -all", "v=DMARC1; p=none"},
			"_dmarc.other.com.":   {"some text"},
		},
		Fail: []string{"txt _dmarc.broken.com."},
	}
	ctx := context.Background()

	txt, _, err := Lookup(ctx, resolver, "example.com")
	if err != nil || txt != "v=DMARC1; p=none" {
		t.Errorf("got %q, %v", txt, err)
	}
	if _, _, err := Lookup(ctx, resolver, "other.com"); !errors.Is(err, ErrNoRecord) {
		t.Errorf("expected ErrNoRecord, got %v", err)
	}
	_, _, err = Lookup(ctx, resolver, "broken.com")
	if !errors.Is(err, ErrDNS) || !dns.IsServFail(err) {
		t.Errorf("expected wrapped servfail, got %v", err)
	}
	if _, _, err := Lookup(ctx, resolver, "missing.com"); !errors.Is(err, ErrDNS) || !dns.IsNotFound(err) {
		t.Errorf("expected wrapped not found, got %v", err)
	}
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name   string
		record string
		score  int
		recs   []string
	}{
		{
			name:   "reject with reporting",
			record: "v=DMARC1; p=reject; pct=100; rua=mailto:a@x.com",
			score:  100,
			recs:   []string{RecommendConfigured},
		},
		{
			name:   "quarantine with reporting",
			record: "v=DMARC1; p=quarantine; rua=mailto:a@x.com",
			score:  80,
			recs:   []string{RecommendConfigured},
		},
		{
			name:   "none without reporting",
			record: "v=DMARC1; p=none",
			score:  30,
			recs:   []string{RecommendUpgradePolicy, RecommendReporting},
		},
		{
			name:   "reject partial rollout",
			record: "v=DMARC1; p=reject; pct=25",
			score:  80,
			recs:   []string{RecommendReporting, RecommendPercentage},
		},
		{
			name:   "no policy",
			record: "v=DMARC1; rua=mailto:a@x.com",
			score:  50,
			recs:   []string{RecommendConfigured},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolver := dns.MockResolver{TXT: map[string][]string{"_dmarc.x.com.": {tt.record}}}
			res, err := Evaluate(context.Background(), resolver, "x.com")
			if err != nil {
				t.Fatalf("Evaluate: %v", err)
			}
			if res.Score != tt.score {
				t.Errorf("score %d, want %d", res.Score, tt.score)
			}
			if !reflect.DeepEqual(res.Recommendations, tt.recs) {
				t.Errorf("recommendations %q, want %q", res.Recommendations, tt.recs)
			}
			data := res.Data.(Data)
			if !data.IsConfigured || data.Record != tt.record || data.OrganizationalDomain != "x.com" {
				t.Errorf("unexpected data %#v", data)
			}
		})
	}
}

func TestEvaluateData(t *testing.T) {
	resolver := dns.MockResolver{TXT: map[string][]string{
		"_dmarc.mail.example.com.": {"v=DMARC1; p=reject; sp=none; pct=100; rua=mailto:a@x.com"},
	}}
	res, err := Evaluate(context.Background(), resolver, "mail.example.com")
	if err != nil {
		t.Fatal(err)
	}
	b, err := res.JSON()
	if err != nil {
		t.Fatal(err)
	}
	want := `{"data":{"isConfigured":true,"policy":"reject","subdomainPolicy":"none","percentage":100,` +
		`"reportingEmails":["mailto:a@x.com"],"record":"v=DMARC1; p=reject; sp=none; pct=100; rua=mailto:a@x.com",` +
		`"organizationalDomain":"example.com"},"score":100,"recommendations":["DMARC is properly configured"]}`
	if string(b) != want {
		t.Errorf("got  %s\nwant %s", b, want)
	}
}

func TestEvaluateUnconfigured(t *testing.T) {
	resolver := dns.MockResolver{
		TXT:  map[string][]string{"_dmarc.text.com.": {"hello"}},
		Fail: []string{"txt _dmarc.broken.com."},
	}

	for _, domain := range []string{"missing.com", "text.com"} {
		res, err := Evaluate(context.Background(), resolver, domain)
		if err != nil {
			t.Fatalf("%s: %v", domain, err)
		}
		b, _ := res.JSON()
		want := `{"data":{"isConfigured":false,"policy":null,"subdomainPolicy":null,"percentage":null,"reportingEmails":[]},` +
			`"score":0,"recommendations":["No DMARC record found. Implement DMARC policy to protect against email spoofing.",` +
			`"Start with 'p=none' policy to monitor email authentication.","Add aggregate reporting (rua) to monitor DMARC compliance."]}`
		if domain == "text.com" && string(b) != want {
			t.Errorf("%s: got  %s\nwant %s", domain, b, want)
		}
		if res.Score != 0 || len(res.Recommendations) != 3 {
			t.Errorf("%s: got score %d, recommendations %q", domain, res.Score, res.Recommendations)
		}
	}

	res, err := Evaluate(context.Background(), resolver, "broken.com")
	if err != nil {
		t.Fatal(err)
	}
	data := res.Data.(Data)
	if data.IsConfigured || data.Error == "" || res.Score != 0 {
		t.Errorf("expected unconfigured result with error, got %#v", data)
	}
	if !reflect.DeepEqual(res.Recommendations, UnconfiguredRecommendations) {
		t.Errorf("got recommendations %q", res.Recommendations)
	}
}

func TestEvaluateBadRecord(t *testing.T) {
	resolver := dns.MockResolver{TXT: map[string][]string{"_dmarc.x.com.": {"v=DMARC1; p=reject; pct=all"}}}
	_, err := Evaluate(context.Background(), resolver, "x.com")
	if !errors.Is(err, ErrSyntax) {
		t.Errorf("expected ErrSyntax, got %v", err)
	}
}

func TestEvaluateIdempotent(t *testing.T) {
	resolver := dns.MockResolver{TXT: map[string][]string{"_dmarc.x.com.": {"v=DMARC1; p=none; pct=50"}}}
	var prev []byte
	for i := 0; i < 3; i++ {
		res, err := Evaluate(context.Background(), resolver, "x.com")
		if err != nil {
			t.Fatal(err)
		}
		b, err := res.JSON()
		if err != nil {
			t.Fatal(err)
		}
		if prev != nil && string(b) != string(prev) {
			t.Fatalf("run %d differs:\n%s\n%s", i, b, prev)
		}
		prev = b
	}
}
