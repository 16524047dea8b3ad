package spf

import (
	"reflect"
	"testing"
)

func TestParseRecord(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantSPF   bool
		checkFunc func(t *testing.T, r *Record)
	}{
		{
			name:    "two includes",
			input:   "v=spf1 include:a.com include:b.com -all",
			wantSPF: true,
			checkFunc: func(t *testing.T, r *Record) {
				want := []string{"include:a.com", "include:b.com", "-all"}
				if !reflect.DeepEqual(r.Mechanisms, want) {
					t.Errorf("mechanisms %q, want %q", r.Mechanisms, want)
				}
				if r.IncludesCount != 2 || r.DNSLookupCount != 2 {
					t.Errorf("got includes %d, lookups %d", r.IncludesCount, r.DNSLookupCount)
				}
			},
		},
		{
			name:    "version only",
			input:   "v=spf1",
			wantSPF: true,
			checkFunc: func(t *testing.T, r *Record) {
				if r.Mechanisms == nil || len(r.Mechanisms) != 0 {
					t.Errorf("expected empty non-nil mechanisms, got %#v", r.Mechanisms)
				}
			},
		},
		{
			name:    "lookup mechanisms",
			input:   "v=spf1 a:mail.example.com mx:example.com exists:%{i}.example.com ip4:192.0.2.0/24 mx a ~all",
			wantSPF: true,
			checkFunc: func(t *testing.T, r *Record) {
				// Bare "a" and "mx" are not counted.
				if r.IncludesCount != 0 || r.DNSLookupCount != 3 {
					t.Errorf("got includes %d, lookups %d", r.IncludesCount, r.DNSLookupCount)
				}
			},
		},
		{
			name:    "qualified include not counted",
			input:   "v=spf1 +include:a.com ?include:b.com include:c.com -all",
			wantSPF: true,
			checkFunc: func(t *testing.T, r *Record) {
				if r.IncludesCount != 1 || r.DNSLookupCount != 1 {
					t.Errorf("got includes %d, lookups %d", r.IncludesCount, r.DNSLookupCount)
				}
			},
		},
		{
			name:    "extra whitespace",
			input:   "v=spf1   ip4:192.0.2.1 \t -all",
			wantSPF: true,
			checkFunc: func(t *testing.T, r *Record) {
				want := []string{"ip4:192.0.2.1", "-all"}
				if !reflect.DeepEqual(r.Mechanisms, want) {
					t.Errorf("mechanisms %q, want %q", r.Mechanisms, want)
				}
			},
		},
		{
			name:  "uppercase version",
			input: "V=SPF1 -all",
		},
		{
			name:  "not spf",
			input: "google-site-verification=abc",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, isSPF := ParseRecord(tt.input)
			if isSPF != tt.wantSPF {
				t.Fatalf("isSPF = %v, want %v", isSPF, tt.wantSPF)
			}
			if !isSPF {
				if r != nil {
					t.Errorf("expected nil record, got %#v", r)
				}
				return
			}
			if r.Text != tt.input {
				t.Errorf("text %q, want %q", r.Text, tt.input)
			}
			if tt.checkFunc != nil {
				tt.checkFunc(t, r)
			}
		})
	}
}

func TestQualifier(t *testing.T) {
	tests := []struct {
		record string
		want   Qualifier
	}{
		{"v=spf1 -all", QualifierFail},
		{"v=spf1 mx ~all", QualifierSoftfail},
		{"v=spf1 ?all", QualifierNeutral},
		{"v=spf1 +all", QualifierNone},
		{"v=spf1 all", QualifierNone},
		{"v=spf1 -all ", QualifierNone},
		{"v=spf1 redirect=_spf.example.com", QualifierNone},
	}
	for _, tt := range tests {
		r, _ := ParseRecord(tt.record)
		if got := r.Qualifier(); got != tt.want {
			t.Errorf("Qualifier(%q) = %q, want %q", tt.record, got, tt.want)
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
		{[]string{"v=DMARC1; p=none"}, "", false},
		{[]string{`"v=spf1 -all"`}, "v=spf1 -all", true},
		{[]string{"verification", "v=spf1 mx -all", "v=spf1 ~all"}, "v=spf1 mx -all", true},
	}
	for _, tt := range tests {
		got, ok := FindRecord(tt.txts)
		if got != tt.want || ok != tt.ok {
			t.Errorf("FindRecord(%q) = %q, %v, want %q, %v", tt.txts, got, ok, tt.want, tt.ok)
		}
	}
}
