package dkim

import (
	"context"
	"crypto/ed25519"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/synqronlabs/mailcheck/dns"
)

// Record is a DKIM DNS TXT record (RFC 6376 Section 3.6.1), as found at
// <selector>._domainkey.<domain>.
type Record struct {
	// Text is the record as published, without surrounding quotes.
	Text string

	// Key is the key type: "rsa" (default) or the k= tag as published,
	// lowercased.
	Key string

	// Pubkey is the raw public key data (base64-decoded).
	// Empty means the key has been revoked or could not be decoded.
	Pubkey []byte

	// PublicKey is the parsed public key.
	// This is *rsa.PublicKey or ed25519.PublicKey, or nil.
	PublicKey any
}

// KeyLength returns the size of the public key in bits, or 0 if the key
// was not parsed.
func (r *Record) KeyLength() int {
	switch k := r.PublicKey.(type) {
	case *rsa.PublicKey:
		return k.N.BitLen()
	case ed25519.PublicKey:
		return 256
	}
	return 0
}

// IsKeyRecord returns whether txt looks like a DKIM key record: it contains
// a "k=" or "p=" tag anywhere.
func IsKeyRecord(txt string) bool {
	return strings.Contains(txt, "k=") || strings.Contains(txt, "p=")
}

// ParseRecord parses the key type and public key of a DKIM TXT record.
//
// Parsing is lenient. Only the k= and p= tags are read, and a public key that
// cannot be decoded leaves PublicKey nil instead of failing. The returned
// error describes why the key could not be used, if it could not.
func ParseRecord(txt string) (*Record, error) {
	record := &Record{
		Text: txt,
		Key:  "rsa",
	}

	var pubkey string
	for _, part := range strings.Split(txt, ";") {
		part = strings.TrimSpace(part)
		idx := strings.Index(part, "=")
		if idx == -1 {
			continue
		}

		tag := strings.TrimSpace(part[:idx])
		value := strings.TrimSpace(part[idx+1:])

		switch tag {
		case "k":
			if value != "" {
				record.Key = strings.ToLower(value)
			}
		case "p":
			// Remove all whitespace
			pubkey = strings.Map(func(r rune) rune {
				if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
					return -1
				}
				return r
			}, value)
		}
	}

	if pubkey == "" {
		return record, nil
	}
	decoded, err := base64.StdEncoding.DecodeString(pubkey)
	if err != nil {
		return record, fmt.Errorf("%w: invalid public key encoding: %v", ErrSyntax, err)
	}
	record.Pubkey = decoded

	pk, err := parsePublicKey(record.Key, decoded)
	if err != nil {
		return record, fmt.Errorf("%w: %v", ErrSyntax, err)
	}
	record.PublicKey = pk
	return record, nil
}

// parsePublicKey parses a public key based on the key type.
func parsePublicKey(keyType string, data []byte) (any, error) {
	switch keyType {
	case "", "rsa":
		// RSA key in PKIX format
		pk, err := x509.ParsePKIXPublicKey(data)
		if err != nil {
			return nil, fmt.Errorf("invalid RSA public key: %w", err)
		}
		rsaPK, ok := pk.(*rsa.PublicKey)
		if !ok {
			return nil, fmt.Errorf("expected RSA public key, got %T", pk)
		}
		return rsaPK, nil

	case "ed25519":
		// Ed25519 key is raw bytes
		if len(data) != ed25519.PublicKeySize {
			return nil, fmt.Errorf("invalid Ed25519 public key size: %d", len(data))
		}
		return ed25519.PublicKey(data), nil

	default:
		return nil, fmt.Errorf("unsupported key type: %s", keyType)
	}
}

// Lookup looks up the TXT records for selector and domain and returns the
// first that is a key record, without surrounding quotes.
//
// Returns ErrNoRecord if no value is a key record, and DNS failures wrapped in
// ErrDNS.
func Lookup(ctx context.Context, resolver dns.Resolver, selector, domain string) (txt string, authentic bool, err error) {
	name := selector + "._domainkey." + domain
	if !strings.HasSuffix(name, ".") {
		name += "."
	}

	result, err := resolver.LookupTXT(ctx, name)
	if err != nil {
		return "", result.Authentic, fmt.Errorf("%w: %w", ErrDNS, err)
	}

	for _, txt := range result.Records {
		txt = strings.Trim(txt, `"`)
		if IsKeyRecord(txt) {
			return txt, result.Authentic, nil
		}
	}
	return "", result.Authentic, ErrNoRecord
}
