// Package dkim checks whether a domain publishes DomainKeys Identified Mail
// (DKIM) public keys, per RFC 6376.
//
// DKIM keys are published as TXT records at <selector>._domainkey.<domain>.
// Selectors are chosen freely by the signer and cannot be enumerated, so the
// package probes a list of commonly used selectors and reports the first one
// that carries a key record.
//
// # Basic Usage
//
//	result, err := dkim.Evaluate(ctx, resolver, "example.com", dkim.Options{})
//	if err != nil {
//	    // Internal failure
//	}
//
// A record matches if it contains a "k=" or "p=" tag. The key itself is not
// used to verify any signature. When it can be decoded, its algorithm and
// size are included in the result for information.
package dkim

import (
	"errors"
)

// Common errors.
var (
	ErrNoRecord = errors.New("dkim: no DKIM DNS record found")
	ErrDNS      = errors.New("dkim: DNS lookup failed")
	ErrSyntax   = errors.New("dkim: syntax error in DKIM record")
)

// DefaultSelectors are probed, in order, when Options.Selectors is empty.
var DefaultSelectors = []string{
	"default",
	"selector1",
	"selector2",
	"google",
	"k1",
	"dkim",
	"mail",
}
