// Package mailserver checks that a domain publishes MX records and that its
// primary mail exchanger accepts TCP connections on the SMTP port.
//
// The first MX host in the order returned by the resolver is probed; MX
// preferences are not consulted. The probe only opens a TCP connection and
// closes it again. No SMTP greeting is read and no commands are sent.
//
// State per evaluation:
//
//	START -> MX_LOOKUP -> NO_MX (score 0)
//	                   -> CONNECT_ATTEMPT -> CONNECTED (score 80)
//	                                      -> UNREACHABLE (score 30)
package mailserver

import (
	"context"
	"errors"
	"net"
	"time"
)

// Errors.
var (
	ErrNoMX        = errors.New("mailserver: no MX records")
	ErrNullMX      = errors.New("mailserver: domain does not accept mail (null MX)")
	ErrNoAddress   = errors.New("mailserver: no address for mail exchanger")
	ErrUnreachable = errors.New("mailserver: cannot connect to mail exchanger")
)

// Defaults for Options.
const (
	DefaultPort           = "25"
	DefaultConnectTimeout = 10 * time.Second
)

// Dialer opens network connections. *net.Dialer implements it.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// Options configure the connectivity probe.
type Options struct {
	// Port to connect to. Default is DefaultPort.
	Port string

	// ConnectTimeout bounds address resolution and all connect attempts
	// together. Default is DefaultConnectTimeout.
	ConnectTimeout time.Duration

	// Dialer is used to connect. Default is a *net.Dialer.
	Dialer Dialer
}

func (o Options) withDefaults() Options {
	if o.Port == "" {
		o.Port = DefaultPort
	}
	if o.ConnectTimeout <= 0 {
		o.ConnectTimeout = DefaultConnectTimeout
	}
	if o.Dialer == nil {
		o.Dialer = &net.Dialer{}
	}
	return o
}
