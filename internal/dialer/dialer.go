// Package dialer provides the explicit connection capability the Electrum
// and Zcash probes use to reach a target: one dialer for clearnet hosts
// (system resolver, direct TCP) and one for .onion hosts (SOCKS5 via Tor).
// There is no process-global proxy state; callers pick a dialer up front
// based on the host's suffix.
package dialer

import (
	"context"
	"net"
	"strings"
	"time"

	"github.com/btcsuite/go-socks/socks"
)

// Dialer opens a TCP connection to addr within the given timeout.
type Dialer interface {
	DialTimeout(ctx context.Context, addr string, timeout time.Duration) (net.Conn, error)
}

// IsOnion reports whether host is a Tor hidden-service address.
func IsOnion(host string) bool {
	return strings.HasSuffix(strings.ToLower(host), ".onion")
}

// Clearnet dials directly using the system resolver, skipping Tor entirely.
type Clearnet struct{}

func (Clearnet) DialTimeout(ctx context.Context, addr string, timeout time.Duration) (net.Conn, error) {
	d := net.Dialer{Timeout: timeout}
	return d.DialContext(ctx, "tcp", addr)
}

// Onion routes every connection through a SOCKS5 proxy (Tor), never
// touching the system resolver: the proxy resolves addr itself.
type Onion struct {
	ProxyHost string
	ProxyPort string
}

// NewOnion builds an Onion dialer, defaulting to tor:9050 per spec §6.
func NewOnion(host, port string) Onion {
	if host == "" {
		host = "tor"
	}
	if port == "" {
		port = "9050"
	}
	return Onion{ProxyHost: host, ProxyPort: port}
}

func (o Onion) DialTimeout(ctx context.Context, addr string, timeout time.Duration) (net.Conn, error) {
	proxy := &socks.Proxy{
		Addr: net.JoinHostPort(o.ProxyHost, o.ProxyPort),
	}

	type result struct {
		conn net.Conn
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		conn, err := proxy.Dial("tcp", addr)
		ch <- result{conn, err}
	}()

	select {
	case r := <-ch:
		return r.conn, r.err
	case <-time.After(timeout):
		return nil, context.DeadlineExceeded
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// For selects the correct dialer for host given Tor proxy configuration.
func For(host string, onionHost, onionPort string) Dialer {
	if IsOnion(host) {
		return NewOnion(onionHost, onionPort)
	}
	return Clearnet{}
}
