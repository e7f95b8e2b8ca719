package irc

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/proxy"
)

// Transport opens the byte stream a Link runs over.
type Transport interface {
	Dial(ctx context.Context, addr string) (net.Conn, error)
}

// PlainTransport dials an unencrypted TCP connection.
type PlainTransport struct {
	Dialer proxy.ContextDialer
}

// Dial implements Transport.
func (t PlainTransport) Dial(ctx context.Context, addr string) (net.Conn, error) {
	conn, err := t.Dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", addr, err)
	}
	return conn, nil
}

// TLSTransport dials TCP and performs a TLS handshake on top.
type TLSTransport struct {
	Dialer proxy.ContextDialer
	Config *tls.Config
}

// Dial implements Transport.
func (t TLSTransport) Dial(ctx context.Context, addr string) (net.Conn, error) {
	raw, err := t.Dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", addr, err)
	}

	cfg := &tls.Config{MinVersion: tls.VersionTLS12}
	if t.Config != nil {
		cfg = t.Config.Clone()
	}
	if cfg.ServerName == "" {
		host, _, _ := net.SplitHostPort(addr)
		cfg.ServerName = host
	}

	conn := tls.Client(raw, cfg)
	if err := conn.HandshakeContext(ctx); err != nil {
		_ = raw.Close()
		return nil, fmt.Errorf("tls handshake %s: %w", addr, err)
	}
	return conn, nil
}

// NewTransport picks the transport for ep. A proxy URL such as
// socks5://127.0.0.1:9050 routes the TCP leg through that proxy for either
// transport.
func NewTransport(ep Endpoint, timeout time.Duration) (Transport, error) {
	base := &net.Dialer{Timeout: timeout, KeepAlive: 30 * time.Second}

	var dialer proxy.ContextDialer = base
	if p := strings.TrimSpace(ep.Proxy); p != "" {
		u, err := url.Parse(p)
		if err != nil {
			return nil, fmt.Errorf("parse proxy url: %w", err)
		}
		pd, err := proxy.FromURL(u, base)
		if err != nil {
			return nil, fmt.Errorf("init proxy: %w", err)
		}
		cd, ok := pd.(proxy.ContextDialer)
		if !ok {
			return nil, fmt.Errorf("proxy %s does not support context dialing", u.Scheme)
		}
		dialer = cd
	}

	if !ep.TLS {
		return PlainTransport{Dialer: dialer}, nil
	}
	return TLSTransport{
		Dialer: dialer,
		Config: &tls.Config{
			ServerName:         ep.Host,
			InsecureSkipVerify: ep.InsecureSkipVerify, //nolint:gosec // opt-in per server
			MinVersion:         tls.VersionTLS12,
			NextProtos:         []string{"irc"},
		},
	}, nil
}
