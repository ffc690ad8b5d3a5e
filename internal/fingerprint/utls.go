// Package fingerprint builds HTTP transports whose TLS ClientHello mimics a
// real browser, so store front-ends that fingerprint handshakes serve the
// regular catalog page.
package fingerprint

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	utls "github.com/refraction-networking/utls"
	"golang.org/x/net/http2"
)

// Profile names a ClientHello shape.
type Profile string

const (
	ProfileChrome  Profile = "chrome"
	ProfileFirefox Profile = "firefox"
	ProfileSafari  Profile = "safari"
	ProfileGo      Profile = "go"     // crypto/tls, no mimicry
	ProfileRandom  Profile = "random" // randomized, HTTP/1.1 only
)

// ParseProfile accepts a profile name case-insensitively. Empty selects chrome.
func ParseProfile(raw string) (Profile, error) {
	p := Profile(strings.ToLower(strings.TrimSpace(raw)))
	if p == "" {
		return ProfileChrome, nil
	}
	if p == ProfileGo {
		return p, nil
	}
	if _, err := helloID(p); err != nil {
		return "", err
	}
	return p, nil
}

// Options configures NewTransport.
type Options struct {
	Profile Profile
	// Proxy, when set, becomes the transport's Proxy func. Proxied requests
	// use crypto/tls over HTTP/1.1.
	Proxy func(*http.Request) (*url.URL, error)
	// InsecureSkipVerify disables certificate checks; only for local test servers.
	InsecureSkipVerify bool
}

// Transport sends each direct https request over HTTP/2 or HTTP/1.1,
// whichever protocol the origin picked from the mimicked ALPN list on the
// first handshake. It is safe for concurrent use.
type Transport struct {
	h1      *http.Transport
	h2      *http2.Transport
	dialTLS func(ctx context.Context, network, addr string) (*utls.UConn, error)

	mu      sync.Mutex
	alpn    map[string]string
	pending map[string][]net.Conn
}

var _ http.RoundTripper = (*Transport)(nil)

// NewTransport returns a Transport whose TLS handshake uses the uTLS
// ClientHello for opts.Profile. ProfileGo yields a plain clone of the default
// transport.
func NewTransport(opts Options) (*Transport, error) {
	if opts.Profile == "" {
		opts.Profile = ProfileChrome
	}

	h1 := http.DefaultTransport.(*http.Transport).Clone()
	if opts.Proxy != nil {
		h1.Proxy = opts.Proxy
	}

	if opts.Profile == ProfileGo {
		if opts.InsecureSkipVerify {
			h1.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
		}
		return &Transport{h1: h1}, nil
	}

	id, err := helloID(opts.Profile)
	if err != nil {
		return nil, err
	}

	t := &Transport{
		h1:      h1,
		alpn:    make(map[string]string),
		pending: make(map[string][]net.Conn),
	}

	dial := h1.DialContext
	t.dialTLS = func(ctx context.Context, network, addr string) (*utls.UConn, error) {
		raw, err := dial(ctx, network, addr)
		if err != nil {
			return nil, err
		}
		host, _, err := net.SplitHostPort(addr)
		if err != nil {
			host = addr
		}

		conn := utls.UClient(raw, &utls.Config{
			ServerName:         host,
			InsecureSkipVerify: opts.InsecureSkipVerify,
		}, id)
		if err := conn.HandshakeContext(ctx); err != nil {
			_ = raw.Close()
			return nil, fmt.Errorf("fingerprint: %s handshake with %s: %w", opts.Profile, host, err)
		}
		return conn, nil
	}

	// The bundled h2 support in net/http needs a *tls.Conn, so h1 stays
	// HTTP/1.1 and h2 connections go to x/net/http2.
	h1.ForceAttemptHTTP2 = false
	h1.DialTLSContext = t.take
	t.h2 = &http2.Transport{
		DialTLSContext: func(ctx context.Context, network, addr string, _ *tls.Config) (net.Conn, error) {
			return t.take(ctx, network, addr)
		},
		ReadIdleTimeout: 30 * time.Second,
	}
	return t, nil
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.h2 == nil || req.URL.Scheme != "https" || t.proxied(req) {
		return t.h1.RoundTrip(req)
	}

	addr := hostPort(req.URL)
	t.mu.Lock()
	proto, known := t.alpn[addr]
	t.mu.Unlock()

	if !known {
		conn, err := t.dialTLS(req.Context(), "tcp", addr)
		if err != nil {
			return nil, err
		}
		proto = conn.ConnectionState().NegotiatedProtocol
		t.mu.Lock()
		t.alpn[addr] = proto
		t.pending[addr] = append(t.pending[addr], conn)
		t.mu.Unlock()
	}

	if proto == http2.NextProtoTLS {
		return t.h2.RoundTrip(req)
	}
	return t.h1.RoundTrip(req)
}

// Protocol reports the ALPN protocol negotiated with addr ("host:port"), if
// a handshake has happened.
func (t *Transport) Protocol(addr string) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.alpn[addr]
	return p, ok
}

// CloseIdleConnections closes idle connections of both protocols.
func (t *Transport) CloseIdleConnections() {
	t.h1.CloseIdleConnections()
	if t.h2 == nil {
		return
	}
	t.h2.CloseIdleConnections()

	t.mu.Lock()
	pending := t.pending
	t.pending = make(map[string][]net.Conn)
	t.mu.Unlock()
	for _, conns := range pending {
		for _, c := range conns {
			_ = c.Close()
		}
	}
}

// take hands out a connection handshaken by RoundTrip, or dials a new one.
func (t *Transport) take(ctx context.Context, network, addr string) (net.Conn, error) {
	t.mu.Lock()
	if conns := t.pending[addr]; len(conns) > 0 {
		c := conns[len(conns)-1]
		t.pending[addr] = conns[:len(conns)-1]
		t.mu.Unlock()
		return c, nil
	}
	t.mu.Unlock()
	return t.dialTLS(ctx, network, addr)
}

func (t *Transport) proxied(req *http.Request) bool {
	if t.h1.Proxy == nil {
		return false
	}
	u, err := t.h1.Proxy(req)
	return err != nil || u != nil
}

func hostPort(u *url.URL) string {
	port := u.Port()
	if port == "" {
		port = "443"
	}
	return net.JoinHostPort(u.Hostname(), port)
}

func helloID(p Profile) (utls.ClientHelloID, error) {
	switch p {
	case ProfileChrome:
		return utls.HelloChrome_Auto, nil
	case ProfileFirefox:
		return utls.HelloFirefox_Auto, nil
	case ProfileSafari:
		return utls.HelloIOS_Auto, nil
	case ProfileRandom:
		return utls.HelloRandomizedNoALPN, nil
	}
	return utls.ClientHelloID{}, fmt.Errorf("fingerprint: unknown profile %q", p)
}
