// Package httppool provides the pooled HTTP client the control plane uses to
// probe mcp_box_url after a successful add_mcp_tool, adapted from the
// teacher's standalone pool/pool.go into a scoped, non-global constructor.
package httppool

import (
	"crypto/tls"
	"net/http"
	"time"

	"golang.org/x/net/http2"
)

// Config holds the tunables for a Pool's transport.
type Config struct {
	// InsecureSkipVerify allows self-signed certificates. Off by default.
	InsecureSkipVerify bool

	MaxIdleConns        int
	MaxIdleConnsPerHost int
	IdleConnTimeout     time.Duration

	// Timeout bounds a single probe request; the reachability check is meant
	// to be quick, unlike a tool call's own deadline.
	Timeout time.Duration
}

// DefaultConfig returns sensible defaults for a short-lived reachability
// probe rather than the long-lived AI/MCP connections the teacher's pool was
// tuned for.
func DefaultConfig() Config {
	return Config{
		InsecureSkipVerify:  false,
		MaxIdleConns:        20,
		MaxIdleConnsPerHost: 20,
		IdleConnTimeout:     90 * time.Second,
		Timeout:             5 * time.Second,
	}
}

// Pool wraps a shared *http.Client configured for HTTP/2 where available.
type Pool struct {
	client *http.Client
}

// New builds a Pool from cfg, filling zero fields from DefaultConfig.
func New(cfg Config) *Pool {
	defaults := DefaultConfig()
	if cfg.MaxIdleConns == 0 {
		cfg.MaxIdleConns = defaults.MaxIdleConns
	}
	if cfg.MaxIdleConnsPerHost == 0 {
		cfg.MaxIdleConnsPerHost = defaults.MaxIdleConnsPerHost
	}
	if cfg.IdleConnTimeout == 0 {
		cfg.IdleConnTimeout = defaults.IdleConnTimeout
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaults.Timeout
	}

	transport := &http.Transport{
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: cfg.InsecureSkipVerify,
			MinVersion:         tls.VersionTLS13,
		},
		MaxIdleConns:        cfg.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.MaxIdleConnsPerHost,
		IdleConnTimeout:     cfg.IdleConnTimeout,
		ForceAttemptHTTP2:   true,
	}
	http2.ConfigureTransport(transport)

	return &Pool{client: &http.Client{Transport: transport, Timeout: cfg.Timeout}}
}

// Client returns the shared *http.Client.
func (p *Pool) Client() *http.Client {
	return p.client
}

// Reachable reports whether url answers an HTTP request at all; the control
// plane uses this as a best-effort post-add probe, never as a precondition
// of add_mcp_tool succeeding (spec.md §4.5: connectivity is not required for
// the control-plane response to report success).
func (p *Pool) Reachable(url string) bool {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return false
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return true
}
