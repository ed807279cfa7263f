// Package probe checks whether configured HTTP(S) proxies are actually
// reachable before their URLs are exported into remote command environments.
package probe

import (
	"time"

	"github.com/go-resty/resty/v2"
)

// Known-good endpoints fetched through the proxy under test.
const (
	DefaultHTTPTarget  = "http://checkip.amazonaws.com"
	DefaultHTTPSTarget = "https://checkip.amazonaws.com"
)

// Prober reports whether a target URL is reachable through a proxy.
type Prober interface {
	Probe(proxyURL, targetURL string) bool
}

// HTTPProber probes proxies with a single GET through each one.
type HTTPProber struct {
	timeout time.Duration
}

// NewHTTPProber creates a prober with the given per-probe timeout.
func NewHTTPProber(timeout time.Duration) *HTTPProber {
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	return &HTTPProber{timeout: timeout}
}

// Probe fetches targetURL through proxyURL. Any transport error or server
// error status counts as not working; the caller decides what to do with a
// dead proxy.
func (p *HTTPProber) Probe(proxyURL, targetURL string) bool {
	client := resty.New().
		SetProxy(proxyURL).
		SetTimeout(p.timeout).
		SetRetryCount(0)

	resp, err := client.R().Get(targetURL)
	if err != nil {
		return false
	}
	return resp.StatusCode() < 500
}
