package ops

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/caffeineduck/ssrsandbox/sandboxerr"
)

const (
	// DefaultMaxBodySize bounds both request and response bodies. The
	// teacher's hostfunc.HTTP applies the same cap to both directions.
	DefaultMaxBodySize = 1 << 20 // 1MB
	// DefaultRequestTimeout bounds a single fetch call end to end.
	DefaultRequestTimeout = 30 * time.Second
)

// FetchConfig configures the fetch op. AllowedOrigins holds
// scheme://host[:port] strings compared after normalization, per
// spec.md §3's sandbox configuration.
type FetchConfig struct {
	AllowedOrigins []string
	MaxBodySize    int64
	RequestTimeout time.Duration
}

// Fetch performs allowlisted outbound HTTP(S) requests on behalf of the
// fetch op. Grounded on the teacher's hostfunc.HTTP, generalized from a
// suffix-matched host allowlist to an exact-origin allowlist plus a
// same-origin-only redirect rule, per spec.md §4.C.
type Fetch struct {
	cfg    FetchConfig
	client *http.Client
}

// NewFetch constructs a Fetch with cfg, filling in size and timeout
// defaults when unset.
func NewFetch(cfg FetchConfig) *Fetch {
	if cfg.MaxBodySize == 0 {
		cfg.MaxBodySize = DefaultMaxBodySize
	}
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}

	f := &Fetch{cfg: cfg}
	f.client = &http.Client{
		Timeout:       cfg.RequestTimeout,
		CheckRedirect: f.checkRedirect,
	}
	return f
}

// checkRedirect enforces "redirects are only followed when the
// redirect target's origin equals the request's origin" regardless of
// the allowlist, per spec.md §3.
func (f *Fetch) checkRedirect(req *http.Request, via []*http.Request) error {
	if len(via) == 0 {
		return nil
	}
	if origin(req.URL) != origin(via[0].URL) {
		return fmt.Errorf("cross-origin redirect rejected: %s -> %s", origin(via[0].URL), origin(req.URL))
	}
	if len(via) >= 10 {
		return fmt.Errorf("stopped after 10 redirects")
	}
	return nil
}

// Request implements the fetch op's contract: perform an HTTP(S)
// request only if the origin of url is in AllowedOrigins.
func (f *Fetch) Request(ctx context.Context, args map[string]any) (any, error) {
	method, _ := args["method"].(string)
	if method == "" {
		method = "GET"
	}
	method = strings.ToUpper(method)

	rawURL, ok := args["url"].(string)
	if !ok || rawURL == "" {
		return nil, fmt.Errorf("url required")
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid url")
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("scheme must be http or https")
	}

	if !f.originAllowed(origin(parsed)) {
		return nil, sandboxerr.ErrOriginNotAllowed
	}

	var body io.Reader
	if bodyStr, ok := args["body"].(string); ok && bodyStr != "" {
		if int64(len(bodyStr)) > f.cfg.MaxBodySize {
			return nil, fmt.Errorf("request body exceeds max size")
		}
		body = bytes.NewBufferString(bodyStr)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if headers, ok := args["headers"].(map[string]any); ok {
		for k, v := range headers {
			if vs, ok := v.(string); ok {
				req.Header.Set(k, vs)
			}
		}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, f.cfg.MaxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	respHeaders := make(map[string]any)
	for k, v := range resp.Header {
		if len(v) > 0 {
			respHeaders[k] = v[0]
		}
	}

	return map[string]any{
		"status":      resp.StatusCode,
		"status_text": resp.Status,
		"url":         resp.Request.URL.String(),
		"headers":     respHeaders,
		"body":        string(respBody),
	}, nil
}

// RegisterFetch installs the fetch op.
func RegisterFetch(reg *Registry, cfg FetchConfig) {
	f := NewFetch(cfg)
	reg.Register("fetch", f.Request)
}

func (f *Fetch) originAllowed(o string) bool {
	for _, allowed := range f.cfg.AllowedOrigins {
		if o == normalizeOrigin(allowed) {
			return true
		}
	}
	return false
}

func origin(u *url.URL) string {
	return normalizeOrigin(u.Scheme + "://" + u.Host)
}

// normalizeOrigin lowercases the scheme and host and drops the default
// port for the scheme, so "HTTPS://Example.com:443" and
// "https://example.com" compare equal.
func normalizeOrigin(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return strings.ToLower(raw)
	}
	scheme := strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Hostname())
	port := u.Port()
	if (scheme == "https" && port == "443") || (scheme == "http" && port == "80") {
		port = ""
	}
	if port == "" {
		return scheme + "://" + host
	}
	return scheme + "://" + host + ":" + port
}
