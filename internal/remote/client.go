// Package remote provides the JSON-over-HTTP client used to call the decomposition,
// content search, and video search services.
package remote

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultTimeout = 30 * time.Second

// maxErrorBody caps how much of a failed response body is read for the error message.
const maxErrorBody = 4 << 10

var (
	// ErrTransport wraps failures to send a request or read its response.
	ErrTransport = errors.New("remote: transport failure")
	// ErrHostNotAllowed is returned when the target host is not in the allowlist.
	ErrHostNotAllowed = errors.New("remote: host not allowed")
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	URL     string
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s returned status %d: %s", e.URL, e.Code, e.Message)
	}
	return fmt.Sprintf("%s returned status %d", e.URL, e.Code)
}

// Options configures a Client.
type Options struct {
	Timeout time.Duration
	// HostAllowlist restricts outbound hosts; entries may be "*" or "*.example.com". Empty allows all.
	HostAllowlist []string
	// HTTPClient replaces the default transport (tests).
	HTTPClient *http.Client
}

// Client posts JSON bodies and decodes JSON replies. It never retries.
type Client struct {
	hc        *http.Client
	allowlist []string
}

// NewClient creates a client with the given options.
func NewClient(opt Options) *Client {
	hc := opt.HTTPClient
	if hc == nil {
		to := opt.Timeout
		if to <= 0 {
			to = defaultTimeout
		}
		transport := &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			DialContext:         (&net.Dialer{Timeout: to}).DialContext,
			TLSClientConfig:     &tls.Config{MinVersion: tls.VersionTLS12},
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 32,
			IdleConnTimeout:     90 * time.Second,
		}
		hc = &http.Client{Timeout: to, Transport: transport}
	}
	return &Client{hc: hc, allowlist: opt.HostAllowlist}
}

// PostJSON sends in as a JSON body to rawURL and decodes the 2xx reply into out.
// Non-2xx replies yield *StatusError; network and decode failures wrap ErrTransport.
func (c *Client) PostJSON(ctx context.Context, rawURL string, in, out interface{}) error {
	if !c.allowed(rawURL) {
		return fmt.Errorf("%w: %s", ErrHostNotAllowed, rawURL)
	}
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{URL: rawURL, Code: resp.StatusCode, Message: errorMessage(resp.Body)}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response from %s: %v", ErrTransport, rawURL, err)
	}
	return nil
}

// errorMessage extracts the "error" field of a JSON error body, or the raw text.
func errorMessage(r io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(r, maxErrorBody))
	var payload struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(data, &payload) == nil && payload.Error != "" {
		return payload.Error
	}
	return strings.TrimSpace(string(data))
}

func (c *Client) allowed(rawURL string) bool {
	if len(c.allowlist) == 0 {
		return true
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := u.Hostname()
	for _, pattern := range c.allowlist {
		if matchHost(pattern, host) {
			return true
		}
	}
	return false
}

func matchHost(pattern, host string) bool {
	if pattern == "*" || strings.EqualFold(pattern, host) {
		return true
	}
	if strings.HasPrefix(pattern, "*.") {
		suffix := strings.TrimPrefix(pattern, "*.")
		return strings.HasSuffix(host, "."+suffix) || host == suffix
	}
	return false
}
