// SPDX-FileCopyrightText: © 2025 Nfrastack <code@nfrastack.com>
//
// SPDX-License-Identifier: BSD-3-Clause

package edge

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"conductor/pkg/log"
	"conductor/pkg/tenant"
	"conductor/pkg/util"

	"github.com/google/uuid"
)

const defaultRequestTimeout = 30 * time.Second

// Client speaks the changelist control-plane API for one tenant. It is safe
// for concurrent use across orchestration calls.
type Client struct {
	baseURL    string
	creds      tenant.Credentials
	httpClient *http.Client
	logger     *log.ScopedLogger
	now        func() time.Time
}

// Option adjusts client construction.
type Option func(*Client)

// WithBaseURL overrides the API base URL. Tests point this at a local server.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = baseURL }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithLogLevel sets a client-scoped log level override.
func WithLogLevel(level string) Option {
	return func(c *Client) { c.logger = log.NewScopedLogger("[edge]", level) }
}

// NewClient creates a client for the tenant's credentials.
func NewClient(creds tenant.Credentials, opts ...Option) *Client {
	c := &Client{
		baseURL:    "https://" + creds.Host,
		creds:      creds,
		httpClient: &http.Client{Timeout: defaultRequestTimeout},
		logger:     log.NewScopedLogger("[edge]", ""),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger.Trace("Client created for host %s (token %s)", creds.Host, util.MaskSensitiveValue(creds.ClientToken))
	return c
}

// do issues one signed request. A nil out skips response decoding. Non-2xx
// responses decode into *APIError.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)
	req.Header.Set("Authorization", c.authHeader(method, path, payload))

	c.logger.Debug("%s %s (request %s)", method, path, requestID)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s %s: failed to read response: %w", method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Title: http.StatusText(resp.StatusCode)}
		if len(respBody) > 0 {
			// Best effort: keep the default title if the body is not
			// a problem document.
			_ = json.Unmarshal(respBody, apiErr)
		}
		c.logger.Debug("%s %s -> %d: %s", method, path, resp.StatusCode, apiErr.Title)
		return apiErr
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("%s %s: failed to decode response: %w", method, path, err)
		}
	}
	return nil
}

// authHeader computes the signed authorization header: an HMAC-SHA256
// signature over the canonical request, keyed by a timestamped signing key
// derived from the client secret.
func (c *Client) authHeader(method, path string, payload []byte) string {
	timestamp := c.now().UTC().Format("20060102T15:04:05+0000")
	nonce := uuid.NewString()

	var contentHash string
	if method == http.MethodPost && len(payload) > 0 {
		sum := sha256.Sum256(payload)
		contentHash = base64.StdEncoding.EncodeToString(sum[:])
	}

	unsigned := fmt.Sprintf("EG1-HMAC-SHA256 client_token=%s;access_token=%s;timestamp=%s;nonce=%s;",
		c.creds.ClientToken, c.creds.AccessToken, timestamp, nonce)

	canonical := fmt.Sprintf("%s\thttps\t%s\t%s\t\t%s\t%s",
		method, c.creds.Host, path, contentHash, unsigned)

	signingKey := hmacBase64([]byte(c.creds.ClientSecret), timestamp)
	signature := hmacBase64([]byte(signingKey), canonical)

	return unsigned + "signature=" + signature
}

func hmacBase64(key []byte, data string) string {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(data))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
