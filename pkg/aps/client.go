package aps

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/afero"
)

// Client talks to the APS REST APIs used by the automation workflow:
// authentication, Design Automation, OSS and Data Management.
//
// The client never caches or refreshes credentials. Every operation takes
// the bearer token it should use, so the same client serves two-legged
// service calls and three-legged calls made on behalf of an end user.
type Client struct {
	config   *Config
	client   *http.Client
	transfer *http.Client
	fs       afero.Fs
	logger   hclog.Logger
}

// NewClient creates a new APS client
func NewClient(cfg *Config, logger hclog.Logger) (*Client, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	cfg.SetDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid APS client config: %w", err)
	}

	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	c := &Client{
		config: cfg,
		fs:     cfg.FS,
		logger: logger.Named("aps"),
	}
	if cfg.HTTPClient != nil {
		c.client = cfg.HTTPClient
		c.transfer = cfg.HTTPClient
	} else {
		c.client = cfg.NewHTTPClient(cfg.Timeout)
		c.transfer = cfg.NewHTTPClient(cfg.TransferTimeout)
	}

	return c, nil
}

// FS returns the filesystem used for local file access.
func (c *Client) FS() afero.Fs {
	return c.fs
}

// Logger returns the client's logger.
func (c *Client) Logger() hclog.Logger {
	return c.logger
}

func (c *Client) authURL(path string) string {
	return c.config.BaseURL + "/authentication/v2" + path
}

func (c *Client) daURL(path string) string {
	return fmt.Sprintf("%s/da/%s/v3%s", c.config.BaseURL, c.config.Region, path)
}

func (c *Client) ossURL(path string) string {
	return c.config.BaseURL + "/oss/v2" + path
}

func (c *Client) dataURL(path string) string {
	return c.config.BaseURL + "/data/v1" + path
}

// request describes one JSON API call.
type request struct {
	method string
	url    string
	token  string
	body   interface{}

	// contentType defaults to application/json when body is set.
	contentType string
	header      http.Header
}

// do executes a JSON API request. Non-2xx responses become *RequestError;
// nothing is retried.
func (c *Client) do(ctx context.Context, r request, result interface{}) error {
	var bodyReader io.Reader
	if r.body != nil {
		bodyBytes, err := json.Marshal(r.body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, r.url, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}
	req.Header.Set("Accept", "application/json")
	if r.body != nil {
		contentType := r.contentType
		if contentType == "" {
			contentType = "application/json"
		}
		req.Header.Set("Content-Type", contentType)
	}
	for k, values := range r.header {
		for _, v := range values {
			req.Header.Add(k, v)
		}
	}

	c.logger.Debug("sending request", "method", r.method, "url", r.url)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Debug("request failed", "method", r.method, "url", r.url, "status", resp.StatusCode)
		return &RequestError{
			Method:     r.method,
			URL:        r.url,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(excerpt(respBody)),
		}
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return newContractError(r.method+" "+r.url, fmt.Sprintf("failed to decode response: %v", err), respBody)
		}
	}

	return nil
}

// transferRequest performs an unauthenticated request against a signed or
// pre-authorized URL. The URL itself is the credential and is not logged.
func (c *Client) transferRequest(ctx context.Context, method, target string, body io.Reader, contentType string, size int64) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if size >= 0 && body != nil {
		req.ContentLength = size
	}

	resp, err := c.transfer.Do(req)
	if err != nil {
		return nil, fmt.Errorf("transfer failed: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		respBody, _ := io.ReadAll(resp.Body)
		return nil, &RequestError{
			Method:     method,
			URL:        redactURL(target),
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(excerpt(respBody)),
		}
	}

	return resp, nil
}

// redactURL drops the query string, which carries the signature of a signed
// URL.
func redactURL(raw string) string {
	if i := strings.IndexByte(raw, '?'); i >= 0 {
		return raw[:i]
	}
	return raw
}
