package aps

import (
	"crypto/tls"
	"fmt"
	"net/http"
	"net/url"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/spf13/afero"
)

const (
	// DefaultBaseURL is the APS gateway every API area hangs off.
	DefaultBaseURL = "https://developer.api.autodesk.com"

	// DefaultRegion is the Design Automation region segment.
	DefaultRegion = "us-east"
)

// Config contains configuration for the APS client.
//
// Example configuration (HCL):
//
//	aps {
//	  base_url = "https://developer.api.autodesk.com"
//	  region   = "us-east"
//	  timeout  = "30s"
//	}
type Config struct {
	// BaseURL is the APS gateway.
	// Default: "https://developer.api.autodesk.com"
	BaseURL string `json:"baseUrl"`

	// Region is the Design Automation region segment used in
	// /da/{region}/v3 paths.
	// Default: "us-east"
	Region string `json:"region"`

	// TLSVerify controls TLS certificate verification
	// Set to false only for development/testing with self-signed certs
	TLSVerify *bool `json:"tlsVerify,omitempty"`

	// Timeout for JSON API requests
	// Default: 30 seconds
	Timeout time.Duration `json:"timeout,omitempty"`

	// TransferTimeout for raw signed URL uploads/downloads and app bundle
	// uploads, which move whole files.
	// Default: 120 seconds
	TransferTimeout time.Duration `json:"transferTimeout,omitempty"`

	// FS is used for every local file read or written by the client.
	// Default: the OS filesystem
	FS afero.Fs `json:"-"`

	// HTTPClient overrides the client built from the settings above.
	HTTPClient *http.Client `json:"-"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	tlsVerify := true
	return &Config{
		BaseURL:         DefaultBaseURL,
		Region:          DefaultRegion,
		TLSVerify:       &tlsVerify,
		Timeout:         30 * time.Second,
		TransferTimeout: 120 * time.Second,
		FS:              afero.NewOsFs(),
	}
}

// SetDefaults fills unset fields from DefaultConfig.
func (c *Config) SetDefaults() {
	defaults := DefaultConfig()
	if c.BaseURL == "" {
		c.BaseURL = defaults.BaseURL
	}
	if c.Region == "" {
		c.Region = defaults.Region
	}
	if c.TLSVerify == nil {
		c.TLSVerify = defaults.TLSVerify
	}
	if c.Timeout == 0 {
		c.Timeout = defaults.Timeout
	}
	if c.TransferTimeout == 0 {
		c.TransferTimeout = defaults.TransferTimeout
	}
	if c.FS == nil {
		c.FS = defaults.FS
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.BaseURL, validation.Required, validation.By(httpURL)),
		validation.Field(&c.Region, validation.Required),
		validation.Field(&c.Timeout, validation.Min(time.Duration(1))),
		validation.Field(&c.TransferTimeout, validation.Min(time.Duration(1))),
	)
}

func httpURL(value interface{}) error {
	s, _ := value.(string)
	parsedURL, err := url.Parse(s)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("must use http or https scheme, got: %s", parsedURL.Scheme)
	}
	return nil
}

// NewHTTPClient creates a configured HTTP client with the given timeout.
func (c *Config) NewHTTPClient(timeout time.Duration) *http.Client {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}

	// Configure TLS verification
	if c.TLSVerify != nil && !*c.TLSVerify {
		transport.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: true,
		}
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}
