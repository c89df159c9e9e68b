package config

import (
	"fmt"
	"os"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/hashicorp/hcl/v2/hclsimple"

	"github.com/hashicorp-forge/aps-automation/pkg/aps"
)

const (
	// DefaultCallbackPort is the local port the login command listens on
	// for the OAuth redirect.
	DefaultCallbackPort = 8080

	EnvClientID     = "APS_CLIENT_ID"
	EnvClientSecret = "APS_CLIENT_SECRET"
	EnvBaseURL      = "APS_BASE_URL"
	EnvRegion       = "APS_REGION"
)

// Config is the configuration for the aps-automation CLI.
type Config struct {
	// APS configures credentials and endpoints.
	APS *APS `hcl:"aps,block"`
}

// APS is the aps block of the configuration file.
//
//	aps {
//	  client_id     = "..."
//	  client_secret = "..."
//	  region        = "us-east"
//	  scopes        = ["code:all", "bucket:create", "bucket:read", "data:read", "data:write"]
//	  callback_port = 8080
//	  timeout       = "30s"
//	}
type APS struct {
	ClientID     string   `hcl:"client_id,optional"`
	ClientSecret string   `hcl:"client_secret,optional"`
	BaseURL      string   `hcl:"base_url,optional"`
	Region       string   `hcl:"region,optional"`
	Scopes       []string `hcl:"scopes,optional"`
	CallbackPort int      `hcl:"callback_port,optional"`
	Timeout      string   `hcl:"timeout,optional"`
	TLSVerify    *bool    `hcl:"tls_verify,optional"`
}

// NewConfig loads the configuration file at filename, which may be empty,
// and applies environment overrides.
func NewConfig(filename string) (*Config, error) {
	cfg := &Config{}

	if filename != "" {
		src, err := os.ReadFile(filename)
		if err != nil {
			return nil, fmt.Errorf("failed to read configuration file: %w", err)
		}
		cfg, err = Parse(filename, src)
		if err != nil {
			return nil, err
		}
	}

	cfg.applyEnv(os.LookupEnv)
	cfg.setDefaults()

	return cfg, nil
}

// Parse decodes configuration source. The filename extension selects HCL or
// JSON syntax.
func Parse(filename string, src []byte) (*Config, error) {
	var cfg Config
	if err := hclsimple.Decode(filename, src, nil, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file: %w", err)
	}
	return &cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	if c.APS == nil {
		c.APS = &APS{}
	}

	overrides := map[string]*string{
		EnvClientID:     &c.APS.ClientID,
		EnvClientSecret: &c.APS.ClientSecret,
		EnvBaseURL:      &c.APS.BaseURL,
		EnvRegion:       &c.APS.Region,
	}
	for env, field := range overrides {
		if v, ok := lookup(env); ok && v != "" {
			*field = v
		}
	}
}

func (c *Config) setDefaults() {
	if c.APS == nil {
		c.APS = &APS{}
	}
	if c.APS.CallbackPort == 0 {
		c.APS.CallbackPort = DefaultCallbackPort
	}
}

// Validate checks that credentials are present and settings parse.
func (c *Config) Validate() error {
	if c.APS == nil {
		return fmt.Errorf("aps block is required")
	}
	a := c.APS
	return validation.ValidateStruct(a,
		validation.Field(&a.ClientID, validation.Required),
		validation.Field(&a.ClientSecret, validation.Required),
		validation.Field(&a.CallbackPort, validation.Min(1), validation.Max(65535)),
		validation.Field(&a.Timeout, validation.By(duration)),
	)
}

func duration(value interface{}) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if _, err := time.ParseDuration(s); err != nil {
		return fmt.Errorf("invalid duration: %w", err)
	}
	return nil
}

// Credentials returns the application credentials.
func (c *Config) Credentials() aps.Credentials {
	return aps.Credentials{
		ClientID:     c.APS.ClientID,
		ClientSecret: c.APS.ClientSecret,
		Scopes:       c.APS.Scopes,
	}
}

// ClientConfig returns the APS client configuration.
func (c *Config) ClientConfig() (*aps.Config, error) {
	cfg := &aps.Config{
		BaseURL:   c.APS.BaseURL,
		Region:    c.APS.Region,
		TLSVerify: c.APS.TLSVerify,
	}
	if c.APS.Timeout != "" {
		timeout, err := time.ParseDuration(c.APS.Timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid timeout: %w", err)
		}
		cfg.Timeout = timeout
	}
	cfg.SetDefaults()
	return cfg, nil
}
