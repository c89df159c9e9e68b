package base

import (
	"context"
	"fmt"

	"github.com/hashicorp-forge/aps-automation/internal/config"
	"github.com/hashicorp-forge/aps-automation/pkg/aps"
)

// ClientFlags are the flags of every command that calls APS.
type ClientFlags struct {
	Config string
	Token  string
}

// Register adds the client flags to f.
func (cf *ClientFlags) Register(f *FlagSet) {
	f.StringVar(
		&cf.Config, "config", "",
		"Path to the configuration file. Credentials may instead come from "+
			config.EnvClientID+" and "+config.EnvClientSecret+".",
	)
	f.StringVar(
		&cf.Token, "token", "",
		"Access token to use instead of requesting a two-legged token. "+
			"Required for delegated work items; see the login command.",
	)
}

// Session is a loaded configuration and the client built from it.
type Session struct {
	Config *config.Config
	Client *aps.Client

	token string
}

// NewSession loads configuration and creates the APS client.
func (c *Command) NewSession(cf ClientFlags) (*Session, error) {
	cfg, err := config.NewConfig(cf.Config)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	clientCfg, err := cfg.ClientConfig()
	if err != nil {
		return nil, err
	}
	client, err := aps.NewClient(clientCfg, c.Log)
	if err != nil {
		return nil, err
	}

	return &Session{
		Config: cfg,
		Client: client,
		token:  cf.Token,
	}, nil
}

// AccessToken returns the token given on the command line, or requests a
// two-legged token.
func (s *Session) AccessToken(ctx context.Context) (string, error) {
	if s.token != "" {
		return s.token, nil
	}
	token, err := s.Client.TwoLeggedToken(ctx, s.Config.Credentials())
	if err != nil {
		return "", err
	}
	return token.AccessToken, nil
}

// Nickname returns the forge app nickname used to qualify ids.
func (s *Session) Nickname(ctx context.Context, token string) (string, error) {
	return s.Client.GetNickname(ctx, token)
}
