package token

import (
	"encoding/json"
	"flag"
	"fmt"
	"strings"

	"github.com/hashicorp-forge/aps-automation/internal/cmd/base"
)

type Command struct {
	*base.Command

	client     base.ClientFlags
	flagScopes string
	flagJSON   bool
}

func (c *Command) Synopsis() string {
	return "Request a two-legged access token"
}

func (c *Command) Help() string {
	return `Usage: aps-automation token [options]

  Requests a two-legged access token with the configured application
  credentials and prints it.` + c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("token", flag.ContinueOnError))

	f.StringVar(
		&c.client.Config, "config", "", "Path to the configuration file.",
	)
	f.StringVar(
		&c.flagScopes, "scopes", "",
		"Comma-separated scopes overriding the configured scopes.",
	)
	f.BoolVar(
		&c.flagJSON, "json", false,
		"Print the token response as JSON.",
	)

	return f
}

func (c *Command) Run(args []string) int {
	ui := c.UI

	f := c.Flags()
	if err := f.Parse(args); err != nil {
		ui.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}

	ctx, cancel := c.Context()
	defer cancel()

	session, err := c.NewSession(c.client)
	if err != nil {
		ui.Error(fmt.Sprintf("error loading configuration: %v", err))
		return 1
	}

	creds := session.Config.Credentials()
	if c.flagScopes != "" {
		creds.Scopes = strings.Split(c.flagScopes, ",")
	}

	token, err := session.Client.TwoLeggedToken(ctx, creds)
	if err != nil {
		ui.Error(fmt.Sprintf("error requesting token: %v", err))
		return 1
	}

	if !c.flagJSON {
		ui.Output(token.AccessToken)
		return 0
	}

	out, err := json.MarshalIndent(map[string]interface{}{
		"access_token": token.AccessToken,
		"token_type":   token.TokenType,
		"expires_at":   token.Expiry,
	}, "", "  ")
	if err != nil {
		ui.Error(fmt.Sprintf("error encoding token: %v", err))
		return 1
	}
	ui.Output(string(out))
	return 0
}
