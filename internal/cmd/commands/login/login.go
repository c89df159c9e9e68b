package login

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/browser"

	"github.com/hashicorp-forge/aps-automation/internal/cmd/base"
)

type Command struct {
	*base.Command

	client        base.ClientFlags
	flagNoBrowser bool
	flagTimeout   time.Duration
}

func (c *Command) Synopsis() string {
	return "Obtain a three-legged access token for delegated work items"
}

func (c *Command) Help() string {
	return `Usage: aps-automation login [options]

  Runs the authorization-code flow with PKCE. A local server listens on the
  configured callback port for the redirect; the application's callback URL
  must be http://localhost:<callback_port>/callback. The access token is
  printed on success and can be passed to other commands with -token.` +
		c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("login", flag.ContinueOnError))

	f.StringVar(
		&c.client.Config, "config", "", "Path to the configuration file.",
	)
	f.BoolVar(
		&c.flagNoBrowser, "no-browser", false,
		"Print the consent URL instead of opening a browser.",
	)
	f.DurationVar(
		&c.flagTimeout, "timeout", 5*time.Minute,
		"How long to wait for the browser redirect.",
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

	port := session.Config.APS.CallbackPort
	redirectURL := fmt.Sprintf("http://localhost:%d%s", port, callbackPath)
	flow := session.Client.ThreeLegged(session.Config.Credentials(), redirectURL)

	state := uuid.NewString()
	cb, err := listenForCallback(port, state)
	if err != nil {
		ui.Error(fmt.Sprintf("error starting callback server: %v", err))
		return 1
	}
	defer cb.Close()

	consentURL := flow.AuthCodeURL(state)
	if c.flagNoBrowser {
		ui.Info("Open this URL to sign in:")
		ui.Output(consentURL)
	} else {
		ui.Info("Opening the browser to sign in...")
		if err := browser.OpenURL(consentURL); err != nil {
			ui.Warn(fmt.Sprintf("Could not open browser: %v", err))
			ui.Output(consentURL)
		}
	}

	waitCtx, waitCancel := context.WithTimeout(ctx, c.flagTimeout)
	defer waitCancel()

	code, err := cb.Wait(waitCtx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("no redirect received within %s", c.flagTimeout)
		}
		ui.Error(fmt.Sprintf("error waiting for authorization: %v", err))
		return 1
	}

	token, err := flow.Exchange(ctx, code)
	if err != nil {
		ui.Error(fmt.Sprintf("error exchanging authorization code: %v", err))
		return 1
	}

	ui.Info(fmt.Sprintf("✓ Signed in, token expires at %s", token.Expiry.Format(time.RFC3339)))
	ui.Output(token.AccessToken)
	return 0
}
