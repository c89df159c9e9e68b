package appbundle

import (
	"flag"
	"fmt"

	"github.com/hashicorp-forge/aps-automation/internal/cmd/base"
	"github.com/hashicorp-forge/aps-automation/internal/config"
	"github.com/hashicorp-forge/aps-automation/pkg/automation"
)

type PublishCommand struct {
	*base.Command

	client          base.ClientFlags
	flagDefinitions string
	flagUpdate      bool
	flagDescription string
}

func (c *PublishCommand) Synopsis() string {
	return "Publish an app bundle"
}

func (c *PublishCommand) Help() string {
	return `Usage: aps-automation appbundle publish [options] NAME

  Registers the named app bundle, uploads its zip and creates its alias.
  With -update, uploads a new version of an existing app bundle and moves
  the alias to it instead.` + c.Flags().Help()
}

func (c *PublishCommand) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("appbundle publish", flag.ContinueOnError))

	c.client.Register(f)
	f.StringVar(
		&c.flagDefinitions, "definitions", "aps.hcl",
		"Path to the definitions file.",
	)
	f.BoolVar(
		&c.flagUpdate, "update", false,
		"Publish a new version of an existing app bundle.",
	)
	f.StringVar(
		&c.flagDescription, "description", "",
		"Description of the new version when updating.",
	)

	return f
}

func (c *PublishCommand) Run(args []string) int {
	ui := c.UI

	f := c.Flags()
	if err := f.Parse(args); err != nil {
		ui.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}
	if f.NArg() != 1 {
		ui.Error("exactly one app bundle name is required")
		return 1
	}

	defs, err := config.LoadDefinitions(c.flagDefinitions)
	if err != nil {
		ui.Error(fmt.Sprintf("error loading definitions: %v", err))
		return 1
	}
	def, err := defs.AppBundle(f.Arg(0))
	if err != nil {
		ui.Error(err.Error())
		return 1
	}
	bundle := def.Build()

	ctx, cancel := c.Context()
	defer cancel()

	session, err := c.NewSession(c.client)
	if err != nil {
		ui.Error(fmt.Sprintf("error loading configuration: %v", err))
		return 1
	}
	token, err := session.AccessToken(ctx)
	if err != nil {
		ui.Error(fmt.Sprintf("error getting access token: %v", err))
		return 1
	}

	if c.flagUpdate {
		res, err := automation.PublishAppBundleUpdate(ctx, session.Client, token, automation.UpdateRequest{
			AppBundleID: bundle.ID,
			Engine:      bundle.Engine,
			Alias:       bundle.Alias,
			ZipPath:     bundle.ZipPath,
			Description: c.flagDescription,
		})
		if err != nil {
			ui.Error(fmt.Sprintf("error updating app bundle: %v", err))
			return 1
		}
		ui.Info(fmt.Sprintf("✓ App bundle %s version %d published, alias %s now at version %d",
			res.AppBundleID, res.NewVersion, res.Alias, res.AliasVersion))
		return 0
	}

	version, err := bundle.Deploy(ctx, session.Client, token)
	if err != nil {
		ui.Error(fmt.Sprintf("error publishing app bundle: %v", err))
		return 1
	}

	nickname, err := session.Nickname(ctx, token)
	if err != nil {
		c.Log.Warn("failed to read nickname", "error", err)
		nickname = "<nickname>"
	}
	ui.Info(fmt.Sprintf("✓ App bundle %s version %d published as %s",
		bundle.ID, version, bundle.FullAlias(nickname)))
	return 0
}
