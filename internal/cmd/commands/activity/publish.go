package activity

import (
	"flag"
	"fmt"

	"github.com/hashicorp-forge/aps-automation/internal/cmd/base"
	"github.com/hashicorp-forge/aps-automation/internal/config"
)

type PublishCommand struct {
	*base.Command

	client          base.ClientFlags
	flagDefinitions string
}

func (c *PublishCommand) Synopsis() string {
	return "Publish an activity"
}

func (c *PublishCommand) Help() string {
	return `Usage: aps-automation activity publish [options] NAME

  Creates the named activity and points its alias at version 1. An app
  bundle reference without a nickname is qualified with the forge app
  nickname.` + c.Flags().Help()
}

func (c *PublishCommand) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("activity publish", flag.ContinueOnError))

	c.client.Register(f)
	f.StringVar(
		&c.flagDefinitions, "definitions", "aps.hcl",
		"Path to the definitions file.",
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
		ui.Error("exactly one activity name is required")
		return 1
	}

	defs, err := config.LoadDefinitions(c.flagDefinitions)
	if err != nil {
		ui.Error(fmt.Sprintf("error loading definitions: %v", err))
		return 1
	}
	def, err := defs.Activity(f.Arg(0))
	if err != nil {
		ui.Error(err.Error())
		return 1
	}

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
	nickname, err := session.Nickname(ctx, token)
	if err != nil {
		ui.Error(fmt.Sprintf("error reading nickname: %v", err))
		return 1
	}

	activity, err := def.Build(nickname)
	if err != nil {
		ui.Error(fmt.Sprintf("error building activity: %v", err))
		return 1
	}
	if err := activity.Deploy(ctx, session.Client, token); err != nil {
		ui.Error(fmt.Sprintf("error publishing activity: %v", err))
		return 1
	}

	ui.Info(fmt.Sprintf("✓ Activity published as %s", activity.FullAlias(nickname)))
	return 0
}
