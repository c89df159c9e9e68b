package nickname

import (
	"flag"
	"fmt"

	"github.com/hashicorp-forge/aps-automation/internal/cmd/base"
)

type Command struct {
	*base.Command

	client  base.ClientFlags
	flagSet string
}

func (c *Command) Synopsis() string {
	return "Show or set the forge app nickname"
}

func (c *Command) Help() string {
	return `Usage: aps-automation nickname [options]

  Prints the nickname that qualifies app bundle and activity ids. With -set,
  requests a new nickname first. If the nickname cannot be changed because
  the app already owns resources, the current nickname is printed.` +
		c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("nickname", flag.ContinueOnError))

	c.client.Register(f)
	f.StringVar(
		&c.flagSet, "set", "", "Nickname to request.",
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
	token, err := session.AccessToken(ctx)
	if err != nil {
		ui.Error(fmt.Sprintf("error getting access token: %v", err))
		return 1
	}

	var nickname string
	if c.flagSet != "" {
		nickname, err = session.Client.SetNickname(ctx, token, c.flagSet)
	} else {
		nickname, err = session.Nickname(ctx, token)
	}
	if err != nil {
		ui.Error(fmt.Sprintf("error reading nickname: %v", err))
		return 1
	}

	if c.flagSet != "" && nickname != c.flagSet {
		ui.Warn(fmt.Sprintf("Nickname was not changed; keeping %q", nickname))
	}
	ui.Output(nickname)
	return 0
}
