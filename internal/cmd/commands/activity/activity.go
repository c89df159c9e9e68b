package activity

import (
	"github.com/mitchellh/cli"

	"github.com/hashicorp-forge/aps-automation/internal/cmd/base"
)

type Command struct {
	*base.Command
}

func (c *Command) Synopsis() string {
	return "Manage activities"
}

func (c *Command) Help() string {
	return `Usage: aps-automation activity <subcommand> [options] [args]

  This command groups subcommands for activitys defined in an HCL definitions
  file.`
}

func (c *Command) Run(args []string) int {
	return cli.RunResultHelp
}
