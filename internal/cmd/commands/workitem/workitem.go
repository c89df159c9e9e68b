package workitem

import (
	"github.com/mitchellh/cli"

	"github.com/hashicorp-forge/aps-automation/internal/cmd/base"
)

type Command struct {
	*base.Command
}

func (c *Command) Synopsis() string {
	return "Run and inspect work items"
}

func (c *Command) Help() string {
	return `Usage: aps-automation workitem <subcommand> [options] [args]

  This command groups subcommands for workitems defined in an HCL definitions
  file.`
}

func (c *Command) Run(args []string) int {
	return cli.RunResultHelp
}
