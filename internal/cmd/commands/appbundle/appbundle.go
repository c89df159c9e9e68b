package appbundle

import (
	"github.com/mitchellh/cli"

	"github.com/hashicorp-forge/aps-automation/internal/cmd/base"
)

type Command struct {
	*base.Command
}

func (c *Command) Synopsis() string {
	return "Manage app bundles"
}

func (c *Command) Help() string {
	return `Usage: aps-automation appbundle <subcommand> [options] [args]

  This command groups subcommands for appbundles defined in an HCL definitions
  file.`
}

func (c *Command) Run(args []string) int {
	return cli.RunResultHelp
}
