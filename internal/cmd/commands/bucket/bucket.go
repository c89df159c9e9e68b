package bucket

import (
	"github.com/mitchellh/cli"

	"github.com/hashicorp-forge/aps-automation/internal/cmd/base"
)

type Command struct {
	*base.Command
}

func (c *Command) Synopsis() string {
	return "Manage OSS buckets"
}

func (c *Command) Help() string {
	return `Usage: aps-automation bucket <subcommand> [options] [args]

  This command groups subcommands for OSS buckets.`
}

func (c *Command) Run(args []string) int {
	return cli.RunResultHelp
}
