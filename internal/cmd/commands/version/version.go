package version

import (
	"github.com/hashicorp-forge/aps-automation/internal/cmd/base"
	"github.com/hashicorp-forge/aps-automation/internal/version"
)

type Command struct {
	*base.Command
}

func (c *Command) Synopsis() string {
	return "Print the version"
}

func (c *Command) Help() string {
	return `Usage: aps-automation version

  Prints the version of aps-automation.`
}

func (c *Command) Run(args []string) int {
	c.UI.Output(version.Version)
	return 0
}
