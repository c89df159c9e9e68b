package cmd

import (
	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"

	"github.com/hashicorp-forge/aps-automation/internal/cmd/base"
	"github.com/hashicorp-forge/aps-automation/internal/cmd/commands/activity"
	"github.com/hashicorp-forge/aps-automation/internal/cmd/commands/appbundle"
	"github.com/hashicorp-forge/aps-automation/internal/cmd/commands/bucket"
	"github.com/hashicorp-forge/aps-automation/internal/cmd/commands/login"
	"github.com/hashicorp-forge/aps-automation/internal/cmd/commands/nickname"
	"github.com/hashicorp-forge/aps-automation/internal/cmd/commands/token"
	"github.com/hashicorp-forge/aps-automation/internal/cmd/commands/version"
	"github.com/hashicorp-forge/aps-automation/internal/cmd/commands/workitem"
)

// Commands is the mapping of all available commands.
var Commands map[string]cli.CommandFactory

func initCommands(log hclog.Logger, ui cli.Ui) {
	b := base.NewCommand(log, ui)

	Commands = map[string]cli.CommandFactory{
		"token": func() (cli.Command, error) {
			return &token.Command{Command: b}, nil
		},
		"login": func() (cli.Command, error) {
			return &login.Command{Command: b}, nil
		},
		"nickname": func() (cli.Command, error) {
			return &nickname.Command{Command: b}, nil
		},
		"bucket": func() (cli.Command, error) {
			return &bucket.Command{Command: b}, nil
		},
		"bucket create": func() (cli.Command, error) {
			return &bucket.CreateCommand{Command: b}, nil
		},
		"appbundle": func() (cli.Command, error) {
			return &appbundle.Command{Command: b}, nil
		},
		"appbundle publish": func() (cli.Command, error) {
			return &appbundle.PublishCommand{Command: b}, nil
		},
		"activity": func() (cli.Command, error) {
			return &activity.Command{Command: b}, nil
		},
		"activity publish": func() (cli.Command, error) {
			return &activity.PublishCommand{Command: b}, nil
		},
		"workitem": func() (cli.Command, error) {
			return &workitem.Command{Command: b}, nil
		},
		"workitem run": func() (cli.Command, error) {
			return &workitem.RunCommand{Command: b}, nil
		},
		"workitem status": func() (cli.Command, error) {
			return &workitem.StatusCommand{Command: b}, nil
		},
		"version": func() (cli.Command, error) {
			return &version.Command{Command: b}, nil
		},
	}
}
