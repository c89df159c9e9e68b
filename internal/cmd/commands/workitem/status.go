package workitem

import (
	"flag"
	"fmt"
	"time"

	"github.com/mitchellh/cli"

	"github.com/hashicorp-forge/aps-automation/internal/cmd/base"
	"github.com/hashicorp-forge/aps-automation/pkg/aps"
	"github.com/hashicorp-forge/aps-automation/pkg/automation"
)

type StatusCommand struct {
	*base.Command

	client       base.ClientFlags
	flagWait     bool
	flagInterval time.Duration
	flagMaxWait  time.Duration
}

func (c *StatusCommand) Synopsis() string {
	return "Show the status of a work item"
}

func (c *StatusCommand) Help() string {
	return `Usage: aps-automation workitem status [options] ID

  Prints the status of a submitted work item. With -wait, polls until the
  work item reaches a terminal status.` + c.Flags().Help()
}

func (c *StatusCommand) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("workitem status", flag.ContinueOnError))

	c.client.Register(f)
	f.BoolVar(
		&c.flagWait, "wait", false,
		"Poll until the work item reaches a terminal status.",
	)
	f.DurationVar(
		&c.flagInterval, "interval", automation.DefaultPollInterval,
		"Time between status checks with -wait.",
	)
	f.DurationVar(
		&c.flagMaxWait, "max-wait", automation.DefaultMaxWait,
		"Stop polling after this long with -wait.",
	)

	return f
}

func (c *StatusCommand) Run(args []string) int {
	ui := c.UI

	f := c.Flags()
	if err := f.Parse(args); err != nil {
		ui.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}
	if f.NArg() != 1 {
		ui.Error("exactly one work item id is required")
		return 1
	}
	id := f.Arg(0)

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

	var status *aps.WorkItemStatus
	if c.flagWait {
		poller := automation.NewPoller(session.Client, c.Log)
		poller.Interval = c.flagInterval
		poller.MaxWait = c.flagMaxWait
		status, err = poller.Poll(ctx, token, id)
	} else {
		status, err = session.Client.GetWorkItemStatus(ctx, token, id)
	}
	if err != nil {
		ui.Error(fmt.Sprintf("error reading work item status: %v", err))
		return 1
	}

	printStatus(ui, status)
	return 0
}

func printStatus(ui cli.Ui, s *aps.WorkItemStatus) {
	if s == nil {
		return
	}
	ui.Output(fmt.Sprintf("ID:       %s", s.ID))
	if s.Status == "" {
		ui.Output("Status:   unknown")
		return
	}
	ui.Output(fmt.Sprintf("Status:   %s", s.Status))
	if s.Progress != "" {
		ui.Output(fmt.Sprintf("Progress: %s", s.Progress))
	}
	if s.ReportURL != "" {
		ui.Output(fmt.Sprintf("Report:   %s", s.ReportURL))
	}
	if !s.Stats.TimeQueued.IsZero() && !s.Stats.TimeFinished.IsZero() {
		ui.Output(fmt.Sprintf("Duration: %s", s.Stats.TimeFinished.Sub(s.Stats.TimeQueued)))
	}
}
