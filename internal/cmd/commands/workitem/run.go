package workitem

import (
	"flag"
	"fmt"
	"sort"
	"time"

	"github.com/hashicorp-forge/aps-automation/internal/cmd/base"
	"github.com/hashicorp-forge/aps-automation/internal/config"
	"github.com/hashicorp-forge/aps-automation/pkg/aps"
	"github.com/hashicorp-forge/aps-automation/pkg/automation"
)

type RunCommand struct {
	*base.Command

	client          base.ClientFlags
	flagDefinitions string
	flagUploads     base.KeyValueFlag
	flagDownloads   base.KeyValueFlag
	flagInterval    time.Duration
	flagMaxWait     time.Duration
	flagNoWait      bool
}

func (c *RunCommand) Synopsis() string {
	return "Run a work item and wait for it"
}

func (c *RunCommand) Help() string {
	return `Usage: aps-automation workitem run [options] NAME

  Binds the parameters of the named work item, submits it and polls its
  status. Bucket inputs given with -upload are uploaded first, bucket
  outputs given with -download are fetched after success, and delegated
  outputs are registered as project versions after success.

  Delegated work items need a three-legged token from the login command.` +
		c.Flags().Help()
}

func (c *RunCommand) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("workitem run", flag.ContinueOnError))

	c.client.Register(f)
	f.StringVar(
		&c.flagDefinitions, "definitions", "aps.hcl",
		"Path to the definitions file.",
	)
	c.flagUploads = base.KeyValueFlag{}
	f.Var(
		c.flagUploads, "upload",
		"Upload a local file for an input, as name=path. May be repeated.",
	)
	c.flagDownloads = base.KeyValueFlag{}
	f.Var(
		c.flagDownloads, "download",
		"Download an output after success, as name=path. May be repeated.",
	)
	f.DurationVar(
		&c.flagInterval, "interval", automation.DefaultPollInterval,
		"Time between status checks.",
	)
	f.DurationVar(
		&c.flagMaxWait, "max-wait", automation.DefaultMaxWait,
		"Stop polling after this long and report the last status.",
	)
	f.BoolVar(
		&c.flagNoWait, "no-wait", false,
		"Submit and print the work item id without polling.",
	)

	return f
}

func (c *RunCommand) Run(args []string) int {
	ui := c.UI

	f := c.Flags()
	if err := f.Parse(args); err != nil {
		ui.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}
	if f.NArg() != 1 {
		ui.Error("exactly one work item name is required")
		return 1
	}

	defs, err := config.LoadDefinitions(c.flagDefinitions)
	if err != nil {
		ui.Error(fmt.Sprintf("error loading definitions: %v", err))
		return 1
	}
	wiDef, err := defs.WorkItem(f.Arg(0))
	if err != nil {
		ui.Error(err.Error())
		return 1
	}
	activityDef, err := defs.Activity(wiDef.Activity)
	if err != nil {
		ui.Error(err.Error())
		return 1
	}
	if wiDef.Mode == "delegated" && c.client.Token == "" {
		ui.Error("delegated work items require -token; run the login command first")
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

	activity, err := activityDef.Build(nickname)
	if err != nil {
		ui.Error(fmt.Sprintf("error building activity: %v", err))
		return 1
	}
	wi, err := wiDef.Build(nickname, activity)
	if err != nil {
		ui.Error(fmt.Sprintf("error building work item: %v", err))
		return 1
	}

	t, err := assignTransfers(wi, c.flagUploads, c.flagDownloads)
	if err != nil {
		ui.Error(err.Error())
		return 1
	}
	for p, path := range t.uploads {
		ui.Info(fmt.Sprintf("Uploading %s for %s", path, p.Name))
		if err := p.Upload(ctx, session.Client, token, path); err != nil {
			ui.Error(fmt.Sprintf("error uploading input: %v", err))
			return 1
		}
	}
	for p := range t.downloads {
		if err := p.EnsureBucket(ctx, session.Client, token); err != nil {
			ui.Error(fmt.Sprintf("error preparing output bucket: %v", err))
			return 1
		}
	}

	if c.flagNoWait {
		sub, err := wi.Run(ctx, session.Client, token)
		if err != nil {
			ui.Error(fmt.Sprintf("error submitting work item: %v", err))
			return 1
		}
		ui.Output(sub.ID)
		return 0
	}

	poller := automation.NewPoller(session.Client, c.Log)
	poller.Interval = c.flagInterval
	poller.MaxWait = c.flagMaxWait

	result, err := wi.Execute(ctx, session.Client, token, poller)
	if result != nil {
		printStatus(ui, result.Status)
		names := make([]string, 0, len(result.Committed))
		for name := range result.Committed {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			ui.Info(fmt.Sprintf("✓ %s registered as %s", name, result.Committed[name].ItemID))
		}
	}
	if err != nil {
		ui.Error(fmt.Sprintf("error running work item: %v", err))
		return 1
	}

	switch result.Status.Status {
	case aps.StatusSuccess:
	case aps.StatusPending, aps.StatusInProgress:
		ui.Warn(fmt.Sprintf("Work item %s still %s after %s", result.ID, result.Status.Status, c.flagMaxWait))
		return 2
	default:
		return 1
	}

	for p, path := range t.downloads {
		if err := p.DownloadTo(ctx, session.Client, token, path); err != nil {
			ui.Error(fmt.Sprintf("error downloading %s: %v", p.Name, err))
			return 1
		}
		ui.Info(fmt.Sprintf("✓ %s downloaded to %s", p.Name, path))
	}
	return 0
}
