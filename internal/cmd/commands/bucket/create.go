package bucket

import (
	"flag"
	"fmt"

	"github.com/hashicorp-forge/aps-automation/internal/cmd/base"
	"github.com/hashicorp-forge/aps-automation/pkg/aps"
)

type CreateCommand struct {
	*base.Command

	client     base.ClientFlags
	flagPolicy string
	flagAccess string
	flagRegion string
}

func (c *CreateCommand) Synopsis() string {
	return "Create a bucket if it does not exist"
}

func (c *CreateCommand) Help() string {
	return `Usage: aps-automation bucket create [options] BUCKET_KEY

  Creates an OSS bucket. An existing bucket is not an error.` +
		c.Flags().Help()
}

func (c *CreateCommand) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("bucket create", flag.ContinueOnError))

	c.client.Register(f)
	f.StringVar(
		&c.flagPolicy, "policy", string(aps.PolicyTransient),
		"Retention policy: transient, temporary or persistent.",
	)
	f.StringVar(
		&c.flagAccess, "access", "", "Bucket access, e.g. full or read.",
	)
	f.StringVar(
		&c.flagRegion, "region", "", "Storage region, e.g. US or EMEA.",
	)

	return f
}

func (c *CreateCommand) Run(args []string) int {
	ui := c.UI

	f := c.Flags()
	if err := f.Parse(args); err != nil {
		ui.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}
	if f.NArg() != 1 {
		ui.Error("exactly one bucket key is required")
		return 1
	}

	policy := aps.PolicyKey(c.flagPolicy)
	switch policy {
	case aps.PolicyTransient, aps.PolicyTemporary, aps.PolicyPersistent:
	default:
		ui.Error(fmt.Sprintf("invalid policy %q", c.flagPolicy))
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

	bucketKey := f.Arg(0)
	if err := session.Client.EnsureBucket(ctx, token, aps.CreateBucketRequest{
		BucketKey: bucketKey,
		Access:    c.flagAccess,
		PolicyKey: policy,
		Region:    c.flagRegion,
	}); err != nil {
		ui.Error(fmt.Sprintf("error creating bucket: %v", err))
		return 1
	}

	ui.Info(fmt.Sprintf("✓ Bucket %s is ready", bucketKey))
	return 0
}
