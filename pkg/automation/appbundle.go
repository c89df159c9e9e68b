package automation

import (
	"context"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/hashicorp-forge/aps-automation/pkg/aps"
)

// DefaultUpdateDescription is used by PublishAppBundleUpdate when no
// description is given.
const DefaultUpdateDescription = "Automated update"

// AppBundle is a client-side app bundle definition.
type AppBundle struct {
	ID          string
	Engine      string
	Alias       string
	ZipPath     string
	Description string

	// Version is 0 until Deploy succeeds.
	Version int
}

// Validate checks the definition.
func (b *AppBundle) Validate() error {
	return validation.ValidateStruct(b,
		validation.Field(&b.ID, validation.Required),
		validation.Field(&b.Engine, validation.Required),
		validation.Field(&b.Alias, validation.Required),
		validation.Field(&b.ZipPath, validation.Required),
	)
}

// FullAlias returns the qualified alias activities reference.
func (b *AppBundle) FullAlias(nickname string) string {
	return FullAlias(nickname, b.ID, b.Alias)
}

// Deploy registers the app bundle, uploads the zip, records the version and
// creates the alias. It returns the registered version.
func (b *AppBundle) Deploy(ctx context.Context, client *aps.Client, token string) (int, error) {
	if err := b.Validate(); err != nil {
		return 0, fmt.Errorf("invalid app bundle: %w", err)
	}

	reg, err := client.RegisterAppBundle(ctx, token, b.ID, b.Engine, b.Description)
	if err != nil {
		return 0, err
	}
	if err := client.UploadAppBundle(ctx, reg.UploadParameters, b.ZipPath); err != nil {
		return 0, err
	}
	b.Version = reg.Version

	if _, err := client.CreateAppBundleAlias(ctx, token, b.ID, b.Alias, b.Version); err != nil {
		return b.Version, err
	}
	return b.Version, nil
}

// UpdateRequest describes a redeploy of an existing app bundle.
type UpdateRequest struct {
	AppBundleID string
	Engine      string
	Alias       string
	ZipPath     string
	Description string
}

// PublishResult reports where an update landed.
type PublishResult struct {
	AppBundleID  string
	NewVersion   int
	Alias        string
	AliasVersion int
}

// PublishAppBundleUpdate uploads a new version of an existing app bundle and
// moves the alias to it, creating the alias if it does not exist. Running
// work items keep the version they started with.
func PublishAppBundleUpdate(ctx context.Context, client *aps.Client, token string, req UpdateRequest) (*PublishResult, error) {
	if req.Description == "" {
		req.Description = DefaultUpdateDescription
	}

	v, err := client.CreateAppBundleVersion(ctx, token, req.AppBundleID, req.Engine, req.Description)
	if err != nil {
		return nil, err
	}
	if err := client.UploadAppBundle(ctx, v.UploadParameters, req.ZipPath); err != nil {
		return nil, err
	}

	alias, err := client.MoveOrCreateAppBundleAlias(ctx, token, req.AppBundleID, req.Alias, v.Version)
	if err != nil {
		return nil, err
	}

	aliasVersion := alias.Version
	if aliasVersion == 0 {
		aliasVersion = v.Version
	}

	return &PublishResult{
		AppBundleID:  req.AppBundleID,
		NewVersion:   v.Version,
		Alias:        req.Alias,
		AliasVersion: aliasVersion,
	}, nil
}
