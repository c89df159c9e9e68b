package automation

import (
	"context"
	"fmt"

	"github.com/hashicorp-forge/aps-automation/pkg/aps"
)

func delegatedArgument(storageID string, verb Verb, token string) aps.Argument {
	return aps.Argument{
		URL:     storageID,
		Verb:    string(verb),
		Headers: bearer(token),
	}
}

func requireClient(name string, bc *BindContext) error {
	if bc.Client == nil {
		return paramErr(name, ErrMissingClient)
	}
	return nil
}

// DelegatedInputParameter is an input read from the tip version of a
// project item. The storage id is resolved at bind time.
type DelegatedInputParameter struct {
	ParameterSpec

	ProjectID string
	ItemID    string

	// EngineInput marks the engine's primary input.
	EngineInput bool
}

var _ Parameter = (*DelegatedInputParameter)(nil)

func (p *DelegatedInputParameter) Spec() ParameterSpec { return p.ParameterSpec }
func (p *DelegatedInputParameter) engineInput() bool   { return p.EngineInput }
func (p *DelegatedInputParameter) sealed()             {}

// ResolveStorageID returns the storage object id of the item's tip version.
func (p *DelegatedInputParameter) ResolveStorageID(ctx context.Context, client *aps.Client, token string) (string, error) {
	tip, err := client.ItemTip(ctx, token, p.ProjectID, p.ItemID)
	if err != nil {
		return "", fmt.Errorf("parameter %q: %w", p.Name, err)
	}
	storageID, err := aps.FindTipStorageID(tip)
	if err != nil {
		return "", fmt.Errorf("parameter %q: %w", p.Name, err)
	}
	return storageID, nil
}

// Bind implements Parameter.
func (p *DelegatedInputParameter) Bind(ctx context.Context, bc *BindContext) (*Binding, error) {
	if err := requireClient(p.Name, bc); err != nil {
		return nil, err
	}
	storageID, err := p.ResolveStorageID(ctx, bc.Client, bc.Token)
	if err != nil {
		return nil, err
	}
	return &Binding{Argument: delegatedArgument(storageID, p.Verb, bc.Token)}, nil
}

// UploadResult identifies the storage and item an upload landed in.
type UploadResult struct {
	StorageID string
	ItemID    string
}

// UploadInputParameter is an input uploaded from a local file into a
// project folder at bind time, as a new version of the item with the same
// name or as a new item.
type UploadInputParameter struct {
	ParameterSpec

	ProjectID string
	FolderID  string
	FileName  string
	LocalPath string

	// EngineInput marks the engine's primary input.
	EngineInput bool
}

var _ Parameter = (*UploadInputParameter)(nil)

func (p *UploadInputParameter) Spec() ParameterSpec { return p.ParameterSpec }
func (p *UploadInputParameter) engineInput() bool   { return p.EngineInput }
func (p *UploadInputParameter) sealed()             {}

// Upload creates storage, uploads the local file into it and registers it
// as a version. Storage and bytes stay behind if version creation fails.
func (p *UploadInputParameter) Upload(ctx context.Context, client *aps.Client, token string) (*UploadResult, error) {
	itemID, found, err := client.FindItemByName(ctx, token, p.ProjectID, p.FolderID, p.FileName)
	if err != nil {
		return nil, fmt.Errorf("parameter %q: %w", p.Name, err)
	}

	storageID, err := client.CreateStorage(ctx, token, p.ProjectID, p.FolderID, p.FileName)
	if err != nil {
		return nil, fmt.Errorf("parameter %q: %w", p.Name, err)
	}

	bucket, object, err := aps.ParseObjectURN(storageID)
	if err != nil {
		return nil, fmt.Errorf("parameter %q: %w", p.Name, err)
	}
	if _, err := client.UploadFile(ctx, token, bucket, object, p.LocalPath); err != nil {
		return nil, fmt.Errorf("parameter %q: %w", p.Name, err)
	}

	itemID, err = registerVersion(ctx, client, token, p.ProjectID, p.FolderID, p.FileName, storageID, itemID, found)
	if err != nil {
		return nil, fmt.Errorf("parameter %q: %w", p.Name, err)
	}

	return &UploadResult{StorageID: storageID, ItemID: itemID}, nil
}

// Bind implements Parameter.
func (p *UploadInputParameter) Bind(ctx context.Context, bc *BindContext) (*Binding, error) {
	if err := requireClient(p.Name, bc); err != nil {
		return nil, err
	}
	res, err := p.Upload(ctx, bc.Client, bc.Token)
	if err != nil {
		return nil, err
	}
	return &Binding{Argument: delegatedArgument(res.StorageID, p.Verb, bc.Token)}, nil
}

// DelegatedOutputParameter is an output written into a project folder. The
// storage object is created at bind time; the version is registered by
// committing the returned StagedOutput once the work item has succeeded.
type DelegatedOutputParameter struct {
	ParameterSpec

	ProjectID string
	FolderID  string
	FileName  string
}

var _ Parameter = (*DelegatedOutputParameter)(nil)

func (p *DelegatedOutputParameter) Spec() ParameterSpec { return p.ParameterSpec }
func (p *DelegatedOutputParameter) sealed()             {}

// Stage creates a new storage object for the output. Each call creates a
// new object.
func (p *DelegatedOutputParameter) Stage(ctx context.Context, client *aps.Client, token string) (*StagedOutput, error) {
	storageID, err := client.CreateStorage(ctx, token, p.ProjectID, p.FolderID, p.FileName)
	if err != nil {
		return nil, fmt.Errorf("parameter %q: %w", p.Name, err)
	}
	return &StagedOutput{
		Name:      p.Name,
		ProjectID: p.ProjectID,
		FolderID:  p.FolderID,
		FileName:  p.FileName,
		StorageID: storageID,
	}, nil
}

// Bind implements Parameter.
func (p *DelegatedOutputParameter) Bind(ctx context.Context, bc *BindContext) (*Binding, error) {
	if err := requireClient(p.Name, bc); err != nil {
		return nil, err
	}
	staged, err := p.Stage(ctx, bc.Client, bc.Token)
	if err != nil {
		return nil, err
	}
	return &Binding{
		Argument: delegatedArgument(staged.StorageID, p.Verb, bc.Token),
		Staged:   staged,
	}, nil
}

// StagedOutput is a delegated output whose storage exists but whose version
// is not registered yet.
type StagedOutput struct {
	Name      string
	ProjectID string
	FolderID  string
	FileName  string
	StorageID string
}

// Commit registers the staged storage as a new version of the item with the
// same name, or as a new item. Call it only after the work item wrote the
// output.
func (s *StagedOutput) Commit(ctx context.Context, client *aps.Client, token string) (*UploadResult, error) {
	if s == nil || s.StorageID == "" {
		name := ""
		if s != nil {
			name = s.Name
		}
		return nil, paramErr(name, ErrNotStaged)
	}

	itemID, found, err := client.FindItemByName(ctx, token, s.ProjectID, s.FolderID, s.FileName)
	if err != nil {
		return nil, fmt.Errorf("parameter %q: %w", s.Name, err)
	}

	itemID, err = registerVersion(ctx, client, token, s.ProjectID, s.FolderID, s.FileName, s.StorageID, itemID, found)
	if err != nil {
		return nil, fmt.Errorf("parameter %q: %w", s.Name, err)
	}

	return &UploadResult{StorageID: s.StorageID, ItemID: itemID}, nil
}

// registerVersion adds a version to an existing item or creates the item,
// returning the item id.
func registerVersion(ctx context.Context, client *aps.Client, token, projectID, folderID, fileName, storageID, itemID string, exists bool) (string, error) {
	if exists {
		if _, err := client.CreateVersion(ctx, token, projectID, itemID, fileName, storageID); err != nil {
			return "", err
		}
		return itemID, nil
	}

	doc, err := client.CreateItem(ctx, token, projectID, folderID, fileName, storageID)
	if err != nil {
		return "", err
	}
	res, err := doc.Resource()
	if err != nil {
		return "", err
	}
	return res.ID, nil
}
