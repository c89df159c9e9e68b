package automation

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/hashicorp-forge/aps-automation/pkg/aps"
)

// WorkItem is one invocation of an activity alias.
type WorkItem struct {
	// ActivityID is the fully qualified activity alias.
	ActivityID string
	Parameters []Parameter
	Mode       AuthMode

	// Signature, when set, submits the work item as a signed public work
	// item.
	Signature string
}

// Submission is a submitted work item.
type Submission struct {
	ID string

	// Staged holds the delegated outputs to commit after success, keyed by
	// parameter name.
	Staged map[string]*StagedOutput
}

// Result is the outcome of Execute.
type Result struct {
	Submission
	Status *aps.WorkItemStatus

	// Committed holds the committed delegated outputs, keyed by parameter
	// name.
	Committed map[string]*UploadResult
}

// BuildArguments binds every parameter in order. A later parameter with the
// same name replaces an earlier one.
func (w *WorkItem) BuildArguments(ctx context.Context, client *aps.Client, token string) (aps.Arguments, map[string]*StagedOutput, error) {
	bc := &BindContext{Mode: w.Mode, Token: token, Client: client}

	args := make(aps.Arguments, len(w.Parameters))
	staged := make(map[string]*StagedOutput)
	for _, p := range w.Parameters {
		name := p.Spec().Name
		binding, err := p.Bind(ctx, bc)
		if err != nil {
			return nil, nil, err
		}

		args[name] = binding.Argument
		if binding.Staged != nil {
			staged[name] = binding.Staged
		} else {
			delete(staged, name)
		}
	}
	return args, staged, nil
}

// Run binds the parameters and submits the work item.
func (w *WorkItem) Run(ctx context.Context, client *aps.Client, token string) (*Submission, error) {
	args, staged, err := w.BuildArguments(ctx, client, token)
	if err != nil {
		return nil, err
	}

	var id string
	if w.Signature != "" {
		id, err = client.SubmitSignedWorkItem(ctx, token, w.ActivityID, args, w.Signature)
	} else {
		id, err = client.SubmitWorkItem(ctx, token, w.ActivityID, args)
	}
	if err != nil {
		return nil, err
	}

	return &Submission{ID: id, Staged: staged}, nil
}

// Execute runs the work item and polls it with poller, or with a default
// poller when nil. Staged delegated outputs are committed only when the work
// item succeeded; otherwise the terminal status is returned for inspection.
func (w *WorkItem) Execute(ctx context.Context, client *aps.Client, token string, poller *Poller) (*Result, error) {
	sub, err := w.Run(ctx, client, token)
	if err != nil {
		return nil, err
	}

	if poller == nil {
		poller = NewPoller(client, client.Logger())
	} else if poller.Fetcher == nil {
		p := *poller
		p.Fetcher = client
		poller = &p
	}

	status, err := poller.Poll(ctx, token, sub.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to poll work item %s: %w", sub.ID, err)
	}

	result := &Result{Submission: *sub, Status: status}
	if status.Status != aps.StatusSuccess || len(sub.Staged) == 0 {
		return result, nil
	}

	var errs *multierror.Error
	result.Committed = make(map[string]*UploadResult, len(sub.Staged))
	for name, staged := range sub.Staged {
		committed, err := staged.Commit(ctx, client, token)
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		result.Committed[name] = committed
	}

	return result, errs.ErrorOrNil()
}
