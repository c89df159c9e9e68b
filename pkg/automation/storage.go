package automation

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/hashicorp-forge/aps-automation/pkg/aps"
)

// Storage is an OSS bucket/object pair.
type Storage struct {
	Bucket string
	Object string
}

// keys returns the pair, failing unless both halves are set.
func (s Storage) keys(name string) (string, string, error) {
	if s.Bucket == "" || s.Object == "" {
		return "", "", paramErr(name, ErrMissingStorage)
	}
	return s.Bucket, s.Object, nil
}

func (s Storage) argument(name string, verb Verb, token string) (aps.Argument, error) {
	bucket, object, err := s.keys(name)
	if err != nil {
		return aps.Argument{}, err
	}
	return aps.Argument{
		URL:     aps.ObjectURN(bucket, object),
		Verb:    string(verb),
		Headers: bearer(token),
	}, nil
}

// UniqueObjectKey returns an object key for name that does not collide with
// earlier runs.
func UniqueObjectKey(name string) string {
	return uuid.NewString() + "-" + name
}

// InputParameter is an input staged in an OSS bucket.
type InputParameter struct {
	ParameterSpec
	Storage

	// EngineInput marks the engine's primary input.
	EngineInput bool
}

var _ Parameter = (*InputParameter)(nil)

func (p *InputParameter) Spec() ParameterSpec { return p.ParameterSpec }
func (p *InputParameter) engineInput() bool   { return p.EngineInput }
func (p *InputParameter) sealed()             {}

// StorageKeys returns the bucket and object of the parameter.
func (p *InputParameter) StorageKeys() (bucket, object string, err error) {
	return p.keys(p.Name)
}

// URN returns the OSS object id of the parameter.
func (p *InputParameter) URN() (string, error) {
	bucket, object, err := p.StorageKeys()
	if err != nil {
		return "", err
	}
	return aps.ObjectURN(bucket, object), nil
}

// Bind implements Parameter. Only the two-legged mode is supported.
func (p *InputParameter) Bind(_ context.Context, bc *BindContext) (*Binding, error) {
	if bc.Mode != TwoLegged {
		return nil, paramErr(p.Name, ErrUnsupportedBinding)
	}
	arg, err := p.argument(p.Name, p.Verb, bc.Token)
	if err != nil {
		return nil, err
	}
	return &Binding{Argument: arg}, nil
}

// Upload creates the bucket if needed and uploads localPath to the
// parameter's object.
func (p *InputParameter) Upload(ctx context.Context, client *aps.Client, token, localPath string) error {
	bucket, object, err := p.StorageKeys()
	if err != nil {
		return err
	}

	if err := client.EnsureBucket(ctx, token, aps.CreateBucketRequest{BucketKey: bucket}); err != nil {
		return fmt.Errorf("parameter %q: %w", p.Name, err)
	}

	if _, err := client.UploadFile(ctx, token, bucket, object, localPath); err != nil {
		return fmt.Errorf("parameter %q: %w", p.Name, err)
	}
	return nil
}

// OutputParameter is an output written by the engine to an OSS bucket.
type OutputParameter struct {
	ParameterSpec
	Storage
}

var _ Parameter = (*OutputParameter)(nil)

func (p *OutputParameter) Spec() ParameterSpec { return p.ParameterSpec }
func (p *OutputParameter) sealed()             {}

// StorageKeys returns the bucket and object of the parameter.
func (p *OutputParameter) StorageKeys() (bucket, object string, err error) {
	return p.keys(p.Name)
}

// URN returns the OSS object id of the parameter.
func (p *OutputParameter) URN() (string, error) {
	bucket, object, err := p.StorageKeys()
	if err != nil {
		return "", err
	}
	return aps.ObjectURN(bucket, object), nil
}

// Bind implements Parameter. Only the two-legged mode is supported.
func (p *OutputParameter) Bind(_ context.Context, bc *BindContext) (*Binding, error) {
	if bc.Mode != TwoLegged {
		return nil, paramErr(p.Name, ErrUnsupportedBinding)
	}
	arg, err := p.argument(p.Name, p.Verb, bc.Token)
	if err != nil {
		return nil, err
	}
	return &Binding{Argument: arg}, nil
}

// EnsureBucket creates the output bucket unless it already exists.
func (p *OutputParameter) EnsureBucket(ctx context.Context, client *aps.Client, token string) error {
	bucket, _, err := p.StorageKeys()
	if err != nil {
		return err
	}
	return client.EnsureBucket(ctx, token, aps.CreateBucketRequest{BucketKey: bucket})
}

// DownloadTo downloads the produced object to outputPath.
func (p *OutputParameter) DownloadTo(ctx context.Context, client *aps.Client, token, outputPath string) error {
	bucket, object, err := p.StorageKeys()
	if err != nil {
		return err
	}
	if err := client.DownloadFile(ctx, token, bucket, object, outputPath); err != nil {
		return fmt.Errorf("parameter %q: %w", p.Name, err)
	}
	return nil
}
