package automation

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingStorage is returned when a storage-backed parameter has no
	// bucket or object key.
	ErrMissingStorage = errors.New("bucket and object keys are required")

	// ErrUnsupportedBinding is returned when a parameter cannot be bound in
	// the requested auth mode.
	ErrUnsupportedBinding = errors.New("parameter cannot be bound in this auth mode")

	// ErrNotStaged is returned when committing an output whose storage was
	// never created.
	ErrNotStaged = errors.New("output storage has not been created")

	// ErrMissingClient is returned when binding needs API calls but no
	// client was supplied.
	ErrMissingClient = errors.New("binding requires an APS client")

	// ErrMissingFetcher is returned by Poll when the poller has no status
	// fetcher.
	ErrMissingFetcher = errors.New("poller has no status fetcher")

	// ErrEngineInput is returned by command line synthesis unless exactly
	// one input is marked as the engine input.
	ErrEngineInput = errors.New("exactly one input parameter must be marked as engine input")
)

// ParameterError names the parameter a usage error is about.
type ParameterError struct {
	Name string
	Err  error
}

func (e *ParameterError) Error() string {
	return fmt.Sprintf("parameter %q: %v", e.Name, e.Err)
}

func (e *ParameterError) Unwrap() error {
	return e.Err
}

func paramErr(name string, err error) error {
	return &ParameterError{Name: name, Err: err}
}
