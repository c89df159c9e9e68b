package automation

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/hashicorp-forge/aps-automation/pkg/aps"
)

// Verb is the transfer direction of a parameter.
type Verb string

const (
	VerbGet  Verb = "get"
	VerbPut  Verb = "put"
	VerbPost Verb = "post"
)

// AuthMode selects how parameters are bound.
type AuthMode int

const (
	// TwoLegged binds with the application's own token.
	TwoLegged AuthMode = iota

	// Delegated binds on behalf of an end user against project storage.
	Delegated
)

func (m AuthMode) String() string {
	switch m {
	case TwoLegged:
		return "two-legged"
	case Delegated:
		return "delegated"
	default:
		return "unknown"
	}
}

// ParameterSpec is the part of a parameter the activity definition sees.
type ParameterSpec struct {
	// Name is the argument key in the work item.
	Name string

	// LocalName is the file name inside the execution sandbox.
	LocalName string

	Verb        Verb
	Description string
	Zip         bool
	OnDemand    bool
	Required    bool
}

// Validate checks the parameter definition.
func (s ParameterSpec) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Name, validation.Required),
		validation.Field(&s.LocalName, validation.Required),
		validation.Field(&s.Verb, validation.Required, validation.In(VerbGet, VerbPut, VerbPost)),
	)
}

// ToAPI returns the activity document form of the parameter.
func (s ParameterSpec) ToAPI() aps.ActivityParameter {
	return aps.ActivityParameter{
		LocalName:   s.LocalName,
		Zip:         s.Zip,
		OnDemand:    s.OnDemand,
		Verb:        string(s.Verb),
		Description: s.Description,
		Required:    s.Required,
	}
}

// BindContext carries what a parameter needs to bind itself.
type BindContext struct {
	Mode  AuthMode
	Token string

	// Client is required by parameters that resolve or create storage at
	// bind time.
	Client *aps.Client
}

// Binding is the result of binding one parameter.
type Binding struct {
	Argument aps.Argument

	// Staged is set by outputs whose result must be committed after the
	// work item succeeds.
	Staged *StagedOutput
}

// Parameter is one activity parameter. The set of implementations is
// closed: InputParameter, OutputParameter, JSONParameter,
// DelegatedInputParameter, UploadInputParameter and
// DelegatedOutputParameter.
type Parameter interface {
	Spec() ParameterSpec
	Bind(ctx context.Context, bc *BindContext) (*Binding, error)

	sealed()
}

// engineInputter is implemented by inputs that can be the engine's primary
// input.
type engineInputter interface {
	engineInput() bool
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}
