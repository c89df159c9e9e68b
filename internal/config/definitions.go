package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/hashicorp/go-multierror"
	"github.com/hashicorp/hcl/v2/hclsimple"

	"github.com/hashicorp-forge/aps-automation/pkg/automation"
)

// Parameter kinds.
const (
	KindInput           = "input"
	KindOutput          = "output"
	KindJSON            = "json"
	KindDelegatedInput  = "delegated_input"
	KindUploadInput     = "upload_input"
	KindDelegatedOutput = "delegated_output"
)

// Definitions is a file of app bundle, activity and work item definitions.
//
//	appbundle "WallCounter" {
//	  engine   = "Autodesk.Revit+2024"
//	  alias    = "prod"
//	  zip_path = "build/WallCounter.zip"
//	}
//
//	activity "CountWalls" {
//	  engine             = "Autodesk.Revit+2024"
//	  appbundle          = "WallCounter"
//	  appbundle_alias    = "prod"
//	  alias              = "prod"
//	  revit_command_line = true
//
//	  parameter "inputFile" {
//	    kind         = "input"
//	    local_name   = "input.rvt"
//	    verb         = "get"
//	    engine_input = true
//	    bucket       = "my-bucket"
//	    object       = "model.rvt"
//	  }
//	}
//
//	workitem "count" {
//	  activity = "CountWalls"
//	}
type Definitions struct {
	AppBundles []AppBundleDef `hcl:"appbundle,block"`
	Activities []ActivityDef  `hcl:"activity,block"`
	WorkItems  []WorkItemDef  `hcl:"workitem,block"`
}

// AppBundleDef defines an app bundle.
type AppBundleDef struct {
	Name        string `hcl:"name,label"`
	Engine      string `hcl:"engine"`
	Alias       string `hcl:"alias"`
	ZipPath     string `hcl:"zip_path"`
	Description string `hcl:"description,optional"`
}

// ActivityDef defines an activity.
type ActivityDef struct {
	Name             string         `hcl:"name,label"`
	Engine           string         `hcl:"engine,optional"`
	AppBundle        string         `hcl:"appbundle"`
	AppBundleAlias   string         `hcl:"appbundle_alias,optional"`
	Alias            string         `hcl:"alias"`
	Description      string         `hcl:"description,optional"`
	CommandLine      []string       `hcl:"command_line,optional"`
	RevitCommandLine bool           `hcl:"revit_command_line,optional"`
	Parameters       []ParameterDef `hcl:"parameter,block"`
}

// ParameterDef defines one activity parameter. Which of the storage
// attributes apply depends on Kind.
type ParameterDef struct {
	Name        string `hcl:"name,label"`
	Kind        string `hcl:"kind"`
	LocalName   string `hcl:"local_name"`
	Verb        string `hcl:"verb,optional"`
	Description string `hcl:"description,optional"`
	Zip         bool   `hcl:"zip,optional"`
	OnDemand    bool   `hcl:"ondemand,optional"`
	Required    bool   `hcl:"required,optional"`
	EngineInput bool   `hcl:"engine_input,optional"`

	// OSS storage for input and output.
	Bucket string `hcl:"bucket,optional"`
	Object string `hcl:"object,optional"`

	// Project storage for the delegated kinds.
	ProjectID string `hcl:"project_id,optional"`
	ItemID    string `hcl:"item_id,optional"`
	FolderID  string `hcl:"folder_id,optional"`
	FileName  string `hcl:"file_name,optional"`
	LocalPath string `hcl:"local_path,optional"`

	// Content is the JSON text of a json parameter.
	Content string `hcl:"content,optional"`
}

// WorkItemDef defines a work item against an activity in the same file.
type WorkItemDef struct {
	Name      string `hcl:"name,label"`
	Activity  string `hcl:"activity"`
	Mode      string `hcl:"mode,optional"`
	Signature string `hcl:"signature,optional"`

	// ActivityID overrides the qualified activity alias, for signed work
	// items against another account's activity.
	ActivityID string `hcl:"activity_id,optional"`
}

// LoadDefinitions reads and parses a definitions file.
func LoadDefinitions(filename string) (*Definitions, error) {
	if filename == "" {
		return nil, fmt.Errorf("definitions file path is required")
	}
	src, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read definitions file: %w", err)
	}
	return ParseDefinitions(filename, src)
}

// ParseDefinitions decodes and validates definitions source.
func ParseDefinitions(filename string, src []byte) (*Definitions, error) {
	var defs Definitions
	if err := hclsimple.Decode(filename, src, nil, &defs); err != nil {
		return nil, fmt.Errorf("failed to parse definitions file: %w", err)
	}
	if err := defs.Validate(); err != nil {
		return nil, err
	}
	return &defs, nil
}

// Validate checks every definition, reporting all problems at once.
func (d *Definitions) Validate() error {
	var result *multierror.Error

	for i := range d.Activities {
		a := &d.Activities[i]
		for j := range a.Parameters {
			if err := a.Parameters[j].Validate(); err != nil {
				result = multierror.Append(result,
					fmt.Errorf("activity %q parameter %q: %w", a.Name, a.Parameters[j].Name, err))
			}
		}
	}

	for _, w := range d.WorkItems {
		if _, err := d.Activity(w.Activity); err != nil {
			result = multierror.Append(result, fmt.Errorf("workitem %q: %w", w.Name, err))
		}
		if _, err := parseMode(w.Mode); err != nil {
			result = multierror.Append(result, fmt.Errorf("workitem %q: %w", w.Name, err))
		}
	}

	return result.ErrorOrNil()
}

// AppBundle returns the named app bundle definition.
func (d *Definitions) AppBundle(name string) (*AppBundleDef, error) {
	for i := range d.AppBundles {
		if d.AppBundles[i].Name == name {
			return &d.AppBundles[i], nil
		}
	}
	return nil, fmt.Errorf("no appbundle %q defined", name)
}

// Activity returns the named activity definition.
func (d *Definitions) Activity(name string) (*ActivityDef, error) {
	for i := range d.Activities {
		if d.Activities[i].Name == name {
			return &d.Activities[i], nil
		}
	}
	return nil, fmt.Errorf("no activity %q defined", name)
}

// WorkItem returns the named work item definition.
func (d *Definitions) WorkItem(name string) (*WorkItemDef, error) {
	for i := range d.WorkItems {
		if d.WorkItems[i].Name == name {
			return &d.WorkItems[i], nil
		}
	}
	return nil, fmt.Errorf("no workitem %q defined", name)
}

// Build returns the app bundle.
func (a *AppBundleDef) Build() *automation.AppBundle {
	return &automation.AppBundle{
		ID:          a.Name,
		Engine:      a.Engine,
		Alias:       a.Alias,
		ZipPath:     a.ZipPath,
		Description: a.Description,
	}
}

// Build returns the activity. An unqualified app bundle id is qualified with
// nickname and the app bundle alias.
func (a *ActivityDef) Build(nickname string) (*automation.Activity, error) {
	appBundle := a.AppBundle
	if !strings.Contains(appBundle, ".") {
		alias := a.AppBundleAlias
		if alias == "" {
			alias = a.Alias
		}
		appBundle = automation.FullAlias(nickname, appBundle, alias)
	}

	activity := &automation.Activity{
		ID:          a.Name,
		Engine:      a.Engine,
		AppBundle:   appBundle,
		Description: a.Description,
		Alias:       a.Alias,
		CommandLine: a.CommandLine,
	}

	for i := range a.Parameters {
		p, err := a.Parameters[i].Build()
		if err != nil {
			return nil, fmt.Errorf("activity %q: %w", a.Name, err)
		}
		activity.Parameters = append(activity.Parameters, p)
	}

	if a.RevitCommandLine {
		if err := activity.SetRevitCommandLine(); err != nil {
			return nil, err
		}
	}
	return activity, nil
}

// Validate checks the parameter definition.
func (p *ParameterDef) Validate() error {
	return validation.ValidateStruct(p,
		validation.Field(&p.Kind, validation.Required, validation.In(
			KindInput, KindOutput, KindJSON,
			KindDelegatedInput, KindUploadInput, KindDelegatedOutput)),
		validation.Field(&p.LocalName, validation.Required),
		validation.Field(&p.Verb, validation.In("get", "put", "post")),
		validation.Field(&p.Content, validation.When(p.Content != "", validation.By(jsonObject))),
	)
}

func jsonObject(value interface{}) error {
	s, _ := value.(string)
	var m map[string]interface{}
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return fmt.Errorf("must be a JSON object: %w", err)
	}
	return nil
}

// Build returns the parameter. The verb defaults to get for inputs and put
// for outputs.
func (p *ParameterDef) Build() (automation.Parameter, error) {
	spec := automation.ParameterSpec{
		Name:        p.Name,
		LocalName:   p.LocalName,
		Verb:        automation.Verb(p.Verb),
		Description: p.Description,
		Zip:         p.Zip,
		OnDemand:    p.OnDemand,
		Required:    p.Required,
	}
	if spec.Verb == "" {
		spec.Verb = automation.VerbGet
		if p.Kind == KindOutput || p.Kind == KindDelegatedOutput {
			spec.Verb = automation.VerbPut
		}
	}

	switch p.Kind {
	case KindInput:
		return &automation.InputParameter{
			ParameterSpec: spec,
			Storage:       automation.Storage{Bucket: p.Bucket, Object: p.Object},
			EngineInput:   p.EngineInput,
		}, nil
	case KindOutput:
		return &automation.OutputParameter{
			ParameterSpec: spec,
			Storage:       automation.Storage{Bucket: p.Bucket, Object: p.Object},
		}, nil
	case KindJSON:
		param := &automation.JSONParameter{ParameterSpec: spec}
		if p.Content != "" {
			if err := json.Unmarshal([]byte(p.Content), &param.Content); err != nil {
				return nil, fmt.Errorf("parameter %q: invalid content: %w", p.Name, err)
			}
		}
		return param, nil
	case KindDelegatedInput:
		return &automation.DelegatedInputParameter{
			ParameterSpec: spec,
			ProjectID:     p.ProjectID,
			ItemID:        p.ItemID,
			EngineInput:   p.EngineInput,
		}, nil
	case KindUploadInput:
		return &automation.UploadInputParameter{
			ParameterSpec: spec,
			ProjectID:     p.ProjectID,
			FolderID:      p.FolderID,
			FileName:      p.FileName,
			LocalPath:     p.LocalPath,
			EngineInput:   p.EngineInput,
		}, nil
	case KindDelegatedOutput:
		return &automation.DelegatedOutputParameter{
			ParameterSpec: spec,
			ProjectID:     p.ProjectID,
			FolderID:      p.FolderID,
			FileName:      p.FileName,
		}, nil
	default:
		return nil, fmt.Errorf("parameter %q: unknown kind %q", p.Name, p.Kind)
	}
}

func parseMode(mode string) (automation.AuthMode, error) {
	switch mode {
	case "", "two-legged":
		return automation.TwoLegged, nil
	case "delegated":
		return automation.Delegated, nil
	default:
		return 0, fmt.Errorf("unknown mode %q", mode)
	}
}

// Build returns the work item for activity, which must be the definition
// named by the work item.
func (w *WorkItemDef) Build(nickname string, activity *automation.Activity) (*automation.WorkItem, error) {
	mode, err := parseMode(w.Mode)
	if err != nil {
		return nil, err
	}
	activityID := w.ActivityID
	if activityID == "" {
		activityID = activity.FullAlias(nickname)
	}
	return &automation.WorkItem{
		ActivityID: activityID,
		Parameters: activity.Parameters,
		Mode:       mode,
		Signature:  w.Signature,
	}, nil
}
