package automation

import (
	"context"
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/hashicorp-forge/aps-automation/pkg/aps"
)

// Activity is a client-side activity definition.
type Activity struct {
	ID          string
	Parameters  []Parameter
	Engine      string
	Description string
	Alias       string

	// AppBundle is the fully qualified app bundle alias, e.g.
	// "nickname.MyBundle+prod".
	AppBundle string

	// CommandLine is sent as is. See SetRevitCommandLine.
	CommandLine []string
}

// ShortAppBundleID strips the nickname qualifier and the alias from a fully
// qualified app bundle id: "nick.MyBundle+prod" becomes "MyBundle".
func ShortAppBundleID(fullAlias string) string {
	if _, right, ok := strings.Cut(fullAlias, "."); ok {
		fullAlias = right
	}
	id, _, _ := strings.Cut(fullAlias, "+")
	return id
}

// FullAlias returns the qualified id work items use to reference an
// activity or app bundle alias.
func FullAlias(nickname, id, alias string) string {
	return nickname + "." + id + "+" + alias
}

// FullAlias returns the qualified alias of the activity.
func (a *Activity) FullAlias(nickname string) string {
	return FullAlias(nickname, a.ID, a.Alias)
}

// SetRevitCommandLine sets the command line that runs the Revit core
// console on the engine input with the activity's app bundle loaded.
func (a *Activity) SetRevitCommandLine() error {
	var inputs []string
	for _, p := range a.Parameters {
		if in, ok := p.(engineInputter); ok && in.engineInput() {
			inputs = append(inputs, p.Spec().Name)
		}
	}
	if len(inputs) != 1 {
		return fmt.Errorf("activity %q: %w (found %d)", a.ID, ErrEngineInput, len(inputs))
	}

	a.CommandLine = []string{fmt.Sprintf(
		`$(engine.path)\revitcoreconsole.exe /i "$(args[%s].path)" /al "$(appbundles[%s].path)"`,
		inputs[0], ShortAppBundleID(a.AppBundle))}
	return nil
}

// Validate checks the definition and every parameter spec, reporting all
// problems at once.
func (a *Activity) Validate() error {
	var result *multierror.Error

	if a.ID == "" {
		result = multierror.Append(result, fmt.Errorf("activity id is required"))
	}
	if a.AppBundle == "" {
		result = multierror.Append(result, fmt.Errorf("activity %q: app bundle is required", a.ID))
	}
	if a.Alias == "" {
		result = multierror.Append(result, fmt.Errorf("activity %q: alias is required", a.ID))
	}

	seen := make(map[string]bool, len(a.Parameters))
	for _, p := range a.Parameters {
		spec := p.Spec()
		if err := spec.Validate(); err != nil {
			result = multierror.Append(result, paramErr(spec.Name, err))
		}
		if seen[spec.Name] {
			result = multierror.Append(result, paramErr(spec.Name, fmt.Errorf("duplicate parameter name")))
		}
		seen[spec.Name] = true
	}

	return result.ErrorOrNil()
}

// ToAPI returns the activity document.
func (a *Activity) ToAPI() *aps.Activity {
	params := make(map[string]aps.ActivityParameter, len(a.Parameters))
	for _, p := range a.Parameters {
		spec := p.Spec()
		params[spec.Name] = spec.ToAPI()
	}

	return &aps.Activity{
		ID:          a.ID,
		CommandLine: a.CommandLine,
		Parameters:  params,
		Engine:      a.Engine,
		AppBundles:  []string{a.AppBundle},
		Description: a.Description,
	}
}

// Deploy creates the activity and points its alias at version 1.
func (a *Activity) Deploy(ctx context.Context, client *aps.Client, token string) error {
	if err := a.Validate(); err != nil {
		return err
	}
	if _, err := client.CreateActivity(ctx, token, a.ToAPI()); err != nil {
		return err
	}
	if _, err := client.CreateActivityAlias(ctx, token, a.ID, a.Alias, 1); err != nil {
		return err
	}
	return nil
}
