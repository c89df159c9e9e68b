package automation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/hashicorp-forge/aps-automation/pkg/aps"
)

const jsonDataURLPrefix = "data:application/json,"

// JSONParameter is an inline JSON payload embedded in the work item.
type JSONParameter struct {
	ParameterSpec

	// Content is sent as compact JSON. nil is sent as null.
	Content map[string]interface{}
}

var _ Parameter = (*JSONParameter)(nil)

func (p *JSONParameter) Spec() ParameterSpec { return p.ParameterSpec }
func (p *JSONParameter) sealed()             {}

// SetContent replaces the payload.
func (p *JSONParameter) SetContent(content map[string]interface{}) {
	p.Content = content
}

// DataURL returns the payload as a data URL.
func (p *JSONParameter) DataURL() (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(p.Content); err != nil {
		return "", paramErr(p.Name, fmt.Errorf("failed to encode content: %w", err))
	}
	return jsonDataURLPrefix + string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}

// Bind implements Parameter. JSON parameters bind the same way in every
// mode and carry no authorization header.
func (p *JSONParameter) Bind(_ context.Context, _ *BindContext) (*Binding, error) {
	u, err := p.DataURL()
	if err != nil {
		return nil, err
	}
	return &Binding{Argument: aps.Argument{URL: u}}, nil
}
