package aps

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// jsonAPIContentType is the media type of Data Management requests.
const jsonAPIContentType = "application/vnd.api+json"

// JSONAPIVersion is the top-level "jsonapi" member.
type JSONAPIVersion struct {
	Version string `json:"version"`
}

var jsonAPI10 = &JSONAPIVersion{Version: "1.0"}

// Document is a JSON:API top-level document. Data holds either one resource
// or an array of resources and is decoded on demand.
type Document struct {
	JSONAPI  *JSONAPIVersion `json:"jsonapi,omitempty"`
	Data     json.RawMessage `json:"data"`
	Included []Resource      `json:"included,omitempty"`
	Links    Links           `json:"links,omitempty"`
}

// Resource is a JSON:API resource object.
type Resource struct {
	Type          string                  `json:"type"`
	ID            string                  `json:"id,omitempty"`
	Attributes    map[string]interface{}  `json:"attributes,omitempty"`
	Relationships map[string]Relationship `json:"relationships,omitempty"`
}

// ResourceIdentifier points at another resource.
type ResourceIdentifier struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// Relationship is a resource relationship. Only to-one linkage is decoded.
type Relationship struct {
	Data json.RawMessage `json:"data,omitempty"`
}

// Link is a JSON:API link, either a bare URL or an object with an href.
type Link struct {
	Href string `json:"href"`
}

// Links is the links member of a document or resource.
type Links map[string]Link

// UnmarshalJSON accepts both link forms.
func (l *Link) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		return json.Unmarshal(b, &l.Href)
	}
	var obj struct {
		Href string `json:"href"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return err
	}
	l.Href = obj.Href
	return nil
}

func toOne(typ, id string) Relationship {
	b, _ := json.Marshal(ResourceIdentifier{Type: typ, ID: id})
	return Relationship{Data: b}
}

// Identifier returns the to-one linkage of the relationship.
func (r Relationship) Identifier() (ResourceIdentifier, bool) {
	var ident ResourceIdentifier
	data := bytes.TrimSpace(r.Data)
	if len(data) == 0 || data[0] != '{' {
		return ident, false
	}
	if err := json.Unmarshal(data, &ident); err != nil {
		return ident, false
	}
	return ident, ident.ID != ""
}

// Resource decodes Data as a single resource.
func (d *Document) Resource() (*Resource, error) {
	data := bytes.TrimSpace(d.Data)
	if len(data) == 0 || data[0] != '{' {
		return nil, fmt.Errorf("document data is not a single resource")
	}
	var res Resource
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Resources decodes Data as a resource array. A single resource is returned
// as a one-element slice.
func (d *Document) Resources() ([]Resource, error) {
	data := bytes.TrimSpace(d.Data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, nil
	}
	if data[0] == '{' {
		res, err := d.Resource()
		if err != nil {
			return nil, err
		}
		return []Resource{*res}, nil
	}
	var list []Resource
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// typedResource returns the single resource of doc after checking its type
// and id.
func typedResource(op string, doc *Document, typ string) (*Resource, error) {
	res, err := doc.Resource()
	if err != nil || res.Type != typ || res.ID == "" {
		return nil, newContractError(op, fmt.Sprintf("expected a resource of type %q with an id", typ), doc)
	}
	return res, nil
}

func mustMarshal(v interface{}) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}
