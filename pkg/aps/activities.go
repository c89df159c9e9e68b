package aps

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// ActivityParameter is the API-facing definition of one activity parameter.
type ActivityParameter struct {
	LocalName   string `json:"localName,omitempty"`
	Zip         bool   `json:"zip"`
	OnDemand    bool   `json:"ondemand"`
	Verb        string `json:"verb"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
}

// Activity is the declarative activity document.
type Activity struct {
	ID          string                       `json:"id"`
	CommandLine []string                     `json:"commandLine"`
	Parameters  map[string]ActivityParameter `json:"parameters"`
	Engine      string                       `json:"engine,omitempty"`
	AppBundles  []string                     `json:"appbundles"`
	Description string                       `json:"description"`
	Version     int                          `json:"version,omitempty"`
}

// CreateActivity creates an activity; the server assigns version 1.
func (c *Client) CreateActivity(ctx context.Context, token string, activity *Activity) (*Activity, error) {
	var created Activity
	err := c.do(ctx, request{
		method: http.MethodPost,
		url:    c.daURL("/activities"),
		token:  token,
		body:   activity,
	}, &created)
	if err != nil {
		return nil, fmt.Errorf("failed to create activity: %w", err)
	}

	c.logger.Info("activity created", "activity", activity.ID, "version", created.Version)
	return &created, nil
}

// CreateActivityAlias creates an alias pointing at an activity version.
func (c *Client) CreateActivityAlias(ctx context.Context, token, activityID, aliasID string, version int) (*Alias, error) {
	var alias Alias
	err := c.do(ctx, request{
		method: http.MethodPost,
		url:    c.daURL(fmt.Sprintf("/activities/%s/aliases", url.PathEscape(activityID))),
		token:  token,
		body:   Alias{ID: aliasID, Version: version},
	}, &alias)
	if err != nil {
		return nil, fmt.Errorf("failed to create activity alias: %w", err)
	}
	return &alias, nil
}

// DeleteActivity deletes an activity with all its versions and aliases.
func (c *Client) DeleteActivity(ctx context.Context, token, activityID string) error {
	err := c.do(ctx, request{
		method: http.MethodDelete,
		url:    c.daURL(fmt.Sprintf("/activities/%s", url.PathEscape(activityID))),
		token:  token,
	}, nil)
	if err != nil {
		return fmt.Errorf("failed to delete activity: %w", err)
	}
	return nil
}
