package aps

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"
	"sort"
)

// UploadParameters is the one-shot multipart upload target returned when an
// app bundle version is registered.
type UploadParameters struct {
	EndpointURL string            `json:"endpointURL"`
	FormData    map[string]string `json:"formData"`
}

// AppBundleVersion is the response to registering an app bundle or a new
// version of one.
type AppBundleVersion struct {
	ID               string           `json:"id,omitempty"`
	Engine           string           `json:"engine,omitempty"`
	Description      string           `json:"description,omitempty"`
	Version          int              `json:"version"`
	UploadParameters UploadParameters `json:"uploadParameters"`
}

// Alias is a named pointer to a version of an app bundle or activity.
type Alias struct {
	ID       string `json:"id"`
	Version  int    `json:"version"`
	Receiver string `json:"receiver,omitempty"`
}

type appBundleRequest struct {
	ID          string `json:"id,omitempty"`
	Engine      string `json:"engine"`
	Description string `json:"description"`
}

// RegisterAppBundle registers a new app bundle; the server allocates
// version 1 and an upload target.
func (c *Client) RegisterAppBundle(ctx context.Context, token, appBundleID, engine, description string) (*AppBundleVersion, error) {
	var v AppBundleVersion
	err := c.do(ctx, request{
		method: http.MethodPost,
		url:    c.daURL("/appbundles"),
		token:  token,
		body: appBundleRequest{
			ID:          appBundleID,
			Engine:      engine,
			Description: description,
		},
	}, &v)
	if err != nil {
		return nil, fmt.Errorf("failed to register app bundle: %w", err)
	}
	if err := v.check("appbundles"); err != nil {
		return nil, err
	}

	c.logger.Info("app bundle registered", "appbundle", appBundleID, "version", v.Version)
	return &v, nil
}

// CreateAppBundleVersion creates a new version of an existing app bundle.
func (c *Client) CreateAppBundleVersion(ctx context.Context, token, appBundleID, engine, description string) (*AppBundleVersion, error) {
	var v AppBundleVersion
	err := c.do(ctx, request{
		method: http.MethodPost,
		url:    c.daURL(fmt.Sprintf("/appbundles/%s/versions", url.PathEscape(appBundleID))),
		token:  token,
		body: appBundleRequest{
			Engine:      engine,
			Description: description,
		},
	}, &v)
	if err != nil {
		return nil, fmt.Errorf("failed to create app bundle version: %w", err)
	}
	if err := v.check("appbundles/versions"); err != nil {
		return nil, err
	}

	c.logger.Info("app bundle version created", "appbundle", appBundleID, "version", v.Version)
	return &v, nil
}

func (v *AppBundleVersion) check(op string) error {
	if v.Version <= 0 {
		return newContractError(op, "missing version", v)
	}
	if v.UploadParameters.EndpointURL == "" {
		return newContractError(op, "missing uploadParameters.endpointURL", v)
	}
	return nil
}

// UploadAppBundle posts the zip at zipPath to the upload target as a
// multipart form. Server supplied form fields go first, the file last. The
// form is built in memory so the request carries a Content-Length; the
// presigned POST target rejects chunked bodies.
func (c *Client) UploadAppBundle(ctx context.Context, params UploadParameters, zipPath string) error {
	f, err := c.fs.Open(zipPath)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", zipPath, err)
	}
	defer f.Close()

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	if err := writeBundleForm(form, params.FormData, filepath.Base(zipPath), f); err != nil {
		return fmt.Errorf("failed to build app bundle form: %w", err)
	}

	size := int64(body.Len())
	resp, err := c.transferRequest(ctx, http.MethodPost, params.EndpointURL,
		&body, form.FormDataContentType(), size)
	if err != nil {
		return fmt.Errorf("failed to upload app bundle: %w", err)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	c.logger.Info("app bundle uploaded", "path", zipPath, "bytes", size)
	return nil
}

func writeBundleForm(form *multipart.Writer, fields map[string]string, fileName string, content io.Reader) error {
	keys := make([]string, 0, len(fields))
	for k, v := range fields {
		if v != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	for _, k := range keys {
		if err := form.WriteField(k, fields[k]); err != nil {
			return err
		}
	}

	part, err := form.CreateFormFile("file", fileName)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, content); err != nil {
		return err
	}
	return form.Close()
}

// CreateAppBundleAlias creates an alias pointing at a version.
func (c *Client) CreateAppBundleAlias(ctx context.Context, token, appBundleID, aliasID string, version int) (*Alias, error) {
	var alias Alias
	err := c.do(ctx, request{
		method: http.MethodPost,
		url:    c.daURL(fmt.Sprintf("/appbundles/%s/aliases", url.PathEscape(appBundleID))),
		token:  token,
		body:   Alias{ID: aliasID, Version: version},
	}, &alias)
	if err != nil {
		return nil, fmt.Errorf("failed to create app bundle alias: %w", err)
	}
	return &alias, nil
}

// MoveOrCreateAppBundleAlias points an existing alias at version. If the
// alias does not exist (404) it is created instead; any other failure is
// returned as is.
func (c *Client) MoveOrCreateAppBundleAlias(ctx context.Context, token, appBundleID, aliasID string, version int) (*Alias, error) {
	var alias Alias
	err := c.do(ctx, request{
		method: http.MethodPatch,
		url: c.daURL(fmt.Sprintf("/appbundles/%s/aliases/%s",
			url.PathEscape(appBundleID),
			url.PathEscape(aliasID))),
		token: token,
		body:  map[string]int{"version": version},
	}, &alias)
	if err == nil {
		c.logger.Info("app bundle alias moved", "appbundle", appBundleID, "alias", aliasID, "version", version)
		return &alias, nil
	}

	if !IsNotFound(err) {
		return nil, fmt.Errorf("failed to move app bundle alias: %w", err)
	}

	c.logger.Info("app bundle alias not found, creating it", "appbundle", appBundleID, "alias", aliasID)
	return c.CreateAppBundleAlias(ctx, token, appBundleID, aliasID, version)
}

// DeleteAppBundle deletes an app bundle with all its versions and aliases.
func (c *Client) DeleteAppBundle(ctx context.Context, token, appBundleID string) error {
	err := c.do(ctx, request{
		method: http.MethodDelete,
		url:    c.daURL(fmt.Sprintf("/appbundles/%s", url.PathEscape(appBundleID))),
		token:  token,
	}, nil)
	if err != nil {
		return fmt.Errorf("failed to delete app bundle: %w", err)
	}
	return nil
}
