package aps

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const (
	itemExtensionType    = "items:autodesk.bim360:File"
	versionExtensionType = "versions:autodesk.bim360:File"
)

// ErrVersionURN is returned for version URNs without a ?version= suffix.
var ErrVersionURN = errors.New("version URN must include '?version=N'")

func (c *Client) projectURL(projectID, path string) string {
	return c.dataURL("/projects/" + url.PathEscape(projectID) + path)
}

func (c *Client) getDocument(ctx context.Context, token, target string) (*Document, error) {
	var doc Document
	err := c.do(ctx, request{
		method: http.MethodGet,
		url:    target,
		token:  token,
	}, &doc)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (c *Client) postDocument(ctx context.Context, token, target string, body *Document) (*Document, error) {
	var doc Document
	err := c.do(ctx, request{
		method:      http.MethodPost,
		url:         target,
		token:       token,
		body:        body,
		contentType: jsonAPIContentType,
	}, &doc)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// ItemFromVersion returns the id of the item a version belongs to.
func (c *Client) ItemFromVersion(ctx context.Context, token, projectID, versionURN string) (string, error) {
	if !strings.Contains(versionURN, "?version=") {
		return "", ErrVersionURN
	}

	doc, err := c.getDocument(ctx, token, c.projectURL(projectID, "/versions/"+url.PathEscape(versionURN)+"/item"))
	if err != nil {
		return "", fmt.Errorf("failed to get item of version: %w", err)
	}
	res, err := typedResource("versions->item", doc, "items")
	if err != nil {
		return "", err
	}
	return res.ID, nil
}

// ParentFolder returns the id of the folder holding an item.
func (c *Client) ParentFolder(ctx context.Context, token, projectID, itemID string) (string, error) {
	doc, err := c.getDocument(ctx, token, c.projectURL(projectID, "/items/"+url.PathEscape(itemID)+"/parent"))
	if err != nil {
		return "", fmt.Errorf("failed to get parent folder: %w", err)
	}
	res, err := typedResource("item->parent", doc, "folders")
	if err != nil {
		return "", err
	}
	return res.ID, nil
}

// ResolveParentFolder resolves version -> item -> parent folder.
func (c *Client) ResolveParentFolder(ctx context.Context, token, projectID, versionURN string) (string, error) {
	itemID, err := c.ItemFromVersion(ctx, token, projectID, versionURN)
	if err != nil {
		return "", err
	}
	return c.ParentFolder(ctx, token, projectID, itemID)
}

// ItemTip returns the tip version document of an item.
func (c *Client) ItemTip(ctx context.Context, token, projectID, itemID string) (*Document, error) {
	doc, err := c.getDocument(ctx, token, c.projectURL(projectID, "/items/"+url.PathEscape(itemID)+"/tip"))
	if err != nil {
		return nil, fmt.Errorf("failed to get item tip: %w", err)
	}
	return doc, nil
}

// FindTipStorageID returns the storage object id referenced by a tip
// document, looking at the primary resource first and then at included
// resources.
func FindTipStorageID(doc *Document) (string, error) {
	var nodes []Resource
	if res, err := doc.Resource(); err == nil {
		nodes = append(nodes, *res)
	}
	nodes = append(nodes, doc.Included...)

	for _, node := range nodes {
		if ident, ok := node.Relationships["storage"].Identifier(); ok {
			return ident.ID, nil
		}
	}
	return "", newContractError("items/tip", "no storage id found in tip payload", doc)
}

// CreateStorage allocates a new storage object for fileName in a folder.
// Every call creates a new object.
func (c *Client) CreateStorage(ctx context.Context, token, projectID, folderID, fileName string) (string, error) {
	doc, err := c.postDocument(ctx, token, c.projectURL(projectID, "/storage"), &Document{
		JSONAPI: jsonAPI10,
		Data: mustMarshal(Resource{
			Type:       "objects",
			Attributes: map[string]interface{}{"name": fileName},
			Relationships: map[string]Relationship{
				"target": toOne("folders", folderID),
			},
		}),
	})
	if err != nil {
		return "", fmt.Errorf("failed to create storage: %w", err)
	}

	res, err := doc.Resource()
	if err != nil || res.ID == "" {
		return "", newContractError("storage", "storage creation returned no id", doc)
	}

	c.logger.Info("storage created", "project", projectID, "folder", folderID, "name", fileName)
	return res.ID, nil
}

// FindItemByName scans a folder for an item whose display name equals name,
// following pagination links. The first match wins; duplicates are not
// reported.
func (c *Client) FindItemByName(ctx context.Context, token, projectID, folderID, name string) (string, bool, error) {
	next := c.projectURL(projectID, "/folders/"+url.PathEscape(folderID)+"/contents")
	seen := map[string]bool{}

	for next != "" && !seen[next] {
		seen[next] = true

		doc, err := c.getDocument(ctx, token, next)
		if err != nil {
			return "", false, fmt.Errorf("failed to list folder contents: %w", err)
		}
		entries, err := doc.Resources()
		if err != nil {
			return "", false, newContractError("folders/contents", err.Error(), doc)
		}

		for _, entry := range entries {
			if entry.Type != "items" {
				continue
			}
			if displayName, _ := entry.Attributes["displayName"].(string); displayName == name {
				return entry.ID, true, nil
			}
		}

		next = doc.Links["next"].Href
	}

	return "", false, nil
}

// CreateVersion adds a version backed by storageID to an existing item.
func (c *Client) CreateVersion(ctx context.Context, token, projectID, itemID, fileName, storageID string) (*Document, error) {
	doc, err := c.postDocument(ctx, token, c.projectURL(projectID, "/versions"), &Document{
		JSONAPI: jsonAPI10,
		Data: mustMarshal(Resource{
			Type:       "versions",
			Attributes: versionAttributes(fileName),
			Relationships: map[string]Relationship{
				"item":    toOne("items", itemID),
				"storage": toOne("objects", storageID),
			},
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create version: %w", err)
	}

	c.logger.Info("version created", "project", projectID, "item", itemID, "name", fileName)
	return doc, nil
}

// CreateItem creates a new item in a folder with a first version backed by
// storageID. The response must carry the new item with its id.
func (c *Client) CreateItem(ctx context.Context, token, projectID, folderID, fileName, storageID string) (*Document, error) {
	doc, err := c.postDocument(ctx, token, c.projectURL(projectID, "/items"), &Document{
		JSONAPI: jsonAPI10,
		Data: mustMarshal(Resource{
			Type: "items",
			Attributes: map[string]interface{}{
				"displayName": fileName,
				"extension":   extension(itemExtensionType),
			},
			Relationships: map[string]Relationship{
				"tip":    toOne("versions", "1"),
				"parent": toOne("folders", folderID),
			},
		}),
		Included: []Resource{{
			Type:       "versions",
			ID:         "1",
			Attributes: versionAttributes(fileName),
			Relationships: map[string]Relationship{
				"storage": toOne("objects", storageID),
			},
		}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create item: %w", err)
	}
	if _, err := typedResource("create item", doc, "items"); err != nil {
		return nil, err
	}

	c.logger.Info("item created", "project", projectID, "folder", folderID, "name", fileName)
	return doc, nil
}

func extension(typ string) map[string]interface{} {
	return map[string]interface{}{"type": typ, "version": "1.0"}
}

func versionAttributes(fileName string) map[string]interface{} {
	return map[string]interface{}{
		"name":      fileName,
		"extension": extension(versionExtensionType),
	}
}
