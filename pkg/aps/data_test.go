package aps

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testVersionURN = "urn:adsk.wipprod:fs.file:vf.abc?version=3"

func TestItemFromVersion(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/data/v1/projects/b.p1/versions/"+testVersionURN+"/item", r.URL.Path)
		w.Write([]byte(`{"data":{"type":"items","id":"urn:adsk.wipprod:dm.lineage:abc"}}`))
	}))

	itemID, err := client.ItemFromVersion(context.Background(), "tok", "b.p1", testVersionURN)
	require.NoError(t, err)
	assert.Equal(t, "urn:adsk.wipprod:dm.lineage:abc", itemID)
}

func TestItemFromVersion_RequiresVersionSuffix(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	}))

	_, err := client.ItemFromVersion(context.Background(), "tok", "b.p1", "urn:adsk.wipprod:fs.file:vf.abc")
	assert.True(t, errors.Is(err, ErrVersionURN))
}

func TestParentFolder_WrongType(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"type":"items","id":"x"}}`))
	}))

	_, err := client.ParentFolder(context.Background(), "tok", "b.p1", "item")
	var contractErr *ContractError
	require.ErrorAs(t, err, &contractErr)
	assert.Equal(t, "item->parent", contractErr.Op)
}

func TestResolveParentFolder(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/data/v1/projects/b.p1/versions/" + testVersionURN + "/item":
			w.Write([]byte(`{"data":{"type":"items","id":"item-1"}}`))
		case "/data/v1/projects/b.p1/items/item-1/parent":
			w.Write([]byte(`{"data":{"type":"folders","id":"folder-1"}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))

	folderID, err := client.ResolveParentFolder(context.Background(), "tok", "b.p1", testVersionURN)
	require.NoError(t, err)
	assert.Equal(t, "folder-1", folderID)
}

func TestFindTipStorageID(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    string
		wantErr bool
	}{
		{
			name: "primary resource",
			body: `{"data":{"type":"versions","id":"v1","relationships":{"storage":{"data":{"type":"objects","id":"urn:adsk.objects:os.object:wip.dm.prod/a.rvt"}}}}}`,
			want: "urn:adsk.objects:os.object:wip.dm.prod/a.rvt",
		},
		{
			name: "included resource",
			body: `{"data":{"type":"versions","id":"v1","relationships":{"item":{"data":{"type":"items","id":"i"}}}},
				"included":[{"type":"versions","id":"v1","relationships":{"storage":{"data":{"type":"objects","id":"s-2"}}}}]}`,
			want: "s-2",
		},
		{
			name:    "no storage",
			body:    `{"data":{"type":"versions","id":"v1","relationships":{"storage":{"meta":{}}}}}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var doc Document
			require.NoError(t, json.Unmarshal([]byte(tt.body), &doc))

			got, err := FindTipStorageID(&doc)
			if tt.wantErr {
				var contractErr *ContractError
				assert.ErrorAs(t, err, &contractErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCreateStorage(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/data/v1/projects/b.p1/storage", r.URL.Path)
		assert.Equal(t, jsonAPIContentType, r.Header.Get("Content-Type"))

		var doc Document
		require.NoError(t, json.NewDecoder(r.Body).Decode(&doc))
		res, err := doc.Resource()
		require.NoError(t, err)
		assert.Equal(t, "objects", res.Type)
		assert.Equal(t, "out.rvt", res.Attributes["name"])
		target, ok := res.Relationships["target"].Identifier()
		require.True(t, ok)
		assert.Equal(t, ResourceIdentifier{Type: "folders", ID: "folder-1"}, target)

		w.Write([]byte(`{"data":{"type":"objects","id":"urn:adsk.objects:os.object:wip.dm.prod/out.rvt"}}`))
	}))

	id, err := client.CreateStorage(context.Background(), "tok", "b.p1", "folder-1", "out.rvt")
	require.NoError(t, err)
	assert.Equal(t, "urn:adsk.objects:os.object:wip.dm.prod/out.rvt", id)
}

func TestCreateStorage_MissingID(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"type":"objects"}}`))
	}))

	_, err := client.CreateStorage(context.Background(), "tok", "b.p1", "folder-1", "out.rvt")
	var contractErr *ContractError
	assert.ErrorAs(t, err, &contractErr)
}

func TestFindItemByName(t *testing.T) {
	var serverURL string
	client, server := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page[number]") == "1" {
			w.Write([]byte(`{"data":[
				{"type":"items","id":"item-2","attributes":{"displayName":"b.rvt"}},
				{"type":"items","id":"item-3","attributes":{"displayName":"b.rvt"}}
			]}`))
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"data": []map[string]interface{}{
				{"type": "folders", "id": "f-2", "attributes": map[string]string{"displayName": "b.rvt"}},
				{"type": "items", "id": "item-1", "attributes": map[string]string{"displayName": "a.rvt"}},
			},
			"links": map[string]interface{}{
				"next": map[string]string{"href": serverURL + r.URL.Path + "?page%5Bnumber%5D=1"},
			},
		})
	}))
	serverURL = server.URL

	id, found, err := client.FindItemByName(context.Background(), "tok", "b.p1", "folder-1", "b.rvt")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "item-2", id)

	_, found, err = client.FindItemByName(context.Background(), "tok", "b.p1", "folder-1", "missing.rvt")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCreateVersion(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/data/v1/projects/b.p1/versions", r.URL.Path)

		var doc Document
		require.NoError(t, json.NewDecoder(r.Body).Decode(&doc))
		require.NotNil(t, doc.JSONAPI)
		assert.Equal(t, "1.0", doc.JSONAPI.Version)

		res, err := doc.Resource()
		require.NoError(t, err)
		assert.Equal(t, "versions", res.Type)
		item, _ := res.Relationships["item"].Identifier()
		storage, _ := res.Relationships["storage"].Identifier()
		assert.Equal(t, "item-1", item.ID)
		assert.Equal(t, "storage-1", storage.ID)
		assert.Equal(t, versionExtensionType, res.Attributes["extension"].(map[string]interface{})["type"])

		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"data":{"type":"versions","id":"urn:v2"}}`))
	}))

	doc, err := client.CreateVersion(context.Background(), "tok", "b.p1", "item-1", "a.rvt", "storage-1")
	require.NoError(t, err)
	res, err := doc.Resource()
	require.NoError(t, err)
	assert.Equal(t, "urn:v2", res.ID)
}

func TestCreateItem(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/data/v1/projects/b.p1/items", r.URL.Path)

		var doc Document
		require.NoError(t, json.NewDecoder(r.Body).Decode(&doc))
		res, err := doc.Resource()
		require.NoError(t, err)
		assert.Equal(t, "items", res.Type)
		assert.Equal(t, "new.rvt", res.Attributes["displayName"])

		tip, _ := res.Relationships["tip"].Identifier()
		parent, _ := res.Relationships["parent"].Identifier()
		assert.Equal(t, ResourceIdentifier{Type: "versions", ID: "1"}, tip)
		assert.Equal(t, ResourceIdentifier{Type: "folders", ID: "folder-1"}, parent)

		require.Len(t, doc.Included, 1)
		storage, _ := doc.Included[0].Relationships["storage"].Identifier()
		assert.Equal(t, "storage-1", storage.ID)

		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"data":{"type":"items","id":"item-9"}}`))
	}))

	_, err := client.CreateItem(context.Background(), "tok", "b.p1", "folder-1", "new.rvt", "storage-1")
	require.NoError(t, err)
}

func TestCreateItem_MissingID(t *testing.T) {
	for name, body := range map[string]string{
		"no data":    `{}`,
		"no id":      `{"data":{"type":"items"}}`,
		"wrong type": `{"data":{"type":"versions","id":"v1"}}`,
	} {
		t.Run(name, func(t *testing.T) {
			client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusCreated)
				w.Write([]byte(body))
			}))

			_, err := client.CreateItem(context.Background(), "tok", "b.p1", "folder-1", "new.rvt", "storage-1")
			var contractErr *ContractError
			assert.ErrorAs(t, err, &contractErr)
		})
	}
}

func TestLink_UnmarshalJSON(t *testing.T) {
	var links Links
	require.NoError(t, json.Unmarshal([]byte(`{"self":"https://a","next":{"href":"https://b"}}`), &links))
	assert.Equal(t, "https://a", links["self"].Href)
	assert.Equal(t, "https://b", links["next"].Href)
}
