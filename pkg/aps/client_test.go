package aps

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(&Config{
		BaseURL: server.URL,
		FS:      afero.NewMemMapFs(),
	}, hclog.NewNullLogger())
	require.NoError(t, err)

	return client, server
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func TestConfig_Defaults(t *testing.T) {
	cfg := &Config{}
	cfg.SetDefaults()

	assert.Equal(t, DefaultBaseURL, cfg.BaseURL)
	assert.Equal(t, DefaultRegion, cfg.Region)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, 120*time.Second, cfg.TransferTimeout)
	require.NotNil(t, cfg.TLSVerify)
	assert.True(t, *cfg.TLSVerify)
	assert.NotNil(t, cfg.FS)
	assert.NoError(t, cfg.Validate())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{name: "defaults", modify: func(*Config) {}},
		{name: "missing base url", modify: func(c *Config) { c.BaseURL = "" }, wantErr: true},
		{name: "non http scheme", modify: func(c *Config) { c.BaseURL = "ftp://example.com" }, wantErr: true},
		{name: "missing region", modify: func(c *Config) { c.Region = "" }, wantErr: true},
		{name: "negative timeout", modify: func(c *Config) { c.Timeout = -time.Second }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewClient_InvalidConfig(t *testing.T) {
	_, err := NewClient(&Config{BaseURL: "not a url"}, nil)
	assert.Error(t, err)
}

func TestClient_RequestError(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		http.Error(w, `{"diagnostic":"boom"}`, http.StatusInternalServerError)
	}))

	_, err := client.GetNickname(context.Background(), "tok")
	require.Error(t, err)

	var reqErr *RequestError
	require.True(t, errors.As(err, &reqErr))
	assert.Equal(t, http.StatusInternalServerError, reqErr.StatusCode)
	assert.Equal(t, http.MethodGet, reqErr.Method)
	assert.Contains(t, reqErr.Body, "boom")
	assert.True(t, IsStatus(err, http.StatusInternalServerError))
	assert.False(t, IsNotFound(err))
}

func TestClient_ContractErrorOnBadJSON(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("{not json"))
	}))

	_, err := client.CreateActivity(context.Background(), "tok", &Activity{ID: "a"})
	require.Error(t, err)

	var contractErr *ContractError
	assert.True(t, errors.As(err, &contractErr))
}

func TestContractError_Excerpt(t *testing.T) {
	payload := make([]byte, 1000)
	for i := range payload {
		payload[i] = 'x'
	}

	err := newContractError("op", "reason", payload)
	assert.Len(t, err.Payload, maxExcerpt)
	assert.Contains(t, err.Error(), "unexpected payload for op: reason")
}

func TestRedactURL(t *testing.T) {
	assert.Equal(t, "https://s3.example.com/obj", redactURL("https://s3.example.com/obj?X-Amz-Signature=secret"))
	assert.Equal(t, "https://s3.example.com/obj", redactURL("https://s3.example.com/obj"))
}
