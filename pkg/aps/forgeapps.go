package aps

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// GetNickname returns the Design Automation nickname of the calling app, the
// qualifier prefixed to app bundle and activity ids.
func (c *Client) GetNickname(ctx context.Context, token string) (string, error) {
	var raw json.RawMessage
	err := c.do(ctx, request{
		method: http.MethodGet,
		url:    c.daURL("/forgeapps/me"),
		token:  token,
	}, &raw)
	if err != nil {
		return "", fmt.Errorf("failed to get nickname: %w", err)
	}

	// The service answers with a bare JSON string, older deployments with
	// an object carrying the nickname and public key.
	trimmed := strings.TrimSpace(string(raw))
	if strings.HasPrefix(trimmed, `"`) {
		var nickname string
		if err := json.Unmarshal(raw, &nickname); err != nil {
			return "", newContractError("forgeapps/me", err.Error(), raw)
		}
		return nickname, nil
	}

	var app struct {
		Nickname string `json:"nickname"`
	}
	if err := json.Unmarshal(raw, &app); err != nil || app.Nickname == "" {
		return "", newContractError("forgeapps/me", "no nickname in response", raw)
	}
	return app.Nickname, nil
}

// SetNickname tries to set the app nickname and returns the nickname that
// actually applies. Once an app owns resources its nickname is locked; the
// service answers 409 and the current nickname is read back instead.
func (c *Client) SetNickname(ctx context.Context, token, nickname string) (string, error) {
	err := c.do(ctx, request{
		method: http.MethodPatch,
		url:    c.daURL("/forgeapps/me"),
		token:  token,
		body:   map[string]string{"nickname": nickname},
	}, nil)
	if err == nil {
		c.logger.Info("nickname set", "nickname", nickname)
		return nickname, nil
	}

	if IsConflict(err) {
		c.logger.Info("nickname is locked, reading current nickname")
		return c.GetNickname(ctx, token)
	}

	return "", fmt.Errorf("could not set nickname: %w", err)
}
