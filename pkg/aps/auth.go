package aps

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// DefaultScopes are the scopes the automation workflow needs: OSS buckets,
// Data Management reads/writes and Design Automation.
var DefaultScopes = []string{
	"data:read",
	"data:write",
	"data:create",
	"bucket:create",
	"bucket:read",
	"code:all",
}

// Credentials identify an APS application.
type Credentials struct {
	ClientID     string
	ClientSecret string
	Scopes       []string
}

func (cr Credentials) scopes() []string {
	if len(cr.Scopes) == 0 {
		return DefaultScopes
	}
	return cr.Scopes
}

// TwoLeggedToken requests a client-credentials token for the application
// itself.
func (c *Client) TwoLeggedToken(ctx context.Context, creds Credentials) (*oauth2.Token, error) {
	cfg := clientcredentials.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		TokenURL:     c.authURL("/token"),
		Scopes:       creds.scopes(),
		AuthStyle:    oauth2.AuthStyleInParams,
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.client)
	token, err := cfg.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get two-legged token: %w", err)
	}

	c.logger.Debug("obtained two-legged token", "expiry", token.Expiry)
	return token, nil
}

// ThreeLeggedFlow is one authorization-code exchange with PKCE on behalf of
// an end user. Create one per login attempt.
type ThreeLeggedFlow struct {
	config   *oauth2.Config
	verifier string
	client   *Client
}

// ThreeLegged starts an authorization-code flow that will redirect the end
// user back to redirectURL.
func (c *Client) ThreeLegged(creds Credentials, redirectURL string) *ThreeLeggedFlow {
	return &ThreeLeggedFlow{
		config: &oauth2.Config{
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
			RedirectURL:  redirectURL,
			Scopes:       creds.scopes(),
			Endpoint: oauth2.Endpoint{
				AuthURL:   c.authURL("/authorize"),
				TokenURL:  c.authURL("/token"),
				AuthStyle: oauth2.AuthStyleInHeader,
			},
		},
		verifier: oauth2.GenerateVerifier(),
		client:   c,
	}
}

// AuthCodeURL returns the consent page URL carrying the PKCE challenge.
func (f *ThreeLeggedFlow) AuthCodeURL(state string) string {
	return f.config.AuthCodeURL(state, oauth2.S256ChallengeOption(f.verifier))
}

// Exchange trades the authorization code for a three-legged token.
func (f *ThreeLeggedFlow) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, f.client.client)
	token, err := f.config.Exchange(ctx, code, oauth2.VerifierOption(f.verifier))
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}
	return token, nil
}

// TokenExpiry reads the exp claim of an APS access token without verifying
// its signature. ok is false when the token is not a JWT or carries no exp.
func TokenExpiry(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
