package gmailx

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
)

// NewOAuthConfig builds the Google OAuth config for read-only Gmail
// access. redirectURL must point at the /email-auth-callback endpoint.
func NewOAuthConfig(clientID, clientSecret, redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Endpoint:     google.Endpoint,
		Scopes: []string{
			gmail.GmailReadonlyScope,
			"https://www.googleapis.com/auth/userinfo.email",
		},
	}
}

// OAuthClient adapts an oauth2.Config to the consent, exchange and
// refresh operations the token service needs.
type OAuthClient struct {
	config *oauth2.Config
}

func NewOAuthClient(config *oauth2.Config) *OAuthClient {
	return &OAuthClient{config: config}
}

// AuthCodeURL returns the consent screen URL. Offline access plus a
// forced consent prompt makes Google return a refresh token on every
// connect, not only the first one.
func (c *OAuthClient) AuthCodeURL(state string) string {
	return c.config.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"))
}

// Exchange trades an authorization code for a token pair.
func (c *OAuthClient) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := c.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code: %w", err)
	}
	return token, nil
}

// Refresh obtains a fresh access token from a stored refresh token. A
// revoked grant surfaces as an error whose text contains
// "invalid_grant"; classification is the caller's job.
func (c *OAuthClient) Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	source := c.config.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	token, err := source.Token()
	if err != nil {
		return nil, err
	}
	return token, nil
}
