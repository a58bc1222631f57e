package google

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
)

// refreshCredential exchanges the refresh token of cred for a new access token.
// The returned credential keeps cred's client fields and scopes.
func refreshCredential(ctx context.Context, cred *Credential, httpClient *http.Client) (*Credential, error) {
	if cred.RefreshToken == "" {
		return nil, errors.New("no refresh token available")
	}

	if httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, httpClient)
	}

	// An empty access token forces the token source to hit the token endpoint
	// regardless of the wall clock.
	tokenSource := cred.OAuthConfig().TokenSource(ctx, &oauth2.Token{RefreshToken: cred.RefreshToken})
	token, err := tokenSource.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to refresh token: %w", err)
	}

	refreshed := *cred
	refreshed.AccessToken = token.AccessToken
	refreshed.Expiry = token.Expiry
	if token.RefreshToken != "" {
		refreshed.RefreshToken = token.RefreshToken
	}
	return &refreshed, nil
}
