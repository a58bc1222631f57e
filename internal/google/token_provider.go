package google

import (
	"context"
	"net/http"

	"golang.org/x/oauth2"
)

// TokenProvider supplies the token source for one scope. *Store implements it.
type TokenProvider interface {
	TokenSource(ctx context.Context) oauth2.TokenSource
}

// storeTokenSource adapts a Store to oauth2.TokenSource. Every call goes
// through Store.Credential, so an expiring token is refreshed and persisted.
type storeTokenSource struct {
	ctx   context.Context
	store *Store
}

func (ts *storeTokenSource) Token() (*oauth2.Token, error) {
	cred, err := ts.store.Credential(ts.ctx)
	if err != nil {
		return nil, err
	}
	return cred.Token(), nil
}

// TokenSource returns a token source backed by the store.
func (s *Store) TokenSource(ctx context.Context) oauth2.TokenSource {
	return &storeTokenSource{ctx: ctx, store: s}
}

// NewHTTPClient returns an HTTP client that authorizes requests with tokens
// from p. The client uses HTTP/1.1 to avoid HTTP/2 protocol errors.
func NewHTTPClient(ctx context.Context, p TokenProvider) *http.Client {
	client := oauth2.NewClient(ctx, p.TokenSource(ctx))

	// Force HTTP/1.1 by disabling HTTP/2
	transport := client.Transport.(*oauth2.Transport)
	transport.Base = &http.Transport{
		Proxy:             http.ProxyFromEnvironment,
		ForceAttemptHTTP2: false,
	}

	return client
}
