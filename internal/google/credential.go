package google

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// expiryDelta matches the early-expiry window of golang.org/x/oauth2.
const expiryDelta = 10 * time.Second

// Credential is an OAuth token for one scope together with what is needed to
// refresh it.
type Credential struct {
	Scope Scope

	AccessToken  string
	RefreshToken string
	Expiry       time.Time

	TokenURI     string
	ClientID     string
	ClientSecret string

	// Scopes are the OAuth scopes the token was granted for. Empty means unknown.
	Scopes []string
}

// Expired reports whether an expiry is recorded and has been reached at now.
func (c *Credential) Expired(now time.Time) bool {
	if c == nil || c.Expiry.IsZero() {
		return false
	}
	return !now.Before(c.Expiry.Add(-expiryDelta))
}

// CoversScope reports whether the recorded scopes include everything c.Scope needs.
// A credential with no recorded scopes is assumed to cover its scope.
func (c *Credential) CoversScope() bool {
	if c == nil || !c.Scope.Valid() {
		return false
	}
	if len(c.Scopes) == 0 {
		return true
	}
	return scopesCover(c.Scopes, c.Scope.OAuthScopes())
}

// Refreshable reports whether an expired credential can be renewed without the user.
// A credential holding only a refresh token counts as expired, so a token
// file carrying just the refresh token is renewed instead of sent to login.
func (c *Credential) Refreshable(now time.Time) bool {
	if c == nil || c.RefreshToken == "" || !c.CoversScope() {
		return false
	}
	return c.AccessToken == "" || c.Expired(now)
}

// IsUsable reports whether cred can authorize requests at now.
func IsUsable(cred *Credential, now time.Time) bool {
	if cred == nil || cred.AccessToken == "" {
		return false
	}
	return !cred.Expired(now) && cred.CoversScope()
}

// Token converts c to an oauth2 token.
func (c *Credential) Token() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  c.AccessToken,
		TokenType:    "Bearer",
		RefreshToken: c.RefreshToken,
		Expiry:       c.Expiry,
	}
}

// OAuthConfig returns the client configuration used to refresh c.
func (c *Credential) OAuthConfig() *oauth2.Config {
	tokenURL := c.TokenURI
	if tokenURL == "" {
		tokenURL = google.Endpoint.TokenURL
	}
	return &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:   google.Endpoint.AuthURL,
			TokenURL:  tokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
		Scopes: c.Scope.OAuthScopes(),
	}
}

// authorizedUser is the on-disk token document. Its field names follow the
// Google "authorized user" JSON format so token files written by other Google
// client libraries can be read and vice versa.
type authorizedUser struct {
	Type         string   `json:"type,omitempty"`
	Token        string   `json:"token"`
	RefreshToken string   `json:"refresh_token,omitempty"`
	TokenURI     string   `json:"token_uri,omitempty"`
	ClientID     string   `json:"client_id,omitempty"`
	ClientSecret string   `json:"client_secret,omitempty"`
	Scopes       []string `json:"scopes,omitempty"`
	Expiry       string   `json:"expiry,omitempty"`
}

const authorizedUserType = "authorized_user"

// expiryLayouts are tried in order when parsing the expiry field.
var expiryLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
}

func parseExpiry(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range expiryLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid expiry %q", s)
}

// DecodeCredential parses a token document for scope.
func DecodeCredential(data []byte, scope Scope) (*Credential, error) {
	var doc authorizedUser
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode token file: %w", err)
	}
	if doc.Token == "" && doc.RefreshToken == "" {
		return nil, errors.New("token file holds neither an access token nor a refresh token")
	}
	expiry, err := parseExpiry(doc.Expiry)
	if err != nil {
		return nil, err
	}
	return &Credential{
		Scope:        scope,
		AccessToken:  doc.Token,
		RefreshToken: doc.RefreshToken,
		Expiry:       expiry,
		TokenURI:     doc.TokenURI,
		ClientID:     doc.ClientID,
		ClientSecret: doc.ClientSecret,
		Scopes:       doc.Scopes,
	}, nil
}

// Encode returns the token document for c.
func (c *Credential) Encode() ([]byte, error) {
	doc := authorizedUser{
		Type:         authorizedUserType,
		Token:        c.AccessToken,
		RefreshToken: c.RefreshToken,
		TokenURI:     c.TokenURI,
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		Scopes:       c.Scopes,
	}
	if !c.Expiry.IsZero() {
		doc.Expiry = c.Expiry.UTC().Format(time.RFC3339)
	}
	return json.MarshalIndent(doc, "", "  ")
}

// LoadCredential reads the token file at path for scope.
func LoadCredential(path string, scope Scope) (*Credential, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return DecodeCredential(data, scope)
}

// SaveCredential writes c to path with mode 0600, creating the directory with 0700.
func SaveCredential(path string, c *Credential) error {
	if c == nil {
		return errors.New("no credential to save")
	}
	data, err := c.Encode()
	if err != nil {
		return fmt.Errorf("failed to encode credential: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	if err := os.Chmod(path, 0o600); err != nil {
		return fmt.Errorf("failed to restrict token file: %w", err)
	}
	return nil
}
