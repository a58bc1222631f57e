package google

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	tasks "google.golang.org/api/tasks/v1"

	"github.com/Mattschoe/DayEventToTask/internal/apperr"
	"github.com/Mattschoe/DayEventToTask/internal/instrumentation"
)

// tokenServer is a fake OAuth token endpoint.
type tokenServer struct {
	*httptest.Server
	hits atomic.Int32
}

func newTokenServer(t *testing.T, status int, body string) *tokenServer {
	t.Helper()
	ts := &tokenServer{}
	ts.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ts.hits.Add(1)
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if r.PostForm.Get("grant_type") != "refresh_token" || r.PostForm.Get("refresh_token") != "1//refresh" {
			http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(ts.Close)
	return ts
}

type loginSpy struct {
	calls int
	cred  *Credential
	err   error
}

func (l *loginSpy) Login(_ context.Context, scope Scope) (*Credential, error) {
	l.calls++
	if l.err != nil {
		return nil, l.err
	}
	c := *l.cred
	c.Scope = scope
	return &c, nil
}

func newTestStore(t *testing.T, cfg StoreConfig) *Store {
	t.Helper()
	if cfg.Scope == "" {
		cfg.Scope = ScopeTasksWrite
	}
	if cfg.TokenPath == "" {
		cfg.TokenPath = filepath.Join(t.TempDir(), "tasksToken.json")
	}
	if cfg.SecretEnv == "" {
		cfg.SecretEnv = "TASKS_TOKEN"
	}
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return testNow }
	}
	s, err := NewStore(cfg)
	require.NoError(t, err)
	return s
}

func writeCredential(t *testing.T, path string, cred *Credential) {
	t.Helper()
	require.NoError(t, SaveCredential(path, cred))
}

func TestNewStore_Validation(t *testing.T) {
	_, err := NewStore(StoreConfig{Scope: "mail", TokenPath: "/tmp/x"})
	assert.Equal(t, apperr.KindConfiguration, apperr.KindOf(err))

	_, err = NewStore(StoreConfig{Scope: ScopeTasksWrite})
	assert.Equal(t, apperr.KindConfiguration, apperr.KindOf(err))
}

func TestStore_UsesValidTokenFile(t *testing.T) {
	login := &loginSpy{}
	s := newTestStore(t, StoreConfig{Login: login.Login})
	writeCredential(t, s.TokenPath(), &Credential{
		Scope:       ScopeTasksWrite,
		AccessToken: "ya29.valid",
		Expiry:      testNow.Add(time.Hour),
		Scopes:      []string{tasks.TasksScope},
	})

	cred, err := s.Credential(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ya29.valid", cred.AccessToken)
	assert.Equal(t, 0, login.calls)
}

func TestStore_RefreshesAndPersists(t *testing.T) {
	server := newTokenServer(t, http.StatusOK, `{"access_token":"ya29.new","token_type":"Bearer","expires_in":3600}`)
	login := &loginSpy{}
	s := newTestStore(t, StoreConfig{Login: login.Login, HTTPClient: server.Client()})
	writeCredential(t, s.TokenPath(), &Credential{
		Scope:        ScopeTasksWrite,
		AccessToken:  "ya29.old",
		RefreshToken: "1//refresh",
		Expiry:       testNow.Add(-time.Hour),
		TokenURI:     server.URL,
		ClientID:     "id",
		ClientSecret: "secret",
	})

	cred, err := s.Credential(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ya29.new", cred.AccessToken)
	assert.Equal(t, "1//refresh", cred.RefreshToken, "refresh token kept when not rotated")
	assert.Equal(t, int32(1), server.hits.Load())
	assert.Equal(t, 0, login.calls)

	persisted, err := LoadCredential(s.TokenPath(), ScopeTasksWrite)
	require.NoError(t, err)
	assert.Equal(t, "ya29.new", persisted.AccessToken)
	assert.Equal(t, "id", persisted.ClientID)

	// Held in memory afterwards.
	again, err := s.Credential(context.Background())
	require.NoError(t, err)
	assert.Same(t, cred, again)
	assert.Equal(t, int32(1), server.hits.Load())
}

func TestStore_RefreshFailureIsAuthenticationError(t *testing.T) {
	server := newTokenServer(t, http.StatusBadRequest, `{"error":"invalid_grant","error_description":"Token has been expired or revoked."}`)
	login := &loginSpy{}
	s := newTestStore(t, StoreConfig{Login: login.Login, HTTPClient: server.Client()})
	writeCredential(t, s.TokenPath(), &Credential{
		Scope:        ScopeTasksWrite,
		AccessToken:  "ya29.old",
		RefreshToken: "1//refresh",
		Expiry:       testNow.Add(-time.Hour),
		TokenURI:     server.URL,
	})

	_, err := s.Credential(context.Background())
	require.Error(t, err)
	assert.Equal(t, apperr.KindAuthentication, apperr.KindOf(err))
	assert.Equal(t, 0, login.calls, "refresh failure never falls back to login")
}

func TestStore_CIWithoutTokenFailsWithoutNetwork(t *testing.T) {
	server := newTokenServer(t, http.StatusOK, `{}`)
	login := &loginSpy{}
	s := newTestStore(t, StoreConfig{CI: true, Login: login.Login, HTTPClient: server.Client()})

	_, err := s.Credential(context.Background())
	require.Error(t, err)
	assert.Equal(t, apperr.KindAuthentication, apperr.KindOf(err))
	assert.ErrorIs(t, err, apperr.ErrCIWithoutToken)
	assert.Contains(t, err.Error(), "TASKS_TOKEN")
	assert.Equal(t, 0, login.calls)
	assert.Equal(t, int32(0), server.hits.Load())
}

func TestStore_CIWithExpiredUnrefreshableToken(t *testing.T) {
	login := &loginSpy{}
	s := newTestStore(t, StoreConfig{CI: true, Login: login.Login})
	writeCredential(t, s.TokenPath(), &Credential{
		Scope:       ScopeTasksWrite,
		AccessToken: "ya29.old",
		Expiry:      testNow.Add(-time.Hour),
	})

	_, err := s.Credential(context.Background())
	assert.ErrorIs(t, err, apperr.ErrCIWithoutToken)
	assert.Equal(t, 0, login.calls)
}

func TestStore_ExpiredUnrefreshableTokenGoesToLogin(t *testing.T) {
	server := newTokenServer(t, http.StatusOK, `{"access_token":"ya29.unused","token_type":"Bearer","expires_in":3600}`)
	login := &loginSpy{cred: &Credential{AccessToken: "ya29.fresh", RefreshToken: "1//fresh", Expiry: testNow.Add(time.Hour)}}
	s := newTestStore(t, StoreConfig{Login: login.Login, HTTPClient: server.Client()})
	writeCredential(t, s.TokenPath(), &Credential{
		Scope:       ScopeTasksWrite,
		AccessToken: "ya29.old",
		Expiry:      testNow.Add(-time.Hour),
		TokenURI:    server.URL,
	})

	cred, err := s.Credential(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ya29.fresh", cred.AccessToken)
	assert.Equal(t, 1, login.calls)
	assert.Equal(t, int32(0), server.hits.Load(), "no refresh without a refresh token")

	persisted, err := LoadCredential(s.TokenPath(), ScopeTasksWrite)
	require.NoError(t, err)
	assert.Equal(t, "ya29.fresh", persisted.AccessToken)
	assert.Equal(t, "1//fresh", persisted.RefreshToken)
}

func TestStore_CredentialSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})

	server := newTokenServer(t, http.StatusOK, `{"access_token":"ya29.new","token_type":"Bearer","expires_in":3600}`)
	refreshing := newTestStore(t, StoreConfig{Scope: ScopeCalendarRead, HTTPClient: server.Client()})
	writeCredential(t, refreshing.TokenPath(), &Credential{
		Scope:        ScopeCalendarRead,
		RefreshToken: "1//refresh",
		TokenURI:     server.URL,
	})
	_, err := refreshing.Credential(context.Background())
	require.NoError(t, err)

	login := &loginSpy{err: errors.New("consent denied")}
	_, err = newTestStore(t, StoreConfig{Login: login.Login}).Credential(context.Background())
	require.Error(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 2)

	assert.Equal(t, "credentials.refresh", spans[0].Name())
	assert.Equal(t, codes.Ok, spans[0].Status().Code)
	assert.Contains(t, spans[0].Attributes(), attribute.String(instrumentation.SpanAttrScope, "calendar"))

	assert.Equal(t, "credentials.login", spans[1].Name())
	assert.Equal(t, codes.Error, spans[1].Status().Code)
	assert.Contains(t, spans[1].Attributes(), attribute.String(instrumentation.SpanAttrScope, "tasks"))
}

func TestStore_LoginWhenNoTokenFile(t *testing.T) {
	login := &loginSpy{cred: &Credential{AccessToken: "ya29.fresh", RefreshToken: "1//fresh", Expiry: testNow.Add(time.Hour)}}
	s := newTestStore(t, StoreConfig{Login: login.Login})

	cred, err := s.Credential(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ya29.fresh", cred.AccessToken)
	assert.Equal(t, ScopeTasksWrite, cred.Scope)
	assert.Equal(t, 1, login.calls)

	info, err := os.Stat(s.TokenPath())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestStore_IgnoresTokenForOtherScope(t *testing.T) {
	login := &loginSpy{cred: &Credential{AccessToken: "ya29.tasks", Expiry: testNow.Add(time.Hour)}}
	s := newTestStore(t, StoreConfig{Login: login.Login})
	writeCredential(t, s.TokenPath(), &Credential{
		Scope:       ScopeCalendarRead,
		AccessToken: "ya29.calendar",
		Expiry:      testNow.Add(time.Hour),
		Scopes:      ScopeCalendarRead.OAuthScopes(),
	})

	cred, err := s.Credential(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ya29.tasks", cred.AccessToken)
	assert.Equal(t, 1, login.calls)
}

func TestStore_CorruptTokenFileTreatedAsAbsent(t *testing.T) {
	login := &loginSpy{cred: &Credential{AccessToken: "ya29.fresh"}}
	s := newTestStore(t, StoreConfig{Login: login.Login})
	require.NoError(t, os.WriteFile(s.TokenPath(), []byte("ya29 1//0g"), 0o600))

	cred, err := s.Credential(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ya29.fresh", cred.AccessToken)
	assert.Equal(t, 1, login.calls)
}

func TestStore_LoginErrors(t *testing.T) {
	t.Run("classified error passes through", func(t *testing.T) {
		login := &loginSpy{err: apperr.Configuration("google.login", apperr.ErrNoClientSecret)}
		s := newTestStore(t, StoreConfig{Login: login.Login})

		_, err := s.Credential(context.Background())
		assert.Equal(t, apperr.KindConfiguration, apperr.KindOf(err))
		assert.ErrorIs(t, err, apperr.ErrNoClientSecret)
	})

	t.Run("unclassified error becomes authentication", func(t *testing.T) {
		login := &loginSpy{err: errors.New("boom")}
		s := newTestStore(t, StoreConfig{Login: login.Login})

		_, err := s.Credential(context.Background())
		assert.Equal(t, apperr.KindAuthentication, apperr.KindOf(err))
	})

	t.Run("no login configured", func(t *testing.T) {
		s := newTestStore(t, StoreConfig{})

		_, err := s.Credential(context.Background())
		assert.Equal(t, apperr.KindAuthentication, apperr.KindOf(err))
	})
}

func TestStore_PersistFailureIsConfigurationError(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o600))

	login := &loginSpy{cred: &Credential{AccessToken: "ya29.fresh"}}
	s := newTestStore(t, StoreConfig{Login: login.Login, TokenPath: filepath.Join(blocker, "tasksToken.json")})

	_, err := s.Credential(context.Background())
	assert.Equal(t, apperr.KindConfiguration, apperr.KindOf(err))
}

func TestStore_ForcedLogin(t *testing.T) {
	login := &loginSpy{cred: &Credential{AccessToken: "ya29.forced"}}
	s := newTestStore(t, StoreConfig{Login: login.Login})
	writeCredential(t, s.TokenPath(), &Credential{Scope: ScopeTasksWrite, AccessToken: "ya29.valid"})

	cred, err := s.Login(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ya29.forced", cred.AccessToken)

	persisted, err := LoadCredential(s.TokenPath(), ScopeTasksWrite)
	require.NoError(t, err)
	assert.Equal(t, "ya29.forced", persisted.AccessToken)
}
