package google

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Mattschoe/DayEventToTask/internal/apperr"
	"github.com/Mattschoe/DayEventToTask/internal/instrumentation"
	"github.com/Mattschoe/DayEventToTask/internal/logging"
)

// LoginFunc obtains a fresh credential for scope from the user.
type LoginFunc func(ctx context.Context, scope Scope) (*Credential, error)

// StoreConfig configures a Store.
type StoreConfig struct {
	Scope Scope

	// TokenPath is the token file for Scope.
	TokenPath string

	// SecretEnv names the environment variable CI runs are expected to
	// provide the token in. Used in error messages only.
	SecretEnv string

	// CI disables the login fallback.
	CI bool

	// Login is the interactive fallback. Required unless CI is set.
	Login LoginFunc

	// Now defaults to time.Now.
	Now func() time.Time

	// HTTPClient is used for token refreshes. Nil means http.DefaultClient.
	HTTPClient *http.Client

	Logger  logging.Logger
	Metrics *instrumentation.Metrics
}

// Store hands out a usable credential for one scope, backed by a token file.
type Store struct {
	cfg    StoreConfig
	logger logging.Logger
	cred   *Credential
}

// NewStore validates cfg and returns a Store.
func NewStore(cfg StoreConfig) (*Store, error) {
	if !cfg.Scope.Valid() {
		return nil, apperr.Configuration("google.store", fmt.Errorf("unknown scope %q", cfg.Scope))
	}
	if cfg.TokenPath == "" {
		return nil, apperr.Configuration("google.store", fmt.Errorf("no token path for scope %s", cfg.Scope))
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Store{
		cfg:    cfg,
		logger: logging.OrDefault(cfg.Logger),
	}, nil
}

// Scope returns the scope this store serves.
func (s *Store) Scope() Scope {
	return s.cfg.Scope
}

// TokenPath returns the token file backing the store.
func (s *Store) TokenPath() string {
	return s.cfg.TokenPath
}

// Credential returns a usable credential, in order of preference: the one
// already held, the token file, a refresh of an expired token, and finally
// the interactive login. In CI the login is replaced by an Authentication error.
func (s *Store) Credential(ctx context.Context) (*Credential, error) {
	now := s.cfg.Now()
	scope := s.cfg.Scope.String()

	if IsUsable(s.cred, now) {
		return s.cred, nil
	}

	cred := s.cred
	if cred == nil {
		cred = s.load()
	}

	if IsUsable(cred, now) {
		s.logger.Debug("using cached credential", logging.Scope(scope), logging.Path(s.cfg.TokenPath))
		s.cred = cred
		return cred, nil
	}

	if cred.Refreshable(now) {
		return s.refresh(ctx, cred)
	}

	if s.cfg.CI {
		s.cfg.Metrics.RecordOAuthAuth(ctx, scope, instrumentation.OAuthResultFailure)
		return nil, apperr.Authentication("google.credential", fmt.Errorf(
			"%w: no usable %s token at %s; set %s to the base64 of a valid token file",
			apperr.ErrCIWithoutToken, scope, s.cfg.TokenPath, s.cfg.SecretEnv))
	}

	if s.cfg.Login == nil {
		return nil, apperr.Authentication("google.credential", fmt.Errorf("no usable %s token and no login available", scope))
	}

	s.logger.Info("starting interactive login", logging.Scope(scope))
	cred, err := s.login(ctx)
	if err != nil && apperr.KindOf(err) == apperr.KindUnknown &&
		!errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return nil, apperr.Authentication("google.login", err)
	}
	return cred, err
}

// Login runs the interactive login regardless of any stored token and
// persists the result.
func (s *Store) Login(ctx context.Context) (*Credential, error) {
	if s.cfg.Login == nil {
		return nil, apperr.Configuration("google.login", errors.New("no login available"))
	}
	return s.login(ctx)
}

func (s *Store) refresh(ctx context.Context, cred *Credential) (_ *Credential, err error) {
	scope := s.cfg.Scope.String()
	ctx, span := s.startSpan(ctx, "refresh")
	defer func() { instrumentation.EndSpan(span, err) }()

	refreshed, err := refreshCredential(ctx, cred, s.cfg.HTTPClient)
	if err != nil {
		s.cfg.Metrics.RecordOAuthTokenRefresh(ctx, scope, instrumentation.OAuthResultFailure)
		s.logger.Error("token refresh failed", logging.Scope(scope), logging.Err(err))
		return nil, apperr.Authentication("google.refresh", fmt.Errorf("failed to refresh %s token: %w", scope, err))
	}
	s.cfg.Metrics.RecordOAuthTokenRefresh(ctx, scope, instrumentation.OAuthResultSuccess)
	s.logger.Info("refreshed credential", logging.Scope(scope))
	return s.persist(refreshed)
}

// login runs the configured login and persists its result. Errors are
// returned as the login reported them.
func (s *Store) login(ctx context.Context) (_ *Credential, err error) {
	scope := s.cfg.Scope.String()
	ctx, span := s.startSpan(ctx, "login")
	defer func() { instrumentation.EndSpan(span, err) }()

	fresh, err := s.cfg.Login(ctx, s.cfg.Scope)
	if err != nil {
		s.cfg.Metrics.RecordOAuthAuth(ctx, scope, instrumentation.OAuthResultFailure)
		return nil, err
	}
	fresh.Scope = s.cfg.Scope
	s.cfg.Metrics.RecordOAuthAuth(ctx, scope, instrumentation.OAuthResultSuccess)
	return s.persist(fresh)
}

func (s *Store) startSpan(ctx context.Context, step string) (context.Context, trace.Span) {
	return instrumentation.StartSpan(ctx, "credentials."+step,
		attribute.String(instrumentation.SpanAttrScope, s.cfg.Scope.String()))
}

// load reads the token file. Problems are logged and reported as no credential.
func (s *Store) load() *Credential {
	cred, err := LoadCredential(s.cfg.TokenPath, s.cfg.Scope)
	switch {
	case err == nil:
		if !cred.CoversScope() {
			s.logger.Warn("token file was granted different scopes, ignoring it",
				logging.Scope(s.cfg.Scope.String()), logging.Path(s.cfg.TokenPath))
			return nil
		}
		return cred
	case errors.Is(err, fs.ErrNotExist):
		s.logger.Debug("no token file", logging.Scope(s.cfg.Scope.String()), logging.Path(s.cfg.TokenPath))
	default:
		s.logger.Warn("ignoring unreadable token file",
			logging.Scope(s.cfg.Scope.String()), logging.Path(s.cfg.TokenPath), logging.Err(err))
	}
	return nil
}

func (s *Store) persist(cred *Credential) (*Credential, error) {
	if err := SaveCredential(s.cfg.TokenPath, cred); err != nil {
		return nil, apperr.Configuration("google.persist", err)
	}
	s.logger.Debug("saved credential", logging.Scope(s.cfg.Scope.String()), logging.Path(s.cfg.TokenPath))
	s.cred = cred
	return cred, nil
}
