package google

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/Mattschoe/DayEventToTask/internal/apperr"
	"github.com/Mattschoe/DayEventToTask/internal/logging"
)

// Messages shown while asking for the client secret file.
const (
	ClientSecretPrompt = "No credentials file found for creating token, please provide the path for credentials:"
	PathRetryMessage   = "Path doesn't exist. Please try again."
)

const callbackPage = "The authentication flow has completed. You may close this window."

// Loginer runs the interactive OAuth login: it asks for a client secret file
// and completes an authorization-code flow with PKCE through a loopback
// redirect on 127.0.0.1.
type Loginer struct {
	In  io.Reader
	Out io.Writer

	// OpenBrowser opens the authorization URL. Nil only prints it.
	OpenBrowser func(url string) error

	// Listen opens the callback listener. Nil means net.Listen.
	Listen func(network, address string) (net.Listener, error)

	// HTTPClient is used for the code exchange. Nil means http.DefaultClient.
	HTTPClient *http.Client

	Logger logging.Logger

	reader *bufio.Reader
}

// NewLoginer returns a Loginer reading from in and printing to out.
func NewLoginer(in io.Reader, out io.Writer, logger logging.Logger) *Loginer {
	return &Loginer{
		In:          in,
		Out:         out,
		OpenBrowser: OpenBrowser,
		Logger:      logger,
	}
}

// Login obtains a credential for scope from the user. It matches LoginFunc.
func (l *Loginer) Login(ctx context.Context, scope Scope) (*Credential, error) {
	if !scope.Valid() {
		return nil, apperr.Configuration("google.login", fmt.Errorf("unknown scope %q", scope))
	}

	path, err := l.promptClientSecret(ctx)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperr.Configuration("google.login", fmt.Errorf("failed to read client secret: %w", err))
	}
	conf, err := google.ConfigFromJSON(data, scope.OAuthScopes()...)
	if err != nil {
		return nil, apperr.Configuration("google.login", fmt.Errorf("invalid client secret file %s: %w", path, err))
	}

	token, err := l.authorize(ctx, conf)
	if err != nil {
		return nil, err
	}

	return &Credential{
		Scope:        scope,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		Expiry:       token.Expiry,
		TokenURI:     conf.Endpoint.TokenURL,
		ClientID:     conf.ClientID,
		ClientSecret: conf.ClientSecret,
		Scopes:       scope.OAuthScopes(),
	}, nil
}

type lineResult struct {
	line string
	err  error
}

// promptClientSecret asks for a path until one names an existing file.
// End of input yields apperr.ErrNoClientSecret.
func (l *Loginer) promptClientSecret(ctx context.Context) (string, error) {
	if l.In == nil {
		return "", apperr.Configuration("google.login", apperr.ErrNoClientSecret)
	}
	if l.reader == nil {
		l.reader = bufio.NewReader(l.In)
	}

	l.printf("%s\n", ClientSecretPrompt)
	for {
		res, err := l.readLine(ctx)
		if err != nil {
			return "", err
		}

		path := cleanPath(res.line)
		if path != "" {
			if info, statErr := os.Stat(path); statErr == nil && info.Mode().IsRegular() {
				return path, nil
			}
		}

		if res.err != nil {
			if errors.Is(res.err, io.EOF) {
				return "", apperr.Configuration("google.login", apperr.ErrNoClientSecret)
			}
			return "", apperr.Interactive("google.login", fmt.Errorf("failed to read client secret path: %w", res.err))
		}

		l.printf("%s\n", PathRetryMessage)
	}
}

// readLine reads one line, giving up early when ctx is done.
func (l *Loginer) readLine(ctx context.Context) (lineResult, error) {
	ch := make(chan lineResult, 1)
	go func() {
		line, err := l.reader.ReadString('\n')
		ch <- lineResult{line: line, err: err}
	}()

	select {
	case res := <-ch:
		return res, nil
	case <-ctx.Done():
		return lineResult{}, ctx.Err()
	}
}

func cleanPath(line string) string {
	return strings.TrimSpace(strings.Trim(strings.TrimSpace(line), `"`))
}

type callbackResult struct {
	code string
	err  error
}

// authorize runs the browser part of the flow and exchanges the code.
func (l *Loginer) authorize(ctx context.Context, conf *oauth2.Config) (*oauth2.Token, error) {
	logger := logging.OrDefault(l.Logger)

	listen := l.Listen
	if listen == nil {
		listen = net.Listen
	}
	ln, err := listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, apperr.Authentication("google.login", fmt.Errorf("failed to start callback listener: %w", err))
	}

	conf.RedirectURL = fmt.Sprintf("http://%s/", ln.Addr().String())
	state := uuid.NewString()
	verifier := oauth2.GenerateVerifier()

	results := make(chan callbackResult, 1)
	server := &http.Server{
		Handler:           callbackHandler(state, results),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			deliver(results, callbackResult{err: fmt.Errorf("callback server failed: %w", err)})
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	authURL := conf.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.ApprovalForce,
		oauth2.S256ChallengeOption(verifier),
	)

	l.printf("Please visit this URL to authorize this application: %s\n", authURL)
	if l.OpenBrowser != nil {
		if err := l.OpenBrowser(authURL); err != nil {
			logger.Debug("failed to open browser", logging.Err(err))
		}
	}

	var res callbackResult
	select {
	case res = <-results:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if res.err != nil {
		return nil, apperr.Authentication("google.login", res.err)
	}

	if l.HTTPClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, l.HTTPClient)
	}
	token, err := conf.Exchange(ctx, res.code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, apperr.Authentication("google.login", fmt.Errorf("failed to exchange auth code: %w", err))
	}
	return token, nil
}

// callbackHandler serves the redirect target. The first request carrying a
// code or an error settles the flow.
func callbackHandler(state string, results chan<- callbackResult) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		q := r.URL.Query()

		switch {
		case q.Get("error") != "":
			deliver(results, callbackResult{err: fmt.Errorf("authorization denied: %s", q.Get("error"))})
			http.Error(w, "Authorization failed. You may close this window.", http.StatusBadRequest)
		case q.Get("state") != state:
			deliver(results, callbackResult{err: errors.New("state mismatch in authorization response")})
			http.Error(w, "Invalid state parameter.", http.StatusBadRequest)
		case q.Get("code") == "":
			deliver(results, callbackResult{err: errors.New("no authorization code received")})
			http.Error(w, "No authorization code received.", http.StatusBadRequest)
		default:
			deliver(results, callbackResult{code: q.Get("code")})
			_, _ = fmt.Fprintln(w, callbackPage)
		}
	})
}

func deliver(results chan<- callbackResult, res callbackResult) {
	select {
	case results <- res:
	default:
	}
}

func (l *Loginer) printf(format string, args ...any) {
	if l.Out != nil {
		_, _ = fmt.Fprintf(l.Out, format, args...)
	}
}
