package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Mattschoe/DayEventToTask/internal/apperr"
	"github.com/Mattschoe/DayEventToTask/internal/config"
	"github.com/Mattschoe/DayEventToTask/internal/google"
	"github.com/Mattschoe/DayEventToTask/internal/instrumentation"
	"github.com/Mattschoe/DayEventToTask/internal/logging"
)

// app holds what every command needs for one invocation.
type app struct {
	cfg      *config.Config
	logger   *logging.SlogAdapter
	provider *instrumentation.Provider
	lookup   config.LookupFunc
	ci       bool

	// in is shared by every prompt so buffered input is not lost between them.
	in  *bufio.Reader
	out io.Writer
}

// newApp loads configuration, builds the logger and starts instrumentation.
// Callers must call close.
func newApp(cmd *cobra.Command, opts *rootOptions) (*app, error) {
	ctx := cmd.Context()

	path := opts.configPath
	if path == "" {
		path = os.Getenv("DAYTASKS_CONFIG")
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, apperr.Configuration("config", err)
	}
	if opts.dataDir != "" {
		cfg.DataDir = opts.dataDir
	}
	if opts.logLevel != "" {
		cfg.LogLevel = opts.logLevel
	}
	if opts.logFormat != "" {
		cfg.LogFormat = opts.logFormat
	}

	slogger := logging.New(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
	logger := logging.NewSlogAdapter(slogger)

	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version
	provider, err := instrumentation.NewProvider(ctx, instrConfig)
	if err != nil {
		return nil, apperr.Configuration("instrumentation", fmt.Errorf("failed to create instrumentation provider: %w", err))
	}

	if provider.Enabled() {
		logger.Debug("instrumentation enabled",
			"metrics", instrConfig.MetricsExporter, "tracing", instrConfig.TracingExporter)
	}

	lookup := config.LookupFunc(os.LookupEnv)
	return &app{
		cfg:      cfg,
		logger:   logger,
		provider: provider,
		lookup:   lookup,
		ci:       cfg.IsCI(lookup),
		in:       bufio.NewReader(cmd.InOrStdin()),
		out:      cmd.OutOrStdout(),
	}, nil
}

// close flushes instrumentation.
func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.provider.Shutdown(ctx); err != nil {
		a.logger.Warn("error during instrumentation shutdown", logging.Err(err))
	}
}

// loginer returns the interactive login bound to the command's streams.
func (a *app) loginer() *google.Loginer {
	l := google.NewLoginer(a.in, a.out, a.logger.With(logging.Operation("login")))
	if !isTerminal(a.out) {
		// Headless session: only print the URL.
		l.OpenBrowser = nil
	}
	return l
}

// tokenPath returns the token file for scope.
func (a *app) tokenPath(scope google.Scope) string {
	if scope == google.ScopeCalendarRead {
		return a.cfg.CalendarTokenPath()
	}
	return a.cfg.TasksTokenPath()
}

// secretEnv returns the CI secret variable for scope.
func (a *app) secretEnv(scope google.Scope) string {
	if scope == google.ScopeCalendarRead {
		return a.cfg.Env.CalendarSecret
	}
	return a.cfg.Env.TasksSecret
}

// store builds the credential store for scope.
func (a *app) store(scope google.Scope) (*google.Store, error) {
	return google.NewStore(google.StoreConfig{
		Scope:     scope,
		TokenPath: a.tokenPath(scope),
		SecretEnv: a.secretEnv(scope),
		CI:        a.ci,
		Login:     a.loginer().Login,
		Logger:    a.logger.With(logging.KeyScope, scope.String()),
		Metrics:   a.provider.Metrics(),
	})
}

// location returns the configured time zone.
func (a *app) location() (*time.Location, error) {
	if a.cfg.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(a.cfg.Timezone)
	if err != nil {
		return nil, apperr.Configuration("config.timezone", fmt.Errorf("invalid timezone %q: %w", a.cfg.Timezone, err))
	}
	return loc, nil
}

// isTerminal reports whether w is a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
