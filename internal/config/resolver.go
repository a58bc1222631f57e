package config

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/Mattschoe/DayEventToTask/internal/apperr"
	"github.com/Mattschoe/DayEventToTask/internal/logging"
)

// CalendarIDPrompt is shown when no calendar id is configured.
const CalendarIDPrompt = "Please provide CalendarID for the calendar that stores the daily events:"

// CalendarIDResolver resolves the calendar to read events from.
type CalendarIDResolver struct {
	// Lookup reads the environment; nil means the process environment.
	Lookup LookupFunc

	// EnvVar overrides everything else when set.
	EnvVar string

	// CachePath is the single-line cache file.
	CachePath string

	// Interactive allows prompting on In/Out when nothing else resolves.
	Interactive bool
	In          io.Reader
	Out         io.Writer

	Logger logging.Logger
}

// NewCalendarIDResolver builds a resolver from cfg for the given streams.
func NewCalendarIDResolver(cfg *Config, interactive bool, in io.Reader, out io.Writer, logger logging.Logger) *CalendarIDResolver {
	return &CalendarIDResolver{
		EnvVar:      cfg.Env.CalendarID,
		CachePath:   cfg.CalendarIDPath(),
		Interactive: interactive,
		In:          in,
		Out:         out,
		Logger:      logger,
	}
}

// Resolve returns the calendar id, or "" when nothing resolves. Callers must
// treat "" as apperr.ErrNoCalendarID.
func (r *CalendarIDResolver) Resolve(ctx context.Context) (string, error) {
	logger := logging.OrDefault(r.Logger)

	lookup := r.Lookup
	if lookup == nil {
		lookup = OSLookup
	}

	if r.EnvVar != "" {
		if v, ok := lookup(r.EnvVar); ok && strings.TrimSpace(v) != "" {
			logger.Debug("calendar id from environment", "env", r.EnvVar)
			return strings.TrimSpace(v), nil
		}
	}

	cached, err := ReadCalendarIDCache(r.CachePath)
	if err != nil {
		return "", apperr.Configuration("calendar_id", err)
	}
	if cached != "" {
		logger.Debug("calendar id from cache", logging.Path(r.CachePath))
		return cached, nil
	}

	if !r.Interactive || r.In == nil {
		return "", nil
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	id, err := r.prompt(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", apperr.Interactive("calendar_id.prompt", err)
	}
	if id == "" {
		return "", nil
	}

	if err := WriteCalendarIDCache(r.CachePath, id); err != nil {
		// The id is still usable for this run.
		logger.Warn("failed to cache calendar id", logging.Path(r.CachePath), logging.Err(err))
	}
	return id, nil
}

type promptAnswer struct {
	line string
	err  error
}

// prompt asks for the calendar id and waits for one line or ctx.
func (r *CalendarIDResolver) prompt(ctx context.Context) (string, error) {
	if r.Out != nil {
		fmt.Fprintln(r.Out, CalendarIDPrompt)
	}

	reader := bufio.NewReader(r.In)
	ch := make(chan promptAnswer, 1)
	go func() {
		line, err := reader.ReadString('\n')
		ch <- promptAnswer{line: line, err: err}
	}()

	var answer promptAnswer
	select {
	case answer = <-ch:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	if answer.err != nil && !errors.Is(answer.err, io.EOF) {
		return "", fmt.Errorf("failed to read calendar id: %w", answer.err)
	}
	return strings.TrimSpace(answer.line), nil
}

// ReadCalendarIDCache returns the first line of the cache file, trimmed.
// A missing file yields "".
func ReadCalendarIDCache(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("failed to open calendar id cache: %w", err)
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	if scanner.Scan() {
		return strings.TrimSpace(scanner.Text()), nil
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("failed to read calendar id cache: %w", err)
	}
	return "", nil
}

// WriteCalendarIDCache overwrites the cache file with id.
func WriteCalendarIDCache(path, id string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(id+"\n"), 0o600); err != nil {
		return fmt.Errorf("failed to write calendar id cache: %w", err)
	}
	return nil
}
