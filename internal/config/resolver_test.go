package config

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mattschoe/DayEventToTask/internal/apperr"
)

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("terminal gone") }

func newResolver(t *testing.T, env map[string]string, interactive bool, input string) (*CalendarIDResolver, *bytes.Buffer) {
	t.Helper()
	out := &bytes.Buffer{}
	return &CalendarIDResolver{
		Lookup:      MapLookup(env),
		EnvVar:      "CALENDAR_ID",
		CachePath:   filepath.Join(t.TempDir(), "data", "calendarID.data"),
		Interactive: interactive,
		In:          strings.NewReader(input),
		Out:         out,
	}, out
}

func TestResolve_EnvOverrideWins(t *testing.T) {
	r, out := newResolver(t, map[string]string{"CALENDAR_ID": " primary "}, true, "ignored\n")
	require.NoError(t, WriteCalendarIDCache(r.CachePath, "cached@example.com"))

	id, err := r.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "primary", id)
	assert.Empty(t, out.String(), "no prompt expected")
}

func TestResolve_CacheBeforePrompt(t *testing.T) {
	r, out := newResolver(t, nil, true, "typed\n")
	require.NoError(t, WriteCalendarIDCache(r.CachePath, "cached@example.com"))

	id, err := r.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "cached@example.com", id)
	assert.Empty(t, out.String())
}

func TestResolve_CacheFirstLineOnly(t *testing.T) {
	r, _ := newResolver(t, nil, false, "")
	require.NoError(t, os.MkdirAll(filepath.Dir(r.CachePath), 0o700))
	require.NoError(t, os.WriteFile(r.CachePath, []byte("first@example.com\nsecond\n"), 0o600))

	id, err := r.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "first@example.com", id)
}

func TestResolve_PromptAndPersist(t *testing.T) {
	r, out := newResolver(t, nil, true, "family@group.calendar.google.com\n")

	id, err := r.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "family@group.calendar.google.com", id)
	assert.Contains(t, out.String(), CalendarIDPrompt)

	cached, err := ReadCalendarIDCache(r.CachePath)
	require.NoError(t, err)
	assert.Equal(t, id, cached)

	// Second run reads the cache without prompting.
	r.In = strings.NewReader("")
	out.Reset()
	id2, err := r.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, id, id2)
	assert.Empty(t, out.String())
}

func TestResolve_PromptWithoutTrailingNewline(t *testing.T) {
	r, _ := newResolver(t, nil, true, "primary")

	id, err := r.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "primary", id)
}

func TestResolve_EmptyAnswerIsNotCached(t *testing.T) {
	r, _ := newResolver(t, nil, true, "\n")

	id, err := r.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "", id)

	_, statErr := os.Stat(r.CachePath)
	assert.True(t, os.IsNotExist(statErr), "empty answer must not be cached")
}

func TestResolve_NonInteractiveNothingConfigured(t *testing.T) {
	r, out := newResolver(t, nil, false, "would-be-typed\n")

	id, err := r.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "", id)
	assert.Empty(t, out.String(), "non-interactive runs never prompt")
}

func TestResolve_PromptReadError(t *testing.T) {
	r, _ := newResolver(t, nil, true, "")
	r.In = failingReader{}

	_, err := r.Resolve(context.Background())
	require.Error(t, err)
	assert.Equal(t, apperr.KindInteractive, apperr.KindOf(err))
}

func TestResolve_CancelledContext(t *testing.T) {
	r, _ := newResolver(t, nil, true, "primary\n")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Resolve(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestResolve_CancelWhilePrompting(t *testing.T) {
	r, out := newResolver(t, nil, true, "")
	pr, pw := io.Pipe()
	defer func() { _ = pw.Close() }()
	r.In = pr

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	done := make(chan error, 1)
	go func() {
		_, err := r.Resolve(ctx)
		done <- err
	}()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, apperr.KindUnknown, apperr.KindOf(err))
	case <-time.After(2 * time.Second):
		t.Fatal("Resolve did not return after the context was cancelled")
	}
	assert.Contains(t, out.String(), CalendarIDPrompt)

	_, err := os.Stat(r.CachePath)
	assert.True(t, errors.Is(err, os.ErrNotExist), "nothing is cached when the prompt is abandoned")
}

func TestNewCalendarIDResolver(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataDir = "/data"

	r := NewCalendarIDResolver(cfg, true, strings.NewReader(""), &bytes.Buffer{}, nil)
	assert.Equal(t, "CALENDAR_ID", r.EnvVar)
	assert.Equal(t, "/data/calendarID.data", r.CachePath)
	assert.True(t, r.Interactive)
}
