package secrets

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Mattschoe/DayEventToTask/internal/apperr"
)

// Lookup matches os.LookupEnv.
type Lookup func(key string) (string, bool)

// Materialize decodes the base64 value of environment variable name and
// writes it to dest with mode 0600, overwriting any existing file.
// An absent or empty variable is a no-op.
func Materialize(lookup Lookup, name, dest string) error {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	value, ok := lookup(name)
	value = strings.TrimSpace(value)
	if !ok || value == "" {
		return nil
	}

	data, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return apperr.Configuration("secrets.materialize", fmt.Errorf("failed to decode %s: %w", name, err))
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o700); err != nil {
		return apperr.Configuration("secrets.materialize", fmt.Errorf("failed to create directory for %s: %w", name, err))
	}
	if err := os.WriteFile(dest, data, 0o600); err != nil {
		return apperr.Configuration("secrets.materialize", fmt.Errorf("failed to write %s: %w", name, err))
	}
	// WriteFile keeps the mode of an existing file.
	if err := os.Chmod(dest, 0o600); err != nil {
		return apperr.Configuration("secrets.materialize", fmt.Errorf("failed to restrict %s: %w", dest, err))
	}
	return nil
}

// Encode returns the standard base64 encoding of the file at path.
func Encode(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", apperr.Configuration("secrets.encode", fmt.Errorf("failed to read token file: %w", err))
	}
	return base64.StdEncoding.EncodeToString(data), nil
}
