package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

// AppName names the data directory and default config file.
const AppName = "daytasks"

// Default file names inside the data directory.
const (
	DefaultCalendarTokenFile = "calendarToken.json"
	DefaultTasksTokenFile    = "tasksToken.json"
	DefaultCalendarIDFile    = "calendarID.data"
	DefaultConfigFile        = "config.yaml"
)

// DefaultMaxResults caps a single calendar fetch.
const DefaultMaxResults = 100

// EnvConfig names the environment variables daytasks reads.
type EnvConfig struct {
	// CIMarkers are OR-ed: any set (and not false) marks a non-interactive run.
	CIMarkers []string `yaml:"ci_markers"`

	// CalendarSecret and TasksSecret hold base64-encoded token files.
	CalendarSecret string `yaml:"calendar_secret"`
	TasksSecret    string `yaml:"tasks_secret"`

	// CalendarID overrides the cached calendar id.
	CalendarID string `yaml:"calendar_id"`
}

// Config is the configuration of a single run.
type Config struct {
	// DataDir holds token files and the calendar id cache.
	DataDir string `yaml:"data_dir"`

	// CalendarTokenFile and TasksTokenFile are the per-scope token files.
	// Relative paths are resolved against DataDir.
	CalendarTokenFile string `yaml:"calendar_token_file"`
	TasksTokenFile    string `yaml:"tasks_token_file"`

	// CalendarIDFile caches the calendar id between runs.
	CalendarIDFile string `yaml:"calendar_id_file"`

	// MaxResults caps the calendar fetch.
	MaxResults int64 `yaml:"max_results"`

	// Timezone is the IANA zone used to decide what "today" is. Empty means local.
	Timezone string `yaml:"timezone"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	// LogFormat is text or json.
	LogFormat string `yaml:"log_format"`

	Env EnvConfig `yaml:"env"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		DataDir:           filepath.Join(xdg.DataHome, AppName),
		CalendarTokenFile: DefaultCalendarTokenFile,
		TasksTokenFile:    DefaultTasksTokenFile,
		CalendarIDFile:    DefaultCalendarIDFile,
		MaxResults:        DefaultMaxResults,
		LogLevel:          "info",
		LogFormat:         "text",
		Env: EnvConfig{
			CIMarkers:      []string{"CI", "GITHUB_ACTIONS"},
			CalendarSecret: "CALENDAR_TOKEN",
			TasksSecret:    "TASKS_TOKEN",
			CalendarID:     "CALENDAR_ID",
		},
	}
}

// DefaultConfigPath returns the config file location used when none is given.
func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, AppName, DefaultConfigFile)
}

// Normalize fills in missing/zero values with defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	def := DefaultConfig()

	if c.DataDir == "" {
		c.DataDir = def.DataDir
	}
	if c.CalendarTokenFile == "" {
		c.CalendarTokenFile = def.CalendarTokenFile
	}
	if c.TasksTokenFile == "" {
		c.TasksTokenFile = def.TasksTokenFile
	}
	if c.CalendarIDFile == "" {
		c.CalendarIDFile = def.CalendarIDFile
	}
	if c.MaxResults <= 0 {
		c.MaxResults = def.MaxResults
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
	if c.LogFormat == "" {
		c.LogFormat = def.LogFormat
	}
	if len(c.Env.CIMarkers) == 0 {
		c.Env.CIMarkers = def.Env.CIMarkers
	}
	if c.Env.CalendarSecret == "" {
		c.Env.CalendarSecret = def.Env.CalendarSecret
	}
	if c.Env.TasksSecret == "" {
		c.Env.TasksSecret = def.Env.TasksSecret
	}
	if c.Env.CalendarID == "" {
		c.Env.CalendarID = def.Env.CalendarID
	}
}

// Load reads the YAML file at path, normalizes it and applies environment
// overrides. A missing file is not an error: defaults are used. An empty path
// means DefaultConfigPath.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigPath()
	}

	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		cfg = &Config{}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
		// defaults
	default:
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg.Normalize()
	cfg.applyEnv()
	return cfg, nil
}

// applyEnv overlays DAYTASKS_* environment variables.
func (c *Config) applyEnv() {
	c.DataDir = getEnvOrDefault("DAYTASKS_DATA_DIR", c.DataDir)
	c.Timezone = getEnvOrDefault("DAYTASKS_TIMEZONE", c.Timezone)
	c.LogLevel = getEnvOrDefault("LOG_LEVEL", c.LogLevel)
	c.LogFormat = getEnvOrDefault("LOG_FORMAT", c.LogFormat)
	c.MaxResults = getEnvInt64OrDefault("DAYTASKS_MAX_RESULTS", c.MaxResults)
}

// CalendarTokenPath returns the absolute path of the calendar token file.
func (c *Config) CalendarTokenPath() string {
	return c.resolve(c.CalendarTokenFile)
}

// TasksTokenPath returns the absolute path of the tasks token file.
func (c *Config) TasksTokenPath() string {
	return c.resolve(c.TasksTokenFile)
}

// CalendarIDPath returns the absolute path of the calendar id cache file.
func (c *Config) CalendarIDPath() string {
	return c.resolve(c.CalendarIDFile)
}

func (c *Config) resolve(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.DataDir, name)
}

// getEnvOrDefault returns the value of an environment variable or a default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt64OrDefault returns the int64 value of an environment variable or a default value.
func getEnvInt64OrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseInt(value, 10, 64)
		if err != nil || parsed <= 0 {
			return defaultValue
		}
		return parsed
	}
	return defaultValue
}
