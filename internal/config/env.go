package config

import (
	"os"
	"strings"
)

// LookupFunc matches os.LookupEnv. Components take one so tests can supply a
// fixed environment.
type LookupFunc func(key string) (string, bool)

// OSLookup reads the process environment.
func OSLookup(key string) (string, bool) {
	return os.LookupEnv(key)
}

// IsCI reports whether any of the markers is set to a truthy value.
// "false" and "0" do not count, so CI=false can be used to force interactive mode.
func IsCI(lookup LookupFunc, markers []string) bool {
	if lookup == nil {
		lookup = OSLookup
	}
	for _, name := range markers {
		value, ok := lookup(name)
		if !ok {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(value)) {
		case "", "false", "0":
			continue
		}
		return true
	}
	return false
}

// IsCI reports whether the run is non-interactive according to c's markers.
func (c *Config) IsCI(lookup LookupFunc) bool {
	return IsCI(lookup, c.Env.CIMarkers)
}

// MapLookup returns a LookupFunc backed by m.
func MapLookup(m map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}
