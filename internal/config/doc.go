// Package config holds the explicit configuration of a daytasks run and the
// calendar id resolver.
//
// Settings come from, in increasing precedence: built-in defaults (data files
// under $XDG_DATA_HOME/daytasks), an optional YAML file, and environment
// variables. The command layer applies flags on top.
//
// The calendar id is resolved separately by CalendarIDResolver: an environment
// override wins, then the single-line cache file, then an interactive prompt
// whose answer is written back to the cache.
package config
