package google

import (
	"fmt"
	"strings"

	calendar "google.golang.org/api/calendar/v3"
	tasks "google.golang.org/api/tasks/v1"
)

// Scope identifies one of the two credentials daytasks keeps.
type Scope string

const (
	// ScopeCalendarRead grants read-only access to calendar events.
	ScopeCalendarRead Scope = "calendar"

	// ScopeTasksWrite grants read/write access to task lists and tasks.
	ScopeTasksWrite Scope = "tasks"
)

// Scopes lists every known scope.
var Scopes = []Scope{ScopeCalendarRead, ScopeTasksWrite}

// impliedScopes maps a granted OAuth scope to the narrower scopes it includes.
var impliedScopes = map[string][]string{
	calendar.CalendarScope: {calendar.CalendarReadonlyScope, calendar.CalendarEventsReadonlyScope},
	tasks.TasksScope:       {tasks.TasksReadonlyScope},
}

// OAuthScopes returns the Google OAuth scopes requested for s.
func (s Scope) OAuthScopes() []string {
	switch s {
	case ScopeCalendarRead:
		return []string{calendar.CalendarReadonlyScope}
	case ScopeTasksWrite:
		return []string{tasks.TasksScope}
	default:
		return nil
	}
}

func (s Scope) String() string {
	return string(s)
}

// Valid reports whether s is a known scope.
func (s Scope) Valid() bool {
	return s.OAuthScopes() != nil
}

// ParseScope parses a scope name as used on the command line.
func ParseScope(name string) (Scope, error) {
	s := Scope(strings.ToLower(strings.TrimSpace(name)))
	if !s.Valid() {
		return "", fmt.Errorf("unknown scope %q (want %q or %q)", name, ScopeCalendarRead, ScopeTasksWrite)
	}
	return s, nil
}

// scopesCover reports whether granted includes every scope in requested,
// directly or through a broader scope.
func scopesCover(granted, requested []string) bool {
	have := make(map[string]bool, len(granted))
	for _, g := range granted {
		have[g] = true
		for _, implied := range impliedScopes[g] {
			have[implied] = true
		}
	}
	for _, r := range requested {
		if !have[r] {
			return false
		}
	}
	return true
}
