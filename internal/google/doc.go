// Package google manages the OAuth credentials daytasks uses to talk to
// Google Calendar and Google Tasks.
//
// Each scope has its own Store backed by a token file in the Google
// "authorized user" format. A Store hands out a usable Credential, refreshing
// it with its refresh token when it has expired, and falls back to an
// interactive loopback login (Loginer) when nothing else works. In CI the
// login fallback is never attempted: a missing or unusable token is fatal.
//
// NewHTTPClient turns a Store into the bearer-token HTTP client the service
// clients in internal/calendar and internal/tasks are built on.
package google
