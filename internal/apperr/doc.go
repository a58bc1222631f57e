// Package apperr defines the closed set of failure kinds daytasks reports.
//
// Every error that leaves a component boundary (credential store, calendar id
// resolver, sync pipeline) carries one of four kinds so the command layer can
// choose between prompting, logging and continuing, or exiting with a
// kind-specific status code:
//
//   - KindConfiguration: missing calendar id, missing client secret, unwritable files
//   - KindAuthentication: unusable, unrefreshable or rejected credentials
//   - KindRemoteService: any failed Google Calendar or Google Tasks call
//   - KindInteractive: a prompt could not be answered (closed stdin, no terminal)
//
// Use KindOf to classify an arbitrary error and ExitCode to map it to a process
// exit status.
package apperr
