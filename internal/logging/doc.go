// Package logging provides structured logging utilities for daytasks.
//
// This package centralizes logging patterns to ensure consistent, structured logging
// throughout the codebase using the standard library's slog package.
//
// # Key Features
//
//   - Handler construction from a level and format (text or json)
//   - Consistent attribute naming across the codebase
//   - Calendar id hashing
//   - Logger adapter interface for components that accept a narrow logger
//
// # Usage Patterns
//
//	logger := slog.Default().With(logging.Operation("sync.fetch"))
//	logger.Info("fetched events",
//	    logging.CalendarHash(calendarID),
//	    logging.Status(logging.StatusSuccess))
//
// # Security Considerations
//
// Access and refresh tokens are never logged. Calendar ids are often email addresses, so they
// are hashed before logging.
package logging
