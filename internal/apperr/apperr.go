package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind int

const (
	// KindUnknown is reported for errors that were never classified.
	KindUnknown Kind = iota
	KindConfiguration
	KindAuthentication
	KindRemoteService
	KindInteractive
)

// String returns the lower-case name of the kind.
func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindAuthentication:
		return "authentication"
	case KindRemoteService:
		return "remote_service"
	case KindInteractive:
		return "interactive"
	default:
		return "unknown"
	}
}

// Process exit codes, one per kind.
const (
	ExitOK             = 0
	ExitUnknown        = 1
	ExitConfiguration  = 2
	ExitAuthentication = 3
	ExitRemoteService  = 4
	ExitInteractive    = 5
)

// Sentinel causes matched with errors.Is.
var (
	// ErrNoCalendarID means no calendar id could be resolved from env, cache or prompt.
	ErrNoCalendarID = errors.New("no calendar id configured")

	// ErrNoClientSecret means input ended before an existing client secret path was entered.
	ErrNoClientSecret = errors.New("no client secret file provided")

	// ErrCIWithoutToken means a non-interactive run found no usable or refreshable token.
	ErrCIWithoutToken = errors.New("no usable token in non-interactive context")
)

// Error is a classified failure. Op names the operation that failed, e.g.
// "credentials.calendar" or "tasks.create_list".
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a classified error. A nil err yields nil.
func New(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// Configuration classifies err as a configuration failure.
func Configuration(op string, err error) error {
	return New(KindConfiguration, op, err)
}

// Authentication classifies err as an authentication failure.
func Authentication(op string, err error) error {
	return New(KindAuthentication, op, err)
}

// RemoteService classifies err as a failed remote call.
func RemoteService(op string, err error) error {
	return New(KindRemoteService, op, err)
}

// Interactive classifies err as a failed prompt.
func Interactive(op string, err error) error {
	return New(KindInteractive, op, err)
}

// KindOf returns the kind of the outermost classified error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// ExitCode maps err to the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	switch KindOf(err) {
	case KindConfiguration:
		return ExitConfiguration
	case KindAuthentication:
		return ExitAuthentication
	case KindRemoteService:
		return ExitRemoteService
	case KindInteractive:
		return ExitInteractive
	default:
		return ExitUnknown
	}
}
