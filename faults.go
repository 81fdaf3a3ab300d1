package visage

import (
	"errors"
	"fmt"
)

// Fault taxonomy surfaced at service-operation boundaries.
//
// Known fault kinds pass through to the HTTP boundary unchanged; anything else
// is caught at the operation boundary, logged once, and re-wrapped as a
// ServerFault so internal errors never leak schema or query detail to callers.

// ValidationFault reports bad, missing, or ambiguous search input. It carries
// a machine-readable field map so clients can highlight the offending
// parameters. Surfaced as a 4xx client error.
type ValidationFault struct {
	Status  int // HTTP status, 400 or 422
	Message string
	Fields  map[string]string
}

func (f *ValidationFault) Error() string {
	return fmt.Sprintf("validation: %s", f.Message)
}

// AuthFault is propagated verbatim from the external session check, keeping
// its status code, message, and machine-readable code.
type AuthFault struct {
	Status  int
	Message string
	Code    string
}

func (f *AuthFault) Error() string {
	return fmt.Sprintf("auth: %s", f.Message)
}

// ServerFault wraps any unanticipated data-access or internal error. The
// wrapped error is for logs only; callers receive a generic message.
type ServerFault struct {
	Err error
}

func (f *ServerFault) Error() string {
	return fmt.Sprintf("server fault: %v", f.Err)
}

func (f *ServerFault) Unwrap() error {
	return f.Err
}

// AsValidationFault unwraps err into a *ValidationFault if it is one.
func AsValidationFault(err error) (*ValidationFault, bool) {
	var f *ValidationFault
	ok := errors.As(err, &f)
	return f, ok
}

// AsAuthFault unwraps err into an *AuthFault if it is one.
func AsAuthFault(err error) (*AuthFault, bool) {
	var f *AuthFault
	ok := errors.As(err, &f)
	return f, ok
}

// KnownFault reports whether err is part of the fault taxonomy and should pass
// through to the boundary unchanged (including ErrNotFound).
func KnownFault(err error) bool {
	if errors.Is(err, ErrNotFound) {
		return true
	}
	var vf *ValidationFault
	var af *AuthFault
	var sf *ServerFault
	return errors.As(err, &vf) || errors.As(err, &af) || errors.As(err, &sf)
}
