package visage

import (
	"errors"
	"strings"
)

// Sentinel errors for common failure modes during directory reads.
// These indicate setup or caller issues, not hidden data: a restricted row
// returns ErrNotFound exactly like a missing one, by design.
//
// Use the Is*Err helper functions to check for specific errors.
var (
	// ErrNotFound is returned by profile fetches that match no visible row.
	// Covers both "user code does not exist" and "user exists but the
	// discoverability gate excluded the row". The two are intentionally
	// indistinguishable, preventing enumeration of private accounts.
	ErrNotFound = errors.New("visage: user not found")

	// ErrUnsupportedDimension is returned when the compiler is asked for a
	// dimension it has no predicate template for. Upstream validation is
	// expected to prevent this; the check is defensive.
	ErrUnsupportedDimension = errors.New("visage: unsupported search dimension")

	// ErrInvalidSchema is returned when a Schema value has empty identifiers.
	ErrInvalidSchema = errors.New("visage: invalid schema description")

	// ErrMissingTable is returned when the directory tables don't exist.
	// Run `visage migrate` to create them.
	ErrMissingTable = errors.New("visage: directory table missing")
)

// IsNotFoundErr returns true if err is or wraps ErrNotFound.
func IsNotFoundErr(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsUnsupportedDimensionErr returns true if err is or wraps ErrUnsupportedDimension.
func IsUnsupportedDimensionErr(err error) bool {
	return errors.Is(err, ErrUnsupportedDimension)
}

// IsInvalidSchemaErr returns true if err is or wraps ErrInvalidSchema.
func IsInvalidSchemaErr(err error) bool {
	return errors.Is(err, ErrInvalidSchema)
}

// IsMissingTableErr returns true if err is or wraps ErrMissingTable.
func IsMissingTableErr(err error) bool {
	return errors.Is(err, ErrMissingTable)
}

// PostgreSQL error codes for error mapping.
const (
	pgUndefinedTable = "42P01" // undefined_table
)

// sqlState extracts the SQLSTATE code from a PostgreSQL error.
// Works with multiple drivers via interface detection:
//   - pgx/pgconn: SQLState() string
//   - lib/pq: Code field (via error interface)
//
// Returns empty string if the error doesn't contain a SQLSTATE.
func sqlState(err error) string {
	// Try SQLState() method (pgx/pgconn, and some pq versions)
	type sqlStateErr interface{ SQLState() string }
	if e, ok := err.(sqlStateErr); ok {
		return e.SQLState()
	}

	// Try Code() method (some error wrappers)
	type codeErr interface{ Code() string }
	if e, ok := err.(codeErr); ok {
		return e.Code()
	}

	// Fallback: string matching for known patterns (last resort)
	errStr := err.Error()
	if strings.Contains(errStr, "SQLSTATE") {
		// Format: "... (SQLSTATE 42P01)" or "SQLSTATE: 42P01"
		for _, prefix := range []string{"SQLSTATE ", "SQLSTATE: "} {
			if idx := strings.Index(errStr, prefix); idx >= 0 {
				start := idx + len(prefix)
				if start+5 <= len(errStr) {
					return errStr[start : start+5]
				}
			}
		}
	}

	return ""
}
