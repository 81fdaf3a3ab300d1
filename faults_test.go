package visage_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/pthm/visage"
)

func TestAsValidationFault(t *testing.T) {
	fault := &visage.ValidationFault{Status: 422, Message: "bad input"}
	wrapped := fmt.Errorf("handling request: %w", fault)

	got, ok := visage.AsValidationFault(wrapped)
	if !ok || got.Status != 422 {
		t.Errorf("AsValidationFault = (%v, %v)", got, ok)
	}

	if _, ok := visage.AsValidationFault(errors.New("other")); ok {
		t.Error("AsValidationFault should reject unrelated errors")
	}
}

func TestAsAuthFault(t *testing.T) {
	fault := &visage.AuthFault{Status: 403, Message: "expired", Code: "PASSWORD_EXPIRED"}
	wrapped := fmt.Errorf("handling request: %w", fault)

	got, ok := visage.AsAuthFault(wrapped)
	if !ok || got.Code != "PASSWORD_EXPIRED" {
		t.Errorf("AsAuthFault = (%v, %v)", got, ok)
	}
}

func TestServerFaultUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	fault := &visage.ServerFault{Err: cause}

	if !errors.Is(fault, cause) {
		t.Error("ServerFault should unwrap to its cause")
	}
}

func TestKnownFault(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"validation fault", &visage.ValidationFault{Status: 422}, true},
		{"auth fault", &visage.AuthFault{Status: 401}, true},
		{"server fault", &visage.ServerFault{Err: errors.New("x")}, true},
		{"not found", visage.ErrNotFound, true},
		{"wrapped not found", fmt.Errorf("op: %w", visage.ErrNotFound), true},
		{"plain error", errors.New("boom"), false},
		{"missing table", visage.ErrMissingTable, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := visage.KnownFault(tt.err); got != tt.want {
				t.Errorf("KnownFault(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
