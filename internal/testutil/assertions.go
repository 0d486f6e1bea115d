package testutil

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	apperrors "erario/internal/errors"
)

// AssertAppError checks that err is an *AppError with the expected code and
// that its message contains every fragment given, e.g. the amounts named by
// an INSUFFICIENT_BUDGET error.
func AssertAppError(t *testing.T, err error, expectedCode string, fragments ...string) {
	t.Helper()

	if err == nil {
		t.Fatalf("expected AppError with code %q, got nil", expectedCode)
	}

	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *AppError, got %T: %v", err, err)
	}

	if appErr.Code != expectedCode {
		t.Errorf("expected error code %q, got %q (message: %s)", expectedCode, appErr.Code, appErr.Message)
	}
	for _, f := range fragments {
		if !strings.Contains(appErr.Message, f) {
			t.Errorf("expected message to contain %q, got %q", f, appErr.Message)
		}
	}
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertAmount compares a decimal amount by value, so "400" equals "400.00".
func AssertAmount(t *testing.T, field, want string, got decimal.Decimal) {
	t.Helper()

	if !got.Equal(decimal.RequireFromString(want)) {
		t.Errorf("%s: want %s, got %s", field, want, got)
	}
}
