// Package apperr defines the error categories the CLI maps to exit behaviour.
//
//	UserError          invalid flag value or argument. The message is printed
//	                   without usage help. Exit code 1.
//	ErrBudgetExceeded  the CI gate tripped: the scan succeeded but the carbon
//	                   estimate is over budget with failOnThreshold set. Exit 1.
//	ErrCancelled       an interactive prompt was aborted. Exit 0.
//
// Scan and configuration failures are typed in their own packages
// (scanner.RootError, config.ValidationError) and wrapped with %w.
package apperr

import (
	"errors"
	"fmt"
)

var ErrBudgetExceeded = errors.New("carbon budget exceeded")

// ErrCancelled marks an interactive flow the user aborted. It is not a failure.
var ErrCancelled = errors.New("cancelled by user")

type UserError struct {
	Message string
}

func (e *UserError) Error() string { return e.Message }

func Userf(format string, args ...any) error {
	return &UserError{Message: fmt.Sprintf(format, args...)}
}

// IsUser reports whether err is (or wraps) a *UserError.
func IsUser(err error) bool {
	var u *UserError
	return errors.As(err, &u)
}

// BudgetExceeded wraps ErrBudgetExceeded with the figures that tripped it.
func BudgetExceeded(carbonGrams, budget float64) error {
	return fmt.Errorf("%w: carbon %.4fg exceeds budget %gg", ErrBudgetExceeded, carbonGrams, budget)
}
