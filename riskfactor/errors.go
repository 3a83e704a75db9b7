package riskfactor

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when an identifier is absent from the registry.
	ErrNotFound = errors.New("risk factor not found")

	// ErrDegenerateInput marks observations a behavior model cannot compute,
	// such as a non-positive collateral price.
	ErrDegenerateInput = errors.New("degenerate input")

	// ErrNoObservation is returned by a time series queried before its first point.
	ErrNoObservation = errors.New("no observation")
)

// NotFoundError names the missing identifier and what the registry does hold.
type NotFoundError struct {
	ID        string
	Kind      string
	Available []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found, available: [%s]", e.Kind, e.ID, strings.Join(e.Available, ", "))
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

func degenerate(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrDegenerateInput, fmt.Sprintf(format, args...))
}
