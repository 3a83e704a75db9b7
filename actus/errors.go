package actus

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration marks missing, malformed or contradictory contract terms.
	ErrConfiguration = errors.New("contract configuration error")

	// ErrNoRiskFactors is returned when an event needs an observation but no provider was supplied.
	ErrNoRiskFactors = errors.New("no risk factor provider")

	// ErrUnsupportedContract is returned for contract types without a schedule generator.
	ErrUnsupportedContract = errors.New("unsupported contract type")
)

// ConfigError describes one offending attribute.
type ConfigError struct {
	ContractID string
	Attribute  string
	Reason     string
}

func (e *ConfigError) Error() string {
	if e.ContractID == "" {
		return fmt.Sprintf("%s: %s", e.Attribute, e.Reason)
	}
	return fmt.Sprintf("contract %s: %s: %s", e.ContractID, e.Attribute, e.Reason)
}

func (e *ConfigError) Unwrap() error { return ErrConfiguration }

func configErr(id, attr, format string, args ...any) error {
	return &ConfigError{ContractID: id, Attribute: attr, Reason: fmt.Sprintf(format, args...)}
}

// EventError locates a failure inside the evaluation fold.
type EventError struct {
	ContractID string
	Event      EventType
	Time       string
	Err        error
}

func (e *EventError) Error() string {
	return fmt.Sprintf("contract %s: %s at %s: %v", e.ContractID, e.Event, e.Time, e.Err)
}

func (e *EventError) Unwrap() error { return e.Err }
