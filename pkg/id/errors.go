package id

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig is wrapped by every ConfigError.
	ErrInvalidConfig = errors.New("id: invalid configuration")
	// ErrSequenceExhausted is returned when a millisecond's sequence range is
	// used up and the wraparound policy does not allow (or ran out of time)
	// waiting for the next millisecond.
	ErrSequenceExhausted = errors.New("id: sequence exhausted")
	// ErrClockRegression is returned when the clock reads earlier than the
	// last issued millisecond beyond what the regression policy tolerates.
	ErrClockRegression = errors.New("id: clock moved backwards")
)

// ConfigError reports an invalid generator setting. It is only produced at
// construction time, except for an epoch that is ahead of the clock which is
// re-checked on every call.
type ConfigError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("id: invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

func (e *ConfigError) Unwrap() error { return ErrInvalidConfig }

func newConfigError(field string, value any, reason string, args ...any) *ConfigError {
	if len(args) > 0 {
		reason = fmt.Sprintf(reason, args...)
	}
	return &ConfigError{Field: field, Value: fmt.Sprint(value), Reason: reason}
}
