package pso

import "fmt"

// ErrInvalidConfiguration is returned when a run or swarm is configured with
// malformed bounds, counts or coefficients.
// Use errors.Is(err, ErrInvalidConfiguration) to check for this error.
var ErrInvalidConfiguration = &InvalidConfigurationError{}

// ErrNumericOverflow is returned when an objective value, velocity or position
// becomes NaN or infinite.
var ErrNumericOverflow = &NumericOverflowError{}

// InvalidConfigurationError reports the offending configuration field.
type InvalidConfigurationError struct {
	Field  string
	Reason string
}

func (e *InvalidConfigurationError) Error() string {
	if e.Field == "" {
		return "invalid configuration"
	}
	return "invalid configuration: " + e.Field + " " + e.Reason
}

func (e *InvalidConfigurationError) Is(target error) bool {
	_, ok := target.(*InvalidConfigurationError)
	return ok
}

// NumericOverflowError identifies where a non-finite value first appeared.
// Iteration is -1 for values produced during initialization.
type NumericOverflowError struct {
	Iteration int
	Particle  int
	Quantity  string // "value", "velocity" or "position"
}

func (e *NumericOverflowError) Error() string {
	if e.Quantity == "" {
		return "numeric overflow"
	}
	return fmt.Sprintf("numeric overflow: non-finite %s for particle %d at iteration %d",
		e.Quantity, e.Particle, e.Iteration)
}

func (e *NumericOverflowError) Is(target error) bool {
	_, ok := target.(*NumericOverflowError)
	return ok
}

func invalid(field, reason string) error {
	return &InvalidConfigurationError{Field: field, Reason: reason}
}
