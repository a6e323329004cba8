package trajectory

import (
	"errors"
	"fmt"
)

var (
	// ErrOutOfRange is returned when a depth query falls outside the trajectory
	ErrOutOfRange = errors.New("depth out of range")

	// ErrEmptyTrajectory is returned for any query against an empty trajectory.
	// It matches ErrOutOfRange as well.
	ErrEmptyTrajectory = fmt.Errorf("empty trajectory: %w", ErrOutOfRange)

	// ErrUnordered is returned by NewCheckedIndex when measured depth decreases
	ErrUnordered = errors.New("trajectory points out of measured depth order")
)

// RangeError describes a rejected depth query.
type RangeError struct {
	Query    string  // "md" or "tvd"
	Value    float64 // Requested depth
	Min, Max float64 // Domain of the query, zero for an empty trajectory
	Err      error
}

func (e *RangeError) Error() string {
	if errors.Is(e.Err, ErrEmptyTrajectory) {
		return fmt.Sprintf("%s %g: %v", e.Query, e.Value, e.Err)
	}
	return fmt.Sprintf("%s %g outside [%g, %g]: %v", e.Query, e.Value, e.Min, e.Max, e.Err)
}

func (e *RangeError) Unwrap() error {
	return e.Err
}
