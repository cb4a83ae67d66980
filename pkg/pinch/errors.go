package pinch

import "errors"

// Sentinel errors returned by the pinch pipeline. Callers should test for
// them with errors.Is; the pipeline wraps them with context.
var (
	// ErrInvalidStream is returned for a non-positive heat-capacity flow,
	// equal initial and final temperatures, or non-finite inputs.
	ErrInvalidStream = errors.New("invalid stream")

	// ErrInvalidApproach is returned when the minimum approach temperature
	// is not a positive finite number.
	ErrInvalidApproach = errors.New("invalid minimum approach temperature")

	// ErrDegenerateNetwork is returned when the stream set cannot be split
	// into at least one temperature interval.
	ErrDegenerateNetwork = errors.New("degenerate stream network")

	// ErrNumericDivergence is returned when the feasibility correction of the
	// heat cascade fails to reach a zero minimum.
	ErrNumericDivergence = errors.New("heat cascade did not converge")

	// ErrUnresolved is returned when pinch-relative data is requested for a
	// stream that has not been through a successful analysis.
	ErrUnresolved = errors.New("stream pinch temperature not resolved")
)
