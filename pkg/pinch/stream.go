// Package pinch computes minimum heating and cooling utility targets and the
// pinch temperature of a set of process streams with the temperature
// interval heat cascade method.
package pinch

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats/scalar"
)

// loadPrecision is the number of decimals reported heat loads are rounded to.
const loadPrecision = 2

// Kind classifies a stream by the direction of its temperature change.
type Kind uint8

const (
	// Cold streams must be heated (initial < final).
	Cold Kind = iota + 1
	// Hot streams must be cooled (initial > final).
	Hot
)

func (k Kind) String() string {
	switch k {
	case Hot:
		return "hot"
	case Cold:
		return "cold"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// shift returns the offset that moves a stream of this kind onto the
// shifted interval scale.
func (k Kind) shift(dtMin float64) float64 {
	switch k {
	case Hot:
		return -dtMin / 2
	case Cold:
		return dtMin / 2
	default:
		panic("pinch: unknown stream kind " + k.String())
	}
}

// sign is the contribution of a stream of this kind to an interval's net
// heat-capacity flow.
func (k Kind) sign() float64 {
	switch k {
	case Hot:
		return -1
	case Cold:
		return 1
	default:
		panic("pinch: unknown stream kind " + k.String())
	}
}

// Stream is a process flow that has to be heated or cooled between two
// temperatures at a constant heat-capacity flow rate (WCp).
//
// The temperatures, WCp and kind are fixed at construction. The pinch
// temperature is written by Resolve and defaults to the initial temperature.
type Stream struct {
	// Name is an optional label used in reports.
	Name string

	initial  float64
	final    float64
	wcp      float64
	kind     Kind
	pinch    float64
	resolved bool
}

// NewStream validates the inputs and returns a new stream.
func NewStream(initial, final, wcp float64) (*Stream, error) {
	for _, v := range []float64{initial, final, wcp} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: non-finite value %v", ErrInvalidStream, v)
		}
	}
	if wcp <= 0 {
		return nil, fmt.Errorf("%w: heat-capacity flow must be positive, got %v", ErrInvalidStream, wcp)
	}
	if initial == final {
		return nil, fmt.Errorf("%w: initial and final temperatures are both %v", ErrInvalidStream, initial)
	}

	kind := Cold
	if initial > final {
		kind = Hot
	}

	return &Stream{
		initial: initial,
		final:   final,
		wcp:     wcp,
		kind:    kind,
		pinch:   initial,
	}, nil
}

// NewNamedStream is NewStream with a label attached.
func NewNamedStream(name string, initial, final, wcp float64) (*Stream, error) {
	s, err := NewStream(initial, final, wcp)
	if err != nil {
		if name != "" {
			return nil, fmt.Errorf("stream %q: %w", name, err)
		}
		return nil, err
	}
	s.Name = name
	return s, nil
}

// Initial returns the temperature before processing.
func (s *Stream) Initial() float64 { return s.initial }

// Final returns the temperature after processing.
func (s *Stream) Final() float64 { return s.final }

// HeatCapacityFlow returns the stream's WCp.
func (s *Stream) HeatCapacityFlow() float64 { return s.wcp }

// Kind returns whether the stream is hot or cold.
func (s *Stream) Kind() Kind { return s.kind }

// IsHot reports whether the stream must be cooled.
func (s *Stream) IsHot() bool { return s.kind == Hot }

// PinchTemperature returns the stream's pinch reference on its own
// temperature scale.
func (s *Stream) PinchTemperature() float64 { return s.pinch }

// Resolved reports whether an analysis has assigned the pinch temperature.
func (s *Stream) Resolved() bool { return s.resolved }

func (s *Stream) setPinch(t float64) {
	s.pinch = t
	s.resolved = true
}

// TotalLoad is the absolute heat load of the stream.
func (s *Stream) TotalLoad() float64 {
	return scalar.Round(math.Abs(s.final-s.initial)*s.wcp, loadPrecision)
}

// LoadAbovePinch is the part of the total load that lies above the stream's
// pinch temperature.
func (s *Stream) LoadAbovePinch() float64 {
	pp := s.pinch
	var q float64
	switch s.kind {
	case Hot:
		if s.final >= pp {
			q = s.TotalLoad()
		} else {
			q = (s.initial - pp) * s.wcp
		}
	case Cold:
		if s.initial >= pp {
			q = s.TotalLoad()
		} else {
			q = (s.final - pp) * s.wcp
		}
	}
	return roundLoad(q)
}

// LoadBelowPinch is the part of the total load that lies at or below the
// stream's pinch temperature.
func (s *Stream) LoadBelowPinch() float64 {
	pp := s.pinch
	var q float64
	switch s.kind {
	case Hot:
		if s.initial <= pp {
			q = s.TotalLoad()
		} else {
			q = (pp - s.final) * s.wcp
		}
	case Cold:
		if s.final <= pp {
			q = s.TotalLoad()
		} else {
			q = (pp - s.initial) * s.wcp
		}
	}
	return roundLoad(q)
}

// OverlapsInterval reports whether the stream strictly overlaps the range
// spanned by a and b. Touching an endpoint does not count.
func (s *Stream) OverlapsInterval(a, b float64) bool {
	return overlaps(s.initial, s.final, a, b)
}

func (s *Stream) String() string {
	name := s.Name
	if name == "" {
		name = "stream"
	}
	return fmt.Sprintf("%s(%s %g -> %g, WCp %g)", name, s.kind, s.initial, s.final, s.wcp)
}

func overlaps(t1, t2, a, b float64) bool {
	return math.Max(t1, t2) > math.Min(a, b) && math.Min(t1, t2) < math.Max(a, b)
}

func roundLoad(q float64) float64 {
	q = scalar.Round(q, loadPrecision)
	if q > 0 {
		return q
	}
	return 0
}
