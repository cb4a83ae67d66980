package pinch

import (
	"fmt"

	"gonum.org/v1/gonum/floats/scalar"
)

// resultPrecision is the number of decimals of the reported targets.
const resultPrecision = 2

// Result holds the utility targets of a stream set together with the
// diagnostic cascade listing.
type Result struct {
	DTMin float64 `json:"dt_min"`

	// PinchTemperature is the pinch on the shifted scale.
	PinchTemperature float64 `json:"pinch_temperature"`
	// HotPinchTemperature and ColdPinchTemperature are the pinch mapped back
	// onto hot and cold stream temperatures.
	HotPinchTemperature  float64 `json:"hot_pinch_temperature"`
	ColdPinchTemperature float64 `json:"cold_pinch_temperature"`

	MinHeatingUtility float64 `json:"min_heating_utility"`
	MinCoolingUtility float64 `json:"min_cooling_utility"`

	// PinchIndex is the position of the first zero in Cascade.
	PinchIndex int `json:"pinch_index"`

	// Temperatures is the shifted boundary axis, aligned with Cascade.
	Temperatures []float64  `json:"temperatures"`
	Cascade      []float64  `json:"cascade"`
	Intervals    []Interval `json:"intervals"`
}

// Resolve locates the pinch in a corrected cascade, derives the utility
// targets and writes the pinch temperature onto every stream of the
// partitioning, on that stream's own temperature scale.
//
// Only the first zero of the cascade is taken as the pinch.
func Resolve(p *Partitioning, cascade []float64) (*Result, error) {
	if len(cascade) != len(p.Temperatures) {
		return nil, fmt.Errorf("cascade has %d entries for %d boundaries", len(cascade), len(p.Temperatures))
	}

	idx := -1
	for i, q := range cascade {
		if q == 0 {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("%w: no zero entry in the corrected cascade", ErrNumericDivergence)
	}

	shifted := p.Temperatures[idx]
	for _, s := range p.Streams {
		s.Stream.setPinch(shifted - s.Stream.kind.shift(p.DTMin))
	}

	return &Result{
		DTMin:                p.DTMin,
		PinchTemperature:     scalar.Round(shifted, resultPrecision),
		HotPinchTemperature:  scalar.Round(shifted-Hot.shift(p.DTMin), resultPrecision),
		ColdPinchTemperature: scalar.Round(shifted-Cold.shift(p.DTMin), resultPrecision),
		MinHeatingUtility:    scalar.Round(cascade[0], resultPrecision),
		MinCoolingUtility:    scalar.Round(cascade[len(cascade)-1], resultPrecision),
		PinchIndex:           idx,
		Temperatures:         p.Temperatures,
		Cascade:              cascade,
	}, nil
}
