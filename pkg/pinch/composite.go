package pinch

import (
	"fmt"
	"sort"
)

// CurvePoint is one vertex of a composite curve.
type CurvePoint struct {
	Temperature float64 `json:"temperature"`
	Enthalpy    float64 `json:"enthalpy"`
}

// CompositeCurves builds the hot and cold composite curves of the streams on
// their real temperature scales, vertices in ascending temperature order.
// The hot curve starts at zero enthalpy; the cold curve starts at
// minCooling, so that the two curves touch at the pinch.
//
// Every stream must have been through a successful analysis.
func CompositeCurves(streams []*Stream, minCooling float64) (hot, cold []CurvePoint, err error) {
	var hs, cs []*Stream
	for i, s := range streams {
		if s == nil {
			return nil, nil, fmt.Errorf("%w: stream %d is nil", ErrInvalidStream, i)
		}
		if !s.resolved {
			return nil, nil, fmt.Errorf("%w: %s", ErrUnresolved, s)
		}
		if s.kind == Hot {
			hs = append(hs, s)
		} else {
			cs = append(cs, s)
		}
	}

	return composite(hs, 0), composite(cs, minCooling), nil
}

func composite(streams []*Stream, start float64) []CurvePoint {
	if len(streams) == 0 {
		return nil
	}

	seen := make(map[float64]struct{}, 2*len(streams))
	var temps []float64
	for _, s := range streams {
		for _, t := range []float64{s.initial, s.final} {
			if _, ok := seen[t]; !ok {
				seen[t] = struct{}{}
				temps = append(temps, t)
			}
		}
	}
	sort.Float64s(temps)

	points := make([]CurvePoint, len(temps))
	points[0] = CurvePoint{Temperature: temps[0], Enthalpy: start}
	for i := 1; i < len(temps); i++ {
		var wcp float64
		for _, s := range streams {
			if s.OverlapsInterval(temps[i-1], temps[i]) {
				wcp += s.wcp
			}
		}
		points[i] = CurvePoint{
			Temperature: temps[i],
			Enthalpy:    points[i-1].Enthalpy + wcp*(temps[i]-temps[i-1]),
		}
	}

	return points
}
