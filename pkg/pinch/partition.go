package pinch

import (
	"fmt"
	"math"
	"sort"
)

// ShiftedStream is a stream moved onto the shifted temperature scale: hot
// streams down by dtMin/2, cold streams up by dtMin/2. On that scale a plain
// overlap test is equivalent to the dtMin-constrained test on real
// temperatures. The source stream is left untouched.
type ShiftedStream struct {
	Stream  *Stream
	Initial float64
	Final   float64
}

func shiftStream(s *Stream, dtMin float64) ShiftedStream {
	d := s.kind.shift(dtMin)
	return ShiftedStream{
		Stream:  s,
		Initial: s.initial + d,
		Final:   s.final + d,
	}
}

// Overlaps reports whether the shifted span strictly overlaps [a, b].
func (s ShiftedStream) Overlaps(a, b float64) bool {
	return overlaps(s.Initial, s.Final, a, b)
}

// Partitioning is the interval boundary axis of a stream set together with
// the shifted snapshot of every stream.
type Partitioning struct {
	DTMin float64
	// Temperatures holds the distinct shifted endpoint temperatures in
	// descending order.
	Temperatures []float64
	Streams      []ShiftedStream
}

// Partition shifts every stream and builds the descending axis of distinct
// shifted endpoint temperatures.
//
// Duplicates are removed with exact floating point equality, so endpoints
// that differ only by rounding noise produce separate, very narrow intervals.
func Partition(streams []*Stream, dtMin float64) (*Partitioning, error) {
	if math.IsNaN(dtMin) || math.IsInf(dtMin, 0) || dtMin <= 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidApproach, dtMin)
	}
	if len(streams) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 streams, got %d", ErrDegenerateNetwork, len(streams))
	}

	p := &Partitioning{
		DTMin:   dtMin,
		Streams: make([]ShiftedStream, 0, len(streams)),
	}
	seen := make(map[float64]struct{}, 2*len(streams))

	for i, s := range streams {
		if s == nil || (s.kind != Hot && s.kind != Cold) {
			return nil, fmt.Errorf("%w: stream %d was not built with NewStream", ErrInvalidStream, i)
		}

		sh := shiftStream(s, dtMin)
		p.Streams = append(p.Streams, sh)

		for _, t := range []float64{sh.Initial, sh.Final} {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			p.Temperatures = append(p.Temperatures, t)
		}
	}

	if len(p.Temperatures) < 2 {
		return nil, fmt.Errorf("%w: only %d distinct shifted temperature(s)", ErrDegenerateNetwork, len(p.Temperatures))
	}

	sort.Sort(sort.Reverse(sort.Float64Slice(p.Temperatures)))

	return p, nil
}
