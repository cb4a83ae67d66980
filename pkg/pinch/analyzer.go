package pinch

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// DefaultDTMin is the minimum approach temperature used when none is given.
const DefaultDTMin = 10.0

// Analyze runs the full pipeline: Partition, Balance, BuildCascade and
// Resolve. On success every stream carries its pinch temperature.
//
// Analyze must not run concurrently over the same stream values; use an
// Analyzer when runs can overlap.
func Analyze(streams []*Stream, dtMin float64) (*Result, error) {
	p, err := Partition(streams, dtMin)
	if err != nil {
		return nil, err
	}

	intervals := Balance(p)

	cascade, err := BuildCascade(intervals)
	if err != nil {
		return nil, err
	}

	res, err := Resolve(p, cascade)
	if err != nil {
		return nil, err
	}
	res.Intervals = intervals

	return res, nil
}

// Analyzer serializes analyses and logs them.
type Analyzer struct {
	mu     sync.Mutex
	logger *zap.SugaredLogger
}

// NewAnalyzer returns an Analyzer logging to logger. A nil logger discards
// all output.
func NewAnalyzer(logger *zap.SugaredLogger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Analyzer{logger: logger}
}

// Analyze runs one analysis. The context is only checked before the run
// starts; the computation itself is bounded and not interruptible.
func (a *Analyzer) Analyze(ctx context.Context, streams []*Stream, dtMin float64) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.logger.Debugw("starting pinch analysis", "streams", len(streams), "dt_min", dtMin)

	res, err := Analyze(streams, dtMin)
	if err != nil {
		a.logger.Warnw("pinch analysis failed", "streams", len(streams), "dt_min", dtMin, "error", err)
		return nil, err
	}

	a.logger.Debugw("heat cascade", "temperatures", res.Temperatures, "cascade", res.Cascade)
	a.logger.Infow("pinch analysis complete",
		"pinch_temperature", res.PinchTemperature,
		"min_heating_utility", res.MinHeatingUtility,
		"min_cooling_utility", res.MinCoolingUtility,
	)

	return res, nil
}
