package pinch

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"testing"
)

type streamDef struct {
	initial, final, wcp float64
}

func buildStreams(t *testing.T, defs []streamDef) []*Stream {
	t.Helper()
	streams := make([]*Stream, len(defs))
	for i, d := range defs {
		s, err := NewStream(d.initial, d.final, d.wcp)
		if err != nil {
			t.Fatalf("stream %d: %v", i, err)
		}
		streams[i] = s
	}
	return streams
}

// workedExample is the seven-stream reference network.
var workedExample = []streamDef{
	{353, 313, 9.802},
	{347, 246, 2.931},
	{255, 80, 6.161},
	{224, 340, 7.179},
	{116, 303, 0.641},
	{53, 113, 7.627},
	{40, 293, 1.690},
}

var fourStreamExample = []streamDef{
	{250, 100, 0.95},
	{180, 100, 0.84},
	{110, 200, 1.00},
	{110, 230, 0.90},
}

var textbookExample = []streamDef{
	{175, 45, 10},
	{125, 65, 40},
	{20, 155, 20},
	{40, 112, 15},
}

func assertSlice(t *testing.T, label string, got, expected []float64, epsilon float64) {
	t.Helper()
	if len(got) != len(expected) {
		t.Fatalf("%s: expected %d values, got %d (%v)", label, len(expected), len(got), got)
	}
	for i := range got {
		if math.Abs(got[i]-expected[i]) > epsilon {
			t.Errorf("%s[%d]: expected %.4f ± %g, got %.4f", label, i, expected[i], epsilon, got[i])
		}
	}
}

func TestPartition(t *testing.T) {
	streams := buildStreams(t, fourStreamExample)

	p, err := Partition(streams, 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	assertSlice(t, "temperatures", p.Temperatures, []float64{240, 210, 170, 120, 90}, 0)

	if len(p.Streams) != len(streams) {
		t.Fatalf("expected %d shifted streams, got %d", len(streams), len(p.Streams))
	}
	if p.Streams[0].Initial != 240 || p.Streams[0].Final != 90 {
		t.Errorf("hot stream should move down by 10, got %v -> %v", p.Streams[0].Initial, p.Streams[0].Final)
	}
	if p.Streams[2].Initial != 120 || p.Streams[2].Final != 210 {
		t.Errorf("cold stream should move up by 10, got %v -> %v", p.Streams[2].Initial, p.Streams[2].Final)
	}

	// The input streams are not shifted.
	if streams[0].Initial() != 250 || streams[2].Initial() != 110 {
		t.Errorf("input streams were modified: %v, %v", streams[0], streams[2])
	}
}

func TestPartitionErrors(t *testing.T) {
	one := buildStreams(t, []streamDef{{100, 50, 1}})
	two := buildStreams(t, []streamDef{{100, 50, 1}, {40, 90, 2}})

	tests := []struct {
		name    string
		streams []*Stream
		dtMin   float64
		wantErr error
	}{
		{name: "single stream", streams: one, dtMin: 10, wantErr: ErrDegenerateNetwork},
		{name: "no streams", streams: nil, dtMin: 10, wantErr: ErrDegenerateNetwork},
		{name: "zero approach", streams: two, dtMin: 0, wantErr: ErrInvalidApproach},
		{name: "negative approach", streams: two, dtMin: -5, wantErr: ErrInvalidApproach},
		{name: "NaN approach", streams: two, dtMin: math.NaN(), wantErr: ErrInvalidApproach},
		{name: "nil stream", streams: []*Stream{two[0], nil}, dtMin: 10, wantErr: ErrInvalidStream},
		{name: "zero value stream", streams: []*Stream{two[0], {}}, dtMin: 10, wantErr: ErrInvalidStream},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Partition(tt.streams, tt.dtMin)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestPartitionDeduplicatesBoundaries(t *testing.T) {
	// A hot 110 -> 60 and a cold 90 -> 100 stream share the shifted
	// temperatures 105 and 95 with dtMin = 10.
	streams := buildStreams(t, []streamDef{{110, 60, 1}, {90, 100, 1}, {100, 90, 3}})

	p, err := Partition(streams, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	assertSlice(t, "temperatures", p.Temperatures, []float64{105, 95, 85, 55}, 0)
}

func TestBalance(t *testing.T) {
	streams := buildStreams(t, fourStreamExample)
	p, err := Partition(streams, 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	intervals := Balance(p)
	if len(intervals) != 4 {
		t.Fatalf("expected 4 intervals, got %d", len(intervals))
	}

	var wcp, load, upper, lower []float64
	for _, iv := range intervals {
		wcp = append(wcp, iv.NetHeatCapacityFlow)
		load = append(load, iv.NetHeatLoad)
		upper = append(upper, iv.Upper)
		lower = append(lower, iv.Lower)
	}

	assertSlice(t, "net WCp", wcp, []float64{-0.05, 0.95, 0.11, -1.79}, 1e-9)
	assertSlice(t, "net load", load, []float64{-1.5, 38, 5.5, -53.7}, 1e-9)
	assertSlice(t, "upper", upper, []float64{240, 210, 170, 120}, 0)
	assertSlice(t, "lower", lower, []float64{210, 170, 120, 90}, 0)
}

func TestBalanceIgnoresTouchingStreams(t *testing.T) {
	// On the shifted scale the cold stream ends exactly where the hot
	// stream ends, so no interval contains both.
	streams := buildStreams(t, []streamDef{{110, 60, 2}, {0, 50, 3}})
	p, err := Partition(streams, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	intervals := Balance(p)
	if len(intervals) != 2 {
		t.Fatalf("expected 2 intervals, got %d", len(intervals))
	}
	if intervals[0].NetHeatCapacityFlow != -2 || intervals[1].NetHeatCapacityFlow != 3 {
		t.Errorf("unexpected net flows %v / %v", intervals[0].NetHeatCapacityFlow, intervals[1].NetHeatCapacityFlow)
	}
}

func TestBuildCascade(t *testing.T) {
	intervals := []Interval{
		{NetHeatLoad: -1.5},
		{NetHeatLoad: 38},
		{NetHeatLoad: 5.5},
		{NetHeatLoad: -53.7},
	}

	cascade, err := BuildCascade(intervals)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	assertSlice(t, "cascade", cascade, []float64{42, 43.5, 5.5, 0, 53.7}, 1e-9)
	if cascade[3] != 0 {
		t.Errorf("pinch entry should be exactly zero, got %v", cascade[3])
	}
}

func TestBuildCascadeAlreadyFeasible(t *testing.T) {
	cascade, err := BuildCascade([]Interval{{NetHeatLoad: -10}, {NetHeatLoad: -5}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertSlice(t, "cascade", cascade, []float64{0, 10, 15}, 0)
}

func TestBuildCascadeErrors(t *testing.T) {
	tests := []struct {
		name      string
		intervals []Interval
		wantErr   error
	}{
		{name: "no intervals", intervals: nil, wantErr: ErrDegenerateNetwork},
		{name: "infinite load", intervals: []Interval{{NetHeatLoad: math.Inf(1)}, {NetHeatLoad: 1}}, wantErr: ErrNumericDivergence},
		{name: "NaN load", intervals: []Interval{{NetHeatLoad: math.NaN()}}, wantErr: ErrNumericDivergence},
		{name: "overflow", intervals: []Interval{{NetHeatLoad: -math.MaxFloat64}, {NetHeatLoad: -math.MaxFloat64}}, wantErr: ErrNumericDivergence},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildCascade(tt.intervals)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestResolveWithoutZero(t *testing.T) {
	streams := buildStreams(t, fourStreamExample)
	p, err := Partition(streams, 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = Resolve(p, []float64{1, 2, 3, 4, 5})
	if !errors.Is(err, ErrNumericDivergence) {
		t.Fatalf("expected ErrNumericDivergence, got %v", err)
	}
	for _, s := range streams {
		if s.Resolved() {
			t.Errorf("%v should not be resolved after a failed run", s)
		}
	}

	if _, err := Resolve(p, []float64{0, 1}); err == nil {
		t.Error("expected an error for a misaligned cascade")
	}
}

func TestResolveTakesFirstZero(t *testing.T) {
	streams := buildStreams(t, fourStreamExample)
	p, err := Partition(streams, 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	res, err := Resolve(p, []float64{5, 0, 3, 0, 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.PinchIndex != 1 || res.PinchTemperature != 210 {
		t.Errorf("expected first zero at index 1 (210), got index %d (%v)", res.PinchIndex, res.PinchTemperature)
	}
}

func TestAnalyzeWorkedExample(t *testing.T) {
	streams := buildStreams(t, workedExample)

	res, err := Analyze(streams, DefaultDTMin)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Reference targets for dt = 10.
	if res.PinchTemperature != 229 {
		t.Errorf("expected pinch temperature 229, got %v", res.PinchTemperature)
	}
	if math.Abs(res.MinHeatingUtility-182.52) > 1e-9 {
		t.Errorf("expected minimum heating 182.52, got %v", res.MinHeatingUtility)
	}
	if math.Abs(res.MinCoolingUtility-110.99) > 1e-9 {
		t.Errorf("expected minimum cooling 110.99, got %v", res.MinCoolingUtility)
	}
	if res.HotPinchTemperature != 234 || res.ColdPinchTemperature != 224 {
		t.Errorf("expected hot/cold pinch 234/224, got %v/%v", res.HotPinchTemperature, res.ColdPinchTemperature)
	}
	if res.PinchIndex != 7 {
		t.Errorf("expected pinch index 7, got %d", res.PinchIndex)
	}

	assertSlice(t, "temperatures", res.Temperatures,
		[]float64{348, 345, 342, 308, 298, 250, 241, 229, 121, 118, 75, 58, 45}, 0)
	assertSlice(t, "cascade", res.Cascade,
		[]float64{182.521, 211.927, 219.796, 408.632, 359.742, 43.95, 40.188, 0, 413.64, 427.053, 291.345, 132.956, 110.986}, 1e-6)
	if len(res.Intervals) != len(res.Temperatures)-1 {
		t.Errorf("expected %d intervals, got %d", len(res.Temperatures)-1, len(res.Intervals))
	}

	expected := []struct {
		pinch, above, below float64
	}{
		{234, 392.08, 0},
		{234, 296.03, 0},
		{234, 129.38, 948.79},
		{224, 832.76, 0},
		{224, 50.64, 69.23},
		{224, 0, 457.62},
		{224, 116.61, 310.96},
	}
	for i, s := range streams {
		if s.PinchTemperature() != expected[i].pinch {
			t.Errorf("stream %d: expected pinch %v, got %v", i, expected[i].pinch, s.PinchTemperature())
		}
		if math.Abs(s.LoadAbovePinch()-expected[i].above) > 0.006 {
			t.Errorf("stream %d: expected load above pinch %.2f, got %.2f", i, expected[i].above, s.LoadAbovePinch())
		}
		if math.Abs(s.LoadBelowPinch()-expected[i].below) > 0.006 {
			t.Errorf("stream %d: expected load below pinch %.2f, got %.2f", i, expected[i].below, s.LoadBelowPinch())
		}
	}
}

func TestAnalyzeReferenceNetworks(t *testing.T) {
	tests := []struct {
		name    string
		streams []streamDef
		dtMin   float64
		pinch   float64
		heating float64
		cooling float64
	}{
		{name: "four streams", streams: fourStreamExample, dtMin: 20, pinch: 120, heating: 42, cooling: 53.7},
		{name: "textbook", streams: textbookExample, dtMin: 20, pinch: 115, heating: 605, cooling: 525},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Analyze(buildStreams(t, tt.streams), tt.dtMin)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if res.PinchTemperature != tt.pinch {
				t.Errorf("expected pinch %v, got %v", tt.pinch, res.PinchTemperature)
			}
			if math.Abs(res.MinHeatingUtility-tt.heating) > 1e-9 {
				t.Errorf("expected heating %v, got %v", tt.heating, res.MinHeatingUtility)
			}
			if math.Abs(res.MinCoolingUtility-tt.cooling) > 1e-9 {
				t.Errorf("expected cooling %v, got %v", tt.cooling, res.MinCoolingUtility)
			}
		})
	}
}

func TestAnalyzeScaleInvariance(t *testing.T) {
	const k = 3.0

	base, err := Analyze(buildStreams(t, workedExample), DefaultDTMin)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	scaledDefs := make([]streamDef, len(workedExample))
	for i, d := range workedExample {
		scaledDefs[i] = streamDef{d.initial, d.final, d.wcp * k}
	}
	scaled, err := Analyze(buildStreams(t, scaledDefs), DefaultDTMin)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if scaled.PinchTemperature != base.PinchTemperature {
		t.Errorf("pinch moved from %v to %v", base.PinchTemperature, scaled.PinchTemperature)
	}
	first, last := 0, len(base.Cascade)-1
	if math.Abs(scaled.Cascade[first]-k*base.Cascade[first]) > 1e-6 {
		t.Errorf("heating should scale by %v: %v vs %v", k, scaled.Cascade[first], base.Cascade[first])
	}
	if math.Abs(scaled.Cascade[last]-k*base.Cascade[last]) > 1e-6 {
		t.Errorf("cooling should scale by %v: %v vs %v", k, scaled.Cascade[last], base.Cascade[last])
	}
}

func TestAnalyzeInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for run := 0; run < 200; run++ {
		n := 2 + rng.Intn(8)
		defs := make([]streamDef, n)
		for i := range defs {
			initial := float64(rng.Intn(400))
			final := initial
			for final == initial {
				final = float64(rng.Intn(400))
			}
			defs[i] = streamDef{initial, final, 0.1 + rng.Float64()*10}
		}
		streams := buildStreams(t, defs)

		res, err := Analyze(streams, 5+float64(rng.Intn(20)))
		if err != nil {
			t.Fatalf("run %d: unexpected error: %v", run, err)
		}

		if res.MinHeatingUtility < 0 || res.MinCoolingUtility < 0 {
			t.Errorf("run %d: negative utilities %v / %v", run, res.MinHeatingUtility, res.MinCoolingUtility)
		}

		low := res.Cascade[0]
		for _, q := range res.Cascade {
			if q < low {
				low = q
			}
		}
		if low != 0 {
			t.Errorf("run %d: cascade minimum is %v", run, low)
		}

		for i, s := range streams {
			if s.Initial() != defs[i].initial || s.Final() != defs[i].final {
				t.Errorf("run %d: stream %d temperatures changed to %v -> %v", run, i, s.Initial(), s.Final())
			}
			if !s.Resolved() {
				t.Errorf("run %d: stream %d not resolved", run, i)
			}
			split := s.LoadAbovePinch() + s.LoadBelowPinch()
			if math.Abs(split-s.TotalLoad()) > 0.0100001 {
				t.Errorf("run %d: %v split %.2f + %.2f != %.2f", run, s, s.LoadAbovePinch(), s.LoadBelowPinch(), s.TotalLoad())
			}
		}
	}
}

func TestAnalyzerHonoursContext(t *testing.T) {
	a := NewAnalyzer(nil)
	streams := buildStreams(t, textbookExample)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := a.Analyze(ctx, streams, 20); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	for _, s := range streams {
		if s.Resolved() {
			t.Errorf("%v resolved by a cancelled run", s)
		}
	}

	res, err := a.Analyze(context.Background(), streams, 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.PinchTemperature != 115 {
		t.Errorf("expected pinch 115, got %v", res.PinchTemperature)
	}
}

func TestAnalyzerPropagatesErrors(t *testing.T) {
	a := NewAnalyzer(nil)
	_, err := a.Analyze(context.Background(), buildStreams(t, []streamDef{{100, 50, 1}}), 10)
	if !errors.Is(err, ErrDegenerateNetwork) {
		t.Fatalf("expected ErrDegenerateNetwork, got %v", err)
	}
}
