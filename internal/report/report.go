// Package report renders pinch analysis results as text listings and as
// JSON-tagged documents shared by the command line and the REST server.
package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/chrissnell/pinchpoint/pkg/pinch"
	"gonum.org/v1/gonum/floats/scalar"
)

const displayPrecision = 2

// Document is the complete outcome of analysing one problem
type Document struct {
	Problem              string             `json:"problem,omitempty"`
	DTMin                float64            `json:"dt_min"`
	PinchTemperature     float64            `json:"pinch_temperature"`
	HotPinchTemperature  float64            `json:"hot_pinch_temperature"`
	ColdPinchTemperature float64            `json:"cold_pinch_temperature"`
	MinHeatingUtility    float64            `json:"min_heating_utility"`
	MinCoolingUtility    float64            `json:"min_cooling_utility"`
	Temperatures         []float64          `json:"temperatures"`
	Cascade              []float64          `json:"cascade"`
	Intervals            []pinch.Interval   `json:"intervals"`
	Streams              []StreamDocument   `json:"streams"`
	HotComposite         []pinch.CurvePoint `json:"hot_composite"`
	ColdComposite        []pinch.CurvePoint `json:"cold_composite"`
	RunID                string             `json:"run_id,omitempty"`
}

// StreamDocument describes one stream and its loads relative to the pinch
type StreamDocument struct {
	Name             string  `json:"name"`
	Kind             string  `json:"kind"`
	Initial          float64 `json:"initial"`
	Final            float64 `json:"final"`
	HeatCapacityFlow float64 `json:"wcp"`
	PinchTemperature float64 `json:"pinch_temperature"`
	TotalLoad        float64 `json:"total_load"`
	LoadAbovePinch   float64 `json:"load_above_pinch"`
	LoadBelowPinch   float64 `json:"load_below_pinch"`
}

// StreamName returns the display name of the i-th stream (zero based).
// Unnamed streams are numbered S1, S2, ...
func StreamName(s *pinch.Stream, i int) string {
	if s.Name != "" {
		return s.Name
	}
	return fmt.Sprintf("S%d", i+1)
}

// NewStreamDocuments describes analysed streams
func NewStreamDocuments(streams []*pinch.Stream) []StreamDocument {
	docs := make([]StreamDocument, len(streams))
	for i, s := range streams {
		docs[i] = StreamDocument{
			Name:             StreamName(s, i),
			Kind:             s.Kind().String(),
			Initial:          s.Initial(),
			Final:            s.Final(),
			HeatCapacityFlow: s.HeatCapacityFlow(),
			PinchTemperature: s.PinchTemperature(),
			TotalLoad:        s.TotalLoad(),
			LoadAbovePinch:   s.LoadAbovePinch(),
			LoadBelowPinch:   s.LoadBelowPinch(),
		}
	}
	return docs
}

// NewDocument builds the document of an analysis. The streams must be the
// ones result was computed from.
func NewDocument(problem string, streams []*pinch.Stream, result *pinch.Result) (*Document, error) {
	hot, cold, err := pinch.CompositeCurves(streams, result.MinCoolingUtility)
	if err != nil {
		return nil, err
	}

	return &Document{
		Problem:              problem,
		DTMin:                result.DTMin,
		PinchTemperature:     result.PinchTemperature,
		HotPinchTemperature:  result.HotPinchTemperature,
		ColdPinchTemperature: result.ColdPinchTemperature,
		MinHeatingUtility:    result.MinHeatingUtility,
		MinCoolingUtility:    result.MinCoolingUtility,
		Temperatures:         result.Temperatures,
		Cascade:              result.Cascade,
		Intervals:            result.Intervals,
		Streams:              NewStreamDocuments(streams),
		HotComposite:         hot,
		ColdComposite:        cold,
	}, nil
}

// WriteCascade writes the boundary axis and the corrected cascade as two
// aligned arrow lists:
//
//	T:  348 -> 345 -> ...
//	Q:  182.52 -> 211.93 -> ...
func WriteCascade(w io.Writer, result *pinch.Result) error {
	if _, err := fmt.Fprintf(w, "T:  %s\n", joinValues(result.Temperatures)); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Q:  %s\n", joinValues(result.Cascade))
	return err
}

// WriteStreams writes a table of the streams and their pinch-relative loads
func WriteStreams(w io.Writer, streams []*pinch.Stream) error {
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Stream\tKind\tInitial\tFinal\tWCp\tPinch\tAbove\tBelow\t")
	for _, s := range NewStreamDocuments(streams) {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t\n",
			s.Name, s.Kind,
			formatValue(s.Initial), formatValue(s.Final), formatValue(s.HeatCapacityFlow),
			formatValue(s.PinchTemperature), formatValue(s.LoadAbovePinch), formatValue(s.LoadBelowPinch))
	}
	return tw.Flush()
}

// WriteSummary writes the utility targets
func WriteSummary(w io.Writer, result *pinch.Result) error {
	_, err := fmt.Fprintf(w,
		"Pinch temperature: %s (hot %s, cold %s)\nMinimum heating utility: %s\nMinimum cooling utility: %s\n",
		formatValue(result.PinchTemperature),
		formatValue(result.HotPinchTemperature),
		formatValue(result.ColdPinchTemperature),
		formatValue(result.MinHeatingUtility),
		formatValue(result.MinCoolingUtility))
	return err
}

// WriteText writes the complete text report: summary, cascade and streams
func WriteText(w io.Writer, problem string, streams []*pinch.Stream, result *pinch.Result) error {
	if problem != "" {
		if _, err := fmt.Fprintf(w, "Problem: %s (dt_min %s)\n\n", problem, formatValue(result.DTMin)); err != nil {
			return err
		}
	}
	if err := WriteSummary(w, result); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}
	if err := WriteCascade(w, result); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}
	return WriteStreams(w, streams)
}

func joinValues(values []float64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = formatValue(v)
	}
	return strings.Join(parts, " -> ")
}

func formatValue(v float64) string {
	v = scalar.Round(v, displayPrecision)
	if v == 0 {
		// Avoid printing -0
		v = 0
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
