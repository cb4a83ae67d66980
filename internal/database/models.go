package database

import (
	"time"

	"github.com/google/uuid"

	"github.com/chrissnell/pinchpoint/internal/report"
	"github.com/chrissnell/pinchpoint/pkg/pinch"
)

// AnalysisRun is one archived analysis with its targets, streams and cascade
type AnalysisRun struct {
	ID                   uuid.UUID      `gorm:"type:uuid;primaryKey;column:id"`
	Problem              string         `gorm:"column:problem;index"`
	DTMin                float64        `gorm:"column:dt_min;not null"`
	PinchTemperature     float64        `gorm:"column:pinch_temperature;not null"`
	HotPinchTemperature  float64        `gorm:"column:hot_pinch_temperature;not null"`
	ColdPinchTemperature float64        `gorm:"column:cold_pinch_temperature;not null"`
	MinHeatingUtility    float64        `gorm:"column:min_heating_utility;not null"`
	MinCoolingUtility    float64        `gorm:"column:min_cooling_utility;not null"`
	PinchIndex           int            `gorm:"column:pinch_index;not null"`
	CreatedAt            time.Time      `gorm:"column:created_at;index"`
	Streams              []StreamResult `gorm:"foreignKey:RunID;constraint:OnDelete:CASCADE"`
	Cascade              []CascadeEntry `gorm:"foreignKey:RunID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for AnalysisRun
func (AnalysisRun) TableName() string {
	return "analysis_runs"
}

// StreamResult is a stream of an archived run with its pinch-relative loads
type StreamResult struct {
	ID               uint      `gorm:"primaryKey;autoIncrement;column:id"`
	RunID            uuid.UUID `gorm:"type:uuid;column:run_id;index;not null"`
	Position         int       `gorm:"column:position;not null"`
	Name             string    `gorm:"column:name"`
	Kind             string    `gorm:"column:kind;not null"`
	Initial          float64   `gorm:"column:initial_temperature;not null"`
	Final            float64   `gorm:"column:final_temperature;not null"`
	HeatCapacityFlow float64   `gorm:"column:heat_capacity_flow;not null"`
	PinchTemperature float64   `gorm:"column:pinch_temperature;not null"`
	TotalLoad        float64   `gorm:"column:total_load;not null"`
	LoadAbovePinch   float64   `gorm:"column:load_above_pinch;not null"`
	LoadBelowPinch   float64   `gorm:"column:load_below_pinch;not null"`
}

// TableName specifies the table name for StreamResult
func (StreamResult) TableName() string {
	return "analysis_streams"
}

// CascadeEntry is one boundary of an archived cascade
type CascadeEntry struct {
	ID          uint      `gorm:"primaryKey;autoIncrement;column:id"`
	RunID       uuid.UUID `gorm:"type:uuid;column:run_id;index;not null"`
	Position    int       `gorm:"column:position;not null"`
	Temperature float64   `gorm:"column:temperature;not null"`
	Heat        float64   `gorm:"column:heat;not null"`
}

// TableName specifies the table name for CascadeEntry
func (CascadeEntry) TableName() string {
	return "analysis_cascade"
}

// NewAnalysisRun builds the archive record of an analysis of streams
func NewAnalysisRun(problem string, streams []*pinch.Stream, result *pinch.Result) *AnalysisRun {
	run := &AnalysisRun{
		ID:                   uuid.New(),
		Problem:              problem,
		DTMin:                result.DTMin,
		PinchTemperature:     result.PinchTemperature,
		HotPinchTemperature:  result.HotPinchTemperature,
		ColdPinchTemperature: result.ColdPinchTemperature,
		MinHeatingUtility:    result.MinHeatingUtility,
		MinCoolingUtility:    result.MinCoolingUtility,
		PinchIndex:           result.PinchIndex,
		CreatedAt:            time.Now().UTC(),
	}

	for i, s := range report.NewStreamDocuments(streams) {
		run.Streams = append(run.Streams, StreamResult{
			RunID:            run.ID,
			Position:         i,
			Name:             s.Name,
			Kind:             s.Kind,
			Initial:          s.Initial,
			Final:            s.Final,
			HeatCapacityFlow: s.HeatCapacityFlow,
			PinchTemperature: s.PinchTemperature,
			TotalLoad:        s.TotalLoad,
			LoadAbovePinch:   s.LoadAbovePinch,
			LoadBelowPinch:   s.LoadBelowPinch,
		})
	}

	for i, t := range result.Temperatures {
		run.Cascade = append(run.Cascade, CascadeEntry{
			RunID:       run.ID,
			Position:    i,
			Temperature: t,
			Heat:        result.Cascade[i],
		})
	}

	return run
}

// Document converts the archived run back into a report document. Intervals
// and composite curves are not archived and are left empty.
func (r *AnalysisRun) Document() *report.Document {
	doc := &report.Document{
		Problem:              r.Problem,
		DTMin:                r.DTMin,
		PinchTemperature:     r.PinchTemperature,
		HotPinchTemperature:  r.HotPinchTemperature,
		ColdPinchTemperature: r.ColdPinchTemperature,
		MinHeatingUtility:    r.MinHeatingUtility,
		MinCoolingUtility:    r.MinCoolingUtility,
		Temperatures:         make([]float64, len(r.Cascade)),
		Cascade:              make([]float64, len(r.Cascade)),
		Streams:              make([]report.StreamDocument, len(r.Streams)),
		RunID:                r.ID.String(),
	}

	for i, c := range r.Cascade {
		doc.Temperatures[i] = c.Temperature
		doc.Cascade[i] = c.Heat
	}

	for i, s := range r.Streams {
		doc.Streams[i] = report.StreamDocument{
			Name:             s.Name,
			Kind:             s.Kind,
			Initial:          s.Initial,
			Final:            s.Final,
			HeatCapacityFlow: s.HeatCapacityFlow,
			PinchTemperature: s.PinchTemperature,
			TotalLoad:        s.TotalLoad,
			LoadAbovePinch:   s.LoadAbovePinch,
			LoadBelowPinch:   s.LoadBelowPinch,
		}
	}

	return doc
}

// RunSummary is the listing entry of an archived run
type RunSummary struct {
	ID                string    `json:"id"`
	Problem           string    `json:"problem,omitempty"`
	DTMin             float64   `json:"dt_min"`
	PinchTemperature  float64   `json:"pinch_temperature"`
	MinHeatingUtility float64   `json:"min_heating_utility"`
	MinCoolingUtility float64   `json:"min_cooling_utility"`
	CreatedAt         time.Time `json:"created_at"`
}

// Summary returns the listing entry of the run
func (r *AnalysisRun) Summary() RunSummary {
	return RunSummary{
		ID:                r.ID.String(),
		Problem:           r.Problem,
		DTMin:             r.DTMin,
		PinchTemperature:  r.PinchTemperature,
		MinHeatingUtility: r.MinHeatingUtility,
		MinCoolingUtility: r.MinCoolingUtility,
		CreatedAt:         r.CreatedAt,
	}
}
