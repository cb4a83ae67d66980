package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chrissnell/pinchpoint/internal/report"
	"github.com/chrissnell/pinchpoint/pkg/config"
	"github.com/chrissnell/pinchpoint/pkg/pinch"
)

const workedStreams = "H1=353:313:9.802,H2=347:246:2.931,H3=255:80:6.161,C1=224:340:7.179,C2=116:303:0.641,C3=53:113:7.627,C4=40:293:1.690"

func TestRunAdHocText(t *testing.T) {
	var out bytes.Buffer
	err := run(context.Background(), options{streams: workedStreams, format: "text"}, &out)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	for _, part := range []string{
		"Pinch temperature: 229 (hot 234, cold 224)",
		"Minimum heating utility: 182.52",
		"Minimum cooling utility: 110.99",
		"T:  348 -> 345 -> 342",
		"Q:  182.52 -> 211.93",
	} {
		if !strings.Contains(out.String(), part) {
			t.Errorf("output missing %q:\n%s", part, out.String())
		}
	}
}

func TestRunConfiguredProblemJSON(t *testing.T) {
	cfgFile := filepath.Join(t.TempDir(), "pinch.yaml")
	yaml := "problems:\n  - name: pair\n    dt_min: 20\n    streams:\n      - {initial: 150, final: 50, wcp: 2}\n      - {initial: 40, final: 120, wcp: 3}\n"
	if err := os.WriteFile(cfgFile, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	err := run(context.Background(), options{cfgFile: cfgFile, cfgBackend: "yaml", problem: "pair", format: "json"}, &out)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	var doc report.Document
	if err := json.Unmarshal(out.Bytes(), &doc); err != nil {
		t.Fatalf("invalid JSON output: %v", err)
	}
	if doc.Problem != "pair" || doc.DTMin != 20 {
		t.Errorf("unexpected document: %+v", doc)
	}
	// Shifted axis for dt 20: hot 140..40, cold 50..130
	if doc.PinchTemperature != 50 || doc.MinHeatingUtility != 60 || doc.MinCoolingUtility != 20 {
		t.Errorf("unexpected targets: pinch %v heating %v cooling %v", doc.PinchTemperature, doc.MinHeatingUtility, doc.MinCoolingUtility)
	}
}

func TestRunDTMinOverride(t *testing.T) {
	var out bytes.Buffer
	err := run(context.Background(), options{streams: "150:50:2,40:120:3", dtMin: 20, format: "json"}, &out)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	var doc report.Document
	if err := json.Unmarshal(out.Bytes(), &doc); err != nil {
		t.Fatalf("invalid JSON output: %v", err)
	}
	if doc.DTMin != 20 {
		t.Errorf("expected dt_min 20, got %v", doc.DTMin)
	}
}

func TestRunErrors(t *testing.T) {
	tests := []struct {
		name   string
		opts   options
		target error
	}{
		{"no problem", options{format: "text"}, nil},
		{"bad format", options{streams: workedStreams, format: "xml"}, nil},
		{"problem without config", options{problem: "x", format: "text"}, nil},
		{"bad streams", options{streams: "1:2", format: "text"}, nil},
		{"invalid stream", options{streams: "100:100:1,50:80:1", format: "text"}, pinch.ErrInvalidStream},
		{"invalid approach", options{streams: workedStreams, dtMin: -1, format: "text"}, pinch.ErrInvalidApproach},
		{"save without archive", options{streams: workedStreams, save: true, format: "text"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := run(context.Background(), tt.opts, &bytes.Buffer{})
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.target != nil && !errors.Is(err, tt.target) {
				t.Errorf("expected %v, got %v", tt.target, err)
			}
		})
	}
}

func TestRunUnknownProblem(t *testing.T) {
	cfgFile := filepath.Join(t.TempDir(), "pinch.yaml")
	if err := os.WriteFile(cfgFile, []byte("analysis:\n  dt_min: 10\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	err := run(context.Background(), options{cfgFile: cfgFile, cfgBackend: "yaml", problem: "missing", format: "text"}, &bytes.Buffer{})
	if !errors.Is(err, config.ErrProblemNotFound) {
		t.Errorf("expected ErrProblemNotFound, got %v", err)
	}
}
