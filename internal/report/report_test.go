package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/chrissnell/pinchpoint/pkg/pinch"
)

// pairNetwork is one hot and one cold stream with a pinch at the cold end.
func pairNetwork(t *testing.T) ([]*pinch.Stream, *pinch.Result) {
	t.Helper()
	hot, err := pinch.NewNamedStream("H1", 150, 50, 2)
	if err != nil {
		t.Fatal(err)
	}
	cold, err := pinch.NewStream(40, 120, 3)
	if err != nil {
		t.Fatal(err)
	}
	streams := []*pinch.Stream{hot, cold}

	res, err := pinch.Analyze(streams, 10)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	return streams, res
}

func TestWriteCascade(t *testing.T) {
	_, res := pairNetwork(t)

	var buf bytes.Buffer
	if err := WriteCascade(&buf, res); err != nil {
		t.Fatalf("WriteCascade failed: %v", err)
	}

	want := "T:  145 -> 125 -> 45\nQ:  40 -> 80 -> 0\n"
	if buf.String() != want {
		t.Errorf("expected\n%q\ngot\n%q", want, buf.String())
	}
}

func TestWriteSummary(t *testing.T) {
	_, res := pairNetwork(t)

	var buf bytes.Buffer
	if err := WriteSummary(&buf, res); err != nil {
		t.Fatalf("WriteSummary failed: %v", err)
	}

	want := "Pinch temperature: 45 (hot 50, cold 40)\nMinimum heating utility: 40\nMinimum cooling utility: 0\n"
	if buf.String() != want {
		t.Errorf("expected\n%q\ngot\n%q", want, buf.String())
	}
}

func TestWriteStreams(t *testing.T) {
	streams, _ := pairNetwork(t)

	var buf bytes.Buffer
	if err := WriteStreams(&buf, streams); err != nil {
		t.Fatalf("WriteStreams failed: %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header and 2 rows, got %d lines:\n%s", len(lines), buf.String())
	}
	for _, field := range []string{"H1", "hot", "50", "200"} {
		if !strings.Contains(lines[1], field) {
			t.Errorf("hot row %q missing %q", lines[1], field)
		}
	}
	for _, field := range []string{"S2", "cold", "240"} {
		if !strings.Contains(lines[2], field) {
			t.Errorf("cold row %q missing %q", lines[2], field)
		}
	}
}

func TestWriteText(t *testing.T) {
	streams, res := pairNetwork(t)

	var buf bytes.Buffer
	if err := WriteText(&buf, "pair", streams, res); err != nil {
		t.Fatalf("WriteText failed: %v", err)
	}
	out := buf.String()
	for _, part := range []string{"Problem: pair (dt_min 10)", "Minimum heating utility: 40", "T:  145 -> 125 -> 45"} {
		if !strings.Contains(out, part) {
			t.Errorf("report missing %q:\n%s", part, out)
		}
	}
}

func TestNewDocument(t *testing.T) {
	streams, res := pairNetwork(t)

	doc, err := NewDocument("pair", streams, res)
	if err != nil {
		t.Fatalf("NewDocument failed: %v", err)
	}

	if doc.Problem != "pair" || doc.PinchTemperature != 45 || doc.MinHeatingUtility != 40 {
		t.Errorf("unexpected targets: %+v", doc)
	}
	if len(doc.Streams) != 2 {
		t.Fatalf("expected 2 streams, got %d", len(doc.Streams))
	}
	if doc.Streams[0].Kind != "hot" || doc.Streams[0].LoadAbovePinch != 200 {
		t.Errorf("unexpected hot stream: %+v", doc.Streams[0])
	}
	if doc.Streams[1].Name != "S2" || doc.Streams[1].LoadAbovePinch != 240 {
		t.Errorf("unexpected cold stream: %+v", doc.Streams[1])
	}
	if len(doc.HotComposite) == 0 || len(doc.ColdComposite) == 0 {
		t.Error("expected composite curves")
	}

	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if !strings.Contains(string(data), `"min_cooling_utility":0`) {
		t.Errorf("unexpected JSON: %s", data)
	}
}
