package main

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"
)

var exportRows = []map[string]any{
	{"problem": "pair", "pinch_temperature": 45.0, "created_at": time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)},
	{"problem": "tight", "pinch_temperature": 120.0, "created_at": nil},
}

func TestCSVRecordWriter(t *testing.T) {
	var buf bytes.Buffer
	w := newRecordWriter("csv", &buf)

	if err := w.Begin([]string{"problem", "pinch_temperature", "created_at"}); err != nil {
		t.Fatal(err)
	}
	for _, row := range exportRows {
		if err := w.Write(row); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.End(); err != nil {
		t.Fatal(err)
	}

	want := "problem,pinch_temperature,created_at\npair,45,2026-01-02T03:04:05Z\ntight,120,\n"
	if buf.String() != want {
		t.Errorf("expected\n%q\ngot\n%q", want, buf.String())
	}
}

func TestJSONRecordWriter(t *testing.T) {
	var buf bytes.Buffer
	w := newRecordWriter("json", &buf)

	if err := w.Begin(nil); err != nil {
		t.Fatal(err)
	}
	for _, row := range exportRows {
		if err := w.Write(row); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.End(); err != nil {
		t.Fatal(err)
	}

	var got []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON %q: %v", buf.String(), err)
	}
	if len(got) != 2 || got[0]["problem"] != "pair" || got[1]["pinch_temperature"] != 120.0 {
		t.Errorf("unexpected records: %v", got)
	}
}

func TestJSONRecordWriterEmpty(t *testing.T) {
	var buf bytes.Buffer
	w := newRecordWriter("json", &buf)
	if err := w.Begin(nil); err != nil {
		t.Fatal(err)
	}
	if err := w.End(); err != nil {
		t.Fatal(err)
	}

	var got []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil || len(got) != 0 {
		t.Errorf("expected an empty array, got %q (%v)", buf.String(), err)
	}
}

func TestFormatCSVValue(t *testing.T) {
	id := [16]byte{0x12, 0x34, 0x56, 0x78, 0x9a, 0xbc, 0xde, 0xf0, 0x01, 0x23, 0x45, 0x67, 0x89, 0xab, 0xcd, 0xef}
	if got := formatCSVValue(id); got != "12345678-9abc-def0-0123-456789abcdef" {
		t.Errorf("unexpected UUID formatting %q", got)
	}
}
