package responseformat

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/vmihailenco/msgpack/v5"
)

type payload struct {
	PinchTemperature float64 `json:"pinch_temperature"`
	Name             string  `json:"name"`
}

func TestWriteResponseJSON(t *testing.T) {
	f := NewFormatter()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/problems", nil)
	rec := httptest.NewRecorder()

	if err := f.WriteResponse(rec, req, payload{PinchTemperature: 229, Name: "a"}, map[string]string{"X-Test": "1"}); err != nil {
		t.Fatalf("WriteResponse failed: %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != ContentTypeJSON {
		t.Errorf("expected content type %s, got %s", ContentTypeJSON, ct)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("expected CORS header")
	}
	if rec.Header().Get("X-Test") != "1" {
		t.Error("expected custom header")
	}

	var got payload
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if got.PinchTemperature != 229 || got.Name != "a" {
		t.Errorf("unexpected payload %+v", got)
	}
}

func TestWriteResponseMsgPack(t *testing.T) {
	f := NewFormatter()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/problems?format=msgpack", nil)
	rec := httptest.NewRecorder()

	if err := f.WriteResponse(rec, req, payload{PinchTemperature: 120, Name: "b"}, nil); err != nil {
		t.Fatalf("WriteResponse failed: %v", err)
	}
	if ct := rec.Header().Get("Content-Type"); ct != ContentTypeMsgPack {
		t.Errorf("expected content type %s, got %s", ContentTypeMsgPack, ct)
	}

	// Keys follow the json tags
	var got map[string]any
	if err := msgpack.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("invalid MessagePack: %v", err)
	}
	if got["name"] != "b" {
		t.Errorf("expected name b, got %v", got["name"])
	}
	if _, ok := got["pinch_temperature"]; !ok {
		t.Errorf("expected pinch_temperature key, got %v", got)
	}
}

func TestWriteError(t *testing.T) {
	f := NewFormatter()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", nil)
	rec := httptest.NewRecorder()

	if err := f.WriteError(rec, req, http.StatusBadRequest, "invalid stream"); err != nil {
		t.Fatalf("WriteError failed: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rec.Code)
	}

	var body ErrorBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body.Error != "invalid stream" {
		t.Errorf("unexpected error body %+v", body)
	}
}
