package ws

import (
	"encoding/json"
	"testing"
)

func TestRequestFrameRoundTrip(t *testing.T) {
	orig, err := NewRequestFrame("req-1", MethodMoveTask, TaskParams{ID: "task_1", Day: "tomorrow"})
	if err != nil {
		t.Fatalf("NewRequestFrame: %v", err)
	}

	data, err := MarshalFrame(orig)
	if err != nil {
		t.Fatalf("MarshalFrame: %v", err)
	}
	got, err := UnmarshalFrame(data)
	if err != nil {
		t.Fatalf("UnmarshalFrame: %v", err)
	}

	if got.Type != FrameTypeRequest || got.ID != "req-1" || got.Method != string(MethodMoveTask) {
		t.Fatalf("unexpected frame %+v", got)
	}
	var p TaskParams
	if err := json.Unmarshal(got.Params, &p); err != nil {
		t.Fatalf("unmarshal params: %v", err)
	}
	if p.ID != "task_1" || p.Day != "tomorrow" {
		t.Fatalf("unexpected params %+v", p)
	}
}

func TestNewResponseFrame(t *testing.T) {
	f, err := NewResponseFrame("req-2", false, nil, "task not found")
	if err != nil {
		t.Fatalf("NewResponseFrame: %v", err)
	}
	if f.OK == nil || *f.OK {
		t.Fatal("expected ok=false")
	}
	if f.Payload != nil {
		t.Fatalf("expected no payload, got %s", f.Payload)
	}

	data, _ := MarshalFrame(f)
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if raw["ok"] != false {
		t.Fatalf("ok must be serialized even when false, got %v", raw["ok"])
	}
	if raw["error"] != "task not found" {
		t.Fatalf("error: got %v", raw["error"])
	}
}

func TestNewEventFrame(t *testing.T) {
	f, err := NewEventFrame("task.completed", map[string]string{"task_id": "task_1"})
	if err != nil {
		t.Fatalf("NewEventFrame: %v", err)
	}
	if f.Type != FrameTypeEvent || f.Event != "task.completed" {
		t.Fatalf("unexpected frame %+v", f)
	}
	if f.ID != "" || f.Method != "" || f.OK != nil {
		t.Fatalf("event frames carry no request fields: %+v", f)
	}
}

func TestUnmarshalFrameInvalid(t *testing.T) {
	if _, err := UnmarshalFrame([]byte("{not json")); err == nil {
		t.Fatal("expected error")
	}
}
