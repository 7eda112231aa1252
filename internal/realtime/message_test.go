package realtime

import (
	"encoding/json"
	"testing"
)

func TestDecodeChange(t *testing.T) {
	payload := json.RawMessage(`{
		"data": {
			"table": "video_clips",
			"type": "update",
			"record": {"id": "c1", "status": "completed"},
			"old_record": {"id": "c1", "status": "generating"}
		}
	}`)
	event, err := decodeChange(payload)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if event.Table != "video_clips" {
		t.Fatalf("table = %q", event.Table)
	}
	if event.Type != EventUpdate {
		t.Fatalf("type should normalize to %q, got %q", EventUpdate, event.Type)
	}
	var record struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal(event.New, &record); err != nil {
		t.Fatalf("decode record: %v", err)
	}
	if record.ID != "c1" || record.Status != "completed" {
		t.Fatalf("unexpected record %+v", record)
	}
	if len(event.Old) == 0 {
		t.Fatal("old record should carry through")
	}
}

func TestDecodeChangeRejectsMissingType(t *testing.T) {
	if _, err := decodeChange(json.RawMessage(`{"data":{"table":"movie_projects"}}`)); err == nil {
		t.Fatal("missing type must error")
	}
}

func TestDecodeChangeRejectsMalformedPayload(t *testing.T) {
	if _, err := decodeChange(json.RawMessage(`not json`)); err == nil {
		t.Fatal("malformed payload must error")
	}
}
