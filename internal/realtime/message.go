package realtime

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Event types delivered by the change feed.
const (
	EventInsert = "INSERT"
	EventUpdate = "UPDATE"
	EventDelete = "DELETE"
)

// ChangeEvent is one row-level change pushed by the backend.
type ChangeEvent struct {
	Table string
	Type  string
	New   json.RawMessage
	Old   json.RawMessage
}

// phoenix wire envelope; the realtime service speaks phoenix channels.
type frame struct {
	Topic   string          `json:"topic"`
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
	Ref     string          `json:"ref,omitempty"`
}

type joinPayload struct {
	Config      joinConfig `json:"config"`
	AccessToken string     `json:"access_token,omitempty"`
}

// tokenPayload refreshes channel authorization after join.
type tokenPayload struct {
	AccessToken string `json:"access_token"`
}

type joinConfig struct {
	PostgresChanges []postgresChange `json:"postgres_changes"`
}

type postgresChange struct {
	Event  string `json:"event"`
	Schema string `json:"schema"`
	Table  string `json:"table"`
	Filter string `json:"filter,omitempty"`
}

type changePayload struct {
	Data struct {
		Table  string          `json:"table"`
		Type   string          `json:"type"`
		Record json.RawMessage `json:"record"`
		Old    json.RawMessage `json:"old_record"`
	} `json:"data"`
}

type replyPayload struct {
	Status string `json:"status"`
}

func decodeChange(payload json.RawMessage) (ChangeEvent, error) {
	var body changePayload
	if err := json.Unmarshal(payload, &body); err != nil {
		return ChangeEvent{}, fmt.Errorf("realtime: decode change payload: %w", err)
	}
	event := ChangeEvent{
		Table: body.Data.Table,
		Type:  strings.ToUpper(strings.TrimSpace(body.Data.Type)),
		New:   body.Data.Record,
		Old:   body.Data.Old,
	}
	if event.Type == "" {
		return ChangeEvent{}, fmt.Errorf("realtime: change payload missing type")
	}
	return event, nil
}
