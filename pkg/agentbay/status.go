package agentbay

import (
	"encoding/json"
	"fmt"
)

// Context sync task statuses reported by the server. Success and Failed
// are terminal; anything else means the task is still running.
const (
	StatusInProgress = "InProgress"
	StatusSuccess    = "Success"
	StatusFailed     = "Failed"
)

// Sync task types. Only upload and download participate in sync-completion
// polling; other task types (initial mounts) are ignored by that filter.
const (
	TaskTypeUpload   = "upload"
	TaskTypeDownload = "download"
)

// ContextStatusItem is one context sync task as reported by GetContextInfo.
type ContextStatusItem struct {
	ContextID    string `json:"contextId"`
	Path         string `json:"path"`
	Status       string `json:"status"`
	ErrorMessage string `json:"errorMessage"`
	StartTime    int64  `json:"startTime"`
	FinishTime   int64  `json:"finishTime"`
	TaskType     string `json:"taskType"`
}

// Terminal reports whether the item has reached a terminal status.
func (i ContextStatusItem) Terminal() bool {
	return i.Status == StatusSuccess || i.Status == StatusFailed
}

// statusEnvelope is the outer element of the contextStatus wire shape.
// Only type=="data" envelopes carry items; their data field is itself a
// JSON-encoded array that needs a second parse.
type statusEnvelope struct {
	Type string `json:"type"`
	Data string `json:"data"`
}

// ParseContextStatus decodes the JSON-in-JSON contextStatus field: an outer
// array of typed envelopes whose data payloads are JSON strings encoding
// inner item arrays. Items from all data envelopes are concatenated in
// order. An empty input yields an empty slice.
func ParseContextStatus(raw string) ([]ContextStatusItem, error) {
	if raw == "" {
		return nil, nil
	}

	var envelopes []statusEnvelope
	if err := json.Unmarshal([]byte(raw), &envelopes); err != nil {
		return nil, fmt.Errorf("parsing context status envelopes: %w", err)
	}

	var items []ContextStatusItem

	for _, env := range envelopes {
		if env.Type != "data" {
			continue
		}

		var inner []ContextStatusItem
		if err := json.Unmarshal([]byte(env.Data), &inner); err != nil {
			return nil, fmt.Errorf("parsing context status items: %w", err)
		}

		items = append(items, inner...)
	}

	return items, nil
}

// EncodeContextStatus re-encodes items into the wire shape. Primarily used
// by tests to verify the two-stage parse round-trips.
func EncodeContextStatus(items []ContextStatusItem) (string, error) {
	inner, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("encoding context status items: %w", err)
	}

	outer, err := json.Marshal([]statusEnvelope{{Type: "data", Data: string(inner)}})
	if err != nil {
		return "", fmt.Errorf("encoding context status envelopes: %w", err)
	}

	return string(outer), nil
}
