package agentbay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseContextStatusEmpty(t *testing.T) {
	items, err := ParseContextStatus("")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestParseContextStatusTwoStage(t *testing.T) {
	raw := `[{"type":"data","data":"[{\"contextId\":\"ctx-1\",\"path\":\"/data\",\"status\":\"Success\",\"taskType\":\"upload\"}]"}]`

	items, err := ParseContextStatus(raw)
	require.NoError(t, err)
	require.Len(t, items, 1)

	assert.Equal(t, "ctx-1", items[0].ContextID)
	assert.Equal(t, "/data", items[0].Path)
	assert.Equal(t, StatusSuccess, items[0].Status)
	assert.Equal(t, TaskTypeUpload, items[0].TaskType)
}

func TestParseContextStatusIgnoresNonDataEnvelopes(t *testing.T) {
	raw := `[` +
		`{"type":"log","data":"not item json"},` +
		`{"type":"data","data":"[{\"contextId\":\"ctx-1\",\"status\":\"Failed\"}]"},` +
		`{"type":"data","data":"[{\"contextId\":\"ctx-2\",\"status\":\"InProgress\"}]"}` +
		`]`

	items, err := ParseContextStatus(raw)
	require.NoError(t, err)
	require.Len(t, items, 2)

	// Order is preserved across envelopes.
	assert.Equal(t, "ctx-1", items[0].ContextID)
	assert.Equal(t, "ctx-2", items[1].ContextID)
}

func TestParseContextStatusMalformed(t *testing.T) {
	_, err := ParseContextStatus("{not json")
	require.Error(t, err)

	// Well-formed outer array with a malformed inner payload.
	_, err = ParseContextStatus(`[{"type":"data","data":"{broken"}]`)
	require.Error(t, err)
}

func TestContextStatusRoundTrip(t *testing.T) {
	items := []ContextStatusItem{
		{ContextID: "ctx-1", Path: "/data", Status: StatusSuccess, TaskType: TaskTypeUpload, StartTime: 100, FinishTime: 200},
		{ContextID: "ctx-2", Path: "/other", Status: StatusFailed, ErrorMessage: "boom", TaskType: TaskTypeDownload},
	}

	raw, err := EncodeContextStatus(items)
	require.NoError(t, err)

	decoded, err := ParseContextStatus(raw)
	require.NoError(t, err)
	assert.Equal(t, items, decoded)
}

func TestTerminalStatuses(t *testing.T) {
	assert.True(t, ContextStatusItem{Status: StatusSuccess}.Terminal())
	assert.True(t, ContextStatusItem{Status: StatusFailed}.Terminal())
	assert.False(t, ContextStatusItem{Status: StatusInProgress}.Terminal())
	assert.False(t, ContextStatusItem{Status: "Queued"}.Terminal())
}
