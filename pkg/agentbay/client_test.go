package agentbay

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentbay/agentbay-go/internal/wire"
)

// setupCreateHandlers registers the minimal handler set Create needs: a
// context allocation, the create RPC, and an empty sync barrier.
func setupCreateHandlers(f *fakeAPI) {
	f.respond("GetContext", map[string]any{"id": "ctx-ft"})
	f.respond("ListContexts", map[string]any{"contexts": []any{}})
	f.respond("CreateMcpSession", map[string]any{
		"sessionId":   "s-1",
		"resourceUrl": "wss://resource/s-1",
	})
	f.respond("GetContextInfo", map[string]any{"contextStatus": ""})
}

func TestCreateMountsFileTransferContext(t *testing.T) {
	f := newFakeAPI(t)
	setupCreateHandlers(f)

	c := newTestClient(t, f)

	result, err := c.Create(context.Background(), nil)
	require.NoError(t, err)
	require.True(t, result.Success)
	require.NotNil(t, result.Session)

	assert.Equal(t, "s-1", result.Session.SessionID)
	assert.Equal(t, "wss://resource/s-1", result.Session.ResourceURL)
	assert.Equal(t, "ctx-ft", result.Session.FileTransferContextID)

	// The implicit context must appear in the persistence list.
	body := f.lastBody("CreateMcpSession")
	mounts, ok := body["persistenceDataList"].([]any)
	require.True(t, ok)
	require.Len(t, mounts, 1)

	mount := mounts[0].(map[string]any)
	assert.Equal(t, "ctx-ft", mount["contextId"])
	assert.Equal(t, FileTransferPath, mount["path"])

	// The sync barrier polled at least once.
	assert.GreaterOrEqual(t, f.count("GetContextInfo"), 1)

	// Created sessions register in the client map.
	assert.Same(t, result.Session, c.Session("s-1"))
}

func TestCreateSurvivesContextAllocationFailure(t *testing.T) {
	f := newFakeAPI(t)
	setupCreateHandlers(f)
	f.fail("GetContext", "InternalError", "context backend down")

	c := newTestClient(t, f)

	result, err := c.Create(context.Background(), nil)
	require.NoError(t, err)
	require.True(t, result.Success)

	// No mount and no barrier when allocation failed.
	assert.Empty(t, result.Session.FileTransferContextID)

	body := f.lastBody("CreateMcpSession")
	assert.Nil(t, body["persistenceDataList"])
	assert.Zero(t, f.count("GetContextInfo"))
}

func TestCreateAPIFailure(t *testing.T) {
	f := newFakeAPI(t)
	setupCreateHandlers(f)
	f.fail("CreateMcpSession", "InvalidParameter", "imageId is malformed")

	c := newTestClient(t, f)

	result, err := c.Create(context.Background(), &CreateSessionParams{ImageID: "???"})
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Equal(t, "[InvalidParameter] imageId is malformed", result.ErrorMessage)
	assert.Nil(t, result.Session)
	assert.Empty(t, c.Sessions())
}

func TestCreateBrowserContextMount(t *testing.T) {
	f := newFakeAPI(t)
	setupCreateHandlers(f)

	c := newTestClient(t, f)

	params := NewCreateSessionParams()
	params.BrowserContext = NewBrowserContext("ctx-browser")

	result, err := c.Create(context.Background(), params)
	require.NoError(t, err)
	require.True(t, result.Success)

	body := f.lastBody("CreateMcpSession")
	mounts := body["persistenceDataList"].([]any)
	require.Len(t, mounts, 2)

	browserMount := mounts[1].(map[string]any)
	assert.Equal(t, "ctx-browser", browserMount["contextId"])
	assert.Equal(t, BrowserDataPath, browserMount["path"])
	assert.Contains(t, browserMount["policy"], "/Default/Cookies")
}

func TestCreateBrowserContextRequiresID(t *testing.T) {
	f := newFakeAPI(t)
	setupCreateHandlers(f)

	c := newTestClient(t, f)

	params := NewCreateSessionParams()
	params.BrowserContext = &BrowserContext{}

	result, err := c.Create(context.Background(), params)
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Contains(t, result.ErrorMessage, "contextId is required")
	assert.Zero(t, f.count("CreateMcpSession"))
}

func TestCreateVPCPrefetchesTools(t *testing.T) {
	f := newFakeAPI(t)
	setupCreateHandlers(f)
	f.respond("CreateMcpSession", map[string]any{
		"sessionId":          "s-vpc",
		"resourceUrl":        "wss://resource/s-vpc",
		"networkInterfaceIp": "10.0.0.8",
		"httpPort":           "8080",
		"token":              "vpc-token",
	})
	f.respond("ListMcpTools",
		`[{"name":"shell","server":"command-server","tool":"shell"}]`)

	c := newTestClient(t, f)

	result, err := c.Create(context.Background(), &CreateSessionParams{IsVpc: true, ImageID: "linux_latest"})
	require.NoError(t, err)
	require.True(t, result.Success)

	s := result.Session
	assert.True(t, s.IsVpc)
	assert.Equal(t, "10.0.0.8", s.NetworkInterfaceIP)
	assert.Equal(t, "8080", s.HTTPPort)

	require.Len(t, s.Tools(), 1)
	assert.Equal(t, "command-server", s.Tools()[0].Server)

	assert.Equal(t, "linux_latest", f.lastBody("ListMcpTools")["imageId"])
}

func TestGetHydratesCallerOwnedSession(t *testing.T) {
	f := newFakeAPI(t)
	f.respond("GetSession", map[string]any{
		"sessionId":   "s-9",
		"resourceUrl": "wss://resource/s-9",
		"status":      "RUNNING",
	})

	c := newTestClient(t, f)

	result, err := c.Get(context.Background(), "s-9")
	require.NoError(t, err)
	require.True(t, result.Success)

	assert.Equal(t, "s-9", result.Session.SessionID)
	assert.Equal(t, "s-9", f.lastBody("GetSession")["sessionId"])

	// Fetched sessions are caller-owned, not registered.
	assert.Nil(t, c.Session("s-9"))
}

func TestGetReleasedSession(t *testing.T) {
	f := newFakeAPI(t)
	f.fail("GetSession", wire.CodeSessionNotFound, "session not found")

	c := newTestClient(t, f)

	result, err := c.Get(context.Background(), "s-gone")
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Equal(t, "[InvalidMcpSession.NotFound] session not found", result.ErrorMessage)
}

func TestGetRequiresSessionID(t *testing.T) {
	c := newTestClient(t, newFakeAPI(t))

	_, err := c.Get(context.Background(), "")
	require.Error(t, err)
}

func TestListRejectsPageBelowOne(t *testing.T) {
	f := newFakeAPI(t)
	c := newTestClient(t, f)

	for _, page := range []int{0, -1} {
		result, err := c.List(context.Background(), nil, page, 10)
		require.NoError(t, err)

		assert.False(t, result.Success)
		assert.Equal(t, "Page number must be >= 1", result.ErrorMessage)
	}

	// Validation happens before any RPC.
	assert.Zero(t, f.count("ListSession"))
}

func TestListForwardPaging(t *testing.T) {
	f := newFakeAPI(t)

	pages := map[string]map[string]any{
		"": {
			"data":      []any{map[string]any{"sessionId": "s-1"}},
			"nextToken": "t-2",
		},
		"t-2": {
			"data":      []any{map[string]any{"sessionId": "s-2"}},
			"nextToken": "t-3",
		},
		"t-3": {
			"data":       []any{map[string]any{"sessionId": "s-3"}},
			"nextToken":  "",
			"totalCount": 3,
		},
	}

	f.handle("ListSession", func(w http.ResponseWriter, r *http.Request) {
		body := f.lastBody("ListSession")
		token, _ := body["nextToken"].(string)
		writeOK(t, w, pages[token])
	})

	c := newTestClient(t, f)

	result, err := c.List(context.Background(), map[string]string{"env": "dev"}, 3, 1)
	require.NoError(t, err)
	require.True(t, result.Success)

	assert.Equal(t, []string{"s-3"}, result.SessionIDs)
	assert.Equal(t, 3, f.count("ListSession"))
}

func TestListPageBeyondEnd(t *testing.T) {
	f := newFakeAPI(t)
	f.respond("ListSession", map[string]any{
		"data":      []any{map[string]any{"sessionId": "s-1"}},
		"nextToken": "",
	})

	c := newTestClient(t, f)

	result, err := c.List(context.Background(), nil, 3, 10)
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Contains(t, result.ErrorMessage, "Cannot reach page 3")
}

func TestDeleteWithSyncFlushesAllContexts(t *testing.T) {
	f := newFakeAPI(t)
	setupCreateHandlers(f)
	f.respond("SyncContext", nil)
	f.respond("ReleaseMcpSession", nil)

	c := newTestClient(t, f)

	created, err := c.Create(context.Background(), nil)
	require.NoError(t, err)
	session := created.Session

	result, err := c.Delete(context.Background(), session, true)
	require.NoError(t, err)
	require.True(t, result.Success)

	syncBody := f.lastBody("SyncContext")
	require.NotNil(t, syncBody)
	assert.Equal(t, TaskTypeUpload, syncBody["mode"])
	assert.Nil(t, syncBody["contextId"])

	assert.Equal(t, 1, f.count("ReleaseMcpSession"))
	assert.Nil(t, c.Session("s-1"))

	// Operations on the released session fail locally.
	_, err = session.GetLabels(context.Background())
	assert.ErrorIs(t, err, ErrSessionDeleted)
}

func TestDeleteWithoutSyncSkipsFlush(t *testing.T) {
	f := newFakeAPI(t)
	setupCreateHandlers(f)
	f.respond("ReleaseMcpSession", nil)

	c := newTestClient(t, f)

	created, err := c.Create(context.Background(), nil)
	require.NoError(t, err)

	_, err = c.Delete(context.Background(), created.Session, false)
	require.NoError(t, err)

	assert.Zero(t, f.count("SyncContext"))
}

func TestDeleteBrowserReplayFlushesRecordingContext(t *testing.T) {
	f := newFakeAPI(t)
	f.respond("SyncContext", nil)
	f.respond("GetContextInfo", map[string]any{"contextStatus": ""})
	f.respond("ReleaseMcpSession", nil)

	c := newTestClient(t, f)

	session := newTestSession(t, f)
	session.EnableBrowserReplay = true
	session.RecordContextID = "ctx-record"

	result, err := c.Delete(context.Background(), session, false)
	require.NoError(t, err)
	require.True(t, result.Success)

	syncBody := f.lastBody("SyncContext")
	require.NotNil(t, syncBody)
	assert.Equal(t, "ctx-record", syncBody["contextId"])
	assert.Equal(t, TaskTypeUpload, syncBody["mode"])
}

func TestDeleteRemovesSessionEvenOnAPIFailure(t *testing.T) {
	f := newFakeAPI(t)
	setupCreateHandlers(f)
	f.fail("ReleaseMcpSession", "InternalError", "backend unavailable")

	c := newTestClient(t, f)

	created, err := c.Create(context.Background(), nil)
	require.NoError(t, err)

	result, err := c.Delete(context.Background(), created.Session, false)
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Nil(t, c.Session("s-1"))
}

func TestConcurrentCreateAndDelete(t *testing.T) {
	f := newFakeAPI(t)
	f.respond("GetContext", map[string]any{"id": "ctx-ft"})
	f.respond("ListContexts", map[string]any{"contexts": []any{}})
	f.respond("GetContextInfo", map[string]any{"contextStatus": ""})
	f.respond("ReleaseMcpSession", nil)

	var nextID atomic.Int32

	f.handle("CreateMcpSession", func(w http.ResponseWriter, _ *http.Request) {
		writeOK(f.t, w, map[string]any{
			"sessionId": fmt.Sprintf("s-%d", nextID.Add(1)),
		})
	})

	c := newTestClient(t, f)

	const workers = 8

	kept := make([]*Session, workers)

	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		i := i

		wg.Add(1)

		go func() {
			defer wg.Done()

			created, err := c.Create(context.Background(), nil)
			if !assert.NoError(t, err) || !assert.True(t, created.Success) {
				return
			}

			// Even workers delete their session right away; odd workers
			// keep theirs registered.
			if i%2 == 0 {
				_, err := c.Delete(context.Background(), created.Session, false)
				assert.NoError(t, err)

				return
			}

			kept[i] = created.Session
		}()
	}

	wg.Wait()

	// No lost updates: exactly the kept sessions remain registered.
	assert.Len(t, c.Sessions(), workers/2)

	for i, session := range kept {
		if i%2 == 0 {
			continue
		}

		require.NotNil(t, session)
		assert.Same(t, session, c.Session(session.SessionID))
	}
}

func TestPauseAsyncReachesPaused(t *testing.T) {
	f := newFakeAPI(t)
	f.respond("PauseSessionAsync", nil)

	states := []string{StateRunning, StatePausing, StatePaused}

	var polls atomic.Int32

	f.handle("GetSession", func(w http.ResponseWriter, _ *http.Request) {
		i := int(polls.Add(1)) - 1
		if i >= len(states) {
			i = len(states) - 1
		}

		writeOK(t, w, map[string]any{"sessionId": "s-1", "status": states[i]})
	})

	c := newTestClient(t, f)
	session := newTestSession(t, f)

	result, err := c.PauseAsync(context.Background(), session, time.Second, time.Millisecond)
	require.NoError(t, err)
	require.True(t, result.Success)

	assert.Equal(t, StatePaused, result.State)
	assert.GreaterOrEqual(t, result.ElapsedMs, int64(0))
	assert.GreaterOrEqual(t, f.count("GetSession"), 3)
}

func TestResumeAsyncReachesRunning(t *testing.T) {
	f := newFakeAPI(t)
	f.respond("ResumeSessionAsync", nil)

	states := []string{StatePaused, StateResuming, StateRunning}

	var polls atomic.Int32

	f.handle("GetSession", func(w http.ResponseWriter, _ *http.Request) {
		i := int(polls.Add(1)) - 1
		if i >= len(states) {
			i = len(states) - 1
		}

		writeOK(t, w, map[string]any{"sessionId": "s-1", "status": states[i]})
	})

	c := newTestClient(t, f)
	session := newTestSession(t, f)

	result, err := c.ResumeAsync(context.Background(), session, time.Second, time.Millisecond)
	require.NoError(t, err)
	require.True(t, result.Success)
	assert.Equal(t, StateRunning, result.State)
}

func TestPauseAsyncTimesOut(t *testing.T) {
	f := newFakeAPI(t)
	f.respond("PauseSessionAsync", nil)
	f.respond("GetSession", map[string]any{"sessionId": "s-1", "status": StatePausing})

	c := newTestClient(t, f)
	session := newTestSession(t, f)

	result, err := c.PauseAsync(context.Background(), session, 50*time.Millisecond, time.Millisecond)
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Contains(t, result.ErrorMessage, "did not reach PAUSED")
	assert.GreaterOrEqual(t, result.ElapsedMs, int64(50))
}

func TestPauseAsyncSessionVanishes(t *testing.T) {
	f := newFakeAPI(t)
	f.respond("PauseSessionAsync", nil)
	f.fail("GetSession", wire.CodeSessionNotFound, "session not found")

	c := newTestClient(t, f)
	session := newTestSession(t, f)

	result, err := c.PauseAsync(context.Background(), session, time.Second, time.Millisecond)
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Contains(t, result.ErrorMessage, "no longer exists")
}
