package agentbay

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/agentbay/agentbay-go/internal/wire"
)

// fakeAPI is an httptest stand-in for the managed API. Handlers are
// registered per action; every call is recorded with its decoded body.
type fakeAPI struct {
	t      *testing.T
	server *httptest.Server

	mu       sync.Mutex
	handlers map[string]http.HandlerFunc
	calls    []apiCall
}

type apiCall struct {
	Action string
	Body   map[string]any
}

func newFakeAPI(t *testing.T) *fakeAPI {
	t.Helper()

	f := &fakeAPI{t: t, handlers: map[string]http.HandlerFunc{}}

	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		action := strings.TrimPrefix(r.URL.Path, "/api/v1/")

		body := map[string]any{}
		raw, _ := io.ReadAll(r.Body)
		if len(raw) > 0 {
			_ = json.Unmarshal(raw, &body)
		}

		f.mu.Lock()
		f.calls = append(f.calls, apiCall{Action: action, Body: body})
		handler := f.handlers[action]
		f.mu.Unlock()

		if handler == nil {
			t.Errorf("unexpected API action %q", action)
			http.Error(w, "no handler", http.StatusInternalServerError)

			return
		}

		handler(w, r)
	}))

	t.Cleanup(f.server.Close)

	return f
}

func (f *fakeAPI) handle(action string, h http.HandlerFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.handlers[action] = h
}

// respond registers a handler that always succeeds with data.
func (f *fakeAPI) respond(action string, data any) {
	f.handle(action, func(w http.ResponseWriter, _ *http.Request) {
		writeOK(f.t, w, data)
	})
}

// fail registers a handler that always returns an API-level failure.
func (f *fakeAPI) fail(action, code, message string) {
	f.handle(action, func(w http.ResponseWriter, _ *http.Request) {
		writeFailure(f.t, w, code, message)
	})
}

// count returns how many times action was called.
func (f *fakeAPI) count(action string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := 0

	for _, c := range f.calls {
		if c.Action == action {
			n++
		}
	}

	return n
}

// lastBody returns the most recent decoded request body for action.
func (f *fakeAPI) lastBody(action string) map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i := len(f.calls) - 1; i >= 0; i-- {
		if f.calls[i].Action == action {
			return f.calls[i].Body
		}
	}

	return nil
}

func writeOK(t *testing.T, w http.ResponseWriter, data any) {
	t.Helper()

	env := map[string]any{
		"requestId": "req-test",
		"success":   true,
	}

	if data != nil {
		env["data"] = data
	}

	require.NoError(t, json.NewEncoder(w).Encode(env))
}

func writeFailure(t *testing.T, w http.ResponseWriter, code, message string) {
	t.Helper()

	require.NoError(t, json.NewEncoder(w).Encode(map[string]any{
		"requestId": "req-test",
		"success":   false,
		"code":      code,
		"message":   message,
	}))
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()

	raw, err := json.Marshal(v)
	require.NoError(t, err)

	return string(raw)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// noSleep replaces polling waits in tests.
func noSleep(ctx context.Context, _ time.Duration) error {
	return ctx.Err()
}

// newTestClient wires a Client directly against the fake API, bypassing
// config resolution.
func newTestClient(t *testing.T, f *fakeAPI) *Client {
	t.Helper()

	logger := testLogger()
	api := wire.NewClient(f.server.URL, "test-key", f.server.Client(), logger)

	c := &Client{
		api:        api,
		httpClient: f.server.Client(),
		logger:     logger,
		sessions:   map[string]*Session{},
		sleepFunc:  noSleep,
	}

	c.ContextService = newContextService(api, logger)
	c.Network = newNetworkService(api, logger)
	c.Volume = newVolumeService(api, logger)

	return c
}

// newTestSession builds a Session against the fake API without the create
// round-trip. Polling sleeps are disabled.
func newTestSession(t *testing.T, f *fakeAPI) *Session {
	t.Helper()

	logger := testLogger()
	api := wire.NewClient(f.server.URL, "test-key", f.server.Client(), logger)

	s := newSession("session-test", api, newContextService(api, logger), f.server.Client(), logger)
	s.Context.sleepFunc = noSleep
	s.FileTransfer.sleepFunc = noSleep

	return s
}
