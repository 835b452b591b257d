package wire

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, url string) *Client {
	t.Helper()

	return NewClient(url, "test-key", http.DefaultClient, nil)
}

func TestInvoke_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "/api/v1/GetSession", r.URL.Path)

		var req GetSessionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "session-abc123", req.SessionID)

		_, _ = w.Write([]byte(`{
			"requestId": "req-1",
			"success": true,
			"data": {"sessionId": "session-abc123", "status": "RUNNING"}
		}`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)

	var data GetSessionData
	reqID, err := client.Invoke(context.Background(), "GetSession",
		&GetSessionRequest{SessionID: "session-abc123"}, &data)
	require.NoError(t, err)
	assert.Equal(t, "req-1", reqID)
	assert.Equal(t, "session-abc123", data.SessionID)
	assert.Equal(t, "RUNNING", data.Status)
}

func TestInvoke_APIFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{
			"requestId": "req-2",
			"success": false,
			"code": "InvalidParameter",
			"message": "imageId is malformed"
		}`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)

	reqID, err := client.Invoke(context.Background(), "CreateMcpSession",
		&CreateMcpSessionRequest{}, nil)
	require.Error(t, err)
	assert.Equal(t, "req-2", reqID)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "InvalidParameter", apiErr.Code)
	assert.Equal(t, "[InvalidParameter] imageId is malformed", apiErr.Error())
	assert.ErrorIs(t, err, ErrAPIFailure)
}

func TestInvoke_SessionNotFoundSentinel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{
			"requestId": "req-3",
			"success": false,
			"code": "InvalidMcpSession.NotFound",
			"message": "session has been released"
		}`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)

	_, err := client.Invoke(context.Background(), "GetSession",
		&GetSessionRequest{SessionID: "session-gone"}, nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInvoke_HTTPError(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		sentinel error
	}{
		{"unauthorized", http.StatusUnauthorized, ErrUnauthorized},
		{"forbidden", http.StatusForbidden, ErrUnauthorized},
		{"not found", http.StatusNotFound, ErrNotFound},
		{"unavailable", http.StatusServiceUnavailable, ErrServiceUnavailable},
		{"internal", http.StatusInternalServerError, ErrServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			client := newTestClient(t, srv.URL)

			_, err := client.Invoke(context.Background(), "GetSession", &GetSessionRequest{}, nil)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.sentinel)
		})
	}
}

func TestInvoke_TransportError(t *testing.T) {
	client := newTestClient(t, "http://127.0.0.1:1")

	_, err := client.Invoke(context.Background(), "GetSession", &GetSessionRequest{}, nil)
	require.Error(t, err)

	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr), "transport errors must not be APIErrors")
}

func TestInvokeBeta_RetriesOn503(t *testing.T) {
	var calls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}

		_, _ = w.Write([]byte(`{"requestId": "req-4", "success": true, "data": {"token": "tok"}}`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)

	var data GetNetworkTokenData
	reqID, err := client.InvokeBeta(context.Background(), "GetNetworkToken",
		&GetNetworkTokenRequest{SessionID: "session-x"}, &data)
	require.NoError(t, err)
	assert.Equal(t, "req-4", reqID)
	assert.Equal(t, "tok", data.Token)
	assert.Equal(t, int32(3), calls.Load())
}

func TestInvokeBeta_ExhaustsRetries(t *testing.T) {
	var calls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)

	_, err := client.InvokeBeta(context.Background(), "GetNetworkToken",
		&GetNetworkTokenRequest{}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrServiceUnavailable)
	assert.Equal(t, int32(3), calls.Load())
}

func TestInvokeBeta_NoRetryOnOther5xx(t *testing.T) {
	var calls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)

	_, err := client.InvokeBeta(context.Background(), "CreateVolume", &CreateVolumeRequest{Name: "v"}, nil)
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestNewClient_BareHostGetsHTTPS(t *testing.T) {
	client := NewClient("wuyingai.cn-shanghai.aliyuncs.com", "k", nil, nil)
	assert.Equal(t, "https://wuyingai.cn-shanghai.aliyuncs.com", client.baseURL)
}
