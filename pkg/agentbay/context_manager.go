package agentbay

import (
	"context"
	"log/slog"
	"time"

	"github.com/agentbay/agentbay-go/internal/wire"
)

// Context-sync polling parameters: 150 polls at 1.5s covers roughly 3.75
// minutes of sync time.
const (
	defaultSyncMaxRetries    = 150
	defaultSyncRetryInterval = 1500 * time.Millisecond
)

// ContextInfoResult is returned by Info and InfoWithParams.
type ContextInfoResult struct {
	APIResponse
	Success           bool
	ErrorMessage      string
	ContextStatusData []ContextStatusItem
}

// ContextSyncResult is returned by Sync. In callback mode Success reflects
// only the submission; the callback delivers the terminal outcome.
type ContextSyncResult struct {
	APIResponse
	Success      bool
	ErrorMessage string
}

// SyncCallback receives the terminal outcome of a sync: true when every
// sync task reached Success, false on any failure or timeout. It is
// invoked exactly once.
type SyncCallback func(success bool)

// SyncOptions tunes Sync polling. A nil options value uses the defaults;
// an explicit MaxRetries of 0 skips polling entirely.
type SyncOptions struct {
	MaxRetries    int
	RetryInterval time.Duration
	Callback      SyncCallback
}

// DefaultSyncOptions returns the standard polling parameters.
func DefaultSyncOptions() *SyncOptions {
	return &SyncOptions{
		MaxRetries:    defaultSyncMaxRetries,
		RetryInterval: defaultSyncRetryInterval,
	}
}

// ContextManager exposes per-session context sync status and on-demand
// sync. Every Session owns one.
type ContextManager struct {
	session *Session
	api     *wire.Client
	logger  *slog.Logger

	// sleepFunc waits between polls. Tests override it to avoid delays.
	sleepFunc func(ctx context.Context, d time.Duration) error
}

func newContextManager(session *Session, api *wire.Client, logger *slog.Logger) *ContextManager {
	return &ContextManager{
		session:   session,
		api:       api,
		logger:    logger,
		sleepFunc: sleepContext,
	}
}

// Info returns the current context sync status items for the session.
func (m *ContextManager) Info(ctx context.Context) (*ContextInfoResult, error) {
	return m.InfoWithParams(ctx, "", "", "")
}

// InfoWithParams returns sync status items filtered by context id, mount
// path, and task type. Empty filters match everything.
func (m *ContextManager) InfoWithParams(ctx context.Context, contextID, path, taskType string) (*ContextInfoResult, error) {
	var data wire.GetContextInfoData

	requestID, err := m.api.Invoke(ctx, "GetContextInfo", &wire.GetContextInfoRequest{
		SessionID: m.session.SessionID,
		ContextID: contextID,
		Path:      path,
		TaskType:  taskType,
	}, &data)
	if err != nil {
		if msg, ok := expectedFailure(err); ok {
			return &ContextInfoResult{
				APIResponse:  APIResponse{RequestID: requestID},
				ErrorMessage: msg,
			}, nil
		}

		return nil, err
	}

	items, err := ParseContextStatus(data.ContextStatus)
	if err != nil {
		return nil, err
	}

	return &ContextInfoResult{
		APIResponse:       APIResponse{RequestID: requestID},
		Success:           true,
		ContextStatusData: items,
	}, nil
}

// Sync submits an on-demand context sync, optionally filtered by context
// id, mount path, and mode ("upload" or "download").
//
// With a callback in opts, Sync returns after the submission round-trip
// and a background task polls for completion, invoking the callback
// exactly once with the terminal outcome. Without a callback, Sync polls
// inline and returns only after terminal state.
func (m *ContextManager) Sync(ctx context.Context, contextID, path, mode string, opts *SyncOptions) (*ContextSyncResult, error) {
	if opts == nil {
		opts = DefaultSyncOptions()
	}

	requestID, err := m.api.Invoke(ctx, "SyncContext", &wire.SyncContextRequest{
		SessionID: m.session.SessionID,
		ContextID: contextID,
		Path:      path,
		Mode:      mode,
	}, nil)
	if err != nil {
		if msg, ok := expectedFailure(err); ok {
			return &ContextSyncResult{
				APIResponse:  APIResponse{RequestID: requestID},
				ErrorMessage: msg,
			}, nil
		}

		return nil, err
	}

	m.logger.Info("context sync submitted",
		slog.String("session_id", m.session.SessionID),
		slog.String("context_id", contextID),
		slog.String("path", path),
		slog.String("mode", mode),
		slog.String("request_id", requestID),
	)

	// MaxRetries of 0 means submit-only: the caller tracks completion
	// through its own status polling.
	if opts.MaxRetries <= 0 {
		if opts.Callback != nil {
			opts.Callback(true)
		}

		return &ContextSyncResult{
			APIResponse: APIResponse{RequestID: requestID},
			Success:     true,
		}, nil
	}

	if opts.Callback != nil {
		// Detached polling task; the callback contract is exactly-once,
		// terminal or timeout.
		go func() {
			ok := m.waitForSyncTasks(context.WithoutCancel(ctx), contextID, path, opts.MaxRetries, opts.RetryInterval)
			opts.Callback(ok)
		}()

		return &ContextSyncResult{
			APIResponse: APIResponse{RequestID: requestID},
			Success:     true,
		}, nil
	}

	ok := m.waitForSyncTasks(ctx, contextID, path, opts.MaxRetries, opts.RetryInterval)

	return &ContextSyncResult{
		APIResponse: APIResponse{RequestID: requestID},
		Success:     ok,
	}, nil
}

// waitForSyncTasks polls InfoWithParams until every sync task (taskType
// upload or download) is terminal, or retries are exhausted. When no sync
// tasks appear there is nothing to wait for and completion is immediate.
// Returns true only when all observed sync tasks finished in Success.
func (m *ContextManager) waitForSyncTasks(ctx context.Context, contextID, path string, maxRetries int, interval time.Duration) bool {
	if interval <= 0 {
		interval = defaultSyncRetryInterval
	}

	for attempt := 0; attempt < maxRetries; attempt++ {
		info, err := m.InfoWithParams(ctx, contextID, path, "")
		if err != nil || !info.Success {
			// A failed poll is not terminal; log and retry the iteration.
			m.logger.Warn("context sync status poll failed",
				slog.String("session_id", m.session.SessionID),
				slog.Int("attempt", attempt+1),
			)

			if m.sleepFunc(ctx, interval) != nil {
				return false
			}

			continue
		}

		syncTasks := filterSyncTasks(info.ContextStatusData)
		if len(syncTasks) == 0 {
			// No upload/download tasks: nothing to wait for.
			return true
		}

		allTerminal := true
		allSucceeded := true

		for _, item := range syncTasks {
			if !item.Terminal() {
				allTerminal = false
				break
			}

			if item.Status == StatusFailed {
				allSucceeded = false

				m.logger.Warn("context sync task failed",
					slog.String("context_id", item.ContextID),
					slog.String("path", item.Path),
					slog.String("error", item.ErrorMessage),
				)
			}
		}

		if allTerminal {
			return allSucceeded
		}

		if m.sleepFunc(ctx, interval) != nil {
			return false
		}
	}

	m.logger.Warn("context sync polling exhausted",
		slog.String("session_id", m.session.SessionID),
		slog.Int("max_retries", maxRetries),
	)

	return false
}

// waitForAllTerminal polls Info until the status list is empty or every
// item (of any task type) is terminal, or retries are exhausted. Failed
// items are logged but do not abort the wait. Used as the create/delete
// barrier. With maxRetries <= 0 it returns immediately without an RPC.
func (m *ContextManager) waitForAllTerminal(ctx context.Context, maxRetries int, interval time.Duration) {
	if interval <= 0 {
		interval = defaultSyncRetryInterval
	}

	for attempt := 0; attempt < maxRetries; attempt++ {
		info, err := m.Info(ctx)
		if err != nil || !info.Success {
			m.logger.Warn("context status poll failed",
				slog.String("session_id", m.session.SessionID),
				slog.Int("attempt", attempt+1),
			)

			if m.sleepFunc(ctx, interval) != nil {
				return
			}

			continue
		}

		if len(info.ContextStatusData) == 0 {
			return
		}

		allTerminal := true

		for _, item := range info.ContextStatusData {
			if !item.Terminal() {
				allTerminal = false
				break
			}

			if item.Status == StatusFailed {
				m.logger.Warn("context sync task failed",
					slog.String("context_id", item.ContextID),
					slog.String("path", item.Path),
					slog.String("error", item.ErrorMessage),
				)
			}
		}

		if allTerminal {
			return
		}

		if m.sleepFunc(ctx, interval) != nil {
			return
		}
	}

	m.logger.Warn("context status polling exhausted",
		slog.String("session_id", m.session.SessionID),
		slog.Int("max_retries", maxRetries),
	)
}

// filterSyncTasks keeps only upload and download tasks.
func filterSyncTasks(items []ContextStatusItem) []ContextStatusItem {
	var out []ContextStatusItem

	for _, item := range items {
		if item.TaskType == TaskTypeUpload || item.TaskType == TaskTypeDownload {
			out = append(out, item)
		}
	}

	return out
}

// sleepContext waits for d or until ctx is canceled.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
