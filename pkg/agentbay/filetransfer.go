package agentbay

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/agentbay/agentbay-go/internal/wire"
)

// File-transfer sync wait defaults: 20 polls at 1.5s covers 30 seconds.
const (
	defaultTransferWaitTimeout  = 30 * time.Second
	defaultTransferPollInterval = 1500 * time.Millisecond
)

// TransferProgressFunc receives the cumulative byte count as a transfer
// advances.
type TransferProgressFunc func(bytesTransferred int64)

// UploadOptions tunes UploadFile. The zero value waits for the follow-up
// sync with the default timeout and poll interval.
type UploadOptions struct {
	ContentType string
	// NoWait skips the post-upload sync wait.
	NoWait       bool
	WaitTimeout  time.Duration
	PollInterval time.Duration
	Progress     TransferProgressFunc
}

// DownloadOptions tunes DownloadFile. The zero value refuses to overwrite
// an existing local file and waits for the pre-download sync.
type DownloadOptions struct {
	Overwrite bool
	// NoWait skips the pre-download sync wait.
	NoWait       bool
	WaitTimeout  time.Duration
	PollInterval time.Duration
	Progress     TransferProgressFunc
}

// UploadResult reports a completed (or failed) upload: the presigned-URL
// grant and the follow-up sync each carry their own request id.
type UploadResult struct {
	Success       bool
	ErrorMessage  string
	RequestIDURL  string
	RequestIDSync string
	HTTPStatus    int
	ETag          string
	BytesSent     int64
	Path          string
}

// DownloadResult reports a completed (or failed) download.
type DownloadResult struct {
	Success       bool
	ErrorMessage  string
	RequestIDURL  string
	RequestIDSync string
	HTTPStatus    int
	BytesReceived int64
	Path          string
	LocalPath     string
}

// FileTransfer moves files between the local machine and the session
// through the implicit file-transfer context: presigned PUT/GET against
// object storage, bridged to the session's disk by directed syncs.
type FileTransfer struct {
	session    *Session
	contextSvc *ContextService
	httpClient *http.Client
	logger     *slog.Logger

	// mu guards the lazy context load against concurrent transfers.
	mu sync.Mutex

	// sleepFunc waits between sync polls. Tests override it.
	sleepFunc func(ctx context.Context, d time.Duration) error
}

func newFileTransfer(session *Session, contextSvc *ContextService, logger *slog.Logger) *FileTransfer {
	return &FileTransfer{
		session:    session,
		contextSvc: contextSvc,
		httpClient: session.httpClient,
		logger:     logger,
		sleepFunc:  sleepContext,
	}
}

// contextID returns the session's implicit file-transfer context.
// Sessions hydrated by Get never saw the create response, so the context
// is lazy-loaded through GetAndLoadInternalContext on first use.
func (t *FileTransfer) contextID(ctx context.Context) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.session.FileTransferContextID != "" {
		return t.session.FileTransferContextID, nil
	}

	var items []wire.InternalContextItem

	requestID, err := t.session.api.Invoke(ctx, "GetAndLoadInternalContext",
		&wire.GetAndLoadInternalContextRequest{
			SessionID:    t.session.SessionID,
			ContextTypes: []string{"file_transfer"},
		}, &items)
	if err != nil {
		return "", fmt.Errorf("loading file-transfer context: %w", err)
	}

	for _, item := range items {
		if item.ContextID == "" {
			continue
		}

		t.logger.Debug("loaded file-transfer context",
			t.session.logAttr(),
			slog.String("context_id", item.ContextID),
			slog.String("request_id", requestID),
		)

		t.session.FileTransferContextID = item.ContextID

		return item.ContextID, nil
	}

	return "", fmt.Errorf("no file-transfer context available for this session")
}

// UploadFile copies a local file into the session at remotePath: PUT to a
// presigned URL, then a download-mode sync pulls the object onto the
// session's disk. Unless NoWait is set, UploadFile blocks until that sync
// is terminal.
func (t *FileTransfer) UploadFile(ctx context.Context, localPath, remotePath string, opts *UploadOptions) (*UploadResult, error) {
	if err := t.session.ensureAlive(); err != nil {
		return nil, err
	}

	if opts == nil {
		opts = &UploadOptions{}
	}

	contextID, err := t.contextID(ctx)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(localPath)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", localPath, err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", localPath, err)
	}

	grant, err := t.contextSvc.GetFileUploadURL(ctx, contextID, remotePath)
	if err != nil {
		return nil, err
	}

	if !grant.Success {
		return &UploadResult{
			ErrorMessage: grant.ErrorMessage,
			RequestIDURL: grant.RequestID,
			Path:         remotePath,
		}, nil
	}

	t.logger.Debug("uploading file",
		t.session.logAttr(),
		slog.String("local", localPath),
		slog.String("remote", remotePath),
		slog.String("url", stripQuery(grant.URL)),
		slog.Int64("size", stat.Size()),
	)

	var body io.Reader = file
	if opts.Progress != nil {
		body = &progressReader{r: file, cb: opts.Progress}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, grant.URL, body)
	if err != nil {
		return nil, fmt.Errorf("creating upload request: %w", err)
	}

	req.ContentLength = stat.Size()
	if opts.ContentType != "" {
		req.Header.Set("Content-Type", opts.ContentType)
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("uploading %s: %w", localPath, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	result := &UploadResult{
		RequestIDURL: grant.RequestID,
		HTTPStatus:   resp.StatusCode,
		ETag:         resp.Header.Get("ETag"),
		BytesSent:    stat.Size(),
		Path:         remotePath,
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		result.ErrorMessage = fmt.Sprintf("upload failed with HTTP %d", resp.StatusCode)
		return result, nil
	}

	// Bridge object storage to the session's disk, scoped to this file.
	syncResult, err := t.session.Context.Sync(ctx, contextID, remotePath, TaskTypeDownload,
		&SyncOptions{MaxRetries: 0})
	if err != nil {
		return nil, err
	}

	result.RequestIDSync = syncResult.RequestID

	if !syncResult.Success {
		result.ErrorMessage = syncResult.ErrorMessage
		return result, nil
	}

	if !opts.NoWait {
		if !t.waitForTask(ctx, contextID, remotePath, TaskTypeDownload, opts.WaitTimeout, opts.PollInterval) {
			result.ErrorMessage = "timed out waiting for file sync to the session"
			return result, nil
		}
	}

	result.Success = true

	return result, nil
}

// DownloadFile copies a file from the session at remotePath to localPath:
// an upload-mode sync first pushes the session's disk state to object
// storage, then the file is fetched through a presigned URL. An existing
// local file is an error unless Overwrite is set.
func (t *FileTransfer) DownloadFile(ctx context.Context, remotePath, localPath string, opts *DownloadOptions) (*DownloadResult, error) {
	if err := t.session.ensureAlive(); err != nil {
		return nil, err
	}

	if opts == nil {
		opts = &DownloadOptions{}
	}

	if !opts.Overwrite {
		if _, err := os.Stat(localPath); err == nil {
			return nil, fmt.Errorf("%s already exists; pass Overwrite to replace it", localPath)
		}
	}

	contextID, err := t.contextID(ctx)
	if err != nil {
		return nil, err
	}

	// Push the session's current disk state for this file before fetching.
	syncResult, err := t.session.Context.Sync(ctx, contextID, remotePath, TaskTypeUpload,
		&SyncOptions{MaxRetries: 0})
	if err != nil {
		return nil, err
	}

	result := &DownloadResult{
		RequestIDSync: syncResult.RequestID,
		Path:          remotePath,
		LocalPath:     localPath,
	}

	if !syncResult.Success {
		result.ErrorMessage = syncResult.ErrorMessage
		return result, nil
	}

	if !opts.NoWait {
		if !t.waitForTask(ctx, contextID, remotePath, TaskTypeUpload, opts.WaitTimeout, opts.PollInterval) {
			result.ErrorMessage = "timed out waiting for file sync from the session"
			return result, nil
		}
	}

	grant, err := t.contextSvc.GetFileDownloadURL(ctx, contextID, remotePath)
	if err != nil {
		return nil, err
	}

	result.RequestIDURL = grant.RequestID

	if !grant.Success {
		result.ErrorMessage = grant.ErrorMessage
		return result, nil
	}

	t.logger.Debug("downloading file",
		t.session.logAttr(),
		slog.String("remote", remotePath),
		slog.String("local", localPath),
		slog.String("url", stripQuery(grant.URL)),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, grant.URL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating download request: %w", err)
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("downloading %s: %w", remotePath, err)
	}
	defer resp.Body.Close()

	result.HTTPStatus = resp.StatusCode

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		result.ErrorMessage = fmt.Sprintf("download failed with HTTP %d", resp.StatusCode)
		return result, nil
	}

	if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", filepath.Dir(localPath), err)
	}

	out, err := os.Create(localPath)
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", localPath, err)
	}

	var body io.Reader = resp.Body
	if opts.Progress != nil {
		body = &progressReader{r: resp.Body, cb: opts.Progress}
	}

	written, err := io.Copy(out, body)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}

	if err != nil {
		os.Remove(localPath)
		return nil, fmt.Errorf("writing %s: %w", localPath, err)
	}

	result.Success = true
	result.BytesReceived = written

	return result, nil
}

// waitForTask polls the session's context status until the transfer task
// for this exact file is terminal. Returns true only on Success. Status
// items for other paths under the mount never satisfy the wait.
func (t *FileTransfer) waitForTask(ctx context.Context, contextID, remotePath, taskType string, timeout, interval time.Duration) bool {
	if timeout <= 0 {
		timeout = defaultTransferWaitTimeout
	}

	if interval <= 0 {
		interval = defaultTransferPollInterval
	}

	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		info, err := t.session.Context.InfoWithParams(ctx, contextID, remotePath, taskType)
		if err == nil && info.Success {
			done, succeeded := transferTaskState(info.ContextStatusData, contextID, remotePath, taskType)
			if done {
				return succeeded
			}
		}

		if t.sleepFunc(ctx, interval) != nil {
			return false
		}
	}

	t.logger.Warn("file transfer sync wait exhausted",
		t.session.logAttr(),
		slog.String("context_id", contextID),
		slog.String("path", remotePath),
		slog.String("task_type", taskType),
	)

	return false
}

// transferTaskState inspects status items for the transfer task of one
// file. With no matching item yet, the task is still pending.
func transferTaskState(items []ContextStatusItem, contextID, remotePath, taskType string) (done, succeeded bool) {
	for _, item := range items {
		if item.ContextID != contextID || item.Path != remotePath || item.TaskType != taskType {
			continue
		}

		if !item.Terminal() {
			return false, false
		}

		return true, item.Status == StatusSuccess
	}

	return false, false
}

// progressReader counts bytes through an io.Reader and reports the
// running total.
type progressReader struct {
	r     io.Reader
	total int64
	cb    TransferProgressFunc
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.total += int64(n)
		p.cb(p.total)
	}

	return n, err
}

// stripQuery removes the query string from a URL for logging, since
// presigned URLs carry credentials there.
func stripQuery(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}

	u.RawQuery = ""

	return u.String()
}
