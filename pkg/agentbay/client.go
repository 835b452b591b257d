package agentbay

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/agentbay/agentbay-go/internal/config"
	"github.com/agentbay/agentbay-go/internal/wire"
)

// Session states reported by GetSession.
const (
	StateRunning  = "RUNNING"
	StatePaused   = "PAUSED"
	StatePausing  = "PAUSING"
	StateResuming = "RESUMING"
)

// Pause/resume supervision defaults: poll every 2s for up to 10 minutes.
const (
	defaultStatePollInterval = 2 * time.Second
	defaultStateTimeout      = 600 * time.Second
)

// Options configures a Client. Explicit fields take precedence over
// environment variables, which take precedence over a discovered .env
// file and built-in defaults.
type Options struct {
	APIKey    string
	Endpoint  string
	TimeoutMs int
	LogLevel  string

	// ConfigFile optionally adds a TOML layer below .env (used by the CLI).
	ConfigFile string

	// HTTPClient overrides the transport for RPCs, presigned transfers,
	// and VPC tool calls. Defaults to a client with the resolved timeout.
	HTTPClient *http.Client

	Logger *slog.Logger
}

// Client is the AgentBay control-plane entry point. It owns the global
// ContextService, the beta Network and Volume services, and the map of
// live sessions it has created.
type Client struct {
	cfg        *config.Config
	api        *wire.Client
	httpClient *http.Client
	logger     *slog.Logger

	// mu guards sessions against concurrent create/delete.
	mu       sync.Mutex
	sessions map[string]*Session

	ContextService *ContextService
	Network        *NetworkService
	Volume         *VolumeService

	// sleepFunc waits between state polls. Tests override it.
	sleepFunc func(ctx context.Context, d time.Duration) error
}

// NewClient constructs a Client. A missing API key after all
// configuration layers is a fatal construction error.
func NewClient(opts *Options) (*Client, error) {
	if opts == nil {
		opts = &Options{}
	}

	explicit := &config.Config{
		APIKey:    opts.APIKey,
		Endpoint:  opts.Endpoint,
		TimeoutMs: opts.TimeoutMs,
		LogLevel:  opts.LogLevel,
	}

	cfg, err := config.Resolve(explicit, opts.ConfigFile)
	if err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout()}
	}

	api := wire.NewClient(cfg.Endpoint, cfg.APIKey, httpClient, logger)

	c := &Client{
		cfg:        cfg,
		api:        api,
		httpClient: httpClient,
		logger:     logger,
		sessions:   map[string]*Session{},
		sleepFunc:  sleepContext,
	}

	c.ContextService = newContextService(api, logger)
	c.Network = newNetworkService(api, logger)
	c.Volume = newVolumeService(api, logger)

	return c, nil
}

// Create provisions a remote session. Every session gets an implicit
// file-transfer context mount; browser replay and browser context add
// their own mounts. When any context mounts were requested, Create blocks
// until the server reports terminal sync status for every mount, so no
// session handle escapes with syncs still in flight.
func (c *Client) Create(ctx context.Context, params *CreateSessionParams) (*SessionResult, error) {
	if params == nil {
		params = NewCreateSessionParams()
	}

	mounts := make([]*ContextSync, 0, len(params.ContextSyncs)+3)
	mounts = append(mounts, params.ContextSyncs...)

	// Implicit file-transfer context: guarantees at least one mount for
	// later presigned transfers.
	fileTransferContextID := c.allocateContext(ctx,
		fmt.Sprintf("file-transfer-context-%d", time.Now().UnixMilli()))
	if fileTransferContextID != "" {
		mounts = append(mounts, &ContextSync{ContextID: fileTransferContextID, Path: FileTransferPath})
	}

	var recordContextID string

	if params.EnableBrowserReplay {
		recordContextID = c.allocateContext(ctx, "record-context-"+uuid.NewString())
		if recordContextID != "" {
			mounts = append(mounts, &ContextSync{ContextID: recordContextID, Path: BrowserRecordPath})
		}
	}

	if params.BrowserContext != nil {
		browserMount, err := params.browserContextSync()
		if err != nil {
			return &SessionResult{ErrorMessage: err.Error()}, nil
		}

		mounts = append(mounts, browserMount)

		if opt := params.BrowserContext.ExtensionOption; opt != nil {
			extMount, err := opt.extensionContextSync()
			if err != nil {
				return &SessionResult{ErrorMessage: err.Error()}, nil
			}

			mounts = append(mounts, extMount)
		}
	}

	req, err := buildCreateRequest(params, mounts)
	if err != nil {
		return nil, err
	}

	var data wire.CreateMcpSessionData

	requestID, err := c.api.Invoke(ctx, "CreateMcpSession", req, &data)
	if err != nil {
		if msg, ok := expectedFailure(err); ok {
			return &SessionResult{
				APIResponse:  APIResponse{RequestID: requestID},
				ErrorMessage: msg,
			}, nil
		}

		return nil, err
	}

	session := newSession(data.SessionID, c.api, c.ContextService, c.httpClient, c.logger)
	session.ResourceURL = data.ResourceURL
	session.ImageID = params.ImageID
	session.IsVpc = params.IsVpc
	session.NetworkInterfaceIP = data.NetworkInterfaceIP
	session.HTTPPort = data.HTTPPort
	session.Token = data.Token
	session.EnableBrowserReplay = params.EnableBrowserReplay
	session.RecordContextID = recordContextID
	session.FileTransferContextID = fileTransferContextID

	c.mu.Lock()
	c.sessions[session.SessionID] = session
	c.mu.Unlock()

	c.logger.Info("session created", session.logAttr(),
		slog.String("request_id", requestID),
		slog.Bool("vpc", params.IsVpc),
	)

	// Rename the recording context after the instance id is known, so
	// recordings are discoverable per app instance. Non-fatal.
	if params.EnableBrowserReplay && recordContextID != "" && data.AppInstanceID != "" {
		rename := &Context{ID: recordContextID, Name: "browserreplay-" + data.AppInstanceID}
		if result, err := c.ContextService.Update(ctx, rename); err != nil || !result.Success {
			c.logger.Warn("renaming recording context failed", session.logAttr(),
				slog.String("context_id", recordContextID))
		}
	}

	// VPC sessions need the tool descriptors for routing. Non-fatal: a
	// failed prefetch surfaces later as "Server not found".
	if params.IsVpc {
		if tools, err := c.listMcpTools(ctx, params.ImageID); err != nil {
			c.logger.Warn("listing mcp tools failed", session.logAttr(),
				slog.String("error", err.Error()))
		} else {
			session.tools = tools
		}
	}

	// Context-sync barrier: block until every mount is terminal.
	if len(mounts) > 0 {
		session.Context.waitForAllTerminal(ctx, defaultSyncMaxRetries, defaultSyncRetryInterval)
	}

	return &SessionResult{
		APIResponse: APIResponse{RequestID: requestID},
		Success:     true,
		Session:     session,
	}, nil
}

// allocateContext creates a named context and returns its id, or "" on
// failure. Failures are logged and non-fatal: the session is still
// usable, just without the corresponding mount.
func (c *Client) allocateContext(ctx context.Context, name string) string {
	result, err := c.ContextService.Get(ctx, name, true)
	if err != nil {
		c.logger.Warn("allocating context failed",
			slog.String("name", name), slog.String("error", err.Error()))
		return ""
	}

	if !result.Success {
		c.logger.Warn("allocating context failed",
			slog.String("name", name), slog.String("error", result.ErrorMessage))
		return ""
	}

	return result.ContextID
}

// buildCreateRequest assembles the wire request from params and the
// expanded mount list.
func buildCreateRequest(params *CreateSessionParams, mounts []*ContextSync) (*wire.CreateMcpSessionRequest, error) {
	labels, err := params.labelsJSON()
	if err != nil {
		return nil, err
	}

	persistence := make([]wire.PersistenceDataItem, 0, len(mounts))

	for _, m := range mounts {
		policy, err := encodePolicy(m.Policy)
		if err != nil {
			return nil, err
		}

		persistence = append(persistence, wire.PersistenceDataItem{
			ContextID: m.ContextID,
			Path:      m.Path,
			Policy:    policy,
		})
	}

	return &wire.CreateMcpSessionRequest{
		Labels:              labels,
		ImageID:             params.ImageID,
		PersistenceDataList: persistence,
		VpcResource:         params.IsVpc,
		McpPolicyID:         params.PolicyID,
		EnableRecord:        params.EnableBrowserReplay,
	}, nil
}

// listMcpTools fetches and parses the tool descriptors for an image.
func (c *Client) listMcpTools(ctx context.Context, imageID string) ([]McpTool, error) {
	var raw string

	_, err := c.api.Invoke(ctx, "ListMcpTools", &wire.ListMcpToolsRequest{ImageID: imageID}, &raw)
	if err != nil {
		return nil, err
	}

	return parseMcpTools(raw)
}

// Get fetches a session by id and hydrates a caller-owned Session object.
// The result is not registered in the client's session map. A released
// session reports failure (logged at info level by the wire layer).
func (c *Client) Get(ctx context.Context, sessionID string) (*SessionResult, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("sessionId is required")
	}

	var data wire.GetSessionData

	requestID, err := c.api.Invoke(ctx, "GetSession", &wire.GetSessionRequest{SessionID: sessionID}, &data)
	if err != nil {
		if msg, ok := expectedFailure(err); ok {
			return &SessionResult{
				APIResponse:  APIResponse{RequestID: requestID},
				ErrorMessage: msg,
			}, nil
		}

		return nil, err
	}

	session := newSession(data.SessionID, c.api, c.ContextService, c.httpClient, c.logger)
	session.ResourceURL = data.ResourceURL
	session.IsVpc = data.VpcResource
	session.NetworkInterfaceIP = data.NetworkInterfaceIP
	session.HTTPPort = data.HTTPPort
	session.Token = data.Token

	return &SessionResult{
		APIResponse: APIResponse{RequestID: requestID},
		Success:     true,
		Session:     session,
	}, nil
}

// List returns the page-th page of session ids matching labels, with
// forward paging: pages 1..page-1 are fetched in sequence to chain
// NextToken, so large page numbers are O(N) round-trips.
func (c *Client) List(ctx context.Context, labels map[string]string, page int, limit int32) (*SessionListResult, error) {
	if page < 1 {
		return &SessionListResult{ErrorMessage: "Page number must be >= 1"}, nil
	}

	labelsJSON, err := encodeLabels(labels)
	if err != nil {
		return nil, err
	}

	token := ""

	for current := 1; current < page; current++ {
		pageResult, err := c.listPage(ctx, labelsJSON, limit, token)
		if err != nil {
			return nil, err
		}

		if !pageResult.Success {
			return pageResult, nil
		}

		if pageResult.NextToken == "" {
			return &SessionListResult{
				APIResponse:  pageResult.APIResponse,
				ErrorMessage: fmt.Sprintf("Cannot reach page %d: no more pages after page %d", page, current),
			}, nil
		}

		token = pageResult.NextToken
	}

	return c.listPage(ctx, labelsJSON, limit, token)
}

// ListByLabels returns one page of session ids for the given labels and
// token.
//
// Deprecated: use List, which implements forward paging.
func (c *Client) ListByLabels(ctx context.Context, labels map[string]string, maxResults int32, nextToken string) (*SessionListResult, error) {
	labelsJSON, err := encodeLabels(labels)
	if err != nil {
		return nil, err
	}

	return c.listPage(ctx, labelsJSON, maxResults, nextToken)
}

func (c *Client) listPage(ctx context.Context, labelsJSON string, limit int32, token string) (*SessionListResult, error) {
	var data wire.ListSessionData

	requestID, err := c.api.Invoke(ctx, "ListSession", &wire.ListSessionRequest{
		Labels:     labelsJSON,
		MaxResults: limit,
		NextToken:  token,
	}, &data)
	if err != nil {
		if msg, ok := expectedFailure(err); ok {
			return &SessionListResult{
				APIResponse:  APIResponse{RequestID: requestID},
				ErrorMessage: msg,
			}, nil
		}

		return nil, err
	}

	ids := make([]string, 0, len(data.Data))
	for _, item := range data.Data {
		ids = append(ids, item.SessionID)
	}

	return &SessionListResult{
		APIResponse: APIResponse{RequestID: requestID},
		Success:     true,
		SessionIDs:  ids,
		NextToken:   data.NextToken,
		MaxResults:  data.MaxResults,
		TotalCount:  data.TotalCount,
	}, nil
}

func encodeLabels(labels map[string]string) (string, error) {
	params := &CreateSessionParams{Labels: labels}
	return params.labelsJSON()
}

// Delete releases a session. syncContext=true flushes all contexts first;
// browser-replay sessions flush their recording context even when
// syncContext is false. Sync failures are logged and never abort the
// release. The session leaves the client's local map regardless of the
// release outcome, so a failed delete cannot leak a stale handle.
func (c *Client) Delete(ctx context.Context, session *Session, syncContext bool) (*DeleteResult, error) {
	if session == nil {
		return nil, fmt.Errorf("session is required")
	}

	switch {
	case syncContext:
		c.flushContexts(ctx, session, "", "")
	case session.EnableBrowserReplay && session.RecordContextID != "":
		c.flushContexts(ctx, session, session.RecordContextID, BrowserRecordPath)
	}

	requestID, err := c.api.Invoke(ctx, "ReleaseMcpSession",
		&wire.ReleaseMcpSessionRequest{SessionID: session.SessionID}, nil)

	// Remove from the local map before inspecting the outcome.
	c.mu.Lock()
	delete(c.sessions, session.SessionID)
	c.mu.Unlock()

	session.markDeleted()

	if err != nil {
		if msg, ok := expectedFailure(err); ok {
			return &DeleteResult{
				APIResponse:  APIResponse{RequestID: requestID},
				ErrorMessage: msg,
			}, nil
		}

		return nil, err
	}

	c.logger.Info("session released", session.logAttr(), slog.String("request_id", requestID))

	return &DeleteResult{APIResponse: APIResponse{RequestID: requestID}, Success: true}, nil
}

// flushContexts triggers an upload sync (optionally scoped to one
// context) and waits for terminal state. Failures are non-fatal.
func (c *Client) flushContexts(ctx context.Context, session *Session, contextID, path string) {
	result, err := session.Context.Sync(ctx, contextID, path, TaskTypeUpload, nil)
	if err != nil {
		c.logger.Warn("context flush failed", session.logAttr(), slog.String("error", err.Error()))
		return
	}

	if !result.Success {
		c.logger.Warn("context flush incomplete", session.logAttr(),
			slog.String("error", result.ErrorMessage))
	}
}

// Sessions returns a snapshot of the sessions this client created and has
// not yet deleted.
func (c *Client) Sessions() []*Session {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]*Session, 0, len(c.sessions))
	for _, s := range c.sessions {
		out = append(out, s)
	}

	return out
}

// Session returns a created session by id, or nil.
func (c *Client) Session(sessionID string) *Session {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.sessions[sessionID]
}

// PauseAsync issues PauseSessionAsync and supervises the transition by
// polling GetSession until PAUSED, the terminal pause state. RUNNING and
// PAUSING are expected intermediates; anything else is logged and polling
// continues. Zero timeout/pollInterval select the defaults (600s / 2s).
func (c *Client) PauseAsync(ctx context.Context, session *Session, timeout, pollInterval time.Duration) (*PauseResult, error) {
	return c.superviseStateChange(ctx, session, "PauseSessionAsync", StatePaused,
		map[string]bool{StateRunning: true, StatePausing: true}, timeout, pollInterval)
}

// ResumeAsync issues ResumeSessionAsync and supervises the transition by
// polling GetSession until RUNNING. PAUSED and RESUMING are expected
// intermediates.
func (c *Client) ResumeAsync(ctx context.Context, session *Session, timeout, pollInterval time.Duration) (*PauseResult, error) {
	return c.superviseStateChange(ctx, session, "ResumeSessionAsync", StateRunning,
		map[string]bool{StatePaused: true, StateResuming: true}, timeout, pollInterval)
}

func (c *Client) superviseStateChange(
	ctx context.Context, session *Session, action, terminal string,
	intermediates map[string]bool, timeout, pollInterval time.Duration,
) (*PauseResult, error) {
	if session == nil {
		return nil, fmt.Errorf("session is required")
	}

	if timeout <= 0 {
		timeout = defaultStateTimeout
	}

	if pollInterval <= 0 {
		pollInterval = defaultStatePollInterval
	}

	requestID, err := c.api.Invoke(ctx, action,
		&wire.PauseSessionRequest{SessionID: session.SessionID}, nil)
	if err != nil {
		if msg, ok := expectedFailure(err); ok {
			return &PauseResult{
				APIResponse:  APIResponse{RequestID: requestID},
				ErrorMessage: msg,
			}, nil
		}

		return nil, err
	}

	start := time.Now()
	deadline := start.Add(timeout)

	for time.Now().Before(deadline) {
		var data wire.GetSessionData

		_, err := c.api.Invoke(ctx, "GetSession",
			&wire.GetSessionRequest{SessionID: session.SessionID}, &data)
		if err != nil {
			if isNotFound(err) {
				return &PauseResult{
					APIResponse:  APIResponse{RequestID: requestID},
					ErrorMessage: fmt.Sprintf("session %s no longer exists", session.SessionID),
					ElapsedMs:    time.Since(start).Milliseconds(),
				}, nil
			}

			if _, ok := expectedFailure(err); !ok {
				return nil, err
			}
			// API-level hiccup: keep polling until the deadline.
		} else {
			switch {
			case data.Status == terminal:
				return &PauseResult{
					APIResponse: APIResponse{RequestID: requestID},
					Success:     true,
					State:       data.Status,
					ElapsedMs:   time.Since(start).Milliseconds(),
				}, nil
			case intermediates[data.Status]:
				// Expected transition state.
			default:
				c.logger.Warn("unexpected session state during transition",
					session.logAttr(),
					slog.String("action", action),
					slog.String("state", data.Status),
				)
			}
		}

		if c.sleepFunc(ctx, pollInterval) != nil {
			return nil, ctx.Err()
		}
	}

	elapsed := time.Since(start).Milliseconds()

	return &PauseResult{
		APIResponse:  APIResponse{RequestID: requestID},
		ErrorMessage: fmt.Sprintf("%s did not reach %s within %d ms", action, terminal, elapsed),
		ElapsedMs:    elapsed,
	}, nil
}
