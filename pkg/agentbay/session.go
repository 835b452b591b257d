package agentbay

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"

	"github.com/agentbay/agentbay-go/internal/wire"
)

// GetLink accepts ports in this closed range only.
const (
	LinkPortMin = 30100
	LinkPortMax = 30199
)

// ErrSessionDeleted is returned by operations on a released session.
var ErrSessionDeleted = fmt.Errorf("session has been deleted")

// Session is a live remote runtime environment. It owns the per-session
// sub-services and the tool dispatcher they share. Once deleted, no
// further operations are valid.
type Session struct {
	SessionID   string
	ResourceURL string
	ImageID     string

	// VPC fields, populated at create for vpcResource sessions. All of
	// them must be present for VPC tool dispatch to work.
	IsVpc              bool
	NetworkInterfaceIP string
	HTTPPort           string
	Token              string

	EnableBrowserReplay bool

	// RecordContextID holds the browser-replay recording context, synced
	// on delete even when syncContext is false.
	RecordContextID string

	// FileTransferContextID is the implicit per-session context mounted
	// at FileTransferPath for presigned transfers.
	FileTransferContextID string

	// Sub-services.
	Context      *ContextManager
	FileSystem   *FileSystem
	Command      *Command
	Code         *Code
	Computer     *Computer
	Mobile       *Mobile
	Browser      *Browser
	Agent        *Agent
	FileTransfer *FileTransfer

	// tools caches the McpTool descriptors for VPC routing. Written once
	// at create, read thereafter.
	tools []McpTool

	api        *wire.Client
	httpClient *http.Client
	logger     *slog.Logger
	contextSvc *ContextService

	deleted atomic.Bool
}

// newSession wires a Session and its sub-services.
func newSession(sessionID string, api *wire.Client, contextSvc *ContextService, httpClient *http.Client, logger *slog.Logger) *Session {
	s := &Session{
		SessionID:  sessionID,
		api:        api,
		httpClient: httpClient,
		logger:     logger,
		contextSvc: contextSvc,
	}

	s.Context = newContextManager(s, api, logger)
	s.FileSystem = &FileSystem{session: s}
	s.Command = &Command{session: s}
	s.Code = &Code{session: s}
	s.Computer = &Computer{session: s}
	s.Mobile = &Mobile{session: s}
	s.Browser = &Browser{session: s}
	s.Agent = &Agent{session: s}
	s.FileTransfer = newFileTransfer(s, contextSvc, logger)

	return s
}

// ensureAlive guards operations against released sessions.
func (s *Session) ensureAlive() error {
	if s.deleted.Load() {
		return ErrSessionDeleted
	}

	return nil
}

// markDeleted flags the session as released.
func (s *Session) markDeleted() {
	s.deleted.Store(true)
}

// Tools returns the cached McpTool descriptors (VPC sessions only).
func (s *Session) Tools() []McpTool {
	return s.tools
}

// SetLabels replaces the session's labels. Labels must be a non-empty map
// of non-empty strings; validation happens before any RPC.
func (s *Session) SetLabels(ctx context.Context, labels map[string]string) (*OperationResult, error) {
	if err := s.ensureAlive(); err != nil {
		return nil, err
	}

	if err := ValidateLabels(labels); err != nil {
		return &OperationResult{ErrorMessage: err.Error()}, nil
	}

	raw, err := json.Marshal(labels)
	if err != nil {
		return nil, fmt.Errorf("encoding labels: %w", err)
	}

	requestID, err := s.api.Invoke(ctx, "SetLabel",
		&wire.SetLabelRequest{SessionID: s.SessionID, Labels: string(raw)}, nil)
	if err != nil {
		if msg, ok := expectedFailure(err); ok {
			return &OperationResult{
				APIResponse:  APIResponse{RequestID: requestID},
				ErrorMessage: msg,
			}, nil
		}

		return nil, err
	}

	return &OperationResult{APIResponse: APIResponse{RequestID: requestID}, Success: true}, nil
}

// GetLabels fetches the session's labels.
func (s *Session) GetLabels(ctx context.Context) (*LabelResult, error) {
	if err := s.ensureAlive(); err != nil {
		return nil, err
	}

	var data wire.GetLabelData

	requestID, err := s.api.Invoke(ctx, "GetLabel",
		&wire.GetLabelRequest{SessionID: s.SessionID}, &data)
	if err != nil {
		if msg, ok := expectedFailure(err); ok {
			return &LabelResult{
				APIResponse:  APIResponse{RequestID: requestID},
				ErrorMessage: msg,
			}, nil
		}

		return nil, err
	}

	labels := map[string]string{}
	if data.Labels != "" {
		if err := json.Unmarshal([]byte(data.Labels), &labels); err != nil {
			return nil, fmt.Errorf("decoding labels: %w", err)
		}
	}

	return &LabelResult{
		APIResponse: APIResponse{RequestID: requestID},
		Success:     true,
		Labels:      labels,
	}, nil
}

// GetLink requests an access link for the session. port, when non-nil,
// must lie in [30100, 30199]; out-of-range ports are a programming error.
func (s *Session) GetLink(ctx context.Context, protocolType string, port *int32, option string) (*LinkResult, error) {
	if err := s.ensureAlive(); err != nil {
		return nil, err
	}

	if port != nil && (*port < LinkPortMin || *port > LinkPortMax) {
		return nil, fmt.Errorf("invalid port %d: must be an integer in [%d, %d]", *port, LinkPortMin, LinkPortMax)
	}

	var data wire.GetLinkData

	requestID, err := s.api.Invoke(ctx, "GetLink", &wire.GetLinkRequest{
		SessionID:    s.SessionID,
		ProtocolType: protocolType,
		Port:         port,
		Option:       option,
	}, &data)
	if err != nil {
		if msg, ok := expectedFailure(err); ok {
			return &LinkResult{
				APIResponse:  APIResponse{RequestID: requestID},
				ErrorMessage: msg,
			}, nil
		}

		return nil, err
	}

	return &LinkResult{
		APIResponse: APIResponse{RequestID: requestID},
		Success:     true,
		URL:         data.URL,
	}, nil
}

// Info fetches the remote resource details backing the session.
func (s *Session) Info(ctx context.Context) (*InfoResult, error) {
	if err := s.ensureAlive(); err != nil {
		return nil, err
	}

	var data wire.GetMcpResourceData

	requestID, err := s.api.Invoke(ctx, "GetMcpResource",
		&wire.GetMcpResourceRequest{SessionID: s.SessionID}, &data)
	if err != nil {
		if msg, ok := expectedFailure(err); ok {
			return &InfoResult{
				APIResponse:  APIResponse{RequestID: requestID},
				ErrorMessage: msg,
			}, nil
		}

		return nil, err
	}

	return &InfoResult{
		APIResponse: APIResponse{RequestID: requestID},
		Success:     true,
		SessionID:   data.SessionID,
		ResourceURL: data.ResourceURL,
	}, nil
}

// vpcReady reports whether all fields required for VPC tool dispatch are
// populated.
func (s *Session) vpcReady() bool {
	return s.NetworkInterfaceIP != "" && s.HTTPPort != ""
}

func (s *Session) logAttr() slog.Attr {
	return slog.String("session_id", s.SessionID)
}
