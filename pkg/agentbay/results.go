// Package agentbay is the client-side control plane for the AgentBay
// multi-capability provider service. It brokers long-lived remote compute
// sessions (desktops, browsers, mobile emulators, code sandboxes), attaches
// persistent context volumes, transfers files through presigned URLs, and
// dispatches remote tool invocations.
package agentbay

// APIResponse carries the request id that every managed API response
// returns. It is embedded in all result envelopes so callers can correlate
// results with server-side logs.
type APIResponse struct {
	RequestID string
}

// OperationResult is the generic envelope for operations with no payload.
// Expected failures (API-level, tool-level, validation) are reported via
// Success/ErrorMessage rather than an error return.
type OperationResult struct {
	APIResponse
	Success      bool
	ErrorMessage string
}

// SessionResult is returned by Create and Get.
type SessionResult struct {
	APIResponse
	Success      bool
	ErrorMessage string
	Session      *Session
}

// SessionListResult is one page of session ids.
type SessionListResult struct {
	APIResponse
	Success      bool
	ErrorMessage string
	SessionIDs   []string
	NextToken    string
	MaxResults   int32
	TotalCount   int32
}

// DeleteResult is returned by Delete.
type DeleteResult struct {
	APIResponse
	Success      bool
	ErrorMessage string
}

// PauseResult is returned by PauseAsync and ResumeAsync. ElapsedMs reports
// how long the state poll ran, including on timeout.
type PauseResult struct {
	APIResponse
	Success      bool
	ErrorMessage string
	State        string
	ElapsedMs    int64
}

// LabelResult is returned by GetLabels.
type LabelResult struct {
	APIResponse
	Success      bool
	ErrorMessage string
	Labels       map[string]string
}

// LinkResult is returned by GetLink.
type LinkResult struct {
	APIResponse
	Success      bool
	ErrorMessage string
	URL          string
}

// InfoResult is returned by Session.Info.
type InfoResult struct {
	APIResponse
	Success      bool
	ErrorMessage string
	SessionID    string
	ResourceURL  string
}

// ToolResult is the uniform envelope of the tool dispatcher. Success
// implies an empty ErrorMessage; Data carries the first content text.
type ToolResult struct {
	APIResponse
	Success      bool
	Data         string
	ErrorMessage string
}

// NetworkTokenResult is returned by the beta NetworkService.
type NetworkTokenResult struct {
	APIResponse
	Success      bool
	ErrorMessage string
	Token        string
	ExpireTime   *int64
}

// VolumeResult is returned by the beta VolumeService.
type VolumeResult struct {
	APIResponse
	Success      bool
	ErrorMessage string
	VolumeID     string
	Name         string
	Status       string
}
