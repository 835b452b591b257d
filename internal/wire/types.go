package wire

// Request and response models for the managed API surface. Responses are
// the Data payload of the common envelope; the envelope itself (requestId,
// success, code, message) is handled by Client.Invoke.

// CreateMcpSessionRequest creates a remote session.
type CreateMcpSessionRequest struct {
	Labels              string                `json:"labels,omitempty"`
	ImageID             string                `json:"imageId,omitempty"`
	PersistenceDataList []PersistenceDataItem `json:"persistenceDataList,omitempty"`
	VpcResource         bool                  `json:"vpcResource,omitempty"`
	McpPolicyID         string                `json:"mcpPolicyId,omitempty"`
	EnableRecord        bool                  `json:"enableRecord,omitempty"`
}

// PersistenceDataItem attaches a context volume to a session at a mount
// path. Policy is a JSON-encoded SyncPolicy, or empty for server defaults.
type PersistenceDataItem struct {
	ContextID string `json:"contextId"`
	Path      string `json:"path"`
	Policy    string `json:"policy,omitempty"`
}

// CreateMcpSessionData is the payload returned on session creation.
// The VPC fields are only populated for vpcResource sessions.
type CreateMcpSessionData struct {
	SessionID          string `json:"sessionId"`
	ResourceURL        string `json:"resourceUrl"`
	NetworkInterfaceIP string `json:"networkInterfaceIp"`
	HTTPPort           string `json:"httpPort"`
	Token              string `json:"token"`
	AppInstanceID      string `json:"appInstanceId"`
}

// GetSessionRequest fetches a single session by id.
type GetSessionRequest struct {
	SessionID string `json:"sessionId"`
}

// GetSessionData is the payload returned by GetSession.
type GetSessionData struct {
	SessionID          string `json:"sessionId"`
	ResourceURL        string `json:"resourceUrl"`
	Status             string `json:"status"`
	VpcResource        bool   `json:"vpcResource"`
	NetworkInterfaceIP string `json:"networkInterfaceIp"`
	HTTPPort           string `json:"httpPort"`
	Token              string `json:"token"`
}

// ReleaseMcpSessionRequest releases a session's remote resources.
type ReleaseMcpSessionRequest struct {
	SessionID string `json:"sessionId"`
}

// ListSessionRequest lists session ids filtered by labels.
type ListSessionRequest struct {
	Labels     string `json:"labels"`
	MaxResults int32  `json:"maxResults,omitempty"`
	NextToken  string `json:"nextToken,omitempty"`
}

// ListSessionData is one page of session ids.
type ListSessionData struct {
	Data       []SessionListItem `json:"data"`
	NextToken  string            `json:"nextToken"`
	MaxResults int32             `json:"maxResults"`
	TotalCount int32             `json:"totalCount"`
}

// SessionListItem is a single entry in a session listing.
type SessionListItem struct {
	SessionID string `json:"sessionId"`
}

// PauseSessionRequest suspends a running session.
type PauseSessionRequest struct {
	SessionID string `json:"sessionId"`
}

// ResumeSessionRequest wakes a paused session.
type ResumeSessionRequest struct {
	SessionID string `json:"sessionId"`
}

// GetContextInfoRequest fetches per-session context sync status,
// optionally filtered by context id, mount path, and task type.
type GetContextInfoRequest struct {
	SessionID string `json:"sessionId"`
	ContextID string `json:"contextId,omitempty"`
	Path      string `json:"path,omitempty"`
	TaskType  string `json:"taskType,omitempty"`
}

// GetContextInfoData carries the context status as a JSON string encoding
// an array of typed envelopes (see agentbay.ParseContextStatus).
type GetContextInfoData struct {
	ContextStatus string `json:"contextStatus"`
}

// GetAndLoadInternalContextRequest resolves a session's implicit internal
// contexts of the given types, creating and mounting them server-side
// when missing. The response data is a list of InternalContextItem.
type GetAndLoadInternalContextRequest struct {
	SessionID    string   `json:"sessionId"`
	ContextTypes []string `json:"contextTypes"`
}

// InternalContextItem is one resolved internal context.
type InternalContextItem struct {
	ContextID   string `json:"contextId"`
	ContextPath string `json:"contextPath"`
	ContextType string `json:"contextType"`
}

// SyncContextRequest triggers an on-demand context sync.
type SyncContextRequest struct {
	SessionID string `json:"sessionId"`
	ContextID string `json:"contextId,omitempty"`
	Path      string `json:"path,omitempty"`
	Mode      string `json:"mode,omitempty"`
}

// ListContextsRequest lists the tenant's contexts.
type ListContextsRequest struct {
	MaxResults int32  `json:"maxResults,omitempty"`
	NextToken  string `json:"nextToken,omitempty"`
}

// ContextItem is a single context in a listing.
type ContextItem struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	CreateTime   string `json:"createTime"`
	LastUsedTime string `json:"lastUsedTime"`
}

// ListContextsData is one page of contexts.
type ListContextsData struct {
	Contexts   []ContextItem `json:"contexts"`
	NextToken  string        `json:"nextToken"`
	TotalCount int32         `json:"totalCount"`
}

// GetContextRequest fetches (and optionally creates) a context by name.
type GetContextRequest struct {
	Name        string `json:"name"`
	AllowCreate bool   `json:"allowCreate"`
}

// GetContextData is the payload returned by GetContext. The server may
// return only the id; callers hydrate metadata via ListContexts.
type GetContextData struct {
	ID string `json:"id"`
}

// ModifyContextRequest renames a context. Only the name is mutable.
type ModifyContextRequest struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// DeleteContextRequest destroys a context and its data.
type DeleteContextRequest struct {
	ID string `json:"id"`
}

// ContextFileRequest addresses a file within a context for the presigned
// URL and delete operations.
type ContextFileRequest struct {
	ContextID string `json:"contextId"`
	FilePath  string `json:"filePath"`
}

// ContextFileURLData is a presigned URL grant.
type ContextFileURLData struct {
	URL        string `json:"url"`
	ExpireTime *int64 `json:"expireTime,omitempty"`
}

// DescribeContextFilesRequest pages through a context folder listing.
type DescribeContextFilesRequest struct {
	ContextID        string `json:"contextId"`
	ParentFolderPath string `json:"parentFolderPath"`
	PageNumber       int32  `json:"pageNumber,omitempty"`
	PageSize         int32  `json:"pageSize,omitempty"`
}

// ContextFileEntry describes a file or folder within a context.
type ContextFileEntry struct {
	FileID      string `json:"fileId"`
	FileName    string `json:"fileName"`
	FilePath    string `json:"filePath"`
	FileType    string `json:"fileType"`
	GmtCreate   string `json:"gmtCreate"`
	GmtModified string `json:"gmtModified"`
	Size        int64  `json:"size"`
	Status      string `json:"status"`
}

// DescribeContextFilesData is one page of a context folder listing.
type DescribeContextFilesData struct {
	Entries []ContextFileEntry `json:"entries"`
	Count   int32              `json:"count"`
}

// ListMcpToolsRequest enumerates the tools available for an image.
type ListMcpToolsRequest struct {
	ImageID string `json:"imageId"`
}

// CallMcpToolRequest invokes a tool through the managed plane.
// Args is the JSON-encoded argument bag.
type CallMcpToolRequest struct {
	SessionID      string `json:"sessionId"`
	Name           string `json:"name"`
	Args           string `json:"args"`
	AutoGenSession bool   `json:"autoGenSession,omitempty"`
}

// CallMcpToolData is the managed-plane tool result: a content list plus
// an error flag. On isError, the text fields carry the error description.
type CallMcpToolData struct {
	Content []ToolContent `json:"content"`
	IsError bool          `json:"isError"`
}

// ToolContent is one element of a tool result's content list.
type ToolContent struct {
	Text string `json:"text"`
}

// SetLabelRequest replaces a session's labels. Labels is JSON-encoded.
type SetLabelRequest struct {
	SessionID string `json:"sessionId"`
	Labels    string `json:"labels"`
}

// GetLabelRequest fetches a session's labels.
type GetLabelRequest struct {
	SessionID string `json:"sessionId"`
}

// GetLabelData carries the JSON-encoded labels of a session.
type GetLabelData struct {
	Labels string `json:"labels"`
}

// GetMcpResourceRequest fetches display/connection info for a session.
type GetMcpResourceRequest struct {
	SessionID string `json:"sessionId"`
}

// GetMcpResourceData describes the remote resource backing a session.
type GetMcpResourceData struct {
	SessionID   string       `json:"sessionId"`
	ResourceURL string       `json:"resourceUrl"`
	DesktopInfo *DesktopInfo `json:"desktopInfo,omitempty"`
}

// DesktopInfo holds connection properties for desktop sessions.
type DesktopInfo struct {
	AppID                string `json:"appId"`
	AuthCode             string `json:"authCode"`
	ConnectionProperties string `json:"connectionProperties"`
	ResourceID           string `json:"resourceId"`
	ResourceType         string `json:"resourceType"`
	Ticket               string `json:"ticket"`
}

// GetLinkRequest requests an access link for a session, optionally scoped
// to a protocol and port.
type GetLinkRequest struct {
	SessionID    string `json:"sessionId"`
	ProtocolType string `json:"protocolType,omitempty"`
	Port         *int32 `json:"port,omitempty"`
	Option       string `json:"option,omitempty"`
}

// GetLinkData carries the access link.
type GetLinkData struct {
	URL string `json:"url"`
}

// GetNetworkTokenRequest requests a short-lived network access token.
// Beta endpoint: retried on transient 503.
type GetNetworkTokenRequest struct {
	SessionID string `json:"sessionId"`
}

// GetNetworkTokenData carries the network token grant.
type GetNetworkTokenData struct {
	Token      string `json:"token"`
	ExpireTime *int64 `json:"expireTime,omitempty"`
}

// CreateVolumeRequest provisions a standalone volume.
// Beta endpoint: retried on transient 503.
type CreateVolumeRequest struct {
	Name string `json:"name"`
}

// VolumeData describes a standalone volume.
type VolumeData struct {
	VolumeID string `json:"volumeId"`
	Name     string `json:"name"`
	Status   string `json:"status"`
}

// DeleteVolumeRequest destroys a standalone volume.
// Beta endpoint: retried on transient 503.
type DeleteVolumeRequest struct {
	VolumeID string `json:"volumeId"`
}
