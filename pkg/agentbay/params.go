package agentbay

import (
	"encoding/json"
	"fmt"
)

// Well-known mount paths inside the session VM.
const (
	// FileTransferPath is where the implicit file-transfer context mounts.
	FileTransferPath = "/temp/file-transfer"

	// BrowserDataPath is where Chromium persists user data.
	BrowserDataPath = "/tmp/agentbay_browser"

	// BrowserRecordPath is where browser replay recordings accumulate.
	BrowserRecordPath = "/home/guest/record"

	// ExtensionsBasePath is where browser extensions are stored within
	// the extension context.
	ExtensionsBasePath = "/tmp/extensions"
)

// BrowserContext binds a session to a context that persists browser state
// (cookies, local storage) across sessions.
type BrowserContext struct {
	// ContextID identifies the context holding the browser data.
	ContextID string

	// AutoUpload uploads browser data back to the context on release.
	AutoUpload bool

	// ExtensionOption optionally injects packaged browser extensions.
	ExtensionOption *ExtensionOption
}

// NewBrowserContext creates a BrowserContext with AutoUpload enabled.
func NewBrowserContext(contextID string) *BrowserContext {
	return &BrowserContext{ContextID: contextID, AutoUpload: true}
}

// CreateSessionParams configures Client.Create.
type CreateSessionParams struct {
	// Labels tag the session for later listing.
	Labels map[string]string

	// ImageID selects the session image (e.g. "linux_latest").
	ImageID string

	// ContextSyncs attaches persistent context volumes.
	ContextSyncs []*ContextSync

	// BrowserContext persists browser state across sessions.
	BrowserContext *BrowserContext

	// IsVpc requests a VPC-isolated session whose tool traffic flows
	// directly to an in-VPC endpoint.
	IsVpc bool

	// PolicyID selects a server-side MCP policy.
	PolicyID string

	// EnableBrowserReplay records browser events into a dedicated context.
	EnableBrowserReplay bool
}

// NewCreateSessionParams returns empty params ready for field assignment.
func NewCreateSessionParams() *CreateSessionParams {
	return &CreateSessionParams{Labels: map[string]string{}}
}

// labelsJSON encodes the labels map for the wire. An empty or nil map
// encodes as the empty string.
func (p *CreateSessionParams) labelsJSON() (string, error) {
	if len(p.Labels) == 0 {
		return "", nil
	}

	raw, err := json.Marshal(p.Labels)
	if err != nil {
		return "", fmt.Errorf("encoding labels: %w", err)
	}

	return string(raw), nil
}

// browserContextSync expands the browser context into its mount: the
// browser data path with a minimal upload-only policy restricted to the
// files Chromium needs for state restoration.
func (p *CreateSessionParams) browserContextSync() (*ContextSync, error) {
	bc := p.BrowserContext
	if bc == nil {
		return nil, nil
	}

	if bc.ContextID == "" {
		return nil, fmt.Errorf("browser context: contextId is required")
	}

	upload := NewUploadPolicy()
	upload.AutoUpload = bc.AutoUpload

	policy := &SyncPolicy{
		UploadPolicy: upload,
		BWList: &BWList{
			WhiteLists: []*WhiteList{
				{Path: "/Local State", ExcludePaths: []string{}},
				{Path: "/Default/Cookies", ExcludePaths: []string{}},
				{Path: "/Default/Cookies-journal", ExcludePaths: []string{}},
			},
		},
		RecyclePolicy: NewRecyclePolicy(),
	}

	return &ContextSync{ContextID: bc.ContextID, Path: BrowserDataPath, Policy: policy}, nil
}

// ValidateLabels enforces the client-side labels contract: a non-empty map
// from non-empty string keys to non-empty string values.
func ValidateLabels(labels map[string]string) error {
	if len(labels) == 0 {
		return fmt.Errorf("labels must be a non-empty map of string to string")
	}

	for k, v := range labels {
		if k == "" {
			return fmt.Errorf("label keys must be non-empty strings")
		}

		if v == "" {
			return fmt.Errorf("label value for %q must be a non-empty string", k)
		}
	}

	return nil
}
