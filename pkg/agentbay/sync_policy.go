package agentbay

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Upload and download strategies understood by the sync engine.
const (
	UploadBeforeResourceRelease = "UploadBeforeResourceRelease"
	UploadPeriodically          = "UploadPeriodically"
	DownloadAsync               = "DownloadAsync"
	DownloadSync                = "DownloadSync"
)

// Lifecycle controls how long context data is retained before the recycle
// policy removes it.
type Lifecycle string

// Available recycle lifecycles.
const (
	Lifecycle1Day    Lifecycle = "Lifecycle_1Day"
	Lifecycle3Days   Lifecycle = "Lifecycle_3Days"
	Lifecycle5Days   Lifecycle = "Lifecycle_5Days"
	Lifecycle10Days  Lifecycle = "Lifecycle_10Days"
	Lifecycle30Days  Lifecycle = "Lifecycle_30Days"
	LifecycleForever Lifecycle = "Lifecycle_Forever"
)

// UploadPolicy controls when session data is uploaded into the context.
type UploadPolicy struct {
	AutoUpload     bool   `json:"autoUpload"`
	UploadStrategy string `json:"uploadStrategy"`
	Period         *int   `json:"period,omitempty"`
}

// NewUploadPolicy returns the default upload policy: automatic upload
// before resource release.
func NewUploadPolicy() *UploadPolicy {
	return &UploadPolicy{
		AutoUpload:     true,
		UploadStrategy: UploadBeforeResourceRelease,
	}
}

// DownloadPolicy controls how context data is materialized into a session.
type DownloadPolicy struct {
	AutoDownload     bool   `json:"autoDownload"`
	DownloadStrategy string `json:"downloadStrategy"`
}

// NewDownloadPolicy returns the default download policy: asynchronous
// automatic download.
func NewDownloadPolicy() *DownloadPolicy {
	return &DownloadPolicy{
		AutoDownload:     true,
		DownloadStrategy: DownloadAsync,
	}
}

// DeletePolicy controls whether local deletions propagate to the context.
type DeletePolicy struct {
	SyncLocalFile bool `json:"syncLocalFile"`
}

// NewDeletePolicy returns the default delete policy.
func NewDeletePolicy() *DeletePolicy {
	return &DeletePolicy{SyncLocalFile: true}
}

// ExtractPolicy controls archive extraction on download.
type ExtractPolicy struct {
	Extract                bool `json:"extract"`
	DeleteSrcFile          bool `json:"deleteSrcFile"`
	ExtractToCurrentFolder bool `json:"extractToCurrentFolder"`
}

// RecyclePolicy controls the lifecycle of context data. An empty Paths
// slice applies the lifecycle to the whole context.
type RecyclePolicy struct {
	Lifecycle Lifecycle `json:"lifecycle"`
	Paths     []string  `json:"paths"`
}

// NewRecyclePolicy returns the default recycle policy: keep forever.
func NewRecyclePolicy() *RecyclePolicy {
	return &RecyclePolicy{
		Lifecycle: LifecycleForever,
		Paths:     []string{},
	}
}

// WhiteList restricts syncing to a directory subtree, with optional
// excluded subpaths.
type WhiteList struct {
	Path         string   `json:"path"`
	ExcludePaths []string `json:"excludePaths,omitempty"`
}

// BWList holds the sync whitelist set.
type BWList struct {
	WhiteLists []*WhiteList `json:"whiteLists"`
}

// SyncPolicy is the full nested policy attached to a ContextSync.
type SyncPolicy struct {
	UploadPolicy   *UploadPolicy   `json:"uploadPolicy,omitempty"`
	DownloadPolicy *DownloadPolicy `json:"downloadPolicy,omitempty"`
	DeletePolicy   *DeletePolicy   `json:"deletePolicy,omitempty"`
	ExtractPolicy  *ExtractPolicy  `json:"extractPolicy,omitempty"`
	RecyclePolicy  *RecyclePolicy  `json:"recyclePolicy,omitempty"`
	BWList         *BWList         `json:"bwList,omitempty"`
}

// NewSyncPolicy returns a policy with all defaults filled in.
func NewSyncPolicy() *SyncPolicy {
	return &SyncPolicy{
		UploadPolicy:   NewUploadPolicy(),
		DownloadPolicy: NewDownloadPolicy(),
		DeletePolicy:   NewDeletePolicy(),
		RecyclePolicy:  NewRecyclePolicy(),
	}
}

// ContextSync attaches a context volume to a session at a mount path with
// an optional sync policy.
type ContextSync struct {
	ContextID string
	Path      string
	Policy    *SyncPolicy
}

// wildcardMeta are the glob metacharacters forbidden in whitelist and
// recycle paths: the server expects exact directories.
const wildcardMeta = "*?[]"

// NewContextSync builds a ContextSync, validating the policy's whitelist
// and recycle paths against wildcard metacharacters.
func NewContextSync(contextID, path string, policy *SyncPolicy) (*ContextSync, error) {
	if contextID == "" {
		return nil, fmt.Errorf("context sync: contextId is required")
	}

	if path == "" {
		return nil, fmt.Errorf("context sync: path is required")
	}

	if err := validatePolicy(policy); err != nil {
		return nil, err
	}

	return &ContextSync{ContextID: contextID, Path: path, Policy: policy}, nil
}

// validatePolicy rejects wildcard metacharacters in whitelist and recycle
// paths. A nil policy is valid (server defaults apply).
func validatePolicy(policy *SyncPolicy) error {
	if policy == nil {
		return nil
	}

	if policy.BWList != nil {
		for _, wl := range policy.BWList.WhiteLists {
			if wl == nil {
				continue
			}

			if err := checkExactPath("whitelist path", wl.Path); err != nil {
				return err
			}

			for _, ex := range wl.ExcludePaths {
				if err := checkExactPath("whitelist exclude path", ex); err != nil {
					return err
				}
			}
		}
	}

	if policy.RecyclePolicy != nil {
		for _, p := range policy.RecyclePolicy.Paths {
			if err := checkExactPath("recycle path", p); err != nil {
				return err
			}
		}
	}

	return nil
}

func checkExactPath(kind, path string) error {
	if strings.ContainsAny(path, wildcardMeta) {
		return fmt.Errorf("context sync: %s %q must be an exact directory (no wildcard characters * ? [ ])", kind, path)
	}

	return nil
}

// encodePolicy serializes a policy for the wire. Nil policies encode as
// the empty string, letting the server apply its defaults.
func encodePolicy(policy *SyncPolicy) (string, error) {
	if policy == nil {
		return "", nil
	}

	raw, err := json.Marshal(policy)
	if err != nil {
		return "", fmt.Errorf("encoding sync policy: %w", err)
	}

	return string(raw), nil
}
