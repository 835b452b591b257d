package agentbay

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path"
	"strings"
	"time"
)

// Extension is a packaged browser extension stored in an extension
// context under ExtensionsBasePath.
type Extension struct {
	ID        string
	Name      string
	CreatedAt string
}

// ExtensionOption injects a set of stored extensions into a browser
// session. Produced by ExtensionService.CreateExtensionOption.
type ExtensionOption struct {
	ContextID    string
	ExtensionIDs []string
}

// extensionContextSync expands an ExtensionOption into its mount: the
// extension context at ExtensionsBasePath, downloaded eagerly so the
// extensions are unpacked before the browser starts.
func (o *ExtensionOption) extensionContextSync() (*ContextSync, error) {
	if o.ContextID == "" {
		return nil, fmt.Errorf("extension option: contextId is required")
	}

	if len(o.ExtensionIDs) == 0 {
		return nil, fmt.Errorf("extension option: at least one extension id is required")
	}

	whiteLists := make([]*WhiteList, 0, len(o.ExtensionIDs))
	for _, id := range o.ExtensionIDs {
		whiteLists = append(whiteLists, &WhiteList{Path: "/" + id, ExcludePaths: []string{}})
	}

	policy := NewSyncPolicy()
	policy.UploadPolicy.AutoUpload = false
	policy.BWList = &BWList{WhiteLists: whiteLists}

	return &ContextSync{ContextID: o.ContextID, Path: ExtensionsBasePath, Policy: policy}, nil
}

// ExtensionService stores packaged browser extensions as context files.
// With an empty context name the service lazily creates a dedicated
// context ("extensions-<unix>") and Cleanup later removes it.
type ExtensionService struct {
	client      *Client
	contextName string
	contextID   string
	autoCreated bool
	logger      *slog.Logger
}

// NewExtensionService binds an extension repository to a context by name.
// Pass "" to use an auto-created dedicated context.
func NewExtensionService(client *Client, contextName string) *ExtensionService {
	auto := contextName == ""
	if auto {
		contextName = fmt.Sprintf("extensions-%d", time.Now().Unix())
	}

	return &ExtensionService{
		client:      client,
		contextName: contextName,
		autoCreated: auto,
		logger:      client.logger,
	}
}

// ensureContext resolves (creating if needed) the backing context id.
func (s *ExtensionService) ensureContext(ctx context.Context) (string, error) {
	if s.contextID != "" {
		return s.contextID, nil
	}

	result, err := s.client.ContextService.Get(ctx, s.contextName, true)
	if err != nil {
		return "", err
	}

	if !result.Success {
		return "", fmt.Errorf("resolving extension context %q: %s", s.contextName, result.ErrorMessage)
	}

	s.contextID = result.ContextID

	return s.contextID, nil
}

// newExtensionID generates the storage id: ext_<16 hex>.zip.
func newExtensionID() string {
	buf := make([]byte, 8)
	rand.Read(buf)

	return "ext_" + hex.EncodeToString(buf) + ".zip"
}

// extensionPath is the context file path for an extension id.
func extensionPath(id string) string {
	return path.Join(ExtensionsBasePath, id)
}

// Create uploads a local .zip extension package and returns its stored
// Extension. Only .zip packages are accepted.
func (s *ExtensionService) Create(ctx context.Context, localPath string) (*Extension, error) {
	if !strings.HasSuffix(strings.ToLower(localPath), ".zip") {
		return nil, fmt.Errorf("%s: extension packages must be .zip files", localPath)
	}

	if _, err := os.Stat(localPath); err != nil {
		return nil, fmt.Errorf("extension package: %w", err)
	}

	contextID, err := s.ensureContext(ctx)
	if err != nil {
		return nil, err
	}

	id := newExtensionID()
	if err := s.uploadPackage(ctx, contextID, id, localPath); err != nil {
		return nil, err
	}

	s.logger.Info("extension created",
		slog.String("extension_id", id),
		slog.String("context_id", contextID),
	)

	return &Extension{ID: id, Name: path.Base(localPath)}, nil
}

// Update replaces the package of an existing extension id.
func (s *ExtensionService) Update(ctx context.Context, extensionID, localPath string) (*Extension, error) {
	if !strings.HasSuffix(strings.ToLower(localPath), ".zip") {
		return nil, fmt.Errorf("%s: extension packages must be .zip files", localPath)
	}

	contextID, err := s.ensureContext(ctx)
	if err != nil {
		return nil, err
	}

	existing, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	found := false

	for _, e := range existing {
		if e.ID == extensionID {
			found = true
			break
		}
	}

	if !found {
		return nil, fmt.Errorf("extension %s not found in context %s", extensionID, contextID)
	}

	if err := s.uploadPackage(ctx, contextID, extensionID, localPath); err != nil {
		return nil, err
	}

	return &Extension{ID: extensionID, Name: path.Base(localPath)}, nil
}

// uploadPackage PUTs the package through a presigned URL.
func (s *ExtensionService) uploadPackage(ctx context.Context, contextID, extensionID, localPath string) error {
	grant, err := s.client.ContextService.GetFileUploadURL(ctx, contextID, extensionPath(extensionID))
	if err != nil {
		return err
	}

	if !grant.Success {
		return fmt.Errorf("requesting upload url: %s", grant.ErrorMessage)
	}

	file, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("opening %s: %w", localPath, err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", localPath, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, grant.URL, file)
	if err != nil {
		return fmt.Errorf("creating upload request: %w", err)
	}

	req.ContentLength = stat.Size()
	req.Header.Set("Content-Type", "application/zip")

	resp, err := s.client.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("uploading extension: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("extension upload failed with HTTP %d", resp.StatusCode)
	}

	return nil
}

// List enumerates the stored extensions.
func (s *ExtensionService) List(ctx context.Context) ([]*Extension, error) {
	contextID, err := s.ensureContext(ctx)
	if err != nil {
		return nil, err
	}

	listing, err := s.client.ContextService.ListFiles(ctx, contextID, ExtensionsBasePath, 1, defaultFilePageSize)
	if err != nil {
		return nil, err
	}

	if !listing.Success {
		return nil, fmt.Errorf("listing extensions: %s", listing.ErrorMessage)
	}

	extensions := make([]*Extension, 0, len(listing.Entries))

	for _, entry := range listing.Entries {
		if entry.FileType == "folder" {
			continue
		}

		extensions = append(extensions, &Extension{
			ID:        entry.FileName,
			Name:      entry.FileName,
			CreatedAt: entry.GmtCreate,
		})
	}

	return extensions, nil
}

// Delete removes a stored extension package.
func (s *ExtensionService) Delete(ctx context.Context, extensionID string) error {
	contextID, err := s.ensureContext(ctx)
	if err != nil {
		return err
	}

	result, err := s.client.ContextService.DeleteFile(ctx, contextID, extensionPath(extensionID))
	if err != nil {
		return err
	}

	if !result.Success {
		return fmt.Errorf("deleting extension %s: %s", extensionID, result.ErrorMessage)
	}

	return nil
}

// CreateExtensionOption bundles stored extension ids for session creation.
// The service's context must already be resolved (any prior Create or List
// does that).
func (s *ExtensionService) CreateExtensionOption(ctx context.Context, extensionIDs []string) (*ExtensionOption, error) {
	contextID, err := s.ensureContext(ctx)
	if err != nil {
		return nil, err
	}

	if len(extensionIDs) == 0 {
		return nil, fmt.Errorf("at least one extension id is required")
	}

	return &ExtensionOption{ContextID: contextID, ExtensionIDs: extensionIDs}, nil
}

// Cleanup deletes the backing context when this service auto-created it.
// A named (caller-owned) context is left alone.
func (s *ExtensionService) Cleanup(ctx context.Context) error {
	if !s.autoCreated || s.contextID == "" {
		return nil
	}

	result, err := s.client.ContextService.Delete(ctx, &Context{ID: s.contextID})
	if err != nil {
		return err
	}

	if !result.Success {
		return fmt.Errorf("cleaning up extension context: %s", result.ErrorMessage)
	}

	s.contextID = ""

	return nil
}
