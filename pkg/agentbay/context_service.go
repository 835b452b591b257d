package agentbay

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/agentbay/agentbay-go/internal/wire"
)

// Default paging for context listings.
const (
	defaultContextPageSize = 10
	defaultFilePageNumber  = 1
	defaultFilePageSize    = 50
)

// Context is a named persistent volume, global to the tenant, attachable
// to sessions at mount paths. Its file tree is addressable by
// (contextID, filePath) through presigned URLs.
type Context struct {
	ID         string
	Name       string
	CreatedAt  string
	LastUsedAt string
}

// ContextResult is returned by ContextService.Get and Create.
type ContextResult struct {
	APIResponse
	Success      bool
	ErrorMessage string
	ContextID    string
	Context      *Context
}

// ContextListResult is one page of contexts.
type ContextListResult struct {
	APIResponse
	Success      bool
	ErrorMessage string
	Contexts     []*Context
	NextToken    string
	TotalCount   int32
}

// ContextFileURLResult is a presigned URL grant for a context file.
type ContextFileURLResult struct {
	APIResponse
	Success      bool
	ErrorMessage string
	URL          string
	ExpireTime   *int64
}

// ContextFileEntry describes one file or folder in a context listing.
type ContextFileEntry struct {
	FileID      string
	FileName    string
	FilePath    string
	FileType    string
	GmtCreate   string
	GmtModified string
	Size        int64
	Status      string
}

// ContextFileListResult is one page of a context folder listing.
type ContextFileListResult struct {
	APIResponse
	Success      bool
	ErrorMessage string
	Entries      []ContextFileEntry
	Count        int32
}

// ContextListParams pages through ListContexts.
type ContextListParams struct {
	MaxResults int32
	NextToken  string
}

// ContextService provides global context CRUD and presigned file
// operations. It is shared by all sessions of a Client.
type ContextService struct {
	api    *wire.Client
	logger *slog.Logger
}

func newContextService(api *wire.Client, logger *slog.Logger) *ContextService {
	return &ContextService{api: api, logger: logger}
}

// List returns one page of the tenant's contexts. A nil params lists the
// first page with the default page size.
func (s *ContextService) List(ctx context.Context, params *ContextListParams) (*ContextListResult, error) {
	req := &wire.ListContextsRequest{MaxResults: defaultContextPageSize}
	if params != nil {
		if params.MaxResults > 0 {
			req.MaxResults = params.MaxResults
		}

		req.NextToken = params.NextToken
	}

	var data wire.ListContextsData

	requestID, err := s.api.Invoke(ctx, "ListContexts", req, &data)
	if err != nil {
		if msg, ok := expectedFailure(err); ok {
			return &ContextListResult{
				APIResponse:  APIResponse{RequestID: requestID},
				ErrorMessage: msg,
			}, nil
		}

		return nil, err
	}

	contexts := make([]*Context, 0, len(data.Contexts))
	for _, item := range data.Contexts {
		contexts = append(contexts, &Context{
			ID:         item.ID,
			Name:       item.Name,
			CreatedAt:  item.CreateTime,
			LastUsedAt: item.LastUsedTime,
		})
	}

	return &ContextListResult{
		APIResponse: APIResponse{RequestID: requestID},
		Success:     true,
		Contexts:    contexts,
		NextToken:   data.NextToken,
		TotalCount:  data.TotalCount,
	}, nil
}

// Get fetches a context by name, optionally creating it. When the server
// returns only an id, the metadata is hydrated via a follow-up List; if
// that also fails, a minimal {ID, Name} Context is returned. Get with
// create=true is idempotent by name.
func (s *ContextService) Get(ctx context.Context, name string, create bool) (*ContextResult, error) {
	if name == "" {
		return nil, fmt.Errorf("context name is required")
	}

	var data wire.GetContextData

	requestID, err := s.api.Invoke(ctx, "GetContext",
		&wire.GetContextRequest{Name: name, AllowCreate: create}, &data)
	if err != nil {
		if msg, ok := expectedFailure(err); ok {
			return &ContextResult{
				APIResponse:  APIResponse{RequestID: requestID},
				ErrorMessage: msg,
			}, nil
		}

		return nil, err
	}

	if data.ID == "" {
		return &ContextResult{
			APIResponse:  APIResponse{RequestID: requestID},
			ErrorMessage: fmt.Sprintf("context %q not found", name),
		}, nil
	}

	result := &ContextResult{
		APIResponse: APIResponse{RequestID: requestID},
		Success:     true,
		ContextID:   data.ID,
		Context:     &Context{ID: data.ID, Name: name},
	}

	// Hydrate createdAt/lastUsedAt from a listing; a failure here is
	// non-fatal and leaves the minimal context in place.
	if hydrated := s.hydrate(ctx, data.ID); hydrated != nil {
		result.Context = hydrated
	}

	return result, nil
}

// hydrate looks up full context metadata by id via ListContexts.
// Returns nil when the context cannot be found or the listing fails.
func (s *ContextService) hydrate(ctx context.Context, id string) *Context {
	listResult, err := s.List(ctx, &ContextListParams{MaxResults: 100})
	if err != nil || !listResult.Success {
		s.logger.Debug("context hydration listing failed", slog.String("context_id", id))
		return nil
	}

	for _, c := range listResult.Contexts {
		if c.ID == id {
			return c
		}
	}

	return nil
}

// Create creates (or fetches) a context by name.
func (s *ContextService) Create(ctx context.Context, name string) (*ContextResult, error) {
	return s.Get(ctx, name, true)
}

// Update renames a context. Only the name is mutable.
func (s *ContextService) Update(ctx context.Context, c *Context) (*OperationResult, error) {
	if c == nil || c.ID == "" {
		return nil, fmt.Errorf("context with a non-empty id is required")
	}

	requestID, err := s.api.Invoke(ctx, "ModifyContext",
		&wire.ModifyContextRequest{ID: c.ID, Name: c.Name}, nil)
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

// Delete destroys a context and its data.
func (s *ContextService) Delete(ctx context.Context, c *Context) (*OperationResult, error) {
	if c == nil || c.ID == "" {
		return nil, fmt.Errorf("context with a non-empty id is required")
	}

	requestID, err := s.api.Invoke(ctx, "DeleteContext",
		&wire.DeleteContextRequest{ID: c.ID}, nil)
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

// GetFileUploadURL requests a presigned PUT URL for a context file path.
func (s *ContextService) GetFileUploadURL(ctx context.Context, contextID, filePath string) (*ContextFileURLResult, error) {
	return s.fileURL(ctx, "GetContextFileUploadUrl", contextID, filePath)
}

// GetFileDownloadURL requests a presigned GET URL for a context file path.
func (s *ContextService) GetFileDownloadURL(ctx context.Context, contextID, filePath string) (*ContextFileURLResult, error) {
	return s.fileURL(ctx, "GetContextFileDownloadUrl", contextID, filePath)
}

func (s *ContextService) fileURL(ctx context.Context, action, contextID, filePath string) (*ContextFileURLResult, error) {
	var data wire.ContextFileURLData

	requestID, err := s.api.Invoke(ctx, action,
		&wire.ContextFileRequest{ContextID: contextID, FilePath: filePath}, &data)
	if err != nil {
		if msg, ok := expectedFailure(err); ok {
			return &ContextFileURLResult{
				APIResponse:  APIResponse{RequestID: requestID},
				ErrorMessage: msg,
			}, nil
		}

		return nil, err
	}

	return &ContextFileURLResult{
		APIResponse: APIResponse{RequestID: requestID},
		Success:     true,
		URL:         data.URL,
		ExpireTime:  data.ExpireTime,
	}, nil
}

// DeleteFile removes a file from a context.
func (s *ContextService) DeleteFile(ctx context.Context, contextID, filePath string) (*OperationResult, error) {
	requestID, err := s.api.Invoke(ctx, "DeleteContextFile",
		&wire.ContextFileRequest{ContextID: contextID, FilePath: filePath}, nil)
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

// ListFiles pages through the files under parentFolderPath in a context.
// pageNumber and pageSize fall back to 1 and 50 when non-positive.
func (s *ContextService) ListFiles(
	ctx context.Context, contextID, parentFolderPath string, pageNumber, pageSize int32,
) (*ContextFileListResult, error) {
	if pageNumber <= 0 {
		pageNumber = defaultFilePageNumber
	}

	if pageSize <= 0 {
		pageSize = defaultFilePageSize
	}

	var data wire.DescribeContextFilesData

	requestID, err := s.api.Invoke(ctx, "DescribeContextFiles", &wire.DescribeContextFilesRequest{
		ContextID:        contextID,
		ParentFolderPath: parentFolderPath,
		PageNumber:       pageNumber,
		PageSize:         pageSize,
	}, &data)
	if err != nil {
		if msg, ok := expectedFailure(err); ok {
			return &ContextFileListResult{
				APIResponse:  APIResponse{RequestID: requestID},
				ErrorMessage: msg,
			}, nil
		}

		return nil, err
	}

	entries := make([]ContextFileEntry, 0, len(data.Entries))
	for _, e := range data.Entries {
		entries = append(entries, ContextFileEntry{
			FileID:      e.FileID,
			FileName:    e.FileName,
			FilePath:    e.FilePath,
			FileType:    e.FileType,
			GmtCreate:   e.GmtCreate,
			GmtModified: e.GmtModified,
			Size:        e.Size,
			Status:      e.Status,
		})
	}

	return &ContextFileListResult{
		APIResponse: APIResponse{RequestID: requestID},
		Success:     true,
		Entries:     entries,
		Count:       data.Count,
	}, nil
}
