package agentbay

import (
	"context"
	"encoding/json"
	"fmt"
)

// FileChangeEvent is one change observed inside the session's filesystem.
type FileChangeEvent struct {
	EventType string `json:"eventType"`
	Path      string `json:"path"`
	PathType  string `json:"pathType"`
}

func (e FileChangeEvent) String() string {
	return fmt.Sprintf("%s %s (%s)", e.EventType, e.Path, e.PathType)
}

// FileSystem operates on the session's remote filesystem through tool
// calls.
type FileSystem struct {
	session *Session
}

// ReadFile returns the content of a remote file in the result's Data.
func (f *FileSystem) ReadFile(ctx context.Context, path string) (*ToolResult, error) {
	return f.session.CallTool(ctx, "read_file", map[string]any{"path": path}, false)
}

// WriteFile writes content to a remote file. mode is "overwrite" or
// "append"; empty selects overwrite.
func (f *FileSystem) WriteFile(ctx context.Context, path, content, mode string) (*ToolResult, error) {
	if mode == "" {
		mode = "overwrite"
	}

	return f.session.CallTool(ctx, "write_file", map[string]any{
		"path":    path,
		"content": content,
		"mode":    mode,
	}, false)
}

// CreateDirectory creates a remote directory, including parents.
func (f *FileSystem) CreateDirectory(ctx context.Context, path string) (*ToolResult, error) {
	return f.session.CallTool(ctx, "create_directory", map[string]any{"path": path}, false)
}

// ListDirectory lists the entries of a remote directory.
func (f *FileSystem) ListDirectory(ctx context.Context, path string) (*ToolResult, error) {
	return f.session.CallTool(ctx, "list_directory", map[string]any{"path": path}, false)
}

// GetFileChange returns the changes observed under path since the last
// call. The server tracks the change state; the client only polls.
func (f *FileSystem) GetFileChange(ctx context.Context, path string) ([]FileChangeEvent, error) {
	result, err := f.session.CallTool(ctx, "get_file_change", map[string]any{"path": path}, false)
	if err != nil {
		return nil, err
	}

	if !result.Success {
		return nil, fmt.Errorf("get_file_change failed: %s", result.ErrorMessage)
	}

	return parseFileChanges(result.Data)
}

// parseFileChanges decodes the get_file_change payload: a JSON object
// with an events array, or a bare array in older images.
func parseFileChanges(raw string) ([]FileChangeEvent, error) {
	if raw == "" {
		return nil, nil
	}

	var wrapped struct {
		Events []FileChangeEvent `json:"events"`
	}

	if err := json.Unmarshal([]byte(raw), &wrapped); err == nil && wrapped.Events != nil {
		return wrapped.Events, nil
	}

	var events []FileChangeEvent
	if err := json.Unmarshal([]byte(raw), &events); err != nil {
		return nil, fmt.Errorf("parsing file changes: %w", err)
	}

	return events, nil
}
