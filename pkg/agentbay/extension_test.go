package agentbay

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var extensionIDPattern = regexp.MustCompile(`^ext_[0-9a-f]{16}\.zip$`)

func TestNewExtensionID(t *testing.T) {
	seen := map[string]bool{}

	for i := 0; i < 10; i++ {
		id := newExtensionID()
		assert.Regexp(t, extensionIDPattern, id)
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func writeTempZip(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "my-extension.zip")
	require.NoError(t, os.WriteFile(path, []byte("PK\x03\x04fake"), 0o644))

	return path
}

func TestExtensionCreate(t *testing.T) {
	var uploadedPath string

	storage := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		io.Copy(io.Discard, r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(storage.Close)

	f := newFakeAPI(t)
	f.respond("GetContext", map[string]any{"id": "ctx-ext"})
	f.respond("ListContexts", map[string]any{"contexts": []any{}})
	f.handle("GetContextFileUploadUrl", func(w http.ResponseWriter, _ *http.Request) {
		uploadedPath, _ = f.lastBody("GetContextFileUploadUrl")["filePath"].(string)
		writeOK(t, w, map[string]any{"url": storage.URL})
	})

	c := newTestClient(t, f)
	svc := NewExtensionService(c, "my-extensions")

	ext, err := svc.Create(context.Background(), writeTempZip(t))
	require.NoError(t, err)

	assert.Regexp(t, extensionIDPattern, ext.ID)
	assert.Equal(t, "my-extension.zip", ext.Name)
	assert.Equal(t, ExtensionsBasePath+"/"+ext.ID, uploadedPath)
}

func TestExtensionCreateRejectsNonZip(t *testing.T) {
	c := newTestClient(t, newFakeAPI(t))
	svc := NewExtensionService(c, "my-extensions")

	path := filepath.Join(t.TempDir(), "bundle.tar.gz")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	_, err := svc.Create(context.Background(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be .zip")
}

func TestExtensionCreateRejectsMissingFile(t *testing.T) {
	c := newTestClient(t, newFakeAPI(t))
	svc := NewExtensionService(c, "my-extensions")

	_, err := svc.Create(context.Background(), filepath.Join(t.TempDir(), "nope.zip"))
	require.Error(t, err)
}

func TestExtensionList(t *testing.T) {
	f := newFakeAPI(t)
	f.respond("GetContext", map[string]any{"id": "ctx-ext"})
	f.respond("ListContexts", map[string]any{"contexts": []any{}})
	f.respond("DescribeContextFiles", map[string]any{
		"entries": []any{
			map[string]any{
				"fileName":  "ext_0011223344556677.zip",
				"filePath":  "/tmp/extensions/ext_0011223344556677.zip",
				"fileType":  "file",
				"gmtCreate": "2026-08-01T10:00:00Z",
			},
			map[string]any{"fileName": "subfolder", "fileType": "folder"},
		},
		"count": 2,
	})

	c := newTestClient(t, f)
	svc := NewExtensionService(c, "my-extensions")

	extensions, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, extensions, 1)

	assert.Equal(t, "ext_0011223344556677.zip", extensions[0].ID)
	assert.Equal(t, "2026-08-01T10:00:00Z", extensions[0].CreatedAt)

	body := f.lastBody("DescribeContextFiles")
	assert.Equal(t, ExtensionsBasePath, body["parentFolderPath"])
}

func TestExtensionDelete(t *testing.T) {
	f := newFakeAPI(t)
	f.respond("GetContext", map[string]any{"id": "ctx-ext"})
	f.respond("ListContexts", map[string]any{"contexts": []any{}})
	f.respond("DeleteContextFile", nil)

	c := newTestClient(t, f)
	svc := NewExtensionService(c, "my-extensions")

	require.NoError(t, svc.Delete(context.Background(), "ext_0011223344556677.zip"))

	body := f.lastBody("DeleteContextFile")
	assert.Equal(t, "ctx-ext", body["contextId"])
	assert.Equal(t, "/tmp/extensions/ext_0011223344556677.zip", body["filePath"])
}

func TestExtensionCleanupOnlyAutoCreated(t *testing.T) {
	f := newFakeAPI(t)
	f.respond("GetContext", map[string]any{"id": "ctx-ext"})
	f.respond("ListContexts", map[string]any{"contexts": []any{}})
	f.respond("DeleteContext", nil)

	c := newTestClient(t, f)

	// Named context: cleanup is a no-op.
	named := NewExtensionService(c, "my-extensions")
	_, err := named.ensureContext(context.Background())
	require.NoError(t, err)

	require.NoError(t, named.Cleanup(context.Background()))
	assert.Zero(t, f.count("DeleteContext"))

	// Auto-created context: cleanup deletes it.
	auto := NewExtensionService(c, "")
	_, err = auto.ensureContext(context.Background())
	require.NoError(t, err)

	require.NoError(t, auto.Cleanup(context.Background()))
	assert.Equal(t, 1, f.count("DeleteContext"))
}

func TestExtensionOptionFromService(t *testing.T) {
	f := newFakeAPI(t)
	f.respond("GetContext", map[string]any{"id": "ctx-ext"})
	f.respond("ListContexts", map[string]any{"contexts": []any{}})

	c := newTestClient(t, f)
	svc := NewExtensionService(c, "my-extensions")

	opt, err := svc.CreateExtensionOption(context.Background(), []string{"ext_0011223344556677.zip"})
	require.NoError(t, err)

	assert.Equal(t, "ctx-ext", opt.ContextID)
	assert.Equal(t, []string{"ext_0011223344556677.zip"}, opt.ExtensionIDs)

	_, err = svc.CreateExtensionOption(context.Background(), nil)
	require.Error(t, err)
}
