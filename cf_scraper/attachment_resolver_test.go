package cf_scraper

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lmeunier/confarc/model"
	"github.com/lmeunier/confarc/utils"
)

func TestAttachmentFilename(t *testing.T) {
	ref := model.Attachment{Name: "diagram.png", Version: 2}
	require.Equal(t, "diagram_version2.png", AttachmentFilename(ref))

	// Same version always maps to the same name
	require.Equal(t, AttachmentFilename(ref), AttachmentFilename(ref))

	// Distinct versions never collide
	ref.Version = 3
	require.Equal(t, "diagram_version3.png", AttachmentFilename(ref))

	// Slugged stem, full suffix chain kept
	ref = model.Attachment{Name: "My Report (final).tar.gz", Version: 1}
	require.Equal(t, "my-report-final_version1.tar.gz", AttachmentFilename(ref))
}

func TestResolveDownloadsOnce(t *testing.T) {
	var hits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		fmt.Fprint(w, "png-bytes")
	}))
	defer server.Close()

	root := t.TempDir()
	client := NewClient(server.URL, "MS", "", "")
	resolver := NewAttachmentResolver(client, root)

	refs := []model.Attachment{{
		Name:        "diagram.png",
		Version:     2,
		DownloadURL: "/download/attachments/123/diagram.png?version=2",
	}}

	locals, err := resolver.Resolve("123", refs)
	require.NoError(t, err)
	require.Len(t, locals, 1)
	require.True(t, locals[0].Downloaded)
	require.Equal(t, filepath.Join(root, "attachments", "123", "diagram_version2.png"), locals[0].LocalPath)
	require.Equal(t, 2, hits) // original + thumbnail

	first, err := os.ReadFile(locals[0].LocalPath)
	require.NoError(t, err)
	require.Equal(t, "png-bytes", string(first))

	// Second run: nothing re-downloaded, files byte-identical
	locals, err = resolver.Resolve("123", refs)
	require.NoError(t, err)
	require.False(t, locals[0].Downloaded)
	require.Equal(t, 2, hits)

	second, err := os.ReadFile(locals[0].LocalPath)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestResolveTrustsExistingFile(t *testing.T) {
	// No server at all: a pre-existing file must mean no network call
	root := t.TempDir()
	client := NewClient("http://127.0.0.1:0", "MS", "", "")
	resolver := NewAttachmentResolver(client, root)

	for _, dir := range []string{"attachments", "thumbnails"} {
		path := filepath.Join(root, dir, "123", "diagram_version2.png")
		require.NoError(t, utils.EnsureDir(filepath.Dir(path)))
		require.NoError(t, os.WriteFile(path, []byte("existing"), 0644))
	}

	refs := []model.Attachment{{
		Name:        "diagram.png",
		Version:     2,
		DownloadURL: "/download/attachments/123/diagram.png?version=2",
	}}

	locals, err := resolver.Resolve("123", refs)
	require.NoError(t, err)
	require.False(t, locals[0].Downloaded)

	content, err := os.ReadFile(locals[0].LocalPath)
	require.NoError(t, err)
	require.Equal(t, "existing", string(content))
}

func TestResolveMissingThumbnailIsNotFatal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if filepath.Dir(r.URL.Path) == "/download/thumbnails/123" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, "png-bytes")
	}))
	defer server.Close()

	root := t.TempDir()
	resolver := NewAttachmentResolver(NewClient(server.URL, "MS", "", ""), root)

	locals, err := resolver.Resolve("123", []model.Attachment{{
		Name:        "diagram.png",
		Version:     1,
		DownloadURL: "/download/attachments/123/diagram.png?version=1",
	}})
	require.NoError(t, err)
	require.True(t, locals[0].Downloaded)
	require.Equal(t, "", locals[0].ThumbnailPath)
}
