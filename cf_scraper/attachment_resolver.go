package cf_scraper

import (
	"fmt"
	"log"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gocolly/colly"
	"github.com/gosimple/slug"

	"github.com/lmeunier/confarc/model"
	"github.com/lmeunier/confarc/utils"
)

// AttachmentResolver maps attachment metadata onto archive paths and
// performs the downloads that are still missing. A file already present at
// the computed path is trusted as complete and never re-fetched; that
// existence check is the only idempotence mechanism, so an interrupted
// download can leave a partial file that later runs will not repair.
type AttachmentResolver struct {
	client     *Client
	root       string
	downloader *colly.Collector
	target     string
	fetchErr   error
}

func NewAttachmentResolver(client *Client, root string) *AttachmentResolver {
	ar := new(AttachmentResolver)
	ar.client = client
	ar.root = root
	ar.downloader = client.newDownloader()

	ar.downloader.OnResponse(func(r *colly.Response) {
		ar.fetchErr = r.Save(ar.target)
	})

	ar.downloader.OnError(func(r *colly.Response, err error) {
		if r != nil && (r.StatusCode == http.StatusUnauthorized || r.StatusCode == http.StatusForbidden) {
			ar.fetchErr = fmt.Errorf("downloading %s: %w", r.Request.URL, ErrAuth)
		} else {
			ar.fetchErr = err
		}
	})

	return ar
}

// AttachmentFilename is the canonical local name for one attachment
// version: the slugged stem with the version spliced in before the
// extension. Distinct versions of one logical name never collide, and the
// same version always maps to the same name.
func AttachmentFilename(ref model.Attachment) string {
	stem, ext := ref.Name, ""
	if i := strings.Index(ref.Name, "."); i >= 0 {
		stem, ext = ref.Name[:i], ref.Name[i:]
	}
	return fmt.Sprintf("%s_version%d%s", slug.Make(stem), ref.Version, ext)
}

// Resolve computes the archive paths for the post's attachments and
// downloads whatever is not already on disk. Thumbnails are fetched
// best-effort beside the originals; a failed thumbnail is a warning, a
// failed original fails the post.
func (ar *AttachmentResolver) Resolve(postID string, refs []model.Attachment) (locals []model.LocalAttachment, err error) {
	for _, ref := range refs {
		name := AttachmentFilename(ref)
		local := model.LocalAttachment{
			Attachment:    ref,
			LocalPath:     filepath.Join(ar.root, "attachments", postID, name),
			ThumbnailPath: filepath.Join(ar.root, "thumbnails", postID, name),
		}

		exists, statErr := utils.PathExists(local.LocalPath)
		if statErr != nil {
			return locals, statErr
		}
		if !exists {
			if err = ar.download(ref.DownloadURL, local.LocalPath); err != nil {
				return locals, fmt.Errorf("attachment %s of post %s: %w", ref.Name, postID, err)
			}
			local.Downloaded = true
		}

		thumbURL := strings.Replace(ref.DownloadURL, "/attachments/", "/thumbnails/", 1)
		if thumbURL != ref.DownloadURL {
			if thumbExists, _ := utils.PathExists(local.ThumbnailPath); !thumbExists {
				if thumbErr := ar.download(thumbURL, local.ThumbnailPath); thumbErr != nil {
					log.Printf("Skipping thumbnail for %s: %v", ref.Name, thumbErr)
					local.ThumbnailPath = ""
				}
			}
		} else {
			local.ThumbnailPath = ""
		}

		locals = append(locals, local)
	}
	return
}

func (ar *AttachmentResolver) download(downloadURL, path string) error {
	if err := utils.EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}
	ar.target = path
	ar.fetchErr = nil
	visitErr := ar.downloader.Visit(ar.client.AbsoluteURL(downloadURL))
	if ar.fetchErr != nil {
		// OnError saw the response and may have classified it
		return ar.fetchErr
	}
	return visitErr
}
