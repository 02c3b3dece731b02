package cf_scraper

import (
	"encoding/csv"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/gosimple/slug"

	"github.com/lmeunier/confarc/model"
	"github.com/lmeunier/confarc/utils"
)

// PostScraper fetches one post at a time and writes its archive artifact.
// All filesystem access goes through the archive root passed in here; the
// process working directory is never consulted.
type PostScraper struct {
	client   *Client
	root     string
	resolver *AttachmentResolver
	rewriter *Rewriter
}

func NewPostScraper(client *Client, root string) *PostScraper {
	ps := new(PostScraper)
	ps.client = client
	ps.root = root
	ps.resolver = NewAttachmentResolver(client, root)
	ps.rewriter = NewRewriter(root)
	return ps
}

// ArtifactFilename is the archive name of one post: creation date prefix
// plus slugged title.
func ArtifactFilename(content model.PostContent) string {
	return fmt.Sprintf("%s_%s.html", content.Created.Format("2006-01-02"), slug.Make(content.Title))
}

// ScrapePost fetches the post, its attachments and comments, and writes
// the rewritten artifact. The returned path is the written file.
func (ps *PostScraper) ScrapePost(id string) (artifact string, warnings []string, err error) {
	content, err := ps.client.GetContent(id)
	if err != nil {
		return "", nil, err
	}
	fmt.Printf("Post: %s by %s\n", content.Title, content.Author)

	if content.Attachments, err = ps.client.GetAttachments(id); err != nil {
		return "", nil, err
	}
	if content.Comments, err = ps.client.GetComments(id); err != nil {
		return "", nil, err
	}

	locals, err := ps.resolver.Resolve(id, content.Attachments)
	if err != nil {
		return "", nil, err
	}

	forest := BuildCommentForest(content.Comments)
	page, warnings, err := ps.rewriter.Rewrite(content, locals, RenderCommentForest(forest))
	if err != nil {
		return "", warnings, err
	}

	folder := filepath.Join(ps.root, "blog")
	if err = utils.EnsureDir(folder); err != nil {
		return "", warnings, err
	}
	artifact = filepath.Join(folder, ArtifactFilename(content))
	err = os.WriteFile(artifact, []byte(page), 0644)
	return
}

// ScrapePosts runs the posts sequentially. A failed post is recorded and
// the run continues, except for auth failures which abort immediately; no
// work after one is assumed valid.
func (ps *PostScraper) ScrapePosts(ids []string) (stats model.ScrapeStats, err error) {
	stats.Total = len(ids)
	for _, id := range ids {
		if !validPostID(id) {
			log.Printf("Skipping post %q: not a valid ID", id)
			stats.Skipped++
			continue
		}
		if _, warnings, postErr := ps.ScrapePost(id); postErr != nil {
			if errors.Is(postErr, ErrAuth) {
				err = postErr
				return
			}
			log.Printf("Failed to scrape post %s: %v", id, postErr)
			stats.Failed++
			stats.FailedIDs = append(stats.FailedIDs, id)
		} else {
			for _, warning := range warnings {
				log.Printf("Post %s: %s", id, warning)
			}
			stats.Succeeded++
		}
	}
	return
}

// ReadIDFile reads post IDs from a tabular file, one record per row. When
// a header row names an ID column that column is used, otherwise the first
// column is taken positionally.
func ReadIDFile(path string) (ids []string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil || len(rows) == 0 {
		return
	}

	column := 0
	start := 0
	for i, field := range rows[0] {
		if field == "ID" {
			column = i
			start = 1
			break
		}
	}

	for _, row := range rows[start:] {
		if column < len(row) && row[column] != "" {
			ids = append(ids, row[column])
		}
	}
	return
}
