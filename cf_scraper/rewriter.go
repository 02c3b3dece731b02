package cf_scraper

import (
	"fmt"
	"html"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/lmeunier/confarc/model"
)

// Math is not rendered here; every artifact loads the client-side
// renderer once and any TeX delimiters in the body pass through
// byte-for-byte.
const pageShell = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8"/>
<title>%s</title>
<script src="https://polyfill.io/v3/polyfill.min.js?features=es6"></script>
<script src="https://cdn.jsdelivr.net/npm/mathjax@3/es5/tex-mml-chtml.js"></script>
<style>section.comments article.reply { margin-left: 2em; }</style>
</head>
<body>
<header>
<h1>%s</h1>
<address>By %s on %s (ID %s)</address>
</header>
<main>
%s
</main>
%s
</body>
</html>
`

// Rewriter turns a server-side body fragment plus its resolved
// attachments and rendered comments into a standalone HTML document.
// Cross-document links and page-ID references are left as they are;
// fixing them needs knowledge this component does not have.
type Rewriter struct {
	root string
}

func NewRewriter(root string) *Rewriter {
	return &Rewriter{root: root}
}

func (rw *Rewriter) Rewrite(content model.PostContent, locals []model.LocalAttachment, commentsHTML string) (page string, warnings []string, err error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content.BodyHTML))
	if err != nil {
		return "", nil, fmt.Errorf("parsing body of post %s: %w", content.ID, err)
	}

	rw.cleanBody(doc)
	warnings = rw.rewriteImages(doc, locals)

	bodyHTML, err := doc.Find("body").Html()
	if err != nil {
		return "", warnings, fmt.Errorf("serializing body of post %s: %w", content.ID, err)
	}

	page = fmt.Sprintf(pageShell,
		html.EscapeString(content.Title),
		html.EscapeString(content.Title),
		html.EscapeString(content.Author),
		content.Created.Format("Mon Jan 2 15:04:05 2006"),
		content.ID,
		bodyHTML,
		commentsHTML)
	return
}

// cleanBody drops scripts and unwraps the Confluence viewer spans that
// only make sense server-side.
func (rw *Rewriter) cleanBody(doc *goquery.Document) {
	doc.Find("script").Remove()

	unwrap := func(sel *goquery.Selection) {
		sel.Each(func(_ int, s *goquery.Selection) {
			if inner, err := s.Html(); err == nil {
				s.ReplaceWithHtml(inner)
			}
		})
	}
	unwrap(doc.Find("span.latexmath-mathinline"))
	unwrap(doc.Find("span.confluence-embedded-file-wrapper"))

	doc.Find("span.MathJax_Preview").Each(func(_ int, s *goquery.Selection) {
		s.ReplaceWithHtml(`\(` + html.EscapeString(s.Text()) + `\)`)
	})
}

// rewriteImages points attachment references at the archive. Thumbnails
// are additionally wrapped in a link to the full-resolution original so
// they are never dead ends.
func (rw *Rewriter) rewriteImages(doc *goquery.Document, locals []model.LocalAttachment) (warnings []string) {
	doc.Find("img").Each(func(_ int, img *goquery.Selection) {
		src, _ := img.Attr("src")
		dataSrc, _ := img.Attr("data-image-src")

		switch {
		case strings.Contains(src, "/download/thumbnails/"):
			local, warning := matchAttachment(src, locals)
			if warning != "" {
				warnings = append(warnings, warning)
			}
			if local == nil {
				return
			}
			if local.ThumbnailPath != "" {
				img.SetAttr("src", rw.relToArtifact(local.ThumbnailPath))
			} else {
				img.SetAttr("src", rw.relToArtifact(local.LocalPath))
			}
			img.RemoveAttr("data-image-src")
			img.WrapHtml(fmt.Sprintf("<a href=%q></a>", rw.relToArtifact(local.LocalPath)))

		case strings.Contains(src, "/download/attachments/"):
			local, warning := matchAttachment(src, locals)
			if warning != "" {
				warnings = append(warnings, warning)
			}
			if local != nil {
				img.SetAttr("src", rw.relToArtifact(local.LocalPath))
			}

		case strings.Contains(dataSrc, "/download/attachments/"):
			local, warning := matchAttachment(dataSrc, locals)
			if warning != "" {
				warnings = append(warnings, warning)
			}
			if local != nil {
				img.SetAttr("src", rw.relToArtifact(local.LocalPath))
				img.RemoveAttr("data-image-src")
			}
		}
	})
	return
}

// matchAttachment finds the local attachment a download URL refers to,
// matching by name. An exact version match wins; when the referenced
// version is absent the highest available version is used and the
// ambiguity surfaced as a warning rather than guessed silently.
func matchAttachment(rawURL string, locals []model.LocalAttachment) (*model.LocalAttachment, string) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, ""
	}
	name := path.Base(u.Path)
	if unescaped, err := url.PathUnescape(name); err == nil {
		name = unescaped
	}
	wantVersion := u.Query().Get("version")

	var best *model.LocalAttachment
	for i := range locals {
		local := &locals[i]
		if local.Name != name {
			continue
		}
		if wantVersion != "" && fmt.Sprint(local.Version) == wantVersion {
			return local, ""
		}
		if best == nil || local.Version > best.Version {
			best = local
		}
	}

	if best == nil {
		return nil, fmt.Sprintf("no local attachment for %s", name)
	}
	if wantVersion != "" {
		return best, fmt.Sprintf("ambiguous attachment match: %s version %s not archived, using version %d",
			name, wantVersion, best.Version)
	}
	return best, ""
}

func (rw *Rewriter) relToArtifact(p string) string {
	if rel, err := filepath.Rel(filepath.Join(rw.root, "blog"), p); err == nil {
		return filepath.ToSlash(rel)
	}
	return filepath.ToSlash(p)
}
