package cf_scraper

import (
	"fmt"
	"html"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gorilla/feeds"
)

// IndexBuilder regenerates the archive listing pages from the artifacts
// actually on disk. It never consults the listing database, so the index
// reflects reality even when listed posts were never scraped.
type IndexBuilder struct {
	client *Client
	root   string
}

func NewIndexBuilder(client *Client, root string) *IndexBuilder {
	return &IndexBuilder{client: client, root: root}
}

type artifactEntry struct {
	Filename string
	Title    string
	Date     time.Time
}

// scanArtifacts collects the archived posts sorted by filename, which
// sorts by date thanks to the date prefix.
func (ib *IndexBuilder) scanArtifacts() (entries []artifactEntry, err error) {
	pattern := filepath.Join(ib.root, "blog", "*.html")
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return
	}
	sort.Strings(matches)

	for _, match := range matches {
		entry := artifactEntry{Filename: filepath.Base(match)}
		if len(entry.Filename) < 10 {
			continue
		}
		// Files without the date prefix were not written by the scraper
		// and have no place in the date-grouped index
		date, parseErr := time.Parse("2006-01-02", entry.Filename[:10])
		if parseErr != nil {
			continue
		}
		entry.Date = date
		entry.Title = strings.TrimSuffix(entry.Filename, ".html")
		if f, openErr := os.Open(match); openErr == nil {
			if doc, parseErr := goquery.NewDocumentFromReader(f); parseErr == nil {
				if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
					entry.Title = title
				}
			}
			f.Close()
		}
		entries = append(entries, entry)
	}
	return
}

// BuildIndex writes index.html with one entry per artifact, grouped by
// year and month of the posting date.
func (ib *IndexBuilder) BuildIndex() (filename string, err error) {
	entries, err := ib.scanArtifacts()
	if err != nil {
		return
	}
	name := ib.client.SpaceName()

	var b strings.Builder
	fmt.Fprintf(&b, "<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\"/>\n<title>%s</title>\n</head>\n<body>\n", html.EscapeString(name))
	fmt.Fprintf(&b, "<header><h1>%s</h1></header>\n<main>\n", html.EscapeString(name))

	var year, month string
	open := false
	for _, entry := range entries {
		newYear := entry.Date.Format("2006")
		newMonth := entry.Date.Format("January")
		if newYear != year || newMonth != month {
			if open {
				b.WriteString("</ul>\n")
				open = false
			}
			if newYear != year {
				year = newYear
				fmt.Fprintf(&b, "<h2>%s</h2>\n", year)
			}
			month = newMonth
			fmt.Fprintf(&b, "<h3>%s</h3>\n", month)
		}
		if !open {
			b.WriteString("<ul>\n")
			open = true
		}
		fmt.Fprintf(&b, "<li><a href=\"blog/%s\">%s</a></li>\n", entry.Filename, html.EscapeString(entry.Title))
	}
	if open {
		b.WriteString("</ul>\n")
	}
	b.WriteString("</main>\n</body>\n</html>\n")

	filename = filepath.Join(ib.root, "index.html")
	fmt.Printf("Writing %s\n", filename)
	err = os.WriteFile(filename, []byte(b.String()), 0644)
	return
}

// BuildFeed writes an Atom feed over the same artifact set, newest first.
func (ib *IndexBuilder) BuildFeed() (filename string, err error) {
	entries, err := ib.scanArtifacts()
	if err != nil {
		return
	}
	name := ib.client.SpaceName()

	feed := &feeds.Feed{
		Title:   name,
		Link:    &feeds.Link{Href: "index.html"},
		Created: time.Now(),
	}
	for i := len(entries) - 1; i >= 0; i-- {
		entry := entries[i]
		feed.Items = append(feed.Items, &feeds.Item{
			Title:   entry.Title,
			Link:    &feeds.Link{Href: "blog/" + entry.Filename},
			Created: entry.Date,
		})
	}

	atom, err := feed.ToAtom()
	if err != nil {
		return
	}
	filename = filepath.Join(ib.root, "feed.xml")
	err = os.WriteFile(filename, []byte(atom), 0644)
	return
}
