package model

import (
	"time"
)

// Post is one blogpost summary as returned by the listing endpoint and
// persisted in the listing database. Identity is the ID; the remaining
// fields are refreshed whenever a listing run sees the post again.
type Post struct {
	ID       string
	Title    string
	Created  time.Time
	Position int
}

// ListingResult is the outcome of one listing run. Incomplete is set when
// a page fetch failed partway; the records gathered up to that point are
// returned rather than being silently truncated.
type ListingResult struct {
	Posts      []Post
	Duplicates int
	Warnings   []string
	Incomplete bool
}

// Attachment is one versioned binary attached to a post.
type Attachment struct {
	Name        string
	Version     int
	DownloadURL string
	Size        int64
}

// LocalAttachment pairs an attachment with the archive paths it resolves
// to. Downloaded reports whether this run actually transferred bytes; a
// pre-existing file at LocalPath is trusted as complete.
type LocalAttachment struct {
	Attachment
	LocalPath     string
	ThumbnailPath string
	Downloaded    bool
}

type Comment struct {
	ID        string
	ParentID  string
	Author    string
	Published time.Time
	BodyHTML  string
}

// CommentNode is a comment with its replies attached.
type CommentNode struct {
	Comment
	Children []*CommentNode
}

// PostContent is everything fetched for one post. It is assembled once and
// passed whole into the rewriter so no step observes a partially refreshed
// document.
type PostContent struct {
	Post
	Author      string
	BodyHTML    string
	Attachments []Attachment
	Comments    []Comment
}

// ScrapeStats reports which posts a scrape run handled and how.
type ScrapeStats struct {
	Total     int
	Succeeded int
	Skipped   int
	Failed    int
	FailedIDs []string
}
