package cf_scraper

import (
	"net/url"
	"strconv"
	"time"

	"github.com/lmeunier/confarc/model"
)

// Wire types for the Confluence REST API.

type historyJSON struct {
	CreatedBy struct {
		DisplayName string `json:"displayName"`
	} `json:"createdBy"`
	CreatedDate string `json:"createdDate"`
}

type contentJSON struct {
	ID      string      `json:"id"`
	Type    string      `json:"type"`
	Title   string      `json:"title"`
	History historyJSON `json:"history"`
	Body    struct {
		View struct {
			Value string `json:"value"`
		} `json:"view"`
	} `json:"body"`
	Ancestors []struct {
		ID   string `json:"id"`
		Type string `json:"type"`
	} `json:"ancestors"`
}

type listingPageJSON struct {
	Results []contentJSON `json:"results"`
	Start   int           `json:"start"`
	Limit   int           `json:"limit"`
	Size    int           `json:"size"`
	Links   struct {
		Next string `json:"next"`
	} `json:"_links"`
}

type attachmentJSON struct {
	Title   string `json:"title"`
	Version struct {
		Number int `json:"number"`
	} `json:"version"`
	Extensions struct {
		FileSize int64 `json:"fileSize"`
	} `json:"extensions"`
	Links struct {
		Download string `json:"download"`
	} `json:"_links"`
}

type childListJSON[T any] struct {
	Results []T `json:"results"`
}

const confluenceTimeLayout = "2006-01-02T15:04:05.000-0700"

func parseConfluenceTime(s string) time.Time {
	for _, layout := range []string{confluenceTimeLayout, time.RFC3339} {
		if tm, err := time.Parse(layout, s); err == nil {
			return tm
		}
	}
	return time.Time{}
}

// GetContent fetches the post body and history for one ID.
func (c *Client) GetContent(id string) (content model.PostContent, err error) {
	params := url.Values{"expand": {"body.view,history"}}
	var cj contentJSON
	if err = c.GetJSON(contentPath(id), params, &cj); err != nil {
		return
	}
	content.ID = cj.ID
	content.Title = cj.Title
	content.Author = cj.History.CreatedBy.DisplayName
	content.Created = parseConfluenceTime(cj.History.CreatedDate)
	content.BodyHTML = cj.Body.View.Value
	return
}

// GetAttachments fetches the attachment metadata for one post.
func (c *Client) GetAttachments(id string) (attachments []model.Attachment, err error) {
	params := url.Values{"expand": {"version"}, "limit": {"999"}}
	var list childListJSON[attachmentJSON]
	if err = c.GetJSON(childPath(id, "attachment"), params, &list); err != nil {
		return
	}
	for _, aj := range list.Results {
		attachments = append(attachments, model.Attachment{
			Name:        aj.Title,
			Version:     aj.Version.Number,
			DownloadURL: aj.Links.Download,
			Size:        aj.Extensions.FileSize,
		})
	}
	return
}

// GetComments fetches the flat comment list for one post. The parent of a
// reply is the last comment in its ancestor chain; top-level comments have
// no comment ancestor and an empty ParentID.
func (c *Client) GetComments(id string) (comments []model.Comment, err error) {
	params := url.Values{
		"expand": {"body.view,history,ancestors"},
		"limit":  {"999"},
		"depth":  {"all"},
	}
	var list childListJSON[contentJSON]
	if err = c.GetJSON(childPath(id, "comment"), params, &list); err != nil {
		return
	}
	for _, cj := range list.Results {
		comment := model.Comment{
			ID:        cj.ID,
			Author:    cj.History.CreatedBy.DisplayName,
			Published: parseConfluenceTime(cj.History.CreatedDate),
			BodyHTML:  cj.Body.View.Value,
		}
		for _, ancestor := range cj.Ancestors {
			if ancestor.Type == "comment" {
				comment.ParentID = ancestor.ID
			}
		}
		comments = append(comments, comment)
	}
	return
}

// SpaceName fetches the display name of the space, falling back to the
// space key when the request fails.
func (c *Client) SpaceName() string {
	var v struct {
		Name string `json:"name"`
	}
	if err := c.GetJSON(c.spacePath(), nil, &v); err == nil && v.Name != "" {
		return v.Name
	}
	return c.space
}

func validPostID(id string) bool {
	_, err := strconv.Atoi(id)
	return err == nil
}
