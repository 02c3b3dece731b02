package cf_scraper

import (
	"fmt"
	"log"
	"net/url"
	"strconv"

	"github.com/lmeunier/confarc/database"
	"github.com/lmeunier/confarc/model"
)

// BlogLister walks the paginated blogpost listing of a space and
// reconciles it with the persisted record set. Upstream pagination is not
// stable: posts accessed while a crawl runs can be promoted to the first
// page and reappear on a later one, so the lister deduplicates by ID
// within a run and treats recurrences as warnings, not errors.
type BlogLister struct {
	client *Client
	db     *database.ListingDB
}

func NewBlogLister(client *Client, db *database.ListingDB) *BlogLister {
	bl := new(BlogLister)
	bl.client = client
	bl.db = db
	return bl
}

// ListPosts fetches listing pages from start until the upstream reports no
// further page or the next offset would reach end (end < 0 means
// unbounded). The result is persisted even when a page fetch fails
// partway; Incomplete then marks the partial run and the fetch error is
// returned alongside it. A partial run is always merged with the stored
// set, whatever merge says: the run never saw the full listing, so it
// must not replace records it did not see.
func (bl *BlogLister) ListPosts(start, end int, merge bool) (res model.ListingResult, err error) {
	seen := make(map[string]bool)
	next := bl.client.listingPath()
	params := url.Values{
		"start":  {strconv.Itoa(start)},
		"expand": {"history"},
	}

	for {
		var page listingPageJSON
		if err = bl.client.GetJSON(next, params, &page); err != nil {
			res.Incomplete = true
			res.Warnings = append(res.Warnings,
				fmt.Sprintf("listing stopped early at offset %d: %v", start, err))
			break
		}

		for _, cj := range page.Results {
			if seen[cj.ID] {
				res.Duplicates++
				res.Warnings = append(res.Warnings,
					fmt.Sprintf("duplicate post ID %q returned by the listing", cj.ID))
				continue
			}
			seen[cj.ID] = true
			res.Posts = append(res.Posts, model.Post{
				ID:       cj.ID,
				Title:    cj.Title,
				Created:  parseConfluenceTime(cj.History.CreatedDate),
				Position: len(res.Posts),
			})
		}

		if page.Links.Next == "" {
			break
		}
		if end >= 0 && page.Start+page.Limit >= end {
			break
		}
		next = page.Links.Next
		params = nil
	}

	if res.Duplicates > 0 {
		log.Printf("The listing returned %d duplicated posts; as many other posts were pushed out of the live window and will only be scraped if their IDs were collected before.", res.Duplicates)
	}

	if merge || res.Incomplete {
		res.Posts = bl.mergeWithStored(res.Posts)
	}
	if dbErr := bl.db.ReplaceAll(res.Posts); dbErr != nil && err == nil {
		err = fmt.Errorf("persisting listing: %w", dbErr)
	}
	return
}

// mergeWithStored unions the freshly fetched posts with the persisted set,
// matching on ID only. Fresh posts keep fetch order and win metadata
// conflicts; posts known only from earlier runs are appended after, in
// their prior order, so posts that fell off the live window stay listed.
func (bl *BlogLister) mergeWithStored(fresh []model.Post) []model.Post {
	old, err := bl.db.AllPosts()
	if err != nil {
		log.Printf("Could not read previous listing, keeping fresh set only: %v", err)
		return fresh
	}

	ids := make(map[string]bool, len(fresh))
	for _, p := range fresh {
		ids[p.ID] = true
	}

	merged := fresh
	for _, p := range old {
		if !ids[p.ID] {
			p.Position = len(merged)
			merged = append(merged, p)
		}
	}
	return merged
}
