package cf_scraper

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lmeunier/confarc/database"
	"github.com/lmeunier/confarc/model"
)

func listingResult(id, title string) string {
	return fmt.Sprintf(`{"id":%q,"type":"blogpost","title":%q,"history":{"createdDate":"2020-01-02T03:04:05.000+0000"}}`, id, title)
}

func openTestDB(t *testing.T) *database.ListingDB {
	t.Helper()
	ldb, err := database.OpenListingDB(t.TempDir() + "/listing.db")
	require.NoError(t, err)
	t.Cleanup(ldb.Close)
	return ldb
}

func TestListPostsDeduplicates(t *testing.T) {
	// A post accessed mid-crawl can be promoted to the first page and
	// reappear later; the run must keep one record and warn.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"results":[%s,%s,%s],"start":0,"limit":3,"size":3,"_links":{}}`,
			listingResult("A", "first"), listingResult("B", "second"), listingResult("A", "first"))
	}))
	defer server.Close()

	ldb := openTestDB(t)
	lister := NewBlogLister(NewClient(server.URL, "MS", "", ""), ldb)

	res, err := lister.ListPosts(0, 1, false)
	require.NoError(t, err)
	require.False(t, res.Incomplete)
	require.Equal(t, 1, res.Duplicates)
	require.Len(t, res.Posts, 2)
	require.Equal(t, "A", res.Posts[0].ID)
	require.Equal(t, "B", res.Posts[1].ID)
	require.Len(t, res.Warnings, 1)
	require.Contains(t, res.Warnings[0], `"A"`)
}

func TestListPostsFollowsPagination(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("start") {
		case "0", "":
			fmt.Fprintf(w, `{"results":[%s],"start":0,"limit":1,"size":1,"_links":{"next":"/rest/api/space/MS/content/blogpost?start=1&limit=1"}}`,
				listingResult("A", "first"))
		default:
			fmt.Fprintf(w, `{"results":[%s],"start":1,"limit":1,"size":1,"_links":{}}`,
				listingResult("B", "second"))
		}
	}))
	defer server.Close()

	ldb := openTestDB(t)
	lister := NewBlogLister(NewClient(server.URL, "MS", "", ""), ldb)

	res, err := lister.ListPosts(0, -1, false)
	require.NoError(t, err)
	require.Len(t, res.Posts, 2)
	require.Equal(t, "B", res.Posts[1].ID)

	// The persisted set matches the run
	stored, err := ldb.AllPosts()
	require.NoError(t, err)
	require.Len(t, stored, 2)
}

func TestListPostsStopsAtEnd(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		fmt.Fprintf(w, `{"results":[%s],"start":0,"limit":5,"size":5,"_links":{"next":"/rest/api/space/MS/content/blogpost?start=5"}}`,
			listingResult("A", "first"))
	}))
	defer server.Close()

	ldb := openTestDB(t)
	lister := NewBlogLister(NewClient(server.URL, "MS", "", ""), ldb)

	_, err := lister.ListPosts(0, 5, false)
	require.NoError(t, err)
	require.Equal(t, 1, requests)
}

func TestListPostsMerge(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"results":[%s,%s],"start":0,"limit":2,"size":2,"_links":{}}`,
			listingResult("A", "fresh title"), listingResult("B", "second"))
	}))
	defer server.Close()

	ldb := openTestDB(t)
	require.NoError(t, ldb.ReplaceAll([]model.Post{
		{ID: "A", Title: "stale title", Created: time.Unix(0, 0)},
		{ID: "X", Title: "fell off the window", Created: time.Unix(0, 0)},
	}))

	lister := NewBlogLister(NewClient(server.URL, "MS", "", ""), ldb)
	res, err := lister.ListPosts(0, -1, true)
	require.NoError(t, err)

	// Fresh metadata wins; posts known only from earlier runs come after
	require.Len(t, res.Posts, 3)
	require.Equal(t, "A", res.Posts[0].ID)
	require.Equal(t, "fresh title", res.Posts[0].Title)
	require.Equal(t, "B", res.Posts[1].ID)
	require.Equal(t, "X", res.Posts[2].ID)

	stored, err := ldb.AllPosts()
	require.NoError(t, err)
	require.Len(t, stored, 3)
	require.Equal(t, "fresh title", stored[0].Title)
	require.Equal(t, "X", stored[2].ID)
}

func TestListPostsIncompleteOnPageFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("start") == "1" {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		fmt.Fprintf(w, `{"results":[%s],"start":0,"limit":1,"size":1,"_links":{"next":"/rest/api/space/MS/content/blogpost?start=1"}}`,
			listingResult("A", "first"))
	}))
	defer server.Close()

	ldb := openTestDB(t)
	lister := NewBlogLister(NewClient(server.URL, "MS", "", ""), ldb)

	res, err := lister.ListPosts(0, -1, true)
	require.Error(t, err)
	require.True(t, res.Incomplete)
	require.Len(t, res.Posts, 1)

	// The partial run is still persisted so the ID is not lost
	stored, dbErr := ldb.AllPosts()
	require.NoError(t, dbErr)
	require.Len(t, stored, 1)
}

func TestListPostsIncompleteNeverErasesStored(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	ldb := openTestDB(t)
	require.NoError(t, ldb.ReplaceAll([]model.Post{
		{ID: "A", Title: "collected earlier", Created: time.Unix(0, 0)},
	}))

	// Even without merge, a run that saw nothing must not replace
	// records it never saw
	lister := NewBlogLister(NewClient(server.URL, "MS", "", ""), ldb)
	res, err := lister.ListPosts(0, -1, false)
	require.Error(t, err)
	require.True(t, res.Incomplete)

	stored, dbErr := ldb.AllPosts()
	require.NoError(t, dbErr)
	require.Len(t, stored, 1)
	require.Equal(t, "A", stored[0].ID)
}

func TestGetJSONAuthFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClient(server.URL, "MS", "user", "bad")
	var v map[string]any
	err := client.GetJSON("/rest/api/space/MS", nil, &v)
	require.ErrorIs(t, err, ErrAuth)
}

func TestGetJSONSendsBasicAuth(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "user" || pass != "secret" {
			http.Error(w, "nope", http.StatusUnauthorized)
			return
		}
		fmt.Fprint(w, `{"name":"My Space"}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, "MS", "user", "secret")
	require.Equal(t, "My Space", client.SpaceName())

	// Anonymous client falls back to the space key
	anon := NewClient(server.URL, "MS", "", "")
	require.Equal(t, "MS", anon.SpaceName())
}
