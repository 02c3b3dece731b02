package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lmeunier/confarc/model"
)

func TestBasicListingDB(t *testing.T) {
	tmpDir := t.TempDir()

	ldb, err := OpenListingDB(tmpDir + "/test.db")
	require.NoError(t, err)
	defer ldb.Close()

	require.Equal(t, 0, ldb.PostCount())

	post := model.Post{
		ID:      "123456",
		Title:   "Some post",
		Created: time.Unix(123456789, 0),
	}
	require.NoError(t, ldb.UpsertPost(post))
	require.Equal(t, 1, ldb.PostCount())

	// Upsert on the same ID refreshes metadata instead of duplicating
	post.Title = "Renamed post"
	require.NoError(t, ldb.UpsertPost(post))
	require.Equal(t, 1, ldb.PostCount())

	posts, err := ldb.AllPosts()
	require.NoError(t, err)
	require.Len(t, posts, 1)
	require.Equal(t, "Renamed post", posts[0].Title)
	require.Equal(t, time.Unix(123456789, 0), posts[0].Created)
}

func TestReplaceAllKeepsOrder(t *testing.T) {
	tmpDir := t.TempDir()

	ldb, err := OpenListingDB(tmpDir + "/test.db")
	require.NoError(t, err)
	defer ldb.Close()

	require.NoError(t, ldb.ReplaceAll([]model.Post{
		{ID: "3", Title: "c"},
		{ID: "1", Title: "a"},
		{ID: "2", Title: "b"},
	}))

	posts, err := ldb.AllPosts()
	require.NoError(t, err)
	require.Len(t, posts, 3)
	require.Equal(t, "3", posts[0].ID)
	require.Equal(t, "1", posts[1].ID)
	require.Equal(t, "2", posts[2].ID)

	// Wholesale rewrite drops records absent from the new set
	require.NoError(t, ldb.ReplaceAll([]model.Post{{ID: "1", Title: "a"}}))
	require.Equal(t, 1, ldb.PostCount())
}

func TestSearchTitles(t *testing.T) {
	tmpDir := t.TempDir()

	ldb, err := OpenListingDB(tmpDir + "/test.db")
	require.NoError(t, err)
	defer ldb.Close()

	require.NoError(t, ldb.ReplaceAll([]model.Post{
		{ID: "1", Title: "Release notes 1.2"},
		{ID: "2", Title: "Holiday schedule"},
		{ID: "3", Title: "Release notes 1.3"},
	}))

	posts, err := ldb.SearchTitles("^Release")
	require.NoError(t, err)
	require.Len(t, posts, 2)
	require.Equal(t, "1", posts[0].ID)
	require.Equal(t, "3", posts[1].ID)
}

func TestReopenExisting(t *testing.T) {
	tmpDir := t.TempDir()
	path := tmpDir + "/test.db"

	ldb, err := OpenListingDB(path)
	require.NoError(t, err)
	require.NoError(t, ldb.UpsertPost(model.Post{ID: "1", Title: "a"}))
	ldb.Close()

	ldb, err = OpenListingDB(path)
	require.NoError(t, err)
	defer ldb.Close()
	require.Equal(t, 1, ldb.PostCount())
}
