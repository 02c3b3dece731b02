package database

import (
	"database/sql"
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3"
	_ "github.com/mattn/go-sqlite3"

	"github.com/lmeunier/confarc/model"
	"github.com/lmeunier/confarc/utils"
)

// ListingDB is the persisted record set of known blog posts, keyed by the
// upstream post ID. Each successful listing run rewrites it wholesale.
type ListingDB struct {
	Filename       string
	DB             *sql.DB
	upsertPostStmt string
	allPostsStmt   string
	searchStmt     string
}

func regex(re, s string) (bool, error) {
	return regexp.MatchString(re, s)
}

var registerDriver sync.Once

func OpenListingDB(path string) (ldb *ListingDB, err error) {
	registerDriver.Do(func() {
		sql.Register("sqlite3_regex",
			&sqlite3.SQLiteDriver{
				ConnectHook: func(conn *sqlite3.SQLiteConn) error {
					return conn.RegisterFunc("regexp", regex, true)
				},
			})
	})

	if existing_db, err := utils.PathExists(path); err == nil {
		if db, err := sql.Open("sqlite3_regex", path); err == nil {
			ldb = new(ListingDB)
			ldb.Filename = path
			ldb.DB = db
			if !existing_db {
				if err := ldb.initTables(); err != nil {
					return nil, err
				}
			}
			ldb.initSQLStatements()
		}
	}
	if ldb == nil && err == nil {
		err = fmt.Errorf("could not open listing database %q", path)
	}
	return
}

func (ldb *ListingDB) Close() {
	ldb.DB.Close()
}

type RowsReceiver func(*sql.Rows) bool

func (ldb *ListingDB) ForEachRowOrPanic(receiver RowsReceiver, stmt string, params ...any) {
	if rows, err := ldb.DB.Query(stmt, params...); err == nil {
		defer rows.Close()
		for rows.Next() {
			if !receiver(rows) {
				break
			}
		}
	} else {
		panic(err)
	}
}

func (ldb *ListingDB) UpsertPost(p model.Post) (err error) {
	_, err = ldb.DB.Exec(ldb.upsertPostStmt, p.ID, p.Title, p.Created.Unix(), p.Position)
	return
}

// ReplaceAll rewrites the whole record set in one transaction, assigning
// positions from slice order.
func (ldb *ListingDB) ReplaceAll(posts []model.Post) (err error) {
	var tx *sql.Tx
	if tx, err = ldb.DB.Begin(); err != nil {
		return
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if _, err = tx.Exec("DELETE FROM post"); err != nil {
		return
	}
	for i, p := range posts {
		if _, err = tx.Exec(ldb.upsertPostStmt, p.ID, p.Title, p.Created.Unix(), i); err != nil {
			return
		}
	}
	err = tx.Commit()
	return
}

func (ldb *ListingDB) AllPosts() (posts []model.Post, err error) {
	return ldb.queryPosts(ldb.allPostsStmt)
}

// SearchTitles returns posts whose title matches the regular expression.
func (ldb *ListingDB) SearchTitles(pattern string) (posts []model.Post, err error) {
	return ldb.queryPosts(ldb.searchStmt, pattern)
}

func (ldb *ListingDB) queryPosts(stmt string, params ...any) (posts []model.Post, err error) {
	var rows *sql.Rows
	if rows, err = ldb.DB.Query(stmt, params...); err != nil {
		return
	}
	defer rows.Close()
	for rows.Next() {
		var p model.Post
		var created int64
		if err = rows.Scan(&p.ID, &p.Title, &created, &p.Position); err != nil {
			return
		}
		p.Created = time.Unix(created, 0)
		posts = append(posts, p)
	}
	err = rows.Err()
	return
}

func (ldb *ListingDB) PostCount() (count int) {
	ldb.ForEachRowOrPanic(
		func(rows *sql.Rows) bool {
			rows.Scan(&count)
			return true
		},
		"SELECT COUNT(*) FROM post")
	return
}

func (ldb *ListingDB) initTables() error {
	schema := `
CREATE TABLE post (
	id TEXT NOT NULL PRIMARY KEY,
	title TEXT,
	created INTEGER,
	position INTEGER
);
`
	_, err := ldb.DB.Exec(schema)
	return err
}

func (ldb *ListingDB) initSQLStatements() {
	ldb.upsertPostStmt = `
		INSERT INTO post
			(id, title, created, position)
		VALUES
			(?, ?, ?, ?)
		ON CONFLICT DO UPDATE SET
			title = excluded.title,
			created = excluded.created,
			position = excluded.position`

	ldb.allPostsStmt = `
		SELECT id, title, created, position FROM post ORDER BY position`

	ldb.searchStmt = `
		SELECT id, title, created, position FROM post WHERE title REGEXP ? ORDER BY position`
}
