package orm_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/mickamy/activerecord/orm"
)

// blog is the articles/posts/comments schema used across the orm tests.
type blog struct {
	reg      *orm.Registry
	articles *orm.TypeDescriptor
	posts    *orm.TypeDescriptor
	comments *orm.TypeDescriptor
}

func newBlog(t *testing.T) blog {
	t.Helper()

	reg := orm.NewRegistry()
	b := blog{reg: reg}
	b.articles = reg.MustRegister(orm.TypeDescriptor{
		Name: "articles",
		Columns: []orm.Column{
			{Name: "title", Kind: orm.KindString, Required: true},
			{Name: "content", Kind: orm.KindString},
		},
	})
	b.posts = reg.MustRegister(orm.TypeDescriptor{
		Name: "posts",
		Columns: []orm.Column{
			{Name: "title", Kind: orm.KindString, Required: true},
			{Name: "body", Kind: orm.KindString},
		},
	})
	b.comments = reg.MustRegister(orm.TypeDescriptor{
		Name: "comments",
		Columns: []orm.Column{
			{Name: "author", Kind: orm.KindString, Required: true},
			{Name: "content", Kind: orm.KindString},
			{Name: "created_at", Kind: orm.KindTime},
			{Name: "updated_at", Kind: orm.KindTime},
		},
		Parents: []string{"articles", "posts"},
	})
	require.NoError(t, reg.Freeze())
	return b
}

var sqliteSchema = []string{
	`CREATE TABLE articles (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		content TEXT
	)`,
	`CREATE TABLE posts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		body TEXT
	)`,
	`CREATE TABLE comments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		author TEXT NOT NULL,
		content TEXT,
		parent_id INTEGER,
		parent_type VARCHAR(64),
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`INSERT INTO articles (id, title, content) VALUES
		(1, 'Getting started with polymorphism', 'Attach comments to anything.'),
		(2, 'Discriminator columns', 'parent_type and parent_id.')`,
	`INSERT INTO posts (id, title, body) VALUES
		(1, 'First post', 'hello'),
		(2, 'Second post', 'world')`,
}

// openSQLite returns a fresh in-memory database seeded with two articles
// and two posts and no comments.
func openSQLite(t *testing.T) *orm.DB {
	t.Helper()

	sqlDB, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	// Each connection to :memory: is a separate database.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	for _, stmt := range sqliteSchema {
		_, err := sqlDB.Exec(stmt)
		require.NoError(t, err, stmt)
	}
	return orm.New(sqlDB, orm.SQLite)
}

func comment(t *testing.T, b blog, author, content string) *orm.Record {
	t.Helper()

	c, err := b.comments.New(orm.Attrs{"author": author, "content": content})
	require.NoError(t, err)
	return c
}

func find(ctx context.Context, t *testing.T, db orm.Querier, d *orm.TypeDescriptor, id int64) *orm.Record {
	t.Helper()

	r, err := orm.From(db, d).Find(ctx, id)
	require.NoError(t, err)
	return r
}

func authors(records []*orm.Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Get("author").String()
	}
	return out
}
