package testdata

import (
	"database/sql"
	"time"
)

type Article struct {
	ID      int            `db:"id,primaryKey"`
	Title   string         `db:"title,required"`
	Content sql.NullString `db:"content"`
}

type Post struct {
	ID    int64
	Title string `db:",required"`
	Body  *string
}

func (Post) TableName() string { return "blog_posts" }

type Comment struct {
	ID         int       `db:"id,primaryKey"`
	Author     string    `db:"author,required"`
	Content    string    `db:"content"`
	ParentType string    `db:"parent_type,morphType" morph:"Article, Post"`
	ParentID   int       `db:"parent_id,morphID"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
	internal   string
}

// Options has no db fields and is not a type declaration.
type Options struct{}
