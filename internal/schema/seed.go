package schema

import (
	"context"
	"fmt"

	"github.com/mickamy/activerecord/orm"
)

var (
	seedArticles = []orm.Attrs{
		{"title": "Getting started with polymorphism", "content": "Attach comments to anything."},
		{"title": "Discriminator columns", "content": "parent_type and parent_id."},
	}
	seedPosts = []orm.Attrs{
		{"title": "First post", "body": "hello"},
		{"title": "Second post", "body": "world"},
	}
)

// Seed inserts sample articles and posts into empty tables. Tables that
// already hold rows are left alone. It returns the number of rows inserted.
func Seed(ctx context.Context, db orm.Querier, reg *orm.Registry) (int, error) {
	var inserted int
	for _, set := range []struct {
		typ  string
		rows []orm.Attrs
	}{
		{Articles, seedArticles},
		{Posts, seedPosts},
	} {
		d, err := reg.Resolve(set.typ)
		if err != nil {
			return inserted, err
		}
		q := orm.From(db, d)
		exists, err := q.Exists(ctx)
		if err != nil {
			return inserted, fmt.Errorf("schema: seed %s: %w", set.typ, err)
		}
		if exists {
			continue
		}
		for _, attrs := range set.rows {
			r, err := d.New(attrs)
			if err != nil {
				return inserted, err
			}
			if err := q.Create(ctx, r); err != nil {
				return inserted, fmt.Errorf("schema: seed %s: %w", set.typ, err)
			}
			inserted++
		}
	}
	return inserted, nil
}
