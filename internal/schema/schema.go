// Package schema declares the blog types served by arctl: articles and
// posts, and comments that can be attached to either through the
// parent_type/parent_id discriminator.
package schema

import (
	"fmt"

	"github.com/mickamy/activerecord/orm"
)

// Logical type names.
const (
	Articles = "articles"
	Posts    = "posts"
	Comments = "comments"
)

// Blog returns the descriptors of the blog types. Each call returns fresh
// values that can be registered into a new Registry.
func Blog() []orm.TypeDescriptor {
	return []orm.TypeDescriptor{
		{
			Name: Articles,
			Columns: []orm.Column{
				{Name: "title", Kind: orm.KindString, Required: true},
				{Name: "content", Kind: orm.KindString},
			},
		},
		{
			Name: Posts,
			Columns: []orm.Column{
				{Name: "title", Kind: orm.KindString, Required: true},
				{Name: "body", Kind: orm.KindString},
			},
		},
		{
			Name: Comments,
			Columns: []orm.Column{
				{Name: "author", Kind: orm.KindString, Required: true},
				{Name: "content", Kind: orm.KindString},
				{Name: orm.CreatedAtColumn, Kind: orm.KindTime},
				{Name: orm.UpdatedAtColumn, Kind: orm.KindTime},
			},
			Parents: []string{Articles, Posts},
		},
	}
}

// Register adds the blog types to reg.
func Register(reg *orm.Registry) error {
	for _, d := range Blog() {
		if _, err := reg.Register(d); err != nil {
			return fmt.Errorf("schema: %w", err)
		}
	}
	return nil
}

// Registry returns a frozen registry holding only the blog types.
func Registry() (*orm.Registry, error) {
	reg := orm.NewRegistry()
	if err := Register(reg); err != nil {
		return nil, err
	}
	if err := reg.Freeze(); err != nil {
		return nil, fmt.Errorf("schema: %w", err)
	}
	return reg, nil
}
