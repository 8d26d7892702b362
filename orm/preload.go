package orm

import (
	"context"
	"fmt"

	"github.com/mickamy/activerecord/scope"
)

// Preload loads the children of type childType for all parents with one
// query per parent type. Parents may be of different types; each must be a
// declared parent of childType. Every parent appears in the result, with an
// empty slice when it has no children. Children are ordered by primary key.
func (r *Resolver) Preload(ctx context.Context, parents []*Record, childType *TypeDescriptor) (map[*Record][]*Record, error) {
	result := make(map[*Record][]*Record, len(parents))
	if len(parents) == 0 {
		return result, nil
	}

	// byType keeps parent types in first-seen order for deterministic queries.
	var order []string
	byType := make(map[string][]*Record)
	for _, p := range parents {
		pd, err := r.registered(p)
		if err != nil {
			return nil, err
		}
		if !childType.HasParent(pd.Name) {
			return nil, fmt.Errorf("%w: %s is not a polymorphic child of %s", ErrNoAssociation, childType.Name, pd.Name)
		}
		if p.ID().IsNull() {
			return nil, fmt.Errorf("orm: %s parent has no primary key", pd.Name)
		}
		if _, ok := byType[pd.Name]; !ok {
			order = append(order, pd.Name)
		}
		byType[pd.Name] = append(byType[pd.Name], p)
		result[p] = []*Record{}
	}

	for _, typeName := range order {
		group := byType[typeName]
		ids := UniqueIDs(group)

		q := From(r.db, childType)
		children, err := q.
			Scopes(scope.MorphIn(q.qi(childType.ParentTypeColumn), q.qi(childType.ParentIDColumn), typeName, ids)).
			OrderBy(q.qi(childType.PrimaryKey)).
			All(ctx)
		if err != nil {
			return nil, err
		}

		byID := GroupByParentID(children)
		for _, p := range group {
			if cs, ok := byID[p.ID()]; ok {
				result[p] = cs
			}
		}
	}
	return result, nil
}

// UniqueIDs returns the deduplicated primary key arguments of records.
func UniqueIDs(records []*Record) []any {
	seen := make(map[Value]struct{}, len(records))
	ids := make([]any, 0, len(records))
	for _, rec := range records {
		id := rec.ID()
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id.Any())
	}
	return ids
}

// GroupByParentID groups polymorphic children by the value of their parent
// id column.
func GroupByParentID(children []*Record) map[Value][]*Record {
	m := make(map[Value][]*Record)
	for _, c := range children {
		_, id := c.parentRef()
		m[id] = append(m[id], c)
	}
	return m
}
