package scope

import "strings"

// Applier is implemented by query builders to receive scope fragments.
// This interface lives in the scope package so that orm can import scope
// without creating circular dependencies.
type Applier interface {
	ApplySelect(columns []string)
	ApplyWhere(clause string, args []any)
	ApplyOrderBy(clause string)
	ApplyLimit(n int)
	ApplyOffset(n int)
}

type scopeKind int

const (
	kindWhere scopeKind = iota
	kindSelect
	kindOrderBy
	kindLimit
	kindOffset
)

// Scope represents a single query condition fragment.
// Scopes are immutable and safe to reuse across queries.
type Scope struct {
	kind   scopeKind
	clause string
	args   []any
	cols   []string
	n      int
}

// Apply dispatches this Scope to the given Applier.
func (s Scope) Apply(a Applier) {
	switch s.kind {
	case kindWhere:
		a.ApplyWhere(s.clause, s.args)
	case kindSelect:
		a.ApplySelect(s.cols)
	case kindOrderBy:
		a.ApplyOrderBy(s.clause)
	case kindLimit:
		a.ApplyLimit(s.n)
	case kindOffset:
		a.ApplyOffset(s.n)
	}
}

// Where returns a Scope that adds a WHERE clause fragment.
//
//	scope.Where("author = ?", "ipolevoy")
func Where(clause string, args ...any) Scope {
	return Scope{kind: kindWhere, clause: clause, args: args}
}

// Select returns a Scope that restricts the columns read.
//
//	scope.Select("id", "author")
func Select(columns ...string) Scope {
	return Scope{kind: kindSelect, cols: columns}
}

// OrderBy returns a Scope that appends to the ORDER BY clause.
func OrderBy(clause string) Scope {
	return Scope{kind: kindOrderBy, clause: clause}
}

// Limit returns a Scope that sets the LIMIT.
func Limit(n int) Scope {
	return Scope{kind: kindLimit, n: n}
}

// Offset returns a Scope that sets the OFFSET.
func Offset(n int) Scope {
	return Scope{kind: kindOffset, n: n}
}

// Paginate returns LIMIT/OFFSET scopes for a 1-based page number.
func Paginate(page, perPage int) Scopes {
	if page < 1 {
		page = 1
	}
	return Combine(Limit(perPage), Offset((page-1)*perPage))
}

// In returns a WHERE scope with an IN clause, expanding the slice into
// individual placeholders.
//
//	scope.In("id", []int{1, 2, 3})  // → WHERE id IN (?, ?, ?)
func In[T any](column string, values []T) Scope {
	if len(values) == 0 {
		return Where("1 = 0")
	}
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}
	return Where(column+" IN ("+repeatJoin("?", len(values))+")", args...)
}

// Morph returns a WHERE scope matching rows attached to one polymorphic
// parent through the given discriminator columns.
//
//	scope.Morph("parent_type", "parent_id", "articles", 1)
//	// → WHERE parent_type = ? AND parent_id = ?
func Morph(typeColumn, idColumn, typeName string, id any) Scope {
	return Where(typeColumn+" = ? AND "+idColumn+" = ?", typeName, id)
}

// MorphIn is like Morph for several parents of the same type.
func MorphIn[T any](typeColumn, idColumn, typeName string, ids []T) Scope {
	if len(ids) == 0 {
		return Where("1 = 0")
	}
	args := make([]any, 0, len(ids)+1)
	args = append(args, typeName)
	for _, id := range ids {
		args = append(args, id)
	}
	return Where(typeColumn+" = ? AND "+idColumn+" IN ("+repeatJoin("?", len(ids))+")", args...)
}

// Scopes is a named slice of Scope, useful for conditionally building
// up a set of scopes.
type Scopes []Scope

// Append adds scopes and returns a new Scopes. The receiver is not modified.
func (ss Scopes) Append(scopes ...Scope) Scopes {
	return append(append(Scopes(nil), ss...), scopes...)
}

// Merge concatenates two Scopes and returns a new Scopes.
func (ss Scopes) Merge(other Scopes) Scopes {
	return append(append(Scopes(nil), ss...), other...)
}

// Combine creates a Scopes from the given scopes.
func Combine(scopes ...Scope) Scopes {
	return Scopes(scopes)
}

func repeatJoin(s string, count int) string {
	if count <= 0 {
		return ""
	}
	parts := make([]string, count)
	for i := range parts {
		parts[i] = s
	}
	return strings.Join(parts, ", ")
}
