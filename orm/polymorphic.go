package orm

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/mickamy/activerecord/internal/naming"
	"github.com/mickamy/activerecord/scope"
)

// Resolver links parent records to polymorphic children through the
// children's discriminator columns. It holds no record state: every call
// reads or writes the store.
type Resolver struct {
	db  Querier
	reg *Registry
}

// NewResolver returns a Resolver over db using the types in reg.
func NewResolver(db Querier, reg *Registry) *Resolver {
	return &Resolver{db: db, reg: reg}
}

// Add attaches child to parent and saves the child (insert or update).
// A parent the child was previously attached to is replaced silently.
// Only the parent's primary key is used; the parent row is not read.
func (r *Resolver) Add(ctx context.Context, parent, child *Record) error {
	pd, err := r.registered(parent)
	if err != nil {
		return err
	}
	cd, err := r.registered(child)
	if err != nil {
		return err
	}
	if !cd.HasParent(pd.Name) {
		return &PersistenceError{
			Op:    "add",
			Table: cd.Table,
			Err:   fmt.Errorf("%w: %q is not a parent type of %q", ErrUnknownType, pd.Name, cd.Name),
		}
	}
	pid := parent.ID()
	if pid.IsNull() {
		return &PersistenceError{Op: "add", Table: cd.Table, Err: fmt.Errorf("%s parent has no primary key", pd.Name)}
	}

	child.set(cd.ParentTypeColumn, String(pd.Name))
	child.set(cd.ParentIDColumn, pid)
	return From(r.db, cd).Save(ctx, child)
}

// GetAll returns a query over the children of type childType attached to
// parent. Order is unspecified unless the caller adds OrderBy.
func (r *Resolver) GetAll(parent *Record, childType *TypeDescriptor) (*Query, error) {
	pd, err := r.registered(parent)
	if err != nil {
		return nil, err
	}
	if !childType.HasParent(pd.Name) {
		return nil, fmt.Errorf("%w: %s is not a polymorphic child of %s", ErrNoAssociation, childType.Name, pd.Name)
	}
	if parent.ID().IsNull() {
		return nil, fmt.Errorf("orm: %s parent has no primary key", pd.Name)
	}

	q := From(r.db, childType)
	return q.Scopes(scope.Morph(
		q.qi(childType.ParentTypeColumn), q.qi(childType.ParentIDColumn), pd.Name, parent.ID().Any(),
	)), nil
}

// Get returns the children of parent that also match criteria, ordered by
// the child primary key. params are bound to the ? placeholders of
// criteria; a malformed criteria fails with ErrQuerySyntax.
func (r *Resolver) Get(ctx context.Context, parent *Record, childType *TypeDescriptor, criteria string, params ...any) ([]*Record, error) {
	q, err := r.GetAll(parent, childType)
	if err != nil {
		return nil, err
	}
	children, err := q.Where(criteria, params...).OrderBy(q.qi(childType.PrimaryKey)).All(ctx)
	var syntaxErr *QuerySyntaxError
	if errors.As(err, &syntaxErr) && syntaxErr.Err != nil {
		// The criteria is the only caller-supplied fragment of the statement.
		return nil, &QuerySyntaxError{Clause: criteria, Reason: syntaxErr.Reason, Err: syntaxErr.Err}
	}
	return children, err
}

// Count returns the number of children of type childType attached to parent.
func (r *Resolver) Count(ctx context.Context, parent *Record, childType *TypeDescriptor) (int64, error) {
	q, err := r.GetAll(parent, childType)
	if err != nil {
		return 0, err
	}
	return q.Count(ctx)
}

// Remove deletes child. The row is identified by the child's primary key
// alone; whether it is attached to parent is not checked.
func (r *Resolver) Remove(ctx context.Context, parent, child *Record) error {
	pd, err := r.registered(parent)
	if err != nil {
		return err
	}
	cd, err := r.registered(child)
	if err != nil {
		return err
	}
	if !cd.HasParent(pd.Name) {
		return fmt.Errorf("%w: %s is not a polymorphic child of %s", ErrNoAssociation, cd.Name, pd.Name)
	}
	return From(r.db, cd).Destroy(ctx, child)
}

// Parent loads the record child is attached to. expected must be the type
// stored in the child's discriminator; otherwise Parent fails with a
// *TypeMismatchError and returns no record.
func (r *Resolver) Parent(ctx context.Context, child *Record, expected *TypeDescriptor) (*Record, error) {
	if expected == nil {
		return nil, errors.New("orm: expected parent type is required")
	}
	cd, err := r.registered(child)
	if err != nil {
		return nil, err
	}
	if !cd.IsPolymorphic() {
		return nil, fmt.Errorf("%w: %s has no polymorphic parents", ErrNoAssociation, cd.Name)
	}

	typ, id := child.parentRef()
	if typ.IsNull() || id.IsNull() {
		return nil, ErrNotFound
	}
	if typ.String() != expected.Name {
		return nil, &TypeMismatchError{Expected: expected.Name, Actual: typ.String()}
	}
	if _, err := r.reg.Resolve(expected.Name); err != nil {
		return nil, err
	}

	return From(r.db, expected).Find(ctx, id)
}

// Children returns the children reached from parent under an inferred
// accessor name, e.g. "comments" for the comments type. Results are ordered
// by primary key.
func (r *Resolver) Children(ctx context.Context, parent *Record, name string) ([]*Record, error) {
	pd, err := r.registered(parent)
	if err != nil {
		return nil, err
	}
	for _, cd := range r.reg.ChildrenOf(pd.Name) {
		if cd.ChildAccessor() != name {
			continue
		}
		q, err := r.GetAll(parent, cd)
		if err != nil {
			return nil, err
		}
		return q.OrderBy(q.qi(cd.PrimaryKey)).All(ctx)
	}
	return nil, fmt.Errorf("%w: %s has no children named %q", ErrNoAssociation, pd.Name, name)
}

// ParentOf returns the parent reached from child under an inferred accessor
// name, e.g. "article" for the articles type. The name selects the expected
// type, so a child attached to another type fails with ErrTypeMismatch.
func (r *Resolver) ParentOf(ctx context.Context, child *Record, name string) (*Record, error) {
	cd, err := r.registered(child)
	if err != nil {
		return nil, err
	}
	i := slices.IndexFunc(cd.Parents, func(p string) bool { return naming.ParentAccessor(p) == name })
	if i < 0 {
		return nil, fmt.Errorf("%w: %s has no parent named %q", ErrNoAssociation, cd.Name, name)
	}
	pd, err := r.reg.Resolve(cd.Parents[i])
	if err != nil {
		return nil, err
	}
	return r.Parent(ctx, child, pd)
}

// registered returns the registry's descriptor for the record's type. A
// descriptor that merely shares a registered name is rejected.
func (r *Resolver) registered(rec *Record) (*TypeDescriptor, error) {
	if rec == nil {
		return nil, errors.New("orm: nil record")
	}
	d, err := r.reg.Resolve(rec.Type().Name)
	if err != nil {
		return nil, err
	}
	if d != rec.Type() {
		return nil, fmt.Errorf("%w: %s record was not built from the registered descriptor", ErrUnknownType, d.Name)
	}
	return d, nil
}
