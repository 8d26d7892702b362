package orm

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/mickamy/activerecord/internal/naming"
)

// Default column names.
const (
	DefaultPrimaryKey       = "id"
	DefaultParentIDColumn   = "parent_id"
	DefaultParentTypeColumn = "parent_type"
)

// Column declares a column of a type's table.
type Column struct {
	Name     string
	Kind     Kind
	Required bool
}

// TypeDescriptor is the static metadata of an entity type.
// Descriptors are normalised by Registry.Register and must not be modified
// afterwards.
type TypeDescriptor struct {
	// Name is the logical type name stored in discriminator columns.
	Name string
	// Table defaults to naming.TableName(Name).
	Table      string
	PrimaryKey string
	Columns    []Column

	// Parents lists the logical names of the types this type can be attached
	// to. A type with Parents is a polymorphic child.
	Parents          []string
	ParentIDColumn   string
	ParentTypeColumn string
}

// IsPolymorphic reports whether the type declares polymorphic parents.
func (d *TypeDescriptor) IsPolymorphic() bool { return len(d.Parents) > 0 }

// HasParent reports whether typeName is a declared parent of d.
func (d *TypeDescriptor) HasParent(typeName string) bool {
	return slices.Contains(d.Parents, typeName)
}

// Column returns the declared column with the given name.
func (d *TypeDescriptor) Column(name string) (Column, bool) {
	for _, c := range d.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// ColumnNames returns the declared column names in declaration order.
func (d *TypeDescriptor) ColumnNames() []string {
	names := make([]string, len(d.Columns))
	for i, c := range d.Columns {
		names[i] = c.Name
	}
	return names
}

// ChildAccessor is the name a parent uses to reach children of this type.
func (d *TypeDescriptor) ChildAccessor() string { return naming.ChildAccessor(d.Name) }

// ParentAccessor is the name a child uses to reach a parent of this type.
func (d *TypeDescriptor) ParentAccessor() string { return naming.ParentAccessor(d.Name) }

func (d *TypeDescriptor) String() string { return d.Name }

// normalize fills defaults and checks the descriptor for consistency.
func (d *TypeDescriptor) normalize() error {
	if d.Name == "" {
		return errors.New("orm: type name is required")
	}
	if d.Table == "" {
		d.Table = naming.TableName(d.Name)
	}
	if d.PrimaryKey == "" {
		d.PrimaryKey = DefaultPrimaryKey
	}

	seen := make(map[string]bool, len(d.Columns))
	for _, c := range d.Columns {
		if c.Name == "" {
			return fmt.Errorf("orm: %s: empty column name", d.Name)
		}
		if seen[c.Name] {
			return fmt.Errorf("orm: %s: duplicate column %q", d.Name, c.Name)
		}
		seen[c.Name] = true
	}

	// Columns are copied so the caller's slice is never aliased.
	cols := make([]Column, 0, len(d.Columns)+3)
	if !seen[d.PrimaryKey] {
		cols = append(cols, Column{Name: d.PrimaryKey, Kind: KindInt})
	}
	cols = append(cols, d.Columns...)

	if d.IsPolymorphic() {
		if d.ParentIDColumn == "" {
			d.ParentIDColumn = DefaultParentIDColumn
		}
		if d.ParentTypeColumn == "" {
			d.ParentTypeColumn = DefaultParentTypeColumn
		}
		if d.ParentIDColumn == d.ParentTypeColumn {
			return fmt.Errorf("orm: %s: discriminator columns must differ", d.Name)
		}
		if !seen[d.ParentIDColumn] {
			cols = append(cols, Column{Name: d.ParentIDColumn, Kind: KindInt})
		}
		if !seen[d.ParentTypeColumn] {
			cols = append(cols, Column{Name: d.ParentTypeColumn, Kind: KindString})
		}
		d.Parents = slices.Clone(d.Parents)
	}
	d.Columns = cols
	return nil
}

// Registry maps logical type names to descriptors.
// It is populated at startup and read-only after Freeze.
type Registry struct {
	mu     sync.RWMutex
	types  map[string]*TypeDescriptor
	frozen bool
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{types: make(map[string]*TypeDescriptor)}
}

// Register normalises d and adds it under d.Name.
func (r *Registry) Register(d TypeDescriptor) (*TypeDescriptor, error) {
	if err := d.normalize(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return nil, fmt.Errorf("orm: registry is frozen, cannot register %q", d.Name)
	}
	if _, ok := r.types[d.Name]; ok {
		return nil, fmt.Errorf("orm: type %q already registered", d.Name)
	}
	r.types[d.Name] = &d
	return &d, nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(d TypeDescriptor) *TypeDescriptor {
	td, err := r.Register(d)
	if err != nil {
		panic(err)
	}
	return td
}

// Resolve returns the descriptor registered under name.
func (r *Registry) Resolve(name string) (*TypeDescriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.types[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, name)
	}
	return d, nil
}

// Freeze verifies that every declared parent is registered and makes the
// registry read-only. Calling Freeze again re-runs the check.
func (r *Registry) Freeze() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, d := range r.types {
		for _, p := range d.Parents {
			if _, ok := r.types[p]; !ok {
				return fmt.Errorf("%w: %q declared as parent of %q", ErrUnknownType, p, d.Name)
			}
		}
	}
	r.frozen = true
	return nil
}

// Types returns all descriptors sorted by name.
func (r *Registry) Types() []*TypeDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*TypeDescriptor, 0, len(r.types))
	for _, d := range r.types {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ChildrenOf returns the descriptors that declare parent as a polymorphic
// parent, sorted by name.
func (r *Registry) ChildrenOf(parent string) []*TypeDescriptor {
	var out []*TypeDescriptor
	for _, d := range r.Types() {
		if d.HasParent(parent) {
			out = append(out, d)
		}
	}
	return out
}
