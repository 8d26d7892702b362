package orm

import (
	"fmt"
	"maps"
	"sort"
	"strings"
)

// Attrs holds initial attribute values for TypeDescriptor.New.
type Attrs map[string]any

// Record is a single row of a registered type.
// Values are read and written by column name; undeclared columns are
// rejected by Set.
type Record struct {
	desc      *TypeDescriptor
	values    map[string]Value
	persisted bool
}

// New returns an unsaved Record of type d with the given attributes.
func (d *TypeDescriptor) New(attrs Attrs) (*Record, error) {
	r := &Record{desc: d, values: make(map[string]Value, len(d.Columns))}
	for name, v := range attrs {
		if err := r.Set(name, v); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// MustNew is like New but panics on error.
func (d *TypeDescriptor) MustNew(attrs Attrs) *Record {
	r, err := d.New(attrs)
	if err != nil {
		panic(err)
	}
	return r
}

// Type returns the record's descriptor.
func (r *Record) Type() *TypeDescriptor { return r.desc }

// ID returns the primary key value, NULL for a record never saved.
func (r *Record) ID() Value { return r.values[r.desc.PrimaryKey] }

// IsNew reports whether the record has not been persisted yet.
func (r *Record) IsNew() bool { return !r.persisted }

// Get returns the value of column name, NULL if unset.
func (r *Record) Get(name string) Value { return r.values[name] }

// Lookup returns the value of column name and whether it is set.
func (r *Record) Lookup(name string) (Value, bool) {
	v, ok := r.values[name]
	return v, ok
}

// Set assigns a value to a declared column, converting it to the column kind.
func (r *Record) Set(name string, x any) error {
	col, ok := r.desc.Column(name)
	if !ok {
		return fmt.Errorf("orm: %s has no column %q", r.desc.Name, name)
	}
	v, err := ValueOf(x)
	if err != nil {
		return err
	}
	v, err = coerce(v, col.Kind)
	if err != nil {
		return fmt.Errorf("orm: %s.%s: %w", r.desc.Name, name, err)
	}
	r.values[name] = v
	return nil
}

// Attributes returns a copy of all set values.
func (r *Record) Attributes() map[string]Value {
	return maps.Clone(r.values)
}

func (r *Record) String() string {
	keys := make([]string, 0, len(r.values))
	for k := range r.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(r.desc.Name)
	b.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s: %s", k, r.values[k])
	}
	b.WriteByte('}')
	return b.String()
}

// set stores a value read from the database without column validation.
func (r *Record) set(name string, v Value) { r.values[name] = v }

// parentRef returns the discriminator pair of a polymorphic child.
func (r *Record) parentRef() (typeName, id Value) {
	return r.Get(r.desc.ParentTypeColumn), r.Get(r.desc.ParentIDColumn)
}
