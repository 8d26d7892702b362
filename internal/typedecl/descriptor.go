package typedecl

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mickamy/activerecord/internal/naming"
	"github.com/mickamy/activerecord/orm"
)

// kinds maps Go field types to column kinds. Pointers map like their
// element type.
var kinds = map[string]orm.Kind{
	"int":             orm.KindInt,
	"int8":            orm.KindInt,
	"int16":           orm.KindInt,
	"int32":           orm.KindInt,
	"int64":           orm.KindInt,
	"uint":            orm.KindInt,
	"uint8":           orm.KindInt,
	"uint16":          orm.KindInt,
	"uint32":          orm.KindInt,
	"uint64":          orm.KindInt,
	"bool":            orm.KindInt,
	"float32":         orm.KindFloat,
	"float64":         orm.KindFloat,
	"string":          orm.KindString,
	"[]byte":          orm.KindBytes,
	"time.Time":       orm.KindTime,
	"sql.NullInt64":   orm.KindInt,
	"sql.NullInt32":   orm.KindInt,
	"sql.NullBool":    orm.KindInt,
	"sql.NullFloat64": orm.KindFloat,
	"sql.NullString":  orm.KindString,
	"sql.NullTime":    orm.KindTime,
}

// KindOf returns the column kind for a Go type as written in source.
func KindOf(goType string) (orm.Kind, error) {
	if k, ok := kinds[strings.TrimPrefix(goType, "*")]; ok {
		return k, nil
	}
	return orm.KindNull, fmt.Errorf("unsupported field type %s", goType)
}

// Descriptor converts s into a TypeDescriptor ready for registration.
func (s *StructInfo) Descriptor() (orm.TypeDescriptor, error) {
	pk, err := s.PrimaryKeyField()
	if err != nil {
		return orm.TypeDescriptor{}, err
	}

	d := orm.TypeDescriptor{
		Name:       naming.TableName(s.Name),
		Table:      s.TableName,
		PrimaryKey: pk.Column,
		Columns:    make([]orm.Column, 0, len(s.Fields)),
		Parents:    s.Parents,
	}
	for _, f := range s.Fields {
		k, err := KindOf(f.GoType)
		if err != nil {
			return orm.TypeDescriptor{}, fmt.Errorf("%s.%s: %w", s.Name, f.Name, err)
		}
		d.Columns = append(d.Columns, orm.Column{Name: f.Column, Kind: k, Required: f.Required})

		switch {
		case f.MorphType:
			d.ParentTypeColumn = f.Column
		case f.MorphID:
			d.ParentIDColumn = f.Column
		}
	}

	if (d.ParentTypeColumn == "") != (d.ParentIDColumn == "") {
		return orm.TypeDescriptor{}, fmt.Errorf("%s: morphType and morphID must be declared together", s.Name)
	}
	if d.ParentTypeColumn != "" && len(d.Parents) == 0 {
		return orm.TypeDescriptor{}, fmt.Errorf("%s: morphType field has no morph tag listing parents", s.Name)
	}
	return d, nil
}

// Descriptors parses the Go file at path and returns a descriptor for each
// struct with db fields.
func Descriptors(path string) ([]orm.TypeDescriptor, error) {
	infos, err := ParseFile(path)
	if err != nil {
		return nil, err
	}

	var (
		out  = make([]orm.TypeDescriptor, 0, len(infos))
		errs []error
	)
	for _, info := range infos {
		d, err := info.Descriptor()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, d)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return out, nil
}
