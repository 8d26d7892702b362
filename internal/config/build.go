package config

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/mickamy/activerecord/internal/schema"
	"github.com/mickamy/activerecord/internal/typedecl"
	"github.com/mickamy/activerecord/orm"
)

// Dialect returns the configured orm dialect.
func (c *Config) Dialect() (orm.Dialect, error) {
	return orm.DialectByName(c.Database.Dialect)
}

// DriverName returns the database/sql driver name for the configured
// dialect.
func (c *Config) DriverName() (string, error) {
	d, err := c.Dialect()
	if err != nil {
		return "", err
	}
	switch d.Name() {
	case "postgres":
		return "pgx", nil
	default:
		return d.Name(), nil
	}
}

// Registry builds a frozen registry from the declared types and the
// structs found in TypesFrom, or the blog schema when there are none.
func (c *Config) Registry() (*orm.Registry, error) {
	if len(c.Types) == 0 && len(c.TypesFrom) == 0 {
		return schema.Registry()
	}

	descs := make([]orm.TypeDescriptor, 0, len(c.Types))
	for _, t := range c.Types {
		d, err := t.descriptor()
		if err != nil {
			return nil, err
		}
		descs = append(descs, d)
	}
	for _, path := range c.TypesFrom {
		ds, err := typedecl.Descriptors(path)
		if err != nil {
			return nil, fmt.Errorf("types_from: %w", err)
		}
		descs = append(descs, ds...)
	}

	reg := orm.NewRegistry()
	for _, d := range descs {
		if _, err := reg.Register(d); err != nil {
			return nil, err //nolint:wrapcheck // already prefixed
		}
	}
	if err := reg.Freeze(); err != nil {
		return nil, err //nolint:wrapcheck // already prefixed
	}
	return reg, nil
}

func (t TypeConfig) descriptor() (orm.TypeDescriptor, error) {
	cols := make([]orm.Column, len(t.Columns))
	for i, c := range t.Columns {
		k, err := orm.ParseKind(c.Kind)
		if err != nil {
			return orm.TypeDescriptor{}, fmt.Errorf("type %s: %w", t.Name, err)
		}
		cols[i] = orm.Column{Name: c.Name, Kind: k, Required: c.Required}
	}
	return orm.TypeDescriptor{
		Name:             t.Name,
		Table:            t.Table,
		PrimaryKey:       t.PrimaryKey,
		Columns:          cols,
		Parents:          t.Parents,
		ParentIDColumn:   t.ParentIDColumn,
		ParentTypeColumn: t.ParentTypeColumn,
	}, nil
}

// Logger returns a slog.Logger writing to w in the configured format.
func (c *Config) Logger(w io.Writer) (*slog.Logger, error) {
	lvl, err := c.Log.level()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}
