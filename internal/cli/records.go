package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/mickamy/activerecord/orm"
)

// find loads the record of typeName with the given primary key.
func (a *app) find(ctx context.Context, typeName, id string) (*orm.Record, error) {
	d, err := a.reg.Resolve(typeName)
	if err != nil {
		return nil, err //nolint:wrapcheck // already prefixed
	}
	pk, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s id %q: %w", typeName, id, err)
	}
	r, err := orm.From(a.db, d).Find(ctx, pk)
	if err != nil {
		return nil, fmt.Errorf("%s %d: %w", typeName, pk, err)
	}
	return r, nil
}

// childType returns the child type of parent reached under name.
func (a *app) childType(parent *orm.TypeDescriptor, name string) (*orm.TypeDescriptor, error) {
	for _, d := range a.reg.ChildrenOf(parent.Name) {
		if d.ChildAccessor() == name || d.Name == name {
			return d, nil
		}
	}
	return nil, fmt.Errorf("%w: %s has no children named %q", orm.ErrNoAssociation, parent.Name, name)
}

// parseAssignments parses col=value pairs.
func parseAssignments(pairs []string) (orm.Attrs, error) {
	attrs := make(orm.Attrs, len(pairs))
	for _, p := range pairs {
		col, val, ok := strings.Cut(p, "=")
		if !ok || col == "" {
			return nil, fmt.Errorf("invalid assignment %q, want column=value", p)
		}
		attrs[col] = val
	}
	return attrs, nil
}

// toArgs turns command-line criteria arguments into query parameters.
func toArgs(args []string) []any {
	out := make([]any, len(args))
	for i, s := range args {
		out[i] = s
	}
	return out
}

func renderRecords(w io.Writer, d *orm.TypeDescriptor, records []*orm.Record) {
	renderColumns(w, d.ColumnNames(), records)
}

func renderColumns(w io.Writer, cols []string, records []*orm.Record) {
	if len(records) == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	header := make(table.Row, len(cols))
	for i, col := range cols {
		header[i] = col
	}
	t.AppendHeader(header)

	for _, r := range records {
		row := make(table.Row, len(cols))
		for i, col := range cols {
			row[i] = r.Get(col).String()
		}
		t.AppendRow(row)
	}

	t.Render()
	_, _ = fmt.Fprintf(w, "(%d rows)\n", len(records))
}
