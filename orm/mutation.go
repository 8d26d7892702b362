package orm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Save inserts a new record or updates a persisted one.
func (q *Query) Save(ctx context.Context, r *Record) error {
	if r.IsNew() {
		return q.Create(ctx, r)
	}
	return q.Update(ctx, r)
}

// Create inserts r as a new row. The primary key is populated via RETURNING
// (PostgreSQL) or LastInsertId (MySQL, SQLite) unless r already carries one.
func (q *Query) Create(ctx context.Context, r *Record) error {
	if err := q.checkWrite("insert", r); err != nil {
		return err
	}
	touch(ctx, r)

	autoPK := r.ID().IsNull()
	columns, values := q.columnValues(r, !autoPK)

	query := q.buildInsert(columns)
	query = rewritePlaceholders(q.db.dialect(), query)

	d := q.db.dialect()
	if d.UseReturning() && autoPK {
		query += d.ReturningClause(q.desc.PrimaryKey)
		rows, err := q.db.QueryContext(ctx, query, values...)
		if err != nil {
			return persistenceError("insert", q.desc.Table, err)
		}
		defer func() { _ = rows.Close() }()
		if !rows.Next() {
			if err := rows.Err(); err != nil {
				return persistenceError("insert", q.desc.Table, err)
			}
			return errors.New("orm: INSERT RETURNING returned no rows")
		}
		var id int64
		if err := rows.Scan(&id); err != nil {
			return err //nolint:wrapcheck // pass through
		}
		r.set(q.desc.PrimaryKey, Int(id))
		r.persisted = true
		return rows.Err() //nolint:wrapcheck // pass through
	}

	result, err := q.db.ExecContext(ctx, query, values...)
	if err != nil {
		return persistenceError("insert", q.desc.Table, err)
	}

	if autoPK {
		id, err := result.LastInsertId()
		if err != nil {
			return err //nolint:wrapcheck // pass through
		}
		r.set(q.desc.PrimaryKey, Int(id))
	}
	r.persisted = true
	return nil
}

// Update writes all set columns of r to the row identified by its primary key.
func (q *Query) Update(ctx context.Context, r *Record) error {
	if err := q.checkWrite("update", r); err != nil {
		return err
	}
	pk := r.ID()
	if pk.IsNull() {
		return &PersistenceError{Op: "update", Table: q.desc.Table, Err: errors.New("primary key value is required")}
	}
	touch(ctx, r)

	setCols, setVals := q.columnValues(r, false)
	if len(setCols) == 0 {
		return nil
	}
	setVals = append(setVals, pk.Any())

	query := q.buildUpdate(setCols)
	query = rewritePlaceholders(q.db.dialect(), query)

	if _, err := q.db.ExecContext(ctx, query, setVals...); err != nil {
		return persistenceError("update", q.desc.Table, err)
	}
	return nil
}

// Destroy deletes the row identified by the primary key of r.
// Returns ErrNotFound if no row was deleted. On success r becomes new again.
func (q *Query) Destroy(ctx context.Context, r *Record) error {
	if r.Type() != q.desc {
		return fmt.Errorf("orm: cannot delete %s record from %s", r.Type().Name, q.desc.Name)
	}
	pk := r.ID()
	if pk.IsNull() {
		return &PersistenceError{Op: "delete", Table: q.desc.Table, Err: errors.New("primary key value is required")}
	}

	n, err := q.whereEq(q.desc.PrimaryKey, pk.Any()).Delete(ctx)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	r.persisted = false
	return nil
}

// checkWrite rejects records that would violate the declared schema.
func (q *Query) checkWrite(op string, r *Record) error {
	if r.Type() != q.desc {
		return fmt.Errorf("orm: cannot %s %s record into %s", op, r.Type().Name, q.desc.Name)
	}

	for _, c := range q.desc.Columns {
		if c.Required && c.Name != q.desc.PrimaryKey && r.Get(c.Name).IsNull() {
			return &PersistenceError{Op: op, Table: q.desc.Table, Err: fmt.Errorf("column %q is required", c.Name)}
		}
	}

	if q.desc.IsPolymorphic() {
		typ, _ := r.parentRef()
		if !typ.IsNull() && !q.desc.HasParent(typ.String()) {
			return &PersistenceError{
				Op:    op,
				Table: q.desc.Table,
				Err:   fmt.Errorf("%w: %q is not a parent type of %q", ErrUnknownType, typ.String(), q.desc.Name),
			}
		}
	}
	return nil
}

// columnValues returns the set columns of r in declaration order.
// The primary key is included only when includesPK is true.
func (q *Query) columnValues(r *Record, includesPK bool) (columns []string, values []any) {
	for _, c := range q.desc.Columns {
		if c.Name == q.desc.PrimaryKey && !includesPK {
			continue
		}
		v, ok := r.Lookup(c.Name)
		if !ok {
			continue
		}
		columns = append(columns, c.Name)
		values = append(values, v.Any())
	}
	return columns, values
}

func (q *Query) buildInsert(columns []string) string {
	if len(columns) == 0 {
		if q.db.dialect().Name() == "mysql" {
			return fmt.Sprintf("INSERT INTO %s () VALUES ()", q.qi(q.desc.Table))
		}
		return fmt.Sprintf("INSERT INTO %s DEFAULT VALUES", q.qi(q.desc.Table))
	}
	placeholders := make([]string, len(columns))
	for i := range placeholders {
		placeholders[i] = "?"
	}
	return fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		q.qi(q.desc.Table),
		q.quoteColumns(columns),
		strings.Join(placeholders, ", "),
	)
}

func (q *Query) buildUpdate(setCols []string) string {
	sets := make([]string, len(setCols))
	for i, col := range setCols {
		sets[i] = q.qi(col) + " = ?"
	}
	return fmt.Sprintf(
		"UPDATE %s SET %s WHERE %s = ?",
		q.qi(q.desc.Table),
		strings.Join(sets, ", "),
		q.qi(q.desc.PrimaryKey),
	)
}
