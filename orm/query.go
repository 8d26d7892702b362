package orm

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mickamy/activerecord/scope"
)

// Query represents a pending query against the table of one registered type.
// All builder methods return a new Query; the receiver is never modified.
// Every terminal method reads the store; nothing is cached.
type Query struct {
	db   Querier
	desc *TypeDescriptor

	selects  []string
	wheres   []whereClause
	orderBys []string
	limit    *int
	offset   *int

	// err holds the first invalid fragment; terminals return it.
	err error
}

type whereClause struct {
	clause string
	args   []any
}

// From starts a query on the table of d.
func From(db Querier, d *TypeDescriptor) *Query {
	return &Query{db: db, desc: d}
}

// Type returns the descriptor the query reads.
func (q *Query) Type() *TypeDescriptor { return q.desc }

// clone returns a shallow copy with slices copied to avoid aliasing.
func (q *Query) clone() *Query {
	q2 := *q
	q2.wheres = append([]whereClause(nil), q.wheres...)
	q2.orderBys = append([]string(nil), q.orderBys...)
	q2.selects = append([]string(nil), q.selects...)
	return &q2
}

// --- Builder methods ---

// Where adds a condition. Values must be bound through ? placeholders;
// a malformed clause fails the query with a *QuerySyntaxError.
func (q *Query) Where(clause string, args ...any) *Query {
	q2 := q.clone()
	q2.ApplyWhere(clause, args)
	return q2
}

// OrderBy appends an ORDER BY term such as "id" or "author DESC".
func (q *Query) OrderBy(clause string) *Query {
	q2 := q.clone()
	q2.ApplyOrderBy(clause)
	return q2
}

func (q *Query) Limit(n int) *Query {
	q2 := q.clone()
	q2.limit = &n
	return q2
}

func (q *Query) Offset(n int) *Query {
	q2 := q.clone()
	q2.offset = &n
	return q2
}

// Select restricts the columns read to the given declared columns.
// Records read through a projection hold only those columns.
func (q *Query) Select(columns ...string) *Query {
	q2 := q.clone()
	q2.ApplySelect(columns)
	return q2
}

// Scopes applies the given scope.Scope values to the query.
func (q *Query) Scopes(scopes ...scope.Scope) *Query {
	q2 := q.clone()
	for _, s := range scopes {
		s.Apply(q2)
	}
	return q2
}

// --- scope.Applier implementation ---

func (q *Query) ApplyWhere(clause string, args []any) {
	if err := checkClause(q.db.dialect(), clause, len(args)); err != nil {
		q.fail(err)
		return
	}
	q.wheres = append(q.wheres, whereClause{clause, args})
}

func (q *Query) ApplyOrderBy(clause string) {
	if err := checkClause(q.db.dialect(), clause, 0); err != nil {
		q.fail(err)
		return
	}
	q.orderBys = append(q.orderBys, clause)
}

func (q *Query) ApplySelect(columns []string) {
	for _, c := range columns {
		if _, ok := q.desc.Column(c); !ok {
			q.fail(&QuerySyntaxError{Clause: c, Reason: fmt.Sprintf("%s has no column %q", q.desc.Name, c)})
			return
		}
	}
	q.selects = append([]string(nil), columns...)
}

func (q *Query) ApplyLimit(n int)  { q.limit = &n }
func (q *Query) ApplyOffset(n int) { q.offset = &n }

var _ scope.Applier = (*Query)(nil)

func (q *Query) fail(err error) {
	if q.err == nil {
		q.err = err
	}
}

// whereEq adds "<quoted column> = ?" without going through clause validation.
func (q *Query) whereEq(column string, arg any) *Query {
	q2 := q.clone()
	q2.wheres = append(q2.wheres, whereClause{q.qi(column) + " = ?", []any{arg}})
	return q2
}

// --- Terminal methods ---

// All executes a SELECT and returns all matching records.
func (q *Query) All(ctx context.Context) ([]*Record, error) {
	if q.err != nil {
		return nil, q.err
	}
	query, args := q.buildSelect()
	query = rewritePlaceholders(q.db.dialect(), query)

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, queryError(query, err)
	}
	defer func() { _ = rows.Close() }()

	return scanRecords(rows, q.desc)
}

// First executes a SELECT with LIMIT 1 and returns the first record.
// Returns ErrNotFound if no rows match.
func (q *Query) First(ctx context.Context) (*Record, error) {
	items, err := q.Limit(1).All(ctx)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrNotFound
	}
	return items[0], nil
}

// Find returns the record with the given primary key.
func (q *Query) Find(ctx context.Context, id any) (*Record, error) {
	v, err := ValueOf(id)
	if err != nil {
		return nil, err
	}
	if v.IsNull() {
		return nil, ErrNotFound
	}
	return q.whereEq(q.desc.PrimaryKey, v.Any()).First(ctx)
}

// Count returns the number of rows matching the current query conditions.
func (q *Query) Count(ctx context.Context) (int64, error) {
	if q.err != nil {
		return 0, q.err
	}
	query, args := q.buildCount()
	query = rewritePlaceholders(q.db.dialect(), query)

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return 0, queryError(query, err)
	}
	defer func() { _ = rows.Close() }()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return 0, err //nolint:wrapcheck // pass through
		}
		return 0, errors.New("orm: COUNT returned no rows")
	}
	var count int64
	if err := rows.Scan(&count); err != nil {
		return 0, err //nolint:wrapcheck // pass through
	}
	return count, rows.Err() //nolint:wrapcheck // pass through
}

// Exists returns true if at least one row matches the current query conditions.
func (q *Query) Exists(ctx context.Context) (bool, error) {
	count, err := q.Count(ctx)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Delete deletes rows matching the accumulated WHERE clauses and returns
// the number of rows removed.
// Returns an error if no WHERE clauses are set (safety guard).
func (q *Query) Delete(ctx context.Context) (int64, error) {
	if q.err != nil {
		return 0, q.err
	}
	if len(q.wheres) == 0 {
		return 0, errors.New("orm: Delete without WHERE clause is not allowed")
	}
	query, args := q.buildDelete()
	query = rewritePlaceholders(q.db.dialect(), query)

	result, err := q.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, persistenceError("delete", q.desc.Table, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, err //nolint:wrapcheck // pass through
	}
	return n, nil
}

// scanRecords reads every row into a Record of type d. Values of declared
// columns are converted to the declared kind; other columns keep the driver
// representation.
func scanRecords(rows *sql.Rows, d *TypeDescriptor) ([]*Record, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err //nolint:wrapcheck // pass through
	}

	kinds := make([]Kind, len(cols))
	for i, name := range cols {
		if c, ok := d.Column(name); ok {
			kinds[i] = c.Kind
		}
	}

	raw := make([]any, len(cols))
	dest := make([]any, len(cols))
	for i := range raw {
		dest[i] = &raw[i]
	}

	var result []*Record
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, err //nolint:wrapcheck // pass through
		}
		rec := &Record{desc: d, values: make(map[string]Value, len(cols)), persisted: true}
		for i, name := range cols {
			v, err := ValueOf(raw[i])
			if err != nil {
				return nil, fmt.Errorf("orm: scan %s.%s: %w", d.Table, name, err)
			}
			if v, err = coerce(v, kinds[i]); err != nil {
				return nil, fmt.Errorf("orm: scan %s.%s: %w", d.Table, name, err)
			}
			rec.set(name, v)
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err //nolint:wrapcheck // pass through
	}
	return result, nil
}

// --- SQL building ---

// Columns returns the columns the query reads: the selected ones, or every
// declared column.
func (q *Query) Columns() []string {
	if len(q.selects) > 0 {
		return append([]string(nil), q.selects...)
	}
	return q.desc.ColumnNames()
}

// qi quotes an identifier (table/column name) using the dialect.
func (q *Query) qi(name string) string {
	return q.db.dialect().QuoteIdent(name)
}

// quoteColumns joins column names with dialect-aware quoting.
func (q *Query) quoteColumns(cols []string) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = q.qi(c)
	}
	return strings.Join(quoted, ", ")
}

func (q *Query) buildSelect() (string, []any) {
	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(q.quoteColumns(q.Columns()))
	b.WriteString(" FROM ")
	b.WriteString(q.qi(q.desc.Table))

	args := q.appendWhere(&b)

	if len(q.orderBys) > 0 {
		b.WriteString(" ORDER BY ")
		b.WriteString(strings.Join(q.orderBys, ", "))
	}
	q.appendLimit(&b)

	return b.String(), args
}

func (q *Query) buildCount() (string, []any) {
	var b strings.Builder
	b.WriteString("SELECT COUNT(*) FROM ")
	b.WriteString(q.qi(q.desc.Table))
	args := q.appendWhere(&b)
	return b.String(), args
}

func (q *Query) buildDelete() (string, []any) {
	var b strings.Builder
	b.WriteString("DELETE FROM ")
	b.WriteString(q.qi(q.desc.Table))
	args := q.appendWhere(&b)
	return b.String(), args
}

func (q *Query) appendWhere(b *strings.Builder) []any {
	if len(q.wheres) == 0 {
		return nil
	}

	var args []any
	b.WriteString(" WHERE ")
	for i, w := range q.wheres {
		if i > 0 {
			b.WriteString(" AND ")
		}
		if len(q.wheres) > 1 {
			b.WriteByte('(')
			b.WriteString(w.clause)
			b.WriteByte(')')
		} else {
			b.WriteString(w.clause)
		}
		args = append(args, w.args...)
	}
	return args
}

func (q *Query) appendLimit(b *strings.Builder) {
	if q.limit != nil {
		fmt.Fprintf(b, " LIMIT %d", *q.limit)
	}
	if q.offset != nil {
		if q.limit == nil {
			// MySQL and SQLite only accept OFFSET after a LIMIT.
			switch q.db.dialect().Name() {
			case "mysql":
				b.WriteString(" LIMIT 18446744073709551615")
			case "sqlite":
				b.WriteString(" LIMIT -1")
			}
		}
		fmt.Fprintf(b, " OFFSET %d", *q.offset)
	}
}
