package orm

import (
	"context"
	"database/sql"
)

// Querier is what Query and Resolver run statements through. *DB and *Tx
// implement it, so association operations behave the same inside and
// outside a transaction.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	dialect() Dialect
}

// conn is the subset of *sql.DB and *sql.Tx used by session.
type conn interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// session routes statements to a connection, logging them first when a
// Logger is attached.
type session struct {
	c      conn
	d      Dialect
	logger Logger
}

func (s session) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	if s.logger != nil {
		s.logger.Log(ctx, query, args...)
	}
	return s.c.QueryContext(ctx, query, args...) //nolint:wrapcheck // pass through
}

func (s session) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if s.logger != nil {
		s.logger.Log(ctx, query, args...)
	}
	return s.c.ExecContext(ctx, query, args...) //nolint:wrapcheck // pass through
}

func (s session) dialect() Dialect { return s.d }

// Dialect returns the dialect statements are written in.
func (s session) Dialect() Dialect { return s.d }

// DB is a *sql.DB paired with its Dialect.
type DB struct {
	session
	raw *sql.DB
}

// New wraps db for the given dialect.
func New(db *sql.DB, d Dialect) *DB {
	return &DB{session: session{c: db, d: d}, raw: db}
}

// Debug returns a copy of db that logs every statement to l.
func (db *DB) Debug(l Logger) *DB {
	cp := *db
	cp.logger = l
	return &cp
}

// Raw returns the wrapped *sql.DB.
func (db *DB) Raw() *sql.DB { return db.raw }

// Begin starts a transaction that logs like db.
func (db *DB) Begin(ctx context.Context) (*Tx, error) {
	tx, err := db.raw.BeginTx(ctx, nil)
	if err != nil {
		return nil, err //nolint:wrapcheck // pass through
	}
	return &Tx{session: session{c: tx, d: db.d, logger: db.logger}, raw: tx}, nil
}

// Transaction runs fn inside a transaction. It commits when fn returns nil
// and rolls back when fn returns an error or panics.
func (db *DB) Transaction(ctx context.Context, fn func(tx *Tx) error) (err error) {
	tx, err := db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	if err = fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// Close closes the underlying *sql.DB.
func (db *DB) Close() error { return db.raw.Close() } //nolint:wrapcheck // pass through

// Tx is a *sql.Tx paired with its Dialect.
type Tx struct {
	session
	raw *sql.Tx
}

func (tx *Tx) Commit() error   { return tx.raw.Commit() }   //nolint:wrapcheck // pass through
func (tx *Tx) Rollback() error { return tx.raw.Rollback() } //nolint:wrapcheck // pass through

var (
	_ Querier = (*DB)(nil)
	_ Querier = (*Tx)(nil)
)
