package orm

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// MySQL error numbers treated as constraint violations.
const (
	mysqlBadNull      = 1048
	mysqlDupEntry     = 1062
	mysqlRowIsParent  = 1451
	mysqlNoParentRow  = 1452
	mysqlCheckViolate = 3819
	mysqlParseError   = 1064
)

// pgSyntaxError is the SQLSTATE for syntax_error.
const pgSyntaxError = "42601"

// IsConstraintViolation reports whether err is a driver error for a
// NOT NULL, UNIQUE, FOREIGN KEY or CHECK violation.
func IsConstraintViolation(err error) bool {
	if err == nil {
		return false
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case mysqlBadNull, mysqlDupEntry, mysqlRowIsParent, mysqlNoParentRow, mysqlCheckViolate:
			return true
		}
		return false
	}

	// SQLSTATE class 23: integrity constraint violation.
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return strings.HasPrefix(pgErr.Code, "23")
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT
	}

	return false
}

// IsSyntaxError reports whether err is a driver error for a statement the
// store could not parse.
func IsSyntaxError(err error) bool {
	if err == nil {
		return false
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlParseError
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgSyntaxError
	}

	// SQLite reports parse failures as a generic SQLITE_ERROR.
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		msg := liteErr.Error()
		return liteErr.Code()&0xff == sqlite3.SQLITE_ERROR &&
			(strings.Contains(msg, "syntax error") || strings.Contains(msg, "incomplete input"))
	}

	return false
}

// queryError converts a store parse failure of query into a
// *QuerySyntaxError and passes other errors through.
func queryError(query string, err error) error {
	if IsSyntaxError(err) {
		return &QuerySyntaxError{Clause: query, Reason: "rejected by the store", Err: err}
	}
	return err
}
