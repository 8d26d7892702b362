package orm_test

import (
	"testing"

	"github.com/mickamy/activerecord/orm"
)

func TestCheckClause(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		clause string
		nargs  int
		reason string
	}{
		{"simple", "author = ?", 1, ""},
		{"two params", "author = ? OR content LIKE ?", 2, ""},
		{"literal", "author = 'ipolevoy'", 0, ""},
		{"question mark in literal", "content = 'really?'", 0, ""},
		{"semicolon in literal", "content = 'a;b'", 0, ""},
		{"nested parens", "(author = ? AND (id > ? OR id < ?))", 3, ""},
		{"order by", "id DESC, author", 0, ""},
		{"empty", "", 0, "empty clause"},
		{"blank", "   ", 0, "empty clause"},
		{"missing arg", "author = ?", 0, "1 placeholders for 0 arguments"},
		{"extra arg", "author = 'x'", 1, "0 placeholders for 1 arguments"},
		{"separator", "id = 1; DELETE FROM comments", 0, "statement separator"},
		{"line comment", "id = 1 -- trailing", 0, "comment"},
		{"block comment", "id = 1 /* hi */", 0, "comment"},
		{"unterminated quote", "author = 'x", 0, "unterminated quote"},
		{"unbalanced open", "(author = ?", 1, "unbalanced parentheses"},
		{"unbalanced close", "author = ?)", 1, "unbalanced parentheses"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := orm.CheckClause(orm.SQLite, tt.clause, tt.nargs)
			if tt.reason == "" {
				if err != nil {
					t.Fatalf("CheckClause(%q) = %v, want nil", tt.clause, err)
				}
				return
			}
			se, ok := err.(*orm.QuerySyntaxError)
			if !ok {
				t.Fatalf("CheckClause(%q) = %v, want *QuerySyntaxError", tt.clause, err)
			}
			if se.Reason != tt.reason {
				t.Errorf("Reason = %q, want %q", se.Reason, tt.reason)
			}
		})
	}
}

func TestCheckClause_BackslashEscapes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		dialect orm.Dialect
		clause  string
		nargs   int
		valid   bool
	}{
		{"mysql escaped quote", orm.MySQL, `author = 'O\'Brien' OR author = ?`, 1, true},
		{"mysql escaped backslash", orm.MySQL, `content = 'C:\\' AND author = ?`, 1, true},
		{"mysql escaped placeholder", orm.MySQL, `content = 'why\'?' AND author = ?`, 1, true},
		{"mysql backslash in identifier", orm.MySQL, "`a\\` = ?", 1, true},
		{"sqlite backslash is literal", orm.SQLite, `content = 'C:\' AND author = ?`, 1, true},
		{"sqlite doubled quote", orm.SQLite, `author = 'O''Brien' OR author = ?`, 1, true},
		{"sqlite escaped quote is unterminated", orm.SQLite, `author = 'O\'Brien' OR author = ?`, 1, false},
		{"postgres escaped quote is unterminated", orm.PostgreSQL, `author = 'O\'Brien'`, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := orm.CheckClause(tt.dialect, tt.clause, tt.nargs)
			if tt.valid && err != nil {
				t.Fatalf("CheckClause(%q) = %v, want nil", tt.clause, err)
			}
			if !tt.valid && err == nil {
				t.Fatalf("CheckClause(%q) = nil, want error", tt.clause)
			}
		})
	}
}

func TestRewritePlaceholders(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		dialect orm.Dialect
		in      string
		want    string
	}{
		{"mysql unchanged", orm.MySQL, "a = ? AND b = ?", "a = ? AND b = ?"},
		{"sqlite unchanged", orm.SQLite, "a = ?", "a = ?"},
		{"postgres numbered", orm.PostgreSQL, "a = ? AND b IN (?, ?)", "a = $1 AND b IN ($2, $3)"},
		{"postgres skips literals", orm.PostgreSQL, "a = '?' AND b = ?", "a = '?' AND b = $1"},
		{"postgres skips quoted idents", orm.PostgreSQL, `"why?" = ?`, `"why?" = $1`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := orm.RewritePlaceholders(tt.dialect, tt.in); got != tt.want {
				t.Errorf("RewritePlaceholders(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
