package orm_test

import (
	"errors"
	"testing"

	"github.com/mickamy/activerecord/orm"
	"github.com/mickamy/activerecord/scope"
)

var users = func() *orm.TypeDescriptor {
	reg := orm.NewRegistry()
	return reg.MustRegister(orm.TypeDescriptor{
		Name:    "users",
		Columns: []orm.Column{{Name: "name", Kind: orm.KindString}},
	})
}()

func newTestQuery(tq *orm.TestQuerier) *orm.Query {
	return orm.From(tq, users)
}

// --- SELECT (MySQL) ---

func TestBuildSelectAll(t *testing.T) {
	t.Parallel()

	tq := orm.NewTestQuerier(orm.MySQL)
	_, _ = newTestQuery(tq).All(t.Context())

	got := tq.LastQuery()
	want := "SELECT `id`, `name` FROM `users`"
	if got.SQL != want {
		t.Errorf("SQL = %q, want %q", got.SQL, want)
	}
}

func TestBuildSelectWhere(t *testing.T) {
	t.Parallel()

	tq := orm.NewTestQuerier(orm.MySQL)
	_, _ = newTestQuery(tq).Where("name = ?", "alice").All(t.Context())

	got := tq.LastQuery()
	want := "SELECT `id`, `name` FROM `users` WHERE name = ?"
	if got.SQL != want {
		t.Errorf("SQL = %q, want %q", got.SQL, want)
	}
	if len(got.Args) != 1 || got.Args[0] != "alice" {
		t.Errorf("Args = %v", got.Args)
	}
}

func TestBuildSelectMultipleWhere(t *testing.T) {
	t.Parallel()

	tq := orm.NewTestQuerier(orm.MySQL)
	_, _ = newTestQuery(tq).Where("name = ? OR name = ?", "alice", "bob").Where("id > ?", 10).All(t.Context())

	got := tq.LastQuery()
	want := "SELECT `id`, `name` FROM `users` WHERE (name = ? OR name = ?) AND (id > ?)"
	if got.SQL != want {
		t.Errorf("SQL = %q, want %q", got.SQL, want)
	}
	if len(got.Args) != 3 {
		t.Errorf("Args = %v, want 3 args", got.Args)
	}
}

func TestBuildSelectFull(t *testing.T) {
	t.Parallel()

	tq := orm.NewTestQuerier(orm.MySQL)
	_, _ = newTestQuery(tq).
		Where("name = ?", "alice").
		OrderBy("id DESC").
		Limit(5).
		Offset(10).
		All(t.Context())

	got := tq.LastQuery()
	want := "SELECT `id`, `name` FROM `users` WHERE name = ? ORDER BY id DESC LIMIT 5 OFFSET 10"
	if got.SQL != want {
		t.Errorf("SQL = %q, want %q", got.SQL, want)
	}
}

func TestBuildSelectOffsetWithoutLimit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		dialect orm.Dialect
		want    string
	}{
		{orm.MySQL, "SELECT `id`, `name` FROM `users` LIMIT 18446744073709551615 OFFSET 3"},
		{orm.SQLite, `SELECT "id", "name" FROM "users" LIMIT -1 OFFSET 3`},
		{orm.PostgreSQL, `SELECT "id", "name" FROM "users" OFFSET 3`},
	}
	for _, tt := range tests {
		tq := orm.NewTestQuerier(tt.dialect)
		_, _ = newTestQuery(tq).Offset(3).All(t.Context())

		if got := tq.LastQuery().SQL; got != tt.want {
			t.Errorf("%s: SQL = %q, want %q", tt.dialect.Name(), got, tt.want)
		}
	}
}

// --- Scopes ---

func TestBuildSelectWithScopes(t *testing.T) {
	t.Parallel()

	tq := orm.NewTestQuerier(orm.MySQL)
	scopes := scope.Combine(
		scope.Where("name = ?", "alice"),
		scope.OrderBy("id DESC"),
	).Merge(scope.Paginate(3, 10))
	_, _ = newTestQuery(tq).Scopes(scopes...).All(t.Context())

	got := tq.LastQuery()
	want := "SELECT `id`, `name` FROM `users` WHERE name = ? ORDER BY id DESC LIMIT 10 OFFSET 20"
	if got.SQL != want {
		t.Errorf("SQL = %q, want %q", got.SQL, want)
	}
}

// --- Projection ---

func TestBuildSelectColumns(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		query func(q *orm.Query) *orm.Query
		want  string
	}{
		{
			name:  "Select",
			query: func(q *orm.Query) *orm.Query { return q.Select("name") },
			want:  "SELECT `name` FROM `users`",
		},
		{
			name:  "scope.Select",
			query: func(q *orm.Query) *orm.Query { return q.Scopes(scope.Select("id", "name")) },
			want:  "SELECT `id`, `name` FROM `users`",
		},
		{
			name:  "last select wins",
			query: func(q *orm.Query) *orm.Query { return q.Select("id").Select("name").Where("id > ?", 1) },
			want:  "SELECT `name` FROM `users` WHERE id > ?",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			tq := orm.NewTestQuerier(orm.MySQL)
			_, _ = tt.query(newTestQuery(tq)).All(t.Context())

			if got := tq.LastQuery().SQL; got != tt.want {
				t.Errorf("SQL = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSelectRejectsUndeclaredColumn(t *testing.T) {
	t.Parallel()

	tq := orm.NewTestQuerier(orm.MySQL)
	_, err := newTestQuery(tq).Select("name", "password").All(t.Context())

	var qe *orm.QuerySyntaxError
	if !errors.As(err, &qe) || qe.Clause != "password" {
		t.Fatalf("error = %v, want QuerySyntaxError for password", err)
	}
	if len(tq.Queries) != 0 {
		t.Errorf("Queries = %v, want none", tq.Queries)
	}
}

// --- Immutability ---

func TestQueryImmutability(t *testing.T) {
	t.Parallel()

	tq := orm.NewTestQuerier(orm.MySQL)
	base := newTestQuery(tq)

	_ = base.Where("name = ?", "alice")
	_ = base.OrderBy("id")
	_ = base.Limit(10)
	_ = base.Offset(5)
	_ = base.Where("broken = ?")

	_, err := base.All(t.Context())
	if errors.Is(err, orm.ErrQuerySyntax) {
		t.Fatalf("base query inherited a derived error: %v", err)
	}

	got := tq.LastQuery()
	want := "SELECT `id`, `name` FROM `users`"
	if got.SQL != want {
		t.Errorf("base query was mutated: SQL = %q", got.SQL)
	}
}

// --- Criteria validation ---

func TestInvalidCriteriaSkipsStore(t *testing.T) {
	t.Parallel()

	tq := orm.NewTestQuerier(orm.MySQL)
	q := newTestQuery(tq).Where("name = ?").Where("id = ?", 1)

	if _, err := q.All(t.Context()); !errors.Is(err, orm.ErrQuerySyntax) {
		t.Errorf("All error = %v, want ErrQuerySyntax", err)
	}
	if _, err := q.Count(t.Context()); !errors.Is(err, orm.ErrQuerySyntax) {
		t.Errorf("Count error = %v, want ErrQuerySyntax", err)
	}
	if _, err := q.Delete(t.Context()); !errors.Is(err, orm.ErrQuerySyntax) {
		t.Errorf("Delete error = %v, want ErrQuerySyntax", err)
	}
	if len(tq.Queries) != 0 {
		t.Errorf("Queries = %v, want none", tq.Queries)
	}
}

func TestOrderByRejectsInjection(t *testing.T) {
	t.Parallel()

	tq := orm.NewTestQuerier(orm.MySQL)
	_, err := newTestQuery(tq).OrderBy("id; DROP TABLE users").All(t.Context())

	var syntaxErr *orm.QuerySyntaxError
	if !errors.As(err, &syntaxErr) {
		t.Fatalf("error = %v, want *QuerySyntaxError", err)
	}
	if syntaxErr.Reason != "statement separator" {
		t.Errorf("Reason = %q", syntaxErr.Reason)
	}
}

// --- COUNT ---

func TestBuildCount(t *testing.T) {
	t.Parallel()

	tq := orm.NewTestQuerier(orm.PostgreSQL)
	_, _ = newTestQuery(tq).Where("name = ?", "alice").Limit(3).Count(t.Context())

	got := tq.LastQuery()
	want := `SELECT COUNT(*) FROM "users" WHERE name = $1`
	if got.SQL != want {
		t.Errorf("SQL = %q, want %q", got.SQL, want)
	}
}

// --- INSERT ---

func TestBuildInsertMySQL(t *testing.T) {
	t.Parallel()

	tq := orm.NewTestQuerier(orm.MySQL)
	u := users.MustNew(orm.Attrs{"name": "alice"})
	if err := newTestQuery(tq).Create(t.Context(), u); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got := tq.LastQuery()
	want := "INSERT INTO `users` (`name`) VALUES (?)"
	if got.SQL != want {
		t.Errorf("SQL = %q, want %q", got.SQL, want)
	}
	if len(got.Args) != 1 || got.Args[0] != "alice" {
		t.Errorf("Args = %v", got.Args)
	}
	if u.ID() != orm.Int(7) || u.IsNew() {
		t.Errorf("after Create: id = %v, new = %v", u.ID(), u.IsNew())
	}
}

func TestBuildInsertPostgreSQL(t *testing.T) {
	t.Parallel()

	tq := orm.NewTestQuerier(orm.PostgreSQL)
	u := users.MustNew(orm.Attrs{"name": "alice"})
	_ = newTestQuery(tq).Create(t.Context(), u)

	got := tq.LastQuery()
	want := `INSERT INTO "users" ("name") VALUES ($1) RETURNING "id"`
	if got.SQL != want {
		t.Errorf("SQL = %q, want %q", got.SQL, want)
	}
}

func TestBuildInsertExplicitPK(t *testing.T) {
	t.Parallel()

	tq := orm.NewTestQuerier(orm.PostgreSQL)
	u := users.MustNew(orm.Attrs{"id": 42, "name": "alice"})
	if err := newTestQuery(tq).Create(t.Context(), u); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got := tq.LastQuery()
	want := `INSERT INTO "users" ("id", "name") VALUES ($1, $2)`
	if got.SQL != want {
		t.Errorf("SQL = %q, want %q", got.SQL, want)
	}
	if u.ID() != orm.Int(42) {
		t.Errorf("id = %v, want 42", u.ID())
	}
}

func TestBuildInsertDefaultValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		dialect orm.Dialect
		want    string
	}{
		{orm.MySQL, "INSERT INTO `users` () VALUES ()"},
		{orm.SQLite, `INSERT INTO "users" DEFAULT VALUES`},
	}
	for _, tt := range tests {
		tq := orm.NewTestQuerier(tt.dialect)
		_ = newTestQuery(tq).Create(t.Context(), users.MustNew(nil))

		if got := tq.LastQuery().SQL; got != tt.want {
			t.Errorf("%s: SQL = %q, want %q", tt.dialect.Name(), got, tt.want)
		}
	}
}

// --- UPDATE ---

func TestBuildUpdate(t *testing.T) {
	t.Parallel()

	tq := orm.NewTestQuerier(orm.MySQL)
	u := users.MustNew(orm.Attrs{"id": 1, "name": "bob"})
	_ = newTestQuery(tq).Update(t.Context(), u)

	got := tq.LastQuery()
	want := "UPDATE `users` SET `name` = ? WHERE `id` = ?"
	if got.SQL != want {
		t.Errorf("SQL = %q, want %q", got.SQL, want)
	}
	if len(got.Args) != 2 || got.Args[0] != "bob" || got.Args[1] != int64(1) {
		t.Errorf("Args = %v", got.Args)
	}
}

func TestBuildUpdatePostgreSQL(t *testing.T) {
	t.Parallel()

	tq := orm.NewTestQuerier(orm.PostgreSQL)
	_ = newTestQuery(tq).Update(t.Context(), users.MustNew(orm.Attrs{"id": 1, "name": "bob"}))

	got := tq.LastQuery()
	want := `UPDATE "users" SET "name" = $1 WHERE "id" = $2`
	if got.SQL != want {
		t.Errorf("SQL = %q, want %q", got.SQL, want)
	}
}

func TestUpdateWithoutPKReturnsError(t *testing.T) {
	t.Parallel()

	tq := orm.NewTestQuerier(orm.MySQL)
	err := newTestQuery(tq).Update(t.Context(), users.MustNew(orm.Attrs{"name": "bob"}))
	if !errors.Is(err, orm.ErrPersistence) {
		t.Fatalf("error = %v, want ErrPersistence", err)
	}
	if len(tq.Queries) != 0 {
		t.Errorf("Queries = %v, want none", tq.Queries)
	}
}

// --- DELETE ---

func TestBuildDelete(t *testing.T) {
	t.Parallel()

	tq := orm.NewTestQuerier(orm.MySQL)
	n, err := newTestQuery(tq).Where("id = ?", 1).Delete(t.Context())
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if n != 1 {
		t.Errorf("affected = %d, want 1", n)
	}

	got := tq.LastQuery()
	want := "DELETE FROM `users` WHERE id = ?"
	if got.SQL != want {
		t.Errorf("SQL = %q, want %q", got.SQL, want)
	}
}

func TestDeleteWithoutWhereReturnsError(t *testing.T) {
	t.Parallel()

	tq := orm.NewTestQuerier(orm.MySQL)
	if _, err := newTestQuery(tq).Delete(t.Context()); err == nil {
		t.Fatal("expected error for Delete without WHERE, got nil")
	}
}

func TestDestroyMissingRow(t *testing.T) {
	t.Parallel()

	tq := orm.NewTestQuerier(orm.SQLite)
	tq.Affected = 0

	err := newTestQuery(tq).Destroy(t.Context(), users.MustNew(orm.Attrs{"id": 9}))
	if !errors.Is(err, orm.ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
	want := `DELETE FROM "users" WHERE "id" = ?`
	if got := tq.LastQuery().SQL; got != want {
		t.Errorf("SQL = %q, want %q", got, want)
	}
}

// --- Rewrite (PostgreSQL placeholders) ---

func TestRewritePostgreSQLSelect(t *testing.T) {
	t.Parallel()

	tq := orm.NewTestQuerier(orm.PostgreSQL)
	_, _ = newTestQuery(tq).Where("name = ?", "alice").Where("id > ?", 10).All(t.Context())

	got := tq.LastQuery()
	want := `SELECT "id", "name" FROM "users" WHERE (name = $1) AND (id > $2)`
	if got.SQL != want {
		t.Errorf("SQL = %q, want %q", got.SQL, want)
	}
}

// --- First / Find ---

func TestFirstAddsLimit(t *testing.T) {
	t.Parallel()

	tq := orm.NewTestQuerier(orm.MySQL)
	_, _ = newTestQuery(tq).First(t.Context())

	got := tq.LastQuery()
	want := "SELECT `id`, `name` FROM `users` LIMIT 1"
	if got.SQL != want {
		t.Errorf("SQL = %q, want %q", got.SQL, want)
	}
}

func TestFindByPrimaryKey(t *testing.T) {
	t.Parallel()

	tq := orm.NewTestQuerier(orm.PostgreSQL)
	_, _ = newTestQuery(tq).Find(t.Context(), 5)

	got := tq.LastQuery()
	want := `SELECT "id", "name" FROM "users" WHERE "id" = $1 LIMIT 1`
	if got.SQL != want {
		t.Errorf("SQL = %q, want %q", got.SQL, want)
	}
	if len(got.Args) != 1 || got.Args[0] != int64(5) {
		t.Errorf("Args = %v", got.Args)
	}
}

func TestFindNullIsNotFound(t *testing.T) {
	t.Parallel()

	tq := orm.NewTestQuerier(orm.MySQL)
	if _, err := newTestQuery(tq).Find(t.Context(), nil); !errors.Is(err, orm.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
	if len(tq.Queries) != 0 {
		t.Errorf("Queries = %v, want none", tq.Queries)
	}
}

// --- Polymorphic ---

func TestBuildPolymorphicGet(t *testing.T) {
	t.Parallel()

	b := newBlog(t)
	tq := orm.NewTestQuerier(orm.PostgreSQL)
	res := orm.NewResolver(tq, b.reg)
	article := b.articles.MustNew(orm.Attrs{"id": 1, "title": "t"})

	_, _ = res.Get(t.Context(), article, b.comments, "author = ? OR author = ?", "ipolevoy", "rkinderman")

	got := tq.LastQuery()
	want := `SELECT "id", "author", "content", "created_at", "updated_at", "parent_id", "parent_type" FROM "comments" ` +
		`WHERE ("parent_type" = $1 AND "parent_id" = $2) AND (author = $3 OR author = $4) ORDER BY "id"`
	if got.SQL != want {
		t.Errorf("SQL = %q, want %q", got.SQL, want)
	}
	if len(got.Args) != 4 || got.Args[0] != "articles" || got.Args[1] != int64(1) {
		t.Errorf("Args = %v", got.Args)
	}
}

func TestBuildPolymorphicPreload(t *testing.T) {
	t.Parallel()

	b := newBlog(t)
	tq := orm.NewTestQuerier(orm.MySQL)
	res := orm.NewResolver(tq, b.reg)

	parents := []*orm.Record{
		b.articles.MustNew(orm.Attrs{"id": 1, "title": "a"}),
		b.articles.MustNew(orm.Attrs{"id": 2, "title": "b"}),
		b.articles.MustNew(orm.Attrs{"id": 1, "title": "a"}),
	}
	_, _ = res.Preload(t.Context(), parents, b.comments)

	got := tq.LastQuery()
	want := "SELECT `id`, `author`, `content`, `created_at`, `updated_at`, `parent_id`, `parent_type` FROM `comments` " +
		"WHERE `parent_type` = ? AND `parent_id` IN (?, ?) ORDER BY `id`"
	if got.SQL != want {
		t.Errorf("SQL = %q, want %q", got.SQL, want)
	}
	if len(got.Args) != 3 {
		t.Errorf("Args = %v, want 3 args", got.Args)
	}
}
