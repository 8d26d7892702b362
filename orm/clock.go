package orm

import (
	"context"
	"time"
)

// Timestamp columns maintained by Create and Update when a type declares
// them with KindTime.
const (
	CreatedAtColumn = "created_at"
	UpdatedAtColumn = "updated_at"
)

// Clock provides the current time. Implementations can return fixed
// times for deterministic testing.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

type clockKey struct{}

// WithClock returns a child context carrying the given Clock.
// Create, Update and Save use it instead of time.Now() for timestamp
// columns.
func WithClock(ctx context.Context, c Clock) context.Context {
	return context.WithValue(ctx, clockKey{}, c)
}

// now returns the current time from the Clock in ctx, or time.Now()
// if no Clock is present.
func now(ctx context.Context) time.Time {
	if c, ok := ctx.Value(clockKey{}).(Clock); ok {
		return c.Now()
	}
	return time.Now()
}

// touch sets updated_at, and created_at for new records, on types that
// declare them.
func touch(ctx context.Context, r *Record) {
	var t time.Time
	for _, name := range []string{CreatedAtColumn, UpdatedAtColumn} {
		col, ok := r.desc.Column(name)
		if !ok || col.Kind != KindTime {
			continue
		}
		if name == CreatedAtColumn && (!r.IsNew() || !r.Get(name).IsNull()) {
			continue
		}
		if t.IsZero() {
			t = now(ctx).UTC()
		}
		r.set(name, Time(t))
	}
}
