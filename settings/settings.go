// Package settings resolves the externally configured evaluation limits the
// rule functions consume.
//
// The platform keeps its tunables as textual rows in a "meta" table; the one
// the rule layer cares about is "max_hosts", the cap on enumerated hosts.
// Resolution happens once per call and is never cached here: the value is a
// live setting and the evaluation core is stateless by contract.
package settings

import (
	"context"
	"strconv"

	"github.com/doug-martin/goqu/v8"
	_ "github.com/doug-martin/goqu/v8/dialect/postgres"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/quay/zlog"
	"go.opentelemetry.io/otel"
)

// DefaultMaxHosts is the cap used whenever the configured value is absent or
// unusable.
const DefaultMaxHosts = 4095

// maxHostsName is the settings row holding the cap.
const maxHostsName = `max_hosts`

var tracer = otel.Tracer("settings")

// MaxHostsFunc resolves the max-hosts cap for one call.
type MaxHostsFunc func(context.Context) int

// Static returns a resolver that always reports n, or the default if n is
// not positive. Useful for tests and for deployments without a settings
// store.
func Static(n int) MaxHostsFunc {
	if n <= 0 {
		n = DefaultMaxHosts
	}
	return func(context.Context) int { return n }
}

// Store reads settings from the platform's meta table.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wraps the provided pool. The pool's lifecycle stays with the
// caller.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// MaxHosts resolves the max-hosts cap.
//
// A missing row, a non-numeric or non-positive value, and a failed query all
// degrade to [DefaultMaxHosts]; configuration trouble must never turn into
// an evaluation failure.
func (s *Store) MaxHosts(ctx context.Context) int {
	ctx, span := tracer.Start(ctx, "MaxHosts")
	defer span.End()

	sql, args, err := goqu.Dialect("postgres").
		From("meta").
		Select("value").
		Where(goqu.Ex{"name": maxHostsName}).
		Limit(1).
		Prepared(true).
		ToSQL()
	if err != nil {
		zlog.Warn(ctx).
			Err(err).
			Msg("failed to build settings query, using default max hosts")
		return DefaultMaxHosts
	}

	var v string
	if err := s.pool.QueryRow(ctx, sql, args...).Scan(&v); err != nil {
		zlog.Debug(ctx).
			Err(err).
			Int("default", DefaultMaxHosts).
			Msg("max_hosts not configured, using default")
		return DefaultMaxHosts
	}
	return parseMaxHosts(ctx, v)
}

// parseMaxHosts applies the textual-integer convention: anything that isn't
// a positive integer means the default.
func parseMaxHosts(ctx context.Context, v string) int {
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		zlog.Warn(ctx).
			Str("value", v).
			Int("default", DefaultMaxHosts).
			Msg("unusable max_hosts setting, using default")
		return DefaultMaxHosts
	}
	return n
}
