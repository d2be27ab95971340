// Package sqlfunc exposes the rule-evaluation primitives as SQL scalar
// functions, so the platform's data store can call them in the middle of
// query evaluation.
//
// The functions mirror the ones the platform has historically installed into
// its database:
//
//	hosts_contains(hosts, find)               -> 0/1
//	max_hosts(hosts, exclude)                 -> integer host count
//	next_time_ical(ical, zone, periods_off)   -> unix seconds or NULL
//	severity_matches_ov(value, threshold)     -> 0/1
//	regexp(pattern, text)                     -> 0/1 (enables REGEXP)
//
// Registration is process-global; call [Register] once, before opening any
// database connections.
//
// Malformed data degrades to each function's documented default and never
// fails the enclosing query. Caller-contract violations (a negative periods
// offset, a resolver handing back a non-positive cap) are SQL errors.
package sqlfunc

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/quay/zlog"
	"modernc.org/sqlite"

	"github.com/quay/scanrules"
	"github.com/quay/scanrules/hostlist"
	"github.com/quay/scanrules/icalendar"
	"github.com/quay/scanrules/settings"
)

var (
	callCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "scanrules",
			Subsystem: "sqlfunc",
			Name:      "calls_total",
			Help:      "Total number of rule-function invocations.",
		},
		[]string{"function"},
	)
	errorCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "scanrules",
			Subsystem: "sqlfunc",
			Name:      "errors_total",
			Help:      "Total number of rule-function invocations failing the enclosing query.",
		},
		[]string{"function"},
	)
)

type scalarFunc = func(*sqlite.FunctionContext, []driver.Value) (driver.Value, error)

// Register installs the rule-evaluation functions into the SQLite driver.
//
// The maxHosts resolver supplies the enumeration cap per call; nil means the
// documented default. The context scopes the functions' logging for the life
// of the process.
func Register(ctx context.Context, maxHosts settings.MaxHostsFunc) error {
	if maxHosts == nil {
		maxHosts = settings.Static(settings.DefaultMaxHosts)
	}
	regs := []struct {
		Name          string
		NArg          int32
		Deterministic bool
		Func          scalarFunc
	}{
		{Name: "hosts_contains", NArg: 2, Func: hostsContains(ctx, maxHosts)},
		{Name: "max_hosts", NArg: 2, Func: countHosts(ctx, maxHosts)},
		{Name: "next_time_ical", NArg: 3, Func: nextTimeICal(ctx)},
		{Name: "severity_matches_ov", NArg: 2, Deterministic: true, Func: severityMatchesOv()},
		{Name: "regexp", NArg: 2, Func: regexpMatch(ctx)},
	}
	for _, r := range regs {
		var err error
		if r.Deterministic {
			err = sqlite.RegisterDeterministicScalarFunction(r.Name, r.NArg, r.Func)
		} else {
			err = sqlite.RegisterScalarFunction(r.Name, r.NArg, r.Func)
		}
		if err != nil {
			return fmt.Errorf("sqlfunc: registering %q: %w", r.Name, err)
		}
	}
	return nil
}

// hostsContains answers host containment. Either argument NULL means false.
func hostsContains(ctx context.Context, maxHosts settings.MaxHostsFunc) scalarFunc {
	return func(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
		callCounter.WithLabelValues("hosts_contains").Inc()
		hosts, ok := asText(args[0])
		find, ok2 := asText(args[1])
		if !ok || !ok2 {
			return falseValue, nil
		}
		got, err := hostlist.Contains(hosts, find, maxHosts(ctx))
		switch {
		case errors.Is(err, scanrules.ErrPrecondition):
			errorCounter.WithLabelValues("hosts_contains").Inc()
			return nil, err
		case err != nil:
			zlog.Debug(ctx).
				Err(err).
				Msg("malformed host expression, no match")
			return falseValue, nil
		}
		return boolValue(got), nil
	}
}

// countHosts answers the capped, exclusion-aware host count. A NULL hosts
// argument means 0; a NULL exclude argument excludes nothing.
func countHosts(ctx context.Context, maxHosts settings.MaxHostsFunc) scalarFunc {
	return func(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
		callCounter.WithLabelValues("max_hosts").Inc()
		hosts, ok := asText(args[0])
		if !ok {
			return int64(0), nil
		}
		exclude, _ := asText(args[1])
		n, err := hostlist.Count(hosts, exclude, maxHosts(ctx))
		switch {
		case errors.Is(err, scanrules.ErrPrecondition):
			errorCounter.WithLabelValues("max_hosts").Inc()
			return nil, err
		case err != nil:
			zlog.Debug(ctx).
				Err(err).
				Msg("malformed host expression, counting zero hosts")
			return int64(0), nil
		}
		return int64(n), nil
	}
}

// nextTimeICal answers the next schedule occurrence as unix seconds, NULL
// when there is none. A NULL schedule means NULL, a NULL zone means UTC, a
// NULL offset means 0.
func nextTimeICal(ctx context.Context) scalarFunc {
	return func(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
		callCounter.WithLabelValues("next_time_ical").Inc()
		ical, ok := asText(args[0])
		if !ok {
			return nil, nil
		}
		zone, _ := asText(args[1])
		offset, ok := asInt(args[2])
		if !ok {
			offset = 0
		}
		if offset < 0 {
			errorCounter.WithLabelValues("next_time_ical").Inc()
			return nil, &scanrules.Error{
				Kind:    scanrules.ErrPrecondition,
				Op:      "sqlfunc.next_time_ical",
				Message: fmt.Sprintf("negative periods offset %d", offset),
			}
		}
		next, ok := icalendar.NextTimeFromString(ctx, ical, zone, time.Now(), int(offset))
		if !ok {
			return nil, nil
		}
		return next.Unix(), nil
	}
}

// severityMatchesOv answers the severity-override predicate. A NULL value
// never matches; a NULL threshold always does.
func severityMatchesOv() scalarFunc {
	return func(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
		callCounter.WithLabelValues("severity_matches_ov").Inc()
		value, ok := asFloat(args[0])
		if !ok {
			return falseValue, nil
		}
		threshold, ok := asFloat(args[1])
		if !ok {
			return trueValue, nil
		}
		return boolValue(scanrules.SeverityMatchesOverride(value, threshold)), nil
	}
}

// regexpMatch answers regular-expression matching and, by its name, enables
// SQLite's REGEXP operator. Either argument NULL, or an uncompilable
// pattern, means false.
func regexpMatch(ctx context.Context) scalarFunc {
	return func(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
		callCounter.WithLabelValues("regexp").Inc()
		pattern, ok := asText(args[0])
		s, ok2 := asText(args[1])
		if !ok || !ok2 {
			return falseValue, nil
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			zlog.Debug(ctx).
				Err(err).
				Msg("uncompilable pattern, no match")
			return falseValue, nil
		}
		return boolValue(re.MatchString(s)), nil
	}
}

// SQLite has no boolean type; the functions return integers.
var (
	falseValue = driver.Value(int64(0))
	trueValue  = driver.Value(int64(1))
)

func boolValue(b bool) driver.Value {
	if b {
		return trueValue
	}
	return falseValue
}

func asText(v driver.Value) (string, bool) {
	switch v := v.(type) {
	case string:
		return v, true
	case []byte:
		return string(v), true
	}
	return "", false
}

func asInt(v driver.Value) (int64, bool) {
	switch v := v.(type) {
	case int64:
		return v, true
	case float64:
		return int64(v), true
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		return n, err == nil
	}
	return 0, false
}

func asFloat(v driver.Value) (float64, bool) {
	switch v := v.(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(v, 64)
		return f, err == nil
	}
	return 0, false
}
