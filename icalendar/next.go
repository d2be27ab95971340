package icalendar

import (
	"context"
	"fmt"
	"time"

	"github.com/quay/zlog"
)

// NextTime returns the schedule's first occurrence strictly after now.
//
// Each component's candidate is found by dividing the elapsed time into
// whole periods and stepping from the quotient, so the cost is independent
// of how far now is from the start. Candidates are merged and the minimum
// wins; when two components land on the same instant the first-declared one
// wins.
//
// PeriodsOffset, when positive, advances the winning component's own
// sequence that many further periods, previewing a later run instead of the
// immediate next one. A component whose COUNT or UNTIL bound is exhausted
// before the offset position contributes nothing; if every component is
// exhausted (or a one-shot start is already past) the second return is
// false.
//
// A negative periodsOffset is a caller defect and panics.
func (s *Schedule) NextTime(now time.Time, periodsOffset int) (time.Time, bool) {
	if periodsOffset < 0 {
		panic(fmt.Sprintf("icalendar: negative periods offset %d", periodsOffset))
	}
	if s == nil || s.Start.IsZero() {
		return time.Time{}, false
	}
	if len(s.Rules) == 0 {
		// One-shot: the start is the only occurrence there is.
		if periodsOffset > 0 || !s.Start.After(now) {
			return time.Time{}, false
		}
		return s.Start, true
	}

	found := false
	var bestBase, bestOff time.Time
	for i := range s.Rules {
		r := &s.Rules[i]
		k := r.nextIndex(s.Start, now)
		base, ok := r.occurrence(s.Start, k)
		if !ok {
			continue
		}
		off, ok := r.occurrence(s.Start, k+periodsOffset)
		if !ok {
			continue
		}
		if !found || base.Before(bestBase) {
			found, bestBase, bestOff = true, base, off
		}
	}
	if !found {
		return time.Time{}, false
	}
	return bestOff, true
}

// NextTimeFromString parses schedule text and returns its next occurrence,
// degrading unparseable input to the none result.
func NextTimeFromString(ctx context.Context, ical, zone string, now time.Time, periodsOffset int) (time.Time, bool) {
	s, err := Parse(ctx, ical, zone)
	if err != nil {
		zlog.Debug(ctx).
			Err(err).
			Msg("unusable schedule text")
		return time.Time{}, false
	}
	return s.NextTime(now, periodsOffset)
}

// nextIndex returns the smallest occurrence index whose instant is strictly
// after now, ignoring the rule's bounds.
//
// The index is estimated by integer division of the elapsed span and then
// corrected; the estimate is off by at most a period or two (DST shifts,
// calendar month lengths), so the correction loops are O(1) regardless of
// elapsed time.
func (r *Rule) nextIndex(start, now time.Time) int {
	if start.After(now) {
		return 0
	}
	var k int
	switch r.Freq {
	case Minutely:
		k = int(now.Sub(start)/(time.Duration(r.Interval)*time.Minute)) + 1
	case Hourly:
		k = int(now.Sub(start)/(time.Duration(r.Interval)*time.Hour)) + 1
	case Daily:
		k = int(now.Sub(start).Hours()) / (24 * r.Interval)
	case Weekly:
		k = int(now.Sub(start).Hours()) / (24 * 7 * r.Interval)
	case Monthly:
		months := (now.Year()-start.Year())*12 + int(now.Month()) - int(start.Month())
		k = months / r.Interval
	case Yearly:
		k = (now.Year() - start.Year()) / r.Interval
	}
	if k < 0 {
		k = 0
	}
	for k > 0 && r.instant(start, k-1).After(now) {
		k--
	}
	for !r.instant(start, k).After(now) {
		k++
	}
	return k
}

// occurrence returns the rule's k-th occurrence (DTSTART is the 0th) and
// whether it exists under the rule's COUNT and UNTIL bounds.
func (r *Rule) occurrence(start time.Time, k int) (time.Time, bool) {
	if r.Count > 0 && k > r.Count-1 {
		return time.Time{}, false
	}
	t := r.instant(start, k)
	if r.HasUntil && t.After(r.Until) {
		return time.Time{}, false
	}
	return t, true
}

// instant computes the k-th instant by direct arithmetic.
//
// Sub-daily frequencies advance in absolute time; daily and coarser advance
// in calendar units so wall-clock time survives DST transitions, matching
// how operators read a schedule.
func (r *Rule) instant(start time.Time, k int) time.Time {
	n := k * r.Interval
	switch r.Freq {
	case Minutely:
		return start.Add(time.Duration(n) * time.Minute)
	case Hourly:
		return start.Add(time.Duration(n) * time.Hour)
	case Daily:
		return start.AddDate(0, 0, n)
	case Weekly:
		return start.AddDate(0, 0, 7*n)
	case Monthly:
		return start.AddDate(0, n, 0)
	case Yearly:
		return start.AddDate(n, 0, 0)
	}
	return start
}
