// Package icalendar parses the iCalendar-style schedule definitions attached
// to recurring scans and computes their next occurrence.
//
// Only the subset of the grammar the platform emits is understood: a DTSTART
// instant and RRULE components built from FREQ, INTERVAL, COUNT and UNTIL.
// Positional rule parts (BYDAY and friends) are not implemented; this is not
// a general iCalendar library.
package icalendar

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/quay/zlog"

	"github.com/quay/scanrules"
)

// Frequency is an RRULE FREQ value.
type Frequency int

// Supported frequencies.
const (
	Minutely Frequency = iota
	Hourly
	Daily
	Weekly
	Monthly
	Yearly
)

// String implements fmt.Stringer.
func (f Frequency) String() string {
	switch f {
	case Minutely:
		return "MINUTELY"
	case Hourly:
		return "HOURLY"
	case Daily:
		return "DAILY"
	case Weekly:
		return "WEEKLY"
	case Monthly:
		return "MONTHLY"
	case Yearly:
		return "YEARLY"
	}
	return "INVALID"
}

// Rule is one normalized recurrence component.
type Rule struct {
	Until    time.Time // inclusive end bound; zero means unbounded
	Freq     Frequency
	Interval int // period multiplier, always >= 1
	Count    int // occurrence bound counting DTSTART as the first; 0 means unbounded
	HasUntil bool
}

// Schedule is a normalized recurrence descriptor: a start instant, the
// location instants are interpreted in, and zero or more recurrence
// components. A Schedule with no components is a one-shot whose sole
// occurrence is Start.
type Schedule struct {
	Start time.Time
	Loc   *time.Location
	Rules []Rule
}

// Parse normalizes iCalendar-style text into a Schedule.
//
// Folded lines are unfolded before scanning. DTSTART is required; a missing
// or malformed one fails with [scanrules.ErrParse]. RRULE components with an
// unrecognized FREQ are dropped with a diagnostic rather than failing the
// whole descriptor, unless no component survives, which is also a parse
// failure.
//
// The zone name, when not empty, is attached to the Schedule and interprets
// every instant written without a UTC marker; instants with one are absolute
// regardless. An unloadable zone falls back to UTC with a diagnostic.
func Parse(ctx context.Context, ical, zone string) (*Schedule, error) {
	loc := time.UTC
	if zone != "" {
		l, err := time.LoadLocation(zone)
		if err != nil {
			zlog.Warn(ctx).
				Str("zone", zone).
				Err(err).
				Msg("unknown timezone, using UTC")
		} else {
			loc = l
		}
	}

	s := Schedule{Loc: loc}
	var sawStart, sawRule bool
	for _, line := range unfold(ical) {
		name, params, value := splitProperty(line)
		switch name {
		case "DTSTART":
			start, err := parseInstant(params, value, loc)
			if err != nil {
				return nil, &scanrules.Error{
					Inner:   err,
					Kind:    scanrules.ErrParse,
					Op:      "icalendar.Parse",
					Message: "malformed DTSTART",
				}
			}
			s.Start = start
			sawStart = true
		case "RRULE":
			sawRule = true
			r, err := parseRule(value, loc)
			if err != nil {
				zlog.Warn(ctx).
					Str("rrule", value).
					Err(err).
					Msg("dropping unusable recurrence component")
				continue
			}
			s.Rules = append(s.Rules, r)
		}
	}
	if !sawStart {
		return nil, &scanrules.Error{
			Kind:    scanrules.ErrParse,
			Op:      "icalendar.Parse",
			Message: "missing DTSTART",
		}
	}
	if sawRule && len(s.Rules) == 0 {
		return nil, &scanrules.Error{
			Kind:    scanrules.ErrParse,
			Op:      "icalendar.Parse",
			Message: "no recurrence component parsed",
		}
	}
	return &s, nil
}

// unfold splits the input into content lines, joining folded continuations
// (lines starting with space or tab) back onto their parents.
func unfold(s string) []string {
	var lines []string
	for _, raw := range strings.Split(s, "\n") {
		raw = strings.TrimRight(raw, "\r")
		if raw == "" {
			continue
		}
		if (raw[0] == ' ' || raw[0] == '\t') && len(lines) != 0 {
			lines[len(lines)-1] += raw[1:]
			continue
		}
		lines = append(lines, raw)
	}
	return lines
}

// splitProperty breaks a content line into its name, parameter list, and
// value. The name is case-insensitive per RFC 5545; parameter values (zone
// names in particular) keep their case.
func splitProperty(line string) (name, params, value string) {
	i := strings.Index(line, ":")
	if i < 0 {
		return strings.ToUpper(strings.TrimSpace(line)), "", ""
	}
	value = line[i+1:]
	name = line[:i]
	if j := strings.Index(name, ";"); j >= 0 {
		name, params = name[:j], name[j+1:]
	}
	return strings.ToUpper(strings.TrimSpace(name)), params, strings.TrimSpace(value)
}

// parseInstant interprets an iCalendar date or date-time value.
//
// A trailing "Z" means UTC. A TZID parameter overrides the supplied
// location when it names a loadable zone. Everything else is read in loc.
func parseInstant(params, value string, loc *time.Location) (time.Time, error) {
	for _, p := range strings.Split(params, ";") {
		if rest, ok := strings.CutPrefix(p, "TZID="); ok {
			if l, err := time.LoadLocation(rest); err == nil {
				loc = l
			}
		}
	}
	switch {
	case strings.HasSuffix(value, "Z"):
		return time.Parse("20060102T150405Z", value)
	case strings.Contains(value, "T"):
		return time.ParseInLocation("20060102T150405", value, loc)
	default:
		return time.ParseInLocation("20060102", value, loc)
	}
}

// parseRule normalizes one RRULE value.
func parseRule(value string, loc *time.Location) (Rule, error) {
	r := Rule{Interval: 1}
	sawFreq := false
	for _, part := range strings.Split(value, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		k, v, ok := strings.Cut(part, "=")
		if !ok {
			return Rule{}, fmt.Errorf("icalendar: malformed rule part %q", part)
		}
		switch strings.ToUpper(k) {
		case "FREQ":
			switch strings.ToUpper(v) {
			case "MINUTELY":
				r.Freq = Minutely
			case "HOURLY":
				r.Freq = Hourly
			case "DAILY":
				r.Freq = Daily
			case "WEEKLY":
				r.Freq = Weekly
			case "MONTHLY":
				r.Freq = Monthly
			case "YEARLY":
				r.Freq = Yearly
			default:
				return Rule{}, fmt.Errorf("icalendar: unrecognized frequency %q", v)
			}
			sawFreq = true
		case "INTERVAL":
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 {
				return Rule{}, fmt.Errorf("icalendar: bad interval %q", v)
			}
			r.Interval = n
		case "COUNT":
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 {
				return Rule{}, fmt.Errorf("icalendar: bad count %q", v)
			}
			r.Count = n
		case "UNTIL":
			u, err := parseInstant("", v, loc)
			if err != nil {
				return Rule{}, fmt.Errorf("icalendar: bad until %q: %w", v, err)
			}
			r.Until, r.HasUntil = u, true
		default:
			// Positional parts (BYDAY, BYMONTH, ...) are outside the
			// supported subset and ignored.
		}
	}
	if !sawFreq {
		return Rule{}, fmt.Errorf("icalendar: rule without FREQ")
	}
	return r, nil
}
