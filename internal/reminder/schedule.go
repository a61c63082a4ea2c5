package reminder

import (
	"fmt"
	"strings"
	"time"
)

// ScheduleKind is the recurrence rule a user picked. Closed enumeration;
// NextRunAt switches over it exhaustively.
type ScheduleKind string

const (
	EveryMinute ScheduleKind = "EVERY_MINUTE"
	EveryHour   ScheduleKind = "EVERY_HOUR"
	EndOfDay    ScheduleKind = "END_OF_DAY"
	EndOfMonth  ScheduleKind = "END_OF_MONTH"
)

var kindAliases = map[string]ScheduleKind{
	"minute":       EveryMinute,
	"every_minute": EveryMinute,
	"1m":           EveryMinute,
	"hour":         EveryHour,
	"every_hour":   EveryHour,
	"1h":           EveryHour,
	"day_end":      EndOfDay,
	"eod":          EndOfDay,
	"end_of_day":   EndOfDay,
	"month_end":    EndOfMonth,
	"eom":          EndOfMonth,
	"end_of_month": EndOfMonth,
}

// ParseScheduleKind resolves user-facing schedule names and their short
// aliases (1m, eod, month_end, ...) to a ScheduleKind.
func ParseScheduleKind(raw string) (ScheduleKind, error) {
	k, ok := kindAliases[strings.ToLower(strings.TrimSpace(raw))]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownScheduleKind, raw)
	}
	return k, nil
}

func (k ScheduleKind) Valid() bool {
	switch k {
	case EveryMinute, EveryHour, EndOfDay, EndOfMonth:
		return true
	}
	return false
}

// Description is the human label used in "active reminders" views.
func (k ScheduleKind) Description() string {
	switch k {
	case EveryMinute:
		return "every minute"
	case EveryHour:
		return "every hour"
	case EndOfDay:
		return "at the end of each day (23:59)"
	case EndOfMonth:
		return "at the end of each month (23:59)"
	}
	return string(k)
}

// NextRunAt maps (kind, reference instant) to the next due instant. Pure
// and deterministic; all day/month arithmetic is done in UTC so DST
// transitions cannot shift the 23:59 anchor. The result is always
// strictly after ref.
func NextRunAt(kind ScheduleKind, ref time.Time) time.Time {
	ref = ref.UTC()

	switch kind {
	case EveryMinute:
		return ref.Add(time.Minute)
	case EveryHour:
		return ref.Add(time.Hour)
	case EndOfDay:
		return nextEndOfDay(ref)
	case EndOfMonth:
		return nextEndOfMonth(ref)
	default:
		return ref.Add(time.Hour)
	}
}

func nextEndOfDay(ref time.Time) time.Time {
	next := time.Date(ref.Year(), ref.Month(), ref.Day(), 23, 59, 0, 0, time.UTC)
	if !next.After(ref) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

func nextEndOfMonth(ref time.Time) time.Time {
	// Day 0 of month+1 normalizes to the last day of ref's month.
	next := time.Date(ref.Year(), ref.Month()+1, 0, 23, 59, 0, 0, time.UTC)
	if !next.After(ref) {
		next = time.Date(ref.Year(), ref.Month()+2, 0, 23, 59, 0, 0, time.UTC)
	}
	return next
}
