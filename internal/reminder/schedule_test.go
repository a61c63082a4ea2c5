package reminder

import (
	"testing"
	"time"
)

func ts(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestNextRunAtVariants(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		kind ScheduleKind
		ref  string
		want string
	}{
		{name: "minute", kind: EveryMinute, ref: "2024-03-01T10:00:00Z", want: "2024-03-01T10:01:00Z"},
		{name: "hour", kind: EveryHour, ref: "2024-03-01T10:00:00Z", want: "2024-03-01T11:00:00Z"},
		{name: "eod same day", kind: EndOfDay, ref: "2024-03-01T10:00:00Z", want: "2024-03-01T23:59:00Z"},
		{name: "eod past anchor", kind: EndOfDay, ref: "2024-03-01T23:59:30Z", want: "2024-03-02T23:59:00Z"},
		{name: "eod exactly at anchor", kind: EndOfDay, ref: "2024-03-01T23:59:00Z", want: "2024-03-02T23:59:00Z"},
		{name: "eom mid month", kind: EndOfMonth, ref: "2024-03-10T08:00:00Z", want: "2024-03-31T23:59:00Z"},
		{name: "eom last day before anchor", kind: EndOfMonth, ref: "2024-03-31T10:00:00Z", want: "2024-03-31T23:59:00Z"},
		{name: "eom last day past anchor", kind: EndOfMonth, ref: "2024-03-31T23:59:30Z", want: "2024-04-30T23:59:00Z"},
		{name: "eom leap february", kind: EndOfMonth, ref: "2024-02-10T00:00:00Z", want: "2024-02-29T23:59:00Z"},
		{name: "eom december rollover", kind: EndOfMonth, ref: "2024-12-31T23:59:30Z", want: "2025-01-31T23:59:00Z"},
		{name: "eod year boundary", kind: EndOfDay, ref: "2024-12-31T23:59:30Z", want: "2025-01-01T23:59:00Z"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got := NextRunAt(tt.kind, ts(tt.ref))
			if !got.Equal(ts(tt.want)) {
				t.Fatalf("NextRunAt(%s, %s) = %s, want %s", tt.kind, tt.ref, got, tt.want)
			}
		})
	}
}

func TestNextRunAtAlwaysInFuture(t *testing.T) {
	t.Parallel()
	kinds := []ScheduleKind{EveryMinute, EveryHour, EndOfDay, EndOfMonth}
	refs := []string{
		"2024-01-01T00:00:00Z",
		"2024-02-29T23:58:59Z",
		"2024-03-31T23:59:00Z",
		"2024-06-30T23:59:01Z",
		"2024-12-31T23:59:59Z",
	}

	for _, kind := range kinds {
		for _, ref := range refs {
			r := ts(ref)
			if got := NextRunAt(kind, r); !got.After(r) {
				t.Errorf("NextRunAt(%s, %s) = %s, not strictly after ref", kind, ref, got)
			}
		}
	}
}

func TestNextRunAtNormalizesToUTC(t *testing.T) {
	t.Parallel()
	loc := time.FixedZone("UTC+3", 3*60*60)
	// 2024-03-01 01:30 +03:00 is 2024-02-29 22:30 UTC; the end-of-day
	// anchor must come from the UTC calendar day.
	ref := time.Date(2024, 3, 1, 1, 30, 0, 0, loc)
	got := NextRunAt(EndOfDay, ref)
	if want := ts("2024-02-29T23:59:00Z"); !got.Equal(want) {
		t.Fatalf("NextRunAt(EndOfDay, %s) = %s, want %s", ref, got, want)
	}
}

func TestParseScheduleKind(t *testing.T) {
	t.Parallel()
	tests := []struct {
		raw  string
		want ScheduleKind
	}{
		{"minute", EveryMinute},
		{"1m", EveryMinute},
		{"EVERY_MINUTE", EveryMinute},
		{"hour", EveryHour},
		{"eod", EndOfDay},
		{"day_end", EndOfDay},
		{" month_end ", EndOfMonth},
		{"end_of_month", EndOfMonth},
	}
	for _, tt := range tests {
		got, err := ParseScheduleKind(tt.raw)
		if err != nil {
			t.Fatalf("ParseScheduleKind(%q) error: %v", tt.raw, err)
		}
		if got != tt.want {
			t.Fatalf("ParseScheduleKind(%q) = %s, want %s", tt.raw, got, tt.want)
		}
	}

	if _, err := ParseScheduleKind("fortnightly"); err == nil {
		t.Fatal("expected error for unknown schedule kind")
	}
}
