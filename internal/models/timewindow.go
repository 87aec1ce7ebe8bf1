package models

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// DayCode identifies a weekday for recurring windows.
type DayCode string

const (
	DayMon DayCode = "MON"
	DayTue DayCode = "TUE"
	DayWed DayCode = "WED"
	DayThu DayCode = "THU"
	DayFri DayCode = "FRI"
	DaySat DayCode = "SAT"
	DaySun DayCode = "SUN"
)

// WeekdayCodes lists MON..FRI in order.
var WeekdayCodes = []DayCode{DayMon, DayTue, DayWed, DayThu, DayFri}

var dayCodeByWeekday = map[time.Weekday]DayCode{
	time.Monday:    DayMon,
	time.Tuesday:   DayTue,
	time.Wednesday: DayWed,
	time.Thursday:  DayThu,
	time.Friday:    DayFri,
	time.Saturday:  DaySat,
	time.Sunday:    DaySun,
}

// DayCodeForWeekday maps a time.Weekday onto the three-letter code.
func DayCodeForWeekday(w time.Weekday) DayCode {
	return dayCodeByWeekday[w]
}

// IsWeekday reports whether the code falls on MON..FRI.
func (d DayCode) IsWeekday() bool {
	return d != DaySat && d != DaySun
}

// ParseDayCode validates and normalises a day code string.
func ParseDayCode(raw string) (DayCode, error) {
	code := DayCode(strings.ToUpper(strings.TrimSpace(raw)))
	switch code {
	case DayMon, DayTue, DayWed, DayThu, DayFri, DaySat, DaySun:
		return code, nil
	}
	return "", fmt.Errorf("invalid day code %q", raw)
}

// TimeWindow is a recurring weekly block, or a single-date block when
// Date is set and Days is empty.
type TimeWindow struct {
	Days      []DayCode `db:"-" json:"days,omitempty"`
	StartTime string    `db:"start_time" json:"startTime"`
	EndTime   string    `db:"end_time" json:"endTime"`
	Date      *string   `db:"date" json:"date,omitempty"`
}

// MinutesOfDay converts "HH:MM" into minutes past midnight.
func MinutesOfDay(clock string) (int, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(clock))
	if err != nil {
		return 0, fmt.Errorf("invalid clock time %q: %w", clock, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// ClockOfMinutes renders minutes past midnight as "HH:MM".
func ClockOfMinutes(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// StartMinutes returns the start as minutes past midnight, -1 when malformed.
func (w TimeWindow) StartMinutes() int {
	m, err := MinutesOfDay(w.StartTime)
	if err != nil {
		return -1
	}
	return m
}

// EndMinutes returns the end as minutes past midnight, -1 when malformed.
func (w TimeWindow) EndMinutes() int {
	m, err := MinutesOfDay(w.EndTime)
	if err != nil {
		return -1
	}
	return m
}

// Validate enforces start < end and well-formed day codes.
func (w TimeWindow) Validate() error {
	start, err := MinutesOfDay(w.StartTime)
	if err != nil {
		return err
	}
	end, err := MinutesOfDay(w.EndTime)
	if err != nil {
		return err
	}
	if start >= end {
		return fmt.Errorf("startTime %s must precede endTime %s", w.StartTime, w.EndTime)
	}
	if len(w.Days) == 0 && (w.Date == nil || *w.Date == "") {
		return fmt.Errorf("window requires day codes or an explicit date")
	}
	for _, d := range w.Days {
		if _, err := ParseDayCode(string(d)); err != nil {
			return err
		}
	}
	return nil
}

// SharesDay reports whether two windows fall on at least one common day
// code, or carry the same absolute date.
func (w TimeWindow) SharesDay(other TimeWindow) bool {
	if w.Date != nil && other.Date != nil && *w.Date != "" && *w.Date == *other.Date {
		return true
	}
	for _, a := range w.Days {
		for _, b := range other.Days {
			if a == b {
				return true
			}
		}
	}
	return false
}

// OverlapsClock applies the half-open interval test on minutes of day.
func (w TimeWindow) OverlapsClock(other TimeWindow) bool {
	return w.StartMinutes() < other.EndMinutes() && w.EndMinutes() > other.StartMinutes()
}

// MinuteRange is a [Start,End) span in minutes past midnight.
type MinuteRange struct {
	Start int
	End   int
}

// MergeRanges collapses overlapping or touching ranges into maximal
// contiguous ones, sorted by start.
func MergeRanges(ranges []MinuteRange) []MinuteRange {
	if len(ranges) == 0 {
		return nil
	}
	sorted := make([]MinuteRange, len(ranges))
	copy(sorted, ranges)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	merged := []MinuteRange{sorted[0]}
	for _, r := range sorted[1:] {
		last := &merged[len(merged)-1]
		if r.Start <= last.End {
			if r.End > last.End {
				last.End = r.End
			}
			continue
		}
		merged = append(merged, r)
	}
	return merged
}

// IntersectRanges returns the pairwise intersection of two merged range
// lists.
func IntersectRanges(a, b []MinuteRange) []MinuteRange {
	var result []MinuteRange
	for _, ra := range a {
		for _, rb := range b {
			start := ra.Start
			if rb.Start > start {
				start = rb.Start
			}
			end := ra.End
			if rb.End < end {
				end = rb.End
			}
			if start < end {
				result = append(result, MinuteRange{Start: start, End: end})
			}
		}
	}
	return MergeRanges(result)
}
