package http

import (
	"errors"
	"strings"
	"time"

	"github.com/Joy52-cyber/schedulesync-web-sub001/internal/scheduler"
)

var (
	errBadWeekday    = errors.New("weekday names must be english day names such as \"monday\"")
	errBadBand       = errors.New("band must be one of morning, afternoon or evening")
	errBadWeek       = errors.New("week must be one of this_week or next_week")
	errBadClockRange = errors.New("clock_range start and end must be HH:MM values")
)

// parseTime accepts RFC3339 timestamps with or without sub-second precision.
// Empty or malformed values yield the zero time and are caught by service
// validation.
func parseTime(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	if ts, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return ts
	}
	if ts, err := time.Parse(time.RFC3339, value); err == nil {
		return ts
	}
	return time.Time{}
}

func formatTime(ts time.Time) string {
	return ts.UTC().Format(time.RFC3339Nano)
}

func formatTimePtr(ts *time.Time) *string {
	if ts == nil {
		return nil
	}
	formatted := formatTime(*ts)
	return &formatted
}

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

func parseWeekdays(names []string) ([]time.Weekday, error) {
	if len(names) == 0 {
		return nil, nil
	}
	out := make([]time.Weekday, 0, len(names))
	for _, name := range names {
		day, ok := weekdayNames[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return nil, errBadWeekday
		}
		out = append(out, day)
	}
	return out, nil
}

// clockRangeDTO is the wire form of an explicit time-of-day window.
type clockRangeDTO struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// preferenceFields are the soft slot-search constraints shared by
// availability, group and session requests.
type preferenceFields struct {
	Weekdays   []string       `json:"weekdays,omitempty"`
	Band       string         `json:"band,omitempty"`
	ClockRange *clockRangeDTO `json:"clock_range,omitempty"`
	Week       string         `json:"week,omitempty"`
}

func (p preferenceFields) decode() ([]time.Weekday, scheduler.TimeBand, *scheduler.ClockRange, scheduler.WeekPreference, error) {
	weekdays, err := parseWeekdays(p.Weekdays)
	if err != nil {
		return nil, "", nil, "", err
	}

	var band scheduler.TimeBand
	switch scheduler.TimeBand(strings.ToLower(strings.TrimSpace(p.Band))) {
	case scheduler.BandNone, scheduler.BandMorning, scheduler.BandAfternoon, scheduler.BandEvening:
		band = scheduler.TimeBand(strings.ToLower(strings.TrimSpace(p.Band)))
	default:
		return nil, "", nil, "", errBadBand
	}

	var week scheduler.WeekPreference
	switch scheduler.WeekPreference(strings.ToLower(strings.TrimSpace(p.Week))) {
	case scheduler.WeekAny, scheduler.WeekThis, scheduler.WeekNext:
		week = scheduler.WeekPreference(strings.ToLower(strings.TrimSpace(p.Week)))
	default:
		return nil, "", nil, "", errBadWeek
	}

	var clockRange *scheduler.ClockRange
	if p.ClockRange != nil {
		start, err := scheduler.ParseTimeOfDay(strings.TrimSpace(p.ClockRange.Start))
		if err != nil {
			return nil, "", nil, "", errBadClockRange
		}
		end, err := scheduler.ParseTimeOfDay(strings.TrimSpace(p.ClockRange.End))
		if err != nil {
			return nil, "", nil, "", errBadClockRange
		}
		clockRange = &scheduler.ClockRange{Start: start, End: end}
	}

	return weekdays, band, clockRange, week, nil
}

func parseCSV(value string) []string {
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	if len(result) == 0 {
		return nil
	}
	return result
}
