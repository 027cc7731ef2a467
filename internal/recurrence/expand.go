package recurrence

import (
	"errors"
	"time"
)

// ErrInvalidDuration indicates the anchor interval is empty or inverted.
var ErrInvalidDuration = errors.New("recurrence: instance duration must be positive")

// Expand walks forward from the anchor interval and materializes concrete
// instances of the descriptor. Every instance preserves the anchor
// duration. Expansion stops at the descriptor's Until date, its Count, or
// maxInstances, whichever comes first; maxInstances values outside
// (0, DefaultMaxInstances] fall back to DefaultMaxInstances so a series can
// never generate unbounded output.
func Expand(start, end time.Time, d Descriptor, maxInstances int) ([]Instance, error) {
	if !end.After(start) {
		return nil, ErrInvalidDuration
	}
	duration := end.Sub(start)

	limit := maxInstances
	if limit <= 0 || limit > DefaultMaxInstances {
		limit = DefaultMaxInstances
	}
	if d.Count != nil && *d.Count > 0 && *d.Count < limit {
		limit = *d.Count
	}

	var starts []time.Time
	switch d.Frequency {
	case FrequencyDaily:
		starts = expandDaily(start, d, limit)
	case FrequencyWeekly:
		starts = expandWeekly(start, d, limit)
	case FrequencyMonthly:
		starts = expandMonthly(start, d, limit)
	case FrequencyYearly:
		starts = expandYearly(start, d, limit)
	default:
		return nil, errors.New("recurrence: unknown frequency")
	}

	instances := make([]Instance, 0, len(starts))
	for _, instanceStart := range starts {
		instances = append(instances, Instance{Start: instanceStart, End: instanceStart.Add(duration)})
	}
	return instances, nil
}

func expandDaily(start time.Time, d Descriptor, limit int) []time.Time {
	interval := d.EffectiveInterval()
	starts := make([]time.Time, 0, limit)
	current := start
	for len(starts) < limit && withinUntil(current, d.Until) {
		starts = append(starts, current)
		current = current.AddDate(0, 0, interval)
	}
	return starts
}

// expandWeekly advances day by day inside a week so every selected weekday
// is visited, then jumps interval-1 extra weeks once the week that began at
// the anchor completes.
func expandWeekly(start time.Time, d Descriptor, limit int) []time.Time {
	interval := d.EffectiveInterval()

	if len(d.Weekdays) == 0 {
		starts := make([]time.Time, 0, limit)
		current := start
		for len(starts) < limit && withinUntil(current, d.Until) {
			starts = append(starts, current)
			current = current.AddDate(0, 0, 7*interval)
		}
		return starts
	}

	selected := make(map[time.Weekday]struct{}, len(d.Weekdays))
	for _, day := range d.Weekdays {
		selected[day] = struct{}{}
	}

	starts := make([]time.Time, 0, limit)
	current := start
	daysIntoWeek := 0
	// Guard against day sets that never match inside the Until bound.
	for steps := 0; len(starts) < limit && steps < limit*7*interval+7; steps++ {
		if !withinUntil(current, d.Until) {
			break
		}
		if _, ok := selected[current.Weekday()]; ok {
			starts = append(starts, current)
		}
		current = current.AddDate(0, 0, 1)
		daysIntoWeek++
		if daysIntoWeek == 7 {
			daysIntoWeek = 0
			if interval > 1 {
				current = current.AddDate(0, 0, 7*(interval-1))
			}
		}
	}
	return starts
}

// expandMonthly matches either the explicit day of month or the anchor day.
// Months too short for the target day are skipped, never clamped.
func expandMonthly(start time.Time, d Descriptor, limit int) []time.Time {
	interval := d.EffectiveInterval()
	targetDay := start.Day()
	if d.MonthDay != nil && *d.MonthDay >= 1 && *d.MonthDay <= 31 {
		targetDay = *d.MonthDay
	}

	starts := make([]time.Time, 0, limit)
	year, month := start.Year(), int(start.Month())
	// Guard against target days the visited months never contain, such as
	// the 31st with a twelve month interval anchored in February.
	maxMonths := limit*interval*12 + 12
	for months := 0; len(starts) < limit && months < maxMonths; months += interval {
		y := year + (month-1+months)/12
		m := time.Month((month-1+months)%12 + 1)
		if targetDay > daysInMonth(y, m) {
			if d.Until != nil && time.Date(y, m, 1, 0, 0, 0, 0, start.Location()).After(*d.Until) {
				break
			}
			continue
		}
		candidate := time.Date(y, m, targetDay, start.Hour(), start.Minute(), start.Second(), start.Nanosecond(), start.Location())
		if candidate.Before(start) {
			continue
		}
		if !withinUntil(candidate, d.Until) {
			break
		}
		starts = append(starts, candidate)
	}
	return starts
}

func expandYearly(start time.Time, d Descriptor, limit int) []time.Time {
	interval := d.EffectiveInterval()
	starts := make([]time.Time, 0, limit)
	// Leap-day anchors can go years between valid candidates; bound the walk.
	maxYears := limit*interval*8 + 8
	for years := 0; len(starts) < limit && years < maxYears; years += interval {
		candidate := time.Date(start.Year()+years, start.Month(), start.Day(), start.Hour(), start.Minute(), start.Second(), start.Nanosecond(), start.Location())
		// Feb 29 normalizes into March on non-leap years; skip those.
		if candidate.Day() != start.Day() || candidate.Month() != start.Month() {
			continue
		}
		if !withinUntil(candidate, d.Until) {
			break
		}
		starts = append(starts, candidate)
	}
	return starts
}

func withinUntil(candidate time.Time, until *time.Time) bool {
	if until == nil {
		return true
	}
	return !candidate.After(*until)
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
