package recurrence

import (
	"time"
)

// Frequency identifies how often a recurring meeting repeats.
type Frequency string

const (
	// FrequencyDaily repeats every interval days.
	FrequencyDaily Frequency = "DAILY"
	// FrequencyWeekly repeats on the selected weekdays every interval weeks.
	FrequencyWeekly Frequency = "WEEKLY"
	// FrequencyMonthly repeats on a day of month every interval months.
	FrequencyMonthly Frequency = "MONTHLY"
	// FrequencyYearly repeats on the anchor date every interval years.
	FrequencyYearly Frequency = "YEARLY"
)

// DefaultMaxInstances bounds expansion of open-ended series.
const DefaultMaxInstances = 52

// Descriptor is the structured recurrence rule the engine operates on.
// The compact rule string produced by RuleString is an interchange format
// used only at persistence boundaries.
type Descriptor struct {
	Frequency Frequency
	Interval  int
	// Weekdays is meaningful for WEEKLY rules.
	Weekdays []time.Weekday
	// MonthDay is meaningful for MONTHLY rules. A day beyond a month's
	// length skips that month rather than clamping.
	MonthDay *int
	// Until and Count bound the series; at most one is set. When neither
	// is set the series is open-ended and capped by DefaultMaxInstances.
	Until *time.Time
	Count *int
}

// Instance is one concrete occurrence of a recurring meeting.
type Instance struct {
	Start time.Time
	End   time.Time
}

// EffectiveInterval returns the repeat interval, treating zero or negative
// values as 1.
func (d Descriptor) EffectiveInterval() int {
	if d.Interval < 1 {
		return 1
	}
	return d.Interval
}

// IsZero reports whether the descriptor carries no recurrence at all.
func (d Descriptor) IsZero() bool {
	return d.Frequency == ""
}

// Equal compares two descriptors field by field, treating nil and empty
// weekday sets as equal.
func (d Descriptor) Equal(other Descriptor) bool {
	if d.Frequency != other.Frequency || d.EffectiveInterval() != other.EffectiveInterval() {
		return false
	}
	if len(d.Weekdays) != len(other.Weekdays) {
		return false
	}
	seen := make(map[time.Weekday]struct{}, len(d.Weekdays))
	for _, day := range d.Weekdays {
		seen[day] = struct{}{}
	}
	for _, day := range other.Weekdays {
		if _, ok := seen[day]; !ok {
			return false
		}
	}
	if (d.MonthDay == nil) != (other.MonthDay == nil) {
		return false
	}
	if d.MonthDay != nil && *d.MonthDay != *other.MonthDay {
		return false
	}
	if (d.Until == nil) != (other.Until == nil) {
		return false
	}
	if d.Until != nil && !d.Until.Equal(*other.Until) {
		return false
	}
	if (d.Count == nil) != (other.Count == nil) {
		return false
	}
	if d.Count != nil && *d.Count != *other.Count {
		return false
	}
	return true
}

func sortedWeekdays(days []time.Weekday) []time.Weekday {
	seen := make(map[time.Weekday]struct{}, len(days))
	out := make([]time.Weekday, 0, len(days))
	for _, day := range days {
		if day < time.Sunday || day > time.Saturday {
			continue
		}
		if _, ok := seen[day]; ok {
			continue
		}
		seen[day] = struct{}{}
		out = append(out, day)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j] < out[j-1]; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}
