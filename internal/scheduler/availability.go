package scheduler

import (
	"time"
)

// DefaultMaxSlots bounds slot searches when the caller does not say how
// many candidates it wants.
const DefaultMaxSlots = 5

// AvailabilityQuery parameterizes a slot search for one participant.
type AvailabilityQuery struct {
	Duration    time.Duration
	Preferences Preferences
	MaxSlots    int
	// Now is the evaluation instant; availability is deterministic given
	// the same Now and inputs.
	Now time.Time
}

// ComputeAvailability enumerates candidate slots for one participant,
// honoring working hours, lead time, the booking horizon, buffers around
// existing bookings, and blocked intervals. It is a pure function of its
// inputs.
func ComputeAvailability(profile WorkingHoursProfile, bookings []BookingInterval, blocks []Interval, query AvailabilityQuery) ([]Slot, error) {
	return generateSlots(profile, bookings, blocks, query, profile.Horizon(), nil)
}

// generateSlots is the shared slot walk behind availability computation and
// alternative search. The optional reject callback can veto individual
// candidate start times.
func generateSlots(profile WorkingHoursProfile, bookings []BookingInterval, blocks []Interval, query AvailabilityQuery, horizonDays int, reject func(start time.Time) bool) ([]Slot, error) {
	if query.Duration <= 0 {
		return nil, ErrInvalidDuration
	}
	loc, err := profile.Location()
	if err != nil {
		return nil, err
	}

	maxSlots := query.MaxSlots
	if maxSlots <= 0 {
		maxSlots = DefaultMaxSlots
	}
	if horizonDays <= 0 {
		horizonDays = profile.Horizon()
	}

	now := query.Now.In(loc)
	minStart := now.Add(profile.LeadTime())
	buffer := profile.Buffer()

	slots := make([]Slot, 0, maxSlots)

	for dayOffset := 0; dayOffset < horizonDays && len(slots) < maxSlots; dayOffset++ {
		day := startOfDay(now).AddDate(0, 0, dayOffset)
		window, ok := activeWindow(profile, query.Preferences, day, now)
		if !ok {
			continue
		}

		// Anchor the window at the configured wall clock so DST transition
		// days keep their 09:00 start instead of shifting by the offset change.
		year, month, dayOfMonth := day.Date()
		windowStart := time.Date(year, month, dayOfMonth, window.Start.Hour, window.Start.Minute, 0, 0, loc)
		windowEnd := time.Date(year, month, dayOfMonth, window.End.Hour, window.End.Minute, 0, 0, loc)

		for candidate := windowStart; len(slots) < maxSlots; candidate = candidate.Add(SlotGranularity) {
			slotEnd := candidate.Add(query.Duration)
			if slotEnd.After(windowEnd) {
				break
			}
			if !candidate.After(now) || candidate.Before(minStart) {
				continue
			}
			if reject != nil && reject(candidate) {
				continue
			}
			if hasBookingOverlap(bookings, candidate.Add(-buffer), slotEnd.Add(buffer), "") {
				continue
			}
			if hasBlockOverlap(blocks, candidate, slotEnd) {
				continue
			}
			slots = append(slots, Slot{
				Start:    candidate,
				End:      slotEnd,
				DayLabel: dayLabel(candidate, now),
			})
		}
	}

	return slots, nil
}

// activeWindow derives the bookable wall-clock window for one day, or false
// when the day is disqualified outright.
func activeWindow(profile WorkingHoursProfile, prefs Preferences, day, now time.Time) (DayWindow, bool) {
	window := profile.Days[day.Weekday()]
	if !window.Enabled {
		return DayWindow{}, false
	}
	if len(prefs.Weekdays) > 0 && !containsWeekday(prefs.Weekdays, day.Weekday()) {
		return DayWindow{}, false
	}
	if !matchesWeekPreference(prefs.Week, day, now) {
		return DayWindow{}, false
	}

	// An explicit clock range takes precedence over a coarse band; both
	// only narrow the configured window.
	narrowStart, narrowEnd, narrowed := preferenceRange(prefs)
	if narrowed {
		if narrowStart.Minutes() > window.Start.Minutes() {
			window.Start = narrowStart
		}
		if narrowEnd.Minutes() < window.End.Minutes() {
			window.End = narrowEnd
		}
	}
	if !window.Start.Before(window.End) {
		return DayWindow{}, false
	}
	return window, true
}

func preferenceRange(prefs Preferences) (TimeOfDay, TimeOfDay, bool) {
	if prefs.ClockRange != nil {
		return prefs.ClockRange.Start, prefs.ClockRange.End, true
	}
	switch prefs.Band {
	case BandMorning:
		return TimeOfDay{Hour: 6}, TimeOfDay{Hour: 12}, true
	case BandAfternoon:
		return TimeOfDay{Hour: 12}, TimeOfDay{Hour: 17}, true
	case BandEvening:
		return TimeOfDay{Hour: 17}, TimeOfDay{Hour: 21}, true
	default:
		return TimeOfDay{}, TimeOfDay{}, false
	}
}

func matchesWeekPreference(pref WeekPreference, day, now time.Time) bool {
	switch pref {
	case WeekThis:
		weekStart := startOfWeek(now)
		return !day.Before(weekStart) && day.Before(weekStart.AddDate(0, 0, 7))
	case WeekNext:
		weekStart := startOfWeek(now).AddDate(0, 0, 7)
		return !day.Before(weekStart) && day.Before(weekStart.AddDate(0, 0, 7))
	default:
		return true
	}
}

func containsWeekday(days []time.Weekday, target time.Weekday) bool {
	for _, day := range days {
		if day == target {
			return true
		}
	}
	return false
}

func hasBookingOverlap(bookings []BookingInterval, start, end time.Time, excludeID string) bool {
	for _, booking := range bookings {
		if excludeID != "" && booking.ID == excludeID {
			continue
		}
		if overlaps(start, end, booking.Start, booking.End) {
			return true
		}
	}
	return false
}

func hasBlockOverlap(blocks []Interval, start, end time.Time) bool {
	for _, block := range blocks {
		if overlaps(start, end, block.Start, block.End) {
			return true
		}
	}
	return false
}
