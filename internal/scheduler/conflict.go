package scheduler

import (
	"time"
)

const (
	// SeriesCheckLimit bounds how many instances of a recurring series are
	// conflict-checked.
	SeriesCheckLimit = 52
	// SeriesReportLimit bounds how many conflicting instances are reported.
	SeriesReportLimit = 10
	// alternativeExclusionZone keeps alternatives from re-proposing a
	// near-duplicate of a just-rejected start time.
	alternativeExclusionZone = 30 * time.Minute
)

// CheckConflict classifies collisions between a proposed interval and the
// supplied bookings. A booking overlapping the raw interval is a direct
// conflict; one overlapping only the buffered interval is a buffer
// violation, tagged with the side of the proposed interval it sits on.
// The check is a pure read: no conflict is an ordinary empty report.
func CheckConflict(bookings []BookingInterval, start, end time.Time, buffer time.Duration, excludeID string) (ConflictReport, error) {
	if !start.Before(end) {
		return ConflictReport{}, ErrInvalidInterval
	}
	if buffer < 0 {
		buffer = 0
	}

	report := ConflictReport{
		BufferRequired: BufferRequired{Before: buffer, After: buffer},
	}

	bufferedStart := start.Add(-buffer)
	bufferedEnd := end.Add(buffer)

	for _, booking := range bookings {
		if excludeID != "" && booking.ID == excludeID {
			continue
		}
		if !overlaps(bufferedStart, bufferedEnd, booking.Start, booking.End) {
			continue
		}
		entry := ConflictEntry{
			BookingID: booking.ID,
			Start:     booking.Start,
			End:       booking.End,
		}
		if !overlaps(start, end, booking.Start, booking.End) {
			entry.IsBufferViolation = true
			if !booking.End.After(start) {
				entry.ViolationSide = "before"
			} else {
				entry.ViolationSide = "after"
			}
		}
		report.Conflicts = append(report.Conflicts, entry)
	}

	report.HasConflict = len(report.Conflicts) > 0
	return report, nil
}

// AlternativeQuery parameterizes a search for replacement slots after a
// proposed time was rejected.
type AlternativeQuery struct {
	RequestedStart time.Time
	Duration       time.Duration
	MaxSlots       int
	MaxDaysAhead   int
	Preferences    Preferences
	Now            time.Time
}

// FindAlternatives runs the regular slot walk restricted to a search window
// and refuses any candidate starting within thirty minutes of the rejected
// time. Results are chronological.
func FindAlternatives(profile WorkingHoursProfile, bookings []BookingInterval, blocks []Interval, query AlternativeQuery) ([]Slot, error) {
	horizon := query.MaxDaysAhead
	if horizon <= 0 || horizon > profile.Horizon() {
		horizon = profile.Horizon()
	}

	inner := AvailabilityQuery{
		Duration:    query.Duration,
		Preferences: query.Preferences,
		MaxSlots:    query.MaxSlots,
		Now:         query.Now,
	}

	requested := query.RequestedStart
	return generateSlots(profile, bookings, blocks, inner, horizon, func(start time.Time) bool {
		gap := start.Sub(requested)
		if gap < 0 {
			gap = -gap
		}
		return gap < alternativeExclusionZone
	})
}

// SeriesConflict reports the conflicts found for one instance of a
// recurring series.
type SeriesConflict struct {
	InstanceIndex int             `json:"instance_index"`
	Date          time.Time       `json:"date"`
	Conflicts     []ConflictEntry `json:"conflicts"`
}

// CheckRecurringSeries conflict-checks each instance of an expanded series
// against the supplied bookings. At most SeriesCheckLimit instances are
// examined and at most SeriesReportLimit conflicting ones reported. A clean
// series yields nil.
func CheckRecurringSeries(bookings []BookingInterval, instances []Interval, buffer time.Duration) ([]SeriesConflict, error) {
	checked := instances
	if len(checked) > SeriesCheckLimit {
		checked = checked[:SeriesCheckLimit]
	}

	var conflicts []SeriesConflict
	for index, instance := range checked {
		report, err := CheckConflict(bookings, instance.Start, instance.End, buffer, "")
		if err != nil {
			return nil, err
		}
		if !report.HasConflict {
			continue
		}
		conflicts = append(conflicts, SeriesConflict{
			InstanceIndex: index,
			Date:          instance.Start,
			Conflicts:     report.Conflicts,
		})
		if len(conflicts) == SeriesReportLimit {
			break
		}
	}
	return conflicts, nil
}
