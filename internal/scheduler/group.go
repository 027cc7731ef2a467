package scheduler

import (
	"time"
)

// groupOverfetchFactor over-requests candidates from the primary
// participant so enough survive the remaining participants' filters.
const groupOverfetchFactor = 3

// ResolveGroupAvailability intersects availability across a group. The
// first participant is the primary source of candidate slots; every
// remaining participant must both be inside their own working hours
// (re-zoned) and conflict-free for a candidate to survive. Unresolvable
// participants cannot be checked and are treated as always available. The
// result is always a subset of the primary participant's own availability.
func ResolveGroupAvailability(primary ParticipantCalendar, others []ParticipantCalendar, duration time.Duration, prefs Preferences, maxSlots int, now time.Time) ([]Slot, error) {
	if maxSlots <= 0 {
		maxSlots = DefaultMaxSlots
	}

	candidates, err := ComputeAvailability(primary.Profile, primary.Bookings, primary.Blocks, AvailabilityQuery{
		Duration:    duration,
		Preferences: prefs,
		MaxSlots:    maxSlots * groupOverfetchFactor,
		Now:         now,
	})
	if err != nil {
		return nil, err
	}

	slots := make([]Slot, 0, maxSlots)
	for _, candidate := range candidates {
		ok, err := slotWorksForAll(others, candidate.Start, candidate.End)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		slots = append(slots, candidate)
		if len(slots) == maxSlots {
			break
		}
	}
	return slots, nil
}

func slotWorksForAll(participants []ParticipantCalendar, start, end time.Time) (bool, error) {
	for _, participant := range participants {
		if !participant.Resolvable {
			continue
		}
		inside, err := withinWorkingHours(participant.Profile, start, end)
		if err != nil {
			return false, err
		}
		if !inside {
			return false, nil
		}
		report, err := CheckConflict(participant.Bookings, start, end, participant.Profile.Buffer(), "")
		if err != nil {
			return false, err
		}
		if report.HasConflict {
			return false, nil
		}
		if hasBlockOverlap(participant.Blocks, start, end) {
			return false, nil
		}
	}
	return true, nil
}

// withinWorkingHours re-zones the interval into the participant's timezone
// and checks it against that weekday's configured window. Intervals that
// cross midnight in the participant's zone never fit a single-day window.
func withinWorkingHours(profile WorkingHoursProfile, start, end time.Time) (bool, error) {
	loc, err := profile.Location()
	if err != nil {
		return false, err
	}

	localStart := start.In(loc)
	localEnd := end.In(loc)
	if !sameDate(localStart, localEnd) && !isMidnight(localEnd) {
		return false, nil
	}

	window := profile.Days[localStart.Weekday()]
	if !window.Enabled {
		return false, nil
	}

	startMinutes := localStart.Hour()*60 + localStart.Minute()
	endMinutes := localEnd.Hour()*60 + localEnd.Minute()
	if endMinutes == 0 && !sameDate(localStart, localEnd) {
		endMinutes = 24 * 60
	}

	return startMinutes >= window.Start.Minutes() && endMinutes <= window.End.Minutes(), nil
}

func isMidnight(t time.Time) bool {
	return t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0
}

// CheckGroupSlot validates one specific proposed time against every
// participant, returning per-participant conflict detail rather than a
// boolean. Blocked intervals surface as conflicts without a booking id.
func CheckGroupSlot(participants []ParticipantCalendar, start, end time.Time) (GroupSlotReport, error) {
	if !start.Before(end) {
		return GroupSlotReport{}, ErrInvalidInterval
	}

	report := GroupSlotReport{TotalCount: len(participants)}
	for _, participant := range participants {
		if !participant.Resolvable {
			report.AvailableCount++
			continue
		}

		conflictReport, err := CheckConflict(participant.Bookings, start, end, participant.Profile.Buffer(), "")
		if err != nil {
			return GroupSlotReport{}, err
		}

		entries := conflictReport.Conflicts
		for _, block := range participant.Blocks {
			if overlaps(start, end, block.Start, block.End) {
				entries = append(entries, ConflictEntry{Start: block.Start, End: block.End})
			}
		}

		if len(entries) == 0 {
			report.AvailableCount++
			continue
		}
		report.Conflicts = append(report.Conflicts, ParticipantConflicts{
			ParticipantID: participant.ID,
			Conflicts:     entries,
		})
	}

	report.HasConflicts = len(report.Conflicts) > 0
	return report, nil
}
