package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func calendar(id string, bookings []BookingInterval, blocks []Interval) ParticipantCalendar {
	return ParticipantCalendar{
		ID:         id,
		Resolvable: true,
		Profile:    DefaultProfile("UTC"),
		Bookings:   bookings,
		Blocks:     blocks,
	}
}

func TestResolveGroupAvailability_SubsetOfPrimary(t *testing.T) {
	t.Parallel()

	primary := calendar("host", nil, nil)
	other := calendar("guest", []BookingInterval{{ID: "b-1", Start: tuesday(9, 0), End: tuesday(12, 0)}}, nil)

	primarySlots, err := ComputeAvailability(primary.Profile, primary.Bookings, primary.Blocks, AvailabilityQuery{
		Duration: 30 * time.Minute,
		MaxSlots: 30,
		Now:      tuesday(8, 0),
	})
	require.NoError(t, err)

	groupSlots, err := ResolveGroupAvailability(primary, []ParticipantCalendar{other}, 30*time.Minute, Preferences{}, 5, tuesday(8, 0))
	require.NoError(t, err)
	require.NotEmpty(t, groupSlots)

	for _, slot := range groupSlots {
		assert.True(t, containsSlotStart(primarySlots, slot.Start), "group slot %v not in primary availability", slot.Start)
	}
}

func TestResolveGroupAvailability_BlockedParticipantShiftsFirstSlot(t *testing.T) {
	t.Parallel()

	primary := calendar("host", nil, nil)
	// B's block covers A's first three candidates (09:00, 09:30, 10:00).
	blocked := calendar("guest", nil, []Interval{{Start: tuesday(9, 0), End: tuesday(10, 30)}})

	slots, err := ResolveGroupAvailability(primary, []ParticipantCalendar{blocked}, 30*time.Minute, Preferences{}, 3, tuesday(8, 0))
	require.NoError(t, err)
	require.NotEmpty(t, slots)

	assert.True(t, slots[0].Start.Equal(tuesday(10, 30)), "first group slot must be the fourth primary candidate, got %v", slots[0].Start)
}

func TestResolveGroupAvailability_UnresolvableParticipantsAlwaysAvailable(t *testing.T) {
	t.Parallel()

	primary := calendar("host", nil, nil)
	external := ParticipantCalendar{ID: "someone@example.com", Resolvable: false}

	slots, err := ResolveGroupAvailability(primary, []ParticipantCalendar{external}, 30*time.Minute, Preferences{}, 3, tuesday(8, 0))
	require.NoError(t, err)
	require.Len(t, slots, 3)
	assert.True(t, slots[0].Start.Equal(tuesday(9, 0)))
}

func TestResolveGroupAvailability_RespectsOtherTimezoneWorkingHours(t *testing.T) {
	t.Parallel()

	primary := calendar("host", nil, nil)
	newYork := ParticipantCalendar{
		ID:         "ny",
		Resolvable: true,
		Profile:    DefaultProfile("America/New_York"),
	}

	// New York works 09:00-17:00 EST, which is 14:00-22:00 UTC in
	// January; the mutual window with a UTC host is 14:00-17:00 UTC.
	now := time.Date(2026, time.January, 6, 8, 0, 0, 0, time.UTC)
	slots, err := ResolveGroupAvailability(primary, []ParticipantCalendar{newYork}, 30*time.Minute, Preferences{}, 5, now)
	require.NoError(t, err)
	require.NotEmpty(t, slots)

	assert.True(t, slots[0].Start.Equal(time.Date(2026, time.January, 6, 14, 0, 0, 0, time.UTC)), "got %v", slots[0].Start)

	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	for _, slot := range slots {
		local := slot.Start.In(loc)
		assert.GreaterOrEqual(t, local.Hour(), 9)
		assert.Less(t, local.Hour(), 17)
	}
}

func TestCheckGroupSlot(t *testing.T) {
	t.Parallel()

	t.Run("reports per-participant conflicts", func(t *testing.T) {
		t.Parallel()
		free := calendar("free", nil, nil)
		busy := calendar("busy", []BookingInterval{{ID: "b-1", Start: tuesday(10, 0), End: tuesday(11, 0)}}, nil)

		report, err := CheckGroupSlot([]ParticipantCalendar{free, busy}, tuesday(10, 0), tuesday(10, 30))
		require.NoError(t, err)

		assert.True(t, report.HasConflicts)
		assert.Equal(t, 2, report.TotalCount)
		assert.Equal(t, 1, report.AvailableCount)
		require.Len(t, report.Conflicts, 1)
		assert.Equal(t, "busy", report.Conflicts[0].ParticipantID)
	})

	t.Run("blocked interval surfaces as conflict", func(t *testing.T) {
		t.Parallel()
		blocked := calendar("blocked", nil, []Interval{{Start: tuesday(10, 0), End: tuesday(12, 0)}})

		report, err := CheckGroupSlot([]ParticipantCalendar{blocked}, tuesday(10, 30), tuesday(11, 0))
		require.NoError(t, err)
		assert.True(t, report.HasConflicts)
		assert.Equal(t, 0, report.AvailableCount)
	})

	t.Run("all clear", func(t *testing.T) {
		t.Parallel()
		report, err := CheckGroupSlot([]ParticipantCalendar{calendar("a", nil, nil), calendar("b", nil, nil)}, tuesday(10, 0), tuesday(10, 30))
		require.NoError(t, err)
		assert.False(t, report.HasConflicts)
		assert.Equal(t, 2, report.AvailableCount)
	})

	t.Run("invalid interval", func(t *testing.T) {
		t.Parallel()
		_, err := CheckGroupSlot(nil, tuesday(11, 0), tuesday(10, 0))
		assert.ErrorIs(t, err, ErrInvalidInterval)
	})
}
