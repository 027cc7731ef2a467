package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Joy52-cyber/schedulesync-web-sub001/internal/persistence"
	"github.com/Joy52-cyber/schedulesync-web-sub001/internal/scheduler"
)

type groupTestEnv struct {
	service  *GroupService
	bookings *fakeBookingRepo
	blocks   *fakeBlockedRepo
	now      time.Time
}

func newGroupTestEnv(t *testing.T, participantIDs ...string) *groupTestEnv {
	t.Helper()

	now := time.Date(2026, time.January, 6, 8, 0, 0, 0, time.UTC)
	participants := newFakeParticipantRepo()
	for _, id := range participantIDs {
		require.NoError(t, participants.CreateParticipant(context.Background(), persistence.Participant{
			ID:        id,
			Email:     id + "@example.com",
			Timezone:  "UTC",
			CreatedAt: now,
			UpdatedAt: now,
		}))
	}

	bookings := newFakeBookingRepo()
	blocks := newFakeBlockedRepo()
	service := NewGroupService(
		participants, newFakePolicyRepo(), bookings, blocks,
		scheduler.DefaultProfile("UTC"),
		nil,
		func() time.Time { return now },
	)

	return &groupTestEnv{service: service, bookings: bookings, blocks: blocks, now: now}
}

func TestGroupService_ResolveGroupAvailability(t *testing.T) {
	t.Parallel()
	env := newGroupTestEnv(t, "host", "guest")

	// The guest is busy for the first candidate half hour.
	require.NoError(t, env.bookings.CreateBooking(context.Background(), persistence.Booking{
		ID:      "guest-busy",
		OwnerID: "guest",
		Start:   time.Date(2026, time.January, 6, 9, 0, 0, 0, time.UTC),
		End:     time.Date(2026, time.January, 6, 9, 30, 0, 0, time.UTC),
		Status:  persistence.BookingStatusConfirmed,
	}))

	slots, err := env.service.ResolveGroupAvailability(context.Background(), GroupAvailabilityParams{
		ParticipantIDs:  []string{"host", "guest"},
		DurationMinutes: 30,
		MaxSlots:        3,
	})
	require.NoError(t, err)
	require.Len(t, slots, 3)
	assert.Equal(t, time.Date(2026, time.January, 6, 9, 30, 0, 0, time.UTC), slots[0].Start)
}

func TestGroupService_ResolveGroupAvailability_ExternalEmailAlwaysAvailable(t *testing.T) {
	t.Parallel()
	env := newGroupTestEnv(t, "host")

	slots, err := env.service.ResolveGroupAvailability(context.Background(), GroupAvailabilityParams{
		ParticipantIDs:  []string{"host", "stranger@elsewhere.com"},
		DurationMinutes: 30,
		MaxSlots:        2,
	})
	require.NoError(t, err)
	require.Len(t, slots, 2)
	assert.Equal(t, time.Date(2026, time.January, 6, 9, 0, 0, 0, time.UTC), slots[0].Start)
}

func TestGroupService_ResolveGroupAvailability_PrimaryMustResolve(t *testing.T) {
	t.Parallel()
	env := newGroupTestEnv(t, "host")

	_, err := env.service.ResolveGroupAvailability(context.Background(), GroupAvailabilityParams{
		ParticipantIDs:  []string{"stranger@elsewhere.com", "host"},
		DurationMinutes: 30,
	})

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.FieldErrors, "participants")
}

func TestGroupService_ResolveGroupAvailability_UnknownIDFails(t *testing.T) {
	t.Parallel()
	env := newGroupTestEnv(t, "host")

	_, err := env.service.ResolveGroupAvailability(context.Background(), GroupAvailabilityParams{
		ParticipantIDs:  []string{"host", "no-such-id"},
		DurationMinutes: 30,
	})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestGroupService_ResolveGroupAvailability_Validation(t *testing.T) {
	t.Parallel()
	env := newGroupTestEnv(t)

	_, err := env.service.ResolveGroupAvailability(context.Background(), GroupAvailabilityParams{})

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.FieldErrors, "participants")
	assert.Contains(t, vErr.FieldErrors, "duration_minutes")
}

func TestGroupService_CheckGroupSlot(t *testing.T) {
	t.Parallel()
	env := newGroupTestEnv(t, "host", "guest")

	start := time.Date(2026, time.January, 6, 10, 0, 0, 0, time.UTC)
	require.NoError(t, env.bookings.CreateBooking(context.Background(), persistence.Booking{
		ID:      "standup",
		OwnerID: "guest",
		Start:   start,
		End:     start.Add(30 * time.Minute),
		Status:  persistence.BookingStatusConfirmed,
	}))

	report, err := env.service.CheckGroupSlot(context.Background(), GroupSlotCheckParams{
		ParticipantIDs: []string{"host", "guest", "outside@example.org"},
		Start:          start,
		End:            start.Add(time.Hour),
	})
	require.NoError(t, err)

	assert.True(t, report.HasConflicts)
	assert.Equal(t, 3, report.TotalCount)
	assert.Equal(t, 2, report.AvailableCount)
	require.Len(t, report.Conflicts, 1)
	assert.Equal(t, "guest", report.Conflicts[0].ParticipantID)
	require.Len(t, report.Conflicts[0].Conflicts, 1)
	assert.Equal(t, "standup", report.Conflicts[0].Conflicts[0].BookingID)
}

func TestGroupService_CheckGroupSlot_Validation(t *testing.T) {
	t.Parallel()
	env := newGroupTestEnv(t, "host")

	_, err := env.service.CheckGroupSlot(context.Background(), GroupSlotCheckParams{
		ParticipantIDs: []string{"host"},
		Start:          env.now.Add(time.Hour),
		End:            env.now.Add(time.Hour),
	})

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.FieldErrors, "time")
}
