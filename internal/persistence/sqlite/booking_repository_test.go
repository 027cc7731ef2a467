package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Joy52-cyber/schedulesync-web-sub001/internal/persistence"
)

func bookingAt(id, owner string, start time.Time, duration time.Duration) persistence.Booking {
	return persistence.Booking{
		ID:        id,
		OwnerID:   owner,
		Title:     "Sync",
		Start:     start,
		End:       start.Add(duration),
		Status:    persistence.BookingStatusConfirmed,
		CreatedAt: start.Add(-24 * time.Hour),
		UpdatedAt: start.Add(-24 * time.Hour),
	}
}

func TestBookingRepository_CreateAndGet(t *testing.T) {
	t.Parallel()

	pool := openTestPool(t)
	seedParticipant(t, pool, "u-1", "u1@example.com")
	repo := NewBookingRepository(pool)
	ctx := context.Background()

	start := time.Date(2026, time.March, 3, 10, 0, 0, 0, time.UTC)
	booking := bookingAt("b-1", "u-1", start, 30*time.Minute)
	booking.Attendees = []string{"u-1", "guest@example.com", "u-1"}

	require.NoError(t, repo.CreateBooking(ctx, booking))

	got, err := repo.GetBooking(ctx, "b-1")
	require.NoError(t, err)
	assert.Equal(t, "u-1", got.OwnerID)
	assert.True(t, got.Start.Equal(start))
	assert.Equal(t, persistence.BookingStatusConfirmed, got.Status)
	// Attendees deduplicated and sorted.
	assert.Equal(t, []string{"guest@example.com", "u-1"}, got.Attendees)

	_, err = repo.GetBooking(ctx, "missing")
	assert.ErrorIs(t, err, persistence.ErrNotFound)
}

func TestBookingRepository_CreateIfFree(t *testing.T) {
	t.Parallel()

	pool := openTestPool(t)
	seedParticipant(t, pool, "u-1", "u1@example.com")
	repo := NewBookingRepository(pool)
	ctx := context.Background()

	start := time.Date(2026, time.March, 3, 10, 0, 0, 0, time.UTC)
	require.NoError(t, repo.CreateBookingIfFree(ctx, bookingAt("b-1", "u-1", start, time.Hour)))

	t.Run("overlapping insert rejected", func(t *testing.T) {
		err := repo.CreateBookingIfFree(ctx, bookingAt("b-2", "u-1", start.Add(30*time.Minute), time.Hour))
		assert.ErrorIs(t, err, persistence.ErrOverlap)
	})

	t.Run("adjacent insert accepted", func(t *testing.T) {
		require.NoError(t, repo.CreateBookingIfFree(ctx, bookingAt("b-3", "u-1", start.Add(time.Hour), time.Hour)))
	})

	t.Run("cancelled bookings do not block", func(t *testing.T) {
		require.NoError(t, repo.CancelBooking(ctx, "b-1", start))
		require.NoError(t, repo.CreateBookingIfFree(ctx, bookingAt("b-4", "u-1", start, time.Hour)))
	})
}

func TestBookingRepository_ListBookings(t *testing.T) {
	t.Parallel()

	pool := openTestPool(t)
	seedParticipant(t, pool, "u-1", "u1@example.com")
	seedParticipant(t, pool, "u-2", "u2@example.com")
	repo := NewBookingRepository(pool)
	ctx := context.Background()

	day := time.Date(2026, time.March, 3, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.CreateBooking(ctx, bookingAt("b-1", "u-1", day.Add(9*time.Hour), time.Hour)))
	require.NoError(t, repo.CreateBooking(ctx, bookingAt("b-2", "u-1", day.Add(14*time.Hour), time.Hour)))
	require.NoError(t, repo.CreateBooking(ctx, bookingAt("b-3", "u-2", day.Add(9*time.Hour), time.Hour)))

	cancelled := bookingAt("b-4", "u-1", day.Add(11*time.Hour), time.Hour)
	cancelled.Status = persistence.BookingStatusCancelled
	require.NoError(t, repo.CreateBooking(ctx, cancelled))

	t.Run("by owner and window", func(t *testing.T) {
		bookings, err := repo.ListBookings(ctx, persistence.BookingFilter{
			OwnerID: "u-1",
			From:    day,
			To:      day.Add(12 * time.Hour),
		})
		require.NoError(t, err)
		require.Len(t, bookings, 2)
		assert.Equal(t, "b-1", bookings[0].ID)
		assert.Equal(t, "b-4", bookings[1].ID)
	})

	t.Run("status filter", func(t *testing.T) {
		bookings, err := repo.ListBookings(ctx, persistence.BookingFilter{
			OwnerID:  "u-1",
			Statuses: []string{persistence.BookingStatusConfirmed},
		})
		require.NoError(t, err)
		require.Len(t, bookings, 2)
		for _, booking := range bookings {
			assert.Equal(t, persistence.BookingStatusConfirmed, booking.Status)
		}
	})
}

func TestBookingRepository_CountUpcomingForOwners(t *testing.T) {
	t.Parallel()

	pool := openTestPool(t)
	seedParticipant(t, pool, "u-1", "u1@example.com")
	seedParticipant(t, pool, "u-2", "u2@example.com")
	repo := NewBookingRepository(pool)
	ctx := context.Background()

	now := time.Date(2026, time.March, 3, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.CreateBooking(ctx, bookingAt("b-1", "u-1", now.Add(time.Hour), time.Hour)))
	require.NoError(t, repo.CreateBooking(ctx, bookingAt("b-2", "u-1", now.Add(48*time.Hour), time.Hour)))
	require.NoError(t, repo.CreateBooking(ctx, bookingAt("b-3", "u-1", now.Add(-3*time.Hour), time.Hour)))

	counts, err := repo.CountUpcomingForOwners(ctx, []string{"u-1", "u-2"}, now)
	require.NoError(t, err)
	assert.Equal(t, 2, counts["u-1"])
	assert.Equal(t, 0, counts["u-2"])
}
