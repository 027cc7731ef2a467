package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Joy52-cyber/schedulesync-web-sub001/internal/persistence"
)

func sessionAt(id, organizer string, at time.Time) persistence.Session {
	return persistence.Session{
		ID:            id,
		OrganizerID:   organizer,
		Status:        persistence.SessionStatusActive,
		RequestJSON:   `{"duration_minutes":30}`,
		ProposalsJSON: `[]`,
		Version:       1,
		ProposedAt:    at,
		CreatedAt:     at,
		UpdatedAt:     at,
	}
}

func TestSessionRepository_CreateAndGet(t *testing.T) {
	t.Parallel()

	pool := openTestPool(t)
	seedParticipant(t, pool, "u-1", "u1@example.com")
	repo := NewSessionRepository(pool)
	ctx := context.Background()

	at := time.Date(2026, time.March, 3, 9, 0, 0, 0, time.UTC)
	require.NoError(t, repo.CreateSession(ctx, sessionAt("s-1", "u-1", at)))

	got, err := repo.GetSession(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, persistence.SessionStatusActive, got.Status)
	assert.Equal(t, 1, got.Version)
	assert.True(t, got.ProposedAt.Equal(at))

	_, err = repo.GetSession(ctx, "missing")
	assert.ErrorIs(t, err, persistence.ErrNotFound)
}

func TestSessionRepository_OptimisticLocking(t *testing.T) {
	t.Parallel()

	pool := openTestPool(t)
	seedParticipant(t, pool, "u-1", "u1@example.com")
	repo := NewSessionRepository(pool)
	ctx := context.Background()

	at := time.Date(2026, time.March, 3, 9, 0, 0, 0, time.UTC)
	require.NoError(t, repo.CreateSession(ctx, sessionAt("s-1", "u-1", at)))

	first, err := repo.GetSession(ctx, "s-1")
	require.NoError(t, err)
	second := first

	first.Status = persistence.SessionStatusConfirmed
	first.UpdatedAt = at.Add(time.Minute)
	updated, err := repo.UpdateSession(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Version)

	// The second writer still holds version 1.
	second.Status = persistence.SessionStatusCancelled
	second.UpdatedAt = at.Add(2 * time.Minute)
	_, err = repo.UpdateSession(ctx, second)
	assert.ErrorIs(t, err, persistence.ErrVersionConflict)

	_, err = repo.UpdateSession(ctx, sessionAt("missing", "u-1", at))
	assert.ErrorIs(t, err, persistence.ErrNotFound)
}

func TestSessionRepository_StaleAndIdleQueries(t *testing.T) {
	t.Parallel()

	pool := openTestPool(t)
	seedParticipant(t, pool, "u-1", "u1@example.com")
	repo := NewSessionRepository(pool)
	ctx := context.Background()

	base := time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)

	old := sessionAt("s-old", "u-1", base)
	require.NoError(t, repo.CreateSession(ctx, old))

	fresh := sessionAt("s-fresh", "u-1", base.Add(72*time.Hour))
	require.NoError(t, repo.CreateSession(ctx, fresh))

	booked := sessionAt("s-booked", "u-1", base)
	booked.Status = persistence.SessionStatusConfirmed
	require.NoError(t, repo.CreateSession(ctx, booked))

	cancelled := sessionAt("s-done", "u-1", base)
	cancelled.Status = persistence.SessionStatusCancelled
	require.NoError(t, repo.CreateSession(ctx, cancelled))

	// The stale-proposal query only refreshes active sessions.
	stale, err := repo.ListActiveProposedBefore(ctx, base.Add(24*time.Hour))
	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.Equal(t, "s-old", stale[0].ID)

	// The idle query sees both active and confirmed sessions.
	idle, err := repo.ListOpenUpdatedBefore(ctx, base.Add(24*time.Hour))
	require.NoError(t, err)
	require.Len(t, idle, 2)
	assert.Equal(t, "s-booked", idle[0].ID)
	assert.Equal(t, "s-old", idle[1].ID)
}
