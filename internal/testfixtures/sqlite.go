package testfixtures

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/Joy52-cyber/schedulesync-web-sub001/internal/persistence"
	"github.com/Joy52-cyber/schedulesync-web-sub001/internal/persistence/sqlite"
)

// SQLiteHarness provides repository access backed by a temporary SQLite
// database for integration-style tests.
type SQLiteHarness struct {
	Participants persistence.ParticipantRepository
	Policies     persistence.AvailabilityPolicyRepository
	Bookings     persistence.BookingRepository
	Blocks       persistence.BlockedIntervalRepository
	Teams        persistence.TeamRepository
	Sessions     persistence.SessionRepository

	cleanup func()
}

// Close releases resources associated with the harness.
func (h *SQLiteHarness) Close() {
	if h != nil && h.cleanup != nil {
		h.cleanup()
		h.cleanup = nil
	}
}

// NewSQLiteHarness constructs a migrated SQLiteHarness on a temporary file.
// Callers may optionally invoke Close, but the helper also registers a
// cleanup callback with the provided testing.TB.
func NewSQLiteHarness(tb testing.TB) *SQLiteHarness {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "scheduler.db")
	pool, err := sqlite.NewConnectionPool(sqlite.DefaultConfig(path))
	if err != nil {
		tb.Fatalf("failed to open database: %v", err)
	}

	if err := sqlite.Migrate(context.Background(), pool); err != nil {
		_ = pool.Close()
		tb.Fatalf("failed to migrate database: %v", err)
	}

	harness := &SQLiteHarness{
		Participants: sqlite.NewParticipantRepository(pool),
		Policies:     sqlite.NewAvailabilityPolicyRepository(pool),
		Bookings:     sqlite.NewBookingRepository(pool),
		Blocks:       sqlite.NewBlockedIntervalRepository(pool),
		Teams:        sqlite.NewTeamRepository(pool),
		Sessions:     sqlite.NewSessionRepository(pool),
		cleanup: func() {
			_ = pool.Close()
		},
	}

	tb.Cleanup(harness.Close)
	return harness
}
