package sqlite

import (
	"context"
	"fmt"
)

// Timestamps and intervals are stored as RFC3339 UTC strings so lexical
// comparison matches chronological order.
const schemaDDL = `
CREATE TABLE IF NOT EXISTS participants (
	id TEXT PRIMARY KEY,
	email TEXT NOT NULL UNIQUE COLLATE NOCASE,
	display_name TEXT NOT NULL,
	timezone TEXT NOT NULL DEFAULT 'UTC',
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS availability_policies (
	participant_id TEXT PRIMARY KEY REFERENCES participants(id) ON DELETE CASCADE,
	days_json TEXT NOT NULL,
	buffer_minutes INTEGER NOT NULL DEFAULT 0 CHECK (buffer_minutes >= 0),
	lead_time_hours INTEGER NOT NULL DEFAULT 0 CHECK (lead_time_hours >= 0),
	booking_horizon_days INTEGER NOT NULL DEFAULT 14 CHECK (booking_horizon_days > 0),
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS bookings (
	id TEXT PRIMARY KEY,
	owner_id TEXT NOT NULL REFERENCES participants(id),
	title TEXT NOT NULL,
	start_time TEXT NOT NULL,
	end_time TEXT NOT NULL,
	status TEXT NOT NULL CHECK (status IN ('confirmed', 'pending_approval', 'cancelled')),
	recurrence_rule TEXT,
	recurrence_end TEXT,
	team_id TEXT,
	assigned_member_id TEXT,
	session_id TEXT,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	CHECK (start_time < end_time)
);

CREATE INDEX IF NOT EXISTS idx_bookings_owner_window
	ON bookings(owner_id, start_time, end_time);

CREATE TABLE IF NOT EXISTS booking_attendees (
	booking_id TEXT NOT NULL REFERENCES bookings(id) ON DELETE CASCADE,
	participant_id TEXT NOT NULL,
	PRIMARY KEY (booking_id, participant_id)
);

CREATE TABLE IF NOT EXISTS blocked_intervals (
	id TEXT PRIMARY KEY,
	owner_id TEXT NOT NULL REFERENCES participants(id) ON DELETE CASCADE,
	start_time TEXT NOT NULL,
	end_time TEXT NOT NULL,
	reason TEXT,
	created_at TEXT NOT NULL,
	CHECK (start_time < end_time)
);

CREATE INDEX IF NOT EXISTS idx_blocked_owner_window
	ON blocked_intervals(owner_id, start_time, end_time);

CREATE TABLE IF NOT EXISTS teams (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	strategy TEXT NOT NULL CHECK (strategy IN ('round_robin', 'first_available')),
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS team_members (
	id TEXT PRIMARY KEY,
	team_id TEXT NOT NULL REFERENCES teams(id) ON DELETE CASCADE,
	name TEXT NOT NULL,
	user_id TEXT REFERENCES participants(id),
	created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_team_members_team ON team_members(team_id);

CREATE TABLE IF NOT EXISTS sessions (
	id TEXT PRIMARY KEY,
	organizer_id TEXT NOT NULL REFERENCES participants(id),
	status TEXT NOT NULL CHECK (status IN ('active', 'confirmed', 'cancelled', 'expired')),
	request_json TEXT NOT NULL,
	proposals_json TEXT NOT NULL,
	selected_start TEXT,
	selected_end TEXT,
	booking_id TEXT,
	version INTEGER NOT NULL DEFAULT 1,
	proposed_at TEXT NOT NULL,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_sessions_status_updated ON sessions(status, updated_at);
`

// Migrate applies the schema. Every statement is idempotent, so it is safe
// to run on every startup.
func Migrate(ctx context.Context, pool *ConnectionPool) error {
	if _, err := pool.DB().ExecContext(ctx, schemaDDL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
