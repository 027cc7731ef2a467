package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Joy52-cyber/schedulesync-web-sub001/internal/persistence"
)

// SessionRepository implements persistence.SessionRepository using SQLite.
// Updates use optimistic locking on the version column.
type SessionRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewSessionRepository creates a new SQLite session repository.
func NewSessionRepository(pool *ConnectionPool) *SessionRepository {
	return &SessionRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// CreateSession inserts a new negotiation session at version 1.
func (r *SessionRepository) CreateSession(ctx context.Context, session persistence.Session) error {
	if session.ID == "" {
		return persistence.ErrConstraintViolation
	}
	if session.Version == 0 {
		session.Version = 1
	}

	query := `
		INSERT INTO sessions (id, organizer_id, status, request_json, proposals_json, selected_start, selected_end, booking_id, version, proposed_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.helper.Exec(ctx, query,
		session.ID,
		session.OrganizerID,
		session.Status,
		session.RequestJSON,
		session.ProposalsJSON,
		nullTime(session.SelectedStart),
		nullTime(session.SelectedEnd),
		nullString(session.BookingID),
		session.Version,
		session.ProposedAt.UTC().Format(time.RFC3339),
		session.CreatedAt.UTC().Format(time.RFC3339),
		session.UpdatedAt.UTC().Format(time.RFC3339),
	)
	return r.mapper.MapError(err)
}

// GetSession retrieves a session by ID.
func (r *SessionRepository) GetSession(ctx context.Context, id string) (persistence.Session, error) {
	query := selectSessionColumns + " FROM sessions WHERE id = ?"

	session, err := scanSession(r.helper.QueryRow(ctx, query, id).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Session{}, persistence.ErrNotFound
		}
		return persistence.Session{}, r.mapper.MapError(err)
	}
	return session, nil
}

// UpdateSession persists the session when the stored version matches
// session.Version, incrementing it. A zero-row update against an existing
// session means another writer won the race.
func (r *SessionRepository) UpdateSession(ctx context.Context, session persistence.Session) (persistence.Session, error) {
	query := `
		UPDATE sessions
		SET status = ?, request_json = ?, proposals_json = ?, selected_start = ?, selected_end = ?, booking_id = ?, version = version + 1, proposed_at = ?, updated_at = ?
		WHERE id = ? AND version = ?
	`

	result, err := r.helper.Exec(ctx, query,
		session.Status,
		session.RequestJSON,
		session.ProposalsJSON,
		nullTime(session.SelectedStart),
		nullTime(session.SelectedEnd),
		nullString(session.BookingID),
		session.ProposedAt.UTC().Format(time.RFC3339),
		session.UpdatedAt.UTC().Format(time.RFC3339),
		session.ID,
		session.Version,
	)
	if err != nil {
		return persistence.Session{}, r.mapper.MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return persistence.Session{}, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		if _, getErr := r.GetSession(ctx, session.ID); errors.Is(getErr, persistence.ErrNotFound) {
			return persistence.Session{}, persistence.ErrNotFound
		}
		return persistence.Session{}, persistence.ErrVersionConflict
	}

	session.Version++
	return session, nil
}

// ListActiveProposedBefore returns active sessions whose proposals were
// computed before the cutoff.
func (r *SessionRepository) ListActiveProposedBefore(ctx context.Context, cutoff time.Time) ([]persistence.Session, error) {
	query := selectSessionColumns + `
		FROM sessions
		WHERE status = 'active' AND proposed_at < ?
		ORDER BY proposed_at ASC, id ASC
	`
	return r.listSessions(ctx, query, cutoff.UTC().Format(time.RFC3339))
}

// ListOpenUpdatedBefore returns active and confirmed sessions idle since
// the cutoff.
func (r *SessionRepository) ListOpenUpdatedBefore(ctx context.Context, cutoff time.Time) ([]persistence.Session, error) {
	query := selectSessionColumns + `
		FROM sessions
		WHERE status IN ('active', 'confirmed') AND updated_at < ?
		ORDER BY updated_at ASC, id ASC
	`
	return r.listSessions(ctx, query, cutoff.UTC().Format(time.RFC3339))
}

func (r *SessionRepository) listSessions(ctx context.Context, query string, args ...interface{}) ([]persistence.Session, error) {
	rows, err := r.helper.Query(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var sessions []persistence.Session
	for rows.Next() {
		session, err := scanSession(rows.Scan)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return sessions, nil
}

const selectSessionColumns = `
	SELECT id, organizer_id, status, request_json, proposals_json, selected_start, selected_end, booking_id, version, proposed_at, created_at, updated_at`

func scanSession(scan func(dest ...interface{}) error) (persistence.Session, error) {
	var session persistence.Session
	var selectedStart, selectedEnd, bookingID sql.NullString
	var proposedAtStr, createdAtStr, updatedAtStr string

	err := scan(
		&session.ID,
		&session.OrganizerID,
		&session.Status,
		&session.RequestJSON,
		&session.ProposalsJSON,
		&selectedStart,
		&selectedEnd,
		&bookingID,
		&session.Version,
		&proposedAtStr,
		&createdAtStr,
		&updatedAtStr,
	)
	if err != nil {
		return persistence.Session{}, err
	}

	if bookingID.Valid {
		session.BookingID = &bookingID.String
	}
	if selectedStart.Valid {
		parsed, err := time.Parse(time.RFC3339, selectedStart.String)
		if err != nil {
			return persistence.Session{}, fmt.Errorf("failed to parse selected_start: %w", err)
		}
		session.SelectedStart = &parsed
	}
	if selectedEnd.Valid {
		parsed, err := time.Parse(time.RFC3339, selectedEnd.String)
		if err != nil {
			return persistence.Session{}, fmt.Errorf("failed to parse selected_end: %w", err)
		}
		session.SelectedEnd = &parsed
	}

	if session.ProposedAt, err = time.Parse(time.RFC3339, proposedAtStr); err != nil {
		return persistence.Session{}, fmt.Errorf("failed to parse proposed_at: %w", err)
	}
	if session.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr); err != nil {
		return persistence.Session{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if session.UpdatedAt, err = time.Parse(time.RFC3339, updatedAtStr); err != nil {
		return persistence.Session{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}

	return session, nil
}
