package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Joy52-cyber/schedulesync-web-sub001/internal/persistence"
)

// ParticipantRepository implements persistence.ParticipantRepository using SQLite.
type ParticipantRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewParticipantRepository creates a new SQLite participant repository.
func NewParticipantRepository(pool *ConnectionPool) *ParticipantRepository {
	return &ParticipantRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// CreateParticipant inserts a new participant.
func (r *ParticipantRepository) CreateParticipant(ctx context.Context, participant persistence.Participant) error {
	if participant.ID == "" {
		return persistence.ErrConstraintViolation
	}

	query := `
		INSERT INTO participants (id, email, display_name, timezone, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := r.helper.Exec(ctx, query,
		participant.ID,
		participant.Email,
		participant.DisplayName,
		participant.Timezone,
		participant.CreatedAt.UTC().Format(time.RFC3339),
		participant.UpdatedAt.UTC().Format(time.RFC3339),
	)
	return r.mapper.MapError(err)
}

// UpdateParticipant updates an existing participant.
func (r *ParticipantRepository) UpdateParticipant(ctx context.Context, participant persistence.Participant) error {
	query := `
		UPDATE participants
		SET email = ?, display_name = ?, timezone = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.helper.Exec(ctx, query,
		participant.Email,
		participant.DisplayName,
		participant.Timezone,
		participant.UpdatedAt.UTC().Format(time.RFC3339),
		participant.ID,
	)
	if err != nil {
		return r.mapper.MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// GetParticipant retrieves a participant by ID.
func (r *ParticipantRepository) GetParticipant(ctx context.Context, id string) (persistence.Participant, error) {
	query := `
		SELECT id, email, display_name, timezone, created_at, updated_at
		FROM participants
		WHERE id = ?
	`
	return r.scanParticipant(r.helper.QueryRow(ctx, query, id))
}

// GetParticipantByEmail retrieves a participant by email address.
func (r *ParticipantRepository) GetParticipantByEmail(ctx context.Context, email string) (persistence.Participant, error) {
	query := `
		SELECT id, email, display_name, timezone, created_at, updated_at
		FROM participants
		WHERE email = ? COLLATE NOCASE
	`
	return r.scanParticipant(r.helper.QueryRow(ctx, query, email))
}

// ListParticipants returns all participants ordered by creation time.
func (r *ParticipantRepository) ListParticipants(ctx context.Context) ([]persistence.Participant, error) {
	query := `
		SELECT id, email, display_name, timezone, created_at, updated_at
		FROM participants
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.helper.Query(ctx, query)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var participants []persistence.Participant
	for rows.Next() {
		var participant persistence.Participant
		var createdAtStr, updatedAtStr string

		if err := rows.Scan(
			&participant.ID,
			&participant.Email,
			&participant.DisplayName,
			&participant.Timezone,
			&createdAtStr,
			&updatedAtStr,
		); err != nil {
			return nil, r.mapper.MapError(err)
		}

		if participant.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr); err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}
		if participant.UpdatedAt, err = time.Parse(time.RFC3339, updatedAtStr); err != nil {
			return nil, fmt.Errorf("failed to parse updated_at: %w", err)
		}

		participants = append(participants, participant)
	}

	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return participants, nil
}

// DeleteParticipant removes a participant by ID.
func (r *ParticipantRepository) DeleteParticipant(ctx context.Context, id string) error {
	result, err := r.helper.Exec(ctx, "DELETE FROM participants WHERE id = ?", id)
	if err != nil {
		return r.mapper.MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

func (r *ParticipantRepository) scanParticipant(row *sql.Row) (persistence.Participant, error) {
	var participant persistence.Participant
	var createdAtStr, updatedAtStr string

	err := row.Scan(
		&participant.ID,
		&participant.Email,
		&participant.DisplayName,
		&participant.Timezone,
		&createdAtStr,
		&updatedAtStr,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Participant{}, persistence.ErrNotFound
		}
		return persistence.Participant{}, r.mapper.MapError(err)
	}

	if participant.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr); err != nil {
		return persistence.Participant{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if participant.UpdatedAt, err = time.Parse(time.RFC3339, updatedAtStr); err != nil {
		return persistence.Participant{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}

	return participant, nil
}
