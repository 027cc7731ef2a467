package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Joy52-cyber/schedulesync-web-sub001/internal/persistence"
)

// BlockedIntervalRepository implements persistence.BlockedIntervalRepository
// using SQLite.
type BlockedIntervalRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewBlockedIntervalRepository creates a new SQLite blocked interval repository.
func NewBlockedIntervalRepository(pool *ConnectionPool) *BlockedIntervalRepository {
	return &BlockedIntervalRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// CreateBlockedInterval inserts a new blocked interval.
func (r *BlockedIntervalRepository) CreateBlockedInterval(ctx context.Context, block persistence.BlockedInterval) error {
	if block.ID == "" {
		return persistence.ErrConstraintViolation
	}

	query := `
		INSERT INTO blocked_intervals (id, owner_id, start_time, end_time, reason, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := r.helper.Exec(ctx, query,
		block.ID,
		block.OwnerID,
		block.Start.UTC().Format(time.RFC3339),
		block.End.UTC().Format(time.RFC3339),
		nullString(block.Reason),
		block.CreatedAt.UTC().Format(time.RFC3339),
	)
	return r.mapper.MapError(err)
}

// ListBlockedIntervals returns an owner's blocks overlapping [from, to).
// Zero-valued bounds are open.
func (r *BlockedIntervalRepository) ListBlockedIntervals(ctx context.Context, ownerID string, from, to time.Time) ([]persistence.BlockedInterval, error) {
	query := `
		SELECT id, owner_id, start_time, end_time, reason, created_at
		FROM blocked_intervals
		WHERE owner_id = ?
	`
	args := []interface{}{ownerID}

	if !from.IsZero() {
		query += " AND end_time > ?"
		args = append(args, from.UTC().Format(time.RFC3339))
	}
	if !to.IsZero() {
		query += " AND start_time < ?"
		args = append(args, to.UTC().Format(time.RFC3339))
	}
	query += " ORDER BY start_time ASC, id ASC"

	rows, err := r.helper.Query(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var blocks []persistence.BlockedInterval
	for rows.Next() {
		var block persistence.BlockedInterval
		var startStr, endStr, createdAtStr string
		var reason sql.NullString

		if err := rows.Scan(&block.ID, &block.OwnerID, &startStr, &endStr, &reason, &createdAtStr); err != nil {
			return nil, r.mapper.MapError(err)
		}

		if reason.Valid {
			block.Reason = &reason.String
		}
		if block.Start, err = time.Parse(time.RFC3339, startStr); err != nil {
			return nil, fmt.Errorf("failed to parse start_time: %w", err)
		}
		if block.End, err = time.Parse(time.RFC3339, endStr); err != nil {
			return nil, fmt.Errorf("failed to parse end_time: %w", err)
		}
		if block.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr); err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}

		blocks = append(blocks, block)
	}

	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return blocks, nil
}

// DeleteBlockedInterval removes a blocked interval by ID.
func (r *BlockedIntervalRepository) DeleteBlockedInterval(ctx context.Context, id string) error {
	result, err := r.helper.Exec(ctx, "DELETE FROM blocked_intervals WHERE id = ?", id)
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
