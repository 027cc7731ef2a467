package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Joy52-cyber/schedulesync-web-sub001/internal/persistence"
)

// AvailabilityPolicyRepository implements persistence.AvailabilityPolicyRepository
// using SQLite. Day rules are stored as a JSON array indexed by weekday.
type AvailabilityPolicyRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewAvailabilityPolicyRepository creates a new SQLite policy repository.
func NewAvailabilityPolicyRepository(pool *ConnectionPool) *AvailabilityPolicyRepository {
	return &AvailabilityPolicyRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// UpsertPolicy creates or replaces a participant's availability policy.
func (r *AvailabilityPolicyRepository) UpsertPolicy(ctx context.Context, policy persistence.AvailabilityPolicy) error {
	if policy.ParticipantID == "" {
		return persistence.ErrConstraintViolation
	}

	daysJSON, err := json.Marshal(policy.Days)
	if err != nil {
		return fmt.Errorf("failed to encode day rules: %w", err)
	}

	query := `
		INSERT INTO availability_policies (participant_id, days_json, buffer_minutes, lead_time_hours, booking_horizon_days, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (participant_id) DO UPDATE SET
			days_json = excluded.days_json,
			buffer_minutes = excluded.buffer_minutes,
			lead_time_hours = excluded.lead_time_hours,
			booking_horizon_days = excluded.booking_horizon_days,
			updated_at = excluded.updated_at
	`

	_, err = r.helper.Exec(ctx, query,
		policy.ParticipantID,
		string(daysJSON),
		policy.BufferMinutes,
		policy.LeadTimeHours,
		policy.BookingHorizonDays,
		policy.UpdatedAt.UTC().Format(time.RFC3339),
	)
	return r.mapper.MapError(err)
}

// GetPolicy retrieves a participant's availability policy.
func (r *AvailabilityPolicyRepository) GetPolicy(ctx context.Context, participantID string) (persistence.AvailabilityPolicy, error) {
	query := `
		SELECT participant_id, days_json, buffer_minutes, lead_time_hours, booking_horizon_days, updated_at
		FROM availability_policies
		WHERE participant_id = ?
	`

	var policy persistence.AvailabilityPolicy
	var daysJSON, updatedAtStr string

	err := r.helper.QueryRow(ctx, query, participantID).Scan(
		&policy.ParticipantID,
		&daysJSON,
		&policy.BufferMinutes,
		&policy.LeadTimeHours,
		&policy.BookingHorizonDays,
		&updatedAtStr,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.AvailabilityPolicy{}, persistence.ErrNotFound
		}
		return persistence.AvailabilityPolicy{}, r.mapper.MapError(err)
	}

	if err := json.Unmarshal([]byte(daysJSON), &policy.Days); err != nil {
		return persistence.AvailabilityPolicy{}, fmt.Errorf("failed to decode day rules: %w", err)
	}
	if policy.UpdatedAt, err = time.Parse(time.RFC3339, updatedAtStr); err != nil {
		return persistence.AvailabilityPolicy{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}

	return policy, nil
}
