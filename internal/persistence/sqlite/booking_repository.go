package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Joy52-cyber/schedulesync-web-sub001/internal/persistence"
)

// BookingRepository implements persistence.BookingRepository using SQLite.
type BookingRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewBookingRepository creates a new SQLite booking repository.
func NewBookingRepository(pool *ConnectionPool) *BookingRepository {
	return &BookingRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// CreateBooking inserts a booking without an overlap check.
func (r *BookingRepository) CreateBooking(ctx context.Context, booking persistence.Booking) error {
	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		return r.insertBookingTx(tx, booking)
	})
}

// CreateBookingIfFree inserts a booking inside a transaction that first
// verifies no active booking of the same owner overlaps the interval. The
// check and the insert share one transaction so a slot cannot be taken
// between them.
func (r *BookingRepository) CreateBookingIfFree(ctx context.Context, booking persistence.Booking) error {
	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		query := `
			SELECT COUNT(*)
			FROM bookings
			WHERE owner_id = ?
			  AND status != 'cancelled'
			  AND start_time < ?
			  AND end_time > ?
		`

		var overlapping int
		err := r.helper.QueryRowTx(tx, query,
			booking.OwnerID,
			booking.End.UTC().Format(time.RFC3339),
			booking.Start.UTC().Format(time.RFC3339),
		).Scan(&overlapping)
		if err != nil {
			return r.mapper.MapError(err)
		}
		if overlapping > 0 {
			return persistence.ErrOverlap
		}

		return r.insertBookingTx(tx, booking)
	})
}

func (r *BookingRepository) insertBookingTx(tx *sql.Tx, booking persistence.Booking) error {
	if booking.ID == "" {
		return persistence.ErrConstraintViolation
	}

	query := `
		INSERT INTO bookings (id, owner_id, title, start_time, end_time, status, recurrence_rule, recurrence_end, team_id, assigned_member_id, session_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.helper.ExecTx(tx, query,
		booking.ID,
		booking.OwnerID,
		booking.Title,
		booking.Start.UTC().Format(time.RFC3339),
		booking.End.UTC().Format(time.RFC3339),
		booking.Status,
		nullString(booking.RecurrenceRule),
		nullTime(booking.RecurrenceEnd),
		nullString(booking.TeamID),
		nullString(booking.AssignedMemberID),
		nullString(booking.SessionID),
		booking.CreatedAt.UTC().Format(time.RFC3339),
		booking.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return r.mapper.MapError(err)
	}

	return r.insertAttendeesTx(tx, booking.ID, booking.Attendees)
}

// UpdateBooking updates an existing booking and replaces its attendees.
func (r *BookingRepository) UpdateBooking(ctx context.Context, booking persistence.Booking) error {
	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		query := `
			UPDATE bookings
			SET title = ?, start_time = ?, end_time = ?, status = ?, recurrence_rule = ?, recurrence_end = ?, team_id = ?, assigned_member_id = ?, session_id = ?, updated_at = ?
			WHERE id = ?
		`

		result, err := r.helper.ExecTx(tx, query,
			booking.Title,
			booking.Start.UTC().Format(time.RFC3339),
			booking.End.UTC().Format(time.RFC3339),
			booking.Status,
			nullString(booking.RecurrenceRule),
			nullTime(booking.RecurrenceEnd),
			nullString(booking.TeamID),
			nullString(booking.AssignedMemberID),
			nullString(booking.SessionID),
			booking.UpdatedAt.UTC().Format(time.RFC3339),
			booking.ID,
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

		if _, err := r.helper.ExecTx(tx, "DELETE FROM booking_attendees WHERE booking_id = ?", booking.ID); err != nil {
			return r.mapper.MapError(err)
		}
		return r.insertAttendeesTx(tx, booking.ID, booking.Attendees)
	})
}

// GetBooking retrieves a booking by ID with its attendees.
func (r *BookingRepository) GetBooking(ctx context.Context, id string) (persistence.Booking, error) {
	query := selectBookingColumns + " FROM bookings WHERE id = ?"

	row := r.helper.QueryRow(ctx, query, id)
	booking, err := scanBooking(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Booking{}, persistence.ErrNotFound
		}
		return persistence.Booking{}, r.mapper.MapError(err)
	}

	attendees, err := r.loadAttendees(ctx, id)
	if err != nil {
		return persistence.Booking{}, err
	}
	booking.Attendees = attendees
	return booking, nil
}

// ListBookings lists bookings matching the filter ordered by start time.
func (r *BookingRepository) ListBookings(ctx context.Context, filter persistence.BookingFilter) ([]persistence.Booking, error) {
	query, args := buildBookingListQuery(filter)

	rows, err := r.helper.Query(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var bookings []persistence.Booking
	for rows.Next() {
		booking, err := scanBooking(rows.Scan)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		bookings = append(bookings, booking)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	for i := range bookings {
		attendees, err := r.loadAttendees(ctx, bookings[i].ID)
		if err != nil {
			return nil, err
		}
		bookings[i].Attendees = attendees
	}
	return bookings, nil
}

// CancelBooking flips a booking to cancelled, preserving history.
func (r *BookingRepository) CancelBooking(ctx context.Context, id string, at time.Time) error {
	query := `
		UPDATE bookings
		SET status = 'cancelled', updated_at = ?
		WHERE id = ? AND status != 'cancelled'
	`

	result, err := r.helper.Exec(ctx, query, at.UTC().Format(time.RFC3339), id)
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

// CountUpcomingForOwners counts non-cancelled bookings starting at or after
// the reference instant, keyed by owner id.
func (r *BookingRepository) CountUpcomingForOwners(ctx context.Context, ownerIDs []string, reference time.Time) (map[string]int, error) {
	counts := make(map[string]int, len(ownerIDs))
	for _, id := range ownerIDs {
		counts[id] = 0
	}
	if len(ownerIDs) == 0 {
		return counts, nil
	}

	query := fmt.Sprintf(`
		SELECT owner_id, COUNT(*)
		FROM bookings
		WHERE owner_id IN (%s)
		  AND status != 'cancelled'
		  AND start_time >= ?
		GROUP BY owner_id
	`, placeholders(len(ownerIDs)))

	args := make([]interface{}, 0, len(ownerIDs)+1)
	for _, id := range ownerIDs {
		args = append(args, id)
	}
	args = append(args, reference.UTC().Format(time.RFC3339))

	return r.queryCounts(ctx, counts, query, args)
}

// CountRecentForOwners counts bookings created within (since, reference].
func (r *BookingRepository) CountRecentForOwners(ctx context.Context, ownerIDs []string, since, reference time.Time) (map[string]int, error) {
	counts := make(map[string]int, len(ownerIDs))
	for _, id := range ownerIDs {
		counts[id] = 0
	}
	if len(ownerIDs) == 0 {
		return counts, nil
	}

	query := fmt.Sprintf(`
		SELECT owner_id, COUNT(*)
		FROM bookings
		WHERE owner_id IN (%s)
		  AND status != 'cancelled'
		  AND created_at > ?
		  AND created_at <= ?
		GROUP BY owner_id
	`, placeholders(len(ownerIDs)))

	args := make([]interface{}, 0, len(ownerIDs)+2)
	for _, id := range ownerIDs {
		args = append(args, id)
	}
	args = append(args, since.UTC().Format(time.RFC3339), reference.UTC().Format(time.RFC3339))

	return r.queryCounts(ctx, counts, query, args)
}

func (r *BookingRepository) queryCounts(ctx context.Context, counts map[string]int, query string, args []interface{}) (map[string]int, error) {
	rows, err := r.helper.Query(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	for rows.Next() {
		var ownerID string
		var count int
		if err := rows.Scan(&ownerID, &count); err != nil {
			return nil, r.mapper.MapError(err)
		}
		counts[ownerID] = count
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return counts, nil
}

func (r *BookingRepository) insertAttendeesTx(tx *sql.Tx, bookingID string, attendees []string) error {
	seen := make(map[string]struct{}, len(attendees))
	for _, attendee := range attendees {
		attendee = strings.TrimSpace(attendee)
		if attendee == "" {
			continue
		}
		if _, ok := seen[attendee]; ok {
			continue
		}
		seen[attendee] = struct{}{}

		_, err := r.helper.ExecTx(tx,
			"INSERT INTO booking_attendees (booking_id, participant_id) VALUES (?, ?)",
			bookingID, attendee)
		if err != nil {
			return r.mapper.MapError(err)
		}
	}
	return nil
}

func (r *BookingRepository) loadAttendees(ctx context.Context, bookingID string) ([]string, error) {
	rows, err := r.helper.Query(ctx,
		"SELECT participant_id FROM booking_attendees WHERE booking_id = ? ORDER BY participant_id ASC",
		bookingID)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var attendees []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, r.mapper.MapError(err)
		}
		attendees = append(attendees, id)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return attendees, nil
}

const selectBookingColumns = `
	SELECT id, owner_id, title, start_time, end_time, status, recurrence_rule, recurrence_end, team_id, assigned_member_id, session_id, created_at, updated_at`

func buildBookingListQuery(filter persistence.BookingFilter) (string, []interface{}) {
	query := selectBookingColumns + " FROM bookings"

	var conditions []string
	var args []interface{}

	if filter.OwnerID != "" {
		conditions = append(conditions, "owner_id = ?")
		args = append(args, filter.OwnerID)
	}
	if !filter.From.IsZero() {
		conditions = append(conditions, "end_time > ?")
		args = append(args, filter.From.UTC().Format(time.RFC3339))
	}
	if !filter.To.IsZero() {
		conditions = append(conditions, "start_time < ?")
		args = append(args, filter.To.UTC().Format(time.RFC3339))
	}
	if len(filter.Statuses) > 0 {
		conditions = append(conditions, fmt.Sprintf("status IN (%s)", placeholders(len(filter.Statuses))))
		for _, status := range filter.Statuses {
			args = append(args, status)
		}
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY start_time ASC, id ASC"

	return query, args
}

func scanBooking(scan func(dest ...interface{}) error) (persistence.Booking, error) {
	var booking persistence.Booking
	var startStr, endStr, createdAtStr, updatedAtStr string
	var recurrenceRule, recurrenceEnd, teamID, memberID, sessionID sql.NullString

	err := scan(
		&booking.ID,
		&booking.OwnerID,
		&booking.Title,
		&startStr,
		&endStr,
		&booking.Status,
		&recurrenceRule,
		&recurrenceEnd,
		&teamID,
		&memberID,
		&sessionID,
		&createdAtStr,
		&updatedAtStr,
	)
	if err != nil {
		return persistence.Booking{}, err
	}

	if recurrenceRule.Valid {
		booking.RecurrenceRule = &recurrenceRule.String
	}
	if teamID.Valid {
		booking.TeamID = &teamID.String
	}
	if memberID.Valid {
		booking.AssignedMemberID = &memberID.String
	}
	if sessionID.Valid {
		booking.SessionID = &sessionID.String
	}

	if booking.Start, err = time.Parse(time.RFC3339, startStr); err != nil {
		return persistence.Booking{}, fmt.Errorf("failed to parse start_time: %w", err)
	}
	if booking.End, err = time.Parse(time.RFC3339, endStr); err != nil {
		return persistence.Booking{}, fmt.Errorf("failed to parse end_time: %w", err)
	}
	if recurrenceEnd.Valid {
		parsed, err := time.Parse(time.RFC3339, recurrenceEnd.String)
		if err != nil {
			return persistence.Booking{}, fmt.Errorf("failed to parse recurrence_end: %w", err)
		}
		booking.RecurrenceEnd = &parsed
	}
	if booking.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr); err != nil {
		return persistence.Booking{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if booking.UpdatedAt, err = time.Parse(time.RFC3339, updatedAtStr); err != nil {
		return persistence.Booking{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}

	return booking, nil
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func nullString(value *string) sql.NullString {
	if value == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *value, Valid: true}
}

func nullTime(value *time.Time) sql.NullString {
	if value == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: value.UTC().Format(time.RFC3339), Valid: true}
}
