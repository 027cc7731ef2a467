package persistence

import (
	"context"
	"time"
)

// ParticipantRepository exposes CRUD operations for participants.
type ParticipantRepository interface {
	CreateParticipant(ctx context.Context, participant Participant) error
	UpdateParticipant(ctx context.Context, participant Participant) error
	GetParticipant(ctx context.Context, id string) (Participant, error)
	GetParticipantByEmail(ctx context.Context, email string) (Participant, error)
	ListParticipants(ctx context.Context) ([]Participant, error)
	DeleteParticipant(ctx context.Context, id string) error
}

// AvailabilityPolicyRepository stores per-participant working hours.
// GetPolicy returns ErrNotFound for participants who never customized
// theirs; callers fall back to defaults.
type AvailabilityPolicyRepository interface {
	UpsertPolicy(ctx context.Context, policy AvailabilityPolicy) error
	GetPolicy(ctx context.Context, participantID string) (AvailabilityPolicy, error)
}

// BookingFilter narrows booking queries. Zero-valued time bounds are open.
type BookingFilter struct {
	OwnerID  string
	From     time.Time
	To       time.Time
	Statuses []string
}

// BookingRepository stores bookings.
type BookingRepository interface {
	// CreateBooking inserts without an overlap check.
	CreateBooking(ctx context.Context, booking Booking) error
	// CreateBookingIfFree inserts inside a transaction that first verifies
	// no active booking of the same owner overlaps the interval. Returns
	// ErrOverlap when the slot was taken between check and commit.
	CreateBookingIfFree(ctx context.Context, booking Booking) error
	UpdateBooking(ctx context.Context, booking Booking) error
	GetBooking(ctx context.Context, id string) (Booking, error)
	ListBookings(ctx context.Context, filter BookingFilter) ([]Booking, error)
	// CancelBooking flips status to cancelled without deleting history.
	CancelBooking(ctx context.Context, id string, at time.Time) error
	// CountUpcomingForOwners counts non-cancelled bookings starting at or
	// after the reference instant, keyed by owner id. Owners with no
	// bookings are present with a zero count.
	CountUpcomingForOwners(ctx context.Context, ownerIDs []string, reference time.Time) (map[string]int, error)
	// CountRecentForOwners counts bookings created within (since, reference].
	CountRecentForOwners(ctx context.Context, ownerIDs []string, since, reference time.Time) (map[string]int, error)
}

// BlockedIntervalRepository stores participant-declared unbookable time.
type BlockedIntervalRepository interface {
	CreateBlockedInterval(ctx context.Context, block BlockedInterval) error
	ListBlockedIntervals(ctx context.Context, ownerID string, from, to time.Time) ([]BlockedInterval, error)
	DeleteBlockedInterval(ctx context.Context, id string) error
}

// TeamRepository stores teams and their membership.
type TeamRepository interface {
	CreateTeam(ctx context.Context, team Team) error
	UpdateTeam(ctx context.Context, team Team) error
	GetTeam(ctx context.Context, id string) (Team, error)
	ListTeams(ctx context.Context) ([]Team, error)
	DeleteTeam(ctx context.Context, id string) error
	AddMember(ctx context.Context, member TeamMember) error
	RemoveMember(ctx context.Context, teamID, memberID string) error
	ListMembers(ctx context.Context, teamID string) ([]TeamMember, error)
}

// SessionRepository stores negotiation sessions with optimistic locking.
type SessionRepository interface {
	CreateSession(ctx context.Context, session Session) error
	GetSession(ctx context.Context, id string) (Session, error)
	// UpdateSession persists the session only when the stored version
	// matches session.Version, then increments it. Returns
	// ErrVersionConflict on a stale version.
	UpdateSession(ctx context.Context, session Session) (Session, error)
	// ListActiveProposedBefore returns active sessions whose proposals
	// were computed before the cutoff.
	ListActiveProposedBefore(ctx context.Context, cutoff time.Time) ([]Session, error)
	// ListOpenUpdatedBefore returns active and confirmed sessions idle
	// since the cutoff.
	ListOpenUpdatedBefore(ctx context.Context, cutoff time.Time) ([]Session, error)
}
