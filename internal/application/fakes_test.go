package application

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Joy52-cyber/schedulesync-web-sub001/internal/persistence"
)

// In-memory repositories backing the service tests. They mirror the
// SQLite implementations' contract, including sentinel errors and the
// session version guard.

type fakeParticipantRepo struct {
	mu           sync.Mutex
	participants map[string]persistence.Participant
}

func newFakeParticipantRepo() *fakeParticipantRepo {
	return &fakeParticipantRepo{participants: make(map[string]persistence.Participant)}
}

func (r *fakeParticipantRepo) CreateParticipant(ctx context.Context, participant persistence.Participant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.participants {
		if strings.EqualFold(existing.Email, participant.Email) {
			return persistence.ErrDuplicate
		}
	}
	r.participants[participant.ID] = participant
	return nil
}

func (r *fakeParticipantRepo) UpdateParticipant(ctx context.Context, participant persistence.Participant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.participants[participant.ID]; !ok {
		return persistence.ErrNotFound
	}
	r.participants[participant.ID] = participant
	return nil
}

func (r *fakeParticipantRepo) GetParticipant(ctx context.Context, id string) (persistence.Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	participant, ok := r.participants[id]
	if !ok {
		return persistence.Participant{}, persistence.ErrNotFound
	}
	return participant, nil
}

func (r *fakeParticipantRepo) GetParticipantByEmail(ctx context.Context, email string) (persistence.Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, participant := range r.participants {
		if strings.EqualFold(participant.Email, email) {
			return participant, nil
		}
	}
	return persistence.Participant{}, persistence.ErrNotFound
}

func (r *fakeParticipantRepo) ListParticipants(ctx context.Context) ([]persistence.Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]persistence.Participant, 0, len(r.participants))
	for _, participant := range r.participants {
		out = append(out, participant)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (r *fakeParticipantRepo) DeleteParticipant(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.participants[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(r.participants, id)
	return nil
}

type fakePolicyRepo struct {
	mu       sync.Mutex
	policies map[string]persistence.AvailabilityPolicy
}

func newFakePolicyRepo() *fakePolicyRepo {
	return &fakePolicyRepo{policies: make(map[string]persistence.AvailabilityPolicy)}
}

func (r *fakePolicyRepo) UpsertPolicy(ctx context.Context, policy persistence.AvailabilityPolicy) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.policies[policy.ParticipantID] = policy
	return nil
}

func (r *fakePolicyRepo) GetPolicy(ctx context.Context, participantID string) (persistence.AvailabilityPolicy, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	policy, ok := r.policies[participantID]
	if !ok {
		return persistence.AvailabilityPolicy{}, persistence.ErrNotFound
	}
	return policy, nil
}

type fakeBookingRepo struct {
	mu       sync.Mutex
	bookings map[string]persistence.Booking
}

func newFakeBookingRepo() *fakeBookingRepo {
	return &fakeBookingRepo{bookings: make(map[string]persistence.Booking)}
}

func (r *fakeBookingRepo) CreateBooking(ctx context.Context, booking persistence.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bookings[booking.ID]; ok {
		return persistence.ErrDuplicate
	}
	r.bookings[booking.ID] = booking
	return nil
}

func (r *fakeBookingRepo) CreateBookingIfFree(ctx context.Context, booking persistence.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.bookings {
		if existing.OwnerID != booking.OwnerID || existing.Status == persistence.BookingStatusCancelled {
			continue
		}
		if existing.Start.Before(booking.End) && existing.End.After(booking.Start) {
			return persistence.ErrOverlap
		}
	}
	r.bookings[booking.ID] = booking
	return nil
}

func (r *fakeBookingRepo) UpdateBooking(ctx context.Context, booking persistence.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bookings[booking.ID]; !ok {
		return persistence.ErrNotFound
	}
	r.bookings[booking.ID] = booking
	return nil
}

func (r *fakeBookingRepo) GetBooking(ctx context.Context, id string) (persistence.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	booking, ok := r.bookings[id]
	if !ok {
		return persistence.Booking{}, persistence.ErrNotFound
	}
	return booking, nil
}

func (r *fakeBookingRepo) ListBookings(ctx context.Context, filter persistence.BookingFilter) ([]persistence.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []persistence.Booking
	for _, booking := range r.bookings {
		if filter.OwnerID != "" && booking.OwnerID != filter.OwnerID {
			continue
		}
		if !filter.From.IsZero() && !booking.End.After(filter.From) {
			continue
		}
		if !filter.To.IsZero() && !booking.Start.Before(filter.To) {
			continue
		}
		if len(filter.Statuses) > 0 && !containsString(filter.Statuses, booking.Status) {
			continue
		}
		out = append(out, booking)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, nil
}

func (r *fakeBookingRepo) CancelBooking(ctx context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	booking, ok := r.bookings[id]
	if !ok {
		return persistence.ErrNotFound
	}
	booking.Status = persistence.BookingStatusCancelled
	booking.UpdatedAt = at
	r.bookings[id] = booking
	return nil
}

func (r *fakeBookingRepo) CountUpcomingForOwners(ctx context.Context, ownerIDs []string, reference time.Time) (map[string]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[string]int, len(ownerIDs))
	for _, id := range ownerIDs {
		counts[id] = 0
	}
	for _, booking := range r.bookings {
		if booking.Status == persistence.BookingStatusCancelled || booking.Start.Before(reference) {
			continue
		}
		if _, ok := counts[booking.OwnerID]; ok {
			counts[booking.OwnerID]++
		}
	}
	return counts, nil
}

func (r *fakeBookingRepo) CountRecentForOwners(ctx context.Context, ownerIDs []string, since, reference time.Time) (map[string]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[string]int, len(ownerIDs))
	for _, id := range ownerIDs {
		counts[id] = 0
	}
	for _, booking := range r.bookings {
		if booking.CreatedAt.Before(since) || booking.CreatedAt.After(reference) {
			continue
		}
		if _, ok := counts[booking.OwnerID]; ok {
			counts[booking.OwnerID]++
		}
	}
	return counts, nil
}

type fakeBlockedRepo struct {
	mu     sync.Mutex
	blocks map[string]persistence.BlockedInterval
}

func newFakeBlockedRepo() *fakeBlockedRepo {
	return &fakeBlockedRepo{blocks: make(map[string]persistence.BlockedInterval)}
}

func (r *fakeBlockedRepo) CreateBlockedInterval(ctx context.Context, block persistence.BlockedInterval) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.blocks[block.ID] = block
	return nil
}

func (r *fakeBlockedRepo) ListBlockedIntervals(ctx context.Context, ownerID string, from, to time.Time) ([]persistence.BlockedInterval, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []persistence.BlockedInterval
	for _, block := range r.blocks {
		if block.OwnerID != ownerID {
			continue
		}
		if !from.IsZero() && !block.End.After(from) {
			continue
		}
		if !to.IsZero() && !block.Start.Before(to) {
			continue
		}
		out = append(out, block)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, nil
}

func (r *fakeBlockedRepo) DeleteBlockedInterval(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.blocks[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(r.blocks, id)
	return nil
}

type fakeTeamRepo struct {
	mu      sync.Mutex
	teams   map[string]persistence.Team
	members map[string][]persistence.TeamMember
}

func newFakeTeamRepo() *fakeTeamRepo {
	return &fakeTeamRepo{
		teams:   make(map[string]persistence.Team),
		members: make(map[string][]persistence.TeamMember),
	}
}

func (r *fakeTeamRepo) CreateTeam(ctx context.Context, team persistence.Team) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.teams[team.ID]; ok {
		return persistence.ErrDuplicate
	}
	r.teams[team.ID] = team
	return nil
}

func (r *fakeTeamRepo) UpdateTeam(ctx context.Context, team persistence.Team) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.teams[team.ID]; !ok {
		return persistence.ErrNotFound
	}
	r.teams[team.ID] = team
	return nil
}

func (r *fakeTeamRepo) GetTeam(ctx context.Context, id string) (persistence.Team, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	team, ok := r.teams[id]
	if !ok {
		return persistence.Team{}, persistence.ErrNotFound
	}
	return team, nil
}

func (r *fakeTeamRepo) ListTeams(ctx context.Context) ([]persistence.Team, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]persistence.Team, 0, len(r.teams))
	for _, team := range r.teams {
		out = append(out, team)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *fakeTeamRepo) DeleteTeam(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.teams[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(r.teams, id)
	delete(r.members, id)
	return nil
}

func (r *fakeTeamRepo) AddMember(ctx context.Context, member persistence.TeamMember) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.teams[member.TeamID]; !ok {
		return persistence.ErrForeignKeyViolation
	}
	r.members[member.TeamID] = append(r.members[member.TeamID], member)
	return nil
}

func (r *fakeTeamRepo) RemoveMember(ctx context.Context, teamID, memberID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	members := r.members[teamID]
	for i, member := range members {
		if member.ID == memberID {
			r.members[teamID] = append(members[:i:i], members[i+1:]...)
			return nil
		}
	}
	return persistence.ErrNotFound
}

func (r *fakeTeamRepo) ListMembers(ctx context.Context, teamID string) ([]persistence.TeamMember, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	members := append([]persistence.TeamMember(nil), r.members[teamID]...)
	sort.Slice(members, func(i, j int) bool { return members[i].ID < members[j].ID })
	return members, nil
}

type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]persistence.Session
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[string]persistence.Session)}
}

func (r *fakeSessionRepo) CreateSession(ctx context.Context, session persistence.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[session.ID]; ok {
		return persistence.ErrDuplicate
	}
	r.sessions[session.ID] = session
	return nil
}

func (r *fakeSessionRepo) GetSession(ctx context.Context, id string) (persistence.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[id]
	if !ok {
		return persistence.Session{}, persistence.ErrNotFound
	}
	return session, nil
}

func (r *fakeSessionRepo) UpdateSession(ctx context.Context, session persistence.Session) (persistence.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.sessions[session.ID]
	if !ok {
		return persistence.Session{}, persistence.ErrNotFound
	}
	if stored.Version != session.Version {
		return persistence.Session{}, persistence.ErrVersionConflict
	}
	session.Version++
	r.sessions[session.ID] = session
	return session, nil
}

func (r *fakeSessionRepo) ListActiveProposedBefore(ctx context.Context, cutoff time.Time) ([]persistence.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []persistence.Session
	for _, session := range r.sessions {
		if session.Status == persistence.SessionStatusActive && session.ProposedAt.Before(cutoff) {
			out = append(out, session)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeSessionRepo) ListOpenUpdatedBefore(ctx context.Context, cutoff time.Time) ([]persistence.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []persistence.Session
	for _, session := range r.sessions {
		open := session.Status == persistence.SessionStatusActive || session.Status == persistence.SessionStatusConfirmed
		if open && session.UpdatedAt.Before(cutoff) {
			out = append(out, session)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func containsString(values []string, target string) bool {
	for _, value := range values {
		if value == target {
			return true
		}
	}
	return false
}
