package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/Joy52-cyber/schedulesync-web-sub001/internal/persistence"
)

var (
	participantCounter uint64
	bookingCounter     uint64
	blockCounter       uint64
	teamCounter        uint64
	memberCounter      uint64
	sessionCounter     uint64
)

var referenceTime = time.Date(2026, time.January, 6, 8, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures,
// a Tuesday morning in UTC.
func ReferenceTime() time.Time {
	return referenceTime
}

// -------------------------- Participant fixtures --------------------------

// ParticipantFixture represents a deterministic participant record.
type ParticipantFixture struct {
	ID          string
	Email       string
	DisplayName string
	Timezone    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ParticipantOption configures the generated participant fixture.
type ParticipantOption func(*ParticipantFixture)

// NewParticipantFixture returns a deterministic participant fixture with
// optional overrides.
func NewParticipantFixture(opts ...ParticipantOption) ParticipantFixture {
	idx := atomic.AddUint64(&participantCounter, 1)
	id := fmt.Sprintf("participant-%03d", idx)
	fixture := ParticipantFixture{
		ID:          id,
		Email:       fmt.Sprintf("%s@example.com", id),
		DisplayName: fmt.Sprintf("Participant %03d", idx),
		Timezone:    "UTC",
		CreatedAt:   referenceTime,
		UpdatedAt:   referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithParticipantID overrides the generated participant ID.
func WithParticipantID(id string) ParticipantOption {
	return func(f *ParticipantFixture) {
		f.ID = id
	}
}

// WithParticipantEmail overrides the generated email address.
func WithParticipantEmail(email string) ParticipantOption {
	return func(f *ParticipantFixture) {
		f.Email = email
	}
}

// WithParticipantTimezone sets the IANA timezone on the fixture.
func WithParticipantTimezone(timezone string) ParticipantOption {
	return func(f *ParticipantFixture) {
		f.Timezone = timezone
	}
}

// Persistence returns the fixture as a persistence.Participant value.
func (f ParticipantFixture) Persistence() persistence.Participant {
	return persistence.Participant{
		ID:          f.ID,
		Email:       f.Email,
		DisplayName: f.DisplayName,
		Timezone:    f.Timezone,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
	}
}

// ---------------------------- Booking fixtures ----------------------------

// BookingFixture represents a deterministic booking record.
type BookingFixture struct {
	ID        string
	OwnerID   string
	Title     string
	Start     time.Time
	End       time.Time
	Status    string
	Attendees []string
	SessionID *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// BookingOption configures the generated booking fixture.
type BookingOption func(*BookingFixture)

// NewBookingFixture returns a deterministic booking fixture. Consecutive
// fixtures occupy consecutive hours starting the day after the reference
// time, so they never overlap by accident.
func NewBookingFixture(opts ...BookingOption) BookingFixture {
	idx := atomic.AddUint64(&bookingCounter, 1)
	start := referenceTime.AddDate(0, 0, 1).Add(time.Duration(idx) * time.Hour)
	fixture := BookingFixture{
		ID:        fmt.Sprintf("booking-%03d", idx),
		OwnerID:   "participant-001",
		Title:     fmt.Sprintf("Booking %03d", idx),
		Start:     start,
		End:       start.Add(time.Hour),
		Status:    persistence.BookingStatusConfirmed,
		CreatedAt: referenceTime,
		UpdatedAt: referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithBookingID overrides the generated booking ID.
func WithBookingID(id string) BookingOption {
	return func(f *BookingFixture) {
		f.ID = id
	}
}

// WithBookingOwner sets the owning participant.
func WithBookingOwner(ownerID string) BookingOption {
	return func(f *BookingFixture) {
		f.OwnerID = ownerID
	}
}

// WithBookingInterval sets the start and end times.
func WithBookingInterval(start, end time.Time) BookingOption {
	return func(f *BookingFixture) {
		f.Start = start
		f.End = end
	}
}

// WithBookingStatus overrides the booking status.
func WithBookingStatus(status string) BookingOption {
	return func(f *BookingFixture) {
		f.Status = status
	}
}

// WithBookingAttendees sets the attendee references.
func WithBookingAttendees(attendees ...string) BookingOption {
	return func(f *BookingFixture) {
		f.Attendees = append([]string(nil), attendees...)
	}
}

// Persistence returns the fixture as a persistence.Booking value.
func (f BookingFixture) Persistence() persistence.Booking {
	return persistence.Booking{
		ID:        f.ID,
		OwnerID:   f.OwnerID,
		Title:     f.Title,
		Start:     f.Start,
		End:       f.End,
		Status:    f.Status,
		Attendees: append([]string(nil), f.Attendees...),
		SessionID: copyStringPtr(f.SessionID),
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
}

// ------------------------ Blocked interval fixtures -----------------------

// BlockedIntervalFixture represents a deterministic blocked interval.
type BlockedIntervalFixture struct {
	ID        string
	OwnerID   string
	Start     time.Time
	End       time.Time
	Reason    *string
	CreatedAt time.Time
}

// BlockedIntervalOption configures the generated blocked interval fixture.
type BlockedIntervalOption func(*BlockedIntervalFixture)

// NewBlockedIntervalFixture returns a deterministic blocked interval.
func NewBlockedIntervalFixture(opts ...BlockedIntervalOption) BlockedIntervalFixture {
	idx := atomic.AddUint64(&blockCounter, 1)
	start := referenceTime.AddDate(0, 0, 2).Add(time.Duration(idx) * time.Hour)
	fixture := BlockedIntervalFixture{
		ID:        fmt.Sprintf("block-%03d", idx),
		OwnerID:   "participant-001",
		Start:     start,
		End:       start.Add(time.Hour),
		CreatedAt: referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithBlockOwner sets the owning participant.
func WithBlockOwner(ownerID string) BlockedIntervalOption {
	return func(f *BlockedIntervalFixture) {
		f.OwnerID = ownerID
	}
}

// WithBlockInterval sets the start and end times.
func WithBlockInterval(start, end time.Time) BlockedIntervalOption {
	return func(f *BlockedIntervalFixture) {
		f.Start = start
		f.End = end
	}
}

// WithBlockReason sets the optional reason text.
func WithBlockReason(reason string) BlockedIntervalOption {
	return func(f *BlockedIntervalFixture) {
		value := reason
		f.Reason = &value
	}
}

// Persistence returns the fixture as a persistence.BlockedInterval value.
func (f BlockedIntervalFixture) Persistence() persistence.BlockedInterval {
	return persistence.BlockedInterval{
		ID:        f.ID,
		OwnerID:   f.OwnerID,
		Start:     f.Start,
		End:       f.End,
		Reason:    copyStringPtr(f.Reason),
		CreatedAt: f.CreatedAt,
	}
}

// ----------------------------- Team fixtures ------------------------------

// TeamFixture represents a deterministic team record.
type TeamFixture struct {
	ID        string
	Name      string
	Strategy  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TeamOption configures the generated team fixture.
type TeamOption func(*TeamFixture)

// NewTeamFixture returns a deterministic team fixture.
func NewTeamFixture(opts ...TeamOption) TeamFixture {
	idx := atomic.AddUint64(&teamCounter, 1)
	fixture := TeamFixture{
		ID:        fmt.Sprintf("team-%03d", idx),
		Name:      fmt.Sprintf("Team %03d", idx),
		Strategy:  persistence.AssignmentRoundRobin,
		CreatedAt: referenceTime,
		UpdatedAt: referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithTeamID overrides the generated team ID.
func WithTeamID(id string) TeamOption {
	return func(f *TeamFixture) {
		f.ID = id
	}
}

// WithTeamStrategy sets the assignment strategy.
func WithTeamStrategy(strategy string) TeamOption {
	return func(f *TeamFixture) {
		f.Strategy = strategy
	}
}

// Persistence returns the fixture as a persistence.Team value.
func (f TeamFixture) Persistence() persistence.Team {
	return persistence.Team{
		ID:        f.ID,
		Name:      f.Name,
		Strategy:  f.Strategy,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
}

// TeamMemberFixture represents a deterministic team member record.
type TeamMemberFixture struct {
	ID        string
	TeamID    string
	Name      string
	UserID    *string
	CreatedAt time.Time
}

// TeamMemberOption configures the generated member fixture.
type TeamMemberOption func(*TeamMemberFixture)

// NewTeamMemberFixture returns a deterministic team member fixture.
func NewTeamMemberFixture(opts ...TeamMemberOption) TeamMemberFixture {
	idx := atomic.AddUint64(&memberCounter, 1)
	fixture := TeamMemberFixture{
		ID:        fmt.Sprintf("member-%03d", idx),
		TeamID:    "team-001",
		Name:      fmt.Sprintf("Member %03d", idx),
		CreatedAt: referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithMemberTeam sets the owning team.
func WithMemberTeam(teamID string) TeamMemberOption {
	return func(f *TeamMemberFixture) {
		f.TeamID = teamID
	}
}

// WithMemberUser links the member to a platform participant.
func WithMemberUser(userID string) TeamMemberOption {
	return func(f *TeamMemberFixture) {
		value := userID
		f.UserID = &value
	}
}

// Persistence returns the fixture as a persistence.TeamMember value.
func (f TeamMemberFixture) Persistence() persistence.TeamMember {
	return persistence.TeamMember{
		ID:        f.ID,
		TeamID:    f.TeamID,
		Name:      f.Name,
		UserID:    copyStringPtr(f.UserID),
		CreatedAt: f.CreatedAt,
	}
}

// ---------------------------- Session fixtures ----------------------------

// SessionFixture represents a deterministic negotiation session record.
type SessionFixture struct {
	ID            string
	OrganizerID   string
	Status        string
	RequestJSON   string
	ProposalsJSON string
	Version       int
	ProposedAt    time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// SessionOption configures the generated session fixture.
type SessionOption func(*SessionFixture)

// NewSessionFixture returns a deterministic session fixture.
func NewSessionFixture(opts ...SessionOption) SessionFixture {
	idx := atomic.AddUint64(&sessionCounter, 1)
	fixture := SessionFixture{
		ID:            fmt.Sprintf("session-%03d", idx),
		OrganizerID:   "participant-001",
		Status:        persistence.SessionStatusActive,
		RequestJSON:   `{"duration_minutes":30}`,
		ProposalsJSON: `[]`,
		Version:       1,
		ProposedAt:    referenceTime,
		CreatedAt:     referenceTime,
		UpdatedAt:     referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithSessionOrganizer sets the organizing participant.
func WithSessionOrganizer(organizerID string) SessionOption {
	return func(f *SessionFixture) {
		f.OrganizerID = organizerID
	}
}

// WithSessionStatus overrides the session status.
func WithSessionStatus(status string) SessionOption {
	return func(f *SessionFixture) {
		f.Status = status
	}
}

// WithSessionProposedAt sets the proposal timestamp.
func WithSessionProposedAt(t time.Time) SessionOption {
	return func(f *SessionFixture) {
		f.ProposedAt = t
	}
}

// Persistence returns the fixture as a persistence.Session value.
func (f SessionFixture) Persistence() persistence.Session {
	return persistence.Session{
		ID:            f.ID,
		OrganizerID:   f.OrganizerID,
		Status:        f.Status,
		RequestJSON:   f.RequestJSON,
		ProposalsJSON: f.ProposalsJSON,
		Version:       f.Version,
		ProposedAt:    f.ProposedAt,
		CreatedAt:     f.CreatedAt,
		UpdatedAt:     f.UpdatedAt,
	}
}

// helper to deep copy optional strings.
func copyStringPtr(src *string) *string {
	if src == nil {
		return nil
	}
	value := *src
	return &value
}
