package application

import (
	"time"

	"github.com/Joy52-cyber/schedulesync-web-sub001/internal/recurrence"
	"github.com/Joy52-cyber/schedulesync-web-sub001/internal/scheduler"
)

// Participant represents a person whose calendar the engine manages.
type Participant struct {
	ID          string
	Email       string
	DisplayName string
	Timezone    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ParticipantInput captures caller provided participant fields.
type ParticipantInput struct {
	Email       string
	DisplayName string
	Timezone    string
}

// AvailabilityPolicyInput captures a participant's working-hours settings.
// Days is indexed by time.Weekday; Start and End are "HH:MM" strings.
type AvailabilityPolicyInput struct {
	Days               [7]DayRuleInput
	BufferMinutes      int
	LeadTimeHours      int
	BookingHorizonDays int
}

// DayRuleInput is one weekday's window in an availability policy input.
type DayRuleInput struct {
	Enabled bool
	Start   string
	End     string
}

// Booking represents a committed or pending calendar entry.
type Booking struct {
	ID               string
	OwnerID          string
	Title            string
	Start            time.Time
	End              time.Time
	Status           string
	Attendees        []string
	RecurrenceRule   *string
	RecurrenceEnd    *time.Time
	TeamID           *string
	AssignedMemberID *string
	SessionID        *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// BlockedInterval represents time a participant has marked unbookable.
type BlockedInterval struct {
	ID        string
	OwnerID   string
	Start     time.Time
	End       time.Time
	Reason    string
	CreatedAt time.Time
}

// Team represents a pool of assignable members.
type Team struct {
	ID        string
	Name      string
	Strategy  string
	Members   []TeamMember
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TeamMember is one member of a team.
type TeamMember struct {
	ID     string
	TeamID string
	Name   string
	UserID *string
}

// TeamInput captures caller provided team fields.
type TeamInput struct {
	Name     string
	Strategy string
}

// TeamMemberInput captures caller provided member fields.
type TeamMemberInput struct {
	Name   string
	UserID *string
}

// StructuredRequest is the canonical scheduling request a negotiation
// session works from. It serializes into the session's request snapshot.
type StructuredRequest struct {
	Title           string                   `json:"title,omitempty"`
	DurationMinutes int                      `json:"duration_minutes"`
	Attendees       []string                 `json:"attendees,omitempty"`
	Weekdays        []time.Weekday           `json:"weekdays,omitempty"`
	Band            scheduler.TimeBand       `json:"band,omitempty"`
	ClockRange      *scheduler.ClockRange    `json:"clock_range,omitempty"`
	Week            scheduler.WeekPreference `json:"week,omitempty"`
	RecurrenceHint  string                   `json:"recurrence_hint,omitempty"`
	Recurrence      *recurrence.Descriptor   `json:"recurrence,omitempty"`
	MaxSlots        int                      `json:"max_slots,omitempty"`
}

// Preferences converts the request into engine slot preferences.
func (r StructuredRequest) Preferences() scheduler.Preferences {
	return scheduler.Preferences{
		Weekdays:   append([]time.Weekday(nil), r.Weekdays...),
		Week:       r.Week,
		ClockRange: r.ClockRange,
		Band:       r.Band,
	}
}

// Duration returns the requested meeting length.
func (r StructuredRequest) Duration() time.Duration {
	return time.Duration(r.DurationMinutes) * time.Minute
}

// NegotiationSession represents one scheduling thread from proposal to
// confirmation.
type NegotiationSession struct {
	ID            string
	OrganizerID   string
	Status        string
	Request       StructuredRequest
	Proposals     []scheduler.Slot
	SelectedStart *time.Time
	SelectedEnd   *time.Time
	BookingID     *string
	Version       int
	ProposedAt    time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// AvailabilityParams wraps an availability query for one participant.
type AvailabilityParams struct {
	ParticipantID   string
	DurationMinutes int
	Weekdays        []time.Weekday
	Band            scheduler.TimeBand
	ClockRange      *scheduler.ClockRange
	Week            scheduler.WeekPreference
	MaxSlots        int
}

// ConflictCheckParams wraps a proposed interval check against one calendar.
type ConflictCheckParams struct {
	ParticipantID    string
	Start            time.Time
	End              time.Time
	ExcludeBookingID string
	// RecurrenceHint, when set, expands the interval into a series and
	// checks every instance.
	RecurrenceHint string
}

// ConflictCheckResult carries per-interval and per-series conflict detail.
type ConflictCheckResult struct {
	Report       scheduler.ConflictReport
	Series       []scheduler.SeriesConflict
	Alternatives []scheduler.Slot
}

// GroupAvailabilityParams wraps a mutual availability query.
type GroupAvailabilityParams struct {
	// ParticipantIDs may mix internal ids and external emails; external
	// entries resolve as always-available.
	ParticipantIDs  []string
	DurationMinutes int
	Weekdays        []time.Weekday
	Band            scheduler.TimeBand
	ClockRange      *scheduler.ClockRange
	Week            scheduler.WeekPreference
	MaxSlots        int
}

// GroupSlotCheckParams wraps a specific proposed time for a group.
type GroupSlotCheckParams struct {
	ParticipantIDs []string
	Start          time.Time
	End            time.Time
}

// AssignmentParams wraps a team assignment request.
type AssignmentParams struct {
	TeamID string
	Start  time.Time
	End    time.Time
	// Exclude lists member ids to skip, e.g. the member a booking is
	// being reassigned away from.
	Exclude []string
}

// AssignmentResult names the member chosen for an interval.
type AssignmentResult struct {
	MemberID string
	Member   TeamMember
	Strategy string
}

// TeamFairnessReport combines per-member load with distribution statistics.
type TeamFairnessReport struct {
	TeamID  string
	Loads   []scheduler.MemberLoad
	Summary scheduler.FairnessSummary
}

// ProposeSessionParams starts a negotiation session.
type ProposeSessionParams struct {
	OrganizerID string
	// Utterance is free text to run through the intent parser. Ignored
	// when Request is already structured.
	Utterance string
	Request   *StructuredRequest
}

// SelectSlotParams confirms one proposed slot.
type SelectSlotParams struct {
	SessionID string
	Start     time.Time
	// Version guards against concurrent session updates. Zero means
	// "latest".
	Version int
}

// RescheduleParams rejects the current proposals and asks for new ones.
type RescheduleParams struct {
	SessionID string
	// RejectedStart is the slot the requester turned down; alternatives
	// avoid its neighborhood.
	RejectedStart time.Time
	Version       int
}
