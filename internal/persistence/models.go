package persistence

import "time"

// Booking lifecycle states.
const (
	BookingStatusConfirmed       = "confirmed"
	BookingStatusPendingApproval = "pending_approval"
	BookingStatusCancelled       = "cancelled"
)

// Team assignment strategies.
const (
	AssignmentRoundRobin     = "round_robin"
	AssignmentFirstAvailable = "first_available"
)

// Negotiation session states.
const (
	SessionStatusActive    = "active"
	SessionStatusConfirmed = "confirmed"
	SessionStatusCancelled = "cancelled"
	SessionStatusExpired   = "expired"
)

// Participant represents a person whose calendar the engine can resolve.
type Participant struct {
	ID          string
	Email       string
	DisplayName string
	Timezone    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// DayRule is one weekday's bookable window inside an availability policy.
type DayRule struct {
	Enabled bool   `json:"enabled"`
	Start   string `json:"start"`
	End     string `json:"end"`
}

// AvailabilityPolicy stores a participant's working hours and booking
// constraints. Days is indexed by time.Weekday (Sunday = 0).
type AvailabilityPolicy struct {
	ParticipantID      string
	Days               [7]DayRule
	BufferMinutes      int
	LeadTimeHours      int
	BookingHorizonDays int
	UpdatedAt          time.Time
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
	Reason    *string
	CreatedAt time.Time
}

// Team represents a pool of assignable members.
type Team struct {
	ID        string
	Name      string
	Strategy  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TeamMember is one member of a team. UserID is nil for members without a
// linked participant account.
type TeamMember struct {
	ID        string
	TeamID    string
	Name      string
	UserID    *string
	CreatedAt time.Time
}

// Session represents one scheduling negotiation thread. RequestJSON and
// ProposalsJSON hold serialized service-layer snapshots; persistence treats
// them as opaque text. Version guards concurrent updates.
type Session struct {
	ID            string
	OrganizerID   string
	Status        string
	RequestJSON   string
	ProposalsJSON string
	SelectedStart *time.Time
	SelectedEnd   *time.Time
	BookingID     *string
	Version       int
	ProposedAt    time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
