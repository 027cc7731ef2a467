package scheduler

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// SlotGranularity is the step between candidate slot start times.
const SlotGranularity = 30 * time.Minute

var (
	// ErrInvalidDuration indicates a non-positive meeting duration.
	ErrInvalidDuration = errors.New("scheduler: duration must be positive")
	// ErrInvalidInterval indicates an interval whose end does not follow its start.
	ErrInvalidInterval = errors.New("scheduler: start must be before end")
	// ErrInvalidTimezone indicates an unknown IANA timezone name.
	ErrInvalidTimezone = errors.New("scheduler: invalid timezone")
)

// TimeOfDay is a minute-resolution wall clock value.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay parses an "HH:MM" value. The hour may be one or two
// digits, the minute must be exactly two; anything else is rejected.
func ParseTimeOfDay(value string) (TimeOfDay, error) {
	hourPart, minutePart, found := strings.Cut(value, ":")
	if !found || len(hourPart) < 1 || len(hourPart) > 2 || len(minutePart) != 2 {
		return TimeOfDay{}, fmt.Errorf("scheduler: parse time of day %q: want HH:MM", value)
	}
	hour, err := strconv.Atoi(hourPart)
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("scheduler: parse time of day %q: %w", value, err)
	}
	minute, err := strconv.Atoi(minutePart)
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("scheduler: parse time of day %q: %w", value, err)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return TimeOfDay{}, fmt.Errorf("scheduler: time of day %q out of range", value)
	}
	return TimeOfDay{Hour: hour, Minute: minute}, nil
}

// Minutes returns the value as minutes since midnight.
func (t TimeOfDay) Minutes() int {
	return t.Hour*60 + t.Minute
}

// String renders the value as "HH:MM".
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// Before reports whether t is earlier in the day than other.
func (t TimeOfDay) Before(other TimeOfDay) bool {
	return t.Minutes() < other.Minutes()
}

// DayWindow is the bookable wall-clock window for one weekday.
type DayWindow struct {
	Enabled bool
	Start   TimeOfDay
	End     TimeOfDay
}

// WorkingHoursProfile captures one participant's scheduling constraints.
// The engine treats it as read-only input.
type WorkingHoursProfile struct {
	// Days is indexed by time.Weekday.
	Days               [7]DayWindow
	BufferMinutes      int
	LeadTimeHours      int
	BookingHorizonDays int
	// Timezone is an IANA zone name such as "America/New_York".
	Timezone string
}

// DefaultProfile returns the documented fallback profile: Monday through
// Friday 09:00-17:00, no buffer, no lead time, a 14 day horizon.
func DefaultProfile(timezone string) WorkingHoursProfile {
	profile := WorkingHoursProfile{
		BookingHorizonDays: 14,
		Timezone:           timezone,
	}
	for day := time.Monday; day <= time.Friday; day++ {
		profile.Days[day] = DayWindow{
			Enabled: true,
			Start:   TimeOfDay{Hour: 9},
			End:     TimeOfDay{Hour: 17},
		}
	}
	return profile
}

// Location resolves the profile timezone, defaulting to UTC when unset.
func (p WorkingHoursProfile) Location() (*time.Location, error) {
	if p.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTimezone, p.Timezone)
	}
	return loc, nil
}

// Buffer returns the mandatory idle time around bookings.
func (p WorkingHoursProfile) Buffer() time.Duration {
	if p.BufferMinutes <= 0 {
		return 0
	}
	return time.Duration(p.BufferMinutes) * time.Minute
}

// LeadTime returns the minimum notice before the earliest bookable instant.
func (p WorkingHoursProfile) LeadTime() time.Duration {
	if p.LeadTimeHours <= 0 {
		return 0
	}
	return time.Duration(p.LeadTimeHours) * time.Hour
}

// Horizon returns how many days ahead slots may be searched.
func (p WorkingHoursProfile) Horizon() int {
	if p.BookingHorizonDays <= 0 {
		return 14
	}
	return p.BookingHorizonDays
}

// TimeBand is a coarse part-of-day preference. Bands narrow the configured
// window and never widen it.
type TimeBand string

const (
	BandNone      TimeBand = ""
	BandMorning   TimeBand = "morning"
	BandAfternoon TimeBand = "afternoon"
	BandEvening   TimeBand = "evening"
)

// ClockRange is an explicit "HH:MM-HH:MM" preference. It takes precedence
// over a TimeBand.
type ClockRange struct {
	Start TimeOfDay
	End   TimeOfDay
}

// WeekPreference restricts candidates to the current or following
// Monday-start week.
type WeekPreference string

const (
	WeekAny  WeekPreference = ""
	WeekThis WeekPreference = "this_week"
	WeekNext WeekPreference = "next_week"
)

// Preferences are the soft constraints a guest expressed for the search.
type Preferences struct {
	Weekdays   []time.Weekday
	Week       WeekPreference
	ClockRange *ClockRange
	Band       TimeBand
}

// Slot is a candidate bookable interval. Slots are ephemeral; they are
// recomputed on demand and persisted only inside a negotiation snapshot.
type Slot struct {
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	DayLabel string    `json:"day_label"`
}

// BookingInterval is the engine's read view of an existing booking.
type BookingInterval struct {
	ID    string
	Start time.Time
	End   time.Time
}

// Interval is a plain exclusionary time range, such as a blocked period.
type Interval struct {
	Start time.Time
	End   time.Time
}

// ConflictEntry describes one existing booking that collides with a
// proposed interval, either directly or through its buffer zone.
type ConflictEntry struct {
	BookingID         string    `json:"booking_id"`
	Start             time.Time `json:"start"`
	End               time.Time `json:"end"`
	IsBufferViolation bool      `json:"is_buffer_violation"`
	// ViolationSide reports where the existing booking sits relative to
	// the proposed interval: "before" when it ends at or before the
	// proposed start, "after" when it begins at or after the proposed end.
	ViolationSide string `json:"violation_side,omitempty"`
}

// ConflictReport is the outcome of a conflict check. Absence of conflict is
// an ordinary result, never an error.
type ConflictReport struct {
	HasConflict    bool            `json:"has_conflict"`
	Conflicts      []ConflictEntry `json:"conflicts,omitempty"`
	BufferRequired BufferRequired  `json:"buffer_required"`
}

// BufferRequired echoes the buffer applied on each side of the check.
type BufferRequired struct {
	Before time.Duration `json:"before"`
	After  time.Duration `json:"after"`
}

// ParticipantCalendar bundles everything the engine needs to evaluate one
// participant. Participants without a platform identity are marked
// unresolvable and treated as always available.
type ParticipantCalendar struct {
	ID         string
	Resolvable bool
	Profile    WorkingHoursProfile
	Bookings   []BookingInterval
	Blocks     []Interval
}

// ParticipantConflicts lists the conflicts one participant has with a
// specific proposed time.
type ParticipantConflicts struct {
	ParticipantID string          `json:"participant_id"`
	Conflicts     []ConflictEntry `json:"conflicts"`
}

// GroupSlotReport is the point-check result for one proposed time across a
// group of participants.
type GroupSlotReport struct {
	HasConflicts   bool                   `json:"has_conflicts"`
	Conflicts      []ParticipantConflicts `json:"conflicts,omitempty"`
	AvailableCount int                    `json:"available_count"`
	TotalCount     int                    `json:"total_count"`
}

func overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func startOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

// startOfWeek returns midnight of the Monday beginning the week containing t.
func startOfWeek(t time.Time) time.Time {
	day := startOfDay(t)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

// dayLabel renders the human-friendly label for a slot relative to "today"
// in the same timezone.
func dayLabel(slotStart, now time.Time) string {
	if sameDate(slotStart, now) {
		return "Today"
	}
	if sameDate(slotStart, now.AddDate(0, 0, 1)) {
		return "Tomorrow"
	}
	return slotStart.Weekday().String()
}
