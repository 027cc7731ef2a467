package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Joy52-cyber/schedulesync-web-sub001/internal/persistence"
	"github.com/Joy52-cyber/schedulesync-web-sub001/internal/scheduler"
)

// GroupService resolves mutual availability across multiple participants.
type GroupService struct {
	loader *calendarLoader
	logger *slog.Logger
	now    func() time.Time
}

// NewGroupService wires dependencies for group availability operations.
func NewGroupService(
	participants persistence.ParticipantRepository,
	policies persistence.AvailabilityPolicyRepository,
	bookings persistence.BookingRepository,
	blocks persistence.BlockedIntervalRepository,
	defaults scheduler.WorkingHoursProfile,
	logger *slog.Logger,
	now func() time.Time,
) *GroupService {
	if now == nil {
		now = time.Now
	}
	return &GroupService{
		loader: newCalendarLoader(participants, policies, bookings, blocks, defaults),
		logger: defaultLogger(logger),
		now:    now,
	}
}

// ResolveGroupAvailability returns slots that work for every resolvable
// participant. The first participant anchors the search and must resolve.
func (s *GroupService) ResolveGroupAvailability(ctx context.Context, params GroupAvailabilityParams) ([]scheduler.Slot, error) {
	if s == nil {
		return nil, fmt.Errorf("GroupService is nil")
	}
	logger := serviceLogger(ctx, s.logger, "group", "resolve", "participants", len(params.ParticipantIDs))

	vErr := &ValidationError{}
	if len(params.ParticipantIDs) == 0 {
		vErr.add("participants", "at least one participant is required")
	}
	if params.DurationMinutes <= 0 {
		vErr.add("duration_minutes", "duration must be positive")
	}
	if vErr.HasErrors() {
		return nil, vErr
	}

	now := s.now()
	calendars, err := s.loadCalendars(ctx, params.ParticipantIDs, now)
	if err != nil {
		return nil, err
	}

	primary := calendars[0]
	if !primary.Resolvable {
		vErr.add("participants", "the first participant must have a calendar on the platform")
		return nil, vErr
	}

	slots, err := scheduler.ResolveGroupAvailability(primary, calendars[1:], time.Duration(params.DurationMinutes)*time.Minute, scheduler.Preferences{
		Weekdays:   params.Weekdays,
		Week:       params.Week,
		ClockRange: params.ClockRange,
		Band:       params.Band,
	}, params.MaxSlots, now)
	if err != nil {
		return nil, mapEngineError(err)
	}

	logger.InfoContext(ctx, "group availability resolved", "slots", len(slots))
	return slots, nil
}

// CheckGroupSlot validates one proposed time for every participant and
// reports per-participant conflicts.
func (s *GroupService) CheckGroupSlot(ctx context.Context, params GroupSlotCheckParams) (scheduler.GroupSlotReport, error) {
	if s == nil {
		return scheduler.GroupSlotReport{}, fmt.Errorf("GroupService is nil")
	}

	vErr := &ValidationError{}
	if len(params.ParticipantIDs) == 0 {
		vErr.add("participants", "at least one participant is required")
	}
	if !params.Start.Before(params.End) {
		vErr.add("time", "start must be before end")
	}
	if vErr.HasErrors() {
		return scheduler.GroupSlotReport{}, vErr
	}

	calendars, err := s.loadCalendars(ctx, params.ParticipantIDs, s.now())
	if err != nil {
		return scheduler.GroupSlotReport{}, err
	}

	report, err := scheduler.CheckGroupSlot(calendars, params.Start, params.End)
	if err != nil {
		return scheduler.GroupSlotReport{}, mapEngineError(err)
	}
	return report, nil
}

func (s *GroupService) loadCalendars(ctx context.Context, references []string, now time.Time) ([]scheduler.ParticipantCalendar, error) {
	from, to := s.loader.queryWindow(now, s.loader.defaults)

	calendars := make([]scheduler.ParticipantCalendar, 0, len(references))
	for _, reference := range references {
		calendar, err := s.loader.calendarFor(ctx, reference, from, to)
		if err != nil {
			return nil, err
		}
		calendars = append(calendars, calendar)
	}
	return calendars, nil
}
