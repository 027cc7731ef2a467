package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Joy52-cyber/schedulesync-web-sub001/internal/persistence"
	"github.com/Joy52-cyber/schedulesync-web-sub001/internal/recurrence"
	"github.com/Joy52-cyber/schedulesync-web-sub001/internal/scheduler"
)

// AvailabilityService answers slot queries and conflict checks for single
// participants.
type AvailabilityService struct {
	loader *calendarLoader
	cache  *slotCache
	logger *slog.Logger
	now    func() time.Time
}

// NewAvailabilityService wires dependencies for availability operations.
func NewAvailabilityService(
	participants persistence.ParticipantRepository,
	policies persistence.AvailabilityPolicyRepository,
	bookings persistence.BookingRepository,
	blocks persistence.BlockedIntervalRepository,
	defaults scheduler.WorkingHoursProfile,
	logger *slog.Logger,
	now func() time.Time,
) *AvailabilityService {
	if now == nil {
		now = time.Now
	}
	return &AvailabilityService{
		loader: newCalendarLoader(participants, policies, bookings, blocks, defaults),
		cache:  newSlotCache(30*time.Second, 256, now),
		logger: defaultLogger(logger),
		now:    now,
	}
}

// InvalidateCache drops cached slot computations. Writers call this after
// any booking or block change.
func (s *AvailabilityService) InvalidateCache() {
	s.cache.Invalidate()
}

// ComputeAvailability returns bookable slots for one participant.
func (s *AvailabilityService) ComputeAvailability(ctx context.Context, params AvailabilityParams) ([]scheduler.Slot, error) {
	if s == nil {
		return nil, fmt.Errorf("AvailabilityService is nil")
	}
	logger := serviceLogger(ctx, s.logger, "availability", "compute", "participant_id", params.ParticipantID)

	if err := validateAvailabilityParams(params.ParticipantID, params.DurationMinutes); err != nil {
		return nil, err
	}

	now := s.now()
	key := buildSlotCacheKey(params, now)
	if slots, ok := s.cache.Get(key); ok {
		return slots, nil
	}

	from, to := s.loader.queryWindow(now, s.loader.defaults)
	calendar, err := s.loader.calendarFor(ctx, params.ParticipantID, from, to)
	if err != nil {
		logger.ErrorContext(ctx, "failed to load calendar", "error", err, "error_kind", ErrorKind(err))
		return nil, err
	}

	slots, err := scheduler.ComputeAvailability(calendar.Profile, calendar.Bookings, calendar.Blocks, scheduler.AvailabilityQuery{
		Duration: time.Duration(params.DurationMinutes) * time.Minute,
		Preferences: scheduler.Preferences{
			Weekdays:   params.Weekdays,
			Week:       params.Week,
			ClockRange: params.ClockRange,
			Band:       params.Band,
		},
		MaxSlots: params.MaxSlots,
		Now:      now,
	})
	if err != nil {
		return nil, mapEngineError(err)
	}

	s.cache.Store(key, slots)
	logger.InfoContext(ctx, "availability computed", "slots", len(slots))
	return slots, nil
}

// CheckConflict validates a proposed interval against one calendar. On
// conflict the result carries alternatives near the requested time. When a
// recurrence hint is present every expanded instance is checked.
func (s *AvailabilityService) CheckConflict(ctx context.Context, params ConflictCheckParams) (ConflictCheckResult, error) {
	if s == nil {
		return ConflictCheckResult{}, fmt.Errorf("AvailabilityService is nil")
	}
	logger := serviceLogger(ctx, s.logger, "availability", "check_conflict", "participant_id", params.ParticipantID)

	vErr := &ValidationError{}
	if params.ParticipantID == "" {
		vErr.add("participant_id", "participant is required")
	}
	if !params.Start.Before(params.End) {
		vErr.add("time", "start must be before end")
	}
	if vErr.HasErrors() {
		return ConflictCheckResult{}, vErr
	}

	now := s.now()
	calendar, err := s.loader.calendarFor(ctx, params.ParticipantID, now.Add(-24*time.Hour), seriesQueryEnd(now, params))
	if err != nil {
		logger.ErrorContext(ctx, "failed to load calendar", "error", err, "error_kind", ErrorKind(err))
		return ConflictCheckResult{}, err
	}

	report, err := scheduler.CheckConflict(calendar.Bookings, params.Start, params.End, calendar.Profile.Buffer(), params.ExcludeBookingID)
	if err != nil {
		return ConflictCheckResult{}, mapEngineError(err)
	}

	result := ConflictCheckResult{Report: report}

	if params.RecurrenceHint != "" {
		descriptor := recurrence.Parse(params.RecurrenceHint)
		if descriptor == nil {
			vErr.add("recurrence", "could not understand the recurrence phrase")
			return ConflictCheckResult{}, vErr
		}
		instances, err := recurrence.Expand(params.Start, params.End, *descriptor, recurrence.DefaultMaxInstances)
		if err != nil {
			return ConflictCheckResult{}, mapEngineError(err)
		}
		intervals := make([]scheduler.Interval, 0, len(instances))
		for _, instance := range instances {
			intervals = append(intervals, scheduler.Interval{Start: instance.Start, End: instance.End})
		}
		series, err := scheduler.CheckRecurringSeries(calendar.Bookings, intervals, calendar.Profile.Buffer())
		if err != nil {
			return ConflictCheckResult{}, mapEngineError(err)
		}
		result.Series = series
	}

	if report.HasConflict {
		alternatives, err := scheduler.FindAlternatives(calendar.Profile, calendar.Bookings, calendar.Blocks, scheduler.AlternativeQuery{
			RequestedStart: params.Start,
			Duration:       params.End.Sub(params.Start),
			MaxSlots:       scheduler.DefaultMaxSlots,
			MaxDaysAhead:   7,
			Now:            now,
		})
		if err != nil {
			return ConflictCheckResult{}, mapEngineError(err)
		}
		result.Alternatives = alternatives
		logger.InfoContext(ctx, "conflict detected", "conflicts", len(report.Conflicts), "alternatives", len(alternatives))
	}

	return result, nil
}

// ParseRecurrence interprets a natural-language recurrence phrase and, when
// an anchor interval is supplied, expands the resulting series.
func (s *AvailabilityService) ParseRecurrence(hint string, start, end time.Time, maxInstances int) (*recurrence.Descriptor, string, []recurrence.Instance, error) {
	descriptor := recurrence.Parse(hint)
	if descriptor == nil {
		vErr := &ValidationError{}
		vErr.add("recurrence", "could not understand the recurrence phrase")
		return nil, "", nil, vErr
	}

	rule, err := descriptor.RuleString()
	if err != nil {
		return nil, "", nil, err
	}

	var instances []recurrence.Instance
	if !start.IsZero() && end.After(start) {
		instances, err = recurrence.Expand(start, end, *descriptor, maxInstances)
		if err != nil {
			return nil, "", nil, mapEngineError(err)
		}
	}
	return descriptor, rule, instances, nil
}

func validateAvailabilityParams(participantID string, durationMinutes int) error {
	vErr := &ValidationError{}
	if participantID == "" {
		vErr.add("participant_id", "participant is required")
	}
	if durationMinutes <= 0 {
		vErr.add("duration_minutes", "duration must be positive")
	}
	if vErr.HasErrors() {
		return vErr
	}
	return nil
}

// seriesQueryEnd widens the read window when a recurrence hint may expand
// the check far past the proposed interval.
func seriesQueryEnd(now time.Time, params ConflictCheckParams) time.Time {
	end := now.AddDate(0, 0, 30)
	if params.RecurrenceHint != "" {
		end = now.AddDate(1, 0, 0)
	}
	if params.End.After(end) {
		end = params.End.AddDate(0, 0, 1)
	}
	return end
}

func mapEngineError(err error) error {
	if err == nil {
		return nil
	}
	vErr := &ValidationError{}
	switch err {
	case scheduler.ErrInvalidDuration, recurrence.ErrInvalidDuration:
		vErr.add("duration_minutes", "duration must be positive")
	case scheduler.ErrInvalidInterval:
		vErr.add("time", "start must be before end")
	case scheduler.ErrInvalidTimezone:
		vErr.add("timezone", "unknown timezone")
	default:
		return err
	}
	return vErr
}
