package application

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Joy52-cyber/schedulesync-web-sub001/internal/persistence"
	"github.com/Joy52-cyber/schedulesync-web-sub001/internal/scheduler"
)

// activeBookingStatuses are the statuses that occupy calendar time.
var activeBookingStatuses = []string{
	persistence.BookingStatusConfirmed,
	persistence.BookingStatusPendingApproval,
}

// calendarLoader assembles engine-ready calendars from persistence state.
// It is shared by the availability, group, team and session services.
type calendarLoader struct {
	participants persistence.ParticipantRepository
	policies     persistence.AvailabilityPolicyRepository
	bookings     persistence.BookingRepository
	blocks       persistence.BlockedIntervalRepository
	defaults     scheduler.WorkingHoursProfile
}

func newCalendarLoader(
	participants persistence.ParticipantRepository,
	policies persistence.AvailabilityPolicyRepository,
	bookings persistence.BookingRepository,
	blocks persistence.BlockedIntervalRepository,
	defaults scheduler.WorkingHoursProfile,
) *calendarLoader {
	if defaults.Timezone == "" {
		defaults = scheduler.DefaultProfile("UTC")
	}
	return &calendarLoader{
		participants: participants,
		policies:     policies,
		bookings:     bookings,
		blocks:       blocks,
		defaults:     defaults,
	}
}

// profileFor returns the participant's working hours, falling back to the
// configured defaults in the participant's timezone when no policy is stored.
func (l *calendarLoader) profileFor(ctx context.Context, participant persistence.Participant) (scheduler.WorkingHoursProfile, error) {
	policy, err := l.policies.GetPolicy(ctx, participant.ID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			profile := l.defaults
			if participant.Timezone != "" {
				profile.Timezone = participant.Timezone
			}
			return profile, nil
		}
		return scheduler.WorkingHoursProfile{}, err
	}
	return policyToProfile(policy, participant.Timezone), nil
}

// calendarFor resolves one participant reference into an engine calendar.
// References containing "@" that match no stored participant resolve as
// external, always-available entries.
func (l *calendarLoader) calendarFor(ctx context.Context, reference string, from, to time.Time) (scheduler.ParticipantCalendar, error) {
	participant, err := l.resolve(ctx, reference)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) && strings.Contains(reference, "@") {
			return scheduler.ParticipantCalendar{ID: reference, Resolvable: false}, nil
		}
		if errors.Is(err, persistence.ErrNotFound) {
			return scheduler.ParticipantCalendar{}, ErrNotFound
		}
		return scheduler.ParticipantCalendar{}, err
	}

	profile, err := l.profileFor(ctx, participant)
	if err != nil {
		return scheduler.ParticipantCalendar{}, err
	}

	bookings, err := l.bookingIntervals(ctx, participant.ID, from, to)
	if err != nil {
		return scheduler.ParticipantCalendar{}, err
	}

	blocks, err := l.blockIntervals(ctx, participant.ID, from, to)
	if err != nil {
		return scheduler.ParticipantCalendar{}, err
	}

	return scheduler.ParticipantCalendar{
		ID:         participant.ID,
		Resolvable: true,
		Profile:    profile,
		Bookings:   bookings,
		Blocks:     blocks,
	}, nil
}

func (l *calendarLoader) resolve(ctx context.Context, reference string) (persistence.Participant, error) {
	participant, err := l.participants.GetParticipant(ctx, reference)
	if err == nil {
		return participant, nil
	}
	if !errors.Is(err, persistence.ErrNotFound) {
		return persistence.Participant{}, err
	}
	if strings.Contains(reference, "@") {
		return l.participants.GetParticipantByEmail(ctx, reference)
	}
	return persistence.Participant{}, err
}

func (l *calendarLoader) bookingIntervals(ctx context.Context, ownerID string, from, to time.Time) ([]scheduler.BookingInterval, error) {
	stored, err := l.bookings.ListBookings(ctx, persistence.BookingFilter{
		OwnerID:  ownerID,
		From:     from,
		To:       to,
		Statuses: activeBookingStatuses,
	})
	if err != nil {
		return nil, err
	}

	intervals := make([]scheduler.BookingInterval, 0, len(stored))
	for _, booking := range stored {
		intervals = append(intervals, scheduler.BookingInterval{
			ID:    booking.ID,
			Start: booking.Start,
			End:   booking.End,
		})
	}
	return intervals, nil
}

func (l *calendarLoader) blockIntervals(ctx context.Context, ownerID string, from, to time.Time) ([]scheduler.Interval, error) {
	stored, err := l.blocks.ListBlockedIntervals(ctx, ownerID, from, to)
	if err != nil {
		return nil, err
	}

	intervals := make([]scheduler.Interval, 0, len(stored))
	for _, block := range stored {
		intervals = append(intervals, scheduler.Interval{Start: block.Start, End: block.End})
	}
	return intervals, nil
}

// queryWindow bounds repository reads to the bookable future plus a small
// margin for buffer checks at the edges.
func (l *calendarLoader) queryWindow(now time.Time, profile scheduler.WorkingHoursProfile) (time.Time, time.Time) {
	from := now.Add(-24 * time.Hour)
	to := now.AddDate(0, 0, profile.Horizon()+1)
	return from, to
}

func policyToProfile(policy persistence.AvailabilityPolicy, timezone string) scheduler.WorkingHoursProfile {
	if timezone == "" {
		timezone = "UTC"
	}
	profile := scheduler.WorkingHoursProfile{
		BufferMinutes:      policy.BufferMinutes,
		LeadTimeHours:      policy.LeadTimeHours,
		BookingHorizonDays: policy.BookingHorizonDays,
		Timezone:           timezone,
	}
	for day := range policy.Days {
		rule := policy.Days[day]
		if !rule.Enabled {
			continue
		}
		start, err := scheduler.ParseTimeOfDay(rule.Start)
		if err != nil {
			continue
		}
		end, err := scheduler.ParseTimeOfDay(rule.End)
		if err != nil {
			continue
		}
		profile.Days[day] = scheduler.DayWindow{Enabled: true, Start: start, End: end}
	}
	return profile
}

func profileToPolicy(participantID string, profile scheduler.WorkingHoursProfile, updatedAt time.Time) persistence.AvailabilityPolicy {
	policy := persistence.AvailabilityPolicy{
		ParticipantID:      participantID,
		BufferMinutes:      profile.BufferMinutes,
		LeadTimeHours:      profile.LeadTimeHours,
		BookingHorizonDays: profile.BookingHorizonDays,
		UpdatedAt:          updatedAt,
	}
	for day, window := range profile.Days {
		if !window.Enabled {
			continue
		}
		policy.Days[day] = persistence.DayRule{
			Enabled: true,
			Start:   window.Start.String(),
			End:     window.End.String(),
		}
	}
	return policy
}
