package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Joy52-cyber/schedulesync-web-sub001/internal/persistence"
	"github.com/Joy52-cyber/schedulesync-web-sub001/internal/scheduler"
)

// ParticipantService manages participants, their working-hours policies,
// blocked intervals and booking listings.
type ParticipantService struct {
	participants persistence.ParticipantRepository
	policies     persistence.AvailabilityPolicyRepository
	blocks       persistence.BlockedIntervalRepository
	bookings     persistence.BookingRepository
	defaults     scheduler.WorkingHoursProfile
	availability *AvailabilityService
	idGenerator  func() string
	now          func() time.Time
	logger       *slog.Logger
}

// NewParticipantService wires dependencies for participant operations. The
// availability service, when provided, has its slot cache invalidated on
// calendar writes.
func NewParticipantService(
	participants persistence.ParticipantRepository,
	policies persistence.AvailabilityPolicyRepository,
	blocks persistence.BlockedIntervalRepository,
	bookings persistence.BookingRepository,
	defaults scheduler.WorkingHoursProfile,
	availability *AvailabilityService,
	idGenerator func() string,
	now func() time.Time,
	logger *slog.Logger,
) *ParticipantService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	if defaults.Timezone == "" {
		defaults = scheduler.DefaultProfile("UTC")
	}
	return &ParticipantService{
		participants: participants,
		policies:     policies,
		blocks:       blocks,
		bookings:     bookings,
		defaults:     defaults,
		availability: availability,
		idGenerator:  idGenerator,
		now:          now,
		logger:       defaultLogger(logger),
	}
}

// CreateParticipant validates and stores a new participant.
func (s *ParticipantService) CreateParticipant(ctx context.Context, input ParticipantInput) (Participant, error) {
	if s == nil {
		return Participant{}, fmt.Errorf("ParticipantService is nil")
	}

	if err := validateParticipantInput(input); err != nil {
		return Participant{}, err
	}

	now := s.now()
	participant := persistence.Participant{
		ID:          s.idGenerator(),
		Email:       strings.ToLower(strings.TrimSpace(input.Email)),
		DisplayName: strings.TrimSpace(input.DisplayName),
		Timezone:    normalizeTimezone(input.Timezone),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.participants.CreateParticipant(ctx, participant); err != nil {
		return Participant{}, mapRepoError(err)
	}
	return toParticipant(participant), nil
}

// UpdateParticipant applies validated changes to an existing participant.
func (s *ParticipantService) UpdateParticipant(ctx context.Context, id string, input ParticipantInput) (Participant, error) {
	if s == nil {
		return Participant{}, fmt.Errorf("ParticipantService is nil")
	}

	if err := validateParticipantInput(input); err != nil {
		return Participant{}, err
	}

	existing, err := s.participants.GetParticipant(ctx, id)
	if err != nil {
		return Participant{}, mapRepoError(err)
	}

	existing.Email = strings.ToLower(strings.TrimSpace(input.Email))
	existing.DisplayName = strings.TrimSpace(input.DisplayName)
	existing.Timezone = normalizeTimezone(input.Timezone)
	existing.UpdatedAt = s.now()

	if err := s.participants.UpdateParticipant(ctx, existing); err != nil {
		return Participant{}, mapRepoError(err)
	}
	s.invalidateSlots()
	return toParticipant(existing), nil
}

// GetParticipant returns one participant by id or email.
func (s *ParticipantService) GetParticipant(ctx context.Context, reference string) (Participant, error) {
	if s == nil {
		return Participant{}, fmt.Errorf("ParticipantService is nil")
	}

	participant, err := s.participants.GetParticipant(ctx, reference)
	if errors.Is(err, persistence.ErrNotFound) && strings.Contains(reference, "@") {
		participant, err = s.participants.GetParticipantByEmail(ctx, reference)
	}
	if err != nil {
		return Participant{}, mapRepoError(err)
	}
	return toParticipant(participant), nil
}

// ListParticipants returns every participant.
func (s *ParticipantService) ListParticipants(ctx context.Context) ([]Participant, error) {
	if s == nil {
		return nil, fmt.Errorf("ParticipantService is nil")
	}

	stored, err := s.participants.ListParticipants(ctx)
	if err != nil {
		return nil, mapRepoError(err)
	}
	participants := make([]Participant, 0, len(stored))
	for _, participant := range stored {
		participants = append(participants, toParticipant(participant))
	}
	return participants, nil
}

// DeleteParticipant removes a participant and, via cascade, their policy
// and blocks.
func (s *ParticipantService) DeleteParticipant(ctx context.Context, id string) error {
	if s == nil {
		return fmt.Errorf("ParticipantService is nil")
	}
	if err := s.participants.DeleteParticipant(ctx, id); err != nil {
		return mapRepoError(err)
	}
	s.invalidateSlots()
	return nil
}

// SetAvailabilityPolicy stores a participant's working hours.
func (s *ParticipantService) SetAvailabilityPolicy(ctx context.Context, participantID string, input AvailabilityPolicyInput) (scheduler.WorkingHoursProfile, error) {
	if s == nil {
		return scheduler.WorkingHoursProfile{}, fmt.Errorf("ParticipantService is nil")
	}

	participant, err := s.participants.GetParticipant(ctx, participantID)
	if err != nil {
		return scheduler.WorkingHoursProfile{}, mapRepoError(err)
	}

	policy, err := policyFromInput(participant.ID, input, s.now())
	if err != nil {
		return scheduler.WorkingHoursProfile{}, err
	}

	if err := s.policies.UpsertPolicy(ctx, policy); err != nil {
		return scheduler.WorkingHoursProfile{}, mapRepoError(err)
	}
	s.invalidateSlots()
	return policyToProfile(policy, participant.Timezone), nil
}

// GetAvailabilityPolicy returns the participant's working hours, falling
// back to defaults when none are stored.
func (s *ParticipantService) GetAvailabilityPolicy(ctx context.Context, participantID string) (scheduler.WorkingHoursProfile, error) {
	if s == nil {
		return scheduler.WorkingHoursProfile{}, fmt.Errorf("ParticipantService is nil")
	}

	participant, err := s.participants.GetParticipant(ctx, participantID)
	if err != nil {
		return scheduler.WorkingHoursProfile{}, mapRepoError(err)
	}

	policy, err := s.policies.GetPolicy(ctx, participant.ID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			profile := s.defaults
			if participant.Timezone != "" {
				profile.Timezone = participant.Timezone
			}
			return profile, nil
		}
		return scheduler.WorkingHoursProfile{}, mapRepoError(err)
	}
	return policyToProfile(policy, participant.Timezone), nil
}

// CreateBlockedInterval marks time unbookable on a participant's calendar.
func (s *ParticipantService) CreateBlockedInterval(ctx context.Context, ownerID string, start, end time.Time, reason string) (BlockedInterval, error) {
	if s == nil {
		return BlockedInterval{}, fmt.Errorf("ParticipantService is nil")
	}

	vErr := &ValidationError{}
	if !start.Before(end) {
		vErr.add("time", "start must be before end")
	}
	if vErr.HasErrors() {
		return BlockedInterval{}, vErr
	}

	if _, err := s.participants.GetParticipant(ctx, ownerID); err != nil {
		return BlockedInterval{}, mapRepoError(err)
	}

	block := persistence.BlockedInterval{
		ID:        s.idGenerator(),
		OwnerID:   ownerID,
		Start:     start,
		End:       end,
		CreatedAt: s.now(),
	}
	if reason != "" {
		block.Reason = &reason
	}
	if err := s.blocks.CreateBlockedInterval(ctx, block); err != nil {
		return BlockedInterval{}, mapRepoError(err)
	}
	s.invalidateSlots()
	return toBlockedInterval(block), nil
}

// ListBlockedIntervals returns an owner's blocks overlapping the window.
func (s *ParticipantService) ListBlockedIntervals(ctx context.Context, ownerID string, from, to time.Time) ([]BlockedInterval, error) {
	if s == nil {
		return nil, fmt.Errorf("ParticipantService is nil")
	}

	stored, err := s.blocks.ListBlockedIntervals(ctx, ownerID, from, to)
	if err != nil {
		return nil, mapRepoError(err)
	}
	blocks := make([]BlockedInterval, 0, len(stored))
	for _, block := range stored {
		blocks = append(blocks, toBlockedInterval(block))
	}
	return blocks, nil
}

// DeleteBlockedInterval removes a block.
func (s *ParticipantService) DeleteBlockedInterval(ctx context.Context, id string) error {
	if s == nil {
		return fmt.Errorf("ParticipantService is nil")
	}
	if err := s.blocks.DeleteBlockedInterval(ctx, id); err != nil {
		return mapRepoError(err)
	}
	s.invalidateSlots()
	return nil
}

// ListBookings returns an owner's bookings overlapping the window.
func (s *ParticipantService) ListBookings(ctx context.Context, ownerID string, from, to time.Time, statuses []string) ([]Booking, error) {
	if s == nil {
		return nil, fmt.Errorf("ParticipantService is nil")
	}

	stored, err := s.bookings.ListBookings(ctx, persistence.BookingFilter{
		OwnerID:  ownerID,
		From:     from,
		To:       to,
		Statuses: statuses,
	})
	if err != nil {
		return nil, mapRepoError(err)
	}
	bookings := make([]Booking, 0, len(stored))
	for _, booking := range stored {
		bookings = append(bookings, toBooking(booking))
	}
	return bookings, nil
}

func (s *ParticipantService) invalidateSlots() {
	if s.availability != nil {
		s.availability.InvalidateCache()
	}
}

func validateParticipantInput(input ParticipantInput) error {
	vErr := &ValidationError{}
	email := strings.TrimSpace(input.Email)
	if email == "" {
		vErr.add("email", "email is required")
	} else if !strings.Contains(email, "@") {
		vErr.add("email", "email must contain @")
	}
	if strings.TrimSpace(input.DisplayName) == "" {
		vErr.add("display_name", "display name is required")
	}
	if input.Timezone != "" {
		if _, err := time.LoadLocation(input.Timezone); err != nil {
			vErr.add("timezone", "unknown timezone")
		}
	}
	if vErr.HasErrors() {
		return vErr
	}
	return nil
}

func normalizeTimezone(timezone string) string {
	if timezone == "" {
		return "UTC"
	}
	return timezone
}

func policyFromInput(participantID string, input AvailabilityPolicyInput, now time.Time) (persistence.AvailabilityPolicy, error) {
	vErr := &ValidationError{}
	policy := persistence.AvailabilityPolicy{
		ParticipantID:      participantID,
		BufferMinutes:      input.BufferMinutes,
		LeadTimeHours:      input.LeadTimeHours,
		BookingHorizonDays: input.BookingHorizonDays,
		UpdatedAt:          now,
	}
	if input.BufferMinutes < 0 {
		vErr.add("buffer_minutes", "buffer cannot be negative")
	}
	if input.LeadTimeHours < 0 {
		vErr.add("lead_time_hours", "lead time cannot be negative")
	}
	if input.BookingHorizonDays <= 0 {
		policy.BookingHorizonDays = scheduler.DefaultProfile("UTC").BookingHorizonDays
	}

	for day, rule := range input.Days {
		if !rule.Enabled {
			continue
		}
		start, err := scheduler.ParseTimeOfDay(rule.Start)
		if err != nil {
			vErr.add(fmt.Sprintf("days.%d.start", day), "must be HH:MM")
			continue
		}
		end, err := scheduler.ParseTimeOfDay(rule.End)
		if err != nil {
			vErr.add(fmt.Sprintf("days.%d.end", day), "must be HH:MM")
			continue
		}
		if !start.Before(end) {
			vErr.add(fmt.Sprintf("days.%d", day), "start must be before end")
			continue
		}
		policy.Days[day] = persistence.DayRule{Enabled: true, Start: start.String(), End: end.String()}
	}

	if vErr.HasErrors() {
		return persistence.AvailabilityPolicy{}, vErr
	}
	return policy, nil
}

func toParticipant(participant persistence.Participant) Participant {
	return Participant{
		ID:          participant.ID,
		Email:       participant.Email,
		DisplayName: participant.DisplayName,
		Timezone:    participant.Timezone,
		CreatedAt:   participant.CreatedAt,
		UpdatedAt:   participant.UpdatedAt,
	}
}

func toBlockedInterval(block persistence.BlockedInterval) BlockedInterval {
	out := BlockedInterval{
		ID:        block.ID,
		OwnerID:   block.OwnerID,
		Start:     block.Start,
		End:       block.End,
		CreatedAt: block.CreatedAt,
	}
	if block.Reason != nil {
		out.Reason = *block.Reason
	}
	return out
}

func toBooking(booking persistence.Booking) Booking {
	return Booking{
		ID:               booking.ID,
		OwnerID:          booking.OwnerID,
		Title:            booking.Title,
		Start:            booking.Start,
		End:              booking.End,
		Status:           booking.Status,
		Attendees:        append([]string(nil), booking.Attendees...),
		RecurrenceRule:   booking.RecurrenceRule,
		RecurrenceEnd:    booking.RecurrenceEnd,
		TeamID:           booking.TeamID,
		AssignedMemberID: booking.AssignedMemberID,
		SessionID:        booking.SessionID,
		CreatedAt:        booking.CreatedAt,
		UpdatedAt:        booking.UpdatedAt,
	}
}

func mapRepoError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, persistence.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, persistence.ErrDuplicate):
		return ErrAlreadyExists
	case errors.Is(err, persistence.ErrConstraintViolation):
		vErr := &ValidationError{}
		vErr.add("input", "violates a storage constraint")
		return vErr
	case errors.Is(err, persistence.ErrForeignKeyViolation):
		vErr := &ValidationError{}
		vErr.add("input", "related records are missing")
		return vErr
	}
	return err
}
