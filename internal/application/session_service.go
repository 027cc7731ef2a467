package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Joy52-cyber/schedulesync-web-sub001/internal/persistence"
	"github.com/Joy52-cyber/schedulesync-web-sub001/internal/scheduler"
)

// SessionService drives scheduling negotiation threads: propose slots,
// confirm one transactionally, reschedule after rejections, and close
// sessions that go quiet.
type SessionService struct {
	sessions     persistence.SessionRepository
	bookings     persistence.BookingRepository
	loader       *calendarLoader
	parser       IntentParser
	availability *AvailabilityService
	idGenerator  func() string
	now          func() time.Time
	logger       *slog.Logger

	// locks serializes operations per session id. Cross-process writers
	// are still guarded by the session version column.
	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// NewSessionService wires dependencies for negotiation operations.
func NewSessionService(
	sessions persistence.SessionRepository,
	participants persistence.ParticipantRepository,
	policies persistence.AvailabilityPolicyRepository,
	bookings persistence.BookingRepository,
	blocks persistence.BlockedIntervalRepository,
	defaults scheduler.WorkingHoursProfile,
	parser IntentParser,
	availability *AvailabilityService,
	idGenerator func() string,
	now func() time.Time,
	logger *slog.Logger,
) *SessionService {
	if parser == nil {
		parser = NewKeywordIntentParser()
	}
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &SessionService{
		sessions:     sessions,
		bookings:     bookings,
		loader:       newCalendarLoader(participants, policies, bookings, blocks, defaults),
		parser:       parser,
		availability: availability,
		idGenerator:  idGenerator,
		now:          now,
		logger:       defaultLogger(logger),
		locks:        make(map[string]*sync.Mutex),
	}
}

// Propose opens a negotiation session with an initial slate of proposals.
// Free-text utterances run through the intent parser first.
func (s *SessionService) Propose(ctx context.Context, params ProposeSessionParams) (NegotiationSession, error) {
	if s == nil {
		return NegotiationSession{}, fmt.Errorf("SessionService is nil")
	}
	logger := serviceLogger(ctx, s.logger, "session", "propose", "organizer_id", params.OrganizerID)

	vErr := &ValidationError{}
	if params.OrganizerID == "" {
		vErr.add("organizer_id", "organizer is required")
	}

	var request StructuredRequest
	switch {
	case params.Request != nil:
		request = *params.Request
	case params.Utterance != "":
		parsed, err := s.parser.ParseIntent(params.Utterance)
		if err != nil {
			return NegotiationSession{}, err
		}
		request = parsed
	default:
		vErr.add("request", "either an utterance or a structured request is required")
	}
	if request.DurationMinutes <= 0 && params.Request != nil {
		vErr.add("duration_minutes", "duration must be positive")
	}
	if vErr.HasErrors() {
		return NegotiationSession{}, vErr
	}
	if request.MaxSlots <= 0 {
		request.MaxSlots = scheduler.DefaultMaxSlots
	}

	now := s.now()
	proposals, err := s.computeProposals(ctx, params.OrganizerID, request, now, time.Time{})
	if err != nil {
		return NegotiationSession{}, err
	}
	if len(proposals) == 0 {
		logger.InfoContext(ctx, "no slots for request")
		return NegotiationSession{}, ErrNoAvailability
	}

	stored := persistence.Session{
		ID:          s.idGenerator(),
		OrganizerID: params.OrganizerID,
		Status:      persistence.SessionStatusActive,
		Version:     1,
		ProposedAt:  now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if stored.RequestJSON, stored.ProposalsJSON, err = encodeSnapshots(request, proposals); err != nil {
		return NegotiationSession{}, err
	}

	if err := s.sessions.CreateSession(ctx, stored); err != nil {
		return NegotiationSession{}, mapRepoError(err)
	}

	logger.InfoContext(ctx, "session opened", "session_id", stored.ID, "proposals", len(proposals))
	return decodeSession(stored)
}

// GetSession returns one session.
func (s *SessionService) GetSession(ctx context.Context, id string) (NegotiationSession, error) {
	if s == nil {
		return NegotiationSession{}, fmt.Errorf("SessionService is nil")
	}
	stored, err := s.sessions.GetSession(ctx, id)
	if err != nil {
		return NegotiationSession{}, mapRepoError(err)
	}
	return decodeSession(stored)
}

// SelectSlot confirms a proposed slot. The selected time is re-validated
// against the organizer's live calendar, the booking insert re-checks the
// interval transactionally, and the session closes as confirmed. When the
// slot was taken in the meantime the session stays active with refreshed
// proposals and a ConflictError is returned.
func (s *SessionService) SelectSlot(ctx context.Context, params SelectSlotParams) (NegotiationSession, error) {
	if s == nil {
		return NegotiationSession{}, fmt.Errorf("SessionService is nil")
	}
	logger := serviceLogger(ctx, s.logger, "session", "select", "session_id", params.SessionID)

	unlock := s.lockSession(params.SessionID)
	defer unlock()

	stored, err := s.sessions.GetSession(ctx, params.SessionID)
	if err != nil {
		return NegotiationSession{}, mapRepoError(err)
	}
	if err := ensureActive(stored); err != nil {
		return NegotiationSession{}, err
	}
	if params.Version != 0 && params.Version != stored.Version {
		return NegotiationSession{}, ErrStaleSession
	}

	session, err := decodeSession(stored)
	if err != nil {
		return NegotiationSession{}, err
	}

	var selected *scheduler.Slot
	for i := range session.Proposals {
		if session.Proposals[i].Start.Equal(params.Start) {
			selected = &session.Proposals[i]
			break
		}
	}
	if selected == nil {
		vErr := &ValidationError{}
		vErr.add("start", "selected time is not among the proposed slots")
		return NegotiationSession{}, vErr
	}

	now := s.now()
	calendar, err := s.loader.calendarFor(ctx, session.OrganizerID, now.Add(-24*time.Hour), selected.End.AddDate(0, 0, 1))
	if err != nil {
		return NegotiationSession{}, err
	}

	report, err := scheduler.CheckConflict(calendar.Bookings, selected.Start, selected.End, calendar.Profile.Buffer(), "")
	if err != nil {
		return NegotiationSession{}, mapEngineError(err)
	}
	if report.HasConflict {
		return s.handleLostSlot(ctx, logger, stored, session, calendar, *selected, report.Conflicts, now)
	}

	booking := persistence.Booking{
		ID:        s.idGenerator(),
		OwnerID:   session.OrganizerID,
		Title:     bookingTitle(session.Request),
		Start:     selected.Start,
		End:       selected.End,
		Status:    persistence.BookingStatusConfirmed,
		Attendees: session.Request.Attendees,
		CreatedAt: now,
		UpdatedAt: now,
	}
	sessionID := session.ID
	booking.SessionID = &sessionID
	if session.Request.Recurrence != nil {
		if rule, ruleErr := session.Request.Recurrence.RuleString(); ruleErr == nil {
			booking.RecurrenceRule = &rule
			booking.RecurrenceEnd = session.Request.Recurrence.Until
		}
	}

	if err := s.bookings.CreateBookingIfFree(ctx, booking); err != nil {
		if errors.Is(err, persistence.ErrOverlap) {
			return s.handleLostSlot(ctx, logger, stored, session, calendar, *selected, nil, now)
		}
		return NegotiationSession{}, mapRepoError(err)
	}
	s.invalidateSlots()

	stored.Status = persistence.SessionStatusConfirmed
	start := selected.Start
	end := selected.End
	stored.SelectedStart = &start
	stored.SelectedEnd = &end
	stored.BookingID = &booking.ID
	stored.UpdatedAt = now

	updated, err := s.sessions.UpdateSession(ctx, stored)
	if err != nil {
		return NegotiationSession{}, mapSessionUpdateError(err)
	}

	logger.InfoContext(ctx, "slot confirmed", "booking_id", booking.ID, "start", selected.Start)
	return decodeSession(updated)
}

// Reschedule rejects the current proposals and computes fresh ones that
// avoid the rejected time's neighborhood. A confirmed session releases its
// booking and returns to active; a cancelled or expired one reports
// ErrSessionClosed.
func (s *SessionService) Reschedule(ctx context.Context, params RescheduleParams) (NegotiationSession, error) {
	if s == nil {
		return NegotiationSession{}, fmt.Errorf("SessionService is nil")
	}
	logger := serviceLogger(ctx, s.logger, "session", "reschedule", "session_id", params.SessionID)

	unlock := s.lockSession(params.SessionID)
	defer unlock()

	stored, err := s.sessions.GetSession(ctx, params.SessionID)
	if err != nil {
		return NegotiationSession{}, mapRepoError(err)
	}
	if stored.Status != persistence.SessionStatusActive && stored.Status != persistence.SessionStatusConfirmed {
		return NegotiationSession{}, ErrSessionClosed
	}
	if params.Version != 0 && params.Version != stored.Version {
		return NegotiationSession{}, ErrStaleSession
	}

	session, err := decodeSession(stored)
	if err != nil {
		return NegotiationSession{}, err
	}

	now := s.now()
	if stored.Status == persistence.SessionStatusConfirmed {
		if stored.BookingID != nil {
			if err := s.bookings.CancelBooking(ctx, *stored.BookingID, now); err != nil && !errors.Is(err, persistence.ErrNotFound) {
				return NegotiationSession{}, mapRepoError(err)
			}
			s.invalidateSlots()
		}
		stored.Status = persistence.SessionStatusActive
		stored.SelectedStart = nil
		stored.SelectedEnd = nil
		stored.BookingID = nil
		logger.InfoContext(ctx, "booking released for reschedule")
	}

	proposals, err := s.computeProposals(ctx, session.OrganizerID, session.Request, now, params.RejectedStart)
	if err != nil {
		return NegotiationSession{}, err
	}

	// The update runs even with an empty slate; a released booking stays
	// released.
	if _, stored.ProposalsJSON, err = encodeSnapshots(session.Request, proposals); err != nil {
		return NegotiationSession{}, err
	}
	stored.ProposedAt = now
	stored.UpdatedAt = now

	updated, err := s.sessions.UpdateSession(ctx, stored)
	if err != nil {
		return NegotiationSession{}, mapSessionUpdateError(err)
	}

	if len(proposals) == 0 {
		logger.InfoContext(ctx, "no alternatives after rejection")
		return NegotiationSession{}, ErrNoAvailability
	}

	logger.InfoContext(ctx, "proposals refreshed", "proposals", len(proposals))
	return decodeSession(updated)
}

// Cancel closes a session. A confirmed session's booking is cancelled with
// it; an already closed session reports ErrSessionClosed.
func (s *SessionService) Cancel(ctx context.Context, sessionID string) (NegotiationSession, error) {
	if s == nil {
		return NegotiationSession{}, fmt.Errorf("SessionService is nil")
	}
	logger := serviceLogger(ctx, s.logger, "session", "cancel", "session_id", sessionID)

	unlock := s.lockSession(sessionID)
	defer unlock()

	stored, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return NegotiationSession{}, mapRepoError(err)
	}
	switch stored.Status {
	case persistence.SessionStatusCancelled, persistence.SessionStatusExpired:
		return NegotiationSession{}, ErrSessionClosed
	}

	now := s.now()
	if stored.Status == persistence.SessionStatusConfirmed && stored.BookingID != nil {
		if err := s.bookings.CancelBooking(ctx, *stored.BookingID, now); err != nil && !errors.Is(err, persistence.ErrNotFound) {
			return NegotiationSession{}, mapRepoError(err)
		}
		s.invalidateSlots()
	}

	stored.Status = persistence.SessionStatusCancelled
	stored.UpdatedAt = now

	updated, err := s.sessions.UpdateSession(ctx, stored)
	if err != nil {
		return NegotiationSession{}, mapSessionUpdateError(err)
	}

	logger.InfoContext(ctx, "session cancelled")
	return decodeSession(updated)
}

// RefreshStaleProposals recomputes proposals for active sessions whose
// slate is older than maxAge. Returns how many sessions were refreshed.
func (s *SessionService) RefreshStaleProposals(ctx context.Context, maxAge time.Duration) (int, error) {
	if s == nil {
		return 0, fmt.Errorf("SessionService is nil")
	}
	logger := serviceLogger(ctx, s.logger, "session", "refresh_stale")

	now := s.now()
	stale, err := s.sessions.ListActiveProposedBefore(ctx, now.Add(-maxAge))
	if err != nil {
		return 0, mapRepoError(err)
	}

	refreshed := 0
	for _, stored := range stale {
		session, err := decodeSession(stored)
		if err != nil {
			logger.WarnContext(ctx, "skipping undecodable session", "session_id", stored.ID, "error", err)
			continue
		}

		proposals, err := s.computeProposals(ctx, session.OrganizerID, session.Request, now, time.Time{})
		if err != nil {
			logger.WarnContext(ctx, "failed to recompute proposals", "session_id", stored.ID, "error", err)
			continue
		}

		if _, stored.ProposalsJSON, err = encodeSnapshots(session.Request, proposals); err != nil {
			continue
		}
		stored.ProposedAt = now
		stored.UpdatedAt = now
		if _, err := s.sessions.UpdateSession(ctx, stored); err != nil {
			if errors.Is(err, persistence.ErrVersionConflict) {
				continue
			}
			return refreshed, mapSessionUpdateError(err)
		}
		refreshed++
	}

	if refreshed > 0 {
		logger.InfoContext(ctx, "stale proposals refreshed", "sessions", refreshed)
	}
	return refreshed, nil
}

// CloseIdleSessions expires sessions, active or confirmed, idle for longer
// than idleFor. An expired confirmed session keeps its booking. Returns how
// many sessions were closed.
func (s *SessionService) CloseIdleSessions(ctx context.Context, idleFor time.Duration) (int, error) {
	if s == nil {
		return 0, fmt.Errorf("SessionService is nil")
	}
	logger := serviceLogger(ctx, s.logger, "session", "close_idle")

	now := s.now()
	idle, err := s.sessions.ListOpenUpdatedBefore(ctx, now.Add(-idleFor))
	if err != nil {
		return 0, mapRepoError(err)
	}

	closed := 0
	for _, stored := range idle {
		stored.Status = persistence.SessionStatusExpired
		stored.UpdatedAt = now
		if _, err := s.sessions.UpdateSession(ctx, stored); err != nil {
			if errors.Is(err, persistence.ErrVersionConflict) {
				continue
			}
			return closed, mapSessionUpdateError(err)
		}
		closed++
	}

	if closed > 0 {
		logger.InfoContext(ctx, "idle sessions expired", "sessions", closed)
	}
	return closed, nil
}

// handleLostSlot keeps the session active with a fresh slate when the
// selected slot is no longer free, and reports the conflict to the caller.
func (s *SessionService) handleLostSlot(ctx context.Context, logger *slog.Logger, stored persistence.Session, session NegotiationSession, calendar scheduler.ParticipantCalendar, selected scheduler.Slot, conflicts []scheduler.ConflictEntry, now time.Time) (NegotiationSession, error) {
	alternatives, altErr := scheduler.FindAlternatives(calendar.Profile, calendar.Bookings, calendar.Blocks, scheduler.AlternativeQuery{
		RequestedStart: selected.Start,
		Duration:       selected.End.Sub(selected.Start),
		MaxSlots:       session.Request.MaxSlots,
		MaxDaysAhead:   7,
		Now:            now,
	})
	if altErr != nil {
		return NegotiationSession{}, mapEngineError(altErr)
	}

	if len(alternatives) > 0 {
		var err error
		if _, stored.ProposalsJSON, err = encodeSnapshots(session.Request, alternatives); err != nil {
			return NegotiationSession{}, err
		}
		stored.ProposedAt = now
		stored.UpdatedAt = now
		if _, err := s.sessions.UpdateSession(ctx, stored); err != nil && !errors.Is(err, persistence.ErrVersionConflict) {
			return NegotiationSession{}, mapSessionUpdateError(err)
		}
	}

	logger.InfoContext(ctx, "selected slot no longer free", "start", selected.Start, "alternatives", len(alternatives))
	return NegotiationSession{}, &ConflictError{Conflicts: conflicts, Alternatives: alternatives}
}

// computeProposals runs the availability engine for the organizer,
// excluding the neighborhood of a rejected start when one is given.
func (s *SessionService) computeProposals(ctx context.Context, organizerID string, request StructuredRequest, now time.Time, rejected time.Time) ([]scheduler.Slot, error) {
	from, to := s.loader.queryWindow(now, s.loader.defaults)
	calendar, err := s.loader.calendarFor(ctx, organizerID, from, to)
	if err != nil {
		return nil, err
	}
	if !calendar.Resolvable {
		return nil, ErrNotFound
	}

	if !rejected.IsZero() {
		return scheduler.FindAlternatives(calendar.Profile, calendar.Bookings, calendar.Blocks, scheduler.AlternativeQuery{
			RequestedStart: rejected,
			Duration:       request.Duration(),
			MaxSlots:       request.MaxSlots,
			MaxDaysAhead:   calendar.Profile.Horizon(),
			Preferences:    request.Preferences(),
			Now:            now,
		})
	}

	slots, err := scheduler.ComputeAvailability(calendar.Profile, calendar.Bookings, calendar.Blocks, scheduler.AvailabilityQuery{
		Duration:    request.Duration(),
		Preferences: request.Preferences(),
		MaxSlots:    request.MaxSlots,
		Now:         now,
	})
	if err != nil {
		return nil, mapEngineError(err)
	}
	return slots, nil
}

func (s *SessionService) lockSession(id string) func() {
	s.locksMu.Lock()
	lock, ok := s.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[id] = lock
	}
	s.locksMu.Unlock()

	lock.Lock()
	return lock.Unlock
}

func (s *SessionService) invalidateSlots() {
	if s.availability != nil {
		s.availability.InvalidateCache()
	}
}

func ensureActive(stored persistence.Session) error {
	switch stored.Status {
	case persistence.SessionStatusActive:
		return nil
	case persistence.SessionStatusConfirmed:
		return ErrAlreadyScheduled
	default:
		return ErrSessionClosed
	}
}

func bookingTitle(request StructuredRequest) string {
	if request.Title != "" {
		return request.Title
	}
	return "Meeting"
}

func encodeSnapshots(request StructuredRequest, proposals []scheduler.Slot) (string, string, error) {
	requestJSON, err := json.Marshal(request)
	if err != nil {
		return "", "", fmt.Errorf("failed to encode request: %w", err)
	}
	if proposals == nil {
		proposals = []scheduler.Slot{}
	}
	proposalsJSON, err := json.Marshal(proposals)
	if err != nil {
		return "", "", fmt.Errorf("failed to encode proposals: %w", err)
	}
	return string(requestJSON), string(proposalsJSON), nil
}

func decodeSession(stored persistence.Session) (NegotiationSession, error) {
	session := NegotiationSession{
		ID:            stored.ID,
		OrganizerID:   stored.OrganizerID,
		Status:        stored.Status,
		SelectedStart: stored.SelectedStart,
		SelectedEnd:   stored.SelectedEnd,
		BookingID:     stored.BookingID,
		Version:       stored.Version,
		ProposedAt:    stored.ProposedAt,
		CreatedAt:     stored.CreatedAt,
		UpdatedAt:     stored.UpdatedAt,
	}
	if stored.RequestJSON != "" {
		if err := json.Unmarshal([]byte(stored.RequestJSON), &session.Request); err != nil {
			return NegotiationSession{}, fmt.Errorf("failed to decode request snapshot: %w", err)
		}
	}
	if stored.ProposalsJSON != "" {
		if err := json.Unmarshal([]byte(stored.ProposalsJSON), &session.Proposals); err != nil {
			return NegotiationSession{}, fmt.Errorf("failed to decode proposal snapshot: %w", err)
		}
	}
	return session, nil
}

func mapSessionUpdateError(err error) error {
	if errors.Is(err, persistence.ErrVersionConflict) {
		return ErrStaleSession
	}
	return mapRepoError(err)
}
