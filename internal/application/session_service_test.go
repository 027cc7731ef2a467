package application

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Joy52-cyber/schedulesync-web-sub001/internal/persistence"
	"github.com/Joy52-cyber/schedulesync-web-sub001/internal/scheduler"
)

// sessionTestEnv bundles the fakes behind a SessionService so tests can
// reach into storage directly.
type sessionTestEnv struct {
	service  *SessionService
	sessions *fakeSessionRepo
	bookings *fakeBookingRepo
	policies *fakePolicyRepo
	blocks   *fakeBlockedRepo
	now      time.Time
}

// Tuesday morning, well inside the default Monday-to-Friday window.
var sessionNow = time.Date(2026, time.January, 6, 8, 0, 0, 0, time.UTC)

func newSessionTestEnv(t *testing.T) *sessionTestEnv {
	t.Helper()

	participants := newFakeParticipantRepo()
	require.NoError(t, participants.CreateParticipant(context.Background(), persistence.Participant{
		ID:        "org-1",
		Email:     "organizer@example.com",
		Timezone:  "UTC",
		CreatedAt: sessionNow,
		UpdatedAt: sessionNow,
	}))

	policies := newFakePolicyRepo()
	bookings := newFakeBookingRepo()
	blocks := newFakeBlockedRepo()
	sessions := newFakeSessionRepo()

	counter := 0
	idGenerator := func() string {
		counter++
		return fmt.Sprintf("id-%d", counter)
	}

	service := NewSessionService(
		sessions, participants, policies, bookings, blocks,
		scheduler.DefaultProfile("UTC"),
		nil, nil,
		idGenerator,
		func() time.Time { return sessionNow },
		nil,
	)

	return &sessionTestEnv{
		service:  service,
		sessions: sessions,
		bookings: bookings,
		policies: policies,
		blocks:   blocks,
		now:      sessionNow,
	}
}

func (e *sessionTestEnv) propose(t *testing.T) NegotiationSession {
	t.Helper()
	session, err := e.service.Propose(context.Background(), ProposeSessionParams{
		OrganizerID: "org-1",
		Utterance:   "set up a 30 minute sync on tuesday morning",
	})
	require.NoError(t, err)
	return session
}

func TestSessionService_Propose_FromUtterance(t *testing.T) {
	t.Parallel()
	env := newSessionTestEnv(t)

	session := env.propose(t)

	assert.Equal(t, persistence.SessionStatusActive, session.Status)
	assert.Equal(t, "org-1", session.OrganizerID)
	assert.Equal(t, 1, session.Version)
	assert.Equal(t, 30, session.Request.DurationMinutes)
	assert.Equal(t, []time.Weekday{time.Tuesday}, session.Request.Weekdays)
	assert.Equal(t, scheduler.BandMorning, session.Request.Band)

	require.NotEmpty(t, session.Proposals)
	first := session.Proposals[0]
	assert.Equal(t, time.Date(2026, time.January, 6, 9, 0, 0, 0, time.UTC), first.Start)
	for _, slot := range session.Proposals {
		assert.Equal(t, time.Tuesday, slot.Start.Weekday())
		assert.True(t, slot.Start.Hour() >= 9 && slot.End.Hour() <= 12)
	}

	stored, err := env.sessions.GetSession(context.Background(), session.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, stored.RequestJSON)
	assert.NotEmpty(t, stored.ProposalsJSON)
}

func TestSessionService_Propose_NoAvailabilityLeavesNoSession(t *testing.T) {
	t.Parallel()
	env := newSessionTestEnv(t)

	// A policy with every weekday disabled leaves nothing bookable.
	require.NoError(t, env.policies.UpsertPolicy(context.Background(), persistence.AvailabilityPolicy{
		ParticipantID:      "org-1",
		BookingHorizonDays: 14,
		UpdatedAt:          env.now,
	}))

	_, err := env.service.Propose(context.Background(), ProposeSessionParams{
		OrganizerID: "org-1",
		Utterance:   "quick chat tomorrow",
	})
	require.ErrorIs(t, err, ErrNoAvailability)
	assert.Empty(t, env.sessions.sessions)
}

func TestSessionService_Propose_UnknownOrganizer(t *testing.T) {
	t.Parallel()
	env := newSessionTestEnv(t)

	_, err := env.service.Propose(context.Background(), ProposeSessionParams{
		OrganizerID: "ghost",
		Utterance:   "30 minute chat",
	})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSessionService_Propose_RequiresInput(t *testing.T) {
	t.Parallel()
	env := newSessionTestEnv(t)

	_, err := env.service.Propose(context.Background(), ProposeSessionParams{OrganizerID: "org-1"})

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.FieldErrors, "request")
}

func TestSessionService_SelectSlot_ConfirmsAndBooks(t *testing.T) {
	t.Parallel()
	env := newSessionTestEnv(t)
	session := env.propose(t)
	chosen := session.Proposals[1]

	updated, err := env.service.SelectSlot(context.Background(), SelectSlotParams{
		SessionID: session.ID,
		Start:     chosen.Start,
		Version:   session.Version,
	})
	require.NoError(t, err)

	assert.Equal(t, persistence.SessionStatusConfirmed, updated.Status)
	assert.Equal(t, 2, updated.Version)
	require.NotNil(t, updated.SelectedStart)
	assert.True(t, updated.SelectedStart.Equal(chosen.Start))
	require.NotNil(t, updated.BookingID)

	booking, err := env.bookings.GetBooking(context.Background(), *updated.BookingID)
	require.NoError(t, err)
	assert.Equal(t, "org-1", booking.OwnerID)
	assert.Equal(t, persistence.BookingStatusConfirmed, booking.Status)
	assert.True(t, booking.Start.Equal(chosen.Start))
	require.NotNil(t, booking.SessionID)
	assert.Equal(t, session.ID, *booking.SessionID)
}

func TestSessionService_SelectSlot_TakenSlotKeepsSessionActive(t *testing.T) {
	t.Parallel()
	env := newSessionTestEnv(t)
	session := env.propose(t)
	chosen := session.Proposals[0]

	// Another writer books the same interval between propose and select.
	require.NoError(t, env.bookings.CreateBooking(context.Background(), persistence.Booking{
		ID:        "squatter",
		OwnerID:   "org-1",
		Title:     "Standup",
		Start:     chosen.Start,
		End:       chosen.End,
		Status:    persistence.BookingStatusConfirmed,
		CreatedAt: env.now,
		UpdatedAt: env.now,
	}))

	_, err := env.service.SelectSlot(context.Background(), SelectSlotParams{
		SessionID: session.ID,
		Start:     chosen.Start,
		Version:   session.Version,
	})

	var conflictErr *ConflictError
	require.ErrorAs(t, err, &conflictErr)
	assert.NotEmpty(t, conflictErr.Alternatives)
	for _, slot := range conflictErr.Alternatives {
		assert.False(t, slot.Start.Equal(chosen.Start))
	}

	stored, getErr := env.sessions.GetSession(context.Background(), session.ID)
	require.NoError(t, getErr)
	assert.Equal(t, persistence.SessionStatusActive, stored.Status)
	assert.Equal(t, 2, stored.Version)
}

func TestSessionService_SelectSlot_Guards(t *testing.T) {
	t.Parallel()
	env := newSessionTestEnv(t)
	session := env.propose(t)

	t.Run("stale version", func(t *testing.T) {
		_, err := env.service.SelectSlot(context.Background(), SelectSlotParams{
			SessionID: session.ID,
			Start:     session.Proposals[0].Start,
			Version:   99,
		})
		require.ErrorIs(t, err, ErrStaleSession)
	})

	t.Run("unproposed start", func(t *testing.T) {
		_, err := env.service.SelectSlot(context.Background(), SelectSlotParams{
			SessionID: session.ID,
			Start:     env.now.AddDate(0, 0, 3),
		})
		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Contains(t, vErr.FieldErrors, "start")
	})

	t.Run("missing session", func(t *testing.T) {
		_, err := env.service.SelectSlot(context.Background(), SelectSlotParams{
			SessionID: "nope",
			Start:     session.Proposals[0].Start,
		})
		require.ErrorIs(t, err, ErrNotFound)
	})
}

func TestSessionService_SelectSlot_AfterConfirmation(t *testing.T) {
	t.Parallel()
	env := newSessionTestEnv(t)
	session := env.propose(t)

	_, err := env.service.SelectSlot(context.Background(), SelectSlotParams{
		SessionID: session.ID,
		Start:     session.Proposals[0].Start,
	})
	require.NoError(t, err)

	_, err = env.service.SelectSlot(context.Background(), SelectSlotParams{
		SessionID: session.ID,
		Start:     session.Proposals[0].Start,
	})
	require.ErrorIs(t, err, ErrAlreadyScheduled)
}

func TestSessionService_Reschedule_AvoidsRejectedTime(t *testing.T) {
	t.Parallel()
	env := newSessionTestEnv(t)
	session := env.propose(t)
	rejected := session.Proposals[0].Start

	updated, err := env.service.Reschedule(context.Background(), RescheduleParams{
		SessionID:     session.ID,
		RejectedStart: rejected,
		Version:       session.Version,
	})
	require.NoError(t, err)

	assert.Equal(t, persistence.SessionStatusActive, updated.Status)
	assert.Equal(t, 2, updated.Version)
	require.NotEmpty(t, updated.Proposals)
	for _, slot := range updated.Proposals {
		gap := slot.Start.Sub(rejected)
		if gap < 0 {
			gap = -gap
		}
		assert.GreaterOrEqual(t, gap, 30*time.Minute, "slot %v sits in the rejected neighborhood", slot.Start)
	}
}

func TestSessionService_Reschedule_ConfirmedReleasesBooking(t *testing.T) {
	t.Parallel()
	env := newSessionTestEnv(t)
	session := env.propose(t)
	chosen := session.Proposals[0]

	confirmed, err := env.service.SelectSlot(context.Background(), SelectSlotParams{
		SessionID: session.ID,
		Start:     chosen.Start,
		Version:   session.Version,
	})
	require.NoError(t, err)
	require.NotNil(t, confirmed.BookingID)

	updated, err := env.service.Reschedule(context.Background(), RescheduleParams{
		SessionID:     session.ID,
		RejectedStart: chosen.Start,
		Version:       confirmed.Version,
	})
	require.NoError(t, err)

	assert.Equal(t, persistence.SessionStatusActive, updated.Status)
	assert.Nil(t, updated.BookingID)
	assert.Nil(t, updated.SelectedStart)
	assert.Nil(t, updated.SelectedEnd)
	require.NotEmpty(t, updated.Proposals)

	booking, err := env.bookings.GetBooking(context.Background(), *confirmed.BookingID)
	require.NoError(t, err)
	assert.Equal(t, persistence.BookingStatusCancelled, booking.Status)
}

func TestSessionService_Reschedule_ClosedSession(t *testing.T) {
	t.Parallel()
	env := newSessionTestEnv(t)
	session := env.propose(t)

	_, err := env.service.Cancel(context.Background(), session.ID)
	require.NoError(t, err)

	_, err = env.service.Reschedule(context.Background(), RescheduleParams{
		SessionID:     session.ID,
		RejectedStart: session.Proposals[0].Start,
	})
	require.ErrorIs(t, err, ErrSessionClosed)
}

func TestSessionService_Cancel(t *testing.T) {
	t.Parallel()

	t.Run("active session", func(t *testing.T) {
		env := newSessionTestEnv(t)
		session := env.propose(t)

		cancelled, err := env.service.Cancel(context.Background(), session.ID)
		require.NoError(t, err)
		assert.Equal(t, persistence.SessionStatusCancelled, cancelled.Status)
	})

	t.Run("confirmed session cancels its booking", func(t *testing.T) {
		env := newSessionTestEnv(t)
		session := env.propose(t)

		confirmed, err := env.service.SelectSlot(context.Background(), SelectSlotParams{
			SessionID: session.ID,
			Start:     session.Proposals[0].Start,
		})
		require.NoError(t, err)

		cancelled, err := env.service.Cancel(context.Background(), session.ID)
		require.NoError(t, err)
		assert.Equal(t, persistence.SessionStatusCancelled, cancelled.Status)

		booking, err := env.bookings.GetBooking(context.Background(), *confirmed.BookingID)
		require.NoError(t, err)
		assert.Equal(t, persistence.BookingStatusCancelled, booking.Status)
	})

	t.Run("already closed", func(t *testing.T) {
		env := newSessionTestEnv(t)
		session := env.propose(t)

		_, err := env.service.Cancel(context.Background(), session.ID)
		require.NoError(t, err)

		_, err = env.service.Cancel(context.Background(), session.ID)
		require.ErrorIs(t, err, ErrSessionClosed)
	})
}

func TestSessionService_RefreshStaleProposals(t *testing.T) {
	t.Parallel()
	env := newSessionTestEnv(t)
	session := env.propose(t)

	// Age the slate past the refresh threshold.
	stored, err := env.sessions.GetSession(context.Background(), session.ID)
	require.NoError(t, err)
	stored.ProposedAt = env.now.Add(-48 * time.Hour)
	stored, err = env.sessions.UpdateSession(context.Background(), stored)
	require.NoError(t, err)

	refreshed, err := env.service.RefreshStaleProposals(context.Background(), 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, refreshed)

	after, err := env.sessions.GetSession(context.Background(), session.ID)
	require.NoError(t, err)
	assert.True(t, after.ProposedAt.Equal(env.now))
	assert.Greater(t, after.Version, stored.Version)
}

func TestSessionService_CloseIdleSessions(t *testing.T) {
	t.Parallel()
	env := newSessionTestEnv(t)
	session := env.propose(t)
	fresh := env.propose(t)

	stored, err := env.sessions.GetSession(context.Background(), session.ID)
	require.NoError(t, err)
	stored.UpdatedAt = env.now.Add(-8 * 24 * time.Hour)
	_, err = env.sessions.UpdateSession(context.Background(), stored)
	require.NoError(t, err)

	closed, err := env.service.CloseIdleSessions(context.Background(), 7*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, closed)

	expired, err := env.sessions.GetSession(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, persistence.SessionStatusExpired, expired.Status)

	untouched, err := env.sessions.GetSession(context.Background(), fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, persistence.SessionStatusActive, untouched.Status)
}

func TestSessionService_CloseIdleSessions_IncludesConfirmed(t *testing.T) {
	t.Parallel()
	env := newSessionTestEnv(t)
	session := env.propose(t)

	confirmed, err := env.service.SelectSlot(context.Background(), SelectSlotParams{
		SessionID: session.ID,
		Start:     session.Proposals[0].Start,
	})
	require.NoError(t, err)

	stored, err := env.sessions.GetSession(context.Background(), session.ID)
	require.NoError(t, err)
	stored.UpdatedAt = env.now.Add(-8 * 24 * time.Hour)
	_, err = env.sessions.UpdateSession(context.Background(), stored)
	require.NoError(t, err)

	closed, err := env.service.CloseIdleSessions(context.Background(), 7*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, closed)

	expired, err := env.sessions.GetSession(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, persistence.SessionStatusExpired, expired.Status)

	// The booking survives; only the negotiation thread closes.
	booking, err := env.bookings.GetBooking(context.Background(), *confirmed.BookingID)
	require.NoError(t, err)
	assert.Equal(t, persistence.BookingStatusConfirmed, booking.Status)
}

func TestSessionService_GetSession_RoundTripsSnapshots(t *testing.T) {
	t.Parallel()
	env := newSessionTestEnv(t)
	session := env.propose(t)

	loaded, err := env.service.GetSession(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, session.Request, loaded.Request)
	assert.Equal(t, session.Proposals, loaded.Proposals)

	_, err = env.service.GetSession(context.Background(), "missing")
	require.True(t, errors.Is(err, ErrNotFound))
}
