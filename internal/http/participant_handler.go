package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/Joy52-cyber/schedulesync-web-sub001/internal/application"
	"github.com/Joy52-cyber/schedulesync-web-sub001/internal/scheduler"
)

type participantService interface {
	CreateParticipant(ctx context.Context, input application.ParticipantInput) (application.Participant, error)
	UpdateParticipant(ctx context.Context, id string, input application.ParticipantInput) (application.Participant, error)
	GetParticipant(ctx context.Context, reference string) (application.Participant, error)
	ListParticipants(ctx context.Context) ([]application.Participant, error)
	DeleteParticipant(ctx context.Context, id string) error
	SetAvailabilityPolicy(ctx context.Context, participantID string, input application.AvailabilityPolicyInput) (scheduler.WorkingHoursProfile, error)
	GetAvailabilityPolicy(ctx context.Context, participantID string) (scheduler.WorkingHoursProfile, error)
	CreateBlockedInterval(ctx context.Context, ownerID string, start, end time.Time, reason string) (application.BlockedInterval, error)
	ListBlockedIntervals(ctx context.Context, ownerID string, from, to time.Time) ([]application.BlockedInterval, error)
	DeleteBlockedInterval(ctx context.Context, id string) error
	ListBookings(ctx context.Context, ownerID string, from, to time.Time, statuses []string) ([]application.Booking, error)
}

type ParticipantHandler struct {
	service   participantService
	responder responder
}

func NewParticipantHandler(service participantService, logger *slog.Logger) *ParticipantHandler {
	return &ParticipantHandler{service: service, responder: newResponder(logger)}
}

func (h *ParticipantHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req participantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	participant, err := h.service.CreateParticipant(r.Context(), req.toInput())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toParticipantDTO(participant))
}

func (h *ParticipantHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	participants, err := h.service.ListParticipants(r.Context())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	dtos := make([]participantDTO, 0, len(participants))
	for _, participant := range participants {
		dtos = append(dtos, toParticipantDTO(participant))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listParticipantsResponse{Participants: dtos})
}

func (h *ParticipantHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id := pathID(r, "id")
	if id == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingPathID)
		return
	}

	participant, err := h.service.GetParticipant(r.Context(), id)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toParticipantDTO(participant))
}

func (h *ParticipantHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id := pathID(r, "id")
	if id == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingPathID)
		return
	}

	var req participantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	participant, err := h.service.UpdateParticipant(r.Context(), id, req.toInput())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toParticipantDTO(participant))
}

func (h *ParticipantHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id := pathID(r, "id")
	if id == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingPathID)
		return
	}

	if err := h.service.DeleteParticipant(r.Context(), id); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *ParticipantHandler) GetPolicy(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id := pathID(r, "id")
	if id == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingPathID)
		return
	}

	profile, err := h.service.GetAvailabilityPolicy(r.Context(), id)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toPolicyDTO(profile))
}

func (h *ParticipantHandler) SetPolicy(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id := pathID(r, "id")
	if id == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingPathID)
		return
	}

	var req policyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	profile, err := h.service.SetAvailabilityPolicy(r.Context(), id, req.toInput())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toPolicyDTO(profile))
}

func (h *ParticipantHandler) CreateBlock(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id := pathID(r, "id")
	if id == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingPathID)
		return
	}

	var req blockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	block, err := h.service.CreateBlockedInterval(r.Context(), id, parseTime(req.Start), parseTime(req.End), strings.TrimSpace(req.Reason))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toBlockDTO(block))
}

func (h *ParticipantHandler) ListBlocks(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id := pathID(r, "id")
	if id == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingPathID)
		return
	}

	from := parseTime(r.URL.Query().Get("from"))
	to := parseTime(r.URL.Query().Get("to"))

	blocks, err := h.service.ListBlockedIntervals(r.Context(), id, from, to)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	dtos := make([]blockDTO, 0, len(blocks))
	for _, block := range blocks {
		dtos = append(dtos, toBlockDTO(block))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listBlocksResponse{Blocks: dtos})
}

func (h *ParticipantHandler) DeleteBlock(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id := pathID(r, "blockID")
	if id == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingPathID)
		return
	}

	if err := h.service.DeleteBlockedInterval(r.Context(), id); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *ParticipantHandler) ListBookings(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id := pathID(r, "id")
	if id == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingPathID)
		return
	}

	query := r.URL.Query()
	from := parseTime(query.Get("from"))
	to := parseTime(query.Get("to"))
	statuses := parseCSV(query.Get("statuses"))

	bookings, err := h.service.ListBookings(r.Context(), id, from, to, statuses)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	dtos := make([]bookingDTO, 0, len(bookings))
	for _, booking := range bookings {
		dtos = append(dtos, toBookingDTO(booking))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listBookingsResponse{Bookings: dtos})
}

func pathID(r *http.Request, name string) string {
	return strings.TrimSpace(mux.Vars(r)[name])
}

type participantRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Timezone    string `json:"timezone"`
}

func (r participantRequest) toInput() application.ParticipantInput {
	return application.ParticipantInput{
		Email:       strings.TrimSpace(r.Email),
		DisplayName: strings.TrimSpace(r.DisplayName),
		Timezone:    strings.TrimSpace(r.Timezone),
	}
}

type participantDTO struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Timezone    string `json:"timezone"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

func toParticipantDTO(participant application.Participant) participantDTO {
	return participantDTO{
		ID:          participant.ID,
		Email:       participant.Email,
		DisplayName: participant.DisplayName,
		Timezone:    participant.Timezone,
		CreatedAt:   formatTime(participant.CreatedAt),
		UpdatedAt:   formatTime(participant.UpdatedAt),
	}
}

type listParticipantsResponse struct {
	Participants []participantDTO `json:"participants"`
}

// dayRuleDTO is one weekday's bookable window. The days array is indexed
// Sunday through Saturday.
type dayRuleDTO struct {
	Enabled bool   `json:"enabled"`
	Start   string `json:"start,omitempty"`
	End     string `json:"end,omitempty"`
}

type policyRequest struct {
	Days               [7]dayRuleDTO `json:"days"`
	BufferMinutes      int           `json:"buffer_minutes"`
	LeadTimeHours      int           `json:"lead_time_hours"`
	BookingHorizonDays int           `json:"booking_horizon_days"`
}

func (r policyRequest) toInput() application.AvailabilityPolicyInput {
	input := application.AvailabilityPolicyInput{
		BufferMinutes:      r.BufferMinutes,
		LeadTimeHours:      r.LeadTimeHours,
		BookingHorizonDays: r.BookingHorizonDays,
	}
	for i, day := range r.Days {
		input.Days[i] = application.DayRuleInput{
			Enabled: day.Enabled,
			Start:   strings.TrimSpace(day.Start),
			End:     strings.TrimSpace(day.End),
		}
	}
	return input
}

type policyDTO struct {
	Days               [7]dayRuleDTO `json:"days"`
	BufferMinutes      int           `json:"buffer_minutes"`
	LeadTimeHours      int           `json:"lead_time_hours"`
	BookingHorizonDays int           `json:"booking_horizon_days"`
	Timezone           string        `json:"timezone"`
}

func toPolicyDTO(profile scheduler.WorkingHoursProfile) policyDTO {
	dto := policyDTO{
		BufferMinutes:      profile.BufferMinutes,
		LeadTimeHours:      profile.LeadTimeHours,
		BookingHorizonDays: profile.BookingHorizonDays,
		Timezone:           profile.Timezone,
	}
	for i, day := range profile.Days {
		rule := dayRuleDTO{Enabled: day.Enabled}
		if day.Enabled {
			rule.Start = day.Start.String()
			rule.End = day.End.String()
		}
		dto.Days[i] = rule
	}
	return dto
}

type blockRequest struct {
	Start  string `json:"start"`
	End    string `json:"end"`
	Reason string `json:"reason"`
}

type blockDTO struct {
	ID        string `json:"id"`
	OwnerID   string `json:"owner_id"`
	Start     string `json:"start"`
	End       string `json:"end"`
	Reason    string `json:"reason,omitempty"`
	CreatedAt string `json:"created_at"`
}

func toBlockDTO(block application.BlockedInterval) blockDTO {
	return blockDTO{
		ID:        block.ID,
		OwnerID:   block.OwnerID,
		Start:     formatTime(block.Start),
		End:       formatTime(block.End),
		Reason:    block.Reason,
		CreatedAt: formatTime(block.CreatedAt),
	}
}

type listBlocksResponse struct {
	Blocks []blockDTO `json:"blocks"`
}

type bookingDTO struct {
	ID               string   `json:"id"`
	OwnerID          string   `json:"owner_id"`
	Title            string   `json:"title"`
	Start            string   `json:"start"`
	End              string   `json:"end"`
	Status           string   `json:"status"`
	Attendees        []string `json:"attendees,omitempty"`
	RecurrenceRule   *string  `json:"recurrence_rule,omitempty"`
	RecurrenceEnd    *string  `json:"recurrence_end,omitempty"`
	TeamID           *string  `json:"team_id,omitempty"`
	AssignedMemberID *string  `json:"assigned_member_id,omitempty"`
	SessionID        *string  `json:"session_id,omitempty"`
	CreatedAt        string   `json:"created_at"`
	UpdatedAt        string   `json:"updated_at"`
}

func toBookingDTO(booking application.Booking) bookingDTO {
	return bookingDTO{
		ID:               booking.ID,
		OwnerID:          booking.OwnerID,
		Title:            booking.Title,
		Start:            formatTime(booking.Start),
		End:              formatTime(booking.End),
		Status:           booking.Status,
		Attendees:        append([]string(nil), booking.Attendees...),
		RecurrenceRule:   booking.RecurrenceRule,
		RecurrenceEnd:    formatTimePtr(booking.RecurrenceEnd),
		TeamID:           booking.TeamID,
		AssignedMemberID: booking.AssignedMemberID,
		SessionID:        booking.SessionID,
		CreatedAt:        formatTime(booking.CreatedAt),
		UpdatedAt:        formatTime(booking.UpdatedAt),
	}
}

type listBookingsResponse struct {
	Bookings []bookingDTO `json:"bookings"`
}
