package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Joy52-cyber/schedulesync-web-sub001/internal/application"
	"github.com/Joy52-cyber/schedulesync-web-sub001/internal/recurrence"
	"github.com/Joy52-cyber/schedulesync-web-sub001/internal/scheduler"
)

type sessionService interface {
	Propose(ctx context.Context, params application.ProposeSessionParams) (application.NegotiationSession, error)
	GetSession(ctx context.Context, id string) (application.NegotiationSession, error)
	SelectSlot(ctx context.Context, params application.SelectSlotParams) (application.NegotiationSession, error)
	Reschedule(ctx context.Context, params application.RescheduleParams) (application.NegotiationSession, error)
	Cancel(ctx context.Context, sessionID string) (application.NegotiationSession, error)
}

type SessionHandler struct {
	service   sessionService
	responder responder
}

func NewSessionHandler(service sessionService, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{service: service, responder: newResponder(logger)}
}

func (h *SessionHandler) Propose(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req proposeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	params := application.ProposeSessionParams{
		OrganizerID: strings.TrimSpace(req.OrganizerID),
		Utterance:   strings.TrimSpace(req.Utterance),
	}
	if req.Request != nil {
		structured, err := req.Request.toStructuredRequest()
		if err != nil {
			h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
			return
		}
		params.Request = &structured
	}

	session, err := h.service.Propose(r.Context(), params)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toSessionDTO(session))
}

func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id := pathID(r, "id")
	if id == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingPathID)
		return
	}

	session, err := h.service.GetSession(r.Context(), id)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toSessionDTO(session))
}

func (h *SessionHandler) Select(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id := pathID(r, "id")
	if id == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingPathID)
		return
	}

	var req selectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	session, err := h.service.SelectSlot(r.Context(), application.SelectSlotParams{
		SessionID: id,
		Start:     parseTime(req.Start),
		Version:   req.Version,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toSessionDTO(session))
}

func (h *SessionHandler) Reschedule(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id := pathID(r, "id")
	if id == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingPathID)
		return
	}

	var req rescheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	session, err := h.service.Reschedule(r.Context(), application.RescheduleParams{
		SessionID:     id,
		RejectedStart: parseTime(req.RejectedStart),
		Version:       req.Version,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toSessionDTO(session))
}

func (h *SessionHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id := pathID(r, "id")
	if id == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingPathID)
		return
	}

	session, err := h.service.Cancel(r.Context(), id)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toSessionDTO(session))
}

type proposeRequest struct {
	OrganizerID string                 `json:"organizer_id"`
	Utterance   string                 `json:"utterance,omitempty"`
	Request     *structuredRequestBody `json:"request,omitempty"`
}

type structuredRequestBody struct {
	Title           string   `json:"title,omitempty"`
	DurationMinutes int      `json:"duration_minutes"`
	Attendees       []string `json:"attendees,omitempty"`
	RecurrenceHint  string   `json:"recurrence_hint,omitempty"`
	MaxSlots        int      `json:"max_slots,omitempty"`
	preferenceFields
}

func (b structuredRequestBody) toStructuredRequest() (application.StructuredRequest, error) {
	weekdays, band, clockRange, week, err := b.decode()
	if err != nil {
		return application.StructuredRequest{}, err
	}

	request := application.StructuredRequest{
		Title:           strings.TrimSpace(b.Title),
		DurationMinutes: b.DurationMinutes,
		Attendees:       trimAll(b.Attendees),
		Weekdays:        weekdays,
		Band:            band,
		ClockRange:      clockRange,
		Week:            week,
		RecurrenceHint:  strings.TrimSpace(b.RecurrenceHint),
		MaxSlots:        b.MaxSlots,
	}
	if request.RecurrenceHint != "" {
		request.Recurrence = recurrence.Parse(request.RecurrenceHint)
	}
	return request, nil
}

type selectRequest struct {
	Start   string `json:"start"`
	Version int    `json:"version,omitempty"`
}

type rescheduleRequest struct {
	RejectedStart string `json:"rejected_start"`
	Version       int    `json:"version,omitempty"`
}

type sessionDTO struct {
	ID            string               `json:"id"`
	OrganizerID   string               `json:"organizer_id"`
	Status        string               `json:"status"`
	Request       structuredRequestDTO `json:"request"`
	Proposals     []scheduler.Slot     `json:"proposals"`
	SelectedStart *string              `json:"selected_start,omitempty"`
	SelectedEnd   *string              `json:"selected_end,omitempty"`
	BookingID     *string              `json:"booking_id,omitempty"`
	Version       int                  `json:"version"`
	ProposedAt    string               `json:"proposed_at"`
	CreatedAt     string               `json:"created_at"`
	UpdatedAt     string               `json:"updated_at"`
}

type structuredRequestDTO struct {
	Title           string         `json:"title,omitempty"`
	DurationMinutes int            `json:"duration_minutes"`
	Attendees       []string       `json:"attendees,omitempty"`
	Weekdays        []string       `json:"weekdays,omitempty"`
	Band            string         `json:"band,omitempty"`
	ClockRange      *clockRangeDTO `json:"clock_range,omitempty"`
	Week            string         `json:"week,omitempty"`
	RecurrenceHint  string         `json:"recurrence_hint,omitempty"`
	Recurrence      *descriptorDTO `json:"recurrence,omitempty"`
	MaxSlots        int            `json:"max_slots,omitempty"`
}

func toSessionDTO(session application.NegotiationSession) sessionDTO {
	return sessionDTO{
		ID:            session.ID,
		OrganizerID:   session.OrganizerID,
		Status:        session.Status,
		Request:       toStructuredRequestDTO(session.Request),
		Proposals:     session.Proposals,
		SelectedStart: formatTimePtr(session.SelectedStart),
		SelectedEnd:   formatTimePtr(session.SelectedEnd),
		BookingID:     session.BookingID,
		Version:       session.Version,
		ProposedAt:    formatTime(session.ProposedAt),
		CreatedAt:     formatTime(session.CreatedAt),
		UpdatedAt:     formatTime(session.UpdatedAt),
	}
}

func toStructuredRequestDTO(request application.StructuredRequest) structuredRequestDTO {
	dto := structuredRequestDTO{
		Title:           request.Title,
		DurationMinutes: request.DurationMinutes,
		Attendees:       append([]string(nil), request.Attendees...),
		Band:            string(request.Band),
		Week:            string(request.Week),
		RecurrenceHint:  request.RecurrenceHint,
		Recurrence:      toDescriptorDTO(request.Recurrence),
		MaxSlots:        request.MaxSlots,
	}
	for _, day := range request.Weekdays {
		dto.Weekdays = append(dto.Weekdays, strings.ToLower(day.String()))
	}
	if request.ClockRange != nil {
		dto.ClockRange = &clockRangeDTO{
			Start: request.ClockRange.Start.String(),
			End:   request.ClockRange.End.String(),
		}
	}
	return dto
}
