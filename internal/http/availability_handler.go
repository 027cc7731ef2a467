package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Joy52-cyber/schedulesync-web-sub001/internal/application"
	"github.com/Joy52-cyber/schedulesync-web-sub001/internal/recurrence"
	"github.com/Joy52-cyber/schedulesync-web-sub001/internal/scheduler"
)

type availabilityService interface {
	ComputeAvailability(ctx context.Context, params application.AvailabilityParams) ([]scheduler.Slot, error)
	CheckConflict(ctx context.Context, params application.ConflictCheckParams) (application.ConflictCheckResult, error)
	ParseRecurrence(hint string, start, end time.Time, maxInstances int) (*recurrence.Descriptor, string, []recurrence.Instance, error)
}

type AvailabilityHandler struct {
	service   availabilityService
	responder responder
}

func NewAvailabilityHandler(service availabilityService, logger *slog.Logger) *AvailabilityHandler {
	return &AvailabilityHandler{service: service, responder: newResponder(logger)}
}

func (h *AvailabilityHandler) Compute(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req availabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	weekdays, band, clockRange, week, err := req.decode()
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	slots, err := h.service.ComputeAvailability(r.Context(), application.AvailabilityParams{
		ParticipantID:   strings.TrimSpace(req.ParticipantID),
		DurationMinutes: req.DurationMinutes,
		Weekdays:        weekdays,
		Band:            band,
		ClockRange:      clockRange,
		Week:            week,
		MaxSlots:        req.MaxSlots,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, slotsResponse{Slots: slots})
}

func (h *AvailabilityHandler) CheckConflict(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req conflictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	result, err := h.service.CheckConflict(r.Context(), application.ConflictCheckParams{
		ParticipantID:    strings.TrimSpace(req.ParticipantID),
		Start:            parseTime(req.Start),
		End:              parseTime(req.End),
		ExcludeBookingID: strings.TrimSpace(req.ExcludeBookingID),
		RecurrenceHint:   strings.TrimSpace(req.RecurrenceHint),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, conflictResponse{
		Report:       result.Report,
		Series:       result.Series,
		Alternatives: result.Alternatives,
	})
}

func (h *AvailabilityHandler) ParseRecurrence(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req parseRecurrenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	maxInstances := req.MaxInstances
	if maxInstances <= 0 {
		maxInstances = recurrence.DefaultMaxInstances
	}

	descriptor, rule, instances, err := h.service.ParseRecurrence(
		strings.TrimSpace(req.Hint), parseTime(req.Start), parseTime(req.End), maxInstances,
	)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, parseRecurrenceResponse{
		Descriptor: toDescriptorDTO(descriptor),
		Rule:       rule,
		Instances:  toInstanceDTOs(instances),
	})
}

type availabilityRequest struct {
	ParticipantID   string `json:"participant_id"`
	DurationMinutes int    `json:"duration_minutes"`
	MaxSlots        int    `json:"max_slots,omitempty"`
	preferenceFields
}

type slotsResponse struct {
	Slots []scheduler.Slot `json:"slots"`
}

type conflictRequest struct {
	ParticipantID    string `json:"participant_id"`
	Start            string `json:"start"`
	End              string `json:"end"`
	ExcludeBookingID string `json:"exclude_booking_id,omitempty"`
	RecurrenceHint   string `json:"recurrence_hint,omitempty"`
}

type conflictResponse struct {
	Report       scheduler.ConflictReport   `json:"report"`
	Series       []scheduler.SeriesConflict `json:"series,omitempty"`
	Alternatives []scheduler.Slot           `json:"alternatives,omitempty"`
}

type parseRecurrenceRequest struct {
	Hint         string `json:"hint"`
	Start        string `json:"start,omitempty"`
	End          string `json:"end,omitempty"`
	MaxInstances int    `json:"max_instances,omitempty"`
}

type parseRecurrenceResponse struct {
	Descriptor *descriptorDTO `json:"descriptor"`
	Rule       string         `json:"rule"`
	Instances  []instanceDTO  `json:"instances,omitempty"`
}

type descriptorDTO struct {
	Frequency string   `json:"frequency"`
	Interval  int      `json:"interval"`
	Weekdays  []string `json:"weekdays,omitempty"`
	MonthDay  *int     `json:"month_day,omitempty"`
	Until     *string  `json:"until,omitempty"`
	Count     *int     `json:"count,omitempty"`
}

func toDescriptorDTO(descriptor *recurrence.Descriptor) *descriptorDTO {
	if descriptor == nil {
		return nil
	}
	dto := &descriptorDTO{
		Frequency: string(descriptor.Frequency),
		Interval:  descriptor.EffectiveInterval(),
		MonthDay:  descriptor.MonthDay,
		Until:     formatTimePtr(descriptor.Until),
		Count:     descriptor.Count,
	}
	for _, day := range descriptor.Weekdays {
		dto.Weekdays = append(dto.Weekdays, strings.ToLower(day.String()))
	}
	return dto
}

type instanceDTO struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

func toInstanceDTOs(instances []recurrence.Instance) []instanceDTO {
	if len(instances) == 0 {
		return nil
	}
	out := make([]instanceDTO, 0, len(instances))
	for _, instance := range instances {
		out = append(out, instanceDTO{Start: formatTime(instance.Start), End: formatTime(instance.End)})
	}
	return out
}
