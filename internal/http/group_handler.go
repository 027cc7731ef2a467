package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Joy52-cyber/schedulesync-web-sub001/internal/application"
	"github.com/Joy52-cyber/schedulesync-web-sub001/internal/scheduler"
)

type groupService interface {
	ResolveGroupAvailability(ctx context.Context, params application.GroupAvailabilityParams) ([]scheduler.Slot, error)
	CheckGroupSlot(ctx context.Context, params application.GroupSlotCheckParams) (scheduler.GroupSlotReport, error)
}

type GroupHandler struct {
	service   groupService
	responder responder
}

func NewGroupHandler(service groupService, logger *slog.Logger) *GroupHandler {
	return &GroupHandler{service: service, responder: newResponder(logger)}
}

func (h *GroupHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req groupAvailabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	weekdays, band, clockRange, week, err := req.decode()
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	slots, err := h.service.ResolveGroupAvailability(r.Context(), application.GroupAvailabilityParams{
		ParticipantIDs:  trimAll(req.ParticipantIDs),
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

func (h *GroupHandler) CheckSlot(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req groupSlotCheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	report, err := h.service.CheckGroupSlot(r.Context(), application.GroupSlotCheckParams{
		ParticipantIDs: trimAll(req.ParticipantIDs),
		Start:          parseTime(req.Start),
		End:            parseTime(req.End),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, report)
}

func trimAll(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, 0, len(values))
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

type groupAvailabilityRequest struct {
	ParticipantIDs  []string `json:"participant_ids"`
	DurationMinutes int      `json:"duration_minutes"`
	MaxSlots        int      `json:"max_slots,omitempty"`
	preferenceFields
}

type groupSlotCheckRequest struct {
	ParticipantIDs []string `json:"participant_ids"`
	Start          string   `json:"start"`
	End            string   `json:"end"`
}
