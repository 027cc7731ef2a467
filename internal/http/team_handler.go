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

type teamService interface {
	CreateTeam(ctx context.Context, input application.TeamInput) (application.Team, error)
	UpdateTeam(ctx context.Context, teamID string, input application.TeamInput) (application.Team, error)
	GetTeam(ctx context.Context, teamID string) (application.Team, error)
	ListTeams(ctx context.Context) ([]application.Team, error)
	DeleteTeam(ctx context.Context, teamID string) error
	AddMember(ctx context.Context, teamID string, input application.TeamMemberInput) (application.TeamMember, error)
	RemoveMember(ctx context.Context, teamID, memberID string) error
	AssignMember(ctx context.Context, params application.AssignmentParams) (application.AssignmentResult, error)
	Fairness(ctx context.Context, teamID string) (application.TeamFairnessReport, error)
}

type TeamHandler struct {
	service   teamService
	responder responder
}

func NewTeamHandler(service teamService, logger *slog.Logger) *TeamHandler {
	return &TeamHandler{service: service, responder: newResponder(logger)}
}

func (h *TeamHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req teamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	team, err := h.service.CreateTeam(r.Context(), req.toInput())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toTeamDTO(team))
}

func (h *TeamHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	teams, err := h.service.ListTeams(r.Context())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	dtos := make([]teamDTO, 0, len(teams))
	for _, team := range teams {
		dtos = append(dtos, toTeamDTO(team))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listTeamsResponse{Teams: dtos})
}

func (h *TeamHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id := pathID(r, "id")
	if id == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingPathID)
		return
	}

	team, err := h.service.GetTeam(r.Context(), id)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toTeamDTO(team))
}

func (h *TeamHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id := pathID(r, "id")
	if id == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingPathID)
		return
	}

	var req teamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	team, err := h.service.UpdateTeam(r.Context(), id, req.toInput())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toTeamDTO(team))
}

func (h *TeamHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id := pathID(r, "id")
	if id == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingPathID)
		return
	}

	if err := h.service.DeleteTeam(r.Context(), id); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *TeamHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id := pathID(r, "id")
	if id == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingPathID)
		return
	}

	var req memberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	member, err := h.service.AddMember(r.Context(), id, application.TeamMemberInput{
		Name:   strings.TrimSpace(req.Name),
		UserID: req.UserID,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toMemberDTO(member))
}

func (h *TeamHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	teamID := pathID(r, "id")
	memberID := pathID(r, "memberID")
	if teamID == "" || memberID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingPathID)
		return
	}

	if err := h.service.RemoveMember(r.Context(), teamID, memberID); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *TeamHandler) Assign(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id := pathID(r, "id")
	if id == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingPathID)
		return
	}

	var req assignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	result, err := h.service.AssignMember(r.Context(), application.AssignmentParams{
		TeamID:  id,
		Start:   parseTime(req.Start),
		End:     parseTime(req.End),
		Exclude: trimAll(req.Exclude),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, assignResponse{
		MemberID: result.MemberID,
		Member:   toMemberDTO(result.Member),
		Strategy: result.Strategy,
	})
}

func (h *TeamHandler) Fairness(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id := pathID(r, "id")
	if id == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingPathID)
		return
	}

	report, err := h.service.Fairness(r.Context(), id)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	loads := make([]memberLoadDTO, 0, len(report.Loads))
	for _, load := range report.Loads {
		loads = append(loads, memberLoadDTO{
			MemberID: load.MemberID,
			Upcoming: load.Upcoming,
			Recent:   load.Recent,
		})
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, fairnessResponse{
		TeamID:  report.TeamID,
		Loads:   loads,
		Summary: report.Summary,
	})
}

type teamRequest struct {
	Name     string `json:"name"`
	Strategy string `json:"strategy"`
}

func (r teamRequest) toInput() application.TeamInput {
	return application.TeamInput{
		Name:     strings.TrimSpace(r.Name),
		Strategy: strings.TrimSpace(r.Strategy),
	}
}

type teamDTO struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Strategy  string      `json:"strategy"`
	Members   []memberDTO `json:"members"`
	CreatedAt string      `json:"created_at"`
	UpdatedAt string      `json:"updated_at"`
}

func toTeamDTO(team application.Team) teamDTO {
	members := make([]memberDTO, 0, len(team.Members))
	for _, member := range team.Members {
		members = append(members, toMemberDTO(member))
	}
	return teamDTO{
		ID:        team.ID,
		Name:      team.Name,
		Strategy:  team.Strategy,
		Members:   members,
		CreatedAt: formatTime(team.CreatedAt),
		UpdatedAt: formatTime(team.UpdatedAt),
	}
}

type listTeamsResponse struct {
	Teams []teamDTO `json:"teams"`
}

type memberRequest struct {
	Name   string  `json:"name"`
	UserID *string `json:"user_id,omitempty"`
}

type memberDTO struct {
	ID     string  `json:"id"`
	TeamID string  `json:"team_id"`
	Name   string  `json:"name"`
	UserID *string `json:"user_id,omitempty"`
}

func toMemberDTO(member application.TeamMember) memberDTO {
	return memberDTO{
		ID:     member.ID,
		TeamID: member.TeamID,
		Name:   member.Name,
		UserID: member.UserID,
	}
}

type assignRequest struct {
	Start   string   `json:"start"`
	End     string   `json:"end"`
	Exclude []string `json:"exclude,omitempty"`
}

type assignResponse struct {
	MemberID string    `json:"member_id"`
	Member   memberDTO `json:"member"`
	Strategy string    `json:"strategy"`
}

type memberLoadDTO struct {
	MemberID string `json:"member_id"`
	Upcoming int    `json:"upcoming"`
	Recent   int    `json:"recent"`
}

type fairnessResponse struct {
	TeamID  string                    `json:"team_id"`
	Loads   []memberLoadDTO           `json:"loads"`
	Summary scheduler.FairnessSummary `json:"summary"`
}
