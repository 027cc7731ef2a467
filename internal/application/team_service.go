package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Joy52-cyber/schedulesync-web-sub001/internal/persistence"
	"github.com/Joy52-cyber/schedulesync-web-sub001/internal/scheduler"
)

// recentLoadWindow is how far back "recent" assignments count toward
// round-robin ranking.
const recentLoadWindow = 7 * 24 * time.Hour

// TeamService manages teams and distributes bookings across their members.
type TeamService struct {
	teams       persistence.TeamRepository
	bookings    persistence.BookingRepository
	loader      *calendarLoader
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewTeamService wires dependencies for team operations.
func NewTeamService(
	teams persistence.TeamRepository,
	participants persistence.ParticipantRepository,
	policies persistence.AvailabilityPolicyRepository,
	bookings persistence.BookingRepository,
	blocks persistence.BlockedIntervalRepository,
	defaults scheduler.WorkingHoursProfile,
	idGenerator func() string,
	now func() time.Time,
	logger *slog.Logger,
) *TeamService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &TeamService{
		teams:       teams,
		bookings:    bookings,
		loader:      newCalendarLoader(participants, policies, bookings, blocks, defaults),
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

// CreateTeam validates and stores a new team.
func (s *TeamService) CreateTeam(ctx context.Context, input TeamInput) (Team, error) {
	if s == nil {
		return Team{}, fmt.Errorf("TeamService is nil")
	}

	if err := validateTeamInput(input); err != nil {
		return Team{}, err
	}

	now := s.now()
	team := persistence.Team{
		ID:        s.idGenerator(),
		Name:      strings.TrimSpace(input.Name),
		Strategy:  input.Strategy,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.teams.CreateTeam(ctx, team); err != nil {
		return Team{}, mapRepoError(err)
	}
	return toTeam(team, nil), nil
}

// UpdateTeam changes a team's name or assignment strategy.
func (s *TeamService) UpdateTeam(ctx context.Context, teamID string, input TeamInput) (Team, error) {
	if s == nil {
		return Team{}, fmt.Errorf("TeamService is nil")
	}

	if err := validateTeamInput(input); err != nil {
		return Team{}, err
	}

	existing, err := s.teams.GetTeam(ctx, teamID)
	if err != nil {
		return Team{}, mapRepoError(err)
	}

	existing.Name = strings.TrimSpace(input.Name)
	existing.Strategy = input.Strategy
	existing.UpdatedAt = s.now()
	if err := s.teams.UpdateTeam(ctx, existing); err != nil {
		return Team{}, mapRepoError(err)
	}
	return s.GetTeam(ctx, teamID)
}

// GetTeam returns a team with its members.
func (s *TeamService) GetTeam(ctx context.Context, teamID string) (Team, error) {
	if s == nil {
		return Team{}, fmt.Errorf("TeamService is nil")
	}

	team, err := s.teams.GetTeam(ctx, teamID)
	if err != nil {
		return Team{}, mapRepoError(err)
	}
	members, err := s.teams.ListMembers(ctx, teamID)
	if err != nil {
		return Team{}, mapRepoError(err)
	}
	return toTeam(team, members), nil
}

// ListTeams returns all teams without membership detail.
func (s *TeamService) ListTeams(ctx context.Context) ([]Team, error) {
	if s == nil {
		return nil, fmt.Errorf("TeamService is nil")
	}

	stored, err := s.teams.ListTeams(ctx)
	if err != nil {
		return nil, mapRepoError(err)
	}
	teams := make([]Team, 0, len(stored))
	for _, team := range stored {
		teams = append(teams, toTeam(team, nil))
	}
	return teams, nil
}

// DeleteTeam removes a team and its membership.
func (s *TeamService) DeleteTeam(ctx context.Context, teamID string) error {
	if s == nil {
		return fmt.Errorf("TeamService is nil")
	}
	return mapRepoError(s.teams.DeleteTeam(ctx, teamID))
}

// AddMember attaches a member to a team.
func (s *TeamService) AddMember(ctx context.Context, teamID string, input TeamMemberInput) (TeamMember, error) {
	if s == nil {
		return TeamMember{}, fmt.Errorf("TeamService is nil")
	}

	vErr := &ValidationError{}
	if strings.TrimSpace(input.Name) == "" {
		vErr.add("name", "name is required")
	}
	if vErr.HasErrors() {
		return TeamMember{}, vErr
	}

	if _, err := s.teams.GetTeam(ctx, teamID); err != nil {
		return TeamMember{}, mapRepoError(err)
	}

	member := persistence.TeamMember{
		ID:        s.idGenerator(),
		TeamID:    teamID,
		Name:      strings.TrimSpace(input.Name),
		UserID:    input.UserID,
		CreatedAt: s.now(),
	}
	if err := s.teams.AddMember(ctx, member); err != nil {
		return TeamMember{}, mapRepoError(err)
	}
	return toTeamMember(member), nil
}

// RemoveMember detaches a member from a team.
func (s *TeamService) RemoveMember(ctx context.Context, teamID, memberID string) error {
	if s == nil {
		return fmt.Errorf("TeamService is nil")
	}
	return mapRepoError(s.teams.RemoveMember(ctx, teamID, memberID))
}

// AssignMember picks a member for the proposed interval using the team's
// strategy. Round-robin ranks by load and walks the ranking until a member
// is free; first-available walks members in id order.
func (s *TeamService) AssignMember(ctx context.Context, params AssignmentParams) (AssignmentResult, error) {
	if s == nil {
		return AssignmentResult{}, fmt.Errorf("TeamService is nil")
	}
	logger := serviceLogger(ctx, s.logger, "team", "assign", "team_id", params.TeamID)

	vErr := &ValidationError{}
	if !params.Start.Before(params.End) {
		vErr.add("time", "start must be before end")
	}
	if vErr.HasErrors() {
		return AssignmentResult{}, vErr
	}

	team, err := s.teams.GetTeam(ctx, params.TeamID)
	if err != nil {
		return AssignmentResult{}, mapRepoError(err)
	}
	members, err := s.teams.ListMembers(ctx, params.TeamID)
	if err != nil {
		return AssignmentResult{}, mapRepoError(err)
	}
	if len(members) == 0 {
		return AssignmentResult{}, ErrNoAvailability
	}

	exclude := make(map[string]struct{}, len(params.Exclude))
	for _, id := range params.Exclude {
		exclude[id] = struct{}{}
	}

	var memberID string
	var found bool
	switch team.Strategy {
	case persistence.AssignmentFirstAvailable:
		memberID, found, err = s.pickFirstAvailable(ctx, members, params.Start, params.End, exclude)
	default:
		memberID, found, err = s.pickRoundRobin(ctx, members, params.Start, params.End, exclude)
	}
	if err != nil {
		return AssignmentResult{}, err
	}
	if !found {
		logger.InfoContext(ctx, "no member available", "members", len(members))
		return AssignmentResult{}, ErrNoAvailability
	}

	for _, member := range members {
		if member.ID == memberID {
			logger.InfoContext(ctx, "member assigned", "member_id", memberID, "strategy", team.Strategy)
			return AssignmentResult{MemberID: memberID, Member: toTeamMember(member), Strategy: team.Strategy}, nil
		}
	}
	return AssignmentResult{}, ErrNoAvailability
}

// Fairness reports how evenly upcoming bookings are spread across a team.
func (s *TeamService) Fairness(ctx context.Context, teamID string) (TeamFairnessReport, error) {
	if s == nil {
		return TeamFairnessReport{}, fmt.Errorf("TeamService is nil")
	}

	if _, err := s.teams.GetTeam(ctx, teamID); err != nil {
		return TeamFairnessReport{}, mapRepoError(err)
	}
	members, err := s.teams.ListMembers(ctx, teamID)
	if err != nil {
		return TeamFairnessReport{}, mapRepoError(err)
	}

	loads, err := s.memberLoads(ctx, members)
	if err != nil {
		return TeamFairnessReport{}, err
	}

	upcoming := make([]int, 0, len(loads))
	for _, load := range loads {
		upcoming = append(upcoming, load.Upcoming)
	}

	return TeamFairnessReport{
		TeamID:  teamID,
		Loads:   loads,
		Summary: scheduler.Fairness(upcoming),
	}, nil
}

func (s *TeamService) pickRoundRobin(ctx context.Context, members []persistence.TeamMember, start, end time.Time, exclude map[string]struct{}) (string, bool, error) {
	loads, err := s.memberLoads(ctx, members)
	if err != nil {
		return "", false, err
	}

	calendars, err := s.memberCalendars(ctx, members, end)
	if err != nil {
		return "", false, err
	}

	// Walk the ranking, skipping members whose calendar is busy for the
	// interval, so the least-loaded free member wins.
	skipped := make(map[string]struct{}, len(exclude))
	for id := range exclude {
		skipped[id] = struct{}{}
	}
	for range loads {
		pick, ok := scheduler.PickRoundRobin(loads, skipped)
		if !ok {
			return "", false, nil
		}
		free, err := s.memberFree(calendars, pick.MemberID, start, end)
		if err != nil {
			return "", false, err
		}
		if free {
			return pick.MemberID, true, nil
		}
		skipped[pick.MemberID] = struct{}{}
	}
	return "", false, nil
}

func (s *TeamService) pickFirstAvailable(ctx context.Context, members []persistence.TeamMember, start, end time.Time, exclude map[string]struct{}) (string, bool, error) {
	calendars, err := s.memberCalendars(ctx, members, end)
	if err != nil {
		return "", false, err
	}
	return scheduler.PickFirstAvailable(calendars, start, end, exclude)
}

// memberLoads counts upcoming and recent bookings per member, keyed by the
// member id. Members without a linked user carry zero load.
func (s *TeamService) memberLoads(ctx context.Context, members []persistence.TeamMember) ([]scheduler.MemberLoad, error) {
	userIDs := make([]string, 0, len(members))
	for _, member := range members {
		if member.UserID != nil {
			userIDs = append(userIDs, *member.UserID)
		}
	}

	now := s.now()
	upcoming, err := s.bookings.CountUpcomingForOwners(ctx, userIDs, now)
	if err != nil {
		return nil, err
	}
	recent, err := s.bookings.CountRecentForOwners(ctx, userIDs, now.Add(-recentLoadWindow), now)
	if err != nil {
		return nil, err
	}

	loads := make([]scheduler.MemberLoad, 0, len(members))
	for _, member := range members {
		load := scheduler.MemberLoad{MemberID: member.ID}
		if member.UserID != nil {
			load.Upcoming = upcoming[*member.UserID]
			load.Recent = recent[*member.UserID]
		}
		loads = append(loads, load)
	}
	return loads, nil
}

func (s *TeamService) memberCalendars(ctx context.Context, members []persistence.TeamMember, horizon time.Time) ([]scheduler.MemberCalendar, error) {
	now := s.now()
	calendars := make([]scheduler.MemberCalendar, 0, len(members))
	for _, member := range members {
		calendar := scheduler.MemberCalendar{MemberID: member.ID}
		if member.UserID != nil {
			calendar.HasUser = true
			bookings, err := s.loader.bookingIntervals(ctx, *member.UserID, now.Add(-24*time.Hour), horizon.AddDate(0, 0, 1))
			if err != nil {
				return nil, err
			}
			calendar.Bookings = bookings

			participant, err := s.loader.participants.GetParticipant(ctx, *member.UserID)
			if err == nil {
				profile, err := s.loader.profileFor(ctx, participant)
				if err != nil {
					return nil, err
				}
				calendar.Buffer = profile.Buffer()
			}
		}
		calendars = append(calendars, calendar)
	}
	return calendars, nil
}

func (s *TeamService) memberFree(calendars []scheduler.MemberCalendar, memberID string, start, end time.Time) (bool, error) {
	for _, calendar := range calendars {
		if calendar.MemberID != memberID {
			continue
		}
		if !calendar.HasUser {
			return true, nil
		}
		report, err := scheduler.CheckConflict(calendar.Bookings, start, end, calendar.Buffer, "")
		if err != nil {
			return false, mapEngineError(err)
		}
		return !report.HasConflict, nil
	}
	return false, nil
}

func validateTeamInput(input TeamInput) error {
	vErr := &ValidationError{}
	if strings.TrimSpace(input.Name) == "" {
		vErr.add("name", "name is required")
	}
	switch input.Strategy {
	case persistence.AssignmentRoundRobin, persistence.AssignmentFirstAvailable:
	default:
		vErr.add("strategy", "strategy must be round_robin or first_available")
	}
	if vErr.HasErrors() {
		return vErr
	}
	return nil
}

func toTeam(team persistence.Team, members []persistence.TeamMember) Team {
	out := Team{
		ID:        team.ID,
		Name:      team.Name,
		Strategy:  team.Strategy,
		CreatedAt: team.CreatedAt,
		UpdatedAt: team.UpdatedAt,
	}
	for _, member := range members {
		out.Members = append(out.Members, toTeamMember(member))
	}
	return out
}

func toTeamMember(member persistence.TeamMember) TeamMember {
	return TeamMember{
		ID:     member.ID,
		TeamID: member.TeamID,
		Name:   member.Name,
		UserID: member.UserID,
	}
}
