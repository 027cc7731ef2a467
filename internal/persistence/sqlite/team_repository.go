package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Joy52-cyber/schedulesync-web-sub001/internal/persistence"
)

// TeamRepository implements persistence.TeamRepository using SQLite.
type TeamRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewTeamRepository creates a new SQLite team repository.
func NewTeamRepository(pool *ConnectionPool) *TeamRepository {
	return &TeamRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// CreateTeam inserts a new team.
func (r *TeamRepository) CreateTeam(ctx context.Context, team persistence.Team) error {
	if team.ID == "" {
		return persistence.ErrConstraintViolation
	}

	query := `
		INSERT INTO teams (id, name, strategy, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := r.helper.Exec(ctx, query,
		team.ID,
		team.Name,
		team.Strategy,
		team.CreatedAt.UTC().Format(time.RFC3339),
		team.UpdatedAt.UTC().Format(time.RFC3339),
	)
	return r.mapper.MapError(err)
}

// UpdateTeam updates a team's name and strategy.
func (r *TeamRepository) UpdateTeam(ctx context.Context, team persistence.Team) error {
	query := `
		UPDATE teams
		SET name = ?, strategy = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.helper.Exec(ctx, query,
		team.Name,
		team.Strategy,
		team.UpdatedAt.UTC().Format(time.RFC3339),
		team.ID,
	)
	if err != nil {
		return r.mapper.MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// GetTeam retrieves a team by ID.
func (r *TeamRepository) GetTeam(ctx context.Context, id string) (persistence.Team, error) {
	query := `
		SELECT id, name, strategy, created_at, updated_at
		FROM teams
		WHERE id = ?
	`

	team, err := scanTeam(r.helper.QueryRow(ctx, query, id).Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return persistence.Team{}, persistence.ErrNotFound
		}
		return persistence.Team{}, r.mapper.MapError(err)
	}
	return team, nil
}

// ListTeams returns all teams ordered by name.
func (r *TeamRepository) ListTeams(ctx context.Context) ([]persistence.Team, error) {
	query := `
		SELECT id, name, strategy, created_at, updated_at
		FROM teams
		ORDER BY name ASC, id ASC
	`

	rows, err := r.helper.Query(ctx, query)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var teams []persistence.Team
	for rows.Next() {
		team, err := scanTeam(rows.Scan)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		teams = append(teams, team)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return teams, nil
}

// DeleteTeam removes a team and, via cascade, its members.
func (r *TeamRepository) DeleteTeam(ctx context.Context, id string) error {
	result, err := r.helper.Exec(ctx, "DELETE FROM teams WHERE id = ?", id)
	if err != nil {
		return r.mapper.MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// AddMember inserts a new team member.
func (r *TeamRepository) AddMember(ctx context.Context, member persistence.TeamMember) error {
	if member.ID == "" {
		return persistence.ErrConstraintViolation
	}

	query := `
		INSERT INTO team_members (id, team_id, name, user_id, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := r.helper.Exec(ctx, query,
		member.ID,
		member.TeamID,
		member.Name,
		nullString(member.UserID),
		member.CreatedAt.UTC().Format(time.RFC3339),
	)
	return r.mapper.MapError(err)
}

// RemoveMember removes a member from a team.
func (r *TeamRepository) RemoveMember(ctx context.Context, teamID, memberID string) error {
	result, err := r.helper.Exec(ctx,
		"DELETE FROM team_members WHERE team_id = ? AND id = ?", teamID, memberID)
	if err != nil {
		return r.mapper.MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// ListMembers returns a team's members ordered by id.
func (r *TeamRepository) ListMembers(ctx context.Context, teamID string) ([]persistence.TeamMember, error) {
	query := `
		SELECT id, team_id, name, user_id, created_at
		FROM team_members
		WHERE team_id = ?
		ORDER BY id ASC
	`

	rows, err := r.helper.Query(ctx, query, teamID)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var members []persistence.TeamMember
	for rows.Next() {
		var member persistence.TeamMember
		var userID sql.NullString
		var createdAtStr string

		if err := rows.Scan(&member.ID, &member.TeamID, &member.Name, &userID, &createdAtStr); err != nil {
			return nil, r.mapper.MapError(err)
		}

		if userID.Valid {
			member.UserID = &userID.String
		}
		if member.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr); err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}

		members = append(members, member)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return members, nil
}

func scanTeam(scan func(dest ...interface{}) error) (persistence.Team, error) {
	var team persistence.Team
	var createdAtStr, updatedAtStr string

	err := scan(&team.ID, &team.Name, &team.Strategy, &createdAtStr, &updatedAtStr)
	if err != nil {
		return persistence.Team{}, err
	}

	if team.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr); err != nil {
		return persistence.Team{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if team.UpdatedAt, err = time.Parse(time.RFC3339, updatedAtStr); err != nil {
		return persistence.Team{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return team, nil
}
