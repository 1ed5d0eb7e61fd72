package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/c2h5oh/datasize"
	"github.com/dimitrije/dfsim-api/internal/database"
	"github.com/dimitrije/dfsim-api/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const teamColumns = `id, name, leader_id, leader_name, created_by, created_at, updated_at`

type CreateTeamInput struct {
	Name            string
	LeaderName      string
	PrimaryNodeName string
	BackupNodeNames []string
}

type TeamService struct {
	db           *database.DB
	nodeCapacity int64
}

// NewTeamService creates teams whose nodes each start with nodeCapacity of
// simulated storage.
func NewTeamService(db *database.DB, nodeCapacity datasize.ByteSize) *TeamService {
	return &TeamService{db: db, nodeCapacity: int64(nodeCapacity.Bytes())}
}

// Create makes a team with its primary and backup nodes. An empty leader name
// makes the creator the leader. A leader name that matches no account is kept
// as display text and gates leader actions by name.
func (s *TeamService) Create(ctx context.Context, creator *models.User, in CreateTeamInput) (*models.TeamDetails, error) {
	name := strings.TrimSpace(in.Name)
	primary := strings.TrimSpace(in.PrimaryNodeName)
	if name == "" {
		return nil, validationError("team name is required")
	}
	if primary == "" {
		return nil, validationError("primary node name is required")
	}

	var backups []string
	for _, b := range in.BackupNodeNames {
		if b = strings.TrimSpace(b); b != "" {
			backups = append(backups, b)
		}
	}
	if len(backups) > models.MaxBackupNodes {
		return nil, validationError("at most %d backup nodes are allowed", models.MaxBackupNodes)
	}

	details := &models.TeamDetails{}
	err := s.db.InTx(ctx, func(tx pgx.Tx) error {
		leader, leaderName, err := resolveLeader(ctx, tx, creator, in.LeaderName)
		if err != nil {
			return err
		}

		var leaderID *uuid.UUID
		if leader != nil {
			leaderID = &leader.ID
		}

		team, err := scanTeam(tx.QueryRow(ctx, `
			INSERT INTO teams (name, leader_id, leader_name, created_by)
			VALUES ($1, $2, $3, $4)
			RETURNING `+teamColumns,
			name, leaderID, leaderName, creator.ID))
		if err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicateTeamName
			}
			return fmt.Errorf("failed to create team: %w", err)
		}
		details.Team = *team
		details.Leader = leader

		members := []*models.User{creator}
		if leader != nil && leader.ID != creator.ID {
			members = append(members, leader)
		}
		for _, m := range members {
			member := models.TeamMember{TeamID: team.ID, UserID: m.ID, User: m}
			err := tx.QueryRow(ctx, `
				INSERT INTO team_members (team_id, user_id)
				VALUES ($1, $2)
				RETURNING created_at
			`, team.ID, m.ID).Scan(&member.CreatedAt)
			if err != nil {
				return fmt.Errorf("failed to add member: %w", err)
			}
			details.Members = append(details.Members, member)
		}

		stamp := time.Now().UnixMilli()
		keys := []string{fmt.Sprintf("PRIMARY-%d", stamp)}
		names := []string{primary}
		for i, b := range backups {
			keys = append(keys, fmt.Sprintf("BACKUP-%d-%d", stamp, i+1))
			names = append(names, b)
		}
		for pos := range names {
			node, err := scanNode(tx.QueryRow(ctx, `
				INSERT INTO nodes (team_id, node_key, name, position, total_storage, available_storage)
				VALUES ($1, $2, $3, $4, $5, $5)
				RETURNING `+nodeColumns,
				team.ID, keys[pos], names[pos], pos, s.nodeCapacity))
			if err != nil {
				return fmt.Errorf("failed to create node %q: %w", names[pos], err)
			}
			details.Nodes = append(details.Nodes, *node)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return details, nil
}

func resolveLeader(ctx context.Context, q database.Querier, creator *models.User, leaderName string) (*models.User, string, error) {
	leaderName = strings.TrimSpace(leaderName)
	if leaderName == "" {
		return creator, creator.Name, nil
	}
	if leaderName == creator.Name {
		return creator, leaderName, nil
	}
	leader, err := lookupUser(ctx, q, userByName, leaderName)
	if errors.Is(err, ErrUserNotFound) {
		return nil, leaderName, nil
	}
	if err != nil {
		return nil, "", err
	}
	return leader, leaderName, nil
}

func (s *TeamService) List(ctx context.Context) ([]models.Team, error) {
	rows, err := s.db.Pool.Query(ctx, `SELECT `+teamColumns+` FROM teams ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	defer rows.Close()
	return collectTeams(rows)
}

func (s *TeamService) GetByID(ctx context.Context, teamID uuid.UUID) (*models.Team, error) {
	return loadTeam(ctx, s.db.Pool, teamID)
}

func (s *TeamService) GetDetails(ctx context.Context, teamID uuid.UUID) (*models.TeamDetails, error) {
	team, err := s.GetByID(ctx, teamID)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Pool.Query(ctx, `
		SELECT tm.team_id, tm.user_id, tm.created_at,
			u.id, u.email, u.name, u.password_hash, u.created_at, u.updated_at
		FROM team_members tm
		JOIN users u ON u.id = tm.user_id
		WHERE tm.team_id = $1
		ORDER BY tm.created_at
	`, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	details := &models.TeamDetails{Team: *team, Members: []models.TeamMember{}}
	for rows.Next() {
		var m models.TeamMember
		var u models.User
		if err := rows.Scan(&m.TeamID, &m.UserID, &m.CreatedAt,
			&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		m.User = &u
		if team.IsLedBy(&u) {
			details.Leader = &u
		}
		details.Members = append(details.Members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	details.Nodes, err = listTeamNodes(ctx, s.db.Pool, teamID)
	if err != nil {
		return nil, err
	}
	return details, nil
}

// GetUserTeams lists the user's teams in the order they joined them.
func (s *TeamService) GetUserTeams(ctx context.Context, userID uuid.UUID) ([]models.Team, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT t.id, t.name, t.leader_id, t.leader_name, t.created_by, t.created_at, t.updated_at
		FROM teams t
		JOIN team_members tm ON t.id = tm.team_id
		WHERE tm.user_id = $1
		ORDER BY tm.created_at
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user teams: %w", err)
	}
	defer rows.Close()
	return collectTeams(rows)
}

func (s *TeamService) IsMember(ctx context.Context, teamID, userID uuid.UUID) (bool, error) {
	return isMember(ctx, s.db.Pool, teamID, userID)
}

func (s *TeamService) IsLeader(ctx context.Context, teamID uuid.UUID, user *models.User) (bool, error) {
	team, err := s.GetByID(ctx, teamID)
	if err != nil {
		return false, err
	}
	return team.IsLedBy(user), nil
}

// GetMembers returns the team's users in join order.
func (s *TeamService) GetMembers(ctx context.Context, teamID uuid.UUID) ([]models.User, error) {
	return teamMembers(ctx, s.db.Pool, teamID)
}

// AddMember lets the leader add a registered user by email.
func (s *TeamService) AddMember(ctx context.Context, teamID uuid.UUID, actor *models.User, email string) (*models.User, error) {
	team, err := s.GetByID(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if !team.IsLedBy(actor) {
		return nil, ErrNotLeader
	}

	user, err := lookupUser(ctx, s.db.Pool, userByEmail, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, err
	}

	tag, err := s.db.Pool.Exec(ctx, `
		INSERT INTO team_members (team_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (team_id, user_id) DO NOTHING
	`, teamID, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to add member: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrAlreadyMember
	}
	return user, nil
}

// ResolveCurrentTeam picks the team a request acts in. A selected team wins
// while the user still belongs to it. Otherwise a single membership is
// selected automatically.
func (s *TeamService) ResolveCurrentTeam(ctx context.Context, userID, selected uuid.UUID) (*models.Team, error) {
	if selected != uuid.Nil {
		team, err := s.Select(ctx, userID, selected)
		if err == nil {
			return team, nil
		}
		if !errors.Is(err, ErrNotMember) && !errors.Is(err, ErrTeamNotFound) {
			return nil, err
		}
	}

	teams, err := s.GetUserTeams(ctx, userID)
	if err != nil {
		return nil, err
	}
	switch len(teams) {
	case 0:
		return nil, ErrNoTeam
	case 1:
		return &teams[0], nil
	default:
		return nil, ErrTeamSelectionRequired
	}
}

func (s *TeamService) Select(ctx context.Context, userID, teamID uuid.UUID) (*models.Team, error) {
	team, err := s.GetByID(ctx, teamID)
	if err != nil {
		return nil, err
	}
	ok, err := s.IsMember(ctx, teamID, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotMember
	}
	return team, nil
}

func loadTeam(ctx context.Context, q database.Querier, teamID uuid.UUID) (*models.Team, error) {
	team, err := scanTeam(q.QueryRow(ctx, `SELECT `+teamColumns+` FROM teams WHERE id = $1`, teamID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}
	return team, nil
}

func isMember(ctx context.Context, q database.Querier, teamID, userID uuid.UUID) (bool, error) {
	var exists bool
	err := q.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM team_members WHERE team_id = $1 AND user_id = $2)
	`, teamID, userID).Scan(&exists)
	return exists, err
}

func teamMembers(ctx context.Context, q database.Querier, teamID uuid.UUID) ([]models.User, error) {
	rows, err := q.Query(ctx, `
		SELECT u.id, u.email, u.name, u.password_hash, u.created_at, u.updated_at
		FROM users u
		JOIN team_members tm ON u.id = tm.user_id
		WHERE tm.team_id = $1
		ORDER BY tm.created_at
	`, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func collectTeams(rows pgx.Rows) ([]models.Team, error) {
	teams := []models.Team{}
	for rows.Next() {
		team, err := scanTeam(rows)
		if err != nil {
			return nil, err
		}
		teams = append(teams, *team)
	}
	return teams, rows.Err()
}

func scanTeam(row pgx.Row) (*models.Team, error) {
	var t models.Team
	if err := row.Scan(&t.ID, &t.Name, &t.LeaderID, &t.LeaderName, &t.CreatedBy, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}
