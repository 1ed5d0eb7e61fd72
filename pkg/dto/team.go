package dto

import "github.com/google/uuid"

type CreateTeamRequest struct {
	Name        string   `json:"name"`
	LeaderName  string   `json:"leader_name"`
	PrimaryNode string   `json:"primary_node"`
	BackupNodes []string `json:"backup_nodes"`
}

type SelectTeamRequest struct {
	TeamID uuid.UUID `json:"team_id"`
}

type AddMemberRequest struct {
	Email string `json:"email"`
}

type TeamResponse struct {
	ID         uuid.UUID  `json:"id"`
	Name       string     `json:"name"`
	LeaderID   *uuid.UUID `json:"leader_id,omitempty"`
	LeaderName string     `json:"leader_name"`
	CreatedAt  string     `json:"created_at"`
	Member     bool       `json:"member"`
	Current    bool       `json:"current"`
}

type TeamMemberResponse struct {
	User     UserResponse `json:"user"`
	JoinedAt string       `json:"joined_at"`
	IsLeader bool         `json:"is_leader"`
}

type TeamDetailsResponse struct {
	TeamResponse
	Leader  *UserResponse        `json:"leader,omitempty"`
	Members []TeamMemberResponse `json:"members"`
	Nodes   []NodeResponse       `json:"nodes"`
}

// TeamSessionResponse carries a fresh token pair scoped to Team.
type TeamSessionResponse struct {
	Message string        `json:"message"`
	Team    TeamResponse  `json:"team"`
	Tokens  TokenResponse `json:"tokens"`
}

type MemberAddedResponse struct {
	Message string       `json:"message"`
	User    UserResponse `json:"user"`
}
