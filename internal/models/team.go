package models

import (
	"time"

	"github.com/google/uuid"
)

// MaxBackupNodes caps the backups allocated next to a team's primary node.
const MaxBackupNodes = 3

type Team struct {
	ID         uuid.UUID  `json:"id"`
	Name       string     `json:"name"`
	LeaderID   *uuid.UUID `json:"leader_id,omitempty"`
	LeaderName string     `json:"leader_name"`
	CreatedBy  *uuid.UUID `json:"created_by,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// IsLedBy reports whether user may perform leader-only actions. Teams whose
// leader name never resolved to an account fall back to a name match.
func (t *Team) IsLedBy(user *User) bool {
	if user == nil {
		return false
	}
	if t.LeaderID != nil {
		return *t.LeaderID == user.ID
	}
	return t.LeaderName != "" && t.LeaderName == user.Name
}

type TeamMember struct {
	TeamID    uuid.UUID `json:"team_id"`
	UserID    uuid.UUID `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	User      *User     `json:"user,omitempty"`
}

// TeamDetails is a team with its ordered members and nodes.
type TeamDetails struct {
	Team
	Leader  *User        `json:"leader,omitempty"`
	Members []TeamMember `json:"members"`
	Nodes   []Node       `json:"nodes"`
}
