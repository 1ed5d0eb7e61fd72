package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	NodeStatusOnline  = "online"
	NodeStatusOffline = "offline"
)

type Node struct {
	ID               uuid.UUID `json:"id"`
	TeamID           uuid.UUID `json:"team_id"`
	NodeKey          string    `json:"node_id"`
	Name             string    `json:"node_name"`
	Position         int       `json:"position"`
	TotalStorage     int64     `json:"total_storage"`
	UsedStorage      int64     `json:"used_storage"`
	AvailableStorage int64     `json:"available_storage"`
	FileCount        int       `json:"file_count"`
	Status           string    `json:"status"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (n *Node) IsPrimary() bool {
	return n.Position == 0
}

func ValidNodeStatus(status string) bool {
	return status == NodeStatusOnline || status == NodeStatusOffline
}

const (
	NodeRolePrimary = "primary"
	NodeRoleReplica = "replica"
)

// NodeFile is a file as seen from one node.
type NodeFile struct {
	ID       uuid.UUID  `json:"id"`
	FileName string     `json:"file_name"`
	FileSize int64      `json:"file_size"`
	Status   string     `json:"status"`
	OwnerID  *uuid.UUID `json:"owner_id,omitempty"`
	Role     string     `json:"role"`
}

type NodeWithFiles struct {
	Node
	Files []NodeFile `json:"files"`
}
