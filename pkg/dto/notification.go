package dto

import "github.com/google/uuid"

type NotificationResponse struct {
	ID               uuid.UUID  `json:"id"`
	Message          string     `json:"message"`
	Type             string     `json:"type"`
	RelatedFileID    *uuid.UUID `json:"related_file_id,omitempty"`
	TeamID           *uuid.UUID `json:"team_id,omitempty"`
	ChangeType       *string    `json:"change_type,omitempty"`
	InitiatedBy      *uuid.UUID `json:"initiated_by,omitempty"`
	RequiresApproval bool       `json:"requires_approval"`
	ActionStatus     string     `json:"action_status"`
	ApproverID       *uuid.UUID `json:"approver_id,omitempty"`
	Read             bool       `json:"read"`
	CreatedAt        string     `json:"created_at"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
