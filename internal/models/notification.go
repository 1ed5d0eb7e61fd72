package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	NotificationTypeInfo             = "info"
	NotificationTypeFileChange       = "file_change"
	NotificationTypeApprovalRequired = "approval_required"
	NotificationTypeSyncComplete     = "sync_complete"
	NotificationTypeChangeRejected   = "change_rejected"
	NotificationTypeFileDeleted      = "file_deleted"
)

const (
	ActionStatusPending  = "pending"
	ActionStatusApproved = "approved"
	ActionStatusRejected = "rejected"
)

type Notification struct {
	ID               uuid.UUID  `json:"id"`
	UserID           uuid.UUID  `json:"user_id"`
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
	CreatedAt        time.Time  `json:"created_at"`
}
