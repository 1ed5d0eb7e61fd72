package services

import (
	"context"
	"fmt"
	"log"

	"github.com/dimitrije/dfsim-api/internal/database"
	"github.com/dimitrije/dfsim-api/internal/models"
	"github.com/google/uuid"
)

const notificationColumns = `id, user_id, message, type, related_file_id, team_id, change_type,
	initiated_by, requires_approval, action_status, approver_id, read, created_at`

// Publisher pushes live events to a user's open streams.
type Publisher interface {
	PublishToUser(userID uuid.UUID, eventType string, data interface{})
}

type Mailer interface {
	IsConfigured() bool
	SendApprovalRequest(to, teamName, summary, fileURL string) error
	FileURL(fileID string) string
}

type NotificationInput struct {
	Team             *models.Team
	Message          string
	Type             string
	RelatedFileID    *uuid.UUID
	ChangeType       string
	InitiatedBy      *uuid.UUID
	RequiresApproval bool
	ActionStatus     string
	ApproverID       *uuid.UUID
}

type NotificationService struct {
	db        *database.DB
	publisher Publisher
	mailer    Mailer
}

// NewNotificationService wires the store with optional live and mail delivery.
// Either may be nil.
func NewNotificationService(db *database.DB, publisher Publisher, mailer Mailer) *NotificationService {
	return &NotificationService{db: db, publisher: publisher, mailer: mailer}
}

// Notify stores one notification per distinct recipient and returns how many
// were stored. A failed insert is logged and skipped; the others still go out.
func (s *NotificationService) Notify(ctx context.Context, in NotificationInput, recipients []models.User) int {
	if in.Type == "" {
		in.Type = models.NotificationTypeInfo
	}
	if in.ActionStatus == "" {
		in.ActionStatus = models.ActionStatusPending
	}

	var teamID *uuid.UUID
	teamName := ""
	if in.Team != nil {
		teamID = &in.Team.ID
		teamName = in.Team.Name
	}
	var changeType *string
	if in.ChangeType != "" {
		changeType = &in.ChangeType
	}

	delivered := 0
	for _, user := range uniqueUsers(recipients) {
		n := models.Notification{
			UserID:           user.ID,
			Message:          in.Message,
			Type:             in.Type,
			RelatedFileID:    in.RelatedFileID,
			TeamID:           teamID,
			ChangeType:       changeType,
			InitiatedBy:      in.InitiatedBy,
			RequiresApproval: in.RequiresApproval,
			ActionStatus:     in.ActionStatus,
			ApproverID:       in.ApproverID,
		}

		err := s.db.Pool.QueryRow(ctx, `
			INSERT INTO notifications (user_id, message, type, related_file_id, team_id, change_type,
				initiated_by, requires_approval, action_status, approver_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			RETURNING id, created_at
		`, n.UserID, n.Message, n.Type, n.RelatedFileID, n.TeamID, n.ChangeType,
			n.InitiatedBy, n.RequiresApproval, n.ActionStatus, n.ApproverID,
		).Scan(&n.ID, &n.CreatedAt)
		if err != nil {
			log.Printf("Failed to notify user %s: %v", user.ID, err)
			continue
		}
		delivered++

		if s.publisher != nil {
			s.publisher.PublishToUser(user.ID, "notification", n)
		}
		if n.RequiresApproval {
			s.mail(user, teamName, n)
		}
	}
	return delivered
}

func (s *NotificationService) mail(user models.User, teamName string, n models.Notification) {
	if s.mailer == nil || !s.mailer.IsConfigured() || user.Email == "" {
		return
	}
	fileURL := ""
	if n.RelatedFileID != nil {
		fileURL = s.mailer.FileURL(n.RelatedFileID.String())
	}
	if err := s.mailer.SendApprovalRequest(user.Email, teamName, n.Message, fileURL); err != nil {
		log.Printf("Failed to email %s: %v", user.Email, err)
	}
}

// MarkRelated resolves every pending notification about the file.
func (s *NotificationService) MarkRelated(ctx context.Context, q database.Querier, fileID uuid.UUID, status string, approverID *uuid.UUID) (int64, error) {
	tag, err := q.Exec(ctx, `
		UPDATE notifications
		SET action_status = $2, approver_id = $3
		WHERE related_file_id = $1 AND action_status = 'pending'
	`, fileID, status, approverID)
	if err != nil {
		return 0, fmt.Errorf("failed to update notifications: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ListForUser returns the user's notifications, newest first.
func (s *NotificationService) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Notification, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT `+notificationColumns+`
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	notifications := []models.Notification{}
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(
			&n.ID, &n.UserID, &n.Message, &n.Type, &n.RelatedFileID, &n.TeamID, &n.ChangeType,
			&n.InitiatedBy, &n.RequiresApproval, &n.ActionStatus, &n.ApproverID, &n.Read, &n.CreatedAt,
		); err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

// MarkRead flags a notification as read. Other users' notifications are
// reported as not found.
func (s *NotificationService) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	tag, err := s.db.Pool.Exec(ctx, `
		UPDATE notifications SET read = TRUE WHERE id = $1 AND user_id = $2
	`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

func uniqueUsers(users []models.User) []models.User {
	seen := make(map[uuid.UUID]bool, len(users))
	out := make([]models.User, 0, len(users))
	for _, u := range users {
		if u.ID == uuid.Nil || seen[u.ID] {
			continue
		}
		seen[u.ID] = true
		out = append(out, u)
	}
	return out
}
