package handlers

import (
	"github.com/dimitrije/dfsim-api/internal/middleware"
	"github.com/dimitrije/dfsim-api/pkg/dto"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
)

type NotificationHandler struct {
	notificationService NotificationServiceInterface
}

func NewNotificationHandler(notificationService NotificationServiceInterface) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

func (h *NotificationHandler) List(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	notifications, err := h.notificationService.ListForUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "list notifications")
		return
	}

	response := make([]dto.NotificationResponse, len(notifications))
	for i := range notifications {
		response[i] = toNotificationResponse(&notifications[i])
	}
	_ = c.JSON(200, response)
}

func (h *NotificationHandler) MarkRead(c *drift.Context) {
	h.markRead(c, "Notification marked as read")
}

// Approve and Reject are kept for old clients. Decisions are made on the
// file itself, so these only mark the notification read.
func (h *NotificationHandler) Approve(c *drift.Context) {
	h.markRead(c, "Approving from notifications is disabled. Use the file's approve action.")
}

func (h *NotificationHandler) Reject(c *drift.Context) {
	h.markRead(c, "Rejecting from notifications is disabled. Use the file's reject action.")
}

func (h *NotificationHandler) markRead(c *drift.Context, message string) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	id, ok := parseID(c, "id", "notification")
	if !ok {
		return
	}

	if err := h.notificationService.MarkRead(c.Request.Context(), id, userID); err != nil {
		respondError(c, err, "update notification")
		return
	}

	_ = c.JSON(200, dto.MessageResponse{Message: message})
}
