package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/dimitrije/dfsim-api/internal/models"
	"github.com/dimitrije/dfsim-api/internal/services"
	"github.com/dimitrije/dfsim-api/internal/testutil"
	"github.com/dimitrije/dfsim-api/pkg/dto"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestNotificationHandler_List(t *testing.T) {
	notifications := new(testutil.MockNotificationService)
	handler := NewNotificationHandler(notifications)
	userID := uuid.New()
	fileID := uuid.New()
	changeType := models.ChangeTypeEdit

	notifications.On("ListForUser", mock.Anything, userID).Return([]models.Notification{
		{
			ID:               uuid.New(),
			UserID:           userID,
			Message:          "Ada edited notes.txt",
			Type:             models.NotificationTypeApprovalRequired,
			RelatedFileID:    &fileID,
			ChangeType:       &changeType,
			RequiresApproval: true,
			ActionStatus:     models.ActionStatusPending,
			CreatedAt:        time.Now(),
		},
	}, nil)

	app := protectedRoute(http.MethodGet, "/notifications", handler.List)
	rec := testutil.NewHTTPTestClient(t, app).GET("/notifications", authHeaders(t, userID, uuid.Nil))

	testutil.AssertStatus(t, rec, http.StatusOK)

	var response []dto.NotificationResponse
	testutil.ParseJSON(t, rec, &response)
	require.Len(t, response, 1)
	assert.Equal(t, models.NotificationTypeApprovalRequired, response[0].Type)
	assert.True(t, response[0].RequiresApproval)
	require.NotNil(t, response[0].RelatedFileID)
	assert.Equal(t, fileID, *response[0].RelatedFileID)
	assert.False(t, response[0].Read)
}

func TestNotificationHandler_MarkRead(t *testing.T) {
	tests := []struct {
		name    string
		prefix  string
		suffix  string
		route   string
		action  func(h *NotificationHandler) drift.HandlerFunc
		method  string
		message string
	}{
		{
			name:    "mark read",
			prefix:  "/notifications/read/",
			route:   "/notifications/read/:id",
			action:  func(h *NotificationHandler) drift.HandlerFunc { return h.MarkRead },
			method:  http.MethodGet,
			message: "Notification marked as read",
		},
		{
			name:    "approve disabled",
			prefix:  "/notifications/",
			suffix:  "/approve",
			route:   "/notifications/:id/approve",
			action:  func(h *NotificationHandler) drift.HandlerFunc { return h.Approve },
			method:  http.MethodPost,
			message: "Approving from notifications is disabled",
		},
		{
			name:    "reject disabled",
			prefix:  "/notifications/",
			suffix:  "/reject",
			route:   "/notifications/:id/reject",
			action:  func(h *NotificationHandler) drift.HandlerFunc { return h.Reject },
			method:  http.MethodPost,
			message: "Rejecting from notifications is disabled",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			notifications := new(testutil.MockNotificationService)
			handler := NewNotificationHandler(notifications)
			userID, id := uuid.New(), uuid.New()
			notifications.On("MarkRead", mock.Anything, id, userID).Return(nil)

			url := tt.prefix + id.String() + tt.suffix
			app := protectedRoute(tt.method, tt.route, tt.action(handler))
			rec := testutil.NewHTTPTestClient(t, app).Request(tt.method, url, nil, authHeaders(t, userID, uuid.Nil))

			testutil.AssertStatus(t, rec, http.StatusOK)

			var response dto.MessageResponse
			testutil.ParseJSON(t, rec, &response)
			assert.Contains(t, response.Message, tt.message)
			notifications.AssertExpectations(t)
		})
	}
}

func TestNotificationHandler_MarkRead_NotFound(t *testing.T) {
	notifications := new(testutil.MockNotificationService)
	handler := NewNotificationHandler(notifications)
	userID, id := uuid.New(), uuid.New()
	notifications.On("MarkRead", mock.Anything, id, userID).Return(services.ErrNotificationNotFound)

	app := protectedRoute(http.MethodGet, "/notifications/read/:id", handler.MarkRead)
	rec := testutil.NewHTTPTestClient(t, app).GET("/notifications/read/"+id.String(), authHeaders(t, userID, uuid.Nil))

	testutil.AssertStatus(t, rec, http.StatusNotFound)
}

func TestNotificationHandler_NotAuthenticated(t *testing.T) {
	handler := NewNotificationHandler(new(testutil.MockNotificationService))

	app := protectedRoute(http.MethodGet, "/notifications", handler.List)
	rec := testutil.NewHTTPTestClient(t, app).GET("/notifications", nil)

	testutil.AssertStatus(t, rec, http.StatusUnauthorized)
}
