package handlers

import (
	"errors"
	"log"

	"github.com/dimitrije/dfsim-api/internal/services"
	"github.com/m1z23r/drift/pkg/drift"
)

// respondError maps service errors onto status codes. Anything unknown is
// logged and reported as "failed to <action>".
func respondError(c *drift.Context, err error, action string) {
	switch {
	case errors.Is(err, services.ErrValidation):
		c.BadRequest(err.Error())

	case errors.Is(err, services.ErrInvalidCredentials):
		c.Unauthorized(err.Error())

	case errors.Is(err, services.ErrNotLeader),
		errors.Is(err, services.ErrNotMember),
		errors.Is(err, services.ErrNoTeam),
		errors.Is(err, services.ErrTeamSelectionRequired):
		c.Forbidden(err.Error())

	case errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrTeamNotFound),
		errors.Is(err, services.ErrNodeNotFound),
		errors.Is(err, services.ErrFileNotFound),
		errors.Is(err, services.ErrNotificationNotFound),
		errors.Is(err, services.ErrNoContent):
		c.NotFound(err.Error())

	case errors.Is(err, services.ErrInvalidTransition),
		errors.Is(err, services.ErrDuplicateTeamName),
		errors.Is(err, services.ErrAlreadyMember),
		errors.Is(err, services.ErrEmailTaken):
		_ = c.JSON(409, map[string]string{"error": err.Error()})

	default:
		log.Printf("Failed to %s: %v", action, err)
		c.InternalServerError("failed to " + action)
	}
}
