package middleware

import (
	"context"
	"errors"
	"log"

	"github.com/dimitrije/dfsim-api/internal/models"
	"github.com/dimitrije/dfsim-api/internal/services"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
)

const CurrentTeamKey = "current_team"

type TeamResolver interface {
	ResolveCurrentTeam(ctx context.Context, userID, selected uuid.UUID) (*models.Team, error)
}

// RequireTeam resolves the team the request acts in from the token's team
// claim and the user's memberships. Must run after Auth.
func RequireTeam(resolver TeamResolver) drift.HandlerFunc {
	return func(c *drift.Context) {
		userID := GetUserID(c)
		if userID == uuid.Nil {
			c.Unauthorized("not authenticated")
			return
		}

		team, err := resolver.ResolveCurrentTeam(c.Request.Context(), userID, GetTeamClaim(c))
		if err != nil {
			switch {
			case errors.Is(err, services.ErrNoTeam), errors.Is(err, services.ErrTeamSelectionRequired):
				c.Forbidden(err.Error())
			default:
				log.Printf("Failed to resolve team for user %s: %v", userID, err)
				c.InternalServerError("failed to resolve team")
			}
			return
		}

		c.Set(CurrentTeamKey, team)
		c.Next()
	}
}

func GetCurrentTeam(c *drift.Context) *models.Team {
	if v, ok := c.Get(CurrentTeamKey); ok {
		if team, ok := v.(*models.Team); ok {
			return team
		}
	}
	return nil
}
