package handlers

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/dimitrije/dfsim-api/internal/middleware"
	"github.com/dimitrije/dfsim-api/internal/models"
	"github.com/dimitrije/dfsim-api/internal/services"
	"github.com/dimitrije/dfsim-api/pkg/dto"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
)

type AuthHandler struct {
	userService    UserServiceInterface
	teamService    TeamServiceInterface
	sessionService SessionServiceInterface
	jwtService     JWTServiceInterface
}

func NewAuthHandler(
	userService UserServiceInterface,
	teamService TeamServiceInterface,
	sessionService SessionServiceInterface,
	jwtService JWTServiceInterface,
) *AuthHandler {
	return &AuthHandler{
		userService:    userService,
		teamService:    teamService,
		sessionService: sessionService,
		jwtService:     jwtService,
	}
}

func (h *AuthHandler) Register(c *drift.Context) {
	var req dto.RegisterRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	ctx := c.Request.Context()
	user, err := h.userService.Register(ctx, req.Name, req.Email, req.Password)
	if err != nil {
		respondError(c, err, "register")
		return
	}

	tokens, err := issueTokens(ctx, h.jwtService, h.sessionService, user, uuid.Nil)
	if err != nil {
		log.Printf("Failed to issue tokens for %s: %v", user.ID, err)
		c.InternalServerError("failed to generate tokens")
		return
	}

	_ = c.JSON(201, dto.AuthResponse{
		Message: "Registration successful",
		User:    toUserResponse(user),
		Tokens:  *tokens,
	})
}

// Login authenticates the user and selects their team when there is exactly
// one. With several teams the client has to call /teams/select.
func (h *AuthHandler) Login(c *drift.Context) {
	var req dto.LoginRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		c.BadRequest("email and password are required")
		return
	}

	ctx := c.Request.Context()
	user, err := h.userService.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		respondError(c, err, "log in")
		return
	}

	resp := dto.AuthResponse{Message: "Logged in successfully", User: toUserResponse(user)}
	team, err := h.teamService.ResolveCurrentTeam(ctx, user.ID, uuid.Nil)
	switch {
	case err == nil:
		current := toTeamResponse(team, team.ID)
		current.Member = true
		resp.CurrentTeam = &current
	case errors.Is(err, services.ErrTeamSelectionRequired):
		resp.TeamSelectionRequired = true
	case errors.Is(err, services.ErrNoTeam):
	default:
		respondError(c, err, "resolve team")
		return
	}

	teamID := uuid.Nil
	if team != nil {
		teamID = team.ID
	}
	tokens, err := issueTokens(ctx, h.jwtService, h.sessionService, user, teamID)
	if err != nil {
		log.Printf("Failed to issue tokens for %s: %v", user.ID, err)
		c.InternalServerError("failed to generate tokens")
		return
	}
	resp.Tokens = *tokens

	_ = c.JSON(200, resp)
}

func (h *AuthHandler) RefreshToken(c *drift.Context) {
	var req dto.RefreshTokenRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	if req.RefreshToken == "" {
		c.BadRequest("refresh_token is required")
		return
	}

	userID, err := h.jwtService.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		c.Unauthorized("invalid refresh token")
		return
	}

	ctx := c.Request.Context()

	storedUserID, err := h.sessionService.Validate(ctx, req.RefreshToken)
	if err != nil || storedUserID != userID {
		c.Unauthorized("refresh token not found or expired")
		return
	}

	user, err := h.userService.GetByID(ctx, userID)
	if err != nil {
		c.Unauthorized("user not found")
		return
	}

	if err := h.sessionService.Revoke(ctx, req.RefreshToken); err != nil {
		c.InternalServerError("failed to revoke old token")
		return
	}

	teamID := uuid.Nil
	if team, err := h.teamService.ResolveCurrentTeam(ctx, user.ID, req.TeamID); err == nil {
		teamID = team.ID
	}

	tokens, err := issueTokens(ctx, h.jwtService, h.sessionService, user, teamID)
	if err != nil {
		c.InternalServerError("failed to generate tokens")
		return
	}

	_ = c.JSON(200, tokens)
}

// Logout revokes every refresh token of the caller.
func (h *AuthHandler) Logout(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	if err := h.sessionService.RevokeAll(c.Request.Context(), userID); err != nil {
		c.InternalServerError("failed to revoke tokens")
		return
	}

	_ = c.JSON(200, dto.MessageResponse{Message: "Logged out successfully"})
}

// issueTokens signs a token pair scoped to teamID and records the refresh
// token.
func issueTokens(ctx context.Context, jwtService JWTServiceInterface, sessions SessionServiceInterface, user *models.User, teamID uuid.UUID) (*dto.TokenResponse, error) {
	pair, err := jwtService.GenerateTokenPair(user.ID, user.Email, teamID)
	if err != nil {
		return nil, err
	}

	expiresAt := time.Now().Add(jwtService.RefreshExpiry())
	if err := sessions.Store(ctx, user.ID, pair.RefreshToken, expiresAt); err != nil {
		return nil, err
	}

	return &dto.TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    pair.ExpiresIn,
	}, nil
}
