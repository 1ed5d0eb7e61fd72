package handlers

import (
	"fmt"
	"log"

	"github.com/dimitrije/dfsim-api/internal/middleware"
	"github.com/dimitrije/dfsim-api/internal/services"
	"github.com/dimitrije/dfsim-api/pkg/dto"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
)

type TeamHandler struct {
	teamService    TeamServiceInterface
	userService    UserServiceInterface
	sessionService SessionServiceInterface
	jwtService     JWTServiceInterface
}

func NewTeamHandler(
	teamService TeamServiceInterface,
	userService UserServiceInterface,
	sessionService SessionServiceInterface,
	jwtService JWTServiceInterface,
) *TeamHandler {
	return &TeamHandler{
		teamService:    teamService,
		userService:    userService,
		sessionService: sessionService,
		jwtService:     jwtService,
	}
}

// List returns every team, flagging the ones the caller belongs to.
func (h *TeamHandler) List(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	ctx := c.Request.Context()
	teams, err := h.teamService.List(ctx)
	if err != nil {
		respondError(c, err, "list teams")
		return
	}
	mine, err := h.teamService.GetUserTeams(ctx, userID)
	if err != nil {
		respondError(c, err, "list teams")
		return
	}

	member := make(map[uuid.UUID]bool, len(mine))
	for _, t := range mine {
		member[t.ID] = true
	}

	current := middleware.GetTeamClaim(c)
	response := make([]dto.TeamResponse, len(teams))
	for i := range teams {
		response[i] = toTeamResponse(&teams[i], current)
		response[i].Member = member[teams[i].ID]
	}

	_ = c.JSON(200, response)
}

// Mine lists the caller's teams in join order.
func (h *TeamHandler) Mine(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	teams, err := h.teamService.GetUserTeams(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "list teams")
		return
	}

	current := middleware.GetTeamClaim(c)
	response := make([]dto.TeamResponse, len(teams))
	for i := range teams {
		response[i] = toTeamResponse(&teams[i], current)
		response[i].Member = true
	}

	_ = c.JSON(200, response)
}

// Create sets up a team with its nodes and switches the caller into it.
func (h *TeamHandler) Create(c *drift.Context) {
	user := currentUser(c, h.userService)
	if user == nil {
		return
	}

	var req dto.CreateTeamRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	ctx := c.Request.Context()
	details, err := h.teamService.Create(ctx, user, services.CreateTeamInput{
		Name:            req.Name,
		LeaderName:      req.LeaderName,
		PrimaryNodeName: req.PrimaryNode,
		BackupNodeNames: req.BackupNodes,
	})
	if err != nil {
		respondError(c, err, "create team")
		return
	}

	tokens, err := issueTokens(ctx, h.jwtService, h.sessionService, user, details.ID)
	if err != nil {
		log.Printf("Failed to issue tokens for %s: %v", user.ID, err)
		c.InternalServerError("failed to generate tokens")
		return
	}

	team := toTeamResponse(&details.Team, details.ID)
	team.Member = true
	_ = c.JSON(201, dto.TeamSessionResponse{
		Message: fmt.Sprintf("Team %q created successfully with %d storage nodes", details.Name, len(details.Nodes)),
		Team:    team,
		Tokens:  *tokens,
	})
}

// Select makes teamID the caller's current team by issuing a token pair
// carrying it.
func (h *TeamHandler) Select(c *drift.Context) {
	user := currentUser(c, h.userService)
	if user == nil {
		return
	}

	var req dto.SelectTeamRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}
	if req.TeamID == uuid.Nil {
		c.BadRequest("team_id is required")
		return
	}

	ctx := c.Request.Context()
	team, err := h.teamService.Select(ctx, user.ID, req.TeamID)
	if err != nil {
		respondError(c, err, "select team")
		return
	}

	tokens, err := issueTokens(ctx, h.jwtService, h.sessionService, user, team.ID)
	if err != nil {
		log.Printf("Failed to issue tokens for %s: %v", user.ID, err)
		c.InternalServerError("failed to generate tokens")
		return
	}

	resp := toTeamResponse(team, team.ID)
	resp.Member = true
	_ = c.JSON(200, dto.TeamSessionResponse{
		Message: fmt.Sprintf("Switched to team %s", team.Name),
		Team:    resp,
		Tokens:  *tokens,
	})
}

func (h *TeamHandler) Get(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	teamID, ok := parseID(c, "id", "team")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	isMember, err := h.teamService.IsMember(ctx, teamID, userID)
	if err != nil {
		respondError(c, err, "get team")
		return
	}
	if !isMember {
		c.Forbidden("not a member of this team")
		return
	}

	details, err := h.teamService.GetDetails(ctx, teamID)
	if err != nil {
		respondError(c, err, "get team")
		return
	}

	_ = c.JSON(200, toTeamDetailsResponse(details, userID, middleware.GetTeamClaim(c)))
}

func (h *TeamHandler) AddMember(c *drift.Context) {
	user := currentUser(c, h.userService)
	if user == nil {
		return
	}

	teamID, ok := parseID(c, "id", "team")
	if !ok {
		return
	}

	var req dto.AddMemberRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}
	if req.Email == "" {
		c.BadRequest("email is required")
		return
	}

	added, err := h.teamService.AddMember(c.Request.Context(), teamID, user, req.Email)
	if err != nil {
		respondError(c, err, "add member")
		return
	}

	_ = c.JSON(201, dto.MemberAddedResponse{
		Message: fmt.Sprintf("%s added to the team", added.Name),
		User:    toUserResponse(added),
	})
}
