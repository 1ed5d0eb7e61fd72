package handlers

import (
	"context"
	"time"

	"github.com/dimitrije/dfsim-api/internal/models"
	"github.com/dimitrije/dfsim-api/internal/services"
	"github.com/dimitrije/dfsim-api/internal/sse"
	"github.com/google/uuid"
)

// UserServiceInterface defines the methods used by handlers from UserService
type UserServiceInterface interface {
	Register(ctx context.Context, name, email, password string) (*models.User, error)
	Authenticate(ctx context.Context, email, password string) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// SessionServiceInterface defines the methods used by handlers from SessionService
type SessionServiceInterface interface {
	Store(ctx context.Context, userID uuid.UUID, refreshToken string, expiresAt time.Time) error
	Validate(ctx context.Context, refreshToken string) (uuid.UUID, error)
	Revoke(ctx context.Context, refreshToken string) error
	RevokeAll(ctx context.Context, userID uuid.UUID) error
}

// JWTServiceInterface defines the methods used by handlers from JWTService
type JWTServiceInterface interface {
	GenerateTokenPair(userID uuid.UUID, email string, teamID uuid.UUID) (*services.TokenPair, error)
	ValidateRefreshToken(token string) (uuid.UUID, error)
	RefreshExpiry() time.Duration
}

// TeamServiceInterface defines the methods used by handlers from TeamService
type TeamServiceInterface interface {
	Create(ctx context.Context, creator *models.User, in services.CreateTeamInput) (*models.TeamDetails, error)
	List(ctx context.Context) ([]models.Team, error)
	GetDetails(ctx context.Context, teamID uuid.UUID) (*models.TeamDetails, error)
	GetUserTeams(ctx context.Context, userID uuid.UUID) ([]models.Team, error)
	IsMember(ctx context.Context, teamID, userID uuid.UUID) (bool, error)
	AddMember(ctx context.Context, teamID uuid.UUID, actor *models.User, email string) (*models.User, error)
	ResolveCurrentTeam(ctx context.Context, userID, selected uuid.UUID) (*models.Team, error)
	Select(ctx context.Context, userID, teamID uuid.UUID) (*models.Team, error)
}

// WorkflowServiceInterface defines the methods used by handlers from WorkflowService
type WorkflowServiceInterface interface {
	Create(ctx context.Context, actor *models.User, teamID, primaryNodeID uuid.UUID, src models.FileSource) (*models.File, error)
	Confirm(ctx context.Context, actor *models.User, fileID uuid.UUID) (*models.File, error)
	ConfirmEdit(ctx context.Context, actor *models.User, fileID uuid.UUID) (*models.File, error)
	Approve(ctx context.Context, actor *models.User, fileID uuid.UUID) (*services.Outcome, error)
	Reject(ctx context.Context, actor *models.User, fileID uuid.UUID) (*services.Outcome, error)
	Edit(ctx context.Context, actor *models.User, fileID uuid.UUID, name, content string) (*models.File, error)
	RequestDelete(ctx context.Context, actor *models.User, fileID uuid.UUID) (*models.File, error)
	ListTeamFiles(ctx context.Context, teamID uuid.UUID) ([]models.FileListItem, error)
	View(ctx context.Context, actor *models.User, fileID uuid.UUID) (*models.File, error)
	Download(ctx context.Context, actor *models.User, fileID uuid.UUID) (*services.Download, error)
}

// NodeServiceInterface defines the methods used by handlers from NodeLedger
type NodeServiceInterface interface {
	ListByTeam(ctx context.Context, teamID uuid.UUID) ([]models.Node, error)
	ListWithFiles(ctx context.Context, teamID uuid.UUID) ([]models.NodeWithFiles, error)
}

// NotificationServiceInterface defines the methods used by handlers from NotificationService
type NotificationServiceInterface interface {
	ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Notification, error)
	MarkRead(ctx context.Context, id, userID uuid.UUID) error
}

// HubInterface defines the methods used by handlers from the SSE hub
type HubInterface interface {
	Register(client *sse.Client)
	Unregister(client *sse.Client)
}

// LiveHubInterface adds the per-team subscriptions driven over WebSocket
type LiveHubInterface interface {
	HubInterface
	SubscribeToTeam(clientID string, teamID uuid.UUID)
	UnsubscribeFromTeam(clientID string, teamID uuid.UUID)
}

// AccessTokenValidator defines the method used by handlers from JWTService
type AccessTokenValidator interface {
	ValidateAccessToken(token string) (*services.Claims, error)
}
