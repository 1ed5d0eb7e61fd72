package testutil

import (
	"context"
	"time"

	"github.com/dimitrije/dfsim-api/internal/models"
	"github.com/dimitrije/dfsim-api/internal/services"
	"github.com/dimitrije/dfsim-api/internal/sse"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockUserService mocks the UserService
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Register(ctx context.Context, name, email, password string) (*models.User, error) {
	args := m.Called(ctx, name, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

// MockSessionService mocks the SessionService
type MockSessionService struct {
	mock.Mock
}

func (m *MockSessionService) Store(ctx context.Context, userID uuid.UUID, refreshToken string, expiresAt time.Time) error {
	args := m.Called(ctx, userID, refreshToken, expiresAt)
	return args.Error(0)
}

func (m *MockSessionService) Validate(ctx context.Context, refreshToken string) (uuid.UUID, error) {
	args := m.Called(ctx, refreshToken)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockSessionService) Revoke(ctx context.Context, refreshToken string) error {
	args := m.Called(ctx, refreshToken)
	return args.Error(0)
}

func (m *MockSessionService) RevokeAll(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// MockJWTService mocks the JWTService
type MockJWTService struct {
	mock.Mock
}

func (m *MockJWTService) GenerateTokenPair(userID uuid.UUID, email string, teamID uuid.UUID) (*services.TokenPair, error) {
	args := m.Called(userID, email, teamID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.TokenPair), args.Error(1)
}

func (m *MockJWTService) ValidateRefreshToken(token string) (uuid.UUID, error) {
	args := m.Called(token)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockJWTService) RefreshExpiry() time.Duration {
	args := m.Called()
	return args.Get(0).(time.Duration)
}

// MockTeamService mocks the TeamService
type MockTeamService struct {
	mock.Mock
}

func (m *MockTeamService) Create(ctx context.Context, creator *models.User, in services.CreateTeamInput) (*models.TeamDetails, error) {
	args := m.Called(ctx, creator, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TeamDetails), args.Error(1)
}

func (m *MockTeamService) List(ctx context.Context) ([]models.Team, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Team), args.Error(1)
}

func (m *MockTeamService) GetDetails(ctx context.Context, teamID uuid.UUID) (*models.TeamDetails, error) {
	args := m.Called(ctx, teamID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TeamDetails), args.Error(1)
}

func (m *MockTeamService) GetUserTeams(ctx context.Context, userID uuid.UUID) ([]models.Team, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Team), args.Error(1)
}

func (m *MockTeamService) IsMember(ctx context.Context, teamID, userID uuid.UUID) (bool, error) {
	args := m.Called(ctx, teamID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockTeamService) AddMember(ctx context.Context, teamID uuid.UUID, actor *models.User, email string) (*models.User, error) {
	args := m.Called(ctx, teamID, actor, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockTeamService) ResolveCurrentTeam(ctx context.Context, userID, selected uuid.UUID) (*models.Team, error) {
	args := m.Called(ctx, userID, selected)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Team), args.Error(1)
}

func (m *MockTeamService) Select(ctx context.Context, userID, teamID uuid.UUID) (*models.Team, error) {
	args := m.Called(ctx, userID, teamID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Team), args.Error(1)
}

// MockWorkflowService mocks the WorkflowService
type MockWorkflowService struct {
	mock.Mock
}

func (m *MockWorkflowService) Create(ctx context.Context, actor *models.User, teamID, primaryNodeID uuid.UUID, src models.FileSource) (*models.File, error) {
	args := m.Called(ctx, actor, teamID, primaryNodeID, src)
	return fileResult(args)
}

func (m *MockWorkflowService) Confirm(ctx context.Context, actor *models.User, fileID uuid.UUID) (*models.File, error) {
	return fileResult(m.Called(ctx, actor, fileID))
}

func (m *MockWorkflowService) ConfirmEdit(ctx context.Context, actor *models.User, fileID uuid.UUID) (*models.File, error) {
	return fileResult(m.Called(ctx, actor, fileID))
}

func (m *MockWorkflowService) Approve(ctx context.Context, actor *models.User, fileID uuid.UUID) (*services.Outcome, error) {
	return outcomeResult(m.Called(ctx, actor, fileID))
}

func (m *MockWorkflowService) Reject(ctx context.Context, actor *models.User, fileID uuid.UUID) (*services.Outcome, error) {
	return outcomeResult(m.Called(ctx, actor, fileID))
}

func (m *MockWorkflowService) Edit(ctx context.Context, actor *models.User, fileID uuid.UUID, name, content string) (*models.File, error) {
	return fileResult(m.Called(ctx, actor, fileID, name, content))
}

func (m *MockWorkflowService) RequestDelete(ctx context.Context, actor *models.User, fileID uuid.UUID) (*models.File, error) {
	return fileResult(m.Called(ctx, actor, fileID))
}

func (m *MockWorkflowService) ListTeamFiles(ctx context.Context, teamID uuid.UUID) ([]models.FileListItem, error) {
	args := m.Called(ctx, teamID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.FileListItem), args.Error(1)
}

func (m *MockWorkflowService) View(ctx context.Context, actor *models.User, fileID uuid.UUID) (*models.File, error) {
	return fileResult(m.Called(ctx, actor, fileID))
}

func (m *MockWorkflowService) Download(ctx context.Context, actor *models.User, fileID uuid.UUID) (*services.Download, error) {
	args := m.Called(ctx, actor, fileID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.Download), args.Error(1)
}

func fileResult(args mock.Arguments) (*models.File, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.File), args.Error(1)
}

func outcomeResult(args mock.Arguments) (*services.Outcome, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.Outcome), args.Error(1)
}

// MockNodeService mocks the NodeLedger
type MockNodeService struct {
	mock.Mock
}

func (m *MockNodeService) ListByTeam(ctx context.Context, teamID uuid.UUID) ([]models.Node, error) {
	args := m.Called(ctx, teamID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Node), args.Error(1)
}

func (m *MockNodeService) ListWithFiles(ctx context.Context, teamID uuid.UUID) ([]models.NodeWithFiles, error) {
	args := m.Called(ctx, teamID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.NodeWithFiles), args.Error(1)
}

// MockNotificationService mocks the NotificationService
type MockNotificationService struct {
	mock.Mock
}

func (m *MockNotificationService) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Notification, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Notification), args.Error(1)
}

func (m *MockNotificationService) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	args := m.Called(ctx, id, userID)
	return args.Error(0)
}

// MockHub mocks the SSE hub
type MockHub struct {
	mock.Mock
}

func (m *MockHub) Register(client *sse.Client) {
	m.Called(client)
}

func (m *MockHub) Unregister(client *sse.Client) {
	m.Called(client)
}

func (m *MockHub) SubscribeToTeam(clientID string, teamID uuid.UUID) {
	m.Called(clientID, teamID)
}

func (m *MockHub) UnsubscribeFromTeam(clientID string, teamID uuid.UUID) {
	m.Called(clientID, teamID)
}
