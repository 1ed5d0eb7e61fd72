package testutil

import (
	"context"
	"fmt"
	"testing"

	"github.com/c2h5oh/datasize"
	"github.com/dimitrije/dfsim-api/internal/database"
	"github.com/dimitrije/dfsim-api/internal/models"
	"golang.org/x/crypto/bcrypt"
)

// DefaultPassword is the plain-text password of every fixture user.
const DefaultPassword = "password123"

// Fixtures provides factory methods for creating test data
type Fixtures struct {
	db      *database.DB
	counter int
}

// NewFixtures creates a new fixtures factory
func NewFixtures(db *database.DB) *Fixtures {
	return &Fixtures{db: db}
}

// CreateUser creates a test user with default values
func (f *Fixtures) CreateUser(t *testing.T, opts ...UserOption) *models.User {
	t.Helper()
	f.counter++

	user := &models.User{
		Email: fmt.Sprintf("user%d@example.com", f.counter),
		Name:  fmt.Sprintf("Test User %d", f.counter),
	}

	for _, opt := range opts {
		opt(user)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	err = f.db.Pool.QueryRow(context.Background(), `
		INSERT INTO users (email, name, password_hash)
		VALUES ($1, $2, $3)
		RETURNING id, email, name, password_hash, created_at, updated_at
	`, user.Email, user.Name, string(hash)).Scan(
		&user.ID, &user.Email, &user.Name, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	return user
}

// UserOption configures a test user
type UserOption func(*models.User)

// WithEmail sets the user's email
func WithEmail(email string) UserOption {
	return func(u *models.User) {
		u.Email = email
	}
}

// WithName sets the user's name
func WithName(name string) UserOption {
	return func(u *models.User) {
		u.Name = name
	}
}

// CreateTeam creates a team led by leader, with leader as its first member
// and one node per name. The first node is the primary.
func (f *Fixtures) CreateTeam(t *testing.T, leader *models.User, nodeNames ...string) (*models.Team, []models.Node) {
	t.Helper()
	f.counter++
	ctx := context.Background()

	team := &models.Team{}
	err := f.db.Pool.QueryRow(ctx, `
		INSERT INTO teams (name, leader_id, leader_name, created_by)
		VALUES ($1, $2, $3, $2)
		RETURNING id, name, leader_id, leader_name, created_by, created_at, updated_at
	`, fmt.Sprintf("Test Team %d", f.counter), leader.ID, leader.Name).Scan(
		&team.ID, &team.Name, &team.LeaderID, &team.LeaderName, &team.CreatedBy, &team.CreatedAt, &team.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("failed to create team: %v", err)
	}

	f.AddMember(t, team, leader)

	capacity := int64(datasize.MB)
	nodes := make([]models.Node, len(nodeNames))
	for i, name := range nodeNames {
		n := &nodes[i]
		err := f.db.Pool.QueryRow(ctx, `
			INSERT INTO nodes (team_id, node_key, name, position, total_storage, available_storage)
			VALUES ($1, $2, $3, $4, $5, $5)
			RETURNING id, team_id, node_key, name, position, total_storage, used_storage,
				available_storage, file_count, status, created_at, updated_at
		`, team.ID, fmt.Sprintf("NODE-%d-%d", f.counter, i), name, i, capacity).Scan(
			&n.ID, &n.TeamID, &n.NodeKey, &n.Name, &n.Position, &n.TotalStorage, &n.UsedStorage,
			&n.AvailableStorage, &n.FileCount, &n.Status, &n.CreatedAt, &n.UpdatedAt,
		)
		if err != nil {
			t.Fatalf("failed to create node %q: %v", name, err)
		}
	}

	return team, nodes
}

// AddMember adds user to team
func (f *Fixtures) AddMember(t *testing.T, team *models.Team, user *models.User) {
	t.Helper()
	_, err := f.db.Pool.Exec(context.Background(), `
		INSERT INTO team_members (team_id, user_id) VALUES ($1, $2)
	`, team.ID, user.ID)
	if err != nil {
		t.Fatalf("failed to add team member: %v", err)
	}
}
