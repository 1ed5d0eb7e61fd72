package services

import (
	"context"
	"testing"
	"time"

	"github.com/dimitrije/dfsim-api/internal/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var userColumns = []string{"id", "email", "name", "password_hash", "created_at", "updated_at"}

func setupUserService(t *testing.T) (*UserService, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	db := &database.DB{Pool: mock}
	return NewUserService(db), mock
}

func TestUserService_Register(t *testing.T) {
	svc, mock := setupUserService(t)
	ctx := context.Background()
	userID := uuid.New()
	now := time.Now()

	rows := pgxmock.NewRows(userColumns).
		AddRow(userID, "ada@example.com", "Ada", "hash", now, now)

	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs("ada@example.com", "Ada", pgxmock.AnyArg()).
		WillReturnRows(rows)

	user, err := svc.Register(ctx, " Ada ", "ADA@example.com", "secret1")

	require.NoError(t, err)
	assert.Equal(t, userID, user.ID)
	assert.Equal(t, "ada@example.com", user.Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserService_Register_Validation(t *testing.T) {
	svc, mock := setupUserService(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		userName string
		email    string
		password string
	}{
		{"missing name", "", "ada@example.com", "secret1"},
		{"bad email", "Ada", "not-an-email", "secret1"},
		{"short password", "Ada", "ada@example.com", "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.userName, tt.email, tt.password)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserService_Register_EmailTaken(t *testing.T) {
	svc, mock := setupUserService(t)

	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs("ada@example.com", "Ada", pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	_, err := svc.Register(context.Background(), "Ada", "ada@example.com", "secret1")

	assert.ErrorIs(t, err, ErrEmailTaken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserService_Authenticate(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("secret1"), bcrypt.MinCost)
	require.NoError(t, err)
	userID := uuid.New()
	now := time.Now()

	t.Run("correct password", func(t *testing.T) {
		svc, mock := setupUserService(t)
		mock.ExpectQuery(`SELECT .+ FROM users WHERE email`).
			WithArgs("ada@example.com").
			WillReturnRows(pgxmock.NewRows(userColumns).AddRow(userID, "ada@example.com", "Ada", string(hash), now, now))

		user, err := svc.Authenticate(context.Background(), "Ada@Example.com", "secret1")

		require.NoError(t, err)
		assert.Equal(t, userID, user.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("wrong password", func(t *testing.T) {
		svc, mock := setupUserService(t)
		mock.ExpectQuery(`SELECT .+ FROM users WHERE email`).
			WithArgs("ada@example.com").
			WillReturnRows(pgxmock.NewRows(userColumns).AddRow(userID, "ada@example.com", "Ada", string(hash), now, now))

		_, err := svc.Authenticate(context.Background(), "ada@example.com", "nope")

		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		svc, mock := setupUserService(t)
		mock.ExpectQuery(`SELECT .+ FROM users WHERE email`).
			WithArgs("ghost@example.com").
			WillReturnError(pgx.ErrNoRows)

		_, err := svc.Authenticate(context.Background(), "ghost@example.com", "secret1")

		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestUserService_GetByID_NotFound(t *testing.T) {
	svc, mock := setupUserService(t)
	userID := uuid.New()

	mock.ExpectQuery(`SELECT .+ FROM users WHERE id`).
		WithArgs(userID).
		WillReturnError(pgx.ErrNoRows)

	_, err := svc.GetByID(context.Background(), userID)

	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserService_GetByName(t *testing.T) {
	svc, mock := setupUserService(t)
	userID := uuid.New()
	now := time.Now()

	mock.ExpectQuery(`SELECT .+ FROM users WHERE name = .+ ORDER BY created_at`).
		WithArgs("Grace").
		WillReturnRows(pgxmock.NewRows(userColumns).AddRow(userID, "grace@example.com", "Grace", "hash", now, now))

	user, err := svc.GetByName(context.Background(), "Grace")

	require.NoError(t, err)
	assert.Equal(t, userID, user.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
