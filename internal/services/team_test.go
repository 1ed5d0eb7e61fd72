package services

import (
	"context"
	"testing"
	"time"

	"github.com/c2h5oh/datasize"
	"github.com/dimitrije/dfsim-api/internal/database"
	"github.com/dimitrije/dfsim-api/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var teamRowColumns = []string{"id", "name", "leader_id", "leader_name", "created_by", "created_at", "updated_at"}

func setupTeamService(t *testing.T) (*TeamService, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	db := &database.DB{Pool: mock}
	return NewTeamService(db, datasize.GB), mock
}

func nodeRow(rows *pgxmock.Rows, teamID uuid.UUID, name string, pos int) *pgxmock.Rows {
	now := time.Now()
	return rows.AddRow(uuid.New(), teamID, "KEY", name, pos, int64(datasize.GB), int64(0), int64(datasize.GB), 0, "online", now, now)
}

func TestTeamService_Create_CreatorLeads(t *testing.T) {
	svc, mock := setupTeamService(t)
	ctx := context.Background()
	creator := &models.User{ID: uuid.New(), Name: "Ada"}
	teamID := uuid.New()
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO teams`).
		WithArgs("Blue", &creator.ID, "Ada", creator.ID).
		WillReturnRows(pgxmock.NewRows(teamRowColumns).AddRow(teamID, "Blue", &creator.ID, "Ada", &creator.ID, now, now))
	mock.ExpectQuery(`INSERT INTO team_members`).
		WithArgs(teamID, creator.ID).
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(now))
	mock.ExpectQuery(`INSERT INTO nodes`).
		WithArgs(teamID, pgxmock.AnyArg(), "alpha", 0, int64(datasize.GB)).
		WillReturnRows(nodeRow(pgxmock.NewRows(nodeRowColumns), teamID, "alpha", 0))
	mock.ExpectQuery(`INSERT INTO nodes`).
		WithArgs(teamID, pgxmock.AnyArg(), "beta", 1, int64(datasize.GB)).
		WillReturnRows(nodeRow(pgxmock.NewRows(nodeRowColumns), teamID, "beta", 1))
	mock.ExpectCommit()

	details, err := svc.Create(ctx, creator, CreateTeamInput{
		Name:            " Blue ",
		PrimaryNodeName: "alpha",
		BackupNodeNames: []string{"beta", "  "},
	})

	require.NoError(t, err)
	assert.Equal(t, teamID, details.ID)
	assert.Equal(t, creator, details.Leader)
	assert.Len(t, details.Members, 1)
	require.Len(t, details.Nodes, 2)
	assert.Equal(t, "alpha", details.Nodes[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeamService_Create_ResolvesNamedLeader(t *testing.T) {
	svc, mock := setupTeamService(t)
	ctx := context.Background()
	creator := &models.User{ID: uuid.New(), Name: "Ada"}
	leaderID := uuid.New()
	teamID := uuid.New()
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .+ FROM users WHERE name`).
		WithArgs("Grace").
		WillReturnRows(pgxmock.NewRows(userColumns).AddRow(leaderID, "grace@example.com", "Grace", "hash", now, now))
	mock.ExpectQuery(`INSERT INTO teams`).
		WithArgs("Blue", pgxmock.AnyArg(), "Grace", creator.ID).
		WillReturnRows(pgxmock.NewRows(teamRowColumns).AddRow(teamID, "Blue", &leaderID, "Grace", &creator.ID, now, now))
	mock.ExpectQuery(`INSERT INTO team_members`).
		WithArgs(teamID, creator.ID).
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(now))
	mock.ExpectQuery(`INSERT INTO team_members`).
		WithArgs(teamID, leaderID).
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(now))
	mock.ExpectQuery(`INSERT INTO nodes`).
		WithArgs(teamID, pgxmock.AnyArg(), "alpha", 0, int64(datasize.GB)).
		WillReturnRows(nodeRow(pgxmock.NewRows(nodeRowColumns), teamID, "alpha", 0))
	mock.ExpectCommit()

	details, err := svc.Create(ctx, creator, CreateTeamInput{Name: "Blue", LeaderName: "Grace", PrimaryNodeName: "alpha"})

	require.NoError(t, err)
	require.NotNil(t, details.Leader)
	assert.Equal(t, leaderID, details.Leader.ID)
	assert.Len(t, details.Members, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeamService_Create_UnresolvedLeaderKeepsName(t *testing.T) {
	svc, mock := setupTeamService(t)
	creator := &models.User{ID: uuid.New(), Name: "Ada"}
	teamID := uuid.New()
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .+ FROM users WHERE name`).
		WithArgs("Nobody").
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery(`INSERT INTO teams`).
		WithArgs("Blue", (*uuid.UUID)(nil), "Nobody", creator.ID).
		WillReturnRows(pgxmock.NewRows(teamRowColumns).AddRow(teamID, "Blue", (*uuid.UUID)(nil), "Nobody", &creator.ID, now, now))
	mock.ExpectQuery(`INSERT INTO team_members`).
		WithArgs(teamID, creator.ID).
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(now))
	mock.ExpectQuery(`INSERT INTO nodes`).
		WithArgs(teamID, pgxmock.AnyArg(), "alpha", 0, int64(datasize.GB)).
		WillReturnRows(nodeRow(pgxmock.NewRows(nodeRowColumns), teamID, "alpha", 0))
	mock.ExpectCommit()

	details, err := svc.Create(context.Background(), creator, CreateTeamInput{Name: "Blue", LeaderName: "Nobody", PrimaryNodeName: "alpha"})

	require.NoError(t, err)
	assert.Nil(t, details.Leader)
	assert.Equal(t, "Nobody", details.LeaderName)
	assert.False(t, details.IsLedBy(creator))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeamService_Create_Validation(t *testing.T) {
	svc, mock := setupTeamService(t)
	creator := &models.User{ID: uuid.New(), Name: "Ada"}

	tests := []struct {
		name string
		in   CreateTeamInput
	}{
		{"missing name", CreateTeamInput{PrimaryNodeName: "alpha"}},
		{"missing primary", CreateTeamInput{Name: "Blue"}},
		{"too many backups", CreateTeamInput{Name: "Blue", PrimaryNodeName: "a", BackupNodeNames: []string{"b", "c", "d", "e"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), creator, tt.in)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeamService_Create_DuplicateName(t *testing.T) {
	svc, mock := setupTeamService(t)
	creator := &models.User{ID: uuid.New(), Name: "Ada"}

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO teams`).
		WithArgs("Blue", &creator.ID, "Ada", creator.ID).
		WillReturnError(&pgconn.PgError{Code: "23505"})
	mock.ExpectRollback()

	_, err := svc.Create(context.Background(), creator, CreateTeamInput{Name: "Blue", PrimaryNodeName: "alpha"})

	assert.ErrorIs(t, err, ErrDuplicateTeamName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeamService_Create_RollsBackOnNodeFailure(t *testing.T) {
	svc, mock := setupTeamService(t)
	creator := &models.User{ID: uuid.New(), Name: "Ada"}
	teamID := uuid.New()
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO teams`).
		WithArgs("Blue", &creator.ID, "Ada", creator.ID).
		WillReturnRows(pgxmock.NewRows(teamRowColumns).AddRow(teamID, "Blue", &creator.ID, "Ada", &creator.ID, now, now))
	mock.ExpectQuery(`INSERT INTO team_members`).
		WithArgs(teamID, creator.ID).
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(now))
	mock.ExpectQuery(`INSERT INTO nodes`).
		WithArgs(teamID, pgxmock.AnyArg(), "alpha", 0, int64(datasize.GB)).
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	_, err := svc.Create(context.Background(), creator, CreateTeamInput{Name: "Blue", PrimaryNodeName: "alpha"})

	assert.ErrorIs(t, err, assert.AnError)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeamService_GetByID_NotFound(t *testing.T) {
	svc, mock := setupTeamService(t)
	teamID := uuid.New()

	mock.ExpectQuery(`SELECT .+ FROM teams WHERE id`).
		WithArgs(teamID).
		WillReturnError(pgx.ErrNoRows)

	_, err := svc.GetByID(context.Background(), teamID)

	assert.ErrorIs(t, err, ErrTeamNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeamService_GetDetails(t *testing.T) {
	svc, mock := setupTeamService(t)
	teamID := uuid.New()
	leaderID := uuid.New()
	memberID := uuid.New()
	now := time.Now()

	mock.ExpectQuery(`SELECT .+ FROM teams WHERE id`).
		WithArgs(teamID).
		WillReturnRows(pgxmock.NewRows(teamRowColumns).AddRow(teamID, "Blue", &leaderID, "Grace", &leaderID, now, now))
	mock.ExpectQuery(`SELECT tm.team_id.+FROM team_members tm JOIN users u`).
		WithArgs(teamID).
		WillReturnRows(pgxmock.NewRows([]string{
			"team_id", "user_id", "created_at", "id", "email", "name", "password_hash", "u_created_at", "u_updated_at",
		}).
			AddRow(teamID, leaderID, now, leaderID, "grace@example.com", "Grace", "h", now, now).
			AddRow(teamID, memberID, now, memberID, "bob@example.com", "Bob", "h", now, now))
	mock.ExpectQuery(`SELECT .+ FROM nodes WHERE team_id`).
		WithArgs(teamID).
		WillReturnRows(nodeRow(pgxmock.NewRows(nodeRowColumns), teamID, "alpha", 0))

	details, err := svc.GetDetails(context.Background(), teamID)

	require.NoError(t, err)
	require.NotNil(t, details.Leader)
	assert.Equal(t, leaderID, details.Leader.ID)
	assert.Len(t, details.Members, 2)
	assert.Len(t, details.Nodes, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeamService_AddMember(t *testing.T) {
	teamID := uuid.New()
	leader := &models.User{ID: uuid.New(), Name: "Grace"}
	newID := uuid.New()
	now := time.Now()

	expectTeam := func(mock pgxmock.PgxPoolIface) {
		mock.ExpectQuery(`SELECT .+ FROM teams WHERE id`).
			WithArgs(teamID).
			WillReturnRows(pgxmock.NewRows(teamRowColumns).AddRow(teamID, "Blue", &leader.ID, "Grace", &leader.ID, now, now))
	}

	t.Run("leader adds", func(t *testing.T) {
		svc, mock := setupTeamService(t)
		expectTeam(mock)
		mock.ExpectQuery(`SELECT .+ FROM users WHERE email`).
			WithArgs("bob@example.com").
			WillReturnRows(pgxmock.NewRows(userColumns).AddRow(newID, "bob@example.com", "Bob", "h", now, now))
		mock.ExpectExec(`INSERT INTO team_members .+ ON CONFLICT`).
			WithArgs(teamID, newID).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		user, err := svc.AddMember(context.Background(), teamID, leader, " Bob@Example.com")

		require.NoError(t, err)
		assert.Equal(t, newID, user.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("already member", func(t *testing.T) {
		svc, mock := setupTeamService(t)
		expectTeam(mock)
		mock.ExpectQuery(`SELECT .+ FROM users WHERE email`).
			WithArgs("bob@example.com").
			WillReturnRows(pgxmock.NewRows(userColumns).AddRow(newID, "bob@example.com", "Bob", "h", now, now))
		mock.ExpectExec(`INSERT INTO team_members`).
			WithArgs(teamID, newID).
			WillReturnResult(pgxmock.NewResult("INSERT", 0))

		_, err := svc.AddMember(context.Background(), teamID, leader, "bob@example.com")

		assert.ErrorIs(t, err, ErrAlreadyMember)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not leader", func(t *testing.T) {
		svc, mock := setupTeamService(t)
		expectTeam(mock)

		_, err := svc.AddMember(context.Background(), teamID, &models.User{ID: uuid.New(), Name: "Grace"}, "bob@example.com")

		assert.ErrorIs(t, err, ErrNotLeader)
	})

	t.Run("unknown email", func(t *testing.T) {
		svc, mock := setupTeamService(t)
		expectTeam(mock)
		mock.ExpectQuery(`SELECT .+ FROM users WHERE email`).
			WithArgs("ghost@example.com").
			WillReturnError(pgx.ErrNoRows)

		_, err := svc.AddMember(context.Background(), teamID, leader, "ghost@example.com")

		assert.ErrorIs(t, err, ErrUserNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func expectUserTeams(mock pgxmock.PgxPoolIface, userID uuid.UUID, teamIDs ...uuid.UUID) {
	now := time.Now()
	rows := pgxmock.NewRows(teamRowColumns)
	for _, id := range teamIDs {
		rows.AddRow(id, "team-"+id.String()[:4], (*uuid.UUID)(nil), "", (*uuid.UUID)(nil), now, now)
	}
	mock.ExpectQuery(`SELECT .+ FROM teams t JOIN team_members tm`).
		WithArgs(userID).
		WillReturnRows(rows)
}

func TestTeamService_ResolveCurrentTeam(t *testing.T) {
	userID := uuid.New()
	only := uuid.New()

	t.Run("no teams", func(t *testing.T) {
		svc, mock := setupTeamService(t)
		expectUserTeams(mock, userID)

		_, err := svc.ResolveCurrentTeam(context.Background(), userID, uuid.Nil)

		assert.ErrorIs(t, err, ErrNoTeam)
	})

	t.Run("single team auto-selected", func(t *testing.T) {
		svc, mock := setupTeamService(t)
		expectUserTeams(mock, userID, only)

		team, err := svc.ResolveCurrentTeam(context.Background(), userID, uuid.Nil)

		require.NoError(t, err)
		assert.Equal(t, only, team.ID)
	})

	t.Run("several teams need a selection", func(t *testing.T) {
		svc, mock := setupTeamService(t)
		expectUserTeams(mock, userID, uuid.New(), uuid.New())

		_, err := svc.ResolveCurrentTeam(context.Background(), userID, uuid.Nil)

		assert.ErrorIs(t, err, ErrTeamSelectionRequired)
	})

	t.Run("valid selection wins", func(t *testing.T) {
		svc, mock := setupTeamService(t)
		selected := uuid.New()
		now := time.Now()
		mock.ExpectQuery(`SELECT .+ FROM teams WHERE id`).
			WithArgs(selected).
			WillReturnRows(pgxmock.NewRows(teamRowColumns).AddRow(selected, "Blue", (*uuid.UUID)(nil), "", (*uuid.UUID)(nil), now, now))
		mock.ExpectQuery(`SELECT EXISTS`).
			WithArgs(selected, userID).
			WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

		team, err := svc.ResolveCurrentTeam(context.Background(), userID, selected)

		require.NoError(t, err)
		assert.Equal(t, selected, team.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("stale selection falls back", func(t *testing.T) {
		svc, mock := setupTeamService(t)
		stale := uuid.New()
		mock.ExpectQuery(`SELECT .+ FROM teams WHERE id`).
			WithArgs(stale).
			WillReturnError(pgx.ErrNoRows)
		expectUserTeams(mock, userID, only)

		team, err := svc.ResolveCurrentTeam(context.Background(), userID, stale)

		require.NoError(t, err)
		assert.Equal(t, only, team.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestTeamService_Select_NotMember(t *testing.T) {
	svc, mock := setupTeamService(t)
	teamID := uuid.New()
	userID := uuid.New()
	now := time.Now()

	mock.ExpectQuery(`SELECT .+ FROM teams WHERE id`).
		WithArgs(teamID).
		WillReturnRows(pgxmock.NewRows(teamRowColumns).AddRow(teamID, "Blue", (*uuid.UUID)(nil), "", (*uuid.UUID)(nil), now, now))
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(teamID, userID).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))

	_, err := svc.Select(context.Background(), userID, teamID)

	assert.ErrorIs(t, err, ErrNotMember)
	assert.NoError(t, mock.ExpectationsWereMet())
}
