package handlers

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/c2h5oh/datasize"
	"github.com/dimitrije/dfsim-api/internal/middleware"
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

type fileMocks struct {
	workflow *testutil.MockWorkflowService
	users    *testutil.MockUserService
	teams    *testutil.MockTeamService
}

func setupFileTest(t *testing.T) (*fileMocks, *FileHandler) {
	t.Helper()
	m := &fileMocks{
		workflow: new(testutil.MockWorkflowService),
		users:    new(testutil.MockUserService),
		teams:    new(testutil.MockTeamService),
	}
	return m, NewFileHandler(m.workflow, m.users, datasize.MB)
}

func testFile(teamID uuid.UUID, status, changeType string) *models.File {
	return &models.File{
		ID:            uuid.New(),
		TeamID:        teamID,
		StorageNodeID: uuid.New(),
		FileType:      models.FileTypeCreate,
		FileName:      "notes.txt",
		FileSize:      5,
		FileContent:   "hello",
		Status:        status,
		ChangeType:    changeType,
		UploadDate:    time.Now(),
	}
}

func TestFileHandler_List(t *testing.T) {
	m, handler := setupFileTest(t)
	userID := uuid.New()
	team := &models.Team{ID: uuid.New(), Name: "Blue"}
	item := models.FileListItem{
		File:            *testFile(team.ID, models.FileStatusSynced, models.ChangeTypeCreate),
		OwnerName:       "Ada",
		StorageNodeName: "Main",
	}

	m.teams.On("ResolveCurrentTeam", mock.Anything, userID, team.ID).Return(team, nil)
	m.workflow.On("ListTeamFiles", mock.Anything, team.ID).Return([]models.FileListItem{item}, nil)

	app := protectedRoute(http.MethodGet, "/files", handler.List, middleware.RequireTeam(m.teams))
	rec := testutil.NewHTTPTestClient(t, app).GET("/files", authHeaders(t, userID, team.ID))

	testutil.AssertStatus(t, rec, http.StatusOK)

	var response dto.FileListResponse
	testutil.ParseJSON(t, rec, &response)
	assert.Equal(t, "Blue", response.Team.Name)
	require.Len(t, response.Files, 1)
	assert.Equal(t, "Ada", response.Files[0].OwnerName)
	assert.Equal(t, "Main", response.Files[0].StorageNodeName)
	assert.Empty(t, response.Files[0].FileContent)
	assert.NotNil(t, response.Files[0].Replicas)
}

func TestFileHandler_List_NoTeam(t *testing.T) {
	m, handler := setupFileTest(t)
	userID := uuid.New()
	m.teams.On("ResolveCurrentTeam", mock.Anything, userID, uuid.Nil).Return(nil, services.ErrTeamSelectionRequired)

	app := protectedRoute(http.MethodGet, "/files", handler.List, middleware.RequireTeam(m.teams))
	rec := testutil.NewHTTPTestClient(t, app).GET("/files", authHeaders(t, userID, uuid.Nil))

	testutil.AssertStatus(t, rec, http.StatusForbidden)
	assert.Contains(t, rec.Body.String(), services.ErrTeamSelectionRequired.Error())
	m.workflow.AssertNotCalled(t, "ListTeamFiles", mock.Anything, mock.Anything)
}

func TestFileHandler_Upload_Inline(t *testing.T) {
	m, handler := setupFileTest(t)
	user := testUser()
	team := &models.Team{ID: uuid.New(), Name: "Blue"}
	nodeID := uuid.New()
	created := testFile(team.ID, models.FileStatusPendingConfirmation, models.ChangeTypeCreate)

	m.teams.On("ResolveCurrentTeam", mock.Anything, user.ID, team.ID).Return(team, nil)
	m.users.On("GetByID", mock.Anything, user.ID).Return(user, nil)
	m.workflow.On("Create", mock.Anything, user, team.ID, nodeID,
		models.InlineContent{Name: "notes.txt", Content: "hello"}).Return(created, nil)

	app := protectedRoute(http.MethodPost, "/files/upload", handler.Upload, middleware.RequireTeam(m.teams))
	rec := testutil.NewHTTPTestClient(t, app).POST("/files/upload", dto.CreateFileRequest{
		FileType:      models.FileTypeCreate,
		FileName:      "notes.txt",
		FileContent:   "hello",
		StorageNodeID: nodeID,
	}, authHeaders(t, user.ID, team.ID))

	testutil.AssertStatus(t, rec, http.StatusCreated)

	var response dto.FileActionResponse
	testutil.ParseJSON(t, rec, &response)
	require.NotNil(t, response.File)
	assert.Equal(t, models.FileStatusPendingConfirmation, response.File.Status)
	assert.Contains(t, response.Message, "Confirm the change")
	m.workflow.AssertExpectations(t)
}

func TestFileHandler_Upload_JSONBinaryRejected(t *testing.T) {
	m, handler := setupFileTest(t)
	user := testUser()
	team := &models.Team{ID: uuid.New()}
	m.teams.On("ResolveCurrentTeam", mock.Anything, user.ID, team.ID).Return(team, nil)
	m.users.On("GetByID", mock.Anything, user.ID).Return(user, nil)

	app := protectedRoute(http.MethodPost, "/files/upload", handler.Upload, middleware.RequireTeam(m.teams))
	rec := testutil.NewHTTPTestClient(t, app).POST("/files/upload", dto.CreateFileRequest{
		FileType: models.FileTypeUpload,
		FileName: "photo.png",
	}, authHeaders(t, user.ID, team.ID))

	testutil.AssertStatus(t, rec, http.StatusBadRequest)
	m.workflow.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestFileHandler_Upload_Multipart(t *testing.T) {
	m, handler := setupFileTest(t)
	user := testUser()
	team := &models.Team{ID: uuid.New(), Name: "Blue"}
	nodeID := uuid.New()
	created := testFile(team.ID, models.FileStatusPendingConfirmation, models.ChangeTypeCreate)
	created.FileType = models.FileTypeUpload

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	require.NoError(t, w.WriteField("storage_node_id", nodeID.String()))
	require.NoError(t, w.WriteField("file_name", "Quarterly report"))
	part, err := w.CreateFormFile("file", "report.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte("a,b\n1,2\n"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	m.teams.On("ResolveCurrentTeam", mock.Anything, user.ID, team.ID).Return(team, nil)
	m.users.On("GetByID", mock.Anything, user.ID).Return(user, nil)
	m.workflow.On("Create", mock.Anything, user, team.ID, nodeID, mock.MatchedBy(func(src models.FileSource) bool {
		up, ok := src.(models.UploadSource)
		return ok &&
			up.Name == "Quarterly report" &&
			up.OriginalName == "report.csv" &&
			up.MIMEType != "" &&
			string(up.Data) == "a,b\n1,2\n"
	})).Return(created, nil)

	app := protectedRoute(http.MethodPost, "/files/upload", handler.Upload, middleware.RequireTeam(m.teams))
	req := httptest.NewRequest(http.MethodPost, "/files/upload", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", authHeaders(t, user.ID, team.ID)["Authorization"])
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)

	testutil.AssertStatus(t, rec, http.StatusCreated)
	m.workflow.AssertExpectations(t)
}

func TestFileHandler_Upload_MultipartBadNode(t *testing.T) {
	m, handler := setupFileTest(t)
	user := testUser()
	team := &models.Team{ID: uuid.New()}

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	require.NoError(t, w.WriteField("storage_node_id", "nope"))
	require.NoError(t, w.Close())

	m.teams.On("ResolveCurrentTeam", mock.Anything, user.ID, team.ID).Return(team, nil)
	m.users.On("GetByID", mock.Anything, user.ID).Return(user, nil)

	app := protectedRoute(http.MethodPost, "/files/upload", handler.Upload, middleware.RequireTeam(m.teams))
	req := httptest.NewRequest(http.MethodPost, "/files/upload", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", authHeaders(t, user.ID, team.ID)["Authorization"])
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)

	testutil.AssertStatus(t, rec, http.StatusBadRequest)
}

func TestFileHandler_Transitions(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		method  string
		action  func(h *FileHandler) drift.HandlerFunc
		message string
	}{
		{"confirm", "confirm", "Confirm", func(h *FileHandler) drift.HandlerFunc { return h.Confirm }, "Waiting for leader approval"},
		{"confirm edit", "confirm-edit", "ConfirmEdit", func(h *FileHandler) drift.HandlerFunc { return h.ConfirmEdit }, "Edit of"},
		{"delete request", "delete-request", "RequestDelete", func(h *FileHandler) drift.HandlerFunc { return h.RequestDelete }, "Deletion of"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, handler := setupFileTest(t)
			user := testUser()
			file := testFile(uuid.New(), models.FileStatusPendingApproval, models.ChangeTypeCreate)

			m.users.On("GetByID", mock.Anything, user.ID).Return(user, nil)
			m.workflow.On(tt.method, mock.Anything, user, file.ID).Return(file, nil)

			app := protectedRoute(http.MethodPost, "/files/:id/"+tt.path, tt.action(handler))
			rec := testutil.NewHTTPTestClient(t, app).POST("/files/"+file.ID.String()+"/"+tt.path, nil,
				authHeaders(t, user.ID, file.TeamID))

			testutil.AssertStatus(t, rec, http.StatusOK)

			var response dto.FileActionResponse
			testutil.ParseJSON(t, rec, &response)
			assert.Contains(t, response.Message, tt.message)
			require.NotNil(t, response.File)
			assert.Equal(t, file.ID, response.File.ID)
			m.workflow.AssertExpectations(t)
		})
	}
}

func TestFileHandler_Confirm_Errors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"wrong state", services.ErrInvalidTransition, http.StatusConflict},
		{"missing", services.ErrFileNotFound, http.StatusNotFound},
		{"not member", services.ErrNotMember, http.StatusForbidden},
		{"storage failure", assert.AnError, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, handler := setupFileTest(t)
			user := testUser()
			fileID := uuid.New()
			m.users.On("GetByID", mock.Anything, user.ID).Return(user, nil)
			m.workflow.On("Confirm", mock.Anything, user, fileID).Return(nil, tt.err)

			app := protectedRoute(http.MethodPost, "/files/:id/confirm", handler.Confirm)
			rec := testutil.NewHTTPTestClient(t, app).POST("/files/"+fileID.String()+"/confirm", nil,
				authHeaders(t, user.ID, uuid.Nil))

			testutil.AssertStatus(t, rec, tt.status)
		})
	}
}

func TestFileHandler_Approve(t *testing.T) {
	m, handler := setupFileTest(t)
	user := testUser()
	file := testFile(uuid.New(), models.FileStatusSynced, models.ChangeTypeCreate)
	file.Replicated = true
	file.ReplicaIDs = []uuid.UUID{uuid.New(), uuid.New()}

	m.users.On("GetByID", mock.Anything, user.ID).Return(user, nil)
	m.workflow.On("Approve", mock.Anything, user, file.ID).Return(&services.Outcome{File: file}, nil)

	app := protectedRoute(http.MethodPost, "/files/:id/approve", handler.Approve)
	rec := testutil.NewHTTPTestClient(t, app).POST("/files/"+file.ID.String()+"/approve", nil,
		authHeaders(t, user.ID, file.TeamID))

	testutil.AssertStatus(t, rec, http.StatusOK)

	var response dto.FileActionResponse
	testutil.ParseJSON(t, rec, &response)
	assert.False(t, response.Removed)
	assert.Contains(t, response.Message, "synced to all backup nodes")
	require.NotNil(t, response.File)
	assert.Len(t, response.File.Replicas, 2)
	assert.True(t, response.File.Replicated)
}

func TestFileHandler_Approve_Delete(t *testing.T) {
	m, handler := setupFileTest(t)
	user := testUser()
	file := testFile(uuid.New(), models.FileStatusPendingDelete, models.ChangeTypeDelete)

	m.users.On("GetByID", mock.Anything, user.ID).Return(user, nil)
	m.workflow.On("Approve", mock.Anything, user, file.ID).Return(&services.Outcome{File: file, Removed: true}, nil)

	app := protectedRoute(http.MethodPost, "/files/:id/approve", handler.Approve)
	rec := testutil.NewHTTPTestClient(t, app).POST("/files/"+file.ID.String()+"/approve", nil,
		authHeaders(t, user.ID, file.TeamID))

	testutil.AssertStatus(t, rec, http.StatusOK)

	var response dto.FileActionResponse
	testutil.ParseJSON(t, rec, &response)
	assert.True(t, response.Removed)
	assert.Nil(t, response.File)
	assert.Contains(t, response.Message, "deleted from all nodes")
}

func TestFileHandler_Approve_NotLeader(t *testing.T) {
	m, handler := setupFileTest(t)
	user := testUser()
	fileID := uuid.New()

	m.users.On("GetByID", mock.Anything, user.ID).Return(user, nil)
	m.workflow.On("Approve", mock.Anything, user, fileID).Return(nil, services.ErrNotLeader)

	app := protectedRoute(http.MethodPost, "/files/:id/approve", handler.Approve)
	rec := testutil.NewHTTPTestClient(t, app).POST("/files/"+fileID.String()+"/approve", nil,
		authHeaders(t, user.ID, uuid.Nil))

	testutil.AssertStatus(t, rec, http.StatusForbidden)
}

func TestFileHandler_Reject(t *testing.T) {
	m, handler := setupFileTest(t)
	user := testUser()
	file := testFile(uuid.New(), models.FileStatusSynced, models.ChangeTypeEdit)

	m.users.On("GetByID", mock.Anything, user.ID).Return(user, nil)
	m.workflow.On("Reject", mock.Anything, user, file.ID).Return(&services.Outcome{File: file}, nil)

	app := protectedRoute(http.MethodPost, "/files/:id/reject", handler.Reject)
	rec := testutil.NewHTTPTestClient(t, app).POST("/files/"+file.ID.String()+"/reject", nil,
		authHeaders(t, user.ID, file.TeamID))

	testutil.AssertStatus(t, rec, http.StatusOK)

	var response dto.FileActionResponse
	testutil.ParseJSON(t, rec, &response)
	assert.Equal(t, `Changes for "notes.txt" rejected.`, response.Message)
	require.NotNil(t, response.File)
}

func TestFileHandler_Edit(t *testing.T) {
	m, handler := setupFileTest(t)
	user := testUser()
	file := testFile(uuid.New(), models.FileStatusPendingConfirmation, models.ChangeTypeEdit)
	file.FileName = "renamed.txt"

	m.users.On("GetByID", mock.Anything, user.ID).Return(user, nil)
	m.workflow.On("Edit", mock.Anything, user, file.ID, "renamed.txt", "new body").Return(file, nil)

	app := protectedRoute(http.MethodPost, "/files/:id/edit", handler.Edit)
	rec := testutil.NewHTTPTestClient(t, app).POST("/files/"+file.ID.String()+"/edit",
		dto.EditFileRequest{FileName: "renamed.txt", FileContent: "new body"},
		authHeaders(t, user.ID, file.TeamID))

	testutil.AssertStatus(t, rec, http.StatusOK)

	var response dto.FileActionResponse
	testutil.ParseJSON(t, rec, &response)
	assert.Contains(t, response.Message, "renamed.txt")
	m.workflow.AssertExpectations(t)
}

func TestFileHandler_Edit_Validation(t *testing.T) {
	m, handler := setupFileTest(t)
	user := testUser()
	fileID := uuid.New()

	m.users.On("GetByID", mock.Anything, user.ID).Return(user, nil)
	m.workflow.On("Edit", mock.Anything, user, fileID, "", "body").Return(nil, services.ErrValidation)

	app := protectedRoute(http.MethodPost, "/files/:id/edit", handler.Edit)
	rec := testutil.NewHTTPTestClient(t, app).POST("/files/"+fileID.String()+"/edit",
		dto.EditFileRequest{FileContent: "body"}, authHeaders(t, user.ID, uuid.Nil))

	testutil.AssertStatus(t, rec, http.StatusBadRequest)
}

func TestFileHandler_View(t *testing.T) {
	m, handler := setupFileTest(t)
	user := testUser()
	file := testFile(uuid.New(), models.FileStatusSynced, models.ChangeTypeCreate)

	m.users.On("GetByID", mock.Anything, user.ID).Return(user, nil)
	m.workflow.On("View", mock.Anything, user, file.ID).Return(file, nil)

	app := protectedRoute(http.MethodGet, "/files/:id/view", handler.View)
	rec := testutil.NewHTTPTestClient(t, app).GET("/files/"+file.ID.String()+"/view",
		authHeaders(t, user.ID, file.TeamID))

	testutil.AssertStatus(t, rec, http.StatusOK)

	var response dto.FileResponse
	testutil.ParseJSON(t, rec, &response)
	assert.Equal(t, "hello", response.FileContent)
	assert.Equal(t, datasize.ByteSize(5).HR(), response.SizeHuman)
}

func TestFileHandler_View_InvalidID(t *testing.T) {
	m, handler := setupFileTest(t)
	user := testUser()
	m.users.On("GetByID", mock.Anything, user.ID).Return(user, nil)

	app := protectedRoute(http.MethodGet, "/files/:id/view", handler.View)
	rec := testutil.NewHTTPTestClient(t, app).GET("/files/abc/view", authHeaders(t, user.ID, uuid.Nil))

	testutil.AssertStatus(t, rec, http.StatusBadRequest)
	m.workflow.AssertNotCalled(t, "View", mock.Anything, mock.Anything, mock.Anything)
}

func TestFileHandler_Download(t *testing.T) {
	m, handler := setupFileTest(t)
	user := testUser()
	fileID := uuid.New()

	m.users.On("GetByID", mock.Anything, user.ID).Return(user, nil)
	m.workflow.On("Download", mock.Anything, user, fileID).Return(&services.Download{
		Name:        "report.csv",
		ContentType: "text/csv",
		Data:        []byte("a,b\n"),
	}, nil)

	app := protectedRoute(http.MethodGet, "/files/:id/download", handler.Download)
	rec := testutil.NewHTTPTestClient(t, app).GET("/files/"+fileID.String()+"/download",
		authHeaders(t, user.ID, uuid.Nil))

	testutil.AssertStatus(t, rec, http.StatusOK)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), `attachment; filename="report.csv"`)
	assert.Equal(t, "a,b\n", rec.Body.String())
}

func TestFileHandler_Download_NoContent(t *testing.T) {
	m, handler := setupFileTest(t)
	user := testUser()
	fileID := uuid.New()

	m.users.On("GetByID", mock.Anything, user.ID).Return(user, nil)
	m.workflow.On("Download", mock.Anything, user, fileID).Return(nil, services.ErrNoContent)

	app := protectedRoute(http.MethodGet, "/files/:id/download", handler.Download)
	rec := testutil.NewHTTPTestClient(t, app).GET("/files/"+fileID.String()+"/download",
		authHeaders(t, user.ID, uuid.Nil))

	testutil.AssertStatus(t, rec, http.StatusNotFound)
}
