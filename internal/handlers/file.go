package handlers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/c2h5oh/datasize"
	"github.com/dimitrije/dfsim-api/internal/middleware"
	"github.com/dimitrije/dfsim-api/internal/models"
	"github.com/dimitrije/dfsim-api/internal/services"
	"github.com/dimitrije/dfsim-api/pkg/dto"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
)

type FileHandler struct {
	workflow      WorkflowServiceInterface
	userService   UserServiceInterface
	maxUploadSize int64
}

func NewFileHandler(workflow WorkflowServiceInterface, userService UserServiceInterface, maxUploadSize datasize.ByteSize) *FileHandler {
	return &FileHandler{
		workflow:      workflow,
		userService:   userService,
		maxUploadSize: int64(maxUploadSize.Bytes()),
	}
}

// List returns the current team's files.
func (h *FileHandler) List(c *drift.Context) {
	team := middleware.GetCurrentTeam(c)
	if team == nil {
		c.Forbidden("no team selected")
		return
	}

	items, err := h.workflow.ListTeamFiles(c.Request.Context(), team.ID)
	if err != nil {
		respondError(c, err, "list files")
		return
	}

	files := make([]dto.FileResponse, len(items))
	for i := range items {
		files[i] = toFileResponse(&items[i].File)
		files[i].OwnerName = items[i].OwnerName
		files[i].StorageNodeName = items[i].StorageNodeName
		files[i].FileContent = ""
	}

	resp := toTeamResponse(team, team.ID)
	resp.Member = true
	_ = c.JSON(200, dto.FileListResponse{Team: resp, Files: files})
}

// Upload creates a file in the current team. Multipart requests carry a
// binary in the "file" field; JSON requests carry typed-in content.
func (h *FileHandler) Upload(c *drift.Context) {
	team := middleware.GetCurrentTeam(c)
	if team == nil {
		c.Forbidden("no team selected")
		return
	}
	user := currentUser(c, h.userService)
	if user == nil {
		return
	}

	var (
		src    models.FileSource
		nodeID uuid.UUID
	)
	if strings.HasPrefix(c.GetHeader("Content-Type"), "multipart/form-data") {
		var ok bool
		if src, nodeID, ok = h.readMultipart(c); !ok {
			return
		}
	} else {
		var req dto.CreateFileRequest
		if err := c.BindJSON(&req); err != nil {
			c.BadRequest("invalid request body")
			return
		}
		if req.FileType != "" && req.FileType != models.FileTypeCreate {
			c.BadRequest("binary uploads must be sent as multipart/form-data")
			return
		}
		src = models.InlineContent{Name: req.FileName, Content: req.FileContent}
		nodeID = req.StorageNodeID
	}

	file, err := h.workflow.Create(c.Request.Context(), user, team.ID, nodeID, src)
	if err != nil {
		respondError(c, err, "create file")
		return
	}

	resp := toFileResponse(file)
	_ = c.JSON(201, dto.FileActionResponse{
		Message: fmt.Sprintf("File %q created on primary node. Confirm the change to request leader approval.", file.FileName),
		File:    &resp,
	})
}

func (h *FileHandler) readMultipart(c *drift.Context) (models.FileSource, uuid.UUID, bool) {
	c.Request.Body = http.MaxBytesReader(nil, c.Request.Body, h.maxUploadSize)
	if err := c.Request.ParseMultipartForm(h.maxUploadSize); err != nil {
		c.BadRequest("invalid multipart form or file too large")
		return nil, uuid.Nil, false
	}

	var nodeID uuid.UUID
	if raw := c.Request.FormValue("storage_node_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.BadRequest("invalid storage node id")
			return nil, uuid.Nil, false
		}
		nodeID = id
	}

	upload := models.UploadSource{Name: c.Request.FormValue("file_name")}
	part, header, err := c.Request.FormFile("file")
	if err == nil {
		defer part.Close()
		data, err := io.ReadAll(part)
		if err != nil {
			c.BadRequest("failed to read uploaded file")
			return nil, uuid.Nil, false
		}
		upload.OriginalName = header.Filename
		upload.MIMEType = header.Header.Get("Content-Type")
		if upload.MIMEType == "" {
			upload.MIMEType = http.DetectContentType(data)
		}
		upload.Data = data
	}
	return upload, nodeID, true
}

func (h *FileHandler) Confirm(c *drift.Context) {
	h.transition(c, "confirm file", h.workflow.Confirm, func(f *models.File) string {
		return fmt.Sprintf("File %q confirmed. Waiting for leader approval.", f.FileName)
	})
}

func (h *FileHandler) ConfirmEdit(c *drift.Context) {
	h.transition(c, "confirm edit", h.workflow.ConfirmEdit, func(f *models.File) string {
		return fmt.Sprintf("Edit of %q confirmed. Waiting for leader approval.", f.FileName)
	})
}

func (h *FileHandler) RequestDelete(c *drift.Context) {
	h.transition(c, "request deletion", h.workflow.RequestDelete, func(f *models.File) string {
		return fmt.Sprintf("Deletion of %q requested. Waiting for leader approval.", f.FileName)
	})
}

func (h *FileHandler) Approve(c *drift.Context) {
	h.decide(c, "approve change", h.workflow.Approve, func(out *services.Outcome) string {
		if out.Removed {
			return fmt.Sprintf("File %q deleted from all nodes.", out.File.FileName)
		}
		return fmt.Sprintf("File %q approved and synced to all backup nodes.", out.File.FileName)
	})
}

func (h *FileHandler) Reject(c *drift.Context) {
	h.decide(c, "reject change", h.workflow.Reject, func(out *services.Outcome) string {
		return fmt.Sprintf("Changes for %q rejected.", out.File.FileName)
	})
}

func (h *FileHandler) Edit(c *drift.Context) {
	user := currentUser(c, h.userService)
	if user == nil {
		return
	}
	fileID, ok := parseID(c, "id", "file")
	if !ok {
		return
	}

	var req dto.EditFileRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	file, err := h.workflow.Edit(c.Request.Context(), user, fileID, req.FileName, req.FileContent)
	if err != nil {
		respondError(c, err, "edit file")
		return
	}

	resp := toFileResponse(file)
	_ = c.JSON(200, dto.FileActionResponse{
		Message: fmt.Sprintf("File %q updated. Confirm the edit to request leader approval.", file.FileName),
		File:    &resp,
	})
}

func (h *FileHandler) View(c *drift.Context) {
	user := currentUser(c, h.userService)
	if user == nil {
		return
	}
	fileID, ok := parseID(c, "id", "file")
	if !ok {
		return
	}

	file, err := h.workflow.View(c.Request.Context(), user, fileID)
	if err != nil {
		respondError(c, err, "view file")
		return
	}

	_ = c.JSON(200, toFileResponse(file))
}

// Download streams the file as an attachment.
func (h *FileHandler) Download(c *drift.Context) {
	user := currentUser(c, h.userService)
	if user == nil {
		return
	}
	fileID, ok := parseID(c, "id", "file")
	if !ok {
		return
	}

	dl, err := h.workflow.Download(c.Request.Context(), user, fileID)
	if err != nil {
		respondError(c, err, "download file")
		return
	}

	c.Response.Header().Set("Content-Type", dl.ContentType)
	c.Response.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename=%q; filename*=UTF-8''%s`, dl.Name, url.PathEscape(dl.Name)))
	c.Response.WriteHeader(http.StatusOK)
	_, _ = c.Response.Write(dl.Data)
	c.Abort()
}

type fileAction func(ctx context.Context, actor *models.User, fileID uuid.UUID) (*models.File, error)

func (h *FileHandler) transition(c *drift.Context, action string, fn fileAction, message func(*models.File) string) {
	user := currentUser(c, h.userService)
	if user == nil {
		return
	}
	fileID, ok := parseID(c, "id", "file")
	if !ok {
		return
	}

	file, err := fn(c.Request.Context(), user, fileID)
	if err != nil {
		respondError(c, err, action)
		return
	}

	resp := toFileResponse(file)
	_ = c.JSON(200, dto.FileActionResponse{Message: message(file), File: &resp})
}

type decision func(ctx context.Context, actor *models.User, fileID uuid.UUID) (*services.Outcome, error)

func (h *FileHandler) decide(c *drift.Context, action string, fn decision, message func(*services.Outcome) string) {
	user := currentUser(c, h.userService)
	if user == nil {
		return
	}
	fileID, ok := parseID(c, "id", "file")
	if !ok {
		return
	}

	out, err := fn(c.Request.Context(), user, fileID)
	if err != nil {
		respondError(c, err, action)
		return
	}

	resp := dto.FileActionResponse{Message: message(out), Removed: out.Removed}
	if !out.Removed {
		file := toFileResponse(out.File)
		resp.File = &file
	}
	_ = c.JSON(200, resp)
}
