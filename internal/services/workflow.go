package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/c2h5oh/datasize"
	"github.com/dimitrije/dfsim-api/internal/database"
	"github.com/dimitrije/dfsim-api/internal/models"
	"github.com/dimitrije/dfsim-api/internal/storage"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const fileColumns = `id, team_id, owner_id, storage_node_id, file_type, file_name, file_size,
	file_content, original_name, mime_type, file_path, status, change_type, old_file_name,
	old_file_content, old_file_size, replicated, last_modified_by, upload_date, last_edit_date`

// Notifier is the part of NotificationService the workflow depends on.
type Notifier interface {
	Notify(ctx context.Context, in NotificationInput, recipients []models.User) int
	MarkRelated(ctx context.Context, q database.Querier, fileID uuid.UUID, status string, approverID *uuid.UUID) (int64, error)
}

// FileEvents receives a signal whenever a file changes state.
type FileEvents interface {
	BroadcastFileUpdate(teamID, fileID, updatedBy uuid.UUID, status, changeType string)
}

// Outcome is the result of a workflow transition. Removed is set when the
// transition deleted the file; File then holds its last state.
type Outcome struct {
	File    *models.File
	Removed bool
}

// Download is the payload served for a file download.
type Download struct {
	Name        string
	ContentType string
	Data        []byte
}

// WorkflowService drives files through confirmation, approval and sync.
// Every transition runs in one transaction with the file row locked.
// Notifications go out after commit.
type WorkflowService struct {
	db          *database.DB
	ledger      *NodeLedger
	notifier    Notifier
	store       storage.ContentStore
	events      FileEvents
	inlineLimit int64
}

func NewWorkflowService(db *database.DB, ledger *NodeLedger, notifier Notifier, store storage.ContentStore, events FileEvents, inlineLimit datasize.ByteSize) *WorkflowService {
	return &WorkflowService{
		db:          db,
		ledger:      ledger,
		notifier:    notifier,
		store:       store,
		events:      events,
		inlineLimit: int64(inlineLimit.Bytes()),
	}
}

// Create stores a new file on the chosen primary node. The team's other
// nodes become its replicas once the change is approved.
func (s *WorkflowService) Create(ctx context.Context, actor *models.User, teamID, primaryNodeID uuid.UUID, src models.FileSource) (*models.File, error) {
	name := strings.TrimSpace(src.DisplayName())
	if upload, ok := src.(models.UploadSource); ok && upload.OriginalName == "" {
		return nil, validationError("no file selected")
	}
	if name == "" {
		return nil, validationError("file name is required")
	}
	if primaryNodeID == uuid.Nil {
		return nil, validationError("please select a primary node")
	}

	team, err := loadTeam(ctx, s.db.Pool, teamID)
	if err != nil {
		return nil, err
	}
	if ok, err := isMember(ctx, s.db.Pool, teamID, actor.ID); err != nil {
		return nil, err
	} else if !ok {
		return nil, ErrNotMember
	}

	nodes, err := listTeamNodes(ctx, s.db.Pool, teamID)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, validationError("team has no storage nodes configured")
	}
	var replicas []models.Node
	found := false
	for _, n := range nodes {
		if n.ID == primaryNodeID {
			found = true
			continue
		}
		replicas = append(replicas, n)
	}
	if !found {
		return nil, validationError("selected node does not belong to your team")
	}

	file := &models.File{
		TeamID:         teamID,
		OwnerID:        &actor.ID,
		StorageNodeID:  primaryNodeID,
		ReplicaIDs:     []uuid.UUID{},
		FileType:       src.Kind(),
		FileName:       name,
		FileSize:       src.Size(),
		Status:         models.FileStatusPendingConfirmation,
		ChangeType:     models.ChangeTypeCreate,
		LastModifiedBy: &actor.ID,
	}

	switch v := src.(type) {
	case models.UploadSource:
		path, err := s.store.Save(ctx, v.OriginalName, v.Data)
		if err != nil {
			return nil, fmt.Errorf("failed to store upload: %w", err)
		}
		original, mime := v.OriginalName, v.MIMEType
		file.FilePath, file.OriginalName, file.MimeType = &path, &original, &mime
		if v.IsText() && v.Size() <= s.inlineLimit {
			file.FileContent = string(v.Data)
		}
	case models.InlineContent:
		file.FileContent = v.Content
	}

	err = s.db.InTx(ctx, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO files (team_id, owner_id, storage_node_id, file_type, file_name, file_size,
				file_content, original_name, mime_type, file_path, status, change_type, last_modified_by)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
			RETURNING id, upload_date
		`, file.TeamID, file.OwnerID, file.StorageNodeID, file.FileType, file.FileName, file.FileSize,
			file.FileContent, file.OriginalName, file.MimeType, file.FilePath, file.Status, file.ChangeType,
			file.LastModifiedBy,
		).Scan(&file.ID, &file.UploadDate)
		if err != nil {
			return fmt.Errorf("failed to create file: %w", err)
		}

		for i, n := range replicas {
			if _, err := tx.Exec(ctx, `
				INSERT INTO file_replicas (file_id, node_id, position)
				VALUES ($1, $2, $3)
			`, file.ID, n.ID, i+1); err != nil {
				return fmt.Errorf("failed to assign replica: %w", err)
			}
			file.ReplicaIDs = append(file.ReplicaIDs, n.ID)
		}

		return s.ledger.Reserve(ctx, tx, primaryNodeID, file.FileSize)
	})
	if err != nil {
		if file.HasStoredContent() {
			s.removeContent(ctx, *file.FilePath)
		}
		return nil, err
	}

	action := "created a file"
	if file.FileType == models.FileTypeUpload {
		action = "uploaded a file"
	}
	members, _ := s.audience(ctx, team)
	s.notifier.Notify(ctx, NotificationInput{
		Team:          team,
		Message:       fmt.Sprintf("%s %s: %q (%s). This change needs to be confirmed before syncing to backup nodes.", actor.Name, action, file.FileName, humanSize(file.FileSize)),
		Type:          models.NotificationTypeFileChange,
		RelatedFileID: &file.ID,
		ChangeType:    models.ChangeTypeCreate,
		InitiatedBy:   &actor.ID,
	}, append([]models.User{*actor}, members...))
	s.publish(file, actor)

	return file, nil
}

// Confirm moves a pending change on to the leader for approval.
func (s *WorkflowService) Confirm(ctx context.Context, actor *models.User, fileID uuid.UUID) (*models.File, error) {
	file, team, err := s.transition(ctx, actor, fileID, false, func(tx pgx.Tx, file *models.File, team *models.Team) error {
		if file.Status != models.FileStatusPendingConfirmation {
			return ErrInvalidTransition
		}
		file.Status = models.FileStatusPendingApproval
		return saveFile(ctx, tx, file)
	})
	if err != nil {
		return nil, err
	}

	_, leader := s.audience(ctx, team)
	s.askLeader(ctx, team, leader, file, actor,
		fmt.Sprintf("%s confirmed changes for file %q. Please review and approve to sync to backup nodes.", actor.Name, file.FileName))
	s.publish(file, actor)
	return file, nil
}

// ConfirmEdit is Confirm restricted to edits.
func (s *WorkflowService) ConfirmEdit(ctx context.Context, actor *models.User, fileID uuid.UUID) (*models.File, error) {
	file, team, err := s.transition(ctx, actor, fileID, false, func(tx pgx.Tx, file *models.File, team *models.Team) error {
		if file.ChangeType != models.ChangeTypeEdit {
			return fmt.Errorf("%w: this action only applies to edited files", ErrInvalidTransition)
		}
		if file.Status != models.FileStatusPendingConfirmation {
			return ErrInvalidTransition
		}
		file.Status = models.FileStatusPendingApproval
		return saveFile(ctx, tx, file)
	})
	if err != nil {
		return nil, err
	}

	_, leader := s.audience(ctx, team)
	s.askLeader(ctx, team, leader, file, actor,
		fmt.Sprintf("%s confirmed edit for file %q. Please review and approve changes.", actor.Name, file.FileName))
	s.publish(file, actor)
	return file, nil
}

// Approve finalizes the pending change. Creates and edits are synced to every
// replica. Deletes remove the file from all nodes.
func (s *WorkflowService) Approve(ctx context.Context, actor *models.User, fileID uuid.UUID) (*Outcome, error) {
	file, team, err := s.transition(ctx, actor, fileID, true, func(tx pgx.Tx, file *models.File, team *models.Team) error {
		switch file.Status {
		case models.FileStatusPendingApproval:
			if err := s.sync(ctx, tx, file); err != nil {
				return err
			}
			file.Status = models.FileStatusSynced
			file.OldFileName, file.OldFileContent, file.OldFileSize = nil, "", nil
			if err := saveFile(ctx, tx, file); err != nil {
				return err
			}

		case models.FileStatusPendingDelete:
			if err := s.releaseAll(ctx, tx, file); err != nil {
				return err
			}
			if err := deleteFile(ctx, tx, file.ID); err != nil {
				return err
			}

		default:
			return ErrInvalidTransition
		}

		_, err := s.notifier.MarkRelated(ctx, tx, file.ID, models.ActionStatusApproved, &actor.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	removed := file.Status == models.FileStatusPendingDelete
	members, leader := s.audience(ctx, team)
	in := NotificationInput{
		Team:          team,
		RelatedFileID: &file.ID,
		ChangeType:    file.ChangeType,
		ActionStatus:  models.ActionStatusApproved,
		ApproverID:    &actor.ID,
	}
	if removed {
		in.Type = models.NotificationTypeFileDeleted
		in.Message = fmt.Sprintf("File %q has been deleted from all nodes.", file.FileName)
		s.notifier.Notify(ctx, in, members)
		if file.HasStoredContent() {
			s.removeContent(ctx, *file.FilePath)
		}
	} else {
		in.Type = models.NotificationTypeSyncComplete
		in.Message = fmt.Sprintf("File %q has been approved and synced to all backup nodes.", file.FileName)
		s.notifier.Notify(ctx, in, withLeader(members, leader))
	}
	s.publish(file, actor)

	return &Outcome{File: file, Removed: removed}, nil
}

// sync propagates an approved create or edit to the file's replicas.
func (s *WorkflowService) sync(ctx context.Context, tx pgx.Tx, file *models.File) error {
	if file.ChangeType == models.ChangeTypeEdit {
		if err := s.adjustAll(ctx, tx, file, editDelta(file)); err != nil {
			return err
		}
		if file.Replicated {
			return nil
		}
	}

	if !file.Replicated {
		for _, id := range file.ReplicaIDs {
			if err := s.ledger.Reserve(ctx, tx, id, file.FileSize); err != nil {
				return err
			}
		}
		file.Replicated = true
	}
	return nil
}

// adjustAll moves every node holding the file by delta.
func (s *WorkflowService) adjustAll(ctx context.Context, tx pgx.Tx, file *models.File, delta int64) error {
	if err := s.ledger.Adjust(ctx, tx, file.StorageNodeID, delta); err != nil {
		return err
	}
	if !file.Replicated {
		return nil
	}
	for _, id := range file.ReplicaIDs {
		if err := s.ledger.Adjust(ctx, tx, id, delta); err != nil {
			return err
		}
	}
	return nil
}

func (s *WorkflowService) releaseAll(ctx context.Context, tx pgx.Tx, file *models.File) error {
	if err := s.ledger.Release(ctx, tx, file.StorageNodeID, file.FileSize); err != nil {
		return err
	}
	if !file.Replicated {
		return nil
	}
	for _, id := range file.ReplicaIDs {
		if err := s.ledger.Release(ctx, tx, id, file.FileSize); err != nil {
			return err
		}
	}
	return nil
}

// Reject discards the pending change. A rejected create removes the file. A
// rejected edit returns the file to synced but keeps the edited content, so
// the nodes are moved to its size. A rejected delete restores the snapshot
// taken when deletion was requested.
func (s *WorkflowService) Reject(ctx context.Context, actor *models.User, fileID uuid.UUID) (*Outcome, error) {
	var (
		removed  bool
		rejected string
	)
	file, team, err := s.transition(ctx, actor, fileID, true, func(tx pgx.Tx, file *models.File, team *models.Team) error {
		rejected = file.ChangeType
		switch file.Status {
		case models.FileStatusPendingConfirmation, models.FileStatusPendingApproval:
			if file.ChangeType == models.ChangeTypeCreate {
				if err := s.ledger.Release(ctx, tx, file.StorageNodeID, file.FileSize); err != nil {
					return err
				}
				if err := deleteFile(ctx, tx, file.ID); err != nil {
					return err
				}
				removed = true
				break
			}
			if err := s.adjustAll(ctx, tx, file, editDelta(file)); err != nil {
				return err
			}
			file.Status = models.FileStatusSynced
			file.OldFileName, file.OldFileContent, file.OldFileSize = nil, "", nil
			if err := saveFile(ctx, tx, file); err != nil {
				return err
			}

		case models.FileStatusPendingDelete:
			file.RestoreOld()
			if file.Replicated {
				file.Status, file.ChangeType = models.FileStatusSynced, models.ChangeTypeEdit
			} else {
				file.Status, file.ChangeType = models.FileStatusPendingConfirmation, models.ChangeTypeCreate
			}
			if err := saveFile(ctx, tx, file); err != nil {
				return err
			}

		default:
			return ErrInvalidTransition
		}

		_, err := s.notifier.MarkRelated(ctx, tx, file.ID, models.ActionStatusRejected, &actor.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	if removed && file.HasStoredContent() {
		s.removeContent(ctx, *file.FilePath)
	}

	var message string
	switch rejected {
	case models.ChangeTypeEdit:
		message = fmt.Sprintf("Edit of file %q was rejected. The edited version is kept on all nodes.", file.FileName)
	case models.ChangeTypeDelete:
		message = fmt.Sprintf("Deletion of file %q was rejected. The file has been restored.", file.FileName)
	default:
		message = fmt.Sprintf("File %q was rejected and removed from the primary node.", file.FileName)
	}

	members, _ := s.audience(ctx, team)
	s.notifier.Notify(ctx, NotificationInput{
		Team:          team,
		Message:       message,
		Type:          models.NotificationTypeChangeRejected,
		RelatedFileID: &file.ID,
		ChangeType:    file.ChangeType,
		ActionStatus:  models.ActionStatusRejected,
		ApproverID:    &actor.ID,
	}, members)
	s.publish(file, actor)

	return &Outcome{File: file, Removed: removed}, nil
}

// Edit replaces a file's name and content. Editing a synced file snapshots
// the current version and starts a new change. Editing a pending change
// overwrites it in place.
func (s *WorkflowService) Edit(ctx context.Context, actor *models.User, fileID uuid.UUID, name, content string) (*models.File, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, validationError("file name is required")
	}

	file, team, err := s.transition(ctx, actor, fileID, false, func(tx pgx.Tx, file *models.File, team *models.Team) error {
		newSize := int64(len(content))

		switch file.Status {
		case models.FileStatusSynced:
			file.SnapshotOld()
			file.Status = models.FileStatusPendingConfirmation
			file.ChangeType = models.ChangeTypeEdit

		case models.FileStatusPendingConfirmation, models.FileStatusPendingApproval:
			// the primary already holds this file's create reservation
			if file.ChangeType == models.ChangeTypeCreate {
				if err := s.ledger.Adjust(ctx, tx, file.StorageNodeID, newSize-file.FileSize); err != nil {
					return err
				}
			}

		default:
			return ErrInvalidTransition
		}

		now := time.Now()
		file.FileName = name
		file.FileContent = content
		file.FileSize = newSize
		file.LastModifiedBy = &actor.ID
		file.LastEditDate = &now
		return saveFile(ctx, tx, file)
	})
	if err != nil {
		return nil, err
	}

	members, _ := s.audience(ctx, team)
	s.notifier.Notify(ctx, NotificationInput{
		Team:          team,
		Message:       fmt.Sprintf("%s modified file %q. Changes need confirmation and leader approval.", actor.Name, file.FileName),
		Type:          models.NotificationTypeFileChange,
		RelatedFileID: &file.ID,
		ChangeType:    models.ChangeTypeEdit,
		InitiatedBy:   &actor.ID,
	}, members)
	s.publish(file, actor)

	return file, nil
}

// RequestDelete marks the file for deletion pending leader approval. An
// unapproved edit is dropped so the snapshot matches what the nodes hold.
func (s *WorkflowService) RequestDelete(ctx context.Context, actor *models.User, fileID uuid.UUID) (*models.File, error) {
	file, team, err := s.transition(ctx, actor, fileID, false, func(tx pgx.Tx, file *models.File, team *models.Team) error {
		if file.Status == models.FileStatusPendingDelete {
			return ErrInvalidTransition
		}
		// the nodes still hold the version before an unapproved edit
		if file.ChangeType == models.ChangeTypeEdit && file.Status != models.FileStatusSynced {
			file.RestoreOld()
		}
		now := time.Now()
		file.SnapshotOld()
		file.Status = models.FileStatusPendingDelete
		file.ChangeType = models.ChangeTypeDelete
		file.LastModifiedBy = &actor.ID
		file.LastEditDate = &now
		return saveFile(ctx, tx, file)
	})
	if err != nil {
		return nil, err
	}

	message := fmt.Sprintf("%s requested to delete file %q. Leader approval is required.", actor.Name, file.FileName)
	members, leader := s.audience(ctx, team)
	in := NotificationInput{
		Team:          team,
		Message:       message,
		Type:          models.NotificationTypeFileChange,
		RelatedFileID: &file.ID,
		ChangeType:    models.ChangeTypeDelete,
		InitiatedBy:   &actor.ID,
	}
	s.notifier.Notify(ctx, in, without(members, leader))
	s.askLeader(ctx, team, leader, file, actor, message)
	s.publish(file, actor)

	return file, nil
}

// ListTeamFiles returns the team's files with owner and primary node names.
func (s *WorkflowService) ListTeamFiles(ctx context.Context, teamID uuid.UUID) ([]models.FileListItem, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT f.id, f.team_id, f.owner_id, f.storage_node_id, f.file_type, f.file_name, f.file_size,
			f.file_content, f.original_name, f.mime_type, f.file_path, f.status, f.change_type, f.old_file_name,
			f.old_file_content, f.old_file_size, f.replicated, f.last_modified_by, f.upload_date, f.last_edit_date,
			COALESCE(u.name, ''), n.name
		FROM files f
		LEFT JOIN users u ON u.id = f.owner_id
		JOIN nodes n ON n.id = f.storage_node_id
		WHERE f.team_id = $1
		ORDER BY f.upload_date DESC
	`, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	defer rows.Close()

	items := []models.FileListItem{}
	index := map[uuid.UUID]int{}
	for rows.Next() {
		var item models.FileListItem
		if err := rows.Scan(append(fileFields(&item.File), &item.OwnerName, &item.StorageNodeName)...); err != nil {
			return nil, err
		}
		item.ReplicaIDs = []uuid.UUID{}
		index[item.ID] = len(items)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	replicaRows, err := s.db.Pool.Query(ctx, `
		SELECT r.file_id, r.node_id
		FROM file_replicas r
		JOIN files f ON f.id = r.file_id
		WHERE f.team_id = $1
		ORDER BY r.position
	`, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list replicas: %w", err)
	}
	defer replicaRows.Close()

	for replicaRows.Next() {
		var fileID, nodeID uuid.UUID
		if err := replicaRows.Scan(&fileID, &nodeID); err != nil {
			return nil, err
		}
		if i, ok := index[fileID]; ok {
			items[i].ReplicaIDs = append(items[i].ReplicaIDs, nodeID)
		}
	}
	return items, replicaRows.Err()
}

// View returns a file to a team member. Small text uploads without inline
// content are read from the content store once and kept on the row.
func (s *WorkflowService) View(ctx context.Context, actor *models.User, fileID uuid.UUID) (*models.File, error) {
	file, err := s.readable(ctx, actor, fileID)
	if err != nil {
		return nil, err
	}

	if file.FileContent != "" || !file.HasStoredContent() || file.MimeType == nil || !models.IsTextMIME(*file.MimeType) {
		return file, nil
	}

	data, err := s.store.Read(ctx, *file.FilePath)
	if err != nil {
		log.Printf("Failed to read stored content for file %s: %v", file.ID, err)
		return file, nil
	}
	if int64(len(data)) > s.inlineLimit {
		return file, nil
	}

	file.FileContent = string(data)
	if _, err := s.db.Pool.Exec(ctx, `UPDATE files SET file_content = $2 WHERE id = $1`, file.ID, file.FileContent); err != nil {
		log.Printf("Failed to cache content for file %s: %v", file.ID, err)
	}
	return file, nil
}

// Download returns the stored upload under its original name, or inline
// content as a text file.
func (s *WorkflowService) Download(ctx context.Context, actor *models.User, fileID uuid.UUID) (*Download, error) {
	file, err := s.readable(ctx, actor, fileID)
	if err != nil {
		return nil, err
	}

	if file.HasStoredContent() {
		data, err := s.store.Read(ctx, *file.FilePath)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return nil, fmt.Errorf("%w: file not available on server", ErrNoContent)
			}
			return nil, err
		}

		name := file.FileName
		if file.OriginalName != nil && *file.OriginalName != "" {
			name = *file.OriginalName
		}
		if name == "" {
			name = "download"
		}
		contentType := "application/octet-stream"
		if file.MimeType != nil && *file.MimeType != "" {
			contentType = *file.MimeType
		}
		return &Download{Name: name, ContentType: contentType, Data: data}, nil
	}

	if file.FileContent != "" {
		name := file.FileName
		if name == "" {
			name = "file"
		}
		return &Download{
			Name:        name + ".txt",
			ContentType: "text/plain; charset=utf-8",
			Data:        []byte(file.FileContent),
		}, nil
	}

	return nil, ErrNoContent
}

func (s *WorkflowService) readable(ctx context.Context, actor *models.User, fileID uuid.UUID) (*models.File, error) {
	file, err := loadFile(ctx, s.db.Pool, fileID, false)
	if err != nil {
		return nil, err
	}
	ok, err := isMember(ctx, s.db.Pool, file.TeamID, actor.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotMember
	}
	return file, nil
}

// transition locks the file, checks the actor's right to act and applies fn
// in a single transaction.
func (s *WorkflowService) transition(ctx context.Context, actor *models.User, fileID uuid.UUID, leaderOnly bool,
	fn func(tx pgx.Tx, file *models.File, team *models.Team) error) (*models.File, *models.Team, error) {

	var file *models.File
	var team *models.Team
	err := s.db.InTx(ctx, func(tx pgx.Tx) error {
		var err error
		if file, err = loadFile(ctx, tx, fileID, true); err != nil {
			return err
		}
		if team, err = loadTeam(ctx, tx, file.TeamID); err != nil {
			return err
		}

		if leaderOnly {
			if !team.IsLedBy(actor) {
				return ErrNotLeader
			}
		} else {
			ok, err := isMember(ctx, tx, team.ID, actor.ID)
			if err != nil {
				return err
			}
			if !ok {
				return ErrNotMember
			}
		}

		return fn(tx, file, team)
	})
	if err != nil {
		return nil, nil, err
	}
	return file, team, nil
}

// audience returns the team's members and its leader, if the leader has an
// account.
func (s *WorkflowService) audience(ctx context.Context, team *models.Team) ([]models.User, *models.User) {
	members, err := teamMembers(ctx, s.db.Pool, team.ID)
	if err != nil {
		log.Printf("Failed to load members of team %s: %v", team.ID, err)
		return nil, nil
	}
	for i := range members {
		if team.IsLedBy(&members[i]) {
			return members, &members[i]
		}
	}
	if team.LeaderID != nil {
		leader, err := lookupUser(ctx, s.db.Pool, `
			SELECT id, email, name, password_hash, created_at, updated_at
			FROM users WHERE id = $1`, *team.LeaderID)
		if err == nil {
			return members, leader
		}
	}
	return members, nil
}

func (s *WorkflowService) askLeader(ctx context.Context, team *models.Team, leader *models.User, file *models.File, actor *models.User, message string) {
	if leader == nil {
		log.Printf("Team %s has no leader account, approval request for file %s not delivered", team.ID, file.ID)
		return
	}
	s.notifier.Notify(ctx, NotificationInput{
		Team:             team,
		Message:          message,
		Type:             models.NotificationTypeApprovalRequired,
		RelatedFileID:    &file.ID,
		ChangeType:       file.ChangeType,
		InitiatedBy:      &actor.ID,
		RequiresApproval: true,
	}, []models.User{*leader})
}

func (s *WorkflowService) publish(file *models.File, actor *models.User) {
	if s.events != nil {
		s.events.BroadcastFileUpdate(file.TeamID, file.ID, actor.ID, file.Status, file.ChangeType)
	}
}

func (s *WorkflowService) removeContent(ctx context.Context, path string) {
	if err := s.store.Remove(ctx, path); err != nil {
		log.Printf("Failed to remove stored content %s: %v", path, err)
	}
}

func loadFile(ctx context.Context, q database.Querier, fileID uuid.UUID, lock bool) (*models.File, error) {
	query := `SELECT ` + fileColumns + ` FROM files WHERE id = $1`
	if lock {
		query += ` FOR UPDATE`
	}

	var file models.File
	if err := q.QueryRow(ctx, query, fileID).Scan(fileFields(&file)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrFileNotFound
		}
		return nil, err
	}

	rows, err := q.Query(ctx, `
		SELECT node_id FROM file_replicas WHERE file_id = $1 ORDER BY position
	`, fileID)
	if err != nil {
		return nil, fmt.Errorf("failed to load replicas: %w", err)
	}
	defer rows.Close()

	file.ReplicaIDs = []uuid.UUID{}
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		file.ReplicaIDs = append(file.ReplicaIDs, id)
	}
	return &file, rows.Err()
}

func fileFields(f *models.File) []any {
	return []any{
		&f.ID, &f.TeamID, &f.OwnerID, &f.StorageNodeID, &f.FileType, &f.FileName, &f.FileSize,
		&f.FileContent, &f.OriginalName, &f.MimeType, &f.FilePath, &f.Status, &f.ChangeType, &f.OldFileName,
		&f.OldFileContent, &f.OldFileSize, &f.Replicated, &f.LastModifiedBy, &f.UploadDate, &f.LastEditDate,
	}
}

func saveFile(ctx context.Context, q database.Querier, f *models.File) error {
	_, err := q.Exec(ctx, `
		UPDATE files
		SET file_name = $2, file_size = $3, file_content = $4, status = $5, change_type = $6,
			old_file_name = $7, old_file_content = $8, old_file_size = $9, replicated = $10,
			last_modified_by = $11, last_edit_date = $12
		WHERE id = $1
	`, f.ID, f.FileName, f.FileSize, f.FileContent, f.Status, f.ChangeType,
		f.OldFileName, f.OldFileContent, f.OldFileSize, f.Replicated,
		f.LastModifiedBy, f.LastEditDate)
	if err != nil {
		return fmt.Errorf("failed to update file: %w", err)
	}
	return nil
}

// editDelta is the size change an edit makes relative to what the nodes hold.
func editDelta(file *models.File) int64 {
	if file.OldFileSize == nil {
		return 0
	}
	return file.FileSize - *file.OldFileSize
}

func deleteFile(ctx context.Context, q database.Querier, fileID uuid.UUID) error {
	if _, err := q.Exec(ctx, `DELETE FROM files WHERE id = $1`, fileID); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

func withLeader(members []models.User, leader *models.User) []models.User {
	if leader == nil {
		return members
	}
	return append([]models.User{*leader}, members...)
}

func without(users []models.User, leader *models.User) []models.User {
	if leader == nil {
		return users
	}
	out := make([]models.User, 0, len(users))
	for _, u := range users {
		if u.ID != leader.ID {
			out = append(out, u)
		}
	}
	return out
}

func humanSize(size int64) string {
	if size < 0 {
		size = 0
	}
	return datasize.ByteSize(size).HR()
}
