package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	FileStatusPendingConfirmation = "pending_confirmation"
	FileStatusPendingApproval     = "pending_approval"
	FileStatusSynced              = "synced"
	FileStatusPendingDelete       = "pending_delete"
)

const (
	ChangeTypeCreate = "create"
	ChangeTypeEdit   = "edit"
	ChangeTypeDelete = "delete"
)

const (
	FileTypeUpload = "upload"
	FileTypeCreate = "create"
)

type File struct {
	ID             uuid.UUID   `json:"id"`
	TeamID         uuid.UUID   `json:"team_id"`
	OwnerID        *uuid.UUID  `json:"owner_id,omitempty"`
	StorageNodeID  uuid.UUID   `json:"storage_node_id"`
	ReplicaIDs     []uuid.UUID `json:"replicas"`
	FileType       string      `json:"file_type"`
	FileName       string      `json:"file_name"`
	FileSize       int64       `json:"file_size"`
	FileContent    string      `json:"file_content"`
	OriginalName   *string     `json:"original_name,omitempty"`
	MimeType       *string     `json:"mime_type,omitempty"`
	FilePath       *string     `json:"-"`
	Status         string      `json:"status"`
	ChangeType     string      `json:"change_type"`
	OldFileName    *string     `json:"old_file_name,omitempty"`
	OldFileContent string      `json:"old_file_content"`
	OldFileSize    *int64      `json:"old_file_size,omitempty"`
	Replicated     bool        `json:"replicated"`
	LastModifiedBy *uuid.UUID  `json:"last_modified_by,omitempty"`
	UploadDate     time.Time   `json:"upload_date"`
	LastEditDate   *time.Time  `json:"last_edit_date,omitempty"`
}

// HasStoredContent reports whether the file's bytes live in the content store.
func (f *File) HasStoredContent() bool {
	return f.FilePath != nil && *f.FilePath != ""
}

// SnapshotOld copies the current name, content and size into the old* fields.
func (f *File) SnapshotOld() {
	name := f.FileName
	size := f.FileSize
	f.OldFileName = &name
	f.OldFileContent = f.FileContent
	f.OldFileSize = &size
}

// RestoreOld is the inverse of SnapshotOld. It is a no-op without a snapshot.
func (f *File) RestoreOld() {
	if f.OldFileName == nil || f.OldFileSize == nil {
		return
	}
	f.FileName = *f.OldFileName
	f.FileContent = f.OldFileContent
	f.FileSize = *f.OldFileSize
}

// FileListItem is a file row joined with its owner and primary node names.
type FileListItem struct {
	File
	OwnerName       string `json:"owner_name"`
	StorageNodeName string `json:"storage_node_name"`
}
