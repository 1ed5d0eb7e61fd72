package dto

import "github.com/google/uuid"

// CreateFileRequest is the JSON form of an upload for typed-in files.
// Binary uploads use multipart fields with the same names.
type CreateFileRequest struct {
	FileType      string    `json:"file_type"`
	FileName      string    `json:"file_name"`
	FileContent   string    `json:"file_content"`
	StorageNodeID uuid.UUID `json:"storage_node_id"`
}

type EditFileRequest struct {
	FileName    string `json:"file_name"`
	FileContent string `json:"file_content"`
}

type FileResponse struct {
	ID              uuid.UUID   `json:"id"`
	TeamID          uuid.UUID   `json:"team_id"`
	OwnerID         *uuid.UUID  `json:"owner_id,omitempty"`
	OwnerName       string      `json:"owner_name,omitempty"`
	StorageNodeID   uuid.UUID   `json:"storage_node_id"`
	StorageNodeName string      `json:"storage_node_name,omitempty"`
	Replicas        []uuid.UUID `json:"replicas"`
	FileType        string      `json:"file_type"`
	FileName        string      `json:"file_name"`
	FileSize        int64       `json:"file_size"`
	SizeHuman       string      `json:"size_human"`
	FileContent     string      `json:"file_content,omitempty"`
	OriginalName    *string     `json:"original_name,omitempty"`
	MimeType        *string     `json:"mime_type,omitempty"`
	Status          string      `json:"status"`
	ChangeType      string      `json:"change_type"`
	OldFileName     *string     `json:"old_file_name,omitempty"`
	OldFileSize     *int64      `json:"old_file_size,omitempty"`
	Replicated      bool        `json:"replicated"`
	LastModifiedBy  *uuid.UUID  `json:"last_modified_by,omitempty"`
	UploadDate      string      `json:"upload_date"`
	LastEditDate    *string     `json:"last_edit_date,omitempty"`
}

type FileListResponse struct {
	Team  TeamResponse   `json:"team"`
	Files []FileResponse `json:"files"`
}

// FileActionResponse reports a workflow transition. File is omitted when
// the transition removed it.
type FileActionResponse struct {
	Message string        `json:"message"`
	Removed bool          `json:"removed"`
	File    *FileResponse `json:"file,omitempty"`
}
