package dto

import "github.com/google/uuid"

type NodeResponse struct {
	ID               uuid.UUID `json:"id"`
	NodeKey          string    `json:"node_id"`
	Name             string    `json:"node_name"`
	Position         int       `json:"position"`
	IsPrimary        bool      `json:"is_primary"`
	TotalStorage     int64     `json:"total_storage"`
	UsedStorage      int64     `json:"used_storage"`
	AvailableStorage int64     `json:"available_storage"`
	UsedHuman        string    `json:"used_human"`
	TotalHuman       string    `json:"total_human"`
	FileCount        int       `json:"file_count"`
	Status           string    `json:"status"`
}

type NodeFileResponse struct {
	ID       uuid.UUID  `json:"id"`
	FileName string     `json:"file_name"`
	FileSize int64      `json:"file_size"`
	Status   string     `json:"status"`
	OwnerID  *uuid.UUID `json:"owner_id,omitempty"`
	Role     string     `json:"role"`
}

type NodeWithFilesResponse struct {
	NodeResponse
	Files []NodeFileResponse `json:"files"`
}

type NodeOverviewResponse struct {
	Team  TeamResponse            `json:"team"`
	Nodes []NodeWithFilesResponse `json:"nodes"`
}
