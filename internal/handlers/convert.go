package handlers

import (
	"time"

	"github.com/c2h5oh/datasize"
	"github.com/dimitrije/dfsim-api/internal/models"
	"github.com/dimitrije/dfsim-api/pkg/dto"
	"github.com/google/uuid"
)

func formatTime(t time.Time) string {
	return t.Format(time.RFC3339)
}

func humanBytes(n int64) string {
	if n < 0 {
		n = 0
	}
	return datasize.ByteSize(n).HR()
}

func toUserResponse(u *models.User) dto.UserResponse {
	return dto.UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		CreatedAt: formatTime(u.CreatedAt),
	}
}

func toTeamResponse(t *models.Team, current uuid.UUID) dto.TeamResponse {
	return dto.TeamResponse{
		ID:         t.ID,
		Name:       t.Name,
		LeaderID:   t.LeaderID,
		LeaderName: t.LeaderName,
		CreatedAt:  formatTime(t.CreatedAt),
		Current:    t.ID == current,
	}
}

func toNodeResponse(n *models.Node) dto.NodeResponse {
	return dto.NodeResponse{
		ID:               n.ID,
		NodeKey:          n.NodeKey,
		Name:             n.Name,
		Position:         n.Position,
		IsPrimary:        n.IsPrimary(),
		TotalStorage:     n.TotalStorage,
		UsedStorage:      n.UsedStorage,
		AvailableStorage: n.AvailableStorage,
		UsedHuman:        humanBytes(n.UsedStorage),
		TotalHuman:       humanBytes(n.TotalStorage),
		FileCount:        n.FileCount,
		Status:           n.Status,
	}
}

func toTeamDetailsResponse(d *models.TeamDetails, userID, current uuid.UUID) dto.TeamDetailsResponse {
	resp := dto.TeamDetailsResponse{
		TeamResponse: toTeamResponse(&d.Team, current),
		Members:      make([]dto.TeamMemberResponse, 0, len(d.Members)),
		Nodes:        make([]dto.NodeResponse, 0, len(d.Nodes)),
	}
	if d.Leader != nil {
		leader := toUserResponse(d.Leader)
		resp.Leader = &leader
	}
	for _, m := range d.Members {
		if m.UserID == userID {
			resp.Member = true
		}
		member := dto.TeamMemberResponse{JoinedAt: formatTime(m.CreatedAt)}
		if m.User != nil {
			member.User = toUserResponse(m.User)
			member.IsLeader = d.IsLedBy(m.User)
		}
		resp.Members = append(resp.Members, member)
	}
	for i := range d.Nodes {
		resp.Nodes = append(resp.Nodes, toNodeResponse(&d.Nodes[i]))
	}
	return resp
}

func toFileResponse(f *models.File) dto.FileResponse {
	resp := dto.FileResponse{
		ID:             f.ID,
		TeamID:         f.TeamID,
		OwnerID:        f.OwnerID,
		StorageNodeID:  f.StorageNodeID,
		Replicas:       f.ReplicaIDs,
		FileType:       f.FileType,
		FileName:       f.FileName,
		FileSize:       f.FileSize,
		SizeHuman:      humanBytes(f.FileSize),
		FileContent:    f.FileContent,
		OriginalName:   f.OriginalName,
		MimeType:       f.MimeType,
		Status:         f.Status,
		ChangeType:     f.ChangeType,
		OldFileName:    f.OldFileName,
		OldFileSize:    f.OldFileSize,
		Replicated:     f.Replicated,
		LastModifiedBy: f.LastModifiedBy,
		UploadDate:     formatTime(f.UploadDate),
	}
	if resp.Replicas == nil {
		resp.Replicas = []uuid.UUID{}
	}
	if f.LastEditDate != nil {
		edited := formatTime(*f.LastEditDate)
		resp.LastEditDate = &edited
	}
	return resp
}

func toNotificationResponse(n *models.Notification) dto.NotificationResponse {
	return dto.NotificationResponse{
		ID:               n.ID,
		Message:          n.Message,
		Type:             n.Type,
		RelatedFileID:    n.RelatedFileID,
		TeamID:           n.TeamID,
		ChangeType:       n.ChangeType,
		InitiatedBy:      n.InitiatedBy,
		RequiresApproval: n.RequiresApproval,
		ActionStatus:     n.ActionStatus,
		ApproverID:       n.ApproverID,
		Read:             n.Read,
		CreatedAt:        formatTime(n.CreatedAt),
	}
}
