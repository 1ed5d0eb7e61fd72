package handlers

import (
	"github.com/dimitrije/dfsim-api/internal/middleware"
	"github.com/dimitrije/dfsim-api/pkg/dto"
	"github.com/m1z23r/drift/pkg/drift"
)

type NodeHandler struct {
	nodeService NodeServiceInterface
}

func NewNodeHandler(nodeService NodeServiceInterface) *NodeHandler {
	return &NodeHandler{nodeService: nodeService}
}

// Overview lists the current team's nodes with the files each one holds.
func (h *NodeHandler) Overview(c *drift.Context) {
	team := middleware.GetCurrentTeam(c)
	if team == nil {
		c.Forbidden("no team selected")
		return
	}

	nodes, err := h.nodeService.ListWithFiles(c.Request.Context(), team.ID)
	if err != nil {
		respondError(c, err, "list nodes")
		return
	}

	response := make([]dto.NodeWithFilesResponse, len(nodes))
	for i := range nodes {
		response[i] = dto.NodeWithFilesResponse{
			NodeResponse: toNodeResponse(&nodes[i].Node),
			Files:        make([]dto.NodeFileResponse, len(nodes[i].Files)),
		}
		for j, f := range nodes[i].Files {
			response[i].Files[j] = dto.NodeFileResponse{
				ID:       f.ID,
				FileName: f.FileName,
				FileSize: f.FileSize,
				Status:   f.Status,
				OwnerID:  f.OwnerID,
				Role:     f.Role,
			}
		}
	}

	teamResp := toTeamResponse(team, team.ID)
	teamResp.Member = true
	_ = c.JSON(200, dto.NodeOverviewResponse{Team: teamResp, Nodes: response})
}

// List is the compact node listing used by upload forms.
func (h *NodeHandler) List(c *drift.Context) {
	team := middleware.GetCurrentTeam(c)
	if team == nil {
		c.Forbidden("no team selected")
		return
	}

	nodes, err := h.nodeService.ListByTeam(c.Request.Context(), team.ID)
	if err != nil {
		respondError(c, err, "list nodes")
		return
	}

	response := make([]dto.NodeResponse, len(nodes))
	for i := range nodes {
		response[i] = toNodeResponse(&nodes[i])
	}
	_ = c.JSON(200, response)
}
