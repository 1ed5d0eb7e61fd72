package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dimitrije/dfsim-api/internal/database"
	"github.com/dimitrije/dfsim-api/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const nodeColumns = `id, team_id, node_key, name, position, total_storage, used_storage,
	available_storage, file_count, status, created_at, updated_at`

// NodeLedger tracks simulated capacity on each storage node. Counter updates
// are single UPDATE statements so concurrent transitions never lose a write.
// Capacity is reported, never enforced.
type NodeLedger struct {
	db *database.DB
}

func NewNodeLedger(db *database.DB) *NodeLedger {
	return &NodeLedger{db: db}
}

// Reserve accounts for a new file of size bytes on the node.
func (l *NodeLedger) Reserve(ctx context.Context, q database.Querier, nodeID uuid.UUID, size int64) error {
	return l.apply(ctx, q, nodeID, size, 1)
}

// Release is the inverse of Reserve.
func (l *NodeLedger) Release(ctx context.Context, q database.Querier, nodeID uuid.UUID, size int64) error {
	return l.apply(ctx, q, nodeID, -size, -1)
}

// Adjust changes used storage by delta without touching the file count.
func (l *NodeLedger) Adjust(ctx context.Context, q database.Querier, nodeID uuid.UUID, delta int64) error {
	return l.apply(ctx, q, nodeID, delta, 0)
}

func (l *NodeLedger) apply(ctx context.Context, q database.Querier, nodeID uuid.UUID, delta int64, files int) error {
	tag, err := q.Exec(ctx, `
		UPDATE nodes
		SET used_storage = used_storage + $2,
			file_count = file_count + $3,
			available_storage = total_storage - (used_storage + $2),
			updated_at = NOW()
		WHERE id = $1
	`, nodeID, delta, files)
	if err != nil {
		return fmt.Errorf("failed to update node usage: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNodeNotFound
	}
	return nil
}

func (l *NodeLedger) GetByID(ctx context.Context, nodeID uuid.UUID) (*models.Node, error) {
	row := l.db.Pool.QueryRow(ctx, `SELECT `+nodeColumns+` FROM nodes WHERE id = $1`, nodeID)
	node, err := scanNode(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNodeNotFound
		}
		return nil, err
	}
	return node, nil
}

// ListByTeam returns the team's nodes, primary first.
func (l *NodeLedger) ListByTeam(ctx context.Context, teamID uuid.UUID) ([]models.Node, error) {
	return listTeamNodes(ctx, l.db.Pool, teamID)
}

// ListWithFiles returns every node of the team with the files it holds. A
// file appears on its primary node from creation and on its replicas once it
// has been replicated.
func (l *NodeLedger) ListWithFiles(ctx context.Context, teamID uuid.UUID) ([]models.NodeWithFiles, error) {
	nodes, err := l.ListByTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}

	result := make([]models.NodeWithFiles, len(nodes))
	index := make(map[uuid.UUID]int, len(nodes))
	for i, n := range nodes {
		result[i] = models.NodeWithFiles{Node: n, Files: []models.NodeFile{}}
		index[n.ID] = i
	}

	rows, err := l.db.Pool.Query(ctx, `
		SELECT n.id, f.id, f.file_name, f.file_size, f.status, f.owner_id,
			CASE WHEN f.storage_node_id = n.id THEN 'primary' ELSE 'replica' END
		FROM nodes n
		JOIN files f ON f.team_id = n.team_id
		WHERE n.team_id = $1
			AND (f.storage_node_id = n.id
				OR (f.replicated AND EXISTS (
					SELECT 1 FROM file_replicas r WHERE r.file_id = f.id AND r.node_id = n.id)))
		ORDER BY n.position, f.upload_date
	`, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list node files: %w", err)
	}
	defer rows.Close()

	seen := make(map[[2]uuid.UUID]bool)
	for rows.Next() {
		var nodeID uuid.UUID
		var f models.NodeFile
		if err := rows.Scan(&nodeID, &f.ID, &f.FileName, &f.FileSize, &f.Status, &f.OwnerID, &f.Role); err != nil {
			return nil, err
		}
		i, ok := index[nodeID]
		key := [2]uuid.UUID{nodeID, f.ID}
		if !ok || seen[key] {
			continue
		}
		seen[key] = true
		result[i].Files = append(result[i].Files, f)
	}
	return result, rows.Err()
}

func (l *NodeLedger) SetStatus(ctx context.Context, nodeID uuid.UUID, status string) error {
	if !models.ValidNodeStatus(status) {
		return validationError("unknown node status %q", status)
	}
	tag, err := l.db.Pool.Exec(ctx, `
		UPDATE nodes SET status = $2, updated_at = NOW() WHERE id = $1
	`, nodeID, status)
	if err != nil {
		return fmt.Errorf("failed to update node status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNodeNotFound
	}
	return nil
}

// Recount rebuilds the team's counters from its files. Files with a pending
// edit still count at their pre-edit size because the ledger only moves on
// approval. Returns the number of nodes updated.
func (l *NodeLedger) Recount(ctx context.Context, teamID uuid.UUID) (int64, error) {
	tag, err := l.db.Pool.Exec(ctx, `
		WITH sized AS (
			SELECT f.id, f.storage_node_id, f.replicated,
				CASE WHEN f.change_type = 'edit' AND f.status IN ('pending_confirmation', 'pending_approval')
					THEN COALESCE(f.old_file_size, f.file_size)
					ELSE f.file_size END AS size
			FROM files f WHERE f.team_id = $1
		),
		held AS (
			SELECT storage_node_id AS node_id, size FROM sized
			UNION ALL
			SELECT r.node_id, s.size FROM sized s JOIN file_replicas r ON r.file_id = s.id WHERE s.replicated
		),
		totals AS (
			SELECT n.id, COALESCE(SUM(h.size), 0) AS used, COUNT(h.node_id) AS files
			FROM nodes n LEFT JOIN held h ON h.node_id = n.id
			WHERE n.team_id = $1
			GROUP BY n.id
		)
		UPDATE nodes n
		SET used_storage = t.used,
			file_count = t.files,
			available_storage = n.total_storage - t.used,
			updated_at = NOW()
		FROM totals t
		WHERE n.id = t.id
	`, teamID)
	if err != nil {
		return 0, fmt.Errorf("failed to recount nodes: %w", err)
	}
	return tag.RowsAffected(), nil
}

func listTeamNodes(ctx context.Context, q database.Querier, teamID uuid.UUID) ([]models.Node, error) {
	rows, err := q.Query(ctx, `
		SELECT `+nodeColumns+` FROM nodes WHERE team_id = $1 ORDER BY position
	`, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list nodes: %w", err)
	}
	defer rows.Close()

	nodes := []models.Node{}
	for rows.Next() {
		node, err := scanNode(rows)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, *node)
	}
	return nodes, rows.Err()
}

func scanNode(row pgx.Row) (*models.Node, error) {
	var n models.Node
	err := row.Scan(
		&n.ID, &n.TeamID, &n.NodeKey, &n.Name, &n.Position, &n.TotalStorage, &n.UsedStorage,
		&n.AvailableStorage, &n.FileCount, &n.Status, &n.CreatedAt, &n.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &n, nil
}
