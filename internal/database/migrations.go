package database

import (
	"context"
	"fmt"
)

var migrations = []string{
	`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`,

	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		email VARCHAR(255) UNIQUE NOT NULL,
		name VARCHAR(255) NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS teams (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		name VARCHAR(255) UNIQUE NOT NULL,
		leader_id UUID REFERENCES users(id) ON DELETE SET NULL,
		leader_name VARCHAR(255) NOT NULL DEFAULT '',
		created_by UUID REFERENCES users(id) ON DELETE SET NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS team_members (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		team_id UUID NOT NULL REFERENCES teams(id) ON DELETE CASCADE,
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT clock_timestamp(),
		UNIQUE(team_id, user_id)
	)`,

	// position 0 is the primary node, 1..3 are backups
	`CREATE TABLE IF NOT EXISTS nodes (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		team_id UUID NOT NULL REFERENCES teams(id) ON DELETE CASCADE,
		node_key VARCHAR(100) NOT NULL,
		name VARCHAR(255) NOT NULL,
		position INTEGER NOT NULL,
		total_storage BIGINT NOT NULL DEFAULT 1073741824,
		used_storage BIGINT NOT NULL DEFAULT 0,
		available_storage BIGINT NOT NULL DEFAULT 1073741824,
		file_count INTEGER NOT NULL DEFAULT 0,
		status VARCHAR(20) NOT NULL DEFAULT 'online',
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		UNIQUE(team_id, position)
	)`,

	`CREATE TABLE IF NOT EXISTS files (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		team_id UUID NOT NULL REFERENCES teams(id) ON DELETE CASCADE,
		owner_id UUID REFERENCES users(id) ON DELETE SET NULL,
		storage_node_id UUID NOT NULL REFERENCES nodes(id) ON DELETE CASCADE,
		file_type VARCHAR(20) NOT NULL,
		file_name VARCHAR(255) NOT NULL,
		file_size BIGINT NOT NULL DEFAULT 0,
		file_content TEXT NOT NULL DEFAULT '',
		original_name VARCHAR(255),
		mime_type VARCHAR(255),
		file_path VARCHAR(500),
		status VARCHAR(30) NOT NULL DEFAULT 'pending_confirmation',
		change_type VARCHAR(20) NOT NULL DEFAULT 'create',
		old_file_name VARCHAR(255),
		old_file_content TEXT NOT NULL DEFAULT '',
		old_file_size BIGINT,
		replicated BOOLEAN NOT NULL DEFAULT FALSE,
		last_modified_by UUID REFERENCES users(id) ON DELETE SET NULL,
		upload_date TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		last_edit_date TIMESTAMP WITH TIME ZONE
	)`,

	`CREATE TABLE IF NOT EXISTS file_replicas (
		file_id UUID NOT NULL REFERENCES files(id) ON DELETE CASCADE,
		node_id UUID NOT NULL REFERENCES nodes(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		PRIMARY KEY(file_id, node_id)
	)`,

	// related_file_id has no foreign key: notifications outlive rejected files
	`CREATE TABLE IF NOT EXISTS notifications (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		message TEXT NOT NULL,
		type VARCHAR(50) NOT NULL DEFAULT 'info',
		related_file_id UUID,
		team_id UUID REFERENCES teams(id) ON DELETE CASCADE,
		change_type VARCHAR(20),
		initiated_by UUID REFERENCES users(id) ON DELETE SET NULL,
		requires_approval BOOLEAN NOT NULL DEFAULT FALSE,
		action_status VARCHAR(20) NOT NULL DEFAULT 'pending',
		approver_id UUID REFERENCES users(id) ON DELETE SET NULL,
		read BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT clock_timestamp()
	)`,

	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		token_hash VARCHAR(255) NOT NULL UNIQUE,
		expires_at TIMESTAMP WITH TIME ZONE NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	`CREATE INDEX IF NOT EXISTS idx_team_members_team_id ON team_members(team_id)`,
	`CREATE INDEX IF NOT EXISTS idx_team_members_user_id ON team_members(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_nodes_team_id ON nodes(team_id)`,
	`CREATE INDEX IF NOT EXISTS idx_files_team_id ON files(team_id)`,
	`CREATE INDEX IF NOT EXISTS idx_files_storage_node_id ON files(storage_node_id)`,
	`CREATE INDEX IF NOT EXISTS idx_file_replicas_node_id ON file_replicas(node_id)`,
	`CREATE INDEX IF NOT EXISTS idx_notifications_user_id ON notifications(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_notifications_related_file_id ON notifications(related_file_id)`,
	`CREATE INDEX IF NOT EXISTS idx_refresh_tokens_user_id ON refresh_tokens(user_id)`,

	`DO $$
	BEGIN
		IF NOT EXISTS (
			SELECT 1 FROM information_schema.table_constraints
			WHERE table_name = 'nodes' AND constraint_name = 'nodes_status_check'
		) THEN
			ALTER TABLE nodes ADD CONSTRAINT nodes_status_check CHECK (status IN ('online', 'offline'));
		END IF;
	END $$`,
}

func (db *DB) Migrate(ctx context.Context) error {
	for i, migration := range migrations {
		if _, err := db.Pool.Exec(ctx, migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
