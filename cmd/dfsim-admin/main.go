package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/c2h5oh/datasize"
	"github.com/dimitrije/dfsim-api/internal/config"
	"github.com/dimitrije/dfsim-api/internal/database"
	"github.com/dimitrije/dfsim-api/internal/models"
	"github.com/dimitrije/dfsim-api/internal/services"
	"github.com/google/uuid"
	"github.com/urfave/cli/v3"
)

func main() {
	cmd := &cli.Command{
		Name:  "dfsim-admin",
		Usage: "maintenance tasks for the storage simulator database",
		Commands: []*cli.Command{
			nodesCmd(),
			nodeStatusCmd(),
			recountCmd(),
			cleanupTokensCmd(),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

// withDB opens the configured database for the duration of fn.
func withDB(ctx context.Context, fn func(db *database.DB) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	return fn(db)
}

func teamFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "team",
		Usage:    "team id",
		Required: true,
	}
}

func parseUUID(c *cli.Command, flag string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.String(flag))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid --%s: %w", flag, err)
	}
	return id, nil
}

func nodesCmd() *cli.Command {
	return &cli.Command{
		Name:  "nodes",
		Usage: "print a team's nodes with their usage",
		Flags: []cli.Flag{teamFlag()},
		Action: func(ctx context.Context, c *cli.Command) error {
			teamID, err := parseUUID(c, "team")
			if err != nil {
				return err
			}
			return withDB(ctx, func(db *database.DB) error {
				nodes, err := services.NewNodeLedger(db).ListWithFiles(ctx, teamID)
				if err != nil {
					return err
				}
				for _, n := range nodes {
					fmt.Printf("%-12s %-20s %-8s %10s / %-10s %d files\n",
						n.NodeKey, n.Name, n.Status,
						datasize.ByteSize(max(n.UsedStorage, 0)).HR(),
						datasize.ByteSize(n.TotalStorage).HR(),
						n.FileCount)
				}
				return nil
			})
		},
	}
}

func nodeStatusCmd() *cli.Command {
	return &cli.Command{
		Name:  "node-status",
		Usage: "mark a node online or offline",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "node", Usage: "node id", Required: true},
			&cli.StringFlag{Name: "status", Usage: "online or offline", Value: models.NodeStatusOnline},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			nodeID, err := parseUUID(c, "node")
			if err != nil {
				return err
			}
			status := c.String("status")
			return withDB(ctx, func(db *database.DB) error {
				if err := services.NewNodeLedger(db).SetStatus(ctx, nodeID, status); err != nil {
					return err
				}
				fmt.Printf("Node %s is now %s\n", nodeID, status)
				return nil
			})
		},
	}
}

func recountCmd() *cli.Command {
	return &cli.Command{
		Name:  "recount",
		Usage: "rebuild a team's node usage counters from its files",
		Flags: []cli.Flag{teamFlag()},
		Action: func(ctx context.Context, c *cli.Command) error {
			teamID, err := parseUUID(c, "team")
			if err != nil {
				return err
			}
			return withDB(ctx, func(db *database.DB) error {
				updated, err := services.NewNodeLedger(db).Recount(ctx, teamID)
				if err != nil {
					return err
				}
				fmt.Printf("Recounted %d nodes\n", updated)
				return nil
			})
		},
	}
}

func cleanupTokensCmd() *cli.Command {
	return &cli.Command{
		Name:  "cleanup-tokens",
		Usage: "delete expired refresh tokens",
		Action: func(ctx context.Context, c *cli.Command) error {
			return withDB(ctx, func(db *database.DB) error {
				removed, err := services.NewSessionService(db).CleanupExpired(ctx)
				if err != nil {
					return err
				}
				fmt.Printf("Removed %d expired refresh tokens\n", removed)
				return nil
			})
		},
	}
}
