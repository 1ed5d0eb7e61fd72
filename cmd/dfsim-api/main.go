package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dimitrije/dfsim-api/internal/config"
	"github.com/dimitrije/dfsim-api/internal/database"
	"github.com/dimitrije/dfsim-api/internal/handlers"
	authmw "github.com/dimitrije/dfsim-api/internal/middleware"
	"github.com/dimitrije/dfsim-api/internal/services"
	"github.com/dimitrije/dfsim-api/internal/sse"
	"github.com/dimitrije/dfsim-api/internal/storage"
	"github.com/go-co-op/gocron"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/m1z23r/drift/pkg/middleware"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()

	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	store, err := storage.NewLocalStore(cfg.Storage.ContentDir)
	if err != nil {
		log.Fatalf("Failed to open content store: %v", err)
	}

	hub := sse.NewHub()
	go hub.Run()

	jwtService := services.NewJWTService(cfg.JWTSecret, cfg.JWTAccessExpiry, cfg.JWTRefreshExpiry)
	userService := services.NewUserService(db)
	sessionService := services.NewSessionService(db)
	emailService := services.NewEmailService(cfg.SMTP, cfg.BaseURL)
	notificationService := services.NewNotificationService(db, hub, emailService)
	nodeLedger := services.NewNodeLedger(db)
	teamService := services.NewTeamService(db, cfg.Storage.DefaultNodeCapacity)
	workflowService := services.NewWorkflowService(db, nodeLedger, notificationService, store, hub, cfg.Storage.InlinePreviewLimit)

	if !emailService.IsConfigured() {
		log.Println("SMTP not configured, approval emails are disabled")
	}

	authHandler := handlers.NewAuthHandler(userService, teamService, sessionService, jwtService)
	userHandler := handlers.NewUserHandler(userService)
	teamHandler := handlers.NewTeamHandler(teamService, userService, sessionService, jwtService)
	fileHandler := handlers.NewFileHandler(workflowService, userService, cfg.Storage.MaxUploadSize)
	nodeHandler := handlers.NewNodeHandler(nodeLedger)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	sseHandler := handlers.NewSSEHandler(hub, teamService)
	syncHandler := handlers.NewSyncHandler(hub, teamService, jwtService)

	app := drift.New()

	if cfg.IsProduction() {
		app.SetMode(drift.ReleaseMode)
	} else {
		app.SetMode(drift.DebugMode)
	}

	app.Use(middleware.Recovery())
	app.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
		MaxAge:       86400,
	}))
	app.Use(middleware.BodyParser())

	api := app.Group("/api/v1")

	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Post("/refresh", authHandler.RefreshToken)

	protected := api.Group("")
	protected.Use(authmw.Auth(jwtService))

	protected.Get("/auth/logout", authHandler.Logout)

	protected.Get("/users/me", userHandler.GetMe)

	protected.Get("/teams", teamHandler.List)
	protected.Get("/teams/mine", teamHandler.Mine)
	protected.Post("/teams/create", teamHandler.Create)
	protected.Post("/teams/select", teamHandler.Select)
	protected.Get("/teams/:id", teamHandler.Get)
	protected.Post("/teams/:id/add-member", teamHandler.AddMember)

	protected.Get("/files/:id/view", fileHandler.View)
	protected.Get("/files/:id/download", fileHandler.Download)
	protected.Post("/files/:id/confirm", fileHandler.Confirm)
	protected.Post("/files/:id/approve", fileHandler.Approve)
	protected.Post("/files/:id/reject", fileHandler.Reject)
	protected.Post("/files/:id/edit", fileHandler.Edit)
	protected.Post("/files/:id/confirm-edit", fileHandler.ConfirmEdit)
	protected.Post("/files/:id/delete-request", fileHandler.RequestDelete)

	protected.Get("/notifications", notificationHandler.List)
	protected.Get("/notifications/read/:id", notificationHandler.MarkRead)
	protected.Post("/notifications/:id/approve", notificationHandler.Approve)
	protected.Post("/notifications/:id/reject", notificationHandler.Reject)

	protected.Get("/events", sseHandler.Connect)

	scoped := api.Group("")
	scoped.Use(authmw.Auth(jwtService))
	scoped.Use(authmw.RequireTeam(teamService))

	scoped.Get("/files", fileHandler.List)
	scoped.Post("/files/upload", fileHandler.Upload)
	scoped.Get("/nodes", nodeHandler.Overview)
	scoped.Get("/nodes/api/list", nodeHandler.List)

	api.Get("/health", func(c *drift.Context) {
		_ = c.JSON(200, map[string]string{"status": "ok"})
	})

	api.Get("/ws", syncHandler.Connect)

	scheduler := gocron.NewScheduler(time.UTC)
	if _, err := scheduler.Every(1).Hour().Do(func() {
		removed, err := sessionService.CleanupExpired(context.Background())
		if err != nil {
			log.Printf("Failed to clean up refresh tokens: %v", err)
			return
		}
		if removed > 0 {
			log.Printf("Removed %d expired refresh tokens", removed)
		}
	}); err != nil {
		log.Fatalf("Failed to schedule token cleanup: %v", err)
	}
	scheduler.StartAsync()

	go func() {
		addr := fmt.Sprintf(":%s", cfg.Port)
		log.Printf("Server starting on %s", addr)
		if err := app.Run(addr); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	scheduler.Stop()
}
