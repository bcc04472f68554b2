package main

import (
	"context"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/kormoplatform/kormo-backend/internal/config"
	"github.com/kormoplatform/kormo-backend/internal/db"
	"github.com/kormoplatform/kormo-backend/internal/handlers"
	"github.com/kormoplatform/kormo-backend/internal/logger"
	"github.com/kormoplatform/kormo-backend/internal/middleware"
	"github.com/kormoplatform/kormo-backend/internal/models"
	"github.com/kormoplatform/kormo-backend/internal/realtime"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()

	zlog := logger.New(cfg.AppEnv)
	defer zlog.Sync()

	gdb, err := db.Connect(cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}

	rdb := realtime.NewRedis(cfg.RedisAddr, cfg.RedisPassword)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Fatal("redis not reachable: ", err)
	}

	hub := realtime.NewHub(zlog)
	go hub.Run()

	if err := gdb.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Job{},
		&models.JobView{},
		&models.Proposal{},
		&models.Project{},
		&models.Conversation{},
		&models.Message{},
	); err != nil {
		log.Fatal(err)
	}

	app := fiber.New()

	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.FrontendBaseURL,
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		ExposeHeaders:    "Content-Length",
		AllowCredentials: true,
	}))

	authH := &handlers.AuthHandler{
		DB:        gdb,
		Log:       zlog,
		JWTSecret: cfg.JWTSecret,
		Expires:   cfg.JWTExpiresMin,
	}
	googleH := &handlers.GoogleOAuthHandler{
		DB:              gdb,
		Log:             zlog,
		JWTSecret:       cfg.JWTSecret,
		Expires:         cfg.JWTExpiresMin,
		GoogleClientID:  cfg.GoogleClientID,
		GoogleSecret:    cfg.GoogleSecret,
		GoogleRedirect:  cfg.GoogleRedirect,
		FrontendBaseURL: cfg.FrontendBaseURL,
	}
	userH := handlers.NewUserHandler(gdb, zlog)
	categoryH := handlers.NewCategoryHandler(gdb, zlog)
	jobH := handlers.NewJobHandler(gdb, zlog)
	proposalH := handlers.NewProposalHandler(gdb, zlog)
	projectH := handlers.NewProjectHandler(gdb, zlog)
	chatH := handlers.NewChatHandler(gdb, hub, rdb, zlog, cfg.JWTSecret)

	api := app.Group("/api")

	// public
	api.Post("/auth/register", authH.Register)
	api.Post("/auth/login", authH.Login)
	api.Post("/auth/logout", authH.Logout)
	api.Get("/auth/google/start", googleH.GoogleStart)
	api.Get("/auth/google/callback", googleH.GoogleCallback)

	api.Get("/categories", categoryH.List)
	api.Get("/categories/:slug", categoryH.Show)

	api.Get("/jobs", jobH.List)
	api.Get("/jobs/search", jobH.Search)
	api.Get("/jobs/category/:slug", jobH.ByCategory)
	// job detail varies by viewer: owners see drafts and proposals
	api.Get("/jobs/:id", middleware.OptionalJWTFromCookie(cfg.JWTSecret), jobH.Show)

	// protected (JWT cookie)
	protected := api.Group("/",
		middleware.JWTFromCookie(cfg.JWTSecret),
		middleware.AttachJWTLocals(),
		middleware.TouchLastSeen(gdb, rdb),
	)

	protected.Get("/me", authH.Me)
	protected.Get("/profile", userH.GetProfile)
	protected.Put("/profile", userH.UpdateProfile)
	protected.Get("/dashboard", userH.Dashboard)
	protected.Get("/users/:id", userH.ShowUser)

	// jobs
	protected.Post("/jobs", middleware.RequireRoles("client"), jobH.Create)
	protected.Put("/jobs/:id", middleware.RequireRoles("client"), jobH.Update)
	protected.Delete("/jobs/:id", middleware.RequireRoles("client"), jobH.Delete)
	protected.Get("/client/jobs", middleware.RequireRoles("client"), jobH.MyJobs)
	protected.Get("/jobs/:id/proposals", middleware.RequireRoles("client"), proposalH.JobProposals)

	// proposals
	protected.Post("/proposals", middleware.RequireRoles("freelancer"), proposalH.Submit)
	protected.Get("/proposals/:id", proposalH.Show)
	protected.Put("/proposals/:id", middleware.RequireRoles("freelancer"), proposalH.Update)
	protected.Patch("/proposals/:id/withdraw", middleware.RequireRoles("freelancer"), proposalH.Withdraw)
	protected.Patch("/proposals/:id/reject", middleware.RequireRoles("client"), proposalH.Reject)
	protected.Patch("/proposals/:id/accept", middleware.RequireRoles("client"), proposalH.Accept)
	protected.Get("/freelancer/proposals", middleware.RequireRoles("freelancer"), proposalH.MyProposals)

	// projects
	protected.Get("/projects", projectH.List)
	protected.Get("/projects/:id", projectH.Show)
	protected.Patch("/projects/:id/progress", middleware.RequireRoles("freelancer"), projectH.UpdateProgress)
	protected.Patch("/projects/:id/complete", middleware.RequireRoles("client"), projectH.Complete)
	protected.Patch("/projects/:id/cancel", projectH.Cancel)
	protected.Post("/projects/:id/rate", projectH.Rate)

	// chat
	chat := protected.Group("/chat")
	chat.Get("/conversations", chatH.GetConversations)
	chat.Post("/conversations", chatH.CreateConversation)
	chat.Get("/conversations/:id/messages", chatH.GetMessages)
	chat.Post("/conversations/:id/messages", chatH.SendMessage)
	chat.Patch("/conversations/:id/read", chatH.MarkAsRead)
	chat.Get("/unread", chatH.GetUnreadTotal)

	// admin
	protected.Post("/admin/categories", middleware.RequireRoles("admin"), categoryH.Create)
	protected.Put("/admin/categories/:id", middleware.RequireRoles("admin"), categoryH.Update)

	app.Get("/ws/chat",
		handlers.WebSocketUpgrade(cfg.JWTSecret),
		websocket.New(chatH.WebSocketHandler),
	)

	zlog.Info("server starting", zap.String("port", cfg.AppPort), zap.String("env", cfg.AppEnv))
	log.Fatal(app.Listen(":" + cfg.AppPort))
}
