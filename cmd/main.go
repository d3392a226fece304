package main

import (
	"fmt"
	"log"

	"github.com/gin-gonic/gin"

	"github.com/putraaxzy/be-artemis/internal/config"
	"github.com/putraaxzy/be-artemis/internal/handlers"
	"github.com/putraaxzy/be-artemis/internal/repository"
	"github.com/putraaxzy/be-artemis/internal/services"
	"github.com/putraaxzy/be-artemis/pkg/database"
	"github.com/putraaxzy/be-artemis/pkg/storage"
	"github.com/putraaxzy/be-artemis/pkg/telegram"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.NewDatabase(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.EnsureDefaultTeacher(cfg.TeacherUsername, cfg.TeacherName, cfg.TeacherPassword); err != nil {
		log.Printf("Failed to create default teacher: %v", err)
	}

	store, err := storage.NewStorage(cfg.UploadPath, cfg.MaxFileSize)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}

	// The Telegram digest bot is optional; without a token digests are
	// returned to the caller but not posted anywhere.
	var bot *telegram.Bot
	if cfg.TelegramBotToken != "" && cfg.TelegramChatID != 0 {
		bot, err = telegram.NewBot(cfg.TelegramBotToken, cfg.TelegramChatID)
		if err != nil {
			log.Printf("Failed to initialize Telegram bot: %v", err)
		}
	}

	// Repositories
	userRepo := repository.NewUserRepository(db.DB)
	majorRepo := repository.NewMajorRepository(db.DB)
	taskRepo := repository.NewTaskRepository(db.DB)
	assignmentRepo := repository.NewAssignmentRepository(db.DB)
	reminderRepo := repository.NewReminderRepository(db.DB)
	followRepo := repository.NewFollowRepository(db.DB)
	pushSubRepo := repository.NewPushSubscriptionRepository(db.DB)

	// Services
	pushService := services.NewPushService(pushSubRepo, cfg.VAPIDPublicKey, cfg.VAPIDPrivateKey, cfg.VAPIDSubject, cfg.AppURL)
	enrollmentService := services.NewEnrollmentService(taskRepo, assignmentRepo)
	authService := services.NewAuthService(userRepo, majorRepo, enrollmentService, store, cfg.JWTSecret, cfg.JWTExpiration)
	taskService := services.NewTaskService(taskRepo, assignmentRepo, userRepo, store, pushService)
	submissionService := services.NewSubmissionService(assignmentRepo, pushService)
	gradingService := services.NewGradingService(assignmentRepo)
	reminderService := services.NewReminderService(taskRepo, assignmentRepo, reminderRepo, bot)
	profileService := services.NewProfileService(userRepo, followRepo, assignmentRepo, pushService, cfg.AppURL)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	taskHandler := handlers.NewTaskHandler(taskService, submissionService, gradingService)
	botHandler := handlers.NewBotHandler(reminderService)
	reminderHandler := handlers.NewReminderHandler(reminderService)
	profileHandler := handlers.NewProfileHandler(profileService)
	notificationHandler := handlers.NewNotificationHandler(pushService)

	router := gin.Default()
	router.Use(handlers.CORSMiddleware())

	// Uploaded attachments and avatars
	router.Static("/uploads", cfg.UploadPath)

	api := router.Group("/api")

	// Public routes
	public := api.Group("/auth")
	{
		public.GET("/register-options", authHandler.RegisterOptions)
		public.POST("/register", authHandler.Register)
		public.POST("/login", authHandler.Login)
	}

	// Reminder bot routes, guarded by a static API key
	botGroup := api.Group("/bot")
	botGroup.Use(handlers.BotKeyMiddleware(cfg.BotAPIKey))
	{
		botGroup.GET("/students-pending", botHandler.PendingStudents)
		botGroup.GET("/students-pending/:id", botHandler.PendingStudentsByTask)
		botGroup.POST("/reminder", botHandler.RecordReminder)
		botGroup.POST("/webhook/status", botHandler.DeliveryStatus)
	}

	// Authenticated routes
	protected := api.Group("/")
	protected.Use(handlers.AuthMiddleware(authService))
	{
		protected.GET("/auth/me", authHandler.Me)
		protected.POST("/auth/logout", authHandler.Logout)
		protected.PUT("/auth/profile", authHandler.UpdateProfile)
		protected.POST("/auth/first-login", authHandler.CompleteFirstLogin)

		protected.GET("/tasks", taskHandler.List)
		protected.GET("/tasks/:id", taskHandler.Detail)
		protected.POST("/tasks/:id/submit", handlers.StudentOnly(), taskHandler.Submit)

		protected.GET("/profile/:ref", profileHandler.Show)
		protected.PUT("/profile/bio", profileHandler.UpdateBio)
		protected.POST("/users/:id/follow", profileHandler.Follow)
		protected.DELETE("/users/:id/follow", profileHandler.Unfollow)
		protected.GET("/users/:id/followers", profileHandler.Followers)
		protected.GET("/users/:id/following", profileHandler.Following)
		protected.GET("/search/users", profileHandler.Search)

		protected.GET("/notifications/vapid-key", notificationHandler.VAPIDKey)
		protected.POST("/notifications/subscribe", notificationHandler.Subscribe)
		protected.POST("/notifications/unsubscribe", notificationHandler.Unsubscribe)
		protected.GET("/notifications/count", notificationHandler.Count)
		protected.POST("/notifications/test", notificationHandler.Test)
	}

	// Teacher-only routes
	teacher := api.Group("/")
	teacher.Use(handlers.AuthMiddleware(authService))
	teacher.Use(handlers.TeacherOnly())
	{
		teacher.GET("/students", taskHandler.Students)
		teacher.GET("/students/classes", taskHandler.ClassGroups)
		teacher.GET("/students/by-class", taskHandler.StudentsByClass)

		teacher.POST("/tasks", taskHandler.Create)
		teacher.PUT("/tasks/:id", taskHandler.Update)
		teacher.DELETE("/tasks/:id", taskHandler.Delete)
		teacher.GET("/tasks/:id/pending", taskHandler.Pending)
		teacher.PUT("/assignments/:id/status", taskHandler.Grade)

		teacher.POST("/tasks/:id/remind", reminderHandler.SendDigest)
		teacher.GET("/tasks/:id/reminders", reminderHandler.History)
	}

	addr := fmt.Sprintf("%s:%s", cfg.Host, cfg.Port)
	log.Printf("Starting Artemis server on %s", addr)

	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
