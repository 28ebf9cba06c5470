package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"

	"github.com/aaryan/garment-styles-api/config"
	"github.com/aaryan/garment-styles-api/controllers"
	"github.com/aaryan/garment-styles-api/middleware"
	"github.com/aaryan/garment-styles-api/models"
	"github.com/aaryan/garment-styles-api/services"
)

func main() {
	log.Println("Starting Garment Styles API server...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Connect to database
	if err := config.ConnectDatabase(); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Auto-migrate database models
	db := config.GetDB()
	if err := db.AutoMigrate(&models.Style{}); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	log.Println("Database migration completed successfully")

	// Identity service for merchant resolution
	services.InitAuth0Service(cfg)

	// Pending stage updates: Redis when configured, in-memory otherwise
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("Failed to parse REDIS_URL: %v", err)
		}
		client := redis.NewClient(opts)
		if err := client.Ping(context.Background()).Err(); err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		services.InitPendingStore(services.NewRedisPendingStore(client))
		log.Println("Pending stage updates backed by Redis")
	} else {
		services.InitPendingStore(services.NewMemoryPendingStore())
		log.Println("REDIS_URL not set, pending stage updates held in memory")
	}

	// S3 for style photos and export delivery
	if cfg.AWSS3Bucket != "" {
		s3Service, err := services.InitS3Service()
		if err != nil {
			log.Fatalf("Failed to initialize S3 service: %v", err)
		}
		services.InitPhotoService(s3Service)
		log.Printf("S3 storage enabled (bucket %s)", cfg.AWSS3Bucket)
	} else {
		log.Println("AWS_S3_BUCKET not set, photo upload and export upload disabled")
	}

	// Initialize Gin router
	router := gin.Default()

	// CORS for browser-based tooling
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Health and keepalive endpoints
		v1.GET("/health", healthCheck)
		v1.GET("/ping", ping)
		v1.GET("/info", botInfo)

		// Authenticated merchant routes
		auth := v1.Group("")
		auth.Use(middleware.EnsureValidToken(cfg))
		{
			auth.POST("/styles", controllers.CreateStyle)
			auth.GET("/styles", controllers.ListStyles)
			auth.GET("/styles/archived", controllers.ListArchivedStyles)
			auth.GET("/styles/export", controllers.DownloadExport)
			auth.POST("/styles/export", controllers.UploadExport)
			auth.GET("/styles/:id", controllers.GetStyle)
			auth.PATCH("/styles/:id", controllers.EditStyle)
			auth.DELETE("/styles/:id", controllers.ArchiveStyle)
			auth.POST("/styles/:id/restore", controllers.RestoreStyle)
			auth.POST("/styles/:id/stage", controllers.UpdateStage)
			auth.POST("/styles/:id/photo", controllers.UploadStylePhoto)
			auth.POST("/styles/bulk-stage/diff", controllers.BulkStageDiff)
			auth.POST("/styles/bulk-stage", controllers.BulkStageUpdate)
			auth.POST("/stage-updates/:token", controllers.RedeemStageUpdate)
			auth.DELETE("/stage-updates/:token", controllers.AbandonStageUpdate)

			// Privileged routes
			admin := auth.Group("")
			admin.Use(middleware.RequireAdmin(cfg))
			{
				admin.GET("/reminders/targets", controllers.PreviewReminderTargets)
			}
		}
	}

	// Daily reminder cadence; targeting is read-only over the store
	if err := startReminderScheduler(cfg); err != nil {
		log.Fatalf("Failed to start reminder scheduler: %v", err)
	}

	// Start server
	port := ":" + cfg.Port
	log.Printf("Server is running on http://localhost%s", port)
	if err := router.Run(port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// startReminderScheduler runs the daily reminder job (default 09:30
// Asia/Kolkata). Without a wired directory the job logs and skips.
func startReminderScheduler(cfg *config.Config) error {
	loc, err := time.LoadLocation(cfg.ReminderTZ)
	if err != nil {
		return err
	}

	var notifier services.Notifier = services.LogNotifier{}

	scheduler := cron.New(cron.WithLocation(loc))
	_, err = scheduler.AddFunc(cfg.ReminderCron, func() {
		dir := services.GetDirectory()
		if dir == nil {
			log.Println("Reminder run skipped: no user directory configured")
			return
		}

		reminders := services.NewReminderService(
			services.NewStyleStore(config.GetDB()),
			controllers.ReminderPolicy(cfg),
		)
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		targets, err := reminders.EligibleTargets(ctx, dir)
		if err != nil {
			log.Printf("Reminder targeting failed: %v", err)
			return
		}
		for _, target := range targets {
			if err := notifier.Notify(ctx, target); err != nil {
				log.Printf("Failed to notify %s: %v", target.Merchant, err)
			}
		}
	})
	if err != nil {
		return err
	}

	scheduler.Start()
	log.Printf("Reminder scheduler started (%s, %s)", cfg.ReminderCron, cfg.ReminderTZ)
	return nil
}

// healthCheck handles the health check endpoint
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Garment Styles API is running",
	})
}

// ping handles the keepalive endpoint used by uptime monitors
func ping(c *gin.Context) {
	c.String(http.StatusOK, "pong")
}

// botInfo handles GET /api/v1/info - the command overview shown to
// merchants by the chat layer
func botInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"commands": []gin.H{
				{"command": "/add-style", "description": "Add a new garment style with optional photo"},
				{"command": "/update-stage", "description": "Update the production stage of an existing style"},
				{"command": "/current-styles", "description": "View all styles you're handling"},
				{"command": "/morning-update", "description": "Bulk update all your styles for today"},
				{"command": "/get-info", "description": "Show this help message"},
			},
			"stages": models.StageLabels,
		},
	})
}
