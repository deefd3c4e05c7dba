package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/murmurchat/murmur/internal/ai"
	"github.com/murmurchat/murmur/internal/api"
	"github.com/murmurchat/murmur/internal/auth"
	"github.com/murmurchat/murmur/internal/config"
	"github.com/murmurchat/murmur/internal/database"
	"github.com/murmurchat/murmur/internal/logger"
	"github.com/murmurchat/murmur/internal/mail"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := logger.Setup(cfg.LogDir, logger.Rotation{
		MaxSizeMB:  50,
		MaxBackups: 5,
		MaxAgeDays: 28,
		Compress:   true,
	}); err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	auth.InitJWTKey([]byte(cfg.JWTSecret))

	connStr, err := cfg.Database.ConnString()
	if err != nil {
		log.Fatalf("Failed to resolve database settings: %v", err)
	}

	db, err := database.New(connStr)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Connected to database successfully")

	mailer := mail.NewDispatcher(cfg.SMTP)

	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	authHandler := api.NewAuthHandler(db, mailer)
	chatHandler := api.NewChatHandler(db)
	aiHandler := api.NewAIHandler(ai.NewClient(cfg.Gemini))

	// Public routes (no authentication required)
	router.POST("/api/auth/register", authHandler.Register)
	router.POST("/api/auth/login", authHandler.Login)

	// Protected routes (authentication required)
	authorized := router.Group("/api")
	authorized.Use(api.AuthMiddleware())
	{
		authorized.POST("/auth/check", authHandler.Check)
		authorized.POST("/auth/logout", authHandler.Logout)
		authorized.GET("/users", authHandler.GetAllUsers)

		// Conversation and message routes
		authorized.GET("/chat", chatHandler.ListConversations)
		authorized.GET("/chat/user/:receiverID", chatHandler.GetOrCreateConversation)
		authorized.GET("/chat/conversations/:conversationID/messages", chatHandler.ListMessages)
		authorized.POST("/chat/conversations/:conversationID/messages", chatHandler.SendMessage)
		authorized.PUT("/chat/messages/:messageID", chatHandler.EditMessage)
		authorized.DELETE("/chat/messages/:messageID", chatHandler.DeleteMessage)
		authorized.PUT("/chat/messages/:messageID/read", chatHandler.MarkMessageRead)

		// AI assistant routes
		authorized.POST("/ai-chat/ai-message", aiHandler.Reply)
	}

	// Add health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server starting on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Give the server 5 seconds to finish processing remaining requests
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited properly")
}
