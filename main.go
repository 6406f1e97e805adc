package main

import (
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"o-trabalhador-server/config"
	"o-trabalhador-server/database"
	"o-trabalhador-server/jobs"
	"o-trabalhador-server/middleware"
	"o-trabalhador-server/routes"
	ws "o-trabalhador-server/websocket"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	// Load configuration
	config.Load()

	// Initialize database
	if err := database.Initialize(); err != nil {
		log.Fatal("Failed to initialize database:", err)
	}

	// Seed the skill catalogue used by pickers and search
	if err := seedSkills(); err != nil {
		log.Printf("⚠️ Skill seeding failed: %v", err)
	}

	// Set Gin mode
	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create router
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// Disable automatic redirects for trailing slashes
	router.RedirectTrailingSlash = false
	router.RedirectFixedPath = false

	// Security headers (must be first)
	router.Use(middleware.SecurityHeadersMiddleware())

	// Input validation
	router.Use(middleware.InputValidationMiddleware())

	// Rate limiting
	router.Use(middleware.RateLimitMiddleware())

	// CORS
	router.Use(cors.New(corsConfig()))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "O Trabalhador server is running",
			"time":    time.Now().UTC(),
		})
	})

	// Realtime hub for work rooms and lifecycle notifications
	hub := ws.NewHub()
	go hub.Run()

	// API routes
	api := router.Group("/api/v1")
	{
		// Auth routes (no authentication required) - with strict rate limiting
		authRoutes := api.Group("/auth")
		authRoutes.Use(middleware.AuthRateLimitMiddleware())
		routes.RegisterAuthRoutes(authRoutes)

		// Payment gateway callback (authenticated by shared secret)
		routes.RegisterPaymentWebhook(api)

		// Address helpers (public)
		routes.RegisterLocationRoutes(api)

		// Protected routes
		protected := api.Group("")
		protected.Use(middleware.AuthMiddleware())
		{
			// Profile routes
			profileRoutes := protected.Group("/perfis")
			routes.RegisterProfileRoutes(profileRoutes)

			// Worker search
			searchRoutes := protected.Group("/busca")
			routes.RegisterSearchRoutes(searchRoutes)

			// Service order lifecycle
			orderRoutes := protected.Group("/ordens")
			routes.RegisterOrderRoutes(orderRoutes, hub)

			// Work-room chat
			routes.RegisterWorkRoomRoutes(orderRoutes, hub)

			// Payments
			paymentRoutes := protected.Group("/pagamentos")
			routes.RegisterPaymentRoutes(paymentRoutes)
		}

		// WebSocket endpoint: token travels as a query parameter
		wsRoutes := api.Group("")
		wsRoutes.Use(middleware.WebSocketAuthMiddleware())
		routes.RegisterWorkRoomWebSocket(wsRoutes, hub)
	}

	// Get port from environment or use default
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	// Start background jobs
	expirationJob := jobs.NewExpirationJob()
	expirationJob.Start()
	defer expirationJob.Stop()

	log.Printf("🚀 Server starting on port %s", port)
	if err := router.Run("0.0.0.0:" + port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}

// corsConfig builds the CORS policy from ALLOWED_ORIGINS, falling back to the
// local development client.
func corsConfig() cors.Config {
	origins := []string{"http://localhost:5173"}
	if env := os.Getenv("ALLOWED_ORIGINS"); env != "" {
		origins = strings.Split(env, ",")
	}

	return cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Device-ID"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
}
