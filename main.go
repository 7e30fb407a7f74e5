package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"main/handler"
	"main/middleware"
	"main/repository"
	"main/services"
	"main/usecase"
	"main/utils"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func init() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil && os.Getenv("GO_ENV") != "test" {
		log.Fatalf("Error loading .env file: %v", err)
	}

	// Check required environment variables
	requiredEnvVars := []string{
		"MONGO_URI",
		"MONGO_DB",
		"SESSIONS_COLLECTION",
		"STATUSES_COLLECTION",
		"VITALS_COLLECTION",
		"JWT_SECRET_KEY",
		"JWT_EXPIRATION_TIME",
		"PORT",
	}

	for _, envVar := range requiredEnvVars {
		if os.Getenv(envVar) == "" && os.Getenv("GO_ENV") != "test" {
			log.Fatalf("Required environment variable %s is not set", envVar)
		}
	}

	utils.InitValidator()
	// Initialize JWT
	utils.InitJWT()
	// Initialize MongoDB connection
	utils.InitMongoClient()
}

func setupRouter() *gin.Engine {
	// Create default gin router
	router := gin.Default()

	// Initialize repositories
	sessionsRepo := repository.GetSessionsRepo(utils.MongoClient)
	statusRepo := repository.GetStatusRepo(utils.MongoClient)
	vitalsRepo := repository.GetVitalsRepo(utils.MongoClient)

	// Change stream adapter and per-view controller registry
	streamer := services.NewChangeStream(utils.MongoClient)
	viewTTL := utils.GetEnvAsDuration("VIEW_TTL", 30*time.Minute)
	registry := usecase.NewControllerRegistry(viewTTL)

	ingestService := &usecase.IngestService{
		StatusRepo: statusRepo,
		VitalsRepo: vitalsRepo,
	}

	monitorHandler := handler.NewMonitorHandler(registry, sessionsRepo, statusRepo, vitalsRepo, streamer)
	riskHandler := handler.NewRiskHandler(vitalsRepo)
	ingestHandler := handler.NewIngestHandler(ingestService)

	// Global middleware
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.RequestTracingMiddleware())
	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.RequestSizeLimiter(1 << 20))
	router.Use(middleware.EnhancedRecoveryMiddleware())

	// Operational endpoints
	router.GET("/health", middleware.CacheControlMiddleware("5"), handler.HealthHandler)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Monitoring endpoints (authentication required)
	monitor := router.Group("/api/monitor")
	monitor.Use(middleware.AuthMiddleware())
	{
		sessions := monitor.Group("/sessions")
		{
			sessions.POST("/", monitorHandler.CreateSession)
			sessions.GET("/:id", monitorHandler.GetSessionState)
			sessions.POST("/:id/start", monitorHandler.StartMonitoring)
			sessions.DELETE("/:id/view", monitorHandler.CloseSessionView)

			// Device pipeline write path
			sessions.POST("/:id/status", ingestHandler.AddStatus)
			sessions.POST("/:id/vitals", ingestHandler.AddVital)

			// Risk classification of the latest reading
			sessions.GET("/:id/risk", riskHandler.GetSessionRisk)
		}

		// Standalone scoring for report/export flows
		monitor.POST("/risk/score", riskHandler.ScoreVital)
	}

	return router
}

func main() {
	// Optional Redis snapshot cache
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		cacheTTL := utils.GetEnvAsDuration("SNAPSHOT_CACHE_TTL", 5*time.Minute)
		cache, err := services.NewStateCache(redisURL, cacheTTL)
		if err != nil {
			log.Printf("Warning: snapshot cache disabled: %v", err)
		} else {
			services.GlobalStateCache = cache
			log.Println("Snapshot cache enabled")
		}
	}

	// Set up router
	router := setupRouter()

	// Get port from environment variable or use default
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	// Start server
	serverAddr := fmt.Sprintf(":%s", port)
	log.Printf("Server starting on %s", serverAddr)
	if err := router.Run(serverAddr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
