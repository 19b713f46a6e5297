package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/Bdkelp/getmydpc-enrollment-sub004/internal/api"
	"github.com/Bdkelp/getmydpc-enrollment-sub004/internal/commission"
	"github.com/Bdkelp/getmydpc-enrollment-sub004/internal/db"
	"github.com/Bdkelp/getmydpc-enrollment-sub004/internal/logging"
)

func main() {
	// Load environment variables from .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Ensure all log output goes to stdout so the platform captures it
	log.SetOutput(os.Stdout)

	log.Printf("Enrollment Service starting (GIT_SHA=%s BUILD_TIME=%s)", os.Getenv("GIT_SHA"), os.Getenv("BUILD_TIME"))

	// Initialize database connection (non-fatal to allow liveness health checks)
	database, err := db.NewDatabase()
	if err != nil {
		log.Printf("[WARN] Database initialization failed at startup: %v", err)
	}
	if database != nil {
		defer database.Close()
	}

	// Initialize handlers over the store and the current rate schedule
	calc := commission.NewCalculator(commission.DefaultRateTable())
	handler := api.NewHandler(database, calc)

	// Set up Gin router
	router := setupRouter(handler)

	// Get port from environment or use default
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	go func() {
		log.Printf("Starting enrollment service on port %s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down enrollment service...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Forced shutdown: %v", err)
	}
}

func setupRouter(handler *api.Handler) *gin.Engine {
	// Set Gin mode based on environment
	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Add middleware
	router.Use(logging.RequestID())
	router.Use(logging.JSONLogger())
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	// Health and readiness endpoints
	router.GET("/live", func(c *gin.Context) { c.Status(200) })
	router.GET("/ready", handler.Health)
	// Keep /health as liveness-only for platform health checks
	router.GET("/health", func(c *gin.Context) { c.Status(200) })

	// API routes with JWT protection
	apiGroup := router.Group("/api")
	apiGroup.Use(api.AuthMiddleware())
	{
		// Enrollment and member endpoints
		apiGroup.POST("/enrollments", handler.CreateEnrollment)
		apiGroup.GET("/members", handler.GetMembers)
		apiGroup.GET("/members/:member_id", handler.GetMember)
		apiGroup.PATCH("/members/:member_id", handler.UpdateMember)
		apiGroup.DELETE("/members/:member_id", handler.DeactivateMember)

		// Per-member commission flow (idempotent retry surface)
		apiGroup.POST("/members/:member_id/commission", handler.UpsertMemberCommission)
		apiGroup.GET("/members/:member_id/commission", handler.GetMemberCommission)

		// Commission queries
		apiGroup.GET("/commissions/calculate", handler.CalculateCommission)
		apiGroup.GET("/commissions/summary", handler.GetCommissionSummary)
		apiGroup.GET("/commissions", handler.GetCommissions)

		// Plans and leads
		apiGroup.GET("/plans", handler.GetPlans)
		apiGroup.POST("/leads", handler.CreateLead)
		apiGroup.GET("/leads", handler.GetLeads)
		apiGroup.PATCH("/leads/:lead_id", handler.UpdateLead)
	}

	// Admin API routes with authentication and admin middleware
	adminGroup := router.Group("/api/admin")
	adminGroup.Use(api.AuthMiddleware())
	adminGroup.Use(api.AdminMiddleware())
	{
		// Staff account management
		adminGroup.POST("/users", handler.CreateUser)
		adminGroup.GET("/users", handler.GetUsers)
		adminGroup.GET("/users/:user_id", handler.GetUserByID)
		adminGroup.POST("/users/:user_id/agent-number", handler.AssignAgentNumber)
		adminGroup.PUT("/users/:user_id/status", handler.UpdateUserStatus)

		// Plan management
		adminGroup.POST("/plans", handler.CreatePlan)
		adminGroup.PUT("/plans/:plan_id", handler.UpdatePlan)

		// Commission oversight
		adminGroup.GET("/commissions/missing", handler.GetMissingCommissions)
		adminGroup.PUT("/commissions/:commission_id/status", handler.UpdateCommissionStatus)

		// Payment records
		adminGroup.GET("/payments", handler.GetPayments)
	}

	// Payment processor callback authenticates with a shared secret, not a JWT
	callbackGroup := router.Group("/api/payments")
	callbackGroup.Use(api.WebhookAuthMiddleware())
	{
		callbackGroup.POST("/callback", handler.PaymentCallback)
	}

	// Root endpoint for basic info
	router.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"service": "enrollment-service",
			"version": "1.0.0",
			"status":  "running",
		})
	})

	return router
}

// corsMiddleware adds CORS headers to allow cross-origin requests
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, X-Request-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
