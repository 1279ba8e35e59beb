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

	"careersync/internal/auth"
	"careersync/internal/config"
	"careersync/internal/database"
	"careersync/internal/handlers"
	"careersync/internal/jobs"
	"careersync/internal/llm"
	"careersync/internal/services"
	"careersync/internal/storage"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize JWT
	auth.InitJWT(cfg.App.JWTSecret)

	// Connect to database
	if err := database.Connect(cfg.GetDSN()); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.AutoMigrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	db := database.GetDB()

	// AI client
	llmClient, err := llm.NewOpenRouterClient(cfg.AI.APIKey, cfg.AI.BaseURL, cfg.AI.Model)
	if err != nil {
		log.Fatalf("Failed to create AI client: %v", err)
	}

	// Object storage
	store, err := storage.NewClient(context.Background(), cfg.Storage)
	if err != nil {
		log.Fatalf("Failed to create storage client: %v", err)
	}

	// Initialize services
	referralService := services.NewReferralService(db)
	authService := services.NewAuthService(db, referralService)
	rateLimitService := services.NewRateLimitService(db, cfg.App.ScanCooldown)
	analysisService := services.NewAnalysisService(db, cfg.App.CacheWindow)
	sessionService := services.NewSessionService(db, referralService)
	billingService, err := services.NewBillingService(db, referralService, cfg.App.ProMonthlyPriceUSD)
	if err != nil {
		log.Fatalf("Failed to create billing service: %v", err)
	}
	mentorService := services.NewMentorService(llmClient)
	interviewService := services.NewInterviewService(db)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, referralService)
	analysisHandler := handlers.NewAnalysisHandler(analysisService, referralService, rateLimitService, store)
	referralHandler := handlers.NewReferralHandler(referralService)
	sessionHandler := handlers.NewSessionHandler(sessionService)
	billingHandler := handlers.NewBillingHandler(billingService)
	mentorHandler := handlers.NewMentorHandler(mentorService, billingService)
	uploadHandler := handlers.NewUploadHandler(store)
	interviewHandler := handlers.NewInterviewHandler(interviewService)

	// Start the analysis worker
	worker := jobs.NewAnalysisWorker(analysisService, referralService, llmClient, 5*time.Second, cfg.AI.MaxRetries)
	go worker.Start()

	// Start maintenance scheduler
	sched, err := jobs.StartMaintenance(billingService, sessionService, rateLimitService)
	if err != nil {
		log.Fatalf("Failed to start maintenance scheduler: %v", err)
	}

	// Set up Gin router
	router := gin.Default()

	// CORS middleware
	allowedOrigins := []string{
		"http://localhost:3000",
		"http://localhost:5173",
		"http://127.0.0.1:3000",
		"http://127.0.0.1:5173",
	}
	if frontendURL := os.Getenv("FRONTEND_URL"); frontendURL != "" {
		allowedOrigins = append(allowedOrigins, frontendURL)
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// Authentication routes (public)
	authRoutes := router.Group("/auth")
	{
		authRoutes.POST("/register", authHandler.Register)
		authRoutes.POST("/login", authHandler.Login)
	}

	// Authenticated /auth/me routes
	authProtected := router.Group("/auth")
	authProtected.Use(auth.AuthMiddleware())
	{
		authProtected.GET("/me", authHandler.GetMe)
		authProtected.PATCH("/me", authHandler.UpdateProfile)
	}

	// Public referral code validation for the signup form
	router.GET("/api/referrals/validate", referralHandler.ValidateCode)

	// Billing webhook (authenticated by the provider, not by user JWT)
	router.POST("/api/billing/webhook", billingHandler.Webhook)

	// API routes (protected)
	api := router.Group("/api")
	api.Use(auth.AuthMiddleware())
	{
		// Upload endpoints
		api.POST("/uploads", uploadHandler.GenerateUploadURL)

		// Analysis endpoints
		api.POST("/analyses", analysisHandler.CreateAnalysis)
		api.GET("/analyses", analysisHandler.ListAnalyses)
		api.GET("/analyses/:id", analysisHandler.GetAnalysis)
		api.GET("/analyses/:id/download", analysisHandler.GetDownloadURL)

		// Referral endpoints
		api.GET("/referrals", referralHandler.GetReferrals)
		api.GET("/referrals/code", referralHandler.GetReferralCode)
		api.POST("/referrals/apply", referralHandler.ApplyCode)
		api.GET("/referrals/stats", referralHandler.GetReferralStats)
		api.GET("/referrals/discount", referralHandler.GetActiveDiscount)

		// Session endpoints
		api.POST("/sessions/ping", sessionHandler.Ping)
		api.GET("/sessions/total", sessionHandler.GetTotalTime)

		// Billing endpoints
		api.GET("/billing/pro-status", billingHandler.GetProStatus)
		api.GET("/billing/quote", billingHandler.GetQuote)

		// AI mentor endpoints
		api.POST("/mentor/chat", mentorHandler.Chat)

		// Interview tracker endpoints
		api.POST("/interviews", interviewHandler.Create)
		api.GET("/interviews", interviewHandler.List)
		api.PATCH("/interviews/:id", interviewHandler.Update)
		api.DELETE("/interviews/:id", interviewHandler.Delete)
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server starting on port %s", cfg.Server.Port)
		log.Printf("Health check: http://localhost:%s/health", cfg.Server.Port)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	worker.Stop()
	if err := sched.Shutdown(); err != nil {
		log.Printf("Scheduler shutdown error: %v", err)
	}

	// Graceful shutdown with 5 second timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}
