package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/yourusername/accounts-api/internal/config"
	"github.com/yourusername/accounts-api/internal/handler"
	"github.com/yourusername/accounts-api/internal/middleware"
	pgRepo "github.com/yourusername/accounts-api/internal/repository/postgres"
	redisRepo "github.com/yourusername/accounts-api/internal/repository/redis"
	"github.com/yourusername/accounts-api/internal/service"
	"github.com/yourusername/accounts-api/internal/service/provider"
	"github.com/yourusername/accounts-api/pkg/auth"
	"github.com/yourusername/accounts-api/pkg/auth/manager"
	"github.com/yourusername/accounts-api/pkg/database"
)

func main() {
	// Config path can be overridden for local runs.
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Context that ends background goroutines on shutdown.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.NewPostgresDB(cfg.Database.PostgresConnectionString())
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}

	if err := database.MigrateDB(db); err != nil {
		log.Fatalf("Failed to apply database migrations: %v", err)
	}

	redisClient, err := database.NewUniversalRedisClient(cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Printf("Error closing Redis client: %v", err)
		}
	}()

	// Repositories.
	userRepo := pgRepo.NewUserRepo(db)
	refreshTokenRepo, err := pgRepo.NewRefreshTokenRepo(db)
	if err != nil {
		log.Fatalf("Failed to create refresh token repository: %v", err)
	}
	socialAccountRepo := pgRepo.NewSocialAccountRepo(db)
	emailVerificationRepo := pgRepo.NewEmailVerificationRepo(db)
	resetTokenRepo, err := redisRepo.NewResetTokenRepo(redisClient)
	if err != nil {
		log.Fatalf("Failed to create reset token repository: %v", err)
	}

	// Token infrastructure.
	jwtService, err := auth.NewJWTService(
		cfg.JWT.Secret,
		time.Duration(cfg.JWT.AccessExpirationMin)*time.Minute,
		time.Duration(cfg.JWT.RefreshLifetimeHrs)*time.Hour,
	)
	if err != nil {
		log.Fatalf("Failed to create JWT service: %v", err)
	}
	tokenManager, err := manager.NewTokenManager(jwtService, refreshTokenRepo, userRepo)
	if err != nil {
		log.Fatalf("Failed to create token manager: %v", err)
	}

	// Outbound email.
	var emailService service.EmailService
	if cfg.Email.Enabled {
		resendService, err := service.NewResendEmailService(cfg.Email.ResendAPIKey, cfg.Email.From, cfg.Email.ResetURL)
		if err != nil {
			log.Fatalf("Failed to create email service: %v", err)
		}
		emailService = resendService
	} else {
		log.Println("Outbound email disabled, messages will be logged only")
		emailService = &service.NoopEmailService{}
	}

	// Services.
	emailVerificationService, err := service.NewEmailVerificationService(
		userRepo,
		emailVerificationRepo,
		emailService,
		15*time.Minute,
		time.Minute,
		5,
		cfg.JWT.Secret,
	)
	if err != nil {
		log.Fatalf("Failed to create email verification service: %v", err)
	}
	authService, err := service.NewAuthService(userRepo, tokenManager, emailVerificationService)
	if err != nil {
		log.Fatalf("Failed to create auth service: %v", err)
	}
	passwordResetService, err := service.NewPasswordResetService(userRepo, resetTokenRepo, emailService, time.Hour)
	if err != nil {
		log.Fatalf("Failed to create password reset service: %v", err)
	}
	providerRegistry := provider.NewRegistry(
		provider.NewGoogle(),
		provider.NewFacebook(),
		provider.NewGitHub(),
	)
	socialService, err := service.NewSocialService(userRepo, socialAccountRepo, tokenManager, providerRegistry)
	if err != nil {
		log.Fatalf("Failed to create social service: %v", err)
	}
	userService, err := service.NewUserService(userRepo, socialAccountRepo, refreshTokenRepo)
	if err != nil {
		log.Fatalf("Failed to create user service: %v", err)
	}

	// Periodically flag expired refresh tokens. Records stay in the table
	// for auditability.
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				flagged, err := refreshTokenRepo.SweepExpired()
				if err != nil {
					log.Printf("Error sweeping expired refresh tokens: %v", err)
				} else if flagged > 0 {
					log.Printf("Flagged %d expired refresh tokens as revoked", flagged)
				}
			case <-ctx.Done():
				log.Println("Stopping refresh token sweeper")
				return
			}
		}
	}()

	// Handlers and middleware.
	authHandler := handler.NewAuthHandler(authService, tokenManager, passwordResetService, emailVerificationService)
	userHandler := handler.NewUserHandler(userService)
	socialHandler := handler.NewSocialHandler(socialService)
	adminHandler := handler.NewAdminHandler(userService)
	authMiddleware := middleware.NewAuthMiddleware(tokenManager)

	router := gin.Default()

	if gin.Mode() == gin.ReleaseMode {
		// Production: do not trust proxy headers unless a load balancer
		// address is configured here.
		if err := router.SetTrustedProxies(nil); err != nil {
			log.Printf("Warning: failed to set trusted proxies: %v", err)
		}
	} else {
		if err := router.SetTrustedProxies([]string{"127.0.0.1", "::1"}); err != nil {
			log.Printf("Warning: failed to set trusted proxies: %v", err)
		}
	}

	allowOrigins := cfg.CORS.AllowOrigins
	if len(allowOrigins) == 0 {
		allowOrigins = []string{"http://localhost:5173", "http://localhost:3000"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	api := router.Group("/api")
	{
		authGroup := api.Group("/auth")
		{
			// Register resolves the caller when a token is present so
			// admin-created accounts record created_by.
			authGroup.POST("/register", authMiddleware.OptionalAuth(), authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/logout", authHandler.Logout)
			authGroup.POST("/token/refresh", authHandler.RefreshToken)
			authGroup.POST("/token/verify", authHandler.VerifyToken)
			authGroup.POST("/password/reset", authHandler.RequestPasswordReset)
			authGroup.POST("/password/reset/confirm", authHandler.ConfirmPasswordReset)

			social := authGroup.Group("/social")
			{
				social.POST("/:provider", middleware.ValidateProviderParam(providerRegistry.Names()), socialHandler.Login)
				social.GET("/accounts", authMiddleware.RequireAuth(), socialHandler.ListAccounts)
				social.DELETE("/disconnect/:provider",
					authMiddleware.RequireAuth(),
					middleware.ValidateProviderParam(providerRegistry.Names()),
					socialHandler.Disconnect,
				)
			}

			authedAuth := authGroup.Group("/")
			authedAuth.Use(authMiddleware.RequireAuth())
			{
				authedAuth.POST("/password/change", authHandler.ChangePassword)
				authedAuth.POST("/verify-email", authHandler.VerifyEmail)
				authedAuth.POST("/resend-email", authHandler.ResendEmail)
			}
		}

		users := api.Group("/users")
		users.Use(authMiddleware.RequireAuth())
		{
			users.GET("/profile", userHandler.GetProfile)
			users.PATCH("/profile", userHandler.UpdateProfile)
			users.DELETE("/profile", userHandler.DeleteProfile)
		}

		admin := api.Group("/admin")
		admin.Use(authMiddleware.RequireAuth(), authMiddleware.AdminOnly())
		{
			admin.GET("/users", adminHandler.ListUsers)
			admin.GET("/users/export", adminHandler.ExportUsers)
		}
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
		os.Exit(1)
	}

	log.Println("Server exited properly")
}
