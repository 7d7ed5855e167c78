package main

import (
	"context"
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/photoshare/photoshare-api/internal/handler"
	"github.com/photoshare/photoshare-api/internal/middleware"
	"github.com/photoshare/photoshare-api/internal/models"
	"github.com/photoshare/photoshare-api/internal/repository"
	"github.com/photoshare/photoshare-api/internal/service"
	"github.com/photoshare/photoshare-api/pkg/cache"
	"github.com/photoshare/photoshare-api/pkg/config"
	"github.com/photoshare/photoshare-api/pkg/database"
	"github.com/photoshare/photoshare-api/pkg/logger"
	"github.com/photoshare/photoshare-api/pkg/mail"
	corsmiddleware "github.com/photoshare/photoshare-api/pkg/middleware/cors"
	reqidmiddleware "github.com/photoshare/photoshare-api/pkg/middleware/requestid"
	"github.com/photoshare/photoshare-api/pkg/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, blacklist checks go to the database", "error", err)
		redisClient = nil
	}

	store, err := storage.NewLocalStorage(cfg.Uploads.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init upload storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Uploads.SignedURLSecret, cfg.Uploads.SignedURLTTL)

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	blacklistRepo := repository.NewBlacklistRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	photoRepo := repository.NewPhotoRepository(db)
	commentRepo := repository.NewCommentRepository(db)

	metricsSvc := service.NewMetricsService()
	tokenSvc := service.NewTokenService(cfg.Auth)
	blacklistSvc := service.NewBlacklistService(blacklistRepo, redisClient, logr)
	blacklistSvc.SetMetrics(metricsSvc)
	mailer := mail.NewMailer(cfg.Mail)
	authSvc := service.NewAuthService(userRepo, tokenSvc, blacklistSvc, mailer, validate, logr)
	profileSvc := service.NewProfileService(profileRepo, userRepo, validate, logr)
	photoSvc := service.NewPhotoService(photoRepo, store, signer, cfg.Uploads, validate, logr)
	commentSvc := service.NewCommentService(commentRepo, photoRepo, validate, logr)
	userSvc := service.NewUserService(userRepo, validate, logr)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	blacklistSvc.StartPruner(ctx, cfg.Auth.BlacklistPrune)

	authHandler := handler.NewAuthHandler(authSvc)
	profileHandler := handler.NewProfileHandler(profileSvc)
	photoHandler := handler.NewPhotoHandler(photoSvc, metricsSvc)
	commentHandler := handler.NewCommentHandler(commentSvc)
	userHandler := handler.NewUserHandler(userSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.GET("/logout", authHandler.Logout)
		auth.GET("/confirm", authHandler.Confirm)
	}

	requireAuth := middleware.JWT(authSvc)

	profiles := api.Group("/profiles")
	{
		profiles.GET("", profileHandler.List)
		profiles.GET("/me", requireAuth, profileHandler.GetOwn)
		profiles.PUT("/me", requireAuth, profileHandler.Update)
		profiles.GET("/:username", profileHandler.GetByUsername)
	}

	photos := api.Group("/photos")
	{
		photos.GET("", photoHandler.List)
		photos.GET("/download", photoHandler.Download)
		photos.GET("/:id", photoHandler.Get)
		photos.GET("/:id/comments", commentHandler.ListByPhoto)
		photos.POST("", requireAuth, photoHandler.Upload)
		photos.PUT("/:id", requireAuth, photoHandler.Update)
		photos.DELETE("/:id", requireAuth, photoHandler.Delete)
		photos.POST("/:id/comments", requireAuth, commentHandler.Create)
	}

	api.GET("/tags", photoHandler.Tags)

	comments := api.Group("/comments")
	{
		comments.GET("/:id", commentHandler.Get)
		comments.PUT("/:id", requireAuth, commentHandler.Update)
		comments.DELETE("/:id", requireAuth, commentHandler.Delete)
	}

	users := api.Group("/users", requireAuth, middleware.RequireRoles(models.RoleAdmin))
	{
		users.GET("", userHandler.List)
		users.PATCH("/:id/role", userHandler.UpdateRole)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
