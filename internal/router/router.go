package router

import (
	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/pulseapp/pulse-server/internal/cache"
	"github.com/pulseapp/pulse-server/internal/feed"
	"github.com/pulseapp/pulse-server/internal/handlers"
	"github.com/pulseapp/pulse-server/internal/middleware"
	"github.com/pulseapp/pulse-server/internal/models"
	"github.com/pulseapp/pulse-server/internal/repositories"
	"github.com/pulseapp/pulse-server/pkg/config"
	"github.com/pulseapp/pulse-server/pkg/storage"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SetupMiddleware configures global Echo middleware
func SetupMiddleware(e *echo.Echo) {
	e.Use(eMiddleware.Recover())
	e.Use(eMiddleware.RequestID())
	e.Use(eMiddleware.CORS())
}

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(e *echo.Echo, db *gorm.DB, cfg *config.Config, logger *zap.Logger) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Group{},
		&models.Post{},
		&models.Comment{},
		&models.Follow{},
	)
	if err != nil {
		return err
	}

	// --- Initialize Repositories ---
	userRepo := repositories.NewPostgresUserRepository(db)
	groupRepo := repositories.NewPostgresGroupRepository(db)
	postRepo := repositories.NewPostgresPostRepository(db)
	commentRepo := repositories.NewPostgresCommentRepository(db)
	followRepo := repositories.NewPostgresFollowRepository(db)

	feedService := feed.NewService(postRepo, groupRepo, userRepo, followRepo, cfg.PageSize)

	var pageCache cache.PageCache
	if cfg.RedisAddr != "" {
		pageCache = cache.NewRedis(redis.NewClient(&redis.Options{Addr: cfg.RedisAddr}))
		logger.Info("using redis page cache", zap.String("addr", cfg.RedisAddr))
	} else {
		pageCache = cache.NewMemory()
		logger.Info("using in-process page cache")
	}

	images := storage.NewImageStore(cfg.UploadDir)

	// Viewer resolution applies everywhere; anonymous requests pass through.
	e.Use(middleware.ResolveViewer(cfg.JWTSecret))

	e.GET("/health", handlers.HealthCheck)

	feedHandler := handlers.NewFeedHandler(feedService, followRepo, pageCache, cfg.FeedCacheTTL, logger)
	postHandler := handlers.NewPostHandler(postRepo, groupRepo, commentRepo, images, logger)
	commentHandler := handlers.NewCommentHandler(commentRepo, postRepo, logger)
	followHandler := handlers.NewFollowHandler(followRepo, userRepo, logger)

	// Public pages
	e.GET("/", feedHandler.Index)
	e.GET("/group/:slug/", feedHandler.GroupPosts)
	e.GET("/profile/:username/", feedHandler.Profile)
	e.GET("/posts/:id/", postHandler.PostDetail)

	// Pages requiring a signed-in viewer; anonymous requests get the login
	// redirect with the original URL in next.
	protected := e.Group("", middleware.LoginRequired(cfg.LoginURL))
	protected.GET("/create/", postHandler.CreatePost)
	protected.POST("/create/", postHandler.CreatePost)
	protected.GET("/posts/:id/edit/", postHandler.EditPost)
	protected.POST("/posts/:id/edit/", postHandler.EditPost)
	protected.POST("/posts/:id/comment/", commentHandler.AddComment)
	protected.GET("/follow/", feedHandler.FollowIndex)
	protected.GET("/profile/:username/follow/", followHandler.Follow)
	protected.POST("/profile/:username/follow/", followHandler.Follow)
	protected.GET("/profile/:username/unfollow/", followHandler.Unfollow)
	protected.POST("/profile/:username/unfollow/", followHandler.Unfollow)

	logger.Info("all routes configured")
	return nil
}
