package route

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	config "github.com/scissor-io/scissor/config"
	"github.com/scissor-io/scissor/internal/handler"
	"github.com/scissor-io/scissor/internal/mail"
	"github.com/scissor-io/scissor/internal/middleware"
	"github.com/scissor-io/scissor/internal/repository"
	"github.com/scissor-io/scissor/internal/service"
	"github.com/scissor-io/scissor/internal/token"
)

// SetupRouter wires repositories, services and handlers around the shared
// clients and returns the configured engine.
func SetupRouter(cfg *config.Config, redisClient *redis.Client, pgClient *pgxpool.Pool, dispatcher *mail.Dispatcher) (*gin.Engine, error) {
	users := repository.NewUserRepository(pgClient)
	urls := repository.NewPostgresURLRepository(pgClient, redisClient)
	tokens := repository.NewTokenRepository(pgClient)

	manager := token.NewManager(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)

	authService := service.NewAuthService(users, tokens, manager, dispatcher, cfg)
	userService := service.NewUserService(users, urls, tokens, manager, dispatcher, cfg)
	urlService := service.NewURLService(urls, users)

	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)
	urlHandler := handler.NewURLHandler(urlService)

	resetGate, err := middleware.NewRateLimiter(cfg.ResetRateLimit)
	if err != nil {
		return nil, err
	}

	requireAuth := middleware.RequireAuth(manager, tokens)

	r := gin.Default()
	r.Use(middleware.MetricsMiddleware())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	auth := r.Group("/auth")
	{
		auth.POST("/signup", authHandler.Signup)
		auth.POST("/login", authHandler.Login)
		auth.DELETE("/logout", requireAuth, middleware.RequireFresh(), authHandler.Logout)
		auth.POST("/refresh", authHandler.Refresh)
	}

	url := r.Group("/url")
	{
		url.POST("/", requireAuth, urlHandler.Create)
		url.GET("/:key", urlHandler.Redirect)
		url.DELETE("/:key", requireAuth, urlHandler.Delete)
		url.POST("/:key/qrcode", urlHandler.QRCode)
	}

	user := r.Group("/user")
	{
		user.GET("/", requireAuth, middleware.RequireAdmin(), userHandler.List)
		user.GET("/:id", requireAuth, userHandler.Get)
		user.DELETE("/:id", requireAuth, middleware.RequireFresh(), middleware.RequireAdmin(), userHandler.Delete)
		user.PATCH("/:id", requireAuth, middleware.RequireSuperAdmin(), userHandler.GrantAdmin)
		user.PATCH("/:id/admin_remove", requireAuth, middleware.RequireSuperAdmin(), userHandler.RevokeAdmin)
		user.GET("/:id/urls", requireAuth, userHandler.URLs)
		user.PATCH("/:id/paid", requireAuth, middleware.RequireAdmin(), userHandler.SetPaid)
		user.PATCH("/:id/paid_remove", requireAuth, middleware.RequireAdmin(), userHandler.RemovePaid)
		user.PATCH("/confirm/:token", userHandler.Confirm)
		user.POST("/reset_password_request", resetGate, userHandler.ResetRequest)
		user.PUT("/reset_password/:token", userHandler.ResetPassword)
	}

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r, nil
}
