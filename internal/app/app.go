package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	_ "tasktracker/docs"
	"tasktracker/internal/config"
	"tasktracker/internal/events"
	"tasktracker/internal/handlers"
	"tasktracker/internal/middleware"
	"tasktracker/internal/migrations"
	"tasktracker/internal/pdf"
	"tasktracker/internal/ratelimit"
	"tasktracker/internal/repositories"
	"tasktracker/internal/routes"
	"tasktracker/internal/services"
)

type App struct {
	cfg       *config.Config
	db        *sql.DB
	redis     *redis.Client
	publisher events.Publisher
	server    *http.Server
}

// New opens every external dependency and wires the HTTP stack.
// Optional integrations (SMTP, Telegram, RabbitMQ, Redis) stay off when not configured.
func New(cfg *config.Config) (*App, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	// === DB ===
	db, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	if cfg.Database.RunMigrations {
		if err := migrations.Up(db); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	a := &App{cfg: cfg, db: db, publisher: events.NopPublisher{}}

	// === Repos ===
	userRepo := repositories.NewUserRepository(db)
	taskRepo := repositories.NewTaskRepository(db)
	resetRepo := repositories.NewPasswordResetRepository(db)

	// === Notifications ===
	var emailService services.EmailService
	if cfg.Email.Enabled() {
		emailService = services.NewEmailService(
			cfg.Email.SMTPHost,
			cfg.Email.SMTPPort,
			cfg.Email.SMTPUser,
			cfg.Email.SMTPPassword,
			cfg.Email.FromEmail,
		)
	} else {
		log.Printf("[app] email disabled: smtp_host is empty")
	}
	tg, err := services.NewTelegramService(cfg.Telegram.Token)
	if err != nil {
		// бот не критичен для API
		log.Printf("[app] telegram disabled: %v", err)
		tg = nil
	}
	if cfg.RabbitMQ.URL != "" {
		pub, err := events.NewRabbitMQPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Queue)
		if err != nil {
			log.Printf("[app] audit events disabled: %v", err)
		} else {
			a.publisher = pub
		}
	}

	// === Services ===
	authService := services.NewAuthService(userRepo, emailService, cfg.JWT)
	resetService := services.NewPasswordResetService(userRepo, resetRepo, emailService, authService)
	userService := services.NewUserService(userRepo, cfg.Query.MaxLimit)
	taskService := services.NewTaskService(
		taskRepo,
		userRepo,
		services.NewTaskFilterBuilder(cfg.Query.DefaultLimit, cfg.Query.MaxLimit, loc),
		services.NewAssignmentNotifier(emailService, tg),
		a.publisher,
		loc,
	)

	// === Handlers ===
	authHandler := handlers.NewAuthHandler(authService, resetService)
	userHandler := handlers.NewUserHandler(userService)
	taskHandler := handlers.NewTaskHandler(taskService, pdf.NewDocumentGenerator(cfg.Files.FontPath))
	healthHandler := handlers.NewHealthHandler(db)

	var rateLimit gin.HandlerFunc
	if rl := cfg.RateLimit; rl.RedisAddr != "" {
		a.redis = redis.NewClient(&redis.Options{Addr: rl.RedisAddr, Password: rl.RedisPassword})
		limiter := ratelimit.NewSlidingWindowLimiter(a.redis, ratelimit.Config{
			RequestsPerWindow: rl.RequestsPerWindow,
			Window:            rl.Window,
		}, "ratelimit:api:")
		rateLimit = middleware.RateLimit(limiter)
	}

	// === Gin ===
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	routes.SetupRoutes(
		router,
		middleware.AuthMiddleware(authService, userRepo),
		rateLimit,
		authHandler,
		userHandler,
		taskHandler,
		healthHandler,
	)

	a.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return a, nil
}

// Start serves HTTP in the background.
func (a *App) Start() {
	go func() {
		log.Printf("[app] listening on %s", a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("[app] server error: %v", err)
		}
	}()
}

func (a *App) Stop(ctx context.Context) error {
	var errs []error
	if err := a.server.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}
	if err := a.publisher.Close(); err != nil {
		errs = append(errs, fmt.Errorf("publisher close: %w", err))
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis close: %w", err))
		}
	}
	if err := a.db.Close(); err != nil {
		errs = append(errs, fmt.Errorf("db close: %w", err))
	}
	return errors.Join(errs...)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
