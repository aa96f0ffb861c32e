package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/frahmantamala/power-data-portal/api"
	"github.com/frahmantamala/power-data-portal/internal"
	"github.com/frahmantamala/power-data-portal/internal/auth"
	authPostgres "github.com/frahmantamala/power-data-portal/internal/auth/postgres"
	"github.com/frahmantamala/power-data-portal/internal/core/events"
	"github.com/frahmantamala/power-data-portal/internal/equipment"
	equipmentPostgres "github.com/frahmantamala/power-data-portal/internal/equipment/postgres"
	"github.com/frahmantamala/power-data-portal/internal/history"
	historyPostgres "github.com/frahmantamala/power-data-portal/internal/history/postgres"
	"github.com/frahmantamala/power-data-portal/internal/mail"
	requestPostgres "github.com/frahmantamala/power-data-portal/internal/request/postgres"
	"github.com/frahmantamala/power-data-portal/internal/transport"
	"github.com/frahmantamala/power-data-portal/internal/transport/rest"
	"github.com/frahmantamala/power-data-portal/internal/user"
	userPostgres "github.com/frahmantamala/power-data-portal/internal/user/postgres"
	"github.com/frahmantamala/power-data-portal/internal/workflow"
	"github.com/frahmantamala/power-data-portal/pkg/logger"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config *internal.Config
	DB     *sqlx.DB
	Redis  *redis.Client
	Bus    *events.EventBus
	Router *chi.Mux
	Logger *slog.Logger
	// closers run after the server stops, in order.
	closers []func() error
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("Starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("Server shutdown error", "error", err)
		}
		if err := deps.Bus.Wait(ctx); err != nil {
			deps.Logger.Warn("event handlers did not finish", "error", err)
		}
		deps.close()
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			deps.Logger.Error("Server failed to start", "error", err)
			deps.close()
			os.Exit(1)
		}
	}

	deps.Logger.Info("Server stopped")
}

func (d *Dependencies) close() {
	for _, c := range d.closers {
		if err := c(); err != nil {
			d.Logger.Error("close error", "error", err)
		}
	}
}

func initializeDependencies() (*Dependencies, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	lg := logger.LoggerWrapper()

	if _, err := api.Load(context.Background()); err != nil {
		return nil, err
	}

	sqlxDB, err := initDB(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	gormDB, err := initGorm(sqlxDB)
	if err != nil {
		_ = sqlxDB.Close()
		return nil, fmt.Errorf("failed to initialize gorm: %w", err)
	}

	deps := &Dependencies{
		Config: cfg,
		DB:     sqlxDB,
		Bus:    events.NewEventBus(lg),
		Router: chi.NewRouter(),
		Logger: lg,
	}

	deps.Redis = initRedis(cfg.Redis, lg)
	if deps.Redis != nil {
		deps.closers = append(deps.closers, deps.Redis.Close)
	}

	mailer, closeMailer, err := initMailer(cfg)
	if err != nil {
		_ = sqlxDB.Close()
		return nil, fmt.Errorf("failed to initialize mailer: %w", err)
	}
	deps.closers = append(deps.closers, closeMailer, sqlxDB.Close)

	base := transport.NewBaseHandler(lg)

	historySvc := history.NewService(historyPostgres.NewHistoryRepository(gormDB), lg)
	equipmentSvc := equipment.NewService(equipmentPostgres.NewEquipmentRepository(gormDB), historySvc, lg)

	resetBase := cfg.Mail.ResetBaseURL
	if resetBase == "" {
		resetBase = cfg.Server.BaseURL
	}
	tokens := auth.NewJWTTokenGenerator(cfg.Security.JWTSecret, cfg.Security.AccessTokenDuration)
	authSvc := auth.NewService(authPostgres.NewRepository(gormDB), tokens, mailer, auth.Options{
		BCryptCost:    cfg.Security.BCryptCost,
		ResetTokenTTL: cfg.Security.ResetTokenDuration,
		ResetBaseURL:  resetBase,
	}, lg)
	userSvc := user.NewService(userPostgres.NewRepository(sqlxDB), mailer, lg)

	workflowSvc := workflow.NewService(equipmentSvc, requestPostgres.NewRequestRepository(gormDB), deps.Bus, lg)
	workflow.LogEvents(deps.Bus, lg)
	if cfg.Mail.NotifyAdmins {
		workflow.NewNotifier(mailer, userSvc, lg).Register(deps.Bus)
	}

	handlers := rest.Handlers{
		Health:    rest.NewHealthHandler(base, sqlxDB.DB, deps.Redis, historySvc),
		Auth:      auth.NewHandler(base, authSvc),
		Users:     user.NewHandler(base, userSvc),
		Equipment: equipment.NewHandler(base, equipmentSvc),
		Workflow:  workflow.NewHandler(base, workflowSvc),
		History:   history.NewHandler(base, historySvc),
	}

	opts := rest.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RateLimit:      cfg.RateLimit,
		Logger:         lg,
	}
	// A nil *redis.Client must not become a non-nil interface.
	if deps.Redis != nil {
		opts.Redis = deps.Redis
	}
	rest.RegisterAllRoutes(deps.Router, auth.NewGuard(base, authSvc), base, handlers, opts)

	return deps, nil
}

// initDB initializes the database connection
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	if cfg.ConnMaxLifetime > 0 {
		dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	if cfg.ConnMaxIdleTime > 0 {
		dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return dbConn, nil
}

// initGorm opens gorm on the pool already held by sqlx.
func initGorm(db *sqlx.DB) (*gorm.DB, error) {
	return gorm.Open(postgres.New(postgres.Config{Conn: db.DB}), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Warn),
	})
}

// initRedis returns nil when no address is configured or the server does
// not answer; rate limiting then passes everything through.
func initRedis(cfg internal.RedisConfig, lg *slog.Logger) *redis.Client {
	if cfg.Addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		lg.Warn("redis unavailable, rate limiting disabled", "addr", cfg.Addr, "error", err)
		_ = client.Close()
		return nil
	}
	return client
}

func initMailer(cfg *internal.Config) (mail.Mailer, func() error, error) {
	noop := func() error { return nil }
	switch cfg.Mail.Driver {
	case "smtp":
		m, err := mail.NewSMTPMailer(smtpConfig(cfg.Mail))
		if err != nil {
			return nil, nil, err
		}
		return m, noop, nil
	case "queue":
		m, err := mail.NewQueueMailer(cfg.Queue.URL, cfg.Queue.MailQueue)
		if err != nil {
			return nil, nil, err
		}
		return m, m.Close, nil
	default:
		return mail.NewLogMailer(logger.LoggerWrapper()), noop, nil
	}
}

func smtpConfig(cfg internal.MailConfig) mail.SMTPConfig {
	return mail.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		TLS:      cfg.SMTPTLS,
		From:     cfg.From,
	}
}
