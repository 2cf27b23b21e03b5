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

	"github.com/frahmantamala/lead-management/internal"
	"github.com/frahmantamala/lead-management/internal/account"
	accountPostgres "github.com/frahmantamala/lead-management/internal/account/postgres"
	"github.com/frahmantamala/lead-management/internal/admission"
	admissionPostgres "github.com/frahmantamala/lead-management/internal/admission/postgres"
	"github.com/frahmantamala/lead-management/internal/auth"
	"github.com/frahmantamala/lead-management/internal/core/events"
	"github.com/frahmantamala/lead-management/internal/counselor"
	counselorPostgres "github.com/frahmantamala/lead-management/internal/counselor/postgres"
	"github.com/frahmantamala/lead-management/internal/department"
	departmentPostgres "github.com/frahmantamala/lead-management/internal/department/postgres"
	"github.com/frahmantamala/lead-management/internal/lead"
	leadPostgres "github.com/frahmantamala/lead-management/internal/lead/postgres"
	"github.com/frahmantamala/lead-management/internal/permission"
	permissionPostgres "github.com/frahmantamala/lead-management/internal/permission/postgres"
	"github.com/frahmantamala/lead-management/internal/session"
	sessionPostgres "github.com/frahmantamala/lead-management/internal/session/postgres"
	"github.com/frahmantamala/lead-management/internal/transport/rest"
	"github.com/frahmantamala/lead-management/internal/transport/swagger"
	"github.com/frahmantamala/lead-management/pkg/logger"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	gormPostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
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
	Gorm   *gorm.DB
	Router *chi.Mux
	Logger *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	if err := setupRoutes(deps); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set up routes: %v\n", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	slog.Info("Starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:         addr,
		Handler:      deps.Router,
		ReadTimeout:  deps.Config.Server.ReadTimeout,
		WriteTimeout: deps.Config.Server.WriteTimeout,
		IdleTimeout:  deps.Config.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		slog.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}
		if err := deps.DB.Close(); err != nil {
			slog.Error("Database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}

	slog.Info("Server stopped")
}

func setupRoutes(deps *Dependencies) error {
	if err := swagger.ValidateSpec(context.Background(), "./api/openapi.yml"); err != nil {
		return fmt.Errorf("invalid openapi spec: %w", err)
	}

	bus := events.NewEventBus(deps.Logger)
	events.RegisterAuditLogger(bus, deps.Logger)

	cache := session.NewCache()

	accountRepo := accountPostgres.NewAccountRepository(deps.Gorm)
	admissionRepo := admissionPostgres.NewAdmissionRepository(deps.Gorm)
	permissionRepo := permissionPostgres.NewPermissionRepository(deps.Gorm)
	departmentRepo := departmentPostgres.NewDepartmentRepository(deps.Gorm)
	sessionRepo := sessionPostgres.NewSessionRepository(deps.Gorm)
	counselorRepo := counselorPostgres.NewCounselorRepository(deps.Gorm)
	leadRepo := leadPostgres.NewLeadRepository(deps.Gorm)

	admissionSvc := admission.NewService(admissionRepo, accountRepo, bus, deps.Logger, deps.Config.Database.QueryTimeout)
	permissionSvc := permission.NewService(permissionRepo, cache, bus, deps.Logger)
	departmentSvc := department.NewService(departmentRepo, cache, bus, deps.Logger)

	tokenGen := auth.NewJWTTokenGenerator(
		deps.Config.Security.AccessTokenSecret,
		deps.Config.Security.RefreshTokenSecret,
		deps.Config.Security.AccessTokenDuration,
		deps.Config.Security.RefreshTokenDuration,
	)

	authSvc := auth.NewService(
		accountRepo,
		tokenGen,
		admissionSvc,
		permissionSvc,
		departmentSvc,
		sessionRepo,
		cache,
		bus,
		deps.Logger,
	)

	guard := auth.NewAccessGuard(deps.Logger)

	handlers := rest.Handlers{
		Auth:       auth.NewHandler(authSvc),
		Account:    account.NewHandler(accountRepo, cache, bus),
		Admission:  admission.NewHandler(admissionSvc),
		Permission: permission.NewHandler(permissionSvc),
		Department: department.NewHandler(departmentSvc, departmentRepo),
		Counselor:  counselor.NewHandler(counselorRepo),
		Lead:       lead.NewHandler(leadRepo),
	}

	rest.RegisterAllRoutes(deps.Router, deps.DB.DB, handlers, guard, deps.Config.Server.AllowedOrigins, deps.Logger)
	return nil
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if config.Observability.Logging.Format == "json" {
		logger.Init("production")
	} else {
		logger.Init("development")
	}

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gormDB, err := gorm.Open(gormPostgres.New(gormPostgres.Config{Conn: db.DB}), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to open gorm over pgx: %w", err)
	}

	return &Dependencies{
		Config: config,
		Logger: logger.L(),
		DB:     db,
		Gorm:   gormDB,
		Router: chi.NewRouter(),
	}, nil
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
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}
