package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // database/sql driver for migrations
	"go.uber.org/zap"

	"github.com/KanishKumar11/organizational-climate-platform-sub013/pkg/auth"
	"github.com/KanishKumar11/organizational-climate-platform-sub013/pkg/broadcast"
	"github.com/KanishKumar11/organizational-climate-platform-sub013/pkg/config"
	"github.com/KanishKumar11/organizational-climate-platform-sub013/pkg/database"
	"github.com/KanishKumar11/organizational-climate-platform-sub013/pkg/handlers"
	"github.com/KanishKumar11/organizational-climate-platform-sub013/pkg/logging"
	"github.com/KanishKumar11/organizational-climate-platform-sub013/pkg/middleware"
	"github.com/KanishKumar11/organizational-climate-platform-sub013/pkg/repositories"
	"github.com/KanishKumar11/organizational-climate-platform-sub013/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

const migrationsPath = "migrations"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("environment", cfg.Env),
		zap.Bool("auth_verification", cfg.Auth.EnableVerification),
		zap.String("database", cfg.Database.Host),
		zap.String("redis", cfg.Redis.Host),
	)

	ctx := context.Background()

	// Migrations run over database/sql; the app itself uses pgx pools.
	migrationDB, err := sql.Open("pgx", cfg.Database.URL())
	if err != nil {
		logger.Fatal("Failed to open migration connection", zap.Error(err))
	}
	if err := database.RunMigrations(migrationDB, migrationsPath, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}
	_ = migrationDB.Close()

	db, err := database.NewConnection(ctx, &database.Config{
		URL:            cfg.Database.URL(),
		MaxConnections: cfg.Database.MaxConnections,
	})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Realtime broadcasting is optional: without Redis the service still
	// runs, clients just fall back to polling.
	var broadcaster broadcast.Broadcaster = broadcast.Noop{}
	redisClient, err := database.NewRedisClient(&cfg.Redis)
	if err != nil {
		logger.Warn("Redis unavailable, realtime events disabled", zap.Error(err))
	} else if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
		broadcaster = broadcast.NewRedisBroadcaster(redisClient)
	}

	validator, err := auth.NewJWKSClient(&auth.JWKSConfig{
		EnableVerification: cfg.Auth.EnableVerification,
		JWKSEndpoints:      cfg.Auth.JWKSEndpoints,
	})
	if err != nil {
		logger.Fatal("Failed to initialize JWKS client", zap.Error(err))
	}
	authMiddleware := auth.NewMiddleware(validator, logger)
	sessionStore := auth.NewSessionStore(cfg.SessionKey)

	draftRepo := repositories.NewDraftRepository(db)
	surveyRepo := repositories.NewSurveyRepository(db)
	microclimateRepo := repositories.NewMicroclimateRepository(db)
	snapshotRepo := repositories.NewSnapshotRepository(db)
	auditRepo := repositories.NewAuditRepository(db)

	auditService := services.NewAuditService(auditRepo, logger)
	notifier := services.NewNotifier(auditService, broadcaster, logger)

	draftService := services.NewDraftService(draftRepo, notifier,
		time.Duration(cfg.Draft.TTLHours)*time.Hour, logger)
	surveyService := services.NewSurveyService(surveyRepo, snapshotRepo, notifier,
		time.Duration(cfg.Lifecycle.ActivationGraceMinutes)*time.Minute, logger)
	microclimateService := services.NewMicroclimateService(microclimateRepo, snapshotRepo, notifier,
		time.Duration(cfg.Lifecycle.ActivationGraceMinutes)*time.Minute, logger)
	historyService := services.NewHistoryService(snapshotRepo, surveyRepo, microclimateRepo, notifier, logger)

	mux := http.NewServeMux()

	handlers.NewHealthHandler(cfg, logger).RegisterRoutes(mux)
	handlers.NewDraftHandler(draftService, logger).RegisterRoutes(mux, authMiddleware, sessionStore)
	handlers.NewSurveyHandler(surveyService, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewMicroclimateHandler(microclimateService, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewHistoryHandler(historyService, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewAuditHandler(auditService, logger).RegisterRoutes(mux, authMiddleware)

	handler := middleware.RequestLogger(logger)(mux)

	addr := cfg.BindAddr + ":" + cfg.Port
	logger.Info("Starting climate-governance", zap.String("addr", addr), zap.String("version", cfg.Version))
	if err := http.ListenAndServe(addr, handler); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}
