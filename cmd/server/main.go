package main

import (
	"context"
	"log"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
	gomail "gopkg.in/gomail.v2"

	apiHandler "github.com/tasknest/backend/api/handler"
	"github.com/tasknest/backend/internal/config"
	googleInfra "github.com/tasknest/backend/internal/infrastructure/google"
	"github.com/tasknest/backend/internal/infrastructure/journal"
	"github.com/tasknest/backend/internal/infrastructure/monitor"
	pgInfra "github.com/tasknest/backend/internal/infrastructure/postgres"
	redisInfra "github.com/tasknest/backend/internal/infrastructure/redis"
	"github.com/tasknest/backend/internal/middleware"
	"github.com/tasknest/backend/internal/notify"
	"github.com/tasknest/backend/internal/router"
	"github.com/tasknest/backend/internal/services/lifecycle"
	"github.com/tasknest/backend/internal/token"
	"github.com/tasknest/backend/pkg/httpcontext"
	"github.com/tasknest/backend/pkg/logger"
	"github.com/tasknest/backend/repository/postgres"
	redisRepo "github.com/tasknest/backend/repository/redis"
	authUC "github.com/tasknest/backend/usecase/auth"
	profileUC "github.com/tasknest/backend/usecase/profile"
	taskUC "github.com/tasknest/backend/usecase/task"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	// Fail closed: no signing secret, no service.
	tokens, err := token.NewManager(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.Lifetime)
	if err != nil {
		zapLogger.Fatal("token manager init failed", zap.Error(err))
	}

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)

	if err := pgInfra.RunMigrations(cfg, zapLogger); err != nil {
		zapLogger.Fatal("migrations failed", zap.Error(err))
	}

	pool, err := pgInfra.NewPool(context.Background(), cfg.Database, zapLogger)
	if err != nil {
		zapLogger.Fatal("postgres connection failed", zap.Error(err))
	}
	manager.OnShutdown("postgres", func(ctx context.Context) error {
		pool.Close()
		return nil
	})

	redisClient, err := redisInfra.NewClient(cfg.Redis)
	if err != nil {
		zapLogger.Fatal("redis connection failed", zap.Error(err))
	}
	manager.OnShutdown("redis", func(ctx context.Context) error {
		return redisClient.Close()
	})

	journalStore, err := journal.Open(cfg.Journal.Path, "reminders")
	if err != nil {
		zapLogger.Fatal("failed to open reminder journal", zap.Error(err))
	}
	manager.OnShutdown("journal", func(ctx context.Context) error {
		return journalStore.Close()
	})

	mon := monitor.New(pool, redisClient, journalStore, 10*time.Second, zapLogger)
	mon.Start()
	manager.OnShutdown("monitor", func(ctx context.Context) error {
		mon.Stop()
		return nil
	})

	userRepo := postgres.NewUserRepository(pool)
	taskRepo := postgres.NewTaskRepository(pool)
	sessionRepo := redisRepo.NewSessionRepository(redisClient, cfg.JWT.Lifetime)

	var googleVerifier authUC.GoogleVerifier
	if cfg.Google.ClientID != "" {
		verifier, err := googleInfra.NewVerifier(cfg.Google.ClientID, cfg.Google.VerifyTimeout)
		if err != nil {
			zapLogger.Fatal("google verifier init failed", zap.Error(err))
		}
		googleVerifier = verifier
	} else {
		zapLogger.Warn("GOOGLE_CLIENT_ID not set, google sign-in disabled")
	}

	dialer := gomail.NewDialer(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password)
	emailChannel := notify.NewEmailChannel(dialer, cfg.SMTP.From, journalStore, zapLogger, cfg.Notify.MaxRetries)
	alertChannel := notify.NewAlertChannel(redisClient, cfg.Notify.AlertTTL)

	notifier, err := notify.New(
		taskRepo,
		userRepo,
		[]notify.Channel{emailChannel, alertChannel},
		mon,
		zapLogger,
		notify.Config{
			Interval: cfg.Notify.ScanInterval,
			Window:   cfg.Notify.Window,
		},
	)
	if err != nil {
		zapLogger.Fatal("notifier init failed", zap.Error(err))
	}
	notifier.Start()
	manager.OnShutdown("notifier", func(ctx context.Context) error {
		notifier.Stop(ctx)
		return nil
	})

	authUseCase := authUC.New(userRepo, sessionRepo, tokens, googleVerifier, zapLogger)
	profileUseCase := profileUC.New(userRepo, zapLogger)
	taskUseCase := taskUC.New(taskRepo, notifier, zapLogger)

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)

	handlers := router.Handlers{
		Auth:    apiHandler.NewAuthHandler(authUseCase, ctxAdapter, zapLogger),
		Profile: apiHandler.NewProfileHandler(profileUseCase, ctxAdapter, zapLogger),
		Task:    apiHandler.NewTaskHandler(taskUseCase, ctxAdapter, zapLogger),
		Alerts:  apiHandler.NewAlertsHandler(alertChannel, ctxAdapter, zapLogger),
		Health:  apiHandler.NewHealthHandler(mon, ctxAdapter, zapLogger),
	}

	authMiddleware := middleware.BearerAuth(tokens, sessionRepo, zapLogger)
	r := router.New(handlers, authMiddleware)

	server := &fasthttp.Server{
		Handler:      r.Handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		Name:         cfg.AppName,
	}

	go func() {
		zapLogger.Info("server started", zap.String("address", cfg.Address()))
		if err := server.ListenAndServe(cfg.Address()); err != nil {
			zapLogger.Fatal("server crashed", zap.Error(err))
		}
	}()

	manager.OnShutdown("http_server", func(ctx context.Context) error {
		return server.Shutdown()
	})

	manager.AwaitSignal(context.Background())

	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
}
