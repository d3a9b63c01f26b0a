package main

import (
	"context"
	"log"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/fastygo/tasktracker/api/handler"
	"github.com/fastygo/tasktracker/internal/config"
	"github.com/fastygo/tasktracker/internal/infrastructure/kv"
	"github.com/fastygo/tasktracker/internal/infrastructure/monitor"
	"github.com/fastygo/tasktracker/internal/middleware"
	"github.com/fastygo/tasktracker/internal/router"
	"github.com/fastygo/tasktracker/internal/services"
	"github.com/fastygo/tasktracker/internal/services/lifecycle"
	"github.com/fastygo/tasktracker/pkg/httpcontext"
	"github.com/fastygo/tasktracker/pkg/logger"
	authUC "github.com/fastygo/tasktracker/usecase/auth"
	"github.com/fastygo/tasktracker/usecase/task"
	"github.com/fastygo/tasktracker/usecase/tracker"
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

	loc, err := cfg.Location()
	if err != nil {
		zapLogger.Fatal("invalid timezone", zap.Error(err))
	}

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	manager.Listen(cancel)

	store, err := kv.Open(appCtx, cfg, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed to open store", zap.String("driver", cfg.Store.Driver), zap.Error(err))
	}
	manager.RegisterCloser("store", store)

	tr, err := tracker.New(store, zapLogger,
		task.WithLocation(loc),
		task.WithWeekStart(cfg.Schedule.WeekStartsOn),
	)
	if err != nil {
		zapLogger.Fatal("failed to load tracker data", zap.Error(err))
	}
	zapLogger.Info("tracker loaded",
		zap.Int("tasks", tr.NumTasks()),
		zap.Int("projects", len(tr.ProjectNames())),
	)

	mon := monitor.New(store, cfg.Store.Driver, cfg.Store.HealthInterval, zapLogger.Named("monitor"))
	mon.Start()
	manager.Register("monitor", func(ctx context.Context) error {
		mon.Stop()
		return nil
	})

	watcher, err := services.NewDueWatcher(tr, mon, zapLogger.Named("due_watcher"), services.WatcherConfig{
		Spec:     cfg.Schedule.DueRefreshSpec,
		Location: loc,
	})
	if err != nil {
		zapLogger.Fatal("due watcher setup failed", zap.Error(err))
	}
	watcher.Start()
	manager.Register("due_watcher", func(ctx context.Context) error {
		watcher.Stop(ctx)
		return nil
	})

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)

	handlers := router.Handlers{
		Task:    apiHandler.NewTaskHandler(tr, loc, ctxAdapter, zapLogger),
		Project: apiHandler.NewProjectHandler(tr, ctxAdapter, zapLogger),
		Health:  apiHandler.NewHealthHandler(mon, tr, ctxAdapter, zapLogger),
	}

	authMiddleware := middleware.JWTAuth(authUC.New(cfg.JWT.Secret, cfg.JWT.Issuer, zapLogger), zapLogger)
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
			zapLogger.Error("server crashed", zap.Error(err))
			cancel()
		}
	}()

	manager.Register("http_server", func(ctx context.Context) error {
		return server.ShutdownWithContext(ctx)
	})

	<-appCtx.Done()

	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
}
