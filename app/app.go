package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"marcel.works/pointing/app/config"
	"marcel.works/pointing/app/service"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	Config config.Config
	Logger *zap.Logger
}

func NewLogger(cfg config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	zapConfig := zap.NewProductionConfig()
	if cfg.Dev {
		zapConfig = zap.NewDevelopmentConfig()
	}
	zapConfig.Level = zap.NewAtomicLevelAt(level)
	return zapConfig.Build()
}

// Start serves until ctx is cancelled.
func (a *App) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	archiver, closeStore, err := a.openArchive(ctx)
	if err != nil {
		return fmt.Errorf("could not connect to database: %w", err)
	}

	switchboard := service.NewSwitchboard(a.Logger.Named("transport"))
	opts := []service.CoordinatorOption{service.WithInboxSize(a.Config.InboxSize)}
	var history service.HistoryReader
	if archiver != nil {
		opts = append(opts, service.WithRecorder(archiver))
		history = archiver
	}
	coordinator := service.NewCoordinator(service.NewRegistry(), switchboard, a.Logger.Named("coordinator"), opts...)

	// shutdown order: coordinator, then archiver flush, then the store
	archiveCtx, stopArchive := context.WithCancel(context.Background())
	archiveDone := make(chan struct{})
	coordinatorDone := make(chan struct{})
	go func() {
		defer close(archiveDone)
		if archiver != nil {
			archiver.Run(archiveCtx)
		}
	}()
	go func() {
		defer close(coordinatorDone)
		coordinator.Run(ctx)
	}()
	defer func() {
		cancel()
		<-coordinatorDone
		stopArchive()
		<-archiveDone
		closeStore()
	}()

	hub := service.NewHub(coordinator, a.Logger.Named("ws"))
	switchboard.Route(service.WebSocketPrefix, hub)

	if a.Config.BrokerEnabled() {
		stompService := service.StompService{Dispatcher: coordinator, Logger: a.Logger.Named("stomp")}
		if err := stompService.Connect(a.Config.BrokerHost, a.Config.BrokerUser, a.Config.BrokerPass); err != nil {
			return fmt.Errorf("could not connect to broker: %w", err)
		}
		a.Logger.Info("connected to broker", zap.String("host", a.Config.BrokerHost))
		switchboard.Route(service.StompPrefix, &stompService)
		go func() {
			if err := stompService.ReceiveCommands(ctx); err != nil {
				a.Logger.Error("connection to broker terminated", zap.Error(err))
			}
		}()
		defer func() {
			_ = stompService.Disconnect()
		}()
	}

	server := &http.Server{
		Addr:              a.Config.HTTPAddr,
		Handler:           service.NewRouter(hub.ServeWS, coordinator, history, a.Logger.Named("http")),
		ReadHeaderTimeout: 5 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		a.Logger.Info("listening", zap.String("addr", a.Config.HTTPAddr))
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.Logger.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	return server.Shutdown(shutdownCtx)
}

// openArchive connects the configured history store. A nil Archiver means no
// archive is configured.
func (a *App) openArchive(ctx context.Context) (*service.Archiver, func(), error) {
	logger := a.Logger.Named("archive")
	switch a.Config.Archive {
	case config.ArchiveRedis:
		store := &service.RedisService{TTL: a.Config.HistoryTTL}
		if err := store.Connect(ctx, a.Config.DBHost, a.Config.DBAuth); err != nil {
			return nil, nil, err
		}
		a.Logger.Info("connected to database", zap.String("archive", "redis"), zap.String("host", a.Config.DBHost))
		return service.NewArchiver(store, a.Config.InboxSize, logger), func() { _ = store.Close() }, nil
	case config.ArchiveRethink:
		store := &service.RethinkService{}
		if err := store.Connect(a.Config.DBHosts); err != nil {
			return nil, nil, err
		}
		if err := store.EnsureSchema(); err != nil {
			_ = store.Close()
			return nil, nil, err
		}
		a.Logger.Info("connected to database", zap.String("archive", "rethink"), zap.Strings("hosts", a.Config.DBHosts))
		return service.NewArchiver(store, a.Config.InboxSize, logger), func() { _ = store.Close() }, nil
	}
	return nil, func() {}, nil
}
