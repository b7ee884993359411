package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/qrave1/peerlink/internal/application/config"
	"github.com/qrave1/peerlink/internal/application/constant"
	"github.com/qrave1/peerlink/internal/application/metric"
	"github.com/qrave1/peerlink/internal/infra/adapters/memory"
	"github.com/qrave1/peerlink/internal/infra/adapters/postgres"
	"github.com/qrave1/peerlink/internal/infra/adapters/postgres/repository"
	"github.com/qrave1/peerlink/internal/infra/ports/http/handlers"
	"github.com/qrave1/peerlink/internal/infra/ports/http/server"
	"github.com/qrave1/peerlink/internal/usecase"
)

func runApp() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	slog.SetDefault(
		slog.New(
			slog.NewJSONHandler(
				os.Stdout,
				&slog.HandlerOptions{Level: slog.LevelInfo},
			),
		),
	)

	cfg, err := config.New()
	if err != nil {
		slog.Error("parse config", slog.Any(constant.Error, err))
		os.Exit(1)
	}

	slog.Info("Running app", slog.Bool("debug", cfg.Debug))

	dbConn, err := postgres.NewPostgres(ctx, cfg.Postgres.DSN())
	if err != nil {
		slog.Error("connect to postgres", slog.Any(constant.Error, err))
		os.Exit(1)
	}
	defer dbConn.Close()

	userRepo := repository.NewUserRepo(dbConn)
	callRequestRepo := repository.NewCallRequestRepo(dbConn)

	roomRegistry := memory.NewRoomRegistry()
	connRepo := memory.NewConnectionRepository(cfg.Signaling.SendQueueSize, cfg.Signaling.WriteTimeout)

	userUsecase := usecase.NewUserUsecase([]byte(cfg.JWTSecret), userRepo, callRequestRepo)
	signalingUsecase := usecase.NewSignalingUsecase(cfg.Signaling.MaxRoomMembers, roomRegistry, connRepo)

	authHandler := handlers.NewAuthHandler(userUsecase)
	userHandler := handlers.NewUserHandler(userUsecase)
	iceHandler := handlers.NewIceHandler(cfg)
	wsHandler := handlers.NewWebSocketHandler(cfg, signalingUsecase, connRepo)

	echoSrv := server.New(cfg, authHandler, userHandler, iceHandler, wsHandler)

	metricsSrv := metric.NewServer()

	echoSrvCh := make(chan error, 1)
	metricsSrvCh := make(chan error, 1)

	go func() {
		echoSrvCh <- echoSrv.Start(":" + cfg.Port)
	}()

	go func() {
		metricsSrvCh <- metricsSrv.Start(":" + cfg.MetricPort)
	}()

	select {
	case <-ctx.Done():
		slog.Info("Shutting down servers due to context cancel")
	case err := <-echoSrvCh:
		slog.Error(
			"HTTP server failed",
			slog.Any(constant.Error, err),
		)
		os.Exit(1)
	case err := <-metricsSrvCh:
		slog.Error(
			"Metrics server failed",
			slog.Any(constant.Error, err),
		)
		os.Exit(1)
	}

	timeoutCtx, timeoutCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer timeoutCancel()

	if err := echoSrv.Shutdown(timeoutCtx); err != nil {
		slog.Error("Failed to gracefully shutdown HTTP server", slog.Any(constant.Error, err))
	}

	if err := metricsSrv.Shutdown(timeoutCtx); err != nil {
		slog.Error("Failed to gracefully shutdown metric server", slog.Any(constant.Error, err))
	}

	// Drop the signaling state last so in-flight disconnect handlers
	// still find their connections.
	connRepo.CloseAll()
	roomRegistry.Clear()
}
