package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Tyrowin/roomchat/internal/chat"
	"github.com/Tyrowin/roomchat/internal/moderation"
	"github.com/Tyrowin/roomchat/internal/server"
	"github.com/Tyrowin/roomchat/internal/telemetry"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := server.NewConfigFromEnv()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(cfg.LogLevel)
	log.Info("Starting room chat server...")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := telemetry.Setup(ctx, cfg.OTelEndpoint)
	if err != nil {
		return fmt.Errorf("telemetry setup failed: %w", err)
	}
	defer func() {
		if err := shutdownTelemetry(context.Background()); err != nil {
			log.Warn("Telemetry shutdown error", "error", err)
		}
	}()

	censor, err := cfg.CensorRune()
	if err != nil {
		return err
	}
	moderator, err := moderation.New(moderation.ParseWords(cfg.CensoredWords), censor)
	if err != nil {
		return fmt.Errorf("moderator setup failed: %w", err)
	}

	state := chat.NewState(log, chat.WithTextFilter(moderator.Censor))
	srv := server.New(*cfg, state, log)
	srv.Start()

	httpServer := server.CreateServer(cfg.Port, srv.Routes())

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.StartServer(httpServer, log)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			_ = srv.Hub().Shutdown(cfg.ShutdownTimeout)
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
		log.Info("Shutdown signal received")
	}

	if err := server.ShutdownServer(httpServer, cfg.ShutdownTimeout, log); err != nil {
		log.Error("HTTP server shutdown incomplete", "error", err)
	}
	if err := srv.Hub().Shutdown(cfg.ShutdownTimeout); err != nil {
		log.Error("Hub shutdown incomplete", "error", err)
	}

	log.Info("Server stopped")
	return nil
}
