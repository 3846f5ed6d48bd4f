package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"SessionScope/internal/api"
	"SessionScope/internal/auth"
	"SessionScope/internal/config"
	"SessionScope/internal/query"
	"SessionScope/internal/user"

	"github.com/rs/zerolog"
)

func main() {
	log := zerolog.New(os.Stdout).With().Timestamp().Logger()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	tokens, err := auth.NewJWTManager(cfg.Auth)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize token manager")
	}

	users, err := user.Open(cfg.Users.DBPath, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open user store")
	}
	defer users.Close()

	// An unreachable ClickHouse is not fatal; the gateway serves the
	// fallback dataset until the store comes back and the process is
	// restarted.
	gateway := query.NewGateway(cfg.ClickHouse, log)

	server := &http.Server{
		Addr:    cfg.API.ListenAddr,
		Handler: api.NewServer(gateway, users, tokens, log).Router(cfg.API.CORSOrigins),
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("API server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Str("addr", server.Addr).Msg("server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("API server shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}
	log.Info().Msg("API server exited")
}
