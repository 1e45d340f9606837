package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/common-nighthawk/go-figure"
	"github.com/rs/zerolog"

	"gapirelay-go/internal/app"
	"gapirelay-go/internal/config"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "path to a YAML config file")
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		logger = logger.Level(level)
	}

	figure.NewFigure("gapirelay", "", true).Print()

	application, err := app.New(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create application")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigchan := make(chan os.Signal, 1)
		signal.Notify(sigchan, syscall.SIGINT, syscall.SIGTERM)
		<-sigchan
		logger.Info().Msg("shutdown signal received")
		if err := application.Stop(ctx); err != nil {
			logger.Error().Err(err).Msg("error during graceful shutdown")
		}
		cancel()
	}()

	if err := application.Start(ctx); err != nil {
		logger.Fatal().Err(err).Msg("application failed to start")
	}

	<-ctx.Done()
	logger.Info().Msg("application has stopped")
}
