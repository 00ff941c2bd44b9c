package main

import (
	"context"
	"fmt"
	"os"

	"github.com/tourismsite/tourism/internal/app"
	"github.com/tourismsite/tourism/internal/infrastructure/config"
	"github.com/tourismsite/tourism/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "tourism",
	})

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Error().Err(err).Msg("startup failed")
		return err
	}
	defer func() {
		if err := a.Close(context.Background()); err != nil {
			log.Error().Err(err).Msg("closing backends")
		}
	}()

	return a.Run(ctx)
}
