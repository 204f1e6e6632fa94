package main

import (
	"context"
	"os/signal"
	"syscall"

	"media-indexer/internal/logging"
	"media-indexer/internal/media"
	"media-indexer/internal/startup"
)

// IndexCmd runs one indexing pass.
type IndexCmd struct{}

func (c *IndexCmd) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	config, err := startup.LoadConfig()
	if err != nil {
		return err
	}

	if err := media.InitVips(); err != nil {
		logging.Warn("libvips unavailable, HEIC previews disabled: %v", err)
	}
	defer media.ShutdownVips()

	a, err := newApp(ctx, config)
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := a.indexer.Run(ctx)
	if err != nil {
		return err
	}
	logRunResult(result)
	return nil
}
