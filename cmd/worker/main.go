package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/luminhq/user-service/config"
	"github.com/luminhq/user-service/internal/container"
	"github.com/luminhq/user-service/internal/search"
	"github.com/luminhq/user-service/internal/tasks"
	"github.com/luminhq/user-service/pkg/helpers"
)

// The worker owns the write path: it consumes use-case tasks from the
// queue, runs them against Postgres through the unit of work, and keeps
// the search projection fed from the event stream.
func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-worker", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c, err := container.New(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("failed to build container: %v", err)
	}
	defer c.Close()

	svc := c.Service()
	projector := search.NewProjector(c.ES, cfg.ESUsersIndex, svc, logger)
	if err := projector.Subscribe(c.Bus); err != nil {
		log.Fatalf("failed to subscribe projector: %v", err)
	}

	worker, err := c.TaskWorker()
	if err != nil {
		log.Fatalf("failed to init task worker: %v", err)
	}
	defer func() { _ = worker.Close() }()

	tasks.RegisterAll(worker, c.Commands())

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("worker stopped: %v", err)
	}
	logger.Info("worker exited properly")
}
