// Package container is the composition root. Both binaries build one
// Container at startup and pass dependencies down explicitly; nothing in
// here is a global.
package container

import (
	"context"
	"fmt"

	"cloud.google.com/go/storage"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/luminhq/user-service/config"
	"github.com/luminhq/user-service/internal/application"
	"github.com/luminhq/user-service/internal/domain/repository"
	"github.com/luminhq/user-service/internal/infrastructure/cache"
	"github.com/luminhq/user-service/internal/infrastructure/messaging"
	pginfra "github.com/luminhq/user-service/internal/infrastructure/postgres"
	"github.com/luminhq/user-service/internal/tasks"
	"github.com/luminhq/user-service/pkg/helpers"
)

type Container struct {
	Cfg    *config.Config
	Logger *logrus.Logger

	Pool   *pgxpool.Pool
	Cache  *cache.RedisCache
	Rabbit *amqp.Connection
	Bus    *messaging.RabbitEventBus
	ES     *elasticsearch.Client
	GCS    *storage.Client

	Backend *tasks.ResultBackend
}

// New connects every shared backend. Redis degrading to unavailable is
// tolerated; Postgres and RabbitMQ are required.
func New(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*Container, error) {
	pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), cfg.DBMaxConns, cfg.DBMinConns, cfg.DBMaxConnLife)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	rc := cache.NewRedisCache(cache.Config{
		Addr:       cfg.RedisAddr,
		Password:   cfg.RedisPassword,
		DB:         cfg.RedisDB,
		DefaultTTL: cfg.CacheTTL,
		KeyPrefix:  cfg.CacheKeyPrefix,
	}, logger)
	if err := rc.Connect(ctx); err != nil {
		logger.WithError(err).Warn("redis unavailable, cache and task results degraded")
	}

	conn, err := amqp.Dial(cfg.RabbitMQURL)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("connect rabbitmq: %w", err)
	}
	bus, err := messaging.NewRabbitEventBus(conn, cfg.EventExchange, logger)
	if err != nil {
		_ = conn.Close()
		pool.Close()
		return nil, fmt.Errorf("init event bus: %w", err)
	}

	es, err := helpers.NewESClient(cfg.ESAddrs(), cfg.ElasticsearchUser, cfg.ElasticsearchPass)
	if err != nil {
		_ = conn.Close()
		pool.Close()
		return nil, fmt.Errorf("init elasticsearch client: %w", err)
	}

	gcs, err := helpers.NewGCSClient(ctx, cfg.GCSCredentialsJSONPath)
	if err != nil {
		_ = conn.Close()
		pool.Close()
		return nil, fmt.Errorf("init gcs client: %w", err)
	}

	return &Container{
		Cfg:     cfg,
		Logger:  logger,
		Pool:    pool,
		Cache:   rc,
		Rabbit:  conn,
		Bus:     bus,
		ES:      es,
		GCS:     gcs,
		Backend: tasks.NewResultBackend(rc, cfg.TaskResultTTL),
	}, nil
}

func (c *Container) Close() {
	_ = c.Bus.Close()
	_ = c.Rabbit.Close()
	_ = c.GCS.Close()
	c.Cache.Close()
	c.Pool.Close()
}

// TaskClient opens a publishing channel on the shared connection.
func (c *Container) TaskClient() (*tasks.Client, error) {
	return tasks.NewClient(c.Rabbit, c.Cfg.TaskQueue, c.Backend, c.Logger)
}

// TaskWorker opens a consuming channel on the shared connection.
func (c *Container) TaskWorker() (*tasks.Worker, error) {
	return tasks.NewWorker(c.Rabbit, c.Cfg.TaskQueue, c.Backend, c.Logger)
}

// UnitOfWorkFactory builds the persistence entry point for the worker.
func (c *Container) UnitOfWorkFactory() repository.UnitOfWorkFactory {
	return pginfra.NewUnitOfWorkFactory(c.Pool, c.Cache, c.Logger)
}

// Service wires the application service over a fresh unit-of-work factory.
func (c *Container) Service() *application.Service {
	return application.NewService(c.UnitOfWorkFactory(), c.Logger)
}

// Commands wires the command handlers the task worker dispatches to.
func (c *Container) Commands() *application.Commands {
	return application.NewCommands(c.Service(), c.Bus, c.Logger)
}
