package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	healthcheck "github.com/vladislavdragonenkov/storefront/internal/health"
	"github.com/vladislavdragonenkov/storefront/internal/metrics"
	"github.com/vladislavdragonenkov/storefront/internal/service/catalog"
	"github.com/vladislavdragonenkov/storefront/internal/service/orders"
	"github.com/vladislavdragonenkov/storefront/internal/service/users"
	"github.com/vladislavdragonenkov/storefront/internal/storage/memory"
	"github.com/vladislavdragonenkov/storefront/internal/storage/postgres"
	"github.com/vladislavdragonenkov/storefront/internal/storage/redis"
	"github.com/vladislavdragonenkov/storefront/internal/validation"
)

// runtimeDependencies — репозитории выбранного хранилища и проверки их доступности.
type runtimeDependencies struct {
	products        domain.ProductRepository
	users           domain.UserRepository
	orders          domain.OrderRepository
	outboxRepo      domain.OutboxRepository
	idempotencyRepo domain.IdempotencyRepository

	storageChecker healthcheck.Checker
	redisChecker   healthcheck.Checker

	closeFn func() error
}

func initRuntimeDependencies(ctx context.Context, cfg Config, logger *log.Entry) (*runtimeDependencies, error) {
	var (
		deps *runtimeDependencies
		err  error
	)

	switch cfg.StorageDriver {
	case StorageDriverMemory, "":
		deps = initMemoryStorage()
		logger.Info("используется in-memory хранилище")
	case StorageDriverPostgres:
		deps, err = initPostgresStorage(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.StorageDriver)
	}

	if strings.TrimSpace(cfg.RedisAddr) == "" {
		return deps, nil
	}

	rdb, err := redis.Open(ctx, redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		if deps.closeFn != nil {
			_ = deps.closeFn()
		}
		return nil, fmt.Errorf("init redis idempotency storage: %w", err)
	}

	deps.idempotencyRepo = redis.NewIdempotencyRepository(rdb)
	deps.redisChecker = healthcheck.CheckFunc(func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	})
	storageClose := deps.closeFn
	deps.closeFn = func() error {
		var storageErr error
		if storageClose != nil {
			storageErr = storageClose()
		}
		return errors.Join(storageErr, rdb.Close())
	}
	logger.WithField("addr", cfg.RedisAddr).Info("ключи идемпотентности хранятся в redis")

	return deps, nil
}

func initMemoryStorage() *runtimeDependencies {
	store := memory.NewStore()
	return &runtimeDependencies{
		products:        memory.NewProductRepository(store),
		users:           memory.NewUserRepository(store),
		orders:          memory.NewOrderRepository(store),
		outboxRepo:      memory.NewOutboxRepository(store),
		idempotencyRepo: memory.NewIdempotencyRepository(),
		storageChecker:  healthcheck.PingChecker(store),
	}
}

func initPostgresStorage(ctx context.Context, cfg Config, logger *log.Entry) (*runtimeDependencies, error) {
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("postgres storage requires a DSN")
	}

	store, err := postgres.Open(ctx, cfg.PostgresDSN, postgres.WithMaxConns(cfg.PostgresMaxConns))
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	if cfg.PostgresAutoMigrate {
		if err := store.EnsureSchema(ctx); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("apply migrations: %w", err)
		}
		logger.Info("миграции postgres применены")
	}

	unregisterStats, err := metrics.RegisterCollector(store.StatsCollector())
	if err != nil {
		logger.WithError(err).Warn("postgres pool metrics are not exported")
	}

	logger.Info("используется postgres хранилище")
	return &runtimeDependencies{
		products:        postgres.NewProductRepository(store),
		users:           postgres.NewUserRepository(store),
		orders:          postgres.NewOrderRepository(store),
		outboxRepo:      postgres.NewOutboxRepository(store),
		idempotencyRepo: postgres.NewIdempotencyRepository(store),
		storageChecker:  healthcheck.PingChecker(store),
		closeFn: func() error {
			unregisterStats()
			return store.Close()
		},
	}, nil
}

// close освобождает соединения хранилища.
func (d *runtimeDependencies) close(logger *log.Entry) {
	if d == nil || d.closeFn == nil {
		return
	}
	if err := d.closeFn(); err != nil {
		logger.WithError(err).Warn("failed to close storage")
	}
}

// Services содержит прикладные сервисы поверх выбранного хранилища.
type Services struct {
	Orders  *orders.Service
	Catalog *catalog.Service
	Users   *users.Service
}

// newServices собирает сервисы с общим валидатором и логгером.
func newServices(deps *runtimeDependencies, v *validation.Validator, orderMetrics *metrics.OrderMetrics, logger *log.Entry) *Services {
	if logger == nil {
		logger = log.WithField("component", "app")
	}
	if v == nil {
		v = validation.New()
	}

	return &Services{
		Orders: orders.NewService(
			deps.orders,
			deps.products,
			deps.users,
			orders.WithLogger(logger.WithField("service", "orders")),
			orders.WithMetrics(orderMetrics),
			orders.WithValidator(v),
		),
		Catalog: catalog.NewService(deps.products, v, logger.WithField("service", "catalog")),
		Users: users.NewService(
			deps.users,
			users.WithLogger(logger.WithField("service", "users")),
			users.WithValidator(v),
		),
	}
}
