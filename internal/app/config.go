package app

import (
	"fmt"
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/validation"
)

// StorageDriver выбирает реализацию хранилища.
type StorageDriver string

const (
	StorageDriverMemory   StorageDriver = "memory"
	StorageDriverPostgres StorageDriver = "postgres"
)

// Config описывает настройки запуска сервиса.
type Config struct {
	HTTPAddr    string `validate:"required"`
	GRPCAddr    string `validate:"required"`
	MetricsAddr string `validate:"required"`

	StorageDriver       StorageDriver `validate:"omitempty,oneof=memory postgres"`
	PostgresDSN         string        `validate:"required_if=StorageDriver postgres"`
	PostgresAutoMigrate bool
	PostgresMaxConns    int `validate:"gte=0"`

	// RequestTimeout ограничивает обработку одного HTTP-запроса.
	RequestTimeout time.Duration `validate:"gt=0"`

	OutboxPollInterval time.Duration `validate:"gt=0"`
	OutboxBatchSize    int           `validate:"gt=0"`
	OutboxMaxAttempts  int           `validate:"gt=0"`
	OutboxRetryDelay   time.Duration `validate:"gte=0"`

	IdempotencyTTL              time.Duration `validate:"gt=0"`
	IdempotencyCleanupInterval  time.Duration `validate:"gt=0"`
	IdempotencyCleanupBatchSize int           `validate:"gt=0"`

	// RedisAddr переключает ключи идемпотентности в Redis, если задан.
	RedisAddr     string
	RedisPassword string
	RedisDB       int `validate:"gte=0"`

	// KafkaBrokers — список брокеров через запятую; пустой отключает Kafka.
	KafkaBrokers  string
	KafkaTopic    string `validate:"required_with=KafkaBrokers"`
	KafkaDLQTopic string
}

// DefaultConfig возвращает настройки по умолчанию.
func DefaultConfig() Config {
	return Config{
		HTTPAddr:    ":8000",
		GRPCAddr:    ":50051",
		MetricsAddr: ":9090",

		StorageDriver:       StorageDriverMemory,
		PostgresAutoMigrate: true,
		PostgresMaxConns:    25,

		RequestTimeout: 5 * time.Second,

		OutboxPollInterval: time.Second,
		OutboxBatchSize:    100,
		OutboxMaxAttempts:  3,
		OutboxRetryDelay:   50 * time.Millisecond,

		IdempotencyTTL:              24 * time.Hour,
		IdempotencyCleanupInterval:  10 * time.Minute,
		IdempotencyCleanupBatchSize: 500,

		KafkaTopic:    "storefront.events",
		KafkaDLQTopic: "storefront.dlq",
	}
}

// Validate проверяет конфигурацию целиком и перечисляет все нарушения.
func (c Config) Validate() error {
	if err := validation.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
