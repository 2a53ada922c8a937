package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/vladislavdragonenkov/perfumery/internal/storage/postgres"
)

const (
	// StorageDriverMemory хранит всё в памяти процесса и засевает демо-каталог.
	StorageDriverMemory = "memory"
	// StorageDriverPostgres хранит каталог, клиентов и журнал счетов в PostgreSQL.
	StorageDriverPostgres = "postgres"

	// NumberingSequence выдаёт номера счетов по порядку.
	NumberingSequence = "sequence"
	// NumberingRandom выдаёт случайные номера с проверкой на повтор.
	NumberingRandom = "random"

	envPrefix = "PERFUMERY"
)

// Config описывает настройки запуска приложения.
type Config struct {
	GRPCAddr    string
	MetricsAddr string

	StorageDriver       string
	PostgresDSN         string
	PostgresAutoMigrate bool
	PostgresPool        postgres.PoolConfig
	// SeedDemoData засевает демо-каталог и клиентов в memory-хранилище.
	SeedDemoData bool
	// InvoiceNumbering — стратегия номеров для memory-хранилища; postgres всегда использует sequence.
	InvoiceNumbering string

	KafkaBrokers  []string
	KafkaClientID string
	// KafkaTopic — общий topic для outbox; пустой означает маршрутизацию по типу события.
	KafkaTopic string

	OutboxPollInterval  time.Duration
	OutboxBatchSize     int
	OutboxMaxAttempts   int
	OutboxRetryDelay    time.Duration
	OutboxMaxRetryDelay time.Duration
	// OutboxMaxPending — размер backlog, после которого health отдаёт degraded.
	OutboxMaxPending int

	CleanupInterval  time.Duration
	CleanupBatchSize int
	CartTTL          time.Duration
	IdempotencyTTL   time.Duration

	// RateLimitRPS <= 0 отключает ограничение запросов.
	RateLimitRPS   float64
	RateLimitBurst int

	HealthTimeout   time.Duration
	ShutdownTimeout time.Duration
}

// DefaultConfig возвращает настройки по умолчанию.
func DefaultConfig() Config {
	return Config{
		GRPCAddr:            ":50051",
		MetricsAddr:         ":9090",
		StorageDriver:       StorageDriverMemory,
		PostgresAutoMigrate: true,
		PostgresPool:        postgres.DefaultPoolConfig(),
		SeedDemoData:        true,
		InvoiceNumbering:    NumberingSequence,
		KafkaClientID:       "perfumery-billing",
		OutboxPollInterval:  time.Second,
		OutboxBatchSize:     100,
		OutboxMaxAttempts:   3,
		OutboxRetryDelay:    50 * time.Millisecond,
		OutboxMaxRetryDelay: 5 * time.Second,
		OutboxMaxPending:    1000,
		CleanupInterval:     time.Minute,
		CleanupBatchSize:    500,
		CartTTL:             30 * time.Minute,
		IdempotencyTTL:      24 * time.Hour,
		RateLimitRPS:        0,
		RateLimitBurst:      0,
		HealthTimeout:       2 * time.Second,
		ShutdownTimeout:     5 * time.Second,
	}
}

// LoadConfig накладывает на DefaultConfig значения из файла (если path не пустой)
// и переменных окружения PERFUMERY_*, например PERFUMERY_STORAGE_DRIVER.
func LoadConfig(path string) (Config, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := Config{
		GRPCAddr:            v.GetString("grpc.addr"),
		MetricsAddr:         v.GetString("metrics.addr"),
		StorageDriver:       strings.ToLower(strings.TrimSpace(v.GetString("storage.driver"))),
		PostgresDSN:         v.GetString("postgres.dsn"),
		PostgresAutoMigrate: v.GetBool("postgres.auto_migrate"),
		PostgresPool: postgres.PoolConfig{
			MaxOpenConns:    v.GetInt("postgres.max_open_conns"),
			MaxIdleConns:    v.GetInt("postgres.max_idle_conns"),
			ConnMaxLifetime: v.GetDuration("postgres.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetDuration("postgres.conn_max_idle_time"),
			ConnectTimeout:  v.GetDuration("postgres.connect_timeout"),
		},
		SeedDemoData:        v.GetBool("storage.seed_demo"),
		InvoiceNumbering:    strings.ToLower(strings.TrimSpace(v.GetString("invoice.numbering"))),
		KafkaBrokers:        stringList(v.GetStringSlice("kafka.brokers")),
		KafkaClientID:       v.GetString("kafka.client_id"),
		KafkaTopic:          v.GetString("kafka.topic"),
		OutboxPollInterval:  v.GetDuration("outbox.poll_interval"),
		OutboxBatchSize:     v.GetInt("outbox.batch_size"),
		OutboxMaxAttempts:   v.GetInt("outbox.max_attempts"),
		OutboxRetryDelay:    v.GetDuration("outbox.retry_delay"),
		OutboxMaxRetryDelay: v.GetDuration("outbox.max_retry_delay"),
		OutboxMaxPending:    v.GetInt("outbox.max_pending"),
		CleanupInterval:     v.GetDuration("cleanup.interval"),
		CleanupBatchSize:    v.GetInt("cleanup.batch_size"),
		CartTTL:             v.GetDuration("cleanup.cart_ttl"),
		IdempotencyTTL:      v.GetDuration("idempotency.ttl"),
		RateLimitRPS:        v.GetFloat64("ratelimit.rps"),
		RateLimitBurst:      v.GetInt("ratelimit.burst"),
		HealthTimeout:       v.GetDuration("health.timeout"),
		ShutdownTimeout:     v.GetDuration("shutdown.timeout"),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate проверяет согласованность настроек.
func (c Config) Validate() error {
	var errs []error

	switch c.StorageDriver {
	case StorageDriverMemory:
	case StorageDriverPostgres:
		if strings.TrimSpace(c.PostgresDSN) == "" {
			errs = append(errs, errors.New("postgres dsn is required for postgres storage driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported storage driver %q", c.StorageDriver))
	}

	switch c.InvoiceNumbering {
	case "", NumberingSequence, NumberingRandom:
	default:
		errs = append(errs, fmt.Errorf("unsupported invoice numbering %q", c.InvoiceNumbering))
	}

	if c.RateLimitBurst < 0 {
		errs = append(errs, errors.New("rate limit burst must be >= 0"))
	}

	return errors.Join(errs...)
}

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("grpc.addr", d.GRPCAddr)
	v.SetDefault("metrics.addr", d.MetricsAddr)
	v.SetDefault("storage.driver", d.StorageDriver)
	v.SetDefault("storage.seed_demo", d.SeedDemoData)
	v.SetDefault("postgres.dsn", d.PostgresDSN)
	v.SetDefault("postgres.auto_migrate", d.PostgresAutoMigrate)
	v.SetDefault("postgres.max_open_conns", d.PostgresPool.MaxOpenConns)
	v.SetDefault("postgres.max_idle_conns", d.PostgresPool.MaxIdleConns)
	v.SetDefault("postgres.conn_max_lifetime", d.PostgresPool.ConnMaxLifetime)
	v.SetDefault("postgres.conn_max_idle_time", d.PostgresPool.ConnMaxIdleTime)
	v.SetDefault("postgres.connect_timeout", d.PostgresPool.ConnectTimeout)
	v.SetDefault("invoice.numbering", d.InvoiceNumbering)
	v.SetDefault("kafka.brokers", "")
	v.SetDefault("kafka.client_id", d.KafkaClientID)
	v.SetDefault("kafka.topic", d.KafkaTopic)
	v.SetDefault("outbox.poll_interval", d.OutboxPollInterval)
	v.SetDefault("outbox.batch_size", d.OutboxBatchSize)
	v.SetDefault("outbox.max_attempts", d.OutboxMaxAttempts)
	v.SetDefault("outbox.retry_delay", d.OutboxRetryDelay)
	v.SetDefault("outbox.max_retry_delay", d.OutboxMaxRetryDelay)
	v.SetDefault("outbox.max_pending", d.OutboxMaxPending)
	v.SetDefault("cleanup.interval", d.CleanupInterval)
	v.SetDefault("cleanup.batch_size", d.CleanupBatchSize)
	v.SetDefault("cleanup.cart_ttl", d.CartTTL)
	v.SetDefault("idempotency.ttl", d.IdempotencyTTL)
	v.SetDefault("ratelimit.rps", d.RateLimitRPS)
	v.SetDefault("ratelimit.burst", d.RateLimitBurst)
	v.SetDefault("health.timeout", d.HealthTimeout)
	v.SetDefault("shutdown.timeout", d.ShutdownTimeout)
}

// stringList разбирает список вида "a:9092, b:9092" из env или YAML-массива.
func stringList(raw []string) []string {
	var out []string
	for _, item := range raw {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
