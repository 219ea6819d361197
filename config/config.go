package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Config struct {
	Server   ServerConfig
	Logger   LoggerConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Order    OrderConfig
	Catalog  CatalogConfig
	Post     PostConfig
}

type ServerConfig struct {
	AppEnv         string
	HTTPPort       string
	GRPCPort       string
	RequestTimeout time.Duration
	// AllowedOrigins for the dashboard websocket, empty allows any.
	AllowedOrigins []string
	Timezone       string
}

type LoggerConfig struct {
	Level             string
	Encoding          string
	DisableCaller     bool
	DisableStacktrace bool
}

type PostgresConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int
	ConnMaxIdleTime int
	LockTimeout     time.Duration
	MigrationsTable string
	RunMigrations   bool
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type KafkaConfig struct {
	Enabled     bool
	Brokers     []string
	OrdersTopic string
	WalletTopic string
	GroupID     string
}

type OrderConfig struct {
	MinAddressLength    int
	NotifyQueueSize     int
	CreditsPerOrder     decimal.Decimal
	PhonePrefix         string
	IdempotencyTTL      time.Duration
	RejectUnknownExtras bool
}

type CatalogConfig struct {
	CacheTTL time.Duration
}

type PostConfig struct {
	CreditsPerPost   decimal.Decimal
	MaxContentLength int
}

func LoadEnv() *Config {
	return &Config{
		Server: ServerConfig{
			AppEnv:         getEnv("APP_ENV", "dev"),
			HTTPPort:       getEnv("HTTP_PORT", ":8080"),
			GRPCPort:       getEnv("GRPC_PORT", ":8082"),
			RequestTimeout: getEnvDuration("REQUEST_TIMEOUT", 15*time.Second),
			AllowedOrigins: getEnvSlice("WS_ALLOWED_ORIGINS", nil),
			Timezone:       getEnv("APP_TIMEZONE", "America/Mexico_City"),
		},
		Logger: LoggerConfig{
			Level:             getEnv("LOGGER_LEVEL", "debug"),
			Encoding:          getEnv("LOGGER_ENCODING", "console"),
			DisableCaller:     getEnvBool("LOGGER_DISABLE_CALLER", false),
			DisableStacktrace: getEnvBool("LOGGER_DISABLE_STACKTRACE", true),
		},
		Postgres: PostgresConfig{
			Host:            getEnv("POSTGRES_HOST", "localhost"),
			Port:            getEnv("POSTGRES_PORT", "5433"),
			User:            getEnv("POSTGRES_USER", "omnipos"),
			Password:        getEnv("POSTGRES_PASSWORD", "omnipos"),
			DBName:          getEnv("POSTGRES_DB", "omnipos_storefront"),
			SSLMode:         getEnv("POSTGRES_SSLMODE", "disable"),
			MaxOpenConns:    getEnvInt("POSTGRES_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getEnvInt("POSTGRES_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvInt("POSTGRES_CONN_MAX_LIFETIME", 300),
			ConnMaxIdleTime: getEnvInt("POSTGRES_CONN_MAX_IDLE_TIME", 60),
			LockTimeout:     getEnvDuration("POSTGRES_LOCK_TIMEOUT", 3*time.Second),
			MigrationsTable: getEnv("POSTGRES_MIGRATIONS_TABLE", "schema_migrations"),
			RunMigrations:   getEnvBool("POSTGRES_RUN_MIGRATIONS", true),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Kafka: KafkaConfig{
			Enabled:     getEnvBool("KAFKA_ENABLED", true),
			Brokers:     getEnvSlice("KAFKA_BROKERS", []string{"localhost:9092"}),
			OrdersTopic: getEnv("KAFKA_TOPIC_ORDERS", "orders.events"),
			WalletTopic: getEnv("KAFKA_TOPIC_WALLET", "wallet.adjustments"),
			GroupID:     getEnv("KAFKA_GROUP_STOREFRONT", "storefront"),
		},
		Order: OrderConfig{
			MinAddressLength:    getEnvInt("ORDER_MIN_ADDRESS_LENGTH", 5),
			NotifyQueueSize:     getEnvInt("ORDER_NOTIFY_QUEUE_SIZE", 256),
			CreditsPerOrder:     getEnvDecimal("ORDER_CREDITS_PER_ORDER", decimal.NewFromInt(1)),
			PhonePrefix:         getEnv("ORDER_PHONE_PREFIX", "52"),
			IdempotencyTTL:      getEnvDuration("ORDER_IDEMPOTENCY_TTL", 24*time.Hour),
			RejectUnknownExtras: getEnvBool("ORDER_REJECT_UNKNOWN_EXTRAS", false),
		},
		Catalog: CatalogConfig{
			CacheTTL: getEnvDuration("CATALOG_CACHE_TTL", 5*time.Minute),
		},
		Post: PostConfig{
			CreditsPerPost:   getEnvDecimal("POST_CREDITS_PER_POST", decimal.NewFromInt(1)),
			MaxContentLength: getEnvInt("POST_MAX_CONTENT_LENGTH", 2000),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvSlice(key string, fallback []string) []string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return strings.Split(value, ",")
	}
	return fallback
}

// getEnvDuration accepts "3s"-style durations or a bare number of seconds.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}

func getEnvDecimal(key string, fallback decimal.Decimal) decimal.Decimal {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := decimal.NewFromString(value); err == nil {
			return d
		}
	}
	return fallback
}
