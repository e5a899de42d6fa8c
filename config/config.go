package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server   ServerConfig
	Logger   LoggerConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Elastic  ElasticsearchConfig
	Otel     OtelConfig
	Notify   NotifyConfig
	Stock    StockConfig
}

type ServerConfig struct {
	AppEnv          string
	GRPCPort        string
	ShutdownTimeout time.Duration
}

type LoggerConfig struct {
	Level             string
	Encoding          string
	DisableCaller     bool
	DisableStacktrace bool
}

type PostgresConfig struct {
	Host             string
	Port             string
	User             string
	Password         string
	DBName           string
	SSLMode          string
	MaxOpenConns     int
	MaxIdleConns     int
	ConnMaxLifetime  int
	ConnMaxIdleTime  int
	StatementTimeout time.Duration
}

type RedisConfig struct {
	Addr          string
	Password      string
	DB            int
	LockTTL       time.Duration
	PermissionTTL time.Duration
}

type KafkaConfig struct {
	Brokers       []string
	OrderTopic    string
	GroupID       string
	OutcomesTopic string
}

type ElasticsearchConfig struct {
	Enabled     bool
	Addresses   []string
	Username    string
	Password    string
	LedgerIndex string
}

type OtelConfig struct {
	ServiceName   string
	Endpoint      string
	URLPath       string
	AuthHeader    string
	Insecure      bool
	ExportTimeout time.Duration
	MaxQueueSize  int
}

type NotifyConfig struct {
	Lang        string
	SinkTimeout time.Duration
}

type StockConfig struct {
	LowThreshold        int
	DefaultSlotCapacity int
}

func LoadEnv() *Config {
	return &Config{
		Server: ServerConfig{
			AppEnv:          getEnv("APP_ENV", "dev"),
			GRPCPort:        getEnv("GRPC_PORT", ":8085"),
			ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 15*time.Second),
		},
		Logger: LoggerConfig{
			Level:             getEnv("LOGGER_LEVEL", "debug"),
			Encoding:          getEnv("LOGGER_ENCODING", "console"),
			DisableCaller:     getEnvBool("LOGGER_DISABLE_CALLER", false),
			DisableStacktrace: getEnvBool("LOGGER_DISABLE_STACKTRACE", true),
		},
		Postgres: PostgresConfig{
			Host:             getEnv("POSTGRES_HOST", "localhost"),
			Port:             getEnv("POSTGRES_PORT", "5433"),
			User:             getEnv("POSTGRES_USER", "omnipos"),
			Password:         getEnv("POSTGRES_PASSWORD", "omnipos"),
			DBName:           getEnv("POSTGRES_DB", "omnipos_stock"),
			SSLMode:          getEnv("POSTGRES_SSLMODE", "disable"),
			MaxOpenConns:     getEnvInt("POSTGRES_MAX_OPEN_CONNS", 10),
			MaxIdleConns:     getEnvInt("POSTGRES_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime:  getEnvInt("POSTGRES_CONN_MAX_LIFETIME", 300),
			ConnMaxIdleTime:  getEnvInt("POSTGRES_CONN_MAX_IDLE_TIME", 60),
			StatementTimeout: getEnvDuration("POSTGRES_STATEMENT_TIMEOUT", 10*time.Second),
		},
		Redis: RedisConfig{
			Addr:          getEnv("REDIS_ADDR", "localhost:6379"),
			Password:      getEnv("REDIS_PASSWORD", ""),
			DB:            getEnvInt("REDIS_DB", 0),
			LockTTL:       getEnvDuration("REDIS_LOCK_TTL", 30*time.Second),
			PermissionTTL: getEnvDuration("REDIS_PERMISSION_TTL", time.Minute),
		},
		Kafka: KafkaConfig{
			Brokers:       getEnvSlice("KAFKA_BROKERS", []string{"localhost:9092"}),
			OrderTopic:    getEnv("KAFKA_TOPIC_ORDER_REQUESTS", "storefront.orders"),
			GroupID:       getEnv("KAFKA_GROUP_STOCK", "stock"),
			OutcomesTopic: getEnv("KAFKA_TOPIC_OUTCOMES", "stock.outcomes"),
		},
		Elastic: ElasticsearchConfig{
			Enabled:     getEnvBool("ELASTICSEARCH_ENABLED", true),
			Addresses:   getEnvSlice("ELASTICSEARCH_ADDRESSES", []string{"http://localhost:9200"}),
			Username:    getEnv("ELASTICSEARCH_USERNAME", ""),
			Password:    getEnv("ELASTICSEARCH_PASSWORD", ""),
			LedgerIndex: getEnv("ELASTICSEARCH_LEDGER_INDEX", "stock-ledger"),
		},
		Otel: OtelConfig{
			ServiceName:   getEnv("OTEL_SERVICE_NAME", "omnipos-stock-service"),
			Endpoint:      getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			URLPath:       getEnv("OTEL_EXPORTER_OTLP_TRACES_PATH", "/v1/traces"),
			AuthHeader:    getEnv("OTEL_EXPORTER_OTLP_AUTH", ""),
			Insecure:      getEnvBool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ExportTimeout: getEnvDuration("OTEL_EXPORT_TIMEOUT", 10*time.Second),
			MaxQueueSize:  getEnvInt("OTEL_MAX_QUEUE_SIZE", 2048),
		},
		Notify: NotifyConfig{
			Lang:        getEnv("NOTIFY_LANG", "en"),
			SinkTimeout: getEnvDuration("NOTIFY_SINK_TIMEOUT", 2*time.Second),
		},
		Stock: StockConfig{
			LowThreshold:        getEnvInt("STOCK_LOW_THRESHOLD", 5),
			DefaultSlotCapacity: getEnvInt("STOCK_DEFAULT_SLOT_CAPACITY", 100),
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
	if value, ok := os.LookupEnv(key); ok {
		return strings.Split(value, ",")
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
