package config

import (
	"time"

	pkgconfig "github.com/classcast/classcast/pkg/config"
	"github.com/classcast/classcast/pkg/pubsub"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	PubSub   pubsub.Config `mapstructure:"pubsub"`
	Auth     AuthConfig
	Chat     ChatConfig
	Presence PresenceConfig
	Sync     SyncConfig
	Log      LogConfig
}

type ServerConfig struct {
	Host string
	Port int
}

type DatabaseConfig struct {
	Driver          string `mapstructure:"driver"`
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	FilePath        string `mapstructure:"file_path"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
}

type AuthConfig struct {
	Secret        string
	TokenDuration time.Duration `mapstructure:"token_duration"`
	Issuer        string
}

type ChatConfig struct {
	// Sliding-window rate limit per identity.
	RateLimitMessages int           `mapstructure:"rate_limit_messages"`
	RateLimitWindow   time.Duration `mapstructure:"rate_limit_window"`
	HistoryLimit      int           `mapstructure:"history_limit"`
}

type PresenceConfig struct {
	MemberTTL time.Duration `mapstructure:"member_ttl"`
	// CountBase is a display-only constant added to the live member count.
	CountBase int `mapstructure:"count_base"`
}

type SyncConfig struct {
	// DriftTolerance is how far a viewer's playback may drift from the
	// broadcast position before a forced re-seek.
	DriftTolerance time.Duration `mapstructure:"drift_tolerance"`
}

type LogConfig struct {
	Level string
}

func Load() (*Config, error) {
	v, err := pkgconfig.Load("./config", "config")
	if err != nil {
		return nil, err
	}

	// Set defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8086)
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "classcast")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.file_path", "./data/classcast.db")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 100)
	v.SetDefault("database.conn_max_lifetime", 60)
	v.SetDefault("pubsub.driver", "redis")
	v.SetDefault("pubsub.redis.address", "localhost:6379")
	v.SetDefault("pubsub.redis.pool_size", 10)
	v.SetDefault("pubsub.redis.read_timeout", 3*time.Second)
	v.SetDefault("pubsub.redis.write_timeout", 3*time.Second)
	v.SetDefault("pubsub.kafka.brokers", "localhost:9092")
	v.SetDefault("pubsub.kafka.group_id", "classcast")
	v.SetDefault("auth.secret", "dev-secret-change-me")
	v.SetDefault("auth.token_duration", 12*time.Hour)
	v.SetDefault("auth.issuer", "classcast")
	v.SetDefault("chat.rate_limit_messages", 10)
	v.SetDefault("chat.rate_limit_window", time.Minute)
	v.SetDefault("chat.history_limit", 100)
	v.SetDefault("presence.member_ttl", 2*time.Minute)
	v.SetDefault("presence.count_base", 0)
	v.SetDefault("sync.drift_tolerance", 3*time.Second)
	v.SetDefault("log.level", "info")

	// Bind environment variables
	v.BindEnv("server.port", "PORT")
	v.BindEnv("database.driver", "DB_DRIVER")
	v.BindEnv("database.host", "DB_HOST")
	v.BindEnv("database.port", "DB_PORT")
	v.BindEnv("database.user", "DB_USER")
	v.BindEnv("database.password", "DB_PASSWORD")
	v.BindEnv("database.dbname", "DB_NAME")
	v.BindEnv("database.sslmode", "DB_SSLMODE")
	v.BindEnv("database.file_path", "DB_FILE_PATH")
	v.BindEnv("pubsub.driver", "PUBSUB_DRIVER")
	v.BindEnv("pubsub.redis.address", "REDIS_ADDRESS")
	v.BindEnv("pubsub.redis.password", "REDIS_PASSWORD")
	v.BindEnv("pubsub.kafka.brokers", "KAFKA_BROKERS")
	v.BindEnv("auth.secret", "AUTH_SECRET")
	v.BindEnv("chat.rate_limit_messages", "CHAT_RATE_LIMIT")
	v.BindEnv("presence.count_base", "PRESENCE_COUNT_BASE")
	v.BindEnv("log.level", "LOG_LEVEL")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
