package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port     string `env:"PORT,      default=8090"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	Backend  BackendConfig
	Token    TokenConfig
	Mongo    MongoConfig
	Redis    RedisConfig
	Realtime RealtimeConfig
}

type BackendConfig struct {
	BaseURL string        `env:"BACKEND_BASE_URL, default=http://localhost:8080"`
	WSURL   string        `env:"BACKEND_WS_URL,   default=ws://localhost:8080/chat"`
	Timeout time.Duration `env:"BACKEND_TIMEOUT,  default=15s"`
}

type TokenConfig struct {
	Path string `env:"TOKEN_PATH, default=.gateway/token"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=session_gateway"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

type RealtimeConfig struct {
	Workers int `env:"REALTIME_WORKERS, default=4"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}
