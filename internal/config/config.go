package config

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	ListenAddr        string `mapstructure:"listen_addr"`
	DatabaseURL       string `mapstructure:"database_url"`
	RedisAddr         string `mapstructure:"redis_addr"`
	APIToken          string `mapstructure:"api_token"`
	MinioEndpoint     string `mapstructure:"minio_endpoint"`
	MinioBucket       string `mapstructure:"minio_bucket"`
	MinioAccessKey    string `mapstructure:"minio_access_key"`
	MinioSecretKey    string `mapstructure:"minio_secret_key"`
	S3Region          string `mapstructure:"s3_region"`
	WorkerConcurrency int    `mapstructure:"worker_concurrency"`
}

var keys = []string{
	"listen_addr", "database_url", "redis_addr", "api_token",
	"minio_endpoint", "minio_bucket", "minio_access_key", "minio_secret_key",
	"s3_region", "worker_concurrency",
}

// Load reads configuration from the environment, after loading an optional
// .env file from the working directory.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("warning: .env: %v", err)
	}

	v := viper.New()
	v.SetDefault("listen_addr", ":8000")
	v.SetDefault("redis_addr", "localhost:6379")
	v.SetDefault("s3_region", "us-east-1")
	v.SetDefault("worker_concurrency", 5)
	v.AutomaticEnv()
	// Unmarshal only sees keys viper already knows about.
	for _, k := range keys {
		if err := v.BindEnv(k); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := validate(cfg); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func validate(cfg Config) error {
	if cfg.DatabaseURL == "" {
		return errors.New("DATABASE_URL is not set")
	}
	if cfg.WorkerConcurrency < 1 {
		return errors.New("WORKER_CONCURRENCY must be at least 1")
	}
	return nil
}

// StorageEnabled reports whether object storage is configured.
func (c Config) StorageEnabled() bool {
	return c.MinioEndpoint != "" && c.MinioBucket != ""
}
