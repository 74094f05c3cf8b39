package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config is the full service configuration. Values come from an optional
// YAML file pointed to by CONFIG_PATH, with environment variables taking
// precedence and defaults filling the rest.
type Config struct {
	Env        string `yaml:"env" env:"APP_ENV" env-default:"local"`
	HTTPServer `yaml:"http_server"`
	Storage    `yaml:"storage"`
	Kafka      `yaml:"kafka"`
	NBP        `yaml:"nbp"`
}

type HTTPServer struct {
	Host string `yaml:"host" env:"HTTP_HOST" env-default:"0.0.0.0"`
	Port string `yaml:"port" env:"HTTP_PORT" env-default:"8080"`
}

type Storage struct {
	// Driver selects the store implementation: "memory" or "postgres".
	Driver         string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"memory"`
	PostgresDSN    string `yaml:"postgres_dsn" env:"POSTGRES_DSN"`
	MigrationsPath string `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"migrations"`
}

type Kafka struct {
	Enabled bool     `yaml:"enabled" env:"KAFKA_ENABLED" env-default:"false"`
	Brokers []string `yaml:"brokers" env:"KAFKA_BROKERS" env-separator:","`
	Topic   string   `yaml:"topic" env:"KAFKA_TOPIC" env-default:"trade-completed"`
}

type NBP struct {
	BaseURL string        `yaml:"base_url" env:"NBP_BASE_URL" env-default:"https://api.nbp.pl/api"`
	Timeout time.Duration `yaml:"timeout" env:"NBP_TIMEOUT" env-default:"5s"`
}

// Load reads the configuration from CONFIG_PATH (if set) and the environment.
func Load() (*Config, error) {
	var cfg Config

	if configPath := os.Getenv("CONFIG_PATH"); configPath != "" {
		if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
			return nil, err
		}
		return &cfg, nil
	}

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// MustLoad is Load that exits on error, for use in main.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}
