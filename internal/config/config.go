package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/Skotchmaster/auth_backend/internal/hash"
	env "github.com/Skotchmaster/auth_backend/pkg/config"
)

const (
	DefaultHTTPAddr = ":4000"
	DefaultStoreURL = "mongodb://localhost/app"
	DefaultTokenTTL = 10 * time.Minute

	DefaultWriteTimeout  = 30 * time.Second
	DefaultLatencyBudget = 20 * time.Second
)

type LatencyConfig struct {
	Host     string        `yaml:"host"`
	Port     int           `yaml:"port"`
	Attempts int           `yaml:"attempts"`
	Timeout  time.Duration `yaml:"timeout"`
	// Budget bounds the whole latency run and must stay below the HTTP write
	// timeout so the client still gets the error response.
	Budget time.Duration `yaml:"budget"`
}

type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

type Config struct {
	HTTPAddr     string        `yaml:"http_addr"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	StoreURL     string        `yaml:"store_url"`
	TokenTTL     time.Duration `yaml:"token_ttl"`
	PasswordHash string        `yaml:"password_hash"`
	LogLevel     string        `yaml:"log_level"`
	Latency      LatencyConfig `yaml:"latency"`
	Kafka        KafkaConfig   `yaml:"kafka"`
}

func Defaults() Config {
	return Config{
		HTTPAddr:     DefaultHTTPAddr,
		WriteTimeout: DefaultWriteTimeout,
		StoreURL:     DefaultStoreURL,
		TokenTTL:     DefaultTokenTTL,
		PasswordHash: hash.SchemeSHA256,
		LogLevel:     "info",
		Latency: LatencyConfig{
			Host:     "google.com",
			Port:     443,
			Attempts: 10,
			Timeout:  5 * time.Second,
			Budget:   DefaultLatencyBudget,
		},
		Kafka: KafkaConfig{
			Topic: "user_events",
		},
	}
}

// Load reads .env, then the optional YAML file named by CONFIG_FILE, then
// environment overrides.
func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}

	cfg := Defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.readFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) readFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config file: %w", err)
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(c); err != nil {
		return fmt.Errorf("decode config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.HTTPAddr = env.EnvDefault("HTTP_ADDR", c.HTTPAddr)
	c.WriteTimeout = env.EnvDurationDefault("HTTP_WRITE_TIMEOUT", c.WriteTimeout)
	c.StoreURL = env.EnvFirst(c.StoreURL, "MONGO_CONNECTION_URL", "DATABASE_URL")
	c.TokenTTL = env.EnvDurationDefault("TOKEN_TTL", c.TokenTTL)
	c.PasswordHash = env.EnvDefault("PASSWORD_HASH", c.PasswordHash)
	c.LogLevel = env.EnvDefault("LOG_LEVEL", c.LogLevel)

	c.Latency.Host = env.EnvDefault("LATENCY_HOST", c.Latency.Host)
	c.Latency.Port = env.EnvIntDefault("LATENCY_PORT", c.Latency.Port)
	c.Latency.Attempts = env.EnvIntDefault("LATENCY_ATTEMPTS", c.Latency.Attempts)
	c.Latency.Timeout = env.EnvDurationDefault("LATENCY_TIMEOUT", c.Latency.Timeout)
	c.Latency.Budget = env.EnvDurationDefault("LATENCY_BUDGET", c.Latency.Budget)

	if brokers := env.CSV(os.Getenv("KAFKA_BROKERS")); len(brokers) > 0 {
		c.Kafka.Brokers = brokers
	}
	c.Kafka.Topic = env.EnvDefault("KAFKA_TOPIC", c.Kafka.Topic)
}

func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.StoreURL) == "" {
		errs = append(errs, errors.New("store url is empty"))
	}
	if c.TokenTTL <= 0 {
		errs = append(errs, fmt.Errorf("token ttl must be positive, got %s", c.TokenTTL))
	}
	if _, err := hash.NewPasswordHasher(c.PasswordHash); err != nil {
		errs = append(errs, err)
	}
	if c.Latency.Port < 1 || c.Latency.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid latency port: %d", c.Latency.Port))
	}
	if c.Latency.Attempts < 1 {
		errs = append(errs, fmt.Errorf("latency attempts must be positive, got %d", c.Latency.Attempts))
	}
	if c.Latency.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("latency timeout must be positive, got %s", c.Latency.Timeout))
	}
	if c.WriteTimeout <= 0 {
		errs = append(errs, fmt.Errorf("http write timeout must be positive, got %s", c.WriteTimeout))
	}
	if c.Latency.Budget <= 0 || c.Latency.Budget >= c.WriteTimeout {
		errs = append(errs, fmt.Errorf("latency budget %s must be positive and below the http write timeout %s", c.Latency.Budget, c.WriteTimeout))
	}
	if len(c.Kafka.Brokers) > 0 && c.Kafka.Topic == "" {
		errs = append(errs, errors.New("kafka topic is required when brokers are set"))
	}
	return errors.Join(errs...)
}
