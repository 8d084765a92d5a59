package config

import (
	"bufio"
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Config holds the application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Crawler   CrawlerConfig   `mapstructure:"crawler"`
	Importer  ImporterConfig  `mapstructure:"importer"`
	Golden    GoldenConfig    `mapstructure:"golden"`
	Chat      ChatConfig      `mapstructure:"chat"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	Host         string        `mapstructure:"host"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	URL             string        `mapstructure:"url"`
	MaxConnections  int           `mapstructure:"max_connections"`
	MinConnections  int           `mapstructure:"min_connections"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
}

// CrawlerConfig holds crawl orchestration configuration
type CrawlerConfig struct {
	Root            string `mapstructure:"root"`
	ControlPlaneURL string `mapstructure:"control_plane_url"`
	InternalAPIKey  string `mapstructure:"internal_api_key"`
	UserAgent       string `mapstructure:"user_agent"`
}

// ImporterConfig holds import engine configuration
type ImporterConfig struct {
	Concurrency  int           `mapstructure:"concurrency"`
	ChainTimeout time.Duration `mapstructure:"chain_timeout"`
}

// GoldenConfig holds golden-record pipeline configuration
type GoldenConfig struct {
	BatchSize      int    `mapstructure:"batch_size"`
	Workers        int    `mapstructure:"workers"`
	OpenAIAPIKey   string `mapstructure:"openai_api_key"`
	LLMModel       string `mapstructure:"llm_model"`
	EmbeddingModel string `mapstructure:"embedding_model"`
}

// ChatConfig holds chat orchestrator configuration
type ChatConfig struct {
	MaxToolCalls int `mapstructure:"max_tool_calls"`
	HistoryLimit int `mapstructure:"history_limit"`
}

// AuthConfig holds JWT and password authentication configuration
type AuthConfig struct {
	JWTSecret  string        `mapstructure:"jwt_secret"`
	AccessTTL  time.Duration `mapstructure:"access_ttl"`
	RefreshTTL time.Duration `mapstructure:"refresh_ttl"`
}

// MetricsConfig holds Prometheus push configuration
type MetricsConfig struct {
	PushgatewayURL string `mapstructure:"pushgateway_url"`
}

// RateLimitConfig holds rate limiting configuration. The first group
// throttles outbound crawl requests; the API fields throttle inbound
// HTTP traffic.
type RateLimitConfig struct {
	RequestsPerSecond    int `mapstructure:"requests_per_second"`
	MaxRetries           int `mapstructure:"max_retries"`
	InitialBackoffMs     int `mapstructure:"initial_backoff_ms"`
	MaxBackoffMs         int `mapstructure:"max_backoff_ms"`
	APIRequestsPerSecond int `mapstructure:"api_requests_per_second"`
	APIBurst             int `mapstructure:"api_burst"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level   string `mapstructure:"level"`
	Format  string `mapstructure:"format"`
	NoColor bool   `mapstructure:"no_color"`
}

var globalConfig *Config

// Load loads the configuration from file, .env, and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	if err := loadEnvFile(); err != nil {
		// .env is optional, log but don't fail
		log.Warn().Err(err).Msg("Warning: .env file not loaded")
	}

	v.AutomaticEnv()
	v.SetEnvPrefix("CATALOG_SERVICE")

	bindEnvVars(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found, use defaults and env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	globalConfig = &cfg
	return &cfg, nil
}

// loadEnvFile loads a .env file by parsing KEY=VALUE lines into the environment
func loadEnvFile() error {
	envPaths := []string{
		".",
		"./config",
	}

	for _, path := range envPaths {
		envFile := fmt.Sprintf("%s/.env", path)
		if _, err := os.Stat(envFile); err == nil {
			if err := loadDotEnvFile(envFile); err == nil {
				return nil
			}
		}
	}
	return fmt.Errorf("no .env file found")
}

// loadDotEnvFile reads a .env file and sets environment variables
func loadDotEnvFile(filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) == 2 {
			key := strings.TrimSpace(parts[0])
			value := strings.TrimSpace(parts[1])
			value = strings.Trim(value, "\"'")
			os.Setenv(key, value)
		}
	}
	return scanner.Err()
}

// bindEnvVars binds environment variables to config keys
func bindEnvVars(v *viper.Viper) {
	v.BindEnv("database.url", "DATABASE_URL")

	v.BindEnv("server.port", "PORT")
	v.BindEnv("server.host", "HOST")

	v.BindEnv("crawler.control_plane_url", "CONTROL_PLANE_URL")
	v.BindEnv("crawler.internal_api_key", "INTERNAL_API_KEY")
	v.BindEnv("crawler.root", "CRAWLER_ROOT")

	v.BindEnv("golden.openai_api_key", "OPENAI_API_KEY")
	v.BindEnv("golden.llm_model", "LLM_MODEL")
	v.BindEnv("golden.embedding_model", "EMBEDDING_MODEL")

	v.BindEnv("auth.jwt_secret", "JWT_SECRET")

	v.BindEnv("metrics.pushgateway_url", "PUSHGATEWAY_URL")

	v.BindEnv("logging.level", "LOG_LEVEL")
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)

	v.SetDefault("database.max_connections", 25)
	v.SetDefault("database.min_connections", 5)
	v.SetDefault("database.max_conn_lifetime", 1*time.Hour)
	v.SetDefault("database.max_conn_idle_time", 30*time.Minute)

	v.SetDefault("crawler.root", "./data/archives")
	v.SetDefault("crawler.user_agent", "Kosarica-CatalogService/1.0")

	v.SetDefault("importer.concurrency", 4)
	v.SetDefault("importer.chain_timeout", 10*time.Minute)

	v.SetDefault("golden.batch_size", 500)
	v.SetDefault("golden.workers", runtime.NumCPU())
	v.SetDefault("golden.llm_model", "gpt-4o-mini")
	v.SetDefault("golden.embedding_model", "text-embedding-3-small")

	v.SetDefault("chat.max_tool_calls", 8)
	v.SetDefault("chat.history_limit", 30)

	v.SetDefault("auth.access_ttl", 15*time.Minute)
	v.SetDefault("auth.refresh_ttl", 720*time.Hour)

	v.SetDefault("rate_limit.requests_per_second", 2)
	v.SetDefault("rate_limit.max_retries", 3)
	v.SetDefault("rate_limit.initial_backoff_ms", 100)
	v.SetDefault("rate_limit.max_backoff_ms", 30000)
	v.SetDefault("rate_limit.api_requests_per_second", 50)
	v.SetDefault("rate_limit.api_burst", 100)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.no_color", false)
}

// Get returns the global configuration
func Get() *Config {
	return globalConfig
}

// GetDatabaseURL returns the database URL from config or environment
func GetDatabaseURL() string {
	if cfg := Get(); cfg != nil && cfg.Database.URL != "" {
		return cfg.Database.URL
	}
	return os.Getenv("DATABASE_URL")
}
