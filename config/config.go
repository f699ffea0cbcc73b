package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Ledger backends.
const (
	LedgerMemory   = "memory"
	LedgerPostgres = "postgres"
	LedgerRedis    = "redis"
)

// Configuration validation errors.
var (
	ErrInvalidLedgerBackend = errors.New("ledger_backend must be one of: memory, postgres, redis")
	ErrMissingOutputDir     = errors.New("output_dir is required")
	ErrInvalidConcurrency   = errors.New("max_concurrency must be at least 1")
	ErrInvalidRetries       = errors.New("max_retries must be at least 1")
	ErrMissingRedisAddr     = errors.New("redis_addr is required for the redis ledger")
	ErrInvalidLogLevel      = errors.New("log_level must be one of: debug, info, warn, error")
)

// Config holds all application configuration. Values come from built-in
// defaults, then an optional YAML file named by NORMALIZER_CONFIG, then
// environment variables (including a .env file).
type Config struct {
	OutputDir       string `yaml:"output_dir"`
	MaxConcurrency  int    `yaml:"max_concurrency"`
	ContinueOnError bool   `yaml:"continue_on_error"`
	LogLevel        string `yaml:"log_level"`

	LedgerBackend string `yaml:"ledger_backend"`
	MaxRetries    int    `yaml:"max_retries"`

	PostgresHost     string `yaml:"postgres_host"`
	PostgresPort     string `yaml:"postgres_port"`
	PostgresUser     string `yaml:"postgres_user"`
	PostgresPassword string `yaml:"postgres_password"`
	PostgresDB       string `yaml:"postgres_db"`
	PostgresSSLMode  string `yaml:"postgres_sslmode"`

	RedisAddr      string `yaml:"redis_addr"`
	RedisPassword  string `yaml:"redis_password"`
	RedisDB        int    `yaml:"redis_db"`
	RedisKeyPrefix string `yaml:"redis_key_prefix"`
	RedisKeyTTLSec int    `yaml:"redis_key_ttl_sec"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		OutputDir:      ".",
		MaxConcurrency: 1,
		LogLevel:       "info",

		LedgerBackend: LedgerMemory,
		MaxRetries:    3,

		PostgresHost:    "localhost",
		PostgresPort:    "5432",
		PostgresUser:    "normalizer",
		PostgresDB:      "ebay",
		PostgresSSLMode: "disable",

		RedisKeyPrefix: "ebay-normalizer",
		RedisKeyTTLSec: 86400,
	}
}

// Load reads the .env file, the optional YAML file and the environment, and
// returns a validated Config.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	cfg := Default()

	if path := strings.TrimSpace(os.Getenv("NORMALIZER_CONFIG")); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("config: parse %q: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.OutputDir = getEnv("OUTPUT_DIR", c.OutputDir)
	c.MaxConcurrency = getEnvInt("MAX_CONCURRENCY", c.MaxConcurrency)
	c.ContinueOnError = getEnvBool("CONTINUE_ON_ERROR", c.ContinueOnError)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)

	c.LedgerBackend = getEnv("LEDGER_BACKEND", c.LedgerBackend)
	c.MaxRetries = getEnvInt("MAX_RETRIES", c.MaxRetries)

	c.PostgresHost = getEnv("POSTGRES_HOST", c.PostgresHost)
	c.PostgresPort = getEnv("POSTGRES_PORT", c.PostgresPort)
	c.PostgresUser = getEnv("POSTGRES_USER", c.PostgresUser)
	c.PostgresPassword = getEnv("POSTGRES_PASSWORD", c.PostgresPassword)
	c.PostgresDB = getEnv("POSTGRES_DB", c.PostgresDB)
	c.PostgresSSLMode = getEnv("POSTGRES_SSLMODE", c.PostgresSSLMode)

	c.RedisAddr = getEnv("REDIS_ADDR", c.RedisAddr)
	c.RedisPassword = getEnv("REDIS_PASSWORD", c.RedisPassword)
	c.RedisDB = getEnvInt("REDIS_DB", c.RedisDB)
	c.RedisKeyPrefix = getEnv("REDIS_KEY_PREFIX", c.RedisKeyPrefix)
	c.RedisKeyTTLSec = getEnvInt("REDIS_KEY_TTL_SEC", c.RedisKeyTTLSec)
}

// Validate checks the configuration for inconsistent values.
func (c *Config) Validate() error {
	c.LedgerBackend = strings.ToLower(strings.TrimSpace(c.LedgerBackend))
	switch c.LedgerBackend {
	case LedgerMemory, LedgerPostgres:
	case LedgerRedis:
		if c.RedisAddr == "" {
			return ErrMissingRedisAddr
		}
	default:
		return ErrInvalidLedgerBackend
	}

	if strings.TrimSpace(c.OutputDir) == "" {
		return ErrMissingOutputDir
	}
	if c.MaxConcurrency < 1 {
		return ErrInvalidConcurrency
	}
	if c.MaxRetries < 1 {
		return ErrInvalidRetries
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return ErrInvalidLogLevel
	}
	return nil
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

// RedisKeyTTL returns the lifetime of ledger keys stored in Redis.
func (c *Config) RedisKeyTTL() time.Duration {
	return time.Duration(c.RedisKeyTTLSec) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
	}
	return fallback
}
