package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Postgres  PostgresConfig  `yaml:"postgres"`
	Redis     RedisConfig     `yaml:"redis"`
	Detection DetectionConfig `yaml:"detection"`
	Ingestion IngestionConfig `yaml:"ingestion"`
	Logging   LoggingConfig   `yaml:"logging"`
	OTel      OTelConfig      `yaml:"otel"`
}

type HTTPConfig struct {
	Port            int      `yaml:"port"`
	ShutdownSec     int      `yaml:"shutdown_timeout_sec"`
	MaxUploadMB     int      `yaml:"max_upload_mb"`
	AllowedOrigins  []string `yaml:"allowed_origins"`
	ReadTimeoutSec  int      `yaml:"read_timeout_sec"`
	WriteTimeoutSec int      `yaml:"write_timeout_sec"`
}

type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"sslmode"`
	MaxConns int    `yaml:"max_conns"`
}

// DSN renders the connection URL.
func (p PostgresConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(p.User, p.Password),
		Host:     fmt.Sprintf("%s:%d", p.Host, p.Port),
		Path:     "/" + p.Name,
		RawQuery: "sslmode=" + p.SSLMode,
	}
	return u.String()
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type DetectionConfig struct {
	CacheBackend    string `yaml:"cache_backend"` // memory, redis, none
	CacheTTLSeconds int    `yaml:"cache_ttl_seconds"`
	CachePrefix     string `yaml:"cache_prefix"`
}

func (d DetectionConfig) CacheTTL() time.Duration {
	return time.Duration(d.CacheTTLSeconds) * time.Second
}

type IngestionConfig struct {
	BatchSize  int `yaml:"batch_size"`
	MaxRetries int `yaml:"max_retries"`
}

type LoggingConfig struct {
	Mode string `yaml:"mode"` // dev, prod, test
}

type OTelConfig struct {
	Enabled     bool    `yaml:"enabled"`
	Exporter    string  `yaml:"exporter"` // stdout, otlp
	Endpoint    string  `yaml:"endpoint"`
	ServiceName string  `yaml:"service_name"`
	SampleRatio float64 `yaml:"sample_ratio"`
}

// Default returns the configuration used when nothing else is set.
func Default() Config {
	return Config{
		HTTP: HTTPConfig{
			Port:            8080,
			ShutdownSec:     10,
			MaxUploadMB:     64,
			ReadTimeoutSec:  30,
			WriteTimeoutSec: 120,
		},
		Postgres: PostgresConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "postgres",
			Name:     "dxplatform",
			SSLMode:  "disable",
			MaxConns: 20,
		},
		Detection: DetectionConfig{
			CacheBackend:    "memory",
			CacheTTLSeconds: 300,
			CachePrefix:     "dx:detect:",
		},
		Ingestion: IngestionConfig{
			BatchSize:  500,
			MaxRetries: 3,
		},
		Logging: LoggingConfig{Mode: "dev"},
		OTel: OTelConfig{
			Exporter:    "stdout",
			ServiceName: "dxplatform-backend",
			SampleRatio: 1,
		},
	}
}

// Load resolves configuration with precedence env > YAML file (DX_CONFIG_FILE) > .env > defaults.
// Variables from .env never override ones already present in the environment.
func Load() (Config, error) {
	cfg := Default()

	if envPath := findDotEnv(); envPath != "" {
		_ = godotenv.Load(envPath)
	}

	if path := strings.TrimSpace(os.Getenv("DX_CONFIG_FILE")); path != "" {
		if err := loadYAML(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func loadYAML(path string, cfg *Config) error {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	data = []byte(os.ExpandEnv(string(data)))
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	var errs []error
	str := func(key string, dst *string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) {
		v := strings.TrimSpace(os.Getenv(key))
		if v == "" {
			return
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = n
	}

	num("PORT", &cfg.HTTP.Port)
	num("HTTP_MAX_UPLOAD_MB", &cfg.HTTP.MaxUploadMB)
	if v := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS")); v != "" {
		cfg.HTTP.AllowedOrigins = splitCSV(v)
	}

	str("POSTGRES_HOST", &cfg.Postgres.Host)
	num("POSTGRES_PORT", &cfg.Postgres.Port)
	str("POSTGRES_USER", &cfg.Postgres.User)
	str("POSTGRES_PASSWORD", &cfg.Postgres.Password)
	str("POSTGRES_NAME", &cfg.Postgres.Name)
	str("POSTGRES_SSLMODE", &cfg.Postgres.SSLMode)
	num("POSTGRES_MAX_CONNS", &cfg.Postgres.MaxConns)

	str("REDIS_ADDR", &cfg.Redis.Addr)
	str("REDIS_PASSWORD", &cfg.Redis.Password)
	num("REDIS_DB", &cfg.Redis.DB)

	str("DETECTION_CACHE_BACKEND", &cfg.Detection.CacheBackend)
	num("DETECTION_CACHE_TTL_SECONDS", &cfg.Detection.CacheTTLSeconds)

	num("INGEST_BATCH_SIZE", &cfg.Ingestion.BatchSize)
	num("INGEST_MAX_RETRIES", &cfg.Ingestion.MaxRetries)

	str("LOG_MODE", &cfg.Logging.Mode)

	if v := strings.TrimSpace(os.Getenv("OTEL_ENABLED")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("OTEL_ENABLED: %w", err))
		} else {
			cfg.OTel.Enabled = b
		}
	}
	str("OTEL_EXPORTER", &cfg.OTel.Exporter)
	str("OTEL_EXPORTER_OTLP_ENDPOINT", &cfg.OTel.Endpoint)
	str("OTEL_SERVICE_NAME", &cfg.OTel.ServiceName)

	return errors.Join(errs...)
}

// Validate checks ranges.
func (c Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if strings.TrimSpace(c.Postgres.Host) == "" || strings.TrimSpace(c.Postgres.Name) == "" {
		return fmt.Errorf("postgres.host and postgres.name are required")
	}
	switch c.Detection.CacheBackend {
	case "memory", "none":
	case "redis":
		if strings.TrimSpace(c.Redis.Addr) == "" {
			return fmt.Errorf("redis.addr is required when detection.cache_backend is redis")
		}
	default:
		return fmt.Errorf("detection.cache_backend must be memory, redis or none, got %q", c.Detection.CacheBackend)
	}
	if c.Detection.CacheTTLSeconds <= 0 {
		return fmt.Errorf("detection.cache_ttl_seconds must be positive, got %d", c.Detection.CacheTTLSeconds)
	}
	if c.Ingestion.BatchSize <= 0 {
		return fmt.Errorf("ingestion.batch_size must be positive, got %d", c.Ingestion.BatchSize)
	}
	if c.Ingestion.MaxRetries < 0 {
		return fmt.Errorf("ingestion.max_retries must not be negative, got %d", c.Ingestion.MaxRetries)
	}
	return nil
}

// findDotEnv walks up from the working directory looking for .env.
func findDotEnv() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		p := filepath.Join(dir, ".env")
		if _, err := os.Stat(p); err == nil {
			return p
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
