package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "runhooks.yaml"

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// The YAML file is optional; RUNHOOKS_CONFIG overrides its path.
func Load() (*Config, error) {
	return LoadFrom(envOr("RUNHOOKS_CONFIG", DefaultConfigFile))
}

// LoadFrom returns a Config loaded from the given YAML path.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// loadYAML unmarshals the file over cfg. A missing file is not an error.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: operator supplied path
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays non-empty environment variables onto cfg.
func loadEnv(cfg *Config) {
	setString(&cfg.Server.Port, "RUNHOOKS_PORT")
	setString(&cfg.Server.CORSOrigin, "RUNHOOKS_CORS_ORIGIN")
	setList(&cfg.Server.WSOrigins, "RUNHOOKS_WS_ORIGINS")

	setString(&cfg.Postgres.DSN, "DATABASE_URL")
	setInt32(&cfg.Postgres.MaxConns, "RUNHOOKS_PG_MAX_CONNS")
	setInt32(&cfg.Postgres.MinConns, "RUNHOOKS_PG_MIN_CONNS")
	setDuration(&cfg.Postgres.MaxConnLifetime, "RUNHOOKS_PG_MAX_CONN_LIFETIME")
	setDuration(&cfg.Postgres.MaxConnIdleTime, "RUNHOOKS_PG_MAX_CONN_IDLE_TIME")
	setDuration(&cfg.Postgres.HealthCheck, "RUNHOOKS_PG_HEALTH_CHECK")

	setString(&cfg.NATS.URL, "NATS_URL")
	setString(&cfg.NATS.Stream, "RUNHOOKS_NATS_STREAM")

	setString(&cfg.Logging.Level, "RUNHOOKS_LOG_LEVEL")
	setString(&cfg.Logging.Service, "RUNHOOKS_LOG_SERVICE")
	setBool(&cfg.Logging.Async, "RUNHOOKS_LOG_ASYNC")

	setInt(&cfg.Breaker.MaxFailures, "RUNHOOKS_BREAKER_MAX_FAILURES")
	setDuration(&cfg.Breaker.Timeout, "RUNHOOKS_BREAKER_TIMEOUT")

	setString(&cfg.Dashboard.URL, "RUNHOOKS_DASHBOARD_URL")

	setDuration(&cfg.Delivery.Timeout, "RUNHOOKS_DELIVERY_TIMEOUT")
	setInt(&cfg.Delivery.MaxConcurrent, "RUNHOOKS_DELIVERY_MAX_CONCURRENT")
	setString(&cfg.Delivery.UserAgent, "RUNHOOKS_DELIVERY_USER_AGENT")

	setInt64(&cfg.Cache.L1MaxSizeMB, "RUNHOOKS_CACHE_L1_SIZE_MB")
	setString(&cfg.Cache.L2Bucket, "RUNHOOKS_CACHE_L2_BUCKET")
	setDuration(&cfg.Cache.L2TTL, "RUNHOOKS_CACHE_L2_TTL")

	setBool(&cfg.Telemetry.Enabled, "RUNHOOKS_OTEL_ENABLED")
	setString(&cfg.Telemetry.OTLPEndpoint, "RUNHOOKS_OTEL_ENDPOINT")
	setBool(&cfg.Telemetry.Insecure, "RUNHOOKS_OTEL_INSECURE")

	setString(&cfg.Events.Subject, "RUNHOOKS_EVENTS_SUBJECT")
	setString(&cfg.Events.Secret, "RUNHOOKS_EVENTS_SECRET")
}

// validate checks that required fields are set.
func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if cfg.Postgres.DSN == "" {
		return errors.New("postgres.dsn is required")
	}
	if cfg.Postgres.MaxConns < 1 {
		return errors.New("postgres.max_conns must be >= 1")
	}
	if cfg.Breaker.MaxFailures < 1 {
		return errors.New("breaker.max_failures must be >= 1")
	}
	if cfg.Delivery.MaxConcurrent < 1 {
		return errors.New("delivery.max_concurrent must be >= 1")
	}
	if cfg.Delivery.Timeout <= 0 {
		return errors.New("delivery.timeout must be > 0")
	}
	u, err := url.Parse(cfg.Dashboard.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("dashboard.url %q must be an absolute http(s) URL", cfg.Dashboard.URL)
	}
	if cfg.Telemetry.Enabled && cfg.Telemetry.OTLPEndpoint == "" {
		return errors.New("telemetry.otlp_endpoint is required when telemetry is enabled")
	}
	if cfg.NATS.URL != "" && cfg.Events.Subject == "" {
		return errors.New("events.subject is required when nats.url is set")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setList(dst *[]string, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	var out []string
	for part := range strings.SplitSeq(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	*dst = out
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt32(dst *int32, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 32); err == nil {
			*dst = int32(n)
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
