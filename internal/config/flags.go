package config

import (
	"fmt"

	"github.com/spf13/pflag"
)

// CLIFlags holds command-line overrides. A nil field was not given.
type CLIFlags struct {
	ConfigPath   *string
	Port         *string
	LogLevel     *string
	DSN          *string
	NatsURL      *string
	DashboardURL *string
}

type flagValues struct {
	fs           *pflag.FlagSet
	config       string
	port         string
	logLevel     string
	dsn          string
	natsURL      string
	dashboardURL string
}

// BindFlags registers the override flags on fs and returns a function that
// reports which of them were set after parsing.
func BindFlags(fs *pflag.FlagSet) func() CLIFlags {
	v := &flagValues{fs: fs}
	fs.StringVarP(&v.config, "config", "c", "", "YAML config file (default "+DefaultConfigFile+")")
	fs.StringVarP(&v.port, "port", "p", "", "HTTP listen port")
	fs.StringVar(&v.logLevel, "log-level", "", "log level: debug, info, warn, error")
	fs.StringVar(&v.dsn, "dsn", "", "PostgreSQL connection string")
	fs.StringVar(&v.natsURL, "nats-url", "", "NATS server URL")
	fs.StringVar(&v.dashboardURL, "dashboard-url", "", "base URL used for run links")
	return v.collect
}

func (v *flagValues) collect() CLIFlags {
	pick := func(name string, val *string) *string {
		if !v.fs.Changed(name) {
			return nil
		}
		s := *val
		return &s
	}
	return CLIFlags{
		ConfigPath:   pick("config", &v.config),
		Port:         pick("port", &v.port),
		LogLevel:     pick("log-level", &v.logLevel),
		DSN:          pick("dsn", &v.dsn),
		NatsURL:      pick("nats-url", &v.natsURL),
		DashboardURL: pick("dashboard-url", &v.dashboardURL),
	}
}

// ParseFlags parses args into CLIFlags.
func ParseFlags(args []string) (CLIFlags, error) {
	fs := pflag.NewFlagSet("runhooks", pflag.ContinueOnError)
	collect := BindFlags(fs)
	if err := fs.Parse(args); err != nil {
		return CLIFlags{}, fmt.Errorf("parse flags: %w", err)
	}
	return collect(), nil
}

// LoadWithCLI loads config with the hierarchy defaults < YAML < ENV < CLI and
// returns the YAML path that was consulted.
func LoadWithCLI(flags CLIFlags) (*Config, string, error) {
	path := DefaultConfigFile
	if p := envOr("RUNHOOKS_CONFIG", ""); p != "" {
		path = p
	}
	if flags.ConfigPath != nil {
		path = *flags.ConfigPath
	}

	cfg := Defaults()
	if err := loadYAML(&cfg, path); err != nil {
		return nil, path, fmt.Errorf("config yaml: %w", err)
	}
	loadEnv(&cfg)
	applyCLI(&cfg, flags)

	if err := validate(&cfg); err != nil {
		return nil, path, fmt.Errorf("config validate: %w", err)
	}
	return &cfg, path, nil
}

func applyCLI(cfg *Config, f CLIFlags) {
	if f.Port != nil {
		cfg.Server.Port = *f.Port
	}
	if f.LogLevel != nil {
		cfg.Logging.Level = *f.LogLevel
	}
	if f.DSN != nil {
		cfg.Postgres.DSN = *f.DSN
	}
	if f.NatsURL != nil {
		cfg.NATS.URL = *f.NatsURL
	}
	if f.DashboardURL != nil {
		cfg.Dashboard.URL = *f.DashboardURL
	}
}
