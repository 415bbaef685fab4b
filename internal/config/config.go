package config

import (
	"errors"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
	API     APIConfig     `yaml:"api" mapstructure:"api"`
	Catalog CatalogConfig `yaml:"catalog" mapstructure:"catalog"`
	Geo     GeoConfig     `yaml:"geo" mapstructure:"geo"`
}

// StoreConfig configures the PostGIS database.
type StoreConfig struct {
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
	// ConnectAttempts bounds startup connection retries.
	ConnectAttempts int `yaml:"connect_attempts" mapstructure:"connect_attempts"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// APIConfig configures request handling.
type APIConfig struct {
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
	// StrictFactors rejects unknown factor names instead of ignoring them.
	StrictFactors       bool    `yaml:"strict_factors" mapstructure:"strict_factors"`
	DefaultNearRadiusKM float64 `yaml:"default_near_radius_km" mapstructure:"default_near_radius_km"`
	// RateLimit is requests per second across all clients; 0 disables.
	RateLimit float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
	RateBurst int     `yaml:"rate_burst" mapstructure:"rate_burst"`
}

// CatalogConfig configures the legacy catalog store.
type CatalogConfig struct {
	DSN      string `yaml:"dsn" mapstructure:"dsn"`
	SeedDemo bool   `yaml:"seed_demo" mapstructure:"seed_demo"`
}

// GeoConfig selects the country boundaries used by footer statistics.
// With Boundaries empty the built-in bounding-box table is used.
type GeoConfig struct {
	Boundaries string `yaml:"boundaries" mapstructure:"boundaries"`
	NameField  string `yaml:"name_field" mapstructure:"name_field"`
}

// dotenvFiles are loaded before the environment is read. Variables already
// set win, so .env.local overrides .env.
var dotenvFiles = []string{".env.local", ".env"}

func loadDotenv() error {
	for _, f := range dotenvFiles {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return eris.Wrapf(err, "config: load %s", f)
		}
	}
	return nil
}

// Load reads configuration from .env files, config.yaml and the
// environment.
func Load() (*Config, error) {
	if err := loadDotenv(); err != nil {
		return nil, err
	}

	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("RESTORATION")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.database_url", "")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 2)
	v.SetDefault("store.connect_attempts", 5)
	v.SetDefault("server.port", 3001)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("api.cors_origins", []string{"*"})
	v.SetDefault("api.strict_factors", false)
	v.SetDefault("api.default_near_radius_km", 10.0)
	v.SetDefault("api.rate_limit", 0.0)
	v.SetDefault("api.rate_burst", 50)
	v.SetDefault("catalog.dsn", "file:catalog?mode=memory&cache=shared")
	v.SetDefault("catalog.seed_demo", true)
	v.SetDefault("geo.boundaries", "")
	v.SetDefault("geo.name_field", "NAME")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command mode needs. Modes: serve,
// migrate, seed, stats.
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "serve":
		errs = append(errs, c.validateStore()...)
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, "server.port must be > 0 and <= 65535")
		}
		if c.API.DefaultNearRadiusKM <= 0 {
			errs = append(errs, "api.default_near_radius_km must be > 0")
		}
		if c.API.RateLimit < 0 {
			errs = append(errs, "api.rate_limit must be >= 0")
		}
		if c.API.RateLimit > 0 && c.API.RateBurst < 1 {
			errs = append(errs, "api.rate_burst must be >= 1 when api.rate_limit is set")
		}
	case "migrate", "seed", "stats":
		errs = append(errs, c.validateStore()...)
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.New("config: " + strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) validateStore() []string {
	var errs []string
	if c.Store.DatabaseURL == "" {
		errs = append(errs, "store.database_url is required")
	}
	if c.Store.MaxConns < 1 {
		errs = append(errs, "store.max_conns must be >= 1")
	}
	if c.Store.MinConns < 0 || c.Store.MinConns > c.Store.MaxConns {
		errs = append(errs, "store.min_conns must be between 0 and store.max_conns")
	}
	if c.Store.ConnectAttempts < 1 {
		errs = append(errs, "store.connect_attempts must be >= 1")
	}
	return errs
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
