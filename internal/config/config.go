// Package config loads service settings from .env files, an optional config
// file and RICECH4_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/ougirez/ricech4/internal/pkg/constants"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

const (
	GridSourceNone     = "none"
	GridSourceNetCDF   = "netcdf"
	GridSourcePostgres = "postgres"
)

// EnvConfigPath names the variable holding the config file path.
const EnvConfigPath = constants.EnvPrefix + "_CONFIG"

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Tables   TablesConfig   `mapstructure:"tables"`
	Grid     GridConfig     `mapstructure:"grid"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	Session  SessionConfig  `mapstructure:"session"`
	Estimate EstimateConfig `mapstructure:"estimate"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

type TablesConfig struct {
	// Path to a yaml, json or xlsx tables file; empty uses the built-in tables.
	Path string `mapstructure:"path"`
}

type GridConfig struct {
	Source         string `mapstructure:"source"`
	NetCDFPath     string `mapstructure:"netcdf_path"`
	Variable       string `mapstructure:"variable"`
	BoundariesPath string `mapstructure:"boundaries_path"`
}

type PostgresConfig struct {
	DSN            string `mapstructure:"dsn"`
	ConnectRetries uint64 `mapstructure:"connect_retries"`
}

type SessionConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

type EstimateConfig struct {
	CompostRate   float64 `mapstructure:"compost_rate"`
	DrainageClass string  `mapstructure:"drainage_class"`
	Prefecture    string  `mapstructure:"prefecture"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(constants.ViperServerAddr, ":8080")
	v.SetDefault(constants.ViperServerCORSOrigins, []string{"http://localhost:3000"})
	v.SetDefault(constants.ViperServerShutdownTimeout, 10*time.Second)

	v.SetDefault(constants.ViperLogLevel, "info")
	v.SetDefault(constants.ViperLogDevelopment, false)

	v.SetDefault(constants.ViperTablesPath, "")

	v.SetDefault(constants.ViperGridSource, GridSourceNone)
	v.SetDefault(constants.ViperGridNetCDFPath, "")
	v.SetDefault(constants.ViperGridVariable, "area")
	v.SetDefault(constants.ViperGridBoundariesPath, "")

	v.SetDefault(constants.ViperPostgresDSN, "")
	v.SetDefault(constants.ViperPostgresConnectRetries, 5)

	v.SetDefault(constants.ViperSessionTTL, 2*time.Hour)

	v.SetDefault(constants.ViperEstimateCompostRate, 0.5)
	v.SetDefault(constants.ViperEstimateDrainageClass, "3")
	v.SetDefault(constants.ViperEstimatePrefecture, "茨城県")
}

// Load reads the configuration. configPath overrides RICECH4_CONFIG; envFiles
// default to ".env" and missing ones are skipped.
func Load(configPath string, envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath == "" {
		configPath = os.Getenv(EnvConfigPath)
	}
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configPath, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error

	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is empty"))
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("server.shutdown_timeout must be positive"))
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}

	switch c.Grid.Source {
	case GridSourceNone:
	case GridSourceNetCDF:
		if c.Grid.NetCDFPath == "" {
			errs = append(errs, errors.New("grid.netcdf_path is required for the netcdf grid source"))
		}
		if c.Grid.BoundariesPath == "" {
			errs = append(errs, errors.New("grid.boundaries_path is required for the netcdf grid source"))
		}
	case GridSourcePostgres:
		if c.Postgres.DSN == "" {
			errs = append(errs, errors.New("postgres.dsn is required for the postgres grid source"))
		}
		if c.Grid.BoundariesPath == "" {
			errs = append(errs, errors.New("grid.boundaries_path is required for the postgres grid source"))
		}
	default:
		errs = append(errs, fmt.Errorf("grid.source %q: want none, netcdf or postgres", c.Grid.Source))
	}

	if c.Session.TTL < 0 {
		errs = append(errs, errors.New("session.ttl must not be negative"))
	}
	if c.Estimate.CompostRate < 0 || c.Estimate.CompostRate > 1 {
		errs = append(errs, fmt.Errorf("estimate.compost_rate %v is outside [0, 1]", c.Estimate.CompostRate))
	}
	if c.Estimate.DrainageClass == "" {
		errs = append(errs, errors.New("estimate.drainage_class is empty"))
	}
	if c.Estimate.Prefecture == "" {
		errs = append(errs, errors.New("estimate.prefecture is empty"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}
