package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Engine     EngineConfig     `yaml:"engine" mapstructure:"engine"`
	Geocode    GeocodeConfig    `yaml:"geocode" mapstructure:"geocode"`
	Salesforce SalesforceConfig `yaml:"salesforce" mapstructure:"salesforce"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// EngineConfig configures availability and audit evaluation. All
// distances are statute miles.
type EngineConfig struct {
	BookingThresholdMiles float64 `yaml:"booking_threshold_miles" mapstructure:"booking_threshold_miles"`
	AuditThresholdMiles   float64 `yaml:"audit_threshold_miles" mapstructure:"audit_threshold_miles"`
	InRangeMiles          float64 `yaml:"in_range_miles" mapstructure:"in_range_miles"`
	HorizonDays           int     `yaml:"horizon_days" mapstructure:"horizon_days"`
	Workers               int     `yaml:"workers" mapstructure:"workers"`
}

// GeocodeConfig configures the Census geocoder client.
type GeocodeConfig struct {
	RateLimitRPS float64 `yaml:"rate_limit_rps" mapstructure:"rate_limit_rps"`
}

// SalesforceConfig holds Salesforce JWT auth settings for roster sync.
type SalesforceConfig struct {
	ClientID   string `yaml:"client_id" mapstructure:"client_id"`
	Username   string `yaml:"username" mapstructure:"username"`
	KeyPath    string `yaml:"key_path" mapstructure:"key_path"`
	LoginURL   string `yaml:"login_url" mapstructure:"login_url"`
	RepProfile string `yaml:"rep_profile" mapstructure:"rep_profile"`
}

// ServerConfig configures the availability API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("TERRITORY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "territory.db")
	v.SetDefault("engine.booking_threshold_miles", 45.0)
	v.SetDefault("engine.audit_threshold_miles", 60.0)
	v.SetDefault("engine.in_range_miles", 75.0)
	v.SetDefault("engine.horizon_days", 5)
	v.SetDefault("engine.workers", 4)
	v.SetDefault("geocode.rate_limit_rps", 10.0)
	v.SetDefault("salesforce.login_url", "https://login.salesforce.com")
	v.SetDefault("salesforce.rep_profile", "Field Sales Rep")
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

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
