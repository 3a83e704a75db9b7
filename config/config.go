package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config holds engine and CLI parameters.
type Config struct {
	// LogProduction selects the JSON production logger instead of the console one.
	LogProduction bool `mapstructure:"log_production"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `mapstructure:"log_level" validate:"oneof=debug info warn error"`

	// Workers bounds the number of contracts evaluated concurrently in a batch.
	Workers int `mapstructure:"workers" validate:"gte=1,lte=1024"`

	// DegeneratePolicy decides what behavior models return on degenerate input
	// (zero or negative collateral value, empty reserves).
	// "zero" returns the neutral 0.0, "error" aborts the affected contract.
	DegeneratePolicy string `mapstructure:"degenerate_policy" validate:"oneof=zero error"`

	// DefaultCalendar is used when terms carry no calendar attribute.
	DefaultCalendar string `mapstructure:"default_calendar" validate:"required"`

	// AmountDecimals is the rounding applied to amounts in CLI output.
	AmountDecimals int32 `mapstructure:"amount_decimals" validate:"gte=0,lte=12"`

	// HolidayCalendars adds weekday calendars by id, each with its YYYY-MM-DD
	// holidays. Terms refer to them like the built-in calendars.
	HolidayCalendars map[string][]string `mapstructure:"holiday_calendars"`

	// PostgresDSN, when set, makes the scenario loader read time series from PostgreSQL.
	PostgresDSN string `mapstructure:"postgres_dsn"`
}

// DefaultConfig provides production-ready default values.
var DefaultConfig = Config{
	LogProduction:    false,
	LogLevel:         "info",
	Workers:          8,
	DegeneratePolicy: "zero",
	DefaultCalendar:  "NC",
	AmountDecimals:   6,
}

// cfg is the active configuration. Defaults to DefaultConfig.
var cfg = DefaultConfig

// SetConfig replaces the active configuration.
func SetConfig(c Config) {
	cfg = c
}

// GetConfig returns the active configuration.
func GetConfig() Config {
	return cfg
}

var validate = validator.New()

// Validate checks field ranges and enumerations.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Field(), fe.Tag()))
			}
			return fmt.Errorf("config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Load reads a config file (yaml, json, toml or .env) and ACTUS_* environment
// overrides on top of DefaultConfig. An empty path reads only the environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("ACTUS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("log_production", DefaultConfig.LogProduction)
	v.SetDefault("log_level", DefaultConfig.LogLevel)
	v.SetDefault("workers", DefaultConfig.Workers)
	v.SetDefault("degenerate_policy", DefaultConfig.DegeneratePolicy)
	v.SetDefault("default_calendar", DefaultConfig.DefaultCalendar)
	v.SetDefault("amount_decimals", DefaultConfig.AmountDecimals)
	v.SetDefault("postgres_dsn", DefaultConfig.PostgresDSN)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}
