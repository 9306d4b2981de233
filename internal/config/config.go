// Package config loads the application configuration from an optional YAML
// file and MLS_* environment variables.
//
// Precedence, lowest first: struct defaults, config file, environment.
// Environment keys mirror the file keys with dots and hyphens replaced by
// underscores, e.g. enhance.clip-limit is MLS_ENHANCE_CLIP_LIMIT.
package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/ironsheep/mls-photo-enhancer/internal/enhance"
	"github.com/ironsheep/mls-photo-enhancer/internal/logging"
	"github.com/ironsheep/mls-photo-enhancer/internal/metering"
)

// EnvPrefix is prepended to every environment override.
const EnvPrefix = "MLS"

// FileName is the config file base name searched for when no path is given.
const FileName = "mls-enhance"

// Config is the complete application configuration.
type Config struct {
	Enhance  enhance.Config `mapstructure:"enhance" json:"enhance" yaml:"enhance"`
	Batch    BatchConfig    `mapstructure:"batch" json:"batch" yaml:"batch"`
	Metering MeteringConfig `mapstructure:"metering" json:"metering" yaml:"metering"`
	Log      logging.Config `mapstructure:"log" json:"log" yaml:"log"`
}

// BatchConfig tunes the batch worker pool.
type BatchConfig struct {
	// Workers is the number of concurrent workers. 0 = runtime.NumCPU().
	Workers int `mapstructure:"workers" json:"workers" yaml:"workers" validate:"gte=0"`
}

// MeteringConfig selects where credit usage is kept.
type MeteringConfig struct {
	// Store is "memory" (per process) or "redis" (shared).
	Store string `mapstructure:"store" json:"store" yaml:"store" default:"memory" validate:"oneof=memory redis"`

	// DefaultPlan is the plan of accounts that never chose one.
	DefaultPlan string `mapstructure:"default-plan" json:"defaultPlan" yaml:"default-plan" default:"free"`

	// Account is charged when a request does not name one.
	Account string `mapstructure:"account" json:"account" yaml:"account" default:"default" validate:"required"`

	Redis metering.RedisConfig `mapstructure:"redis" json:"redis" yaml:"redis"`
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	var c Config
	if err := defaults.Set(&c); err != nil {
		panic(fmt.Sprintf("config: invalid default tags: %v", err))
	}
	return c
}

// Load reads configuration from path (or, when path is empty, from
// mls-enhance.yaml in the working directory or $HOME/.config/mls-enhance if
// present), applies environment overrides and validates the result.
//
// Defaults are applied before unmarshalling only, so an explicit zero in the
// file or environment (e.g. max-size: 0 to disable resizing) is kept.
func Load(path string) (*Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigType("yaml")
	registerDefaults(v, "", reflect.ValueOf(cfg))

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	} else {
		v.SetConfigName(FileName)
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/mls-enhance")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// registerDefaults declares every leaf key with its default value so that
// AutomaticEnv can override keys absent from the config file.
func registerDefaults(v *viper.Viper, prefix string, val reflect.Value) {
	t := val.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")
		if tag == "" || tag == "-" {
			continue
		}
		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}
		if field.Type.Kind() == reflect.Struct {
			registerDefaults(v, key, val.Field(i))
			continue
		}
		v.SetDefault(key, val.Field(i).Interface())
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := enhance.RegisterValidations(v); err != nil {
		panic(fmt.Sprintf("config: %v", err))
	}
	return v
}

// Validate checks every section. Enhancement settings are reported as
// *enhance.ConfigurationError; everything else names the offending key path.
func (c Config) Validate() error {
	if err := c.Enhance.Validate(); err != nil {
		return err
	}

	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("invalid config %s=%v: failed %s %s", fe.Namespace(), fe.Value(), fe.Tag(), fe.Param())
		}
		return fmt.Errorf("invalid config: %w", err)
	}

	if _, err := metering.LookupPlan(c.Metering.DefaultPlan); err != nil {
		return fmt.Errorf("invalid config metering.default-plan: %w", err)
	}
	return nil
}
