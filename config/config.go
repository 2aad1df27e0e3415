// Package config loads the server settings. There is no configuration file,
// every key has a compiled-in default and may be overridden by a STATICD_
// environment variable, e.g. STATICD_BUFFER_SIZE=4096.
package config

import (
	"github.com/brickingsoft/errors"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"strings"
)

const EnvPrefix = "STATICD"

const (
	DefaultPort        = 8080
	DefaultBacklog     = 128
	DefaultRingEntries = 32
	DefaultBufferSize  = 1024
	DefaultBufferCount = 12
	DefaultRoot        = "."
	DefaultLogLevel    = "info"
	// DefaultCPUAffinity leaves the reactor thread unpinned.
	DefaultCPUAffinity = -1
)

var (
	ErrLoad    = errors.Define("load config failed")
	ErrInvalid = errors.Define("invalid config")
)

type Config struct {
	Port        int    `mapstructure:"port" validate:"gte=0,lte=65535"`
	Backlog     int    `mapstructure:"backlog" validate:"gte=1"`
	RingEntries int    `mapstructure:"ring_entries" validate:"gte=1,lte=32768"`
	BufferSize  int    `mapstructure:"buffer_size" validate:"gte=1,lte=1073741824"`
	BufferCount int    `mapstructure:"buffer_count" validate:"gte=1,lte=16384"`
	Root        string `mapstructure:"root" validate:"required"`
	// ConfinePaths keeps request paths inside Root.
	ConfinePaths bool   `mapstructure:"confine_paths"`
	LogLevel     string `mapstructure:"log_level" validate:"oneof=trace debug info warn error"`
	// MetricsAddr enables the prometheus endpoint when set.
	MetricsAddr string `mapstructure:"metrics_addr" validate:"omitempty,hostname_port"`
	// CPUAffinity pins the reactor thread to one CPU when not negative.
	CPUAffinity int `mapstructure:"cpu_affinity" validate:"gte=-1"`
}

func Default() Config {
	return Config{
		Port:         DefaultPort,
		Backlog:      DefaultBacklog,
		RingEntries:  DefaultRingEntries,
		BufferSize:   DefaultBufferSize,
		BufferCount:  DefaultBufferCount,
		Root:         DefaultRoot,
		ConfinePaths: true,
		LogLevel:     DefaultLogLevel,
		CPUAffinity:  DefaultCPUAffinity,
	}
}

var validate = validator.New()

func Load() (*Config, error) {
	v := viper.New()
	setupViper(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.From(ErrLoad, errors.WithMeta("pkg", "config"), errors.WithWrap(err))
	}
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setupViper(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// keys unknown to viper are never looked up in the environment
	def := Default()
	v.SetDefault("port", def.Port)
	v.SetDefault("backlog", def.Backlog)
	v.SetDefault("ring_entries", def.RingEntries)
	v.SetDefault("buffer_size", def.BufferSize)
	v.SetDefault("buffer_count", def.BufferCount)
	v.SetDefault("root", def.Root)
	v.SetDefault("confine_paths", def.ConfinePaths)
	v.SetDefault("log_level", def.LogLevel)
	v.SetDefault("metrics_addr", def.MetricsAddr)
	v.SetDefault("cpu_affinity", def.CPUAffinity)
}

func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		var fields []string
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range verrs {
				fields = append(fields, fe.Field()+":"+fe.Tag())
			}
		}
		return errors.From(
			ErrInvalid,
			errors.WithMeta("pkg", "config"),
			errors.WithMeta("fields", strings.Join(fields, ",")),
			errors.WithWrap(err),
		)
	}
	return nil
}
