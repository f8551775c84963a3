package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/voicetimer/voicetimer-go/pkg/command"
	"github.com/voicetimer/voicetimer-go/pkg/dispatch"
	"github.com/voicetimer/voicetimer-go/pkg/timer"
)

// EnvPrefix prefixes every environment variable.
const EnvPrefix = "VOICETIMER_"

// Limits enforced by Validate.
const (
	MaxCapacity     = 64
	MinTickInterval = 10 * time.Millisecond
)

// Validation errors.
var (
	ErrInvalidCapacity     = errors.New("config: capacity out of range")
	ErrInvalidRingSeconds  = errors.New("config: ring seconds must be positive")
	ErrInvalidTickInterval = errors.New("config: tick interval too short")
	ErrInvalidLogLevel     = errors.New("config: unknown log level")
	ErrInvalidAlias        = errors.New("config: alias targets unknown keyword")
	ErrUnknownFormat       = errors.New("config: unknown file format")
	ErrUnknownKey          = errors.New("config: unknown key")
)

// LogLevels are the accepted LogLevel values.
var LogLevels = []string{"trace", "debug", "info", "warn", "error"}

// Config holds all settings of the device daemon.
type Config struct {
	// Capacity is the number of timer slots.
	Capacity int `yaml:"capacity" toml:"capacity" env:"CAPACITY"`

	// RingSeconds is how long an expired timer rings before removal.
	RingSeconds uint32 `yaml:"ring_seconds" toml:"ring_seconds" env:"RING_SECONDS"`

	TickInterval time.Duration `yaml:"tick_interval" toml:"tick_interval" env:"TICK_INTERVAL"`

	// CreateOnAdd lets ADD create a missing timer.
	CreateOnAdd bool `yaml:"create_on_add" toml:"create_on_add" env:"CREATE_ON_ADD"`

	// ZeroDurationExpires makes SET with 0 seconds expire at once.
	ZeroDurationExpires bool `yaml:"zero_duration_expires" toml:"zero_duration_expires" env:"ZERO_DURATION_EXPIRES"`

	// Aliases maps extra words to built-in keywords, e.g. "start" -> "set".
	Aliases map[string]string `yaml:"aliases" toml:"aliases" env:"ALIASES"`

	// LinkAddr is the link listener address. Empty disables the listener.
	LinkAddr string `yaml:"link_addr" toml:"link_addr" env:"LINK_ADDR"`

	// Advertise publishes the link listener over mDNS.
	Advertise bool `yaml:"advertise" toml:"advertise" env:"ADVERTISE"`

	InstanceName string `yaml:"instance_name" toml:"instance_name" env:"INSTANCE_NAME"`

	// MetricsAddr serves /metrics when set.
	MetricsAddr string `yaml:"metrics_addr" toml:"metrics_addr" env:"METRICS_ADDR"`

	// ProtocolLog is a .vtlog file receiving protocol events.
	ProtocolLog string `yaml:"protocol_log" toml:"protocol_log" env:"PROTOCOL_LOG"`

	LogLevel string `yaml:"log_level" toml:"log_level" env:"LOG_LEVEL"`
}

// Defaults returns the built-in settings.
func Defaults() *Config {
	return &Config{
		Capacity:            timer.DefaultCapacity,
		RingSeconds:         timer.DefaultRingSeconds,
		TickInterval:        time.Second,
		CreateOnAdd:         true,
		ZeroDurationExpires: true,
		LinkAddr:            ":7420",
		InstanceName:        "voicetimer",
		LogLevel:            "info",
	}
}

// Load returns Defaults overlaid with the file at path (if not empty), the
// .env file at envFile (if present) and the environment. The result is
// not validated.
func Load(path, envFile string) (*Config, error) {
	cfg := Defaults()
	if path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return nil, err
		}
	}
	if envFile != "" {
		if err := LoadEnvFile(envFile); err != nil {
			return nil, err
		}
	}
	if err := cfg.LoadEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile overlays a YAML or TOML file chosen by extension. Keys absent
// from the file keep their current values.
func (c *Config) LoadFile(path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("load config %s: %w", path, err)
		}
		return nil

	case ".toml":
		meta, err := toml.DecodeFile(path, c)
		if err != nil {
			return fmt.Errorf("load config %s: %w", path, err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			return fmt.Errorf("%w: %s in %s", ErrUnknownKey, undecoded[0], path)
		}
		return nil

	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, filepath.Ext(path))
	}
}

// LoadEnvFile exports the variables of a .env file that are not already
// set. A missing file is not an error.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file: %w", err)
	}
	return nil
}

// LoadEnv overlays VOICETIMER_* variables from the process environment.
func (c *Config) LoadEnv() error {
	return c.loadEnv(nil)
}

func (c *Config) loadEnv(environ map[string]string) error {
	opts := env.Options{Prefix: EnvPrefix}
	if environ != nil {
		opts.Environment = environ
	}
	if err := env.Parse(c, opts); err != nil {
		return fmt.Errorf("load environment: %w", err)
	}
	return nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Capacity < 1 || c.Capacity > MaxCapacity {
		return fmt.Errorf("%w: %d (want 1..%d)", ErrInvalidCapacity, c.Capacity, MaxCapacity)
	}
	if c.RingSeconds == 0 {
		return ErrInvalidRingSeconds
	}
	if c.TickInterval < MinTickInterval {
		return fmt.Errorf("%w: %s (want >= %s)", ErrInvalidTickInterval, c.TickInterval, MinTickInterval)
	}
	if !knownLevel(c.LogLevel) {
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.LogLevel)
	}
	for _, alias := range c.aliasNames() {
		if _, ok := command.LookupKeyword(c.Aliases[alias]); !ok {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidAlias, alias, c.Aliases[alias])
		}
		if command.IsFiller(alias) {
			return fmt.Errorf("%w: %s is a filler word", ErrInvalidAlias, alias)
		}
	}
	return nil
}

// Policy returns the dispatch policy.
func (c *Config) Policy() dispatch.Policy {
	return dispatch.Policy{
		CreateOnAdd:         c.CreateOnAdd,
		ZeroDurationExpires: c.ZeroDurationExpires,
	}
}

// ParserOptions returns parser options for the configured aliases.
// Aliases with unknown targets and filler aliases are skipped.
func (c *Config) ParserOptions() []command.Option {
	var opts []command.Option
	for _, alias := range c.aliasNames() {
		if command.IsFiller(alias) {
			continue
		}
		if cmd, ok := command.LookupKeyword(c.Aliases[alias]); ok {
			opts = append(opts, command.WithAlias(alias, cmd))
		}
	}
	return opts
}

func (c *Config) aliasNames() []string {
	names := make([]string, 0, len(c.Aliases))
	for alias := range c.Aliases {
		names = append(names, alias)
	}
	sort.Strings(names)
	return names
}

func knownLevel(level string) bool {
	for _, l := range LogLevels {
		if strings.EqualFold(level, l) {
			return true
		}
	}
	return false
}
