package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"runtime"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/royalcat/geolabels/internal/logging"
	"github.com/royalcat/geolabels/labeler"
)

type DebugConfig struct {
	// Listen is the address of the pprof and prometheus endpoint, empty disables it.
	Listen string `koanf:"listen"`
	Stats  bool   `koanf:"stats"`
}

type Config struct {
	Threads  int  `koanf:"threads"`
	Progress bool `koanf:"progress"`

	Labeler labeler.Config `koanf:"labeler"`
	Logging logging.Config `koanf:"logging"`
	Debug   DebugConfig    `koanf:"debug"`
}

func (cfg *Config) Validate() error {
	if cfg.Threads < 0 {
		return errors.New("'threads' must not be negative")
	}

	if err := cfg.Labeler.Validate(); err != nil {
		return fmt.Errorf("labeler config: %w", err)
	}

	if err := cfg.Logging.Validate(); err != nil {
		return err
	}

	return nil
}

// ThreadCount resolves the zero value to GOMAXPROCS.
func (cfg *Config) ThreadCount() int {
	if cfg.Threads == 0 {
		return runtime.GOMAXPROCS(0)
	}
	return cfg.Threads
}

func Default() Config {
	return Config{
		Labeler: labeler.ConfigDefault(),
		Logging: logging.Config{
			MaxSizeMB:  100,
			MaxAgeDays: 7,
			MaxBackups: 5,
		},
	}
}

// LoadConfig layers an optional TOML file over the defaults. An empty
// filename returns the defaults.
func LoadConfig(filename string) (*Config, error) {
	k := koanf.New(".")
	err := k.Load(structs.Provider(Default(), "koanf"), nil)
	if err != nil {
		return nil, fmt.Errorf("couldn't load default config: %w", err)
	}

	if filename != "" {
		err = k.Load(file.Provider(filepath.Clean(filename)), toml.Parser())
		if err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	var cfg Config

	err = k.Unmarshal("", &cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}
