package cli

import (
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/topolab/pkg/errors"
)

// Config is the serve command's TOML configuration. Flags override file
// values; the file is optional.
type Config struct {
	Listen   string `toml:"listen"`
	Topology string `toml:"topology"`

	Annotations AnnotationsConfig `toml:"annotations"`
	Runtime     RuntimeConfig     `toml:"runtime"`
}

// AnnotationsConfig selects the annotation store backend.
type AnnotationsConfig struct {
	Backend       string `toml:"backend"` // file, redis, mongo
	RedisAddr     string `toml:"redis_addr"`
	MongoURI      string `toml:"mongo_uri"`
	MongoDatabase string `toml:"mongo_database"`
}

// RuntimeConfig controls the container-state refresh loop.
type RuntimeConfig struct {
	Refresh duration `toml:"refresh"`
}

// duration wraps time.Duration for TOML string values like "5s".
type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// defaultConfig returns the config used when no file and no flags are set.
func defaultConfig() Config {
	return Config{
		Listen: ":8188",
		Annotations: AnnotationsConfig{
			Backend:       "file",
			MongoDatabase: appName,
		},
		Runtime: RuntimeConfig{
			Refresh: duration{5 * time.Second},
		},
	}
}

// loadConfig reads a TOML config file over the defaults. An empty path
// returns the defaults untouched.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(errors.CodeFileNotFound, err, "config file %s", path)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrap(errors.CodeInvalidInput, err, "config file %s", path)
	}
	return cfg, nil
}
