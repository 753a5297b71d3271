package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	logcfg "github.com/ncobase/pubsub/logging/logger/config"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. PUBSUB_BUS_WORKERS.
const EnvPrefix = "PUBSUB"

// ErrNoConfigFile is returned by Watch when the configuration was built
// from defaults and environment only.
var ErrNoConfigFile = errors.New("config was not loaded from a file")

// Config represents the configuration implementation.
type Config struct {
	AppName string
	RunMode string
	Logger  *logcfg.Config
	Bus     *Bus
	Viper   *viper.Viper

	path string
}

// LoadConfig loads the configuration from configPath. With an empty path the
// usual locations are searched and a missing file falls back to defaults.
func LoadConfig(configPath string) (*Config, error) {
	v := newViper()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath("/etc/pubsub")
		v.AddConfigPath("$HOME/.pubsub")
		v.AddConfigPath(".")
		if ex, err := os.Executable(); err == nil {
			v.AddConfigPath(filepath.Dir(ex))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return fromViper(v, v.ConfigFileUsed()), nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("app_name", "pubsub")
	v.SetDefault("run_mode", "development")
	setBusDefaults(v)
	return v
}

func fromViper(v *viper.Viper, path string) *Config {
	return &Config{
		AppName: v.GetString("app_name"),
		RunMode: v.GetString("run_mode"),
		Logger:  logcfg.GetConfig(v),
		Bus:     getBusConfig(v),
		Viper:   v,
		path:    path,
	}
}

// Path returns the file the configuration was read from, if any.
func (c *Config) Path() string {
	return c.path
}

// Reload re-reads the configuration file.
func (c *Config) Reload() (*Config, error) {
	if err := c.Viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to reload config: %w", err)
	}
	return fromViper(c.Viper, c.path), nil
}

// Watch watches the configuration file and calls callback with the
// reloaded configuration whenever it is written.
func (c *Config) Watch(callback func(*Config)) error {
	if c.path == "" {
		return ErrNoConfigFile
	}
	c.Viper.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		callback(fromViper(c.Viper, c.path))
	})
	c.Viper.WatchConfig()
	return nil
}
