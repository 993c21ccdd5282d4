package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Loader reads configuration from an optional file plus DUPLEX_-prefixed
// environment variables, and can watch the file for changes.
type Loader struct {
	viper *viper.Viper
}

// NewLoader creates a loader with the defaults registered.
func NewLoader() *Loader {
	v := viper.New()

	defaults := Default()
	v.SetDefault("host", defaults.Host)
	v.SetDefault("port", defaults.Port)
	v.SetDefault("serverMode", defaults.ServerMode)
	v.SetDefault("jailToRoot", defaults.JailToRoot)
	v.SetDefault("env", defaults.Env)

	v.SetEnvPrefix("DUPLEX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &Loader{viper: v}
}

// Load reads the configuration file when path is non-empty (any format
// viper understands) and unmarshals the merged view.
func (l *Loader) Load(path string) (*Config, error) {
	if path != "" {
		l.viper.SetConfigFile(path)
		if err := l.viper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := l.viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	return cfg, nil
}
