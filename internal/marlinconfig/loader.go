package marlinconfig

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Loader loads a Config from file and environment, following the same
// defaults-then-file-then-env priority as the teacher's project/global
// loaders.
type Loader interface {
	Load() (*Config, error)
}

type loader struct{}

// NewLoader returns the default Loader.
func NewLoader() Loader {
	return &loader{}
}

// Load builds a Config with priority (highest to lowest):
//  1. MARLIN_DB_PATH, which overrides DataDir's derived DBPath directly
//  2. MARLIN_* environment variables
//  3. the config file: $MARLIN_CONFIG if set, else ~/.marlin.yaml
//  4. built-in defaults
func (l *loader) Load() (*Config, error) {
	v := viper.New()
	defaults := Default()

	if configFile := os.Getenv("MARLIN_CONFIG"); configFile != "" {
		v.SetConfigFile(expandPath(configFile))
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolving home directory: %w", err)
		}
		v.SetConfigName(".marlin")
		v.SetConfigType("yaml")
		v.AddConfigPath(home)
	}

	v.SetEnvPrefix("MARLIN")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	bindEnvVars(v)
	setDefaults(v, defaults)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	cfg.DataDir = expandPath(cfg.DataDir)

	if dbPath := os.Getenv("MARLIN_DB_PATH"); dbPath != "" {
		cfg.dbPathOverride = expandPath(dbPath)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func bindEnvVars(v *viper.Viper) {
	v.BindEnv("data_dir")
	v.BindEnv("watch.debounce_ms")
	v.BindEnv("scan.ignore")
	v.BindEnv("scan.follow_symlink")
	v.BindEnv("scan.index_hidden")
	v.BindEnv("snapshot.retention")
}

func setDefaults(v *viper.Viper, defaults *Config) {
	v.SetDefault("data_dir", defaults.DataDir)
	v.SetDefault("watch.debounce_ms", defaults.Watch.DebounceMS)
	v.SetDefault("scan.ignore", defaults.Scan.Ignore)
	v.SetDefault("scan.follow_symlink", defaults.Scan.FollowSymlink)
	v.SetDefault("scan.index_hidden", defaults.Scan.IndexHidden)
	v.SetDefault("snapshot.retention", defaults.Snapshot.Retention)
}

// Load is a convenience function equivalent to NewLoader().Load().
func Load() (*Config, error) {
	return NewLoader().Load()
}
