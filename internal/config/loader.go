package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/dagr-org/dagr/internal/common/fileutil"
)

const appName = "dagr"

// ConfigLoaderOption customizes the loader.
type ConfigLoaderOption func(*configLoader)

type configLoader struct {
	configFile string
}

// WithConfigFile sets an explicit configuration file path.
func WithConfigFile(file string) ConfigLoaderOption {
	return func(l *configLoader) {
		l.configFile = file
	}
}

// Load reads the configuration from file and environment. Environment
// variables use the DAGR_ prefix (e.g. DAGR_PORT); a .env file in the
// working directory is honored when present.
func Load(opts ...ConfigLoaderOption) (*Config, error) {
	loader := &configLoader{}
	for _, opt := range opts {
		opt(loader)
	}

	// A missing .env file is not an error.
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix(strings.ToUpper(appName))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if loader.configFile != "" {
		v.SetConfigFile(loader.configFile)
	} else {
		v.SetConfigName(appName)
		v.SetConfigType("yaml")
		v.AddConfigPath(filepath.Join(xdg.ConfigHome, appName))
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := resolvePaths(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	dataDir := filepath.Join(xdg.DataHome, appName)
	v.SetDefault("host", "127.0.0.1")
	v.SetDefault("port", 8090)
	v.SetDefault("dagsDir", filepath.Join(dataDir, "dags"))
	v.SetDefault("dataDir", dataDir)
	v.SetDefault("logFormat", "text")
	v.SetDefault("debug", false)
}

func resolvePaths(cfg *Config) error {
	var err error
	if cfg.DAGsDir, err = fileutil.ResolvePath(cfg.DAGsDir); err != nil {
		return fmt.Errorf("failed to resolve dagsDir: %w", err)
	}
	if cfg.DataDir, err = fileutil.ResolvePath(cfg.DataDir); err != nil {
		return fmt.Errorf("failed to resolve dataDir: %w", err)
	}
	if cfg.DatabasePath == "" {
		cfg.DatabasePath = filepath.Join(cfg.DataDir, appName+".db")
	}
	if cfg.DatabasePath, err = fileutil.ResolvePath(cfg.DatabasePath); err != nil {
		return fmt.Errorf("failed to resolve databasePath: %w", err)
	}
	return nil
}
