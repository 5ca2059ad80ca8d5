package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	envConfigDefaultPath = "HEATCHAT_CONFIG_DEFAULT_PATH"
	defaultConfigName    = "heatchat.yaml"
)

// Load builds configuration from defaults, optional config file, env vars, and returns the resolved path.
// Precedence: defaults < config file < env vars < caller overrides.
func Load(logger *zerolog.Logger, explicitPath string) (Config, string, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetDefault("api_url", cfg.APIURL)
	v.SetDefault("push_url", cfg.PushURL)
	v.SetDefault("client_id", cfg.ClientID)
	v.SetDefault("scope", cfg.Scope)
	v.SetDefault("flavour", cfg.Flavour)
	v.SetDefault("callback_addr", cfg.CallbackAddr)
	v.SetDefault("store_backend", cfg.StoreBackend)
	v.SetDefault("store_path", cfg.StorePath)
	v.SetDefault("key_prefix", cfg.KeyPrefix)
	v.SetDefault("request_timeout", cfg.RequestTimeout)
	v.SetDefault("drain_interval", cfg.DrainInterval)
	v.SetDefault("window_size", cfg.WindowSize)
	v.SetDefault("queue_capacity", cfg.QueueCapacity)
	v.SetDefault("log_level", cfg.LogLevel)
	v.SetDefault("dev_addr", cfg.DevAddr)
	v.SetDefault("jwt_secret", cfg.JWTSecret)

	v.SetEnvPrefix("HEATCHAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	configPath := resolveConfigPath(explicitPath)
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
			if writeErr := writeDefaultConfig(configPath, cfg); writeErr != nil && logger != nil {
				logger.Warn().Err(writeErr).Str("path", configPath).Msg("failed to write default config")
			} else if logger != nil {
				logger.Info().Str("path", configPath).Msg("created default config")
			}
			// try reading again in case it was just written
			if readErr := v.ReadInConfig(); readErr != nil && logger != nil {
				logger.Warn().Err(readErr).Str("path", configPath).Msg("failed to read config after writing default")
			}
		} else {
			return cfg, configPath, fmt.Errorf("read config: %w", err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, configPath, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.ApplyFlavourDefaults()

	if err := cfg.Validate(); err != nil {
		return cfg, configPath, err
	}

	return cfg, configPath, nil
}

// Validate rejects values the client cannot run with.
func (c Config) Validate() error {
	switch c.Flavour {
	case FlavourDevice, FlavourBrowser:
	default:
		return fmt.Errorf("invalid flavour %q", c.Flavour)
	}
	switch c.StoreBackend {
	case StoreSQLite, StoreKeyring, StoreMemory:
	default:
		return fmt.Errorf("invalid store backend %q", c.StoreBackend)
	}
	if c.APIURL == "" {
		return errors.New("api_url is required")
	}
	if c.WindowSize < 0 || c.QueueCapacity < 0 {
		return errors.New("window_size and queue_capacity must not be negative")
	}
	return nil
}

func resolveConfigPath(explicitPath string) string {
	if explicitPath != "" {
		return explicitPath
	}

	if base := os.Getenv(envConfigDefaultPath); base != "" {
		if err := os.MkdirAll(base, 0o755); err == nil {
			return filepath.Join(base, defaultConfigName)
		}
	}

	cwd, err := os.Getwd()
	if err != nil {
		return defaultConfigName
	}
	return filepath.Join(cwd, defaultConfigName)
}

func writeDefaultConfig(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
