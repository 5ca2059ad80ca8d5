package config

import "time"

// Flavour selects how a session is persisted and restored.
const (
	// FlavourDevice stores user and token and restores without a network call.
	FlavourDevice = "device"
	// FlavourBrowser stores only the token and restores through the profile endpoint.
	FlavourBrowser = "browser"
)

// Store backends.
const (
	StoreSQLite  = "sqlite"
	StoreKeyring = "keyring"
	StoreMemory  = "memory"
)

// Config holds client configuration values.
type Config struct {
	APIURL         string        `mapstructure:"api_url" yaml:"api_url"`
	PushURL        string        `mapstructure:"push_url" yaml:"push_url"`
	ClientID       string        `mapstructure:"client_id" yaml:"client_id"`
	Scope          string        `mapstructure:"scope" yaml:"scope"`
	Flavour        string        `mapstructure:"flavour" yaml:"flavour"`
	CallbackAddr   string        `mapstructure:"callback_addr" yaml:"callback_addr"`
	StoreBackend   string        `mapstructure:"store_backend" yaml:"store_backend"`
	StorePath      string        `mapstructure:"store_path" yaml:"store_path"`
	KeyPrefix      string        `mapstructure:"key_prefix" yaml:"key_prefix"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
	DrainInterval  time.Duration `mapstructure:"drain_interval" yaml:"drain_interval"`
	WindowSize     int           `mapstructure:"window_size" yaml:"window_size"`
	QueueCapacity  int           `mapstructure:"queue_capacity" yaml:"queue_capacity"`
	LogLevel       string        `mapstructure:"log_level" yaml:"log_level"`

	// Development backend.
	DevAddr   string `mapstructure:"dev_addr" yaml:"dev_addr"`
	JWTSecret string `mapstructure:"jwt_secret" yaml:"jwt_secret"`
}

// OAuth client and storage namespace per flavour.
const (
	deviceClientID  = "da3f2f2bf7954b9cc481"
	deviceScope     = "read:user"
	deviceKeyPrefix = "@nlwheat:"

	browserClientID  = "4554cdf9c353c91f2ee7"
	browserScope     = "user"
	browserKeyPrefix = "@dowhile:"
)

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		APIURL:         "http://localhost:4000/",
		PushURL:        "ws://localhost:4000/ws",
		ClientID:       deviceClientID,
		Scope:          deviceScope,
		Flavour:        FlavourDevice,
		CallbackAddr:   "127.0.0.1:4567",
		StoreBackend:   StoreSQLite,
		StorePath:      "heatchat.db",
		KeyPrefix:      deviceKeyPrefix,
		RequestTimeout: 10 * time.Second,
		DrainInterval:  3 * time.Second,
		WindowSize:     3,
		QueueCapacity:  64,
		LogLevel:       "info",
		DevAddr:        ":4000",
		JWTSecret:      "change-me",
	}
}

// ApplyFlavourDefaults swaps the device client id, scope and key prefix for
// the browser ones when the browser flavour is selected. Values that differ
// from the device defaults are left alone.
func (c *Config) ApplyFlavourDefaults() {
	if c.Flavour != FlavourBrowser {
		return
	}
	if c.ClientID == deviceClientID {
		c.ClientID = browserClientID
	}
	if c.Scope == deviceScope {
		c.Scope = browserScope
	}
	if c.KeyPrefix == deviceKeyPrefix {
		c.KeyPrefix = browserKeyPrefix
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.APIURL != "" {
		c.APIURL = other.APIURL
	}
	if other.PushURL != "" {
		c.PushURL = other.PushURL
	}
	if other.ClientID != "" {
		c.ClientID = other.ClientID
	}
	if other.Scope != "" {
		c.Scope = other.Scope
	}
	if other.Flavour != "" {
		c.Flavour = other.Flavour
	}
	if other.CallbackAddr != "" {
		c.CallbackAddr = other.CallbackAddr
	}
	if other.StoreBackend != "" {
		c.StoreBackend = other.StoreBackend
	}
	if other.StorePath != "" {
		c.StorePath = other.StorePath
	}
	if other.KeyPrefix != "" {
		c.KeyPrefix = other.KeyPrefix
	}
	if other.RequestTimeout != 0 {
		c.RequestTimeout = other.RequestTimeout
	}
	if other.DrainInterval != 0 {
		c.DrainInterval = other.DrainInterval
	}
	if other.WindowSize != 0 {
		c.WindowSize = other.WindowSize
	}
	if other.QueueCapacity != 0 {
		c.QueueCapacity = other.QueueCapacity
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.DevAddr != "" {
		c.DevAddr = other.DevAddr
	}
	if other.JWTSecret != "" {
		c.JWTSecret = other.JWTSecret
	}
}
