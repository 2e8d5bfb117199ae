package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const (
	ConfigName = ".krizpay"
	EnvPrefix  = "KRIZPAY"
)

// Config holds the application configuration
type Config struct {
	LogLevel         string             `mapstructure:"log_level" validate:"oneof=debug info warn warning error"`
	Provider         ProviderConfig     `mapstructure:"provider"`
	Rates            map[string]float64 `mapstructure:"rates" validate:"dive,gt=0"`
	Store            StoreConfig        `mapstructure:"store"`
	UPI              UPIConfig          `mapstructure:"upi"`
	Server           ServerConfig       `mapstructure:"server"`
	PlaceholderDelay time.Duration      `mapstructure:"placeholder_delay" validate:"gte=0"`
	SubmitTimeout    time.Duration      `mapstructure:"submit_timeout" validate:"gte=0"`
	PendingPath      string             `mapstructure:"pending_path"`
}

// ProviderConfig configures the injected EVM provider
type ProviderConfig struct {
	RPCURL     string `mapstructure:"rpc_url" validate:"omitempty,url"`
	PrivateKey string `mapstructure:"private_key"`
	ChainID    int64  `mapstructure:"chain_id" validate:"gte=0"`
	Network    string `mapstructure:"network"`
	Selected   bool   `mapstructure:"selected"`
}

// StoreConfig selects where transaction records go
type StoreConfig struct {
	Driver string `mapstructure:"driver" validate:"oneof=file sqlite postgres http"`
	Path   string `mapstructure:"path"`
	DSN    string `mapstructure:"dsn"`
	URL    string `mapstructure:"url" validate:"omitempty,url"`
}

// UPIConfig configures how UPI targets are settled on-chain
type UPIConfig struct {
	SettlementAddress string `mapstructure:"settlement_address" validate:"omitempty,eth_addr"`
	PayeeName         string `mapstructure:"payee_name"`
}

// ServerConfig configures the record backend
type ServerConfig struct {
	ListenAddr     string   `mapstructure:"listen_addr" validate:"required"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// HasProvider reports whether enough is configured to dial a provider
func (c *Config) HasProvider() bool {
	return c.Provider.RPCURL != "" && c.Provider.PrivateKey != ""
}

// Validate checks field rules and the combinations they cannot express
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	switch c.Store.Driver {
	case "http":
		if c.Store.URL == "" {
			return fmt.Errorf("invalid configuration: store.url is required for the http store")
		}
	case "postgres":
		if c.Store.DSN == "" {
			return fmt.Errorf("invalid configuration: store.dsn is required for the postgres store")
		}
	}
	if (c.Provider.RPCURL == "") != (c.Provider.PrivateKey == "") {
		return fmt.Errorf("invalid configuration: provider.rpc_url and provider.private_key must be set together")
	}
	return nil
}

var validate = validator.New()

// SetDefaults registers defaults on v. Every key gets one so environment
// variables reach Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("provider.rpc_url", "")
	v.SetDefault("provider.private_key", "")
	v.SetDefault("provider.chain_id", 0)
	v.SetDefault("provider.network", "")
	v.SetDefault("provider.selected", false)
	v.SetDefault("rates", map[string]float64{})
	v.SetDefault("store.driver", "file")
	v.SetDefault("store.path", "")
	v.SetDefault("store.dsn", "")
	v.SetDefault("store.url", "")
	v.SetDefault("upi.settlement_address", "")
	v.SetDefault("upi.payee_name", "KrizPay")
	v.SetDefault("server.listen_addr", ":5000")
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("placeholder_delay", "1500ms")
	v.SetDefault("submit_timeout", "2m")
	v.SetDefault("pending_path", "")
}

// LoadFrom decodes and validates the configuration held by v
func LoadFrom(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	cfg.Store.Driver = strings.ToLower(cfg.Store.Driver)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Load reads configuration from environment variables and config file
func Load() (*Config, error) {
	viper.SetConfigName(ConfigName)
	viper.SetConfigType("yaml")
	viper.AddConfigPath("$HOME")
	viper.AddConfigPath(".")

	SetDefaults(viper.GetViper())

	// Read from environment variables
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Read config file (optional)
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return LoadFrom(viper.GetViper())
}
