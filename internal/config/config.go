package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const (
	envPrefix          = "FBA"
	defaultHTTPAddress = "0.0.0.0:8080"
	defaultMediaDir    = "media"
	defaultLogLevel    = "info"
)

// GatewayMode selects which backend the server talks to.
type GatewayMode string

const (
	// ModeRemote proxies content through a hosted backend.
	ModeRemote GatewayMode = "remote"
	// ModeLocal keeps content in an embedded SQLite database.
	ModeLocal GatewayMode = "local"
	// ModeSample serves the built-in sample content read-only.
	ModeSample GatewayMode = "sample"
)

// AppConfig captures runtime configuration for the site server.
type AppConfig struct {
	HTTPAddress string

	GatewayURL     string
	GatewayAnonKey string

	DatabasePath  string
	MediaDir      string
	SigningSecret string

	OperatorEmail      string
	OperatorSecretHash string

	LogLevel string
}

// Mode derives the gateway mode from the configured backends. A remote
// URL wins over a local database path.
func (c AppConfig) Mode() GatewayMode {
	if strings.TrimSpace(c.GatewayURL) != "" {
		return ModeRemote
	}
	if strings.TrimSpace(c.DatabasePath) != "" {
		return ModeLocal
	}
	return ModeSample
}

// NewViper returns a viper instance with defaults and env bindings configured.
func NewViper() *viper.Viper {
	configViper := viper.New()
	ApplyDefaults(configViper)
	return configViper
}

// ApplyDefaults configures defaults and env bindings on the provided viper instance.
func ApplyDefaults(configViper *viper.Viper) {
	configViper.SetEnvPrefix(envPrefix)
	configViper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	configViper.AutomaticEnv()

	configViper.SetDefault("http.address", defaultHTTPAddress)
	configViper.SetDefault("media.dir", defaultMediaDir)
	configViper.SetDefault("log.level", defaultLogLevel)
}

// Load parses runtime configuration from viper.
func Load(configViper *viper.Viper) (AppConfig, error) {
	cfg := AppConfig{
		HTTPAddress:        configViper.GetString("http.address"),
		GatewayURL:         configViper.GetString("gateway.url"),
		GatewayAnonKey:     configViper.GetString("gateway.anon_key"),
		DatabasePath:       configViper.GetString("database.path"),
		MediaDir:           configViper.GetString("media.dir"),
		SigningSecret:      configViper.GetString("auth.signing_secret"),
		OperatorEmail:      configViper.GetString("operator.email"),
		OperatorSecretHash: configViper.GetString("operator.password_hash"),
		LogLevel:           configViper.GetString("log.level"),
	}

	if err := cfg.validate(); err != nil {
		return AppConfig{}, err
	}

	return cfg, nil
}

func (c AppConfig) validate() error {
	if strings.TrimSpace(c.HTTPAddress) == "" {
		return fmt.Errorf("http.address is required")
	}
	switch c.Mode() {
	case ModeRemote:
		if strings.TrimSpace(c.GatewayAnonKey) == "" {
			return fmt.Errorf("gateway.anon_key is required when gateway.url is set")
		}
	case ModeLocal:
		if strings.TrimSpace(c.SigningSecret) == "" {
			return fmt.Errorf("auth.signing_secret is required when database.path is set")
		}
		if strings.TrimSpace(c.OperatorEmail) == "" {
			return fmt.Errorf("operator.email is required when database.path is set")
		}
		if strings.TrimSpace(c.OperatorSecretHash) == "" {
			return fmt.Errorf("operator.password_hash is required when database.path is set")
		}
	}
	return nil
}
