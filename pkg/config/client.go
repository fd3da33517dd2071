package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. NEBULA_IO_ADMIN_URL.
const EnvPrefix = "NEBULA_IO"

// ClientConfig holds the settings of the CLI itself: where the Admin API lives,
// how to authenticate against it, and where local connector archives are kept.
type ClientConfig struct {
	AdminURL string `mapstructure:"admin_url"`

	// AuthPlugin is "", "token" or "oauth2"
	AuthPlugin string       `mapstructure:"auth_plugin"`
	AuthParams string       `mapstructure:"auth_params"`
	OAuth2     OAuth2Config `mapstructure:"oauth2"`

	TLSAllowInsecure bool   `mapstructure:"tls_allow_insecure"`
	TLSTrustCertPath string `mapstructure:"tls_trust_cert_path"`

	RequestTimeout time.Duration `mapstructure:"request_timeout"`

	// ConnectorsDir is scanned by local-run to resolve connector types
	ConnectorsDir string `mapstructure:"connectors_dir"`
	// RuntimeBinary launches local-run descriptors; empty prints them instead
	RuntimeBinary string `mapstructure:"runtime_binary"`

	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`

	// GCSCredentialsFile is used when fetching gs:// packages for inspection
	GCSCredentialsFile string `mapstructure:"gcs_credentials_file"`
	// S3Region is used when fetching s3:// packages for inspection
	S3Region string `mapstructure:"s3_region"`
}

// OAuth2Config configures the client-credentials flow used by the oauth2 auth plugin.
type OAuth2Config struct {
	TokenURL     string   `mapstructure:"token_url"`
	ClientID     string   `mapstructure:"client_id"`
	ClientSecret string   `mapstructure:"client_secret"`
	Audience     string   `mapstructure:"audience"`
	Scopes       []string `mapstructure:"scopes"`
}

// SetClientDefaults registers the defaults on v.
func SetClientDefaults(v *viper.Viper) {
	v.SetDefault("admin_url", "http://localhost:8080")
	v.SetDefault("auth_plugin", "")
	v.SetDefault("request_timeout", 30*time.Second)
	v.SetDefault("connectors_dir", "connectors")
	v.SetDefault("log_level", "warn")
	v.SetDefault("log_format", "console")
}

// NewClientViper returns a viper instance wired for nebula-io: defaults,
// NEBULA_IO_* environment overrides and the client.yaml search path.
func NewClientViper() *viper.Viper {
	v := viper.New()
	SetClientDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	v.SetConfigName("client")
	v.SetConfigType("yaml")
	v.AddConfigPath("$HOME/.nebula-io")
	v.AddConfigPath(".")
	return v
}

// LoadClientConfig reads the client settings. An explicit path must exist; when
// path is empty a missing client.yaml is not an error.
func LoadClientConfig(v *viper.Viper, path string) (*ClientConfig, error) {
	if path != "" {
		v.SetConfigFile(path)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read client config: %w", err)
		}
	}

	var cfg ClientConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode client config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the client settings.
func (c *ClientConfig) Validate() error {
	switch c.AuthPlugin {
	case "", "token":
	case "oauth2":
		if c.OAuth2.TokenURL == "" || c.OAuth2.ClientID == "" {
			return fmt.Errorf("oauth2 auth plugin requires oauth2.token_url and oauth2.client_id")
		}
	default:
		return fmt.Errorf("unsupported auth plugin %q", c.AuthPlugin)
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("request_timeout cannot be negative")
	}
	return nil
}
