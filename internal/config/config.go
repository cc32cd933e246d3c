package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/BlackMission/spauth/internal/domain"
)

// Config is the top-level application configuration.
type Config struct {
	Server     ServerConfig
	Secrets    SecretsConfig
	Log        LogConfig
	SharePoint *domain.StrategySettings // nil when the strategy is not configured
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port    int
	Host    string
	BaseURL string
}

// SecretsConfig holds cryptographic key references.
type SecretsConfig struct {
	StateSigningKey string
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  logrus.Level
	Format string // json or text
}

// Load reads configuration from the environment. When envFile is set and
// exists, it is loaded first without overriding variables already set.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: loading %s: %v", domain.ErrInvalidConfig, envFile, err)
		}
	}

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("PORT", "8080")
	v.SetDefault("HOST", "0.0.0.0")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("SHAREPOINT_LOGIN_MODE", string(domain.LoginModeDirect))
	v.SetDefault("SHAREPOINT_NAME_SPLIT", string(domain.NameSplitFirstSpace))
	v.SetDefault("SHAREPOINT_ACCESS_TOKEN", string(domain.AccessTokenPlaceholder))
	v.SetDefault("SHAREPOINT_TEST_ACCOUNT_FILTER", false)

	port, err := strconv.Atoi(v.GetString("PORT"))
	if err != nil {
		return nil, fmt.Errorf("%w: PORT must be a number: %v", domain.ErrInvalidConfig, err)
	}

	level, err := logrus.ParseLevel(v.GetString("LOG_LEVEL"))
	if err != nil {
		return nil, fmt.Errorf("%w: LOG_LEVEL: %v", domain.ErrInvalidConfig, err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:    port,
			Host:    v.GetString("HOST"),
			BaseURL: v.GetString("BASE_URL"),
		},
		Secrets: SecretsConfig{
			StateSigningKey: v.GetString("STATE_SIGNING_KEY"),
		},
		Log: LogConfig{
			Level:  level,
			Format: strings.ToLower(v.GetString("LOG_FORMAT")),
		},
	}

	// The SharePoint strategy is enabled by the presence of SHAREPOINT_URL.
	if site := v.GetString("SHAREPOINT_URL"); site != "" {
		cfg.SharePoint = &domain.StrategySettings{
			URL:               site,
			ACS:               v.GetString("SHAREPOINT_ACS"),
			ClientID:          v.GetString("SHAREPOINT_CLIENT_ID"),
			Secret:            v.GetString("SHAREPOINT_SECRET"),
			RedirectURL:       v.GetString("SHAREPOINT_REDIRECT_URL"),
			LoginMode:         domain.LoginMode(strings.ToLower(v.GetString("SHAREPOINT_LOGIN_MODE"))),
			NameSplit:         domain.NameSplitPolicy(strings.ToLower(v.GetString("SHAREPOINT_NAME_SPLIT"))),
			AccessToken:       domain.AccessTokenPolicy(strings.ToLower(v.GetString("SHAREPOINT_ACCESS_TOKEN"))),
			TestAccountFilter: v.GetBool("SHAREPOINT_TEST_ACCOUNT_FILTER"),
		}
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.Secrets.StateSigningKey == "" {
		return fmt.Errorf("%w: STATE_SIGNING_KEY is required", domain.ErrMissingConfig)
	}
	if cfg.Log.Format != "json" && cfg.Log.Format != "text" {
		return fmt.Errorf("%w: LOG_FORMAT must be json or text, got %q", domain.ErrInvalidConfig, cfg.Log.Format)
	}

	sp := cfg.SharePoint
	if sp == nil {
		return nil
	}
	switch sp.LoginMode {
	case domain.LoginModeDirect, domain.LoginModeRedirect:
	default:
		return fmt.Errorf("%w: SHAREPOINT_LOGIN_MODE must be direct or redirect, got %q", domain.ErrInvalidConfig, sp.LoginMode)
	}
	switch sp.NameSplit {
	case domain.NameSplitFirstSpace, domain.NameSplitNone:
	default:
		return fmt.Errorf("%w: SHAREPOINT_NAME_SPLIT must be first_space or none, got %q", domain.ErrInvalidConfig, sp.NameSplit)
	}
	switch sp.AccessToken {
	case domain.AccessTokenPlaceholder, domain.AccessTokenCaller:
	default:
		return fmt.Errorf("%w: SHAREPOINT_ACCESS_TOKEN must be placeholder or caller, got %q", domain.ErrInvalidConfig, sp.AccessToken)
	}
	return nil
}
