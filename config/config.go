package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Mode           string        `mapstructure:"mode"`
	Port           int           `mapstructure:"port"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
	JWTKey         string        `mapstructure:"jwt_key"`
	TokenMaxAge    time.Duration `mapstructure:"token_max_age"`
	PostgresURL    string        `mapstructure:"postgres_url"`
	AppId          string        `mapstructure:"app_id"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigName("config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetDefault("mode", "release")
	v.SetDefault("port", 5000)
	v.SetDefault("allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("token_max_age", "168h")
	v.SetDefault("app_id", "studychamp")
	// env-only keys still need a registered default for Unmarshal to see them
	v.SetDefault("jwt_key", "")
	v.SetDefault("postgres_url", "")

	v.SetEnvPrefix("ARENA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.JWTKey == "" {
		return nil, fmt.Errorf("missing jwt signing key (ARENA_JWT_KEY)")
	}
	return &cfg, nil
}
