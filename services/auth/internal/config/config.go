package config

import (
	"github.com/Skotchmaster/worknomads/pkg/config"
)

type ServiceConfig struct {
	config.Config

	// MinPasswordLength applies to registration only.
	MinPasswordLength int `env:"AUTH_MIN_PASSWORD_LENGTH" envDefault:"8"`
}

func Load() (*ServiceConfig, error) {
	var cfg ServiceConfig
	if err := config.Parse(&cfg); err != nil {
		return nil, err
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "auth"
	}
	return &cfg, nil
}
