package config

import (
	"github.com/Skotchmaster/worknomads/pkg/config"
)

// Config for the optional edge proxy that puts both services behind one
// origin. It holds no secret; tokens are verified by the media service.
type Config struct {
	ListenAddr string `env:"GATEWAY_ADDR" envDefault:":8000"`
	AuthURL    string `env:"AUTH_URL"`
	MediaURL   string `env:"MEDIA_SERVICE_URL"`
	LogLevel   string `env:"LOG_LEVEL" envDefault:"info"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := config.Parse(&cfg); err != nil {
		return nil, err
	}
	config.MustNonEmpty(cfg.AuthURL, "AUTH_URL")
	config.MustNonEmpty(cfg.MediaURL, "MEDIA_SERVICE_URL")
	return &cfg, nil
}
