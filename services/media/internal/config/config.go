package config

import (
	"strings"

	"github.com/Skotchmaster/worknomads/pkg/config"
	"github.com/Skotchmaster/worknomads/pkg/storage"
)

type ServiceConfig struct {
	config.Config

	StorageBackend string `env:"MEDIA_STORAGE_BACKEND" envDefault:"local"`
	MediaRoot      string `env:"MEDIA_ROOT" envDefault:"media"`
	MediaURL       string `env:"MEDIA_URL" envDefault:"/media/"`
	MaxUploadBytes int64  `env:"MEDIA_MAX_UPLOAD" envDefault:"52428800"`

	S3Bucket          string `env:"MEDIA_S3_BUCKET"`
	S3Region          string `env:"MEDIA_S3_REGION" envDefault:"us-east-1"`
	S3Endpoint        string `env:"MEDIA_S3_ENDPOINT"`
	S3AccessKeyID     string `env:"MEDIA_S3_ACCESS_KEY_ID"`
	S3SecretAccessKey string `env:"MEDIA_S3_SECRET_ACCESS_KEY"`
	S3UsePathStyle    bool   `env:"MEDIA_S3_USE_PATH_STYLE" envDefault:"true"`
	S3PublicURL       string `env:"MEDIA_S3_PUBLIC_URL"`
}

func Load() (*ServiceConfig, error) {
	var cfg ServiceConfig
	if err := config.Parse(&cfg); err != nil {
		return nil, err
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "media"
	}
	cfg.StorageBackend = strings.ToLower(strings.TrimSpace(cfg.StorageBackend))
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 50 << 20
	}
	return &cfg, nil
}

func (c *ServiceConfig) Local() storage.LocalConfig {
	return storage.LocalConfig{Root: c.MediaRoot, BaseURL: c.MediaURL}
}

func (c *ServiceConfig) S3() storage.S3Config {
	return storage.S3Config{
		Bucket:          strings.TrimSpace(c.S3Bucket),
		Region:          strings.TrimSpace(c.S3Region),
		Endpoint:        strings.TrimSpace(c.S3Endpoint),
		AccessKeyID:     strings.TrimSpace(c.S3AccessKeyID),
		SecretAccessKey: strings.TrimSpace(c.S3SecretAccessKey),
		UsePathStyle:    c.S3UsePathStyle,
		PublicURL:       strings.TrimSpace(c.S3PublicURL),
	}
}
