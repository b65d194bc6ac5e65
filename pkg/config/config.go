package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds the settings every service reads from the environment.
// Both services must be started with the same JWT_SIGNING_KEY and
// JWT_ALGORITHM; that pair is the only thing they share.
type Config struct {
	ServiceName string `env:"SERVICE_NAME"`
	ServerPort  int    `env:"SERVER_PORT" envDefault:"8080"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	DatabaseURL string `env:"DATABASE_URL" envDefault:"sqlite://db.sqlite3"`

	JWTSigningKey   string        `env:"JWT_SIGNING_KEY"`
	JWTAlgorithm    string        `env:"JWT_ALGORITHM" envDefault:"HS256"`
	AccessTokenTTL  time.Duration `env:"ACCESS_TOKEN_LIFETIME" envDefault:"60m"`
	RefreshTokenTTL time.Duration `env:"REFRESH_TOKEN_LIFETIME" envDefault:"24h"`

	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`

	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

func Load() (Config, error) {
	var cfg Config
	if err := Parse(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Parse fills any struct tagged for caarlos0/env, so service configs can
// embed Config and add their own fields.
func Parse(v any) error {
	if err := env.Parse(v); err != nil {
		return fmt.Errorf("parse env config: %w", err)
	}
	return nil
}

func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.ServerPort)
}

func (c Config) SigningKey() []byte {
	return []byte(c.JWTSigningKey)
}

// AllowedOrigins returns the CORS allow list; an empty setting allows all.
func (c Config) AllowedOrigins() []string {
	out := CSV(strings.Join(c.CORSAllowedOrigins, ","))
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
