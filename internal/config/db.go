package config

import (
	"github.com/caarlos0/env/v11"
	"github.com/go-faster/errors"
)

type DBConfig struct {
	Host            string `env:"DB_HOST" envDefault:"postgres"`
	Port            int    `env:"DB_PORT" envDefault:"5432"`
	User            string `env:"DB_USER" envDefault:"agency"`
	Password        string `env:"DB_PASSWORD" envDefault:"agency"`
	Name            string `env:"DB_NAME" envDefault:"agency_db"`
	SSLMode         string `env:"DB_SSLMODE" envDefault:"disable"`
	TimeZone        string `env:"DB_TIMEZONE" envDefault:"UTC"`
	MaxOpenConns    int    `env:"DB_MAX_OPEN_CONNS" envDefault:"10"`
	MaxIdleConns    int    `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLifeTime int    `env:"DB_CONN_MAX_LIFETIME_MIN" envDefault:"30"` // минут
}

func LoadDBConfig() (*DBConfig, error) {
	cfg := &DBConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, errors.Wrap(err, "parse db config")
	}

	// минимальная валидация
	if cfg.Host == "" || cfg.User == "" || cfg.Name == "" {
		return nil, errors.New("invalid DB config: host/user/name must not be empty")
	}

	return cfg, nil
}
