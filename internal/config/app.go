package config

import (
	"github.com/caarlos0/env/v11"
	"github.com/go-faster/errors"
)

// AppConfig — прикладные настройки ёмкостного учёта.
type AppConfig struct {
	// Дефолтная вместимость лениво создаваемой строки леджера.
	DefaultSlotsTotal int `env:"DEFAULT_SLOTS_TOTAL" envDefault:"7"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

func LoadAppConfig() (*AppConfig, error) {
	cfg := &AppConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, errors.Wrap(err, "parse app config")
	}
	if cfg.DefaultSlotsTotal < 0 {
		return nil, errors.New("invalid app config: DEFAULT_SLOTS_TOTAL must not be negative")
	}
	return cfg, nil
}
