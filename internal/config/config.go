package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App struct {
		Name string `envconfig:"APP_NAME" default:"SalesCore"`
		Port int    `envconfig:"PORT" default:"8080"`
	}

	Ledger struct {
		Dir             string `envconfig:"LEDGER_DIR" default:"data"`
		WholesalePrefix string `envconfig:"LEDGER_WHOLESALE_PREFIX" default:"Vendas"`
		RetailPrefix    string `envconfig:"LEDGER_RETAIL_PREFIX" default:"Varejo"`
		SkipBackup      bool   `envconfig:"LEDGER_SKIP_BACKUP" default:"false"`
	}

	Analytics struct {
		// Default monthly goal in cents; overridable per request.
		GoalCents   int64 `envconfig:"ANALYTICS_GOAL_CENTS" default:"10000000"`
		WorkingDays int   `envconfig:"ANALYTICS_WORKING_DAYS" default:"22"`
	}

	Server struct {
		Timeout time.Duration `envconfig:"SERVER_TIMEOUT" default:"30s"`
	}
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}
