package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"

	"support-router/internal/repository"
)

// Config is read from the environment once at process start.
type Config struct {
	OrdersTable     string `env:"DYNAMO_ORDERS_TABLE,required,notEmpty"`
	UsersTable      string `env:"DYNAMO_USERS_TABLE,required,notEmpty"`
	LogsTable       string `env:"DYNAMO_LOGS_TABLE,required,notEmpty"`
	ComplaintsTable string `env:"DYNAMO_COMPLAINTS_TABLE,required,notEmpty"`

	ResetLinkBaseURL string `env:"RESET_LINK_BASE_URL" envDefault:"https://example.com/reset-password"`
	// ParamPrefix enables the SSM override of ResetLinkBaseURL.
	ParamPrefix string `env:"PARAM_PREFIX"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
}

// Local holds settings used only by the development HTTP runner.
type Local struct {
	Addr  string `env:"LOCAL_ADDR" envDefault:":8080"`
	Store string `env:"LOCAL_STORE" envDefault:"memory"`
}

func Load() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	cfg.ParamPrefix = strings.TrimRight(strings.TrimSpace(cfg.ParamPrefix), "/")
	return cfg, nil
}

func LoadLocal() (Local, error) {
	local, err := env.ParseAs[Local]()
	if err != nil {
		return Local{}, fmt.Errorf("config: %w", err)
	}
	switch local.Store {
	case "memory", "dynamodb":
	default:
		return Local{}, fmt.Errorf("config: LOCAL_STORE must be memory or dynamodb, got %q", local.Store)
	}
	return local, nil
}

func (c Config) Tables() repository.Tables {
	return repository.Tables{
		Orders:     c.OrdersTable,
		Users:      c.UsersTable,
		Logs:       c.LogsTable,
		Complaints: c.ComplaintsTable,
	}
}

// ResetLinkParameter is the SSM parameter that overrides the reset link base.
// It is empty when no prefix is configured.
func (c Config) ResetLinkParameter() string {
	if c.ParamPrefix == "" {
		return ""
	}
	return c.ParamPrefix + "/reset_link_base_url"
}

func (c Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}
