// Package config содержит загрузку и валидацию конфигурации.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"genbot/pkg/logger"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Политики обработки ошибки запуска webhook-сервера
const (
	StartupErrorLogAndExit = "log_and_exit"
	StartupErrorPropagate  = "propagate"
)

// Config представляет конфигурацию приложения
type Config struct {
	// Telegram
	BotToken    string        `env:"TELEGRAM_TOKEN"`
	APIEndpoint string        `env:"TELEGRAM_API_ENDPOINT" envDefault:"https://api.telegram.org/bot%s/%s"`
	HTTPTimeout time.Duration `env:"TELEGRAM_HTTP_TIMEOUT" envDefault:"75s"`
	PollTimeout int           `env:"POLL_TIMEOUT" envDefault:"60"`

	// Режим запуска: true - long polling, false - webhook
	Debug          bool   `env:"DEBUG" envDefault:"false"`
	OnStartupError string `env:"ON_STARTUP_ERROR" envDefault:"log_and_exit"`

	Webhook WebhookConfig

	// Storage
	RedisURL    string `env:"REDIS_URL"`
	DatabaseURL string `env:"DB_DSN"`

	Tasks     TasksConfig
	RateLimit RateLimitConfig
	Log       logger.Config
}

// WebhookConfig представляет конфигурацию webhook-сервера
type WebhookConfig struct {
	BaseURL            string        `env:"BASE_WEBHOOK_URL"`
	Path               string        `env:"WEBHOOK_PATH" envDefault:"/webhook"`
	Host               string        `env:"WEB_SERVER_HOST" envDefault:"0.0.0.0"`
	Port               int           `env:"WEB_SERVER_PORT" envDefault:"8080"`
	Workers            int           `env:"WEBHOOK_WORKERS" envDefault:"4"`
	QueueSize          int           `env:"WEBHOOK_QUEUE_SIZE" envDefault:"100"`
	ShutdownTimeout    time.Duration `env:"WEBHOOK_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	DropPendingUpdates bool          `env:"WEBHOOK_DROP_PENDING" envDefault:"false"`
}

// URL возвращает полный адрес webhook
func (w WebhookConfig) URL() string {
	return w.BaseURL + w.Path
}

// Addr возвращает адрес, на котором слушает сервер
func (w WebhookConfig) Addr() string {
	return fmt.Sprintf("%s:%d", w.Host, w.Port)
}

// TasksConfig представляет конфигурацию ежедневного сброса генераций
type TasksConfig struct {
	DailyGenerations int    `env:"DAILY_GENERATIONS" envDefault:"3"`
	ResetSchedule    string `env:"DAILY_RESET_CRON" envDefault:"0 0 * * *"`
	Timezone         string `env:"TIMEZONE" envDefault:"Europe/Moscow"`
}

// RateLimitConfig представляет конфигурацию ограничения запросов пользователя
type RateLimitConfig struct {
	RPS   float64 `env:"RATE_LIMIT_RPS" envDefault:"1"`
	Burst int     `env:"RATE_LIMIT_BURST" envDefault:"5"`
}

// Load загружает конфигурацию из .env и переменных окружения
func Load() (*Config, error) {
	// .env не обязателен, переменные могут прийти из окружения
	_ = godotenv.Load()

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// Validate проверяет конфигурацию
func (c *Config) Validate() error {
	var errs []error

	if c.BotToken == "" {
		errs = append(errs, errors.New("TELEGRAM_TOKEN is required"))
	}

	if !c.Debug {
		if c.Webhook.BaseURL == "" {
			errs = append(errs, errors.New("BASE_WEBHOOK_URL is required in webhook mode"))
		}
		if !strings.HasPrefix(c.Webhook.Path, "/") {
			errs = append(errs, fmt.Errorf("WEBHOOK_PATH must start with '/', got %q", c.Webhook.Path))
		}
		if c.Webhook.Port < 0 || c.Webhook.Port > 65535 {
			errs = append(errs, fmt.Errorf("WEB_SERVER_PORT out of range: %d", c.Webhook.Port))
		}
	}

	switch c.OnStartupError {
	case StartupErrorLogAndExit, StartupErrorPropagate:
	default:
		errs = append(errs, fmt.Errorf("ON_STARTUP_ERROR must be %q or %q, got %q",
			StartupErrorLogAndExit, StartupErrorPropagate, c.OnStartupError))
	}

	if c.PollTimeout < 0 {
		errs = append(errs, errors.New("POLL_TIMEOUT must not be negative"))
	}

	return errors.Join(errs...)
}
