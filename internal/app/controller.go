// Package app содержит контроллер жизненного цикла бота.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"genbot/internal/commands"
	"genbot/internal/config"
	"genbot/internal/dispatcher"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// ErrAlreadyStarted возвращается при повторном вызове Run
var ErrAlreadyStarted = errors.New("controller already started")

// BotClient операции Bot API, которые нужны контроллеру
type BotClient interface {
	SetCommands(ctx context.Context, cmds []commands.Command) error
	SetWebhook(ctx context.Context, url string) error
	WebhookInfo(ctx context.Context) (tgbotapi.WebhookInfo, error)
	DeleteWebhook(ctx context.Context) error
	GetUpdates(ctx context.Context, cfg tgbotapi.UpdateConfig) ([]tgbotapi.Update, error)
	Close() error
}

// Launcher запускает фоновую задачу
type Launcher interface {
	Launch(ctx context.Context) error
}

// Server обслуживает webhook до отмены контекста
type Server interface {
	Run(ctx context.Context) error
}

// Options параметры контроллера
type Options struct {
	Commands       []commands.Command
	WebhookURL     string
	OnStartupError string
	Polling        dispatcher.PollingOptions
}

// Controller выбирает режим работы и управляет запуском и остановкой бота
type Controller struct {
	client     BotClient
	dispatcher *dispatcher.Dispatcher
	server     Server
	reset      Launcher
	opts       Options
	logger     *zap.Logger
	started    atomic.Bool
}

// NewController создает контроллер
func NewController(client BotClient, disp *dispatcher.Dispatcher, server Server, reset Launcher, opts Options, logger *zap.Logger) *Controller {
	if opts.OnStartupError == "" {
		opts.OnStartupError = config.StartupErrorLogAndExit
	}
	if opts.Commands == nil {
		opts.Commands = commands.Default()
	}
	return &Controller{
		client:     client,
		dispatcher: disp,
		server:     server,
		reset:      reset,
		opts:       opts,
		logger:     logger,
	}
}

// Use добавляет внешние middleware диспетчера
func (c *Controller) Use(mws ...dispatcher.Middleware) {
	c.dispatcher.UseOuter(mws...)
}

// Run запускает бота в выбранном режиме и блокируется до его остановки.
// Повторный вызов возвращает ErrAlreadyStarted.
func (c *Controller) Run(ctx context.Context, mode Mode) error {
	if !c.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}

	c.logger.Info("Starting bot", zap.Stringer("mode", mode))

	switch mode {
	case ModeProduction:
		return c.runProduction(ctx)
	case ModeTesting:
		return c.runTesting(ctx)
	default:
		return fmt.Errorf("unknown mode %d", int(mode))
	}
}

func (c *Controller) runProduction(ctx context.Context) error {
	defer c.closeClient()

	c.dispatcher.OnStartup(c.onStartup)
	c.dispatcher.OnShutdown(c.onShutdown)

	err := c.server.Run(ctx)
	if err == nil {
		c.logger.Info("Bot stopped")
		return nil
	}

	return ApplyStartupPolicy(c.opts.OnStartupError, err, c.logger)
}

// ApplyStartupPolicy решает судьбу ошибки запуска в режиме webhook:
// propagate возвращает ее, log_and_exit логирует и возвращает nil
func ApplyStartupPolicy(policy string, err error, logger *zap.Logger) error {
	if err == nil {
		return nil
	}
	if policy == config.StartupErrorPropagate {
		return err
	}
	logger.Error("Bot stopped with error", zap.Error(err))
	return nil
}

func (c *Controller) runTesting(ctx context.Context) error {
	defer c.closeClient()

	if err := c.client.SetCommands(ctx, c.opts.Commands); err != nil {
		return fmt.Errorf("failed to set commands: %w", err)
	}

	if c.reset != nil {
		if err := c.reset.Launch(ctx); err != nil {
			return fmt.Errorf("failed to launch daily reset task: %w", err)
		}
	}

	c.logger.Info("Starting polling")
	if err := c.dispatcher.StartPolling(ctx, c.client, c.opts.Polling); err != nil {
		return fmt.Errorf("polling stopped: %w", err)
	}

	return nil
}

func (c *Controller) onStartup(ctx context.Context) error {
	if err := c.client.SetCommands(ctx, c.opts.Commands); err != nil {
		return fmt.Errorf("failed to set commands: %w", err)
	}
	if err := c.client.SetWebhook(ctx, c.opts.WebhookURL); err != nil {
		return fmt.Errorf("failed to set webhook: %w", err)
	}

	info, err := c.client.WebhookInfo(ctx)
	if err != nil {
		c.logger.Warn("Failed to get webhook info", zap.Error(err))
		return nil
	}
	c.logger.Info("Webhook set",
		zap.String("url", info.URL),
		zap.Int("pending_update_count", info.PendingUpdateCount),
		zap.String("last_error_message", info.LastErrorMessage))
	return nil
}

func (c *Controller) onShutdown(ctx context.Context) error {
	if err := c.client.DeleteWebhook(ctx); err != nil {
		return fmt.Errorf("failed to delete webhook: %w", err)
	}
	c.logger.Info("Webhook deleted")
	return nil
}

func (c *Controller) closeClient() {
	if err := c.client.Close(); err != nil {
		c.logger.Warn("Failed to close bot client", zap.Error(err))
	}
}
