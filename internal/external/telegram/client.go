// Package telegram содержит интеграцию с Telegram Bot API.
package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"genbot/internal/commands"
	"net/http"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

// Config представляет настройки клиента
type Config struct {
	Token              string
	APIEndpoint        string
	HTTPTimeout        time.Duration
	DropPendingUpdates bool
	Breaker            BreakerConfig
}

// Client представляет клиент Telegram Bot API
type Client struct {
	bot        *tgbotapi.BotAPI
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[*tgbotapi.APIResponse]
	logger     *zap.Logger
	dropOnDel  bool
	closeOnce  sync.Once
}

// NewClient создает новый клиент Telegram и проверяет токен через getMe
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.APIEndpoint == "" {
		cfg.APIEndpoint = tgbotapi.APIEndpoint
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 75 * time.Second
	}

	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
		},
	}

	bot, err := tgbotapi.NewBotAPIWithClient(cfg.Token, cfg.APIEndpoint, httpClient)
	if err != nil {
		httpClient.CloseIdleConnections()
		return nil, fmt.Errorf("failed to create bot API: %w", err)
	}

	bot.Debug = false
	logger.Info("Telegram bot created", zap.String("username", bot.Self.UserName))

	return &Client{
		bot:        bot,
		httpClient: httpClient,
		breaker:    newBreaker(cfg.Breaker, logger),
		logger:     logger,
		dropOnDel:  cfg.DropPendingUpdates,
	}, nil
}

// API возвращает исходный BotAPI для отправки сообщений
func (c *Client) API() *tgbotapi.BotAPI {
	return c.bot
}

// Self возвращает информацию о боте
func (c *Client) Self() tgbotapi.User {
	return c.bot.Self
}

// SetCommands публикует список команд бота
func (c *Client) SetCommands(ctx context.Context, cmds []commands.Command) error {
	_, err := c.request(ctx, "setMyCommands", tgbotapi.NewSetMyCommands(commands.BotCommands(cmds)...))
	return err
}

// SetWebhook регистрирует webhook по адресу url
func (c *Client) SetWebhook(ctx context.Context, url string) error {
	wh, err := tgbotapi.NewWebhook(url)
	if err != nil {
		return fmt.Errorf("invalid webhook url: %w", err)
	}
	_, err = c.request(ctx, "setWebhook", wh)
	return err
}

// DeleteWebhook удаляет регистрацию webhook
func (c *Client) DeleteWebhook(ctx context.Context) error {
	_, err := c.request(ctx, "deleteWebhook", tgbotapi.DeleteWebhookConfig{DropPendingUpdates: c.dropOnDel})
	return err
}

// WebhookInfo возвращает текущее состояние webhook
func (c *Client) WebhookInfo(ctx context.Context) (tgbotapi.WebhookInfo, error) {
	var info tgbotapi.WebhookInfo

	resp, err := c.call(ctx, "getWebhookInfo", func() (*tgbotapi.APIResponse, error) {
		return c.bot.MakeRequest("getWebhookInfo", nil)
	})
	if err != nil {
		return info, err
	}
	if err := json.Unmarshal(resp.Result, &info); err != nil {
		return info, fmt.Errorf("failed to decode webhook info: %w", err)
	}
	return info, nil
}

// GetUpdates выполняет один запрос long polling
func (c *Client) GetUpdates(ctx context.Context, cfg tgbotapi.UpdateConfig) ([]tgbotapi.Update, error) {
	resp, err := c.request(ctx, "getUpdates", cfg)
	if err != nil {
		return nil, err
	}

	var updates []tgbotapi.Update
	if err := json.Unmarshal(resp.Result, &updates); err != nil {
		return nil, fmt.Errorf("failed to decode updates: %w", err)
	}
	return updates, nil
}

// HandleUpdate разбирает входящий запрос webhook
func (c *Client) HandleUpdate(r *http.Request) (*tgbotapi.Update, error) {
	return c.bot.HandleUpdate(r)
}

// Close закрывает сетевую сессию клиента; повторные вызовы ничего не делают
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.bot.StopReceivingUpdates()
		c.httpClient.CloseIdleConnections()
		c.logger.Info("Telegram session closed")
	})
	return nil
}

func (c *Client) request(ctx context.Context, method string, chattable tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	return c.call(ctx, method, func() (*tgbotapi.APIResponse, error) {
		return c.bot.Request(chattable)
	})
}

// call выполняет запрос через circuit breaker; Bot API не принимает контекст,
// поэтому отмена контекста лишь перестает ждать ответа
func (c *Client) call(ctx context.Context, method string, fn func() (*tgbotapi.APIResponse, error)) (*tgbotapi.APIResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	type result struct {
		resp *tgbotapi.APIResponse
		err  error
	}
	done := make(chan result, 1)

	go func() {
		resp, err := c.breaker.Execute(fn)
		done <- result{resp: resp, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-done:
		if r.err != nil {
			c.logger.Debug("Telegram request failed", zap.String("method", method), zap.Error(r.err))
			return nil, fmt.Errorf("telegram %s: %w", method, r.err)
		}
		return r.resp, nil
	}
}
