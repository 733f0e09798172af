// Package webhook содержит HTTP-сервер, принимающий обновления от Telegram.
package webhook

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"genbot/internal/dispatcher"
	"genbot/internal/worker"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Parser разбирает тело webhook-запроса
type Parser interface {
	HandleUpdate(r *http.Request) (*tgbotapi.Update, error)
}

// Feeder обрабатывает разобранное обновление
type Feeder interface {
	FeedUpdate(ctx context.Context, update tgbotapi.Update) error
}

// Lifecycle запускает хуки старта и остановки
type Lifecycle interface {
	EmitStartup(ctx context.Context) error
	EmitShutdown(ctx context.Context)
}

// Pool выполняет обработку обновлений в фоне
type Pool interface {
	Start()
	Stop(ctx context.Context) error
	Submit(job worker.Job) error
}

// Config настройки сервера
type Config struct {
	Addr            string
	Path            string
	ShutdownTimeout time.Duration
}

// Option настраивает сервер
type Option func(*Server)

// WithListenFunc подменяет создание слушателя
func WithListenFunc(fn func(network, addr string) (net.Listener, error)) Option {
	return func(s *Server) { s.listen = fn }
}

// WithOnReady вызывается после того, как сервер начал слушать адрес
func WithOnReady(fn func(addr net.Addr)) Option {
	return func(s *Server) { s.onReady = fn }
}

// Server принимает обновления по webhook и передает их диспетчеру
type Server struct {
	cfg     Config
	parser  Parser
	feeder  Feeder
	hooks   Lifecycle
	pool    Pool
	logger  *zap.Logger
	mux     *http.ServeMux
	listen  func(network, addr string) (net.Listener, error)
	onReady func(addr net.Addr)

	mu      sync.Mutex
	running bool
}

// New создает сервер
func New(cfg Config, parser Parser, feeder Feeder, hooks Lifecycle, pool Pool, logger *zap.Logger, opts ...Option) *Server {
	if cfg.Path == "" {
		cfg.Path = "/webhook"
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}

	s := &Server{
		cfg:    cfg,
		parser: parser,
		feeder: feeder,
		hooks:  hooks,
		pool:   pool,
		logger: logger,
		mux:    http.NewServeMux(),
		listen: net.Listen,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.mux.HandleFunc(cfg.Path, s.handleWebhook)
	return s
}

// Handle монтирует дополнительный обработчик (например, health check)
func (s *Server) Handle(pattern string, h http.Handler) {
	s.mux.Handle(pattern, h)
}

// Mux возвращает мультиплексор сервера
func (s *Server) Mux() *http.ServeMux {
	return s.mux
}

// Run выполняет хуки старта, слушает адрес до отмены ctx и затем
// выполняет хуки остановки ровно один раз.
func (s *Server) Run(ctx context.Context) (err error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("webhook server is already running")
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		s.hooks.EmitShutdown(shutdownCtx)
	}()

	if err := s.hooks.EmitStartup(ctx); err != nil {
		return fmt.Errorf("startup failed: %w", err)
	}

	ln, err := s.listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Addr, err)
	}

	s.pool.Start()
	srv := &http.Server{
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Serve(ln)
	}()

	s.logger.Info("Webhook server started",
		zap.String("addr", ln.Addr().String()),
		zap.String("path", s.cfg.Path))
	if s.onReady != nil {
		s.onReady(ln.Addr())
	}

	select {
	case <-ctx.Done():
		s.logger.Info("Stopping webhook server")
	case err = <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		if err != nil {
			err = fmt.Errorf("webhook server failed: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
		s.logger.Warn("Webhook server shutdown failed", zap.Error(shutdownErr))
	}
	if stopErr := s.pool.Stop(shutdownCtx); stopErr != nil {
		s.logger.Warn("Worker pool did not drain", zap.Error(stopErr))
	}

	s.logger.Info("Webhook server stopped")
	return err
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	update, err := s.parser.HandleUpdate(r)
	if err != nil {
		s.logger.Warn("Failed to parse webhook update", zap.Error(err))
		http.Error(w, "bad update", http.StatusBadRequest)
		return
	}

	job := worker.Job{
		UpdateID: update.UpdateID,
		Handler: func(ctx context.Context) error {
			if err := s.feeder.FeedUpdate(ctx, *update); err != nil && !errors.Is(err, dispatcher.ErrNoHandler) {
				return err
			}
			return nil
		},
	}
	if update.Message != nil {
		job.Command = update.Message.Command()
		if update.Message.From != nil {
			job.UserID = update.Message.From.ID
		}
	} else if update.CallbackQuery != nil && update.CallbackQuery.From != nil {
		job.UserID = update.CallbackQuery.From.ID
	}

	if err := s.pool.Submit(job); err != nil {
		s.logger.Warn("Failed to queue webhook update",
			zap.Int("update_id", update.UpdateID),
			zap.Error(err))
		http.Error(w, "busy", http.StatusServiceUnavailable)
		return
	}

	w.WriteHeader(http.StatusOK)
}
