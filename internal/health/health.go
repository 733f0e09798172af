// Package health содержит обработчики /health, /ready и /live.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Pinger проверяет доступность зависимости
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc адаптирует функцию к Pinger
type PingFunc func(ctx context.Context) error

// Ping вызывает f(ctx)
func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// Handler отдает состояние бота по HTTP
type Handler struct {
	mu      sync.RWMutex
	checks  map[string]Pinger
	ready   atomic.Bool
	timeout time.Duration
	logger  *zap.Logger
	now     func() time.Time
}

type response struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// NewHandler создает обработчик health check
func NewHandler(logger *zap.Logger) *Handler {
	return &Handler{
		checks:  make(map[string]Pinger),
		timeout: 2 * time.Second,
		logger:  logger,
		now:     time.Now,
	}
}

// AddCheck регистрирует проверку зависимости
func (h *Handler) AddCheck(name string, p Pinger) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks[name] = p
}

// SetReady отмечает, что бот готов принимать обновления
func (h *Handler) SetReady(ready bool) {
	h.ready.Store(ready)
}

// Register монтирует маршруты на mux
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/health", h.healthHandler)
	mux.HandleFunc("/ready", h.readyHandler)
	mux.HandleFunc("/live", h.liveHandler)
}

func (h *Handler) healthHandler(w http.ResponseWriter, r *http.Request) {
	checks, ok := h.runChecks(r.Context())
	status, code := "healthy", http.StatusOK
	if !ok {
		status, code = "unhealthy", http.StatusServiceUnavailable
	}
	h.write(w, code, status, checks)
}

func (h *Handler) readyHandler(w http.ResponseWriter, r *http.Request) {
	if !h.ready.Load() {
		h.write(w, http.StatusServiceUnavailable, "not ready", nil)
		return
	}

	checks, ok := h.runChecks(r.Context())
	status, code := "ready", http.StatusOK
	if !ok {
		status, code = "not ready", http.StatusServiceUnavailable
	}
	h.write(w, code, status, checks)
}

func (h *Handler) liveHandler(w http.ResponseWriter, r *http.Request) {
	h.write(w, http.StatusOK, "alive", nil)
}

func (h *Handler) runChecks(ctx context.Context) (map[string]string, bool) {
	h.mu.RLock()
	checks := make(map[string]Pinger, len(h.checks))
	names := make([]string, 0, len(h.checks))
	for name, p := range h.checks {
		checks[name] = p
		names = append(names, name)
	}
	h.mu.RUnlock()
	sort.Strings(names)

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	result := make(map[string]string, len(names))
	ok := true
	for _, name := range names {
		p := checks[name]
		if err := p.Ping(ctx); err != nil {
			h.logger.Error("Health check failed", zap.String("check", name), zap.Error(err))
			result[name] = err.Error()
			ok = false
			continue
		}
		result[name] = "ok"
	}
	return result, ok
}

func (h *Handler) write(w http.ResponseWriter, code int, status string, checks map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	resp := response{
		Status:    status,
		Timestamp: h.now().Format(time.RFC3339),
		Checks:    checks,
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Warn("Failed to write health response", zap.Error(err))
	}
}
