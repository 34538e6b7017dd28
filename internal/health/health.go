// Package health отдаёт liveness/readiness probes и сводный отчёт о состоянии зависимостей.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"
)

// Status агрегированное состояние компонента или сервиса.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
)

const defaultCheckTimeout = 2 * time.Second

// Checker проверяет одну зависимость; nil означает, что она доступна.
type Checker interface {
	Check(ctx context.Context) error
}

// CheckFunc адаптирует функцию к Checker.
type CheckFunc func(ctx context.Context) error

func (f CheckFunc) Check(ctx context.Context) error { return f(ctx) }

// Pinger реализуют хранилища, у которых можно проверить соединение.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingChecker проверяет хранилище через Ping.
func PingChecker(p Pinger) Checker {
	return CheckFunc(p.Ping)
}

// Component результат проверки одной зависимости.
type Component struct {
	Status    Status `json:"status"`
	Error     string `json:"error,omitempty"`
	LatencyMs int64  `json:"latency_ms"`
}

// Report тело ответа /healthz.
type Report struct {
	Status        Status               `json:"status"`
	Version       string               `json:"version,omitempty"`
	CheckedAt     time.Time            `json:"checked_at"`
	UptimeSeconds int64                `json:"uptime_seconds"`
	Components    map[string]Component `json:"components,omitempty"`
}

// Option настраивает Handler.
type Option func(*Handler)

// WithCheckTimeout ограничивает время одной проверки.
func WithCheckTimeout(timeout time.Duration) Option {
	return func(h *Handler) {
		if timeout > 0 {
			h.timeout = timeout
		}
	}
}

// Handler хранит зарегистрированные проверки и обслуживает probes.
type Handler struct {
	mu       sync.RWMutex
	checkers map[string]Checker

	version string
	started time.Time
	timeout time.Duration
}

func NewHandler(version string, opts ...Option) *Handler {
	h := &Handler{
		checkers: make(map[string]Checker),
		version:  version,
		started:  time.Now(),
		timeout:  defaultCheckTimeout,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register добавляет или заменяет проверку с именем name.
func (h *Handler) Register(name string, checker Checker) {
	if checker == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checkers[name] = checker
}

// Names возвращает отсортированные имена зарегистрированных проверок.
func (h *Handler) Names() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	names := make([]string, 0, len(h.checkers))
	for name := range h.checkers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Evaluate выполняет все проверки параллельно, каждую со своим таймаутом.
func (h *Handler) Evaluate(ctx context.Context) Report {
	h.mu.RLock()
	checkers := make(map[string]Checker, len(h.checkers))
	for name, checker := range h.checkers {
		checkers[name] = checker
	}
	h.mu.RUnlock()

	var (
		wg         sync.WaitGroup
		resultsMu  sync.Mutex
		components = make(map[string]Component, len(checkers))
	)
	for name, checker := range checkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			component := h.run(ctx, checker)

			resultsMu.Lock()
			components[name] = component
			resultsMu.Unlock()
		}()
	}
	wg.Wait()

	status := StatusHealthy
	for _, component := range components {
		if component.Status != StatusHealthy {
			status = StatusUnhealthy
			break
		}
	}

	return Report{
		Status:        status,
		Version:       h.version,
		CheckedAt:     time.Now().UTC(),
		UptimeSeconds: int64(time.Since(h.started).Seconds()),
		Components:    components,
	}
}

func (h *Handler) run(ctx context.Context, checker Checker) Component {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	start := time.Now()
	err := checker.Check(ctx)
	component := Component{
		Status:    StatusHealthy,
		LatencyMs: time.Since(start).Milliseconds(),
	}
	if err != nil {
		component.Status = StatusUnhealthy
		component.Error = err.Error()
	}
	return component
}

// ServeHTTP отдаёт Report в JSON; 503, если хотя бы одна зависимость недоступна.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	report := h.Evaluate(r.Context())

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode(report.Status))
	_ = json.NewEncoder(w).Encode(report)
}

// ReadinessHandler отвечает "ready" или "not ready" по тем же проверкам.
func (h *Handler) ReadinessHandler(w http.ResponseWriter, r *http.Request) {
	report := h.Evaluate(r.Context())

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(statusCode(report.Status))
	if report.Status == StatusHealthy {
		_, _ = w.Write([]byte("ready"))
		return
	}
	_, _ = w.Write([]byte("not ready"))
}

// LivenessHandler отвечает 200, пока процесс обслуживает запросы.
func LivenessHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func statusCode(status Status) int {
	if status == StatusHealthy {
		return http.StatusOK
	}
	return http.StatusServiceUnavailable
}
