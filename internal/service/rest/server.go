// Package rest — HTTP API сервиса на echo.
package rest

import (
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/metrics"
	"github.com/vladislavdragonenkov/storefront/internal/service/catalog"
	"github.com/vladislavdragonenkov/storefront/internal/service/orders"
	"github.com/vladislavdragonenkov/storefront/internal/service/users"
	"github.com/vladislavdragonenkov/storefront/internal/validation"
)

const (
	defaultRequestTimeout = 5 * time.Second
	defaultIdempotencyTTL = 24 * time.Hour
	defaultBodyLimit      = "1M"
)

// Config описывает зависимости HTTP API.
type Config struct {
	Orders  *orders.Service
	Catalog *catalog.Service
	Users   *users.Service
	Metrics *metrics.HTTPMetrics
	Logger  *log.Entry
	// Validator используется для разбора тел запросов; по умолчанию validation.New().
	Validator *validation.Validator
	// Idempotency включает поддержку заголовка Idempotency-Key на POST /orders.
	Idempotency    domain.IdempotencyRepository
	IdempotencyTTL time.Duration
	RequestTimeout time.Duration
	// BodyLimit ограничивает размер тела запроса в формате echo ("512K", "1M").
	BodyLimit string
}

// NewServer собирает echo с middleware и маршрутами.
func NewServer(cfg Config) *echo.Echo {
	logger := cfg.Logger
	if logger == nil {
		logger = log.WithField("component", "http")
	}
	if cfg.Validator == nil {
		cfg.Validator = validation.New()
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}
	if cfg.IdempotencyTTL <= 0 {
		cfg.IdempotencyTTL = defaultIdempotencyTTL
	}
	if cfg.BodyLimit == "" {
		cfg.BodyLimit = defaultBodyLimit
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = cfg.Validator
	e.HTTPErrorHandler = newErrorHandler(logger)

	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(logger))
	if cfg.Metrics != nil {
		e.Use(requestMetrics(cfg.Metrics))
	}
	e.Use(echomiddleware.CORS())
	e.Use(echomiddleware.BodyLimit(cfg.BodyLimit))
	e.Use(echomiddleware.ContextTimeoutWithConfig(echomiddleware.ContextTimeoutConfig{
		Timeout: cfg.RequestTimeout,
	}))

	if cfg.Orders != nil {
		h := &orderHandler{svc: cfg.Orders, validator: cfg.Validator}
		createMiddleware := []echo.MiddlewareFunc{}
		if cfg.Idempotency != nil {
			createMiddleware = append(createMiddleware, idempotencyMiddleware(cfg.Idempotency, cfg.IdempotencyTTL, logger))
		}
		e.POST("/orders", h.create, createMiddleware...)
		e.GET("/orders", h.list)
		e.GET("/orders/:id", h.get)
		e.DELETE("/orders/:id", h.delete)
	}

	if cfg.Catalog != nil {
		h := &productHandler{svc: cfg.Catalog, validator: cfg.Validator}
		e.POST("/products", h.create)
		e.GET("/products", h.list)
		e.GET("/products/:id", h.get)
		e.PUT("/products/:id", h.replace)
		e.DELETE("/products/:id", h.delete)
	}

	if cfg.Users != nil {
		h := &userHandler{svc: cfg.Users, validator: cfg.Validator}
		e.POST("/users", h.create)
		e.GET("/users", h.list)
		e.GET("/users/:id", h.get)
		e.PUT("/users/:id", h.replace)
		e.PATCH("/users/:id", h.patch)
		e.DELETE("/users/:id", h.delete)
	}

	return e
}
