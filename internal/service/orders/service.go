// Package orders реализует сценарий заказа: проверка запроса, проверка ссылок на товары,
// расчёт суммы и атомарная запись, а также чтение заказов с обогащением.
package orders

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/metrics"
	"github.com/vladislavdragonenkov/storefront/internal/validation"
)

// CreateOrderRequest — входные данные POST /orders.
type CreateOrderRequest struct {
	UserID     string   `json:"userId" validate:"required"`
	ProductIDs []string `json:"productIds" validate:"required,min=1,dive,required"`
	Payment    *bool    `json:"payment" validate:"required"`
}

// Service выполняет операции над заказами.
type Service struct {
	orders    domain.OrderRepository
	products  domain.ProductRepository
	users     domain.UserRepository
	validator *validation.Validator
	metrics   *metrics.OrderMetrics
	logger    *log.Entry
	now       func() time.Time
	newID     func() string
}

// Option настраивает Service.
type Option func(*Service)

// WithLogger задаёт logger сервиса.
func WithLogger(logger *log.Entry) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics задаёт метрики сценария заказа.
func WithMetrics(m *metrics.OrderMetrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithValidator задаёт валидатор входных данных.
func WithValidator(v *validation.Validator) Option {
	return func(s *Service) {
		if v != nil {
			s.validator = v
		}
	}
}

// WithClock подменяет источник времени (для тестов).
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator подменяет генератор идентификаторов заказов.
func WithIDGenerator(newID func() string) Option {
	return func(s *Service) {
		if newID != nil {
			s.newID = newID
		}
	}
}

// NewService создаёт сервис заказов.
func NewService(
	orders domain.OrderRepository,
	products domain.ProductRepository,
	users domain.UserRepository,
	options ...Option,
) *Service {
	s := &Service{
		orders:    orders,
		products:  products,
		users:     users,
		validator: validation.New(),
		logger:    log.WithField("component", "order-service"),
		now:       func() time.Time { return time.Now().UTC() },
		newID:     uuid.NewString,
	}
	for _, option := range options {
		option(s)
	}
	return s
}

// Create проводит запрос через этапы Received → Validated → ReferentialIntegrityConfirmed →
// PriceComputed → Persisted. На любой ошибке запрос переходит в Failed без записей в хранилище.
func (s *Service) Create(ctx context.Context, req CreateOrderRequest) (domain.Order, error) {
	finish := s.metrics.CreateStarted()
	logger := s.logger.WithField("user_id", req.UserID)
	logger.WithField("stage", domain.OrderStageReceived).Debug("order request received")

	order, outcome, err := s.create(ctx, req, logger)
	finish(outcome)
	if err != nil {
		entry := logger.WithError(err).WithFields(log.Fields{
			"stage":   domain.OrderStageFailed,
			"outcome": outcome,
		})
		if outcome == metrics.OrderOutcomePersistenceFailed {
			entry.Error("order persistence failed")
		} else {
			entry.Info("order rejected")
		}
		return domain.Order{}, err
	}

	logger.WithFields(log.Fields{
		"stage":    domain.OrderStagePersisted,
		"order_id": order.ID,
		"total":    order.Total.StringFixed(domain.CurrencyPrecision),
	}).Info("order created")
	return order, nil
}

func (s *Service) create(ctx context.Context, req CreateOrderRequest, logger *log.Entry) (domain.Order, string, error) {
	if err := s.validator.Struct(req); err != nil {
		return domain.Order{}, metrics.OrderOutcomeValidationFailed, err
	}
	logger.WithField("stage", domain.OrderStageValidated).Debug("order request validated")

	productIDs := domain.UniqueIDs(req.ProductIDs)
	products, err := s.products.FindByIDs(ctx, productIDs)
	if err != nil {
		return domain.Order{}, metrics.OrderOutcomePersistenceFailed, asPersistenceError("load products", err)
	}
	if missing := domain.MissingIDs(productIDs, products); len(missing) > 0 {
		return domain.Order{}, metrics.OrderOutcomeReferentialFailed,
			&domain.ReferentialIntegrityError{Entity: "product", MissingIDs: missing}
	}
	logger.WithField("stage", domain.OrderStageReferentialIntegrityConfirmed).Debug("product references confirmed")

	order := domain.Order{
		ID:         s.newID(),
		UserID:     req.UserID,
		Total:      domain.CalculateTotal(products),
		Payment:    *req.Payment,
		ProductIDs: productIDs,
		CreatedAt:  s.now(),
	}
	logger.WithFields(log.Fields{
		"stage": domain.OrderStagePriceComputed,
		"total": order.Total.StringFixed(domain.CurrencyPrecision),
	}).Debug("order total computed")

	if err := s.orders.Create(ctx, order); err != nil {
		var refErr *domain.ReferentialIntegrityError
		if errors.As(err, &refErr) {
			return domain.Order{}, metrics.OrderOutcomeReferentialFailed, refErr
		}
		return domain.Order{}, metrics.OrderOutcomePersistenceFailed, asPersistenceError("create order", err)
	}
	return order, metrics.OrderOutcomeCreated, nil
}

// Get возвращает заказ с пользователем и товарами.
func (s *Service) Get(ctx context.Context, id string) (domain.OrderDetails, error) {
	order, err := s.orders.Get(ctx, id)
	if err != nil {
		return domain.OrderDetails{}, err
	}
	details, err := s.enrich(ctx, []domain.Order{order})
	if err != nil {
		return domain.OrderDetails{}, err
	}
	return details[0], nil
}

// List возвращает все заказы с обогащением.
func (s *Service) List(ctx context.Context) ([]domain.OrderDetails, error) {
	orders, err := s.orders.List(ctx)
	if err != nil {
		return nil, err
	}
	return s.enrich(ctx, orders)
}

// Delete атомарно удаляет заказ и его строки, возвращая удалённый заголовок.
func (s *Service) Delete(ctx context.Context, id string) (domain.Order, error) {
	order, err := s.orders.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.metrics.RecordDelete("not_found")
			return domain.Order{}, err
		}
		s.metrics.RecordDelete("failed")
		s.logger.WithError(err).WithField("order_id", id).Error("order deletion failed")
		return domain.Order{}, asPersistenceError("delete order", err)
	}
	s.metrics.RecordDelete("deleted")
	s.logger.WithField("order_id", id).Info("order deleted")
	return order, nil
}

// enrich одним запросом загружает пользователей и товары для всех заказов.
// Удалённый пользователь даёт User == nil; удалённые товары просто не попадают в список.
func (s *Service) enrich(ctx context.Context, orders []domain.Order) ([]domain.OrderDetails, error) {
	if len(orders) == 0 {
		return []domain.OrderDetails{}, nil
	}

	userIDs := make([]string, 0, len(orders))
	productIDs := make([]string, 0, len(orders))
	for _, order := range orders {
		userIDs = append(userIDs, order.UserID)
		productIDs = append(productIDs, order.ProductIDs...)
	}

	users, err := s.users.FindByIDs(ctx, domain.UniqueIDs(userIDs))
	if err != nil {
		return nil, err
	}
	products, err := s.products.FindByIDs(ctx, domain.UniqueIDs(productIDs))
	if err != nil {
		return nil, err
	}

	usersByID := make(map[string]domain.User, len(users))
	for _, u := range users {
		usersByID[u.ID] = u
	}
	productsByID := make(map[string]domain.Product, len(products))
	for _, p := range products {
		productsByID[p.ID] = p
	}

	result := make([]domain.OrderDetails, 0, len(orders))
	for _, order := range orders {
		details := domain.OrderDetails{Order: order, Products: make([]domain.Product, 0, len(order.ProductIDs))}
		if u, ok := usersByID[order.UserID]; ok {
			user := u
			details.User = &user
		}
		for _, productID := range order.ProductIDs {
			if p, ok := productsByID[productID]; ok {
				details.Products = append(details.Products, p)
			}
		}
		result = append(result, details)
	}
	return result, nil
}

func asPersistenceError(op string, err error) error {
	var persistErr *domain.PersistenceError
	if errors.As(err, &persistErr) {
		return err
	}
	return &domain.PersistenceError{Op: op, Err: err}
}
