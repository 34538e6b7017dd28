// Package catalog управляет товарами каталога.
package catalog

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/validation"
)

// ProductInput — тело POST /products и PUT /products/:id.
type ProductInput struct {
	Name        string          `json:"name" validate:"required,max=255"`
	Description string          `json:"description" validate:"max=2000"`
	Price       decimal.Decimal `json:"price" validate:"gt=0,money"`
}

// Service выполняет операции каталога.
type Service struct {
	repo      domain.ProductRepository
	validator *validation.Validator
	logger    *log.Entry
	now       func() time.Time
}

// NewService создаёт сервис каталога.
func NewService(repo domain.ProductRepository, v *validation.Validator, logger *log.Entry) *Service {
	if v == nil {
		v = validation.New()
	}
	if logger == nil {
		logger = log.WithField("component", "catalog-service")
	}
	return &Service{
		repo:      repo,
		validator: v,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Create добавляет товар.
func (s *Service) Create(ctx context.Context, in ProductInput) (domain.Product, error) {
	in = in.normalized()
	if err := s.validator.Struct(in); err != nil {
		return domain.Product{}, err
	}

	now := s.now()
	product := domain.Product{
		ID:          uuid.NewString(),
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, product); err != nil {
		return domain.Product{}, err
	}

	s.logger.WithFields(log.Fields{
		"product_id": product.ID,
		"price":      product.Price.String(),
	}).Info("product created")
	return product, nil
}

// Get возвращает товар или NotFoundError.
func (s *Service) Get(ctx context.Context, id string) (domain.Product, error) {
	return s.repo.Get(ctx, id)
}

// List возвращает товары по фильтру.
func (s *Service) List(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	return s.repo.List(ctx, filter)
}

// Replace полностью заменяет поля товара.
func (s *Service) Replace(ctx context.Context, id string, in ProductInput) (domain.Product, error) {
	in = in.normalized()
	if err := s.validator.Struct(in); err != nil {
		return domain.Product{}, err
	}

	product, err := s.repo.Update(ctx, domain.Product{
		ID:          id,
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
	})
	if err != nil {
		return domain.Product{}, err
	}

	s.logger.WithField("product_id", id).Info("product updated")
	return product, nil
}

// Delete удаляет товар. Исторические заказы сохраняют свои суммы.
func (s *Service) Delete(ctx context.Context, id string) (domain.Product, error) {
	product, err := s.repo.Delete(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}

	s.logger.WithField("product_id", id).Info("product deleted")
	return product, nil
}

func (in ProductInput) normalized() ProductInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	return in
}
