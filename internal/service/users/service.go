// Package users управляет учётными записями покупателей.
package users

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/validation"
)

// CreateUserInput — тело POST /users и PUT /users/:id.
type CreateUserInput struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Name     string `json:"name" validate:"required,max=255"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// PatchUserInput — тело PATCH /users/:id; nil означает "не менять".
type PatchUserInput struct {
	Email    *string `json:"email" validate:"omitnil,email,max=255"`
	Name     *string `json:"name" validate:"omitnil,min=1,max=255"`
	Password *string `json:"password" validate:"omitnil,min=8,max=72"`
}

// Service выполняет операции над пользователями.
type Service struct {
	repo      domain.UserRepository
	validator *validation.Validator
	logger    *log.Entry
	hashCost  int
	now       func() time.Time
}

// Option настраивает Service.
type Option func(*Service)

// WithHashCost задаёт стоимость bcrypt.
func WithHashCost(cost int) Option {
	return func(s *Service) {
		s.hashCost = cost
	}
}

// WithLogger задаёт logger сервиса.
func WithLogger(logger *log.Entry) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
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

// NewService создаёт сервис пользователей.
func NewService(repo domain.UserRepository, options ...Option) *Service {
	s := &Service{
		repo:      repo,
		validator: validation.New(),
		logger:    log.WithField("component", "user-service"),
		hashCost:  bcrypt.DefaultCost,
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, option := range options {
		option(s)
	}
	if s.hashCost < bcrypt.MinCost || s.hashCost > bcrypt.MaxCost {
		s.hashCost = bcrypt.DefaultCost
	}
	return s
}

// Create регистрирует пользователя. Повтор email даёт ConflictError.
func (s *Service) Create(ctx context.Context, in CreateUserInput) (domain.User, error) {
	in.Email = normalizeEmail(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	if err := s.validator.Struct(in); err != nil {
		return domain.User{}, err
	}

	hash, err := s.hashPassword(in.Password)
	if err != nil {
		return domain.User{}, err
	}

	now := s.now()
	user := domain.User{
		ID:           uuid.NewString(),
		Email:        in.Email,
		Name:         in.Name,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return domain.User{}, err
	}

	s.logger.WithField("user_id", user.ID).Info("user created")
	return user, nil
}

// Get возвращает пользователя или NotFoundError.
func (s *Service) Get(ctx context.Context, id string) (domain.User, error) {
	return s.repo.Get(ctx, id)
}

// List возвращает всех пользователей в порядке регистрации.
func (s *Service) List(ctx context.Context) ([]domain.User, error) {
	return s.repo.List(ctx)
}

// Replace заменяет все поля пользователя.
func (s *Service) Replace(ctx context.Context, id string, in CreateUserInput) (domain.User, error) {
	in.Email = normalizeEmail(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	if err := s.validator.Struct(in); err != nil {
		return domain.User{}, err
	}

	hash, err := s.hashPassword(in.Password)
	if err != nil {
		return domain.User{}, err
	}
	return s.apply(ctx, id, domain.UserPatch{Email: &in.Email, Name: &in.Name, PasswordHash: &hash})
}

// Patch обновляет только переданные поля; пустой патч даёт ErrNothingToUpdate.
func (s *Service) Patch(ctx context.Context, id string, in PatchUserInput) (domain.User, error) {
	if in.Email != nil {
		email := normalizeEmail(*in.Email)
		in.Email = &email
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		in.Name = &name
	}
	if err := s.validator.Struct(in); err != nil {
		return domain.User{}, err
	}

	patch := domain.UserPatch{Email: in.Email, Name: in.Name}
	if in.Password != nil {
		hash, err := s.hashPassword(*in.Password)
		if err != nil {
			return domain.User{}, err
		}
		patch.PasswordHash = &hash
	}
	if patch.Empty() {
		return domain.User{}, domain.ErrNothingToUpdate
	}
	return s.apply(ctx, id, patch)
}

// Delete удаляет пользователя. Его заказы остаются, при чтении user будет null.
func (s *Service) Delete(ctx context.Context, id string) (domain.User, error) {
	user, err := s.repo.Delete(ctx, id)
	if err != nil {
		return domain.User{}, err
	}
	s.logger.WithField("user_id", id).Info("user deleted")
	return user, nil
}

func (s *Service) apply(ctx context.Context, id string, patch domain.UserPatch) (domain.User, error) {
	user, err := s.repo.Patch(ctx, id, patch)
	if err != nil {
		return domain.User{}, err
	}
	s.logger.WithField("user_id", id).Info("user updated")
	return user, nil
}

func (s *Service) hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
