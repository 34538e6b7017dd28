package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind — машиночитаемая категория ошибки; транспорт сопоставляет её со статусом ответа.
type ErrorKind string

const (
	KindValidation           ErrorKind = "validation_error"
	KindReferentialIntegrity ErrorKind = "referential_integrity_error"
	KindNotFound             ErrorKind = "not_found"
	KindConflict             ErrorKind = "conflict"
	KindPersistence          ErrorKind = "persistence_error"
)

var (
	// ErrNotFound — базовая ошибка отсутствующей сущности, её оборачивает NotFoundError.
	ErrNotFound = errors.New("not found")
	// ErrConflict — базовая ошибка нарушения уникальности.
	ErrConflict = errors.New("conflict")
	// ErrNothingToUpdate возвращается при частичном обновлении без полей.
	ErrNothingToUpdate = errors.New("nothing to update")
	// ErrOutboxPublish — ошибка при публикации сообщения из outbox.
	ErrOutboxPublish = errors.New("outbox publish failed")
	// ErrOutboxMessageNotFound — сообщение outbox не найдено при смене статуса.
	ErrOutboxMessageNotFound = errors.New("outbox message not found")

	ErrIdempotencyKeyRequired         = errors.New("idempotency key is required")
	ErrIdempotencyRequestHashRequired = errors.New("idempotency request hash is required")
	ErrIdempotencyKeyNotFound         = errors.New("idempotency key not found")
	// ErrIdempotencyKeyAlreadyExists — ключ уже использован с тем же запросом.
	ErrIdempotencyKeyAlreadyExists = errors.New("idempotency key already exists")
	// ErrIdempotencyHashMismatch — ключ уже использован с другим телом запроса.
	ErrIdempotencyHashMismatch = errors.New("idempotency key reused with different request")
)

// FieldError описывает нарушение ограничения одного поля запроса.
type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// ValidationError перечисляет все поля, не прошедшие проверку.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Kind реализует Classified.
func (e *ValidationError) Kind() ErrorKind { return KindValidation }

// NewValidationError строит ошибку из одного нарушения.
func NewValidationError(field, rule, message string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Rule: rule, Message: message}}}
}

// ReferentialIntegrityError сообщает о ссылках на несуществующие сущности.
type ReferentialIntegrityError struct {
	Entity     string
	MissingIDs []string
}

func (e *ReferentialIntegrityError) Error() string {
	return fmt.Sprintf("%s references do not exist: %s", e.Entity, strings.Join(e.MissingIDs, ", "))
}

func (e *ReferentialIntegrityError) Kind() ErrorKind { return KindReferentialIntegrity }

// NotFoundError — сущность с указанным ID отсутствует.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Entity, e.ID)
}

func (e *NotFoundError) Unwrap() error   { return ErrNotFound }
func (e *NotFoundError) Kind() ErrorKind { return KindNotFound }

// ConflictError — нарушено ограничение уникальности (например, email пользователя).
type ConflictError struct {
	Entity string
	Field  string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s with the same %s already exists", e.Entity, e.Field)
}

func (e *ConflictError) Unwrap() error   { return ErrConflict }
func (e *ConflictError) Kind() ErrorKind { return KindConflict }

// PersistenceError оборачивает сбой транзакционной записи. Детали не уходят клиенту.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error   { return e.Err }
func (e *PersistenceError) Kind() ErrorKind { return KindPersistence }

// Classified реализуют ошибки, у которых есть явная категория.
type Classified interface {
	Kind() ErrorKind
}

// KindOf возвращает категорию ошибки. Неклассифицированные ошибки считаются сбоем хранилища.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var classified Classified
	if errors.As(err, &classified) {
		return classified.Kind()
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrConflict):
		return KindConflict
	case errors.Is(err, ErrNothingToUpdate):
		return KindValidation
	default:
		return KindPersistence
	}
}

// IsIdempotencyConflict проверяет, что ключ идемпотентности уже занят.
func IsIdempotencyConflict(err error) bool {
	return errors.Is(err, ErrIdempotencyKeyAlreadyExists) || errors.Is(err, ErrIdempotencyHashMismatch)
}
