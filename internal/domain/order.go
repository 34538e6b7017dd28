package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order — заголовок заказа. Total вычисляется при создании и дальше не пересчитывается.
type Order struct {
	ID         string
	UserID     string
	Total      decimal.Decimal
	Payment    bool
	ProductIDs []string
	CreatedAt  time.Time
}

// OrderLine — строка связи заказа с товаром (без количества).
type OrderLine struct {
	OrderID   string
	ProductID string
}

// Lines раскладывает заказ на строки связи.
func (o Order) Lines() []OrderLine {
	lines := make([]OrderLine, 0, len(o.ProductIDs))
	for _, productID := range o.ProductIDs {
		lines = append(lines, OrderLine{OrderID: o.ID, ProductID: productID})
	}
	return lines
}

// OrderDetails — заказ, обогащённый публичными полями пользователя и товарами.
type OrderDetails struct {
	Order
	// User равен nil, если пользователь уже удалён.
	User     *User
	Products []Product
}

// OrderStage отражает этап обработки запроса на создание заказа.
type OrderStage string

const (
	OrderStageReceived                      OrderStage = "received"
	OrderStageValidated                     OrderStage = "validated"
	OrderStageReferentialIntegrityConfirmed OrderStage = "referential_integrity_confirmed"
	OrderStagePriceComputed                 OrderStage = "price_computed"
	OrderStagePersisted                     OrderStage = "persisted"
	OrderStageFailed                        OrderStage = "failed"
)

// UniqueIDs убирает дубликаты, сохраняя порядок первого появления.
func UniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	result := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	return result
}

// MissingIDs возвращает запрошенные идентификаторы, которых нет среди найденных товаров.
// Сравниваются множества, а не количества.
func MissingIDs(requested []string, found []Product) []string {
	present := make(map[string]struct{}, len(found))
	for _, p := range found {
		present[p.ID] = struct{}{}
	}
	missing := make([]string, 0)
	for _, id := range UniqueIDs(requested) {
		if _, ok := present[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}
