package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product — позиция каталога. Для сценария заказа доступна только на чтение.
type Product struct {
	ID          string
	Name        string
	Description string
	Price       decimal.Decimal
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ProductFilter задаёт необязательные фильтры списка товаров.
type ProductFilter struct {
	// NameContains — подстрока имени без учёта регистра.
	NameContains string
	// DescriptionContains — подстрока описания без учёта регистра.
	DescriptionContains string
	// MaxPrice ограничивает цену сверху (включительно).
	MaxPrice *decimal.Decimal
}

// Matches применяет фильтр к товару; используется in-memory хранилищем.
func (f ProductFilter) Matches(p Product) bool {
	if f.NameContains != "" && !containsFold(p.Name, f.NameContains) {
		return false
	}
	if f.DescriptionContains != "" && !containsFold(p.Description, f.DescriptionContains) {
		return false
	}
	if f.MaxPrice != nil && p.Price.GreaterThan(*f.MaxPrice) {
		return false
	}
	return true
}
