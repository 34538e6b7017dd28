package rest

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// money печатает сумму числом с двумя знаками после запятой: 18.00, а не "18" или "18.0".
type money decimal.Decimal

func (m money) MarshalJSON() ([]byte, error) {
	return []byte(decimal.Decimal(m).StringFixed(domain.CurrencyPrecision)), nil
}

type productResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       money     `json:"price"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func newProductResponse(p domain.Product) productResponse {
	return productResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       money(p.Price),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func newProductResponses(products []domain.Product) []productResponse {
	result := make([]productResponse, 0, len(products))
	for _, p := range products {
		result = append(result, newProductResponse(p))
	}
	return result
}

// userResponse — публичные поля пользователя, хэш пароля не отдаётся.
type userResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

func newUserResponse(u domain.User) userResponse {
	return userResponse{ID: u.ID, Email: u.Email, Name: u.Name}
}

type orderResponse struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	Total      money     `json:"total"`
	Payment    bool      `json:"payment"`
	ProductIDs []string  `json:"productIds"`
	CreatedAt  time.Time `json:"createdAt"`
}

func newOrderResponse(o domain.Order) orderResponse {
	productIDs := o.ProductIDs
	if productIDs == nil {
		productIDs = []string{}
	}
	return orderResponse{
		ID:         o.ID,
		UserID:     o.UserID,
		Total:      money(o.Total),
		Payment:    o.Payment,
		ProductIDs: productIDs,
		CreatedAt:  o.CreatedAt,
	}
}

type orderDetailsResponse struct {
	orderResponse
	User     *userResponse     `json:"user"`
	Products []productResponse `json:"products"`
}

func newOrderDetailsResponse(d domain.OrderDetails) orderDetailsResponse {
	resp := orderDetailsResponse{
		orderResponse: newOrderResponse(d.Order),
		Products:      newProductResponses(d.Products),
	}
	if d.User != nil {
		user := newUserResponse(*d.User)
		resp.User = &user
	}
	return resp
}
