package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

type productEventPayload struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       string    `json:"price"`
	OccurredAt  time.Time `json:"occurred_at"`
}

type orderEventPayload struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	Total      string    `json:"total"`
	Payment    bool      `json:"payment"`
	ProductIDs []string  `json:"product_ids"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewProductEvent строит outbox-сообщение об изменении товара.
func NewProductEvent(eventType string, p Product) (OutboxMessage, error) {
	payload, err := json.Marshal(productEventPayload{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price.StringFixed(CurrencyPrecision),
		OccurredAt:  time.Now().UTC(),
	})
	if err != nil {
		return OutboxMessage{}, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return OutboxMessage{
		AggregateType: AggregateProduct,
		AggregateID:   p.ID,
		EventType:     eventType,
		Payload:       payload,
	}, nil
}

// NewOrderEvent строит outbox-сообщение о создании или удалении заказа.
func NewOrderEvent(eventType string, o Order) (OutboxMessage, error) {
	productIDs := o.ProductIDs
	if productIDs == nil {
		productIDs = []string{}
	}
	payload, err := json.Marshal(orderEventPayload{
		ID:         o.ID,
		UserID:     o.UserID,
		Total:      o.Total.StringFixed(CurrencyPrecision),
		Payment:    o.Payment,
		ProductIDs: productIDs,
		OccurredAt: time.Now().UTC(),
	})
	if err != nil {
		return OutboxMessage{}, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return OutboxMessage{
		AggregateType: AggregateOrder,
		AggregateID:   o.ID,
		EventType:     eventType,
		Payload:       payload,
	}, nil
}
