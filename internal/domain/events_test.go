package domain

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
)

func TestNewOrderEvent(t *testing.T) {
	msg, err := NewOrderEvent(EventOrderCreated, Order{
		ID:         "o1",
		UserID:     "u1",
		Total:      decimal.RequireFromString("18"),
		Payment:    true,
		ProductIDs: []string{"p1", "p2"},
	})
	if err != nil {
		t.Fatalf("NewOrderEvent returned error: %v", err)
	}
	if msg.AggregateType != AggregateOrder || msg.AggregateID != "o1" || msg.EventType != EventOrderCreated {
		t.Fatalf("unexpected message metadata: %+v", msg)
	}

	var payload map[string]any
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		t.Fatalf("payload is not valid json: %v", err)
	}
	if payload["total"] != "18.00" {
		t.Fatalf("expected total 18.00, got %v", payload["total"])
	}
}

func TestNewProductEvent(t *testing.T) {
	msg, err := NewProductEvent(EventProductDeleted, Product{ID: "p1", Name: "tea", Price: decimal.RequireFromString("5")})
	if err != nil {
		t.Fatalf("NewProductEvent returned error: %v", err)
	}
	if msg.AggregateType != AggregateProduct || msg.AggregateID != "p1" {
		t.Fatalf("unexpected message metadata: %+v", msg)
	}
}
