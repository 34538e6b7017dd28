package postgres

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

func TestOrderRepository_PostgresCreateGetListAndDelete(t *testing.T) {
	store := openTestStore(t)
	seedProducts(t, store, map[string]string{"p1": "10.00", "p2": "5.00"})
	repo := NewOrderRepository(store)
	ctx := context.Background()

	now := time.Now().UTC().Round(time.Microsecond)
	order1 := sampleOrder("order-1", now.Add(-2*time.Minute), "p1", "p2")
	order2 := sampleOrder("order-2", now.Add(-time.Minute), "p2")

	if err := repo.Create(ctx, order1); err != nil {
		t.Fatalf("create order1: %v", err)
	}
	if err := repo.Create(ctx, order2); err != nil {
		t.Fatalf("create order2: %v", err)
	}

	got, err := repo.Get(ctx, order1.ID)
	if err != nil {
		t.Fatalf("get order1: %v", err)
	}
	if got.ID != order1.ID || got.UserID != order1.UserID || !got.Total.Equal(order1.Total) || !got.Payment {
		t.Fatalf("unexpected order payload: %+v", got)
	}
	if len(got.ProductIDs) != 2 || got.ProductIDs[0] != "p1" || got.ProductIDs[1] != "p2" {
		t.Fatalf("unexpected product ids: %v", got.ProductIDs)
	}

	all, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("list orders: %v", err)
	}
	if len(all) != 2 || all[0].ID != order1.ID || all[1].ID != order2.ID {
		t.Fatalf("unexpected list result: %+v", all)
	}

	events := countRows(t, store, `SELECT COUNT(*) FROM outbox_messages WHERE event_type = $1`, domain.EventOrderCreated)
	if events != 2 {
		t.Fatalf("expected 2 order.created events, got %d", events)
	}

	deleted, err := repo.Delete(ctx, order1.ID)
	if err != nil {
		t.Fatalf("delete order1: %v", err)
	}
	if deleted.ID != order1.ID || len(deleted.ProductIDs) != 2 {
		t.Fatalf("unexpected deleted order: %+v", deleted)
	}
	if lines := countRows(t, store, `SELECT COUNT(*) FROM order_lines WHERE order_id = $1`, order1.ID); lines != 0 {
		t.Fatalf("expected no lines after delete, got %d", lines)
	}
	if _, err := repo.Get(ctx, order1.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
	if _, err := repo.Delete(ctx, order1.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
}

func TestOrderRepository_PostgresReferentialIntegrity(t *testing.T) {
	store := openTestStore(t)
	seedProducts(t, store, map[string]string{"p1": "10.00"})
	repo := NewOrderRepository(store)

	err := repo.Create(context.Background(), sampleOrder("order-ref", time.Now().UTC(), "p1", "p9"))
	var refErr *domain.ReferentialIntegrityError
	if !errors.As(err, &refErr) {
		t.Fatalf("expected ReferentialIntegrityError, got %v", err)
	}
	if len(refErr.MissingIDs) != 1 || refErr.MissingIDs[0] != "p9" {
		t.Fatalf("unexpected missing ids: %v", refErr.MissingIDs)
	}
	if n := countRows(t, store, `SELECT COUNT(*) FROM orders`); n != 0 {
		t.Fatalf("expected no orders, got %d", n)
	}
}

func TestOrderRepository_PostgresCreateRollsBackOnLineFailure(t *testing.T) {
	store := openTestStore(t)
	seedProducts(t, store, map[string]string{"p1": "10.00"})
	repo := NewOrderRepository(store)
	outboxBefore := countRows(t, store, `SELECT COUNT(*) FROM outbox_messages`)

	// Повтор product_id нарушает первичный ключ order_lines уже после вставки заголовка.
	err := repo.Create(context.Background(), sampleOrder("order-atomic", time.Now().UTC(), "p1", "p1"))
	if domain.KindOf(err) != domain.KindPersistence {
		t.Fatalf("expected persistence error, got %v", err)
	}

	if n := countRows(t, store, `SELECT COUNT(*) FROM orders WHERE id = $1`, "order-atomic"); n != 0 {
		t.Fatalf("expected header rolled back, got %d rows", n)
	}
	if n := countRows(t, store, `SELECT COUNT(*) FROM order_lines WHERE order_id = $1`, "order-atomic"); n != 0 {
		t.Fatalf("expected lines rolled back, got %d rows", n)
	}
	if n := countRows(t, store, `SELECT COUNT(*) FROM outbox_messages`); n != outboxBefore {
		t.Fatalf("expected outbox unchanged, got %d rows (was %d)", n, outboxBefore)
	}
}

func TestOrderRepository_PostgresConcurrentProductDelete(t *testing.T) {
	store := openTestStore(t)
	seedProducts(t, store, map[string]string{"p1": "10.00"})
	orders := NewOrderRepository(store)
	products := NewProductRepository(store)
	ctx := context.Background()

	var (
		wg        sync.WaitGroup
		createErr error
		deleteErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		createErr = orders.Create(ctx, sampleOrder("order-race", time.Now().UTC(), "p1"))
	}()
	go func() {
		defer wg.Done()
		_, deleteErr = products.Delete(ctx, "p1")
	}()
	wg.Wait()

	if deleteErr != nil {
		t.Fatalf("delete product: %v", deleteErr)
	}
	// Либо заказ создан до удаления товара, либо отклонён проверкой внутри транзакции.
	if createErr != nil && domain.KindOf(createErr) != domain.KindReferentialIntegrity {
		t.Fatalf("unexpected create error: %v", createErr)
	}
}

func sampleOrder(id string, createdAt time.Time, productIDs ...string) domain.Order {
	return domain.Order{
		ID:         id,
		UserID:     "user-1",
		Total:      decimal.RequireFromString("18.00"),
		Payment:    true,
		ProductIDs: productIDs,
		CreatedAt:  createdAt.Round(time.Microsecond),
	}
}
