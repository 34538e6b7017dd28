package memory

import (
	"context"
	"errors"
	"fmt"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// orderRepositoryInMemory — in-memory реализация OrderRepository поверх общего Store.
type orderRepositoryInMemory struct {
	store *Store
}

// NewOrderRepository возвращает in-memory репозиторий для локальной разработки и тестов.
func NewOrderRepository(store *Store) domain.OrderRepository {
	return &orderRepositoryInMemory{store: store}
}

// Create записывает заголовок, строки и событие одной транзакцией над копией состояния.
func (r *orderRepositoryInMemory) Create(ctx context.Context, order domain.Order) error {
	err := r.store.update(ctx, func(st *state) error {
		if _, exists := st.orders[order.ID]; exists {
			return fmt.Errorf("order %s already exists", order.ID)
		}

		// Повторная проверка внутри транзакции: товар мог быть удалён после проверки в сервисе.
		if missing := domain.MissingIDs(order.ProductIDs, st.findProducts(order.ProductIDs)); len(missing) > 0 {
			return &domain.ReferentialIntegrityError{Entity: "product", MissingIDs: missing}
		}

		header := order
		header.ProductIDs = nil
		st.orders[order.ID] = orderRecord{seq: st.nextSeq(), order: header}

		for _, line := range order.Lines() {
			if hook := r.store.beforeLineInsert; hook != nil {
				if err := hook(line.OrderID, line.ProductID); err != nil {
					return fmt.Errorf("insert order line: %w", err)
				}
			}
			if containsID(st.lines[line.OrderID], line.ProductID) {
				return fmt.Errorf("insert order line: duplicate line %s/%s", line.OrderID, line.ProductID)
			}
			st.lines[line.OrderID] = append(st.lines[line.OrderID], line.ProductID)
		}

		return st.enqueue(domain.NewOrderEvent(domain.EventOrderCreated, order))
	})
	if err == nil {
		return nil
	}

	var refErr *domain.ReferentialIntegrityError
	if errors.As(err, &refErr) {
		return refErr
	}
	return &domain.PersistenceError{Op: "create order", Err: err}
}

// Get возвращает заказ или NotFoundError, если его нет.
func (r *orderRepositoryInMemory) Get(ctx context.Context, id string) (domain.Order, error) {
	var order domain.Order
	err := r.store.view(ctx, func(st *state) error {
		rec, ok := st.orders[id]
		if !ok {
			return &domain.NotFoundError{Entity: "order", ID: id}
		}
		order = st.withLines(rec.order)
		return nil
	})
	return order, err
}

// List возвращает все заказы в порядке создания.
func (r *orderRepositoryInMemory) List(ctx context.Context) ([]domain.Order, error) {
	var result []domain.Order
	err := r.store.view(ctx, func(st *state) error {
		records := make([]orderRecord, 0, len(st.orders))
		for _, rec := range st.orders {
			records = append(records, rec)
		}
		sortedBySeq(records, func(rec orderRecord) int64 { return rec.seq })

		result = make([]domain.Order, 0, len(records))
		for _, rec := range records {
			result = append(result, st.withLines(rec.order))
		}
		return nil
	})
	return result, err
}

// Delete удаляет строки и заголовок заказа вместе, возвращая удалённый заказ.
func (r *orderRepositoryInMemory) Delete(ctx context.Context, id string) (domain.Order, error) {
	var deleted domain.Order
	err := r.store.update(ctx, func(st *state) error {
		rec, ok := st.orders[id]
		if !ok {
			return &domain.NotFoundError{Entity: "order", ID: id}
		}
		deleted = st.withLines(rec.order)
		delete(st.lines, id)
		delete(st.orders, id)
		return st.enqueue(domain.NewOrderEvent(domain.EventOrderDeleted, deleted))
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Order{}, err
		}
		return domain.Order{}, &domain.PersistenceError{Op: "delete order", Err: err}
	}
	return deleted, nil
}

func (st *state) withLines(header domain.Order) domain.Order {
	header.ProductIDs = append([]string{}, st.lines[header.ID]...)
	return header
}

func containsID(ids []string, id string) bool {
	for _, existing := range ids {
		if existing == id {
			return true
		}
	}
	return false
}

var _ domain.OrderRepository = (*orderRepositoryInMemory)(nil)
