package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

const orderColumns = `id, user_id, total, payment, created_at`

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository создаёт PostgreSQL-реализацию OrderRepository.
func NewOrderRepository(store *Store) domain.OrderRepository {
	return &orderRepository{db: store.DB()}
}

// Create пишет заголовок, строки и событие order.created в одной транзакции.
// Товары заказа читаются с FOR SHARE: параллельное удаление товара ждёт коммита
// или, если успело раньше, приводит к ReferentialIntegrityError.
func (r *orderRepository) Create(ctx context.Context, order domain.Order) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	err := inTx(ctx, r.db, func(tx *sql.Tx) error {
		found, err := lockProductsTx(ctx, tx, order.ProductIDs)
		if err != nil {
			return err
		}
		if missing := domain.MissingIDs(order.ProductIDs, found); len(missing) > 0 {
			return &domain.ReferentialIntegrityError{Entity: "product", MissingIDs: missing}
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO orders (`+orderColumns+`)
			VALUES ($1,$2,$3,$4,$5)
		`,
			order.ID, order.UserID, order.Total, order.Payment, order.CreatedAt,
		); err != nil {
			return fmt.Errorf("insert order: %w", err)
		}

		for position, line := range order.Lines() {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO order_lines (order_id, product_id, position)
				VALUES ($1,$2,$3)
			`, line.OrderID, line.ProductID, position); err != nil {
				return fmt.Errorf("insert order line: %w", err)
			}
		}

		event, err := domain.NewOrderEvent(domain.EventOrderCreated, order)
		if err != nil {
			return err
		}
		return enqueueEvent(ctx, tx, event)
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

func (r *orderRepository) Get(ctx context.Context, id string) (domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	order, err := scanOrder(r.db.QueryRowContext(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE id = $1
	`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Order{}, &domain.NotFoundError{Entity: "order", ID: id}
		}
		return domain.Order{}, fmt.Errorf("select order: %w", err)
	}

	lines, err := r.loadLines(ctx, []string{order.ID})
	if err != nil {
		return domain.Order{}, err
	}
	order.ProductIDs = productIDsOrEmpty(lines[order.ID])

	return order, nil
}

func (r *orderRepository) List(ctx context.Context) ([]domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		ORDER BY created_at, id
	`)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := make([]domain.Order, 0)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order rows: %w", err)
	}
	if len(orders) == 0 {
		return orders, nil
	}

	ids := make([]string, 0, len(orders))
	for _, order := range orders {
		ids = append(ids, order.ID)
	}
	lines, err := r.loadLines(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].ProductIDs = productIDsOrEmpty(lines[orders[i].ID])
	}

	return orders, nil
}

// Delete удаляет строки, затем заголовок и ставит событие order.deleted; всё в одной транзакции.
func (r *orderRepository) Delete(ctx context.Context, id string) (domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var deleted domain.Order
	err := inTx(ctx, r.db, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, `
			DELETE FROM order_lines
			WHERE order_id = $1
			RETURNING product_id, position
		`, id)
		if err != nil {
			return fmt.Errorf("delete order lines: %w", err)
		}
		productIDs, err := collectReturnedLines(rows)
		if err != nil {
			return err
		}

		deleted, err = scanOrder(tx.QueryRowContext(ctx, `
			DELETE FROM orders
			WHERE id = $1
			RETURNING `+orderColumns, id))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return &domain.NotFoundError{Entity: "order", ID: id}
			}
			return fmt.Errorf("delete order: %w", err)
		}
		deleted.ProductIDs = productIDs

		event, err := domain.NewOrderEvent(domain.EventOrderDeleted, deleted)
		if err != nil {
			return err
		}
		return enqueueEvent(ctx, tx, event)
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Order{}, err
		}
		return domain.Order{}, &domain.PersistenceError{Op: "delete order", Err: err}
	}

	return deleted, nil
}

func (r *orderRepository) loadLines(ctx context.Context, orderIDs []string) (map[string][]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT order_id, product_id
		FROM order_lines
		WHERE order_id = ANY($1)
		ORDER BY order_id, position
	`, orderIDs)
	if err != nil {
		return nil, fmt.Errorf("load order lines: %w", err)
	}
	defer rows.Close()

	lines := make(map[string][]string, len(orderIDs))
	for rows.Next() {
		var orderID, productID string
		if err := rows.Scan(&orderID, &productID); err != nil {
			return nil, fmt.Errorf("scan order line: %w", err)
		}
		lines[orderID] = append(lines[orderID], productID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order lines: %w", err)
	}

	return lines, nil
}

func lockProductsTx(ctx context.Context, tx *sql.Tx, ids []string) ([]domain.Product, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE id = ANY($1)
		FOR SHARE
	`, domain.UniqueIDs(ids))
	if err != nil {
		return nil, fmt.Errorf("lock order products: %w", err)
	}
	defer rows.Close()

	return collectProducts(rows)
}

func collectReturnedLines(rows *sql.Rows) ([]string, error) {
	defer rows.Close()

	byPosition := make(map[int]string)
	maxPosition := -1
	for rows.Next() {
		var (
			productID string
			position  int
		)
		if err := rows.Scan(&productID, &position); err != nil {
			return nil, fmt.Errorf("scan deleted order line: %w", err)
		}
		byPosition[position] = productID
		if position > maxPosition {
			maxPosition = position
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate deleted order lines: %w", err)
	}

	productIDs := make([]string, 0, len(byPosition))
	for position := 0; position <= maxPosition; position++ {
		if productID, ok := byPosition[position]; ok {
			productIDs = append(productIDs, productID)
		}
	}
	return productIDs, nil
}

func scanOrder(row rowScanner) (domain.Order, error) {
	var o domain.Order
	if err := row.Scan(&o.ID, &o.UserID, &o.Total, &o.Payment, &o.CreatedAt); err != nil {
		return domain.Order{}, err
	}
	o.CreatedAt = o.CreatedAt.UTC()
	return o, nil
}

func productIDsOrEmpty(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}

var _ domain.OrderRepository = (*orderRepository)(nil)
