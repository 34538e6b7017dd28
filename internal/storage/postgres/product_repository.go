package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

const productColumns = `id, name, description, price, created_at, updated_at`

type productRepository struct {
	db *sql.DB
}

// NewProductRepository создаёт PostgreSQL-реализацию ProductRepository.
func NewProductRepository(store *Store) domain.ProductRepository {
	return &productRepository{db: store.DB()}
}

func (r *productRepository) Create(ctx context.Context, product domain.Product) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	return inTx(ctx, r.db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO products (`+productColumns+`)
			VALUES ($1,$2,$3,$4,$5,$6)
		`,
			product.ID, product.Name, product.Description, product.Price,
			product.CreatedAt, product.UpdatedAt,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return &domain.ConflictError{Entity: "product", Field: "id"}
			}
			return fmt.Errorf("insert product: %w", err)
		}
		event, err := domain.NewProductEvent(domain.EventProductCreated, product)
		if err != nil {
			return err
		}
		return enqueueEvent(ctx, tx, event)
	})
}

func (r *productRepository) Get(ctx context.Context, id string) (domain.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	product, err := scanProduct(r.db.QueryRowContext(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE id = $1
	`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Product{}, &domain.NotFoundError{Entity: "product", ID: id}
		}
		return domain.Product{}, fmt.Errorf("select product: %w", err)
	}
	return product, nil
}

func (r *productRepository) FindByIDs(ctx context.Context, ids []string) ([]domain.Product, error) {
	ids = domain.UniqueIDs(ids)
	if len(ids) == 0 {
		return []domain.Product{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE id = ANY($1)
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("select products by ids: %w", err)
	}
	defer rows.Close()

	found, err := collectProducts(rows)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]domain.Product, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}
	result := make([]domain.Product, 0, len(found))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			result = append(result, p)
		}
	}
	return result, nil
}

func (r *productRepository) List(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var (
		conds []string
		args  []any
	)
	if filter.NameContains != "" {
		args = append(args, likePattern(filter.NameContains))
		conds = append(conds, "name ILIKE $"+strconv.Itoa(len(args)))
	}
	if filter.DescriptionContains != "" {
		args = append(args, likePattern(filter.DescriptionContains))
		conds = append(conds, "description ILIKE $"+strconv.Itoa(len(args)))
	}
	if filter.MaxPrice != nil {
		args = append(args, *filter.MaxPrice)
		conds = append(conds, "price <= $"+strconv.Itoa(len(args)))
	}

	query := `SELECT ` + productColumns + ` FROM products`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY created_at, id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	return collectProducts(rows)
}

func (r *productRepository) Update(ctx context.Context, product domain.Product) (domain.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var updated domain.Product
	err := inTx(ctx, r.db, func(tx *sql.Tx) error {
		var err error
		updated, err = scanProduct(tx.QueryRowContext(ctx, `
			UPDATE products
			SET name = $1,
			    description = $2,
			    price = $3,
			    updated_at = $4
			WHERE id = $5
			RETURNING `+productColumns,
			product.Name, product.Description, product.Price, time.Now().UTC(), product.ID,
		))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return &domain.NotFoundError{Entity: "product", ID: product.ID}
			}
			return fmt.Errorf("update product: %w", err)
		}
		event, err := domain.NewProductEvent(domain.EventProductUpdated, updated)
		if err != nil {
			return err
		}
		return enqueueEvent(ctx, tx, event)
	})
	if err != nil {
		return domain.Product{}, err
	}
	return updated, nil
}

func (r *productRepository) Delete(ctx context.Context, id string) (domain.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var deleted domain.Product
	err := inTx(ctx, r.db, func(tx *sql.Tx) error {
		var err error
		deleted, err = scanProduct(tx.QueryRowContext(ctx, `
			DELETE FROM products
			WHERE id = $1
			RETURNING `+productColumns, id))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return &domain.NotFoundError{Entity: "product", ID: id}
			}
			return fmt.Errorf("delete product: %w", err)
		}
		event, err := domain.NewProductEvent(domain.EventProductDeleted, deleted)
		if err != nil {
			return err
		}
		return enqueueEvent(ctx, tx, event)
	})
	if err != nil {
		return domain.Product{}, err
	}
	return deleted, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (domain.Product, error) {
	var p domain.Product
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return domain.Product{}, err
	}
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return p, nil
}

func collectProducts(rows *sql.Rows) ([]domain.Product, error) {
	products := make([]domain.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product row: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product rows: %w", err)
	}
	return products, nil
}

// likePattern экранирует спецсимволы LIKE, чтобы фильтр искал подстроку буквально.
func likePattern(s string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + replacer.Replace(s) + "%"
}

var _ domain.ProductRepository = (*productRepository)(nil)
