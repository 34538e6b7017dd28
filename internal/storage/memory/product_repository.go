package memory

import (
	"context"
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

type productRepositoryInMemory struct {
	store *Store
}

// NewProductRepository возвращает in-memory каталог товаров поверх общего Store.
func NewProductRepository(store *Store) domain.ProductRepository {
	return &productRepositoryInMemory{store: store}
}

func (r *productRepositoryInMemory) Create(ctx context.Context, product domain.Product) error {
	return r.store.update(ctx, func(st *state) error {
		if _, exists := st.products[product.ID]; exists {
			return &domain.ConflictError{Entity: "product", Field: "id"}
		}
		st.products[product.ID] = productRecord{seq: st.nextSeq(), product: product}
		return st.enqueue(domain.NewProductEvent(domain.EventProductCreated, product))
	})
}

func (r *productRepositoryInMemory) Get(ctx context.Context, id string) (domain.Product, error) {
	var product domain.Product
	err := r.store.view(ctx, func(st *state) error {
		rec, ok := st.products[id]
		if !ok {
			return &domain.NotFoundError{Entity: "product", ID: id}
		}
		product = rec.product
		return nil
	})
	return product, err
}

func (r *productRepositoryInMemory) FindByIDs(ctx context.Context, ids []string) ([]domain.Product, error) {
	var result []domain.Product
	err := r.store.view(ctx, func(st *state) error {
		result = st.findProducts(ids)
		return nil
	})
	return result, err
}

func (r *productRepositoryInMemory) List(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	var records []productRecord
	err := r.store.view(ctx, func(st *state) error {
		records = make([]productRecord, 0, len(st.products))
		for _, rec := range st.products {
			if filter.Matches(rec.product) {
				records = append(records, rec)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sortedBySeq(records, func(rec productRecord) int64 { return rec.seq })
	result := make([]domain.Product, 0, len(records))
	for _, rec := range records {
		result = append(result, rec.product)
	}
	return result, nil
}

func (r *productRepositoryInMemory) Update(ctx context.Context, product domain.Product) (domain.Product, error) {
	var updated domain.Product
	err := r.store.update(ctx, func(st *state) error {
		rec, ok := st.products[product.ID]
		if !ok {
			return &domain.NotFoundError{Entity: "product", ID: product.ID}
		}
		updated = rec.product
		updated.Name = product.Name
		updated.Description = product.Description
		updated.Price = product.Price
		updated.UpdatedAt = time.Now().UTC()
		st.products[product.ID] = productRecord{seq: rec.seq, product: updated}
		return st.enqueue(domain.NewProductEvent(domain.EventProductUpdated, updated))
	})
	if err != nil {
		return domain.Product{}, err
	}
	return updated, nil
}

func (r *productRepositoryInMemory) Delete(ctx context.Context, id string) (domain.Product, error) {
	var deleted domain.Product
	err := r.store.update(ctx, func(st *state) error {
		rec, ok := st.products[id]
		if !ok {
			return &domain.NotFoundError{Entity: "product", ID: id}
		}
		deleted = rec.product
		delete(st.products, id)
		return st.enqueue(domain.NewProductEvent(domain.EventProductDeleted, deleted))
	})
	if err != nil {
		return domain.Product{}, err
	}
	return deleted, nil
}

// findProducts возвращает найденные товары в порядке запрошенных идентификаторов.
func (st *state) findProducts(ids []string) []domain.Product {
	result := make([]domain.Product, 0, len(ids))
	for _, id := range domain.UniqueIDs(ids) {
		if rec, ok := st.products[id]; ok {
			result = append(result, rec.product)
		}
	}
	return result
}

var _ domain.ProductRepository = (*productRepositoryInMemory)(nil)
