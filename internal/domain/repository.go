package domain

import "context"

// ProductRepository описывает хранилище каталога товаров.
type ProductRepository interface {
	// Create сохраняет товар и ставит событие product.created в outbox в той же транзакции.
	Create(ctx context.Context, product Product) error
	// Get возвращает товар или NotFoundError.
	Get(ctx context.Context, id string) (Product, error)
	// FindByIDs возвращает существующие товары из набора; отсутствующие просто пропускаются.
	FindByIDs(ctx context.Context, ids []string) ([]Product, error)
	// List возвращает товары, подходящие под фильтр.
	List(ctx context.Context, filter ProductFilter) ([]Product, error)
	// Update заменяет поля товара или возвращает NotFoundError.
	Update(ctx context.Context, product Product) (Product, error)
	// Delete удаляет товар и возвращает удалённую запись.
	Delete(ctx context.Context, id string) (Product, error)
}

// UserRepository описывает хранилище пользователей.
type UserRepository interface {
	// Create сохраняет пользователя; повтор email даёт ConflictError.
	Create(ctx context.Context, user User) error
	Get(ctx context.Context, id string) (User, error)
	FindByIDs(ctx context.Context, ids []string) ([]User, error)
	List(ctx context.Context) ([]User, error)
	// Patch применяет частичное обновление и возвращает итоговую запись.
	Patch(ctx context.Context, id string, patch UserPatch) (User, error)
	Delete(ctx context.Context, id string) (User, error)
}

// OrderRepository описывает атомарную запись и удаление заказов.
type OrderRepository interface {
	// Create в одной транзакции повторно проверяет существование товаров заказа,
	// пишет заголовок, все строки связи и событие order.created.
	// Несуществующие товары дают ReferentialIntegrityError, прочие сбои — PersistenceError;
	// в обоих случаях ничего не сохраняется.
	Create(ctx context.Context, order Order) error
	// Get возвращает заголовок со списком товаров или NotFoundError.
	Get(ctx context.Context, id string) (Order, error)
	// List возвращает все заказы в порядке создания.
	List(ctx context.Context) ([]Order, error)
	// Delete атомарно удаляет строки связи и заголовок, возвращая удалённый заголовок.
	Delete(ctx context.Context, id string) (Order, error)
}
