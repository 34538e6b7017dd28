package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// Store — общее in-memory состояние каталога, пользователей, заказов и outbox.
// Запись выполняется над копией состояния и публикуется целиком только при успехе,
// поэтому частично применённых изменений не бывает.
type Store struct {
	mu    sync.RWMutex
	state *state

	// beforeLineInsert вызывается перед записью каждой строки заказа; nil в рабочем режиме.
	beforeLineInsert func(orderID, productID string) error
}

type productRecord struct {
	seq     int64
	product domain.Product
}

type userRecord struct {
	seq  int64
	user domain.User
}

type orderRecord struct {
	seq   int64
	order domain.Order
}

type state struct {
	seq      int64
	products map[string]productRecord
	users    map[string]userRecord
	orders   map[string]orderRecord
	// lines хранит product_id строк заказа в порядке вставки.
	lines  map[string][]string
	outbox map[string]outboxRecord
}

// NewStore создаёт пустое хранилище.
func NewStore() *Store {
	return &Store{
		state: &state{
			products: make(map[string]productRecord),
			users:    make(map[string]userRecord),
			orders:   make(map[string]orderRecord),
			lines:    make(map[string][]string),
			outbox:   make(map[string]outboxRecord),
		},
	}
}

// Ping всегда успешен; нужен для health-проверок наравне с PostgreSQL.
func (s *Store) Ping(context.Context) error {
	return nil
}

// view выполняет fn под блокировкой чтения.
func (s *Store) view(ctx context.Context, fn func(st *state) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(s.state)
}

// update выполняет fn над копией состояния и подменяет состояние, только если fn вернула nil.
func (s *Store) update(ctx context.Context, fn func(st *state) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.state.clone()
	if err := fn(next); err != nil {
		return err
	}
	s.state = next
	return nil
}

func (st *state) nextSeq() int64 {
	st.seq++
	return st.seq
}

func (st *state) clone() *state {
	next := &state{
		seq:      st.seq,
		products: make(map[string]productRecord, len(st.products)),
		users:    make(map[string]userRecord, len(st.users)),
		orders:   make(map[string]orderRecord, len(st.orders)),
		lines:    make(map[string][]string, len(st.lines)),
		outbox:   make(map[string]outboxRecord, len(st.outbox)),
	}
	for id, rec := range st.products {
		next.products[id] = rec
	}
	for id, rec := range st.users {
		next.users[id] = rec
	}
	for id, rec := range st.orders {
		next.orders[id] = rec
	}
	for id, productIDs := range st.lines {
		next.lines[id] = append([]string(nil), productIDs...)
	}
	for id, rec := range st.outbox {
		next.outbox[id] = rec
	}
	return next
}

func (st *state) enqueue(msg domain.OutboxMessage, err error) error {
	if err != nil {
		return err
	}
	_, err = st.enqueueOutbox(msg)
	return err
}

func sortedBySeq[T any](items []T, seq func(T) int64) {
	sort.Slice(items, func(i, j int) bool {
		return seq(items[i]) < seq(items[j])
	})
}
