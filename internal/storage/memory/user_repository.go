package memory

import (
	"context"
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

type userRepositoryInMemory struct {
	store *Store
}

// NewUserRepository возвращает in-memory хранилище пользователей поверх общего Store.
func NewUserRepository(store *Store) domain.UserRepository {
	return &userRepositoryInMemory{store: store}
}

func (r *userRepositoryInMemory) Create(ctx context.Context, user domain.User) error {
	return r.store.update(ctx, func(st *state) error {
		if _, exists := st.users[user.ID]; exists {
			return &domain.ConflictError{Entity: "user", Field: "id"}
		}
		if st.emailTaken(user.Email, "") {
			return &domain.ConflictError{Entity: "user", Field: "email"}
		}
		st.users[user.ID] = userRecord{seq: st.nextSeq(), user: user}
		return nil
	})
}

func (r *userRepositoryInMemory) Get(ctx context.Context, id string) (domain.User, error) {
	var user domain.User
	err := r.store.view(ctx, func(st *state) error {
		rec, ok := st.users[id]
		if !ok {
			return &domain.NotFoundError{Entity: "user", ID: id}
		}
		user = rec.user
		return nil
	})
	return user, err
}

func (r *userRepositoryInMemory) FindByIDs(ctx context.Context, ids []string) ([]domain.User, error) {
	result := make([]domain.User, 0, len(ids))
	err := r.store.view(ctx, func(st *state) error {
		for _, id := range domain.UniqueIDs(ids) {
			if rec, ok := st.users[id]; ok {
				result = append(result, rec.user)
			}
		}
		return nil
	})
	return result, err
}

func (r *userRepositoryInMemory) List(ctx context.Context) ([]domain.User, error) {
	var records []userRecord
	err := r.store.view(ctx, func(st *state) error {
		records = make([]userRecord, 0, len(st.users))
		for _, rec := range st.users {
			records = append(records, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sortedBySeq(records, func(rec userRecord) int64 { return rec.seq })
	result := make([]domain.User, 0, len(records))
	for _, rec := range records {
		result = append(result, rec.user)
	}
	return result, nil
}

func (r *userRepositoryInMemory) Patch(ctx context.Context, id string, patch domain.UserPatch) (domain.User, error) {
	if patch.Empty() {
		return domain.User{}, domain.ErrNothingToUpdate
	}

	var updated domain.User
	err := r.store.update(ctx, func(st *state) error {
		rec, ok := st.users[id]
		if !ok {
			return &domain.NotFoundError{Entity: "user", ID: id}
		}
		if patch.Email != nil && st.emailTaken(*patch.Email, id) {
			return &domain.ConflictError{Entity: "user", Field: "email"}
		}
		updated = patch.Apply(rec.user)
		updated.UpdatedAt = time.Now().UTC()
		st.users[id] = userRecord{seq: rec.seq, user: updated}
		return nil
	})
	if err != nil {
		return domain.User{}, err
	}
	return updated, nil
}

func (r *userRepositoryInMemory) Delete(ctx context.Context, id string) (domain.User, error) {
	var deleted domain.User
	err := r.store.update(ctx, func(st *state) error {
		rec, ok := st.users[id]
		if !ok {
			return &domain.NotFoundError{Entity: "user", ID: id}
		}
		deleted = rec.user
		delete(st.users, id)
		return nil
	})
	if err != nil {
		return domain.User{}, err
	}
	return deleted, nil
}

func (st *state) emailTaken(email, exceptID string) bool {
	for id, rec := range st.users {
		if id != exceptID && rec.user.Email == email {
			return true
		}
	}
	return false
}

var _ domain.UserRepository = (*userRepositoryInMemory)(nil)
