package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/storage/memory"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time            { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newIdempotencyRepo(t *testing.T) (domain.IdempotencyRepository, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)}
	return memory.NewIdempotencyRepository(memory.WithIdempotencyClock(clock.now)), clock
}

func TestIdempotencyRepository_Lifecycle(t *testing.T) {
	ctx := context.Background()
	repo, clock := newIdempotencyRepo(t)
	ttl := clock.t.Add(time.Hour)

	created, err := repo.CreateProcessing(ctx, " key-1 ", "hash-1", ttl)
	require.NoError(t, err)
	assert.Equal(t, "key-1", created.Key)
	assert.Equal(t, domain.IdempotencyStatusProcessing, created.Status)
	assert.False(t, created.Completed())

	clock.advance(time.Second)
	body := []byte(`{"id":"o1"}`)
	require.NoError(t, repo.MarkDone(ctx, "key-1", body, 201))
	body[0] = 'X'

	got, err := repo.Get(ctx, "key-1")
	require.NoError(t, err)
	assert.Equal(t, domain.IdempotencyStatusDone, got.Status)
	assert.Equal(t, 201, got.HTTPStatus)
	assert.JSONEq(t, `{"id":"o1"}`, string(got.ResponseBody), "stored body must not alias caller slice")
	assert.True(t, got.UpdatedAt.After(got.CreatedAt))
	assert.True(t, got.TTLAt.Equal(ttl))
}

func TestIdempotencyRepository_CreateProcessingConflicts(t *testing.T) {
	ctx := context.Background()
	repo, clock := newIdempotencyRepo(t)

	_, err := repo.CreateProcessing(ctx, "key", "hash-a", clock.t.Add(time.Hour))
	require.NoError(t, err)

	existing, err := repo.CreateProcessing(ctx, "key", "hash-a", clock.t.Add(time.Hour))
	assert.ErrorIs(t, err, domain.ErrIdempotencyKeyAlreadyExists)
	assert.Equal(t, "hash-a", existing.RequestHash)

	_, err = repo.CreateProcessing(ctx, "key", "hash-b", clock.t.Add(time.Hour))
	assert.ErrorIs(t, err, domain.ErrIdempotencyHashMismatch)

	// после истечения ttl ключ свободен даже без очистки
	clock.advance(2 * time.Hour)
	reused, err := repo.CreateProcessing(ctx, "key", "hash-b", time.Time{})
	require.NoError(t, err)
	assert.Equal(t, "hash-b", reused.RequestHash)
	assert.True(t, reused.TTLAt.Equal(clock.t.Add(24*time.Hour)))
}

func TestIdempotencyRepository_Validation(t *testing.T) {
	ctx := context.Background()
	repo, _ := newIdempotencyRepo(t)

	_, err := repo.CreateProcessing(ctx, "  ", "hash", time.Time{})
	assert.ErrorIs(t, err, domain.ErrIdempotencyKeyRequired)
	_, err = repo.CreateProcessing(ctx, "key", "", time.Time{})
	assert.ErrorIs(t, err, domain.ErrIdempotencyRequestHashRequired)
	_, err = repo.Get(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrIdempotencyKeyNotFound)
	assert.ErrorIs(t, repo.MarkFailed(ctx, "missing", nil, 500), domain.ErrIdempotencyKeyNotFound)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = repo.Get(cancelled, "key")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIdempotencyRepository_DeleteExpiredOldestFirst(t *testing.T) {
	ctx := context.Background()
	repo, clock := newIdempotencyRepo(t)
	start := clock.t

	for i, key := range []string{"c", "a", "b"} {
		_, err := repo.CreateProcessing(ctx, key, "hash", start.Add(time.Duration(i+1)*time.Minute))
		require.NoError(t, err)
	}
	_, err := repo.CreateProcessing(ctx, "alive", "hash", start.Add(time.Hour))
	require.NoError(t, err)

	deleted, err := repo.DeleteExpired(ctx, start.Add(10*time.Minute), 2)
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)

	// c (ttl +1m) и a (+2m) удалены первыми
	_, err = repo.Get(ctx, "b")
	assert.NoError(t, err)
	_, err = repo.Get(ctx, "c")
	assert.ErrorIs(t, err, domain.ErrIdempotencyKeyNotFound)

	deleted, err = repo.DeleteExpired(ctx, start.Add(10*time.Minute), 0)
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)

	_, err = repo.Get(ctx, "alive")
	assert.NoError(t, err)
}
