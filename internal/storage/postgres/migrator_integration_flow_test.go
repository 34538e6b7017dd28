package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrator_PostgresLifecycle(t *testing.T) {
	store := openRawTestStore(t)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	// сбрасываем схему, которую могли оставить другие тесты
	require.NoError(t, store.MigrateDown(ctx, 100))

	total := len(mustLoadMigrations(t))

	steps := []struct {
		name  string
		apply func() error
		want  MigrationState
	}{
		{"reset", func() error { return nil }, MigrationState{Version: 0, Applied: 0, Pending: total}},
		{"up all", func() error { return store.MigrateUp(ctx, 0) }, MigrationState{Version: int64(total), Applied: total, Pending: 0}},
		{"up again is no-op", func() error { return store.MigrateUp(ctx, 0) }, MigrationState{Version: int64(total), Applied: total, Pending: 0}},
		{"down one", func() error { return store.MigrateDown(ctx, 1) }, MigrationState{Version: int64(total - 1), Applied: total - 1, Pending: 1}},
		{"down default step", func() error { return store.MigrateDown(ctx, 0) }, MigrationState{Version: 0, Applied: 0, Pending: total}},
		{"down on empty", func() error { return store.MigrateDown(ctx, 1) }, MigrationState{Version: 0, Applied: 0, Pending: total}},
		{"up one", func() error { return store.MigrateUp(ctx, 1) }, MigrationState{Version: 1, Applied: 1, Pending: total - 1}},
	}

	for _, step := range steps {
		require.NoError(t, step.apply(), step.name)

		state, err := store.MigrationStatus(ctx)
		require.NoError(t, err, step.name)
		assert.Equal(t, step.want, state, step.name)
	}

	require.NoError(t, store.MigrateUp(ctx, 0))
}

func TestMigrator_GuardsAndUnsupportedDirection(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	var nilStore *Store
	assert.Error(t, nilStore.MigrateUp(ctx, 0))
	assert.Error(t, nilStore.MigrateDown(ctx, 1))
	_, err := nilStore.MigrationStatus(ctx)
	assert.Error(t, err)

	store := openRawTestStore(t)
	assert.Error(t, store.migrate(ctx, migrationDirection("sideways"), 0))
}

func mustLoadMigrations(t *testing.T) []migration {
	t.Helper()
	migrations, err := loadMigrationsFromFS(migrationsFS)
	require.NoError(t, err)
	return migrations
}
