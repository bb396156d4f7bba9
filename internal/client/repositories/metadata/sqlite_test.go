package metadata

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/dmitrijs2005/keepsync/internal/client/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func newRepo(t *testing.T) (*SQLiteRepository, *sql.DB) {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "meta.db"))
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, migrations.Up(context.Background(), db))
	return NewSQLiteRepository(db), db
}

func TestSetGetList(t *testing.T) {
	r, _ := newRepo(t)
	ctx := context.Background()

	v, err := r.Get(ctx, "hwm:tags")
	require.NoError(t, err)
	assert.Nil(t, v, "absent key reads as nil")

	require.NoError(t, r.Set(ctx, "hwm:tags", []byte("1")))
	require.NoError(t, r.Set(ctx, "hwm:tags", []byte("2")))
	require.NoError(t, r.Set(ctx, "device", []byte{0xAA, 0xBB}))

	v, err = r.Get(ctx, "hwm:tags")
	require.NoError(t, err)
	assert.Equal(t, []byte("2"), v)

	all, err := r.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string][]byte{"hwm:tags": []byte("2"), "device": {0xAA, 0xBB}}, all)
}

func TestErrorsAreWrappedWithKey(t *testing.T) {
	r, db := newRepo(t)
	ctx := context.Background()
	require.NoError(t, db.Close())

	_, err := r.Get(ctx, "hwm:tags")
	assert.ErrorContains(t, err, "failed to get metadata[hwm:tags]")

	err = r.Set(ctx, "hwm:tags", []byte("1"))
	assert.ErrorContains(t, err, "failed to set metadata[hwm:tags]")

	_, err = r.List(ctx)
	assert.ErrorContains(t, err, "failed to list metadata")
}

func TestGetInt64(t *testing.T) {
	r, _ := newRepo(t)
	ctx := context.Background()

	v, err := r.GetInt64(ctx, "hwm:tags")
	require.NoError(t, err)
	assert.Zero(t, v)

	require.NoError(t, r.Set(ctx, "hwm:tags", []byte("soon")))
	_, err = r.GetInt64(ctx, "hwm:tags")
	assert.ErrorContains(t, err, "is not an integer")
}

func TestSetMaxInt64_NeverMovesBackwards(t *testing.T) {
	r, _ := newRepo(t)
	ctx := context.Background()

	steps := []struct {
		offer int64
		want  int64
	}{
		{100, 100},
		{40, 100},
		{100, 100},
		{250, 250},
	}
	for _, s := range steps {
		got, err := r.SetMaxInt64(ctx, "hwm:articles", s.offer)
		require.NoError(t, err)
		assert.Equal(t, s.want, got, "offer %d", s.offer)
	}

	v, err := r.GetInt64(ctx, "hwm:articles")
	require.NoError(t, err)
	assert.EqualValues(t, 250, v)

	other, err := r.GetInt64(ctx, "hwm:tags")
	require.NoError(t, err)
	assert.Zero(t, other, "marks are per key")
}
