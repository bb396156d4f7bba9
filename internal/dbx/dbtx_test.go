package dbx

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func openDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "dbx.db"))
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	_, err = db.Exec(`CREATE TABLE rows (id TEXT PRIMARY KEY, revision INTEGER NOT NULL)`)
	require.NoError(t, err)
	return db
}

func revisions(t *testing.T, db *sql.DB) map[string]int64 {
	t.Helper()
	rows, err := db.Query(`SELECT id, revision FROM rows`)
	require.NoError(t, err)
	defer rows.Close()

	out := map[string]int64{}
	for rows.Next() {
		var (
			id  string
			rev int64
		)
		require.NoError(t, rows.Scan(&id, &rev))
		out[id] = rev
	}
	require.NoError(t, rows.Err())
	return out
}

func TestWithTx(t *testing.T) {
	tests := []struct {
		name string
		fn   func(ctx context.Context, tx DBTX) error
		want map[string]int64
		err  bool
	}{
		{
			name: "commit",
			fn: func(ctx context.Context, tx DBTX) error {
				_, err := tx.ExecContext(ctx, `INSERT INTO rows VALUES ('a', 1), ('b', 1)`)
				return err
			},
			want: map[string]int64{"a": 1, "b": 1},
		},
		{
			name: "rollback on error",
			fn: func(ctx context.Context, tx DBTX) error {
				if _, err := tx.ExecContext(ctx, `INSERT INTO rows VALUES ('a', 1)`); err != nil {
					return err
				}
				return errors.New("second insert failed")
			},
			want: map[string]int64{},
			err:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := openDB(t)
			err := WithTx(context.Background(), db, nil, tt.fn)
			if tt.err {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, revisions(t, db))
		})
	}
}

func TestWithTx_RollsBackAndRethrowsPanic(t *testing.T) {
	db := openDB(t)

	require.PanicsWithValue(t, "kaput", func() {
		_ = WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
			_, _ = tx.ExecContext(ctx, `INSERT INTO rows VALUES ('a', 1)`)
			panic("kaput")
		})
	})
	assert.Empty(t, revisions(t, db))
}

func TestWithTx_BeginError(t *testing.T) {
	db := openDB(t)
	require.NoError(t, db.Close())

	called := false
	err := WithTx(context.Background(), db, nil, func(context.Context, DBTX) error {
		called = true
		return nil
	})
	require.Error(t, err)
	assert.False(t, called)
}

func TestExecAffected_CompareAndSwap(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()
	_, err := db.Exec(`INSERT INTO rows VALUES ('a', 3)`)
	require.NoError(t, err)

	bump := `UPDATE rows SET revision = revision + 1 WHERE id = ? AND revision = ?`

	n, err := ExecAffected(ctx, db, bump, "a", 3)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	n, err = ExecAffected(ctx, db, bump, "a", 3)
	require.NoError(t, err)
	assert.EqualValues(t, 0, n, "stale revision must not match")

	assert.Equal(t, map[string]int64{"a": 4}, revisions(t, db))
}

func TestExecAffected_Errors(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`UPDATE rows`).WillReturnError(errors.New("locked"))
	_, err = ExecAffected(context.Background(), db, `UPDATE rows SET revision = 1`)
	require.ErrorContains(t, err, "locked")

	mock.ExpectExec(`UPDATE rows`).WillReturnResult(sqlmock.NewErrorResult(errors.New("no count")))
	_, err = ExecAffected(context.Background(), db, `UPDATE rows SET revision = 1`)
	require.ErrorContains(t, err, "rows affected")

	require.NoError(t, mock.ExpectationsWereMet())
}
