package records

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/keepsync/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresRepository(db), mock, db
}

var upsertQuery = regexp.MustCompile(`INSERT INTO records .* ON CONFLICT \(collection, client_id\) DO UPDATE SET .* RETURNING server_id`).String()

func TestUpsert_NewRecordKeepsGivenID(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)

	mock.ExpectQuery(upsertQuery).
		WithArgs("s1", "tags", "c1", `{"name":"go"}`, false, int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"server_id"}).AddRow("s1"))

	rec := &models.Record{ServerID: "s1", Collection: "tags", ClientID: "c1", Payload: []byte(`{"name":"go"}`), ServerTime: 10}
	require.NoError(t, repo.Upsert(context.Background(), rec))
	assert.Equal(t, "s1", rec.ServerID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsert_ExistingRecordReturnsStoredID(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)

	mock.ExpectQuery(upsertQuery).
		WithArgs("fresh", "tags", "c1", nil, true, int64(11)).
		WillReturnRows(sqlmock.NewRows([]string{"server_id"}).AddRow("original"))

	rec := &models.Record{ServerID: "fresh", Collection: "tags", ClientID: "c1", Deleted: true, ServerTime: 11}
	require.NoError(t, repo.Upsert(context.Background(), rec))
	assert.Equal(t, "original", rec.ServerID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsert_DBError(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)

	mock.ExpectQuery(upsertQuery).WillReturnError(errors.New("db is down"))

	err := repo.Upsert(context.Background(), &models.Record{ServerID: "s1", Collection: "tags", ClientID: "c1"})
	require.Error(t, err)
	assert.Regexp(t, `db error: .*db is down`, err.Error())
}

func TestSelectSince_ScansRows(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)

	rows := sqlmock.NewRows([]string{"server_id", "collection", "client_id", "payload", "deleted", "server_time"}).
		AddRow("s1", "tags", "c1", []byte(`{"name":"a"}`), false, int64(5)).
		AddRow("s2", "tags", "c2", nil, true, int64(7))
	mock.ExpectQuery(`SELECT server_id, collection, client_id, payload, deleted, server_time FROM records\s+WHERE collection = \$1 AND server_time > \$2\s+ORDER BY server_time\s+LIMIT \$3`).
		WithArgs("tags", int64(4), 10).
		WillReturnRows(rows)

	got, err := repo.SelectSince(context.Background(), "tags", 4, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, &models.Record{ServerID: "s1", Collection: "tags", ClientID: "c1", Payload: []byte(`{"name":"a"}`), ServerTime: 5}, got[0])
	assert.True(t, got[1].Deleted)
	assert.Nil(t, got[1].Payload)
	assert.Equal(t, int64(7), got[1].ServerTime)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSelectSince_QueryError(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)

	mock.ExpectQuery(`SELECT .* FROM records`).WillReturnError(errors.New("boom"))

	_, err := repo.SelectSince(context.Background(), "tags", 0, 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to select records")
}

func TestSelectSince_ScanError(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)

	rows := sqlmock.NewRows([]string{"server_id"}).AddRow("s1")
	mock.ExpectQuery(`SELECT .* FROM records`).WillReturnRows(rows)

	_, err := repo.SelectSince(context.Background(), "tags", 0, 10)
	require.Error(t, err)
}

func TestSelectSince_RowsError(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)

	rows := sqlmock.NewRows([]string{"server_id", "collection", "client_id", "payload", "deleted", "server_time"}).
		AddRow("s1", "tags", "c1", nil, false, int64(1)).
		RowError(0, errors.New("row broke"))
	mock.ExpectQuery(`SELECT .* FROM records`).WillReturnRows(rows)

	_, err := repo.SelectSince(context.Background(), "tags", 0, 10)
	require.Error(t, err)
}

func TestMaxServerTime(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)

	mock.ExpectQuery(`SELECT COALESCE\(MAX\(server_time\), 0\) FROM records`).
		WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(int64(42)))

	got, err := repo.MaxServerTime(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(42), got)
}

func TestMaxServerTime_Error(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)

	mock.ExpectQuery(`SELECT COALESCE`).WillReturnError(errors.New("boom"))

	_, err := repo.MaxServerTime(context.Background())
	require.Error(t, err)
}
