package store

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStoreMock(t *testing.T) (*PostgresStore, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "postgres")
	cleanup := func() {
		_ = sqlxDB.Close()
		db.Close()
	}
	return NewPostgresStore(sqlxDB), mock, cleanup
}

func TestReadTableHeadersFromDriver(t *testing.T) {
	s, mock, cleanup := newStoreMock(t)
	defer cleanup()

	rows := sqlmock.NewRows([]string{"id", "student_id", "status"}).
		AddRow("r-1", "stu-1", "CONFIRMED").
		AddRow("r-2", "stu-2", "WAITLISTED")

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM reservations ORDER BY 1")).
		WillReturnRows(rows)

	table, err := s.ReadTable(context.Background(), "reservations")
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "student_id", "status"}, table.Headers)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "stu-2", table.Cell(table.Rows[1], "student_id"))

	idx, ok := table.Column("status")
	require.True(t, ok)
	assert.Equal(t, 2, idx)
}

func TestReadTableRejectsBadIdentifier(t *testing.T) {
	s, _, cleanup := newStoreMock(t)
	defer cleanup()

	_, err := s.ReadTable(context.Background(), "reservations; DROP TABLE x")
	require.Error(t, err)
}

func TestAppendRow(t *testing.T) {
	s, mock, cleanup := newStoreMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO reservations (id, student_id, status) VALUES ($1, $2, $3)")).
		WithArgs("r-9", "stu-9", "CONFIRMED").
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := s.AppendRow(context.Background(), "reservations",
		[]string{"id", "student_id", "status"},
		[]string{"r-9", "stu-9", "CONFIRMED"})
	require.NoError(t, err)
}

func TestAppendRowShapeMismatch(t *testing.T) {
	s, _, cleanup := newStoreMock(t)
	defer cleanup()

	err := s.AppendRow(context.Background(), "reservations",
		[]string{"id", "status"}, []string{"r-9"})
	require.Error(t, err)
}

func TestWriteRowRequiresMatch(t *testing.T) {
	s, mock, cleanup := newStoreMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE reservations SET status = $1 WHERE id = $2")).
		WithArgs("CANCELED", "missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.WriteRow(context.Background(), "reservations", "id", "missing",
		[]string{"status"}, []string{"CANCELED"})
	require.Error(t, err)
}

func TestUpdateCell(t *testing.T) {
	s, mock, cleanup := newStoreMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE lessons SET status = $1 WHERE id = $2")).
		WithArgs("CANCELLED", "l-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := s.UpdateCell(context.Background(), "lessons", "id", "l-1", "status", "CANCELLED")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
