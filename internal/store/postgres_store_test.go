package store

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const loadQuery = `SELECT response FROM "survey_responses" ORDER BY id`

func TestPostgresStore_LoadResponses(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"response"}).
		AddRow([]byte(`{"age":"35","member":"Contractor"}`)).
		AddRow(nil).
		AddRow([]byte(`{"age":40}`))
	mock.ExpectQuery(loadQuery).WillReturnRows(rows)

	s := NewPostgresStore(db, "survey_responses")
	items, err := s.LoadResponses(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Contractor", items[0]["member"])
	assert.Equal(t, float64(40), items[1]["age"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_LoadDataset(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(loadQuery).WillReturnRows(sqlmock.NewRows([]string{"response"}).AddRow([]byte(`{"a":1}`)))

	ds, err := NewPostgresStore(db, "survey_responses").LoadDataset(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, ds.Len())
}

func TestPostgresStore_QuotesTableName(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT response FROM "weird""name" ORDER BY id`).
		WillReturnRows(sqlmock.NewRows([]string{"response"}))

	items, err := NewPostgresStore(db, `weird"name`).LoadResponses(context.Background())
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Errors(t *testing.T) {
	t.Run("query error", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(loadQuery).WillReturnError(errors.New("relation does not exist"))
		_, err = NewPostgresStore(db, "survey_responses").LoadResponses(context.Background())
		assert.ErrorContains(t, err, "relation does not exist")
	})

	t.Run("invalid document", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(loadQuery).WillReturnRows(sqlmock.NewRows([]string{"response"}).AddRow([]byte(`[1,2]`)))
		_, err = NewPostgresStore(db, "survey_responses").LoadResponses(context.Background())
		assert.ErrorContains(t, err, "decode row 1")
	})

	t.Run("empty table name", func(t *testing.T) {
		_, err := NewPostgresStore(nil, " ").LoadResponses(context.Background())
		assert.Error(t, err)
	})
}
