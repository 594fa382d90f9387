package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsertArticleInsertsRow(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewArticleStoreWithPool(mock, "")
	require.NoError(t, err)

	a := Article{
		RunID:     "0191e5a4-run",
		Seq:       3,
		URL:       "https://news.example.com/article/3",
		Body:      "headline\nbody",
		BodyHash:  "5d41402abc4b2a76b9719d911017c592",
		FetchedAt: time.Unix(1700000000, 0).UTC(),
	}
	mock.ExpectExec("INSERT INTO articles").
		WithArgs(a.RunID, a.Seq, a.URL, a.Body, a.BodyHash, a.FetchedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, store.InsertArticle(context.Background(), a))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertArticleWrapsExecError(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewArticleStoreWithPool(mock, "daily_articles")
	require.NoError(t, err)

	boom := errors.New("connection reset")
	a := Article{RunID: "r", Seq: 1, URL: "https://news.example.com/1", Body: "b", BodyHash: "h", FetchedAt: time.Now()}
	mock.ExpectExec("INSERT INTO daily_articles").
		WithArgs(a.RunID, a.Seq, a.URL, a.Body, a.BodyHash, a.FetchedAt).
		WillReturnError(boom)

	err = store.InsertArticle(context.Background(), a)
	require.ErrorIs(t, err, boom)
	assert.ErrorContains(t, err, "insert article")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestArticleStoreValidation(t *testing.T) {
	t.Parallel()

	_, err := NewArticleStoreWithPool(nil, "")
	assert.EqualError(t, err, "pool is required")

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	_, err = NewArticleStoreWithPool(mock, "articles; drop table x")
	assert.ErrorContains(t, err, "invalid table name")

	_, err = NewArticleStore(context.Background(), Config{})
	assert.EqualError(t, err, "db.dsn is required")

	store, err := NewArticleStoreWithPool(mock, "articles")
	require.NoError(t, err)
	assert.EqualError(t, store.InsertArticle(context.Background(), Article{}), "run id is required")
}
