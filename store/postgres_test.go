package store

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPostgresWithMock(t *testing.T) (*Postgres[testDoc], sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	p, err := NewPostgres[testDoc](db, "notes")
	require.NoError(t, err)
	return p, mock
}

func TestNewPostgresRejectsBadTable(t *testing.T) {
	_, err := NewPostgres[testDoc](nil, `notes"; DROP TABLE users; --`)
	assert.Error(t, err)
}

func TestPostgresInsert(t *testing.T) {
	p, mock := newPostgresWithMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "notes" (body) VALUES ($1::jsonb) RETURNING pk`)).
		WithArgs(`{"id":"n1","user_id":"alice","title":"A"}`).
		WillReturnRows(sqlmock.NewRows([]string{"pk"}).AddRow(int64(7)))

	key, err := p.Insert(context.Background(), testDoc{ID: "n1", Owner: "alice", Title: "A"})
	require.NoError(t, err)
	assert.Equal(t, Key("7"), key)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresInsertDuplicate(t *testing.T) {
	p, mock := newPostgresWithMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "notes"`)).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "users_email_key"})

	_, err := p.Insert(context.Background(), testDoc{ID: "u1", Email: "a@example.com"})
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresFindOneScoped(t *testing.T) {
	p, mock := newPostgresWithMock(t)

	q := regexp.QuoteMeta(`SELECT body FROM "notes" WHERE body->>'id' = $1 AND body->>'user_id' = $2 ORDER BY pk LIMIT 1`)
	mock.ExpectQuery(q).
		WithArgs("n1", "alice").
		WillReturnRows(sqlmock.NewRows([]string{"body"}).AddRow([]byte(`{"id":"n1","user_id":"alice","title":"A"}`)))
	mock.ExpectQuery(q).
		WithArgs("n1", "bob").
		WillReturnError(sql.ErrNoRows)

	got, err := p.FindOne(context.Background(), Filter{"user_id": "alice", "id": "n1"})
	require.NoError(t, err)
	assert.Equal(t, testDoc{ID: "n1", Owner: "alice", Title: "A"}, got)

	_, err = p.FindOne(context.Background(), Filter{"user_id": "bob", "id": "n1"})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresFind(t *testing.T) {
	p, mock := newPostgresWithMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT body FROM "notes" WHERE body->>'user_id' = $1 ORDER BY pk`)).
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"body"}).
			AddRow([]byte(`{"id":"n1","user_id":"alice","title":"A"}`)).
			AddRow([]byte(`{"id":"n2","user_id":"alice","title":"B"}`)))

	got, err := p.Find(context.Background(), Filter{"user_id": "alice"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "n2", got[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresFindEmpty(t *testing.T) {
	p, mock := newPostgresWithMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT body FROM "notes" WHERE body->>'user_id' = $1 ORDER BY pk`)).
		WithArgs("carol").
		WillReturnRows(sqlmock.NewRows([]string{"body"}))

	got, err := p.Find(context.Background(), Filter{"user_id": "carol"})
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestPostgresUpdateOne(t *testing.T) {
	p, mock := newPostgresWithMock(t)

	q := regexp.QuoteMeta(`UPDATE "notes" SET body = body || $1::jsonb WHERE pk = (SELECT pk FROM "notes" WHERE body->>'id' = $2 AND body->>'user_id' = $3 ORDER BY pk LIMIT 1 FOR UPDATE) RETURNING body`)
	mock.ExpectQuery(q).
		WithArgs(`{"title":"B"}`, "n1", "alice").
		WillReturnRows(sqlmock.NewRows([]string{"body"}).AddRow([]byte(`{"id":"n1","user_id":"alice","title":"B"}`)))
	mock.ExpectQuery(q).
		WithArgs(`{"title":"B"}`, "n1", "bob").
		WillReturnError(sql.ErrNoRows)

	got, err := p.UpdateOne(context.Background(), Filter{"id": "n1", "user_id": "alice"}, Fields{"title": "B"})
	require.NoError(t, err)
	assert.Equal(t, "B", got.Title)

	_, err = p.UpdateOne(context.Background(), Filter{"id": "n1", "user_id": "bob"}, Fields{"title": "B"})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresDeleteOne(t *testing.T) {
	p, mock := newPostgresWithMock(t)

	q := regexp.QuoteMeta(`DELETE FROM "notes" WHERE pk = (SELECT pk FROM "notes" WHERE body->>'id' = $1 AND body->>'user_id' = $2 ORDER BY pk LIMIT 1 FOR UPDATE)`)
	mock.ExpectExec(q).WithArgs("n1", "alice").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q).WithArgs("n1", "alice").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(q).WithArgs("n2", "alice").WillReturnError(errors.New("connection reset"))

	f := Filter{"id": "n1", "user_id": "alice"}
	require.NoError(t, p.DeleteOne(context.Background(), f))
	assert.ErrorIs(t, p.DeleteOne(context.Background(), f), ErrNotFound)

	err := p.DeleteOne(context.Background(), Filter{"id": "n2", "user_id": "alice"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
