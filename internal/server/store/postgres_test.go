package store

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/swappy/internal/common"
)

func newStoreWithMock(t *testing.T) (*PostgresStore, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresStore(db), mock, db
}

var storageErr = regexp.MustCompile(`storage error: \w+ .*db down`)

func TestPostgresAdd_Success(t *testing.T) {
	s, mock, db := newStoreWithMock(t)
	defer db.Close()

	q := `(?s)^\s*INSERT\s+INTO\s+set_members\s*\(set_key,\s*member\)\s*VALUES\s*\(\$1,\s*\$2\)\s*ON\s+CONFLICT\s+DO\s+NOTHING\s*$`
	mock.ExpectExec(q).
		WithArgs("-1:7:stars", []byte{1, 2, 3}).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := s.Add(context.Background(), "-1:7:stars", []byte{1, 2, 3}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresAdd_DBError(t *testing.T) {
	s, mock, db := newStoreWithMock(t)
	defer db.Close()

	mock.ExpectExec(`INSERT\s+INTO\s+set_members`).
		WillReturnError(errors.New("db down"))

	err := s.Add(context.Background(), "k", []byte("m"))
	if !errors.Is(err, common.ErrStorage) || !storageErr.MatchString(err.Error()) {
		t.Fatalf("expected wrapped storage error, got %v", err)
	}
}

func TestPostgresCard(t *testing.T) {
	s, mock, db := newStoreWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)SELECT\s+COUNT\(\*\)\s+FROM\s+set_members\s+WHERE\s+set_key\s*=\s*\$1`).
		WithArgs("k").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(3)))

	n, err := s.Card(context.Background(), "k")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 3 {
		t.Fatalf("want 3, got %d", n)
	}
}

func TestPostgresIsMember(t *testing.T) {
	s, mock, db := newStoreWithMock(t)
	defer db.Close()

	q := `(?s)SELECT\s+EXISTS\s*\(.*FROM\s+set_members\s+WHERE\s+set_key\s*=\s*\$1\s+AND\s+member\s*=\s*\$2`
	mock.ExpectQuery(q).
		WithArgs("k", []byte("42")).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(q).
		WithArgs("k", []byte("43")).
		WillReturnError(errors.New("db down"))

	ok, err := s.IsMember(context.Background(), "k", []byte("42"))
	if err != nil || !ok {
		t.Fatalf("want member, got ok=%v err=%v", ok, err)
	}

	_, err = s.IsMember(context.Background(), "k", []byte("43"))
	if !errors.Is(err, common.ErrStorage) {
		t.Fatalf("expected storage error, got %v", err)
	}
}

func TestPostgresRemove(t *testing.T) {
	s, mock, db := newStoreWithMock(t)
	defer db.Close()

	mock.ExpectExec(`(?s)DELETE\s+FROM\s+set_members\s+WHERE\s+set_key\s*=\s*\$1\s+AND\s+member\s*=\s*\$2`).
		WithArgs("k", []byte("1")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := s.Remove(context.Background(), "k", []byte("1")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPostgresGet(t *testing.T) {
	s, mock, db := newStoreWithMock(t)
	defer db.Close()

	q := `(?s)SELECT\s+value\s+FROM\s+kv\s+WHERE\s+key\s*=\s*\$1`
	mock.ExpectQuery(q).
		WithArgs(common.TargetGroupKey).
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow("-100"))
	mock.ExpectQuery(q).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	v, err := s.Get(context.Background(), common.TargetGroupKey)
	if err != nil || v != "-100" {
		t.Fatalf("got %q, %v", v, err)
	}

	_, err = s.Get(context.Background(), "missing")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestPostgresSet(t *testing.T) {
	s, mock, db := newStoreWithMock(t)
	defer db.Close()

	mock.ExpectExec(`(?s)INSERT\s+INTO\s+kv.*ON\s+CONFLICT\s+\(key\)\s+DO\s+UPDATE`).
		WithArgs(common.TargetGroupKey, "-100").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT\s+INTO\s+kv`).
		WillReturnError(errors.New("db down"))

	if err := s.Set(context.Background(), common.TargetGroupKey, "-100"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.Set(context.Background(), "x", "y"); !errors.Is(err, common.ErrStorage) {
		t.Fatalf("expected storage error, got %v", err)
	}
}
