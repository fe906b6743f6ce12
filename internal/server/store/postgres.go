package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/swappy/internal/common"
	"github.com/dmitrijs2005/swappy/internal/dbx"
	"github.com/dmitrijs2005/swappy/internal/server/migrations"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// PostgresStore emulates sets with a (set_key, member) primary key, so adds
// stay idempotent under concurrent writers.
type PostgresStore struct {
	db   dbx.DBTX
	conn *sql.DB
}

// NewPostgresStore binds the store to db. Migrations are not run.
func NewPostgresStore(db dbx.DBTX) *PostgresStore {
	s := &PostgresStore{db: db}
	if conn, ok := db.(*sql.DB); ok {
		s.conn = conn
	}
	return s
}

// OpenPostgres opens dsn with the pgx driver and applies pending migrations.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}

	return NewPostgresStore(db), nil
}

// RunMigrations applies the embedded goose migrations.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, ".")
}

func (s *PostgresStore) Add(ctx context.Context, key string, member []byte) error {
	query := `
		INSERT INTO set_members (set_key, member)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`
	if _, err := s.db.ExecContext(ctx, query, key, member); err != nil {
		return wrap("sadd", key, err)
	}
	return nil
}

func (s *PostgresStore) Card(ctx context.Context, key string) (int64, error) {
	query := `
		SELECT COUNT(*)
		FROM set_members
		WHERE set_key = $1
	`
	var n int64
	if err := s.db.QueryRowContext(ctx, query, key).Scan(&n); err != nil {
		return 0, wrap("scard", key, err)
	}
	return n, nil
}

func (s *PostgresStore) IsMember(ctx context.Context, key string, member []byte) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM set_members WHERE set_key = $1 AND member = $2
		)
	`
	var ok bool
	if err := s.db.QueryRowContext(ctx, query, key, member).Scan(&ok); err != nil {
		return false, wrap("sismember", key, err)
	}
	return ok, nil
}

func (s *PostgresStore) Remove(ctx context.Context, key string, member []byte) error {
	query := `
		DELETE FROM set_members
		WHERE set_key = $1 AND member = $2
	`
	if _, err := s.db.ExecContext(ctx, query, key, member); err != nil {
		return wrap("srem", key, err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, key string) (string, error) {
	query := `
		SELECT value
		FROM kv
		WHERE key = $1
	`
	var v string
	if err := s.db.QueryRowContext(ctx, query, key).Scan(&v); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", common.ErrorNotFound
		}
		return "", wrap("get", key, err)
	}
	return v, nil
}

func (s *PostgresStore) Set(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO kv (key, value)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()
	`
	if _, err := s.db.ExecContext(ctx, query, key, value); err != nil {
		return wrap("set", key, err)
	}
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	if s.conn == nil {
		return nil
	}
	if err := s.conn.PingContext(ctx); err != nil {
		return wrap("ping", "", err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}
