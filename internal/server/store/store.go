// Package store is the remote set/value store behind the reputation ledger,
// ad ownership records and the target group setting.
//
// Every operation is atomic for its single key; there are no cross-key
// transactions. Failures are wrapped with common.ErrStorage.
package store

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/swappy/internal/common"
)

// SetStore holds named sets of opaque members. Adding an existing member and
// removing a missing one are both no-ops.
type SetStore interface {
	Add(ctx context.Context, key string, member []byte) error
	Card(ctx context.Context, key string) (int64, error)
	IsMember(ctx context.Context, key string, member []byte) (bool, error)
	Remove(ctx context.Context, key string, member []byte) error
}

// ValueStore holds single string values. Get returns common.ErrorNotFound for
// a missing key.
type ValueStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

// Store is a complete backend.
type Store interface {
	SetStore
	ValueStore
	Ping(ctx context.Context) error
	Close() error
}

// Backend names accepted by Open.
const (
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Open connects to the backend named by kind. dsn is a redis:// URL for
// Redis and a Postgres DSN for Postgres; it is ignored for memory.
func Open(ctx context.Context, kind, dsn string) (Store, error) {
	switch kind {
	case BackendRedis:
		return OpenRedis(ctx, dsn)
	case BackendPostgres:
		return OpenPostgres(ctx, dsn)
	case BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", kind)
	}
}

func wrap(op, key string, err error) error {
	return fmt.Errorf("%w: %s %s: %w", common.ErrStorage, op, key, err)
}
