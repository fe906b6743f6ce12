// Package groupstate holds the id of the group ads are posted into.
//
// Units of work call Snapshot once when they start and pass the value down;
// a concurrent Set only affects units started after it returns.
package groupstate

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"

	"github.com/dmitrijs2005/swappy/internal/common"
	"github.com/dmitrijs2005/swappy/internal/server/store"
)

type Holder struct {
	values  store.ValueStore
	current atomic.Int64
}

// Load reads the persisted group id. A missing value yields a holder with
// group id 0.
func Load(ctx context.Context, values store.ValueStore) (*Holder, error) {
	h := &Holder{values: values}

	raw, err := values.Get(ctx, common.TargetGroupKey)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return h, nil
		}
		return nil, err
	}

	gid, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("bad %s value %q: %w", common.TargetGroupKey, raw, err)
	}
	h.current.Store(gid)
	return h, nil
}

func (h *Holder) Snapshot() int64 {
	return h.current.Load()
}

// Set persists gid and then publishes it. Nothing is published if the write
// fails.
func (h *Holder) Set(ctx context.Context, gid int64) error {
	if err := h.values.Set(ctx, common.TargetGroupKey, strconv.FormatInt(gid, 10)); err != nil {
		return err
	}
	h.current.Store(gid)
	return nil
}
