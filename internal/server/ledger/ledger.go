// Package ledger records reputation grants ("stars") between users.
//
// A grant is stored as SHA256(giver ‖ receiver ‖ salt) in the receiver's
// per-group set, so repeating a grant never changes the set and its
// cardinality is the number of distinct givers.
package ledger

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/dmitrijs2005/swappy/internal/common"
	"github.com/dmitrijs2005/swappy/internal/server/store"
	"golang.org/x/crypto/hkdf"
)

const saltInfo = "swappy star salt v1"

// Key returns the set key holding the stars of user in group.
func Key(group, user int64) string {
	return fmt.Sprintf("%d:%d:stars", group, user)
}

// Hash computes the grant record for an ordered (giver, receiver) pair.
// Ids are encoded as 8-byte big-endian unsigned integers.
func Hash(giver, receiver uint64, salt []byte) [sha256.Size]byte {
	var buf [16]byte
	binary.BigEndian.PutUint64(buf[:8], giver)
	binary.BigEndian.PutUint64(buf[8:], receiver)

	h := sha256.New()
	h.Write(buf[:])
	h.Write(salt)

	var out [sha256.Size]byte
	copy(out[:], h.Sum(nil))
	return out
}

// DeriveSalt expands a deployment master secret into a stable grant salt.
func DeriveSalt(master []byte) []byte {
	salt := make([]byte, 32)
	r := hkdf.New(sha256.New, master, nil, []byte(saltInfo))
	if _, err := io.ReadFull(r, salt); err != nil {
		// hkdf only fails past 255*HashLen bytes of output.
		panic(err)
	}
	return salt
}

type Ledger struct {
	sets store.SetStore
	salt []byte
}

func New(sets store.SetStore, salt []byte) *Ledger {
	return &Ledger{sets: sets, salt: salt}
}

// Grant records that giver gave receiver a star in the set at key. Repeated
// grants are no-ops. Self-grants are rejected with common.ErrSelfGrant before
// the store is touched.
func (l *Ledger) Grant(ctx context.Context, giver, receiver int64, key string) error {
	if giver == receiver {
		return common.ErrSelfGrant
	}

	h := Hash(uint64(giver), uint64(receiver), l.salt)
	return l.sets.Add(ctx, key, h[:])
}

// Count returns the number of distinct givers recorded at key.
func (l *Ledger) Count(ctx context.Context, key string) (int, error) {
	n, err := l.sets.Card(ctx, key)
	if err != nil {
		return 0, err
	}
	return int(n), nil
}
