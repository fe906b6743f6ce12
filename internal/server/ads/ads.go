// Package ads records which user authored which ad posted into a group.
package ads

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/swappy/internal/server/store"
)

// RetentionPolicy decides what happens to an ownership record once its ad is
// taken down.
type RetentionPolicy int

const (
	// RetainForever keeps records after the ad is deleted.
	RetainForever RetentionPolicy = iota
	// RetractOnDelete drops the record together with the ad.
	RetractOnDelete
)

func (p RetentionPolicy) String() string {
	switch p {
	case RetainForever:
		return "retain"
	case RetractOnDelete:
		return "retract"
	default:
		return fmt.Sprintf("RetentionPolicy(%d)", int(p))
	}
}

// ParseRetentionPolicy accepts "retain" (or "") and "retract".
func ParseRetentionPolicy(s string) (RetentionPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "retain":
		return RetainForever, nil
	case "retract":
		return RetractOnDelete, nil
	default:
		return RetainForever, fmt.Errorf("unknown ad retention policy %q", s)
	}
}

// Key returns the set key holding the ads user authored in group.
func Key(group, user int64) string {
	return fmt.Sprintf("%d:%d:ads", group, user)
}

func member(messageID int) []byte {
	return []byte(strconv.Itoa(messageID))
}

type Store struct {
	sets   store.SetStore
	policy RetentionPolicy
}

func New(sets store.SetStore, policy RetentionPolicy) *Store {
	return &Store{sets: sets, policy: policy}
}

func (s *Store) Policy() RetentionPolicy {
	return s.policy
}

// RecordAuthor marks user as the author of messageID in group.
func (s *Store) RecordAuthor(ctx context.Context, group, user int64, messageID int) error {
	return s.sets.Add(ctx, Key(group, user), member(messageID))
}

// IsAuthor reports whether RecordAuthor was called for exactly this triple
// and the record has not been retracted since.
func (s *Store) IsAuthor(ctx context.Context, group, user int64, messageID int) (bool, error) {
	return s.sets.IsMember(ctx, Key(group, user), member(messageID))
}

// Forget retracts the record under RetractOnDelete and does nothing under
// RetainForever.
func (s *Store) Forget(ctx context.Context, group, user int64, messageID int) error {
	if s.policy != RetractOnDelete {
		return nil
	}
	return s.sets.Remove(ctx, Key(group, user), member(messageID))
}
