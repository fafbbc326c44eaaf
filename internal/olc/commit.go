package olc

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"LumenForge/internal/game"
)

// Store is the canonical world store.
type Store interface {
	Get(kind Kind, key string) (any, bool)
	Put(kind Kind, key string, value any) error
	Remove(kind Kind, key string) error
}

// Transactor runs fn with exclusive access to the store.
type Transactor interface {
	Atomically(fn func(store game.LockedStore) error) error
}

// Persister writes a kind's collection to durable storage.
type Persister interface {
	SaveKind(kind Kind) error
}

// CommitMode reports how a commit changed the store.
type CommitMode string

const (
	CommitUpdated  CommitMode = "updated"
	CommitInserted CommitMode = "inserted"
)

// CommitResult describes a successful commit.
type CommitResult struct {
	Kind Kind
	Key  string
	Mode CommitMode
	// SaveErr is set when the durable save after the commit failed. The
	// in-memory world already holds the new value.
	SaveErr error
}

// Committer applies finished root sessions to the store.
type Committer struct {
	kinds   *Registry
	store   Store
	logger  *zap.Logger
	metrics *Metrics
}

// CommitOption customises a Committer.
type CommitOption func(*Committer)

// WithCommitLogger routes commit logs to logger.
func WithCommitLogger(logger *zap.Logger) CommitOption {
	return func(c *Committer) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithCommitMetrics records commits in m.
func WithCommitMetrics(m *Metrics) CommitOption {
	return func(c *Committer) {
		c.metrics = m
	}
}

func NewCommitter(kinds *Registry, store Store, opts ...CommitOption) *Committer {
	c := &Committer{kinds: kinds, store: store, logger: zap.NewNop()}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Commit writes value into the store under its identity. An existing
// entity is updated in place so references held elsewhere stay valid;
// otherwise a clone of value is inserted. Kinds without store backing are
// logged and left alone.
func (c *Committer) Commit(kind Kind, value any) (CommitResult, error) {
	started := time.Now()
	info, err := c.kinds.Lookup(kind)
	if err != nil || !info.Stored() {
		c.logger.Error("commit for kind without store backing", zap.String("kind", string(kind)))
		return CommitResult{}, fmt.Errorf("commit %s: %w", kind, ErrNoBacking)
	}
	key := strings.TrimSpace(info.Identity(value))
	if key == "" {
		c.logger.Error("commit for value without identity", zap.String("kind", string(kind)))
		return CommitResult{}, fmt.Errorf("commit %s: %w", kind, ErrNoIdentity)
	}

	result := CommitResult{Kind: kind, Key: key}
	apply := func(store Store) error {
		if existing, ok := store.Get(kind, key); ok {
			result.Mode = CommitUpdated
			if err := info.Ops.CopyInto(existing, value); err != nil {
				return err
			}
			// Re-storing the same pointer marks the entity as builder-owned.
			return store.Put(kind, key, existing)
		}
		result.Mode = CommitInserted
		return store.Put(kind, key, info.Ops.Clone(value))
	}
	if tx, ok := c.store.(Transactor); ok {
		err = tx.Atomically(func(store game.LockedStore) error { return apply(store) })
	} else {
		err = apply(c.store)
	}
	if err != nil {
		if errors.Is(err, game.ErrUnknownKind) {
			c.logger.Error("commit for kind without store backing", zap.String("kind", string(kind)), zap.Error(err))
			return CommitResult{}, fmt.Errorf("commit %s: %w", kind, ErrNoBacking)
		}
		c.logger.Error("commit failed", zap.String("kind", string(kind)), zap.String("key", key), zap.Error(err))
		return CommitResult{}, fmt.Errorf("commit %s %s: %w", kind, key, err)
	}
	c.metrics.commit(kind, result.Mode, time.Since(started))
	c.logger.Info("committed", zap.String("kind", string(kind)), zap.String("key", key), zap.String("mode", string(result.Mode)))

	if c.kinds.Autosave(kind) {
		if persister, ok := c.store.(Persister); ok {
			if err := persister.SaveKind(kind); err != nil {
				c.logger.Warn("autosave failed", zap.String("kind", string(kind)), zap.Error(err))
				result.SaveErr = err
			}
		}
	}
	return result, nil
}
