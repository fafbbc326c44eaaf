// Package mirror copies saved world collections into Redis so external
// tools can read builder changes without parsing area files.
package mirror

import (
	"context"
	"fmt"
	"time"

	backend "github.com/redis/go-redis/v9"

	"LumenForge/internal/game"
)

// DefaultPrefix is used when no prefix option is given.
const DefaultPrefix = "lumenforge:olc:"

// Store implements game.Mirror using Redis.
type Store struct {
	client  *backend.Client
	prefix  string
	timeout time.Duration
}

type Option func(*Store)

// WithPrefix sets the key prefix for mirrored collections.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// WithTimeout bounds each mirror write.
func WithTimeout(d time.Duration) Option {
	return func(s *Store) {
		s.timeout = d
	}
}

// New creates a Redis mirror connected to address.
func New(address string, opts ...Option) *Store {
	return NewFromClient(backend.NewClient(&backend.Options{Addr: address}), opts...)
}

// NewFromClient creates a Redis mirror from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client:  client,
		prefix:  DefaultPrefix,
		timeout: 2 * time.Second,
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

func (s *Store) key(kind game.EntityKind) string {
	return s.prefix + string(kind)
}

func (s *Store) indexKey() string {
	return s.prefix + "kinds"
}

// MirrorCollection stores the JSON snapshot of kind and records the save
// time in the kind index.
func (s *Store) MirrorCollection(kind game.EntityKind, data []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.key(kind), data, 0)
	pipe.ZAdd(ctx, s.indexKey(), backend.Z{
		Score:  float64(time.Now().Unix()),
		Member: string(kind),
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("mirror %s to redis: %w", kind, err)
	}
	return nil
}

// Snapshot returns the last mirrored collection for kind.
func (s *Store) Snapshot(ctx context.Context, kind game.EntityKind) ([]byte, error) {
	val, err := s.client.Get(ctx, s.key(kind)).Bytes()
	if err != nil {
		if err == backend.Nil {
			return nil, fmt.Errorf("%s: %w", kind, ErrNotMirrored)
		}
		return nil, fmt.Errorf("read %s from redis: %w", kind, err)
	}
	return val, nil
}

// Kinds lists mirrored kinds, most recently saved last.
func (s *Store) Kinds(ctx context.Context) ([]string, error) {
	return s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
}

// Close releases the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}
