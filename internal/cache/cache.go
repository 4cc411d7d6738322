// Package cache keeps each dashboard session's last good records and
// schedule view in an in-process ristretto cache.
package cache

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ErlanBelekov/agent-dashboard/internal/domain"
	"github.com/dgraph-io/ristretto/v2"
)

type Store struct {
	c   *ristretto.Cache[string, []byte]
	ttl time.Duration
}

// New creates a store bounded by maxCostBytes of encoded values. Entries
// expire after ttl; zero keeps them until evicted.
func New(maxCostBytes int64, ttl time.Duration) (*Store, error) {
	c, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters: maxCostBytes / 100 * 10, // ~10x expected items
		MaxCost:     maxCostBytes,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("create cache: %w", err)
	}
	return &Store{c: c, ttl: ttl}, nil
}

func RecordKey(sessionID string, kind domain.AgentKind) string {
	return "record:" + sessionID + ":" + string(kind)
}

func ScheduleKey(sessionID string) string {
	return "schedule:" + sessionID
}

// Load decodes the value stored under key. A missing or undecodable entry
// yields the zero value and false.
func Load[T any](s *Store, key string) (T, bool) {
	var v T
	b, ok := s.c.Get(key)
	if !ok {
		return v, false
	}
	if err := json.Unmarshal(b, &v); err != nil {
		var zero T
		return zero, false
	}
	return v, true
}

// ErrNotStored reports that the cache declined an entry, e.g. one larger
// than the whole cache or one refused by the admission policy.
var ErrNotStored = errors.New("cache entry not stored")

// Save encodes v under key. On success the write is visible to Load once
// Save returns; otherwise ErrNotStored is returned and an older entry under
// key may remain.
func Save[T any](s *Store, key string, v T) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}
	var accepted bool
	if s.ttl > 0 {
		accepted = s.c.SetWithTTL(key, b, int64(len(b)), s.ttl)
	} else {
		accepted = s.c.Set(key, b, int64(len(b)))
	}
	if !accepted {
		return fmt.Errorf("save %s: %w", key, ErrNotStored)
	}
	// admission runs asynchronously; Set accepting only means buffered
	s.c.Wait()
	if stored, ok := s.c.Get(key); !ok || !bytes.Equal(stored, b) {
		return fmt.Errorf("save %s: %w", key, ErrNotStored)
	}
	return nil
}

func (s *Store) Delete(key string) {
	s.c.Del(key)
}

func (s *Store) Close() {
	s.c.Close()
}
