// Package sessioncache keeps short lived sso tokens in memory so the login
// handshake is not repeated on every fetch.
package sessioncache

import (
	"context"
	"sync"
	"time"
	"timetable-backend/internal/components/assert"
	"timetable-backend/internal/components/chrono"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// DefaultTTL is slightly below the lifetime of an sso token.
const DefaultTTL = 55 * time.Minute

const DefaultSize = 2048

type entry struct {
	token     string
	expiresAt time.Time
}

// Cache maps an identity to its token. Entries expire lazily: an expired entry is
// removed by the Get that finds it. When more than size identities are cached the
// least recently used one is dropped.
//
// Tokens never leave the process.
type Cache struct {
	mutex   sync.Mutex
	entries *lru.Cache[string, entry]
	clock   chrono.API
	renewal singleflight.Group
}

func New(size int, clock chrono.API) (*Cache, error) {
	assert.NotNil(clock)
	if size <= 0 {
		size = DefaultSize
	}
	entries, err := lru.New[string, entry](size)
	if err != nil {
		return nil, err
	}
	return &Cache{
		entries: entries,
		clock:   clock,
	}, nil
}

// Put stores the token for identity, replacing any previous one. A ttl <= 0
// stores an entry that is already expired.
func (c *Cache) Put(identity, token string, ttl time.Duration) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.entries.Add(identity, entry{
		token:     token,
		expiresAt: c.clock.Now().Add(ttl),
	})
}

// Get returns the token of identity if there is one that has not expired yet.
func (c *Cache) Get(identity string) (string, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	e, ok := c.entries.Get(identity)
	if !ok {
		return "", false
	}
	if !c.clock.Now().Before(e.expiresAt) {
		c.entries.Remove(identity)
		return "", false
	}
	return e.token, true
}

// Evict forgets the token of identity, used on logout or when upstream rejected it.
func (c *Cache) Evict(identity string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.entries.Remove(identity)
}

// Len is the number of entries, including expired ones not yet evicted.
func (c *Cache) Len() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.entries.Len()
}

// GetOrRenew returns the cached token of identity, when there is none renew is
// called and its token is cached for ttl. Concurrent renewals of the same
// identity share a single call to renew, the lock is not held while it runs.
//
// renew is shared by every waiting caller so it does not see the cancellation
// of the caller that started it, it must bound itself with its own timeouts.
func (c *Cache) GetOrRenew(
	ctx context.Context,
	identity string,
	ttl time.Duration,
	renew func(ctx context.Context) (string, error),
) (string, error) {
	if token, ok := c.Get(identity); ok {
		return token, nil
	}

	shared := context.WithoutCancel(ctx)
	res, err, _ := c.renewal.Do(identity, func() (any, error) {
		// a renewal that finished between the miss above and this call already
		// cached a token
		if token, ok := c.Get(identity); ok {
			return token, nil
		}
		token, err := renew(shared)
		if err != nil {
			return "", err
		}
		c.Put(identity, token, ttl)
		return token, nil
	})
	if err != nil {
		return "", err
	}
	return res.(string), nil
}
