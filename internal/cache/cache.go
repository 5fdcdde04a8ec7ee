// Package cache is a two-tier key/value store shared by transport results
// and derived records: a bounded in-memory LRU in front of a durable badger
// store. Entries carry an absolute expiry computed from their namespace's
// TTL policy at write time.
package cache

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/PuerkitoBio/purell"
	"github.com/dgraph-io/badger/v4"
)

// Namespace groups entries that share a TTL policy.
type Namespace string

const (
	NSCovers   Namespace = "covers"
	NSDetails  Namespace = "details"
	NSChapters Namespace = "chapters"
	NSCatalog  Namespace = "catalog"
)

// Namespaces lists every known namespace, for cache admin commands.
func Namespaces() []Namespace {
	return []Namespace{NSCovers, NSDetails, NSChapters, NSCatalog}
}

var defaultTTL = map[Namespace]time.Duration{
	NSCovers:   6 * time.Hour,
	NSDetails:  6 * time.Hour,
	NSChapters: 24 * time.Hour,
	NSCatalog:  24 * time.Hour,
}

const defaultCapacity = 100

// Clock is injectable for TTL boundary tests.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

type Options struct {
	// Dir is the badger directory. Empty means an in-memory badger store
	// (used by tests).
	Dir string

	// Capacity bounds each namespace's memory tier.
	Capacity int

	Clock Clock
}

type Cache struct {
	db    *badger.DB
	clock Clock
	cap   int

	mu   sync.Mutex
	mem  map[Namespace]*memoryLRU
	ttls map[Namespace]time.Duration
}

func Open(opts Options) (*Cache, error) {
	bopts := badger.DefaultOptions(opts.Dir).WithLogger(nil)
	if opts.Dir == "" {
		bopts = bopts.WithInMemory(true)
	}

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("open cache store: %w", err)
	}

	capacity := opts.Capacity
	if capacity == 0 {
		capacity = defaultCapacity
	}
	clock := opts.Clock
	if clock == nil {
		clock = realClock{}
	}

	ttls := make(map[Namespace]time.Duration, len(defaultTTL))
	for ns, ttl := range defaultTTL {
		ttls[ns] = ttl
	}

	return &Cache{
		db:    db,
		clock: clock,
		cap:   capacity,
		mem:   make(map[Namespace]*memoryLRU),
		ttls:  ttls,
	}, nil
}

func (c *Cache) Close() error { return c.db.Close() }

// persisted is the durable representation of an entry.
type persisted struct {
	Value     []byte
	CachedAt  int64
	ExpiresAt int64 // unix seconds, 0 => no expiry
}

func storeKey(ns Namespace, key string) []byte {
	return []byte(string(ns) + ":" + key)
}

// NormalizeKey canonicalizes a URL-shaped key so the same logical page
// cached via slightly different URLs hits one entry.
func NormalizeKey(rawurl string) string {
	u, err := url.Parse(rawurl)
	if err != nil {
		return rawurl
	}
	return purell.NormalizeURL(u,
		purell.FlagsSafe|
			purell.FlagsUsuallySafeNonGreedy|
			purell.FlagRemoveDirectoryIndex|
			purell.FlagRemoveFragment|
			purell.FlagSortQuery)
}

func (c *Cache) tier(ns Namespace) *memoryLRU {
	m, ok := c.mem[ns]
	if !ok {
		m = newMemoryLRU(c.cap)
		c.mem[ns] = m
	}
	return m
}

// Get reads memory first, then the persistent tier. A persistent hit is
// promoted into memory. Expired entries are treated as absent and purged
// lazily.
func (c *Cache) Get(ns Namespace, key string) ([]byte, bool) {
	now := c.clock.Now()

	c.mu.Lock()
	val, ok := c.tier(ns).get(key, now)
	c.mu.Unlock()
	if ok {
		return val, true
	}

	p, ok := c.getPersisted(ns, key, now)
	if !ok {
		return nil, false
	}

	c.mu.Lock()
	c.tier(ns).set(key, p.Value, expiryTime(p.ExpiresAt))
	c.mu.Unlock()

	return p.Value, true
}

func expiryTime(unix int64) time.Time {
	if unix == 0 {
		return time.Time{}
	}
	return time.Unix(unix, 0)
}

func (c *Cache) getPersisted(ns Namespace, key string, now time.Time) (persisted, bool) {
	var p persisted
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(storeKey(ns, key))
		if err != nil {
			return err
		}
		raw, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		return gob.NewDecoder(bytes.NewReader(raw)).Decode(&p)
	})
	if err != nil {
		return persisted{}, false
	}

	if p.ExpiresAt != 0 && now.Unix() >= p.ExpiresAt {
		_ = c.db.Update(func(txn *badger.Txn) error {
			return txn.Delete(storeKey(ns, key))
		})
		return persisted{}, false
	}

	return p, true
}

// Set writes both tiers, stamping the entry with the namespace TTL.
func (c *Cache) Set(ns Namespace, key string, value []byte) error {
	return c.SetTTL(ns, key, value, c.ttlFor(ns))
}

// SetTTL writes both tiers with an explicit TTL. A zero TTL means the entry
// never expires.
func (c *Cache) SetTTL(ns Namespace, key string, value []byte, ttl time.Duration) error {
	now := c.clock.Now()

	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = now.Add(ttl)
	}

	c.mu.Lock()
	c.tier(ns).set(key, value, expiresAt)
	c.mu.Unlock()

	p := persisted{Value: value, CachedAt: now.Unix()}
	if !expiresAt.IsZero() {
		p.ExpiresAt = expiresAt.Unix()
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(p); err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}

	err := c.db.Update(func(txn *badger.Txn) error {
		return txn.Set(storeKey(ns, key), buf.Bytes())
	})
	if err != nil {
		return fmt.Errorf("persist cache entry: %w", err)
	}
	return nil
}

func (c *Cache) ttlFor(ns Namespace) time.Duration {
	if ttl, ok := c.ttls[ns]; ok {
		return ttl
	}
	return 24 * time.Hour
}

func (c *Cache) Delete(ns Namespace, key string) error {
	c.mu.Lock()
	c.tier(ns).delete(key)
	c.mu.Unlock()

	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(storeKey(ns, key))
	})
}

// ClearNamespace drops every entry in the namespace from both tiers.
func (c *Cache) ClearNamespace(ns Namespace) error {
	c.mu.Lock()
	delete(c.mem, ns)
	c.mu.Unlock()

	if err := c.db.DropPrefix([]byte(string(ns) + ":")); err != nil {
		return fmt.Errorf("clear namespace %s: %w", ns, err)
	}
	return nil
}

// Reset wipes the whole cache.
func (c *Cache) Reset() error {
	c.mu.Lock()
	c.mem = make(map[Namespace]*memoryLRU)
	c.mu.Unlock()

	if err := c.db.DropAll(); err != nil {
		return fmt.Errorf("reset cache: %w", err)
	}
	return nil
}

// MemoryLen reports the memory-tier size of a namespace, for tests and
// diagnostics.
func (c *Cache) MemoryLen(ns Namespace) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if m, ok := c.mem[ns]; ok {
		return m.len()
	}
	return 0
}
