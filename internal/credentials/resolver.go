package credentials

import (
	"errors"
	"net/http"
	"regexp"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/modelgateway/azure-openai-proxy/internal/config"
)

// SlotAzure is the only credential slot currently in use.
const SlotAzure = "azure"

// DefaultTTL is how long a resolved credential is reused without
// re-validation.
const DefaultTTL = 5 * time.Minute

// ErrMissingCredential is returned when no usable key is found in the
// environment or the request headers.
var ErrMissingCredential = errors.New("no usable credential found")

type entry struct {
	key      string
	storedAt time.Time
}

// Cache stores validated credentials per slot with a TTL. Entries are evicted
// lazily on the next lookup after they expire. Concurrent writers to the same
// slot race benignly: every write stores an already-validated key, so the
// last writer wins and a lost update only costs a redundant future
// validation.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry
	ttl     time.Duration
	now     func() time.Time
}

// NewCache creates a credential cache. A non-positive ttl falls back to
// DefaultTTL.
func NewCache(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		entries: make(map[string]entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// SetClock overrides the cache clock, for tests.
func (c *Cache) SetClock(now func() time.Time) {
	c.now = now
}

// Get returns the cached key for slot if it is still fresh.
func (c *Cache) Get(slot string) (string, bool) {
	c.mu.RLock()
	e, ok := c.entries[slot]
	c.mu.RUnlock()
	if !ok {
		return "", false
	}

	if c.now().Sub(e.storedAt) > c.ttl {
		c.mu.Lock()
		delete(c.entries, slot)
		c.mu.Unlock()
		return "", false
	}
	return e.key, true
}

// Put stores a validated key for slot.
func (c *Cache) Put(slot, key string) {
	c.mu.Lock()
	c.entries[slot] = entry{key: key, storedAt: c.now()}
	c.mu.Unlock()
}

var bearerPattern = regexp.MustCompile(`(?i)^bearer\s+(\S+)$`)

// Resolver determines the upstream API key for a request. Resolution order:
// environment-configured key, then an Authorization bearer token, then the
// dedicated api-key header. The validity check is structural only; no network
// round-trip is made to pre-validate a key.
type Resolver struct {
	cache    *Cache
	getenv   config.Getenv
	validate func(string) bool
	logger   *logrus.Logger
}

// NewResolver creates a credential resolver backed by cache.
func NewResolver(cache *Cache, getenv config.Getenv, logger *logrus.Logger) *Resolver {
	return &Resolver{
		cache:  cache,
		getenv: getenv,
		validate: func(key string) bool {
			return key != ""
		},
		logger: logger,
	}
}

// SetValidator overrides the structural key check, for tests.
func (r *Resolver) SetValidator(validate func(string) bool) {
	r.validate = validate
}

// ResolveKey returns the credential for slot, consulting the cache first. A
// cached key is reused without re-validation until its TTL lapses.
func (r *Resolver) ResolveKey(req *http.Request, slot string) (string, error) {
	if key, ok := r.cache.Get(slot); ok {
		return key, nil
	}

	key := r.lookup(req)
	if !r.validate(key) {
		r.logger.WithField("slot", slot).Warn("No usable credential for request")
		return "", ErrMissingCredential
	}

	r.cache.Put(slot, key)
	return key, nil
}

func (r *Resolver) lookup(req *http.Request) string {
	if key := r.getenv(config.EnvAzureAPIKey); key != "" {
		return key
	}
	if m := bearerPattern.FindStringSubmatch(req.Header.Get("Authorization")); m != nil {
		return m[1]
	}
	return req.Header.Get("api-key")
}
