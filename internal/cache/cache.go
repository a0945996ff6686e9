package cache

import (
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/ledgerlens/ledgerlens/internal/bank"
	"github.com/ledgerlens/ledgerlens/internal/observability"
)

// Entry is a cached answer for a question: the SQL the translator
// produced and the rows it returned. Only successful results are
// stored, so a transient failure never poisons the cache.
type Entry struct {
	SQL      string
	Provider string
	Model    string
	Result   bank.QueryResult
}

type QueryCache struct {
	store *gocache.Cache
}

func New(ttl, cleanupInterval time.Duration) *QueryCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	if cleanupInterval <= 0 {
		cleanupInterval = 10 * time.Minute
	}
	return &QueryCache{store: gocache.New(ttl, cleanupInterval)}
}

func (c *QueryCache) Get(question string) (Entry, bool) {
	value, ok := c.store.Get(normalizeQuestion(question))
	observability.ObserveCacheLookup(ok)
	if !ok {
		return Entry{}, false
	}
	entry, ok := value.(Entry)
	return entry, ok
}

func (c *QueryCache) Set(question string, entry Entry) {
	c.store.SetDefault(normalizeQuestion(question), entry)
}

func (c *QueryCache) Flush() {
	c.store.Flush()
}

func (c *QueryCache) Len() int {
	return c.store.ItemCount()
}

func normalizeQuestion(question string) string {
	return strings.Join(strings.Fields(strings.ToLower(question)), " ")
}
