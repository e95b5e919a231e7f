package modalias

import (
	"log/slog"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/blackwell-systems/drivermatch/internal/repo"
)

// DefaultCacheSize bounds how many snapshot indexes a Cache keeps.
const DefaultCacheSize = 4

// Cache holds one Index per repository snapshot token.
//
// Indexes are built at most once per token: Get holds the cache lock while
// building, so concurrent callers wait for the single builder.
type Cache struct {
	mu      sync.Mutex
	entries *lru.Cache[repo.Token, *Index]
	logger  *slog.Logger
	builds  int
}

// NewCache creates a cache keeping up to size indexes. Non-positive sizes
// fall back to DefaultCacheSize.
func NewCache(size int, logger *slog.Logger) *Cache {
	if size <= 0 {
		size = DefaultCacheSize
	}
	if logger == nil {
		logger = slog.Default()
	}

	// lru.New only fails for non-positive sizes.
	entries, _ := lru.New[repo.Token, *Index](size)

	return &Cache{
		entries: entries,
		logger:  logger,
	}
}

// Get returns the index for q's snapshot, building it on first use.
func (c *Cache) Get(q repo.Query) *Index {
	c.mu.Lock()
	defer c.mu.Unlock()

	token := q.Token()
	if ix, ok := c.entries.Get(token); ok {
		return ix
	}

	c.logger.Debug("building modalias index", "snapshot", string(token))
	ix := Build(q, c.logger)
	c.builds++
	c.entries.Add(token, ix)
	return ix
}

// PackagesFor returns the packages in q declaring a pattern that matches
// the concrete modalias, sorted by name.
func (c *Cache) PackagesFor(q repo.Query, concrete string) []*repo.Package {
	names := c.Get(q).Candidates(concrete)

	pkgs := make([]*repo.Package, 0, len(names))
	for _, name := range names {
		if pkg, ok := q.Lookup(name); ok {
			pkgs = append(pkgs, pkg)
		}
	}
	return pkgs
}
