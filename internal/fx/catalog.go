package fx

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"budgetbot/internal/log"
)

// Catalog caches the provider's supported-currency set for the process
// lifetime. The fetch runs at most once: concurrent first calls are collapsed
// through singleflight, and a failed fetch permanently stores the empty set.
// The empty set means "validation skipped" — a deliberate fail-open policy,
// not a retry candidate.
type Catalog struct {
	provider Provider
	logger   *log.Logger

	group singleflight.Group

	mu        sync.RWMutex
	codes     map[string]struct{}
	populated bool

	onFetchFailure func()
}

// NewCatalog creates a catalog backed by the given provider. onFetchFailure
// is invoked once if the catalog fetch fails; it may be nil.
func NewCatalog(provider Provider, logger *log.Logger, onFetchFailure func()) *Catalog {
	return &Catalog{
		provider:       provider,
		logger:         logger.WithComponent(log.ComponentFX),
		onFetchFailure: onFetchFailure,
	}
}

// Supported returns the set of supported currency codes, fetching it on
// first use. Once populated (even to empty), reads never block.
func (c *Catalog) Supported(ctx context.Context) map[string]struct{} {
	c.mu.RLock()
	if c.populated {
		codes := c.codes
		c.mu.RUnlock()
		return codes
	}
	c.mu.RUnlock()

	// Collapse concurrent first fetches so the provider sees one request.
	v, _, _ := c.group.Do("currencies", func() (any, error) {
		c.mu.RLock()
		if c.populated {
			codes := c.codes
			c.mu.RUnlock()
			return codes, nil
		}
		c.mu.RUnlock()

		codes := make(map[string]struct{})
		catalog, err := c.provider.Currencies(ctx)
		if err != nil {
			c.logger.WarnContext(ctx, "currency catalog fetch failed, validation disabled for this process",
				log.FieldError, err)
			if c.onFetchFailure != nil {
				c.onFetchFailure()
			}
		} else {
			for code := range catalog {
				codes[code] = struct{}{}
			}
			c.logger.InfoContext(ctx, "currency catalog loaded", "currencies", len(codes))
		}

		c.mu.Lock()
		c.codes = codes
		c.populated = true
		c.mu.Unlock()
		return codes, nil
	})

	return v.(map[string]struct{})
}
