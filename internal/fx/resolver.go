package fx

import (
	"context"
	"fmt"
	"strings"
	"time"

	"budgetbot/internal/cache"
	"budgetbot/internal/log"
	"budgetbot/internal/metrics"
)

// RateStore is the durable second-tier cache: point lookup and upsert keyed
// by (day, from, to).
type RateStore interface {
	GetRate(ctx context.Context, day, from, to string) (rate float64, found bool, err error)
	PutRate(ctx context.Context, day, from, to string, rate float64) error
}

// Resolver turns a currency pair into (rate date, rate), consulting the
// format validator, the supported-currency catalog, the in-memory LRU, the
// persistent store and finally the external provider, populating both cache
// tiers on the way back.
type Resolver struct {
	provider Provider
	store    RateStore
	memory   *cache.LRU[float64]
	catalog  *Catalog
	logger   *log.Logger
	metrics  *metrics.Metrics

	now func() time.Time
}

// NewResolver wires a resolver. cacheSize bounds the in-memory tier; m may
// be nil.
func NewResolver(provider Provider, store RateStore, cacheSize int, logger *log.Logger, m *metrics.Metrics) *Resolver {
	var onCatalogFailure func()
	if m != nil {
		onCatalogFailure = func() { m.FXCatalogFailed.Inc() }
	}
	return &Resolver{
		provider: provider,
		store:    store,
		memory:   cache.NewLRU[float64](cacheSize),
		catalog:  NewCatalog(provider, logger, onCatalogFailure),
		logger:   logger.WithComponent(log.ComponentFX),
		metrics:  m,
		now:      time.Now,
	}
}

// Resolve returns the conversion rate for from→to and the date the rate is
// effective. Malformed codes fail with *FormatError and unknown codes with
// *UnsupportedError before any rate lookup happens. Provider failures are
// fatal for this call only.
func (r *Resolver) Resolve(ctx context.Context, from, to string) (string, float64, error) {
	from = strings.ToUpper(from)
	to = strings.ToUpper(to)

	// Format gate runs before any I/O.
	if !IsValidFormat(from) {
		return "", 0, &FormatError{Code: from}
	}
	if !IsValidFormat(to) {
		return "", 0, &FormatError{Code: to}
	}

	supported := r.catalog.Supported(ctx)
	if len(supported) == 0 {
		// Catalog fetch failed earlier: validation is disabled for the
		// rest of the process and conversion degrades to identity.
		return r.today(), 1.0, nil
	}
	if _, ok := supported[from]; !ok {
		return "", 0, &UnsupportedError{Code: from}
	}
	if _, ok := supported[to]; !ok {
		return "", 0, &UnsupportedError{Code: to}
	}

	if from == to {
		return r.today(), 1.0, nil
	}

	cacheDay := r.today()
	key := cacheDay + ":" + from + ":" + to

	if rate, ok := r.memory.Get(key); ok {
		r.count(func(m *metrics.Metrics) { m.FXCacheHits.Inc() })
		return cacheDay, rate, nil
	}
	r.count(func(m *metrics.Metrics) { m.FXCacheMisses.Inc() })

	rate, found, err := r.store.GetRate(ctx, cacheDay, from, to)
	if err != nil {
		return "", 0, fmt.Errorf("rate store lookup: %w", err)
	}
	if found {
		r.count(func(m *metrics.Metrics) { m.FXStoreHits.Inc() })
		r.memory.Set(key, rate)
		return cacheDay, rate, nil
	}

	r.count(func(m *metrics.Metrics) { m.FXProviderCalls.Inc() })
	apiDate, rate, err := r.provider.LatestRate(ctx, from, to)
	if err != nil {
		r.count(func(m *metrics.Metrics) { m.FXProviderErrors.Inc() })
		return "", 0, &ProviderError{From: from, To: to, Err: err}
	}
	if apiDate == "" {
		apiDate = cacheDay
	}

	// The row is keyed by the day the lookup was performed, not by the
	// provider's effective date: repeated same-day lookups must hit the
	// caches even when the provider's rate is from an earlier trading day.
	if err := r.store.PutRate(ctx, cacheDay, from, to, rate); err != nil {
		return "", 0, fmt.Errorf("persist rate %s->%s: %w", from, to, err)
	}
	r.memory.Set(key, rate)

	r.logger.InfoContext(ctx, "fetched rate from provider",
		log.FieldFromCcy, from,
		log.FieldToCcy, to,
		log.FieldRate, rate,
		log.FieldRateDate, apiDate)

	return apiDate, rate, nil
}

func (r *Resolver) today() string {
	return r.now().Format("2006-01-02")
}

func (r *Resolver) count(f func(*metrics.Metrics)) {
	if r.metrics != nil {
		f(r.metrics)
	}
}
