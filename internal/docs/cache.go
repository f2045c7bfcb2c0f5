package docs

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/cliplink/cliplink/internal/metrics"
	"github.com/cliplink/cliplink/internal/model"
	"github.com/cliplink/cliplink/internal/sanitize"
)

// Wiki paths per documentation bucket. The five navigation-only actions
// share one bucket.
const (
	pathPayments   = "/docs/payments"
	pathBookings   = "/docs/bookings"
	pathTips       = "/docs/tips"
	pathNavigation = "/docs/navigation"
)

// helpSentences are the action-specific closing lines appended to every
// enriched page.
var helpSentences = map[model.Action]string{
	model.ActionPayment:    "Need help completing this payment? Contact the shop directly.",
	model.ActionBooking:    "Pick a time slot after opening this link to confirm your booking.",
	model.ActionTip:        "Tips go directly to your barber.",
	model.ActionShop:       "Use the in-app navigation if this link does not open automatically.",
	model.ActionBarber:     "Use the in-app navigation if this link does not open automatically.",
	model.ActionReview:     "Use the in-app navigation if this link does not open automatically.",
	model.ActionPromotions: "Use the in-app navigation if this link does not open automatically.",
	model.ActionProfile:    "Use the in-app navigation if this link does not open automatically.",
}

type cacheEntry struct {
	page      *model.WikiPage
	fetchedAt time.Time
}

// Cache maps deep links to TTL-cached, parameter-enriched wiki pages.
// Lookups are strictly best-effort: fetch failures are logged and yield
// nil, never an error. Keys derive from caller-controlled parameters,
// so expired entries are swept periodically to keep the map bounded.
type Cache struct {
	fetcher Fetcher
	ttl     time.Duration
	logger  *slog.Logger
	metrics metrics.Recorder
	now     func() time.Time

	mu      sync.Mutex
	entries map[string]cacheEntry

	stop chan struct{}
	done chan struct{}
}

// NewCache creates a documentation cache with the given TTL.
func NewCache(fetcher Fetcher, ttl time.Duration, logger *slog.Logger, recorder metrics.Recorder) *Cache {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &Cache{
		fetcher: fetcher,
		ttl:     ttl,
		logger:  logger.With("component", "docs.cache"),
		metrics: recorder,
		now:     time.Now,
		entries: make(map[string]cacheEntry),
	}
}

// ForDeepLink returns the documentation page for the link's action,
// enriched with the call's parameters, or nil when the wiki is
// unavailable.
func (c *Cache) ForDeepLink(ctx context.Context, dl *model.DeepLink) *model.WikiPage {
	key := string(dl.Action) + "?" + dl.Params.Encode()

	c.mu.Lock()
	entry, ok := c.entries[key]
	c.mu.Unlock()

	if ok && c.now().Sub(entry.fetchedAt) <= c.ttl {
		c.metrics.IncDocsCacheHit()
		return entry.page
	}
	c.metrics.IncDocsCacheMiss()

	page, err := c.fetcher.FetchPage(ctx, PathForAction(dl.Action))
	if err != nil {
		if errors.Is(err, ErrDisabled) {
			return nil
		}
		c.metrics.IncDocsFetchError()
		c.logger.Warn("documentation fetch failed",
			"action", string(dl.Action),
			"error", err,
		)
		return nil
	}

	enriched := enrich(page, dl)

	c.mu.Lock()
	c.entries[key] = cacheEntry{page: enriched, fetchedAt: c.now()}
	c.mu.Unlock()

	return enriched
}

// Start launches the periodic sweep of expired entries.
func (c *Cache) Start() {
	c.stop = make(chan struct{})
	c.done = make(chan struct{})
	go c.sweepLoop()
}

// Shutdown stops the sweep loop.
func (c *Cache) Shutdown(ctx context.Context) error {
	if c.stop == nil {
		return nil
	}
	close(c.stop)
	select {
	case <-c.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Cache) sweepLoop() {
	defer close(c.done)
	ticker := time.NewTicker(c.ttl)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			if removed := c.sweep(); removed > 0 {
				c.logger.Debug("documentation cache sweep", "removed", removed)
			}
		}
	}
}

// sweep discards entries past the TTL and returns how many were
// removed. One-off parameter combinations create entries that are
// never re-requested, so expiry alone would leave them behind.
func (c *Cache) sweep() int {
	cutoff := c.now().Add(-c.ttl)

	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for key, entry := range c.entries {
		if entry.fetchedAt.Before(cutoff) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// PathForAction maps an action to its documentation bucket.
func PathForAction(a model.Action) string {
	switch a {
	case model.ActionPayment:
		return pathPayments
	case model.ActionBooking:
		return pathBookings
	case model.ActionTip:
		return pathTips
	default:
		return pathNavigation
	}
}

// enrich appends parameter-specific lines and the action's help
// sentence to a copy of the page.
func enrich(page *model.WikiPage, dl *model.DeepLink) *model.WikiPage {
	out := page.Clone()

	var b strings.Builder
	b.WriteString(out.Content)

	if amount := sanitize.Amount(dl.Params.Get("amount")); amount != "" {
		b.WriteString("\nCurrent Amount: $" + amount)
	}
	if barber := sanitize.ID(dl.Params.Get("barber")); barber != "" {
		b.WriteString("\nSelected Barber: " + barber)
	}
	if shop := sanitize.ID(dl.Params.Get("shop")); shop != "" {
		b.WriteString("\nSelected Shop: " + shop)
	}
	if service := sanitize.Text(dl.Params.Get("service")); service != "" {
		b.WriteString("\nSelected Service: " + service)
	}

	if help, ok := helpSentences[dl.Action]; ok {
		b.WriteString("\n\n" + help)
	}

	out.Content = b.String()
	return out
}
