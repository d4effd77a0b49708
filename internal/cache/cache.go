// Package cache holds the published view of the site content. It is the
// only source read by public rendering paths: hidden items never appear in
// its output, and every change notification triggers a full re-fetch and a
// wholesale swap.
package cache

import (
	"context"
	"sync"

	"github.com/FullBlownAinz/dotcom/internal/content"
	"github.com/FullBlownAinz/dotcom/internal/gateway"
	"github.com/FullBlownAinz/dotcom/internal/sample"
	"go.uber.org/zap"
)

// Config configures a Cache. A nil Gateway leaves the cache serving the
// bundled sample content.
type Config struct {
	Gateway gateway.Gateway
	Logger  *zap.Logger
}

// Cache is the process-wide published content state.
type Cache struct {
	gw     gateway.Gateway
	logger *zap.Logger

	mu       sync.RWMutex
	posts    []content.Post
	merch    []content.MerchItem
	apps     []content.AppItem
	info     content.SiteInfo
	settings content.SiteSettings

	subMu       sync.Mutex
	subscribers map[int64]chan struct{}
	nextID      int64
}

// New constructs a cache pre-populated with sample content and default
// settings; Refresh replaces it with remote state.
func New(cfg Config) *Cache {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{
		gw:          cfg.Gateway,
		logger:      logger,
		posts:       sample.Posts(),
		merch:       sample.Merch(),
		apps:        sample.Apps(),
		info:        sample.Info(),
		settings:    content.DefaultSettings(),
		subscribers: make(map[int64]chan struct{}),
	}
}

// Refresh re-reads the full public view and swaps the cache wholesale. A
// collection whose fetch fails keeps the bundled sample content, matching
// the read-path fallback behavior for a degraded backend.
func (c *Cache) Refresh(ctx context.Context) error {
	if c.gw == nil {
		return gateway.ErrUnavailable
	}
	publicQuery := gateway.Query{Hidden: gateway.Bool(false), OrderByRank: true}

	posts := sample.Posts()
	if records, err := c.gw.QueryCollection(ctx, gateway.CollectionPosts, publicQuery); err == nil {
		if decoded, err := content.DecodePosts(records); err == nil {
			posts = decoded
		} else {
			c.logger.Warn("posts decode failed", zap.Error(err))
		}
	} else {
		c.logger.Warn("posts fetch failed", zap.Error(err))
	}

	merch := sample.Merch()
	if records, err := c.gw.QueryCollection(ctx, gateway.CollectionMerch, publicQuery); err == nil {
		if decoded, err := content.DecodeMerchItems(records); err == nil {
			merch = decoded
		} else {
			c.logger.Warn("merch decode failed", zap.Error(err))
		}
	} else {
		c.logger.Warn("merch fetch failed", zap.Error(err))
	}

	apps := sample.Apps()
	if records, err := c.gw.QueryCollection(ctx, gateway.CollectionApps, publicQuery); err == nil {
		if decoded, err := content.DecodeAppItems(records); err == nil {
			apps = decoded
		} else {
			c.logger.Warn("apps decode failed", zap.Error(err))
		}
	} else {
		c.logger.Warn("apps fetch failed", zap.Error(err))
	}

	info := sample.Info()
	if record, found, err := c.gw.GetSingleton(ctx, gateway.SingletonSiteInfo); err == nil && found {
		if decoded, err := content.DecodeSiteInfo(record); err == nil {
			info = decoded
		}
	}

	settings := content.DefaultSettings()
	if record, found, err := c.gw.GetSingleton(ctx, gateway.SingletonSiteSettings); err == nil && found {
		if decoded, err := content.DecodeSettings(record); err == nil {
			settings = decoded
		}
	}

	c.mu.Lock()
	c.posts = filterVisible(posts)
	c.merch = filterVisible(merch)
	c.apps = filterVisible(apps)
	c.info = info
	c.settings = settings
	c.mu.Unlock()

	c.notify()
	return nil
}

// Start subscribes the cache to the gateway's change-notification stream.
// Any change event triggers a full refresh. The returned function removes
// the subscription.
func (c *Cache) Start(ctx context.Context) (func(), error) {
	if c.gw == nil {
		return func() {}, nil
	}
	return c.gw.SubscribeChanges(ctx, func() {
		if err := c.Refresh(ctx); err != nil {
			c.logger.Warn("cache refresh failed", zap.Error(err))
		}
	})
}

// Posts returns the published feed.
func (c *Cache) Posts() []content.Post {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]content.Post(nil), c.posts...)
}

// Merch returns the published merch listing.
func (c *Cache) Merch() []content.MerchItem {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]content.MerchItem(nil), c.merch...)
}

// Apps returns the published app listing.
func (c *Cache) Apps() []content.AppItem {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]content.AppItem(nil), c.apps...)
}

// Info returns the published info document.
func (c *Cache) Info() content.SiteInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.info
}

// Settings returns the published settings document.
func (c *Cache) Settings() content.SiteSettings {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.settings
}

// ApplySettings optimistically replaces the cached settings ahead of the
// remote confirmation.
func (c *Cache) ApplySettings(settings content.SiteSettings) {
	c.mu.Lock()
	c.settings = settings
	c.mu.Unlock()
	c.notify()
}

// Subscribe returns a channel that receives a signal after every cache
// swap, and a function removing the subscription. Signals are coalesced:
// a slow consumer sees at least one signal, not one per swap.
func (c *Cache) Subscribe() (<-chan struct{}, func()) {
	c.subMu.Lock()
	c.nextID++
	id := c.nextID
	stream := make(chan struct{}, 1)
	c.subscribers[id] = stream
	c.subMu.Unlock()
	return stream, func() {
		c.subMu.Lock()
		delete(c.subscribers, id)
		c.subMu.Unlock()
	}
}

func (c *Cache) notify() {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	for _, stream := range c.subscribers {
		select {
		case stream <- struct{}{}:
		default:
		}
	}
}

type visibleItem interface {
	IsHidden() bool
}

func filterVisible[T visibleItem](items []T) []T {
	visible := make([]T, 0, len(items))
	for _, item := range items {
		if !item.IsHidden() {
			visible = append(visible, item)
		}
	}
	return visible
}
