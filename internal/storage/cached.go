package storage

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const cacheSize = 1024

type cachedSetting struct {
	value string
	ok    bool
}

// Cached puts an expiring LRU in front of the prefix and locale lookups,
// which the router hits on every message. Writes go through and refresh
// the cache.
type Cached struct {
	Store
	prefixes *expirable.LRU[string, cachedSetting]
	locales  *expirable.LRU[string, cachedSetting]
}

func NewCached(s Store, ttl time.Duration) *Cached {
	return &Cached{
		Store:    s,
		prefixes: expirable.NewLRU[string, cachedSetting](cacheSize, nil, ttl),
		locales:  expirable.NewLRU[string, cachedSetting](cacheSize, nil, ttl),
	}
}

func (c *Cached) Prefix(ctx context.Context, guildID string) (string, bool, error) {
	if v, ok := c.prefixes.Get(guildID); ok {
		return v.value, v.ok, nil
	}
	p, ok, err := c.Store.Prefix(ctx, guildID)
	if err != nil {
		return "", false, err
	}
	c.prefixes.Add(guildID, cachedSetting{value: p, ok: ok})
	return p, ok, nil
}

func (c *Cached) SetPrefix(ctx context.Context, guildID, prefix string) error {
	c.prefixes.Remove(guildID)
	if err := c.Store.SetPrefix(ctx, guildID, prefix); err != nil {
		return err
	}
	c.prefixes.Add(guildID, cachedSetting{value: prefix, ok: prefix != ""})
	return nil
}

func (c *Cached) Locale(ctx context.Context, guildID string) (string, bool, error) {
	if v, ok := c.locales.Get(guildID); ok {
		return v.value, v.ok, nil
	}
	l, ok, err := c.Store.Locale(ctx, guildID)
	if err != nil {
		return "", false, err
	}
	c.locales.Add(guildID, cachedSetting{value: l, ok: ok})
	return l, ok, nil
}

func (c *Cached) SetLocale(ctx context.Context, guildID, locale string) error {
	c.locales.Remove(guildID)
	if err := c.Store.SetLocale(ctx, guildID, locale); err != nil {
		return err
	}
	c.locales.Add(guildID, cachedSetting{value: locale, ok: locale != ""})
	return nil
}
