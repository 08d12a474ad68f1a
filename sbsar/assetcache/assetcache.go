// Copyright © 2026 Adobe. All rights reserved.
// Use is governed by the Apache License, Version 2.0.

// Package assetcache caches rendered outputs — both image assets and
// scalar/vector values — keyed by the (package, graph, parameters)
// triple that produced them, so a second request for a different usage
// of an already-rendered graph instance never re-renders it. It is
// byte-bound for image data; once the total exceeds the configured
// maximum, the oldest 10% by last-access time is evicted.
package assetcache

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// Key identifies one render: the package's content hash, the selected
// graph, and the canonical JSON of the input parameters used.
type Key struct {
	PackageHash uint64
	GraphName   string
	Params      string
}

func (k Key) cacheKey() string {
	return fmt.Sprintf("%d|%s|%s", k.PackageHash, k.GraphName, k.Params)
}

// Asset is one rendered image output's encoded bytes.
type Asset struct {
	Data []byte
}

// RenderResult is everything one render call produced: every image
// output by usage/identifier, and every scalar/vector output by the
// same key.
type RenderResult struct {
	Assets   map[string]Asset
	Numerics map[string]any
}

func (r RenderResult) byteSize() int {
	n := 0
	for _, a := range r.Assets {
		n += len(a.Data)
	}
	return n
}

type entry struct {
	result     RenderResult
	size       int
	lastAccess time.Time
}

// Cache is a byte-bound, approximate-LRU cache of render results.
type Cache struct {
	mu         sync.Mutex
	maxBytes   int64
	totalBytes int64
	entries    map[string]*entry
}

// New returns an empty Cache. maxBytes <= 0 defaults to 10^9 bytes.
func New(maxBytes int64) *Cache {
	if maxBytes <= 0 {
		maxBytes = 1_000_000_000
	}
	return &Cache{maxBytes: maxBytes, entries: map[string]*entry{}}
}

// HasResult reports whether a render for key has already been cached.
func (c *Cache) HasResult(key Key) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[key.cacheKey()]
	return ok
}

// GetAsset returns the cached image asset for key's render at the given
// usage/identifier, updating the entry's last-access time.
func (c *Cache) GetAsset(key Key, usage string) (Asset, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key.cacheKey()]
	if !ok {
		return Asset{}, false
	}
	e.lastAccess = time.Now()
	a, ok := e.result.Assets[usage]
	return a, ok
}

// GetNumeric returns the cached scalar/vector value for key's render at
// the given usage/identifier, updating the entry's last-access time.
func (c *Cache) GetNumeric(key Key, usage string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key.cacheKey()]
	if !ok {
		return nil, false
	}
	e.lastAccess = time.Now()
	v, ok := e.result.Numerics[usage]
	return v, ok
}

// AddResult stores a render result under key, evicting the oldest
// entries first if the addition would exceed the byte budget.
func (c *Cache) AddResult(key Key, result RenderResult) {
	size := result.byteSize()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.evictUntilFitsLocked(int64(size))
	c.entries[key.cacheKey()] = &entry{result: result, size: size, lastAccess: time.Now()}
	c.totalBytes += int64(size)
}

// evictUntilFitsLocked evicts the oldest 10% of entries by count,
// repeatedly, rechecking the prospective total (current total plus the
// incoming item) against maxBytes after each round, until it fits or
// there is nothing left to evict.
func (c *Cache) evictUntilFitsLocked(incoming int64) {
	for c.totalBytes+incoming > c.maxBytes && len(c.entries) > 0 {
		c.evictOldestTenPercentByCountLocked()
	}
}

func (c *Cache) evictOldestTenPercentByCountLocked() {
	type aged struct {
		key        string
		lastAccess time.Time
	}
	all := make([]aged, 0, len(c.entries))
	for k, e := range c.entries {
		all = append(all, aged{k, e.lastAccess})
	}
	sort.Slice(all, func(i, j int) bool { return all[i].lastAccess.Before(all[j].lastAccess) })

	toEvict := len(all) / 10
	if toEvict < 1 {
		toEvict = 1
	}
	for i := 0; i < toEvict && i < len(all); i++ {
		e := c.entries[all[i].key]
		c.totalBytes -= int64(e.size)
		delete(c.entries, all[i].key)
	}
}

// Clear empties the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = map[string]*entry{}
	c.totalBytes = 0
}
