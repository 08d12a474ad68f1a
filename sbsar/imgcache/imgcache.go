// Copyright © 2026 Adobe. All rights reserved.
// Use is governed by the Apache License, Version 2.0.

// Package imgcache caches decoded input images keyed by a hash of their
// resolved asset path, so repeated renders that reference the same
// texture file don't re-decode it. It is byte-bound: once the total
// decoded size exceeds the configured maximum, the oldest 10% by
// last-access time is evicted.
package imgcache

import (
	"context"
	"hash/crc64"
	"image"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/adobe/usd-fileformat-plugins/host"
)

var pathHashTable = crc64.MakeTable(crc64.ISO)

// HashPath returns the cache key for a resolved asset path. Two calls
// with the same path string always produce the same hash, regardless of
// the image's contents.
func HashPath(resolvedPath string) uint64 {
	return crc64.Checksum([]byte(resolvedPath), pathHashTable)
}

type entry struct {
	image      image.Image
	size       int
	lastAccess time.Time
}

// Cache is a byte-bound, approximate-LRU cache of decoded input images.
type Cache struct {
	mu         sync.Mutex
	resolver   host.AssetResolver
	decode     func(data []byte) (image.Image, error)
	maxBytes   int64
	totalBytes int64
	entries    map[uint64]*entry
}

// New returns an empty Cache. maxBytes <= 0 defaults to 10^9 bytes.
// decode converts raw asset bytes into a decoded image; callers
// typically pass a format-sniffing wrapper around the standard image
// package's registered decoders (png, jpeg, ...) alongside any formats
// golang.org/x/image adds to that registry.
func New(resolver host.AssetResolver, decode func([]byte) (image.Image, error), maxBytes int64) *Cache {
	if maxBytes <= 0 {
		maxBytes = 1_000_000_000
	}
	return &Cache{
		resolver: resolver,
		decode:   decode,
		maxBytes: maxBytes,
		entries:  map[uint64]*entry{},
	}
}

func imageByteSize(img image.Image) int {
	b := img.Bounds()
	// Approximate as 4 bytes (RGBA) per pixel, matching the byte accounting
	// an upload-ready texture buffer would use.
	return b.Dx() * b.Dy() * 4
}

// Add loads and decodes resolvedPath if it isn't already cached, and
// returns its cache key. An empty path returns a zero hash without
// touching the resolver, matching lookups for an unset image input.
func (c *Cache) Add(ctx context.Context, resolvedPath string) (uint64, error) {
	if resolvedPath == "" {
		return 0, nil
	}
	hash := HashPath(resolvedPath)

	c.mu.Lock()
	if _, ok := c.entries[hash]; ok {
		c.mu.Unlock()
		return hash, nil
	}
	c.mu.Unlock()

	reader, err := c.resolver.OpenAsset(ctx, resolvedPath)
	if err != nil {
		return 0, err
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return 0, err
	}
	img, err := c.decode(data)
	if err != nil {
		return 0, err
	}

	size := imageByteSize(img)

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[hash]; ok {
		return hash, nil
	}
	c.evictUntilFitsLocked(int64(size))
	c.entries[hash] = &entry{image: img, size: size, lastAccess: time.Now()}
	c.totalBytes += int64(size)
	return hash, nil
}

// Get returns the decoded image for hash, updating its last-access
// time, or nil if it is not (or no longer) cached.
func (c *Cache) Get(hash uint64) image.Image {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[hash]
	if !ok {
		return nil
	}
	e.lastAccess = time.Now()
	return e.image
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
		hash       uint64
		lastAccess time.Time
	}
	all := make([]aged, 0, len(c.entries))
	for h, e := range c.entries {
		all = append(all, aged{h, e.lastAccess})
	}
	sort.Slice(all, func(i, j int) bool { return all[i].lastAccess.Before(all[j].lastAccess) })

	toEvict := len(all) / 10
	if toEvict < 1 {
		toEvict = 1
	}
	for i := 0; i < toEvict && i < len(all); i++ {
		e := c.entries[all[i].hash]
		c.totalBytes -= int64(e.size)
		delete(c.entries, all[i].hash)
	}
}

// Clear empties the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = map[uint64]*entry{}
	c.totalBytes = 0
}
