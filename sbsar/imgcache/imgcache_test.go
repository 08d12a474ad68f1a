// Copyright © 2026 Adobe. All rights reserved.
// Use is governed by the Apache License, Version 2.0.

package imgcache

import (
	"context"
	"image"
	"image/color"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubResolver struct {
	mu    sync.Mutex
	opens int
}

func (s *stubResolver) Resolve(ctx context.Context, p string) (string, error) { return p, nil }

func (s *stubResolver) OpenAsset(ctx context.Context, resolvedPath string) (io.ReadCloser, error) {
	s.mu.Lock()
	s.opens++
	s.mu.Unlock()
	return io.NopCloser(strings.NewReader(resolvedPath)), nil
}

func decodeFixedSize(w, h int) func([]byte) (image.Image, error) {
	return func(data []byte) (image.Image, error) {
		img := image.NewNRGBA(image.Rect(0, 0, w, h))
		img.Set(0, 0, color.White)
		return img, nil
	}
}

func TestAddCachesByResolvedPath(t *testing.T) {
	resolver := &stubResolver{}
	c := New(resolver, decodeFixedSize(4, 4), 0)

	h1, err := c.Add(context.Background(), "/tex/a.png")
	require.NoError(t, err)

	h2, err := c.Add(context.Background(), "/tex/a.png")
	require.NoError(t, err)

	assert.Equal(t, h1, h2)
	assert.Equal(t, 1, resolver.opens)
	assert.NotNil(t, c.Get(h1))
}

func TestAddEmptyPathReturnsZero(t *testing.T) {
	resolver := &stubResolver{}
	c := New(resolver, decodeFixedSize(4, 4), 0)

	h, err := c.Add(context.Background(), "")
	require.NoError(t, err)
	assert.Zero(t, h)
	assert.Zero(t, resolver.opens)
}

func TestGetMissReturnsNil(t *testing.T) {
	c := New(&stubResolver{}, decodeFixedSize(4, 4), 0)
	assert.Nil(t, c.Get(HashPath("/nope.png")))
}

func TestEvictsOldestTenPercentOverBudget(t *testing.T) {
	resolver := &stubResolver{}
	// Each 4x4 RGBA image is 64 bytes; cap at 150 bytes forces eviction
	// once a third image pushes the total over budget.
	c := New(resolver, decodeFixedSize(4, 4), 150)

	h1, err := c.Add(context.Background(), "/tex/a.png")
	require.NoError(t, err)
	_, err = c.Add(context.Background(), "/tex/b.png")
	require.NoError(t, err)
	_, err = c.Add(context.Background(), "/tex/c.png")
	require.NoError(t, err)

	assert.Nil(t, c.Get(h1))
}

func TestEvictionRechecksBoundAfterEachRound(t *testing.T) {
	resolver := &stubResolver{}
	// Each 34x34 RGBA image is 4624 bytes, already over the 1000-byte cap
	// on its own; a single eviction round freeing only ~10% of the
	// pre-insertion total would never bring the cache back under budget.
	c := New(resolver, decodeFixedSize(34, 34), 1000)

	h1, err := c.Add(context.Background(), "/tex/a.png")
	require.NoError(t, err)
	h2, err := c.Add(context.Background(), "/tex/b.png")
	require.NoError(t, err)

	assert.Nil(t, c.Get(h1))
	assert.NotNil(t, c.Get(h2))
	assert.LessOrEqual(t, c.totalBytes, int64(34*34*4))
}

func TestClearEmptiesCache(t *testing.T) {
	resolver := &stubResolver{}
	c := New(resolver, decodeFixedSize(4, 4), 0)
	h, err := c.Add(context.Background(), "/tex/a.png")
	require.NoError(t, err)

	c.Clear()
	assert.Nil(t, c.Get(h))
	assert.Zero(t, c.totalBytes)
}
