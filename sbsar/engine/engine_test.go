// Copyright © 2026 Adobe. All rights reserved.
// Use is governed by the Apache License, Version 2.0.

package engine

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adobe/usd-fileformat-plugins/sbsar/assetcache"
	"github.com/adobe/usd-fileformat-plugins/sbsar/path"
	"github.com/adobe/usd-fileformat-plugins/sbsar/pkgcache"
)

// --- Loader -----------------------------------------------------------

type stubRenderer struct {
	initErr  error
	rendered int
}

func (r *stubRenderer) Init() error  { return r.initErr }
func (r *stubRenderer) Close() error { return nil }
func (r *stubRenderer) Render(ctx context.Context, instance *pkgcache.GraphInstance, inputs InputSet) (assetcache.RenderResult, error) {
	r.rendered++
	return assetcache.RenderResult{
		Assets: map[string]assetcache.Asset{
			"baseColor_output": {Data: []byte("rendered")},
		},
	}, nil
}

func TestLoaderTriesCandidatesInOrder(t *testing.T) {
	var tried []string
	open := func(p string) (Renderer, error) {
		tried = append(tried, p)
		if strings.Contains(p, "good") {
			return &stubRenderer{}, nil
		}
		return nil, fmt.Errorf("no such library")
	}
	l := NewLoader("/plugins/sbsar", []string{"bad.so", "good.so"}, open, nil)

	r, err := l.Load()
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, "/plugins/sbsar/bad.so", tried[0])
	assert.Equal(t, "/plugins/sbsar/good.so", tried[1])
}

func TestLoaderFallsBackThroughSearchDirs(t *testing.T) {
	open := func(p string) (Renderer, error) {
		if p == "engine.so" { // system default, empty dir prefix
			return &stubRenderer{}, nil
		}
		return nil, fmt.Errorf("not found at %s", p)
	}
	l := NewLoader("/plugins/sbsar", []string{"engine.so"}, open, nil)

	_, err := l.Load()
	require.NoError(t, err)
}

func TestLoaderSkipsCandidateThatFailsInit(t *testing.T) {
	open := func(p string) (Renderer, error) {
		if strings.HasSuffix(p, "broken.so") {
			return &stubRenderer{initErr: fmt.Errorf("init failed")}, nil
		}
		return &stubRenderer{}, nil
	}
	l := NewLoader("/plugins/sbsar", []string{"broken.so", "fine.so"}, open, nil)

	r, err := l.Load()
	require.NoError(t, err)
	assert.NotNil(t, r)
}

func TestLoaderExhaustsAllCandidates(t *testing.T) {
	open := func(p string) (Renderer, error) { return nil, fmt.Errorf("never found") }
	l := NewLoader("/plugins/sbsar", []string{"a.so"}, open, nil)

	_, err := l.Load()
	assert.Error(t, err)
}

// --- Worker / Dispatcher ------------------------------------------------

type stubResolver struct{}

func (stubResolver) Resolve(ctx context.Context, p string) (string, error) { return p, nil }
func (stubResolver) OpenAsset(ctx context.Context, resolvedPath string) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader("sbsar-bytes")), nil
}

type stubLoaderPkg struct{}

func (stubLoaderPkg) Load(data []byte) (*pkgcache.PackageDesc, error) {
	return &pkgcache.PackageDesc{
		Graphs: []pkgcache.GraphDesc{
			{
				Identifier: "Wood",
				Outputs:    []pkgcache.OutputDesc{{Identifier: "baseColor_output", Usages: []string{"baseColor"}}},
			},
		},
	}, nil
}

type stubInputResolver struct{}

func (stubInputResolver) ResolveInputs(ctx context.Context, instance *pkgcache.GraphInstance, parsed *path.Parsed) (InputSet, error) {
	return InputSet{Canonical: parsed.Params.Canonical()}, nil
}

func newTestDispatcher(t *testing.T, renderer Renderer) (*Dispatcher, *Worker, context.CancelFunc) {
	t.Helper()
	pkgCache := pkgcache.New(stubLoaderPkg{}, stubResolver{}, 10)
	assetCache := assetcache.New(0)
	open := func(string) (Renderer, error) { return renderer, nil }
	loader := NewLoader("", []string{"engine.so"}, open, nil)
	worker := NewWorker(loader, pkgCache, assetCache, nil, stubInputResolver{}, nil)
	dispatcher := NewDispatcher(assetCache, worker, nil)

	ctx, cancel := context.WithCancel(context.Background())
	go worker.Run(ctx)
	return dispatcher, worker, cancel
}

func TestRenderAssetRendersOnce(t *testing.T) {
	renderer := &stubRenderer{}
	d, _, cancel := newTestDispatcher(t, renderer)
	defer cancel()

	ctx, timeout := context.WithTimeout(context.Background(), 5*time.Second)
	defer timeout()

	asset, err := d.RenderAsset(ctx, "/a/wood.sbsar", `graphs/Wood/images?usage=baseColor#params={}`)
	require.NoError(t, err)
	assert.Equal(t, []byte("rendered"), asset.Data)

	asset2, err := d.RenderAsset(ctx, "/a/wood.sbsar", `graphs/Wood/images?usage=baseColor#params={}`)
	require.NoError(t, err)
	assert.Equal(t, asset.Data, asset2.Data)
	assert.Equal(t, 1, renderer.rendered)
}

func TestRenderAssetRejectsBadPath(t *testing.T) {
	d, _, cancel := newTestDispatcher(t, &stubRenderer{})
	defer cancel()

	_, err := d.RenderAsset(context.Background(), "/a/wood.sbsar", "not-a-packaged-path")
	assert.Error(t, err)
}

func TestRenderAssetRespectsContextCancellation(t *testing.T) {
	// No worker running: nothing will ever render this request, so the
	// call must return once ctx is cancelled rather than block forever.
	pkgCache := pkgcache.New(stubLoaderPkg{}, stubResolver{}, 10)
	assetCache := assetcache.New(0)
	loader := NewLoader("", []string{"engine.so"}, func(string) (Renderer, error) { return &stubRenderer{}, nil }, nil)
	worker := NewWorker(loader, pkgCache, assetCache, nil, stubInputResolver{}, nil)
	dispatcher := NewDispatcher(assetCache, worker, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := dispatcher.RenderAsset(ctx, "/a/wood.sbsar", `graphs/Wood/images?usage=baseColor#params={}`)
	assert.Error(t, err)
}
