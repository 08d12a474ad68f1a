// Copyright © 2026 Adobe. All rights reserved.
// Use is governed by the Apache License, Version 2.0.

package engine

import (
	"context"
	"runtime"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/adobe/usd-fileformat-plugins/sbsar/assetcache"
	"github.com/adobe/usd-fileformat-plugins/sbsar/imgcache"
	"github.com/adobe/usd-fileformat-plugins/sbsar/path"
	"github.com/adobe/usd-fileformat-plugins/sbsar/pkgcache"
)

const idleTimeout = 30 * time.Second

// requestKey coalesces requests for the exact same packaged path: two
// callers asking for the same (packagePath, packagedPath) share one
// render.
type requestKey struct {
	packagePath  string
	packagedPath string
}

// Worker owns the engine instance and the single goroutine allowed to
// call into it. Requests are queued by Enqueue and processed one at a
// time; every waiter is woken after each request completes so it can
// recheck the asset cache.
type Worker struct {
	mu      sync.Mutex
	pending map[requestKey]*path.Parsed
	wake    chan struct{}
	submit  chan struct{}

	loader     *Loader
	pkgCache   *pkgcache.Cache
	assetCache *assetcache.Cache
	imgCache   *imgcache.Cache
	resolver   InputResolver
	logger     *zap.Logger
}

// InputResolver builds an InputSet for a graph instance from the
// packaged path's parameters, resolving any image inputs through the
// image cache. It is implemented by sbsar/dynamic.
type InputResolver interface {
	ResolveInputs(ctx context.Context, instance *pkgcache.GraphInstance, parsed *path.Parsed) (InputSet, error)
}

// NewWorker returns a Worker. logger may be nil.
func NewWorker(loader *Loader, pkgCache *pkgcache.Cache, assetCache *assetcache.Cache, imgCache *imgcache.Cache, resolver InputResolver, logger *zap.Logger) *Worker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Worker{
		pending:    map[requestKey]*path.Parsed{},
		wake:       make(chan struct{}),
		submit:     make(chan struct{}, 1),
		loader:     loader,
		pkgCache:   pkgCache,
		assetCache: assetCache,
		imgCache:   imgCache,
		resolver:   resolver,
		logger:     logger,
	}
}

// Wake returns the channel waiters should select on: it is closed
// every time a request finishes (whether or not it produced a result),
// and replaced immediately after.
func (w *Worker) Wake() <-chan struct{} {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.wake
}

func (w *Worker) broadcastLocked() {
	close(w.wake)
	w.wake = make(chan struct{})
}

// Enqueue registers a render request for (packagePath, packagedPath) if
// one isn't already pending, and nudges the worker loop awake.
func (w *Worker) Enqueue(packagePath, packagedPath string, parsed *path.Parsed) {
	w.mu.Lock()
	key := requestKey{packagePath, packagedPath}
	if _, exists := w.pending[key]; !exists {
		w.pending[key] = parsed
	}
	w.mu.Unlock()

	select {
	case w.submit <- struct{}{}:
	default:
	}
}

// Run is the worker's main loop. It loads the engine once, inside this
// goroutine (native rendering contexts are frequently thread-affine),
// then alternates between draining pending requests and idling until
// the next submission or a 30-second timeout, whichever comes first.
// Run returns when ctx is cancelled, releasing the engine.
//
// Run must be started with `go worker.Run(ctx)`: it locks its goroutine
// to the underlying OS thread for its entire lifetime, so a
// cgo/plugin-backed Renderer's native context is never migrated to a
// different thread by the Go scheduler.
func (w *Worker) Run(ctx context.Context) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	renderer, err := w.loader.Load()
	if err != nil {
		w.logger.Error("engine: worker could not start, no engine available", zap.Error(err))
		return err
	}
	defer renderer.Close()

	idle := time.NewTimer(idleTimeout)
	defer idle.Stop()

	for {
		w.drain(ctx, renderer)

		if !idle.Stop() {
			select {
			case <-idle.C:
			default:
			}
		}
		idle.Reset(idleTimeout)

		select {
		case <-ctx.Done():
			return nil
		case <-w.submit:
		case <-idle.C:
		}
	}
}

func (w *Worker) drain(ctx context.Context, renderer Renderer) {
	for {
		w.mu.Lock()
		var key requestKey
		var parsed *path.Parsed
		found := false
		for k, p := range w.pending {
			key, parsed, found = k, p, true
			break
		}
		w.mu.Unlock()
		if !found {
			return
		}

		w.process(ctx, renderer, key, parsed)

		w.mu.Lock()
		delete(w.pending, key)
		w.broadcastLocked()
		w.mu.Unlock()

		// Give waiters a chance to consume the result before the next
		// request starts.
		runtime.Gosched()
	}
}

func (w *Worker) process(ctx context.Context, renderer Renderer, key requestKey, parsed *path.Parsed) {
	cacheKey := assetcache.Key{PackageHash: parsed.PackageHash, GraphName: parsed.GraphName, Params: parsed.Params.Canonical()}
	if w.assetCache.HasResult(cacheKey) {
		w.logger.Debug("engine: result already cached, skipping render",
			zap.String("package", key.packagePath), zap.String("path", key.packagedPath))
		return
	}

	instance, err := w.pkgCache.GetGraphInstance(ctx, key.packagePath, parsed)
	if err != nil {
		w.logger.Warn("engine: could not resolve graph instance", zap.Error(err),
			zap.String("package", key.packagePath), zap.String("path", key.packagedPath))
		return
	}

	inputs, err := w.resolver.ResolveInputs(ctx, instance, parsed)
	if err != nil {
		w.logger.Warn("engine: could not resolve inputs", zap.Error(err),
			zap.String("package", key.packagePath), zap.String("path", key.packagedPath))
		return
	}

	// instance.LastInputParameters() lets renderer.Render decide, per
	// output, whether an unchanged input set means a previous result
	// can be reused instead of re-evaluated.
	result, err := renderer.Render(ctx, instance, inputs)
	if err != nil {
		w.logger.Error("engine: render failed", zap.Error(err),
			zap.String("package", key.packagePath), zap.String("path", key.packagedPath))
		return
	}
	instance.SetLastInputParameters(inputs.Canonical)
	// Store each output under every one of its usages as well as its
	// identifier, sharing the same value, so usage= and identifier=
	// lookups both hit.
	for _, out := range instance.Graph.Outputs {
		for _, usage := range out.Usages {
			if a, ok := result.Assets[out.Identifier]; ok {
				result.Assets[usage] = a
			}
			if v, ok := result.Numerics[out.Identifier]; ok {
				result.Numerics[usage] = v
			}
		}
	}
	w.assetCache.AddResult(cacheKey, result)
}
