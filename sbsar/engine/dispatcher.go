// Copyright © 2026 Adobe. All rights reserved.
// Use is governed by the Apache License, Version 2.0.

package engine

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/adobe/usd-fileformat-plugins/sbsar/assetcache"
	"github.com/adobe/usd-fileformat-plugins/sbsar/path"
)

// Dispatcher is the entry point the USD host's dynamic file-format
// argument resolution calls into: it turns a packaged path into a
// rendered image or value, checking the result cache first and
// otherwise blocking until the worker renders it.
type Dispatcher struct {
	assetCache *assetcache.Cache
	worker     *Worker
	logger     *zap.Logger
}

// NewDispatcher returns a Dispatcher. logger may be nil.
func NewDispatcher(assetCache *assetcache.Cache, worker *Worker, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{assetCache: assetCache, worker: worker, logger: logger}
}

func cacheKeyFor(parsed *path.Parsed) assetcache.Key {
	return assetcache.Key{PackageHash: parsed.PackageHash, GraphName: parsed.GraphName, Params: parsed.Params.Canonical()}
}

// RenderAsset resolves a packaged path naming an image output,
// rendering it if it isn't already cached. It blocks until a result is
// available or ctx is cancelled.
func (d *Dispatcher) RenderAsset(ctx context.Context, packagePath, packagedPath string) (assetcache.Asset, error) {
	parsed, err := path.Parse(packagedPath)
	if err != nil {
		d.logger.Warn("engine: error parsing packaged path", zap.String("path", packagedPath), zap.Error(err))
		return assetcache.Asset{}, err
	}
	key := cacheKeyFor(parsed)

	if asset, ok := d.assetCache.GetAsset(key, parsed.Usage); ok {
		return asset, nil
	}
	if _, ok := d.assetCache.GetNumeric(key, parsed.Usage); ok {
		return assetcache.Asset{}, fmt.Errorf("engine: %s is cached as a numeric value, not an asset", packagedPath)
	}

	requestID := uuid.NewString()
	d.logger.Debug("engine: cache miss, enqueuing render", zap.String("requestID", requestID),
		zap.String("package", packagePath), zap.String("path", packagedPath))

	wake := d.worker.Wake()
	d.worker.Enqueue(packagePath, packagedPath, parsed)

	for {
		select {
		case <-wake:
		case <-ctx.Done():
			return assetcache.Asset{}, ctx.Err()
		}
		if asset, ok := d.assetCache.GetAsset(key, parsed.Usage); ok {
			return asset, nil
		}
		if _, ok := d.assetCache.GetNumeric(key, parsed.Usage); ok {
			d.logger.Warn("engine: requested result is not of the right kind",
				zap.String("package", packagePath), zap.String("path", packagedPath))
			return assetcache.Asset{}, fmt.Errorf("engine: %s rendered as a numeric value, not an asset", packagedPath)
		}
		wake = d.worker.Wake()
	}
}

// RenderNumeric resolves a packaged path naming a scalar/vector output,
// the numeric counterpart of RenderAsset.
func (d *Dispatcher) RenderNumeric(ctx context.Context, packagePath, packagedPath string) (any, error) {
	parsed, err := path.Parse(packagedPath)
	if err != nil {
		d.logger.Warn("engine: error parsing packaged path", zap.String("path", packagedPath), zap.Error(err))
		return nil, err
	}
	key := cacheKeyFor(parsed)

	if v, ok := d.assetCache.GetNumeric(key, parsed.Usage); ok {
		return v, nil
	}
	if _, ok := d.assetCache.GetAsset(key, parsed.Usage); ok {
		return nil, fmt.Errorf("engine: %s is cached as an asset, not a numeric value", packagedPath)
	}

	requestID := uuid.NewString()
	d.logger.Debug("engine: cache miss, enqueuing render", zap.String("requestID", requestID),
		zap.String("package", packagePath), zap.String("path", packagedPath))

	wake := d.worker.Wake()
	d.worker.Enqueue(packagePath, packagedPath, parsed)

	for {
		select {
		case <-wake:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		if v, ok := d.assetCache.GetNumeric(key, parsed.Usage); ok {
			return v, nil
		}
		if _, ok := d.assetCache.GetAsset(key, parsed.Usage); ok {
			d.logger.Warn("engine: requested result is not of the right kind",
				zap.String("package", packagePath), zap.String("path", packagedPath))
			return nil, fmt.Errorf("engine: %s rendered as an asset, not a numeric value", packagedPath)
		}
		wake = d.worker.Wake()
	}
}
