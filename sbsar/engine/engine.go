// Copyright © 2026 Adobe. All rights reserved.
// Use is governed by the Apache License, Version 2.0.

// Package engine drives the procedural-rendering engine: a single
// long-lived worker goroutine owns the native renderer and a
// dispatcher lets many callers request renders concurrently,
// coalescing requests for the same package/path and blocking callers
// until the render they're waiting on completes.
package engine

import (
	"context"
	"image"

	"github.com/adobe/usd-fileformat-plugins/sbsar/assetcache"
	"github.com/adobe/usd-fileformat-plugins/sbsar/pkgcache"
)

// Renderer is the procedural-rendering engine itself. The concrete
// implementation binds to the native engine library discovered by
// Loader; it is an external collaborator this package only depends on
// through this interface, the same way formats/fbx treats the FBX SDK
// as an external collaborator behind ImportExporter.
type Renderer interface {
	// Init prepares the engine for rendering. Called once, on the
	// worker goroutine, immediately after the backing library loads.
	Init() error
	// Close releases the engine. Called once, when the worker shuts
	// down.
	Close() error
	// Render evaluates one graph instance's inputs and returns every
	// output it produces — not just the one the request asked for, so
	// a single render satisfies every other pending request for
	// outputs of the same graph instance at the same parameters.
	Render(ctx context.Context, instance *pkgcache.GraphInstance, inputs InputSet) (assetcache.RenderResult, error)
}

// InputSet is the fully-resolved set of values to assign to a graph
// instance's inputs before rendering: the dynamic file-format-argument
// protocol (sbsar/dynamic) builds this from authored prim attributes,
// already coerced to the shapes the engine's typed setters expect.
type InputSet struct {
	// Floats/Ints/Strings map input identifier to a scalar or
	// fixed-size numeric array (len 1-4) or string value.
	Floats  map[string][]float64
	Ints    map[string][]int
	Strings map[string]string
	// Images maps input identifier to a decoded input image, or to nil
	// to clear a previously set image input.
	Images map[string]image.Image
	// Canonical is the canonical JSON of the parameters that produced
	// this InputSet, used as the render-result cache key and recorded
	// on the graph instance so an unchanged render can be skipped.
	Canonical string
}
