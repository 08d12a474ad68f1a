// Copyright © 2026 Adobe. All rights reserved.
// Use is governed by the Apache License, Version 2.0.

// Package pkgcache caches parsed package descriptors and the graph
// instances created from them, keyed by resolved package path. Reading
// and parsing an .sbsar's binary layout is expensive enough (and owned
// by an external engine library, see sbsar/engine) that every render
// request funnels through this cache instead of re-parsing the package.
package pkgcache

import (
	"context"
	"fmt"
	"hash/crc64"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/adobe/usd-fileformat-plugins/host"
	"github.com/adobe/usd-fileformat-plugins/sbsar/path"
	"github.com/adobe/usd-fileformat-plugins/sbsar/symbol"
)

const defaultGraphIdentifier = "__default__"

var contentHashTable = crc64.MakeTable(crc64.ISO)

func contentHashOf(data []byte) uint64 {
	return crc64.Checksum(data, contentHashTable)
}

// InputDesc describes one graph input, enough for the dynamic
// file-format-argument protocol to discover and set it, and for
// sbsar/layer to declare it on a generated class prim with its
// authoring hints intact.
type InputDesc struct {
	Identifier string
	Label      string
	Kind       string // "float"|"float2"|"float3"|"float4"|"color3"|"color4"|"integer"|"integer2"|"integer3"|"integer4"|"string"|"image"

	// WidgetHint is the package's declared editing widget (e.g.
	// "slider", "angle", "togglebutton", "combobox"), carried through
	// for hosts that render a custom authoring UI; empty when the
	// package declares no widget for this input.
	WidgetHint string

	// Default is the package-declared default value, in the same
	// linear working space BuildParams expects of an authored value:
	// float64/[]float64 for numeric and color kinds, string for
	// "string", nil for "image" (an unset image input has no default
	// asset path). Nil means the package itself declares none.
	Default any

	// Min and Max are the package-declared numeric range, nil if the
	// input doesn't declare one or isn't numeric.
	Min, Max *float64
}

// OutputDesc describes one graph output image and the render usages
// (channels) it can satisfy.
type OutputDesc struct {
	Identifier string
	Usages     []string
}

// GraphDesc describes one procedural graph inside a package.
type GraphDesc struct {
	Identifier string // raw graph identifier as stored in the package.
	Name       string // USD-legal name used for packaged-path matching.
	Inputs     []InputDesc
	Outputs    []OutputDesc
}

// PackageDesc is a parsed package: every graph it defines.
type PackageDesc struct {
	Graphs []GraphDesc
}

// Loader parses raw package bytes into a PackageDesc. The real
// implementation is backed by the procedural-rendering engine
// (sbsar/engine), an external collaborator this package only depends on
// through this narrow interface.
type Loader interface {
	Load(data []byte) (*PackageDesc, error)
}

// GraphInstance is one graph's standing render state: its descriptor
// and the canonical input-parameter JSON it was last rendered with, so
// sbsar/engine can skip re-rendering an output whose inputs haven't
// changed.
type GraphInstance struct {
	mu                  sync.Mutex
	Package             *PackageDesc
	Graph               GraphDesc
	lastInputParameters string
}

// LastInputParameters returns the canonical parameter JSON this
// instance was last rendered with.
func (g *GraphInstance) LastInputParameters() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lastInputParameters
}

// SetLastInputParameters records the canonical parameter JSON used for
// the most recent render.
func (g *GraphInstance) SetLastInputParameters(params string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lastInputParameters = params
}

type cacheEntry struct {
	pkg         *PackageDesc
	contentHash uint64
	loadErr     error
	instances   map[string]*GraphInstance
	lastAccess  time.Time
}

// Cache holds parsed packages and their graph instances, bounded to a
// maximum package count with oldest-last-access eviction.
type Cache struct {
	mu          sync.Mutex
	loader      Loader
	resolver    host.AssetResolver
	maxPackages int
	entries     map[string]*cacheEntry
}

// New returns an empty Cache. maxPackages <= 0 defaults to 10.
func New(loader Loader, resolver host.AssetResolver, maxPackages int) *Cache {
	if maxPackages <= 0 {
		maxPackages = 10
	}
	return &Cache{
		loader:      loader,
		resolver:    resolver,
		maxPackages: maxPackages,
		entries:     map[string]*cacheEntry{},
	}
}

func normalizePath(p string) string {
	return strings.ReplaceAll(p, "\\", "/")
}

func (c *Cache) loadEntry(ctx context.Context, resolvedPackagePath string) (*cacheEntry, error) {
	norm := normalizePath(resolvedPackagePath)
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[norm]
	if !ok {
		entry = &cacheEntry{instances: map[string]*GraphInstance{}}
		reader, err := c.resolver.OpenAsset(ctx, norm)
		if err != nil {
			entry.loadErr = fmt.Errorf("pkgcache: could not open package %s: %w", norm, err)
		} else {
			defer reader.Close()
			data, err := io.ReadAll(reader)
			if err != nil {
				entry.loadErr = fmt.Errorf("pkgcache: could not read package %s: %w", norm, err)
			} else {
				entry.contentHash = contentHashOf(data)
				entry.pkg, entry.loadErr = c.loader.Load(data)
				if entry.loadErr == nil {
					assignGraphNames(entry.pkg)
				}
			}
		}
		c.entries[norm] = entry
	}
	entry.lastAccess = time.Now()

	if len(c.entries) > c.maxPackages {
		c.evictOldestLocked()
	}
	return entry, entry.loadErr
}

func (c *Cache) evictOldestLocked() {
	var oldestKey string
	var oldest time.Time
	for k, e := range c.entries {
		if oldestKey == "" || e.lastAccess.Before(oldest) {
			oldestKey = k
			oldest = e.lastAccess
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}

// GetDescriptor returns the parsed package and its content hash,
// loading and caching it on first use.
func (c *Cache) GetDescriptor(ctx context.Context, resolvedPackagePath string) (*PackageDesc, uint64, error) {
	entry, err := c.loadEntry(ctx, resolvedPackagePath)
	if err != nil {
		return nil, 0, err
	}
	return entry.pkg, entry.contentHash, nil
}

// GetParameterList returns every input descriptor across every graph in
// the package, flattened, for host-side discovery of authorable
// attributes.
func (c *Cache) GetParameterList(ctx context.Context, resolvedPackagePath string) ([]InputDesc, error) {
	pkg, _, err := c.GetDescriptor(ctx, resolvedPackagePath)
	if err != nil {
		return nil, err
	}
	var params []InputDesc
	for _, g := range pkg.Graphs {
		params = append(params, g.Inputs...)
	}
	return params, nil
}

// GetGraphInstance returns the cached graph instance selected by
// parsed.GraphName, creating it on first use. A graph named
// "__default__" selects the package's first graph.
func (c *Cache) GetGraphInstance(ctx context.Context, resolvedPackagePath string, parsed *path.Parsed) (*GraphInstance, error) {
	entry, err := c.loadEntry(ctx, resolvedPackagePath)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	key := parsed.GraphName
	if instance, ok := entry.instances[key]; ok {
		return instance, nil
	}

	graph, err := findSelectedGraph(parsed.GraphName, entry.pkg.Graphs)
	if err != nil {
		return nil, err
	}
	if err := checkSelectedOutput(parsed, graph); err != nil {
		return nil, err
	}

	instance := &GraphInstance{Package: entry.pkg, Graph: graph}
	entry.instances[key] = instance
	return instance, nil
}

// Clear empties the cache, releasing every parsed package and instance.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = map[string]*cacheEntry{}
}

func findSelectedGraph(graphName string, graphs []GraphDesc) (GraphDesc, error) {
	if graphName == defaultGraphIdentifier {
		if len(graphs) == 0 {
			return GraphDesc{}, fmt.Errorf("pkgcache: package has no graphs")
		}
		return graphs[0], nil
	}
	for _, g := range graphs {
		if g.Name == graphName {
			return g, nil
		}
	}
	return GraphDesc{}, fmt.Errorf("pkgcache: no graph named %q", graphName)
}

func checkSelectedOutput(parsed *path.Parsed, graph GraphDesc) error {
	for _, o := range graph.Outputs {
		if parsed.BindKind == path.BindIdentifier && o.Identifier == parsed.Usage {
			return nil
		}
		if parsed.BindKind == path.BindUsage {
			for _, usage := range o.Usages {
				if usage == parsed.Usage {
					return nil
				}
			}
		}
	}
	return fmt.Errorf("pkgcache: no output satisfies %s=%s on graph %q", parsed.BindKind, parsed.Usage, graph.Name)
}

// assignGraphNames gives every graph a USD-legal, collision-free Name
// derived from its raw Identifier, matching the mapping applied to the
// graph's own inputs/outputs elsewhere in the host-generation pipeline.
func assignGraphNames(pkg *PackageDesc) {
	mapper := symbol.NewMapper()
	for i := range pkg.Graphs {
		pkg.Graphs[i].Name = mapper.Get(pkg.Graphs[i].Identifier).USDName
	}
}
