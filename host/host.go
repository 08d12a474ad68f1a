// Copyright © 2026 Adobe. All rights reserved.
// Use is governed by the Apache License, Version 2.0.

// Package host defines the narrow slice of the USD host surface the
// sbsar and mesh-format plugins depend on. It is an interface-only
// package: the concrete implementation is always the surrounding USD
// host process (a real AssetResolver backed by Ar, a real PrimReader
// backed by UsdStage) — an external collaborator this package only
// describes the shape of, generalized the way render.Renderer
// (render/render.go) separates its contract from the concrete
// OpenGL/Vulkan backends that satisfy it.
package host

import (
	"context"
	"io"
	"strconv"
	"strings"
)

// AssetResolver opens and reads package-relative assets by resolved
// path, the host-side half of packaged-path resolution.
type AssetResolver interface {
	// Resolve turns a (possibly relative) asset path into an
	// absolute/canonical one the host understands.
	Resolve(ctx context.Context, path string) (string, error)
	// OpenAsset returns a reader for the resolved path's bytes. Callers
	// must Close the returned reader.
	OpenAsset(ctx context.Context, resolvedPath string) (io.ReadCloser, error)
}

// PrimReader reads a single attribute's current value off a prim, used
// by the dynamic file-format-argument protocol (sbsar/dynamic) to
// discover which graph inputs a consumer has already authored.
type PrimReader interface {
	// GetAttribute returns the named attribute's value and whether it is
	// authored at all (false, nil when the attribute does not exist or
	// carries no opinion).
	GetAttribute(primPath, attrName string) (value any, authored bool, err error)
}

// FileFormatArgs is the recognized-key table for file-format arguments
// passed on a packaged path or dynamic-argument dictionary. Unknown keys
// are ignored by every consumer of this struct; it is populated from a
// raw key=value map by ParseFileFormatArgs.
type FileFormatArgs struct {
	WriteMaterialX         bool
	WriteASM               bool
	WriteUsdPreviewSurface bool
	Depth                  int
	SbsarParameters        string // raw JSON, decoded by sbsar/dynamic.

	// Mesh/point-cloud format arguments (OBJ/PLY/SPZ).
	PlyPoints               bool
	PlyPointWidth           float64
	PlyWithUpAxisCorrection bool
	PlyGsplatsClippingBox   []float64
	SpzGsplatsWithZup       bool
	SpzGsplatsClippingBox   []float64
}

// DefaultFileFormatArgs returns the zero-valued defaults: Depth defaults
// to 0, every bool defaults to false.
func DefaultFileFormatArgs() FileFormatArgs {
	return FileFormatArgs{}
}

// ParseFileFormatArgs builds a FileFormatArgs from a raw key=value map
// of file-format arguments, ignoring any key it does not recognize.
func ParseFileFormatArgs(raw map[string]string) FileFormatArgs {
	args := DefaultFileFormatArgs()
	for k, v := range raw {
		switch k {
		case "writeMaterialX":
			args.WriteMaterialX = parseBool(v)
		case "writeASM":
			args.WriteASM = parseBool(v)
		case "writeUsdPreviewSurface":
			args.WriteUsdPreviewSurface = parseBool(v)
		case "depth":
			args.Depth = parseInt(v)
		case "sbsarParameters":
			args.SbsarParameters = v
		case "plyPoints":
			args.PlyPoints = parseBool(v)
		case "plyPointWidth":
			args.PlyPointWidth = parseFloat(v)
		case "plyWithUpAxisCorrection":
			args.PlyWithUpAxisCorrection = parseBool(v)
		case "plyGsplatsClippingBox":
			args.PlyGsplatsClippingBox = parseFloatList(v)
		case "spzGsplatsWithZup":
			args.SpzGsplatsWithZup = parseBool(v)
		case "spzGsplatsClippingBox":
			args.SpzGsplatsClippingBox = parseFloatList(v)
		}
		// Unknown arguments are ignored.
	}
	return args
}

func parseBool(v string) bool {
	b, _ := strconv.ParseBool(v)
	return b
}

func parseInt(v string) int {
	n, _ := strconv.Atoi(v)
	return n
}

func parseFloat(v string) float64 {
	f, _ := strconv.ParseFloat(v, 64)
	return f
}

func parseFloatList(v string) []float64 {
	var out []float64
	for _, tok := range strings.Split(v, ",") {
		if tok == "" {
			continue
		}
		out = append(out, parseFloat(tok))
	}
	return out
}
