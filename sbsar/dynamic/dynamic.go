// Copyright © 2026 Adobe. All rights reserved.
// Use is governed by the Apache License, Version 2.0.

// Package dynamic implements the dynamic file-format-argument
// protocol: translating a prim's authored attributes into the
// canonical parameter JSON a packaged path carries, and translating
// that JSON back into the typed input set the rendering engine
// expects. Color-valued attributes are converted from the host's
// linear working space to the engine's sRGB convention by BuildParams
// (ResolveInputs passes the stored values through unchanged);
// image-valued attributes are routed through the image
// cache and recorded as a 64-bit hash rather than a path string.
package dynamic

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"math"
	"strconv"

	"github.com/adobe/usd-fileformat-plugins/host"
	"github.com/adobe/usd-fileformat-plugins/sbsar/engine"
	"github.com/adobe/usd-fileformat-plugins/sbsar/imgcache"
	"github.com/adobe/usd-fileformat-plugins/sbsar/path"
	"github.com/adobe/usd-fileformat-plugins/sbsar/pkgcache"
)

// LinearToSRGB converts one linear-light channel value to sRGB
// encoding, the IEC 61966-2-1 transfer function.
func LinearToSRGB(c float64) float64 {
	if c <= 0.0031308 {
		return c * 12.92
	}
	return 1.055*math.Pow(c, 1.0/2.4) - 0.055
}

// SRGBToLinear is the inverse of LinearToSRGB.
func SRGBToLinear(c float64) float64 {
	if c <= 0.04045 {
		return c / 12.92
	}
	return math.Pow((c+0.055)/1.055, 2.4)
}

// IsColorKind reports whether kind is one of the color input kinds
// ("color3"/"color4"), the ones BuildParams converts from the host's
// linear working space to the engine's sRGB convention.
func IsColorKind(kind string) bool {
	return kind == "color3" || kind == "color4"
}

// BuildParams reads primPath's authored attributes matching each
// input's identifier and encodes them into a canonical params object
// suitable for embedding in a packaged path's "params" segment.
// Unauthored inputs are omitted, letting the engine fall back to the
// package's default value.
func BuildParams(ctx context.Context, prims host.PrimReader, resolver host.AssetResolver, images *imgcache.Cache, primPath string, inputs []pkgcache.InputDesc) (*path.Object, error) {
	obj := path.NewObject()
	for _, input := range inputs {
		value, authored, err := prims.GetAttribute(primPath, input.Identifier)
		if err != nil {
			return nil, fmt.Errorf("dynamic: reading %s.%s: %w", primPath, input.Identifier, err)
		}
		if !authored {
			continue
		}
		encoded, err := encodeValue(ctx, resolver, images, input, value)
		if err != nil {
			return nil, err
		}
		obj.Set(input.Identifier, encoded)
	}
	return obj, nil
}

func encodeValue(ctx context.Context, resolver host.AssetResolver, images *imgcache.Cache, input pkgcache.InputDesc, value any) (path.Value, error) {
	switch input.Kind {
	case "image":
		assetPath, _ := value.(string)
		if assetPath == "" {
			return json.Number("0"), nil
		}
		resolved, err := resolver.Resolve(ctx, assetPath)
		if err != nil {
			return nil, fmt.Errorf("dynamic: resolving image input %s: %w", input.Identifier, err)
		}
		hash, err := images.Add(ctx, resolved)
		if err != nil {
			return nil, fmt.Errorf("dynamic: loading image input %s: %w", input.Identifier, err)
		}
		return json.Number(strconv.FormatUint(hash, 10)), nil
	case "string":
		s, _ := value.(string)
		return s, nil
	default:
		arr, err := toFloatSlice(value)
		if err != nil {
			return nil, fmt.Errorf("dynamic: input %s: %w", input.Identifier, err)
		}
		if IsColorKind(input.Kind) {
			for i := range arr {
				if input.Kind == "color4" && i == 3 {
					continue // alpha is not a color channel.
				}
				arr[i] = LinearToSRGB(arr[i])
			}
		}
		if len(arr) == 1 {
			return json.Number(strconv.FormatFloat(arr[0], 'g', -1, 64)), nil
		}
		return floatArray(arr), nil
	}
}

func toFloatSlice(value any) ([]float64, error) {
	switch v := value.(type) {
	case float64:
		return []float64{v}, nil
	case float32:
		return []float64{float64(v)}, nil
	case int:
		return []float64{float64(v)}, nil
	case []float64:
		return append([]float64(nil), v...), nil
	case []float32:
		out := make([]float64, len(v))
		for i, f := range v {
			out[i] = float64(f)
		}
		return out, nil
	case []int:
		out := make([]float64, len(v))
		for i, n := range v {
			out[i] = float64(n)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported attribute value type %T", value)
	}
}

func floatArray(vs []float64) []path.Value {
	out := make([]path.Value, len(vs))
	for i, v := range vs {
		out[i] = json.Number(strconv.FormatFloat(v, 'g', -1, 64))
	}
	return out
}

// Resolver implements engine.InputResolver: it reads a graph instance's
// canonical parameter JSON (the same JSON BuildParams produced) and
// coerces it into the typed InputSet the rendering engine expects,
// looking up image inputs in the image cache by their recorded hash.
type Resolver struct {
	images *imgcache.Cache
}

// NewResolver returns a Resolver backed by images.
func NewResolver(images *imgcache.Cache) *Resolver {
	return &Resolver{images: images}
}

// ResolveInputs implements engine.InputResolver.
func (r *Resolver) ResolveInputs(ctx context.Context, instance *pkgcache.GraphInstance, parsed *path.Parsed) (engine.InputSet, error) {
	set := engine.InputSet{
		Floats:    map[string][]float64{},
		Ints:      map[string][]int{},
		Strings:   map[string]string{},
		Images:    map[string]image.Image{},
		Canonical: parsed.Params.Canonical(),
	}
	for _, input := range instance.Graph.Inputs {
		v, ok := parsed.Params.Get(input.Identifier)
		if !ok {
			continue
		}
		switch input.Kind {
		case "string":
			s, _ := v.(string)
			set.Strings[input.Identifier] = s
		case "image":
			hash, ok := path.AsInt(v)
			if !ok || hash == 0 {
				set.Images[input.Identifier] = nil
				continue
			}
			set.Images[input.Identifier] = r.images.Get(uint64(hash))
		case "integer", "integer2", "integer3", "integer4":
			if arr, ok := path.AsIntArray(v); ok {
				set.Ints[input.Identifier] = arr
			} else if n, ok := path.AsInt(v); ok {
				set.Ints[input.Identifier] = []int{n}
			}
		default:
			if arr, ok := path.AsFloatArray(v); ok {
				set.Floats[input.Identifier] = arr
			} else if f, ok := path.AsFloat(v); ok {
				set.Floats[input.Identifier] = []float64{f}
			}
		}
	}
	return set, nil
}
