// Copyright © 2026 Adobe. All rights reserved.
// Use is governed by the Apache License, Version 2.0.

package dynamic

import (
	"context"
	"encoding/json"
	"image"
	"image/color"
	"io"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adobe/usd-fileformat-plugins/sbsar/imgcache"
	"github.com/adobe/usd-fileformat-plugins/sbsar/path"
	"github.com/adobe/usd-fileformat-plugins/sbsar/pkgcache"
)

func jsonNumberOf(h uint64) json.Number {
	return json.Number(strconv.FormatUint(h, 10))
}

type stubPrims struct {
	attrs map[string]any
}

func (p stubPrims) GetAttribute(primPath, attrName string) (any, bool, error) {
	v, ok := p.attrs[attrName]
	return v, ok, nil
}

type stubResolver struct{}

func (stubResolver) Resolve(ctx context.Context, p string) (string, error) { return p, nil }
func (stubResolver) OpenAsset(ctx context.Context, resolvedPath string) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader("pixels")), nil
}

func decodeFixed(data []byte) (image.Image, error) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.White)
	return img, nil
}

func TestBuildParamsConvertsColorToSRGB(t *testing.T) {
	prims := stubPrims{attrs: map[string]any{"tint": []float64{0.5, 0.5, 0.5}}}
	inputs := []pkgcache.InputDesc{{Identifier: "tint", Kind: "color3"}}

	obj, err := BuildParams(context.Background(), prims, stubResolver{}, nil, "/Mat", inputs)
	require.NoError(t, err)

	v, ok := obj.Get("tint")
	require.True(t, ok)
	arr, ok := path.AsFloatArray(v)
	require.True(t, ok)
	assert.InDelta(t, LinearToSRGB(0.5), arr[0], 1e-9)
}

func TestBuildParamsSkipsUnauthoredInputs(t *testing.T) {
	prims := stubPrims{attrs: map[string]any{}}
	inputs := []pkgcache.InputDesc{{Identifier: "roughness", Kind: "float"}}

	obj, err := BuildParams(context.Background(), prims, stubResolver{}, nil, "/Mat", inputs)
	require.NoError(t, err)
	_, ok := obj.Get("roughness")
	assert.False(t, ok)
}

func TestBuildParamsRoutesImageThroughCache(t *testing.T) {
	images := imgcache.New(stubResolver{}, decodeFixed, 0)
	prims := stubPrims{attrs: map[string]any{"normal": "/tex/normal.png"}}
	inputs := []pkgcache.InputDesc{{Identifier: "normal", Kind: "image"}}

	obj, err := BuildParams(context.Background(), prims, stubResolver{}, images, "/Mat", inputs)
	require.NoError(t, err)

	v, ok := obj.Get("normal")
	require.True(t, ok)
	hash, ok := path.AsInt(v)
	require.True(t, ok)
	assert.Equal(t, int(imgcache.HashPath("/tex/normal.png")), hash)
}

func TestResolveInputsCoercesFloatsAndStrings(t *testing.T) {
	images := imgcache.New(stubResolver{}, decodeFixed, 0)
	r := NewResolver(images)

	params, err := path.ParseObject(`{"roughness":0.2,"label":"wood"}`)
	require.NoError(t, err)
	parsed := &path.Parsed{GraphName: "Wood", Usage: "baseColor", Params: params}
	instance := &pkgcache.GraphInstance{
		Graph: pkgcache.GraphDesc{
			Inputs: []pkgcache.InputDesc{
				{Identifier: "roughness", Kind: "float"},
				{Identifier: "label", Kind: "string"},
			},
		},
	}

	set, err := r.ResolveInputs(context.Background(), instance, parsed)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.2}, set.Floats["roughness"])
	assert.Equal(t, "wood", set.Strings["label"])
}

func TestResolveInputsLooksUpImageByHash(t *testing.T) {
	images := imgcache.New(stubResolver{}, decodeFixed, 0)
	hash, err := images.Add(context.Background(), "/tex/a.png")
	require.NoError(t, err)

	params, err := path.ParseObject(`{}`)
	require.NoError(t, err)
	params.Set("albedo", jsonNumberOf(hash))
	parsed := &path.Parsed{GraphName: "Wood", Usage: "baseColor", Params: params}
	instance := &pkgcache.GraphInstance{
		Graph: pkgcache.GraphDesc{Inputs: []pkgcache.InputDesc{{Identifier: "albedo", Kind: "image"}}},
	}

	r := NewResolver(images)
	set, err := r.ResolveInputs(context.Background(), instance, parsed)
	require.NoError(t, err)
	assert.NotNil(t, set.Images["albedo"])
}
