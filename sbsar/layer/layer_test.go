// Copyright © 2026 Adobe. All rights reserved.
// Use is governed by the Apache License, Version 2.0.

package layer

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adobe/usd-fileformat-plugins/sbsar/pkgcache"
)

type stubResolver struct {
	thumbnails map[string]bool
}

func (r stubResolver) Resolve(ctx context.Context, p string) (string, error) { return p, nil }

func (r stubResolver) OpenAsset(ctx context.Context, resolvedPath string) (io.ReadCloser, error) {
	if strings.HasPrefix(resolvedPath, "wood.sbsar") {
		return io.NopCloser(strings.NewReader("package-bytes")), nil
	}
	if r.thumbnails[resolvedPath] {
		return io.NopCloser(strings.NewReader("png-bytes")), nil
	}
	return nil, io.ErrUnexpectedEOF
}

type stubLoader struct{ desc *pkgcache.PackageDesc }

func (l stubLoader) Load(data []byte) (*pkgcache.PackageDesc, error) { return l.desc, nil }

func twoGraphPackage() *pkgcache.PackageDesc {
	return &pkgcache.PackageDesc{
		Graphs: []pkgcache.GraphDesc{
			{
				Identifier: "Wood",
				Inputs: []pkgcache.InputDesc{
					{Identifier: "tint", Label: "Tint", Kind: "color3"},
					{Identifier: "roughness", Kind: "float"},
				},
				Outputs: []pkgcache.OutputDesc{
					{Identifier: "baseColor_output", Usages: []string{"baseColor"}},
					{Identifier: "roughness_output", Usages: []string{"roughness"}},
				},
			},
			{
				Identifier: "Sun",
				Inputs:     []pkgcache.InputDesc{{Identifier: "intensity", Kind: "float"}},
				Outputs:    []pkgcache.OutputDesc{{Identifier: "light_output", Usages: []string{"light"}}},
			},
		},
	}
}

func TestGenerateEmitsClassAndPrimPerGraph(t *testing.T) {
	cache := pkgcache.New(stubLoader{desc: twoGraphPackage()}, stubResolver{}, 10)

	out, err := Generate(context.Background(), cache, stubResolver{}, "wood.sbsar", "wood.sbsar")
	require.NoError(t, err)

	assert.Contains(t, out, `class "_class_Wood"`)
	assert.Contains(t, out, `def "Wood"`)
	assert.Contains(t, out, `inherits = </_class_Wood>`)
	assert.Contains(t, out, "uniform color3f inputs:tint")
	assert.Contains(t, out, `displayName = "Tint"`)
}

func TestGenerateEmitsDefaultRangeAndColorSpace(t *testing.T) {
	minV, maxV := 0.0, 1.0
	desc := &pkgcache.PackageDesc{
		Graphs: []pkgcache.GraphDesc{
			{
				Identifier: "Wood",
				Inputs: []pkgcache.InputDesc{
					{Identifier: "tint", Label: "Tint", Kind: "color3", Default: []float64{0.8, 0.2, 0.1}},
					{Identifier: "roughness", Kind: "float", Default: 0.5, WidgetHint: "slider", Min: &minV, Max: &maxV},
				},
				Outputs: []pkgcache.OutputDesc{{Identifier: "baseColor_output", Usages: []string{"baseColor"}}},
			},
		},
	}
	cache := pkgcache.New(stubLoader{desc: desc}, stubResolver{}, 10)

	out, err := Generate(context.Background(), cache, stubResolver{}, "wood.sbsar", "wood.sbsar")
	require.NoError(t, err)

	assert.Contains(t, out, "uniform color3f inputs:tint = (0.8, 0.2, 0.1)")
	assert.Contains(t, out, `colorSpace = "lin_srgb"`)
	assert.Contains(t, out, "uniform float inputs:roughness = 0.5")
	assert.Contains(t, out, `string widget = "slider"`)
	assert.Contains(t, out, "double min = 0")
	assert.Contains(t, out, "double max = 1")
}

func TestGenerateClassifiesLightGraph(t *testing.T) {
	cache := pkgcache.New(stubLoader{desc: twoGraphPackage()}, stubResolver{}, 10)

	out, err := Generate(context.Background(), cache, stubResolver{}, "wood.sbsar", "wood.sbsar")
	require.NoError(t, err)

	assert.Contains(t, out, `def Shader "Light"`)
	assert.Contains(t, out, `info:id = "UsdLuxSphereLight"`)
}

func TestGenerateSelectsDefaultPrimByFileName(t *testing.T) {
	cache := pkgcache.New(stubLoader{desc: twoGraphPackage()}, stubResolver{}, 10)

	out, err := Generate(context.Background(), cache, stubResolver{}, "/assets/sun.sbsar", "wood.sbsar")
	require.NoError(t, err)

	assert.Contains(t, out, `defaultPrim = "Sun"`)
}

func TestGenerateFallsBackToFirstGraphWhenNoNameMatches(t *testing.T) {
	cache := pkgcache.New(stubLoader{desc: twoGraphPackage()}, stubResolver{}, 10)

	out, err := Generate(context.Background(), cache, stubResolver{}, "/assets/unrelated.sbsar", "wood.sbsar")
	require.NoError(t, err)

	assert.Contains(t, out, `defaultPrim = "Wood"`)
}

func TestGenerateIncludesThumbnailWhenPresent(t *testing.T) {
	resolver := stubResolver{thumbnails: map[string]bool{"thumbnails/Wood.png": true}}
	cache := pkgcache.New(stubLoader{desc: twoGraphPackage()}, resolver, 10)

	out, err := Generate(context.Background(), cache, resolver, "wood.sbsar", "wood.sbsar")
	require.NoError(t, err)

	assert.Contains(t, out, `asset inputs:thumbnail = @thumbnails/Wood.png@`)
}

func TestGenerateMarksLayerNonEditable(t *testing.T) {
	cache := pkgcache.New(stubLoader{desc: twoGraphPackage()}, stubResolver{}, 10)

	out, err := Generate(context.Background(), cache, stubResolver{}, "wood.sbsar", "wood.sbsar")
	require.NoError(t, err)

	assert.Contains(t, out, "bool permissionToEdit = false")
	assert.Contains(t, out, "bool permissionToSave = false")
}

func TestGenerateRejectsEmptyPackage(t *testing.T) {
	cache := pkgcache.New(stubLoader{desc: &pkgcache.PackageDesc{}}, stubResolver{}, 10)

	_, err := Generate(context.Background(), cache, stubResolver{}, "wood.sbsar", "wood.sbsar")
	assert.Error(t, err)
}
