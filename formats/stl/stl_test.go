// Copyright © 2026 Adobe. All rights reserved.
// Use is governed by the Apache License, Version 2.0.

package stl

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adobe/usd-fileformat-plugins/common"
)

const asciiTriangle = `solid
facet normal 0.0e+00 1.0e+00 0.0e+00
outer loop
vertex 0.0e+00 0.0e+00 0.0e+00
vertex 1.0e+00 0.0e+00 0.0e+00
vertex 0.0e+00 0.0e+00 1.0e+00
endloop
endfacet
endsolid`

func TestIsASCIIDetection(t *testing.T) {
	assert.True(t, IsASCII([]byte(asciiTriangle)))

	var buf bytes.Buffer
	require.NoError(t, writeBinary(&buf, []Facet{{}}))
	assert.False(t, IsASCII(buf.Bytes()))
}

func TestImportASCII(t *testing.T) {
	scene, err := Import([]byte(asciiTriangle), "")
	require.NoError(t, err)
	require.Len(t, scene.Meshes, 1)
	mesh := scene.Meshes[0]
	assert.Len(t, mesh.Points, 3)
	assert.Equal(t, []int{0, 1, 2}, mesh.Faces)
	assert.Len(t, mesh.Normals, 1)
}

func TestImportYUpRotatesNode(t *testing.T) {
	scene, err := Import([]byte(asciiTriangle), "Y")
	require.NoError(t, err)
	assert.NotEqual(t, common.Identity(), scene.Nodes[0].WorldTransform)
}

func TestExportImportBinaryRoundTrip(t *testing.T) {
	scene, err := Import([]byte(asciiTriangle), "")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Export(&buf, scene, Binary))

	again, err := Import(buf.Bytes(), "")
	require.NoError(t, err)
	require.Len(t, again.Meshes, 1)
	assert.Len(t, again.Meshes[0].Points, 3)
}

func TestDegenerateNormalSynthesized(t *testing.T) {
	const degenerate = `solid
facet normal 0.0e+00 0.0e+00 0.0e+00
outer loop
vertex 0.0e+00 0.0e+00 0.0e+00
vertex 1.0e+00 0.0e+00 0.0e+00
vertex 0.0e+00 0.0e+00 1.0e+00
endloop
endfacet
endsolid`
	scene, err := Import([]byte(degenerate), "")
	require.NoError(t, err)
	assert.Equal(t, 1.0, scene.Meshes[0].Normals[0].Y)
}
