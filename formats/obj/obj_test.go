// Copyright © 2026 Adobe. All rights reserved.
// Use is governed by the Apache License, Version 2.0.

package obj

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const triangle = `
o tri
v 0 0 0
v 1 0 0
v 0 1 0
vn 0 0 1
vt 0 0
vt 1 0
vt 0 1
usemtl red
f 1/1/1 2/2/1 3/3/1
`

func TestImportTriangle(t *testing.T) {
	scene, err := Import(strings.NewReader(triangle))
	require.NoError(t, err)
	require.Len(t, scene.Meshes, 1)
	mesh := scene.Meshes[0]
	assert.Len(t, mesh.Points, 3)
	assert.Equal(t, []int{0, 1, 2}, mesh.Faces)
	assert.Len(t, mesh.Normals, 3)
	assert.Len(t, mesh.UVs["st"], 3)
	require.Len(t, scene.Materials, 1)
	assert.Equal(t, "red", scene.Materials[0].Name)
}

func TestImportQuadTriangulates(t *testing.T) {
	const quad = `
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
f 1 2 3 4
`
	scene, err := Import(strings.NewReader(quad))
	require.NoError(t, err)
	require.Len(t, scene.Meshes, 1)
	assert.Equal(t, []int{0, 1, 2, 0, 2, 3}, scene.Meshes[0].Faces)
}

func TestNegativeFaceIndices(t *testing.T) {
	const rel = `
v 0 0 0
v 1 0 0
v 0 1 0
f -3 -2 -1
`
	scene, err := Import(strings.NewReader(rel))
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, scene.Meshes[0].Faces)
}

func TestExportRoundTrip(t *testing.T) {
	scene, err := Import(strings.NewReader(triangle))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Export(&buf, scene))

	again, err := Import(&buf)
	require.NoError(t, err)
	require.Len(t, again.Meshes, 1)
	assert.Equal(t, scene.Meshes[0].Faces, again.Meshes[0].Faces)
	assert.Len(t, again.Meshes[0].Points, 3)
}
