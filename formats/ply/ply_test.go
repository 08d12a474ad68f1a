// Copyright © 2026 Adobe. All rights reserved.
// Use is governed by the Apache License, Version 2.0.

package ply

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const asciiMesh = `ply
format ascii 1.0
element vertex 3
property float x
property float y
property float z
element face 1
property list uchar int vertex_indices
end_header
0 0 0
1 0 0
0 1 0
3 0 1 2
`

func TestImportASCIIMesh(t *testing.T) {
	scene, err := Import([]byte(asciiMesh))
	require.NoError(t, err)
	require.Len(t, scene.Meshes, 1)
	mesh := scene.Meshes[0]
	assert.Len(t, mesh.Points, 3)
	assert.Equal(t, []int{0, 1, 2}, mesh.Faces)
}

func TestExportImportBinaryMeshRoundTrip(t *testing.T) {
	scene, err := Import([]byte(asciiMesh))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Export(&buf, scene))

	again, err := Import(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, again.Meshes, 1)
	assert.Equal(t, scene.Meshes[0].Faces, again.Meshes[0].Faces)
	assert.Len(t, again.Meshes[0].Points, 3)
}

func TestImportGsplatDetection(t *testing.T) {
	header := `ply
format ascii 1.0
element vertex 1
property float x
property float y
property float z
property float f_dc_0
property float f_dc_1
property float f_dc_2
property float opacity
property float scale_0
property float scale_1
property float scale_2
property float rot_0
property float rot_1
property float rot_2
property float rot_3
end_header
0 0 0 0 0 0 0 0 0 0 1 0 0 0
`
	scene, err := Import([]byte(header))
	require.NoError(t, err)
	require.Len(t, scene.Splats, 1)
	assert.Equal(t, 1, scene.Splats[0].NumPoints())
}
