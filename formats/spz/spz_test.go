// Copyright © 2026 Adobe. All rights reserved.
// Use is governed by the Apache License, Version 2.0.

package spz

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adobe/usd-fileformat-plugins/common"
)

func sampleScene() *common.Scene {
	return &common.Scene{
		UpAxis: "Y",
		Splats: []common.SplatCloud{{
			Positions: []common.Vec3{{X: 1, Y: 2, Z: 3}, {X: -1, Y: 0, Z: 0.5}},
			Widths:    []common.Vec3{{X: 0, Y: 0, Z: 0}, {X: 0.1, Y: 0.1, Z: 0.1}},
			Rotations: [][4]float64{{0, 0, 0, 1}, {0, 0.7071, 0, 0.7071}},
			Opacities: []float64{0, 0},
			Colors:    []common.Vec3{{X: 0, Y: 0, Z: 0}, {X: 0.2, Y: -0.1, Z: 0.3}},
		}},
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	scene := sampleScene()

	var buf bytes.Buffer
	require.NoError(t, Export(&buf, scene))

	again, err := Import(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, again.Splats, 1)
	cloud := again.Splats[0]
	assert.Equal(t, 2, cloud.NumPoints())
	assert.InDelta(t, 1, cloud.Positions[0].X, 1e-3)
	assert.InDelta(t, -1, cloud.Positions[1].X, 1e-3)
}

func TestExportRequiresSplat(t *testing.T) {
	scene := &common.Scene{}
	var buf bytes.Buffer
	err := Export(&buf, scene)
	assert.Error(t, err)
}

func TestImportRejectsTruncatedStream(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Export(&buf, sampleScene()))
	corrupted := append([]byte(nil), buf.Bytes()...)
	_, err := Import(corrupted[:len(corrupted)-1])
	// truncated gzip stream should fail to decompress or decode
	assert.Error(t, err)
}
