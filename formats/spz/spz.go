// Copyright © 2026 Adobe. All rights reserved.
// Use is governed by the Apache License, Version 2.0.

// Package spz implements the compressed Gaussian-splat container format.
// The value encodings (log-scale widths,
// logit-encoded opacity, SH-DC-scaled base color, row-major on-disk
// spherical-harmonic layout) are ported from
// original_source/spz/src/spzImport.cpp / spzExport.cpp, which themselves
// call out to an external "spz" codec library for the gzip-wrapped
// fixed-point binary container; that framing (magic, per-field fixed-point
// widths, gzip wrapping) is reproduced here directly rather than treated as
// a black box, since unlike the FBX SDK there is no separately-maintained
// native toolkit this package can delegate to.
package spz

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/adobe/usd-fileformat-plugins/common"
	"github.com/adobe/usd-fileformat-plugins/gsplat"
)

// magic identifies the gzip-wrapped container payload, analogous to the
// reference "NGSP" magic used by the external spz library.
const magic uint32 = 0x5053474e

const headerSize = 4 + 4 + 4 + 1 + 1 + 2 // magic, version, numPoints, shDegree, fractionalBits, reserved

const version = 2

// fractionalBits controls the fixed-point precision used to store
// positions, matching the external library's default of 2^-12 units.
const fractionalBits = 12

// Import decompresses and decodes an SPZ byte stream into a Scene holding
// a single SplatCloud.
func Import(data []byte) (*common.Scene, error) {
	gr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("spz: gzip: %w", err)
	}
	defer gr.Close()
	raw, err := io.ReadAll(gr)
	if err != nil {
		return nil, fmt.Errorf("spz: gzip read: %w", err)
	}
	if len(raw) < headerSize {
		return nil, fmt.Errorf("spz: truncated header")
	}
	if binary.LittleEndian.Uint32(raw[0:4]) != magic {
		return nil, fmt.Errorf("spz: bad magic")
	}
	ver := binary.LittleEndian.Uint32(raw[4:8])
	numPoints := int(binary.LittleEndian.Uint32(raw[8:12]))
	shDegree := int(raw[12])
	fracBits := int(raw[13])
	_ = ver

	r := &byteCursor{data: raw, pos: headerSize}
	cloud := common.SplatCloud{
		Positions: make([]common.Vec3, numPoints),
		Widths:    make([]common.Vec3, numPoints),
		Rotations: make([][4]float64, numPoints),
		Opacities: make([]float64, numPoints),
		Colors:    make([]common.Vec3, numPoints),
	}
	scale := math.Pow(2, float64(fracBits))
	for i := 0; i < numPoints; i++ {
		x := float64(r.int32()) / scale
		y := float64(r.int32()) / scale
		z := float64(r.int32()) / scale
		cloud.Positions[i] = common.Vec3{X: x, Y: y, Z: z}
	}
	for i := 0; i < numPoints; i++ {
		s0 := gsplat.EncodeWidth(float64(r.int8()) / 16)
		s1 := gsplat.EncodeWidth(float64(r.int8()) / 16)
		s2 := gsplat.EncodeWidth(float64(r.int8()) / 16)
		cloud.Widths[i] = common.Vec3{X: s0, Y: s1, Z: s2}
	}
	for i := 0; i < numPoints; i++ {
		x := float64(r.int8()) / 127
		y := float64(r.int8()) / 127
		z := float64(r.int8()) / 127
		w := float64(r.int8()) / 127
		cloud.Rotations[i] = normalizeQuat([4]float64{x, y, z, w})
	}
	for i := 0; i < numPoints; i++ {
		sigmoidVal := clampOpen01(float64(r.uint8()) / 255)
		cloud.Opacities[i] = gsplat.Logit(sigmoidVal)
	}
	for i := 0; i < numPoints; i++ {
		const shC0 = 0.28209479177387814
		cr := clamp01(float64(r.uint8())/255*2 - 1)
		cg := clamp01(float64(r.uint8())/255*2 - 1)
		cb := clamp01(float64(r.uint8())/255*2 - 1)
		cloud.Colors[i] = common.Vec3{
			X: gsplat.EncodeColorDC(clamp01(cr*shC0 + 0.5)),
			Y: gsplat.EncodeColorDC(clamp01(cg*shC0 + 0.5)),
			Z: gsplat.EncodeColorDC(clamp01(cb*shC0 + 0.5)),
		}
	}
	if shDegree > 0 {
		n := gsplat.NumSHCoefficients(shDegree)
		cloud.SH = make([][]float64, n*3)
		for i := range cloud.SH {
			cloud.SH[i] = make([]float64, numPoints)
		}
		// On disk, SH is row-major: per point, per coefficient row, per
		// color channel. Transpose into column-major coeffIndex*3+channel.
		for p := 0; p < numPoints; p++ {
			for row := 0; row < n; row++ {
				for ch := 0; ch < 3; ch++ {
					v := float64(r.int8()) / 127
					cloud.SH[row*3+ch][p] = v
				}
			}
		}
	}

	scene := &common.Scene{UpAxis: "Y", Splats: []common.SplatCloud{cloud}}
	return scene, nil
}

// Export encodes a Scene's first SplatCloud into a gzip-wrapped SPZ byte
// stream.
func Export(w io.Writer, scene *common.Scene) error {
	if len(scene.Splats) == 0 {
		return fmt.Errorf("spz: scene has no splat cloud to export")
	}
	cloud := &scene.Splats[0]
	n := cloud.NumPoints()
	degree := cloud.SHDegree()

	var buf bytes.Buffer
	hdr := make([]byte, headerSize)
	binary.LittleEndian.PutUint32(hdr[0:4], magic)
	binary.LittleEndian.PutUint32(hdr[4:8], version)
	binary.LittleEndian.PutUint32(hdr[8:12], uint32(n))
	hdr[12] = byte(degree)
	hdr[13] = byte(fractionalBits)
	buf.Write(hdr)

	scale := math.Pow(2, float64(fractionalBits))
	for _, p := range cloud.Positions {
		writeInt32(&buf, int32(math.Round(p.X*scale)))
		writeInt32(&buf, int32(math.Round(p.Y*scale)))
		writeInt32(&buf, int32(math.Round(p.Z*scale)))
	}
	for _, wd := range cloud.Widths {
		writeInt8(&buf, gsplat.DecodeWidth(wd.X)*16)
		writeInt8(&buf, gsplat.DecodeWidth(wd.Y)*16)
		writeInt8(&buf, gsplat.DecodeWidth(wd.Z)*16)
	}
	for _, rot := range cloud.Rotations {
		writeInt8(&buf, rot[0]*127)
		writeInt8(&buf, rot[1]*127)
		writeInt8(&buf, rot[2]*127)
		writeInt8(&buf, rot[3]*127)
	}
	for _, o := range cloud.Opacities {
		buf.WriteByte(byte(clampByte(gsplat.Sigmoid(o) * 255)))
	}
	for _, c := range cloud.Colors {
		const shC0 = 0.28209479177387814
		buf.WriteByte(byte(clampByte(((gsplat.DecodeColorDC(c.X)-0.5)/shC0 + 1) / 2 * 255)))
		buf.WriteByte(byte(clampByte(((gsplat.DecodeColorDC(c.Y)-0.5)/shC0 + 1) / 2 * 255)))
		buf.WriteByte(byte(clampByte(((gsplat.DecodeColorDC(c.Z)-0.5)/shC0 + 1) / 2 * 255)))
	}
	if degree > 0 {
		numCoeff := gsplat.NumSHCoefficients(degree)
		for p := 0; p < n; p++ {
			for row := 0; row < numCoeff; row++ {
				for ch := 0; ch < 3; ch++ {
					var v float64
					idx := row*3 + ch
					if idx < len(cloud.SH) && p < len(cloud.SH[idx]) {
						v = cloud.SH[idx][p]
					}
					writeInt8(&buf, v*127)
				}
			}
		}
	}

	gw := gzip.NewWriter(w)
	if _, err := gw.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("spz: gzip write: %w", err)
	}
	return gw.Close()
}

func normalizeQuat(q [4]float64) [4]float64 {
	l := math.Sqrt(q[0]*q[0] + q[1]*q[1] + q[2]*q[2] + q[3]*q[3])
	if l < 1e-12 {
		return [4]float64{0, 0, 0, 1}
	}
	return [4]float64{q[0] / l, q[1] / l, q[2] / l, q[3] / l}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// clampOpen01 clamps to the open interval (0,1), since Logit(0) and
// Logit(1) are infinite.
func clampOpen01(v float64) float64 {
	const eps = 1e-6
	if v < eps {
		return eps
	}
	if v > 1-eps {
		return 1 - eps
	}
	return v
}

func clampByte(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}

func writeInt32(buf *bytes.Buffer, v int32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], uint32(v))
	buf.Write(b[:])
}

func writeInt8(buf *bytes.Buffer, v float64) {
	c := v
	if c > 127 {
		c = 127
	}
	if c < -128 {
		c = -128
	}
	buf.WriteByte(byte(int8(c)))
}

// byteCursor reads little-endian fixed-width integers sequentially.
type byteCursor struct {
	data []byte
	pos  int
}

func (c *byteCursor) int32() int32 {
	v := int32(binary.LittleEndian.Uint32(c.data[c.pos:]))
	c.pos += 4
	return v
}

func (c *byteCursor) int8() int8 {
	v := int8(c.data[c.pos])
	c.pos++
	return v
}

func (c *byteCursor) uint8() uint8 {
	v := c.data[c.pos]
	c.pos++
	return v
}
