// Copyright © 2026 Adobe. All rights reserved.
// Use is governed by the Apache License, Version 2.0.

// Package stl implements the STL mesh reader/writer: ASCII/binary
// auto-detection, per-facet flat normals, and the Y-up rotation
// correction, ported from original_source/stl/src/{stlModel,
// stlImport,stlExport}.cpp.
package stl

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/adobe/usd-fileformat-plugins/common"
)

const (
	binaryHeaderSize   = 80
	attributeCountSize = 2
)

// Facet is one STL triangle: a flat normal and three vertices.
type Facet struct {
	Normal   [3]float32
	Vertices [3][3]float32
}

// IsASCII applies the standard STL heuristic: a file is ASCII only if it
// starts with "solid" (after leading whitespace) AND its size does not match
// 84 + 50*facetCount (80-byte header + 4-byte count + 50 bytes/facet). A
// file that starts with "solid" but whose size also matches the binary
// formula is treated as binary (some exporters write a binary file with a
// "solid" prefix).
func IsASCII(data []byte) bool {
	if !bytes.HasPrefix(bytes.TrimLeft(data, " \t\r\n"), []byte("solid")) {
		return false
	}
	if len(data) < binaryHeaderSize+4 {
		return true
	}
	facetCount := int(binary.LittleEndian.Uint32(data[binaryHeaderSize : binaryHeaderSize+4]))
	expectedSize := 84 + 50*facetCount
	return expectedSize != len(data)
}

// Import parses STL bytes (ASCII or binary, auto-detected) into a Scene
// with a single mesh of flat, per-facet (uniform) normals. upAxis selects
// the Y-up rotation correction stlImport.cpp applies to the node's world
// transform ("Y" rotates -90deg about X into Z-up; anything else,
// including "", is left unrotated).
func Import(data []byte, upAxis string) (*common.Scene, error) {
	var facets []Facet
	var err error
	if IsASCII(data) {
		facets, err = parseASCII(data)
	} else {
		facets, err = parseBinary(data)
	}
	if err != nil {
		return nil, fmt.Errorf("stl: %w", err)
	}

	scene := &common.Scene{UpAxis: upAxis}
	nodeIdx, node := scene.AddNode(-1)
	_ = nodeIdx
	meshIdx, mesh := scene.AddMesh()
	node.StaticMeshes = []int{meshIdx}

	if upAxis != "" && (upAxis[0] == 'Y' || upAxis[0] == 'y') {
		node.WorldTransform = common.ComposeTransform(node.WorldTransform, rotateXMinus90())
	}

	mesh.UVs = map[string][]common.Vec2{}
	mesh.Colors = map[string][]common.Vec3{}
	mesh.Opacity = map[string][]float64{}
	mesh.Material = -1
	mesh.Points = make([]common.Vec3, 0, len(facets)*3)
	mesh.Normals = make([]common.Vec3, 0, len(facets))
	mesh.Faces = make([]int, 0, len(facets)*3)

	for i, f := range facets {
		base := i * 3
		for _, v := range f.Vertices {
			mesh.Points = append(mesh.Points, common.Vec3{X: float64(v[0]), Y: float64(v[1]), Z: float64(v[2])})
		}
		n := common.Vec3{X: float64(f.Normal[0]), Y: float64(f.Normal[1]), Z: float64(f.Normal[2])}
		if lenSq := n.X*n.X + n.Y*n.Y + n.Z*n.Z; lenSq < 1e-3 {
			n = common.Vec3{X: 0, Y: 1, Z: 0}
		} else {
			l := math.Sqrt(lenSq)
			n = common.Vec3{X: n.X / l, Y: n.Y / l, Z: n.Z / l}
		}
		mesh.Normals = append(mesh.Normals, n)
		mesh.Faces = append(mesh.Faces, base, base+1, base+2)
	}
	return scene, nil
}

// rotateXMinus90 returns the -90deg rotation about X applied when
// converting a Y-up STL asset into the Z-up USD stage convention.
func rotateXMinus90() common.Matrix4 {
	return common.Matrix4{
		Xx: 1,
		Yz: 1,
		Zy: -1,
		Ww: 1,
	}
}

func parseASCII(data []byte) ([]Facet, error) {
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Split(bufio.ScanWords)
	var facets []Facet
	for sc.Scan() {
		if sc.Text() != "facet" {
			continue
		}
		var f Facet
		if !sc.Scan() || sc.Text() != "normal" {
			return nil, fmt.Errorf("expected 'normal'")
		}
		var err error
		if f.Normal[0], err = scanFloat(sc); err != nil {
			return nil, err
		}
		if f.Normal[1], err = scanFloat(sc); err != nil {
			return nil, err
		}
		if f.Normal[2], err = scanFloat(sc); err != nil {
			return nil, err
		}
		sc.Scan() // "outer"
		sc.Scan() // "loop"
		for v := 0; v < 3; v++ {
			sc.Scan() // "vertex"
			if f.Vertices[v][0], err = scanFloat(sc); err != nil {
				return nil, err
			}
			if f.Vertices[v][1], err = scanFloat(sc); err != nil {
				return nil, err
			}
			if f.Vertices[v][2], err = scanFloat(sc); err != nil {
				return nil, err
			}
		}
		sc.Scan() // "endloop"
		sc.Scan() // "endfacet"
		facets = append(facets, f)
	}
	return facets, sc.Err()
}

func scanFloat(sc *bufio.Scanner) (float32, error) {
	if !sc.Scan() {
		return 0, fmt.Errorf("unexpected end of input")
	}
	var v float32
	_, err := fmt.Sscanf(sc.Text(), "%g", &v)
	return v, err
}

func parseBinary(data []byte) ([]Facet, error) {
	if len(data) < binaryHeaderSize+4 {
		return nil, fmt.Errorf("truncated binary STL header")
	}
	facetCount := int(binary.LittleEndian.Uint32(data[binaryHeaderSize : binaryHeaderSize+4]))
	offset := binaryHeaderSize + 4
	facets := make([]Facet, 0, facetCount)
	for i := 0; i < facetCount; i++ {
		const recordSize = 12*4 + attributeCountSize
		if offset+recordSize > len(data) {
			return nil, fmt.Errorf("truncated binary STL facet %d", i)
		}
		var f Facet
		f.Normal = readVec3(data[offset:])
		f.Vertices[0] = readVec3(data[offset+12:])
		f.Vertices[1] = readVec3(data[offset+24:])
		f.Vertices[2] = readVec3(data[offset+36:])
		offset += recordSize
		facets = append(facets, f)
	}
	return facets, nil
}

func readVec3(b []byte) [3]float32 {
	return [3]float32{
		math.Float32frombits(binary.LittleEndian.Uint32(b[0:4])),
		math.Float32frombits(binary.LittleEndian.Uint32(b[4:8])),
		math.Float32frombits(binary.LittleEndian.Uint32(b[8:12])),
	}
}

// Format selects STL export encoding.
type Format int

const (
	Binary Format = iota
	ASCII
)

// Export serializes a Scene's meshes into STL facets (one facet per
// triangle, flattening any multi-mesh scene into STL's single-mesh model).
func Export(w io.Writer, scene *common.Scene, format Format) error {
	var facets []Facet
	for _, mesh := range scene.Meshes {
		for i := 0; i+2 < len(mesh.Faces); i += 3 {
			a, b, c := mesh.Faces[i], mesh.Faces[i+1], mesh.Faces[i+2]
			p0, p1, p2 := mesh.Points[a], mesh.Points[b], mesh.Points[c]
			n := faceNormal(p0, p1, p2)
			facets = append(facets, Facet{
				Normal: n,
				Vertices: [3][3]float32{
					{float32(p0.X), float32(p0.Y), float32(p0.Z)},
					{float32(p1.X), float32(p1.Y), float32(p1.Z)},
					{float32(p2.X), float32(p2.Y), float32(p2.Z)},
				},
			})
		}
	}
	if format == ASCII {
		return writeASCII(w, facets)
	}
	return writeBinary(w, facets)
}

func faceNormal(a, b, c common.Vec3) [3]float32 {
	ux, uy, uz := b.X-a.X, b.Y-a.Y, b.Z-a.Z
	vx, vy, vz := c.X-a.X, c.Y-a.Y, c.Z-a.Z
	nx := uy*vz - uz*vy
	ny := uz*vx - ux*vz
	nz := ux*vy - uy*vx
	l := math.Sqrt(nx*nx + ny*ny + nz*nz)
	if l < 1e-12 {
		return [3]float32{0, 1, 0}
	}
	return [3]float32{float32(nx / l), float32(ny / l), float32(nz / l)}
}

func writeASCII(w io.Writer, facets []Facet) error {
	bw := bufio.NewWriter(w)
	defer bw.Flush()
	fmt.Fprintln(bw, "solid")
	for _, f := range facets {
		fmt.Fprintf(bw, "facet normal %e %e %e\n", f.Normal[0], f.Normal[1], f.Normal[2])
		fmt.Fprintln(bw, "outer loop")
		for _, v := range f.Vertices {
			fmt.Fprintf(bw, "vertex %e %e %e\n", v[0], v[1], v[2])
		}
		fmt.Fprintln(bw, "endloop")
		fmt.Fprintln(bw, "endfacet")
	}
	fmt.Fprint(bw, "endsolid")
	return nil
}

func writeBinary(w io.Writer, facets []Facet) error {
	bw := bufio.NewWriter(w)
	defer bw.Flush()
	if _, err := bw.Write(make([]byte, binaryHeaderSize)); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, uint32(len(facets))); err != nil {
		return err
	}
	for _, f := range facets {
		for _, v := range [][3]float32{f.Normal, f.Vertices[0], f.Vertices[1], f.Vertices[2]} {
			if err := binary.Write(bw, binary.LittleEndian, v); err != nil {
				return err
			}
		}
		if _, err := bw.Write(make([]byte, attributeCountSize)); err != nil {
			return err
		}
	}
	return nil
}
