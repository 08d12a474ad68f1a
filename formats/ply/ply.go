// Copyright © 2026 Adobe. All rights reserved.
// Use is governed by the Apache License, Version 2.0.

// Package ply implements the PLY mesh and Gaussian-splat point-cloud
// reader/writer. Mesh import is ported from
// original_source/ply/src/plyImport.cpp (property-by-name lookup on the
// "vertex" element, falling back to fan triangulation when face indices
// are missing); the Gaussian-splat extension recognizes the de facto
// 3D-Gaussian-Splatting property set (scale_0..2, rot_0..3, opacity,
// f_dc_0..2, f_rest_N) and builds a common.SplatCloud instead of a mesh,
// reusing the gsplat package's encodings.
package ply

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/adobe/usd-fileformat-plugins/common"
	"github.com/adobe/usd-fileformat-plugins/gsplat"
)

type propType int

const (
	typeFloat32 propType = iota
	typeFloat64
	typeInt8
	typeUint8
	typeInt16
	typeUint16
	typeInt32
	typeUint32
)

func parsePropType(s string) (propType, error) {
	switch s {
	case "float", "float32":
		return typeFloat32, nil
	case "double", "float64":
		return typeFloat64, nil
	case "char", "int8":
		return typeInt8, nil
	case "uchar", "uint8":
		return typeUint8, nil
	case "short", "int16":
		return typeInt16, nil
	case "ushort", "uint16":
		return typeUint16, nil
	case "int", "int32":
		return typeInt32, nil
	case "uint", "uint32":
		return typeUint32, nil
	}
	return 0, fmt.Errorf("unknown ply property type %q", s)
}

type property struct {
	name     string
	scalar   propType
	isList   bool
	countTy  propType
	elemType propType
}

type element struct {
	name       string
	count      int
	properties []property
}

type header struct {
	binary     bool
	bigEndian  bool
	elements   []element
	headerSize int // bytes consumed by the header, including "end_header\n".
}

func parseHeader(data []byte) (*header, error) {
	sc := bufio.NewScanner(bytes.NewReader(data))
	h := &header{}
	var cur *element
	consumed := 0
	for sc.Scan() {
		line := sc.Text()
		consumed += len(line) + 1
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "ply":
		case "comment":
		case "format":
			if len(fields) < 2 {
				return nil, fmt.Errorf("ply: malformed format line")
			}
			switch fields[1] {
			case "ascii":
				h.binary = false
			case "binary_little_endian":
				h.binary = true
				h.bigEndian = false
			case "binary_big_endian":
				h.binary = true
				h.bigEndian = true
			default:
				return nil, fmt.Errorf("ply: unsupported format %q", fields[1])
			}
		case "element":
			if len(fields) < 3 {
				return nil, fmt.Errorf("ply: malformed element line")
			}
			count, err := strconv.Atoi(fields[2])
			if err != nil {
				return nil, fmt.Errorf("ply: bad element count: %w", err)
			}
			h.elements = append(h.elements, element{name: fields[1], count: count})
			cur = &h.elements[len(h.elements)-1]
		case "property":
			if cur == nil {
				return nil, fmt.Errorf("ply: property before element")
			}
			if fields[1] == "list" {
				countTy, err := parsePropType(fields[2])
				if err != nil {
					return nil, err
				}
				elemTy, err := parsePropType(fields[3])
				if err != nil {
					return nil, err
				}
				cur.properties = append(cur.properties, property{name: fields[4], isList: true, countTy: countTy, elemType: elemTy})
			} else {
				ty, err := parsePropType(fields[1])
				if err != nil {
					return nil, err
				}
				cur.properties = append(cur.properties, property{name: fields[2], scalar: ty})
			}
		case "end_header":
			h.headerSize = consumed
			return h, nil
		}
	}
	return nil, fmt.Errorf("ply: missing end_header")
}

// gsplatProps are the vertex properties that mark a PLY as a Gaussian
// splat point cloud rather than a plain mesh.
var gsplatProps = []string{"scale_0", "rot_0", "opacity", "f_dc_0"}

func isGsplatElement(e element) bool {
	names := map[string]bool{}
	for _, p := range e.properties {
		names[p.name] = true
	}
	for _, req := range gsplatProps {
		if !names[req] {
			return false
		}
	}
	return true
}

// Import parses PLY bytes into a Scene. If the "vertex" element carries the
// Gaussian-splat property set, the Scene gets a single SplatCloud instead
// of a mesh.
func Import(data []byte) (*common.Scene, error) {
	h, err := parseHeader(data)
	if err != nil {
		return nil, err
	}
	cur := newCursor(h, data[h.headerSize:])

	scene := &common.Scene{UpAxis: "Y"}
	var vertexCols map[string][]float64
	var vertexEl element
	var faces []int
	haveFaces := false

	for _, el := range h.elements {
		switch el.name {
		case "vertex":
			vertexEl = el
			vertexCols, err = cur.readColumns(el)
			if err != nil {
				return nil, fmt.Errorf("ply: %w", err)
			}
		case "face":
			faces, err = cur.readFaceIndices(el)
			if err != nil {
				// Fall back to a naive fan triangulation when face
				// indices are malformed.
				faces = triangulateFan(vertexEl.count)
			}
			haveFaces = true
		default:
			cur.skipElement(el)
		}
	}

	if vertexCols == nil {
		return scene, nil
	}
	if isGsplatElement(vertexEl) {
		scene.Splats = append(scene.Splats, buildSplatCloud(vertexEl.count, vertexCols))
		return scene, nil
	}
	if !haveFaces {
		faces = triangulateFan(vertexEl.count)
	}
	return buildMeshScene(scene, vertexEl, vertexCols, faces)
}

// cursor reads PLY element records sequentially, in binary or ASCII mode,
// tracking its own position across element boundaries (ASCII properties
// are whitespace-delimited across the whole body, not just within one
// element, so a single shared scanner is required).
type cursor struct {
	binary bool
	data   []byte
	offset int
	sc     *bufio.Scanner
}

func newCursor(h *header, body []byte) *cursor {
	c := &cursor{binary: h.binary, data: body}
	if !h.binary {
		c.sc = bufio.NewScanner(bytes.NewReader(body))
		c.sc.Split(bufio.ScanWords)
	}
	return c
}

func (c *cursor) scalar(t propType) float64 {
	if c.binary {
		v, sz := readScalar(c.data[c.offset:], t)
		c.offset += sz
		return v
	}
	c.sc.Scan()
	v, _ := strconv.ParseFloat(c.sc.Text(), 64)
	return v
}

func (c *cursor) skipScalar(t propType) {
	if c.binary {
		_, sz := readScalar(c.data[c.offset:], t)
		c.offset += sz
		return
	}
	c.sc.Scan()
}

func (c *cursor) readColumns(el element) (map[string][]float64, error) {
	cols := make(map[string][]float64, len(el.properties))
	for _, p := range el.properties {
		if !p.isList {
			cols[p.name] = make([]float64, 0, el.count)
		}
	}
	for i := 0; i < el.count; i++ {
		for _, p := range el.properties {
			if p.isList {
				n := int(c.scalar(p.countTy))
				for j := 0; j < n; j++ {
					c.skipScalar(p.elemType)
				}
				continue
			}
			cols[p.name] = append(cols[p.name], c.scalar(p.scalar))
		}
	}
	return cols, nil
}

func (c *cursor) readFaceIndices(el element) ([]int, error) {
	var faces []int
	for i := 0; i < el.count; i++ {
		for _, p := range el.properties {
			if !p.isList {
				c.skipScalar(p.scalar)
				continue
			}
			n := int(c.scalar(p.countTy))
			idx := make([]int, n)
			for j := range idx {
				idx[j] = int(c.scalar(p.elemType))
			}
			faces = append(faces, fanTriangulate(idx)...)
		}
	}
	return faces, nil
}

func (c *cursor) skipElement(el element) {
	for i := 0; i < el.count; i++ {
		for _, p := range el.properties {
			if !p.isList {
				c.skipScalar(p.scalar)
				continue
			}
			n := int(c.scalar(p.countTy))
			for j := 0; j < n; j++ {
				c.skipScalar(p.elemType)
			}
		}
	}
}

func readScalar(b []byte, t propType) (float64, int) {
	switch t {
	case typeFloat32:
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(b))), 4
	case typeFloat64:
		return math.Float64frombits(binary.LittleEndian.Uint64(b)), 8
	case typeInt8:
		return float64(int8(b[0])), 1
	case typeUint8:
		return float64(b[0]), 1
	case typeInt16:
		return float64(int16(binary.LittleEndian.Uint16(b))), 2
	case typeUint16:
		return float64(binary.LittleEndian.Uint16(b)), 2
	case typeInt32:
		return float64(int32(binary.LittleEndian.Uint32(b))), 4
	case typeUint32:
		return float64(binary.LittleEndian.Uint32(b)), 4
	}
	return 0, 0
}

func buildSplatCloud(count int, cols map[string][]float64) common.SplatCloud {
	cloud := common.SplatCloud{
		Positions: make([]common.Vec3, count),
		Widths:    make([]common.Vec3, count),
		Rotations: make([][4]float64, count),
		Opacities: make([]float64, count),
		Colors:    make([]common.Vec3, count),
	}
	for i := 0; i < count; i++ {
		cloud.Positions[i] = common.Vec3{X: cols["x"][i], Y: cols["y"][i], Z: cols["z"][i]}
		cloud.Widths[i] = common.Vec3{X: cols["scale_0"][i], Y: cols["scale_1"][i], Z: cols["scale_2"][i]}
		cloud.Rotations[i] = [4]float64{cols["rot_1"][i], cols["rot_2"][i], cols["rot_3"][i], cols["rot_0"][i]}
		cloud.Opacities[i] = cols["opacity"][i]
		cloud.Colors[i] = common.Vec3{X: cols["f_dc_0"][i], Y: cols["f_dc_1"][i], Z: cols["f_dc_2"][i]}
	}
	degree := 0
	for degree < 3 {
		if _, ok := cols[fmt.Sprintf("f_rest_%d", gsplat.NumSHCoefficients(degree+1)*3-1)]; !ok {
			break
		}
		degree++
	}
	if degree > 0 {
		n := gsplat.NumSHCoefficients(degree)
		cloud.SH = make([][]float64, n*3)
		// f_rest is stored channel-major in the 3DGS convention:
		// f_rest_0..f_rest_(n-1) are channel 0 (R), etc.
		for coeff := 0; coeff < n*3; coeff++ {
			col, ok := cols[fmt.Sprintf("f_rest_%d", coeff)]
			if !ok {
				break
			}
			cloud.SH[coeff] = col
		}
	}
	return cloud
}

func buildMeshScene(scene *common.Scene, vertexEl element, cols map[string][]float64, faces []int) (*common.Scene, error) {
	meshIdx, mesh := scene.AddMesh()
	mesh.UVs = map[string][]common.Vec2{}
	mesh.Colors = map[string][]common.Vec3{}
	mesh.Opacity = map[string][]float64{}
	mesh.Material = -1

	n := vertexEl.count
	mesh.Points = make([]common.Vec3, n)
	for i := 0; i < n; i++ {
		mesh.Points[i] = common.Vec3{X: cols["x"][i], Y: cols["y"][i], Z: cols["z"][i]}
	}
	if nx, ok := cols["nx"]; ok {
		mesh.Normals = make([]common.Vec3, n)
		for i := 0; i < n; i++ {
			mesh.Normals[i] = common.Vec3{X: nx[i], Y: cols["ny"][i], Z: cols["nz"][i]}
		}
	}
	if u, ok := cols["texture_u"]; ok {
		uv := make([]common.Vec2, n)
		for i := 0; i < n; i++ {
			uv[i] = common.Vec2{X: u[i], Y: cols["texture_v"][i]}
		}
		mesh.UVs["st"] = uv
	}
	if r, ok := cols["red"]; ok {
		colors := make([]common.Vec3, n)
		for i := 0; i < n; i++ {
			colors[i] = common.Vec3{X: r[i] / 255, Y: cols["green"][i] / 255, Z: cols["blue"][i] / 255}
		}
		mesh.Colors["displayColor"] = colors
	}
	if a, ok := cols["alpha"]; ok {
		opacity := make([]float64, n)
		for i := 0; i < n; i++ {
			opacity[i] = a[i] / 255
		}
		mesh.Opacity["displayOpacity"] = opacity
	}

	mesh.Faces = faces

	nodeIdx, node := scene.AddNode(-1)
	_ = nodeIdx
	node.StaticMeshes = []int{meshIdx}
	return scene, nil
}

func fanTriangulate(idx []int) []int {
	var out []int
	for i := 1; i+1 < len(idx); i++ {
		out = append(out, idx[0], idx[i], idx[i+1])
	}
	return out
}

func triangulateFan(n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return fanTriangulate(idx)
}

// Export writes a Scene's first mesh (or splat cloud, if present) as a
// binary_little_endian PLY.
func Export(w io.Writer, scene *common.Scene) error {
	if len(scene.Splats) > 0 {
		return exportSplat(w, &scene.Splats[0])
	}
	if len(scene.Meshes) == 0 {
		return fmt.Errorf("ply: scene has no meshes or splats to export")
	}
	return exportMesh(w, &scene.Meshes[0])
}

func exportMesh(w io.Writer, mesh *common.Mesh) error {
	bw := bufio.NewWriter(w)
	defer bw.Flush()

	hasN := len(mesh.Normals) > 0
	st := mesh.UVs["st"]
	hasUV := len(st) > 0

	fmt.Fprintln(bw, "ply")
	fmt.Fprintln(bw, "format binary_little_endian 1.0")
	fmt.Fprintf(bw, "element vertex %d\n", len(mesh.Points))
	fmt.Fprintln(bw, "property float x")
	fmt.Fprintln(bw, "property float y")
	fmt.Fprintln(bw, "property float z")
	if hasN {
		fmt.Fprintln(bw, "property float nx")
		fmt.Fprintln(bw, "property float ny")
		fmt.Fprintln(bw, "property float nz")
	}
	if hasUV {
		fmt.Fprintln(bw, "property float texture_u")
		fmt.Fprintln(bw, "property float texture_v")
	}
	numFaces := len(mesh.Faces) / 3
	fmt.Fprintf(bw, "element face %d\n", numFaces)
	fmt.Fprintln(bw, "property list uchar int vertex_indices")
	fmt.Fprintln(bw, "end_header")

	for i, p := range mesh.Points {
		writeF32(bw, float32(p.X), float32(p.Y), float32(p.Z))
		if hasN {
			n := mesh.Normals[i]
			writeF32(bw, float32(n.X), float32(n.Y), float32(n.Z))
		}
		if hasUV {
			uv := st[i]
			writeF32(bw, float32(uv.X), float32(uv.Y))
		}
	}
	for i := 0; i < numFaces; i++ {
		binary.Write(bw, binary.LittleEndian, uint8(3))
		binary.Write(bw, binary.LittleEndian, int32(mesh.Faces[3*i]))
		binary.Write(bw, binary.LittleEndian, int32(mesh.Faces[3*i+1]))
		binary.Write(bw, binary.LittleEndian, int32(mesh.Faces[3*i+2]))
	}
	return nil
}

func exportSplat(w io.Writer, cloud *common.SplatCloud) error {
	bw := bufio.NewWriter(w)
	defer bw.Flush()

	n := cloud.NumPoints()
	degree := cloud.SHDegree()
	numRest := gsplat.NumSHCoefficients(degree) * 3

	fmt.Fprintln(bw, "ply")
	fmt.Fprintln(bw, "format binary_little_endian 1.0")
	fmt.Fprintf(bw, "element vertex %d\n", n)
	for _, p := range []string{"x", "y", "z"} {
		fmt.Fprintf(bw, "property float %s\n", p)
	}
	fmt.Fprintln(bw, "property float f_dc_0")
	fmt.Fprintln(bw, "property float f_dc_1")
	fmt.Fprintln(bw, "property float f_dc_2")
	for i := 0; i < numRest; i++ {
		fmt.Fprintf(bw, "property float f_rest_%d\n", i)
	}
	fmt.Fprintln(bw, "property float opacity")
	fmt.Fprintln(bw, "property float scale_0")
	fmt.Fprintln(bw, "property float scale_1")
	fmt.Fprintln(bw, "property float scale_2")
	fmt.Fprintln(bw, "property float rot_0")
	fmt.Fprintln(bw, "property float rot_1")
	fmt.Fprintln(bw, "property float rot_2")
	fmt.Fprintln(bw, "property float rot_3")
	fmt.Fprintln(bw, "end_header")

	for i := 0; i < n; i++ {
		p := cloud.Positions[i]
		writeF32(bw, float32(p.X), float32(p.Y), float32(p.Z))
		c := cloud.Colors[i]
		writeF32(bw, float32(c.X), float32(c.Y), float32(c.Z))
		for coeff := 0; coeff < numRest; coeff++ {
			var v float64
			if coeff < len(cloud.SH) && i < len(cloud.SH[coeff]) {
				v = cloud.SH[coeff][i]
			}
			writeF32(bw, float32(v))
		}
		writeF32(bw, float32(cloud.Opacities[i]))
		wd := cloud.Widths[i]
		writeF32(bw, float32(wd.X), float32(wd.Y), float32(wd.Z))
		rot := cloud.Rotations[i]
		writeF32(bw, float32(rot[3]), float32(rot[0]), float32(rot[1]), float32(rot[2]))
	}
	return nil
}

func writeF32(bw *bufio.Writer, vs ...float32) {
	for _, v := range vs {
		binary.Write(bw, binary.LittleEndian, v)
	}
}
