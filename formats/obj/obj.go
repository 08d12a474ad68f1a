// Copyright © 2026 Adobe. All rights reserved.
// Use is governed by the Apache License, Version 2.0.

// Package obj implements the Wavefront OBJ mesh reader/writer, translating
// to and from common.Scene. The line-oriented scanning approach is ported
// from load/obj.go, generalized from "single mesh, positions+normals+uvs
// only" to "multi-object, multi-material" per objImport.cpp/objExport.cpp
// behavior.
package obj

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/adobe/usd-fileformat-plugins/common"
)

// Import parses OBJ text into a Scene. An "o" (or "g") line starts a new
// mesh once the current mesh has faces; before that it only names the
// current mesh. "usemtl" lines tag subsequent faces with a material-subset index
// resolved by name against Scene.Materials (a material is created on first
// reference, matching mtllib's on-demand resolution).
func Import(r io.Reader) (*common.Scene, error) {
	scene := &common.Scene{UpAxis: "Y"}
	var verts, norms [][3]float64
	var uvs [][2]float64

	materialIdx := map[string]int{}
	currentMaterial := -1

	var curMesh *common.Mesh
	ensureMesh := func(name string) {
		_, curMesh = scene.AddMesh()
		curMesh.Name = name
		curMesh.Material = -1
		curMesh.UVs = map[string][]common.Vec2{}
		curMesh.Colors = map[string][]common.Vec3{}
		curMesh.Opacity = map[string][]float64{}
	}
	ensureMesh("default")
	nodeIdx, node := scene.AddNode(-1)
	_ = nodeIdx
	node.StaticMeshes = []int{0}

	vmap := map[string]int{}
	scan := bufio.NewScanner(r)
	scan.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scan.Scan() {
		line := strings.TrimSpace(scan.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		switch fields[0] {
		case "o", "g":
			name := "mesh"
			if len(fields) > 1 {
				name = fields[1]
			}
			if len(curMesh.Faces) > 0 {
				ensureMesh(name)
				node.StaticMeshes = append(node.StaticMeshes, len(scene.Meshes)-1)
				vmap = map[string]int{}
			} else {
				curMesh.Name = name
			}
		case "v":
			x, y, z := parse3(fields)
			verts = append(verts, [3]float64{x, y, z})
		case "vn":
			x, y, z := parse3(fields)
			norms = append(norms, [3]float64{x, y, z})
		case "vt":
			u, v := parse2(fields)
			uvs = append(uvs, [2]float64{u, 1 - v})
		case "usemtl":
			if len(fields) > 1 {
				name := fields[1]
				idx, ok := materialIdx[name]
				if !ok {
					midx, mat := scene.AddMaterial()
					mat.Name = name
					materialIdx[name] = midx
					idx = midx
				}
				currentMaterial = idx
				if curMesh.Material == -1 {
					curMesh.Material = currentMaterial
				}
			}
		case "f":
			idxs := make([]int, 0, len(fields)-1)
			for _, tok := range fields[1:] {
				vi, ti, ni, err := parseFaceIndex(tok, len(verts), len(uvs), len(norms))
				if err != nil {
					return nil, fmt.Errorf("obj: %w", err)
				}
				key := fmt.Sprintf("%d/%d/%d", vi, ti, ni)
				gi, ok := vmap[key]
				if !ok {
					gi = len(curMesh.Points)
					vmap[key] = gi
					curMesh.Points = append(curMesh.Points, common.Vec3{X: verts[vi][0], Y: verts[vi][1], Z: verts[vi][2]})
					if ni >= 0 {
						curMesh.Normals = append(curMesh.Normals, common.Vec3{X: norms[ni][0], Y: norms[ni][1], Z: norms[ni][2]})
					}
					if ti >= 0 {
						curMesh.UVs["st"] = append(curMesh.UVs["st"], common.Vec2{X: uvs[ti][0], Y: uvs[ti][1]})
					}
				}
				idxs = append(idxs, gi)
			}
			// fan-triangulate polygons with more than 3 vertices.
			for i := 1; i+1 < len(idxs); i++ {
				curMesh.Faces = append(curMesh.Faces, idxs[0], idxs[i], idxs[i+1])
				curMesh.FaceMaterials = append(curMesh.FaceMaterials, currentMaterial)
			}
		}
	}
	if err := scan.Err(); err != nil {
		return nil, fmt.Errorf("obj: scan: %w", err)
	}
	return scene, nil
}

func parse3(fields []string) (x, y, z float64) {
	if len(fields) >= 4 {
		x, _ = strconv.ParseFloat(fields[1], 64)
		y, _ = strconv.ParseFloat(fields[2], 64)
		z, _ = strconv.ParseFloat(fields[3], 64)
	}
	return
}

func parse2(fields []string) (u, v float64) {
	if len(fields) >= 3 {
		u, _ = strconv.ParseFloat(fields[1], 64)
		v, _ = strconv.ParseFloat(fields[2], 64)
	}
	return
}

// parseFaceIndex parses a "v", "v/t", "v//n" or "v/t/n" face-index token.
// Negative indices (relative to the current end of each list, per the OBJ
// spec) are resolved against the current counts.
func parseFaceIndex(tok string, nv, nt, nn int) (v, t, n int, err error) {
	parts := strings.Split(tok, "/")
	v, err = resolveIndex(parts[0], nv)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("bad face vertex index %q: %w", tok, err)
	}
	t, n = -1, -1
	if len(parts) >= 2 && parts[1] != "" {
		if t, err = resolveIndex(parts[1], nt); err != nil {
			return 0, 0, 0, fmt.Errorf("bad face uv index %q: %w", tok, err)
		}
	}
	if len(parts) >= 3 && parts[2] != "" {
		if n, err = resolveIndex(parts[2], nn); err != nil {
			return 0, 0, 0, fmt.Errorf("bad face normal index %q: %w", tok, err)
		}
	}
	return
}

func resolveIndex(s string, count int) (int, error) {
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if i < 0 {
		return count + i, nil
	}
	return i - 1, nil
}

// Export writes a Scene as OBJ text. One "o" group per mesh, one "usemtl"
// per distinct face material encountered in Mesh.FaceMaterials.
func Export(w io.Writer, scene *common.Scene) error {
	bw := bufio.NewWriter(w)
	defer bw.Flush()

	vOffset, tOffset, nOffset := 1, 1, 1
	for _, mesh := range scene.Meshes {
		name := mesh.Name
		if name == "" {
			name = "mesh"
		}
		fmt.Fprintf(bw, "o %s\n", name)
		for _, p := range mesh.Points {
			fmt.Fprintf(bw, "v %g %g %g\n", p.X, p.Y, p.Z)
		}
		for _, n := range mesh.Normals {
			fmt.Fprintf(bw, "vn %g %g %g\n", n.X, n.Y, n.Z)
		}
		st := mesh.UVs["st"]
		for _, uv := range st {
			fmt.Fprintf(bw, "vt %g %g\n", uv.X, 1-uv.Y)
		}
		hasN := len(mesh.Normals) > 0
		hasT := len(st) > 0
		curMat := -1
		for i := 0; i+2 < len(mesh.Faces); i += 3 {
			mat := mesh.Material
			if f := i / 3; f < len(mesh.FaceMaterials) {
				mat = mesh.FaceMaterials[f]
			}
			if mat != curMat && mat >= 0 && mat < len(scene.Materials) {
				fmt.Fprintf(bw, "usemtl %s\n", scene.Materials[mat].Name)
				curMat = mat
			}
			bw.WriteString("f ")
			for k := 0; k < 3; k++ {
				idx := mesh.Faces[i+k]
				writeFaceToken(bw, idx+vOffset, idx+tOffset, idx+nOffset, hasT, hasN)
				if k < 2 {
					bw.WriteByte(' ')
				}
			}
			bw.WriteByte('\n')
		}
		vOffset += len(mesh.Points)
		tOffset += len(st)
		nOffset += len(mesh.Normals)
	}
	return nil
}

func writeFaceToken(bw *bufio.Writer, v, t, n int, hasT, hasN bool) {
	switch {
	case hasT && hasN:
		fmt.Fprintf(bw, "%d/%d/%d", v, t, n)
	case hasN:
		fmt.Fprintf(bw, "%d//%d", v, n)
	case hasT:
		fmt.Fprintf(bw, "%d/%d", v, t)
	default:
		fmt.Fprintf(bw, "%d", v)
	}
}
