// Copyright © 2026 Adobe. All rights reserved.
// Use is governed by the Apache License, Version 2.0.

// Package common provides the format-neutral intermediate scene model the
// mesh-format plugins (formats/obj, formats/ply, formats/stl, formats/spz,
// formats/fbx) read from and write to. It is the mesh-side analog of the
// shared, render-ready asset shapes kept in mesh.go, material.go and
// texture.go, generalized from "ready to bind to a GPU" to "ready to
// exchange between file formats".
package common

import "github.com/adobe/usd-fileformat-plugins/math/lin"

// Scene is the intermediate representation every mesh-format reader
// produces and every mesh-format writer consumes. A scene holds zero or
// more nodes, meshes, materials, images and a single optional Gaussian
// splat point cloud.
type Scene struct {
	UpAxis    string // "Y" or "Z", the importer's up-axis convention.
	Nodes     []Node
	Meshes    []Mesh
	Materials []Material
	Images    []Image
	Skeletons []Skeleton
	Splats    []SplatCloud
}

// AddNode appends a node with the given parent index (-1 for a root node)
// and returns its index and a pointer usable to populate it further.
func (s *Scene) AddNode(parent int) (int, *Node) {
	s.Nodes = append(s.Nodes, Node{Parent: parent, WorldTransform: Identity()})
	return len(s.Nodes) - 1, &s.Nodes[len(s.Nodes)-1]
}

// AddMesh appends an empty mesh and returns its index and a pointer.
func (s *Scene) AddMesh() (int, *Mesh) {
	s.Meshes = append(s.Meshes, Mesh{})
	return len(s.Meshes) - 1, &s.Meshes[len(s.Meshes)-1]
}

// AddMaterial appends a default material and returns its index and a pointer.
func (s *Scene) AddMaterial() (int, *Material) {
	s.Materials = append(s.Materials, DefaultMaterial())
	return len(s.Materials) - 1, &s.Materials[len(s.Materials)-1]
}

// AddImage appends an image and returns its index and a pointer.
func (s *Scene) AddImage() (int, *Image) {
	s.Images = append(s.Images, Image{})
	return len(s.Images) - 1, &s.Images[len(s.Images)-1]
}

// Node is a transform-graph node. It may reference one or more static
// meshes and, for skinned content, a skeleton.
type Node struct {
	Name           string
	Parent         int // -1 for a root node.
	WorldTransform Matrix4
	StaticMeshes   []int
	SkinnedMeshes  []int
	Skeleton       int // -1 if not skinned.
}

// Mesh holds per-element geometry: faces as flat triangle index triplets,
// and parallel per-vertex attribute sets. UVs, normals, colors and
// opacities can each have multiple named sets ("UV sets" / "color sets" /
// "opacity sets").
type Mesh struct {
	Name     string
	Faces    []int // triangle index triplets, len % 3 == 0.
	Points   []Vec3
	Normals  []Vec3
	UVs      map[string][]Vec2
	Colors   map[string][]Vec3
	Opacity  map[string][]float64
	Material int // index into Scene.Materials, -1 if unbound.

	// Per-element (one entry per face) material-subset assignment, used
	// when a single mesh spans several materials (OBJ `usemtl` groups).
	FaceMaterials []int
}

// Skeleton binds joint names and bind-pose/rest transforms for skinned
// meshes. Joint weights/indices live on the owning Mesh in a real importer;
// kept as an explicit slice here since none of the OBJ/PLY/STL/SPZ formats
// this repo implements actually carry skinning data (only FBX's external
// collaborator would).
type Skeleton struct {
	Name         string
	JointNames   []string
	JointParents []int
	BindPoses    []Matrix4
}

// Material is the fixed PBR input set every mesh-format reader/writer
// converts to and from.
type Material struct {
	Name           string
	DiffuseColor   Vec3
	Metallic       float64
	Roughness      float64
	Normal         int // image index, -1 if none.
	Opacity        float64
	OpacityImage   int
	Emissive       Vec3
	EmissiveImage  int
	Occlusion      int
	IOR            float64
	Clearcoat      float64
	DiffuseImage   int
	MetallicImage  int
	RoughnessImage int
}

// DefaultMaterial returns the PBR defaults used when a format does not
// specify a channel: opaque white diffuse, no metal, moderately rough,
// IOR of 1.5 (matches common glass/plastic defaults used throughout the
// original importers), no image bindings.
func DefaultMaterial() Material {
	return Material{
		DiffuseColor:   Vec3{X: 1, Y: 1, Z: 1},
		Roughness:      0.5,
		Opacity:        1,
		IOR:            1.5,
		Normal:         -1,
		OpacityImage:   -1,
		EmissiveImage:  -1,
		Occlusion:      -1,
		DiffuseImage:   -1,
		MetallicImage:  -1,
		RoughnessImage: -1,
	}
}

// Image is a raw, undecoded image asset: a URI (possibly synthetic, e.g.
// "embedded:0"), a format hint, and the raw bytes.
type Image struct {
	URI    string
	Format string // "png", "jpg", ...
	Data   []byte
}

// Vec2 and Vec3 are the minimal point/vector values the mesh formats need.
// Scene values must round-trip through text formats without any
// renderer-only concept (e.g. GPU buffer layout) leaking in, so these stay
// plain structs rather than reusing a renderer-facing vector type.
type Vec2 struct{ X, Y float64 }
type Vec3 struct{ X, Y, Z float64 }

// Matrix4 is the row-major 4x4 transform matrix used for node world
// transforms and skeleton bind poses, reusing math/lin.M4 rather than
// hand-rolling a second matrix type: it is the same "compose world
// transforms" concern math/lin already solves.
type Matrix4 = lin.M4

// Identity returns the identity transform.
func Identity() Matrix4 {
	return *lin.NewM4I()
}

// ComposeTransform returns m * n (with row vectors, v*m*n: m applied
// first, then n, matching GfMatrix4d's left-to-right multiplication
// convention), via math/lin.M4.Mult.
func ComposeTransform(m, n Matrix4) Matrix4 {
	var out lin.M4
	out.Mult(&m, &n)
	return out
}
