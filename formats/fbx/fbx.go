// Copyright © 2026 Adobe. All rights reserved.
// Use is governed by the Apache License, Version 2.0.

// Package fbx defines the Importer/Exporter boundary for FBX assets.
// Autodesk's FBX SDK is the only realistic binary/ASCII FBX codec and is
// out of scope to re-derive: the real plugin links against it directly
// (see original_source/fbx's precompiled header, which pulls in the
// proprietary SDK with no portable reimplementation in the corpus). This
// package therefore exposes the same Importer/Exporter contract an
// SDK-backed plugin would satisfy, plus a Memory reference implementation
// that round-trips a common.Scene through an in-process representation,
// so callers (and tests) can exercise the dynamic file-format-argument
// pipeline end-to-end without the native SDK present.
package fbx

import (
	"fmt"

	"github.com/adobe/usd-fileformat-plugins/common"
)

// Importer decodes FBX bytes into the shared Scene model.
type Importer interface {
	Import(data []byte) (*common.Scene, error)
}

// Exporter encodes a Scene back into FBX bytes.
type Exporter interface {
	Export(scene *common.Scene) ([]byte, error)
}

// ImportExporter is satisfied by any backend offering both directions.
type ImportExporter interface {
	Importer
	Exporter
}

// Memory is a reference ImportExporter that is not a real FBX codec: it
// keeps scenes in an in-memory registry keyed by an opaque token, and
// "Import"/"Export" pass that token through as the wire representation.
// It lets the rest of this repo's pipeline (host resolution, dynamic
// arguments, layer generation) be exercised against an FBX-shaped asset
// without requiring the proprietary SDK; a real SDK binding would be
// another implementation of ImportExporter.
type Memory struct {
	scenes map[string]*common.Scene
	seq    int
}

// NewMemory returns an empty in-memory FBX backend.
func NewMemory() *Memory {
	return &Memory{scenes: map[string]*common.Scene{}}
}

// Put registers a scene and returns the opaque token Export will embed in
// its output bytes for a later Import to recover it by.
func (m *Memory) Put(scene *common.Scene) string {
	m.seq++
	token := fmt.Sprintf("fbx-mem-%d", m.seq)
	m.scenes[token] = scene
	return token
}

const memoryMagic = "FBXMEM1\x00"

// Export writes the token bytes for a scene previously registered via Put.
// Scenes not registered through Put cannot be round-tripped by this
// reference backend; a real SDK-backed Exporter would encode scene
// contents directly instead of delegating to an in-memory registry.
func (m *Memory) Export(scene *common.Scene) ([]byte, error) {
	for token, s := range m.scenes {
		if s == scene {
			return append([]byte(memoryMagic), []byte(token)...), nil
		}
	}
	return nil, fmt.Errorf("fbx: memory backend export: scene was not registered via Put")
}

// Import recovers a previously Put scene from its token bytes.
func (m *Memory) Import(data []byte) (*common.Scene, error) {
	if len(data) <= len(memoryMagic) || string(data[:len(memoryMagic)]) != memoryMagic {
		return nil, fmt.Errorf("fbx: memory backend import: not a memory-backend token")
	}
	token := string(data[len(memoryMagic):])
	scene, ok := m.scenes[token]
	if !ok {
		return nil, fmt.Errorf("fbx: memory backend import: unknown token %q", token)
	}
	return scene, nil
}
