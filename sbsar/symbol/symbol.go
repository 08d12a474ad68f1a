// Copyright © 2026 Adobe. All rights reserved.
// Use is governed by the Apache License, Version 2.0.

// Package symbol maps procedural-graph input/output identifiers, which
// allow any byte, to valid USD property names, which don't. The mapping
// is stable and collision-free for the lifetime of a Mapper: the same
// source identifier always yields the same USD name, and two different
// source identifiers never collide on one.
package symbol

import "unicode"

// Mapped is one substanceName/usdName pair.
type Mapped struct {
	SourceName string
	USDName    string
}

// Invalid reports whether m is the zero value.
func (m Mapped) Invalid() bool {
	return m.SourceName == ""
}

func forbidden(r rune) bool {
	return !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_')
}

func clean(name string) string {
	runes := []rune(name)
	for i, r := range runes {
		if forbidden(r) {
			runes[i] = '_'
		}
	}
	if len(runes) > 0 && unicode.IsDigit(runes[0]) {
		return "_" + string(runes)
	}
	return string(runes)
}

// Mapper assigns USD-legal names to graph input/output identifiers,
// remembering every assignment so repeated lookups of the same
// identifier return the same name.
type Mapper struct {
	bySource map[string]Mapped
	usdNames map[string]bool
}

// NewMapper returns an empty Mapper.
func NewMapper() *Mapper {
	return &Mapper{
		bySource: map[string]Mapped{},
		usdNames: map[string]bool{},
	}
}

// Get returns the USD name for sourceName, creating and remembering one
// on first use. Collisions with a previously assigned name are resolved
// by appending trailing underscores until unique.
func (m *Mapper) Get(sourceName string) Mapped {
	if existing, ok := m.bySource[sourceName]; ok {
		return existing
	}
	usdName := clean(sourceName)
	for m.usdNames[usdName] {
		usdName += "_"
	}
	m.usdNames[usdName] = true
	mapped := Mapped{SourceName: sourceName, USDName: usdName}
	m.bySource[sourceName] = mapped
	return mapped
}
