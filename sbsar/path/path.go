// Copyright © 2026 Adobe. All rights reserved.
// Use is governed by the Apache License, Version 2.0.

// Package path implements the packaged-path codec: parsing and
// formatting the opaque
// "graphs/<graphName>/images?<key=value>(#<key=value>)*" asset path the
// host uses to name one image output of one graph at one parameter point.
// Grammar and field order follow
// assetPath/assetPathParser.cpp's splitByDelimiter/parsePath/generatePath.
package path

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// BindKind selects which single selector key a path carries: "usage" or
// "identifier".
type BindKind int

const (
	BindUsage BindKind = iota
	BindIdentifier
)

func (k BindKind) String() string {
	if k == BindIdentifier {
		return "identifier"
	}
	return "usage"
}

// ErrorKind classifies why parsing failed.
type ErrorKind int

const (
	ErrInvalidFormat ErrorKind = iota
	ErrInvalidAssetType
)

// ParseError is a typed parse failure.
type ParseError struct {
	Kind ErrorKind
	Msg  string
}

func (e *ParseError) Error() string { return e.Msg }

func newParseError(kind ErrorKind, format string, args ...any) *ParseError {
	return &ParseError{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Parsed is the decoded form of a packaged path.
type Parsed struct {
	GraphName      string
	BindKind       BindKind
	Usage          string // value of the usage= or identifier= key.
	Preset         string // "" and "__default__" are equivalent and normalized to "".
	PackageHash    uint64
	HasPackageHash bool
	Params         *Object // parsed "params" JSON object, always non-nil.
}

// Parse decodes a packaged path. Exactly one of usage/identifier, at most
// one preset, and at most one packageHash are accepted; anything else is
// an InvalidFormat error.
func Parse(s string) (*Parsed, error) {
	segments := strings.Split(s, "/")
	if len(segments) != 3 {
		return nil, newParseError(ErrInvalidFormat, "path format error, invalid path count %d: %s", len(segments), s)
	}
	if segments[0] != "graphs" {
		return nil, newParseError(ErrInvalidFormat, "path format error, only assets at /graphs supported")
	}
	out := &Parsed{GraphName: segments[1]}

	rest := strings.SplitN(segments[2], "?", 2)
	if len(rest) != 2 {
		return nil, newParseError(ErrInvalidFormat, "path format error, only a single ? supported")
	}
	if rest[0] != "images" {
		return nil, newParseError(ErrInvalidAssetType, "path format error, only image resources supported")
	}

	haveBind := false
	out.Params = NewObject()
	for _, part := range strings.Split(rest[1], "#") {
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			return nil, newParseError(ErrInvalidFormat, "path format error, only a single = in a parameter")
		}
		name, data := kv[0], kv[1]
		switch name {
		case "usage", "identifier":
			if haveBind {
				return nil, newParseError(ErrInvalidFormat, "path format error, only a single usage or identifier supported")
			}
			haveBind = true
			out.Usage = data
			if name == "usage" {
				out.BindKind = BindUsage
			} else {
				out.BindKind = BindIdentifier
			}
		case "preset":
			if out.Preset != "" {
				return nil, newParseError(ErrInvalidFormat, "path format error, preset can only be given once")
			}
			out.Preset = data
		case "packageHash":
			if out.HasPackageHash {
				return nil, newParseError(ErrInvalidFormat, "path format error, packageHash can only be given once")
			}
			hash, err := strconv.ParseUint(data, 16, 64)
			if err != nil {
				return nil, newParseError(ErrInvalidFormat, "path format error, invalid packageHash %q", data)
			}
			out.PackageHash = hash
			out.HasPackageHash = true
		case "params":
			obj, err := ParseObject(data)
			if err != nil {
				return nil, newParseError(ErrInvalidFormat, "path format error, invalid params JSON: %v", err)
			}
			out.Params = obj
		case "entries":
			// Recognized but ignored.
		default:
			return nil, newParseError(ErrInvalidFormat, "path format error, %q is not a supported parameter", name)
		}
	}
	if !haveBind {
		return nil, newParseError(ErrInvalidFormat, "path format error, a usage or identifier is required")
	}
	if out.Preset == "__default__" {
		out.Preset = ""
	}
	return out, nil
}

// Format renders a Parsed back into its canonical packaged-path string.
// Keys are emitted in the fixed order usage|identifier, preset,
// packageHash, params; params is always present, even when empty, and its
// object keys are sorted so that two logically-equal parameter sets
// produce byte-identical output, the cache-key-equality invariant
// every cache keyed by a packaged path relies on.
func Format(p *Parsed) string {
	var b strings.Builder
	fmt.Fprintf(&b, "graphs/%s/images?%s=%s", p.GraphName, p.BindKind, p.Usage)
	if p.Preset != "" && p.Preset != "__default__" {
		fmt.Fprintf(&b, "#preset=%s", p.Preset)
	}
	if p.HasPackageHash && p.PackageHash != 0 {
		fmt.Fprintf(&b, "#packageHash=%x", p.PackageHash)
	}
	params := p.Params
	if params == nil {
		params = NewObject()
	}
	fmt.Fprintf(&b, "#params=%s", params.Canonical())
	return b.String()
}

// Value is a parsed JSON leaf or container: json.Number, string, bool,
// nil, []Value, or *Object.
type Value any

// Object is an insertion-order-preserving JSON object (stdlib
// encoding/json decodes into an unordered map[string]any, which would
// silently discard the source key order; no ordered-JSON library exists
// in the pack, so this package walks the token stream itself via
// json.Decoder.Token(), the same technique the standard library's own
// encoding/json/v2 design discussions point to for order-sensitive
// decoding). Canonical() additionally sorts keys, mirroring pxr::JsObject
// (a std::map<string, JsValue>) as used by JsWriteValue.
type Object struct {
	keys   []string
	values map[string]Value
}

// NewObject returns an empty Object.
func NewObject() *Object {
	return &Object{values: map[string]Value{}}
}

// Set appends or overwrites a key, preserving first-insertion order for
// keys added via repeated Set calls (canonical rendering re-sorts
// regardless).
func (o *Object) Set(key string, v Value) {
	if _, ok := o.values[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.values[key] = v
}

// Get returns a key's value and whether it is present.
func (o *Object) Get(key string) (Value, bool) {
	v, ok := o.values[key]
	return v, ok
}

// Keys returns the object's keys in insertion order.
func (o *Object) Keys() []string {
	return append([]string(nil), o.keys...)
}

// ParseObject decodes a JSON object string into an Object, preserving the
// numeric literal text of each number (json.Number) so that re-encoding
// never introduces spurious precision.
func ParseObject(s string) (*Object, error) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	v, err := decodeValue(dec)
	if err != nil {
		return nil, err
	}
	obj, ok := v.(*Object)
	if !ok {
		return nil, fmt.Errorf("params must be a JSON object at the root")
	}
	return obj, nil
}

func decodeValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	return decodeFromToken(dec, tok)
}

func decodeFromToken(dec *json.Decoder, tok json.Token) (Value, error) {
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			obj := NewObject()
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("expected object key, got %v", keyTok)
				}
				v, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				obj.Set(key, v)
			}
			if _, err := dec.Token(); err != nil { // consume '}'
				return nil, err
			}
			return obj, nil
		case '[':
			var arr []Value
			for dec.More() {
				v, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				arr = append(arr, v)
			}
			if _, err := dec.Token(); err != nil { // consume ']'
				return nil, err
			}
			return arr, nil
		}
	case json.Number, string, bool, nil:
		return t, nil
	}
	return nil, fmt.Errorf("unsupported JSON token %v", tok)
}

// Canonical renders the object deterministically: keys sorted
// lexicographically at every nesting level, arrays preserved in their
// original order, numbers emitted via their original source text.
func (o *Object) Canonical() string {
	var b strings.Builder
	writeCanonical(&b, o)
	return b.String()
}

func writeCanonical(b *strings.Builder, v Value) {
	switch t := v.(type) {
	case *Object:
		keys := append([]string(nil), t.keys...)
		sort.Strings(keys)
		b.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				b.WriteByte(',')
			}
			kb, _ := json.Marshal(k)
			b.Write(kb)
			b.WriteByte(':')
			writeCanonical(b, t.values[k])
		}
		b.WriteByte('}')
	case []Value:
		b.WriteByte('[')
		for i, e := range t {
			if i > 0 {
				b.WriteByte(',')
			}
			writeCanonical(b, e)
		}
		b.WriteByte(']')
	case json.Number:
		b.WriteString(string(t))
	case string:
		sb, _ := json.Marshal(t)
		b.Write(sb)
	case bool:
		if t {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case nil:
		b.WriteString("null")
	}
}

// AsFloat coerces a leaf value to float64. Numeric coercion from real to
// int is permitted but should be logged by the caller, since only the
// caller knows the target input's declared type.
func AsFloat(v Value) (float64, bool) {
	n, ok := v.(json.Number)
	if !ok {
		return 0, false
	}
	f, err := n.Float64()
	return f, err == nil
}

// AsInt coerces a leaf value to int, rounding if it was authored as a
// real number. An unsigned integer above the int64 range (such as a
// 64-bit image hash) is returned with its bits reinterpreted as int.
func AsInt(v Value) (int, bool) {
	n, ok := v.(json.Number)
	if !ok {
		return 0, false
	}
	if i, err := n.Int64(); err == nil {
		return int(i), true
	}
	if u, err := strconv.ParseUint(string(n), 10, 64); err == nil {
		return int(u), true
	}
	f, err := n.Float64()
	if err != nil {
		return 0, false
	}
	return int(f + 0.5), true
}

// AsFloatArray coerces an array leaf into a fixed-size []float64.
func AsFloatArray(v Value) ([]float64, bool) {
	arr, ok := v.([]Value)
	if !ok {
		return nil, false
	}
	out := make([]float64, len(arr))
	for i, e := range arr {
		f, ok := AsFloat(e)
		if !ok {
			return nil, false
		}
		out[i] = f
	}
	return out, true
}

// AsIntArray coerces an array leaf into a fixed-size []int.
func AsIntArray(v Value) ([]int, bool) {
	arr, ok := v.([]Value)
	if !ok {
		return nil, false
	}
	out := make([]int, len(arr))
	for i, e := range arr {
		n, ok := AsInt(e)
		if !ok {
			return nil, false
		}
		out[i] = n
	}
	return out, true
}
