// Copyright © 2026 Adobe. All rights reserved.
// Use is governed by the Apache License, Version 2.0.

// Package layer generates the virtual scene-description layer a package
// path resolves to: one class prim per graph carrying its inputs as
// typed attributes, one concrete prim per graph inheriting that class
// and binding a shader's inputs to packaged asset paths, and a
// default-prim choice the host can rely on when the package is
// referenced without an explicit prim path. Generation is read-only
// against the package descriptor cache; nothing here renders an image,
// it only describes where one would come from.
package layer

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/adobe/usd-fileformat-plugins/host"
	"github.com/adobe/usd-fileformat-plugins/sbsar/dynamic"
	"github.com/adobe/usd-fileformat-plugins/sbsar/path"
	"github.com/adobe/usd-fileformat-plugins/sbsar/pkgcache"
	"github.com/adobe/usd-fileformat-plugins/sbsar/symbol"
)

// Kind classifies a graph for the purpose of deciding which class
// schema and shader id it is generated under.
type Kind int

const (
	KindMaterial Kind = iota
	KindLight
)

func (k Kind) String() string {
	if k == KindLight {
		return "light"
	}
	return "material"
}

// materialUsages lists the output usages that mark a graph as a PBR
// material. A graph with none of these, and whose identifier or one of
// whose output usages mentions "light", is generated as a light instead;
// anything else defaults to material, matching the package format's
// overwhelming common case.
var materialUsages = map[string]bool{
	"basecolor": true, "diffuse": true, "metallic": true, "roughness": true,
	"normal": true, "opacity": true, "emissive": true, "occlusion": true,
	"height": true, "specular": true, "ior": true, "displacement": true,
}

func classify(graph pkgcache.GraphDesc) Kind {
	for _, out := range graph.Outputs {
		for _, usage := range out.Usages {
			if materialUsages[strings.ToLower(usage)] {
				return KindMaterial
			}
		}
	}
	if strings.Contains(strings.ToLower(graph.Identifier), "light") {
		return KindLight
	}
	for _, out := range graph.Outputs {
		for _, usage := range out.Usages {
			if strings.Contains(strings.ToLower(usage), "light") {
				return KindLight
			}
		}
	}
	return KindMaterial
}

// usdType maps an InputDesc.Kind to the USD attribute type
// token used when declaring it on the class prim.
func usdType(kind string) string {
	switch kind {
	case "color3":
		return "color3f"
	case "color4":
		return "color4f"
	case "float2":
		return "float2"
	case "float3":
		return "float3"
	case "float4":
		return "float4"
	case "integer":
		return "int"
	case "integer2":
		return "int2"
	case "integer3":
		return "int3"
	case "integer4":
		return "int4"
	case "string":
		return "string"
	case "image":
		return "asset"
	default:
		return "float"
	}
}

// thumbnailPath returns the package-relative thumbnail path for a
// graph, matching the sbsar convention of one PNG per graph under a
// fixed thumbnails/ directory.
func thumbnailPath(graphName string) string {
	return fmt.Sprintf("thumbnails/%s.png", graphName)
}

func thumbnailExists(ctx context.Context, resolver host.AssetResolver, resolvedPackagePath, graphName string) bool {
	resolved, err := resolver.Resolve(ctx, thumbnailPath(graphName))
	if err != nil {
		return false
	}
	r, err := resolver.OpenAsset(ctx, resolved)
	if err != nil {
		return false
	}
	r.Close()
	return true
}

// selectDefaultGraph picks the defaultPrim: a case-insensitive match
// between the package's own file name (sans extension) and a graph
// name wins; otherwise the first graph in descriptor order, the same
// fallback pkgcache.findSelectedGraph uses for "__default__".
func selectDefaultGraph(packagePath string, graphs []pkgcache.GraphDesc) pkgcache.GraphDesc {
	base := packagePath
	if idx := strings.LastIndexAny(base, "/\\"); idx >= 0 {
		base = base[idx+1:]
	}
	if idx := strings.LastIndex(base, "."); idx >= 0 {
		base = base[:idx]
	}
	for _, g := range graphs {
		if strings.EqualFold(g.Name, base) {
			return g
		}
	}
	return graphs[0]
}

// Generate builds the USDA text of the virtual layer describing
// resolvedPackagePath's graphs. packagePath is the original
// (unresolved) path, used only to pick the default prim by file name.
// The returned layer is always marked non-editable and non-savable:
// it is derived content, not something a host should write back.
func Generate(ctx context.Context, pkgCache *pkgcache.Cache, resolver host.AssetResolver, packagePath, resolvedPackagePath string) (string, error) {
	desc, _, err := pkgCache.GetDescriptor(ctx, resolvedPackagePath)
	if err != nil {
		return "", fmt.Errorf("layer: loading %s: %w", resolvedPackagePath, err)
	}
	if len(desc.Graphs) == 0 {
		return "", fmt.Errorf("layer: %s declares no graphs", resolvedPackagePath)
	}

	defaultGraph := selectDefaultGraph(packagePath, desc.Graphs)
	names := symbol.NewMapper()

	var b strings.Builder
	fmt.Fprintf(&b, "#usda 1.0\n(\n")
	fmt.Fprintf(&b, "    defaultPrim = %q\n", defaultGraph.Name)
	fmt.Fprintf(&b, "    doc = \"Generated by the sbsar dynamic file-format plugin. Not editable or savable.\"\n")
	fmt.Fprintf(&b, "    customLayerData = {\n")
	fmt.Fprintf(&b, "        bool permissionToEdit = false\n")
	fmt.Fprintf(&b, "        bool permissionToSave = false\n")
	fmt.Fprintf(&b, "    }\n)\n\n")

	for _, graph := range desc.Graphs {
		writeClass(&b, graph, names)
	}
	for _, graph := range desc.Graphs {
		writePrim(&b, graph, packagePath, resolver, ctx, resolvedPackagePath)
	}
	return b.String(), nil
}

// formatDefaultLiteral renders in.Default as a USDA value literal, in
// the shape usdType(in.Kind) expects: a bare number for a scalar kind,
// a parenthesized tuple for a vector/color kind, a quoted string for
// "string". Returns false if the input declares no default.
func formatDefaultLiteral(in pkgcache.InputDesc) (string, bool) {
	switch v := in.Default.(type) {
	case string:
		return fmt.Sprintf("%q", v), true
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64), true
	case []float64:
		if len(v) == 0 {
			return "", false
		}
		parts := make([]string, len(v))
		for i, f := range v {
			parts[i] = strconv.FormatFloat(f, 'g', -1, 64)
		}
		return "(" + strings.Join(parts, ", ") + ")", true
	default:
		return "", false
	}
}

func writeClass(b *strings.Builder, graph pkgcache.GraphDesc, names *symbol.Mapper) {
	className := "_class_" + graph.Name
	fmt.Fprintf(b, "class %q\n{\n", className)
	for _, in := range graph.Inputs {
		attr := names.Get(in.Identifier).USDName
		if attr == "" {
			attr = in.Identifier
		}
		fmt.Fprintf(b, "    uniform %s inputs:%s", usdType(in.Kind), attr)
		if literal, ok := formatDefaultLiteral(in); ok {
			fmt.Fprintf(b, " = %s", literal)
		}

		var meta []string
		if in.Label != "" {
			meta = append(meta, fmt.Sprintf("displayName = %q", in.Label))
		}
		if dynamic.IsColorKind(in.Kind) {
			// The package's declared values, including this input's
			// own Default, are in the host's linear working space;
			// colorSpace documents that for any DCC authoring over
			// this attribute. The engine-side sRGB convention is a
			// wire-level detail of BuildParams, not of the declared
			// value here.
			meta = append(meta, `colorSpace = "lin_srgb"`)
		}
		var custom []string
		if in.WidgetHint != "" {
			custom = append(custom, fmt.Sprintf("string widget = %q", in.WidgetHint))
		}
		if in.Min != nil {
			custom = append(custom, fmt.Sprintf("double min = %s", strconv.FormatFloat(*in.Min, 'g', -1, 64)))
		}
		if in.Max != nil {
			custom = append(custom, fmt.Sprintf("double max = %s", strconv.FormatFloat(*in.Max, 'g', -1, 64)))
		}
		if len(custom) > 0 {
			meta = append(meta, "customData = {\n        "+strings.Join(custom, "\n        ")+"\n    }")
		}
		if len(meta) > 0 {
			fmt.Fprintf(b, " (\n        %s\n    )", strings.Join(meta, "\n        "))
		}
		b.WriteString("\n")
	}
	b.WriteString("}\n\n")
}

func writePrim(b *strings.Builder, graph pkgcache.GraphDesc, packagePath string, resolver host.AssetResolver, ctx context.Context, resolvedPackagePath string) {
	kind := classify(graph)
	fmt.Fprintf(b, "def %q (\n    inherits = </_class_%s>\n)\n{\n", graph.Name, graph.Name)
	fmt.Fprintf(b, "    def Shader %q\n    {\n", shaderName(kind))
	fmt.Fprintf(b, "        uniform token info:id = %q\n", shaderID(kind))

	outputs := append([]pkgcache.OutputDesc(nil), graph.Outputs...)
	sort.Slice(outputs, func(i, j int) bool { return outputs[i].Identifier < outputs[j].Identifier })
	for _, out := range outputs {
		for _, usage := range out.Usages {
			p := &path.Parsed{GraphName: graph.Name, BindKind: path.BindUsage, Usage: usage, Params: path.NewObject()}
			fmt.Fprintf(b, "        asset inputs:%s = @%s@\n", strings.ToLower(usage), path.Format(p))
		}
	}
	if thumbnailExists(ctx, resolver, resolvedPackagePath, graph.Name) {
		fmt.Fprintf(b, "        asset inputs:thumbnail = @%s@\n", thumbnailPath(graph.Name))
	}
	b.WriteString("        token outputs:surface\n")
	b.WriteString("    }\n")
	fmt.Fprintf(b, "    token outputs:surface.connect = <%s.outputs:surface>\n", shaderName(kind))
	b.WriteString("}\n\n")
}

func shaderName(k Kind) string {
	if k == KindLight {
		return "Light"
	}
	return "PreviewSurface"
}

func shaderID(k Kind) string {
	if k == KindLight {
		return "UsdLuxSphereLight"
	}
	return "UsdPreviewSurface"
}

