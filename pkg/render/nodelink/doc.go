// Package nodelink renders the dependency indirection of a prepared project
// as a node-link diagram.
//
// # Overview
//
// Every dependency of the project is reached through its wrapper crate:
//
//	app -> serde-dynamic -> serde
//	app -> tokio-dynamic -> tokio
//
// [FromManifest] builds this graph from the real manifest alone, so it can be
// drawn without generating anything.
//
// # Usage
//
//	g := nodelink.FromManifest(m)
//	dot := nodelink.ToDOT(g, nodelink.Options{Detailed: true})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// # DOT Format
//
// [ToDOT] produces Graphviz DOT source that can be rendered by [RenderSVG]
// or any Graphviz installation:
//
//	cargo dylib graph | dot -Tpng -o deps.png
package nodelink
