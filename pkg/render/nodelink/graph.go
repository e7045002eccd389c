package nodelink

import (
	"github.com/matzehuels/cargo-dylib/pkg/manifest"
	"github.com/matzehuels/cargo-dylib/pkg/wrapper"
)

// Kind classifies a node.
type Kind int

const (
	KindProject    Kind = iota // The project being built
	KindWrapper                // A generated {name}-dynamic crate
	KindDependency             // The original dependency
)

// Node is a vertex of the indirection graph.
type Node struct {
	ID   string
	Kind Kind
	Spec string // Dependency specification, for KindDependency
}

// Edge points from a dependent to its dependency.
type Edge struct {
	From, To string
}

// Graph is the project's indirection graph in declaration order.
type Graph struct {
	Nodes []Node
	Edges []Edge
}

// FromManifest builds the graph project -> wrapper -> dependency for m.
func FromManifest(m *manifest.Manifest) *Graph {
	g := &Graph{}
	root := m.Package.Name
	g.Nodes = append(g.Nodes, Node{ID: root, Kind: KindProject})

	for name, dep := range m.Dependencies.All() {
		id := wrapper.DynamicName(name)
		g.Nodes = append(g.Nodes,
			Node{ID: id, Kind: KindWrapper},
			Node{ID: name, Kind: KindDependency, Spec: dep.String()},
		)
		g.Edges = append(g.Edges, Edge{From: root, To: id}, Edge{From: id, To: name})
	}
	return g
}
