// Package graph builds the citation graph of a zettelkasten.
//
// The graph is rebuilt from the store on every call to Build. Nodes live in an
// arena owned by the Graph and refer to each other by arena index, so cycles
// in the citation structure never become cycles of pointers between nodes.
package graph

import (
	"fmt"
	"sort"

	"github.com/starford/zk/internal/models"
	"github.com/starford/zk/internal/parser"
)

// Source is the subset of storage.Provider the builder needs.
type Source interface {
	List() ([]models.NoteMetadata, error)
	Load(id string) (*models.Zettel, error)
}

// WarningKind classifies a build warning.
type WarningKind string

const (
	WarnDecode   WarningKind = "decode"
	WarnDangling WarningKind = "dangling"
	WarnOrphan   WarningKind = "orphan"
)

// Warning is a non-fatal problem found while building the graph.
type Warning struct {
	Kind   WarningKind `json:"kind"`
	Source string      `json:"source"`
	Target string      `json:"target,omitempty"`
	Err    error       `json:"-"`
}

func (w Warning) String() string {
	switch w.Kind {
	case WarnDecode:
		return fmt.Sprintf("failed to load zettel %q: %v", w.Source, w.Err)
	case WarnDangling:
		return fmt.Sprintf("dangling reference: %q cites missing zettel %q", w.Source, w.Target)
	case WarnOrphan:
		return fmt.Sprintf("orphan zettel: %q has no citations in or out", w.Source)
	}
	return fmt.Sprintf("%s: %s", w.Kind, w.Source)
}

// Node wraps a zettel with its citation edges. Upstream nodes cite this one;
// downstream nodes are cited by it.
type Node struct {
	Zettel *models.Zettel

	g          *Graph
	upstream   []int
	downstream []int
}

// ID returns the wrapped zettel's id.
func (n *Node) ID() string {
	return n.Zettel.ID()
}

// Equal reports whether n and other wrap the same zettel id.
func (n *Node) Equal(other *Node) bool {
	if n == nil || other == nil {
		return n == other
	}
	return n.Zettel.Equal(other.Zettel)
}

// Upstream returns the nodes citing n.
func (n *Node) Upstream() []*Node {
	return n.g.resolve(n.upstream)
}

// Downstream returns the nodes n cites.
func (n *Node) Downstream() []*Node {
	return n.g.resolve(n.downstream)
}

// Neighbors returns the deduplicated union of upstream and downstream.
func (n *Node) Neighbors() []*Node {
	seen := make(map[int]struct{}, len(n.upstream)+len(n.downstream))
	var idx []int
	for _, list := range [][]int{n.upstream, n.downstream} {
		for _, i := range list {
			if _, ok := seen[i]; ok {
				continue
			}
			seen[i] = struct{}{}
			idx = append(idx, i)
		}
	}
	return n.g.resolve(idx)
}

// Graph is the citation graph of every loadable zettel in a store.
type Graph struct {
	nodes  []*Node
	byID   map[string]int
	rootID string
}

// Build loads every zettel from src and links them by their citations.
// Zettels that fail to load, citations of missing zettels and zettels with no
// neighbors are reported as warnings; only a failure to list src is an error.
func Build(src Source, rootID string) (*Graph, []Warning, error) {
	metas, err := src.List()
	if err != nil {
		return nil, nil, fmt.Errorf("graph: list zettels: %w", err)
	}

	g := &Graph{byID: make(map[string]int, len(metas)), rootID: rootID}
	var warnings []Warning

	for _, m := range metas {
		z, err := src.Load(m.ID)
		if err != nil {
			warnings = append(warnings, Warning{Kind: WarnDecode, Source: m.ID, Err: err})
			continue
		}
		g.byID[z.ID()] = len(g.nodes)
		g.nodes = append(g.nodes, &Node{Zettel: z, g: g})
	}

	for si, src := range g.nodes {
		for _, target := range parser.ExtractRefs(src.Zettel) {
			ti, ok := g.byID[target]
			if !ok {
				warnings = append(warnings, Warning{Kind: WarnDangling, Source: src.ID(), Target: target})
				continue
			}
			src.downstream = append(src.downstream, ti)
			g.nodes[ti].upstream = append(g.nodes[ti].upstream, si)
		}
	}

	for _, n := range g.Orphans() {
		warnings = append(warnings, Warning{Kind: WarnOrphan, Source: n.ID()})
	}

	return g, warnings, nil
}

// Root returns the node of the designated root zettel, or nil if it is not in
// the graph.
func (g *Graph) Root() *Node {
	n, _ := g.Node(g.rootID)
	return n
}

// Node returns the node for id.
func (g *Graph) Node(id string) (*Node, bool) {
	i, ok := g.byID[id]
	if !ok {
		return nil, false
	}
	return g.nodes[i], true
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Nodes returns every node sorted by id.
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, len(g.nodes))
	copy(out, g.nodes)
	sortNodes(out)
	return out
}

// Links returns every citation edge, ordered by source then target id.
func (g *Graph) Links() []models.Ref {
	var out []models.Ref
	for _, n := range g.Nodes() {
		for _, d := range n.Downstream() {
			out = append(out, models.Ref{Source: n.ID(), Target: d.ID()})
		}
	}
	return out
}

func (g *Graph) resolve(idx []int) []*Node {
	out := make([]*Node, len(idx))
	for i, j := range idx {
		out[i] = g.nodes[j]
	}
	sortNodes(out)
	return out
}

func sortNodes(nodes []*Node) {
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID() < nodes[j].ID() })
}
