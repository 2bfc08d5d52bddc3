// Package graph builds the physical topology graph and per-VLAN induced subgraphs.
//
// Device ids are mapped to dense integer indices in natural id order, so
// index order and id order agree. The physical graph keeps both an
// adjacency list per index and a flat edge array; VLAN graphs are views
// that filter the shared adjacency by membership.
package graph

import (
	"sort"
	"strings"

	"vlanislands/internal/domain"
)

// Options tunes graph construction
type Options struct {
	// ExcludeLinkStatuses drops links whose status matches, case-insensitively
	ExcludeLinkStatuses []string
}

// Edge is an undirected edge between two node indices, From < To
type Edge struct {
	From int
	To   int
	Link domain.Link
}

// Physical is the undirected physical topology graph. It is read-only once built.
type Physical struct {
	ids   []string
	index map[string]int
	adj   [][]int
	edges []Edge
}

// Build constructs the physical graph in O(devices + links)
func Build(topo *domain.Topology, opts Options) *Physical {
	ids := make([]string, 0, len(topo.Devices))
	for _, d := range topo.Devices {
		ids = append(ids, d.ID)
	}
	domain.SortIDs(ids)

	g := &Physical{
		ids:   ids,
		index: make(map[string]int, len(ids)),
		adj:   make([][]int, len(ids)),
	}
	for i, id := range ids {
		g.index[id] = i
	}

	excluded := make(map[string]bool, len(opts.ExcludeLinkStatuses))
	for _, s := range opts.ExcludeLinkStatuses {
		excluded[strings.ToLower(s)] = true
	}

	seen := make(map[[2]int]bool, len(topo.Links))
	for _, l := range topo.Links {
		if l.Status != "" && excluded[strings.ToLower(l.Status)] {
			continue
		}
		a, okA := g.index[l.A]
		b, okB := g.index[l.B]
		if !okA || !okB || a == b {
			continue
		}
		if a > b {
			a, b = b, a
		}
		key := [2]int{a, b}
		if seen[key] {
			continue
		}
		seen[key] = true

		g.edges = append(g.edges, Edge{From: a, To: b, Link: l})
		g.adj[a] = append(g.adj[a], b)
		g.adj[b] = append(g.adj[b], a)
	}

	for i := range g.adj {
		sort.Ints(g.adj[i])
	}
	sort.Slice(g.edges, func(i, j int) bool {
		if g.edges[i].From != g.edges[j].From {
			return g.edges[i].From < g.edges[j].From
		}
		return g.edges[i].To < g.edges[j].To
	})

	return g
}

// Len returns the number of nodes
func (g *Physical) Len() int {
	return len(g.ids)
}

// EdgeCount returns the number of distinct edges
func (g *Physical) EdgeCount() int {
	return len(g.edges)
}

// ID returns the device id for a node index
func (g *Physical) ID(i int) string {
	return g.ids[i]
}

// Index returns the node index for a device id
func (g *Physical) Index(id string) (int, bool) {
	i, ok := g.index[id]
	return i, ok
}

// Neighbors returns the sorted neighbor indices of a node. Callers must not modify it.
func (g *Physical) Neighbors(i int) []int {
	return g.adj[i]
}

// Edges returns the edge array view, ordered by (From, To). Callers must not modify it.
func (g *Physical) Edges() []Edge {
	return g.edges
}

// HasEdge reports whether two devices are directly linked
func (g *Physical) HasEdge(a, b string) bool {
	ia, okA := g.index[a]
	ib, okB := g.index[b]
	if !okA || !okB {
		return false
	}
	n := g.adj[ia]
	k := sort.SearchInts(n, ib)
	return k < len(n) && n[k] == ib
}
