package graph

import (
	"sort"

	"vlanislands/internal/domain"
)

// VlanGraph is the subgraph of a Physical graph induced by one VLAN's members
type VlanGraph struct {
	Vlan domain.VLAN

	parent  *Physical
	nodes   []int
	members map[int]bool
}

// Vlan builds the induced subgraph for v. Members unknown to the graph are
// ignored; the loader guarantees there are none.
func (g *Physical) Vlan(v domain.VLAN) *VlanGraph {
	vg := &VlanGraph{
		Vlan:    v,
		parent:  g,
		nodes:   make([]int, 0, len(v.Members)),
		members: make(map[int]bool, len(v.Members)),
	}
	for _, m := range v.Members {
		i, ok := g.index[m]
		if !ok || vg.members[i] {
			continue
		}
		vg.members[i] = true
		vg.nodes = append(vg.nodes, i)
	}
	sort.Ints(vg.nodes)
	return vg
}

// Vlans builds one VlanGraph per VLAN in topology order
func (g *Physical) Vlans(topo *domain.Topology) []*VlanGraph {
	out := make([]*VlanGraph, 0, len(topo.Vlans))
	for _, v := range topo.Vlans {
		out = append(out, g.Vlan(v))
	}
	return out
}

// Len returns the number of member nodes
func (vg *VlanGraph) Len() int {
	return len(vg.nodes)
}

// Nodes returns the sorted member node indices
func (vg *VlanGraph) Nodes() []int {
	return vg.nodes
}

// Contains reports whether a node index carries the VLAN
func (vg *VlanGraph) Contains(i int) bool {
	return vg.members[i]
}

// ID returns the device id of a node index
func (vg *VlanGraph) ID(i int) string {
	return vg.parent.ID(i)
}

// Neighbors returns the member neighbors of a member node, in O(degree)
func (vg *VlanGraph) Neighbors(i int) []int {
	var out []int
	for _, n := range vg.parent.adj[i] {
		if vg.members[n] {
			out = append(out, n)
		}
	}
	return out
}

// Edges returns the induced edges ordered by (From, To)
func (vg *VlanGraph) Edges() []Edge {
	var out []Edge
	for _, e := range vg.parent.edges {
		if vg.members[e.From] && vg.members[e.To] {
			out = append(out, e)
		}
	}
	return out
}

// Components returns the connected components as sorted index lists,
// ordered by their lowest index. Traversal is breadth-first.
func (vg *VlanGraph) Components() [][]int {
	visited := make(map[int]bool, len(vg.nodes))
	var components [][]int

	for _, start := range vg.nodes {
		if visited[start] {
			continue
		}
		components = append(components, vg.bfs(start, visited))
	}

	return components
}

func (vg *VlanGraph) bfs(start int, visited map[int]bool) []int {
	queue := []int{start}
	visited[start] = true
	var result []int

	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		result = append(result, node)

		for _, neighbor := range vg.parent.adj[node] {
			if vg.members[neighbor] && !visited[neighbor] {
				visited[neighbor] = true
				queue = append(queue, neighbor)
			}
		}
	}

	sort.Ints(result)
	return result
}
