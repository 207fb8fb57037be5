package meshutils

import (
	"fmt"
	"math"
	"sort"

	"github.com/notargets/gomeshgen/mesh"
)

// MakeOrderedNodeList chains edges into closed loops. Every node has to be
// shared by exactly two edges.
func MakeOrderedNodeList(edges [][2]*mesh.Node) (loops [][]*mesh.Node, err error) {
	adj := make(map[*mesh.Node][]*mesh.Node)
	for _, e := range edges {
		if e[0] == e[1] {
			return nil, fmt.Errorf("degenerate boundary edge at node %d", e[0].ID)
		}
		adj[e[0]] = append(adj[e[0]], e[1])
		adj[e[1]] = append(adj[e[1]], e[0])
	}
	starts := make([]*mesh.Node, 0, len(adj))
	for n, nbrs := range adj {
		if len(nbrs) != 2 {
			return nil, fmt.Errorf("node %d is shared by %d boundary edges, the boundary is not a set of closed loops",
				n.ID, len(nbrs))
		}
		starts = append(starts, n)
	}
	sort.Slice(starts, func(i, j int) bool { return starts[i].ID < starts[j].ID })
	visited := make(map[*mesh.Node]bool, len(adj))
	for _, start := range starts {
		if visited[start] {
			continue
		}
		var (
			loop       = []*mesh.Node{start}
			prev, curr = start, adj[start][0]
		)
		visited[start] = true
		for curr != start {
			visited[curr] = true
			loop = append(loop, curr)
			next := adj[curr][0]
			if next == prev {
				next = adj[curr][1]
			}
			prev, curr = curr, next
		}
		loops = append(loops, loop)
	}
	return
}

// BoundaryEdges returns the external sides of a 2D mesh, or the elements of
// a 1D curve mesh, as node pairs
func BoundaryEdges(m *mesh.Mesh) (edges [][2]*mesh.Node) {
	for e := range m.Elements() {
		switch e.Dim() {
		case 1:
			edges = append(edges, [2]*mesh.Node{e.Nodes[0], e.Nodes[1]})
		case 2:
			for s := 0; s < e.NSides(); s++ {
				if e.Neighbor(s) == nil {
					nodes := e.SideNodes(s)
					edges = append(edges, [2]*mesh.Node{nodes[0], nodes[1]})
				}
			}
		}
	}
	return
}

// SignedArea is the shoelace area of a loop in the XY plane, positive when
// counter clockwise
func SignedArea(loop []*mesh.Node) (area float64) {
	for i := range loop {
		p, q := loop[i], loop[(i+1)%len(loop)]
		area += p.X*q.Y - q.X*p.Y
	}
	return area / 2
}

// OuterLoop returns the loop enclosing the largest area, oriented counter
// clockwise, together with the remaining loops
func OuterLoop(loops [][]*mesh.Node) (outer []*mesh.Node, inner [][]*mesh.Node) {
	best := -1
	for i, loop := range loops {
		if best < 0 || math.Abs(SignedArea(loop)) > math.Abs(SignedArea(loops[best])) {
			best = i
		}
	}
	if best < 0 {
		return
	}
	outer = append([]*mesh.Node(nil), loops[best]...)
	if SignedArea(outer) < 0 {
		for i, j := 0, len(outer)-1; i < j; i, j = i+1, j-1 {
			outer[i], outer[j] = outer[j], outer[i]
		}
	}
	for i, loop := range loops {
		if i != best {
			inner = append(inner, loop)
		}
	}
	return
}
