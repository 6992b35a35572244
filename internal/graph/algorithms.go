package graph

// Orphans returns the nodes with no upstream or downstream neighbors, sorted
// by id.
func (g *Graph) Orphans() []*Node {
	var out []*Node
	for _, n := range g.nodes {
		if len(n.upstream) == 0 && len(n.downstream) == 0 {
			out = append(out, n)
		}
	}
	sortNodes(out)
	return out
}

// DeadEnds returns the nodes that are cited but cite nothing themselves.
func (g *Graph) DeadEnds() []*Node {
	var out []*Node
	for _, n := range g.nodes {
		if len(n.upstream) > 0 && len(n.downstream) == 0 {
			out = append(out, n)
		}
	}
	sortNodes(out)
	return out
}

// Unreachable returns the nodes that cannot be reached from the root by
// following edges in either direction. Without a root every node is
// unreachable.
func (g *Graph) Unreachable() []*Node {
	seen := make([]bool, len(g.nodes))
	if start, ok := g.byID[g.rootID]; ok {
		queue := []int{start}
		seen[start] = true
		for len(queue) > 0 {
			cur := g.nodes[queue[0]]
			queue = queue[1:]
			for _, list := range [][]int{cur.upstream, cur.downstream} {
				for _, i := range list {
					if !seen[i] {
						seen[i] = true
						queue = append(queue, i)
					}
				}
			}
		}
	}

	var out []*Node
	for i, n := range g.nodes {
		if !seen[i] {
			out = append(out, n)
		}
	}
	sortNodes(out)
	return out
}
