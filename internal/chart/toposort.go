package chart

import (
	"errors"
	"fmt"
)

var (
	// ErrCyclicDependency is returned by TopoSort when the edges form a cycle.
	ErrCyclicDependency = errors.New("chart: cyclic dependency")
	// ErrUnknownNode is returned by TopoSort when an edge references a missing node.
	ErrUnknownNode = errors.New("chart: unknown node")
)

// TopoSort orders nodes so that for every edge [a, b], a comes before b.
// Nodes that are not constrained keep their input order.
func TopoSort(nodes []string, edges [][2]string) ([]string, error) {
	index := make(map[string]int, len(nodes))
	for i, n := range nodes {
		if _, ok := index[n]; !ok {
			index[n] = i
		}
	}

	outgoing := make(map[string][]string, len(nodes))
	seen := make(map[[2]string]struct{}, len(edges))
	for _, e := range edges {
		if _, dup := seen[e]; dup {
			continue
		}
		seen[e] = struct{}{}
		if _, ok := index[e[0]]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownNode, e[0])
		}
		if _, ok := index[e[1]]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownNode, e[1])
		}
		outgoing[e[0]] = append(outgoing[e[0]], e[1])
	}

	sorted := make([]string, len(nodes))
	cursor := len(nodes)
	visited := make([]bool, len(nodes))
	active := make(map[string]bool)

	var visit func(node string) error
	visit = func(node string) error {
		if active[node] {
			return fmt.Errorf("%w: %q", ErrCyclicDependency, node)
		}
		i := index[node]
		if visited[i] {
			return nil
		}
		visited[i] = true
		children := outgoing[node]
		if len(children) > 0 {
			active[node] = true
			for j := len(children) - 1; j >= 0; j-- {
				if err := visit(children[j]); err != nil {
					return err
				}
			}
			delete(active, node)
		}
		cursor--
		sorted[cursor] = node
		return nil
	}

	for i := len(nodes) - 1; i >= 0; i-- {
		if visited[i] {
			continue
		}
		if index[nodes[i]] != i {
			// duplicate node name: keep only the first occurrence
			visited[i] = true
			continue
		}
		if err := visit(nodes[i]); err != nil {
			return nil, err
		}
	}
	return sorted[cursor:], nil
}
