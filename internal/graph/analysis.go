package graph

import (
	"sort"
	"strings"
)

// defaultNamespace groups nodes registered without a namespace.
const defaultNamespace = "default"

// Stats summarizes the shape of the graph
type Stats struct {
	TotalElements               int            `json:"totalElements"`
	TotalDependencies           int            `json:"totalDependencies"`
	ElementsWithDependencies    int            `json:"elementsWithDependencies"`
	ElementsWithoutDependencies int            `json:"elementsWithoutDependencies"`
	MaxDepth                    int            `json:"maxDepth"`
	AverageDependencies         float64        `json:"averageDependencies"`
	CountByNamespace            map[string]int `json:"countByNamespace"`
	CountByKind                 map[string]int `json:"countByKind"`
}

// ImpactAnalysis lists what is affected when an element changes
type ImpactAnalysis struct {
	Target              string         `json:"target"`
	DirectlyAffected    []string       `json:"directlyAffected"`
	IndirectlyAffected  []string       `json:"indirectlyAffected"`
	TotalAffected       int            `json:"totalAffected"`
	AffectedByNamespace map[string]int `json:"affectedByNamespace"`
}

// Cycle is one dependency cycle; the first id is repeated at the end.
type Cycle []string

// Snapshot is a copy of the whole graph, used for persistence and export
type Snapshot struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Layers groups nodes so that every node depends only on nodes in earlier
// layers. Layer 0 holds nodes with no dependencies. If a cycle blocks
// progress, all remaining nodes form the last layer.
func (s *Store) Layers() [][]string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pending := make(map[string]int, len(s.nodes))
	for id := range s.nodes {
		pending[id] = len(neighbours(s.out[id], true))
	}

	var layers [][]string
	for len(pending) > 0 {
		var layer []string
		for id, n := range pending {
			if n == 0 {
				layer = append(layer, id)
			}
		}
		if len(layer) == 0 {
			rest := make([]string, 0, len(pending))
			for id := range pending {
				rest = append(rest, id)
			}
			sort.Strings(rest)
			layers = append(layers, rest)
			break
		}
		sort.Strings(layer)
		for _, id := range layer {
			delete(pending, id)
		}
		for _, id := range layer {
			for _, dep := range neighbours(s.in[id], false) {
				if _, ok := pending[dep]; ok {
					pending[dep]--
				}
			}
		}
		layers = append(layers, layer)
	}
	return layers
}

// Stats computes summary statistics
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Stats{
		TotalElements:     len(s.nodes),
		TotalDependencies: s.edges,
		CountByNamespace:  make(map[string]int),
		CountByKind:       make(map[string]int),
	}

	distinct := 0
	withDeps := 0
	for id, n := range s.nodes {
		deps := len(neighbours(s.out[id], true))
		distinct += deps
		if deps > 0 {
			withDeps++
		}
		st.CountByNamespace[namespaceOf(n)]++
		st.CountByKind[n.Kind.String()]++
	}
	st.ElementsWithDependencies = withDeps
	st.ElementsWithoutDependencies = st.TotalElements - withDeps
	if withDeps > 0 {
		st.AverageDependencies = float64(distinct) / float64(withDeps)
	}
	st.MaxDepth = s.maxDepth()
	return st
}

// maxDepth is the largest BFS level reached over outgoing edges from any
// node, so a shortcut edge caps the depth of the chain it bypasses. Callers
// hold the read lock.
func (s *Store) maxDepth() int {
	max := 0
	for _, start := range s.order {
		level := map[string]int{start: 0}
		queue := []string{start}
		for len(queue) > 0 {
			id := queue[0]
			queue = queue[1:]
			for _, next := range neighbours(s.out[id], true) {
				if _, ok := level[next]; ok {
					continue
				}
				level[next] = level[id] + 1
				if level[next] > max {
					max = level[next]
				}
				queue = append(queue, next)
			}
		}
	}
	return max
}

// Impact reports which elements are affected by a change to id.
func (s *Store) Impact(id string) ImpactAnalysis {
	s.mu.RLock()
	defer s.mu.RUnlock()

	direct := neighbours(s.in[id], false)
	all := s.reach(id, false)

	isDirect := make(map[string]bool, len(direct))
	for _, d := range direct {
		isDirect[d] = true
	}
	var indirect []string
	for _, a := range all {
		if !isDirect[a] {
			indirect = append(indirect, a)
		}
	}

	ia := ImpactAnalysis{
		Target:              id,
		DirectlyAffected:    sortedSet(direct),
		IndirectlyAffected:  sortedSet(indirect),
		AffectedByNamespace: make(map[string]int),
	}
	ia.TotalAffected = len(ia.DirectlyAffected) + len(ia.IndirectlyAffected)
	for _, a := range append(append([]string(nil), ia.DirectlyAffected...), ia.IndirectlyAffected...) {
		ia.AffectedByNamespace[s.namespaceOfID(a)]++
	}
	return ia
}

// RootElements returns nodes nothing depends on.
func (s *Store) RootElements() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []string
	for id := range s.nodes {
		if len(s.in[id]) == 0 {
			out = append(out, id)
		}
	}
	return sortedSet(out)
}

// LeafElements returns nodes with no dependencies.
func (s *Store) LeafElements() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []string
	for id := range s.nodes {
		if len(s.out[id]) == 0 {
			out = append(out, id)
		}
	}
	return sortedSet(out)
}

type visitState uint8

const (
	unvisited visitState = iota
	visiting
	visited
)

// Cycles returns every cycle closed by a back edge during a depth-first
// walk in registration order. Each cycle is reported once.
func (s *Store) Cycles() []Cycle {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state := make(map[string]visitState, len(s.nodes))
	seen := make(map[string]bool)
	var stack []string
	var cycles []Cycle

	var visit func(id string)
	visit = func(id string) {
		state[id] = visiting
		stack = append(stack, id)
		for _, next := range neighbours(s.out[id], true) {
			switch state[next] {
			case unvisited:
				visit(next)
			case visiting:
				start := len(stack) - 1
				for stack[start] != next {
					start--
				}
				c := append(Cycle(nil), stack[start:]...)
				c = append(c, next)
				if key := cycleKey(c); !seen[key] {
					seen[key] = true
					cycles = append(cycles, c)
				}
			}
		}
		stack = stack[:len(stack)-1]
		state[id] = visited
	}

	for _, id := range s.order {
		if state[id] == unvisited {
			visit(id)
		}
	}
	return cycles
}

// cycleKey identifies a cycle independent of its starting node.
func cycleKey(c Cycle) string {
	members := append([]string(nil), c[:len(c)-1]...)
	min := 0
	for i := range members {
		if members[i] < members[min] {
			min = i
		}
	}
	rotated := append(members[min:], members[:min]...)
	return strings.Join(rotated, "\x00")
}

// Snapshot copies out all nodes and edges
func (s *Store) Snapshot() Snapshot {
	return Snapshot{Nodes: s.Nodes(), Edges: s.Edges()}
}

// Restore replaces the store contents with snap.
func (s *Store) Restore(snap Snapshot) {
	s.Reset()
	for _, n := range snap.Nodes {
		s.RegisterElement(n.ElementID, n.FQN, n.Kind, n.Namespace)
	}
	for _, e := range snap.Edges {
		s.AddDependencyWithProperty(e.Source, e.Target, e.PropertyName, e.Kind)
	}
}

func namespaceOf(n *Node) string {
	if n.Namespace != "" {
		return n.Namespace
	}
	if idx := strings.LastIndex(n.ElementID, "."); idx > 0 {
		return n.ElementID[:idx]
	}
	return defaultNamespace
}

func (s *Store) namespaceOfID(id string) string {
	if n, ok := s.nodes[id]; ok {
		return namespaceOf(n)
	}
	return defaultNamespace
}
