package graph

import (
	"sort"
	"sync"

	"github.com/zheng/schemagraph/internal/schema"
)

// Store is an in-memory dependency graph keyed by element id. Outgoing and
// incoming edges are indexed together so both directions are cheap.
//
// Store is safe for concurrent use: mutations take the write lock and
// queries the read lock.
type Store struct {
	mu    sync.RWMutex
	nodes map[string]*Node
	order []string
	out   map[string][]Edge
	in    map[string][]Edge
	edges int
}

// NewStore creates an empty store
func NewStore() *Store {
	s := &Store{}
	s.reset()
	return s
}

// Reset drops every node and edge
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
}

func (s *Store) reset() {
	s.nodes = make(map[string]*Node)
	s.order = nil
	s.out = make(map[string][]Edge)
	s.in = make(map[string][]Edge)
	s.edges = 0
}

// RegisterElement inserts or updates a node. Existing edges are kept.
func (s *Store) RegisterElement(id, fqn string, kind schema.Kind, namespace string) {
	if id == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upsert(id, fqn, kind, namespace)
}

// RegisterNode is RegisterElement for a Node value.
func (s *Store) RegisterNode(n *Node) error {
	s.RegisterElement(n.ElementID, n.FQN, n.Kind, n.Namespace)
	return nil
}

func (s *Store) upsert(id, fqn string, kind schema.Kind, namespace string) {
	if n, ok := s.nodes[id]; ok {
		n.FQN = fqn
		n.Kind = kind
		n.Namespace = namespace
		return
	}
	s.nodes[id] = &Node{ElementID: id, FQN: fqn, Kind: kind, Namespace: namespace}
	s.order = append(s.order, id)
}

func (s *Store) ensure(id string) {
	if _, ok := s.nodes[id]; ok {
		return
	}
	s.nodes[id] = &Node{ElementID: id, Kind: schema.KindUnknown}
	s.order = append(s.order, id)
}

// UnregisterElement removes a node and every edge touching it.
func (s *Store) UnregisterElement(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.nodes[id]; !ok {
		return false
	}
	for _, e := range s.out[id] {
		if e.Target != id {
			s.in[e.Target] = dropEdges(s.in[e.Target], id, e.Target)
		}
	}
	for _, e := range s.in[id] {
		if e.Source != id {
			s.out[e.Source] = dropEdges(s.out[e.Source], e.Source, id)
		}
	}
	s.edges -= len(s.out[id])
	for _, e := range s.in[id] {
		if e.Source != id {
			s.edges--
		}
	}
	delete(s.out, id)
	delete(s.in, id)
	delete(s.nodes, id)
	for i, o := range s.order {
		if o == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

// AddDependency records that source depends on target.
func (s *Store) AddDependency(source, target string) {
	s.AddDependencyWithProperty(source, target, "", EdgeKindReference)
}

// AddDependencyWithProperty records a dependency created through a named
// property. Unknown endpoints become placeholder nodes. Self-references are
// kept. Adding an identical edge twice has no effect.
func (s *Store) AddDependencyWithProperty(source, target, property string, kind EdgeKind) {
	if source == "" || target == "" {
		return
	}
	if kind == "" {
		kind = EdgeKindReference
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ensure(source)
	s.ensure(target)

	e := Edge{Source: source, Target: target, Kind: kind, PropertyName: property}
	for _, existing := range s.out[source] {
		if existing == e {
			return
		}
	}
	s.out[source] = append(s.out[source], e)
	s.in[target] = append(s.in[target], e)
	s.edges++
}

// AddEdge is AddDependencyWithProperty for an Edge value.
func (s *Store) AddEdge(e *Edge) error {
	s.AddDependencyWithProperty(e.Source, e.Target, e.PropertyName, e.Kind)
	return nil
}

// RemoveDependency removes every edge from source to target.
func (s *Store) RemoveDependency(source, target string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := len(s.out[source])
	s.out[source] = dropEdges(s.out[source], source, target)
	s.in[target] = dropEdges(s.in[target], source, target)
	s.edges -= before - len(s.out[source])
}

func dropEdges(edges []Edge, source, target string) []Edge {
	kept := edges[:0]
	for _, e := range edges {
		if e.Source == source && e.Target == target {
			continue
		}
		kept = append(kept, e)
	}
	if len(kept) == 0 {
		return nil
	}
	return kept
}

// Node returns a copy of the node registered under id.
func (s *Store) Node(id string) (Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.nodes[id]
	if !ok {
		return Node{}, false
	}
	return *n, true
}

// Resolve finds a node by element id, falling back to its FQN.
func (s *Store) Resolve(name string) (Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if n, ok := s.nodes[name]; ok {
		return *n, true
	}
	for _, id := range s.order {
		if n := s.nodes[id]; n.FQN == name {
			return *n, true
		}
	}
	return Node{}, false
}

// Has reports whether id is registered (placeholders included).
func (s *Store) Has(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.nodes[id]
	return ok
}

// Nodes returns every node in registration order.
func (s *Store) Nodes() []Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Node, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.nodes[id])
	}
	return out
}

// Edges returns every edge, grouped by source in registration order.
func (s *Store) Edges() []Edge {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Edge, 0, s.edges)
	for _, id := range s.order {
		out = append(out, s.out[id]...)
	}
	return out
}

// Len returns the node and edge counts
func (s *Store) Len() (nodes, edges int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.nodes), s.edges
}

// OutEdges returns the outgoing edges of id.
func (s *Store) OutEdges(id string) []Edge {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Edge(nil), s.out[id]...)
}

// InEdges returns the incoming edges of id.
func (s *Store) InEdges(id string) []Edge {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Edge(nil), s.in[id]...)
}

// ElementsByKind returns the nodes of the given kind, sorted by id.
func (s *Store) ElementsByKind(kind schema.Kind) []Node {
	return s.filter(func(n *Node) bool { return n.Kind == kind })
}

// ElementsByNamespace returns the nodes declared in ns, sorted by id.
func (s *Store) ElementsByNamespace(ns string) []Node {
	return s.filter(func(n *Node) bool { return n.Namespace == ns })
}

func (s *Store) filter(keep func(*Node) bool) []Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Node
	for _, n := range s.nodes {
		if keep(n) {
			out = append(out, *n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ElementID < out[j].ElementID })
	return out
}
