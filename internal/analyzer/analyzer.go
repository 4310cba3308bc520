package analyzer

import (
	"fmt"
	"strings"

	"github.com/zheng/schemagraph/internal/extract"
	"github.com/zheng/schemagraph/internal/graph"
	"github.com/zheng/schemagraph/internal/schema"
	"github.com/zheng/schemagraph/pkg/logging"
)

const subsystem = "analyzer"

// Analyzer answers dependency questions across a whole schema set. Direct
// and transitive queries run on the extractor over the schema set; the
// graph store is filled by Load and the Build* methods and backs impact,
// layering and statistics.
type Analyzer struct {
	set    *schema.Set
	x      *extract.Extractor
	store  *graph.Store
	scopes map[schema.Element]extract.Scope
}

// New creates an analyzer over set. A nil store gets a fresh one.
func New(set *schema.Set, store *graph.Store) *Analyzer {
	if store == nil {
		store = graph.NewStore()
	}
	a := &Analyzer{
		set:    set,
		x:      extract.New(extract.WithKindLookup(set.KindOf)),
		store:  store,
		scopes: make(map[schema.Element]extract.Scope),
	}
	for _, e := range set.Entries() {
		a.scopes[e.Element] = extract.ScopeOf(e)
	}
	return a
}

// Set returns the schema set being analyzed
func (a *Analyzer) Set() *schema.Set { return a.set }

// Store returns the graph store
func (a *Analyzer) Store() *graph.Store { return a.store }

// Extractor returns the extractor used for all queries
func (a *Analyzer) Extractor() *extract.Extractor { return a.x }

// Load fills the store with every element and dependency in the set.
func (a *Analyzer) Load() error {
	b := graph.NewBuilder(a.set, a.x, a.store.RegisterNode, a.store.AddEdge)
	if err := b.Build(); err != nil {
		return fmt.Errorf("failed to build graph: %w", err)
	}
	nodes, edges := a.store.Len()
	logging.Debug(subsystem, "graph loaded: %d nodes, %d edges", nodes, edges)
	return nil
}

// DirectDependencies returns the references written in el itself.
func (a *Analyzer) DirectDependencies(el schema.Element) []extract.TypeReference {
	if el == nil {
		return nil
	}
	return a.x.ExtractIn(a.scopes[el], el)
}

// refsOf returns the direct references of every element declared under
// name. ok is false when nothing is declared there.
func (a *Analyzer) refsOf(name string) (refs []extract.TypeReference, ok bool) {
	entries := a.set.ResolveAll(name)
	for _, e := range entries {
		refs = append(refs, a.x.ExtractEntry(e)...)
	}
	return refs, len(entries) > 0
}

// AllDependencies returns every reference reachable from el, one per
// qualified name, in discovery order. Names that do not resolve are kept
// but not expanded. el's own name appears when el sits on a cycle.
func (a *Analyzer) AllDependencies(el schema.Element) []extract.TypeReference {
	if el == nil {
		return nil
	}
	return a.closure(a.DirectDependencies(el))
}

// AllDependenciesOf is AllDependencies for a qualified name.
func (a *Analyzer) AllDependenciesOf(fqn string) ([]extract.TypeReference, error) {
	if strings.TrimSpace(fqn) == "" {
		return nil, ErrEmptyIdentifier
	}
	refs, ok := a.refsOf(fqn)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrElementNotFound, fqn)
	}
	return a.closure(refs), nil
}

func (a *Analyzer) closure(seed []extract.TypeReference) []extract.TypeReference {
	visited := make(map[string]bool)
	var result []extract.TypeReference
	work := append([]extract.TypeReference(nil), seed...)

	for len(work) > 0 {
		ref := work[0]
		work = work[1:]
		if visited[ref.FullyQualifiedName] {
			continue
		}
		visited[ref.FullyQualifiedName] = true
		result = append(result, ref)

		next, ok := a.refsOf(ref.FullyQualifiedName)
		if !ok {
			logging.Debug(subsystem, "unresolved reference %s", ref.FullyQualifiedName)
			continue
		}
		for _, n := range next {
			if !visited[n.FullyQualifiedName] {
				work = append(work, n)
			}
		}
	}
	return result
}

// Dependents scans every element in the set and returns those that
// reference fqn directly. Each result names the dependent element and the
// property it references fqn through.
func (a *Analyzer) Dependents(fqn string) []extract.TypeReference {
	var out []extract.TypeReference
	seen := make(map[[2]string]bool)
	for _, e := range a.set.Entries() {
		for _, ref := range a.x.ExtractEntry(e) {
			if ref.FullyQualifiedName != fqn {
				continue
			}
			key := [2]string{e.FQN, ref.PropertyName}
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, extract.TypeReference{
				FullyQualifiedName: e.FQN,
				Kind:               e.Element.ElementKind(),
				PropertyName:       ref.PropertyName,
				IsCollection:       ref.IsCollection,
				Via:                ref.Via,
			})
		}
	}
	return out
}

// HasDependency reports whether from depends on to, directly or not.
func (a *Analyzer) HasDependency(from, to string) (bool, error) {
	if strings.TrimSpace(from) == "" || strings.TrimSpace(to) == "" {
		return false, ErrEmptyIdentifier
	}
	refs, ok := a.refsOf(from)
	if !ok {
		return false, nil
	}
	for _, ref := range a.closure(refs) {
		if ref.FullyQualifiedName == to {
			return true, nil
		}
	}
	return false, nil
}

// DependencyPath returns the first shortest chain of qualified names from
// one element to another, both ends included. It is empty when either name
// is blank or to cannot be reached.
func (a *Analyzer) DependencyPath(from, to string) []string {
	if strings.TrimSpace(from) == "" || strings.TrimSpace(to) == "" {
		return nil
	}
	if from == to {
		return []string{from}
	}

	parent := map[string]string{from: ""}
	queue := []string{from}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		refs, _ := a.refsOf(cur)
		for _, ref := range refs {
			next := ref.FullyQualifiedName
			if _, seen := parent[next]; seen {
				continue
			}
			parent[next] = cur
			if next == to {
				return unwind(parent, from, to)
			}
			queue = append(queue, next)
		}
	}
	return nil
}

func unwind(parent map[string]string, from, to string) []string {
	var path []string
	for cur := to; ; cur = parent[cur] {
		path = append(path, cur)
		if cur == from {
			break
		}
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}
