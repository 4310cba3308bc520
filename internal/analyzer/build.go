package analyzer

import (
	"fmt"
	"sort"

	"github.com/zheng/schemagraph/internal/extract"
	"github.com/zheng/schemagraph/internal/graph"
	"github.com/zheng/schemagraph/internal/schema"
	"github.com/zheng/schemagraph/pkg/logging"
)

// customContainer names the container synthesized for custom graphs.
const customContainer = "CustomContainer"

// EntitySetDefinition is a root for BuildCustomDependencyGraph.
type EntitySetDefinition struct {
	EntitySetName string `json:"entitySetName"`
	EntityTypeFQN string `json:"entityTypeFqn"`
}

// DependencyGraph is a snapshot of everything reachable from a set of roots.
type DependencyGraph struct {
	AllTypes        []string                `json:"allTypes"`
	AllDependencies []extract.TypeReference `json:"allDependencies"`
	Container       *schema.EntityContainer `json:"container,omitempty"`
}

// BuildDependencyGraph seeds the store from the entity sets and singletons
// of container and pulls in every type they reach.
func (a *Analyzer) BuildDependencyGraph(container *schema.EntityContainer) (*DependencyGraph, error) {
	if container == nil {
		return nil, ErrNilContainer
	}

	namespace := ""
	for _, e := range a.set.Containers() {
		if e.Element == container {
			namespace = e.Namespace
			break
		}
	}
	if namespace == "" {
		return nil, fmt.Errorf("%w: container %s is not part of the schema set", ErrElementNotFound, container.Name)
	}

	var roots []string
	for _, es := range container.EntitySets {
		if es == nil {
			continue
		}
		roots = append(roots, schema.ContainerChildName(namespace, container.Name, es.Name))
	}
	for _, s := range container.Singletons {
		if s == nil {
			continue
		}
		roots = append(roots, schema.ContainerChildName(namespace, container.Name, s.Name))
	}

	g, err := a.buildFrom(roots)
	if err != nil {
		return nil, err
	}
	g.Container = container
	return g, nil
}

// BuildCustomDependencyGraph builds a graph rooted at explicit
// (entity set, entity type) pairs instead of a declared container.
func (a *Analyzer) BuildCustomDependencyGraph(defs []EntitySetDefinition) (*DependencyGraph, error) {
	container := &schema.EntityContainer{Name: customContainer}
	var roots []string
	for _, d := range defs {
		if d.EntitySetName == "" || d.EntityTypeFQN == "" {
			return nil, ErrEmptyIdentifier
		}
		container.EntitySets = append(container.EntitySets, &schema.EntitySet{
			Name:       d.EntitySetName,
			EntityType: d.EntityTypeFQN,
		})
		roots = append(roots, d.EntityTypeFQN)
	}

	g, err := a.buildFrom(roots)
	if err != nil {
		return nil, err
	}

	for _, es := range container.EntitySets {
		id := graph.SyntheticID(customContainer, es.Name)
		a.store.RegisterElement(id, customContainer+"/"+es.Name, schema.KindEntitySet, "")
		a.store.AddDependencyWithProperty(id, es.EntityType, "", graph.EdgeKindEntityType)
		g.AllDependencies = append(g.AllDependencies, extract.TypeReference{
			FullyQualifiedName: es.EntityType,
			Kind:               schema.KindEntityType,
			Via:                extract.RelationEntityType,
		})
	}
	g.Container = container
	return g, nil
}

func (a *Analyzer) buildFrom(roots []string) (*DependencyGraph, error) {
	b := graph.NewBuilder(a.set, a.x, a.store.RegisterNode, a.store.AddEdge)
	visited, err := b.BuildFrom(roots)
	if err != nil {
		return nil, fmt.Errorf("failed to build dependency graph: %w", err)
	}

	isRoot := make(map[string]bool, len(roots))
	for _, r := range roots {
		if a.set.KindOf(r) == schema.KindEntitySet || a.set.KindOf(r) == schema.KindSingleton {
			isRoot[r] = true
		}
	}

	g := &DependencyGraph{AllTypes: []string{}}
	for _, name := range visited {
		if !isRoot[name] {
			g.AllTypes = append(g.AllTypes, name)
		}
		refs, _ := a.refsOf(name)
		g.AllDependencies = append(g.AllDependencies, refs...)
	}
	sort.Strings(g.AllTypes)

	logging.Debug(subsystem, "dependency graph from %d roots: %d types, %d references",
		len(roots), len(g.AllTypes), len(g.AllDependencies))
	return g, nil
}
