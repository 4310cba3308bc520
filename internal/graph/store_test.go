package graph

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zheng/schemagraph/internal/schema"
)

func chain(ids ...string) *Store {
	s := NewStore()
	for _, id := range ids {
		s.RegisterElement(id, id, schema.KindEntityType, "NS")
	}
	for i := 0; i+1 < len(ids); i++ {
		s.AddDependency(ids[i], ids[i+1])
	}
	return s
}

func TestRegisterElementIsIdempotentUpsert(t *testing.T) {
	s := NewStore()
	s.RegisterElement("NS.A", "NS.A", schema.KindEntityType, "NS")
	s.AddDependency("NS.A", "NS.B")

	s.RegisterElement("NS.A", "NS.A", schema.KindComplexType, "NS2")

	n, ok := s.Node("NS.A")
	require.True(t, ok)
	assert.Equal(t, schema.KindComplexType, n.Kind)
	assert.Equal(t, "NS2", n.Namespace)
	assert.Equal(t, []string{"NS.B"}, s.DirectDependencies("NS.A"))

	nodes, edges := s.Len()
	assert.Equal(t, 2, nodes)
	assert.Equal(t, 1, edges)
}

func TestAddDependencyCreatesPlaceholder(t *testing.T) {
	s := NewStore()
	s.RegisterElement("NS.A", "NS.A", schema.KindEntityType, "NS")
	s.AddDependencyWithProperty("NS.A", "NS.Missing", "ref", EdgeKindProperty)

	n, ok := s.Node("NS.Missing")
	require.True(t, ok)
	assert.True(t, n.IsPlaceholder())
	assert.Equal(t, []string{"NS.A"}, s.DirectDependents("NS.Missing"))
}

func TestMultipleEdgesBetweenPairAreKept(t *testing.T) {
	s := NewStore()
	s.AddDependencyWithProperty("NS.A", "NS.B", "home", EdgeKindProperty)
	s.AddDependencyWithProperty("NS.A", "NS.B", "work", EdgeKindProperty)
	s.AddDependencyWithProperty("NS.A", "NS.B", "work", EdgeKindProperty)

	assert.Len(t, s.OutEdges("NS.A"), 2)
	assert.Len(t, s.InEdges("NS.B"), 2)
	assert.Equal(t, []string{"NS.B"}, s.DirectDependencies("NS.A"))

	s.RemoveDependency("NS.A", "NS.B")
	assert.Empty(t, s.OutEdges("NS.A"))
	assert.Empty(t, s.InEdges("NS.B"))
	_, edges := s.Len()
	assert.Equal(t, 0, edges)

	// removing again is a no-op
	s.RemoveDependency("NS.A", "NS.B")
}

func TestTransitiveQueries(t *testing.T) {
	s := chain("Customer", "Address", "Country")

	assert.Equal(t, []string{"Address", "Country"}, s.AllDependencies("Customer"))
	assert.Equal(t, []string{"Address", "Customer"}, s.AllDependents("Country"))
	assert.Equal(t, []string{"Customer", "Address", "Country"}, s.DependencyPath("Customer", "Country"))
	assert.Empty(t, s.DependencyPath("Country", "Customer"))
}

func TestUnknownIDsReturnEmpty(t *testing.T) {
	s := chain("A", "B")
	assert.Empty(t, s.DirectDependencies("nope"))
	assert.Empty(t, s.AllDependencies("nope"))
	assert.Empty(t, s.AllDependents("nope"))
	assert.Empty(t, s.DependencyPath("nope", "A"))
	assert.Empty(t, s.DependencyPath("A", "nope"))
	assert.False(t, s.HasCircularDependency("nope"))
}

func TestSelfPathIdentity(t *testing.T) {
	s := chain("A", "B")
	assert.Equal(t, []string{"A"}, s.DependencyPath("A", "A"))
}

func TestCyclesTerminate(t *testing.T) {
	s := chain("A", "B")
	s.AddDependency("B", "A")

	assert.Equal(t, []string{"B"}, s.AllDependencies("A"))
	assert.True(t, s.HasCircularDependency("A"))
	assert.True(t, s.HasCircularDependency("B"))

	self := NewStore()
	self.AddDependency("S", "S")
	assert.True(t, self.HasCircularDependency("S"))
	assert.Empty(t, self.AllDependencies("S"))

	acyclic := chain("A", "B", "C")
	assert.False(t, acyclic.HasCircularDependency("A"))
}

func TestShortestPathPrefersFirstEdge(t *testing.T) {
	s := NewStore()
	s.AddDependency("A", "B")
	s.AddDependency("A", "C")
	s.AddDependency("B", "D")
	s.AddDependency("C", "D")
	s.AddDependency("A", "E")
	s.AddDependency("E", "F")
	s.AddDependency("F", "D")

	assert.Equal(t, []string{"A", "B", "D"}, s.DependencyPath("A", "D"))
}

func TestElementsByKindAndNamespace(t *testing.T) {
	s := NewStore()
	s.RegisterElement("X.A", "X.A", schema.KindEntityType, "X")
	s.RegisterElement("X.B", "X.B", schema.KindComplexType, "X")
	s.RegisterElement("Y.C", "Y.C", schema.KindEntityType, "Y")

	byKind := s.ElementsByKind(schema.KindEntityType)
	require.Len(t, byKind, 2)
	assert.Equal(t, "X.A", byKind[0].ElementID)
	assert.Equal(t, "Y.C", byKind[1].ElementID)
	assert.Len(t, s.ElementsByNamespace("X"), 2)
	assert.Empty(t, s.ElementsByNamespace("Z"))
}

func TestUnregisterElement(t *testing.T) {
	s := chain("A", "B", "C")
	s.AddDependency("B", "B")

	require.True(t, s.UnregisterElement("B"))
	assert.False(t, s.Has("B"))
	assert.Empty(t, s.DirectDependencies("A"))
	assert.Empty(t, s.DirectDependents("C"))

	nodes, edges := s.Len()
	assert.Equal(t, 2, nodes)
	assert.Equal(t, 0, edges)
	assert.False(t, s.UnregisterElement("B"))
}

func TestResetAndResolve(t *testing.T) {
	s := NewStore()
	s.RegisterElement(SyntheticID("NS", "C", "Orders"), "NS.C/Orders", schema.KindEntitySet, "NS")

	n, ok := s.Resolve("NS.C/Orders")
	require.True(t, ok)
	assert.Equal(t, SyntheticID("NS", "C", "Orders"), n.ElementID)

	s.Reset()
	nodes, edges := s.Len()
	assert.Zero(t, nodes)
	assert.Zero(t, edges)
}

func TestSyntheticIDIsStable(t *testing.T) {
	assert.Equal(t, SyntheticID("a", "b"), SyntheticID("a", "b"))
	assert.NotEqual(t, SyntheticID("a", "b"), SyntheticID("ab"))
	assert.Equal(t, "NS.A", ElementID("NS.A", "ignored"))
}

func TestConcurrentReadersAndWriter(t *testing.T) {
	s := chain("A", "B", "C")
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			s.AddDependency("C", fmt.Sprintf("N%d", i))
		}(i)
		go func() {
			defer wg.Done()
			_ = s.AllDependencies("A")
			_ = s.DependencyPath("A", "C")
		}()
	}
	wg.Wait()
	assert.Len(t, s.AllDependencies("A"), 10)
}
