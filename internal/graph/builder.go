package graph

import (
	"fmt"

	"github.com/zheng/schemagraph/internal/extract"
	"github.com/zheng/schemagraph/internal/schema"
)

// Builder walks a schema set and emits nodes and edges through callbacks,
// so the same walk can fill a Store or a database.
type Builder struct {
	set      *schema.Set
	x        *extract.Extractor
	nodeMap  map[string]string // qualified name -> element id
	edgeSet  map[string]bool
	insertFn func(*Node) error
	edgeFn   func(*Edge) error
}

// NewBuilder creates a new graph builder
func NewBuilder(
	set *schema.Set,
	x *extract.Extractor,
	insertFn func(*Node) error,
	edgeFn func(*Edge) error,
) *Builder {
	return &Builder{
		set:      set,
		x:        x,
		nodeMap:  make(map[string]string),
		edgeSet:  make(map[string]bool),
		insertFn: insertFn,
		edgeFn:   edgeFn,
	}
}

// Build registers every element of the set, then every dependency.
func (b *Builder) Build() error {
	entries := b.set.Entries()

	// First pass: nodes, so that edges can refer to real ids
	for _, e := range entries {
		if err := b.registerEntry(e); err != nil {
			return err
		}
	}

	// Second pass: edges
	for _, e := range entries {
		if err := b.linkEntry(e); err != nil {
			return err
		}
	}
	return nil
}

// BuildFrom registers the given roots and everything they reach.
// It returns the qualified names visited, in discovery order.
func (b *Builder) BuildFrom(roots []string) ([]string, error) {
	visited := make(map[string]bool)
	var order []string
	queue := append([]string(nil), roots...)

	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		if visited[name] {
			continue
		}
		visited[name] = true
		order = append(order, name)

		entries := b.set.ResolveAll(name)
		if len(entries) == 0 {
			if err := b.registerPlaceholder(name); err != nil {
				return nil, err
			}
			continue
		}
		for _, e := range entries {
			if err := b.registerEntry(e); err != nil {
				return nil, err
			}
		}
		for _, e := range entries {
			for _, ref := range b.x.ExtractEntry(e) {
				if !visited[ref.FullyQualifiedName] {
					queue = append(queue, ref.FullyQualifiedName)
				}
			}
		}
	}

	// Link once every visited node exists
	for _, name := range order {
		for _, e := range b.set.ResolveAll(name) {
			if err := b.linkEntry(e); err != nil {
				return nil, err
			}
		}
	}
	return order, nil
}

// GetNodeCount returns the number of nodes created
func (b *Builder) GetNodeCount() int {
	return len(b.nodeMap)
}

// IDFor returns the element id used for a qualified name. Names that do not
// resolve to a declared element use the name itself.
func (b *Builder) IDFor(name string) string {
	if id, ok := b.nodeMap[name]; ok {
		return id
	}
	if e, ok := b.set.Resolve(name); ok {
		return EntryID(e)
	}
	return name
}

// EntryID returns the element id used for an indexed entry.
func EntryID(e schema.Entry) string {
	if e.Container != nil {
		return SyntheticID(e.Namespace, e.Container.Name, e.Element.ElementName())
	}
	return e.FQN
}

func (b *Builder) registerEntry(e schema.Entry) error {
	if _, done := b.nodeMap[e.FQN]; done {
		return nil
	}
	id := EntryID(e)
	node := &Node{
		ElementID: id,
		FQN:       e.FQN,
		Kind:      e.Element.ElementKind(),
		Namespace: e.Namespace,
	}
	if err := b.insertFn(node); err != nil {
		return fmt.Errorf("failed to create node for %s: %w", e.FQN, err)
	}
	b.nodeMap[e.FQN] = id
	return nil
}

func (b *Builder) registerPlaceholder(name string) error {
	if _, done := b.nodeMap[name]; done {
		return nil
	}
	node := &Node{ElementID: name, FQN: name, Kind: schema.KindUnknown}
	if fqn, ok := schema.ParseFQN(name); ok {
		node.Namespace = fqn.Namespace
	}
	if err := b.insertFn(node); err != nil {
		return fmt.Errorf("failed to create placeholder for %s: %w", name, err)
	}
	b.nodeMap[name] = name
	return nil
}

func (b *Builder) linkEntry(e schema.Entry) error {
	from := EntryID(e)
	for _, ref := range b.x.ExtractEntry(e) {
		if _, ok := b.set.Resolve(ref.FullyQualifiedName); !ok {
			if err := b.registerPlaceholder(ref.FullyQualifiedName); err != nil {
				return err
			}
		}
		to := b.IDFor(ref.FullyQualifiedName)

		edgeKey := fmt.Sprintf("%s->%s#%s#%s", from, to, ref.PropertyName, ref.Via)
		if b.edgeSet[edgeKey] {
			continue
		}
		b.edgeSet[edgeKey] = true

		err := b.edgeFn(&Edge{
			Source:       from,
			Target:       to,
			Kind:         EdgeKind(ref.Via),
			PropertyName: ref.PropertyName,
		})
		if err != nil {
			return fmt.Errorf("failed to create edge: %w", err)
		}
	}
	return nil
}
