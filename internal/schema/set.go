package schema

import "sort"

// Entry is one indexed element together with where it was declared.
type Entry struct {
	FQN       string
	Namespace string
	Element   Element
	Schema    *Schema
	// Container is set for entity sets, singletons and imports.
	Container *EntityContainer
}

// Set is a read-only, indexed view over a collection of loaded documents.
// Elements are looked up by their qualified name; container children use
// ContainerChildName. Overloaded functions share a name and are all kept.
type Set struct {
	docs    []*Document
	schemas []*Schema
	entries []Entry
	index   map[string][]int
	imports map[string]struct{}
}

// NewSet indexes every schema in docs. Nil documents and schemas are skipped.
func NewSet(docs ...*Document) *Set {
	s := &Set{
		index:   make(map[string][]int),
		imports: make(map[string]struct{}),
	}
	for _, d := range docs {
		if d == nil {
			continue
		}
		s.docs = append(s.docs, d)
		for _, ref := range d.References {
			for _, inc := range ref.Includes {
				if inc.Namespace != "" {
					s.imports[inc.Namespace] = struct{}{}
				}
			}
		}
		for _, sch := range d.Schemas {
			if sch == nil {
				continue
			}
			s.schemas = append(s.schemas, sch)
			s.indexSchema(sch)
		}
	}
	return s
}

// FromSchemas builds a Set from bare schemas with no source documents.
func FromSchemas(schemas ...*Schema) *Set {
	return NewSet(&Document{Schemas: schemas})
}

func (s *Set) indexSchema(sch *Schema) {
	for _, el := range sch.Elements() {
		e := Entry{Namespace: sch.Namespace, Element: el, Schema: sch}
		switch el.ElementKind() {
		case KindEntitySet, KindSingleton, KindActionImport, KindFunctionImport:
			e.Container = sch.EntityContainer
			e.FQN = ContainerChildName(sch.Namespace, sch.EntityContainer.Name, el.ElementName())
		default:
			e.FQN = QualifiedName(sch.Namespace, el.ElementName())
		}
		s.index[e.FQN] = append(s.index[e.FQN], len(s.entries))
		s.entries = append(s.entries, e)
	}
}

// Documents returns the source documents in load order.
func (s *Set) Documents() []*Document { return s.docs }

// Schemas returns every schema in load order.
func (s *Set) Schemas() []*Schema { return s.schemas }

// Entries returns every indexed element in load order.
func (s *Set) Entries() []Entry { return s.entries }

// Resolve returns the first element declared under fqn.
func (s *Set) Resolve(fqn string) (Entry, bool) {
	idx, ok := s.index[fqn]
	if !ok || len(idx) == 0 {
		return Entry{}, false
	}
	return s.entries[idx[0]], true
}

// ResolveAll returns every element declared under fqn (function overloads).
func (s *Set) ResolveAll(fqn string) []Entry {
	idx := s.index[fqn]
	out := make([]Entry, 0, len(idx))
	for _, i := range idx {
		out = append(out, s.entries[i])
	}
	return out
}

// KindOf returns the kind of the element named fqn, or KindUnknown.
func (s *Set) KindOf(fqn string) Kind {
	if e, ok := s.Resolve(fqn); ok {
		return e.Element.ElementKind()
	}
	return KindUnknown
}

// Has reports whether fqn names a declared element.
func (s *Set) Has(fqn string) bool {
	_, ok := s.index[fqn]
	return ok
}

// Namespaces returns the sorted, de-duplicated namespaces declared in the set.
func (s *Set) Namespaces() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, sch := range s.schemas {
		if _, ok := seen[sch.Namespace]; ok {
			continue
		}
		seen[sch.Namespace] = struct{}{}
		out = append(out, sch.Namespace)
	}
	sort.Strings(out)
	return out
}

// ImportedNamespaces returns the namespaces brought in by document references.
func (s *Set) ImportedNamespaces() []string {
	out := make([]string, 0, len(s.imports))
	for ns := range s.imports {
		out = append(out, ns)
	}
	sort.Strings(out)
	return out
}

// Containers returns every entity container with its namespace.
func (s *Set) Containers() []Entry {
	var out []Entry
	for _, e := range s.entries {
		if e.Element.ElementKind() == KindEntityContainer {
			out = append(out, e)
		}
	}
	return out
}
