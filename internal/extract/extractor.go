package extract

import (
	"strings"

	"github.com/zheng/schemagraph/internal/schema"
)

// KindLookup resolves the kind of a referenced type. Extraction stays a
// pure function of its input as long as the lookup is.
type KindLookup func(fqn string) schema.Kind

// Scope carries the declaring namespace and container of an element, used
// to qualify navigation binding targets.
type Scope struct {
	Namespace string
	Container string
}

// ScopeOf returns the scope an indexed entry was declared in.
func ScopeOf(e schema.Entry) Scope {
	s := Scope{Namespace: e.Namespace}
	if e.Container != nil {
		s.Container = e.Container.Name
	}
	return s
}

// Extractor enumerates the direct type references of a single element
// without consulting the graph or other schemas.
type Extractor struct {
	lookup KindLookup
}

// Option configures an Extractor
type Option func(*Extractor)

// WithKindLookup sets how property, parameter and return types get their kind
func WithKindLookup(fn KindLookup) Option {
	return func(x *Extractor) {
		x.lookup = fn
	}
}

// New creates an extractor
func New(opts ...Option) *Extractor {
	x := &Extractor{}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

// Extract returns the direct references of el with no scope information.
func (x *Extractor) Extract(el schema.Element) []TypeReference {
	return x.ExtractIn(Scope{}, el)
}

// ExtractEntry extracts an indexed element in its declaring scope.
func (x *Extractor) ExtractEntry(e schema.Entry) []TypeReference {
	return x.ExtractIn(ScopeOf(e), e.Element)
}

// ExtractIn returns the direct references of el. The order follows the
// element's field order; the first reference for a given
// (name, property) pair wins.
func (x *Extractor) ExtractIn(scope Scope, el schema.Element) []TypeReference {
	c := &collector{x: x, seen: make(map[refKey]struct{})}

	switch e := el.(type) {
	case *schema.EntityType:
		if e == nil {
			return nil
		}
		c.typeRef(e.BaseType, "", schema.KindEntityType, RelationBaseType)
		c.properties(e.Properties)
		c.navigation(e.NavigationProperties)
	case *schema.ComplexType:
		if e == nil {
			return nil
		}
		c.typeRef(e.BaseType, "", schema.KindComplexType, RelationBaseType)
		c.properties(e.Properties)
		c.navigation(e.NavigationProperties)
	case *schema.Action:
		if e == nil {
			return nil
		}
		c.parameters(e.Parameters)
		c.returnType(e.ReturnType)
	case *schema.Function:
		if e == nil {
			return nil
		}
		c.parameters(e.Parameters)
		c.returnType(e.ReturnType)
	case *schema.EntitySet:
		if e == nil {
			return nil
		}
		c.typeRef(e.EntityType, "", schema.KindEntityType, RelationEntityType)
		c.bindings(scope, e.Bindings)
	case *schema.Singleton:
		if e == nil {
			return nil
		}
		c.typeRef(e.Type, "", schema.KindEntityType, RelationEntityType)
		c.bindings(scope, e.Bindings)
	case *schema.ActionImport:
		if e == nil {
			return nil
		}
		c.typeRef(e.Action, "", schema.KindAction, RelationImport)
	case *schema.FunctionImport:
		if e == nil {
			return nil
		}
		c.typeRef(e.Function, "", schema.KindFunction, RelationImport)
	case *schema.TypeDefinition:
		if e == nil {
			return nil
		}
		c.typeRef(e.UnderlyingType, "", lookupKind, RelationUnderlying)
	case *schema.Term:
		if e == nil {
			return nil
		}
		c.typeRef(e.Type, "", lookupKind, RelationTermType)
		c.typeRef(e.BaseTerm, "", schema.KindTerm, RelationBaseType)
	}

	return c.refs
}

// lookupKind tells the collector to consult the KindLookup.
const lookupKind schema.Kind = "\x00lookup"

type collector struct {
	x    *Extractor
	seen map[refKey]struct{}
	refs []TypeReference
}

func (c *collector) resolveKind(fqn string, kind schema.Kind) schema.Kind {
	if kind != lookupKind {
		return kind
	}
	if c.x.lookup == nil {
		return schema.KindUnknown
	}
	return c.x.lookup(fqn)
}

func (c *collector) add(ref TypeReference) {
	k := refKey{ref.FullyQualifiedName, ref.PropertyName}
	if _, ok := c.seen[k]; ok {
		return
	}
	c.seen[k] = struct{}{}
	c.refs = append(c.refs, ref)
}

func (c *collector) typeRef(raw, prop string, kind schema.Kind, via Relation) {
	if strings.TrimSpace(raw) == "" {
		return
	}
	tn := schema.ParseTypeName(raw)
	if tn.IsPrimitive() {
		return
	}
	fqn, ok := tn.FQN()
	if !ok {
		return
	}
	name := fqn.String()
	c.add(TypeReference{
		FullyQualifiedName: name,
		Kind:               c.resolveKind(name, kind),
		PropertyName:       prop,
		IsCollection:       tn.IsCollection,
		Via:                via,
	})
}

func (c *collector) properties(props []*schema.Property) {
	for _, p := range props {
		if p == nil {
			continue
		}
		c.typeRef(p.Type, p.Name, lookupKind, RelationProperty)
	}
}

func (c *collector) navigation(navs []*schema.NavigationProperty) {
	for _, n := range navs {
		if n == nil {
			continue
		}
		c.typeRef(n.Type, n.Name, schema.KindEntityType, RelationNavigation)
	}
}

func (c *collector) parameters(params []*schema.Parameter) {
	for _, p := range params {
		if p == nil {
			continue
		}
		c.typeRef(p.Type, p.Name, lookupKind, RelationParameter)
	}
}

func (c *collector) returnType(rt *schema.ReturnType) {
	if rt == nil {
		return
	}
	c.typeRef(rt.Type, "", lookupKind, RelationReturnType)
}

// bindings qualifies each target as NS.Container/Set. Targets that are
// already qualified ("NS.Container/Set") are kept as written.
func (c *collector) bindings(scope Scope, bs []*schema.NavigationPropertyBinding) {
	for _, b := range bs {
		if b == nil || strings.TrimSpace(b.Target) == "" {
			continue
		}
		target := strings.TrimSpace(b.Target)
		if !strings.Contains(target, "/") {
			if scope.Namespace == "" || scope.Container == "" {
				continue
			}
			target = schema.ContainerChildName(scope.Namespace, scope.Container, target)
		} else if _, ok := schema.ParseFQN(target[:strings.Index(target, "/")]); !ok {
			continue
		}
		c.add(TypeReference{
			FullyQualifiedName: target,
			Kind:               schema.KindEntitySet,
			PropertyName:       b.Path,
			Via:                RelationBinding,
		})
	}
}
