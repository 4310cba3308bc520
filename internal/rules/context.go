package rules

import (
	"sort"
	"sync"

	"github.com/zheng/schemagraph/internal/schema"
)

// Context is the shared state a validation run works on. It starts out
// knowing every namespace and element of the loaded set, so rules can
// resolve forward references regardless of the order they run in.
// All methods are safe for concurrent use.
type Context struct {
	set *schema.Set

	mu         sync.RWMutex
	current    map[string]struct{}
	imported   map[string]struct{}
	referenced map[string]struct{}
	defined    map[string]struct{}
}

// NewContext builds a context over set.
func NewContext(set *schema.Set) *Context {
	if set == nil {
		set = schema.NewSet()
	}
	c := &Context{
		set:        set,
		current:    make(map[string]struct{}),
		imported:   make(map[string]struct{}),
		referenced: make(map[string]struct{}),
		defined:    make(map[string]struct{}),
	}
	for _, ns := range set.Namespaces() {
		if ns != "" {
			c.current[ns] = struct{}{}
		}
	}
	for _, ns := range set.ImportedNamespaces() {
		c.imported[ns] = struct{}{}
	}
	for _, e := range set.Entries() {
		c.defined[e.FQN] = struct{}{}
	}
	return c
}

// Set returns the schema set under validation.
func (c *Context) Set() *schema.Set { return c.set }

// Documents returns the source documents, used by the raw-text checks.
func (c *Context) Documents() []*schema.Document { return c.set.Documents() }

// Schemas returns every parsed schema.
func (c *Context) Schemas() []*schema.Schema { return c.set.Schemas() }

// KindOf returns the structural kind declared for fqn.
func (c *Context) KindOf(fqn string) schema.Kind { return c.set.KindOf(fqn) }

func (c *Context) AddCurrentNamespace(ns string)    { c.add(c.current, ns) }
func (c *Context) AddImportedNamespace(ns string)   { c.add(c.imported, ns) }
func (c *Context) AddReferencedNamespace(ns string) { c.add(c.referenced, ns) }
func (c *Context) AddDefinedTarget(fqn string)      { c.add(c.defined, fqn) }

func (c *Context) IsCurrentNamespace(ns string) bool  { return c.has(c.current, ns) }
func (c *Context) IsImportedNamespace(ns string) bool { return c.has(c.imported, ns) }
func (c *Context) IsDefined(fqn string) bool          { return c.has(c.defined, fqn) }

func (c *Context) CurrentNamespaces() []string    { return c.list(c.current) }
func (c *Context) ImportedNamespaces() []string   { return c.list(c.imported) }
func (c *Context) ReferencedNamespaces() []string { return c.list(c.referenced) }
func (c *Context) DefinedTargets() []string       { return c.list(c.defined) }

func (c *Context) add(m map[string]struct{}, v string) {
	c.mu.Lock()
	m[v] = struct{}{}
	c.mu.Unlock()
}

func (c *Context) has(m map[string]struct{}, v string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := m[v]
	return ok
}

func (c *Context) list(m map[string]struct{}) []string {
	c.mu.RLock()
	out := make([]string, 0, len(m))
	for v := range m {
		out = append(out, v)
	}
	c.mu.RUnlock()
	sort.Strings(out)
	return out
}
