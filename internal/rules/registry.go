package rules

import (
	"fmt"
	"sort"
	"sync"
)

// Registry holds rules by name.
type Registry struct {
	mu    sync.RWMutex
	rules map[string]Rule
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{rules: make(map[string]Rule)}
}

// DefaultRegistry returns a registry with the built-in structural rules.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, rule := range Builtin() {
		// built-in names are distinct
		_ = r.Register(rule)
	}
	return r
}

// Builtin returns fresh instances of the built-in structural rules.
func Builtin() []Rule {
	return []Rule{
		NewSchemaNamespaceRule(),
		NewElementDefinitionRule(),
		NewReferenceValidationRule(),
	}
}

// Register adds rule. Names must be unique.
func (r *Registry) Register(rule Rule) error {
	if rule == nil || rule.Name() == "" {
		return fmt.Errorf("rule must have a name")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.rules[rule.Name()]; exists {
		return fmt.Errorf("rule %s already registered", rule.Name())
	}
	r.rules[rule.Name()] = rule
	return nil
}

// Get returns the rule registered under name.
func (r *Registry) Get(name string) (Rule, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rule, ok := r.rules[name]
	return rule, ok
}

// Rules returns every rule ordered by name.
func (r *Registry) Rules() []Rule {
	r.mu.RLock()
	out := make([]Rule, 0, len(r.rules))
	for _, rule := range r.rules {
		out = append(out, rule)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// Names returns the registered rule names in order.
func (r *Registry) Names() []string {
	rules := r.Rules()
	names := make([]string, len(rules))
	for i, rule := range rules {
		names[i] = rule.Name()
	}
	return names
}
