package rules

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/zheng/schemagraph/internal/schema"
)

const ElementDefinitionName = "element-definition"

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// builtinNamespaces are never checked against imports or definitions.
var builtinNamespaces = map[string]bool{
	"Edm":    true,
	"System": true,
}

// ElementDefinitionRule checks names, sibling uniqueness and type references
// of every element in every schema.
type ElementDefinitionRule struct {
	structural
}

// NewElementDefinitionRule creates the element-definition rule
func NewElementDefinitionRule() *ElementDefinitionRule {
	return &ElementDefinitionRule{structural{
		name:        ElementDefinitionName,
		description: "Validates element definitions and naming conventions",
		estimate:    400,
		applicable: func(ctx *Context, _ *Config) bool {
			return len(ctx.Schemas()) > 0
		},
	}}
}

func (r *ElementDefinitionRule) Validate(ctx *Context, _ *Config) Result {
	start := time.Now()
	for _, sch := range ctx.Schemas() {
		v := &schemaValidator{ctx: ctx, namespace: sch.Namespace}
		if msg := v.validate(sch); msg != "" {
			return r.fail(start, msg)
		}
	}
	return r.pass(start)
}

// schemaValidator walks one schema. Methods return the first failure
// message, or "" when the element is fine.
type schemaValidator struct {
	ctx       *Context
	namespace string
}

func (v *schemaValidator) validate(sch *schema.Schema) string {
	definedNames := make(map[string]bool)
	signatures := make(map[string]bool)

	for _, et := range sch.EntityTypes {
		if et == nil {
			continue
		}
		if msg := v.entityType(et, definedNames); msg != "" {
			return msg
		}
	}
	for _, ct := range sch.ComplexTypes {
		if ct == nil {
			continue
		}
		if msg := v.complexType(ct, definedNames); msg != "" {
			return msg
		}
	}
	for _, en := range sch.EnumTypes {
		if en == nil {
			continue
		}
		if msg := v.define(schema.KindEnumType, en.Name, definedNames); msg != "" {
			return msg
		}
	}
	for _, a := range sch.Actions {
		if a == nil {
			continue
		}
		if msg := v.action(a, definedNames); msg != "" {
			return msg
		}
	}
	for _, f := range sch.Functions {
		if f == nil {
			continue
		}
		if msg := v.function(f, signatures); msg != "" {
			return msg
		}
	}
	for _, t := range sch.Terms {
		if t == nil {
			continue
		}
		if msg := v.term(t, definedNames); msg != "" {
			return msg
		}
	}
	if sch.EntityContainer != nil {
		if msg := v.container(sch.EntityContainer, definedNames); msg != "" {
			return msg
		}
	}
	return ""
}

func checkName(kind schema.Kind, name string) string {
	if strings.TrimSpace(name) == "" {
		return fmt.Sprintf("%s must have a valid name", kind)
	}
	if !identifierPattern.MatchString(name) {
		return fmt.Sprintf("Invalid %s name: %s", kind, name)
	}
	return ""
}

// define checks a top-level name, claims it in definedNames and registers
// the qualified target.
func (v *schemaValidator) define(kind schema.Kind, name string, definedNames map[string]bool) string {
	if msg := checkName(kind, name); msg != "" {
		return msg
	}
	if definedNames[name] {
		return "duplicate element name: " + name
	}
	definedNames[name] = true
	v.register(name)
	return ""
}

func (v *schemaValidator) register(name string) {
	if v.namespace != "" {
		v.ctx.AddDefinedTarget(schema.QualifiedName(v.namespace, name))
	}
}

func (v *schemaValidator) entityType(et *schema.EntityType, definedNames map[string]bool) string {
	if msg := v.define(schema.KindEntityType, et.Name, definedNames); msg != "" {
		return msg
	}
	if et.BaseType != "" {
		if msg := v.typeReference(et.BaseType, schema.KindEntityType); msg != "" {
			return msg
		}
	}
	if msg := v.properties(et.Properties, "entity type", et.Name); msg != "" {
		return msg
	}

	navNames := make(map[string]bool)
	for _, np := range et.NavigationProperties {
		if np == nil {
			continue
		}
		if msg := checkName(schema.KindNavigationProperty, np.Name); msg != "" {
			return msg
		}
		if msg := v.typeReference(np.Type, schema.KindUnknown); msg != "" {
			return msg
		}
		if navNames[np.Name] {
			return fmt.Sprintf("Duplicate navigation property name '%s' in entity type '%s'", np.Name, et.Name)
		}
		navNames[np.Name] = true
	}
	return ""
}

func (v *schemaValidator) complexType(ct *schema.ComplexType, definedNames map[string]bool) string {
	if msg := v.define(schema.KindComplexType, ct.Name, definedNames); msg != "" {
		return msg
	}
	if ct.BaseType != "" {
		if msg := v.typeReference(ct.BaseType, schema.KindComplexType); msg != "" {
			return msg
		}
	}
	return v.properties(ct.Properties, "complex type", ct.Name)
}

func (v *schemaValidator) properties(props []*schema.Property, parentKind, parent string) string {
	seen := make(map[string]bool)
	for _, p := range props {
		if p == nil {
			continue
		}
		if msg := checkName(schema.KindProperty, p.Name); msg != "" {
			return msg
		}
		if msg := v.typeReference(p.Type, schema.KindUnknown); msg != "" {
			return msg
		}
		if seen[p.Name] {
			return fmt.Sprintf("Duplicate property name '%s' in %s '%s'", p.Name, parentKind, parent)
		}
		seen[p.Name] = true
	}
	return ""
}

func (v *schemaValidator) action(a *schema.Action, definedNames map[string]bool) string {
	if msg := v.define(schema.KindAction, a.Name, definedNames); msg != "" {
		return msg
	}
	return v.operation(a.Parameters, a.ReturnType)
}

func (v *schemaValidator) function(f *schema.Function, signatures map[string]bool) string {
	if msg := checkName(schema.KindFunction, f.Name); msg != "" {
		return msg
	}
	sig := f.Signature()
	if signatures[sig] {
		return "duplicate function signature: " + f.Name
	}
	signatures[sig] = true
	v.register(f.Name)
	return v.operation(f.Parameters, f.ReturnType)
}

func (v *schemaValidator) operation(params []*schema.Parameter, ret *schema.ReturnType) string {
	if ret != nil && ret.Type != "" {
		if msg := v.typeReference(ret.Type, schema.KindUnknown); msg != "" {
			return msg
		}
	}
	for _, p := range params {
		if p == nil || p.Type == "" {
			continue
		}
		if msg := v.typeReference(p.Type, schema.KindUnknown); msg != "" {
			return msg
		}
	}
	return ""
}

func (v *schemaValidator) term(t *schema.Term, definedNames map[string]bool) string {
	if msg := checkName(schema.KindTerm, t.Name); msg != "" {
		return msg
	}
	if definedNames[t.Name] {
		return "duplicate element name: " + t.Name
	}
	definedNames[t.Name] = true
	if strings.TrimSpace(t.Type) == "" {
		return fmt.Sprintf("Term '%s' must have a Type attribute", t.Name)
	}
	v.register(t.Name)
	return v.typeReference(t.Type, schema.KindUnknown)
}

func (v *schemaValidator) container(c *schema.EntityContainer, definedNames map[string]bool) string {
	if msg := v.define(schema.KindEntityContainer, c.Name, definedNames); msg != "" {
		return msg
	}
	for _, es := range c.EntitySets {
		if es == nil {
			continue
		}
		if msg := checkName(schema.KindEntitySet, es.Name); msg != "" {
			return msg
		}
	}

	actionImports := make(map[string]bool)
	for _, ai := range c.ActionImports {
		if ai == nil {
			continue
		}
		if ai.Name != "" && actionImports[ai.Name] {
			return fmt.Sprintf("Duplicate ActionImport name '%s' in entity container '%s'", ai.Name, c.Name)
		}
		actionImports[ai.Name] = true
	}

	functionImports := make(map[string]bool)
	for _, fi := range c.FunctionImports {
		if fi == nil {
			continue
		}
		if fi.Name != "" && functionImports[fi.Name] {
			return fmt.Sprintf("Duplicate FunctionImport name '%s' in entity container '%s'", fi.Name, c.Name)
		}
		functionImports[fi.Name] = true
	}
	return ""
}

// typeReference checks that raw names a reachable type. expected is the
// kind the target must have, or KindUnknown for no constraint.
func (v *schemaValidator) typeReference(raw string, expected schema.Kind) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}
	target := schema.ParseTypeName(raw).Inner
	idx := strings.LastIndex(target, ".")
	if idx < 0 {
		return ""
	}
	ns := target[:idx]
	v.ctx.AddReferencedNamespace(ns)

	if builtinNamespaces[ns] {
		return ""
	}

	current := v.ctx.IsCurrentNamespace(ns)
	if !current && !v.ctx.IsImportedNamespace(ns) {
		return "Referenced type namespace not imported: " + ns
	}
	if !current {
		return ""
	}
	if !v.ctx.IsDefined(target) {
		return "Referenced type does not exist: " + target
	}
	if expected != schema.KindUnknown {
		if kind := v.ctx.KindOf(target); kind != schema.KindUnknown && kind != expected {
			return fmt.Sprintf("%s BaseType must reference another %s", expected, expected)
		}
	}
	return ""
}
