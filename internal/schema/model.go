package schema

// Element is implemented by every named, top-level or container-level
// schema element.
type Element interface {
	ElementName() string
	ElementKind() Kind
}

// Document is one loaded source file. Raw keeps the original text for
// checks that work on the source rather than the parsed tree.
type Document struct {
	Path       string      `json:"path,omitempty" yaml:"-"`
	Raw        string      `json:"-" yaml:"-"`
	References []Reference `json:"references,omitempty" yaml:"references,omitempty"`
	Schemas    []*Schema   `json:"schemas" yaml:"schemas"`
}

// Reference points at an external document and the namespaces it provides.
type Reference struct {
	URI      string    `json:"uri" yaml:"uri"`
	Includes []Include `json:"includes,omitempty" yaml:"includes,omitempty"`
}

type Include struct {
	Namespace string `json:"namespace" yaml:"namespace"`
	Alias     string `json:"alias,omitempty" yaml:"alias,omitempty"`
}

// Schema is a single namespace worth of declarations.
type Schema struct {
	Namespace       string            `json:"namespace" yaml:"namespace"`
	Alias           string            `json:"alias,omitempty" yaml:"alias,omitempty"`
	EntityTypes     []*EntityType     `json:"entityTypes,omitempty" yaml:"entityTypes,omitempty"`
	ComplexTypes    []*ComplexType    `json:"complexTypes,omitempty" yaml:"complexTypes,omitempty"`
	EnumTypes       []*EnumType       `json:"enumTypes,omitempty" yaml:"enumTypes,omitempty"`
	TypeDefinitions []*TypeDefinition `json:"typeDefinitions,omitempty" yaml:"typeDefinitions,omitempty"`
	Actions         []*Action         `json:"actions,omitempty" yaml:"actions,omitempty"`
	Functions       []*Function       `json:"functions,omitempty" yaml:"functions,omitempty"`
	Terms           []*Term           `json:"terms,omitempty" yaml:"terms,omitempty"`
	EntityContainer *EntityContainer  `json:"entityContainer,omitempty" yaml:"entityContainer,omitempty"`
}

// Elements returns all top-level elements in declaration order, followed
// by the container and its children. Nil list entries are skipped.
func (s *Schema) Elements() []Element {
	var out []Element
	for _, e := range s.EntityTypes {
		if e != nil {
			out = append(out, e)
		}
	}
	for _, e := range s.ComplexTypes {
		if e != nil {
			out = append(out, e)
		}
	}
	for _, e := range s.EnumTypes {
		if e != nil {
			out = append(out, e)
		}
	}
	for _, e := range s.TypeDefinitions {
		if e != nil {
			out = append(out, e)
		}
	}
	for _, e := range s.Actions {
		if e != nil {
			out = append(out, e)
		}
	}
	for _, e := range s.Functions {
		if e != nil {
			out = append(out, e)
		}
	}
	for _, e := range s.Terms {
		if e != nil {
			out = append(out, e)
		}
	}
	if c := s.EntityContainer; c != nil {
		out = append(out, c)
		for _, e := range c.EntitySets {
			if e != nil {
				out = append(out, e)
			}
		}
		for _, e := range c.Singletons {
			if e != nil {
				out = append(out, e)
			}
		}
		for _, e := range c.ActionImports {
			if e != nil {
				out = append(out, e)
			}
		}
		for _, e := range c.FunctionImports {
			if e != nil {
				out = append(out, e)
			}
		}
	}
	return out
}

type EntityType struct {
	Name                 string                `json:"name" yaml:"name"`
	BaseType             string                `json:"baseType,omitempty" yaml:"baseType,omitempty"`
	Abstract             bool                  `json:"abstract,omitempty" yaml:"abstract,omitempty"`
	OpenType             bool                  `json:"openType,omitempty" yaml:"openType,omitempty"`
	HasStream            bool                  `json:"hasStream,omitempty" yaml:"hasStream,omitempty"`
	Key                  []string              `json:"key,omitempty" yaml:"key,omitempty"`
	Properties           []*Property           `json:"properties,omitempty" yaml:"properties,omitempty"`
	NavigationProperties []*NavigationProperty `json:"navigationProperties,omitempty" yaml:"navigationProperties,omitempty"`
}

func (e *EntityType) ElementName() string { return e.Name }
func (e *EntityType) ElementKind() Kind   { return KindEntityType }

type ComplexType struct {
	Name                 string                `json:"name" yaml:"name"`
	BaseType             string                `json:"baseType,omitempty" yaml:"baseType,omitempty"`
	Abstract             bool                  `json:"abstract,omitempty" yaml:"abstract,omitempty"`
	OpenType             bool                  `json:"openType,omitempty" yaml:"openType,omitempty"`
	Properties           []*Property           `json:"properties,omitempty" yaml:"properties,omitempty"`
	NavigationProperties []*NavigationProperty `json:"navigationProperties,omitempty" yaml:"navigationProperties,omitempty"`
}

func (c *ComplexType) ElementName() string { return c.Name }
func (c *ComplexType) ElementKind() Kind   { return KindComplexType }

type EnumType struct {
	Name           string        `json:"name" yaml:"name"`
	UnderlyingType string        `json:"underlyingType,omitempty" yaml:"underlyingType,omitempty"`
	IsFlags        bool          `json:"isFlags,omitempty" yaml:"isFlags,omitempty"`
	Members        []*EnumMember `json:"members,omitempty" yaml:"members,omitempty"`
}

func (e *EnumType) ElementName() string { return e.Name }
func (e *EnumType) ElementKind() Kind   { return KindEnumType }

type EnumMember struct {
	Name  string `json:"name" yaml:"name"`
	Value *int64 `json:"value,omitempty" yaml:"value,omitempty"`
}

type TypeDefinition struct {
	Name           string `json:"name" yaml:"name"`
	UnderlyingType string `json:"underlyingType" yaml:"underlyingType"`
}

func (t *TypeDefinition) ElementName() string { return t.Name }
func (t *TypeDefinition) ElementKind() Kind   { return KindTypeDefinition }

type Property struct {
	Name      string `json:"name" yaml:"name"`
	Type      string `json:"type" yaml:"type"`
	Nullable  *bool  `json:"nullable,omitempty" yaml:"nullable,omitempty"`
	MaxLength string `json:"maxLength,omitempty" yaml:"maxLength,omitempty"`
}

type NavigationProperty struct {
	Name           string `json:"name" yaml:"name"`
	Type           string `json:"type" yaml:"type"`
	Nullable       *bool  `json:"nullable,omitempty" yaml:"nullable,omitempty"`
	Partner        string `json:"partner,omitempty" yaml:"partner,omitempty"`
	ContainsTarget bool   `json:"containsTarget,omitempty" yaml:"containsTarget,omitempty"`
}

type Parameter struct {
	Name     string `json:"name" yaml:"name"`
	Type     string `json:"type" yaml:"type"`
	Nullable *bool  `json:"nullable,omitempty" yaml:"nullable,omitempty"`
}

type ReturnType struct {
	Type     string `json:"type" yaml:"type"`
	Nullable *bool  `json:"nullable,omitempty" yaml:"nullable,omitempty"`
}

type Action struct {
	Name          string       `json:"name" yaml:"name"`
	IsBound       bool         `json:"isBound,omitempty" yaml:"isBound,omitempty"`
	EntitySetPath string       `json:"entitySetPath,omitempty" yaml:"entitySetPath,omitempty"`
	Parameters    []*Parameter `json:"parameters,omitempty" yaml:"parameters,omitempty"`
	ReturnType    *ReturnType  `json:"returnType,omitempty" yaml:"returnType,omitempty"`
}

func (a *Action) ElementName() string { return a.Name }
func (a *Action) ElementKind() Kind   { return KindAction }

type Function struct {
	Name          string       `json:"name" yaml:"name"`
	IsBound       bool         `json:"isBound,omitempty" yaml:"isBound,omitempty"`
	IsComposable  bool         `json:"isComposable,omitempty" yaml:"isComposable,omitempty"`
	EntitySetPath string       `json:"entitySetPath,omitempty" yaml:"entitySetPath,omitempty"`
	Parameters    []*Parameter `json:"parameters,omitempty" yaml:"parameters,omitempty"`
	ReturnType    *ReturnType  `json:"returnType,omitempty" yaml:"returnType,omitempty"`
}

func (f *Function) ElementName() string { return f.Name }
func (f *Function) ElementKind() Kind   { return KindFunction }

// Signature renders name(paramTypes,...):returnType, used to tell
// overloads apart.
func (f *Function) Signature() string {
	sig := f.Name + "("
	for i, p := range f.Parameters {
		if i > 0 {
			sig += ","
		}
		if p != nil {
			sig += p.Type
		}
	}
	sig += ")"
	if f.ReturnType != nil && f.ReturnType.Type != "" {
		sig += ":" + f.ReturnType.Type
	}
	return sig
}

type Term struct {
	Name      string   `json:"name" yaml:"name"`
	Type      string   `json:"type" yaml:"type"`
	BaseTerm  string   `json:"baseTerm,omitempty" yaml:"baseTerm,omitempty"`
	AppliesTo []string `json:"appliesTo,omitempty" yaml:"appliesTo,omitempty"`
}

func (t *Term) ElementName() string { return t.Name }
func (t *Term) ElementKind() Kind   { return KindTerm }

type EntityContainer struct {
	Name            string            `json:"name" yaml:"name"`
	EntitySets      []*EntitySet      `json:"entitySets,omitempty" yaml:"entitySets,omitempty"`
	Singletons      []*Singleton      `json:"singletons,omitempty" yaml:"singletons,omitempty"`
	ActionImports   []*ActionImport   `json:"actionImports,omitempty" yaml:"actionImports,omitempty"`
	FunctionImports []*FunctionImport `json:"functionImports,omitempty" yaml:"functionImports,omitempty"`
}

func (c *EntityContainer) ElementName() string { return c.Name }
func (c *EntityContainer) ElementKind() Kind   { return KindEntityContainer }

// NavigationPropertyBinding maps a navigation path to a target entity set.
type NavigationPropertyBinding struct {
	Path   string `json:"path" yaml:"path"`
	Target string `json:"target" yaml:"target"`
}

type EntitySet struct {
	Name       string                       `json:"name" yaml:"name"`
	EntityType string                       `json:"entityType" yaml:"entityType"`
	Bindings   []*NavigationPropertyBinding `json:"navigationPropertyBindings,omitempty" yaml:"navigationPropertyBindings,omitempty"`
}

func (e *EntitySet) ElementName() string { return e.Name }
func (e *EntitySet) ElementKind() Kind   { return KindEntitySet }

type Singleton struct {
	Name     string                       `json:"name" yaml:"name"`
	Type     string                       `json:"type" yaml:"type"`
	Bindings []*NavigationPropertyBinding `json:"navigationPropertyBindings,omitempty" yaml:"navigationPropertyBindings,omitempty"`
}

func (s *Singleton) ElementName() string { return s.Name }
func (s *Singleton) ElementKind() Kind   { return KindSingleton }

type ActionImport struct {
	Name      string `json:"name" yaml:"name"`
	Action    string `json:"action" yaml:"action"`
	EntitySet string `json:"entitySet,omitempty" yaml:"entitySet,omitempty"`
}

func (a *ActionImport) ElementName() string { return a.Name }
func (a *ActionImport) ElementKind() Kind   { return KindActionImport }

type FunctionImport struct {
	Name                     string `json:"name" yaml:"name"`
	Function                 string `json:"function" yaml:"function"`
	EntitySet                string `json:"entitySet,omitempty" yaml:"entitySet,omitempty"`
	IncludeInServiceDocument bool   `json:"includeInServiceDocument,omitempty" yaml:"includeInServiceDocument,omitempty"`
}

func (f *FunctionImport) ElementName() string { return f.Name }
func (f *FunctionImport) ElementKind() Kind   { return KindFunctionImport }
