package loader

import (
	"encoding/xml"
	"strconv"
	"strings"

	"github.com/zheng/schemagraph/internal/schema"
)

// The edmx types mirror the CSDL XML layout. Element names are matched on
// their local part, so both edmx: and default-namespace forms decode.

type edmxRoot struct {
	XMLName    xml.Name        `xml:"Edmx"`
	References []edmxReference `xml:"Reference"`
	Schemas    []edmxSchema    `xml:"DataServices>Schema"`
}

type edmxReference struct {
	URI      string        `xml:"Uri,attr"`
	Includes []edmxInclude `xml:"Include"`
}

type edmxInclude struct {
	Namespace string `xml:"Namespace,attr"`
	Alias     string `xml:"Alias,attr"`
}

type edmxSchema struct {
	Namespace       string               `xml:"Namespace,attr"`
	Alias           string               `xml:"Alias,attr"`
	EntityTypes     []edmxStructured     `xml:"EntityType"`
	ComplexTypes    []edmxStructured     `xml:"ComplexType"`
	EnumTypes       []edmxEnum           `xml:"EnumType"`
	TypeDefinitions []edmxTypeDefinition `xml:"TypeDefinition"`
	Actions         []edmxOperation      `xml:"Action"`
	Functions       []edmxOperation      `xml:"Function"`
	Terms           []edmxTerm           `xml:"Term"`
	EntityContainer *edmxContainer       `xml:"EntityContainer"`
}

type edmxStructured struct {
	Name                 string           `xml:"Name,attr"`
	BaseType             string           `xml:"BaseType,attr"`
	Abstract             string           `xml:"Abstract,attr"`
	OpenType             string           `xml:"OpenType,attr"`
	HasStream            string           `xml:"HasStream,attr"`
	Key                  []edmxNamed      `xml:"Key>PropertyRef"`
	Properties           []edmxProperty   `xml:"Property"`
	NavigationProperties []edmxNavigation `xml:"NavigationProperty"`
}

type edmxNamed struct {
	Name string `xml:"Name,attr"`
}

type edmxProperty struct {
	Name      string `xml:"Name,attr"`
	Type      string `xml:"Type,attr"`
	Nullable  string `xml:"Nullable,attr"`
	MaxLength string `xml:"MaxLength,attr"`
}

type edmxNavigation struct {
	Name           string `xml:"Name,attr"`
	Type           string `xml:"Type,attr"`
	Nullable       string `xml:"Nullable,attr"`
	Partner        string `xml:"Partner,attr"`
	ContainsTarget string `xml:"ContainsTarget,attr"`
}

type edmxEnum struct {
	Name           string       `xml:"Name,attr"`
	UnderlyingType string       `xml:"UnderlyingType,attr"`
	IsFlags        string       `xml:"IsFlags,attr"`
	Members        []edmxMember `xml:"Member"`
}

type edmxMember struct {
	Name  string `xml:"Name,attr"`
	Value string `xml:"Value,attr"`
}

type edmxTypeDefinition struct {
	Name           string `xml:"Name,attr"`
	UnderlyingType string `xml:"UnderlyingType,attr"`
}

type edmxOperation struct {
	Name          string          `xml:"Name,attr"`
	IsBound       string          `xml:"IsBound,attr"`
	IsComposable  string          `xml:"IsComposable,attr"`
	EntitySetPath string          `xml:"EntitySetPath,attr"`
	Parameters    []edmxProperty  `xml:"Parameter"`
	ReturnType    *edmxReturnType `xml:"ReturnType"`
}

type edmxReturnType struct {
	Type     string `xml:"Type,attr"`
	Nullable string `xml:"Nullable,attr"`
}

type edmxTerm struct {
	Name      string `xml:"Name,attr"`
	Type      string `xml:"Type,attr"`
	BaseTerm  string `xml:"BaseTerm,attr"`
	AppliesTo string `xml:"AppliesTo,attr"`
}

type edmxContainer struct {
	Name            string       `xml:"Name,attr"`
	EntitySets      []edmxSet    `xml:"EntitySet"`
	Singletons      []edmxSet    `xml:"Singleton"`
	ActionImports   []edmxImport `xml:"ActionImport"`
	FunctionImports []edmxImport `xml:"FunctionImport"`
}

type edmxSet struct {
	Name       string        `xml:"Name,attr"`
	EntityType string        `xml:"EntityType,attr"`
	Type       string        `xml:"Type,attr"`
	Bindings   []edmxBinding `xml:"NavigationPropertyBinding"`
}

type edmxBinding struct {
	Path   string `xml:"Path,attr"`
	Target string `xml:"Target,attr"`
}

type edmxImport struct {
	Name                     string `xml:"Name,attr"`
	Action                   string `xml:"Action,attr"`
	Function                 string `xml:"Function,attr"`
	EntitySet                string `xml:"EntitySet,attr"`
	IncludeInServiceDocument string `xml:"IncludeInServiceDocument,attr"`
}

func decodeEDMX(data []byte) (refs []schema.Reference, schemas []*schema.Schema, err error) {
	var root edmxRoot
	if err := xml.Unmarshal(data, &root); err != nil {
		return nil, nil, err
	}
	for _, r := range root.References {
		ref := schema.Reference{URI: r.URI}
		for _, inc := range r.Includes {
			ref.Includes = append(ref.Includes, schema.Include{Namespace: inc.Namespace, Alias: inc.Alias})
		}
		refs = append(refs, ref)
	}
	for i := range root.Schemas {
		schemas = append(schemas, root.Schemas[i].toSchema())
	}
	return refs, schemas, nil
}

func (s *edmxSchema) toSchema() *schema.Schema {
	out := &schema.Schema{Namespace: s.Namespace, Alias: s.Alias}

	for _, et := range s.EntityTypes {
		e := &schema.EntityType{
			Name:                 et.Name,
			BaseType:             et.BaseType,
			Abstract:             flag(et.Abstract),
			OpenType:             flag(et.OpenType),
			HasStream:            flag(et.HasStream),
			Properties:           properties(et.Properties),
			NavigationProperties: navigations(et.NavigationProperties),
		}
		for _, k := range et.Key {
			e.Key = append(e.Key, k.Name)
		}
		out.EntityTypes = append(out.EntityTypes, e)
	}
	for _, ct := range s.ComplexTypes {
		out.ComplexTypes = append(out.ComplexTypes, &schema.ComplexType{
			Name:                 ct.Name,
			BaseType:             ct.BaseType,
			Abstract:             flag(ct.Abstract),
			OpenType:             flag(ct.OpenType),
			Properties:           properties(ct.Properties),
			NavigationProperties: navigations(ct.NavigationProperties),
		})
	}
	for _, en := range s.EnumTypes {
		e := &schema.EnumType{Name: en.Name, UnderlyingType: en.UnderlyingType, IsFlags: flag(en.IsFlags)}
		for _, m := range en.Members {
			member := &schema.EnumMember{Name: m.Name}
			if v, err := strconv.ParseInt(m.Value, 10, 64); err == nil {
				member.Value = &v
			}
			e.Members = append(e.Members, member)
		}
		out.EnumTypes = append(out.EnumTypes, e)
	}
	for _, td := range s.TypeDefinitions {
		out.TypeDefinitions = append(out.TypeDefinitions, &schema.TypeDefinition{Name: td.Name, UnderlyingType: td.UnderlyingType})
	}
	for _, a := range s.Actions {
		out.Actions = append(out.Actions, &schema.Action{
			Name:          a.Name,
			IsBound:       flag(a.IsBound),
			EntitySetPath: a.EntitySetPath,
			Parameters:    parameters(a.Parameters),
			ReturnType:    returnType(a.ReturnType),
		})
	}
	for _, f := range s.Functions {
		out.Functions = append(out.Functions, &schema.Function{
			Name:          f.Name,
			IsBound:       flag(f.IsBound),
			IsComposable:  flag(f.IsComposable),
			EntitySetPath: f.EntitySetPath,
			Parameters:    parameters(f.Parameters),
			ReturnType:    returnType(f.ReturnType),
		})
	}
	for _, t := range s.Terms {
		out.Terms = append(out.Terms, &schema.Term{
			Name:      t.Name,
			Type:      t.Type,
			BaseTerm:  t.BaseTerm,
			AppliesTo: strings.Fields(t.AppliesTo),
		})
	}
	if c := s.EntityContainer; c != nil {
		out.EntityContainer = c.toContainer()
	}
	return out
}

func (c *edmxContainer) toContainer() *schema.EntityContainer {
	out := &schema.EntityContainer{Name: c.Name}
	for _, es := range c.EntitySets {
		out.EntitySets = append(out.EntitySets, &schema.EntitySet{
			Name:       es.Name,
			EntityType: es.EntityType,
			Bindings:   bindings(es.Bindings),
		})
	}
	for _, s := range c.Singletons {
		out.Singletons = append(out.Singletons, &schema.Singleton{
			Name:     s.Name,
			Type:     s.Type,
			Bindings: bindings(s.Bindings),
		})
	}
	for _, ai := range c.ActionImports {
		out.ActionImports = append(out.ActionImports, &schema.ActionImport{
			Name:      ai.Name,
			Action:    ai.Action,
			EntitySet: ai.EntitySet,
		})
	}
	for _, fi := range c.FunctionImports {
		out.FunctionImports = append(out.FunctionImports, &schema.FunctionImport{
			Name:                     fi.Name,
			Function:                 fi.Function,
			EntitySet:                fi.EntitySet,
			IncludeInServiceDocument: flag(fi.IncludeInServiceDocument),
		})
	}
	return out
}

func properties(in []edmxProperty) []*schema.Property {
	var out []*schema.Property
	for _, p := range in {
		out = append(out, &schema.Property{
			Name:      p.Name,
			Type:      p.Type,
			Nullable:  optionalFlag(p.Nullable),
			MaxLength: p.MaxLength,
		})
	}
	return out
}

func navigations(in []edmxNavigation) []*schema.NavigationProperty {
	var out []*schema.NavigationProperty
	for _, n := range in {
		out = append(out, &schema.NavigationProperty{
			Name:           n.Name,
			Type:           n.Type,
			Nullable:       optionalFlag(n.Nullable),
			Partner:        n.Partner,
			ContainsTarget: flag(n.ContainsTarget),
		})
	}
	return out
}

func parameters(in []edmxProperty) []*schema.Parameter {
	var out []*schema.Parameter
	for _, p := range in {
		out = append(out, &schema.Parameter{Name: p.Name, Type: p.Type, Nullable: optionalFlag(p.Nullable)})
	}
	return out
}

func returnType(in *edmxReturnType) *schema.ReturnType {
	if in == nil {
		return nil
	}
	return &schema.ReturnType{Type: in.Type, Nullable: optionalFlag(in.Nullable)}
}

func bindings(in []edmxBinding) []*schema.NavigationPropertyBinding {
	var out []*schema.NavigationPropertyBinding
	for _, b := range in {
		out = append(out, &schema.NavigationPropertyBinding{Path: b.Path, Target: b.Target})
	}
	return out
}

func flag(s string) bool {
	b, _ := strconv.ParseBool(s)
	return b
}

func optionalFlag(s string) *bool {
	if s == "" {
		return nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return nil
	}
	return &b
}
