package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zheng/schemagraph/internal/schema"
)

func names(refs []TypeReference) []string {
	out := make([]string, 0, len(refs))
	for _, r := range refs {
		out = append(out, r.FullyQualifiedName)
	}
	return out
}

func TestExtractEntityType(t *testing.T) {
	et := &schema.EntityType{
		Name:     "Customer",
		BaseType: "NS.Person",
		Properties: []*schema.Property{
			{Name: "ID", Type: "Edm.Int32"},
			{Name: "Tags", Type: "Collection(Edm.String)"},
			{Name: "Address", Type: "NS.Address"},
			{Name: "Previous", Type: "Collection(NS.Address)"},
			{Name: "Loose", Type: "Address"},
		},
		NavigationProperties: []*schema.NavigationProperty{
			{Name: "Orders", Type: "Collection(NS.Order)"},
		},
	}

	refs := New().Extract(et)
	require.Len(t, refs, 4)

	assert.Equal(t, TypeReference{FullyQualifiedName: "NS.Person", Kind: schema.KindEntityType, Via: RelationBaseType}, refs[0])
	assert.Equal(t, TypeReference{FullyQualifiedName: "NS.Address", Kind: schema.KindUnknown, PropertyName: "Address", Via: RelationProperty}, refs[1])
	assert.Equal(t, TypeReference{FullyQualifiedName: "NS.Address", Kind: schema.KindUnknown, PropertyName: "Previous", IsCollection: true, Via: RelationProperty}, refs[2])
	assert.Equal(t, TypeReference{FullyQualifiedName: "NS.Order", Kind: schema.KindEntityType, PropertyName: "Orders", IsCollection: true, Via: RelationNavigation}, refs[3])
}

func TestExtractComplexTypeBaseKind(t *testing.T) {
	ct := &schema.ComplexType{Name: "Address", BaseType: "NS.Location"}
	refs := New().Extract(ct)
	require.Len(t, refs, 1)
	assert.Equal(t, schema.KindComplexType, refs[0].Kind)
}

func TestExtractPrimitiveFiltering(t *testing.T) {
	for _, typ := range []string{"Edm.String", "Collection(Edm.Int32)", "Edm.Geography"} {
		et := &schema.EntityType{Name: "T", Properties: []*schema.Property{{Name: "p", Type: typ}}}
		assert.Empty(t, New().Extract(et), typ)
	}
}

func TestExtractCollectionUnwrapping(t *testing.T) {
	et := &schema.EntityType{Name: "T", Properties: []*schema.Property{{Name: "Items", Type: "Collection(NS.Foo)"}}}
	refs := New().Extract(et)
	require.Len(t, refs, 1)
	assert.Equal(t, "NS.Foo", refs[0].FullyQualifiedName)
	assert.True(t, refs[0].IsCollection)
}

func TestExtractDeduplicatesSamePropertyPair(t *testing.T) {
	et := &schema.EntityType{
		Name: "T",
		Properties: []*schema.Property{
			{Name: "A", Type: "NS.Foo"},
			{Name: "A", Type: "Collection(NS.Foo)"},
			{Name: "B", Type: "NS.Foo"},
		},
	}
	refs := New().Extract(et)
	require.Len(t, refs, 2)
	assert.Equal(t, "A", refs[0].PropertyName)
	assert.False(t, refs[0].IsCollection)
	assert.Equal(t, "B", refs[1].PropertyName)
}

func TestExtractOperations(t *testing.T) {
	lookup := func(fqn string) schema.Kind {
		if fqn == "NS.Customer" {
			return schema.KindEntityType
		}
		return schema.KindUnknown
	}
	x := New(WithKindLookup(lookup))

	action := &schema.Action{
		Name: "Approve",
		Parameters: []*schema.Parameter{
			{Name: "customer", Type: "NS.Customer"},
			{Name: "note", Type: "Edm.String"},
		},
		ReturnType: &schema.ReturnType{Type: "Collection(NS.Receipt)"},
	}
	refs := x.Extract(action)
	require.Len(t, refs, 2)
	assert.Equal(t, schema.KindEntityType, refs[0].Kind)
	assert.Equal(t, "customer", refs[0].PropertyName)
	assert.Equal(t, "NS.Receipt", refs[1].FullyQualifiedName)
	assert.Equal(t, "", refs[1].PropertyName)
	assert.Equal(t, RelationReturnType, refs[1].Via)

	fn := &schema.Function{Name: "Top", ReturnType: &schema.ReturnType{Type: "NS.Customer"}}
	assert.Equal(t, []string{"NS.Customer"}, names(x.Extract(fn)))
}

func TestExtractEntitySetBindings(t *testing.T) {
	set := &schema.EntitySet{
		Name:       "Customers",
		EntityType: "NS.Customer",
		Bindings: []*schema.NavigationPropertyBinding{
			{Path: "Orders", Target: "Orders"},
			{Path: "Region", Target: "Geo.Container/Regions"},
		},
	}

	scoped := New().ExtractIn(Scope{Namespace: "NS", Container: "Container"}, set)
	assert.Equal(t, []string{"NS.Customer", "NS.Container/Orders", "Geo.Container/Regions"}, names(scoped))
	assert.Equal(t, schema.KindEntitySet, scoped[1].Kind)
	assert.Equal(t, "Orders", scoped[1].PropertyName)

	// Without a scope, unqualified targets cannot be placed.
	assert.Equal(t, []string{"NS.Customer", "Geo.Container/Regions"}, names(New().Extract(set)))

	single := &schema.Singleton{Name: "Me", Type: "NS.Customer"}
	assert.Equal(t, []string{"NS.Customer"}, names(New().Extract(single)))
}

func TestExtractEntry(t *testing.T) {
	set := schema.FromSchemas(&schema.Schema{
		Namespace: "NS",
		EntityContainer: &schema.EntityContainer{
			Name: "C",
			EntitySets: []*schema.EntitySet{{
				Name:       "A",
				EntityType: "NS.T",
				Bindings:   []*schema.NavigationPropertyBinding{{Path: "B", Target: "B"}},
			}},
		},
	})
	e, ok := set.Resolve("NS.C/A")
	require.True(t, ok)
	assert.Equal(t, []string{"NS.T", "NS.C/B"}, names(New().ExtractEntry(e)))
}

func TestExtractTermsAndDefinitions(t *testing.T) {
	term := &schema.Term{Name: "Label", Type: "NS.LabelType", BaseTerm: "Core.Description"}
	assert.Equal(t, []string{"NS.LabelType", "Core.Description"}, names(New().Extract(term)))

	td := &schema.TypeDefinition{Name: "Money", UnderlyingType: "Edm.Decimal"}
	assert.Empty(t, New().Extract(td))

	imp := &schema.FunctionImport{Name: "Top", Function: "NS.Top"}
	refs := New().Extract(imp)
	require.Len(t, refs, 1)
	assert.Equal(t, schema.KindFunction, refs[0].Kind)
}

func TestExtractIsDeterministic(t *testing.T) {
	et := &schema.EntityType{
		Name:                 "T",
		BaseType:             "NS.B",
		Properties:           []*schema.Property{{Name: "x", Type: "NS.X"}, {Name: "y", Type: "NS.Y"}},
		NavigationProperties: []*schema.NavigationProperty{{Name: "z", Type: "NS.Z"}},
	}
	x := New()
	assert.Equal(t, x.Extract(et), x.Extract(et))
}

func TestExtractNilAndUnsupported(t *testing.T) {
	var et *schema.EntityType
	assert.Empty(t, New().Extract(et))
	assert.Empty(t, New().Extract(&schema.EnumType{Name: "Color"}))
	assert.Empty(t, New().Extract(&schema.EntityContainer{Name: "C"}))
}
