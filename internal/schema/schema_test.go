package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFQN(t *testing.T) {
	tests := []struct {
		in     string
		want   FQN
		wantOK bool
	}{
		{"NS.Customer", FQN{"NS", "Customer"}, true},
		{"com.example.odata.Order", FQN{"com.example.odata", "Order"}, true},
		{"Customer", FQN{}, false},
		{".Customer", FQN{}, false},
		{"NS.", FQN{}, false},
		{"", FQN{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseFQN(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFQNString(t *testing.T) {
	assert.Equal(t, "NS.Customer", NewFQN("NS", "Customer").String())
	assert.Equal(t, "Customer", NewFQN("", "Customer").String())
	assert.True(t, FQN{}.IsZero())
	assert.Equal(t, "NS.Container/Orders", ContainerChildName("NS", "Container", "Orders"))
}

func TestParseTypeName(t *testing.T) {
	tests := []struct {
		raw        string
		inner      string
		collection bool
		primitive  bool
	}{
		{"Edm.String", "Edm.String", false, true},
		{"Collection(Edm.Int32)", "Edm.Int32", true, true},
		{"Collection(NS.Foo)", "NS.Foo", true, false},
		{"NS.Foo", "NS.Foo", false, false},
		{" Collection( NS.Foo ) ", "NS.Foo", true, false},
		{"Collection(NS.Foo", "Collection(NS.Foo", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			tn := ParseTypeName(tt.raw)
			assert.Equal(t, tt.inner, tn.Inner)
			assert.Equal(t, tt.collection, tn.IsCollection)
			assert.Equal(t, tt.primitive, tn.IsPrimitive())
		})
	}
}

func TestParseKind(t *testing.T) {
	k, ok := ParseKind("EntityType")
	require.True(t, ok)
	assert.Equal(t, KindEntityType, k)

	_, ok = ParseKind("entitytype")
	assert.False(t, ok)

	assert.Equal(t, "Unknown", KindUnknown.String())
	assert.True(t, KindEnumType.IsType())
	assert.False(t, KindAction.IsType())
}

func TestFunctionSignature(t *testing.T) {
	f := &Function{
		Name: "GetTop",
		Parameters: []*Parameter{
			{Name: "count", Type: "Edm.Int32"},
			{Name: "filter", Type: "NS.Filter"},
		},
		ReturnType: &ReturnType{Type: "Collection(NS.Customer)"},
	}
	assert.Equal(t, "GetTop(Edm.Int32,NS.Filter):Collection(NS.Customer)", f.Signature())
	assert.Equal(t, "Ping()", (&Function{Name: "Ping"}).Signature())
}

func sampleSet() *Set {
	return NewSet(
		&Document{
			Path: "a.yaml",
			References: []Reference{{
				URI:      "https://example.com/core.xml",
				Includes: []Include{{Namespace: "Org.OData.Core.V1", Alias: "Core"}},
			}},
			Schemas: []*Schema{{
				Namespace:   "NS",
				EntityTypes: []*EntityType{{Name: "Customer"}, {Name: "Order"}},
				Functions: []*Function{
					{Name: "Find", Parameters: []*Parameter{{Name: "id", Type: "Edm.Int32"}}},
					{Name: "Find", Parameters: []*Parameter{{Name: "name", Type: "Edm.String"}}},
				},
				EntityContainer: &EntityContainer{
					Name:       "Container",
					EntitySets: []*EntitySet{{Name: "Customers", EntityType: "NS.Customer"}},
				},
			}},
		},
		&Document{Schemas: []*Schema{{Namespace: "Other", ComplexTypes: []*ComplexType{{Name: "Address"}}}}},
		nil,
	)
}

func TestSetResolve(t *testing.T) {
	s := sampleSet()

	e, ok := s.Resolve("NS.Customer")
	require.True(t, ok)
	assert.Equal(t, "NS", e.Namespace)
	assert.Equal(t, KindEntityType, e.Element.ElementKind())

	e, ok = s.Resolve("NS.Container/Customers")
	require.True(t, ok)
	assert.Equal(t, KindEntitySet, e.Element.ElementKind())
	require.NotNil(t, e.Container)
	assert.Equal(t, "Container", e.Container.Name)

	assert.Len(t, s.ResolveAll("NS.Find"), 2)
	assert.Equal(t, KindComplexType, s.KindOf("Other.Address"))
	assert.Equal(t, KindUnknown, s.KindOf("Other.Missing"))
	assert.False(t, s.Has("NS.Missing"))
}

func TestSetNamespaces(t *testing.T) {
	s := sampleSet()
	assert.Equal(t, []string{"NS", "Other"}, s.Namespaces())
	assert.Equal(t, []string{"Org.OData.Core.V1"}, s.ImportedNamespaces())
	assert.Len(t, s.Documents(), 2)
	assert.Len(t, s.Schemas(), 2)
	assert.Len(t, s.Containers(), 1)
}

func TestSetSkipsNilListEntries(t *testing.T) {
	sch := &Schema{
		Namespace:    "NS",
		EntityTypes:  []*EntityType{nil, {Name: "Customer", Properties: []*Property{nil}}},
		ComplexTypes: []*ComplexType{nil},
		Functions:    []*Function{nil, {Name: "Find", Parameters: []*Parameter{nil}}},
		EntityContainer: &EntityContainer{
			Name:       "Container",
			EntitySets: []*EntitySet{nil, {Name: "Customers", EntityType: "NS.Customer"}},
			Singletons: []*Singleton{nil},
		},
	}
	var s *Set
	require.NotPanics(t, func() { s = NewSet(&Document{Schemas: []*Schema{nil, sch}}) })
	assert.Len(t, s.Entries(), 4)
	assert.True(t, s.Has("NS.Customer"))
	assert.True(t, s.Has("NS.Find"))
	assert.True(t, s.Has("NS.Container/Customers"))
	assert.Len(t, s.Schemas(), 1)
}
