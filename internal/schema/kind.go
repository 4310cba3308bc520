package schema

// Kind identifies the structural kind of a schema element.
type Kind string

const (
	KindUnknown            Kind = ""
	KindEntityType         Kind = "EntityType"
	KindComplexType        Kind = "ComplexType"
	KindEnumType           Kind = "EnumType"
	KindTypeDefinition     Kind = "TypeDefinition"
	KindAction             Kind = "Action"
	KindFunction           Kind = "Function"
	KindTerm               Kind = "Term"
	KindEntityContainer    Kind = "EntityContainer"
	KindEntitySet          Kind = "EntitySet"
	KindSingleton          Kind = "Singleton"
	KindActionImport       Kind = "ActionImport"
	KindFunctionImport     Kind = "FunctionImport"
	KindProperty           Kind = "Property"
	KindNavigationProperty Kind = "NavigationProperty"
	KindParameter          Kind = "Parameter"
	KindReturnType         Kind = "ReturnType"
)

// Kinds lists every known kind in declaration order.
var Kinds = []Kind{
	KindEntityType,
	KindComplexType,
	KindEnumType,
	KindTypeDefinition,
	KindAction,
	KindFunction,
	KindTerm,
	KindEntityContainer,
	KindEntitySet,
	KindSingleton,
	KindActionImport,
	KindFunctionImport,
	KindProperty,
	KindNavigationProperty,
	KindParameter,
	KindReturnType,
}

func (k Kind) String() string {
	if k == KindUnknown {
		return "Unknown"
	}
	return string(k)
}

// ParseKind maps a kind name back to its Kind. Matching is exact.
func ParseKind(s string) (Kind, bool) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, true
		}
	}
	return KindUnknown, false
}

// IsType reports whether the kind declares a type usable in a property.
func (k Kind) IsType() bool {
	switch k {
	case KindEntityType, KindComplexType, KindEnumType, KindTypeDefinition:
		return true
	}
	return false
}
