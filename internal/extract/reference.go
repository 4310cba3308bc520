package extract

import "github.com/zheng/schemagraph/internal/schema"

// Relation says which field of the source element produced a reference.
type Relation string

const (
	RelationBaseType   Relation = "base_type"
	RelationProperty   Relation = "property"
	RelationNavigation Relation = "navigation"
	RelationParameter  Relation = "parameter"
	RelationReturnType Relation = "return_type"
	RelationEntityType Relation = "entity_type"
	RelationBinding    Relation = "binding"
	RelationImport     Relation = "import"
	RelationTermType   Relation = "term_type"
	RelationUnderlying Relation = "underlying_type"
)

// TypeReference is one direct outgoing reference of a schema element.
type TypeReference struct {
	FullyQualifiedName string      `json:"fullyQualifiedName"`
	Kind               schema.Kind `json:"kind"`
	PropertyName       string      `json:"propertyName,omitempty"`
	IsCollection       bool        `json:"isCollection"`
	Via                Relation    `json:"via"`
}

type refKey struct {
	fqn, prop string
}
