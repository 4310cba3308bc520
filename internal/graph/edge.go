package graph

// EdgeKind classifies a dependency
type EdgeKind string

const (
	EdgeKindReference  EdgeKind = "reference"
	EdgeKindBaseType   EdgeKind = "base_type"
	EdgeKindProperty   EdgeKind = "property"
	EdgeKindNavigation EdgeKind = "navigation"
	EdgeKindParameter  EdgeKind = "parameter"
	EdgeKindReturnType EdgeKind = "return_type"
	EdgeKindEntityType EdgeKind = "entity_type"
	EdgeKindBinding    EdgeKind = "binding"
	EdgeKindImport     EdgeKind = "import"
	EdgeKindTermType   EdgeKind = "term_type"
	EdgeKindUnderlying EdgeKind = "underlying_type"
)

// Edge represents a direct dependency of Source on Target
type Edge struct {
	Source       string   `json:"source"`
	Target       string   `json:"target"`
	Kind         EdgeKind `json:"kind"`
	PropertyName string   `json:"propertyName,omitempty"`
}
