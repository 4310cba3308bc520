package schema

import "strings"

const (
	collectionPrefix = "Collection("
	collectionSuffix = ")"
)

// BuiltinNamespace is the namespace of primitive types.
const BuiltinNamespace = "Edm"

// TypeName is a parsed property, parameter or return type string.
type TypeName struct {
	Raw          string
	Inner        string
	IsCollection bool
}

// ParseTypeName strips an optional Collection(...) wrapper.
func ParseTypeName(raw string) TypeName {
	t := TypeName{Raw: raw, Inner: strings.TrimSpace(raw)}
	if strings.HasPrefix(t.Inner, collectionPrefix) && strings.HasSuffix(t.Inner, collectionSuffix) {
		t.Inner = strings.TrimSpace(t.Inner[len(collectionPrefix) : len(t.Inner)-len(collectionSuffix)])
		t.IsCollection = true
	}
	return t
}

// IsPrimitive reports whether the unwrapped type lives in the Edm namespace.
func (t TypeName) IsPrimitive() bool {
	return IsPrimitive(t.Inner)
}

// FQN returns the qualified form of the unwrapped type, if it has one.
func (t TypeName) FQN() (FQN, bool) {
	return ParseFQN(t.Inner)
}

// IsPrimitive reports whether typ (already unwrapped) is an Edm primitive.
func IsPrimitive(typ string) bool {
	return strings.HasPrefix(typ, BuiltinNamespace+".")
}
