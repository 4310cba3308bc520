package schema

import "strings"

// FQN is a namespace-qualified element name.
type FQN struct {
	Namespace string `json:"namespace"`
	Name      string `json:"name"`
}

// NewFQN builds an FQN from its parts.
func NewFQN(namespace, name string) FQN {
	return FQN{Namespace: namespace, Name: name}
}

// ParseFQN splits s on its last dot. A string without a dot has no
// namespace and ok is false.
func ParseFQN(s string) (FQN, bool) {
	idx := strings.LastIndex(s, ".")
	if idx <= 0 || idx == len(s)-1 {
		return FQN{}, false
	}
	return FQN{Namespace: s[:idx], Name: s[idx+1:]}, true
}

// String returns the canonical "namespace.name" form.
func (f FQN) String() string {
	if f.Namespace == "" {
		return f.Name
	}
	return f.Namespace + "." + f.Name
}

func (f FQN) IsZero() bool {
	return f.Namespace == "" && f.Name == ""
}

// QualifiedName joins a namespace and a local name.
func QualifiedName(namespace, name string) string {
	return NewFQN(namespace, name).String()
}

// ContainerChildName names an entity set, singleton or import inside a
// container, e.g. "NS.Container/Orders".
func ContainerChildName(namespace, container, child string) string {
	return QualifiedName(namespace, container) + "/" + child
}
