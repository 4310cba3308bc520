package graph

import (
	"strings"

	"github.com/google/uuid"

	"github.com/zheng/schemagraph/internal/schema"
)

// idSpace is the UUIDv5 namespace for synthetic element ids.
var idSpace = uuid.MustParse("6f1c2a7e-4b7d-5f0e-9a51-2f6d3c1b8e40")

// Node represents a registered schema element
type Node struct {
	ElementID string      `json:"elementId"`
	FQN       string      `json:"fqn,omitempty"`
	Kind      schema.Kind `json:"kind"`
	Namespace string      `json:"namespace,omitempty"`
}

// IsPlaceholder reports whether the node was created only as an edge target.
func (n Node) IsPlaceholder() bool {
	return n.Kind == schema.KindUnknown
}

// SyntheticID returns a stable id for an element that has no FQN of its own,
// derived from the path of names leading to it.
func SyntheticID(parts ...string) string {
	return uuid.NewSHA1(idSpace, []byte(strings.Join(parts, "\x1f"))).String()
}

// ElementID picks the FQN when there is one, else a synthetic id.
func ElementID(fqn string, parts ...string) string {
	if fqn != "" {
		return fqn
	}
	return SyntheticID(parts...)
}
