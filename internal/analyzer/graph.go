package analyzer

import (
	"fmt"
	"strings"

	"github.com/zheng/schemagraph/internal/graph"
)

// ElementID maps a qualified name to the id the store uses for it.
func (a *Analyzer) ElementID(fqn string) (string, error) {
	if strings.TrimSpace(fqn) == "" {
		return "", ErrEmptyIdentifier
	}
	if e, ok := a.set.Resolve(fqn); ok {
		return graph.EntryID(e), nil
	}
	if n, ok := a.store.Resolve(fqn); ok {
		return n.ElementID, nil
	}
	return "", fmt.Errorf("%w: %s", ErrElementNotFound, fqn)
}

// Impact reports what breaks when fqn changes. Load must run first.
func (a *Analyzer) Impact(fqn string) (graph.ImpactAnalysis, error) {
	id, err := a.ElementID(fqn)
	if err != nil {
		return graph.ImpactAnalysis{}, err
	}
	ia := a.store.Impact(id)
	ia.DirectlyAffected = a.names(ia.DirectlyAffected)
	ia.IndirectlyAffected = a.names(ia.IndirectlyAffected)
	ia.Target = fqn
	return ia, nil
}

// names maps store ids back to qualified names.
func (a *Analyzer) names(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if n, ok := a.store.Node(id); ok && n.FQN != "" {
			out = append(out, n.FQN)
			continue
		}
		out = append(out, id)
	}
	return out
}
