package analyzer

import "github.com/zheng/schemagraph/internal/extract"

// CircularDependency is a cycle found from one originating element. The
// chain starts and ends with that element.
type CircularDependency struct {
	Element         string   `json:"element"`
	DependencyChain []string `json:"dependencyChain"`
}

// DetectCircularDependencies checks every element of the set. A cycle
// shared by several elements is reported once per element on it.
func (a *Analyzer) DetectCircularDependencies() []CircularDependency {
	var out []CircularDependency
	done := make(map[string]bool)

	for _, e := range a.set.Entries() {
		if done[e.FQN] {
			continue
		}
		done[e.FQN] = true

		refs, _ := a.refsOf(e.FQN)
		if !containsName(a.closure(refs), e.FQN) {
			continue
		}
		out = append(out, CircularDependency{
			Element:         e.FQN,
			DependencyChain: a.cycleThrough(e.FQN),
		})
	}
	return out
}

// cycleThrough returns the shortest chain fqn -> ... -> fqn.
func (a *Analyzer) cycleThrough(fqn string) []string {
	parent := make(map[string]string)
	var queue []string

	start, _ := a.refsOf(fqn)
	for _, ref := range start {
		next := ref.FullyQualifiedName
		if next == fqn {
			return []string{fqn, fqn}
		}
		if _, seen := parent[next]; !seen {
			parent[next] = fqn
			queue = append(queue, next)
		}
	}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		refs, _ := a.refsOf(cur)
		for _, ref := range refs {
			next := ref.FullyQualifiedName
			if next == fqn {
				chain := []string{fqn}
				for n := cur; n != fqn; n = parent[n] {
					chain = append(chain, n)
				}
				// chain is fqn followed by the walk back; flip the tail
				for i, j := 1, len(chain)-1; i < j; i, j = i+1, j-1 {
					chain[i], chain[j] = chain[j], chain[i]
				}
				return append(chain, fqn)
			}
			if _, seen := parent[next]; seen {
				continue
			}
			parent[next] = cur
			queue = append(queue, next)
		}
	}
	return nil
}

func containsName(refs []extract.TypeReference, fqn string) bool {
	for _, r := range refs {
		if r.FullyQualifiedName == fqn {
			return true
		}
	}
	return false
}
