package graph

import "sort"

// DirectDependencies returns the distinct targets of id's outgoing edges.
func (s *Store) DirectDependencies(id string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedSet(neighbours(s.out[id], true))
}

// DirectDependents returns the distinct sources of id's incoming edges.
func (s *Store) DirectDependents(id string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedSet(neighbours(s.in[id], false))
}

// AllDependencies returns everything reachable from id over outgoing edges.
// id itself is never part of the result, even when it sits on a cycle.
func (s *Store) AllDependencies(id string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedSet(s.reach(id, true))
}

// AllDependents returns everything that reaches id over outgoing edges.
func (s *Store) AllDependents(id string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedSet(s.reach(id, false))
}

// reach runs a BFS from id. Callers hold the read lock.
func (s *Store) reach(id string, forward bool) []string {
	if _, ok := s.nodes[id]; !ok {
		return nil
	}
	index := s.in
	if forward {
		index = s.out
	}

	visited := map[string]bool{id: true}
	queue := []string{id}
	var found []string
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range neighbours(index[cur], forward) {
			if visited[next] {
				continue
			}
			visited[next] = true
			found = append(found, next)
			queue = append(queue, next)
		}
	}
	return found
}

// DependencyPath returns the first shortest path from source to target over
// outgoing edges, both ends included. Ties go to the edge added first.
func (s *Store) DependencyPath(source, target string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.nodes[source]; !ok {
		return nil
	}
	if source == target {
		return []string{source}
	}
	if _, ok := s.nodes[target]; !ok {
		return nil
	}

	parent := map[string]string{source: ""}
	queue := []string{source}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range neighbours(s.out[cur], true) {
			if _, seen := parent[next]; seen {
				continue
			}
			parent[next] = cur
			if next == target {
				return unwind(parent, source, target)
			}
			queue = append(queue, next)
		}
	}
	return nil
}

func unwind(parent map[string]string, source, target string) []string {
	var path []string
	for cur := target; ; cur = parent[cur] {
		path = append(path, cur)
		if cur == source {
			break
		}
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// HasCircularDependency reports whether id can reach itself through at
// least one edge.
func (s *Store) HasCircularDependency(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.nodes[id]; !ok {
		return false
	}
	visited := make(map[string]bool)
	queue := neighbours(s.out[id], true)
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur == id {
			return true
		}
		if visited[cur] {
			continue
		}
		visited[cur] = true
		queue = append(queue, neighbours(s.out[cur], true)...)
	}
	return false
}

// neighbours returns the distinct far ends of edges in first-seen order.
func neighbours(edges []Edge, forward bool) []string {
	seen := make(map[string]bool, len(edges))
	out := make([]string, 0, len(edges))
	for _, e := range edges {
		n := e.Source
		if forward {
			n = e.Target
		}
		if seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

func sortedSet(ids []string) []string {
	if len(ids) == 0 {
		return []string{}
	}
	out := append([]string(nil), ids...)
	sort.Strings(out)
	return out
}
