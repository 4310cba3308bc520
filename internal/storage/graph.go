package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/zheng/schemagraph/internal/graph"
	"github.com/zheng/schemagraph/internal/schema"
	"github.com/zheng/schemagraph/pkg/logging"
)

// maxTraversalDepth bounds recursive queries, which may meet cycles.
const maxTraversalDepth = 50

const nodeColumns = `n.element_id, n.fqn, n.kind, n.namespace`

// InsertNode inserts or updates a node. It matches graph.Builder's insert
// callback.
func (db *DB) InsertNode(node *graph.Node) error {
	_, err := db.conn.Exec(
		`INSERT INTO nodes (element_id, fqn, kind, namespace) VALUES (?, ?, ?, ?)
		 ON CONFLICT(element_id) DO UPDATE SET fqn = excluded.fqn, kind = excluded.kind, namespace = excluded.namespace`,
		node.ElementID, node.FQN, string(node.Kind), node.Namespace,
	)
	return err
}

// InsertEdge inserts an edge. Duplicates are ignored.
func (db *DB) InsertEdge(edge *graph.Edge) error {
	_, err := db.conn.Exec(
		`INSERT OR IGNORE INTO edges (source_id, target_id, kind, property_name) VALUES (?, ?, ?, ?)`,
		edge.Source, edge.Target, string(edge.Kind), edge.PropertyName,
	)
	return err
}

// SaveSnapshot replaces the stored graph with snap in one transaction.
func (db *DB) SaveSnapshot(snap graph.Snapshot) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM edges; DELETE FROM nodes;"); err != nil {
		return fmt.Errorf("failed to clear graph: %w", err)
	}

	nodeStmt, err := tx.Prepare(`INSERT INTO nodes (element_id, fqn, kind, namespace) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer nodeStmt.Close()
	for _, n := range snap.Nodes {
		if _, err := nodeStmt.Exec(n.ElementID, n.FQN, string(n.Kind), n.Namespace); err != nil {
			return fmt.Errorf("failed to insert node %s: %w", n.ElementID, err)
		}
	}

	edgeStmt, err := tx.Prepare(`INSERT OR IGNORE INTO edges (source_id, target_id, kind, property_name) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer edgeStmt.Close()
	for _, e := range snap.Edges {
		if _, err := edgeStmt.Exec(e.Source, e.Target, string(e.Kind), e.PropertyName); err != nil {
			return fmt.Errorf("failed to insert edge %s -> %s: %w", e.Source, e.Target, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}
	logging.Debug(subsystem, "saved snapshot: %d nodes, %d edges", len(snap.Nodes), len(snap.Edges))
	return nil
}

// LoadSnapshot reads the whole stored graph.
func (db *DB) LoadSnapshot() (graph.Snapshot, error) {
	var snap graph.Snapshot

	rows, err := db.conn.Query(`SELECT ` + nodeColumns + ` FROM nodes n ORDER BY n.rowid`)
	if err != nil {
		return snap, err
	}
	nodes, err := scanNodes(rows)
	if err != nil {
		return snap, err
	}
	for _, n := range nodes {
		snap.Nodes = append(snap.Nodes, *n)
	}

	edges, err := db.GetAllEdges()
	if err != nil {
		return snap, err
	}
	for _, e := range edges {
		snap.Edges = append(snap.Edges, *e)
	}
	return snap, nil
}

// LoadStore reads the stored graph into a fresh in-memory store.
func (db *DB) LoadStore() (*graph.Store, error) {
	snap, err := db.LoadSnapshot()
	if err != nil {
		return nil, err
	}
	s := graph.NewStore()
	s.Restore(snap)
	return s, nil
}

// GetNode returns a node by element id or qualified name.
func (db *DB) GetNode(name string) (*graph.Node, error) {
	row := db.conn.QueryRow(
		`SELECT `+nodeColumns+` FROM nodes n WHERE n.element_id = ? OR n.fqn = ?
		 ORDER BY n.element_id = ? DESC LIMIT 1`,
		name, name, name,
	)
	n, err := scanNode(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return n, err
}

// FindNodesByPattern returns nodes whose name contains pattern.
// Results are sorted by match quality: exact local name > suffix > contains.
func (db *DB) FindNodesByPattern(pattern string) ([]*graph.Node, error) {
	rows, err := db.conn.Query(
		`SELECT `+nodeColumns+` FROM nodes n
		 WHERE n.fqn LIKE ?
		 ORDER BY
			CASE
				WHEN n.fqn LIKE '%.' || ? OR n.fqn LIKE '%/' || ? THEN 0
				WHEN n.fqn LIKE '%' || ? THEN 1
				ELSE 2
			END,
			length(n.fqn) ASC`,
		"%"+pattern+"%", pattern, pattern, pattern,
	)
	if err != nil {
		return nil, err
	}
	return scanNodes(rows)
}

// DirectDependencies returns the nodes id depends on directly
func (db *DB) DirectDependencies(id string) ([]*graph.Node, error) {
	rows, err := db.conn.Query(
		`SELECT DISTINCT `+nodeColumns+`
		 FROM nodes n
		 JOIN edges e ON e.target_id = n.element_id
		 WHERE e.source_id = ?
		 ORDER BY n.element_id`,
		id,
	)
	if err != nil {
		return nil, err
	}
	return scanNodes(rows)
}

// DirectDependents returns the nodes that depend on id directly
func (db *DB) DirectDependents(id string) ([]*graph.Node, error) {
	rows, err := db.conn.Query(
		`SELECT DISTINCT `+nodeColumns+`
		 FROM nodes n
		 JOIN edges e ON e.source_id = n.element_id
		 WHERE e.target_id = ?
		 ORDER BY n.element_id`,
		id,
	)
	if err != nil {
		return nil, err
	}
	return scanNodes(rows)
}

// DependenciesOf returns everything id depends on, up to maxDepth hops.
// A maxDepth of 0 means no limit beyond the traversal bound.
func (db *DB) DependenciesOf(id string, maxDepth int) ([]*graph.Node, error) {
	return db.closure(id, maxDepth, "source_id", "target_id")
}

// DependentsOf returns everything that depends on id, up to maxDepth hops.
func (db *DB) DependentsOf(id string, maxDepth int) ([]*graph.Node, error) {
	return db.closure(id, maxDepth, "target_id", "source_id")
}

// closure walks edges from the from column to the to column.
func (db *DB) closure(id string, maxDepth int, from, to string) ([]*graph.Node, error) {
	if maxDepth <= 0 || maxDepth > maxTraversalDepth {
		maxDepth = maxTraversalDepth
	}
	query := fmt.Sprintf(`
		WITH RECURSIVE reach(id, depth) AS (
			SELECT %[2]s, 1 FROM edges WHERE %[1]s = ?
			UNION
			SELECT e.%[2]s, r.depth + 1
			FROM edges e
			JOIN reach r ON e.%[1]s = r.id
			WHERE r.depth < ?
		)
		SELECT %[3]s
		FROM nodes n
		JOIN (SELECT id, MIN(depth) AS depth FROM reach GROUP BY id) r ON r.id = n.element_id
		WHERE n.element_id != ?
		ORDER BY r.depth, n.element_id`, from, to, nodeColumns)

	rows, err := db.conn.Query(query, id, maxDepth, id)
	if err != nil {
		return nil, err
	}
	return scanNodes(rows)
}

// GetAllEdges returns all edges in the database
func (db *DB) GetAllEdges() ([]*graph.Edge, error) {
	rows, err := db.conn.Query(`SELECT source_id, target_id, kind, property_name FROM edges ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var edges []*graph.Edge
	for rows.Next() {
		var e graph.Edge
		var kind string
		if err := rows.Scan(&e.Source, &e.Target, &kind, &e.PropertyName); err != nil {
			return nil, err
		}
		e.Kind = graph.EdgeKind(kind)
		edges = append(edges, &e)
	}
	return edges, rows.Err()
}

// GetNodesByNamespace returns all nodes in the given namespaces
func (db *DB) GetNodesByNamespace(namespaces []string) ([]*graph.Node, error) {
	if len(namespaces) == 0 {
		return nil, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(namespaces)), ",")
	args := make([]interface{}, len(namespaces))
	for i, ns := range namespaces {
		args[i] = ns
	}
	rows, err := db.conn.Query(
		`SELECT `+nodeColumns+` FROM nodes n WHERE n.namespace IN (`+placeholders+`) ORDER BY n.element_id`,
		args...,
	)
	if err != nil {
		return nil, err
	}
	return scanNodes(rows)
}

// GetStats returns database statistics
func (db *DB) GetStats() (nodeCount, edgeCount int64, err error) {
	if err = db.conn.QueryRow("SELECT COUNT(*) FROM nodes").Scan(&nodeCount); err != nil {
		return
	}
	err = db.conn.QueryRow("SELECT COUNT(*) FROM edges").Scan(&edgeCount)
	return
}

// TreeNode is one element in a dependency tree
type TreeNode struct {
	Node     *graph.Node
	Children []*TreeNode
}

// DependencyTree builds the tree of dependencies below id. Elements already
// on the current branch are listed but not expanded again.
func (db *DB) DependencyTree(id string, maxDepth int) ([]*TreeNode, error) {
	return db.tree(id, maxDepth, map[string]bool{id: true}, db.DirectDependencies)
}

// DependentTree is DependencyTree walking edges in reverse.
func (db *DB) DependentTree(id string, maxDepth int) ([]*TreeNode, error) {
	return db.tree(id, maxDepth, map[string]bool{id: true}, db.DirectDependents)
}

func (db *DB) tree(id string, maxDepth int, onBranch map[string]bool, next func(string) ([]*graph.Node, error)) ([]*TreeNode, error) {
	deps, err := next(id)
	if err != nil {
		return nil, err
	}
	result := make([]*TreeNode, len(deps))
	for i, d := range deps {
		result[i] = &TreeNode{Node: d}
		if maxDepth == 1 || onBranch[d.ElementID] {
			continue
		}
		onBranch[d.ElementID] = true
		children, err := db.tree(d.ElementID, maxDepth-1, onBranch, next)
		delete(onBranch, d.ElementID)
		if err != nil {
			return nil, err
		}
		result[i].Children = children
	}
	return result, nil
}

// Helper functions

func scanNode(row *sql.Row) (*graph.Node, error) {
	var n graph.Node
	var kind string
	if err := row.Scan(&n.ElementID, &n.FQN, &kind, &n.Namespace); err != nil {
		return nil, err
	}
	n.Kind = schema.Kind(kind)
	return &n, nil
}

func scanNodes(rows *sql.Rows) ([]*graph.Node, error) {
	defer rows.Close()
	var nodes []*graph.Node
	for rows.Next() {
		var n graph.Node
		var kind string
		if err := rows.Scan(&n.ElementID, &n.FQN, &kind, &n.Namespace); err != nil {
			return nil, err
		}
		n.Kind = schema.Kind(kind)
		nodes = append(nodes, &n)
	}
	return nodes, rows.Err()
}
