package storage

import (
	"github.com/zheng/schemagraph/internal/graph"
	"github.com/zheng/schemagraph/internal/schema"
)

// Risk levels for changing an element, by how much depends on it
const (
	RiskHigh   = "HIGH"
	RiskMedium = "MEDIUM"
	RiskLow    = "LOW"
	RiskNone   = "NONE"
)

// Hotspot is an element many others depend on
type Hotspot struct {
	Node            *graph.Node `json:"node"`
	DirectCount     int         `json:"directCount"`
	TransitiveCount int         `json:"transitiveCount"`
	RiskLevel       string      `json:"riskLevel"`
}

// CalculateRiskLevel maps a transitive dependent count to a risk level
func CalculateRiskLevel(dependents int) string {
	switch {
	case dependents > 50:
		return RiskHigh
	case dependents > 20:
		return RiskMedium
	case dependents > 5:
		return RiskLow
	default:
		return RiskNone
	}
}

// TopDependedOn returns the elements with the most direct dependents.
// Transitive counts and risk levels are filled in for each.
func (db *DB) TopDependedOn(limit int) ([]Hotspot, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := db.conn.Query(
		`SELECT `+nodeColumns+`, COUNT(DISTINCT e.source_id) AS direct
		 FROM nodes n
		 JOIN edges e ON e.target_id = n.element_id
		 WHERE e.source_id != n.element_id
		 GROUP BY n.element_id
		 ORDER BY direct DESC, n.element_id
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var spots []Hotspot
	for rows.Next() {
		var (
			n    graph.Node
			kind string
			h    Hotspot
		)
		if err := rows.Scan(&n.ElementID, &n.FQN, &kind, &n.Namespace, &h.DirectCount); err != nil {
			return nil, err
		}
		n.Kind = schema.Kind(kind)
		h.Node = &n
		spots = append(spots, h)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	for i := range spots {
		all, err := db.DependentsOf(spots[i].Node.ElementID, 0)
		if err != nil {
			return nil, err
		}
		spots[i].TransitiveCount = len(all)
		spots[i].RiskLevel = CalculateRiskLevel(len(all))
	}
	return spots, nil
}
