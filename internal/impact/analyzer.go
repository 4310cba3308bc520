package impact

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zheng/schemagraph/internal/graph"
	"github.com/zheng/schemagraph/internal/storage"
)

// Analyzer performs impact analysis on the stored schema graph
type Analyzer struct {
	db *storage.DB
}

// NewAnalyzer creates a new impact analyzer
func NewAnalyzer(db *storage.DB) *Analyzer {
	return &Analyzer{db: db}
}

// ImpactReport describes what a change to one element touches
type ImpactReport struct {
	Target               *graph.Node   `json:"target"`
	DirectDependents     []*graph.Node `json:"direct_dependents"`
	IndirectDependents   []*graph.Node `json:"indirect_dependents"`
	DirectDependencies   []*graph.Node `json:"direct_dependencies"`
	IndirectDependencies []*graph.Node `json:"indirect_dependencies"`
	RiskLevel            string        `json:"risk_level"`
}

// AnalyzeImpact analyzes the impact of changing an element. Depth 0 means
// unbounded, 1 means direct neighbours only.
func (a *Analyzer) AnalyzeImpact(name string, upstreamDepth, downstreamDepth int) (*ImpactReport, error) {
	target, err := a.Resolve(name)
	if err != nil {
		return nil, err
	}

	report := &ImpactReport{Target: target}

	report.DirectDependents, err = a.db.DirectDependents(target.ElementID)
	if err != nil {
		return nil, fmt.Errorf("failed to get direct dependents: %w", err)
	}
	if upstreamDepth != 1 {
		all, err := a.db.DependentsOf(target.ElementID, upstreamDepth)
		if err != nil {
			return nil, fmt.Errorf("failed to get dependents: %w", err)
		}
		report.IndirectDependents = without(all, report.DirectDependents)
	}

	report.DirectDependencies, err = a.db.DirectDependencies(target.ElementID)
	if err != nil {
		return nil, fmt.Errorf("failed to get direct dependencies: %w", err)
	}
	if downstreamDepth != 1 {
		all, err := a.db.DependenciesOf(target.ElementID, downstreamDepth)
		if err != nil {
			return nil, fmt.Errorf("failed to get dependencies: %w", err)
		}
		report.IndirectDependencies = without(all, report.DirectDependencies)
	}

	report.RiskLevel = storage.CalculateRiskLevel(len(report.DirectDependents) + len(report.IndirectDependents))
	return report, nil
}

// Resolve finds the element by exact name first, then by unique pattern match.
func (a *Analyzer) Resolve(name string) (*graph.Node, error) {
	target, err := a.db.GetNode(name)
	if err == nil {
		return target, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	nodes, err := a.db.FindNodesByPattern(name)
	if err != nil {
		return nil, fmt.Errorf("failed to find element: %w", err)
	}
	switch len(nodes) {
	case 0:
		return nil, fmt.Errorf("element not found: %s", name)
	case 1:
		return nodes[0], nil
	}
	var names []string
	for _, n := range nodes {
		names = append(names, displayName(n))
	}
	return nil, fmt.Errorf("ambiguous element name, found %d matches: %s", len(nodes), strings.Join(names, ", "))
}

// FromStore builds a report from an in-memory graph, using its Impact
// analysis for dependents.
func FromStore(store *graph.Store, id string) (*ImpactReport, error) {
	target, ok := store.Node(id)
	if !ok {
		return nil, fmt.Errorf("element not found: %s", id)
	}
	ia := store.Impact(id)
	report := &ImpactReport{
		Target:             &target,
		DirectDependents:   lookup(store, ia.DirectlyAffected),
		IndirectDependents: lookup(store, ia.IndirectlyAffected),
	}

	direct := store.DirectDependencies(id)
	report.DirectDependencies = lookup(store, direct)
	isDirect := make(map[string]bool, len(direct))
	for _, d := range direct {
		isDirect[d] = true
	}
	var indirect []string
	for _, d := range store.AllDependencies(id) {
		if !isDirect[d] {
			indirect = append(indirect, d)
		}
	}
	report.IndirectDependencies = lookup(store, indirect)
	report.RiskLevel = storage.CalculateRiskLevel(ia.TotalAffected)
	return report, nil
}

func lookup(store *graph.Store, ids []string) []*graph.Node {
	out := make([]*graph.Node, 0, len(ids))
	for _, id := range ids {
		n, ok := store.Node(id)
		if !ok {
			n = graph.Node{ElementID: id}
		}
		out = append(out, &n)
	}
	return out
}

func without(all, drop []*graph.Node) []*graph.Node {
	skip := make(map[string]bool, len(drop))
	for _, d := range drop {
		skip[d.ElementID] = true
	}
	var out []*graph.Node
	for _, n := range all {
		if !skip[n.ElementID] {
			out = append(out, n)
		}
	}
	return out
}

// displayName prefers the qualified name over a synthetic id
func displayName(n *graph.Node) string {
	if n.FQN != "" {
		return n.FQN
	}
	return n.ElementID
}

func kindLabel(n *graph.Node) string {
	return n.Kind.String()
}

// FormatMarkdown formats the impact report as markdown
func (r *ImpactReport) FormatMarkdown() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("## 变更影响分析: %s\n\n", displayName(r.Target)))
	sb.WriteString(fmt.Sprintf("**类型:** %s\n\n", kindLabel(r.Target)))
	if r.Target.Namespace != "" {
		sb.WriteString(fmt.Sprintf("**命名空间:** %s\n\n", r.Target.Namespace))
	}
	if r.RiskLevel != "" {
		sb.WriteString(fmt.Sprintf("**风险等级:** %s\n\n", r.RiskLevel))
	}

	writeSection(&sb, "### 直接依赖方 (需检查是否需要同步修改)", "_无直接依赖方_", r.DirectDependents, true)
	writeSection(&sb, "### 间接依赖方 (可能受影响)", "", r.IndirectDependents, false)
	writeSection(&sb, "### 下游依赖 (本元素引用的)", "_无下游依赖_", r.DirectDependencies, true)
	writeSection(&sb, "### 间接下游依赖", "", r.IndirectDependencies, false)

	return sb.String()
}

func writeSection(sb *strings.Builder, title, empty string, nodes []*graph.Node, always bool) {
	if len(nodes) == 0 {
		if always {
			sb.WriteString(title + "\n\n" + empty + "\n\n")
		}
		return
	}
	sb.WriteString(title + "\n\n")
	sb.WriteString("| 元素 | 类型 | 命名空间 |\n")
	sb.WriteString("|------|------|----------|\n")
	for _, n := range nodes {
		sb.WriteString(fmt.Sprintf("| %s | %s | %s |\n", displayName(n), kindLabel(n), n.Namespace))
	}
	sb.WriteString("\n")
}

// FormatTree formats the impact report as a tree structure
func (r *ImpactReport) FormatTree() string {
	var sb strings.Builder

	allDependents := append(append([]*graph.Node(nil), r.DirectDependents...), r.IndirectDependents...)
	allDependencies := append(append([]*graph.Node(nil), r.DirectDependencies...), r.IndirectDependencies...)

	maxWidth := len(kindLabel(r.Target))
	for _, n := range append(append([]*graph.Node(nil), allDependents...), allDependencies...) {
		if w := len(kindLabel(n)); w > maxWidth {
			maxWidth = w
		}
	}

	sb.WriteString("📍 当前元素\n")
	sb.WriteString(fmt.Sprintf("%-*s  %s\n\n", maxWidth, kindLabel(r.Target), displayName(r.Target)))

	writeBranch(&sb, "⬆️ 依赖方", allDependents, maxWidth)
	sb.WriteString("\n")
	writeBranch(&sb, "⬇️ 依赖项", allDependencies, maxWidth)

	return sb.String()
}

func writeBranch(sb *strings.Builder, title string, nodes []*graph.Node, width int) {
	if len(nodes) == 0 {
		sb.WriteString(title + "\n")
		sb.WriteString("└── (无)\n")
		return
	}
	sb.WriteString(fmt.Sprintf("%s (共 %d 个)\n", title, len(nodes)))
	for i, n := range nodes {
		prefix := "├──"
		if i == len(nodes)-1 {
			prefix = "└──"
		}
		sb.WriteString(fmt.Sprintf("%s %-*s  %s\n", prefix, width, kindLabel(n), displayName(n)))
	}
}

// Summary returns a brief summary of the impact report
func (r *ImpactReport) Summary() string {
	return fmt.Sprintf(
		"Target: %s, Direct Dependents: %d, Indirect Dependents: %d, Direct Dependencies: %d, Indirect Dependencies: %d, Risk: %s",
		displayName(r.Target),
		len(r.DirectDependents),
		len(r.IndirectDependents),
		len(r.DirectDependencies),
		len(r.IndirectDependencies),
		r.RiskLevel,
	)
}
