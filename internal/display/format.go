package display

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/zheng/schemagraph/internal/graph"
	"github.com/zheng/schemagraph/internal/rules"
	"github.com/zheng/schemagraph/internal/storage"
)

// ShortName drops the namespace from a qualified name.
// e.g., "com.example.Sales.Customer" -> "Customer"
// e.g., "Sales.Container/Customers" -> "Container/Customers"
func ShortName(fqn string) string {
	name := fqn
	if slash := strings.Index(name, "/"); slash >= 0 {
		head, tail := name[:slash], name[slash:]
		if dot := strings.LastIndex(head, "."); dot >= 0 {
			head = head[dot+1:]
		}
		return head + tail
	}
	if dot := strings.LastIndex(name, "."); dot >= 0 {
		return name[dot+1:]
	}
	return name
}

// NodeName prefers the qualified name over a synthetic id.
func NodeName(n *graph.Node) string {
	if n == nil {
		return ""
	}
	if n.FQN != "" {
		return n.FQN
	}
	return n.ElementID
}

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	return t
}

// RenderReport prints a validation report as a table followed by a summary line.
func RenderReport(w io.Writer, r *rules.Report) {
	t := newTable(w)
	t.AppendHeader(table.Row{"RULE", "STATUS", "DURATION", "MESSAGE"})
	for _, res := range r.Results {
		status := text.FgGreen.Sprint("PASS")
		if !res.Passed {
			status = text.FgRed.Sprint("FAIL")
		}
		t.AppendRow(table.Row{res.RuleName, status, res.Duration.String(), res.Message})
	}
	for _, name := range r.Skipped {
		t.AppendRow(table.Row{name, text.FgYellow.Sprint("SKIP"), "-", ""})
	}
	t.Render()

	icon := "✅"
	if !r.OK() {
		icon = "❌"
	}
	fmt.Fprintf(w, "%s passed: %d, failed: %d, skipped: %d (%s)\n", icon, r.Passed, r.Failed, len(r.Skipped), r.Duration)
}

// RenderStats prints graph statistics.
func RenderStats(w io.Writer, st graph.Stats) {
	t := newTable(w)
	t.AppendHeader(table.Row{"METRIC", "VALUE"})
	t.AppendRows([]table.Row{
		{"Elements", st.TotalElements},
		{"Dependencies", st.TotalDependencies},
		{"With dependencies", st.ElementsWithDependencies},
		{"Without dependencies", st.ElementsWithoutDependencies},
		{"Max depth", st.MaxDepth},
		{"Average dependencies", fmt.Sprintf("%.2f", st.AverageDependencies)},
	})
	t.Render()

	renderCounts(w, "NAMESPACE", st.CountByNamespace)
	renderCounts(w, "KIND", st.CountByKind)
}

func renderCounts(w io.Writer, header string, counts map[string]int) {
	if len(counts) == 0 {
		return
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	t := newTable(w)
	t.AppendHeader(table.Row{header, "COUNT"})
	for _, k := range keys {
		t.AppendRow(table.Row{k, counts[k]})
	}
	t.Render()
}

// RenderLayers prints dependency layers, layer 0 first. name maps ids for display.
func RenderLayers(w io.Writer, layers [][]string, name func(string) string) {
	if name == nil {
		name = func(id string) string { return id }
	}
	t := newTable(w)
	t.AppendHeader(table.Row{"LAYER", "ELEMENTS"})
	for i, layer := range layers {
		names := make([]string, len(layer))
		for j, id := range layer {
			names[j] = name(id)
		}
		t.AppendRow(table.Row{i, strings.Join(names, ", ")})
	}
	t.Render()
}

// RenderHotspots prints the most depended-on elements.
func RenderHotspots(w io.Writer, spots []storage.Hotspot) {
	t := newTable(w)
	t.AppendHeader(table.Row{"ELEMENT", "KIND", "DIRECT", "TRANSITIVE", "RISK"})
	for _, h := range spots {
		t.AppendRow(table.Row{NodeName(h.Node), h.Node.Kind.String(), h.DirectCount, h.TransitiveCount, riskColor(h.RiskLevel)})
	}
	t.Render()
}

func riskColor(level string) string {
	switch level {
	case storage.RiskHigh:
		return text.FgRed.Sprint(level)
	case storage.RiskMedium:
		return text.FgYellow.Sprint(level)
	default:
		return level
	}
}

// RenderRuns prints stored validation runs.
func RenderRuns(w io.Writer, runs []storage.RunSummary) {
	t := newTable(w)
	t.AppendHeader(table.Row{"RUN", "STARTED", "SOURCE", "PASSED", "FAILED", "SKIPPED"})
	for _, r := range runs {
		t.AppendRow(table.Row{r.RunID, r.StartedAt.Local().Format("2006-01-02 15:04:05"), r.Source, r.Passed, r.Failed, r.Skipped})
	}
	t.Render()
}

// FormatPath renders a dependency path as "A → B → C".
func FormatPath(path []string) string {
	return strings.Join(path, " → ")
}

// CalcTreeMaxWidth calculates the maximum name width and depth for alignment in the dependency tree.
func CalcTreeMaxWidth(tree []*storage.TreeNode, maxWidth *int, currentDepth int, maxDepth *int) {
	if currentDepth > *maxDepth {
		*maxDepth = currentDepth
	}
	for _, node := range tree {
		w := len(NodeName(node.Node))
		if w > *maxWidth {
			*maxWidth = w
		}
		if len(node.Children) > 0 {
			CalcTreeMaxWidth(node.Children, maxWidth, currentDepth+1, maxDepth)
		}
	}
}

// FormatTree renders a dependency tree as a string with box-drawing characters.
func FormatTree(tree []*storage.TreeNode, indent string, maxWidth int, maxDepth int, currentDepth int) string {
	var sb strings.Builder
	for i, node := range tree {
		isLast := i == len(tree)-1
		prefix := "├──"
		if isLast {
			prefix = "└──"
		}

		padding := maxWidth + (maxDepth-currentDepth)*4
		sb.WriteString(fmt.Sprintf("%s%s %-*s  %s\n", indent, prefix, padding, NodeName(node.Node), node.Node.Kind))

		if len(node.Children) > 0 {
			childIndent := indent + "│   "
			if isLast {
				childIndent = indent + "    "
			}
			sb.WriteString(FormatTree(node.Children, childIndent, maxWidth, maxDepth, currentDepth+1))
		}
	}
	return sb.String()
}
