package export

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/template"
	"time"

	"github.com/Masterminds/sprig/v3"

	"github.com/zheng/schemagraph/internal/graph"
	"github.com/zheng/schemagraph/internal/storage"
)

var docTmpl = template.Must(template.New("export").Funcs(sprig.TxtFuncMap()).Parse(documentTemplate))

// Exporter generates Markdown documentation from the stored schema graph
type Exporter struct {
	db *storage.DB
}

// NewExporter creates a new exporter
func NewExporter(db *storage.DB) *Exporter {
	return &Exporter{db: db}
}

// ExportOptions configures the export behavior
type ExportOptions struct {
	IncludeMermaid bool
	ProjectName    string
	// Namespaces limits element sections and the diagram; empty means all.
	Namespaces []string
	Now        func() time.Time
}

// DefaultExportOptions returns default export options
func DefaultExportOptions() ExportOptions {
	return ExportOptions{
		IncludeMermaid: true,
		ProjectName:    "",
		Now:            time.Now,
	}
}

type document struct {
	ProjectName    string
	GeneratedAt    time.Time
	Stats          graph.Stats
	IncludeMermaid bool
	Namespaces     []namespaceSection
	Nodes          []mermaidNode
	Edges          []mermaidEdge
	Cycles         [][]string
}

type namespaceSection struct {
	Name     string
	Elements []elementRow
}

type elementRow struct {
	Name         string
	Kind         string
	Dependencies []string
	Dependents   []string
}

type mermaidNode struct {
	ID    string
	Label string
}

type mermaidEdge struct {
	From  string
	To    string
	Label string
}

// Export renders the stored graph
func (e *Exporter) Export(w io.Writer, opts ExportOptions) error {
	store, err := e.db.LoadStore()
	if err != nil {
		return fmt.Errorf("failed to load graph: %w", err)
	}
	return Render(w, store, opts)
}

// Render writes the Markdown document for store
func Render(w io.Writer, store *graph.Store, opts ExportOptions) error {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	doc := document{
		ProjectName:    opts.ProjectName,
		GeneratedAt:    opts.Now(),
		Stats:          store.Stats(),
		IncludeMermaid: opts.IncludeMermaid,
	}

	keep := func(string) bool { return true }
	if len(opts.Namespaces) > 0 {
		wanted := make(map[string]bool, len(opts.Namespaces))
		for _, ns := range opts.Namespaces {
			wanted[ns] = true
		}
		keep = func(ns string) bool { return wanted[ns] }
	}

	names := make(map[string]string)
	byNamespace := make(map[string][]elementRow)
	for _, n := range store.Nodes() {
		names[n.ElementID] = label(n)
	}
	for _, n := range store.Nodes() {
		if n.IsPlaceholder() || !keep(n.Namespace) {
			continue
		}
		row := elementRow{
			Name:         label(n),
			Kind:         n.Kind.String(),
			Dependencies: mapNames(names, store.DirectDependencies(n.ElementID)),
			Dependents:   mapNames(names, store.DirectDependents(n.ElementID)),
		}
		byNamespace[n.Namespace] = append(byNamespace[n.Namespace], row)
	}
	for _, ns := range sortedKeys(byNamespace) {
		rows := byNamespace[ns]
		sort.Slice(rows, func(i, j int) bool { return rows[i].Name < rows[j].Name })
		doc.Namespaces = append(doc.Namespaces, namespaceSection{Name: ns, Elements: rows})
	}

	seenNode := make(map[string]bool)
	addNode := func(id string) string {
		nodeID := makeNodeID(names[id])
		if !seenNode[nodeID] {
			seenNode[nodeID] = true
			doc.Nodes = append(doc.Nodes, mermaidNode{ID: nodeID, Label: names[id]})
		}
		return nodeID
	}
	seenEdge := make(map[string]bool)
	for _, edge := range store.Edges() {
		src, _ := store.Node(edge.Source)
		if !keep(src.Namespace) {
			continue
		}
		from, to := addNode(edge.Source), addNode(edge.Target)
		key := from + "->" + to + ":" + string(edge.Kind)
		if seenEdge[key] {
			continue
		}
		seenEdge[key] = true
		lbl := ""
		if edge.Kind != graph.EdgeKindReference {
			lbl = string(edge.Kind)
		}
		doc.Edges = append(doc.Edges, mermaidEdge{From: from, To: to, Label: lbl})
	}

	for _, c := range store.Cycles() {
		doc.Cycles = append(doc.Cycles, mapNames(names, c))
	}

	return docTmpl.Execute(w, doc)
}

func label(n graph.Node) string {
	if n.FQN != "" {
		return n.FQN
	}
	return n.ElementID
}

func mapNames(names map[string]string, ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if name, ok := names[id]; ok {
			out = append(out, name)
		} else {
			out = append(out, id)
		}
	}
	return out
}

func sortedKeys(m map[string][]elementRow) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func makeNodeID(name string) string {
	// Create a valid Mermaid node ID
	r := strings.NewReplacer(".", "_", "/", "__", "-", "_", " ", "_", "(", "", ")", "")
	return r.Replace(name)
}
