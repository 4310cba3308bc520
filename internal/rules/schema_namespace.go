package rules

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/zheng/schemagraph/internal/schema"
)

const SchemaNamespaceName = "schema-namespace"

var (
	rawNamespacePattern = regexp.MustCompile(`<Schema[^>]+Namespace\s*=\s*["']([^"']+)["'][^>]*>`)
	namespaceSymbols    = "!@#$%^&*()-+=[]{}|\\:;\"'<>,?/~`"
)

// SchemaNamespaceRule checks every schema namespace and registers the valid
// ones on the context.
type SchemaNamespaceRule struct {
	structural
}

// NewSchemaNamespaceRule creates the schema-namespace rule
func NewSchemaNamespaceRule() *SchemaNamespaceRule {
	return &SchemaNamespaceRule{structural{
		name:        SchemaNamespaceName,
		description: "Schema must have a valid namespace",
		estimate:    100,
		applicable: func(ctx *Context, _ *Config) bool {
			if len(ctx.Schemas()) > 0 {
				return true
			}
			for _, d := range ctx.Documents() {
				if d.Raw != "" || d.Path != "" {
					return true
				}
			}
			return false
		},
	}}
}

func (r *SchemaNamespaceRule) Validate(ctx *Context, _ *Config) Result {
	start := time.Now()
	for _, doc := range ctx.Documents() {
		var msg string
		if len(doc.Schemas) == 0 {
			msg = r.fromRaw(doc)
		} else {
			msg = r.fromSchemas(ctx, doc.Schemas)
		}
		if msg != "" {
			return r.fail(start, msg)
		}
	}
	return r.pass(start)
}

func (r *SchemaNamespaceRule) fromSchemas(ctx *Context, schemas []*schema.Schema) string {
	for _, sch := range schemas {
		if sch == nil {
			continue
		}
		if strings.TrimSpace(sch.Namespace) == "" {
			return "Schema must have a valid namespace"
		}
		if !validNamespace(sch.Namespace) {
			return "Invalid namespace format: " + sch.Namespace
		}
		ctx.AddCurrentNamespace(sch.Namespace)
		ctx.AddReferencedNamespace(sch.Namespace)
	}
	return ""
}

// fromRaw is the fallback for documents that produced no parsed schema.
func (r *SchemaNamespaceRule) fromRaw(doc *schema.Document) string {
	content, ok := documentContent(doc)
	if !ok {
		return "No XML content available for namespace validation"
	}
	m := rawNamespacePattern.FindStringSubmatch(content)
	if m == nil {
		return "Schema must have a valid namespace"
	}
	if !validNamespace(m[1]) {
		return fmt.Sprintf("Invalid namespace format: %s", m[1])
	}
	return ""
}

func validNamespace(ns string) bool {
	if strings.ContainsFunc(ns, unicode.IsSpace) {
		return false
	}
	if strings.HasPrefix(ns, ".") || strings.HasSuffix(ns, ".") || strings.Contains(ns, "..") {
		return false
	}
	if strings.ContainsAny(ns, namespaceSymbols) {
		return false
	}
	return ns != "" && !unicode.IsDigit(rune(ns[0]))
}

// documentContent returns the raw text of doc, reading it from disk when
// only a path is known. A read failure, including a directory path, counts
// as no content.
func documentContent(doc *schema.Document) (string, bool) {
	if doc.Raw != "" {
		return doc.Raw, true
	}
	if doc.Path == "" {
		return "", false
	}
	b, err := os.ReadFile(doc.Path)
	if err != nil {
		return "", false
	}
	return string(b), true
}
