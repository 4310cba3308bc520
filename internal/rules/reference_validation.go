package rules

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/zheng/schemagraph/internal/schema"
)

const ReferenceValidationName = "reference-validation"

var referencePattern = regexp.MustCompile(`(?i)<edmx:Reference\s+Uri\s*=\s*["']([^"']+)["'][^>]*>`)

// ReferenceValidationRule checks that local external references point at
// readable files.
type ReferenceValidationRule struct {
	structural
}

// NewReferenceValidationRule creates the reference-validation rule
func NewReferenceValidationRule() *ReferenceValidationRule {
	return &ReferenceValidationRule{structural{
		name:        ReferenceValidationName,
		description: "Validates external references in OData schema files",
		estimate:    200,
		applicable: func(ctx *Context, _ *Config) bool {
			for _, d := range ctx.Documents() {
				if d.Raw != "" || d.Path != "" || len(d.References) > 0 {
					return true
				}
			}
			return false
		},
	}}
}

func (r *ReferenceValidationRule) Validate(ctx *Context, _ *Config) Result {
	start := time.Now()
	for _, doc := range ctx.Documents() {
		for _, uri := range referencedURIs(doc) {
			if msg := checkReference(doc.Path, uri); msg != "" {
				return r.fail(start, msg)
			}
		}
	}
	return r.pass(start)
}

// referencedURIs lists the reference URIs found in the raw text, then the
// ones from parsed references not already seen.
func referencedURIs(doc *schema.Document) []string {
	var uris []string
	seen := make(map[string]bool)
	if content, ok := documentContent(doc); ok {
		for _, m := range referencePattern.FindAllStringSubmatch(content, -1) {
			if !seen[m[1]] {
				seen[m[1]] = true
				uris = append(uris, m[1])
			}
		}
	}
	for _, ref := range doc.References {
		if ref.URI != "" && !seen[ref.URI] {
			seen[ref.URI] = true
			uris = append(uris, ref.URI)
		}
	}
	return uris
}

func checkReference(docPath, uri string) string {
	if strings.HasPrefix(uri, "http://") || strings.HasPrefix(uri, "https://") {
		return ""
	}
	if docPath == "" {
		return ""
	}

	target := uri
	if !filepath.IsAbs(uri) {
		target = filepath.Join(filepath.Dir(docPath), uri)
	}
	if _, err := os.Stat(target); err != nil {
		return fmt.Sprintf("Referenced file does not exist: %s", uri)
	}
	f, err := os.Open(target)
	if err != nil {
		return fmt.Sprintf("Referenced file is not readable: %s", uri)
	}
	f.Close()
	return ""
}
