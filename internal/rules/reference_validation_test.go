package rules

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zheng/schemagraph/internal/schema"
)

func TestReferenceValidation(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "common.xml"), []byte("<edmx:Edmx/>"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "shared"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "shared", "geo.xml"), []byte("<edmx:Edmx/>"), 0o644))
	main := filepath.Join(dir, "main.xml")

	tests := []struct {
		name string
		doc  *schema.Document
		want string
	}{
		{
			name: "remote references are accepted",
			doc:  &schema.Document{Path: main, Raw: `<edmx:Reference Uri="https://example.com/$metadata"/><edmx:Reference Uri="http://example.com/x.xml"/>`},
		},
		{
			name: "relative reference exists",
			doc:  &schema.Document{Path: main, Raw: `<edmx:Reference Uri="common.xml"><edmx:Include Namespace="Common"/></edmx:Reference>`},
		},
		{
			name: "nested relative reference exists",
			doc:  &schema.Document{Path: main, Raw: `<EDMX:REFERENCE URI='shared/geo.xml'/>`},
		},
		{
			name: "relative reference missing",
			doc:  &schema.Document{Path: main, Raw: `<edmx:Reference Uri="common.xml"/><edmx:Reference Uri="missing.xml"/>`},
			want: "Referenced file does not exist: missing.xml",
		},
		{
			name: "structured reference missing",
			doc: &schema.Document{
				Path:       filepath.Join(dir, "main.yaml"),
				References: []schema.Reference{{URI: "gone.yaml"}},
			},
			want: "Referenced file does not exist: gone.yaml",
		},
		{
			name: "no path means relative references cannot be checked",
			doc:  &schema.Document{Raw: `<edmx:Reference Uri="missing.xml"/>`},
		},
		{
			name: "directory path reads as no content",
			doc:  &schema.Document{Path: dir},
		},
		{
			name: "unreadable path reads as no content",
			doc:  &schema.Document{Path: filepath.Join(dir, "absent.xml")},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := NewContext(schema.NewSet(tt.doc))
			rule := NewReferenceValidationRule()
			require.True(t, rule.IsApplicable(ctx, DefaultConfig()))

			res := rule.Validate(ctx, DefaultConfig())
			if tt.want == "" {
				assert.True(t, res.Passed, res.Message)
				return
			}
			assert.False(t, res.Passed)
			assert.Equal(t, tt.want, res.Message)
		})
	}
}

func TestReferenceValidationNotApplicableWithoutSource(t *testing.T) {
	ctx := NewContext(schema.FromSchemas(&schema.Schema{Namespace: "NS"}))
	assert.False(t, NewReferenceValidationRule().IsApplicable(ctx, DefaultConfig()))
}
