package loader

import (
	"path/filepath"
	"strings"
)

// Format is a supported schema document encoding.
type Format string

const (
	FormatYAML  Format = "yaml"
	FormatJSON  Format = "json"
	FormatXML   Format = "xml"
	FormatTxtar Format = "txtar"
)

var extensions = map[string]Format{
	".yaml":  FormatYAML,
	".yml":   FormatYAML,
	".json":  FormatJSON,
	".xml":   FormatXML,
	".edmx":  FormatXML,
	".csdl":  FormatXML,
	".txtar": FormatTxtar,
}

// FormatOf returns the format implied by path's extension.
func FormatOf(path string) (Format, bool) {
	f, ok := extensions[strings.ToLower(filepath.Ext(path))]
	return f, ok
}

// IsSchemaFile reports whether path has a schema extension.
func IsSchemaFile(path string) bool {
	_, ok := FormatOf(path)
	return ok
}
