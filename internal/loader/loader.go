package loader

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/tools/txtar"
	"gopkg.in/yaml.v3"
	k8syaml "sigs.k8s.io/yaml"

	"github.com/zheng/schemagraph/internal/schema"
	"github.com/zheng/schemagraph/pkg/logging"
)

const (
	subsystem = "loader"

	// DefaultMaxFileSize matches the validation default of 10MB.
	DefaultMaxFileSize int64 = 10 * 1024 * 1024
)

// ErrFileTooLarge is wrapped by LoadError for files over the size limit.
var ErrFileTooLarge = errors.New("file exceeds size limit")

// Loader reads schema documents from disk.
type Loader struct {
	maxFileSize int64
}

// Option configures a Loader
type Option func(*Loader)

// WithMaxFileSize rejects files larger than n bytes. Zero or less disables
// the limit.
func WithMaxFileSize(n int64) Option {
	return func(l *Loader) {
		l.maxFileSize = n
	}
}

// New creates a loader
func New(opts ...Option) *Loader {
	l := &Loader{maxFileSize: DefaultMaxFileSize}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LoadPath loads a single file, or every schema file under a directory in
// lexical order. Hidden directories are skipped.
func (l *Loader) LoadPath(path string) ([]*schema.Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if !info.IsDir() {
		return l.LoadFile(path)
	}

	files, err := SchemaFiles(path)
	if err != nil {
		return nil, err
	}
	docs, err := l.LoadFiles(files)
	if err != nil {
		return nil, err
	}
	logging.Debug(subsystem, "loaded %d documents from %d files under %s", len(docs), len(files), path)
	return docs, nil
}

// LoadFiles loads the given files in order.
func (l *Loader) LoadFiles(paths []string) ([]*schema.Document, error) {
	var docs []*schema.Document
	for _, p := range paths {
		d, err := l.LoadFile(p)
		if err != nil {
			return nil, err
		}
		docs = append(docs, d...)
	}
	return docs, nil
}

// SchemaFiles lists the schema files under dir in lexical order.
func SchemaFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if IsSchemaFile(p) {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", dir, err)
	}
	sort.Strings(files)
	return files, nil
}

// LoadFile loads one file. A txtar archive yields one document per member.
func (l *Loader) LoadFile(path string) ([]*schema.Document, error) {
	format, ok := FormatOf(path)
	if !ok {
		return nil, &LoadError{Path: path, Err: fmt.Errorf("unsupported extension %q", filepath.Ext(path))}
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, &LoadError{Path: path, Format: format, Err: err}
	}
	if l.maxFileSize > 0 && info.Size() > l.maxFileSize {
		return nil, &LoadError{Path: path, Format: format, Err: fmt.Errorf("%w: %d > %d bytes", ErrFileTooLarge, info.Size(), l.maxFileSize)}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Format: format, Err: err}
	}
	return Parse(path, data)
}

// Parse decodes data as the format implied by path.
func Parse(path string, data []byte) ([]*schema.Document, error) {
	format, ok := FormatOf(path)
	if !ok {
		return nil, &LoadError{Path: path, Err: fmt.Errorf("unsupported extension %q", filepath.Ext(path))}
	}
	if format == FormatTxtar {
		return parseArchive(path, data)
	}
	doc, err := parseDocument(path, format, data)
	if err != nil {
		return nil, err
	}
	return []*schema.Document{doc}, nil
}

func parseDocument(path string, format Format, data []byte) (*schema.Document, error) {
	doc := &schema.Document{}
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, doc); err != nil {
			return nil, &LoadError{Path: path, Format: format, Err: err}
		}
	case FormatJSON:
		if err := k8syaml.Unmarshal(data, doc); err != nil {
			return nil, &LoadError{Path: path, Format: format, Err: err}
		}
	case FormatXML:
		refs, schemas, err := decodeEDMX(data)
		if err != nil {
			// Keep the text: the raw-text checks can still report on it.
			logging.Warn(subsystem, "could not decode %s as CSDL XML: %v", path, err)
			break
		}
		doc.References = refs
		doc.Schemas = schemas
	default:
		return nil, &LoadError{Path: path, Format: format, Err: fmt.Errorf("format cannot hold a single document")}
	}
	doc.Path = path
	doc.Raw = string(data)
	return doc, nil
}

// parseArchive decodes each member as if it sat next to the archive, so
// relative references resolve against the archive's directory.
func parseArchive(path string, data []byte) ([]*schema.Document, error) {
	ar := txtar.Parse(data)
	dir := filepath.Dir(path)

	var docs []*schema.Document
	for _, f := range ar.Files {
		format, ok := FormatOf(f.Name)
		if !ok || format == FormatTxtar {
			logging.Debug(subsystem, "skipping archive member %s in %s", f.Name, path)
			continue
		}
		doc, err := parseDocument(filepath.Join(dir, f.Name), format, bytes.TrimSpace(f.Data))
		if err != nil {
			return nil, fmt.Errorf("archive %s: %w", path, err)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}
