// Package config loads service configuration documents written in YAML or
// HCL into the raw service map and scalar table a chassis.Resolver takes.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/refinery29/chassis"
)

// ErrUnsupportedFormat is returned for files that are neither YAML nor HCL.
var ErrUnsupportedFormat = errors.New("unsupported configuration format")

// Document is one parsed configuration file. Services holds raw descriptors
// keyed by service name; they are decoded by Config.
type Document struct {
	Services   map[string]any
	Parameters chassis.Scalars
	Path       string
}

func newDocument() *Document {
	return &Document{
		Services:   map[string]any{},
		Parameters: chassis.Scalars{},
	}
}

// Config decodes the service descriptors.
func (d *Document) Config() (chassis.Config, error) {
	cfg, err := chassis.DecodeConfig(d.Services)
	if err != nil && d.Path != "" {
		return nil, fmt.Errorf("config: %s: %w", d.Path, err)
	}
	return cfg, err
}

// Resolver decodes the document and builds a resolver over catalog.
func (d *Document) Resolver(catalog *chassis.Catalog, opts ...chassis.ResolverOption) (*chassis.Resolver, error) {
	cfg, err := d.Config()
	if err != nil {
		return nil, err
	}
	return chassis.NewResolver(catalog, cfg, d.Parameters, opts...), nil
}

// Merge adds the services and parameters of other. A service name defined
// in both is an error; a parameter in other overrides the existing one.
func (d *Document) Merge(other *Document) error {
	for _, name := range sortedKeys(other.Services) {
		if _, exists := d.Services[name]; exists {
			return fmt.Errorf("config: %s: %w", other.Path, chassis.AlreadyRegisteredError{Name: name})
		}
		d.Services[name] = other.Services[name]
	}
	for name, value := range other.Parameters {
		d.Parameters[name] = value
	}
	return nil
}

// Load reads a configuration file, choosing the parser by extension:
// .yml and .yaml for YAML, .hcl for HCL.
func Load(path string) (*Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("config: stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("config: %s is a directory", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var doc *Document
	switch {
	case isYAMLFile(path):
		doc, err = ParseYAML(data)
	case isHCLFile(path):
		doc, err = ParseHCL(data, path)
	default:
		return nil, fmt.Errorf("config: %s: %w", path, ErrUnsupportedFormat)
	}
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	doc.Path = filepath.Clean(path)
	return doc, nil
}

// LoadDir loads every YAML and HCL file in dir, in name order, and merges
// them into one document. A missing directory yields an empty document.
func LoadDir(dir string) (*Document, error) {
	merged := newDocument()
	merged.Path = filepath.Clean(dir)

	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return merged, nil
		}
		return nil, fmt.Errorf("config: read %s: %w", dir, err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if name := entry.Name(); isYAMLFile(name) || isHCLFile(name) {
			paths = append(paths, filepath.Join(dir, name))
		}
	}
	sort.Strings(paths)

	for _, path := range paths {
		doc, err := Load(path)
		if err != nil {
			return nil, err
		}
		if err := merged.Merge(doc); err != nil {
			return nil, err
		}
	}
	return merged, nil
}

func isYAMLFile(name string) bool {
	lower := strings.ToLower(strings.TrimSpace(name))
	return strings.HasSuffix(lower, ".yaml") || strings.HasSuffix(lower, ".yml")
}

func isHCLFile(name string) bool {
	return strings.HasSuffix(strings.ToLower(strings.TrimSpace(name)), ".hcl")
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
