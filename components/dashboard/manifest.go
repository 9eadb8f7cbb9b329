package dashboard

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	manifestVersionV1 = "1"
	// ManifestVersion exposes the current manifest format version for tooling.
	ManifestVersion = manifestVersionV1
)

// WidgetManifestDocument models a YAML/JSON manifest describing widget types.
type WidgetManifestDocument struct {
	Version  string           `json:"version" yaml:"version"`
	Name     string           `json:"name,omitempty" yaml:"name,omitempty"`
	Package  string           `json:"package,omitempty" yaml:"package,omitempty"`
	Homepage string           `json:"homepage,omitempty" yaml:"homepage,omitempty"`
	Widgets  []ManifestWidget `json:"widgets" yaml:"widgets"`
	Source   string           `json:"-" yaml:"-"`
}

// ManifestWidget describes a single widget type entry within a manifest.
type ManifestWidget struct {
	Widget      WidgetMetadata `json:"widget" yaml:"widget"`
	DocsURL     string         `json:"docs_url,omitempty" yaml:"docs_url,omitempty"`
	Maintainers []string       `json:"maintainers,omitempty" yaml:"maintainers,omitempty"`
	Tags        []string       `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// ManifestSource records where a manifest-registered widget type came from.
type ManifestSource struct {
	Manifest    string
	Package     string
	DocsURL     string
	Maintainers []string
}

// LoadManifestFile reads a manifest from disk, registers it against the registry, and returns the document.
func (r *Registry) LoadManifestFile(path string) (*WidgetManifestDocument, error) {
	doc, err := ReadManifest(path)
	if err != nil {
		return nil, err
	}
	if err := r.LoadManifestDocument(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// LoadManifestDocument registers widget metadata from a decoded manifest.
func (r *Registry) LoadManifestDocument(doc *WidgetManifestDocument) error {
	if doc == nil {
		return fmt.Errorf("dashboard: manifest document is nil")
	}
	for _, widget := range doc.Widgets {
		if err := r.Register(widget.Widget); err != nil {
			return fmt.Errorf("dashboard: register widget %s from %s: %w", widget.Widget.Type, doc.Source, err)
		}
		r.recordManifestSource(widget.Widget.Type, ManifestSource{
			Manifest:    doc.Source,
			Package:     doc.Package,
			DocsURL:     widget.DocsURL,
			Maintainers: widget.Maintainers,
		})
	}
	return nil
}

// ReadManifest loads a manifest file from disk without registering it.
func ReadManifest(path string) (*WidgetManifestDocument, error) {
	f, err := os.Open(path) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("dashboard: open manifest %s: %w", path, err)
	}
	defer f.Close()
	doc, err := DecodeManifest(f)
	if err != nil {
		return nil, fmt.Errorf("dashboard: decode manifest %s: %w", path, err)
	}
	doc.Source = path
	return doc, nil
}

// DecodeManifest reads a manifest from any reader.
func DecodeManifest(r io.Reader) (*WidgetManifestDocument, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	var doc WidgetManifestDocument
	if err := decoder.Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("dashboard: manifest is empty")
		}
		return nil, fmt.Errorf("dashboard: parse manifest: %w", err)
	}
	doc.applyDefaults()
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Validate ensures the manifest satisfies required fields.
func (doc *WidgetManifestDocument) Validate() error {
	if doc.Version != manifestVersionV1 {
		return fmt.Errorf("dashboard: unsupported manifest version %q", doc.Version)
	}
	seen := make(map[string]struct{}, len(doc.Widgets))
	for idx, widget := range doc.Widgets {
		if widget.Widget.Type == "" {
			return fmt.Errorf("dashboard: manifest widget at index %d is missing widget.type", idx)
		}
		if widget.Widget.Name == "" {
			return fmt.Errorf("dashboard: manifest widget %s missing widget.name", widget.Widget.Type)
		}
		if widget.Widget.DefaultSize.W <= 0 || widget.Widget.DefaultSize.H <= 0 {
			return fmt.Errorf("dashboard: manifest widget %s missing widget.default_size", widget.Widget.Type)
		}
		if _, exists := seen[widget.Widget.Type]; exists {
			return fmt.Errorf("dashboard: manifest duplicates widget type %s", widget.Widget.Type)
		}
		seen[widget.Widget.Type] = struct{}{}
	}
	return nil
}

func (doc *WidgetManifestDocument) applyDefaults() {
	if doc.Version == "" {
		doc.Version = manifestVersionV1
	}
}

func (s ManifestSource) isZero() bool {
	return s.Manifest == "" &&
		s.Package == "" &&
		s.DocsURL == "" &&
		len(s.Maintainers) == 0
}
