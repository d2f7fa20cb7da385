package dashboard

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// ManifestVersion is the only catalog manifest format dashctl reads and writes.
const ManifestVersion = "1"

// ErrInvalidManifest is wrapped by every structural problem found in a
// catalog manifest.
var ErrInvalidManifest = errors.New("dashboard: invalid manifest")

// WidgetManifestDocument is a catalog extension file. It adds widget
// definitions to the built-in retail catalog.
type WidgetManifestDocument struct {
	Version  string           `json:"version" yaml:"version"`
	Name     string           `json:"name,omitempty" yaml:"name,omitempty"`
	Package  string           `json:"package,omitempty" yaml:"package,omitempty"`
	Homepage string           `json:"homepage,omitempty" yaml:"homepage,omitempty"`
	Widgets  []ManifestWidget `json:"widgets" yaml:"widgets"`
	Source   string           `json:"-" yaml:"-"`
}

// ManifestWidget is one catalog entry.
type ManifestWidget struct {
	Definition  WidgetDefinition `json:"definition" yaml:"definition"`
	Provider    ManifestProvider `json:"provider,omitempty" yaml:"provider,omitempty"`
	Maintainers []string         `json:"maintainers,omitempty" yaml:"maintainers,omitempty"`
	Tags        []string         `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// ManifestProvider documents where the data for a catalog entry comes from.
type ManifestProvider struct {
	Name         string   `json:"name,omitempty" yaml:"name,omitempty"`
	Summary      string   `json:"summary,omitempty" yaml:"summary,omitempty"`
	Entry        string   `json:"entry,omitempty" yaml:"entry,omitempty"`
	Package      string   `json:"package,omitempty" yaml:"package,omitempty"`
	DocsURL      string   `json:"docs_url,omitempty" yaml:"docs_url,omitempty"`
	Capabilities []string `json:"capabilities,omitempty" yaml:"capabilities,omitempty"`
	Channel      string   `json:"channel,omitempty" yaml:"channel,omitempty"`
}

// LoadManifestFile reads path and adds its widgets to the catalog.
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

// LoadManifestDocument registers every widget of doc. Chart entries that
// carry their own series are bound to a go-echarts provider.
func (r *Registry) LoadManifestDocument(doc *WidgetManifestDocument) error {
	if doc == nil {
		return fmt.Errorf("%w: nil document", ErrInvalidManifest)
	}
	for _, widget := range doc.Widgets {
		if err := r.RegisterDefinition(widget.Definition); err != nil {
			return fmt.Errorf("dashboard: catalog %s: widget %s: %w", doc.sourceName(), widget.Definition.Code, err)
		}
		r.recordProviderMetadata(widget.Definition.Code, widget.Provider)
	}
	return r.bindConfigCharts()
}

// ReadManifest decodes the manifest at path without touching any registry.
func ReadManifest(path string) (*WidgetManifestDocument, error) {
	f, err := os.Open(path) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("dashboard: open catalog %s: %w", path, err)
	}
	defer f.Close()

	doc, err := DecodeManifest(f)
	if err != nil {
		return nil, fmt.Errorf("dashboard: catalog %s: %w", path, err)
	}
	doc.Source = path
	return doc, nil
}

// DecodeManifest parses a YAML (or JSON) manifest. Unknown keys are errors.
func DecodeManifest(r io.Reader) (*WidgetManifestDocument, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc WidgetManifestDocument
	switch err := dec.Decode(&doc); {
	case errors.Is(err, io.EOF):
		return nil, fmt.Errorf("%w: empty document", ErrInvalidManifest)
	case err != nil:
		return nil, fmt.Errorf("%w: %w", ErrInvalidManifest, err)
	}
	if doc.Version == "" {
		doc.Version = ManifestVersion
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Validate checks the catalog rules: unique codes, known kinds and pages,
// and a default visualization that is one of the listed ones.
func (doc *WidgetManifestDocument) Validate() error {
	if doc.Version != ManifestVersion {
		return fmt.Errorf("%w: unsupported version %q", ErrInvalidManifest, doc.Version)
	}
	seen := make(map[string]bool, len(doc.Widgets))
	for i, widget := range doc.Widgets {
		def := widget.Definition
		switch {
		case def.Code == "":
			return fmt.Errorf("%w: widget %d has no code", ErrInvalidManifest, i)
		case def.Name == "":
			return fmt.Errorf("%w: widget %s has no name", ErrInvalidManifest, def.Code)
		case seen[def.Code]:
			return fmt.Errorf("%w: duplicates widget code %s", ErrInvalidManifest, def.Code)
		}
		seen[def.Code] = true

		if def.Kind != "" && !slices.Contains(widgetKinds, def.Kind) {
			return fmt.Errorf("%w: widget %s has unknown kind %q", ErrInvalidManifest, def.Code, def.Kind)
		}
		for _, page := range def.Pages {
			if !page.Valid() {
				return fmt.Errorf("%w: widget %s targets unknown page %q", ErrInvalidManifest, def.Code, page)
			}
		}
		if def.DefaultVisualization != "" && len(def.Visualizations) > 0 &&
			!slices.Contains(def.Visualizations, def.DefaultVisualization) {
			return fmt.Errorf("%w: widget %s defaults to unlisted visualization %q", ErrInvalidManifest, def.Code, def.DefaultVisualization)
		}
	}
	return nil
}

func (doc *WidgetManifestDocument) sourceName() string {
	if doc.Source == "" {
		return "<inline>"
	}
	return doc.Source
}

var widgetKinds = []string{KindMetric, KindChart, KindTable, KindMap}

func (p ManifestProvider) isZero() bool {
	return p.Name == "" && p.Summary == "" && p.Entry == "" && p.Package == "" &&
		p.DocsURL == "" && p.Channel == "" && len(p.Capabilities) == 0
}
