package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/ettle/strcase"
	"gopkg.in/yaml.v3"

	dashboard "github.com/goliatone/go-retail-dashboard/components/dashboard"
)

type catalogCmd struct {
	Scaffold scaffoldCmd `cmd:"" help:"Scaffold a widget definition, provider stub, and manifest entry."`
}

type scaffoldCmd struct {
	Code           string   `required:"" help:"Widget code in kebab case (e.g. sales-by-brand-chart)."`
	Name           string   `required:"" help:"Display name for the widget."`
	Description    string   `help:"One-line description used in manifests."`
	Kind           string   `default:"chart" enum:"metric,chart,table,map" help:"Widget kind."`
	Category       string   `help:"Product category that gates access (empty for everyone)."`
	Page           []string `default:"performance" help:"Pages the widget can appear on (repeatable)."`
	Wide           bool     `help:"Span the full grid width."`
	Height         int      `default:"4" help:"Grid rows."`
	Visualization  []string `help:"Supported visualizations; the first is the default."`
	ManifestPath   string   `required:"" type:"path" help:"Path to the widget manifest YAML file to update."`
	SchemaPath     string   `type:"path" help:"Optional path to a JSON schema file for the widget configuration."`
	Tag            []string `help:"Optional tags to include in the manifest."`
	Maintainer     []string `help:"Maintainers to record in the manifest."`
	ProviderOut    string   `help:"File path for the generated provider stub (defaults to components/dashboard/<code>_provider.go)."`
	Overwrite      bool     `help:"Overwrite existing provider stub / manifest entry if present."`
	SkipProvider   bool     `name:"skip-provider" help:"Skip provider stub generation."`
	ProviderModule string   `default:"github.com/goliatone/go-retail-dashboard/components/dashboard" help:"Go package where the provider factory lives."`

	out io.Writer
}

func (cmd *scaffoldCmd) Run(_ context.Context) error {
	out := cmd.out
	if out == nil {
		out = os.Stdout
	}
	entry, err := cmd.entry()
	if err != nil {
		return err
	}
	manifestPath, err := filepath.Abs(cmd.ManifestPath)
	if err != nil {
		return fmt.Errorf("dashctl: resolve manifest path: %w", err)
	}
	doc, err := loadOrInitManifest(manifestPath)
	if err != nil {
		return err
	}
	idx := slices.IndexFunc(doc.Widgets, func(w dashboard.ManifestWidget) bool {
		return w.Definition.Code == cmd.Code
	})
	switch {
	case idx >= 0 && !cmd.Overwrite:
		return fmt.Errorf("dashctl: manifest already defines widget %s (use --overwrite to replace)", cmd.Code)
	case idx >= 0:
		doc.Widgets[idx] = entry
	default:
		doc.Widgets = append(doc.Widgets, entry)
	}
	sort.Slice(doc.Widgets, func(i, j int) bool {
		return doc.Widgets[i].Definition.Code < doc.Widgets[j].Definition.Code
	})
	if err := writeManifest(manifestPath, doc); err != nil {
		return err
	}

	if cmd.SkipProvider {
		fmt.Fprintf(out, "✓ Added %s to %s (provider entry recorded as %s)\n", cmd.Code, manifestPath, entry.Provider.Entry)
		return nil
	}
	providerPath := cmd.ProviderOut
	if providerPath == "" {
		providerPath = filepath.Join("components", "dashboard", strcase.ToSnake(cmd.Code)+"_provider.go")
	}
	if err := writeProviderStub(providerPath, providerTypeName(cmd.Code), cmd.Code, cmd.Overwrite); err != nil {
		return err
	}
	fmt.Fprintf(out, "✓ Added %s to %s and generated %s\n", cmd.Code, manifestPath, providerPath)
	return nil
}

func (cmd *scaffoldCmd) entry() (dashboard.ManifestWidget, error) {
	if cmd.Code == "" || strcase.ToKebab(cmd.Code) != cmd.Code {
		return dashboard.ManifestWidget{}, fmt.Errorf("dashctl: widget code %q must be kebab case", cmd.Code)
	}
	pages := make([]dashboard.Page, 0, len(cmd.Page))
	for _, raw := range cmd.Page {
		page, err := parsePage(raw)
		if err != nil {
			return dashboard.ManifestWidget{}, err
		}
		pages = append(pages, page)
	}
	schema, err := cmd.loadSchema()
	if err != nil {
		return dashboard.ManifestWidget{}, err
	}
	providerType := providerTypeName(cmd.Code)
	def := dashboard.WidgetDefinition{
		Code:           cmd.Code,
		Name:           cmd.Name,
		Description:    cmd.Description,
		Kind:           cmd.Kind,
		Category:       cmd.Category,
		Pages:          pages,
		Wide:           cmd.Wide,
		Height:         cmd.Height,
		Visualizations: cmd.Visualization,
		Schema:         schema,
	}
	if len(cmd.Visualization) > 0 {
		def.DefaultVisualization = cmd.Visualization[0]
	}
	return dashboard.ManifestWidget{
		Definition: def,
		Provider: dashboard.ManifestProvider{
			Name:    cmd.Name + " Provider",
			Summary: cmd.Description,
			Entry:   fmt.Sprintf("%s.New%s", cmd.ProviderModule, providerType),
			Package: cmd.ProviderModule,
		},
		Maintainers: cmd.Maintainer,
		Tags:        cmd.Tag,
	}, nil
}

func (cmd *scaffoldCmd) loadSchema() (map[string]any, error) {
	if cmd.SchemaPath == "" {
		return map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		}, nil
	}
	data, err := os.ReadFile(cmd.SchemaPath)
	if err != nil {
		return nil, fmt.Errorf("dashctl: read schema file: %w", err)
	}
	var schema map[string]any
	if err := json.Unmarshal(data, &schema); err != nil {
		return nil, fmt.Errorf("dashctl: parse schema JSON: %w", err)
	}
	return schema, nil
}

func loadOrInitManifest(path string) (*dashboard.WidgetManifestDocument, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &dashboard.WidgetManifestDocument{
				Version: dashboard.ManifestVersion,
				Widgets: []dashboard.ManifestWidget{},
				Source:  path,
			}, nil
		}
		return nil, fmt.Errorf("dashctl: stat manifest: %w", err)
	}
	return dashboard.ReadManifest(path)
}

func writeManifest(path string, doc *dashboard.WidgetManifestDocument) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("dashctl: mkdir %s: %w", filepath.Dir(path), err)
	}
	file, err := os.Create(path) //nolint:gosec
	if err != nil {
		return fmt.Errorf("dashctl: create manifest %s: %w", path, err)
	}
	defer file.Close()

	encoder := yaml.NewEncoder(file)
	encoder.SetIndent(2)
	if err := encoder.Encode(doc); err != nil {
		return fmt.Errorf("dashctl: write manifest: %w", err)
	}
	return encoder.Close()
}

func writeProviderStub(path, providerType, code string, overwrite bool) error {
	if _, err := os.Stat(path); err == nil && !overwrite {
		return fmt.Errorf("dashctl: provider stub %s already exists (use --overwrite or --provider-out)", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("dashctl: mkdir provider dir: %w", err)
	}
	content := fmt.Sprintf(`package dashboard

import (
	"context"
)

// %[1]s fetches data for the %[2]s widget.
type %[1]s struct {
	source RetailSource
}

// New%[1]s wires the provider into the dashboard registry.
func New%[1]s(source RetailSource) Provider {
	return &%[1]s{source: source}
}

// Fetch retrieves the widget payload.
func (p *%[1]s) Fetch(ctx context.Context, meta WidgetContext) (WidgetData, error) {
	return WidgetData{
		"widget": meta.Instance.ID,
	}, nil
}
`, providerType, code)

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("dashctl: write provider stub: %w", err)
	}
	return nil
}

func providerTypeName(code string) string {
	name := strcase.ToPascal(code)
	if !strings.HasSuffix(name, "Provider") {
		name += "Provider"
	}
	return name
}
