package commands

import (
	"context"
	"errors"
	"fmt"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/goliatone/go-retail-dashboard/components/dashboard"
)

// LoadManifestsInput lists widget manifest files to register.
type LoadManifestsInput struct {
	Paths []string

	// Loaded receives the codes of the registered widgets.
	Loaded *[]string
}

type manifestLoader interface {
	LoadManifestFile(path string) (*dashboard.WidgetManifestDocument, error)
}

// LoadManifestsCommand registers extra widget definitions from manifest
// files. Files are loaded in order; the first failure stops the run.
type LoadManifestsCommand struct {
	registry  manifestLoader
	telemetry Telemetry
}

// NewLoadManifestsCommand wires dependencies.
func NewLoadManifestsCommand(registry manifestLoader, telemetry Telemetry) *LoadManifestsCommand {
	return &LoadManifestsCommand{registry: registry, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[LoadManifestsInput] = (*LoadManifestsCommand)(nil)

// Execute loads every manifest.
func (c *LoadManifestsCommand) Execute(ctx context.Context, msg LoadManifestsInput) error {
	if c.registry == nil {
		return errors.New("manifest command requires registry")
	}
	var codes []string
	for _, path := range msg.Paths {
		doc, err := c.registry.LoadManifestFile(path)
		if err != nil {
			return fmt.Errorf("load manifest %s: %w", path, err)
		}
		for _, widget := range doc.Widgets {
			codes = append(codes, widget.Definition.Code)
		}
	}
	if msg.Loaded != nil {
		*msg.Loaded = codes
	}
	c.telemetry.Record(ctx, "dashboard.manifest.load", map[string]any{
		"files":   len(msg.Paths),
		"widgets": len(codes),
	})
	return nil
}
