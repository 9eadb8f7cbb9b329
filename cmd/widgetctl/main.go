package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/alecthomas/kong"
	"github.com/ettle/strcase"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-homelab/components/dashboard"
	"github.com/goliatone/go-homelab/pkg/client"
	homelab "github.com/goliatone/go-homelab/pkg/dashboard"
)

type cli struct {
	Scaffold scaffoldCmd `cmd:"" help:"Add a widget type entry to a manifest."`
	Validate validateCmd `cmd:"" help:"Load manifests into a registry and report errors."`
	Mobile   mobileCmd   `cmd:"" help:"Print the generated mobile layout for a saved dashboard."`
}

type scaffoldCmd struct {
	Type                string   `help:"Widget type id in kebab-case (derived from --name when empty)."`
	Name                string   `required:"" help:"Display name for the widget."`
	Description         string   `required:"" help:"One-line description used in manifests."`
	Category            string   `default:"custom" help:"Widget category (media, system, ...)."`
	ManifestPath        string   `required:"" type:"path" help:"Path to the widget manifest YAML file to update."`
	SchemaPath          string   `type:"path" help:"Optional path to a JSON schema file for the widget configuration."`
	Width               int      `default:"6" help:"Default width in desktop columns."`
	Height              int      `default:"3" help:"Default height in rows."`
	MinWidth            int      `name:"min-width" help:"Minimum width."`
	MinHeight           int      `name:"min-height" help:"Minimum height."`
	RequiresIntegration []string `name:"requires-integration" help:"Integrations the widget depends on."`
	Tag                 []string `help:"Optional tags to include in the manifest (use multiple --tag flags)."`
	Maintainer          []string `help:"Maintainers to record in the manifest."`
	DocsURL             string   `help:"Link to widget documentation."`
	Overwrite           bool     `help:"Replace an existing manifest entry with the same type."`
}

type validateCmd struct {
	Manifests []string `arg:"" type:"existingfile" help:"Manifest files to load."`
}

type mobileCmd struct {
	File   string `type:"existingfile" help:"Snapshot JSON file (as returned by GET /widgets)."`
	Server string `help:"Base URL of a running homelabd; the server generates the layout." env:"HOMELAB_SERVER"`
	JSON   bool   `help:"Print widgets as JSON instead of a table."`
}

func main() {
	ctx := kong.Parse(&cli{},
		kong.Description("Widget manifest and layout utility for the homelab dashboard."),
		kong.UsageOnError(),
	)
	err := ctx.Run(context.Background())
	ctx.FatalIfErrorf(err)
}

func (cmd *scaffoldCmd) Run(_ context.Context) error {
	widgetType, err := cmd.widgetType()
	if err != nil {
		return err
	}
	manifestPath, err := filepath.Abs(cmd.ManifestPath)
	if err != nil {
		return fmt.Errorf("widgetctl: resolve manifest path: %w", err)
	}
	doc, err := loadOrInitManifest(manifestPath)
	if err != nil {
		return err
	}
	schema, err := cmd.loadSchema()
	if err != nil {
		return err
	}
	entry := cmd.entry(widgetType, schema)
	if err := upsertEntry(doc, entry, cmd.Overwrite); err != nil {
		return err
	}
	if err := doc.Validate(); err != nil {
		return err
	}
	if err := writeManifest(manifestPath, doc); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "✓ Added %s to %s\n", widgetType, manifestPath)
	return nil
}

func (cmd *scaffoldCmd) widgetType() (string, error) {
	widgetType := strings.TrimSpace(cmd.Type)
	if widgetType == "" {
		widgetType = cmd.Name
	}
	widgetType = strcase.ToKebab(widgetType)
	if widgetType == "" {
		return "", errors.New("widgetctl: widget type could not be derived")
	}
	if cmd.Width <= 0 || cmd.Height <= 0 {
		return "", fmt.Errorf("widgetctl: default size must be positive, got %dx%d", cmd.Width, cmd.Height)
	}
	if cmd.Width > dashboard.DesktopColumns {
		return "", fmt.Errorf("widgetctl: width %d exceeds %d columns", cmd.Width, dashboard.DesktopColumns)
	}
	return widgetType, nil
}

func (cmd *scaffoldCmd) entry(widgetType string, schema map[string]any) dashboard.ManifestWidget {
	meta := dashboard.WidgetMetadata{
		Type:                 widgetType,
		Name:                 cmd.Name,
		Description:          cmd.Description,
		Category:             cmd.Category,
		DefaultSize:          dashboard.Size{W: cmd.Width, H: cmd.Height},
		RequiresIntegrations: cmd.RequiresIntegration,
		Schema:               schema,
	}
	if cmd.MinWidth > 0 || cmd.MinHeight > 0 {
		meta.MinSize = &dashboard.Size{W: cmd.MinWidth, H: cmd.MinHeight}
	}
	return dashboard.ManifestWidget{
		Widget:      meta,
		DocsURL:     cmd.DocsURL,
		Maintainers: cmd.Maintainer,
		Tags:        cmd.Tag,
	}
}

func upsertEntry(doc *dashboard.WidgetManifestDocument, entry dashboard.ManifestWidget, overwrite bool) error {
	replaced := false
	for idx := range doc.Widgets {
		if doc.Widgets[idx].Widget.Type != entry.Widget.Type {
			continue
		}
		if !overwrite {
			return fmt.Errorf("widgetctl: manifest already defines widget %s (use --overwrite to replace)", entry.Widget.Type)
		}
		doc.Widgets[idx] = entry
		replaced = true
		break
	}
	if !replaced {
		doc.Widgets = append(doc.Widgets, entry)
	}
	sort.Slice(doc.Widgets, func(i, j int) bool {
		return doc.Widgets[i].Widget.Type < doc.Widgets[j].Widget.Type
	})
	return nil
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
		return nil, fmt.Errorf("widgetctl: read schema file: %w", err)
	}
	var schema map[string]any
	if err := json.Unmarshal(data, &schema); err != nil {
		return nil, fmt.Errorf("widgetctl: parse schema JSON: %w", err)
	}
	return schema, nil
}

func (cmd *validateCmd) Run(_ context.Context) error {
	reg := dashboard.NewRegistry()
	if err := dashboard.LoadManifests(reg, cmd.Manifests...); err != nil {
		return err
	}
	validator := dashboard.NewJSONSchemaValidator()
	for _, meta := range reg.Types() {
		if err := validator.Compile(meta); err != nil {
			return fmt.Errorf("widgetctl: schema for %s: %w", meta.Type, err)
		}
	}
	fmt.Fprintf(os.Stdout, "✓ %d widget types registered\n", len(reg.Types()))
	return nil
}

func (cmd *mobileCmd) Run(ctx context.Context) error {
	widgets, err := cmd.mobileWidgets(ctx)
	if err != nil {
		return err
	}
	if cmd.JSON {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(widgets)
	}
	return printMobileTable(os.Stdout, widgets)
}

func (cmd *mobileCmd) mobileWidgets(ctx context.Context) ([]dashboard.Widget, error) {
	switch {
	case cmd.Server != "":
		c, err := client.NewHTTPClient(client.HTTPConfig{BaseURL: cmd.Server})
		if err != nil {
			return nil, err
		}
		snap, err := c.FetchWidgets(ctx)
		if err != nil {
			return nil, err
		}
		if snap.MobileLayoutMode == dashboard.MobileLayoutIndependent {
			return snap.MobileWidgets, nil
		}
		return c.PreviewMobile(ctx, snap.Widgets)
	case cmd.File != "":
		snap, err := readSnapshot(cmd.File)
		if err != nil {
			return nil, err
		}
		if snap.MobileLayoutMode == dashboard.MobileLayoutIndependent {
			return snap.MobileWidgets, nil
		}
		return homelab.GenerateMobileLayout(snap.Widgets), nil
	default:
		return nil, errors.New("widgetctl: either --file or --server is required")
	}
}

func readSnapshot(path string) (dashboard.Snapshot, error) {
	data, err := os.ReadFile(path) //nolint:gosec
	if err != nil {
		return dashboard.Snapshot{}, fmt.Errorf("widgetctl: read snapshot: %w", err)
	}
	var snap dashboard.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return dashboard.Snapshot{}, fmt.Errorf("widgetctl: parse snapshot: %w", err)
	}
	return snap, nil
}

func printMobileTable(out io.Writer, widgets []dashboard.Widget) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTYPE\tY\tH")
	for _, w := range widgets {
		rect, _ := w.Layout(dashboard.BreakpointMobile)
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\n", w.ID, w.Type, rect.Y, rect.H)
	}
	return tw.Flush()
}

func loadOrInitManifest(path string) (*dashboard.WidgetManifestDocument, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			doc := &dashboard.WidgetManifestDocument{
				Version: dashboard.ManifestVersion,
				Widgets: []dashboard.ManifestWidget{},
				Source:  path,
			}
			return doc, nil
		}
		return nil, fmt.Errorf("widgetctl: stat manifest: %w", err)
	}
	return dashboard.ReadManifest(path)
}

func writeManifest(path string, doc *dashboard.WidgetManifestDocument) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("widgetctl: mkdir %s: %w", filepath.Dir(path), err)
	}
	tmpDoc := *doc
	tmpDoc.Source = ""

	file, err := os.Create(path) //nolint:gosec
	if err != nil {
		return fmt.Errorf("widgetctl: create manifest %s: %w", path, err)
	}
	defer file.Close()

	encoder := yaml.NewEncoder(file)
	encoder.SetIndent(2)
	defer encoder.Close()
	if err := encoder.Encode(tmpDoc); err != nil {
		return fmt.Errorf("widgetctl: write manifest: %w", err)
	}
	return nil
}
