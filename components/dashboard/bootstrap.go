package dashboard

import (
	"context"
	"errors"
	"fmt"
)

// LoadManifests registers every manifest file into the registry.
func LoadManifests(reg *Registry, paths ...string) error {
	if reg == nil {
		return errors.New("dashboard: registry is required to load manifests")
	}
	var loadErr error
	for _, path := range paths {
		if path == "" {
			continue
		}
		if _, err := reg.LoadManifestFile(path); err != nil {
			loadErr = errors.Join(loadErr, fmt.Errorf("load manifest %s: %w", path, err))
		}
	}
	return loadErr
}

// DefaultSeedWidgets returns the starter dashboard.
func DefaultSeedWidgets() []Widget {
	return []Widget{
		seedWidget("widget-clock", "clock", LayoutRect{X: 0, Y: 0, W: 6, H: 2}, map[string]any{"title": "Clock", "showHeader": false}),
		seedWidget("widget-system", "system-monitor", LayoutRect{X: 6, Y: 0, W: 10, H: 4}, map[string]any{"title": "Server"}),
		seedWidget("widget-disks", "disk-usage", LayoutRect{X: 16, Y: 0, W: 8, H: 4}, nil),
		seedWidget("widget-links", "link-grid", LayoutRect{X: 0, Y: 2, W: 6, H: 4}, map[string]any{"title": "Services", "alignment": "left"}),
	}
}

func seedWidget(id, widgetType string, rect LayoutRect, config map[string]any) Widget {
	return Widget{
		ID:      id,
		Type:    widgetType,
		Config:  config,
		Layouts: map[Breakpoint]LayoutRect{BreakpointDesktop: rect},
	}
}

// SeedDashboard stores the starter dashboard when none has been saved yet.
// It reports whether anything was written.
func SeedDashboard(ctx context.Context, service *Service, widgets []Widget) (bool, error) {
	if service == nil {
		return false, errors.New("dashboard: service is required to seed dashboard")
	}
	if _, err := service.opts.Store.Get(ctx, WidgetsKey); err == nil {
		return false, nil
	} else if !errors.Is(err, ErrNotFound) {
		return false, fmt.Errorf("dashboard: check existing widgets: %w", err)
	}
	if widgets == nil {
		widgets = DefaultSeedWidgets()
	}
	if err := service.SaveSnapshot(ctx, Snapshot{Widgets: widgets, MobileLayoutMode: MobileLayoutLinked}); err != nil {
		return false, fmt.Errorf("dashboard: seed widgets: %w", err)
	}
	return true, nil
}
