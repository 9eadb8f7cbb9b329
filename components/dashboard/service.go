package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Document keys used in the KVStore.
const (
	WidgetsKey      = "widgets"
	IntegrationsKey = "integrations"
)

// WidgetCatalog is the registry surface the service needs.
type WidgetCatalog interface {
	MetadataLookup
	Types() []WidgetMetadata
}

// Options configures the dashboard Service. Every collaborator is provided via
// interface so applications can swap implementations.
type Options struct {
	Store           KVStore
	Registry        WidgetCatalog
	ConfigValidator ConfigValidator
	PreferenceStore PreferenceStore
	RefreshHook     RefreshHook
	Telemetry       Telemetry
	Logger          *zap.Logger
	LayoutCache     *LayoutCache
}

// Service persists dashboard snapshots and integration settings in a KVStore.
// It implements Backend so a Controller can run in-process.
type Service struct {
	opts Options
}

// NewService builds a Service instance with safe defaults.
func NewService(opts Options) *Service {
	if opts.Store == nil {
		opts.Store = NewMemoryKVStore()
	}
	if opts.Registry == nil {
		opts.Registry = NewRegistry()
	}
	if opts.ConfigValidator == nil {
		opts.ConfigValidator = NewJSONSchemaValidator()
	}
	if opts.PreferenceStore == nil {
		opts.PreferenceStore = KVPreferenceStore{Store: opts.Store}
	}
	if opts.RefreshHook == nil {
		opts.RefreshHook = noopRefreshHook{}
	}
	if opts.LayoutCache == nil {
		opts.LayoutCache = NewLayoutCache(5 * time.Minute)
	}
	opts.Telemetry = normalizeTelemetry(opts.Telemetry)
	opts.Logger = normalizeLogger(opts.Logger)
	return &Service{opts: opts}
}

var _ Backend = (*Service)(nil)

// Snapshot loads the persisted dashboard. Widgets are migrated, the mobile
// layout is regenerated when linked, and an independent snapshot without
// mobile widgets reads as linked. A missing document yields an empty dashboard.
func (s *Service) Snapshot(ctx context.Context) (Snapshot, error) {
	raw, err := s.opts.Store.Get(ctx, WidgetsKey)
	if errors.Is(err, ErrNotFound) {
		return Snapshot{Widgets: []Widget{}, MobileLayoutMode: MobileLayoutLinked}, nil
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("dashboard: load widgets: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("dashboard: decode widgets: %w", err)
	}
	state, err := snap.State()
	if err != nil {
		s.opts.Logger.Warn("stored snapshot has unknown mobile layout mode, reading as linked",
			zap.String("mode", string(snap.MobileLayoutMode)))
		state = LinkedLayout{Widgets: snap.Widgets}
	}
	state = normalizeState(state, s.opts.LayoutCache.MobileLayout)
	s.recordTelemetry(ctx, "dashboard.snapshot.load", map[string]any{
		"mode":  string(state.Mode()),
		"count": len(state.DesktopWidgets()),
	})
	return SnapshotFromState(state), nil
}

// SaveSnapshot validates and persists the dashboard. Linked snapshots never
// store mobile widgets.
func (s *Service) SaveSnapshot(ctx context.Context, snap Snapshot) error {
	state, err := snap.State()
	if err != nil {
		return err
	}
	if err := s.validateWidgets(state.DesktopWidgets()); err != nil {
		return err
	}
	switch st := state.(type) {
	case IndependentLayout:
		if err := s.validateWidgets(st.MobileWidgets); err != nil {
			return err
		}
		if err := sameWidgetIDs(st.Widgets, st.MobileWidgets); err != nil {
			return err
		}
		state = IndependentLayout{Widgets: MigrateAll(st.Widgets), MobileWidgets: MigrateAll(st.MobileWidgets)}
	case LinkedLayout:
		state = LinkedLayout{Widgets: MigrateAll(st.Widgets)}
	}
	stored := SnapshotFromState(state)
	if state.Mode() == MobileLayoutLinked {
		stored.MobileWidgets = nil
	}
	raw, err := marshalSnapshot(stored)
	if err != nil {
		return fmt.Errorf("dashboard: encode widgets: %w", err)
	}
	if err := s.opts.Store.Put(ctx, WidgetsKey, raw); err != nil {
		return fmt.Errorf("dashboard: store widgets: %w", err)
	}
	event := WidgetEvent{
		Mode:   state.Mode(),
		Count:  len(stored.Widgets),
		Reason: "save",
	}
	if err := s.opts.RefreshHook.WidgetUpdated(ctx, event); err != nil {
		return err
	}
	s.opts.Logger.Info("dashboard saved",
		zap.String("mode", string(event.Mode)),
		zap.Int("widgets", event.Count))
	s.recordTelemetry(ctx, "dashboard.snapshot.save", map[string]any{
		"mode":  string(event.Mode),
		"count": event.Count,
	})
	return nil
}

func (s *Service) validateWidgets(widgets []Widget) error {
	seen := make(map[string]struct{}, len(widgets))
	for _, w := range widgets {
		if w.ID == "" {
			return fmt.Errorf("%w: widget id is required", ErrInvalidSnapshot)
		}
		if _, dup := seen[w.ID]; dup {
			return fmt.Errorf("%w: duplicate widget id %q", ErrInvalidSnapshot, w.ID)
		}
		seen[w.ID] = struct{}{}
		if w.Type == "" {
			return fmt.Errorf("%w: widget %s has no type", ErrInvalidSnapshot, w.ID)
		}
		if err := s.validateConfiguration(w); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
		}
		for bp, rect := range Migrate(w).Layouts {
			if rect.X < 0 || rect.Y < 0 || rect.W < 0 || rect.H < 0 {
				return fmt.Errorf("%w: widget %s has negative %s layout %+v", ErrInvalidSnapshot, w.ID, bp, rect)
			}
		}
	}
	return nil
}

// sameWidgetIDs requires an independent mobile list to hold exactly the
// desktop widgets.
func sameWidgetIDs(desktop, mobile []Widget) error {
	ids := make(map[string]struct{}, len(desktop))
	for _, w := range desktop {
		ids[w.ID] = struct{}{}
	}
	for _, w := range mobile {
		if _, ok := ids[w.ID]; !ok {
			return fmt.Errorf("%w: mobile widget %s has no desktop widget", ErrInvalidSnapshot, w.ID)
		}
		delete(ids, w.ID)
	}
	for id := range ids {
		return fmt.Errorf("%w: desktop widget %s missing from mobile layout", ErrInvalidSnapshot, id)
	}
	return nil
}

// validateConfiguration checks a configured widget against its type schema.
// Unregistered types and empty configs pass.
func (s *Service) validateConfiguration(w Widget) error {
	if len(w.Config) == 0 {
		return nil
	}
	meta, ok := s.opts.Registry.Lookup(w.Type)
	if !ok {
		return nil
	}
	return s.opts.ConfigValidator.Validate(meta, w.Config)
}

// Integrations returns the stored integration settings.
func (s *Service) Integrations(ctx context.Context) (IntegrationSettings, error) {
	raw, err := s.opts.Store.Get(ctx, IntegrationsKey)
	if errors.Is(err, ErrNotFound) {
		return IntegrationSettings{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("dashboard: load integrations: %w", err)
	}
	settings := IntegrationSettings{}
	if err := json.Unmarshal(raw, &settings); err != nil {
		return nil, fmt.Errorf("dashboard: decode integrations: %w", err)
	}
	return settings, nil
}

// SaveIntegrations replaces the integration settings document.
func (s *Service) SaveIntegrations(ctx context.Context, settings IntegrationSettings) error {
	if settings == nil {
		settings = IntegrationSettings{}
	}
	for name := range settings {
		if name == "" {
			return fmt.Errorf("%w: integration name is required", ErrInvalidSnapshot)
		}
	}
	raw, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("dashboard: encode integrations: %w", err)
	}
	if err := s.opts.Store.Put(ctx, IntegrationsKey, raw); err != nil {
		return fmt.Errorf("dashboard: store integrations: %w", err)
	}
	s.recordTelemetry(ctx, "dashboard.integrations.save", map[string]any{"count": len(settings)})
	return nil
}

// WidgetTypes lists the registered widget types with names resolved for the locale.
func (s *Service) WidgetTypes(locale string) []WidgetMetadata {
	types := s.opts.Registry.Types()
	for i := range types {
		types[i].Name = types[i].NameForLocale(locale)
	}
	return types
}

// PreviewMobile returns the linked mobile arrangement for widgets, in mobile order.
func (s *Service) PreviewMobile(widgets []Widget) []Widget {
	return s.opts.LayoutCache.MobileLayout(widgets)
}

// Registry exposes the widget catalog.
func (s *Service) Registry() WidgetCatalog {
	return s.opts.Registry
}

// Preferences returns the viewer preferences.
func (s *Service) Preferences(ctx context.Context, viewer ViewerContext) (ViewerPreferences, error) {
	return s.opts.PreferenceStore.Preferences(ctx, viewer)
}

// SavePreferences persists viewer preferences.
func (s *Service) SavePreferences(ctx context.Context, viewer ViewerContext, prefs ViewerPreferences) error {
	if viewer.UserID == "" {
		return errors.New("dashboard: viewer context missing user id")
	}
	return s.opts.PreferenceStore.SavePreferences(ctx, viewer, prefs)
}

// FetchWidgets implements Backend.
func (s *Service) FetchWidgets(ctx context.Context) (Snapshot, error) {
	return s.Snapshot(ctx)
}

// SaveWidgets implements Backend.
func (s *Service) SaveWidgets(ctx context.Context, snap Snapshot) error {
	return s.SaveSnapshot(ctx, snap)
}

// FetchIntegrations implements Backend.
func (s *Service) FetchIntegrations(ctx context.Context) (IntegrationSettings, error) {
	return s.Integrations(ctx)
}

// NotifyWidgetUpdated exposes refresh hook invocation for commands/transports.
func (s *Service) NotifyWidgetUpdated(ctx context.Context, event WidgetEvent) error {
	if err := s.opts.RefreshHook.WidgetUpdated(ctx, event); err != nil {
		return err
	}
	s.recordTelemetry(ctx, "dashboard.widget.event", map[string]any{
		"widget_id": event.WidgetID,
		"reason":    event.Reason,
	})
	return nil
}

func (s *Service) recordTelemetry(ctx context.Context, event string, payload map[string]any) {
	s.opts.Telemetry.Record(ctx, event, payload)
}

type noopRefreshHook struct{}

func (noopRefreshHook) WidgetUpdated(context.Context, WidgetEvent) error {
	return nil
}
