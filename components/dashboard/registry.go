package dashboard

import (
	"fmt"
	"sort"
	"sync"
)

// WidgetHook lets packages register widget metadata during init().
type WidgetHook func(reg *Registry) error

var (
	globalHookMu sync.Mutex
	globalHooks  []WidgetHook
)

// RegisterWidgetHook registers a hook executed against new registries.
func RegisterWidgetHook(h WidgetHook) {
	globalHookMu.Lock()
	defer globalHookMu.Unlock()
	globalHooks = append(globalHooks, h)
}

// Size is a width/height pair in grid units.
type Size struct {
	W int `json:"w" yaml:"w"`
	H int `json:"h" yaml:"h"`
}

// WidgetMetadata describes size constraints and integration requirements of a widget type.
type WidgetMetadata struct {
	Type                 string            `json:"type" yaml:"type"`
	Name                 string            `json:"name" yaml:"name"`
	NameLocalized        map[string]string `json:"name_localized,omitempty" yaml:"name_localized,omitempty"`
	Description          string            `json:"description,omitempty" yaml:"description,omitempty"`
	Category             string            `json:"category,omitempty" yaml:"category,omitempty"`
	DefaultSize          Size              `json:"default_size" yaml:"default_size"`
	MinSize              *Size             `json:"min_size,omitempty" yaml:"min_size,omitempty"`
	MaxSize              *Size             `json:"max_size,omitempty" yaml:"max_size,omitempty"`
	RequiresIntegration  string            `json:"requires_integration,omitempty" yaml:"requires_integration,omitempty"`
	RequiresIntegrations []string          `json:"requires_integrations,omitempty" yaml:"requires_integrations,omitempty"`
	Schema               map[string]any    `json:"schema,omitempty" yaml:"schema,omitempty"`
}

// Integrations returns every integration the widget type needs, single form first.
func (m WidgetMetadata) Integrations() []string {
	var out []string
	seen := map[string]struct{}{}
	for _, name := range append([]string{m.RequiresIntegration}, m.RequiresIntegrations...) {
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

// NameForLocale returns the display name for the requested locale with fallback to Name.
func (m WidgetMetadata) NameForLocale(locale string) string {
	return ResolveLocalizedValue(m.NameLocalized, locale, m.Name)
}

// Registry implements MetadataLookup with hook + manifest support.
type Registry struct {
	mu       sync.RWMutex
	metadata map[string]WidgetMetadata
	manifest map[string]ManifestSource
}

// NewRegistry builds a registry seeded with the default catalog and applies global hooks.
func NewRegistry() *Registry {
	reg := &Registry{
		metadata: map[string]WidgetMetadata{},
		manifest: map[string]ManifestSource{},
	}
	reg.registerDefaults()
	_ = reg.ApplyHooks()
	return reg
}

func (r *Registry) registerDefaults() {
	for _, meta := range DefaultWidgetMetadata() {
		_ = r.Register(meta)
	}
}

// ApplyHooks executes registered widget hooks.
func (r *Registry) ApplyHooks() error {
	globalHookMu.Lock()
	defer globalHookMu.Unlock()
	for _, hook := range globalHooks {
		if err := hook(r); err != nil {
			return err
		}
	}
	return nil
}

// Register stores widget metadata, replacing any previous entry for the type.
func (r *Registry) Register(meta WidgetMetadata) error {
	if meta.Type == "" {
		return fmt.Errorf("dashboard: widget type is required")
	}
	if meta.DefaultSize.W <= 0 || meta.DefaultSize.H <= 0 {
		return fmt.Errorf("dashboard: widget %s requires a positive default size", meta.Type)
	}
	if meta.MinSize != nil && meta.MaxSize != nil {
		if meta.MinSize.W > meta.MaxSize.W || meta.MinSize.H > meta.MaxSize.H {
			return fmt.Errorf("dashboard: widget %s min size exceeds max size", meta.Type)
		}
	}
	meta.NameLocalized = normalizeLocaleMap(meta.NameLocalized)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.metadata[meta.Type] = meta
	return nil
}

// Lookup returns the metadata for a widget type.
func (r *Registry) Lookup(widgetType string) (WidgetMetadata, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	meta, ok := r.metadata[widgetType]
	return meta, ok
}

// Types returns every registered metadata entry sorted by type.
func (r *Registry) Types() []WidgetMetadata {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]WidgetMetadata, 0, len(r.metadata))
	for _, meta := range r.metadata {
		out = append(out, meta)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out
}

// ManifestSource returns where a manifest-registered type came from.
func (r *Registry) ManifestSource(widgetType string) (ManifestSource, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	src, ok := r.manifest[widgetType]
	return src, ok
}

func (r *Registry) recordManifestSource(widgetType string, src ManifestSource) {
	if src.isZero() {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.manifest[widgetType] = src
}

// SizeConstraints are the effective grid bounds for one widget.
type SizeConstraints struct {
	MinW int `json:"minW,omitempty"`
	MinH int `json:"minH,omitempty"`
	MaxW int `json:"maxW,omitempty"`
	MaxH int `json:"maxH,omitempty"`
}

// Constraints returns the effective size bounds for a widget. A hidden header
// frees one row, so showHeader=false lowers the minimum height by one (never below 1).
func Constraints(lookup MetadataLookup, w Widget) SizeConstraints {
	var out SizeConstraints
	if lookup == nil {
		return out
	}
	meta, ok := lookup.Lookup(w.Type)
	if !ok {
		return out
	}
	if meta.MinSize != nil {
		out.MinW = meta.MinSize.W
		out.MinH = meta.MinSize.H
		if !w.ShowHeader() && out.MinH > 1 {
			out.MinH--
		}
	}
	if meta.MaxSize != nil {
		out.MaxW = meta.MaxSize.W
		out.MaxH = meta.MaxSize.H
	}
	return out
}
