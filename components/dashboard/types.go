package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
)

// Breakpoint names a viewport-width tier with its own column count and layout set.
type Breakpoint string

const (
	BreakpointDesktop Breakpoint = "desktop"
	BreakpointMobile  Breakpoint = "mobile"
)

const (
	// DesktopColumns is the column count of the desktop grid.
	DesktopColumns = 24
	// MobileColumns is the column count of the mobile grid. Every mobile widget spans it.
	MobileColumns = 2
)

// Columns returns the grid column count for the breakpoint.
func (b Breakpoint) Columns() int {
	if b == BreakpointMobile {
		return MobileColumns
	}
	return DesktopColumns
}

// Valid reports whether b is a known breakpoint.
func (b Breakpoint) Valid() bool {
	return b == BreakpointDesktop || b == BreakpointMobile
}

// MobileLayoutMode selects whether the mobile layout follows the desktop one.
type MobileLayoutMode string

const (
	MobileLayoutLinked      MobileLayoutMode = "linked"
	MobileLayoutIndependent MobileLayoutMode = "independent"
)

// LayoutRect is a grid-unit rectangle for one widget at one breakpoint.
type LayoutRect struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
	W int `json:"w" yaml:"w"`
	H int `json:"h" yaml:"h"`
}

// Widget is a single dashboard widget. Legacy records may carry flat x/y/w/h
// fields instead of Layouts; Migrate folds them into Layouts[BreakpointDesktop].
type Widget struct {
	ID      string                    `json:"id"`
	Type    string                    `json:"type"`
	Config  map[string]any            `json:"config,omitempty"`
	Layouts map[Breakpoint]LayoutRect `json:"layouts,omitempty"`

	X *int `json:"x,omitempty"`
	Y *int `json:"y,omitempty"`
	W *int `json:"w,omitempty"`
	H *int `json:"h,omitempty"`
}

// Layout returns the rect stored for the breakpoint.
func (w Widget) Layout(bp Breakpoint) (LayoutRect, bool) {
	rect, ok := w.Layouts[bp]
	return rect, ok
}

// Title returns the configured title, if any.
func (w Widget) Title() string {
	if title, ok := w.Config["title"].(string); ok {
		return title
	}
	return ""
}

// ShowHeader reports the showHeader config flag, defaulting to true.
func (w Widget) ShowHeader() bool {
	if show, ok := w.Config["showHeader"].(bool); ok {
		return show
	}
	return true
}

// Clone returns a deep copy of the widget.
func (w Widget) Clone() Widget {
	out := w
	out.Config = cloneConfig(w.Config)
	if w.Layouts != nil {
		out.Layouts = make(map[Breakpoint]LayoutRect, len(w.Layouts))
		for bp, rect := range w.Layouts {
			out.Layouts[bp] = rect
		}
	}
	out.X = cloneInt(w.X)
	out.Y = cloneInt(w.Y)
	out.W = cloneInt(w.W)
	out.H = cloneInt(w.H)
	return out
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	n := *v
	return &n
}

func cloneConfig(cfg map[string]any) map[string]any {
	if cfg == nil {
		return nil
	}
	out := make(map[string]any, len(cfg))
	for k, v := range cfg {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch typed := v.(type) {
	case map[string]any:
		return cloneConfig(typed)
	case []any:
		out := make([]any, len(typed))
		for i := range typed {
			out[i] = cloneValue(typed[i])
		}
		return out
	default:
		return v
	}
}

// CloneWidgets deep copies a widget list. A nil list stays nil.
func CloneWidgets(widgets []Widget) []Widget {
	if widgets == nil {
		return nil
	}
	out := make([]Widget, len(widgets))
	for i, w := range widgets {
		out[i] = w.Clone()
	}
	return out
}

// Snapshot is the persisted dashboard unit exchanged over GET/PUT /widgets.
// MobileWidgets is only meaningful in independent mode.
type Snapshot struct {
	Widgets          []Widget         `json:"widgets"`
	MobileLayoutMode MobileLayoutMode `json:"mobileLayoutMode,omitempty"`
	MobileWidgets    []Widget         `json:"mobileWidgets,omitempty"`
}

// LayoutState is the in-memory form of a Snapshot. It is either a
// LinkedLayout or an IndependentLayout, so mobile widgets cannot be read
// while the mobile layout follows the desktop one.
type LayoutState interface {
	Mode() MobileLayoutMode
	DesktopWidgets() []Widget
	layoutState()
}

// LinkedLayout derives the mobile arrangement from the desktop widgets.
type LinkedLayout struct {
	Widgets []Widget
}

// IndependentLayout stores the mobile arrangement separately.
type IndependentLayout struct {
	Widgets       []Widget
	MobileWidgets []Widget
}

func (LinkedLayout) Mode() MobileLayoutMode          { return MobileLayoutLinked }
func (l LinkedLayout) DesktopWidgets() []Widget      { return l.Widgets }
func (LinkedLayout) layoutState()                    {}
func (IndependentLayout) Mode() MobileLayoutMode     { return MobileLayoutIndependent }
func (l IndependentLayout) DesktopWidgets() []Widget { return l.Widgets }
func (IndependentLayout) layoutState()               {}

// State converts the snapshot into its tagged form. An empty mode reads as linked.
func (s Snapshot) State() (LayoutState, error) {
	switch s.MobileLayoutMode {
	case "", MobileLayoutLinked:
		return LinkedLayout{Widgets: s.Widgets}, nil
	case MobileLayoutIndependent:
		return IndependentLayout{Widgets: s.Widgets, MobileWidgets: s.MobileWidgets}, nil
	default:
		return nil, fmt.Errorf("%w: unknown mobile layout mode %q", ErrInvalidSnapshot, s.MobileLayoutMode)
	}
}

// SnapshotFromState converts a layout state into its wire form.
func SnapshotFromState(state LayoutState) Snapshot {
	switch st := state.(type) {
	case IndependentLayout:
		return Snapshot{
			Widgets:          nonNil(st.Widgets),
			MobileLayoutMode: MobileLayoutIndependent,
			MobileWidgets:    nonNil(st.MobileWidgets),
		}
	case LinkedLayout:
		return Snapshot{Widgets: nonNil(st.Widgets), MobileLayoutMode: MobileLayoutLinked}
	default:
		return Snapshot{Widgets: []Widget{}, MobileLayoutMode: MobileLayoutLinked}
	}
}

func nonNil(widgets []Widget) []Widget {
	if widgets == nil {
		return []Widget{}
	}
	return widgets
}

// IntegrationSettings maps integration name to its settings (url, enabled, ...).
type IntegrationSettings map[string]map[string]any

// Enabled reports whether the named integration exists and is not disabled.
func (s IntegrationSettings) Enabled(name string) bool {
	settings, ok := s[name]
	if !ok {
		return false
	}
	if enabled, ok := settings["enabled"].(bool); ok {
		return enabled
	}
	return true
}

// Backend is the persistence boundary the Controller talks to: the
// GET/PUT /widgets and GET /integrations contract.
type Backend interface {
	FetchWidgets(ctx context.Context) (Snapshot, error)
	SaveWidgets(ctx context.Context, snapshot Snapshot) error
	FetchIntegrations(ctx context.Context) (IntegrationSettings, error)
}

// KVStore is the key-value document store the dashboard persists into.
// Get returns ErrNotFound for missing keys.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
}

// MetadataLookup resolves widget type metadata.
type MetadataLookup interface {
	Lookup(widgetType string) (WidgetMetadata, bool)
}

// PreferenceStore persists per-viewer UI preferences.
type PreferenceStore interface {
	Preferences(ctx context.Context, viewer ViewerContext) (ViewerPreferences, error)
	SavePreferences(ctx context.Context, viewer ViewerContext, prefs ViewerPreferences) error
}

// RefreshHook notifies transports (REST/WebSocket) about dashboard changes.
type RefreshHook interface {
	WidgetUpdated(ctx context.Context, event WidgetEvent) error
}

// ViewerContext captures the active user/locale information.
type ViewerContext struct {
	UserID string
	Locale string
}

// ViewerPreferences holds per-viewer dashboard preferences.
type ViewerPreferences struct {
	Locale                    string `json:"locale,omitempty"`
	MobileDisclaimerDismissed bool   `json:"mobileDisclaimerDismissed"`
}

// WidgetEvent describes changes that transports might care about.
type WidgetEvent struct {
	WidgetID string           `json:"widget_id,omitempty"`
	Mode     MobileLayoutMode `json:"mode,omitempty"`
	Count    int              `json:"count,omitempty"`
	Reason   string           `json:"reason"`
}

func marshalSnapshot(s Snapshot) ([]byte, error) {
	return json.Marshal(s)
}
