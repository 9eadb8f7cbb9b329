package dashboard

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SaveResult reports what Save did.
type SaveResult int

const (
	// SaveCompleted means the snapshot was persisted and edit mode exited.
	SaveCompleted SaveResult = iota
	// SaveNeedsConfirmation means the unlink confirmation is now shown.
	SaveNeedsConfirmation
	// SaveSkipped means there was nothing to persist; edit mode exited.
	SaveSkipped
)

func (r SaveResult) String() string {
	switch r {
	case SaveCompleted:
		return "completed"
	case SaveNeedsConfirmation:
		return "needs_confirmation"
	case SaveSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// saveFailedMessage is shown when persisting the dashboard fails.
const saveFailedMessage = "Failed to save widgets"

// EditSession is the snapshot taken when edit mode starts.
type EditSession struct {
	OriginalMode          MobileLayoutMode
	OriginalWidgets       []Widget
	OriginalMobileWidgets []Widget
	HasUnsavedChanges     bool
	PendingUnlink         bool
}

// ControllerOptions wires the Controller collaborators.
type ControllerOptions struct {
	Backend     Backend
	Registry    MetadataLookup
	Notifier    Notifier
	Preferences PreferenceStore
	Viewer      ViewerContext
	Breakpoint  Breakpoint
	Telemetry   Telemetry
	Logger      *zap.Logger
	NewID       func() string
}

// ControllerState is a read-only view of the controller.
type ControllerState struct {
	Breakpoint             Breakpoint       `json:"breakpoint"`
	Mode                   MobileLayoutMode `json:"mobileLayoutMode"`
	Editing                bool             `json:"editing"`
	Loading                bool             `json:"loading"`
	Saving                 bool             `json:"saving"`
	HasUnsavedChanges      bool             `json:"hasUnsavedChanges"`
	PendingUnlink          bool             `json:"pendingUnlink"`
	ShowDisclaimer         bool             `json:"showDisclaimer"`
	ShowUnlinkConfirmation bool             `json:"showUnlinkConfirmation"`
	ShowRelinkConfirmation bool             `json:"showRelinkConfirmation"`
	Widgets                []Widget         `json:"widgets"`
	MobileWidgets          []Widget         `json:"mobileWidgets"`
}

// CanSave reports whether the save control should be enabled.
func (s ControllerState) CanSave() bool {
	return s.Editing && !s.Saving && s.HasUnsavedChanges
}

// Controller owns the dashboard session: the layout state, edit session,
// visibility map and modal flags. It is the single writer of that state;
// widgets and the grid adapter reach it only through its methods or the
// EventBus. Backend calls run without holding the lock and are gated by the
// loading/saving flags.
type Controller struct {
	mu sync.Mutex

	backend     Backend
	registry    MetadataLookup
	notifier    Notifier
	preferences PreferenceStore
	viewer      ViewerContext
	telemetry   Telemetry
	logger      *zap.Logger
	newID       func() string

	state       LayoutState
	breakpoint  Breakpoint
	editing     bool
	session     *EditSession
	mobileDraft []Widget
	visibility  map[string]bool
	interacting bool

	loading bool
	saving  bool

	showDisclaimer         bool
	showUnlinkConfirmation bool
	showRelinkConfirmation bool
	disclaimerDismissed    bool
}

// NewController builds a controller with an empty linked dashboard.
func NewController(opts ControllerOptions) *Controller {
	if opts.Registry == nil {
		opts.Registry = NewRegistry()
	}
	if opts.Notifier == nil {
		opts.Notifier = noopNotifier{}
	}
	if opts.Preferences == nil {
		opts.Preferences = NewInMemoryPreferenceStore()
	}
	if !opts.Breakpoint.Valid() {
		opts.Breakpoint = BreakpointDesktop
	}
	if opts.NewID == nil {
		opts.NewID = func() string { return "widget-" + uuid.NewString() }
	}
	return &Controller{
		backend:     opts.Backend,
		registry:    opts.Registry,
		notifier:    opts.Notifier,
		preferences: opts.Preferences,
		viewer:      opts.Viewer,
		telemetry:   normalizeTelemetry(opts.Telemetry),
		logger:      normalizeLogger(opts.Logger),
		newID:       opts.NewID,
		state:       LinkedLayout{Widgets: []Widget{}},
		breakpoint:  opts.Breakpoint,
		visibility:  map[string]bool{},
	}
}

// Load fetches the dashboard and viewer preferences. A failed fetch leaves an
// empty dashboard and is only logged.
func (c *Controller) Load(ctx context.Context) error {
	c.mu.Lock()
	if c.loading || c.saving {
		c.mu.Unlock()
		return ErrSaveInProgress
	}
	c.loading = true
	c.mu.Unlock()

	var snap Snapshot
	var fetchErr error
	if c.backend == nil {
		fetchErr = errMissingStore
	} else {
		snap, fetchErr = c.backend.FetchWidgets(ctx)
	}
	prefs, prefErr := c.preferences.Preferences(ctx, c.viewer)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = false
	if prefErr != nil {
		c.logger.Warn("load viewer preferences failed", zap.Error(prefErr))
	} else {
		c.disclaimerDismissed = prefs.MobileDisclaimerDismissed
	}

	c.exitEdit()
	if fetchErr != nil {
		c.logger.Warn("fetch widgets failed, showing empty dashboard", zap.Error(fetchErr))
		c.state = LinkedLayout{Widgets: []Widget{}}
		return nil
	}
	state, err := snap.State()
	if err != nil {
		c.logger.Warn("snapshot has unknown mobile layout mode, reading as linked", zap.Error(err))
		state = LinkedLayout{Widgets: snap.Widgets}
	}
	c.state = normalizeState(state, nil)
	c.telemetry.Record(ctx, "dashboard.controller.load", map[string]any{
		"mode":  string(c.state.Mode()),
		"count": len(c.state.DesktopWidgets()),
	})
	return nil
}

// OnBreakpointChange switches the active breakpoint.
func (c *Controller) OnBreakpointChange(bp Breakpoint) {
	if !bp.Valid() {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.breakpoint = bp
}

// EnterEditMode starts an edit session. On a mobile viewport with a linked
// layout the one-time disclaimer is shown first and editing starts once the
// viewer continues.
func (c *Controller) EnterEditMode(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loading || c.saving {
		return ErrSaveInProgress
	}
	if c.editing {
		return nil
	}
	if c.breakpoint == BreakpointMobile && c.state.Mode() == MobileLayoutLinked && !c.disclaimerDismissed {
		c.showDisclaimer = true
		return nil
	}
	c.beginEdit(ctx)
	return nil
}

// ContinueFromDisclaimer closes the disclaimer and starts editing.
func (c *Controller) ContinueFromDisclaimer(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.showDisclaimer {
		return ErrNoPendingConfirmation
	}
	c.showDisclaimer = false
	c.beginEdit(ctx)
	return nil
}

// DismissDisclaimer continues into edit mode and remembers not to show the
// disclaimer again for this viewer.
func (c *Controller) DismissDisclaimer(ctx context.Context) error {
	c.mu.Lock()
	if !c.showDisclaimer {
		c.mu.Unlock()
		return ErrNoPendingConfirmation
	}
	c.showDisclaimer = false
	c.disclaimerDismissed = true
	c.beginEdit(ctx)
	c.mu.Unlock()

	if c.viewer.UserID == "" {
		return nil
	}
	prefs, err := c.preferences.Preferences(ctx, c.viewer)
	if err != nil {
		c.logger.Warn("load viewer preferences failed", zap.Error(err))
		prefs = ViewerPreferences{Locale: c.viewer.Locale}
	}
	prefs.MobileDisclaimerDismissed = true
	if err := c.preferences.SavePreferences(ctx, c.viewer, prefs); err != nil {
		c.logger.Warn("persist disclaimer dismissal failed", zap.Error(err))
	}
	return nil
}

// CancelDisclaimer closes the disclaimer without entering edit mode.
func (c *Controller) CancelDisclaimer() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.showDisclaimer = false
}

func (c *Controller) beginEdit(ctx context.Context) {
	session := &EditSession{
		OriginalMode:    c.state.Mode(),
		OriginalWidgets: CloneWidgets(c.state.DesktopWidgets()),
	}
	if st, ok := c.state.(IndependentLayout); ok {
		session.OriginalMobileWidgets = CloneWidgets(st.MobileWidgets)
	}
	c.session = session
	c.editing = true
	c.mobileDraft = nil
	c.telemetry.Record(ctx, "dashboard.edit.enter", map[string]any{
		"breakpoint": string(c.breakpoint),
		"mode":       string(session.OriginalMode),
	})
}

func (c *Controller) exitEdit() {
	c.editing = false
	c.session = nil
	c.mobileDraft = nil
	c.interacting = false
	c.showDisclaimer = false
	c.showUnlinkConfirmation = false
	c.showRelinkConfirmation = false
}

// OnDragStart marks a grid interaction in progress.
func (c *Controller) OnDragStart() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.interacting = true
}

// OnResizeStart marks a grid interaction in progress.
func (c *Controller) OnResizeStart() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.interacting = true
}

// OnLayoutChange is advisory; intermediate frames are never committed.
func (c *Controller) OnLayoutChange([]GridItem) {}

// OnDragStop commits the finalized layout for the active breakpoint.
func (c *Controller) OnDragStop(items []GridItem) error {
	return c.commitLayout(items)
}

// OnResizeStop commits the finalized layout for the active breakpoint.
func (c *Controller) OnResizeStop(items []GridItem) error {
	return c.commitLayout(items)
}

func (c *Controller) commitLayout(items []GridItem) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.interacting = false
	if !c.editing {
		return ErrNotEditing
	}
	if c.saving {
		return ErrSaveInProgress
	}

	switch c.breakpoint {
	case BreakpointMobile:
		switch st := c.state.(type) {
		case IndependentLayout:
			mobile, changed := ApplyGridLayout(st.MobileWidgets, BreakpointMobile, items)
			if changed {
				c.state = IndependentLayout{Widgets: st.Widgets, MobileWidgets: mobile}
			}
		case LinkedLayout:
			base := c.mobileDraft
			if base == nil {
				base = st.Widgets
			}
			draft, changed := ApplyGridLayout(base, BreakpointMobile, items)
			if changed {
				c.mobileDraft = draft
				c.session.PendingUnlink = true
			}
		}
	default:
		widgets, changed := ApplyGridLayout(c.state.DesktopWidgets(), BreakpointDesktop, items)
		if changed {
			c.setDesktopWidgets(widgets)
		}
	}
	c.recomputeUnsaved()
	return nil
}

// setDesktopWidgets replaces the desktop list, regenerating every mobile rect
// while linked.
func (c *Controller) setDesktopWidgets(widgets []Widget) {
	switch st := c.state.(type) {
	case IndependentLayout:
		c.state = IndependentLayout{Widgets: widgets, MobileWidgets: st.MobileWidgets}
	default:
		c.state = linkedLayout(widgets, nil)
	}
}

func (c *Controller) recomputeUnsaved() {
	if c.session == nil {
		return
	}
	s := c.session
	changed := !sameWidgets(s.OriginalWidgets, c.state.DesktopWidgets(), BreakpointDesktop)
	if st, ok := c.state.(IndependentLayout); ok {
		changed = changed || !sameWidgets(s.OriginalMobileWidgets, st.MobileWidgets, BreakpointMobile)
	}
	if c.mobileDraft != nil {
		changed = changed || !sameWidgets(s.OriginalWidgets, c.mobileDraft, BreakpointMobile)
	}
	s.HasUnsavedChanges = changed
}

// sameWidgets compares id sets, the rect at bp and configs.
func sameWidgets(a, b []Widget, bp Breakpoint) bool {
	if len(a) != len(b) {
		return false
	}
	index := indexWidgets(a)
	for _, w := range b {
		orig, ok := index[w.ID]
		if !ok {
			return false
		}
		origRect, origOK := orig.Layout(bp)
		rect, rectOK := w.Layout(bp)
		if origOK != rectOK || origRect != rect {
			return false
		}
		if !configEqual(orig.Config, w.Config) {
			return false
		}
	}
	return true
}

func configEqual(a, b map[string]any) bool {
	if len(a) == 0 && len(b) == 0 {
		return true
	}
	return reflect.DeepEqual(a, b)
}

// Save persists the edit session. A linked layout with pending mobile edits
// needs the unlink confirmation first.
func (c *Controller) Save(ctx context.Context) (SaveResult, error) {
	c.mu.Lock()
	if !c.editing {
		c.mu.Unlock()
		return SaveSkipped, ErrNotEditing
	}
	if c.saving {
		c.mu.Unlock()
		return SaveSkipped, ErrSaveInProgress
	}
	if !c.session.HasUnsavedChanges {
		c.exitEdit()
		c.mu.Unlock()
		return SaveSkipped, nil
	}
	if c.session.PendingUnlink && c.state.Mode() == MobileLayoutLinked {
		c.showUnlinkConfirmation = true
		c.mu.Unlock()
		return SaveNeedsConfirmation, nil
	}
	next := c.state
	c.saving = true
	c.mu.Unlock()

	if err := c.commitSave(ctx, next); err != nil {
		return SaveSkipped, err
	}
	return SaveCompleted, nil
}

// ConfirmUnlink persists the desktop widgets unchanged and stores the current
// mobile arrangement as the independent mobile layout.
func (c *Controller) ConfirmUnlink(ctx context.Context) error {
	c.mu.Lock()
	if !c.showUnlinkConfirmation {
		c.mu.Unlock()
		return ErrNoPendingConfirmation
	}
	if c.saving {
		c.mu.Unlock()
		return ErrSaveInProgress
	}
	c.showUnlinkConfirmation = false
	widgets := c.state.DesktopWidgets()
	mobile := c.mobileDraft
	if mobile == nil {
		mobile = GenerateMobileLayout(widgets)
	}
	next := IndependentLayout{Widgets: CloneWidgets(widgets), MobileWidgets: CloneWidgets(mobile)}
	c.saving = true
	c.mu.Unlock()

	return c.commitSave(ctx, next)
}

// CancelUnlink closes the unlink confirmation and keeps editing.
func (c *Controller) CancelUnlink() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.showUnlinkConfirmation = false
}

// commitSave persists next; the caller has set saving. On success next
// becomes the state and edit mode exits. On failure the session is kept.
func (c *Controller) commitSave(ctx context.Context, next LayoutState) error {
	var err error
	if c.backend == nil {
		err = errMissingStore
	} else {
		err = c.backend.SaveWidgets(ctx, SnapshotFromState(next))
	}

	c.mu.Lock()
	c.saving = false
	if err == nil {
		c.state = normalizeState(next, nil)
		c.exitEdit()
	}
	c.mu.Unlock()

	if err != nil {
		c.logger.Error("save widgets failed", zap.Error(err))
		c.notifier.Notify(ctx, Notification{Level: NotificationError, Message: saveFailedMessage})
		return fmt.Errorf("dashboard: save widgets: %w", err)
	}
	c.telemetry.Record(ctx, "dashboard.controller.save", map[string]any{
		"mode":  string(next.Mode()),
		"count": len(next.DesktopWidgets()),
	})
	return nil
}

// Cancel restores the layout captured when edit mode started. It is local only.
func (c *Controller) Cancel() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.saving {
		return ErrSaveInProgress
	}
	if !c.editing || c.session == nil {
		c.exitEdit()
		return nil
	}
	s := c.session
	if s.OriginalMode == MobileLayoutIndependent {
		c.state = IndependentLayout{
			Widgets:       CloneWidgets(s.OriginalWidgets),
			MobileWidgets: CloneWidgets(s.OriginalMobileWidgets),
		}
	} else {
		c.state = LinkedLayout{Widgets: CloneWidgets(s.OriginalWidgets)}
	}
	c.exitEdit()
	return nil
}

// RequestRelink shows the relink confirmation. Only valid in independent mode
// and outside edit mode.
func (c *Controller) RequestRelink() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Mode() != MobileLayoutIndependent {
		return ErrNotIndependent
	}
	if c.saving {
		return ErrSaveInProgress
	}
	if c.editing {
		return ErrEditInProgress
	}
	c.showRelinkConfirmation = true
	return nil
}

// ConfirmRelink discards the independent mobile layout, regenerates it from
// the saved desktop widgets and persists immediately. An open edit session
// closes the confirmation with ErrEditInProgress and nothing is written.
func (c *Controller) ConfirmRelink(ctx context.Context) error {
	c.mu.Lock()
	if !c.showRelinkConfirmation {
		c.mu.Unlock()
		return ErrNoPendingConfirmation
	}
	if c.saving {
		c.mu.Unlock()
		return ErrSaveInProgress
	}
	if c.editing {
		c.showRelinkConfirmation = false
		c.mu.Unlock()
		return ErrEditInProgress
	}
	c.showRelinkConfirmation = false
	next := linkedLayout(c.state.DesktopWidgets(), nil)
	c.saving = true
	c.mu.Unlock()

	return c.commitSave(ctx, next)
}

// CancelRelink closes the relink confirmation.
func (c *Controller) CancelRelink() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.showRelinkConfirmation = false
}

// AddWidget places a new widget of the given type at x=0, y=0 of the desktop
// arrangement and shifts the rest down by its height. The width is the
// registry default size for the type clamped to DesktopColumns, not the full
// grid width. Required integrations that exist and are enabled pre-seed the
// widget config.
func (c *Controller) AddWidget(ctx context.Context, widgetType string) (Widget, error) {
	c.mu.Lock()
	if err := c.editableLocked(); err != nil {
		c.mu.Unlock()
		return Widget{}, err
	}
	meta, ok := c.registry.Lookup(widgetType)
	c.mu.Unlock()
	if !ok {
		c.notifier.Notify(ctx, Notification{
			Level:   NotificationError,
			Message: fmt.Sprintf("Unknown widget type %q", widgetType),
		})
		return Widget{}, fmt.Errorf("%w: %s", ErrUnknownWidgetType, widgetType)
	}

	config := map[string]any{}
	if required := meta.Integrations(); len(required) > 0 && c.backend != nil {
		settings, err := c.backend.FetchIntegrations(ctx)
		if err != nil {
			c.logger.Warn("fetch integrations failed", zap.Error(err), zap.String("type", widgetType))
		}
		for _, name := range required {
			if settings.Enabled(name) {
				config[name] = cloneConfig(settings[name])
			}
		}
	}

	size := meta.DefaultSize
	if size.W > DesktopColumns {
		size.W = DesktopColumns
	}
	height := size.H
	if height < 1 {
		height = 1
	}
	widget := Widget{
		ID:     c.newID(),
		Type:   widgetType,
		Config: config,
		Layouts: map[Breakpoint]LayoutRect{
			BreakpointDesktop: {X: 0, Y: 0, W: size.W, H: height},
		},
	}
	mobileTop := widget.Clone()
	mobileTop.Layouts[BreakpointMobile] = LayoutRect{X: 0, Y: 0, W: MobileColumns, H: height}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.editableLocked(); err != nil {
		return Widget{}, err
	}
	existing := c.state.DesktopWidgets()
	hadWidgets := len(existing) > 0
	desktop := append([]Widget{widget}, shiftDown(existing, BreakpointDesktop, height)...)

	switch st := c.state.(type) {
	case IndependentLayout:
		mobile := append([]Widget{mobileTop}, shiftDown(st.MobileWidgets, BreakpointMobile, height)...)
		c.state = IndependentLayout{Widgets: desktop, MobileWidgets: mobile}
	default:
		c.state = linkedLayout(desktop, nil)
		if c.mobileDraft != nil {
			c.mobileDraft = append([]Widget{mobileTop.Clone()}, shiftDown(c.mobileDraft, BreakpointMobile, height)...)
		}
		if c.breakpoint == BreakpointMobile && hadWidgets {
			c.session.PendingUnlink = true
		}
	}
	c.recomputeUnsaved()
	c.telemetry.Record(ctx, "dashboard.widget.add", map[string]any{
		"widget_id": widget.ID,
		"type":      widgetType,
	})
	return widget.Clone(), nil
}

// DeleteWidget removes the widget from every arrangement.
func (c *Controller) DeleteWidget(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.editableLocked(); err != nil {
		return err
	}
	desktop, found := removeWidget(c.state.DesktopWidgets(), id)
	if !found {
		return fmt.Errorf("%w: %s", ErrWidgetNotFound, id)
	}
	switch st := c.state.(type) {
	case IndependentLayout:
		mobile, _ := removeWidget(st.MobileWidgets, id)
		c.state = IndependentLayout{Widgets: desktop, MobileWidgets: mobile}
	default:
		c.state = linkedLayout(desktop, nil)
		if c.mobileDraft != nil {
			c.mobileDraft, _ = removeWidget(c.mobileDraft, id)
		}
		if c.breakpoint == BreakpointMobile {
			c.session.PendingUnlink = true
		}
	}
	delete(c.visibility, id)
	c.recomputeUnsaved()
	c.telemetry.Record(ctx, "dashboard.widget.delete", map[string]any{"widget_id": id})
	return nil
}

func (c *Controller) editableLocked() error {
	if !c.editing || c.session == nil {
		return ErrNotEditing
	}
	if c.saving {
		return ErrSaveInProgress
	}
	return nil
}

// SetWidgetVisibility records whether a widget currently has content to show.
func (c *Controller) SetWidgetVisibility(id string, visible bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.visibility[id] = visible
}

// UpdateWidgetConfig merges config keys into a widget. In edit mode the change
// joins the session; otherwise it is persisted right away.
func (c *Controller) UpdateWidgetConfig(ctx context.Context, id string, config map[string]any) error {
	c.mu.Lock()
	if c.saving {
		c.mu.Unlock()
		return ErrSaveInProgress
	}
	if _, ok := indexWidgets(c.state.DesktopWidgets())[id]; !ok {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrWidgetNotFound, id)
	}
	desktop := mergeConfig(c.state.DesktopWidgets(), id, config)
	switch st := c.state.(type) {
	case IndependentLayout:
		c.state = IndependentLayout{Widgets: desktop, MobileWidgets: mergeConfig(st.MobileWidgets, id, config)}
	default:
		c.state = LinkedLayout{Widgets: desktop}
		if c.mobileDraft != nil {
			c.mobileDraft = mergeConfig(c.mobileDraft, id, config)
		}
	}
	if c.editing {
		c.recomputeUnsaved()
		c.mu.Unlock()
		return nil
	}
	next := c.state
	c.saving = true
	c.mu.Unlock()

	return c.commitSave(ctx, next)
}

func mergeConfig(widgets []Widget, id string, patch map[string]any) []Widget {
	out := CloneWidgets(widgets)
	for i := range out {
		if out[i].ID != id {
			continue
		}
		if out[i].Config == nil {
			out[i].Config = make(map[string]any, len(patch))
		}
		for k, v := range patch {
			out[i].Config[k] = cloneValue(v)
		}
	}
	return out
}

// Listen applies visibility and config-change events published by widgets
// until ctx is done or the bus subscription closes.
func (c *Controller) Listen(ctx context.Context, bus *EventBus) {
	if bus == nil {
		return
	}
	events, cancel := bus.Subscribe()
	defer cancel()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			c.handleEvent(ctx, event)
		}
	}
}

func (c *Controller) handleEvent(ctx context.Context, event Event) {
	switch event.Kind {
	case EventWidgetVisibility:
		if event.Visible != nil {
			c.SetWidgetVisibility(event.WidgetID, *event.Visible)
		}
	case EventWidgetConfig:
		if err := c.UpdateWidgetConfig(ctx, event.WidgetID, event.Config); err != nil {
			c.logger.Warn("apply widget config change failed",
				zap.String("widget_id", event.WidgetID), zap.Error(err))
		}
	}
}

// Cells returns the render contract for the active breakpoint.
func (c *Controller) Cells() []RenderCell {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Cells(CellsInput{
		Widgets:    c.activeWidgets(),
		Breakpoint: c.breakpoint,
		EditMode:   c.editing,
		Visibility: c.visibility,
		Registry:   c.registry,
		Locale:     c.viewer.Locale,
	})
}

func (c *Controller) activeWidgets() []Widget {
	if c.breakpoint == BreakpointDesktop {
		return c.state.DesktopWidgets()
	}
	return c.mobileWidgets()
}

// mobileWidgets is the arrangement shown on the mobile breakpoint.
func (c *Controller) mobileWidgets() []Widget {
	switch st := c.state.(type) {
	case IndependentLayout:
		return st.MobileWidgets
	default:
		if c.mobileDraft != nil {
			return c.mobileDraft
		}
		return st.DesktopWidgets()
	}
}

// State returns a copy of the controller state.
func (c *Controller) State() ControllerState {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := ControllerState{
		Breakpoint:             c.breakpoint,
		Mode:                   c.state.Mode(),
		Editing:                c.editing,
		Loading:                c.loading,
		Saving:                 c.saving,
		ShowDisclaimer:         c.showDisclaimer,
		ShowUnlinkConfirmation: c.showUnlinkConfirmation,
		ShowRelinkConfirmation: c.showRelinkConfirmation,
		Widgets:                CloneWidgets(nonNil(c.state.DesktopWidgets())),
		MobileWidgets:          CloneWidgets(nonNil(c.mobileWidgets())),
	}
	if c.session != nil {
		out.HasUnsavedChanges = c.session.HasUnsavedChanges
		out.PendingUnlink = c.session.PendingUnlink
	}
	return out
}

// Snapshot returns the current layout in wire form.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	snap := SnapshotFromState(c.state)
	snap.Widgets = CloneWidgets(snap.Widgets)
	snap.MobileWidgets = CloneWidgets(snap.MobileWidgets)
	return snap
}
