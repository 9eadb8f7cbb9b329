package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type stubBackend struct {
	mu           sync.Mutex
	snapshot     Snapshot
	fetchErr     error
	saveErr      error
	saved        []Snapshot
	integrations IntegrationSettings
	saveGate     chan struct{}
}

func (b *stubBackend) FetchWidgets(context.Context) (Snapshot, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.snapshot, b.fetchErr
}

func (b *stubBackend) SaveWidgets(_ context.Context, snap Snapshot) error {
	if b.saveGate != nil {
		<-b.saveGate
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.saveErr != nil {
		return b.saveErr
	}
	b.saved = append(b.saved, snap)
	b.snapshot = snap
	return nil
}

func (b *stubBackend) FetchIntegrations(context.Context) (IntegrationSettings, error) {
	return b.integrations, nil
}

func (b *stubBackend) lastSaved(t *testing.T) Snapshot {
	t.Helper()
	b.mu.Lock()
	defer b.mu.Unlock()
	require.NotEmpty(t, b.saved, "expected a save")
	return b.saved[len(b.saved)-1]
}

type recordingNotifier struct {
	mu    sync.Mutex
	notes []Notification
}

func (n *recordingNotifier) Notify(_ context.Context, note Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notes = append(n.notes, note)
}

func (n *recordingNotifier) messages() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.notes))
	for i, note := range n.notes {
		out[i] = note.Message
	}
	return out
}

type controllerFixture struct {
	ctrl     *Controller
	backend  *stubBackend
	notifier *recordingNotifier
	prefs    *InMemoryPreferenceStore
}

func newControllerFixture(t *testing.T, snap Snapshot, bp Breakpoint) controllerFixture {
	t.Helper()
	backend := &stubBackend{snapshot: snap}
	notifier := &recordingNotifier{}
	prefs := NewInMemoryPreferenceStore()
	seq := 0
	ctrl := NewController(ControllerOptions{
		Backend:     backend,
		Notifier:    notifier,
		Preferences: prefs,
		Viewer:      ViewerContext{UserID: "user-1", Locale: "en"},
		Breakpoint:  bp,
		NewID: func() string {
			seq++
			return fmt.Sprintf("widget-new-%d", seq)
		},
	})
	require.NoError(t, ctrl.Load(context.Background()))
	return controllerFixture{ctrl: ctrl, backend: backend, notifier: notifier, prefs: prefs}
}

func threeWidgetSnapshot() Snapshot {
	return Snapshot{Widgets: []Widget{
		desktopWidget("A", 0, 0, 4, 4),
		desktopWidget("B", 4, 0, 4, 2),
		desktopWidget("C", 0, 4, 4, 2),
	}}
}

func mobileRects(widgets []Widget) map[string]LayoutRect {
	out := map[string]LayoutRect{}
	for _, w := range widgets {
		out[w.ID] = w.Layouts[BreakpointMobile]
	}
	return out
}

func TestControllerLoadFailureYieldsEmptyDashboard(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	backend := &stubBackend{fetchErr: errors.New("connection refused")}
	ctrl := NewController(ControllerOptions{Backend: backend, Logger: zap.New(core)})

	require.NoError(t, ctrl.Load(context.Background()))

	state := ctrl.State()
	assert.Empty(t, state.Widgets)
	assert.Equal(t, MobileLayoutLinked, state.Mode)
	assert.False(t, state.Loading)
	assert.Equal(t, 1, logs.FilterMessage("fetch widgets failed, showing empty dashboard").Len())
}

func TestControllerLoadMigratesAndNormalizes(t *testing.T) {
	snap := Snapshot{
		Widgets:          []Widget{{ID: "legacy", Type: "clock", X: intPtr(0), Y: intPtr(0), W: intPtr(6), H: intPtr(3)}},
		MobileLayoutMode: MobileLayoutIndependent,
	}
	fx := newControllerFixture(t, snap, BreakpointDesktop)

	state := fx.ctrl.State()
	assert.Equal(t, MobileLayoutLinked, state.Mode, "independent without mobile widgets reads as linked")
	require.Len(t, state.Widgets, 1)
	assert.Equal(t, LayoutRect{X: 0, Y: 0, W: 6, H: 3}, state.Widgets[0].Layouts[BreakpointDesktop])
	assert.Equal(t, LayoutRect{X: 0, Y: 0, W: 2, H: 3}, state.Widgets[0].Layouts[BreakpointMobile])
}

func TestControllerDragRequiresEditMode(t *testing.T) {
	fx := newControllerFixture(t, threeWidgetSnapshot(), BreakpointDesktop)
	err := fx.ctrl.OnDragStop([]GridItem{{I: "A", X: 8, Y: 0, W: 4, H: 4}})
	assert.ErrorIs(t, err, ErrNotEditing)
}

func TestControllerLayoutChangeIsAdvisory(t *testing.T) {
	fx := newControllerFixture(t, threeWidgetSnapshot(), BreakpointDesktop)
	require.NoError(t, fx.ctrl.EnterEditMode(context.Background()))
	before := fx.ctrl.State()

	fx.ctrl.OnDragStart()
	fx.ctrl.OnLayoutChange([]GridItem{{I: "A", X: 20, Y: 9, W: 4, H: 4}})

	after := fx.ctrl.State()
	assert.Equal(t, before.Widgets, after.Widgets)
	assert.False(t, after.HasUnsavedChanges)
}

func TestControllerDesktopEditRegeneratesAllMobileRects(t *testing.T) {
	fx := newControllerFixture(t, threeWidgetSnapshot(), BreakpointDesktop)
	ctx := context.Background()
	require.NoError(t, fx.ctrl.EnterEditMode(ctx))
	before := mobileRects(fx.ctrl.State().Widgets)
	assert.Equal(t, 0, before["A"].Y)
	assert.Equal(t, 4, before["B"].Y)
	assert.Equal(t, 6, before["C"].Y)

	// C moves up beside A and B drops below it; all three now share one band.
	fx.ctrl.OnDragStart()
	require.NoError(t, fx.ctrl.OnDragStop([]GridItem{
		{I: "A", X: 0, Y: 0, W: 4, H: 4},
		{I: "B", X: 4, Y: 2, W: 4, H: 2},
		{I: "C", X: 4, Y: 0, W: 4, H: 2},
	}))

	state := fx.ctrl.State()
	after := mobileRects(state.Widgets)
	assert.Equal(t, LayoutRect{X: 0, Y: 0, W: 2, H: 4}, after["A"])
	assert.Equal(t, LayoutRect{X: 0, Y: 4, W: 2, H: 2}, after["C"])
	assert.Equal(t, LayoutRect{X: 0, Y: 6, W: 2, H: 2}, after["B"])
	assert.True(t, state.HasUnsavedChanges)
	assert.False(t, state.PendingUnlink, "desktop edits never unlink")
}

func TestControllerMobileEditWhileLinkedUsesDraft(t *testing.T) {
	fx := newControllerFixture(t, threeWidgetSnapshot(), BreakpointMobile)
	ctx := context.Background()
	require.NoError(t, fx.ctrl.EnterEditMode(ctx))
	require.True(t, fx.ctrl.State().ShowDisclaimer)
	require.NoError(t, fx.ctrl.ContinueFromDisclaimer(ctx))
	original := fx.ctrl.State().Widgets

	require.NoError(t, fx.ctrl.OnResizeStop([]GridItem{{I: "C", X: 0, Y: 0, W: 2, H: 2}}))

	state := fx.ctrl.State()
	assert.True(t, state.PendingUnlink)
	assert.True(t, state.HasUnsavedChanges)
	assert.Equal(t, original, state.Widgets, "linked desktop widgets are untouched by mobile edits")
	assert.Equal(t, LayoutRect{X: 0, Y: 0, W: 2, H: 2}, mobileRects(state.MobileWidgets)["C"])
}

func TestControllerConfigChangeNeverSetsPendingUnlink(t *testing.T) {
	fx := newControllerFixture(t, threeWidgetSnapshot(), BreakpointMobile)
	ctx := context.Background()
	require.NoError(t, fx.ctrl.EnterEditMode(ctx))
	require.NoError(t, fx.ctrl.DismissDisclaimer(ctx))

	require.NoError(t, fx.ctrl.UpdateWidgetConfig(ctx, "B", map[string]any{"title": "Renamed"}))

	state := fx.ctrl.State()
	assert.False(t, state.PendingUnlink)
	assert.True(t, state.HasUnsavedChanges)
	assert.Empty(t, fx.backend.saved, "config changes in edit mode wait for save")
}

func TestControllerDisclaimerDismissalPersists(t *testing.T) {
	fx := newControllerFixture(t, threeWidgetSnapshot(), BreakpointMobile)
	ctx := context.Background()
	require.NoError(t, fx.ctrl.EnterEditMode(ctx))
	require.NoError(t, fx.ctrl.DismissDisclaimer(ctx))
	assert.True(t, fx.ctrl.State().Editing)

	prefs, err := fx.prefs.Preferences(ctx, ViewerContext{UserID: "user-1"})
	require.NoError(t, err)
	assert.True(t, prefs.MobileDisclaimerDismissed)

	require.NoError(t, fx.ctrl.Cancel())
	require.NoError(t, fx.ctrl.EnterEditMode(ctx))
	state := fx.ctrl.State()
	assert.False(t, state.ShowDisclaimer)
	assert.True(t, state.Editing)
}

func TestControllerContinueWithoutDisclaimer(t *testing.T) {
	fx := newControllerFixture(t, threeWidgetSnapshot(), BreakpointDesktop)
	assert.ErrorIs(t, fx.ctrl.ContinueFromDisclaimer(context.Background()), ErrNoPendingConfirmation)
	fx.ctrl.CancelDisclaimer()
	assert.False(t, fx.ctrl.State().Editing)
}

func TestControllerSaveWithPendingUnlinkNeedsConfirmation(t *testing.T) {
	fx := newControllerFixture(t, threeWidgetSnapshot(), BreakpointMobile)
	ctx := context.Background()
	require.NoError(t, fx.ctrl.EnterEditMode(ctx))
	require.NoError(t, fx.ctrl.ContinueFromDisclaimer(ctx))
	require.NoError(t, fx.ctrl.OnDragStop([]GridItem{{I: "C", X: 0, Y: 0, W: 2, H: 2}}))
	desktopBefore := fx.ctrl.State().Widgets

	result, err := fx.ctrl.Save(ctx)
	require.NoError(t, err)
	assert.Equal(t, SaveNeedsConfirmation, result)
	assert.True(t, fx.ctrl.State().ShowUnlinkConfirmation)
	assert.Empty(t, fx.backend.saved)

	require.NoError(t, fx.ctrl.ConfirmUnlink(ctx))

	saved := fx.backend.lastSaved(t)
	assert.Equal(t, MobileLayoutIndependent, saved.MobileLayoutMode)
	require.Len(t, saved.MobileWidgets, 3)
	assert.Equal(t, LayoutRect{X: 0, Y: 0, W: 2, H: 2}, mobileRects(saved.MobileWidgets)["C"])
	assert.Equal(t, desktopBefore, saved.Widgets)

	state := fx.ctrl.State()
	assert.False(t, state.Editing)
	assert.Equal(t, MobileLayoutIndependent, state.Mode)
	assert.False(t, state.PendingUnlink)
}

func TestControllerCancelUnlinkKeepsEditing(t *testing.T) {
	fx := newControllerFixture(t, threeWidgetSnapshot(), BreakpointMobile)
	ctx := context.Background()
	require.NoError(t, fx.ctrl.EnterEditMode(ctx))
	require.NoError(t, fx.ctrl.ContinueFromDisclaimer(ctx))
	require.NoError(t, fx.ctrl.OnDragStop([]GridItem{{I: "A", X: 0, Y: 8, W: 2, H: 4}}))
	_, err := fx.ctrl.Save(ctx)
	require.NoError(t, err)

	fx.ctrl.CancelUnlink()

	state := fx.ctrl.State()
	assert.True(t, state.Editing)
	assert.True(t, state.PendingUnlink)
	assert.False(t, state.ShowUnlinkConfirmation)
	assert.ErrorIs(t, fx.ctrl.ConfirmUnlink(ctx), ErrNoPendingConfirmation)
}

func TestControllerSaveLinked(t *testing.T) {
	fx := newControllerFixture(t, threeWidgetSnapshot(), BreakpointDesktop)
	ctx := context.Background()
	require.NoError(t, fx.ctrl.EnterEditMode(ctx))
	require.NoError(t, fx.ctrl.OnDragStop([]GridItem{{I: "B", X: 10, Y: 0, W: 4, H: 2}}))

	result, err := fx.ctrl.Save(ctx)
	require.NoError(t, err)
	assert.Equal(t, SaveCompleted, result)

	saved := fx.backend.lastSaved(t)
	assert.Equal(t, MobileLayoutLinked, saved.MobileLayoutMode)
	assert.Empty(t, saved.MobileWidgets)
	assert.False(t, fx.ctrl.State().Editing)
}

func TestControllerSaveWithoutChangesSkips(t *testing.T) {
	fx := newControllerFixture(t, threeWidgetSnapshot(), BreakpointDesktop)
	ctx := context.Background()
	_, err := fx.ctrl.Save(ctx)
	assert.ErrorIs(t, err, ErrNotEditing)

	require.NoError(t, fx.ctrl.EnterEditMode(ctx))
	assert.False(t, fx.ctrl.State().CanSave())
	result, err := fx.ctrl.Save(ctx)
	require.NoError(t, err)
	assert.Equal(t, SaveSkipped, result)
	assert.Empty(t, fx.backend.saved)
	assert.False(t, fx.ctrl.State().Editing)
}

func TestControllerSaveFailureKeepsSession(t *testing.T) {
	fx := newControllerFixture(t, threeWidgetSnapshot(), BreakpointDesktop)
	ctx := context.Background()
	require.NoError(t, fx.ctrl.EnterEditMode(ctx))
	require.NoError(t, fx.ctrl.DeleteWidget(ctx, "B"))
	fx.backend.saveErr = errors.New("503")

	_, err := fx.ctrl.Save(ctx)
	require.Error(t, err)

	state := fx.ctrl.State()
	assert.True(t, state.Editing)
	assert.True(t, state.HasUnsavedChanges)
	assert.False(t, state.Saving)
	assert.Len(t, state.Widgets, 2)
	assert.Equal(t, []string{saveFailedMessage}, fx.notifier.messages())

	fx.backend.saveErr = nil
	result, err := fx.ctrl.Save(ctx)
	require.NoError(t, err)
	assert.Equal(t, SaveCompleted, result)
}

func TestControllerSaveInFlightGatesControls(t *testing.T) {
	fx := newControllerFixture(t, threeWidgetSnapshot(), BreakpointDesktop)
	ctx := context.Background()
	require.NoError(t, fx.ctrl.EnterEditMode(ctx))
	require.NoError(t, fx.ctrl.DeleteWidget(ctx, "C"))
	fx.backend.saveGate = make(chan struct{})

	done := make(chan error, 1)
	go func() {
		_, err := fx.ctrl.Save(ctx)
		done <- err
	}()
	require.Eventually(t, func() bool { return fx.ctrl.State().Saving }, time.Second, time.Millisecond)

	_, err := fx.ctrl.Save(ctx)
	assert.ErrorIs(t, err, ErrSaveInProgress)
	assert.ErrorIs(t, fx.ctrl.Cancel(), ErrSaveInProgress)
	assert.ErrorIs(t, fx.ctrl.DeleteWidget(ctx, "A"), ErrSaveInProgress)

	close(fx.backend.saveGate)
	require.NoError(t, <-done)
	assert.False(t, fx.ctrl.State().Saving)
}

func TestControllerCancelRestoresExactly(t *testing.T) {
	fx := newControllerFixture(t, threeWidgetSnapshot(), BreakpointDesktop)
	ctx := context.Background()
	before := fx.ctrl.State().Widgets
	require.NoError(t, fx.ctrl.EnterEditMode(ctx))

	_, err := fx.ctrl.AddWidget(ctx, "weather")
	require.NoError(t, err)
	require.NoError(t, fx.ctrl.DeleteWidget(ctx, "A"))
	require.NoError(t, fx.ctrl.OnDragStop([]GridItem{{I: "C", X: 12, Y: 1, W: 6, H: 6}}))
	require.NoError(t, fx.ctrl.UpdateWidgetConfig(ctx, "B", map[string]any{"title": "x"}))
	fx.ctrl.OnBreakpointChange(BreakpointMobile)
	require.NoError(t, fx.ctrl.OnDragStop([]GridItem{{I: "B", X: 0, Y: 20, W: 2, H: 1}}))

	require.NoError(t, fx.ctrl.Cancel())

	state := fx.ctrl.State()
	assert.Equal(t, before, state.Widgets)
	assert.False(t, state.Editing)
	assert.False(t, state.PendingUnlink)
	assert.Equal(t, MobileLayoutLinked, state.Mode)
	assert.Empty(t, fx.backend.saved)
}

func TestControllerCancelRestoresIndependentMobile(t *testing.T) {
	snap := threeWidgetSnapshot()
	snap.MobileLayoutMode = MobileLayoutIndependent
	snap.MobileWidgets = GenerateMobileLayout(snap.Widgets)
	fx := newControllerFixture(t, snap, BreakpointMobile)
	ctx := context.Background()
	before := fx.ctrl.State().MobileWidgets

	require.NoError(t, fx.ctrl.EnterEditMode(ctx))
	require.True(t, fx.ctrl.State().Editing, "no disclaimer when already independent")
	require.NoError(t, fx.ctrl.OnDragStop([]GridItem{{I: "A", X: 0, Y: 10, W: 2, H: 1}}))
	assert.True(t, fx.ctrl.State().HasUnsavedChanges)
	assert.False(t, fx.ctrl.State().PendingUnlink)

	require.NoError(t, fx.ctrl.Cancel())
	assert.Equal(t, before, fx.ctrl.State().MobileWidgets)
}

func TestControllerIndependentDesktopEditLeavesMobile(t *testing.T) {
	snap := threeWidgetSnapshot()
	snap.MobileLayoutMode = MobileLayoutIndependent
	snap.MobileWidgets = GenerateMobileLayout(snap.Widgets)
	fx := newControllerFixture(t, snap, BreakpointDesktop)
	ctx := context.Background()
	mobileBefore := fx.ctrl.State().MobileWidgets

	require.NoError(t, fx.ctrl.EnterEditMode(ctx))
	require.NoError(t, fx.ctrl.OnDragStop([]GridItem{{I: "C", X: 4, Y: 0, W: 4, H: 2}}))
	result, err := fx.ctrl.Save(ctx)
	require.NoError(t, err)
	assert.Equal(t, SaveCompleted, result)

	saved := fx.backend.lastSaved(t)
	assert.Equal(t, MobileLayoutIndependent, saved.MobileLayoutMode)
	assert.Equal(t, mobileBefore, saved.MobileWidgets)
}

func TestControllerAddWidgetPlacesAtTop(t *testing.T) {
	fx := newControllerFixture(t, threeWidgetSnapshot(), BreakpointDesktop)
	ctx := context.Background()
	_, err := fx.ctrl.AddWidget(ctx, "clock")
	assert.ErrorIs(t, err, ErrNotEditing)

	require.NoError(t, fx.ctrl.EnterEditMode(ctx))
	added, err := fx.ctrl.AddWidget(ctx, "clock")
	require.NoError(t, err)
	assert.Equal(t, "widget-new-1", added.ID)
	assert.Equal(t, LayoutRect{X: 0, Y: 0, W: 4, H: 2}, added.Layouts[BreakpointDesktop])

	state := fx.ctrl.State()
	require.Len(t, state.Widgets, 4)
	assert.Equal(t, "widget-new-1", state.Widgets[0].ID)
	desktop := map[string]LayoutRect{}
	for _, w := range state.Widgets {
		desktop[w.ID] = w.Layouts[BreakpointDesktop]
	}
	assert.Equal(t, 2, desktop["A"].Y)
	assert.Equal(t, 2, desktop["B"].Y)
	assert.Equal(t, 6, desktop["C"].Y)
	assert.Equal(t, 0, mobileRects(state.Widgets)["widget-new-1"].Y)
	assert.True(t, state.HasUnsavedChanges)
	assert.False(t, state.PendingUnlink)
}

func TestControllerAddFirstWidgetOnMobileDoesNotUnlink(t *testing.T) {
	fx := newControllerFixture(t, Snapshot{}, BreakpointMobile)
	ctx := context.Background()
	require.NoError(t, fx.ctrl.EnterEditMode(ctx))
	require.NoError(t, fx.ctrl.ContinueFromDisclaimer(ctx))

	_, err := fx.ctrl.AddWidget(ctx, "clock")
	require.NoError(t, err)

	state := fx.ctrl.State()
	assert.False(t, state.PendingUnlink)
	assert.True(t, state.HasUnsavedChanges)
	require.Len(t, state.MobileWidgets, 1)

	_, err = fx.ctrl.AddWidget(ctx, "weather")
	require.NoError(t, err)
	assert.True(t, fx.ctrl.State().PendingUnlink, "adding beside existing widgets on mobile unlinks")
}

func TestControllerAddUnknownTypeDoesNotMutate(t *testing.T) {
	fx := newControllerFixture(t, threeWidgetSnapshot(), BreakpointDesktop)
	ctx := context.Background()
	require.NoError(t, fx.ctrl.EnterEditMode(ctx))
	before := fx.ctrl.State()

	_, err := fx.ctrl.AddWidget(ctx, "teleporter")

	assert.ErrorIs(t, err, ErrUnknownWidgetType)
	assert.Equal(t, before, fx.ctrl.State())
	assert.Len(t, fx.notifier.messages(), 1)
}

func TestControllerAddSeedsEnabledIntegrations(t *testing.T) {
	fx := newControllerFixture(t, Snapshot{}, BreakpointDesktop)
	fx.backend.integrations = IntegrationSettings{
		"sonarr": {"url": "http://sonarr.lan", "apiKey": "k"},
		"radarr": {"url": "http://radarr.lan", "enabled": false},
	}
	ctx := context.Background()
	require.NoError(t, fx.ctrl.EnterEditMode(ctx))

	added, err := fx.ctrl.AddWidget(ctx, "release-calendar")
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"url": "http://sonarr.lan", "apiKey": "k"}, added.Config["sonarr"])
	assert.NotContains(t, added.Config, "radarr")
}

func TestControllerAddInIndependentModeStacksMobile(t *testing.T) {
	snap := threeWidgetSnapshot()
	snap.MobileLayoutMode = MobileLayoutIndependent
	snap.MobileWidgets = GenerateMobileLayout(snap.Widgets)
	fx := newControllerFixture(t, snap, BreakpointMobile)
	ctx := context.Background()
	require.NoError(t, fx.ctrl.EnterEditMode(ctx))

	added, err := fx.ctrl.AddWidget(ctx, "clock")
	require.NoError(t, err)

	mobile := mobileRects(fx.ctrl.State().MobileWidgets)
	assert.Equal(t, LayoutRect{X: 0, Y: 0, W: 2, H: 2}, mobile[added.ID])
	assert.Equal(t, 2, mobile["A"].Y)
	assert.False(t, fx.ctrl.State().PendingUnlink)
}

func TestControllerDeleteOnMobileLinkedSetsPendingUnlink(t *testing.T) {
	fx := newControllerFixture(t, threeWidgetSnapshot(), BreakpointMobile)
	ctx := context.Background()
	require.NoError(t, fx.ctrl.EnterEditMode(ctx))
	require.NoError(t, fx.ctrl.ContinueFromDisclaimer(ctx))

	require.NoError(t, fx.ctrl.DeleteWidget(ctx, "A"))

	state := fx.ctrl.State()
	assert.True(t, state.PendingUnlink)
	require.Len(t, state.Widgets, 2)
	mobile := mobileRects(state.Widgets)
	assert.Equal(t, 0, mobile["B"].Y, "remaining widgets are restacked")
	assert.ErrorIs(t, fx.ctrl.DeleteWidget(ctx, "A"), ErrWidgetNotFound)
}

func TestControllerDeleteOnDesktopDoesNotUnlink(t *testing.T) {
	fx := newControllerFixture(t, threeWidgetSnapshot(), BreakpointDesktop)
	ctx := context.Background()
	require.NoError(t, fx.ctrl.EnterEditMode(ctx))
	require.NoError(t, fx.ctrl.DeleteWidget(ctx, "B"))
	state := fx.ctrl.State()
	assert.False(t, state.PendingUnlink)
	assert.True(t, state.HasUnsavedChanges)
}

func TestControllerRelink(t *testing.T) {
	snap := threeWidgetSnapshot()
	snap.MobileLayoutMode = MobileLayoutIndependent
	snap.MobileWidgets = []Widget{
		{ID: "C", Type: "clock", Layouts: map[Breakpoint]LayoutRect{BreakpointMobile: {X: 0, Y: 0, W: 2, H: 2}}},
		{ID: "A", Type: "clock", Layouts: map[Breakpoint]LayoutRect{BreakpointMobile: {X: 0, Y: 2, W: 2, H: 4}}},
	}
	fx := newControllerFixture(t, snap, BreakpointMobile)
	ctx := context.Background()

	assert.ErrorIs(t, fx.ctrl.ConfirmRelink(ctx), ErrNoPendingConfirmation)
	require.NoError(t, fx.ctrl.RequestRelink())
	assert.True(t, fx.ctrl.State().ShowRelinkConfirmation)
	fx.ctrl.CancelRelink()
	assert.False(t, fx.ctrl.State().ShowRelinkConfirmation)

	require.NoError(t, fx.ctrl.RequestRelink())
	require.NoError(t, fx.ctrl.ConfirmRelink(ctx))

	saved := fx.backend.lastSaved(t)
	assert.Equal(t, MobileLayoutLinked, saved.MobileLayoutMode)
	assert.Empty(t, saved.MobileWidgets)
	state := fx.ctrl.State()
	assert.Equal(t, MobileLayoutLinked, state.Mode)
	assert.Equal(t, []string{"A", "B", "C"}, mobileOrder(GenerateMobileLayout(state.Widgets)))
	assert.Equal(t, 4, mobileRects(state.MobileWidgets)["B"].Y)
	assert.ErrorIs(t, fx.ctrl.RequestRelink(), ErrNotIndependent)
}

func TestControllerRelinkRejectedWhileEditing(t *testing.T) {
	snap := threeWidgetSnapshot()
	snap.MobileLayoutMode = MobileLayoutIndependent
	snap.MobileWidgets = GenerateMobileLayout(snap.Widgets)
	fx := newControllerFixture(t, snap, BreakpointMobile)
	ctx := context.Background()

	require.NoError(t, fx.ctrl.RequestRelink())
	require.NoError(t, fx.ctrl.EnterEditMode(ctx))
	require.True(t, fx.ctrl.State().Editing)
	require.NoError(t, fx.ctrl.DeleteWidget(ctx, "B"))

	assert.ErrorIs(t, fx.ctrl.ConfirmRelink(ctx), ErrEditInProgress)
	assert.Empty(t, fx.backend.saved, "unsaved edits must not be persisted by relink")
	state := fx.ctrl.State()
	assert.False(t, state.ShowRelinkConfirmation)
	assert.True(t, state.Editing)
	assert.Equal(t, MobileLayoutIndependent, state.Mode)
	assert.ErrorIs(t, fx.ctrl.RequestRelink(), ErrEditInProgress)

	require.NoError(t, fx.ctrl.Cancel())
	require.NoError(t, fx.ctrl.RequestRelink())
	require.NoError(t, fx.ctrl.ConfirmRelink(ctx))
	saved := fx.backend.lastSaved(t)
	assert.Equal(t, MobileLayoutLinked, saved.MobileLayoutMode)
	assert.Len(t, saved.Widgets, 3)
}

func TestControllerVisibilityCollapsePreservesSlots(t *testing.T) {
	fx := newControllerFixture(t, threeWidgetSnapshot(), BreakpointDesktop)
	ctx := context.Background()
	before := fx.ctrl.Cells()

	fx.ctrl.SetWidgetVisibility("A", false)
	collapsed := fx.ctrl.Cells()

	require.Len(t, collapsed, len(before))
	for i := range before {
		assert.Equal(t, before[i].ID, collapsed[i].ID)
		assert.Equal(t, before[i].Y, collapsed[i].Y)
		if collapsed[i].ID == "A" {
			assert.Equal(t, CollapsedHeight, collapsed[i].H)
			assert.True(t, collapsed[i].Collapsed)
		} else {
			assert.Equal(t, before[i].H, collapsed[i].H)
		}
	}

	require.NoError(t, fx.ctrl.EnterEditMode(ctx))
	for _, cell := range fx.ctrl.Cells() {
		if cell.ID == "A" {
			assert.Equal(t, float64(4), cell.H)
			assert.False(t, cell.Collapsed)
			assert.True(t, cell.EditMode)
		}
	}
}

func TestControllerConfigChangeOutsideEditPersists(t *testing.T) {
	fx := newControllerFixture(t, threeWidgetSnapshot(), BreakpointDesktop)
	ctx := context.Background()

	require.NoError(t, fx.ctrl.UpdateWidgetConfig(ctx, "A", map[string]any{"alignment": "center"}))

	saved := fx.backend.lastSaved(t)
	assert.Equal(t, "center", saved.Widgets[0].Config["alignment"])
	assert.ErrorIs(t, fx.ctrl.UpdateWidgetConfig(ctx, "ghost", nil), ErrWidgetNotFound)
}

func TestControllerListenAppliesBusEvents(t *testing.T) {
	fx := newControllerFixture(t, threeWidgetSnapshot(), BreakpointDesktop)
	bus := NewEventBus()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		fx.ctrl.Listen(ctx, bus)
		close(done)
	}()
	require.Eventually(t, func() bool {
		bus.mu.RLock()
		defer bus.mu.RUnlock()
		return len(bus.subs) == 1
	}, time.Second, time.Millisecond)

	bus.Publish(VisibilityEvent("B", false))
	bus.Publish(ConfigEvent("C", map[string]any{"title": "From widget"}))

	require.Eventually(t, func() bool {
		for _, cell := range fx.ctrl.Cells() {
			if cell.ID == "B" && cell.Collapsed {
				return true
			}
		}
		return false
	}, time.Second, time.Millisecond)
	require.Eventually(t, func() bool {
		fx.backend.mu.Lock()
		defer fx.backend.mu.Unlock()
		return len(fx.backend.saved) == 1
	}, time.Second, time.Millisecond)

	cancel()
	<-done
}

func TestControllerGridAdapterContract(t *testing.T) {
	var adapter GridAdapter = NewController(ControllerOptions{})
	adapter.OnBreakpointChange("tablet")
	adapter.OnBreakpointChange(BreakpointMobile)
	assert.Equal(t, BreakpointMobile, adapter.(*Controller).State().Breakpoint)
}
