package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/goliatone/go-homelab/components/dashboard"
	"github.com/goliatone/go-homelab/components/dashboard/commands"
)

type stubCommander[T any] struct {
	last  T
	calls int
	err   error
}

func (s *stubCommander[T]) Execute(ctx context.Context, msg T) error {
	s.last = msg
	s.calls++
	return s.err
}

func desktop(id, widgetType string, x, y, w, h int) dashboard.Widget {
	return dashboard.Widget{
		ID:      id,
		Type:    widgetType,
		Layouts: map[dashboard.Breakpoint]dashboard.LayoutRect{dashboard.BreakpointDesktop: {X: x, Y: y, W: w, H: h}},
	}
}

func newServer(t *testing.T) (*httptest.Server, *dashboard.Service) {
	t.Helper()
	service := dashboard.NewService(dashboard.Options{})
	srv := httptest.NewServer(NewHandlers(service, nil).Mux())
	t.Cleanup(srv.Close)
	return srv, service
}

func doJSON(t *testing.T, method, url string, payload any) *http.Response {
	t.Helper()
	var body bytes.Buffer
	if payload != nil {
		if err := json.NewEncoder(&body).Encode(payload); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &body)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestGetWidgetsEmptyDashboard(t *testing.T) {
	srv, _ := newServer(t)
	resp := doJSON(t, http.MethodGet, srv.URL+"/widgets", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var snap dashboard.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(snap.Widgets) != 0 || snap.MobileLayoutMode != dashboard.MobileLayoutLinked {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
}

func TestPutThenGetWidgetsRoundTrip(t *testing.T) {
	srv, _ := newServer(t)
	snap := dashboard.Snapshot{
		Widgets:          []dashboard.Widget{desktop("a", "clock", 0, 0, 6, 2), desktop("b", "clock", 6, 0, 6, 3)},
		MobileLayoutMode: dashboard.MobileLayoutLinked,
	}
	resp := doJSON(t, http.MethodPut, srv.URL+"/widgets", snap)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}
	resp = doJSON(t, http.MethodGet, srv.URL+"/widgets", nil)
	var got dashboard.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got.Widgets) != 2 {
		t.Fatalf("expected 2 widgets, got %d", len(got.Widgets))
	}
	if _, ok := got.Widgets[0].Layout(dashboard.BreakpointMobile); !ok {
		t.Fatalf("expected generated mobile rect on read")
	}
}

func TestPutWidgetsRejectsInvalidSnapshot(t *testing.T) {
	srv, _ := newServer(t)
	snap := dashboard.Snapshot{Widgets: []dashboard.Widget{desktop("a", "clock", 0, 0, 1, 1), desktop("a", "clock", 1, 0, 1, 1)}}
	resp := doJSON(t, http.MethodPut, srv.URL+"/widgets", snap)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	var body errorBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error == "" {
		t.Fatalf("expected error message")
	}
}

func TestPutWidgetsRejectsBrokenLayouts(t *testing.T) {
	srv, service := newServer(t)
	cases := map[string]dashboard.Snapshot{
		"negative rect": {Widgets: []dashboard.Widget{desktop("a", "clock", -3, -10, -4, -2)}},
		"mobile ids differ": {
			Widgets:          []dashboard.Widget{desktop("a", "clock", 0, 0, 6, 2), desktop("b", "clock", 6, 0, 6, 2)},
			MobileLayoutMode: dashboard.MobileLayoutIndependent,
			MobileWidgets:    []dashboard.Widget{desktop("ghost", "clock", 0, 0, 2, 2)},
		},
	}
	for name, snap := range cases {
		t.Run(name, func(t *testing.T) {
			resp := doJSON(t, http.MethodPut, srv.URL+"/widgets", snap)
			if resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", resp.StatusCode)
			}
		})
	}
	stored, err := service.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(stored.Widgets) != 0 {
		t.Fatalf("rejected layouts must not be stored, got %+v", stored.Widgets)
	}
}

func TestPutWidgetsRejectsMalformedJSON(t *testing.T) {
	api := &Handlers{Save: &stubCommander[commands.SaveSnapshotInput]{}}
	req := httptest.NewRequest(http.MethodPut, "/widgets", strings.NewReader("{"))
	rec := httptest.NewRecorder()
	api.HandlePutWidgets(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestIntegrationsRoundTrip(t *testing.T) {
	srv, _ := newServer(t)
	settings := dashboard.IntegrationSettings{"sonarr": {"url": "http://sonarr.lan", "enabled": true}}
	resp := doJSON(t, http.MethodPut, srv.URL+"/integrations", settings)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}
	resp = doJSON(t, http.MethodGet, srv.URL+"/integrations", nil)
	var got dashboard.IntegrationSettings
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !got.Enabled("sonarr") {
		t.Fatalf("expected sonarr enabled, got %+v", got)
	}
}

func TestWidgetTypesEndpoint(t *testing.T) {
	srv, _ := newServer(t)
	resp := doJSON(t, http.MethodGet, srv.URL+"/widget-types?locale=en", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var types []dashboard.WidgetMetadata
	if err := json.NewDecoder(resp.Body).Decode(&types); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(types) == 0 {
		t.Fatalf("expected default widget catalog")
	}
}

func TestMobilePreviewEndpoint(t *testing.T) {
	srv, _ := newServer(t)
	payload := map[string]any{"widgets": []dashboard.Widget{desktop("b", "clock", 6, 0, 6, 3), desktop("a", "clock", 0, 0, 6, 2)}}
	resp := doJSON(t, http.MethodPost, srv.URL+"/layout/mobile", payload)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var body struct {
		Widgets []dashboard.Widget `json:"widgets"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Widgets) != 2 || body.Widgets[0].ID != "a" {
		t.Fatalf("unexpected mobile order %+v", body.Widgets)
	}
}

func TestHandleRefreshWidget(t *testing.T) {
	refresh := &stubCommander[commands.RefreshWidgetInput]{}
	api := &Handlers{Refresh: refresh}
	payload := commands.RefreshWidgetInput{Event: dashboard.WidgetEvent{WidgetID: "widget-clock", Reason: "manual"}}
	buf, _ := json.Marshal(payload)
	req := httptest.NewRequest(http.MethodPost, "/widgets/refresh", bytes.NewReader(buf))
	rec := httptest.NewRecorder()
	api.HandleRefreshWidget(rec, req)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
	if refresh.last.Event.WidgetID != "widget-clock" {
		t.Fatalf("expected widget id propagation")
	}
}

func TestStatusFor(t *testing.T) {
	cases := map[error]int{
		dashboard.ErrInvalidSnapshot:   http.StatusBadRequest,
		dashboard.ErrUnknownWidgetType: http.StatusBadRequest,
		dashboard.ErrNotFound:          http.StatusNotFound,
		context.DeadlineExceeded:       http.StatusInternalServerError,
	}
	for err, want := range cases {
		if got := StatusFor(err); got != want {
			t.Fatalf("StatusFor(%v) = %d, want %d", err, got, want)
		}
	}
}

func TestEventsStreamOverWebSocket(t *testing.T) {
	bus := dashboard.NewEventBus()
	service := dashboard.NewService(dashboard.Options{RefreshHook: bus})
	api := NewHandlers(service, nil)
	api.Events = bus
	srv := httptest.NewServer(api.Mux())
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/events", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// The subscription is registered after the upgrade; keep saving until an event arrives.
	done := make(chan dashboard.Event, 1)
	go func() {
		var event dashboard.Event
		if err := conn.ReadJSON(&event); err == nil {
			done <- event
		}
	}()
	snap := dashboard.Snapshot{Widgets: []dashboard.Widget{desktop("a", "clock", 0, 0, 6, 2)}}
	deadline := time.After(2 * time.Second)
	for {
		doJSON(t, http.MethodPut, srv.URL+"/widgets", snap)
		select {
		case event := <-done:
			if event.Kind != dashboard.EventDashboardChanged || event.Change == nil || event.Change.Reason != "save" {
				t.Fatalf("unexpected event %+v", event)
			}
			return
		case <-deadline:
			t.Fatalf("timed out waiting for event")
		case <-time.After(50 * time.Millisecond):
		}
	}
}
