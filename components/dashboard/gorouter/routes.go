package gorouter

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	router "github.com/goliatone/go-router"

	"github.com/goliatone/go-homelab/components/dashboard"
	"github.com/goliatone/go-homelab/components/dashboard/commands"
	"github.com/goliatone/go-homelab/components/dashboard/httpapi"
	"github.com/goliatone/go-homelab/components/dashboard/queries"
)

// ViewerResolver converts a router.Context into a dashboard.ViewerContext.
type ViewerResolver func(router.Context) dashboard.ViewerContext

// Config wires go-router with the dashboard service, page renderer and event bus.
type Config[T any] struct {
	Router         router.Router[T]
	Service        *dashboard.Service
	Renderer       dashboard.Renderer
	Bus            *dashboard.EventBus
	Telemetry      commands.Telemetry
	ViewerResolver ViewerResolver
	BasePath       string
	Routes         RouteConfig
	Page           dashboard.PageOptions
}

// RouteConfig customizes the relative paths used for dashboard endpoints.
type RouteConfig struct {
	HTML          string
	Widgets       string
	Integrations  string
	WidgetTypes   string
	MobilePreview string
	Refresh       string
	Preferences   string
	WebSocket     string
}

// Register mounts dashboard routes (HTML, REST, WebSocket) on a go-router router.
func Register[T any](cfg Config[T]) error {
	if cfg.Router == nil {
		return errors.New("gorouter: router is required")
	}
	if cfg.Service == nil {
		return errors.New("gorouter: service is required")
	}
	routes := defaultRouteConfig(cfg.Routes)
	base := cfg.BasePath
	viewerResolver := cfg.ViewerResolver
	if viewerResolver == nil {
		viewerResolver = defaultViewerResolver
	}

	group := cfg.Router
	if base != "" {
		group = cfg.Router.Group(base)
	}

	if cfg.Renderer != nil {
		page := cfg.Page
		if page.EventsURL == "" && cfg.Bus != nil {
			page.EventsURL = base + routes.WebSocket
		}
		group.Get(routes.HTML, router.WrapHandler(func(ctx router.Context) error {
			return renderPage(ctx, cfg.Service, cfg.Renderer, viewerResolver(ctx), page)
		}))
	}

	registerAPI(group, httpapi.NewHandlers(cfg.Service, cfg.Telemetry), cfg.Service, cfg.Telemetry, viewerResolver, routes)

	if cfg.Bus != nil {
		registerWebSocket(group, cfg.Bus, routes.WebSocket)
	}
	return nil
}

func renderPage(ctx router.Context, service *dashboard.Service, renderer dashboard.Renderer, viewer dashboard.ViewerContext, page dashboard.PageOptions) error {
	snap, err := service.Snapshot(ctx.Context())
	if err != nil {
		return respondError(ctx, err)
	}
	bp := dashboard.Breakpoint(strings.ToLower(ctx.Query("bp")))
	if !bp.Valid() {
		bp = dashboard.BreakpointDesktop
	}
	widgets := snap.Widgets
	if bp == dashboard.BreakpointMobile && snap.MobileLayoutMode == dashboard.MobileLayoutIndependent {
		widgets = snap.MobileWidgets
	}
	cells := dashboard.Cells(dashboard.CellsInput{
		Widgets:    widgets,
		Breakpoint: bp,
		Registry:   service.Registry(),
		Locale:     viewer.Locale,
	})
	var buf bytes.Buffer
	if _, err := dashboard.RenderPage(renderer, cells, bp, snap.MobileLayoutMode, viewer.Locale, page, &buf); err != nil {
		return respondError(ctx, err)
	}
	ctx.SetHeader("Content-Type", "text/html; charset=utf-8")
	return ctx.Send(buf.Bytes())
}

func registerAPI[T any](r router.Router[T], api *httpapi.Handlers, service *dashboard.Service, telemetry commands.Telemetry, resolver ViewerResolver, routes RouteConfig) {
	r.Get(routes.Widgets, router.WrapHandler(func(ctx router.Context) error {
		snap, err := api.Snapshot.Query(ctx.Context(), queries.SnapshotInput{})
		if err != nil {
			return respondError(ctx, err)
		}
		return ctx.JSON(http.StatusOK, snap)
	}))

	r.Put(routes.Widgets, router.WrapHandler(func(ctx router.Context) error {
		var payload dashboard.Snapshot
		if err := json.Unmarshal(ctx.Body(), &payload); err != nil {
			return respondStatus(ctx, http.StatusBadRequest, err)
		}
		if err := api.Save.Execute(ctx.Context(), commands.SaveSnapshotInput{Snapshot: payload}); err != nil {
			return respondError(ctx, err)
		}
		return ctx.JSON(http.StatusOK, map[string]string{"status": "saved"})
	}))

	r.Get(routes.Integrations, router.WrapHandler(func(ctx router.Context) error {
		settings, err := api.Integrations.Query(ctx.Context(), queries.IntegrationsInput{})
		if err != nil {
			return respondError(ctx, err)
		}
		if settings == nil {
			settings = dashboard.IntegrationSettings{}
		}
		return ctx.JSON(http.StatusOK, settings)
	}))

	r.Put(routes.Integrations, router.WrapHandler(func(ctx router.Context) error {
		var payload dashboard.IntegrationSettings
		if err := json.Unmarshal(ctx.Body(), &payload); err != nil {
			return respondStatus(ctx, http.StatusBadRequest, err)
		}
		if err := api.SaveIntegrations.Execute(ctx.Context(), commands.SaveIntegrationsInput{Settings: payload}); err != nil {
			return respondError(ctx, err)
		}
		return ctx.JSON(http.StatusOK, map[string]string{"status": "saved"})
	}))

	r.Get(routes.WidgetTypes, router.WrapHandler(func(ctx router.Context) error {
		types, err := api.WidgetTypes.Query(ctx.Context(), queries.WidgetTypesInput{Locale: resolver(ctx).Locale})
		if err != nil {
			return respondError(ctx, err)
		}
		return ctx.JSON(http.StatusOK, types)
	}))

	r.Post(routes.MobilePreview, router.WrapHandler(func(ctx router.Context) error {
		var payload queries.MobilePreviewInput
		if err := json.Unmarshal(ctx.Body(), &payload); err != nil {
			return respondStatus(ctx, http.StatusBadRequest, err)
		}
		widgets, err := api.MobilePreview.Query(ctx.Context(), payload)
		if err != nil {
			return respondError(ctx, err)
		}
		return ctx.JSON(http.StatusOK, queries.MobilePreviewInput{Widgets: widgets})
	}))

	r.Post(routes.Refresh, router.WrapHandler(func(ctx router.Context) error {
		var payload commands.RefreshWidgetInput
		if err := json.Unmarshal(ctx.Body(), &payload); err != nil {
			return respondStatus(ctx, http.StatusBadRequest, err)
		}
		if err := api.Refresh.Execute(ctx.Context(), payload); err != nil {
			return respondError(ctx, err)
		}
		return ctx.JSON(http.StatusAccepted, map[string]string{"status": "queued"})
	}))

	preferences := queries.NewPreferencesQuery(service)
	savePreferences := commands.NewSavePreferencesCommand(service, telemetry)

	r.Get(routes.Preferences, router.WrapHandler(func(ctx router.Context) error {
		prefs, err := preferences.Query(ctx.Context(), resolver(ctx))
		if err != nil {
			return respondError(ctx, err)
		}
		return ctx.JSON(http.StatusOK, prefs)
	}))

	r.Post(routes.Preferences, router.WrapHandler(func(ctx router.Context) error {
		var payload commands.SavePreferencesInput
		if err := json.Unmarshal(ctx.Body(), &payload.Preferences); err != nil {
			return respondStatus(ctx, http.StatusBadRequest, err)
		}
		payload.Viewer = resolver(ctx)
		if err := savePreferences.Execute(ctx.Context(), payload); err != nil {
			return respondStatus(ctx, http.StatusBadRequest, err)
		}
		return ctx.JSON(http.StatusOK, map[string]string{"status": "saved"})
	}))
}

func registerWebSocket[T any](r router.Router[T], bus *dashboard.EventBus, path string) {
	cfg := router.DefaultWebSocketConfig()
	r.WebSocket(path, cfg, func(ws router.WebSocketContext) error {
		events, cancel := bus.Subscribe()
		defer cancel()
		for {
			select {
			case event, ok := <-events:
				if !ok {
					return nil
				}
				if err := ws.WriteJSON(event); err != nil {
					return err
				}
			case <-ws.Context().Done():
				return ws.Close()
			}
		}
	})
}

func defaultViewerResolver(ctx router.Context) dashboard.ViewerContext {
	var viewer dashboard.ViewerContext
	if v, ok := ctx.Locals("user_id").(string); ok {
		viewer.UserID = v
	}
	viewer.Locale = inferLocale(ctx)
	return viewer
}

func inferLocale(ctx router.Context) string {
	if locale, ok := ctx.Locals("locale").(string); ok && locale != "" {
		return locale
	}
	if locale := strings.TrimSpace(ctx.Query("locale")); locale != "" {
		return strings.ToLower(locale)
	}
	if header := ctx.Header("Accept-Language"); header != "" {
		if lang := parseAcceptLanguage(header); lang != "" {
			return lang
		}
	}
	return ""
}

func parseAcceptLanguage(header string) string {
	for _, token := range strings.Split(header, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		if idx := strings.Index(token, ";"); idx >= 0 {
			token = token[:idx]
		}
		if token != "" {
			return strings.ToLower(token)
		}
	}
	return ""
}

func respondError(ctx router.Context, err error) error {
	return respondStatus(ctx, httpapi.StatusFor(err), err)
}

func respondStatus(ctx router.Context, status int, err error) error {
	return ctx.JSON(status, map[string]string{"error": err.Error()})
}

func defaultRouteConfig(routes RouteConfig) RouteConfig {
	if routes.HTML == "" {
		routes.HTML = "/"
	}
	if routes.Widgets == "" {
		routes.Widgets = "/widgets"
	}
	if routes.Integrations == "" {
		routes.Integrations = "/integrations"
	}
	if routes.WidgetTypes == "" {
		routes.WidgetTypes = "/widget-types"
	}
	if routes.MobilePreview == "" {
		routes.MobilePreview = "/layout/mobile"
	}
	if routes.Refresh == "" {
		routes.Refresh = "/widgets/refresh"
	}
	if routes.Preferences == "" {
		routes.Preferences = "/preferences"
	}
	if routes.WebSocket == "" {
		routes.WebSocket = "/events"
	}
	return routes
}
