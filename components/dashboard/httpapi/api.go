package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-homelab/components/dashboard"
	"github.com/goliatone/go-homelab/components/dashboard/commands"
	"github.com/goliatone/go-homelab/components/dashboard/queries"
)

// Handlers exposes the dashboard REST contract backed by shared commands and queries.
type Handlers struct {
	Snapshot         gocommand.Querier[queries.SnapshotInput, dashboard.Snapshot]
	Save             gocommand.Commander[commands.SaveSnapshotInput]
	Integrations     gocommand.Querier[queries.IntegrationsInput, dashboard.IntegrationSettings]
	SaveIntegrations gocommand.Commander[commands.SaveIntegrationsInput]
	WidgetTypes      gocommand.Querier[queries.WidgetTypesInput, []dashboard.WidgetMetadata]
	MobilePreview    gocommand.Querier[queries.MobilePreviewInput, []dashboard.Widget]
	Refresh          gocommand.Commander[commands.RefreshWidgetInput]
	// Events is optional; when set the mux streams bus events.
	Events *dashboard.EventBus
}

// NewHandlers wires every handler to the service.
func NewHandlers(service *dashboard.Service, telemetry commands.Telemetry) *Handlers {
	return &Handlers{
		Snapshot:         queries.NewSnapshotQuery(service),
		Save:             commands.NewSaveSnapshotCommand(service, telemetry),
		Integrations:     queries.NewIntegrationsQuery(service),
		SaveIntegrations: commands.NewSaveIntegrationsCommand(service, telemetry),
		WidgetTypes:      queries.NewWidgetTypesQuery(service),
		MobilePreview:    queries.NewMobilePreviewQuery(service),
		Refresh:          commands.NewRefreshWidgetCommand(service, telemetry),
	}
}

// Mux mounts the handlers on a standard library ServeMux.
func (h *Handlers) Mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /widgets", h.HandleGetWidgets)
	mux.HandleFunc("PUT /widgets", h.HandlePutWidgets)
	mux.HandleFunc("GET /integrations", h.HandleGetIntegrations)
	mux.HandleFunc("PUT /integrations", h.HandlePutIntegrations)
	mux.HandleFunc("GET /widget-types", h.HandleWidgetTypes)
	mux.HandleFunc("POST /layout/mobile", h.HandleMobilePreview)
	mux.HandleFunc("POST /widgets/refresh", h.HandleRefreshWidget)
	if h.Events != nil {
		mux.HandleFunc("GET /events", h.Events.ServeWebSocket)
		mux.HandleFunc("GET /events/stream", h.Events.ServeSSE)
	}
	return mux
}

func (h *Handlers) HandleGetWidgets(w http.ResponseWriter, r *http.Request) {
	snap, err := h.Snapshot.Query(r.Context(), queries.SnapshotInput{})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *Handlers) HandlePutWidgets(w http.ResponseWriter, r *http.Request) {
	var payload dashboard.Snapshot
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	if err := h.Save.Execute(r.Context(), commands.SaveSnapshotInput{Snapshot: payload}); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) HandleGetIntegrations(w http.ResponseWriter, r *http.Request) {
	settings, err := h.Integrations.Query(r.Context(), queries.IntegrationsInput{})
	if err != nil {
		writeError(w, err)
		return
	}
	if settings == nil {
		settings = dashboard.IntegrationSettings{}
	}
	writeJSON(w, http.StatusOK, settings)
}

func (h *Handlers) HandlePutIntegrations(w http.ResponseWriter, r *http.Request) {
	var payload dashboard.IntegrationSettings
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	if err := h.SaveIntegrations.Execute(r.Context(), commands.SaveIntegrationsInput{Settings: payload}); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleWidgetTypes lists the catalog; ?locale= selects translated names.
func (h *Handlers) HandleWidgetTypes(w http.ResponseWriter, r *http.Request) {
	types, err := h.WidgetTypes.Query(r.Context(), queries.WidgetTypesInput{Locale: r.URL.Query().Get("locale")})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types)
}

func (h *Handlers) HandleMobilePreview(w http.ResponseWriter, r *http.Request) {
	var payload queries.MobilePreviewInput
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	widgets, err := h.MobilePreview.Query(r.Context(), payload)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, queries.MobilePreviewInput{Widgets: widgets})
}

func (h *Handlers) HandleRefreshWidget(w http.ResponseWriter, r *http.Request) {
	var payload commands.RefreshWidgetInput
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	if err := h.Refresh.Execute(r.Context(), payload); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

type errorBody struct {
	Error string `json:"error"`
}

// StatusFor maps dashboard errors onto HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, dashboard.ErrInvalidSnapshot), errors.Is(err, dashboard.ErrUnknownWidgetType):
		return http.StatusBadRequest
	case errors.Is(err, dashboard.ErrNotFound), errors.Is(err, dashboard.ErrWidgetNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, StatusFor(err), errorBody{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
