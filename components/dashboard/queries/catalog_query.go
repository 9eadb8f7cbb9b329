package queries

import (
	"context"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/goliatone/go-homelab/components/dashboard"
)

// WidgetTypesInput selects the locale for widget names.
type WidgetTypesInput struct {
	Locale string
}

type catalogService interface {
	WidgetTypes(locale string) []dashboard.WidgetMetadata
}

// WidgetTypesQuery lists the widget catalog for the "add widget" picker.
type WidgetTypesQuery struct {
	service catalogService
}

// NewWidgetTypesQuery builds the query.
func NewWidgetTypesQuery(service catalogService) *WidgetTypesQuery {
	return &WidgetTypesQuery{service: service}
}

var _ gocommand.Querier[WidgetTypesInput, []dashboard.WidgetMetadata] = (*WidgetTypesQuery)(nil)

// Query returns localized widget metadata.
func (q *WidgetTypesQuery) Query(_ context.Context, input WidgetTypesInput) ([]dashboard.WidgetMetadata, error) {
	return q.service.WidgetTypes(input.Locale), nil
}

// IntegrationsInput is the (empty) request for integration settings.
type IntegrationsInput struct{}

type integrationService interface {
	Integrations(ctx context.Context) (dashboard.IntegrationSettings, error)
}

// IntegrationsQuery reads integration settings.
type IntegrationsQuery struct {
	service integrationService
}

// NewIntegrationsQuery builds the query.
func NewIntegrationsQuery(service integrationService) *IntegrationsQuery {
	return &IntegrationsQuery{service: service}
}

var _ gocommand.Querier[IntegrationsInput, dashboard.IntegrationSettings] = (*IntegrationsQuery)(nil)

func (q *IntegrationsQuery) Query(ctx context.Context, _ IntegrationsInput) (dashboard.IntegrationSettings, error) {
	return q.service.Integrations(ctx)
}

type preferenceService interface {
	Preferences(ctx context.Context, viewer dashboard.ViewerContext) (dashboard.ViewerPreferences, error)
}

// PreferencesQuery loads viewer preferences.
type PreferencesQuery struct {
	service preferenceService
}

// NewPreferencesQuery builds the query.
func NewPreferencesQuery(service preferenceService) *PreferencesQuery {
	return &PreferencesQuery{service: service}
}

var _ gocommand.Querier[dashboard.ViewerContext, dashboard.ViewerPreferences] = (*PreferencesQuery)(nil)

func (q *PreferencesQuery) Query(ctx context.Context, viewer dashboard.ViewerContext) (dashboard.ViewerPreferences, error) {
	return q.service.Preferences(ctx, viewer)
}
