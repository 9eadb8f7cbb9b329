package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/goliatone/go-homelab/components/dashboard"
)

// SaveIntegrationsInput replaces the integration settings document.
type SaveIntegrationsInput struct {
	Settings dashboard.IntegrationSettings `json:"settings"`
}

type integrationService interface {
	SaveIntegrations(ctx context.Context, settings dashboard.IntegrationSettings) error
}

// SaveIntegrationsCommand wraps Service.SaveIntegrations.
type SaveIntegrationsCommand struct {
	service   integrationService
	telemetry Telemetry
}

// NewSaveIntegrationsCommand creates the command.
func NewSaveIntegrationsCommand(service integrationService, telemetry Telemetry) *SaveIntegrationsCommand {
	return &SaveIntegrationsCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[SaveIntegrationsInput] = (*SaveIntegrationsCommand)(nil)

// Execute stores the settings.
func (c *SaveIntegrationsCommand) Execute(ctx context.Context, msg SaveIntegrationsInput) error {
	if c.service == nil {
		return errors.New("integrations command requires service")
	}
	if err := c.service.SaveIntegrations(ctx, msg.Settings); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "dashboard.integrations.update", map[string]any{
		"count": len(msg.Settings),
	})
	return nil
}
