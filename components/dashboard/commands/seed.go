package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/goliatone/go-homelab/components/dashboard"
)

// SeedDashboardInput controls bootstrap behavior.
type SeedDashboardInput struct {
	Manifests   []string
	SeedWidgets bool
}

// SeedDashboardCommand loads widget manifests and optionally stores the starter dashboard.
type SeedDashboardCommand struct {
	registry  *dashboard.Registry
	service   *dashboard.Service
	telemetry Telemetry
}

// NewSeedDashboardCommand wires dependencies.
func NewSeedDashboardCommand(registry *dashboard.Registry, service *dashboard.Service, telemetry Telemetry) *SeedDashboardCommand {
	return &SeedDashboardCommand{
		registry:  registry,
		service:   service,
		telemetry: normalizeTelemetry(telemetry),
	}
}

var _ gocommand.Commander[SeedDashboardInput] = (*SeedDashboardCommand)(nil)

// Execute runs the bootstrap pipeline.
func (c *SeedDashboardCommand) Execute(ctx context.Context, msg SeedDashboardInput) error {
	if c.registry == nil {
		return errors.New("seed command requires registry")
	}
	if err := dashboard.LoadManifests(c.registry, msg.Manifests...); err != nil {
		return err
	}
	seeded := false
	if msg.SeedWidgets && c.service != nil {
		var err error
		if seeded, err = dashboard.SeedDashboard(ctx, c.service, nil); err != nil {
			return err
		}
	}
	c.telemetry.Record(ctx, "dashboard.seed", map[string]any{
		"manifests": len(msg.Manifests),
		"seeded":    seeded,
	})
	return nil
}
