package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/goliatone/go-homelab/components/dashboard"
)

// SaveSnapshotInput carries the dashboard to persist (PUT /widgets).
type SaveSnapshotInput struct {
	Snapshot dashboard.Snapshot
}

type snapshotService interface {
	SaveSnapshot(ctx context.Context, snap dashboard.Snapshot) error
}

// SaveSnapshotCommand wraps Service.SaveSnapshot so transports can persist
// dashboards without linking directly against the service.
type SaveSnapshotCommand struct {
	service   snapshotService
	telemetry Telemetry
}

// NewSaveSnapshotCommand creates a command instance.
func NewSaveSnapshotCommand(service snapshotService, telemetry Telemetry) *SaveSnapshotCommand {
	return &SaveSnapshotCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[SaveSnapshotInput] = (*SaveSnapshotCommand)(nil)

// Execute delegates to the dashboard service.
func (c *SaveSnapshotCommand) Execute(ctx context.Context, msg SaveSnapshotInput) error {
	if c.service == nil {
		return errors.New("save command requires service")
	}
	if err := c.service.SaveSnapshot(ctx, msg.Snapshot); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "dashboard.command.save", map[string]any{
		"mode":  string(msg.Snapshot.MobileLayoutMode),
		"count": len(msg.Snapshot.Widgets),
	})
	return nil
}
