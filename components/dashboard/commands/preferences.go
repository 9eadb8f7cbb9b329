package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/goliatone/go-homelab/components/dashboard"
)

// SavePreferencesInput captures viewer preferences such as the dismissed
// mobile editing disclaimer.
type SavePreferencesInput struct {
	Viewer      dashboard.ViewerContext     `json:"viewer"`
	Preferences dashboard.ViewerPreferences `json:"preferences"`
}

type preferenceService interface {
	SavePreferences(ctx context.Context, viewer dashboard.ViewerContext, prefs dashboard.ViewerPreferences) error
}

// SavePreferencesCommand persists per-user preferences.
type SavePreferencesCommand struct {
	service   preferenceService
	telemetry Telemetry
}

// NewSavePreferencesCommand creates the command.
func NewSavePreferencesCommand(service preferenceService, telemetry Telemetry) *SavePreferencesCommand {
	return &SavePreferencesCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[SavePreferencesInput] = (*SavePreferencesCommand)(nil)

// Execute stores the provided preferences for the viewer.
func (c *SavePreferencesCommand) Execute(ctx context.Context, msg SavePreferencesInput) error {
	if c.service == nil {
		return errors.New("preferences command requires service")
	}
	if msg.Viewer.UserID == "" {
		return errors.New("preferences command requires viewer user id")
	}
	if err := c.service.SavePreferences(ctx, msg.Viewer, msg.Preferences); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "dashboard.preferences.save", map[string]any{
		"user_id":              msg.Viewer.UserID,
		"disclaimer_dismissed": msg.Preferences.MobileDisclaimerDismissed,
	})
	return nil
}
