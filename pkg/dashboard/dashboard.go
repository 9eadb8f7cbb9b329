// Package dashboard re-exports the homelab dashboard engine for consumers
// outside this module.
package dashboard

import (
	core "github.com/goliatone/go-homelab/components/dashboard"
)

type (
	// Service exposes the underlying components/dashboard.Service type.
	Service = core.Service
	// Options re-export for convenience.
	Options           = core.Options
	Controller        = core.Controller
	ControllerOptions = core.ControllerOptions
	Widget            = core.Widget
	LayoutRect        = core.LayoutRect
	Snapshot          = core.Snapshot
	Breakpoint        = core.Breakpoint
	Registry          = core.Registry
	EventBus          = core.EventBus
)

// NewService proxies to the internal constructor.
func NewService(opts Options) *Service {
	return core.NewService(opts)
}

// NewController proxies to the controller constructor.
func NewController(opts ControllerOptions) *Controller {
	return core.NewController(opts)
}

// GenerateMobileLayout derives the linked mobile arrangement.
func GenerateMobileLayout(widgets []Widget) []Widget {
	return core.GenerateMobileLayout(widgets)
}
