package dashboard

import "errors"

var (
	// ErrNotFound is returned by KVStore implementations for missing keys.
	ErrNotFound = errors.New("dashboard: document not found")
	// ErrInvalidSnapshot wraps every snapshot validation failure.
	ErrInvalidSnapshot = errors.New("dashboard: invalid snapshot")
	// ErrUnknownWidgetType is returned when the registry has no metadata for a type.
	ErrUnknownWidgetType = errors.New("dashboard: unknown widget type")
	// ErrWidgetNotFound is returned when an operation targets a missing widget id.
	ErrWidgetNotFound = errors.New("dashboard: widget not found")
	// ErrNotEditing is returned by edit operations outside edit mode.
	ErrNotEditing = errors.New("dashboard: not in edit mode")
	// ErrSaveInProgress is returned while a save or relink request is in flight.
	ErrSaveInProgress = errors.New("dashboard: save in progress")
	// ErrEditInProgress is returned by actions that need edit mode to be closed first.
	ErrEditInProgress = errors.New("dashboard: edit in progress")
	// ErrNotIndependent is returned when relinking a dashboard that is already linked.
	ErrNotIndependent = errors.New("dashboard: mobile layout is not independent")
	// ErrNoPendingConfirmation is returned when confirming a modal that is not shown.
	ErrNoPendingConfirmation = errors.New("dashboard: no confirmation pending")

	errMissingStore = errors.New("dashboard: kv store not configured")
)
