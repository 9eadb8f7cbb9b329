package queries

import (
	"context"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/goliatone/go-homelab/components/dashboard"
)

// SnapshotInput is the (empty) request for the stored dashboard.
type SnapshotInput struct{}

type snapshotService interface {
	Snapshot(ctx context.Context) (dashboard.Snapshot, error)
}

// SnapshotQuery reads the normalized dashboard snapshot.
type SnapshotQuery struct {
	service snapshotService
}

// NewSnapshotQuery builds the query.
func NewSnapshotQuery(service snapshotService) *SnapshotQuery {
	return &SnapshotQuery{service: service}
}

var _ gocommand.Querier[SnapshotInput, dashboard.Snapshot] = (*SnapshotQuery)(nil)

// Query returns the stored snapshot.
func (q *SnapshotQuery) Query(ctx context.Context, _ SnapshotInput) (dashboard.Snapshot, error) {
	return q.service.Snapshot(ctx)
}

// MobilePreviewInput carries a desktop arrangement to convert.
type MobilePreviewInput struct {
	Widgets []dashboard.Widget `json:"widgets"`
}

type previewService interface {
	PreviewMobile(widgets []dashboard.Widget) []dashboard.Widget
}

// MobilePreviewQuery runs the mobile generator without persisting anything.
type MobilePreviewQuery struct {
	service previewService
}

// NewMobilePreviewQuery builds the query.
func NewMobilePreviewQuery(service previewService) *MobilePreviewQuery {
	return &MobilePreviewQuery{service: service}
}

var _ gocommand.Querier[MobilePreviewInput, []dashboard.Widget] = (*MobilePreviewQuery)(nil)

// Query returns the widgets with their generated mobile rects.
func (q *MobilePreviewQuery) Query(_ context.Context, input MobilePreviewInput) ([]dashboard.Widget, error) {
	return q.service.PreviewMobile(input.Widgets), nil
}
