package dashboard

import (
	"fmt"
	"io"
	"math"
)

// Renderer describes the template renderer contract needed by the page handlers.
type Renderer interface {
	Render(name string, data any, out ...io.Writer) (string, error)
}

// PageTemplate is the template rendering the dashboard page.
const PageTemplate = "dashboard"

// PageOptions tunes the dashboard page.
type PageOptions struct {
	Title     string
	RowHeight int
	EventsURL string
}

// PageData builds the template payload for the dashboard page. Collapsed
// cells keep a one-row span in the CSS grid and are hidden.
func PageData(cells []RenderCell, bp Breakpoint, mode MobileLayoutMode, locale string, opts PageOptions) map[string]any {
	if opts.Title == "" {
		opts.Title = "Homelab"
	}
	if opts.RowHeight <= 0 {
		opts.RowHeight = 48
	}
	items := make([]map[string]any, 0, len(cells))
	for _, cell := range cells {
		span := int(math.Ceil(cell.H))
		if span < 1 {
			span = 1
		}
		items = append(items, map[string]any{
			"ID":        cell.ID,
			"Type":      cell.Type,
			"Title":     cell.Title,
			"X":         cell.X,
			"Y":         cell.Y,
			"W":         cell.W,
			"Span":      span,
			"EditMode":  cell.EditMode,
			"Collapsed": cell.Collapsed,
		})
	}
	return map[string]any{
		"title":      opts.Title,
		"locale":     locale,
		"breakpoint": string(bp),
		"mode":       string(mode),
		"columns":    bp.Columns(),
		"row_height": opts.RowHeight,
		"events_url": opts.EventsURL,
		"cells":      items,
	}
}

// RenderPage renders the dashboard page for the cells.
func RenderPage(r Renderer, cells []RenderCell, bp Breakpoint, mode MobileLayoutMode, locale string, opts PageOptions, out ...io.Writer) (string, error) {
	if r == nil {
		return "", fmt.Errorf("dashboard: renderer not configured")
	}
	html, err := r.Render(PageTemplate, PageData(cells, bp, mode, locale, opts), out...)
	if err != nil {
		return "", fmt.Errorf("dashboard: render page: %w", err)
	}
	return html, nil
}
