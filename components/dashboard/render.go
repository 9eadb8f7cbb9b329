package dashboard

import "sort"

// CollapsedHeight is the rendered height of a widget that reported no content.
// The grid adapter rejects zero-height cells.
const CollapsedHeight = 0.001

// RenderCell is what a presentation layer needs to draw one grid cell and
// delegate the widget body to a type-specific renderer.
type RenderCell struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	Title     string         `json:"title"`
	X         int            `json:"x"`
	Y         int            `json:"y"`
	W         int            `json:"w"`
	H         float64        `json:"h"`
	MinW      int            `json:"minW,omitempty"`
	MinH      int            `json:"minH,omitempty"`
	MaxW      int            `json:"maxW,omitempty"`
	MaxH      int            `json:"maxH,omitempty"`
	EditMode  bool           `json:"editMode"`
	Collapsed bool           `json:"collapsed,omitempty"`
	Config    map[string]any `json:"config,omitempty"`
}

// CellsInput groups everything Cells needs.
type CellsInput struct {
	Widgets    []Widget
	Breakpoint Breakpoint
	EditMode   bool
	Visibility map[string]bool
	Registry   MetadataLookup
	Locale     string
}

// Cells builds render cells for the breakpoint, ordered by (y, x, id). Outside
// edit mode a widget reported invisible keeps its slot but renders at
// CollapsedHeight; siblings keep their y.
func Cells(in CellsInput) []RenderCell {
	bp := in.Breakpoint
	if !bp.Valid() {
		bp = BreakpointDesktop
	}
	cells := make([]RenderCell, 0, len(in.Widgets))
	for _, raw := range in.Widgets {
		w := Migrate(raw)
		rect, ok := w.Layout(bp)
		if !ok {
			rect = w.Layouts[BreakpointDesktop]
			if bp == BreakpointMobile {
				rect.X, rect.W = 0, MobileColumns
			}
		}
		constraints := Constraints(in.Registry, w)
		cell := RenderCell{
			ID:       w.ID,
			Type:     w.Type,
			Title:    cellTitle(in.Registry, w, in.Locale),
			X:        rect.X,
			Y:        rect.Y,
			W:        rect.W,
			H:        float64(rect.H),
			MinW:     constraints.MinW,
			MinH:     constraints.MinH,
			MaxW:     constraints.MaxW,
			MaxH:     constraints.MaxH,
			EditMode: in.EditMode,
			Config:   cloneConfig(w.Config),
		}
		if !in.EditMode {
			if visible, reported := in.Visibility[w.ID]; reported && !visible {
				cell.H = CollapsedHeight
				cell.Collapsed = true
			}
		}
		cells = append(cells, cell)
	}
	sort.Slice(cells, func(i, j int) bool {
		if cells[i].Y != cells[j].Y {
			return cells[i].Y < cells[j].Y
		}
		if cells[i].X != cells[j].X {
			return cells[i].X < cells[j].X
		}
		return cells[i].ID < cells[j].ID
	})
	return cells
}

func cellTitle(lookup MetadataLookup, w Widget, locale string) string {
	if title := w.Title(); title != "" {
		return title
	}
	if lookup != nil {
		if meta, ok := lookup.Lookup(w.Type); ok {
			return meta.NameForLocale(locale)
		}
	}
	return w.Type
}
