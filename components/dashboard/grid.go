package dashboard

// GridItem is one finalized cell reported by the grid adapter; I is the widget id.
type GridItem struct {
	I string `json:"i"`
	X int    `json:"x"`
	Y int    `json:"y"`
	W int    `json:"w"`
	H int    `json:"h"`
}

// Rect converts the item into a non-negative LayoutRect.
func (g GridItem) Rect() LayoutRect {
	return LayoutRect{X: nonNegative(g.X), Y: nonNegative(g.Y), W: nonNegative(g.W), H: nonNegative(g.H)}
}

func nonNegative(v int) int {
	if v < 0 {
		return 0
	}
	return v
}

// GridAdapter is the set of callbacks an interactive grid renderer drives.
// OnLayoutChange fires on every intermediate frame and must not commit state;
// only the Stop variants carry the finalized layout.
type GridAdapter interface {
	OnBreakpointChange(bp Breakpoint)
	OnDragStart()
	OnResizeStart()
	OnLayoutChange(items []GridItem)
	OnDragStop(items []GridItem) error
	OnResizeStop(items []GridItem) error
}

var _ GridAdapter = (*Controller)(nil)
